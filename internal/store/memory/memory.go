// Package memory implements core.Store in process memory.
//
// It backs STORE_DRIVER=memory and the package tests. InTx holds the write
// lock for the whole callback and restores the player set if it fails, so
// a roster merge is atomic here just as it is in Postgres.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/JonMunkholm/slate/internal/core"
)

// Store is an in-memory core.Store. The zero value is not usable; call New.
type Store struct {
	mu sync.RWMutex
	st *state
}

// New returns an empty store.
func New() *Store {
	return &Store{st: newState(time.Now)}
}

// NewWithClock returns an empty store that stamps records using now.
func NewWithClock(now func() time.Time) *Store {
	return &Store{st: newState(now)}
}

var _ core.Store = (*Store)(nil)

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return nil }

// InTx runs fn against a lock-free view while holding the write lock.
// If fn fails, every player change it made is discarded.
func (s *Store) InTx(ctx context.Context, fn func(core.PlayerStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.snapshotPlayers()
	err := fn(txView{st: s.st})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.st.restorePlayers(snapshot)
	}
	return err
}

func (s *Store) MarkUnavailableExcept(ctx context.Context, keep []core.PlayerStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.markUnavailableExcept(keep), nil
}

func (s *Store) UpsertRoster(ctx context.Context, rows []core.RosterRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.upsertRoster(rows), nil
}

func (s *Store) UpsertProjections(ctx context.Context, rows []core.ProjectionRecord, policy core.ReactivationPolicy) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.upsertProjections(rows, policy), nil
}

func (s *Store) ListPlayers(ctx context.Context, filter core.PlayerFilter) ([]core.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.listPlayers(filter), nil
}

func (s *Store) CountPlayers(ctx context.Context, filter core.PlayerFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	filter.Limit = 0
	return int64(len(s.st.listPlayers(filter))), nil
}

func (s *Store) GetPlayer(ctx context.Context, partnerID string) (*core.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.getPlayer(partnerID)
}

func (s *Store) ClearPlayers(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.st.players))
	s.st.players = make(map[string]*core.Player)
	s.st.byID = make(map[int64]string)
	return n, nil
}

// =============================================================================
// Ledger
// =============================================================================

func (s *Store) InsertUpload(ctx context.Context, u core.FileUpload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.st.uploads[u.ID]; exists {
		return fmt.Errorf("duplicate key value: upload %s", u.ID)
	}
	s.st.uploads[u.ID] = u
	return nil
}

func (s *Store) MarkUploadProcessed(ctx context.Context, id string, rows int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.uploads[id]
	if !ok {
		return core.ErrUploadNotFound
	}
	u.Processed = true
	u.RowCount = rows
	u.Error = ""
	u.ProcessedAt = &at
	s.st.uploads[id] = u
	return nil
}

func (s *Store) MarkUploadFailed(ctx context.Context, id string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.uploads[id]
	if !ok {
		return core.ErrUploadNotFound
	}
	u.Processed = false
	u.Error = reason
	s.st.uploads[id] = u
	return nil
}

func (s *Store) GetUpload(ctx context.Context, id string) (*core.FileUpload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.st.uploads[id]
	if !ok {
		return nil, core.ErrUploadNotFound
	}
	return &u, nil
}

func (s *Store) ListUploads(ctx context.Context, limit int) ([]core.FileUpload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Collect(maps.Values(s.st.uploads))
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) DeleteUpload(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.uploads[id]; !ok {
		return false, nil
	}
	delete(s.st.uploads, id)
	return true, nil
}

func (s *Store) PruneProcessedUploads(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, u := range s.st.uploads {
		if u.Processed && u.CreatedAt.Before(before) {
			delete(s.st.uploads, id)
			n++
		}
	}
	return n, nil
}

// =============================================================================
// Settings and lineups
// =============================================================================

func (s *Store) InsertSettings(ctx context.Context, set core.OptimizationSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.st.settings[set.ID]; exists {
		return fmt.Errorf("duplicate key value: settings %s", set.ID)
	}
	s.st.settings[set.ID] = set
	return nil
}

func (s *Store) GetSettings(ctx context.Context, id string) (*core.OptimizationSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.st.settings[id]
	if !ok {
		return nil, core.ErrSettingsNotFound
	}
	return &set, nil
}

// SaveLineup stores an optimizer result. Players are kept in the given
// order; Ordinal is assigned from it.
func (s *Store) SaveLineup(ctx context.Context, l core.Lineup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.st.lineups[l.ID]; exists {
		return fmt.Errorf("duplicate key value: lineup %s", l.ID)
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = s.st.now().UTC()
	}
	players := make([]core.LineupPlayer, len(l.Players))
	for i, p := range l.Players {
		p.LineupID = l.ID
		p.Ordinal = i
		players[i] = p
	}
	l.Players = players
	s.st.lineups[l.ID] = l
	return nil
}

func (s *Store) GetLineups(ctx context.Context, ids []string) ([]core.Lineup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Lineup, 0, len(ids))
	for _, id := range ids {
		l, ok := s.st.lineups[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", core.ErrLineupNotFound, id)
		}
		out = append(out, s.st.joinLineup(l))
	}
	return out, nil
}

func (s *Store) ListLineupsBySettings(ctx context.Context, settingsID string) ([]core.Lineup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []core.Lineup
	for _, l := range s.st.lineups {
		if l.SettingsID == settingsID {
			out = append(out, s.st.joinLineup(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
