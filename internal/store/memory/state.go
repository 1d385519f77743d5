package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/JonMunkholm/slate/internal/core"
)

// state is the unlocked data behind Store. Callers hold Store.mu.
type state struct {
	players  map[string]*core.Player // by partner id
	byID     map[int64]string        // surrogate id -> partner id
	nextID   int64
	uploads  map[string]core.FileUpload
	settings map[string]core.OptimizationSettings
	lineups  map[string]core.Lineup
	now      func() time.Time
}

func newState(now func() time.Time) *state {
	return &state{
		players:  make(map[string]*core.Player),
		byID:     make(map[int64]string),
		uploads:  make(map[string]core.FileUpload),
		settings: make(map[string]core.OptimizationSettings),
		lineups:  make(map[string]core.Lineup),
		now:      now,
	}
}

type playerSnapshot struct {
	players map[string]*core.Player
	byID    map[int64]string
	nextID  int64
}

func (st *state) snapshotPlayers() playerSnapshot {
	snap := playerSnapshot{
		players: make(map[string]*core.Player, len(st.players)),
		byID:    make(map[int64]string, len(st.byID)),
		nextID:  st.nextID,
	}
	for k, p := range st.players {
		c := clonePlayer(*p)
		snap.players[k] = &c
	}
	for k, v := range st.byID {
		snap.byID[k] = v
	}
	return snap
}

func (st *state) restorePlayers(snap playerSnapshot) {
	st.players = snap.players
	st.byID = snap.byID
	st.nextID = snap.nextID
}

func (st *state) insertPlayer(partnerID string) *core.Player {
	st.nextID++
	now := st.now().UTC()
	p := &core.Player{
		ID:        st.nextID,
		PartnerID: partnerID,
		Status:    core.StatusAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
	st.players[partnerID] = p
	st.byID[p.ID] = partnerID
	return p
}

func (st *state) markUnavailableExcept(keep []core.PlayerStatus) int64 {
	var n int64
	now := st.now().UTC()
	for _, p := range st.players {
		if p.Status == core.StatusUnavailable || slices.Contains(keep, p.Status) {
			continue
		}
		p.Status = core.StatusUnavailable
		p.UpdatedAt = now
		n++
	}
	return n
}

// upsertRoster writes roster-owned fields. Projection metrics on an
// existing player are left as they are.
func (st *state) upsertRoster(rows []core.RosterRecord) int64 {
	now := st.now().UTC()
	for _, r := range rows {
		p, ok := st.players[r.PartnerID]
		if !ok {
			p = st.insertPlayer(r.PartnerID)
		}
		p.Name = r.Name
		p.Position = r.Position
		p.Team = r.Team
		p.Opponent = r.Opponent
		p.Sport = r.Sport
		p.AwayTeam = r.Game.Away
		p.HomeTeam = r.Game.Home
		p.Kickoff = r.Game.Kickoff
		p.Salary = r.Salary
		p.RosterPositions = r.RosterPositions
		p.ProjectedPoints = r.ProjectedPoints
		p.Ownership = 0
		p.Status = core.StatusAvailable
		p.UpdatedAt = now
	}
	return int64(len(rows))
}

// upsertProjections writes projection-owned fields. Descriptive fields are
// only set when the row creates the player.
func (st *state) upsertProjections(rows []core.ProjectionRecord, policy core.ReactivationPolicy) int64 {
	now := st.now().UTC()
	for _, r := range rows {
		p, ok := st.players[r.PartnerID]
		if !ok {
			p = st.insertPlayer(r.PartnerID)
			p.Name = r.Name
			p.Position = r.Position
			p.Team = r.Team
			p.Sport = r.Sport
		}
		if r.ExternalID != "" {
			p.ExternalID = r.ExternalID
		}
		p.ProjectedPoints = r.ProjectedPoints
		p.Ownership = r.Ownership
		p.Ceiling = ptr(r.Ceiling)
		p.Floor = ptr(r.Floor)
		p.Minutes = ptr(r.Minutes)
		p.UsageRate = keepOrSet(p.UsageRate, r.UsageRate)
		p.SnapCount = keepOrSet(p.SnapCount, r.SnapCount)
		p.TargetShare = keepOrSet(p.TargetShare, r.TargetShare)
		p.RushShare = keepOrSet(p.RushShare, r.RushShare)
		p.DvpRank = keepOrSet(p.DvpRank, r.DvpRank)
		p.Status = policy.Next(p.Status)
		p.UpdatedAt = now
	}
	return int64(len(rows))
}

func (st *state) getPlayer(partnerID string) (*core.Player, error) {
	p, ok := st.players[partnerID]
	if !ok {
		return nil, core.ErrPlayerNotFound
	}
	c := clonePlayer(*p)
	return &c, nil
}

// listPlayers orders by projected points descending, then name.
func (st *state) listPlayers(f core.PlayerFilter) []core.Player {
	out := make([]core.Player, 0, len(st.players))
	for _, p := range st.players {
		if f.Sport != "" && p.Sport != f.Sport {
			continue
		}
		if len(f.Status) > 0 && !slices.Contains(f.Status, p.Status) {
			continue
		}
		if f.MinSalary > 0 && p.Salary < f.MinSalary {
			continue
		}
		out = append(out, clonePlayer(*p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProjectedPoints != out[j].ProjectedPoints {
			return out[i].ProjectedPoints > out[j].ProjectedPoints
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// joinLineup fills player names and partner ids from the current pool.
func (st *state) joinLineup(l core.Lineup) core.Lineup {
	players := make([]core.LineupPlayer, len(l.Players))
	for i, lp := range l.Players {
		if pid, ok := st.byID[lp.PlayerID]; ok {
			p := st.players[pid]
			lp.Name = p.Name
			lp.PartnerID = p.PartnerID
		}
		players[i] = lp
	}
	l.Players = players
	return l
}

// txView is the lock-free PlayerStore handed to InTx callbacks.
type txView struct {
	st *state
}

func (v txView) MarkUnavailableExcept(ctx context.Context, keep []core.PlayerStatus) (int64, error) {
	return v.st.markUnavailableExcept(keep), ctx.Err()
}

func (v txView) UpsertRoster(ctx context.Context, rows []core.RosterRecord) (int64, error) {
	return v.st.upsertRoster(rows), ctx.Err()
}

func (v txView) UpsertProjections(ctx context.Context, rows []core.ProjectionRecord, policy core.ReactivationPolicy) (int64, error) {
	return v.st.upsertProjections(rows, policy), ctx.Err()
}

func (v txView) ListPlayers(ctx context.Context, filter core.PlayerFilter) ([]core.Player, error) {
	return v.st.listPlayers(filter), nil
}

func (v txView) CountPlayers(ctx context.Context, filter core.PlayerFilter) (int64, error) {
	filter.Limit = 0
	return int64(len(v.st.listPlayers(filter))), nil
}

func (v txView) GetPlayer(ctx context.Context, partnerID string) (*core.Player, error) {
	return v.st.getPlayer(partnerID)
}

func (v txView) ClearPlayers(ctx context.Context) (int64, error) {
	n := int64(len(v.st.players))
	v.st.players = make(map[string]*core.Player)
	v.st.byID = make(map[int64]string)
	return n, nil
}

func clonePlayer(p core.Player) core.Player {
	p.Ceiling = clonePtr(p.Ceiling)
	p.Floor = clonePtr(p.Floor)
	p.Minutes = clonePtr(p.Minutes)
	p.UsageRate = clonePtr(p.UsageRate)
	p.SnapCount = clonePtr(p.SnapCount)
	p.TargetShare = clonePtr(p.TargetShare)
	p.RushShare = clonePtr(p.RushShare)
	p.DvpRank = clonePtr(p.DvpRank)
	return p
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func ptr(v float64) *float64 { return &v }

func keepOrSet(current, next *float64) *float64 {
	if next == nil {
		return current
	}
	return clonePtr(next)
}
