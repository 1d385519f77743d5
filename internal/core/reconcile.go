package core

// reconcile.go merges resolved upload records into the player store.
//
// A roster upload resets the whole pool before upserting, so players that
// left the slate fall to unavailable. A projections upload only touches the
// rows it names. Both merges key on partner_id and write their own field
// group, which makes them idempotent and independent of upload order.

import (
	"context"
	"errors"
	"log/slog"
	"slices"
)

// ErrNoMergeableRows is returned when a roster file yields no row with a
// partner id. The pool reset is skipped so an unusable file cannot empty
// the slate.
var ErrNoMergeableRows = errors.New("no rows with a partner id")

// ReactivationPolicy decides the status a player takes when a projections
// upload touches it. Statuses in Keep survive; everything else becomes
// available.
type ReactivationPolicy struct {
	Keep []PlayerStatus
}

// DefaultReactivation preserves an explicit out.
var DefaultReactivation = ReactivationPolicy{Keep: []PlayerStatus{StatusOut}}

// Keeps reports whether the policy leaves status s unchanged.
func (p ReactivationPolicy) Keeps(s PlayerStatus) bool {
	return slices.Contains(p.Keep, s)
}

// Next returns the status after a projections refresh.
func (p ReactivationPolicy) Next(current PlayerStatus) PlayerStatus {
	if p.Keeps(current) {
		return current
	}
	return StatusAvailable
}

// rosterResetKeep lists the statuses the roster pool reset leaves alone.
var rosterResetKeep = []PlayerStatus{StatusOut}

// MergeStore is the store surface the engine needs.
type MergeStore interface {
	PlayerStore
	TxRunner
}

// MergeStats describes what one merge did.
type MergeStats struct {
	Merged      int64
	Dropped     int // rows without a partner id
	Collapsed   int // rows superseded by a later row with the same partner id
	Deactivated int64
}

// Engine runs roster and projections merges. It holds no per-file state and
// is safe for concurrent use.
type Engine struct {
	store  MergeStore
	policy ReactivationPolicy
}

// NewEngine creates an engine over store. A zero policy falls back to
// DefaultReactivation.
func NewEngine(store MergeStore, policy ReactivationPolicy) *Engine {
	if policy.Keep == nil {
		policy = DefaultReactivation
	}
	return &Engine{store: store, policy: policy}
}

// Policy returns the reactivation policy in effect.
func (e *Engine) Policy() ReactivationPolicy {
	return e.policy
}

// MergeRoster applies a roster file: reset the pool, then upsert every row.
//
// Both writes run in one transaction when the store supports it. The reset
// always completes before the upsert so the upsert's available status wins
// for players present in the file.
func (e *Engine) MergeRoster(ctx context.Context, records []RosterRecord) (MergeStats, error) {
	var stats MergeStats

	keyed, dropped := filterKeyed(records, func(r RosterRecord) string { return r.PartnerID })
	rows, collapsed := collapseByKey(keyed, func(r RosterRecord) string { return r.PartnerID })
	stats.Dropped, stats.Collapsed = dropped, collapsed

	if len(rows) == 0 {
		return stats, ErrNoMergeableRows
	}

	err := e.store.InTx(ctx, func(tx PlayerStore) error {
		n, err := tx.MarkUnavailableExcept(ctx, rosterResetKeep)
		if err != nil {
			return &MergeError{FileType: FileRoster, Phase: "reset", Err: err}
		}
		stats.Deactivated = n

		merged, err := tx.UpsertRoster(ctx, rows)
		if err != nil {
			return &MergeError{FileType: FileRoster, Phase: "upsert", Err: err}
		}
		stats.Merged = merged
		return nil
	})
	if err != nil {
		if _, ok := AsMergeError(err); !ok {
			err = &MergeError{FileType: FileRoster, Phase: "commit", Err: err}
		}
		return MergeStats{Dropped: dropped, Collapsed: collapsed}, err
	}

	slog.Debug("roster merged",
		"merged", stats.Merged,
		"deactivated", stats.Deactivated,
		"dropped", stats.Dropped,
		"collapsed", stats.Collapsed,
	)
	return stats, nil
}

// MergeProjections applies a projections file. Rows without a partner id
// cannot be matched and are dropped. A file with no usable rows is a no-op.
func (e *Engine) MergeProjections(ctx context.Context, records []ProjectionRecord) (MergeStats, error) {
	var stats MergeStats

	keyed, dropped := filterKeyed(records, func(r ProjectionRecord) string { return r.PartnerID })
	rows, collapsed := collapseByKey(keyed, func(r ProjectionRecord) string { return r.PartnerID })
	stats.Dropped, stats.Collapsed = dropped, collapsed

	if len(rows) == 0 {
		return stats, nil
	}

	merged, err := e.store.UpsertProjections(ctx, rows, e.policy)
	if err != nil {
		return stats, &MergeError{FileType: FileProjections, Phase: "upsert", Err: err}
	}
	stats.Merged = merged

	slog.Debug("projections merged",
		"merged", stats.Merged,
		"dropped", stats.Dropped,
		"collapsed", stats.Collapsed,
	)
	return stats, nil
}

func filterKeyed[T any](rows []T, key func(T) string) ([]T, int) {
	out := make([]T, 0, len(rows))
	dropped := 0
	for _, r := range rows {
		if key(r) == "" {
			dropped++
			continue
		}
		out = append(out, r)
	}
	return out, dropped
}

// collapseByKey keeps the last row for each key, at the position of the
// key's first occurrence.
func collapseByKey[T any](rows []T, key func(T) string) ([]T, int) {
	index := make(map[string]int, len(rows))
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		k := key(r)
		if i, seen := index[k]; seen {
			out[i] = r
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out, len(rows) - len(out)
}
