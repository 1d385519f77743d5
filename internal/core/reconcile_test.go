package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/slate/internal/core"
	"github.com/JonMunkholm/slate/internal/store/memory"
)

func rosterRecord(id, name string, salary int) core.RosterRecord {
	return core.RosterRecord{
		PartnerID:       id,
		Name:            name,
		Position:        "WR",
		Team:            "NYJ",
		Opponent:        "NYJ",
		Sport:           "nfl",
		Game:            core.GameInfo{Away: "NYJ", Home: "BUF", Kickoff: "1:00PM"},
		Salary:          salary,
		RosterPositions: "WR/FLEX",
		ProjectedPoints: 10,
	}
}

func projectionRecord(id string, points float64) core.ProjectionRecord {
	return core.ProjectionRecord{
		PartnerID:       id,
		Sport:           "nfl",
		ProjectedPoints: points,
		Ownership:       12.5,
		Ceiling:         points + 8,
		Floor:           points - 6,
		Minutes:         60,
	}
}

func mustPlayer(t *testing.T, s *memory.Store, id string) core.Player {
	t.Helper()
	p, err := s.GetPlayer(context.Background(), id)
	require.NoError(t, err)
	return *p
}

func TestMergeRosterIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	engine := core.NewEngine(store, core.ReactivationPolicy{})
	rows := []core.RosterRecord{rosterRecord("1", "A", 5000), rosterRecord("2", "B", 6000)}

	_, err := engine.MergeRoster(ctx, rows)
	require.NoError(t, err)
	first, err := store.ListPlayers(ctx, core.PlayerFilter{})
	require.NoError(t, err)

	_, err = engine.MergeRoster(ctx, rows)
	require.NoError(t, err)
	second, err := store.ListPlayers(ctx, core.PlayerFilter{})
	require.NoError(t, err)

	require.Len(t, second, 2)
	for i := range first {
		assert.Equal(t, first[i].PartnerID, second[i].PartnerID)
		assert.Equal(t, first[i].Salary, second[i].Salary)
		assert.Equal(t, core.StatusAvailable, second[i].Status)
	}
}

func TestMergeRosterResetsWholePool(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	engine := core.NewEngine(store, core.ReactivationPolicy{})

	_, err := engine.MergeRoster(ctx, []core.RosterRecord{rosterRecord("1", "A", 5000), rosterRecord("2", "B", 6000)})
	require.NoError(t, err)

	stats, err := engine.MergeRoster(ctx, []core.RosterRecord{rosterRecord("2", "B", 6100), rosterRecord("3", "C", 7000)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Merged)
	assert.Equal(t, int64(2), stats.Deactivated)

	assert.Equal(t, core.StatusUnavailable, mustPlayer(t, store, "1").Status)
	assert.Equal(t, core.StatusAvailable, mustPlayer(t, store, "2").Status)
	assert.Equal(t, 6100, mustPlayer(t, store, "2").Salary)
	assert.Equal(t, core.StatusAvailable, mustPlayer(t, store, "3").Status)
}

func TestMergeRosterCollapsesDuplicateKeys(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	engine := core.NewEngine(store, core.ReactivationPolicy{})

	stats, err := engine.MergeRoster(ctx, []core.RosterRecord{
		rosterRecord("1", "First", 5000),
		rosterRecord("", "No Key", 4000),
		rosterRecord("1", "Second", 5500),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Collapsed)
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, int64(1), stats.Merged)

	p := mustPlayer(t, store, "1")
	assert.Equal(t, "Second", p.Name)
	assert.Equal(t, 5500, p.Salary)

	n, err := store.CountPlayers(ctx, core.PlayerFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMergeRosterWithoutKeysLeavesPoolAlone(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	engine := core.NewEngine(store, core.ReactivationPolicy{})

	_, err := engine.MergeRoster(ctx, []core.RosterRecord{rosterRecord("1", "A", 5000)})
	require.NoError(t, err)

	stats, err := engine.MergeRoster(ctx, []core.RosterRecord{rosterRecord("", "X", 1)})
	assert.ErrorIs(t, err, core.ErrNoMergeableRows)
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, core.StatusAvailable, mustPlayer(t, store, "1").Status)
}

func TestMergeFieldIsolation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	engine := core.NewEngine(store, core.ReactivationPolicy{})

	_, err := engine.MergeRoster(ctx, []core.RosterRecord{rosterRecord("1", "A", 5000)})
	require.NoError(t, err)
	_, err = engine.MergeProjections(ctx, []core.ProjectionRecord{projectionRecord("1", 20)})
	require.NoError(t, err)

	afterProjections := mustPlayer(t, store, "1")
	assert.Equal(t, 5000, afterProjections.Salary, "projections never touch salary")
	assert.Equal(t, "NYJ", afterProjections.Team)
	assert.Equal(t, "WR/FLEX", afterProjections.RosterPositions)
	assert.Equal(t, 20.0, afterProjections.ProjectedPoints)
	require.NotNil(t, afterProjections.Ceiling)
	assert.Equal(t, 28.0, *afterProjections.Ceiling)

	// A later roster upload replaces roster-owned fields only.
	_, err = engine.MergeRoster(ctx, []core.RosterRecord{rosterRecord("1", "A", 5200)})
	require.NoError(t, err)

	afterRoster := mustPlayer(t, store, "1")
	assert.Equal(t, 5200, afterRoster.Salary)
	require.NotNil(t, afterRoster.Ceiling)
	assert.Equal(t, 28.0, *afterRoster.Ceiling, "roster never touches ceiling")
	require.NotNil(t, afterRoster.Minutes)
	assert.Equal(t, 60.0, *afterRoster.Minutes)
}

func TestMergeProjectionsReactivation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	engine := core.NewEngine(store, core.ReactivationPolicy{})

	_, err := engine.MergeRoster(ctx, []core.RosterRecord{rosterRecord("1", "A", 5000)})
	require.NoError(t, err)
	// Roster without player 1 drops it to unavailable.
	_, err = engine.MergeRoster(ctx, []core.RosterRecord{rosterRecord("2", "B", 5000)})
	require.NoError(t, err)
	require.Equal(t, core.StatusUnavailable, mustPlayer(t, store, "1").Status)

	_, err = engine.MergeProjections(ctx, []core.ProjectionRecord{projectionRecord("1", 12)})
	require.NoError(t, err)
	assert.Equal(t, core.StatusAvailable, mustPlayer(t, store, "1").Status)
}

func TestMergeProjectionsCreatesUnknownPlayers(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	engine := core.NewEngine(store, core.ReactivationPolicy{})

	rec := projectionRecord("77", 9)
	rec.Name, rec.Team = "New Guy", "MIA"
	stats, err := engine.MergeProjections(ctx, []core.ProjectionRecord{rec, projectionRecord("", 3)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Merged)
	assert.Equal(t, 1, stats.Dropped)

	p := mustPlayer(t, store, "77")
	assert.Equal(t, "New Guy", p.Name)
	assert.Equal(t, 0, p.Salary)
}

func TestMergeProjectionsEmptyIsNoop(t *testing.T) {
	engine := core.NewEngine(memory.New(), core.ReactivationPolicy{})
	stats, err := engine.MergeProjections(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, stats.Merged)
}

func TestReactivationPolicy(t *testing.T) {
	p := core.DefaultReactivation
	assert.Equal(t, core.StatusOut, p.Next(core.StatusOut))
	assert.Equal(t, core.StatusAvailable, p.Next(core.StatusUnavailable))
	assert.Equal(t, core.StatusAvailable, p.Next(core.StatusQuestionable))

	strict := core.ReactivationPolicy{Keep: []core.PlayerStatus{core.StatusOut, core.StatusQuestionable}}
	assert.Equal(t, core.StatusQuestionable, strict.Next(core.StatusQuestionable))

	assert.Equal(t, core.DefaultReactivation, core.NewEngine(memory.New(), core.ReactivationPolicy{}).Policy())
}

type failingStore struct {
	*memory.Store
	err error
}

func (f failingStore) UpsertRoster(ctx context.Context, rows []core.RosterRecord) (int64, error) {
	return 0, f.err
}

func (f failingStore) InTx(ctx context.Context, fn func(core.PlayerStore) error) error {
	return fn(f)
}

func TestMergeRosterWrapsStoreFailure(t *testing.T) {
	boom := errors.New("connection reset by peer")
	engine := core.NewEngine(failingStore{Store: memory.New(), err: boom}, core.ReactivationPolicy{})

	_, err := engine.MergeRoster(context.Background(), []core.RosterRecord{rosterRecord("1", "A", 5000)})
	require.ErrorIs(t, err, boom)
	merr, ok := core.AsMergeError(err)
	require.True(t, ok)
	assert.Equal(t, "upsert", merr.Phase)
	assert.Equal(t, core.FileRoster, merr.FileType)
}
