package postgres_test

import (
	"context"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/slate/internal/core"
	"github.com/JonMunkholm/slate/internal/store/postgres"
)

// openTestStore connects to DATABASE_URL inside a fresh schema that is
// dropped when the test ends. Tests are skipped without DATABASE_URL.
func openTestStore(t *testing.T) *postgres.Store {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	schema := "slate_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	admin, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(admin.Close)
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
	})

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()

	store, err := postgres.Open(ctx, postgres.PoolConfig{URL: u.String(), MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.EnsureSchema(ctx))
	return store
}

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

func mustPlayer(t *testing.T, s *postgres.Store, id string) core.Player {
	t.Helper()
	p, err := s.GetPlayer(context.Background(), id)
	require.NoError(t, err)
	return *p
}

func TestPostgresMergeFieldIsolation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	engine := core.NewEngine(store, core.ReactivationPolicy{})

	_, err := engine.MergeRoster(ctx, []core.RosterRecord{rosterRecord("1", "A", 5000)})
	require.NoError(t, err)
	usage := 0.3
	proj := projectionRecord("1", 20)
	proj.ExternalID = "ext-1"
	proj.UsageRate = &usage
	_, err = engine.MergeProjections(ctx, []core.ProjectionRecord{proj})
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
	assert.Equal(t, "ext-1", afterRoster.ExternalID)

	// Missing secondary metrics and an empty external id keep stored values.
	_, err = engine.MergeProjections(ctx, []core.ProjectionRecord{projectionRecord("1", 18)})
	require.NoError(t, err)
	afterSecond := mustPlayer(t, store, "1")
	assert.Equal(t, "ext-1", afterSecond.ExternalID)
	require.NotNil(t, afterSecond.UsageRate)
	assert.Equal(t, 0.3, *afterSecond.UsageRate)
}

func TestPostgresMergeRosterResetsWholePool(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
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

func TestPostgresRejectsOutOfRangeSalary(t *testing.T) {
	store := openTestStore(t)

	_, err := store.UpsertRoster(context.Background(), []core.RosterRecord{rosterRecord("1", "A", 1<<31)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SQLSTATE 22003")
}

func TestPostgresLineupsJoinCurrentPool(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	_, err := store.UpsertRoster(ctx, []core.RosterRecord{rosterRecord("1", "Old Name", 5000)})
	require.NoError(t, err)
	p := mustPlayer(t, store, "1")

	require.NoError(t, store.SaveLineup(ctx, core.Lineup{ID: "l1", Sport: "nfl", Players: []core.LineupPlayer{
		{PlayerID: p.ID, Name: "Old Name", PartnerID: "1"},
		{Name: "Gone", PartnerID: "9"},
	}}))
	_, err = store.UpsertRoster(ctx, []core.RosterRecord{rosterRecord("1", "New Name", 5000)})
	require.NoError(t, err)

	lineups, err := store.GetLineups(ctx, []string{"l1"})
	require.NoError(t, err)
	require.Len(t, lineups[0].Players, 2)
	assert.Equal(t, "New Name", lineups[0].Players[0].Name)
	assert.Equal(t, "Gone", lineups[0].Players[1].Name)
	assert.Equal(t, 1, lineups[0].Players[1].Ordinal)

	_, err = store.GetLineups(ctx, []string{"l1", "missing"})
	assert.ErrorIs(t, err, core.ErrLineupNotFound)
}
