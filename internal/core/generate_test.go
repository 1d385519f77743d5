package core_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/slate/internal/core"
	"github.com/JonMunkholm/slate/internal/store/memory"
)

type fakeOptimizer struct {
	lineups []core.GeneratedLineup
	err     error
	calls   []string
}

func (f *fakeOptimizer) Generate(ctx context.Context, settingsID string) ([]core.GeneratedLineup, error) {
	f.calls = append(f.calls, settingsID)
	return f.lineups, f.err
}

// seedGolfers adds n available golfers with a salary.
func seedGolfers(t *testing.T, store *memory.Store, n int) {
	t.Helper()
	rows := make([]core.RosterRecord, n)
	for i := range rows {
		rows[i] = core.RosterRecord{
			PartnerID:       fmt.Sprint(5000 + i),
			Name:            fmt.Sprintf("Golfer %d", i),
			Position:        "G",
			Sport:           "pga",
			Salary:          6000 + i*100,
			RosterPositions: "G",
		}
	}
	_, err := core.NewEngine(store, core.ReactivationPolicy{}).MergeRoster(context.Background(), rows)
	require.NoError(t, err)
}

func TestGenerateSuccessPersistsSettings(t *testing.T) {
	store := memory.New()
	seedGolfers(t, store, 12)
	opt := &fakeOptimizer{lineups: []core.GeneratedLineup{{LineupID: "l1", TotalSalary: 49800, ProjectedPoints: 300}}}
	gen := core.NewGenerator(store, opt, nil)

	res, err := gen.Generate(context.Background(), core.OptimizationSettings{EntryType: core.EntrySingle, Sport: "pga"})
	require.NoError(t, err)
	require.Len(t, res.Lineups, 1)
	require.NotEmpty(t, res.Settings.ID)
	assert.Equal(t, []string{res.Settings.ID}, opt.calls)
	assert.False(t, res.Settings.CreatedAt.IsZero())

	stored, err := store.GetSettings(context.Background(), res.Settings.ID)
	require.NoError(t, err)
	assert.Equal(t, 50000, stored.MaxSalary)
	assert.Equal(t, 1, stored.LineupCount)
}

func TestGenerateInvalidSettingsSkipsStore(t *testing.T) {
	opt := &fakeOptimizer{}
	gen := core.NewGenerator(memory.New(), opt, nil)

	_, err := gen.Generate(context.Background(), core.OptimizationSettings{EntryType: core.EntrySingle, Sport: "pga", MaxSalary: 1})
	_, ok := core.AsValidationError(err)
	assert.True(t, ok)
	assert.Empty(t, opt.calls)
}

func TestGeneratePoolInsufficient(t *testing.T) {
	store := memory.New()
	seedGolfers(t, store, 11)
	opt := &fakeOptimizer{}

	_, err := core.NewGenerator(store, opt, nil).Generate(context.Background(), core.OptimizationSettings{EntryType: core.EntrySingle, Sport: "pga"})
	perr, ok := core.AsPoolInsufficientError(err)
	require.True(t, ok)
	assert.Equal(t, int64(11), perr.Eligible)
	assert.Equal(t, 12, perr.Required)
	assert.Empty(t, opt.calls, "optimizer is not called for a short pool")
}

func TestGeneratePoolCountsOnlyEligible(t *testing.T) {
	store := memory.New()
	seedGolfers(t, store, 12)
	// A golfer known only from projections has no salary and does not count.
	_, err := store.UpsertProjections(context.Background(), []core.ProjectionRecord{{PartnerID: "free", Sport: "pga"}}, core.DefaultReactivation)
	require.NoError(t, err)

	n, err := store.CountPlayers(context.Background(), core.EligibleFilter("pga"))
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
}

func TestGenerateOptimizerFailures(t *testing.T) {
	tests := []struct {
		name    string
		opt     core.Optimizer
		wantErr error
	}{
		{"not configured", nil, core.ErrOptimizerUnavailable},
		{"empty result", &fakeOptimizer{}, core.ErrNoLineups},
		{"transport error", &fakeOptimizer{err: errors.New("dial tcp: i/o timeout")}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			seedGolfers(t, store, 12)

			_, err := core.NewGenerator(store, tt.opt, nil).Generate(context.Background(), core.OptimizationSettings{EntryType: core.EntrySingle, Sport: "pga"})
			oerr, ok := core.AsOptimizerError(err)
			require.True(t, ok, "got %v", err)
			assert.NotEmpty(t, oerr.SettingsID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
