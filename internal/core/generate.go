package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Optimizer is the external lineup generator.
// It may return zero lineups without error.
type Optimizer interface {
	Generate(ctx context.Context, settingsID string) ([]GeneratedLineup, error)
}

// GenerateStore is the store surface a generation run needs.
type GenerateStore interface {
	SettingsStore
	CountPlayers(ctx context.Context, filter PlayerFilter) (int64, error)
}

// GenerateResult is the outcome of one generation run.
type GenerateResult struct {
	Settings OptimizationSettings `json:"settings"`
	Lineups  []GeneratedLineup    `json:"lineups"`
}

// Generator validates settings, persists them, checks the player pool and
// invokes the optimizer. It never retries.
type Generator struct {
	store     GenerateStore
	optimizer Optimizer
	validator *SettingsValidator
	catalog   *Catalog
	now       func() time.Time
}

// NewGenerator creates a generator. A nil catalog uses DefaultCatalog.
func NewGenerator(store GenerateStore, optimizer Optimizer, catalog *Catalog) *Generator {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Generator{
		store:     store,
		optimizer: optimizer,
		validator: NewSettingsValidator(catalog),
		catalog:   catalog,
		now:       time.Now,
	}
}

// Validate checks settings without persisting anything.
func (g *Generator) Validate(s OptimizationSettings) (OptimizationSettings, error) {
	return g.validator.Validate(s)
}

// EligibleFilter selects the players the optimizer may use for sport.
func EligibleFilter(sport string) PlayerFilter {
	return PlayerFilter{
		Sport:     sport,
		Status:    []PlayerStatus{StatusAvailable},
		MinSalary: 1,
	}
}

// Generate runs one generation request. The caller owns the deadline.
func (g *Generator) Generate(ctx context.Context, req OptimizationSettings) (*GenerateResult, error) {
	settings, err := g.validator.Validate(req)
	if err != nil {
		return nil, err
	}

	settings.ID = uuid.NewString()
	settings.CreatedAt = g.now().UTC()
	if err := g.store.InsertSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	rules, err := g.catalog.Get(settings.Sport)
	if err != nil {
		return nil, err
	}
	eligible, err := g.store.CountPlayers(ctx, EligibleFilter(settings.Sport))
	if err != nil {
		return nil, fmt.Errorf("count eligible players: %w", err)
	}
	if eligible < int64(rules.MinPool) {
		return nil, &PoolInsufficientError{Sport: settings.Sport, Eligible: eligible, Required: rules.MinPool}
	}

	if g.optimizer == nil {
		return nil, &OptimizerError{SettingsID: settings.ID, Err: ErrOptimizerUnavailable}
	}

	start := time.Now()
	lineups, err := g.optimizer.Generate(ctx, settings.ID)
	if err != nil {
		return nil, &OptimizerError{SettingsID: settings.ID, Err: err}
	}
	if len(lineups) == 0 {
		return nil, &OptimizerError{SettingsID: settings.ID, Err: ErrNoLineups}
	}

	slog.Info("lineups generated",
		"settings_id", settings.ID,
		"sport", settings.Sport,
		"entry_type", settings.EntryType,
		"lineups", len(lineups),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &GenerateResult{Settings: settings, Lineups: lineups}, nil
}
