// Package admin provides destructive maintenance operations shared by the
// CLI and the server.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/slate/internal/core"
)

// Scope selects what a reset removes.
type Scope int

const (
	// ScopePlayers hard-deletes the player pool.
	ScopePlayers Scope = iota
	// ScopeAll also removes every processed ledger entry. Failed entries
	// are kept as evidence.
	ScopeAll
)

// ParseScope converts a CLI flag value to a Scope.
func ParseScope(s string) (Scope, error) {
	switch s {
	case "", "players":
		return ScopePlayers, nil
	case "all":
		return ScopeAll, nil
	}
	return 0, fmt.Errorf("invalid enum for reset scope: %q (want players or all)", s)
}

// Maintainer is the subset of core.Service a reset needs.
type Maintainer interface {
	ClearPlayers(ctx context.Context) (int64, error)
	PruneLedger(ctx context.Context, retention time.Duration) (int64, error)
}

var _ Maintainer = (*core.Service)(nil)

// StepResult reports one completed step.
type StepResult struct {
	Name    string
	Removed int64
}

type resetFn struct {
	name string
	run  func(ctx context.Context) (int64, error)
}

// Reset runs the steps for scope in order and stops at the first failure.
// Results for completed steps are returned even on error.
func Reset(ctx context.Context, m Maintainer, scope Scope) ([]StepResult, error) {
	ctx, cancel := context.WithTimeout(ctx, core.ResetTimeout)
	defer cancel()

	steps := []resetFn{{name: "players", run: m.ClearPlayers}}
	if scope == ScopeAll {
		steps = append(steps, resetFn{
			name: "ledger",
			// Smallest positive retention: everything processed before now.
			run: func(ctx context.Context) (int64, error) { return m.PruneLedger(ctx, time.Nanosecond) },
		})
	}

	results := make([]StepResult, 0, len(steps))
	for _, step := range steps {
		n, err := step.run(ctx)
		if err != nil {
			return results, fmt.Errorf("reset %s: %w", step.name, err)
		}
		results = append(results, StepResult{Name: step.name, Removed: n})
		slog.Warn("reset step completed", "step", step.name, "removed", n)
	}
	return results, nil
}
