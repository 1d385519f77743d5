package core

// scheduler.go runs background maintenance on a cron schedule.
//
// The only job today is ledger retention: processed upload entries older
// than the retention window are pruned. Unprocessed entries are evidence of
// failed attempts and are never pruned. A failed run is logged and the next
// scheduled run tries again.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionConfig holds configuration for the ledger retention job.
type RetentionConfig struct {
	Retention time.Duration // Age after which processed entries are pruned (0 disables)
	Schedule  string        // Cron spec or descriptor, e.g. "@daily" or "0 3 * * *"
}

// StartLedgerRetention runs the retention job immediately and then on the
// configured schedule until ctx is cancelled. It blocks; run it in a goroutine.
func (s *Service) StartLedgerRetention(ctx context.Context, cfg RetentionConfig) error {
	if cfg.Retention <= 0 {
		slog.Info("ledger retention disabled")
		<-ctx.Done()
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.Schedule, func() { s.runRetentionJob(ctx, cfg) }); err != nil {
		return fmt.Errorf("invalid ledger prune schedule %q: %w", cfg.Schedule, err)
	}

	slog.Info("ledger retention scheduler started",
		"retention", cfg.Retention.String(),
		"schedule", cfg.Schedule,
	)

	s.runRetentionJob(ctx, cfg)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	slog.Info("ledger retention scheduler stopped")
	return nil
}

// runRetentionJob performs one prune cycle.
func (s *Service) runRetentionJob(ctx context.Context, cfg RetentionConfig) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()

	pruned, err := s.PruneLedger(ctx, cfg.Retention)
	if err != nil {
		slog.Error("ledger prune failed", "error", err)
		return
	}

	slog.Info("ledger prune completed",
		"entries_pruned", pruned,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
