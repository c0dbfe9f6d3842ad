package core

// scheduler.go runs background maintenance for the audit log.
//
// The pruner deletes audit entries older than the retention period in
// batches, immediately on start and then every CheckInterval. It is
// context-aware for graceful shutdown and only logs failures; a failed run
// is retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig holds configuration for the audit pruner.
// Zero fields fall back to the defaults below.
type RetentionConfig struct {
	RetentionDays int           // Days to keep audit entries (default: 90)
	BatchSize     int           // Rows deleted per statement (default: 5000)
	CheckInterval time.Duration // How often to run (default: 24h)
}

const (
	DefaultRetentionDays  = 90
	DefaultPruneBatchSize = 5000
	DefaultPruneInterval  = 24 * time.Hour
)

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = DefaultRetentionDays
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultPruneBatchSize
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = DefaultPruneInterval
	}
	return c
}

// StartAuditPruner blocks, pruning old audit entries until ctx is cancelled.
// Run it in its own goroutine.
func (s *Service) StartAuditPruner(ctx context.Context, cfg RetentionConfig) {
	cfg = cfg.withDefaults()
	slog.Info("audit pruner started",
		"retention_days", cfg.RetentionDays,
		"batch_size", cfg.BatchSize,
		"interval", cfg.CheckInterval,
	)

	s.runPruneJob(ctx, cfg, time.Now())

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("audit pruner stopped")
			return
		case now := <-ticker.C:
			s.runPruneJob(ctx, cfg, now)
		}
	}
}

// runPruneJob deletes batches until one comes back short.
func (s *Service) runPruneJob(ctx context.Context, cfg RetentionConfig, now time.Time) int64 {
	start := time.Now()
	cutoff := now.AddDate(0, 0, -cfg.RetentionDays)

	var total int64
	for ctx.Err() == nil {
		n, err := s.store.PruneAudit(ctx, cutoff, cfg.BatchSize)
		if err != nil {
			slog.Error("audit prune failed", "error", err, "pruned", total)
			return total
		}
		total += n
		if n < int64(cfg.BatchSize) {
			break
		}
	}

	slog.Info("audit prune completed",
		"pruned", total,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return total
}
