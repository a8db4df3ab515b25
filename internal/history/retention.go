package history

// retention.go prunes old history rows in the background. It runs once at
// start and then every CheckInterval until its context is cancelled. A
// failed pass is logged and retried on the next tick.

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetentionConfig controls history pruning. Zero values use defaults.
type RetentionConfig struct {
	MaxAge        time.Duration // entries older than this are deleted (default: 30 days)
	BatchSize     int           // rows per DELETE (default: 5000)
	CheckInterval time.Duration // how often to run (default: 24h)
}

const (
	DefaultMaxAge        = 30 * 24 * time.Hour
	DefaultPruneBatch    = 5000
	DefaultCheckInterval = 24 * time.Hour
)

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.MaxAge <= 0 {
		c.MaxAge = DefaultMaxAge
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultPruneBatch
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = DefaultCheckInterval
	}
	return c
}

// Pruner deletes up to limit entries created before cutoff and reports how
// many were removed.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

const pruneSQL = `
DELETE FROM extraction_history
WHERE id IN (
    SELECT id FROM extraction_history
    WHERE created_at < $1
    ORDER BY created_at
    LIMIT $2
)`

// Prune deletes one batch of entries older than cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	tag, err := s.pool.Exec(ctx, pruneSQL, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("pruning extraction history: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RunRetention blocks, pruning p on cfg's schedule until ctx is done.
func RunRetention(ctx context.Context, p Pruner, cfg RetentionConfig) {
	cfg = cfg.withDefaults()
	slog.Info("history retention started",
		"max_age", cfg.MaxAge.String(),
		"batch_size", cfg.BatchSize,
		"interval", cfg.CheckInterval.String(),
	)

	pruneOnce(ctx, p, cfg, time.Now())

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history retention stopped")
			return
		case now := <-ticker.C:
			pruneOnce(ctx, p, cfg, now)
		}
	}
}

// pruneOnce deletes batches until one comes back short.
func pruneOnce(ctx context.Context, p Pruner, cfg RetentionConfig, now time.Time) int64 {
	start := time.Now()
	cutoff := now.Add(-cfg.MaxAge)

	var total int64
	for ctx.Err() == nil {
		n, err := p.Prune(ctx, cutoff, cfg.BatchSize)
		if err != nil {
			slog.Error("history prune failed", "error", err, "deleted", total)
			return total
		}
		total += n
		if n < int64(cfg.BatchSize) {
			break
		}
	}

	slog.Info("history pruned",
		"deleted", total,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return total
}
