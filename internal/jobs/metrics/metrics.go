package metrics

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type rollupStore interface {
	RollupSince(ctx context.Context, cutoff time.Time) (int64, error)
}

// Job folds recent audit ledger entries into per-day trust metrics. The
// rollup upserts, so overlapping lookback windows across runs are harmless.
type Job struct {
	store    rollupStore
	lookback time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func New(store rollupStore, lookback time.Duration, logger *zap.Logger) *Job {
	if lookback <= 0 {
		lookback = 48 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		store:    store,
		lookback: lookback,
		now:      time.Now,
		logger:   logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.store == nil {
		return nil
	}

	cutoff := j.now().UTC().Add(-j.lookback)
	rows, err := j.store.RollupSince(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("rollup trust metrics: %w", err)
	}
	if rows > 0 {
		j.logger.Info("trust metrics rollup completed", zap.Int64("days_upserted", rows), zap.Time("cutoff", cutoff))
	}

	return nil
}
