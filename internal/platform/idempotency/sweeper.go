package idempotency

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically removes expired records.
type Sweeper struct {
	Store     Store
	Interval  time.Duration
	BatchSize int
	Clock     func() time.Time
	Logger    *zap.Logger
}

// Run sweeps until ctx is cancelled. A zero interval disables sweeping.
func (s Sweeper) Run(ctx context.Context) {
	if s.Store == nil || s.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one cleanup pass and returns the number of removed records.
func (s Sweeper) Sweep(ctx context.Context) int {
	clock := s.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	removed, err := s.Store.CleanupExpired(ctx, clock().UTC(), s.BatchSize)
	if err != nil {
		logger.Warn("idempotency.cleanup.failed", zap.Error(err))
		return 0
	}
	if removed > 0 {
		logger.Debug("idempotency.cleanup", zap.Int("removed", removed))
	}
	return removed
}
