package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// discountDeactivator is implemented by the postgres discount repo.
type discountDeactivator interface {
	DeactivateExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Job sweeps expired discount codes so the checkout path never has to reason
// about stale rows.
type Job struct {
	discounts discountDeactivator
	interval  time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func New(discounts discountDeactivator, interval time.Duration, logger *zap.Logger) *Job {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		discounts: discounts,
		interval:  interval,
		now:       time.Now,
		logger:    logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.discounts == nil {
		return fmt.Errorf("discount store is nil")
	}

	rows, err := j.discounts.DeactivateExpired(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("sweep expired discounts: %w", err)
	}
	if rows > 0 {
		j.logger.Info("expired discounts deactivated", zap.Int64("rows", rows))
	}

	return nil
}

// Start runs the sweep on a fixed interval until the context is cancelled.
func (j *Job) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := j.Run(ctx); err != nil {
					j.logger.Warn("discount cleanup run failed", zap.Error(err))
				}
			}
		}
	}()
}
