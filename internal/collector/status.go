package collector

import (
	"context"
	"time"

	"cryptometrics/pkg/storage"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Counter reports how many observations are stored.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

var _ Counter = (storage.Store)(nil)

// StartStatusReporter logs the stored observation count on the given cron
// spec (e.g. "@every 5m"). Stop the returned cron to end reporting.
func StartStatusReporter(spec string, store Counter, scheduler *Scheduler, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		count, err := store.Count(ctx)
		if err != nil {
			logger.Warn("failed to count stored observations", zap.Error(err))
			return
		}
		fields := []zap.Field{zap.Int64("count", count)}
		if scheduler != nil {
			fields = append(fields, zap.Stringer("state", scheduler.State()))
		}
		logger.Info("current saved observations", fields...)
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}
