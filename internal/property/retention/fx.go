package retention

import (
	"context"

	"github.com/entremotivator/rentalappp1/internal/config"
	"github.com/entremotivator/rentalappp1/internal/observability/metrics"
	"go.uber.org/fx"
)

var Module = fx.Module("property.retention",
	fx.Provide(newRetentionMetrics),
	fx.Provide(NewWorker),
	fx.Invoke(runWorker),
)

func newRetentionMetrics(cfg config.Config) *metrics.RetentionMetrics {
	return metrics.Retention(cfg.ServiceName, cfg.Environment)
}

func runWorker(lc fx.Lifecycle, worker *Worker, cfg config.Config) {
	if !cfg.Retention.Enabled {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go worker.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
