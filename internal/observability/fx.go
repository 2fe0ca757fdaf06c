// Package observability wires logging, tracing and HTTP metrics.
package observability

import (
	"github.com/entremotivator/rentalappp1/internal/config"
	"github.com/entremotivator/rentalappp1/internal/observability/logger"
	"github.com/entremotivator/rentalappp1/internal/observability/metrics"
	"github.com/entremotivator/rentalappp1/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("observability",
	fx.Provide(logger.New),
	fx.Provide(func(cfg config.Config) (*metrics.HTTPMetrics, error) {
		return metrics.NewHTTPMetrics(cfg.ServiceName)
	}),
	fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) error {
		_, err := tracing.NewProvider(lc, cfg, log)
		return err
	}),
)
