// Package retention prunes saved property searches past their maximum age.
package retention

import (
	"context"
	"time"

	"github.com/entremotivator/rentalappp1/internal/config"
	"github.com/entremotivator/rentalappp1/internal/observability/metrics"
	"github.com/entremotivator/rentalappp1/internal/property/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Repo    domain.Repository
	Cfg     config.Config
	Metrics *metrics.RetentionMetrics `optional:"true"`
}

type Worker struct {
	log     *zap.Logger
	repo    domain.Repository
	cfg     config.RetentionConfig
	metrics *metrics.RetentionMetrics
}

func NewWorker(p Params) *Worker {
	return &Worker{
		log:     p.Log.Named("property.retention"),
		repo:    p.Repo,
		cfg:     withDefaults(p.Cfg.Retention),
		metrics: p.Metrics,
	}
}

func withDefaults(cfg config.RetentionConfig) config.RetentionConfig {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Hour
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 365 * 24 * time.Hour
	}
	return cfg
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("retention run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce deletes expired rows in bounded batches until none remain, so a
// single run cannot hold a long transaction over a large backlog.
func (w *Worker) RunOnce(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-w.cfg.MaxAge)
	w.publishBacklog(ctx, cutoff)

	var pruned int64
	for {
		deleted, err := w.repo.DeleteOlderThan(ctx, cutoff, w.cfg.BatchSize)
		if err != nil {
			w.metrics.IncRun("failed")
			return err
		}
		pruned += deleted
		if deleted < int64(w.cfg.BatchSize) {
			break
		}
	}

	w.metrics.AddPruned(pruned)
	w.metrics.IncRun("success")

	if pruned > 0 {
		w.log.Info("pruned expired search history",
			zap.Int64("rows", pruned),
			zap.Time("cutoff", cutoff),
		)
	}
	return nil
}

// publishBacklog sets the backlog gauges from the pre-run state. Gauge
// failures only cost visibility, never a run.
func (w *Worker) publishBacklog(ctx context.Context, cutoff time.Time) {
	if w.metrics == nil {
		return
	}
	count, oldest, err := w.repo.RetentionBacklog(ctx, cutoff)
	if err != nil {
		w.log.Warn("retention backlog query failed", zap.Error(err))
		return
	}
	w.metrics.SetBacklog(count)
	if oldest != nil {
		w.metrics.SetBacklogOldest(time.Since(*oldest))
	} else {
		w.metrics.SetBacklogOldest(0)
	}
}
