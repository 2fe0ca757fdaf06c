package session

import (
	"github.com/entremotivator/rentalappp1/internal/cache"
	"github.com/entremotivator/rentalappp1/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("session",
	fx.Provide(func(cfg config.Config) *Manager {
		return NewManager(cache.NewTTLCache[string, Session](), cfg.SessionTTL)
	}),
)
