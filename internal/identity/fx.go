package identity

import (
	"github.com/entremotivator/rentalappp1/internal/config"
	"github.com/entremotivator/rentalappp1/internal/identity/client"
	"github.com/entremotivator/rentalappp1/internal/identity/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("identity",
	fx.Provide(func(cfg config.Config) domain.AdminClient {
		return client.New(cfg.Identity)
	}),
)
