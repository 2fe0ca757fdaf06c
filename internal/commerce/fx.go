package commerce

import (
	"github.com/entremotivator/rentalappp1/internal/commerce/client"
	"github.com/entremotivator/rentalappp1/internal/commerce/domain"
	"github.com/entremotivator/rentalappp1/internal/commerce/service"
	"github.com/entremotivator/rentalappp1/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("commerce.service",
	fx.Provide(func(cfg config.Config) domain.OrderClient {
		return client.New(cfg.WooCommerce)
	}),
	fx.Provide(service.NewVerificationCache),
	fx.Provide(service.NewService),
)
