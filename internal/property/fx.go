// Package property wires the property data client, search history and
// quota-gated lookup service.
package property

import (
	"github.com/entremotivator/rentalappp1/internal/config"
	"github.com/entremotivator/rentalappp1/internal/property/client"
	"github.com/entremotivator/rentalappp1/internal/property/domain"
	"github.com/entremotivator/rentalappp1/internal/property/repository"
	"github.com/entremotivator/rentalappp1/internal/property/retention"
	"github.com/entremotivator/rentalappp1/internal/property/service"
	"go.uber.org/fx"
)

var Module = fx.Module("property",
	fx.Provide(
		func(cfg config.Config) domain.DataClient { return client.New(cfg.RentCast) },
		repository.New,
		service.NewService,
	),
	retention.Module,
)
