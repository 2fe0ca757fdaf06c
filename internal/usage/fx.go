package usage

import (
	"github.com/entremotivator/rentalappp1/internal/usage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usage.service",
	fx.Provide(service.NewService),
)
