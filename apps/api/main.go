package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/entremotivator/rentalappp1/internal/audit"
	"github.com/entremotivator/rentalappp1/internal/cms"
	"github.com/entremotivator/rentalappp1/internal/commerce"
	"github.com/entremotivator/rentalappp1/internal/config"
	"github.com/entremotivator/rentalappp1/internal/identity"
	"github.com/entremotivator/rentalappp1/internal/migration"
	"github.com/entremotivator/rentalappp1/internal/observability"
	"github.com/entremotivator/rentalappp1/internal/property"
	"github.com/entremotivator/rentalappp1/internal/provision"
	"github.com/entremotivator/rentalappp1/internal/server"
	"github.com/entremotivator/rentalappp1/internal/session"
	"github.com/entremotivator/rentalappp1/internal/usage"
	"github.com/entremotivator/rentalappp1/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		// Collaborator clients and domain services.
		commerce.Module,
		identity.Module,
		cms.Module,
		usage.Module,
		audit.Module,
		provision.Module,
		property.Module,
		session.Module,

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(func(s *server.Server) {
			s.RegisterAPIRoutes()
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
