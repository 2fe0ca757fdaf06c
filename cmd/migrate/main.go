// Command migrate applies the embedded schema migrations and exits. The API
// binary also migrates at startup; this one exists for deploy pipelines that
// migrate before rolling the service.
package main

import (
	"github.com/entremotivator/rentalappp1/internal/config"
	"github.com/entremotivator/rentalappp1/internal/migration"
	"github.com/entremotivator/rentalappp1/internal/observability/logger"
	"github.com/entremotivator/rentalappp1/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		fx.Provide(logger.New),
		db.Module,
		fx.Invoke(func(conn *gorm.DB, log *zap.Logger, shutdowner fx.Shutdowner) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			log.Info("schema migrations applied")
			return shutdowner.Shutdown()
		}),
	)
	app.Run()
}
