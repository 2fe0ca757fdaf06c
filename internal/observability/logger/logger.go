// Package logger provides the zap logger and request logging middleware.
package logger

import (
	"github.com/entremotivator/rentalappp1/internal/config"
	"go.uber.org/zap"
)

// New builds the root logger. Production gets JSON output at info level,
// everything else gets the development console encoder.
func New(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
