package logger

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Conte777/MediaFlow/config"
)

// Module provides logger for fx dependency injection
var Module = fx.Module("logger",
	fx.Provide(provideLogger),
)

// provideLogger creates logger from config tagged with the service name
func provideLogger(cfg *config.LoggingConfig, serviceCfg *config.ServiceConfig) zerolog.Logger {
	return New(cfg.Level).With().Str("service", serviceCfg.Name).Logger()
}
