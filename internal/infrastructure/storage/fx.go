package storage

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"go.uber.org/fx"

	"github.com/Conte777/MediaFlow/config"
)

// Module provides the downloads filesystem for fx DI
var Module = fx.Module("storage",
	fx.Provide(provideFs),
	fx.Invoke(registerLifecycle),
)

func provideFs() afero.Fs {
	return afero.NewOsFs()
}

// registerLifecycle makes sure the downloads directory exists before the bot starts
func registerLifecycle(lc fx.Lifecycle, fs afero.Fs, cfg *config.DownloadConfig, logger zerolog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return EnsureDir(fs, cfg.Dir, logger)
		},
	})
}
