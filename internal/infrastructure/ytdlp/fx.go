package ytdlp

import (
	"context"
	"os/exec"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Conte777/MediaFlow/config"
)

// Module provides the yt-dlp client for fx dependency injection
var Module = fx.Module("ytdlp",
	fx.Provide(NewClient),
	fx.Invoke(checkBinary),
)

// checkBinary warns at startup when the configured binary cannot be found
func checkBinary(lc fx.Lifecycle, cfg *config.DownloadConfig, logger zerolog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			path, err := exec.LookPath(cfg.YtDlpPath)
			if err != nil {
				logger.Warn().Err(err).Str("path", cfg.YtDlpPath).Msg("yt-dlp binary not found, downloads will fail")
				return nil
			}
			logger.Info().Str("path", path).Msg("yt-dlp binary found")
			return nil
		},
	})
}
