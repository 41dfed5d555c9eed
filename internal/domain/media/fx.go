// Package media contains the media download domain module
package media

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"go.uber.org/fx"

	"github.com/Conte777/MediaFlow/config"
	"github.com/Conte777/MediaFlow/internal/domain/media/admission"
	httpDelivery "github.com/Conte777/MediaFlow/internal/domain/media/delivery/http"
	telegramDelivery "github.com/Conte777/MediaFlow/internal/domain/media/delivery/telegram"
	"github.com/Conte777/MediaFlow/internal/domain/media/deps"
	"github.com/Conte777/MediaFlow/internal/domain/media/resolver"
	"github.com/Conte777/MediaFlow/internal/domain/media/scraper"
	"github.com/Conte777/MediaFlow/internal/domain/media/usecase/business"
	"github.com/Conte777/MediaFlow/internal/domain/media/workers"
	"github.com/Conte777/MediaFlow/internal/infrastructure/http/server"
	"github.com/Conte777/MediaFlow/internal/infrastructure/metrics"
	"github.com/Conte777/MediaFlow/internal/infrastructure/telegram"
	"github.com/Conte777/MediaFlow/internal/infrastructure/ytdlp"
)

// Module provides media domain components for fx dependency injection
var Module = fx.Module("media",
	// Acquisition building blocks
	fx.Provide(admission.NewGate),
	fx.Provide(provideExtractor),
	fx.Provide(provideResolver),
	fx.Provide(provideScraper),
	fx.Provide(provideMetrics),

	// UseCase
	fx.Provide(business.NewUseCase),

	// Delivery - Telegram (needs raw bot from infrastructure)
	fx.Provide(provideTelegramHandlers),
	fx.Provide(telegramDelivery.NewRouter),

	// Delivery - HTTP ops endpoints
	fx.Provide(httpDelivery.NewHealthHandler),
	fx.Provide(httpDelivery.NewRouter),

	// Workers
	workers.Module,

	// Wire cyclic dependency and register routes
	fx.Invoke(wireAndRegister),
)

func provideExtractor(client *ytdlp.Client) deps.Extractor {
	return client
}

func provideResolver(cfg *config.DownloadConfig, logger zerolog.Logger) deps.ShortLinkResolver {
	return resolver.NewResolver(cfg.ResolveTimeout, resolver.DefaultShortHosts, cfg.DesktopUA, logger)
}

func provideScraper(cfg *config.DownloadConfig, extractor deps.Extractor, fs afero.Fs, logger zerolog.Logger) deps.PhotoScraper {
	return scraper.NewScraper(cfg, extractor, fs, logger)
}

func provideMetrics(m *metrics.Metrics) deps.MetricsRecorder {
	return m
}

// provideTelegramHandlers creates Telegram handlers with raw bot
func provideTelegramHandlers(uc *business.UseCase, bot *telegram.Bot, fs afero.Fs, logger zerolog.Logger) *telegramDelivery.Handlers {
	return telegramDelivery.NewHandlers(uc, bot.Raw(), fs, logger)
}

// wireAndRegister resolves cyclic dependency and registers routes
func wireAndRegister(
	lc fx.Lifecycle,
	uc *business.UseCase,
	handlers *telegramDelivery.Handlers,
	router *telegramDelivery.Router,
	httpRouter *httpDelivery.Router,
	bot *telegram.Bot,
	srv *server.Server,
	logger zerolog.Logger,
) {
	// Handlers implements deps.MessagingGateway
	// UseCase -> MessagingGateway <- Handlers -> UseCase
	uc.SetSender(handlers)

	router.RegisterRoutes(bot.Raw())
	httpRouter.RegisterRoutes(srv.Router)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Menu publishing is best effort
			if err := router.SetCommands(ctx, bot.Raw()); err != nil {
				logger.Warn().Err(err).Msg("Failed to publish bot command menu")
			}
			return nil
		},
	})
}
