package telegram

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Conte777/MediaFlow/config"
)

// Module provides Telegram bot for fx dependency injection
var Module = fx.Module("telegram",
	fx.Provide(provideBot),
	fx.Invoke(registerLifecycle),
)

// provideBot creates Telegram bot from config
func provideBot(cfg *config.TelegramConfig, logger zerolog.Logger) (*Bot, error) {
	return NewBot(cfg, logger.With().Str("component", "telegram_bot").Logger())
}

// registerLifecycle starts polling after all routes are registered by fx invokes
func registerLifecycle(lc fx.Lifecycle, bot *Bot) {
	lc.Append(fx.StartStopHook(bot.Start, bot.Stop))
}
