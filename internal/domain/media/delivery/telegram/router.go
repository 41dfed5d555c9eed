// Package telegram contains Telegram delivery layer
package telegram

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/Conte777/MediaFlow/internal/domain/media/consts"
)

// Router registers Telegram bot handlers
type Router struct {
	handlers *Handlers
	logger   zerolog.Logger
}

// NewRouter creates new Telegram router
func NewRouter(handlers *Handlers, logger zerolog.Logger) *Router {
	return &Router{
		handlers: handlers,
		logger:   logger,
	}
}

// RegisterRoutes registers all command handlers on the bot
func (r *Router) RegisterRoutes(bot *tgbot.Bot) {
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, consts.CommandStart.Slash(), tgbot.MatchTypeExact, r.handlers.HandleStart)
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, consts.CommandHelp.Slash(), tgbot.MatchTypeExact, r.handlers.HandleHelp)
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, consts.CommandStats.Slash(), tgbot.MatchTypeExact, r.handlers.HandleStats)
	bot.RegisterHandlerMatchFunc(IsLinkMessage, r.handlers.HandleText)

	r.logger.Info().Msg("All Telegram command handlers registered successfully")
}

// SetCommands publishes the command menu shown by Telegram clients
func (r *Router) SetCommands(ctx context.Context, bot *tgbot.Bot) error {
	commands := make([]models.BotCommand, 0, len(consts.AllCommands))
	for _, c := range consts.AllCommands {
		commands = append(commands, models.BotCommand{Command: c.Name, Description: c.Description})
	}

	if _, err := bot.SetMyCommands(ctx, &tgbot.SetMyCommandsParams{Commands: commands}); err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}

	r.logger.Info().Int("count", len(commands)).Msg("Bot command menu published")
	return nil
}
