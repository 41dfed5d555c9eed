// Package telegram contains Telegram bot infrastructure
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/Conte777/MediaFlow/config"
)

// Long polling timeouts
const (
	PollTimeout   = time.Minute
	ClientTimeout = 11 * time.Minute
)

// Bot wraps the Telegram bot for infrastructure layer
type Bot struct {
	bot    *tgbot.Bot
	logger zerolog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewBot creates a new Telegram bot wrapper
func NewBot(cfg *config.TelegramConfig, logger zerolog.Logger, extra ...tgbot.Option) (*Bot, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	// Uploads share the polling client, so its timeout must cover the largest file
	opts := []tgbot.Option{
		tgbot.WithDefaultHandler(defaultHandler),
		tgbot.WithHTTPClient(PollTimeout, &http.Client{Timeout: ClientTimeout}),
	}
	if cfg.ServerURL != "" {
		opts = append(opts, tgbot.WithServerURL(cfg.ServerURL))
	}
	opts = append(opts, extra...)

	bot, err := tgbot.New(cfg.BotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info().Msg("Telegram bot created successfully")

	return &Bot{
		bot:    bot,
		logger: logger,
	}, nil
}

// Raw returns the underlying telegram bot for handler registration
func (b *Bot) Raw() *tgbot.Bot {
	return b.bot
}

// Start begins long polling in the background
func (b *Bot) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})

	b.logger.Info().Msg("Starting Telegram bot...")
	go func() {
		defer close(b.done)
		b.bot.Start(ctx)
		b.logger.Info().Msg("Telegram bot stopped")
	}()
}

// Stop cancels polling and waits for it to return or for ctx to expire.
// In-flight update handlers are not awaited.
func (b *Bot) Stop(ctx context.Context) error {
	if b.cancel == nil {
		return nil
	}

	b.logger.Info().Msg("Stopping Telegram bot...")
	b.cancel()

	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("telegram bot did not stop in time: %w", ctx.Err())
	}
}

// defaultHandler answers messages no route matched, such as stickers or media
func defaultHandler(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	_, _ = bot.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   "🔗 Отправьте ссылку на видео YouTube, Instagram или TikTok. Напишите /help для справки.",
	})
}
