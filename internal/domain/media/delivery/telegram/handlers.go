// Package telegram contains Telegram delivery handlers
package telegram

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/Conte777/MediaFlow/internal/domain/media/deps"
	"github.com/Conte777/MediaFlow/internal/domain/media/dto"
	"github.com/Conte777/MediaFlow/internal/domain/media/entities"
	mediaerrors "github.com/Conte777/MediaFlow/internal/domain/media/errors"
	"github.com/Conte777/MediaFlow/internal/domain/media/usecase/business"
)

// Constants for Telegram API
const (
	RequestTimeout = 30 * time.Second
	UploadTimeout  = 10 * time.Minute
)

// Handlers contains Telegram command handlers
// Implements deps.MessagingGateway interface
type Handlers struct {
	uc     *business.UseCase
	bot    *tgbot.Bot
	fs     afero.Fs
	logger zerolog.Logger
}

var _ deps.MessagingGateway = (*Handlers)(nil)

// NewHandlers creates new Telegram handlers
func NewHandlers(uc *business.UseCase, bot *tgbot.Bot, fs afero.Fs, logger zerolog.Logger) *Handlers {
	return &Handlers{
		uc:     uc,
		bot:    bot,
		fs:     fs,
		logger: logger,
	}
}

// SendText implements deps.MessagingGateway interface
func (h *Handlers) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := h.sendMessage(ctx, chatID, text)
	return err
}

// SendStatus implements deps.MessagingGateway interface
func (h *Handlers) SendStatus(ctx context.Context, chatID int64, text string) (deps.StatusHandle, error) {
	msg, err := h.sendMessage(ctx, chatID, text)
	if err != nil {
		return deps.StatusHandle{}, err
	}
	return deps.StatusHandle{ChatID: chatID, MessageID: msg.ID}, nil
}

// EditStatus implements deps.MessagingGateway interface
func (h *Handlers) EditStatus(ctx context.Context, handle deps.StatusHandle, text string) error {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.EditMessageText(msgCtx, &tgbot.EditMessageTextParams{
		ChatID:    handle.ChatID,
		MessageID: handle.MessageID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		// Telegram rejects edits that do not change the text
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		h.logger.Warn().
			Int64("chat_id", handle.ChatID).
			Int("message_id", handle.MessageID).
			Err(err).
			Msg("Failed to edit message")
		return fmt.Errorf("%w: %w", mediaerrors.ErrTelegramAPI, err)
	}

	return nil
}

// DeleteStatus implements deps.MessagingGateway interface
func (h *Handlers) DeleteStatus(ctx context.Context, handle deps.StatusHandle) error {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.DeleteMessage(msgCtx, &tgbot.DeleteMessageParams{
		ChatID:    handle.ChatID,
		MessageID: handle.MessageID,
	})
	if err != nil {
		h.logger.Warn().
			Int64("chat_id", handle.ChatID).
			Int("message_id", handle.MessageID).
			Err(err).
			Msg("Failed to delete message")
		return fmt.Errorf("%w: %w", mediaerrors.ErrTelegramAPI, err)
	}

	return nil
}

// SendFile implements deps.MessagingGateway interface
func (h *Handlers) SendFile(ctx context.Context, chatID int64, path, caption string, kind entities.ContentKind) error {
	f, err := h.fs.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	upload := &models.InputFileUpload{Filename: filepath.Base(path), Data: f}

	uploadCtx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	start := time.Now()
	if kind == entities.ContentPhoto {
		_, err = h.bot.SendPhoto(uploadCtx, &tgbot.SendPhotoParams{
			ChatID:    chatID,
			Photo:     upload,
			Caption:   caption,
			ParseMode: models.ParseModeHTML,
		})
	} else {
		_, err = h.bot.SendVideo(uploadCtx, &tgbot.SendVideoParams{
			ChatID:            chatID,
			Video:             upload,
			Caption:           caption,
			ParseMode:         models.ParseModeHTML,
			SupportsStreaming: true,
		})
	}

	if err != nil {
		h.logger.Error().
			Int64("chat_id", chatID).
			Str("kind", string(kind)).
			Str("path", path).
			Err(err).
			Msg("Failed to upload file")
		return fmt.Errorf("%w: %w", mediaerrors.ErrTelegramAPI, err)
	}

	h.logger.Info().
		Int64("chat_id", chatID).
		Str("kind", string(kind)).
		Dur("elapsed", time.Since(start)).
		Msg("File uploaded")

	return nil
}

// HandleStart handles /start command
func (h *Handlers) HandleStart(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	userID := senderID(update.Message)
	chatID := update.Message.Chat.ID

	h.logCommand(userID, "/start", "processing")

	req := &dto.StartCommandRequest{UserID: userID}
	if update.Message.From != nil {
		req.Username = update.Message.From.Username
	}

	resp, err := h.uc.HandleStart(ctx, req)
	if err != nil {
		h.logError(userID, "/start", err)
		h.sendResponse(ctx, chatID, "❌ Произошла ошибка при обработке команды /start")
		return
	}

	h.sendResponse(ctx, chatID, resp.Message)
	h.logCommand(userID, "/start", "success")
}

// HandleHelp handles /help command
func (h *Handlers) HandleHelp(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	userID := senderID(update.Message)
	chatID := update.Message.Chat.ID

	resp, err := h.uc.HandleHelp(ctx)
	if err != nil {
		h.logError(userID, "/help", err)
		h.sendResponse(ctx, chatID, "❌ Произошла ошибка при обработке команды /help")
		return
	}

	h.sendResponse(ctx, chatID, resp.Message)
	h.logCommand(userID, "/help", "success")
}

// HandleStats handles /stats command
func (h *Handlers) HandleStats(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	userID := senderID(update.Message)
	chatID := update.Message.Chat.ID

	resp, err := h.uc.HandleStats(ctx)
	if err != nil {
		h.logError(userID, "/stats", err)
		h.sendResponse(ctx, chatID, "❌ Произошла ошибка при обработке команды /stats")
		return
	}

	h.sendResponse(ctx, chatID, resp.Message)
	h.logCommand(userID, "/stats", "success")
}

// HandleText handles plain-text messages that may carry a media link
func (h *Handlers) HandleText(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	h.uc.HandleLink(ctx, &dto.LinkRequest{
		ChatID: update.Message.Chat.ID,
		UserID: senderID(update.Message),
		Text:   update.Message.Text,
	})
}

// IsLinkMessage matches plain-text messages that are not commands
func IsLinkMessage(update *models.Update) bool {
	if update.Message == nil {
		return false
	}
	text := strings.TrimSpace(update.Message.Text)
	return text != "" && !strings.HasPrefix(text, "/")
}

func (h *Handlers) sendMessage(ctx context.Context, chatID int64, text string) (*models.Message, error) {
	if text == "" {
		h.logger.Warn().Int64("chat_id", chatID).Msg("Attempt to send empty message")
		return nil, fmt.Errorf("message text cannot be empty")
	}

	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	msg, err := h.bot.SendMessage(msgCtx, &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		h.logger.Warn().Int64("chat_id", chatID).Err(err).Msg("Failed to send message")
		return nil, fmt.Errorf("%w: %w", mediaerrors.ErrTelegramAPI, err)
	}

	return msg, nil
}

func (h *Handlers) sendResponse(ctx context.Context, chatID int64, text string) {
	_, _ = h.sendMessage(ctx, chatID, text)
}

func (h *Handlers) logCommand(userID int64, command, result string) {
	h.logger.Info().Int64("user_id", userID).Str("command", command).Str("result", result).Msg("Command processed")
}

func (h *Handlers) logError(userID int64, command string, err error) {
	h.logger.Error().Int64("user_id", userID).Str("command", command).Err(err).Msg("Command failed")
}

func senderID(msg *models.Message) int64 {
	if msg.From == nil {
		return 0
	}
	return msg.From.ID
}
