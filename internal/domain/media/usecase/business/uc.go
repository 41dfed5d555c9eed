// Package business contains the media acquisition pipeline
package business

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/Conte777/MediaFlow/config"
	"github.com/Conte777/MediaFlow/internal/domain/media/admission"
	"github.com/Conte777/MediaFlow/internal/domain/media/deps"
	"github.com/Conte777/MediaFlow/internal/domain/media/dto"
	"github.com/Conte777/MediaFlow/internal/domain/media/entities"
	mediaerrors "github.com/Conte777/MediaFlow/internal/domain/media/errors"
	"github.com/Conte777/MediaFlow/internal/domain/media/platform"
)

// UseCase contains business logic for media requests
type UseCase struct {
	cfg       *config.DownloadConfig
	extractor deps.Extractor
	scraper   deps.PhotoScraper
	resolver  deps.ShortLinkResolver
	gate      *admission.Gate
	fs        afero.Fs
	metrics   deps.MetricsRecorder
	sender    deps.MessagingGateway
	now       func() time.Time
	newID     func() string
	logger    zerolog.Logger
}

// NewUseCase creates a new UseCase instance
// Note: sender is not passed here to break cyclic dependency
// Use SetSender after creating Telegram handlers
func NewUseCase(
	cfg *config.DownloadConfig,
	extractor deps.Extractor,
	scraper deps.PhotoScraper,
	resolver deps.ShortLinkResolver,
	gate *admission.Gate,
	fs afero.Fs,
	metrics deps.MetricsRecorder,
	logger zerolog.Logger,
) *UseCase {
	if metrics == nil {
		metrics = nopMetrics{}
	}

	uc := &UseCase{
		cfg:       cfg,
		extractor: extractor,
		scraper:   scraper,
		resolver:  resolver,
		gate:      gate,
		fs:        fs,
		metrics:   metrics,
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    logger.With().Str("component", "media_usecase").Logger(),
	}

	gate.Observe(func(s entities.AdmissionState) {
		metrics.SetInFlight(s.InFlight)
	})

	return uc
}

// SetSender sets the MessagingGateway after construction
// This is called by fx.Invoke to resolve cyclic dependency
func (uc *UseCase) SetSender(sender deps.MessagingGateway) {
	uc.sender = sender
}

// PrepareRequest classifies the link and resolves its content kind
func (uc *UseCase) PrepareRequest(ctx context.Context, chatID, userID int64, text string) (*entities.MediaRequest, error) {
	rawURL := strings.TrimSpace(text)
	if !platform.IsSupported(rawURL) {
		return nil, mediaerrors.ErrUnsupportedURL
	}

	resolved, kind := uc.resolver.ClassifyContent(ctx, rawURL)

	id := platform.Classify(resolved)
	if id == entities.PlatformUnknown {
		id = platform.Classify(rawURL)
	}

	return &entities.MediaRequest{
		ID:          uc.newID(),
		ChatID:      chatID,
		UserID:      userID,
		RawURL:      rawURL,
		ResolvedURL: resolved,
		Platform:    id,
		Kind:        kind,
	}, nil
}

// HandleURL runs the full lifecycle of one inbound link.
// The user sees exactly one outcome; nothing escapes to the caller.
func (uc *UseCase) HandleURL(ctx context.Context, chatID, userID int64, text string) {
	req, err := uc.PrepareRequest(ctx, chatID, userID, text)
	if err != nil {
		uc.logger.Info().Int64("user_id", userID).Str("text", truncate(text, 100)).Msg("Unsupported link")
		uc.metrics.RecordOutcome(entities.PlatformUnknown, entities.ContentUnknown, "unsupported_link")
		uc.reply(ctx, chatID, unsupportedLinkText())
		return
	}

	err = uc.gate.WithSlot(ctx, func(ctx context.Context) bool {
		return uc.process(ctx, req)
	})
	if err != nil {
		uc.logger.Warn().Err(err).Str("request_id", req.ID).Msg("Gave up waiting for a download slot")
	}
}

// process runs inside an admission slot and reports whether the file was delivered
func (uc *UseCase) process(ctx context.Context, req *entities.MediaRequest) (delivered bool) {
	logger := uc.logger.With().
		Str("request_id", req.ID).
		Int64("user_id", req.UserID).
		Str("platform", string(req.Platform)).
		Str("kind", string(req.Kind)).
		Logger()

	desc := platform.Describe(req.Platform)
	var status *deps.StatusHandle

	defer uc.removeDir(uc.requestDir(req))
	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("Recovered from panic while processing request")
			uc.metrics.RecordOutcome(req.Platform, req.Kind, "panic")
			uc.finish(ctx, req.ChatID, status, genericErrorText())
			delivered = false
		}
	}()

	logger.Info().Str("url", req.ResolvedURL).Msg("Processing media request")

	h, err := uc.sender.SendStatus(ctx, req.ChatID, processingText(desc, req.Kind, uc.gate.Snapshot().InFlight))
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to send status message")
	} else {
		status = &h
	}

	uc.updateStatus(ctx, status, analysingText(desc, req.Kind))

	meta := uc.GetMetadata(ctx, req)
	if meta == nil {
		uc.metrics.RecordOutcome(req.Platform, req.Kind, "no_metadata")
		uc.finish(ctx, req.ChatID, status, noInfoText(req.Kind))
		return false
	}

	uc.updateStatus(ctx, status, downloadingText(desc, meta))

	start := uc.now()
	result := uc.Acquire(ctx, req, meta)
	uc.metrics.RecordAcquisition(req.Platform, uc.now().Sub(start).Seconds())

	if result.Kind != entities.ResultDelivered {
		uc.metrics.RecordOutcome(req.Platform, req.Kind, outcomeLabel(result))
		uc.finish(ctx, req.ChatID, status, uc.resultText(req, meta, result))
		return false
	}

	artifact := result.Artifact
	kind := req.Kind
	if artifact.Kind != "" {
		kind = artifact.Kind
	}

	uc.updateStatus(ctx, status, uploadingText(kind))

	if err := uc.sender.SendFile(ctx, req.ChatID, artifact.LocalPath, caption(desc, meta), kind); err != nil {
		logger.Error().Err(err).Str("path", artifact.LocalPath).Msg("Failed to send file")
		uc.metrics.RecordOutcome(req.Platform, kind, "send_failed")
		uc.finish(ctx, req.ChatID, status, failureText(classifyFailure(err)))
		return false
	}

	if status != nil {
		if err := uc.sender.DeleteStatus(ctx, *status); err != nil {
			logger.Warn().Err(err).Msg("Failed to delete status message")
		}
	}

	uc.metrics.RecordOutcome(req.Platform, kind, entities.ResultDelivered.String())
	uc.metrics.RecordDeliveredBytes(artifact.ByteSize)
	logger.Info().Int64("size", artifact.ByteSize).Msg("Media delivered")

	return true
}

func (uc *UseCase) resultText(req *entities.MediaRequest, meta *entities.MediaMetadata, result entities.AcquireResult) string {
	switch result.Kind {
	case entities.ResultUnsupported:
		return photoUnsupportedText()
	case entities.ResultRejected:
		if result.Reason == entities.ReasonTooLong {
			return tooLongText(req.Kind, meta.DurationSeconds, uc.cfg.MaxDuration.Seconds())
		}
		return tooLargeText(req.Kind, result.Size, uc.cfg.MaxFileSize())
	default:
		if result.Reason == entities.ReasonNoFile {
			return noFileText(req.Kind)
		}
		return failureText(result.Reason)
	}
}

func outcomeLabel(result entities.AcquireResult) string {
	if result.Reason == entities.ReasonNone {
		return result.Kind.String()
	}
	return fmt.Sprintf("%s_%s", result.Kind, result.Reason)
}

func (uc *UseCase) updateStatus(ctx context.Context, status *deps.StatusHandle, text string) {
	if status == nil {
		return
	}
	if err := uc.sender.EditStatus(ctx, *status, text); err != nil {
		uc.logger.Debug().Err(err).Int("message_id", status.MessageID).Msg("Failed to update status message")
	}
}

// finish shows the single outcome message, reusing the status message when there is one
func (uc *UseCase) finish(ctx context.Context, chatID int64, status *deps.StatusHandle, text string) {
	if status != nil {
		err := uc.sender.EditStatus(ctx, *status, text)
		if err == nil {
			return
		}
		uc.logger.Warn().Err(err).Msg("Failed to edit status message, sending a new one")
	}
	uc.reply(ctx, chatID, text)
}

func (uc *UseCase) reply(ctx context.Context, chatID int64, text string) {
	if err := uc.sender.SendText(ctx, chatID, text); err != nil {
		uc.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send reply")
	}
}

// Stats returns the admission counters
func (uc *UseCase) Stats() entities.AdmissionState {
	return uc.gate.Snapshot()
}

// HandleStart handles /start command
func (uc *UseCase) HandleStart(ctx context.Context, req *dto.StartCommandRequest) (*dto.CommandResponse, error) {
	uc.logger.Info().
		Int64("user_id", req.UserID).
		Str("username", req.Username).
		Msg("User started bot")

	return &dto.CommandResponse{Message: startText()}, nil
}

// HandleHelp handles /help command
func (uc *UseCase) HandleHelp(ctx context.Context) (*dto.CommandResponse, error) {
	return &dto.CommandResponse{Message: helpText(uc.cfg.MaxFileSize())}, nil
}

// HandleStats handles /stats command
func (uc *UseCase) HandleStats(ctx context.Context) (*dto.CommandResponse, error) {
	return &dto.CommandResponse{Message: statsText(uc.Stats(), platform.All())}, nil
}

// HandleLink handles a plain-text message
func (uc *UseCase) HandleLink(ctx context.Context, req *dto.LinkRequest) {
	uc.HandleURL(ctx, req.ChatID, req.UserID, req.Text)
}

type nopMetrics struct{}

func (nopMetrics) RecordOutcome(entities.PlatformID, entities.ContentKind, string) {}

func (nopMetrics) RecordAcquisition(entities.PlatformID, float64) {}

func (nopMetrics) SetInFlight(int) {}

func (nopMetrics) RecordDeliveredBytes(int64) {}

func (nopMetrics) RecordSweep(int) {}
