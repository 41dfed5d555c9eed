package business

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/Conte777/MediaFlow/internal/domain/media/deps"
	"github.com/Conte777/MediaFlow/internal/domain/media/entities"
	mediaerrors "github.com/Conte777/MediaFlow/internal/domain/media/errors"
	"github.com/Conte777/MediaFlow/internal/domain/media/platform"
	pkgerrors "github.com/Conte777/MediaFlow/pkg/errors"
)

// videoFormat prefers the smallest mp4 rendition under Telegram's classic upload limit
const videoFormat = "worst[ext=mp4][filesize<50M]/worst[filesize<50M]/worst[ext=mp4]/worst"

var (
	videoExtensions = []string{".mp4", ".webm", ".mkv", ".avi", ".mov"}
	imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}
)

// GetMetadata probes the post without downloading; nil means no usable metadata
func (uc *UseCase) GetMetadata(ctx context.Context, req *entities.MediaRequest) *entities.MediaMetadata {
	meta, err := uc.fetchMetadata(ctx, req)
	if err != nil {
		uc.logger.Warn().
			Err(err).
			Str("request_id", req.ID).
			Str("url", targetURL(req)).
			Msg("Failed to get media metadata")
		return nil
	}
	return meta
}

func (uc *UseCase) fetchMetadata(ctx context.Context, req *entities.MediaRequest) (*entities.MediaMetadata, error) {
	if req.IsTikTokPhoto() {
		return &entities.MediaMetadata{
			Title:    "TikTok photo",
			Uploader: "TikTok",
			Platform: entities.PlatformTikTok,
		}, nil
	}

	// Declared size must describe the rendition Download will fetch
	opts := uc.extractOptions(req.Platform)
	opts.Format = videoFormat

	probe, err := uc.extractor.Probe(ctx, targetURL(req), opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", mediaerrors.ErrNoMetadata, err)
	}
	if probe == nil {
		return nil, mediaerrors.ErrNoMetadata
	}

	declared := probe.Filesize
	if declared <= 0 {
		declared = probe.FilesizeApprox
	}

	title := probe.Title
	if title == "" {
		title = "Unknown"
	}
	uploader := probe.Uploader
	if uploader == "" {
		uploader = "Unknown"
	}

	return &entities.MediaMetadata{
		Title:            title,
		DurationSeconds:  probe.Duration,
		Uploader:         uploader,
		Platform:         req.Platform,
		ViewCount:        probe.ViewCount,
		UploadDate:       probe.UploadDate,
		ThumbnailURL:     probe.Thumbnail,
		DeclaredFilesize: declared,
		FormatCount:      probe.FormatCount,
	}, nil
}

// Acquire applies the duration and size ceilings and produces a local artifact.
// The whole call runs under the download timeout.
func (uc *UseCase) Acquire(ctx context.Context, req *entities.MediaRequest, meta *entities.MediaMetadata) entities.AcquireResult {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.Timeout)
	defer cancel()

	logger := uc.logger.With().Str("request_id", req.ID).Str("platform", string(req.Platform)).Logger()
	limit := uc.cfg.MaxFileSize()

	if meta != nil {
		if maxDuration := uc.cfg.MaxDuration.Seconds(); maxDuration > 0 && meta.DurationSeconds > maxDuration {
			logger.Info().Float64("duration", meta.DurationSeconds).Msg("Media too long, skipping download")
			return entities.Rejected(entities.ReasonTooLong,
				fmt.Errorf("duration %.0fs: %w", meta.DurationSeconds, mediaerrors.ErrTooLong))
		}
		if meta.DeclaredFilesize > limit {
			logger.Info().Int64("declared_size", meta.DeclaredFilesize).Msg("Declared size over limit, skipping download")
			result := entities.Rejected(entities.ReasonTooLarge,
				fmt.Errorf("declared size %d: %w", meta.DeclaredFilesize, mediaerrors.ErrTooLarge))
			result.Size = meta.DeclaredFilesize
			return result
		}
	}

	dir := uc.requestDir(req)

	var (
		artifact *entities.DownloadedArtifact
		err      error
	)
	if req.IsTikTokPhoto() {
		artifact, err = uc.scraper.FetchPhoto(ctx, req, dir)
	} else {
		artifact, err = uc.downloadVideo(ctx, req, dir)
	}

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logger.Warn().Err(err).Dur("timeout", uc.cfg.Timeout).Msg("Acquisition timed out")
			uc.removeDir(dir)
			return entities.Failed(entities.ReasonTimeout, fmt.Errorf("%w: %w", mediaerrors.ErrDownloadTimeout, err))
		}
		if errors.Is(err, mediaerrors.ErrUnsupportedContent) {
			logger.Info().Err(err).Msg("Content not supported")
			return entities.Unsupported(err)
		}
		logger.Error().Err(err).Msg("Acquisition failed")
		return entities.Failed(classifyFailure(err), err)
	}

	if artifact.ByteSize > limit {
		logger.Warn().Int64("size", artifact.ByteSize).Msg("Downloaded file over limit")
		if rmErr := uc.fs.Remove(artifact.LocalPath); rmErr != nil {
			logger.Error().Err(rmErr).Str("path", artifact.LocalPath).Msg("Failed to remove oversized file")
		}
		result := entities.Rejected(entities.ReasonTooLarge,
			fmt.Errorf("actual size %d: %w", artifact.ByteSize, mediaerrors.ErrTooLarge))
		result.Size = artifact.ByteSize
		return result
	}

	logger.Info().
		Str("path", artifact.LocalPath).
		Int64("size", artifact.ByteSize).
		Msg("Media acquired")

	return entities.Delivered(artifact)
}

func (uc *UseCase) downloadVideo(ctx context.Context, req *entities.MediaRequest, dir string) (*entities.DownloadedArtifact, error) {
	if err := uc.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create request dir: %w", err)
	}

	prefix := fmt.Sprintf("%s_%d_", entities.ContentVideo, uc.now().Unix())

	opts := uc.extractOptions(req.Platform)
	opts.Format = videoFormat
	opts.OutputTemplate = filepath.Join(dir, prefix+"%(title).50s.%(ext)s")
	opts.RestrictFilename = true

	if err := uc.extractor.Download(ctx, targetURL(req), opts); err != nil {
		return nil, err
	}

	return locateArtifact(uc.fs, dir, prefix, platform.Describe(req.Platform).SupportsPhoto)
}

// locateArtifact finds the file the extraction library wrote for this request.
// Image files are only accepted when allowImages is set; the artifact kind follows the file found.
func locateArtifact(fs afero.Fs, dir, prefix string, allowImages bool) (*entities.DownloadedArtifact, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("read request dir: %w", err)
	}

	var image *entities.DownloadedArtifact
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		artifact := &entities.DownloadedArtifact{
			LocalPath: filepath.Join(dir, e.Name()),
			ByteSize:  e.Size(),
			Extension: strings.TrimPrefix(ext, "."),
		}
		switch {
		case slices.Contains(videoExtensions, ext):
			artifact.Kind = entities.ContentVideo
			return artifact, nil
		case allowImages && image == nil && slices.Contains(imageExtensions, ext):
			artifact.Kind = entities.ContentPhoto
			image = artifact
		}
	}

	if image != nil {
		return image, nil
	}
	return nil, fmt.Errorf("prefix %q in %s: %w", prefix, dir, mediaerrors.ErrFileNotFound)
}

func (uc *UseCase) extractOptions(id entities.PlatformID) deps.ExtractOptions {
	opts := deps.ExtractOptions{
		SocketTimeout: uc.cfg.ProbeTimeout,
		Retries:       uc.cfg.ProbeRetries,
	}

	switch id {
	case entities.PlatformInstagram, entities.PlatformTikTok:
		opts.Headers = map[string]string{"User-Agent": uc.cfg.MobileUA}
		if id == entities.PlatformTikTok {
			opts.CookiesFile = uc.cfg.TikTokCookies
		}
	}

	return opts
}

func (uc *UseCase) requestDir(req *entities.MediaRequest) string {
	return filepath.Join(uc.cfg.Dir, req.ID)
}

// removeDir deletes a request directory; a missing directory is not an error
func (uc *UseCase) removeDir(dir string) {
	if err := uc.fs.RemoveAll(dir); err != nil {
		uc.logger.Error().Err(err).Str("dir", dir).Msg("Failed to remove request directory")
		return
	}
	uc.logger.Debug().Str("dir", dir).Msg("Request directory removed")
}

func targetURL(req *entities.MediaRequest) string {
	if req.ResolvedURL != "" {
		return req.ResolvedURL
	}
	return req.RawURL
}

// classifyFailure maps an acquisition or delivery error to a user-facing reason.
// Typed domain errors win over the extraction library's message text.
func classifyFailure(err error) entities.FailureReason {
	if err == nil {
		return entities.ReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return entities.ReasonTimeout
	}

	switch pkgerrors.TypeOf(err) {
	case pkgerrors.ErrorTypeTimeout:
		return entities.ReasonTimeout
	case pkgerrors.ErrorTypeNotFound:
		return entities.ReasonNoFile
	}

	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "403"), strings.Contains(text, "forbidden"):
		return entities.ReasonForbidden
	case strings.Contains(text, "404"), strings.Contains(text, "not found"):
		return entities.ReasonNotFound
	case strings.Contains(text, "timeout"), strings.Contains(text, "timed out"):
		return entities.ReasonTimeout
	case strings.Contains(text, "status code 0"):
		return entities.ReasonBlocked
	default:
		return entities.ReasonUnknown
	}
}
