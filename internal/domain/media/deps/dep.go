// Package deps contains interface definitions for the media domain dependencies
package deps

import (
	"context"
	"time"

	"github.com/Conte777/MediaFlow/internal/domain/media/entities"
)

// StatusHandle identifies a status message that can later be edited or deleted
type StatusHandle struct {
	ChatID    int64
	MessageID int
}

// MessagingGateway defines the chat operations the media pipeline needs
// This interface is used to break the cyclic dependency between UseCase and Telegram handlers
type MessagingGateway interface {
	// SendText sends a plain reply to the chat
	SendText(ctx context.Context, chatID int64, text string) error

	// SendStatus sends a status message and returns its handle
	SendStatus(ctx context.Context, chatID int64, text string) (StatusHandle, error)

	// EditStatus replaces the text of a status message
	EditStatus(ctx context.Context, handle StatusHandle, text string) error

	// DeleteStatus removes a status message
	DeleteStatus(ctx context.Context, handle StatusHandle) error

	// SendFile uploads a local file as a video or a photo
	SendFile(ctx context.Context, chatID int64, path, caption string, kind entities.ContentKind) error
}

// Thumbnail is a single thumbnail entry reported by the extraction library
type Thumbnail struct {
	URL    string
	Width  int
	Height int
}

// ProbeResult is the metadata record returned by a probe
type ProbeResult struct {
	ID             string
	Title          string
	Duration       float64
	Uploader       string
	ViewCount      int64
	UploadDate     string
	Thumbnail      string
	Thumbnails     []Thumbnail
	Filesize       int64
	FilesizeApprox int64
	FormatCount    int
}

// ExtractOptions configures a single extraction library call
type ExtractOptions struct {
	Headers          map[string]string
	SocketTimeout    time.Duration
	Retries          int
	Format           string
	OutputTemplate   string
	RestrictFilename bool
	CookiesFile      string
}

// Extractor is the generic media extraction library
type Extractor interface {
	// Probe returns metadata without downloading
	Probe(ctx context.Context, url string, opts ExtractOptions) (*ProbeResult, error)

	// Download writes the media to opts.OutputTemplate
	Download(ctx context.Context, url string, opts ExtractOptions) error
}

// ShortLinkResolver expands short-link redirect URLs
type ShortLinkResolver interface {
	// Resolve returns the canonical URL, or rawURL unchanged on any failure
	Resolve(ctx context.Context, rawURL string) string

	// ClassifyContent resolves rawURL and tells a photo post from a video
	ClassifyContent(ctx context.Context, rawURL string) (string, entities.ContentKind)
}

// PhotoScraper acquires TikTok photo posts the extractor cannot serve
type PhotoScraper interface {
	FetchPhoto(ctx context.Context, req *entities.MediaRequest, dir string) (*entities.DownloadedArtifact, error)
}

// MetricsRecorder receives pipeline counters
type MetricsRecorder interface {
	RecordOutcome(platform entities.PlatformID, kind entities.ContentKind, outcome string)
	RecordAcquisition(platform entities.PlatformID, seconds float64)
	SetInFlight(n int)
	RecordDeliveredBytes(n int64)
	RecordSweep(removed int)
}
