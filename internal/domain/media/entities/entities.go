// Package entities contains domain entities
package entities

// PlatformID identifies a supported content source
type PlatformID string

const (
	PlatformYouTube   PlatformID = "youtube"
	PlatformInstagram PlatformID = "instagram"
	PlatformTikTok    PlatformID = "tiktok"
	PlatformUnknown   PlatformID = "unknown"
)

// ContentKind tells whether a post is a still image or a video
type ContentKind string

const (
	ContentVideo   ContentKind = "video"
	ContentPhoto   ContentKind = "photo"
	ContentUnknown ContentKind = "unknown"
)

// PlatformDescriptor is the static display and capability record of a platform
type PlatformDescriptor struct {
	ID            PlatformID
	DisplayName   string
	Emoji         string
	URLPatterns   []string
	SupportsPhoto bool
}

// MediaRequest is created per inbound message and is not modified after content-kind resolution
type MediaRequest struct {
	ID          string
	ChatID      int64
	UserID      int64
	RawURL      string
	ResolvedURL string
	Platform    PlatformID
	Kind        ContentKind
}

// IsTikTokPhoto reports whether the request must go through the scraping fallback
func (r *MediaRequest) IsTikTokPhoto() bool {
	return r.Platform == PlatformTikTok && r.Kind == ContentPhoto
}

// MediaMetadata is produced by a metadata probe before a download is committed
type MediaMetadata struct {
	Title            string
	DurationSeconds  float64
	Uploader         string
	Platform         PlatformID
	ViewCount        int64
	UploadDate       string
	ThumbnailURL     string
	DeclaredFilesize int64
	FormatCount      int
}

// DownloadedArtifact is a locally stored file owned by exactly one request
type DownloadedArtifact struct {
	LocalPath string
	ByteSize  int64
	Extension string
	Kind      ContentKind
}

// ImageCandidate is a scored image URL found while mining embedded page state
type ImageCandidate struct {
	URL      string
	Score    int
	JSONPath string
}

// AdmissionState is a snapshot of the concurrency gate counters
type AdmissionState struct {
	MaxConcurrent  int   `json:"maxConcurrent"`
	InFlight       int   `json:"inFlight"`
	TotalCompleted int64 `json:"totalCompleted"`
}
