// Package scraper acquires TikTok photo posts that the extraction library cannot download.
//
// The page structure it relies on is undocumented and changes often, so every step is
// best-effort: cheap <img> probes first, embedded state mining second, the extraction
// library's thumbnail last.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/Conte777/MediaFlow/config"
	"github.com/Conte777/MediaFlow/internal/domain/media/deps"
	"github.com/Conte777/MediaFlow/internal/domain/media/entities"
	mediaerrors "github.com/Conte777/MediaFlow/internal/domain/media/errors"
)

const (
	maxPageBytes = 8 << 20
	referer      = "https://www.tiktok.com/"
)

var (
	postIDPattern   = regexp.MustCompile(`/(?:photo|video)/(\d+)`)
	preferredWidths = []int{1080, 720}
)

// Scraper implements deps.PhotoScraper
type Scraper struct {
	client    *http.Client
	extractor deps.Extractor
	fs        afero.Fs
	cfg       *config.DownloadConfig
	now       func() time.Time
	logger    zerolog.Logger
}

// NewScraper creates a new photo scraper
func NewScraper(cfg *config.DownloadConfig, extractor deps.Extractor, fs afero.Fs, logger zerolog.Logger) *Scraper {
	timeout := cfg.ScrapeTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Scraper{
		client:    &http.Client{Timeout: timeout},
		extractor: extractor,
		fs:        fs,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger.With().Str("component", "photo_scraper").Logger(),
	}
}

// FindBestImage looks for the post image in a page: <img> probes first, then embedded state.
func FindBestImage(html, postID string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}

	if u, ok := probeSelectors(doc); ok {
		return u, true
	}

	var candidates []entities.ImageCandidate
	for _, state := range extractStates(doc) {
		candidates = append(candidates, MineCandidates(state, postID, DefaultWalkLimits)...)
	}
	return SelectBest(candidates)
}

// PostIDFromURL extracts the numeric post identifier, or "" when absent
func PostIDFromURL(rawURL string) string {
	m := postIDPattern.FindStringSubmatch(rawURL)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// BestThumbnail prefers a thumbnail of a known large width, then the last listed one
func BestThumbnail(probe *deps.ProbeResult) string {
	if probe == nil {
		return ""
	}
	for _, w := range preferredWidths {
		for _, t := range probe.Thumbnails {
			if t.Width == w && t.URL != "" {
				return normalizeURL(t.URL)
			}
		}
	}
	for i := len(probe.Thumbnails) - 1; i >= 0; i-- {
		if probe.Thumbnails[i].URL != "" {
			return normalizeURL(probe.Thumbnails[i].URL)
		}
	}
	if probe.Thumbnail != "" {
		return normalizeURL(probe.Thumbnail)
	}
	return ""
}

// FetchPhoto finds and stores the post image under dir.
// It returns ErrUnsupportedContent when no step yields a downloadable image,
// wrapping ErrNoImageFound when no candidate URL was found at all.
func (s *Scraper) FetchPhoto(ctx context.Context, req *entities.MediaRequest, dir string) (*entities.DownloadedArtifact, error) {
	pageURL := req.ResolvedURL
	if pageURL == "" {
		pageURL = req.RawURL
	}
	postID := PostIDFromURL(pageURL)
	logger := s.logger.With().Str("request_id", req.ID).Str("post_id", postID).Logger()

	var imageURL string
	var cause error = mediaerrors.ErrNoImageFound
	page, err := s.fetchPage(ctx, pageURL)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to fetch post page")
	} else if u, ok := FindBestImage(page, postID); ok {
		imageURL = u
		logger.Debug().Str("image_url", imageURL).Msg("Image found in page")
	}

	if imageURL != "" {
		artifact, err := s.downloadImage(ctx, imageURL, dir, postID)
		if err == nil {
			return artifact, nil
		}
		cause = err
		logger.Warn().Err(err).Str("image_url", imageURL).Msg("Failed to download page image")
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	thumbURL := s.thumbnailFallback(ctx, pageURL)
	if thumbURL != "" && thumbURL != imageURL {
		artifact, err := s.downloadImage(ctx, thumbURL, dir, postID)
		if err == nil {
			return artifact, nil
		}
		cause = err
		logger.Warn().Err(err).Str("image_url", thumbURL).Msg("Failed to download fallback thumbnail")
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	logger.Info().Err(cause).Msg("No downloadable image for photo post")
	return nil, fmt.Errorf("photo post %q: %w: %w", postID, mediaerrors.ErrUnsupportedContent, cause)
}

func (s *Scraper) fetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.DesktopUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

func (s *Scraper) thumbnailFallback(ctx context.Context, pageURL string) string {
	if s.extractor == nil {
		return ""
	}

	probe, err := s.extractor.Probe(ctx, pageURL, deps.ExtractOptions{
		Headers:       map[string]string{"User-Agent": s.cfg.MobileUA},
		SocketTimeout: s.cfg.ProbeTimeout,
		Retries:       s.cfg.ProbeRetries,
		CookiesFile:   s.cfg.TikTokCookies,
	})
	if err != nil {
		s.logger.Debug().Err(err).Str("url", pageURL).Msg("Thumbnail probe failed")
		return ""
	}
	return BestThumbnail(probe)
}

func (s *Scraper) downloadImage(ctx context.Context, imageURL, dir, postID string) (*entities.DownloadedArtifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.DesktopUA)
	req.Header.Set("Accept", "image/avif,image/webp,image/*,*/*;q=0.8")
	req.Header.Set("Referer", referer)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	ext := extensionFor(resp.Header.Get("Content-Type"))
	if postID == "" {
		postID = "post"
	}
	name := fmt.Sprintf("%s_%d_%s.%s", entities.ContentPhoto, s.now().Unix(), postID, ext)
	localPath := filepath.Join(dir, name)

	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create dir: %w", err)
	}
	f, err := s.fs.Create(localPath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	n, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = s.fs.Remove(localPath)
		return nil, fmt.Errorf("write image: %w", err)
	}
	if n == 0 {
		_ = s.fs.Remove(localPath)
		return nil, fmt.Errorf("empty image body")
	}

	return &entities.DownloadedArtifact{
		LocalPath: localPath,
		ByteSize:  n,
		Extension: ext,
		Kind:      entities.ContentPhoto,
	}, nil
}

func extensionFor(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "jpg"
	}
	switch mediaType {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	default:
		return "jpg"
	}
}
