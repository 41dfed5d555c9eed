// Package resolver expands short links and decides the content kind of a post
package resolver

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Conte777/MediaFlow/internal/domain/media/entities"
	"github.com/Conte777/MediaFlow/internal/domain/media/platform"
)

// DefaultShortHosts lists hosts that only redirect to a canonical post URL
var DefaultShortHosts = []string{"vm.tiktok.com", "vt.tiktok.com", "instagr.am"}

const defaultTimeout = 10 * time.Second

// Resolver expands short-link URLs with a redirect-following HEAD request
type Resolver struct {
	client    *http.Client
	hosts     map[string]struct{}
	userAgent string
	logger    zerolog.Logger
}

// NewResolver creates a resolver for the given short-link hosts
func NewResolver(timeout time.Duration, hosts []string, userAgent string, logger zerolog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if hosts == nil {
		hosts = DefaultShortHosts
	}

	set := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		set[strings.ToLower(h)] = struct{}{}
	}

	return &Resolver{
		client:    &http.Client{Timeout: timeout},
		hosts:     set,
		userAgent: userAgent,
		logger:    logger.With().Str("component", "resolver").Logger(),
	}
}

// IsShortLink reports whether the URL host is a known short-link domain
func (r *Resolver) IsShortLink(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	if _, ok := r.hosts[strings.ToLower(u.Host)]; ok {
		return true
	}
	_, ok := r.hosts[strings.ToLower(u.Hostname())]
	return ok
}

// Resolve returns the final URL of a short link, or rawURL unchanged on any failure
func (r *Resolver) Resolve(ctx context.Context, rawURL string) string {
	if !r.IsShortLink(rawURL) {
		return rawURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, strings.TrimSpace(rawURL), nil)
	if err != nil {
		return rawURL
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn().Err(err).Str("url", rawURL).Msg("Short link resolution failed")
		return rawURL
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.logger.Warn().Int("status", resp.StatusCode).Str("url", rawURL).Msg("Short link resolved to non-2xx")
		return rawURL
	}

	final := resp.Request.URL.String()
	r.logger.Debug().Str("from", rawURL).Str("to", final).Msg("Short link resolved")
	return final
}

// ClassifyContent resolves short links first, since they hide the /photo/ path segment
func (r *Resolver) ClassifyContent(ctx context.Context, rawURL string) (string, entities.ContentKind) {
	resolved := r.Resolve(ctx, rawURL)
	return resolved, ContentKindOf(resolved)
}

// ContentKindOf classifies an already-resolved URL
func ContentKindOf(resolvedURL string) entities.ContentKind {
	if platform.Classify(resolvedURL) == entities.PlatformTikTok &&
		strings.Contains(strings.ToLower(resolvedURL), "/photo/") {
		return entities.ContentPhoto
	}
	return entities.ContentVideo
}
