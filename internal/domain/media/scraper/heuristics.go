package scraper

import (
	"path"
	"strings"
)

// The keyword sets below mirror the current TikTok markup and state layout.
// They are best-effort and need updating when the site changes.
var (
	cdnFragments      = []string{"tiktokcdn", "ibyteimg", "byteimg", "muscdn", "tiktokv"}
	highResTokens     = []string{"1080p", "720p", "1080x", "720x", "1080:", "720:"}
	sizeTokens        = append([]string{"tplv-", "photomode"}, highResTokens...)
	imageExtensions   = []string{".jpg", ".jpeg", ".png", ".webp", ".heic", ".avif"}
	imageKeywords     = []string{"image", "photo", "cover", "thumb", "tplv", "img"}
	imagePathSegments = []string{"/obj/", "/img/", "/image/", "/photo/"}
	contentKeywords   = []string{"video", "item", "detail", "content", "media"}
	photoKeywords     = []string{"photo", "image", "cover", "thumb"}
	unrelatedKeywords = []string{"recommend", "related", "interest", "category", "suggest"}
	avoidedKeys       = []string{"interest", "category"}
	nonContentImages  = []string{"avt-", "avatar", "/music/", "emoji"}
)

// minPathLength is the path length that marks a CDN URL as a real photo without a size token
const minPathLength = 40

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

// hasImageExtension checks the URL path, ignoring query and fragment
func hasImageExtension(lowerURL string) bool {
	p := lowerURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	ext := path.Ext(p)
	for _, e := range imageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func looksLikeImage(lowerURL string) bool {
	return hasImageExtension(lowerURL) ||
		containsAny(lowerURL, imageKeywords) ||
		containsAny(lowerURL, imagePathSegments)
}

func isCDNURL(lowerURL string) bool {
	return containsAny(lowerURL, cdnFragments)
}

func hasHighResToken(s string) bool {
	return containsAny(strings.ToLower(s), highResTokens)
}

// normalizeURL upgrades scheme-relative and plain-http URLs to https
func normalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	u = strings.ReplaceAll(u, `\u0026`, "&")
	u = strings.ReplaceAll(u, `\/`, "/")
	switch {
	case strings.HasPrefix(u, "//"):
		return "https:" + u
	case strings.HasPrefix(u, "http://"):
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}

func urlPath(raw string) string {
	u := raw
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	if i := strings.Index(u, "/"); i >= 0 {
		u = u[i:]
	} else {
		return ""
	}
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return u
}
