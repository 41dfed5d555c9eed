package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// selectorProbes run in order; the first acceptable <img> wins
var selectorProbes = []string{
	`[data-e2e*="photo"] img`,
	`img[data-e2e*="photo"]`,
	`[data-e2e*="slideshow"] img`,
	`.swiper-slide img`,
	`img[src*="tiktokcdn"]`,
	`img[data-src*="tiktokcdn"]`,
	`img[src*="ibyteimg"]`,
	`img`,
}

// probeSelectors returns the first image whose src or data-src is a CDN photo URL
func probeSelectors(doc *goquery.Document) (string, bool) {
	for _, probe := range selectorProbes {
		var found string
		doc.Find(probe).EachWithBreak(func(_ int, img *goquery.Selection) bool {
			for _, attr := range []string{"src", "data-src"} {
				src, ok := img.Attr(attr)
				if ok && acceptImageSource(src) {
					found = normalizeURL(src)
					return false
				}
			}
			return true
		})
		if found != "" {
			return found, true
		}
	}
	return "", false
}

func acceptImageSource(src string) bool {
	lower := strings.ToLower(strings.TrimSpace(src))
	if lower == "" || strings.HasPrefix(lower, "data:") {
		return false
	}
	if !isCDNURL(lower) || containsAny(lower, nonContentImages) {
		return false
	}
	return containsAny(lower, sizeTokens) || len(urlPath(lower)) >= minPathLength
}
