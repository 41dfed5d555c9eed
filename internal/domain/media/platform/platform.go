// Package platform maps URLs to the supported content platforms
package platform

import (
	"strings"

	"github.com/Conte777/MediaFlow/internal/domain/media/entities"
)

// registry is declared in match order; no two platforms share a pattern
var registry = []entities.PlatformDescriptor{
	{
		ID:            entities.PlatformYouTube,
		DisplayName:   "🔴 YouTube",
		Emoji:         "📺",
		URLPatterns:   []string{"youtube.com", "youtu.be", "youtube.com/shorts"},
		SupportsPhoto: false,
	},
	{
		ID:            entities.PlatformInstagram,
		DisplayName:   "📸 Instagram",
		Emoji:         "📱",
		URLPatterns:   []string{"instagram.com", "instagr.am"},
		SupportsPhoto: true,
	},
	{
		ID:            entities.PlatformTikTok,
		DisplayName:   "🎵 TikTok",
		Emoji:         "🎭",
		URLPatterns:   []string{"tiktok.com", "www.tiktok.com", "vm.tiktok.com"},
		SupportsPhoto: true,
	},
}

var unknown = entities.PlatformDescriptor{
	ID:          entities.PlatformUnknown,
	DisplayName: "❓ Unknown",
	Emoji:       "🔗",
}

// Classify returns the first platform whose pattern is a substring of the lower-cased URL
func Classify(url string) entities.PlatformID {
	lower := strings.ToLower(url)
	for _, p := range registry {
		for _, pattern := range p.URLPatterns {
			if strings.Contains(lower, pattern) {
				return p.ID
			}
		}
	}
	return entities.PlatformUnknown
}

// Describe returns display metadata for a platform; it never fails
func Describe(id entities.PlatformID) entities.PlatformDescriptor {
	for _, p := range registry {
		if p.ID == id {
			return clone(p)
		}
	}
	return clone(unknown)
}

// IsSupported reports whether the URL belongs to a registered platform
func IsSupported(url string) bool {
	return Classify(url) != entities.PlatformUnknown
}

// All returns the registry in declaration order
func All() []entities.PlatformDescriptor {
	out := make([]entities.PlatformDescriptor, 0, len(registry))
	for _, p := range registry {
		out = append(out, clone(p))
	}
	return out
}

func clone(p entities.PlatformDescriptor) entities.PlatformDescriptor {
	p.URLPatterns = append([]string(nil), p.URLPatterns...)
	return p
}
