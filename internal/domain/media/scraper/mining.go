package scraper

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Conte777/MediaFlow/internal/domain/media/entities"
)

// WalkLimits bounds the embedded-state search
type WalkLimits struct {
	// MaxDepth is the deepest nesting level visited
	MaxDepth int
	// MaxListItems caps how many elements of each list are visited
	MaxListItems int
	// FreeDepth is how deep non-preferred keys are still followed
	FreeDepth int
}

// DefaultWalkLimits are tuned for TikTok rehydration state
var DefaultWalkLimits = WalkLimits{MaxDepth: 10, MaxListItems: 10, FreeDepth: 4}

const minCandidateLength = 20

// stateWrappers match the assignment prefix of known state variables; the JSON value follows
var stateWrappers = []*regexp.Regexp{
	regexp.MustCompile(`window\[['"]SIGI_STATE['"]\]\s*=\s*`),
	regexp.MustCompile(`window\.__UNIVERSAL_DATA_FOR_REHYDRATION__\s*=\s*`),
	regexp.MustCompile(`window\.__INIT_PROPS__\s*=\s*`),
	regexp.MustCompile(`window\.__NEXT_DATA__\s*=\s*`),
}

// extractStates parses every inline script mentioning "photo" into a JSON tree
func extractStates(doc *goquery.Document) []any {
	var states []any
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" || !strings.Contains(strings.ToLower(text), "photo") {
			return
		}
		if v, ok := parseState(text); ok {
			states = append(states, v)
		}
	})
	return states
}

func parseState(text string) (any, bool) {
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		var v any
		if err := json.Unmarshal([]byte(text), &v); err == nil {
			return v, true
		}
	}

	for _, re := range stateWrappers {
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		var v any
		dec := json.NewDecoder(strings.NewReader(text[loc[1]:]))
		if err := dec.Decode(&v); err == nil {
			return v, true
		}
	}
	return nil, false
}

// MineCandidates walks a decoded JSON tree and scores every CDN image URL it meets.
// Map keys are visited in sorted order so encounter order is deterministic.
func MineCandidates(root any, postID string, limits WalkLimits) []entities.ImageCandidate {
	m := &miner{postID: postID, limits: limits}
	m.walk(root, "", 0)
	return m.out
}

type miner struct {
	postID string
	limits WalkLimits
	out    []entities.ImageCandidate
}

func (m *miner) walk(node any, path string, depth int) {
	if depth > m.limits.MaxDepth {
		return
	}

	switch v := node.(type) {
	case string:
		m.consider(v, path)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			childPath := joinPath(path, k)
			switch child := v[k].(type) {
			case string:
				m.consider(child, childPath)
			case map[string]any, []any:
				if m.shouldDescend(k, depth) {
					m.walk(child, childPath, depth+1)
				}
			}
		}
	case []any:
		for i, item := range v {
			if i >= m.limits.MaxListItems {
				break
			}
			m.walk(item, path+"["+strconv.Itoa(i)+"]", depth+1)
		}
	}
}

func (m *miner) shouldDescend(key string, depth int) bool {
	lower := strings.ToLower(key)
	if containsAny(lower, contentKeywords) || containsAny(lower, photoKeywords) {
		return true
	}
	if m.postID != "" && strings.Contains(key, m.postID) {
		return true
	}
	return depth < m.limits.FreeDepth && !containsAny(lower, avoidedKeys)
}

func (m *miner) consider(value, path string) {
	if len(value) <= minCandidateLength {
		return
	}
	lower := strings.ToLower(value)
	if !isCDNURL(lower) || !looksLikeImage(lower) {
		return
	}

	m.out = append(m.out, entities.ImageCandidate{
		URL:      value,
		Score:    m.score(value, lower, path),
		JSONPath: path,
	})
}

func (m *miner) score(value, lowerValue, path string) int {
	score := 0
	lowerPath := strings.ToLower(path)

	if m.postID != "" && strings.Contains(value, m.postID) {
		score += 100
	}
	if containsAny(lowerPath, contentKeywords) {
		score += 50
	}
	if containsAny(lowerPath, photoKeywords) {
		score += 30
	}
	if hasImageExtension(lowerValue) {
		score += 20
	}
	if containsAny(lowerPath, unrelatedKeywords) {
		score -= 20
	}
	return score
}

// SelectBest picks among positively scored candidates: a high-resolution one first,
// otherwise the highest score. Ties go to the earliest candidate.
func SelectBest(candidates []entities.ImageCandidate) (string, bool) {
	var best, bestHighRes *entities.ImageCandidate

	for i := range candidates {
		c := &candidates[i]
		if c.Score <= 0 {
			continue
		}
		if hasHighResToken(c.URL) && (bestHighRes == nil || c.Score > bestHighRes.Score) {
			bestHighRes = c
		}
		if best == nil || c.Score > best.Score {
			best = c
		}
	}

	switch {
	case bestHighRes != nil:
		return normalizeURL(bestHighRes.URL), true
	case best != nil:
		return normalizeURL(best.URL), true
	}
	return "", false
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
