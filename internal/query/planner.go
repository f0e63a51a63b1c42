// Package query turns a verbose research topic into the compact search
// queries each backend actually performs well on.
package query

import "strings"

const (
	// maxCoreTokens caps the Reddit core subject length.
	maxCoreTokens = 4
	// maxTrimmedTokens caps the full-topic fallback variant length.
	maxTrimmedTokens = 6
	// maxVariants caps the number of Reddit query variants.
	maxVariants = 3
)

// redditNoise is the discourse/meta vocabulary stripped when extracting the
// Reddit core subject. Tuned for research-style topics, not code.
var redditNoise = map[string]bool{
	"best": true, "top": true, "practices": true, "features": true,
	"killer": true, "guide": true, "tutorial": true,
	"recommendations": true, "advice": true, "prompting": true,
	"using": true, "for": true, "with": true, "the": true, "of": true,
	"in": true, "on": true, "what": true, "are": true, "people": true,
	"saying": true, "about": true,
}

// youtubePrefixes are multi-word interrogative lead-ins stripped before
// per-token filtering on the video path. Order matters: longer prefixes
// first so "what are the best" wins over "what are".
var youtubePrefixes = []string{
	"what are the best", "what is the best", "what are the latest",
	"what are people saying about", "what do people think about",
	"how do i use", "how to use", "how to",
	"what are", "what is", "tips for", "best practices for",
}

// youtubeNoise is the per-token noise vocabulary for the video path.
// Content-type words (tutorial, review, tips, guide) are deliberately kept:
// they improve relevance on YouTube search.
var youtubeNoise = map[string]bool{
	"best": true, "top": true, "good": true, "great": true,
	"awesome": true, "killer": true,
	"latest": true, "new": true, "news": true, "update": true, "updates": true,
	"trending": true, "hottest": true, "popular": true, "viral": true,
	"practices": true, "features": true,
	"recommendations": true, "advice": true,
	"prompt": true, "prompts": true, "prompting": true,
	"methods": true, "strategies": true, "approaches": true,
}

// CoreSubject extracts the compact core subject used for Reddit queries:
// lowercase, noise tokens removed, at most four tokens. Falls back to the
// original topic when filtering empties the phrase.
func CoreSubject(topic string) string {
	words := strings.Fields(strings.ToLower(topic))
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if !redditNoise[w] {
			kept = append(kept, w)
		}
	}
	if len(kept) > maxCoreTokens {
		kept = kept[:maxCoreTokens]
	}
	if len(kept) == 0 {
		return topic
	}
	return strings.Join(kept, " ")
}

// RedditVariants builds the ordered Reddit query variants for a topic. The
// first variant is the most precise and its results win dedup ties.
func RedditVariants(topic string) []string {
	core := CoreSubject(topic)

	variants := []string{
		core + " site:reddit.com",
		core + " discussion site:reddit.com",
	}

	// If the full topic differs materially from the core subject, also try a
	// trimmed version of the full phrasing.
	if strings.TrimSpace(strings.ToLower(topic)) != strings.TrimSpace(strings.ToLower(core)) {
		words := strings.Fields(topic)
		if len(words) > maxTrimmedTokens {
			words = words[:maxTrimmedTokens]
		}
		variants = append(variants, strings.Join(words, " ")+" site:reddit.com")
	}

	if len(variants) > maxVariants {
		variants = variants[:maxVariants]
	}
	return variants
}

// YouTubeQuery extracts the search phrase for the video path: interrogative
// prefixes stripped, noise tokens removed, full remaining phrase kept.
func YouTubeQuery(topic string) string {
	text := strings.ToLower(strings.TrimSpace(topic))

	for _, p := range youtubePrefixes {
		if strings.HasPrefix(text, p+" ") {
			text = strings.TrimSpace(text[len(p):])
		}
	}

	words := strings.Fields(text)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if !youtubeNoise[w] {
			kept = append(kept, w)
		}
	}

	result := text
	if len(kept) > 0 {
		result = strings.Join(kept, " ")
	}
	return strings.TrimRight(result, "?!.")
}
