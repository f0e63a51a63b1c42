package reddit

import (
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/lanzhizhuxia/last30days-skill/internal/dates"
	"github.com/lanzhizhuxia/last30days-skill/internal/models"
)

// Relevance is the fixed prior assigned to Brave-sourced Reddit threads.
// Brave provides no usable per-item score, so this is a static constant
// consumed by downstream weighting, not a computed confidence.
const Relevance = 0.65

// maxFieldLen caps title and why_relevant text.
const maxFieldLen = 200

// deniedHosts are reddit.com subdomains that never serve user threads.
var deniedHosts = []string{"developers.reddit.com", "business.reddit.com"}

var (
	reTag       = regexp.MustCompile(`<[^>]*>`)
	reSubreddit = regexp.MustCompile(`/r/([^/]+)`)
)

// dedupKey reduces a URL to its canonical thread identity: bare reddit.com
// host plus path, trailing slash and query string dropped. Returns "" for
// anything that is not a reddit.com URL, which excludes it from dedup
// entirely.
func dedupKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	if !strings.Contains(host, "reddit.com") {
		return ""
	}
	return "reddit.com" + strings.TrimRight(u.Path, "/")
}

// isThread reports whether a URL points at an actual Reddit thread rather
// than a subreddit hub, wiki or listing page.
func isThread(rawURL string) bool {
	return strings.Contains(rawURL, "/r/") && strings.Contains(rawURL, "/comments/")
}

// acceptableHost reports whether the URL host is a user-facing reddit.com
// domain.
func acceptableHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Host)
	if !strings.Contains(host, "reddit.com") {
		return false
	}
	for _, d := range deniedHosts {
		if strings.Contains(host, d) {
			return false
		}
	}
	return true
}

// subredditOf extracts the community name from a thread URL, or "".
func subredditOf(rawURL string) string {
	m := reSubreddit.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// cleanHTML strips markup tags and decodes HTML entities.
func cleanHTML(s string) string {
	return strings.TrimSpace(html.UnescapeString(reTag.ReplaceAllString(s, "")))
}

// truncate caps s to max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// normalize maps surviving raw results to Items. Records with no URL, a
// non-thread URL, or a non-user-facing host are rejected silently: they are
// expected noise from a broad web search, not failures. IDs are assigned
// sequentially in survival order and are stable only within one run.
func normalize(results []braveResult, now time.Time) []models.Item {
	items := make([]models.Item, 0, len(results))

	for _, r := range results {
		if r.URL == "" {
			continue
		}
		if !isThread(r.URL) {
			continue
		}
		if !acceptableHost(r.URL) {
			continue
		}

		title := cleanHTML(r.Title)
		snippet := cleanHTML(r.Description)

		items = append(items, models.Item{
			ID:          fmt.Sprintf("R%d", len(items)+1),
			Source:      models.SourceReddit,
			Title:       truncate(title, maxFieldLen),
			URL:         r.URL,
			Subgroup:    subredditOf(r.URL),
			Date:        dates.ParseBraveDate(r.Age, r.PageAge, now),
			WhyRelevant: truncate(snippet, maxFieldLen),
			Relevance:   Relevance,
		})
	}

	return items
}
