// Package dates holds the stateless date helpers shared by both backend
// paths: relative-phrase parsing, Brave page-age parsing, and the mapping
// from a requested date window to a coarse freshness bucket.
package dates

import (
	"regexp"
	"strings"
	"time"
)

// ISODate is the calendar date layout used everywhere in the pipeline.
const ISODate = "2006-01-02"

// reRelative matches phrases like "3 weeks ago" or "Streamed 2 days ago".
var reRelative = regexp.MustCompile(`^(?:streamed\s+)?(\d+)\s+(second|minute|hour|day|week|month|year)s?\s+ago`)

// ParseRelative converts a relative phrase ("3 weeks ago") to a YYYY-MM-DD
// date anchored at now. Returns "" when the phrase is not recognized.
func ParseRelative(text string, now time.Time) string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return ""
	}

	m := reRelative.FindStringSubmatch(text)
	if m == nil {
		return ""
	}

	n := 0
	for _, c := range m[1] {
		n = n*10 + int(c-'0')
	}

	var at time.Time
	switch m[2] {
	case "second", "minute", "hour":
		at = now
	case "day":
		at = now.AddDate(0, 0, -n)
	case "week":
		at = now.AddDate(0, 0, -n*7)
	case "month":
		at = now.AddDate(0, 0, -n*30)
	case "year":
		at = now.AddDate(0, 0, -n*365)
	default:
		return ""
	}

	return at.Format(ISODate)
}

// ParseBraveDate derives a calendar date from a Brave search result. It
// prefers page_age (an ISO timestamp) and falls back to the relative age
// phrase. Returns "" when neither yields a valid date.
func ParseBraveDate(age, pageAge string, now time.Time) string {
	if pageAge != "" {
		candidate := pageAge
		if len(candidate) > len(ISODate) {
			candidate = candidate[:len(ISODate)]
		}
		if _, err := time.Parse(ISODate, candidate); err == nil {
			return candidate
		}
	}
	return ParseRelative(age, now)
}

// DaysBetween returns the absolute number of calendar days between two
// YYYY-MM-DD dates. Unparseable input yields 0.
func DaysBetween(from, to string) int {
	f, err := time.Parse(ISODate, from)
	if err != nil {
		return 0
	}
	t, err := time.Parse(ISODate, to)
	if err != nil {
		return 0
	}
	days := int(t.Sub(f).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// Freshness maps a window length in days to a Brave freshness bucket.
// Windows longer than a year get no freshness constraint.
func Freshness(days int) string {
	switch {
	case days <= 1:
		return "pd"
	case days <= 7:
		return "pw"
	case days <= 31:
		return "pm"
	case days <= 365:
		return "py"
	default:
		return ""
	}
}

// Valid reports whether s is a well-formed YYYY-MM-DD calendar date.
func Valid(s string) bool {
	_, err := time.Parse(ISODate, s)
	return err == nil
}
