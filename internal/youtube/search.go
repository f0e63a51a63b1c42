// Package youtube discovers videos for a topic by scraping the public
// search results page and enriches the top-ranked ones with transcript text.
// No API key is needed; the tradeoff is that result shapes are irregular
// nested renderer structures that have to be unpacked defensively.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/lanzhizhuxia/last30days-skill/internal/dates"
	"github.com/lanzhizhuxia/last30days-skill/internal/models"
	"github.com/lanzhizhuxia/last30days-skill/internal/query"
)

// Relevance is the fixed prior assigned to scraped videos. There is no
// per-item relevance signal on this path.
const Relevance = 0.7

// minRecentKeep is the smallest number of in-window videos required before
// the date filter is applied strictly. Below it the full set is kept: a
// strict window on a sparse result set would leave too few usable items.
const minRecentKeep = 3

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko)"

// ErrUnavailable marks a whole-backend failure: the search page could not be
// fetched or its payload was not recognized. The caller should treat this as
// degraded, not fatal.
var ErrUnavailable = errors.New("youtube: search backend unavailable")

// Scraper fetches and parses YouTube search results.
type Scraper struct {
	baseURL string
	now     func() time.Time
}

// ScraperOption configures a Scraper.
type ScraperOption func(*Scraper)

// WithBaseURL overrides the YouTube origin (used in tests).
func WithBaseURL(base string) ScraperOption {
	return func(s *Scraper) { s.baseURL = base }
}

// WithNow overrides the clock used to resolve relative dates (tests).
func WithNow(now func() time.Time) ScraperOption {
	return func(s *Scraper) { s.now = now }
}

// NewScraper creates a Scraper.
func NewScraper(opts ...ScraperOption) *Scraper {
	s := &Scraper{
		baseURL: "https://www.youtube.com",
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search scrapes up to count videos for the topic, applies the soft recency
// filter against fromDate, and returns them sorted by view count descending.
//
// Unlike the Reddit path, any failure here aborts the whole backend: the
// returned error is a degraded-result marker for the caller, alongside an
// empty item list.
func (s *Scraper) Search(ctx context.Context, topic, fromDate string, count int) ([]models.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	q := query.YouTubeQuery(topic)

	slog.Info("youtube: searching", "query", q, "since", fromDate, "count", count)

	body, err := s.fetchResultsPage(q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	renderers, err := extractVideoRenderers(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(renderers) > count {
		renderers = renderers[:count]
	}

	now := s.now()
	items := make([]models.Item, 0, len(renderers))
	for _, r := range renderers {
		if r.VideoID == "" {
			continue
		}
		items = append(items, models.Item{
			ID:          fmt.Sprintf("Y%d", len(items)+1),
			Source:      models.SourceYouTube,
			Title:       r.title(),
			URL:         "https://www.youtube.com/watch?v=" + r.VideoID,
			Date:        dates.ParseRelative(r.publishedText(), now),
			WhyRelevant: "YouTube video about " + q,
			Relevance:   Relevance,
			VideoID:     r.VideoID,
			ChannelName: r.channel(),
			Engagement:  &models.Engagement{Views: parseViewCount(r.viewText())},
			Duration:    r.duration(),
		})
	}

	items = filterRecent(items, fromDate)

	// Stable: ties keep discovery order.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Engagement.Views > items[j].Engagement.Views
	})

	return items, nil
}

// fetchResultsPage downloads the raw search results HTML via colly.
func (s *Scraper) fetchResultsPage(q string) (string, error) {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
		colly.MaxDepth(1),
	)

	var body string
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
		// Skip the EU consent interstitial.
		r.Headers.Set("Cookie", "CONSENT=YES+1")
	})
	c.OnResponse(func(r *colly.Response) {
		body = string(r.Body)
	})

	searchURL := s.baseURL + "/results?search_query=" + url.QueryEscape(q)
	if err := c.Visit(searchURL); err != nil {
		return "", err
	}
	c.Wait()

	if body == "" {
		return "", errors.New("empty response body")
	}
	return body, nil
}

// filterRecent applies the soft date window: keep only in-window videos when
// at least minRecentKeep of them exist, otherwise keep everything.
func filterRecent(items []models.Item, fromDate string) []models.Item {
	recent := make([]models.Item, 0, len(items))
	for _, it := range items {
		if it.Date != "" && it.Date >= fromDate {
			recent = append(recent, it)
		}
	}

	if len(recent) >= minRecentKeep {
		slog.Info("youtube: date filter applied", "kept", len(recent), "total", len(items))
		return recent
	}

	slog.Info("youtube: too few recent videos, keeping all", "recent", len(recent), "total", len(items))
	return items
}

// parseViewCount parses view count text like "1,234 views", "1.2M views" or
// "No views" into an integer. Unrecognized input yields 0.
func parseViewCount(text string) int {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" || strings.Contains(text, "no view") {
		return 0
	}

	text = strings.ReplaceAll(text, "views", "")
	text = strings.ReplaceAll(text, "view", "")
	text = strings.ReplaceAll(text, ",", "")
	text = strings.TrimSpace(text)

	multipliers := []struct {
		suffix string
		mult   float64
	}{
		{"k", 1e3}, {"m", 1e6}, {"b", 1e9},
	}
	for _, m := range multipliers {
		if strings.HasSuffix(text, m.suffix) {
			f, err := strconv.ParseFloat(strings.TrimSuffix(text, m.suffix), 64)
			if err != nil {
				return 0
			}
			return int(f * m.mult)
		}
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return int(f)
}

// ── search payload shapes ──────────────────────────────────────────

// runsText is YouTube's polymorphic text shape: either a simpleText string
// or a list of runs. Unrecognized shapes decode to the zero value and read
// as "".
type runsText struct {
	SimpleText string `json:"simpleText"`
	Runs       []struct {
		Text string `json:"text"`
	} `json:"runs"`
}

func (t runsText) text() string {
	if t.SimpleText != "" {
		return t.SimpleText
	}
	if len(t.Runs) > 0 {
		return t.Runs[0].Text
	}
	return ""
}

// videoRenderer is one video entry in the search payload. Every field is
// optional; each accessor falls back to "" when the shape is not recognized.
type videoRenderer struct {
	VideoID           string   `json:"videoId"`
	Title             runsText `json:"title"`
	OwnerText         runsText `json:"ownerText"`
	LongBylineText    runsText `json:"longBylineText"`
	ViewCountText     runsText `json:"viewCountText"`
	PublishedTimeText runsText `json:"publishedTimeText"`
	LengthText        runsText `json:"lengthText"`
}

func (v videoRenderer) title() string { return v.Title.text() }

func (v videoRenderer) channel() string {
	if name := v.OwnerText.text(); name != "" {
		return name
	}
	return v.LongBylineText.text()
}

func (v videoRenderer) viewText() string      { return v.ViewCountText.text() }
func (v videoRenderer) publishedText() string { return v.PublishedTimeText.text() }
func (v videoRenderer) duration() string      { return v.LengthText.text() }

// searchPayload mirrors the parts of ytInitialData that hold search results.
type searchPayload struct {
	Contents struct {
		TwoColumnSearchResultsRenderer struct {
			PrimaryContents struct {
				SectionListRenderer struct {
					Contents []struct {
						ItemSectionRenderer struct {
							Contents []struct {
								VideoRenderer *videoRenderer `json:"videoRenderer"`
							} `json:"contents"`
						} `json:"itemSectionRenderer"`
					} `json:"contents"`
				} `json:"sectionListRenderer"`
			} `json:"primaryContents"`
		} `json:"twoColumnSearchResultsRenderer"`
	} `json:"contents"`
}

// extractVideoRenderers pulls the embedded ytInitialData JSON out of the
// results page HTML and returns its video entries in page order.
func extractVideoRenderers(body string) ([]videoRenderer, error) {
	raw, err := extractInitialData(body)
	if err != nil {
		return nil, err
	}

	var payload searchPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decode ytInitialData: %w", err)
	}

	var renderers []videoRenderer
	sections := payload.Contents.TwoColumnSearchResultsRenderer.PrimaryContents.SectionListRenderer.Contents
	for _, section := range sections {
		for _, entry := range section.ItemSectionRenderer.Contents {
			if entry.VideoRenderer != nil {
				renderers = append(renderers, *entry.VideoRenderer)
			}
		}
	}

	if len(renderers) == 0 {
		return nil, errors.New("no video entries in payload")
	}
	return renderers, nil
}

// extractInitialData locates the ytInitialData JSON object in the page HTML.
func extractInitialData(body string) (string, error) {
	for _, marker := range []string{"var ytInitialData = ", `window["ytInitialData"] = `} {
		start := strings.Index(body, marker)
		if start == -1 {
			continue
		}
		rest := body[start+len(marker):]
		end := strings.Index(rest, ";</script>")
		if end == -1 {
			continue
		}
		return rest[:end], nil
	}
	return "", errors.New("ytInitialData not found")
}
