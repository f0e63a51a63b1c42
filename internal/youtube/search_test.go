package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lanzhizhuxia/last30days-skill/internal/models"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

// resultsPage wraps renderer JSON entries in a minimal search results page.
func resultsPage(renderers ...string) string {
	entries := ""
	for i, r := range renderers {
		if i > 0 {
			entries += ","
		}
		entries += fmt.Sprintf(`{"videoRenderer":%s}`, r)
	}
	payload := fmt.Sprintf(`{"contents":{"twoColumnSearchResultsRenderer":{"primaryContents":{"sectionListRenderer":{"contents":[{"itemSectionRenderer":{"contents":[%s]}}]}}}}}`, entries)
	return fmt.Sprintf(`<html><body><script>var ytInitialData = %s;</script></body></html>`, payload)
}

func rendererJSON(id, title, channel, views, published string) string {
	return fmt.Sprintf(`{
		"videoId": %q,
		"title": {"runs": [{"text": %q}]},
		"ownerText": {"runs": [{"text": %q}]},
		"viewCountText": {"simpleText": %q},
		"publishedTimeText": {"simpleText": %q},
		"lengthText": {"simpleText": "10:23"}
	}`, id, title, channel, views, published)
}

func TestParseViewCount(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"1,234 views", 1234},
		{"1.2M views", 1200000},
		{"15K views", 15000},
		{"1B views", 1000000000},
		{"No views", 0},
		{"1 view", 1},
		{"", 0},
		{"garbage", 0},
	}
	for _, tt := range tests {
		if got := parseViewCount(tt.text); got != tt.want {
			t.Errorf("parseViewCount(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestRunsTextFallbacks(t *testing.T) {
	v := videoRenderer{}
	if v.title() != "" || v.channel() != "" || v.duration() != "" {
		t.Error("unrecognized shapes should read as empty strings")
	}

	v.Title.SimpleText = "simple"
	if v.title() != "simple" {
		t.Errorf("simpleText not used: %q", v.title())
	}

	v.LongBylineText.Runs = []struct {
		Text string `json:"text"`
	}{{Text: "byline channel"}}
	if v.channel() != "byline channel" {
		t.Errorf("longBylineText fallback not used: %q", v.channel())
	}
}

func TestExtractVideoRenderers(t *testing.T) {
	page := resultsPage(
		rendererJSON("vid1", "First", "Chan A", "100 views", "2 days ago"),
		rendererJSON("vid2", "Second", "Chan B", "50 views", "1 week ago"),
	)

	renderers, err := extractVideoRenderers(page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(renderers) != 2 {
		t.Fatalf("expected 2 renderers, got %d", len(renderers))
	}
	if renderers[0].VideoID != "vid1" || renderers[0].title() != "First" {
		t.Errorf("first renderer mismatch: %+v", renderers[0])
	}
}

func TestExtractVideoRenderersMissingPayload(t *testing.T) {
	if _, err := extractVideoRenderers("<html><body>nothing here</body></html>"); err == nil {
		t.Fatal("expected error for page without ytInitialData")
	}
}

func TestFilterRecentSoftFallback(t *testing.T) {
	mk := func(date string) models.Item {
		return models.Item{Date: date, Engagement: &models.Engagement{}}
	}

	// Only 2 of 10 in window: keep all 10.
	var sparse []models.Item
	for i := 0; i < 8; i++ {
		sparse = append(sparse, mk("2024-01-01"))
	}
	sparse = append(sparse, mk("2024-06-10"), mk("2024-06-12"))
	if got := filterRecent(sparse, "2024-06-01"); len(got) != 10 {
		t.Errorf("expected soft fallback to keep all 10, got %d", len(got))
	}

	// 5 of 10 in window: strict filtering applies.
	var dense []models.Item
	for i := 0; i < 5; i++ {
		dense = append(dense, mk("2024-01-01"))
	}
	for i := 0; i < 5; i++ {
		dense = append(dense, mk("2024-06-10"))
	}
	got := filterRecent(dense, "2024-06-01")
	if len(got) != 5 {
		t.Fatalf("expected strict subset of 5, got %d", len(got))
	}
	for _, it := range got {
		if it.Date < "2024-06-01" {
			t.Errorf("out-of-window item survived strict filter: %q", it.Date)
		}
	}

	// Undated items never count as recent.
	undated := []models.Item{mk(""), mk(""), mk("2024-06-10")}
	if got := filterRecent(undated, "2024-06-01"); len(got) != 3 {
		t.Errorf("expected fallback with undated items, got %d", len(got))
	}
}

func TestSearchSortsByViewsAndAssignsIDs(t *testing.T) {
	page := resultsPage(
		rendererJSON("vid1", "Low", "A", "100 views", "2 days ago"),
		rendererJSON("vid2", "High", "B", "1.5K views", "3 days ago"),
		rendererJSON("vid3", "Mid", "C", "500 views", "4 days ago"),
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("search_query"); q == "" {
			t.Error("missing search_query parameter")
		}
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	s := NewScraper(WithBaseURL(srv.URL), WithNow(func() time.Time { return testNow }))
	items, err := s.Search(context.Background(), "golang tutorial", "2024-06-01", 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].VideoID != "vid2" || items[1].VideoID != "vid3" || items[2].VideoID != "vid1" {
		t.Errorf("not sorted by views desc: %s, %s, %s",
			items[0].VideoID, items[1].VideoID, items[2].VideoID)
	}
	// IDs reflect discovery order, assigned before the view sort.
	if items[0].ID != "Y2" {
		t.Errorf("expected discovery-order id Y2 for top item, got %q", items[0].ID)
	}
	if items[0].Relevance != Relevance {
		t.Errorf("relevance = %v, want %v", items[0].Relevance, Relevance)
	}
	if items[0].URL != "https://www.youtube.com/watch?v=vid2" {
		t.Errorf("unexpected URL %q", items[0].URL)
	}
}

func TestSearchUnavailableBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>captcha</body></html>")
	}))
	defer srv.Close()

	s := NewScraper(WithBaseURL(srv.URL))
	items, err := s.Search(context.Background(), "golang", "2024-06-01", 20)
	if err == nil {
		t.Fatal("expected degraded-backend error")
	}
	if len(items) != 0 {
		t.Errorf("expected empty items alongside the error, got %d", len(items))
	}
}

func TestSearchCapsCandidateCount(t *testing.T) {
	var renderers []string
	for i := 0; i < 15; i++ {
		renderers = append(renderers, rendererJSON(fmt.Sprintf("vid%d", i), "T", "C", "10 views", "1 day ago"))
	}
	page := resultsPage(renderers...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	s := NewScraper(WithBaseURL(srv.URL), WithNow(func() time.Time { return testNow }))
	items, err := s.Search(context.Background(), "golang", "2024-06-01", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 10 {
		t.Errorf("expected count cap of 10, got %d", len(items))
	}
}
