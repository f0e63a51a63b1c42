package reddit

import (
	"reflect"
	"testing"
	"time"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestDedupKey(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.reddit.com/r/golang/comments/abc/post/", "reddit.com/r/golang/comments/abc/post"},
		{"https://old.reddit.com/r/golang/comments/abc/post", "reddit.com/r/golang/comments/abc/post"},
		{"https://reddit.com/r/golang/comments/abc/post?utm_source=share", "reddit.com/r/golang/comments/abc/post"},
		{"https://example.com/r/golang/comments/abc", ""},
	}
	for _, tt := range tests {
		if got := dedupKey(tt.url); got != tt.want {
			t.Errorf("dedupKey(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestIsThread(t *testing.T) {
	if !isThread("https://www.reddit.com/r/golang/comments/abc/post") {
		t.Error("thread URL rejected")
	}
	if isThread("https://www.reddit.com/r/golang/") {
		t.Error("subreddit hub accepted")
	}
	if isThread("https://www.reddit.com/r/golang/wiki/index") {
		t.Error("wiki page accepted")
	}
}

func TestAcceptableHost(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://www.reddit.com/r/a/comments/x/y", true},
		{"https://old.reddit.com/r/a/comments/x/y", true},
		{"https://developers.reddit.com/r/a/comments/x/y", false},
		{"https://business.reddit.com/r/a/comments/x/y", false},
		{"https://notreddit.example.com/r/a/comments/x/y", false},
	}
	for _, tt := range tests {
		if got := acceptableHost(tt.url); got != tt.want {
			t.Errorf("acceptableHost(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestNormalizeRejectsAndAssignsSequentialIDs(t *testing.T) {
	raw := []braveResult{
		{URL: "https://www.reddit.com/r/golang/comments/a/first"},
		{URL: ""}, // no URL
		{URL: "https://www.reddit.com/r/golang/"},                      // not a thread
		{URL: "https://business.reddit.com/r/golang/comments/b/hub"},   // denied host
		{URL: "https://www.reddit.com/r/rust/comments/c/second"},
	}

	items := normalize(raw, testNow)

	if len(items) != 2 {
		t.Fatalf("expected 2 surviving items, got %d", len(items))
	}
	if items[0].ID != "R1" || items[1].ID != "R2" {
		t.Errorf("expected sequential ids R1, R2, got %q, %q", items[0].ID, items[1].ID)
	}
	if items[0].Subgroup != "golang" || items[1].Subgroup != "rust" {
		t.Errorf("subreddit extraction failed: %q, %q", items[0].Subgroup, items[1].Subgroup)
	}
	for _, it := range items {
		if it.Relevance != Relevance {
			t.Errorf("item %s relevance = %v, want %v", it.ID, it.Relevance, Relevance)
		}
	}
}

func TestNormalizeCleansAndTruncatesFields(t *testing.T) {
	long := ""
	for i := 0; i < 50; i++ {
		long += "0123456789"
	}
	raw := []braveResult{{
		URL:         "https://www.reddit.com/r/golang/comments/a/post",
		Title:       "<strong>Go &amp; performance</strong>",
		Description: long,
	}}

	items := normalize(raw, testNow)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Title != "Go & performance" {
		t.Errorf("title not cleaned: %q", items[0].Title)
	}
	if len([]rune(items[0].WhyRelevant)) != maxFieldLen {
		t.Errorf("why_relevant not capped: %d runes", len([]rune(items[0].WhyRelevant)))
	}
}

func TestNormalizeDateHandling(t *testing.T) {
	raw := []braveResult{
		{URL: "https://www.reddit.com/r/a/comments/x/y", PageAge: "2024-06-01T00:00:00"},
		{URL: "https://www.reddit.com/r/a/comments/x/z", Age: "2 days ago"},
		{URL: "https://www.reddit.com/r/a/comments/x/w", Age: "sometime"},
	}

	items := normalize(raw, testNow)
	if items[0].Date != "2024-06-01" {
		t.Errorf("page_age date = %q", items[0].Date)
	}
	if items[1].Date != "2024-06-13" {
		t.Errorf("relative date = %q", items[1].Date)
	}
	if items[2].Date != "" {
		t.Errorf("unparseable date should be empty, got %q", items[2].Date)
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	raw := []braveResult{
		{URL: "https://www.reddit.com/r/a/comments/x/y", Title: "t", Description: "d", PageAge: "2024-06-01T00:00:00"},
		{URL: "https://www.reddit.com/r/a/wiki"},
	}
	first := normalize(raw, testNow)
	second := normalize(raw, testNow)
	if !reflect.DeepEqual(first, second) {
		t.Error("normalize is not deterministic for identical input")
	}
}
