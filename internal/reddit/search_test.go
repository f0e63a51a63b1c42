package reddit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func braveBody(urls ...string) []byte {
	var resp braveResponse
	for _, u := range urls {
		resp.Web.Results = append(resp.Web.Results, braveResult{URL: u, Title: "t"})
	}
	b, _ := json.Marshal(resp)
	return b
}

func fixedNow() time.Time {
	return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
}

func TestSearchDedupesAcrossVariantsFirstWins(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Subscription-Token"); got != "key123" {
			t.Errorf("missing subscription token header, got %q", got)
		}
		n := calls.Add(1)
		switch n {
		case 1:
			w.Write(braveBody(
				"https://www.reddit.com/r/golang/comments/a/first",
				"https://www.reddit.com/r/golang/comments/b/second",
			))
		default:
			// Same thread under a different host/trailing-slash spelling,
			// plus one new thread.
			w.Write(braveBody(
				"https://old.reddit.com/r/golang/comments/a/first/",
				"https://www.reddit.com/r/golang/comments/c/third",
			))
		}
	}))
	defer srv.Close()

	s := NewSearcher("key123", WithEndpoint(srv.URL), WithNow(fixedNow))
	items := s.Search(context.Background(), "golang generics", "2024-05-16", "2024-06-15", 10)

	if len(items) != 3 {
		t.Fatalf("expected 3 deduped items, got %d", len(items))
	}
	// First occurrence wins: the variant-1 spelling of thread "a" is kept.
	if items[0].URL != "https://www.reddit.com/r/golang/comments/a/first" {
		t.Errorf("expected first-occurrence URL kept, got %q", items[0].URL)
	}
	if items[0].ID != "R1" || items[2].ID != "R3" {
		t.Errorf("ids not sequential: %q ... %q", items[0].ID, items[2].ID)
	}
}

func TestSearchToleratesFailingVariant(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		w.Write(braveBody("https://www.reddit.com/r/golang/comments/a/first"))
	}))
	defer srv.Close()

	s := NewSearcher("key", WithEndpoint(srv.URL), WithNow(fixedNow))
	items := s.Search(context.Background(), "best practices for golang testing", "2024-05-16", "2024-06-15", 10)

	if len(items) != 1 {
		t.Fatalf("expected the surviving variants to still produce 1 item, got %d", len(items))
	}
	if calls.Load() < 2 {
		t.Errorf("expected remaining variants to run after a failure, got %d calls", calls.Load())
	}
}

func TestSearchAllVariantsFailYieldsEmptyNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewSearcher("key", WithEndpoint(srv.URL), WithNow(fixedNow))
	items := s.Search(context.Background(), "golang", "2024-05-16", "2024-06-15", 10)

	if len(items) != 0 {
		t.Fatalf("expected empty result, got %d items", len(items))
	}
}

func TestSearchSendsFreshnessAndCount(t *testing.T) {
	var sawFreshness, sawCount atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawFreshness.Store(r.URL.Query().Get("freshness"))
		sawCount.Store(r.URL.Query().Get("count"))
		w.Write(braveBody())
	}))
	defer srv.Close()

	s := NewSearcher("key", WithEndpoint(srv.URL), WithNow(fixedNow))
	s.Search(context.Background(), "golang", "2024-05-16", "2024-06-15", 10)

	// 30-day window maps to the past-month freshness bucket.
	if got := sawFreshness.Load(); got != "pm" {
		t.Errorf("freshness = %v, want pm", got)
	}
	if got := sawCount.Load(); got != "10" {
		t.Errorf("count = %v, want 10", got)
	}
}
