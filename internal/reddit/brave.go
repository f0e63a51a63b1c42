package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultEndpoint is the Brave Web Search API endpoint.
const DefaultEndpoint = "https://api.search.brave.com/res/v1/web/search"

const searchTimeout = 15 * time.Second

// braveResult is a single web result as returned by the Brave API. Only the
// fields the normalizer consumes are mapped.
type braveResult struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Age         string `json:"age"`
	PageAge     string `json:"page_age"`
}

// braveResponse is the slice of the Brave API response we care about.
type braveResponse struct {
	Web struct {
		Results []braveResult `json:"results"`
	} `json:"web"`
}

// searchBrave executes a single query against the Brave API and returns the
// raw web results. Freshness, when non-empty, constrains result age on the
// provider side.
func (s *Searcher) searchBrave(ctx context.Context, query string, count int, freshness string) ([]braveResult, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("q", query)
	params.Set("result_filter", "web") // news results pull in non-reddit pages
	params.Set("count", strconv.Itoa(count))
	params.Set("safesearch", "strict")
	params.Set("text_decorations", "0")
	params.Set("spellcheck", "0")
	if freshness != "" {
		params.Set("freshness", freshness)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("reddit: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reddit: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("reddit: read body: %w", err)
	}

	var parsed braveResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("reddit: decode response: %w", err)
	}

	return parsed.Web.Results, nil
}
