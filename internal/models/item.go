// Package models defines the shared data types and Postgres stores for the
// discovery service.
package models

// Engagement holds the interaction counters scraped for a video. Likes and
// comments are not exposed by the search results page, so they stay zero
// unless a later enrichment fills them in.
type Engagement struct {
	Views    int `json:"views"`
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
}

// Item is the backend-agnostic record shape produced by the discovery
// pipeline. Reddit items use the base fields only; video items additionally
// carry channel, engagement, duration and transcript data.
type Item struct {
	ID          string  `json:"id"`
	Source      string  `json:"source"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Subgroup    string  `json:"source_subgroup,omitempty"`
	Date        string  `json:"date,omitempty"`
	WhyRelevant string  `json:"why_relevant,omitempty"`
	Relevance   float64 `json:"relevance"`

	// Video-only fields.
	VideoID           string      `json:"video_id,omitempty"`
	ChannelName       string      `json:"channel_name,omitempty"`
	Engagement        *Engagement `json:"engagement,omitempty"`
	Duration          string      `json:"duration,omitempty"`
	TranscriptSnippet string      `json:"transcript_snippet,omitempty"`
}

// Item source labels.
const (
	SourceReddit  = "reddit"
	SourceYouTube = "youtube"
)
