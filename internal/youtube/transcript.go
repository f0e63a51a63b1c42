package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Transcript failure classes. All three mean "no transcript for this video",
// never "abort the batch".
var (
	// ErrCaptionsDisabled means the video exposes no caption tracks at all.
	ErrCaptionsDisabled = errors.New("youtube: captions disabled")
	// ErrVideoUnavailable means the video is gone or unplayable.
	ErrVideoUnavailable = errors.New("youtube: video unavailable")
	// ErrNoTranscript means no track could be fetched in any language.
	ErrNoTranscript = errors.New("youtube: no transcript available")
)

// primaryLanguage is the caption language tried first.
const primaryLanguage = "en"

// maxTranscriptWords caps the transcript snippet length.
const maxTranscriptWords = 500

const transcriptTimeout = 15 * time.Second

var reSpaces = regexp.MustCompile(`\s+`)

// captionTrack is one entry of the watch page's caption track list.
type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
}

// TranscriptClient fetches caption transcripts from YouTube watch pages.
type TranscriptClient struct {
	baseURL string
	client  *http.Client
}

// TranscriptOption configures a TranscriptClient.
type TranscriptOption func(*TranscriptClient)

// WithTranscriptBaseURL overrides the YouTube origin (used in tests).
func WithTranscriptBaseURL(base string) TranscriptOption {
	return func(c *TranscriptClient) { c.baseURL = base }
}

// NewTranscriptClient creates a TranscriptClient.
func NewTranscriptClient(opts ...TranscriptOption) *TranscriptClient {
	c := &TranscriptClient{
		baseURL: "https://www.youtube.com",
		client:  &http.Client{Timeout: transcriptTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// fetchState drives the per-video fallback policy.
type fetchState int

const (
	tryingPrimary fetchState = iota
	tryingAlternatives
	succeeded
	exhausted
)

// Transcript fetches the transcript for one video, trying the primary
// language first and falling back to the first fetchable track in any
// language only when no primary track exists. The returned text has
// whitespace collapsed and is capped at maxTranscriptWords.
func (c *TranscriptClient) Transcript(ctx context.Context, videoID string) (string, error) {
	tracks, err := c.listTracks(ctx, videoID)
	if err != nil {
		return "", err
	}

	var text string
	state := tryingPrimary

	for {
		switch state {
		case tryingPrimary:
			track := primaryTrack(tracks)
			if track == nil {
				state = tryingAlternatives
				continue
			}
			text, err = c.fetchTrack(ctx, track.BaseURL)
			if err != nil {
				return "", fmt.Errorf("youtube: fetch %s track: %w", primaryLanguage, err)
			}
			state = succeeded

		case tryingAlternatives:
			state = exhausted
			for _, track := range tracks {
				t, fetchErr := c.fetchTrack(ctx, track.BaseURL)
				if fetchErr == nil && t != "" {
					text = t
					state = succeeded
					break
				}
			}

		case succeeded:
			out := cleanTranscript(text)
			if out == "" {
				return "", ErrNoTranscript
			}
			return out, nil

		case exhausted:
			return "", ErrNoTranscript
		}
	}
}

// primaryTrack returns the first track in the primary language, or nil.
func primaryTrack(tracks []captionTrack) *captionTrack {
	for i, t := range tracks {
		if t.LanguageCode == primaryLanguage || strings.HasPrefix(t.LanguageCode, primaryLanguage+"-") {
			return &tracks[i]
		}
	}
	return nil
}

// listTracks fetches the watch page and extracts its caption track list.
func (c *TranscriptClient) listTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	body, status, err := c.get(ctx, c.baseURL+"/watch?v="+videoID)
	if err != nil {
		return nil, fmt.Errorf("youtube: fetch watch page: %w", err)
	}
	if status == http.StatusNotFound || status == http.StatusGone {
		return nil, ErrVideoUnavailable
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("youtube: watch page status %d", status)
	}

	if strings.Contains(body, `"playabilityStatus":{"status":"ERROR"`) {
		return nil, ErrVideoUnavailable
	}

	tracks, err := parseCaptionTracks(body)
	if err != nil {
		return nil, err
	}
	return tracks, nil
}

// parseCaptionTracks extracts the captionTracks array from watch page HTML.
// A page without the array means captions are disabled for the video.
func parseCaptionTracks(body string) ([]captionTrack, error) {
	const marker = `"captionTracks":`
	idx := strings.Index(body, marker)
	if idx == -1 {
		return nil, ErrCaptionsDisabled
	}

	var tracks []captionTrack
	dec := json.NewDecoder(strings.NewReader(body[idx+len(marker):]))
	if err := dec.Decode(&tracks); err != nil {
		return nil, fmt.Errorf("youtube: decode caption tracks: %w", err)
	}
	if len(tracks) == 0 {
		return nil, ErrCaptionsDisabled
	}
	return tracks, nil
}

// timedText mirrors the timedtext XML document a caption track serves.
type timedText struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

// fetchTrack downloads one caption track and flattens it to plain text.
func (c *TranscriptClient) fetchTrack(ctx context.Context, trackURL string) (string, error) {
	body, status, err := c.get(ctx, trackURL)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("track status %d", status)
	}

	var doc timedText
	if err := xml.Unmarshal([]byte(body), &doc); err != nil {
		return "", fmt.Errorf("decode timedtext: %w", err)
	}

	parts := make([]string, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		if s := strings.TrimSpace(t.Value); s != "" {
			parts = append(parts, html.UnescapeString(s))
		}
	}
	return strings.Join(parts, " "), nil
}

func (c *TranscriptClient) get(ctx context.Context, rawURL string) (string, int, error) {
	ctx, cancel := context.WithTimeout(ctx, transcriptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cookie", "CONSENT=YES+1")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return "", 0, err
	}
	return string(body), resp.StatusCode, nil
}

// cleanTranscript collapses whitespace and caps the text at
// maxTranscriptWords, appending a truncation marker when cut.
func cleanTranscript(text string) string {
	text = strings.TrimSpace(reSpaces.ReplaceAllString(text, " "))
	words := strings.Fields(text)
	if len(words) > maxTranscriptWords {
		return strings.Join(words[:maxTranscriptWords], " ") + "..."
	}
	return text
}
