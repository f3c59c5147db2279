// Package transcript fetches YouTube video transcripts and metadata.
//
// Caption text comes from YouTube's timedtext endpoint; video title and
// thumbnail come from the YouTube Data API v3 when an API key is
// configured, with an oEmbed fallback otherwise.
package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/yoloinfinity55/sparkpelican/internal/apperr"
)

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=|/|youtu\.be/|embed/|shorts/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/v/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`^([a-zA-Z0-9_-]{11})$`),
}

// ExtractVideoID returns the 11-character video id from a YouTube URL in any
// of the common forms (watch, youtu.be, embed, shorts), or from a bare id.
// It returns an empty string when no id can be found.
func ExtractVideoID(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, re := range videoIDPatterns {
		if m := re.FindStringSubmatch(raw); m != nil {
			return m[1]
		}
	}
	return ""
}

// Metadata holds the video details used to build a post.
type Metadata struct {
	VideoID      string
	Title        string
	ChannelTitle string
	ThumbnailURL string
}

// Client fetches transcripts, metadata, and thumbnails.
type Client struct {
	http *http.Client
	yt   *youtube.Service
}

// NewClient creates a transcript client. apiKey may be empty, in which case
// video metadata falls back to the oEmbed endpoint (no channel statistics,
// but title and thumbnail still resolve).
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	c := &Client{
		http: &http.Client{Timeout: 30 * time.Second},
	}
	if apiKey != "" {
		svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
		if err != nil {
			return nil, fmt.Errorf("transcript: create youtube service: %w", err)
		}
		c.yt = svc
	}
	return c, nil
}

// Metadata returns the video title and thumbnail URL.
func (c *Client) Metadata(ctx context.Context, videoID string) (*Metadata, error) {
	if c.yt != nil {
		call := c.yt.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx)
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("transcript: video details: %w", err)
		}
		if len(resp.Items) == 0 {
			return nil, fmt.Errorf("transcript: video %s: %w", videoID, apperr.ErrNotFound)
		}
		sn := resp.Items[0].Snippet
		m := &Metadata{
			VideoID:      videoID,
			Title:        sn.Title,
			ChannelTitle: sn.ChannelTitle,
		}
		if sn.Thumbnails != nil {
			switch {
			case sn.Thumbnails.Maxres != nil:
				m.ThumbnailURL = sn.Thumbnails.Maxres.Url
			case sn.Thumbnails.High != nil:
				m.ThumbnailURL = sn.Thumbnails.High.Url
			case sn.Thumbnails.Default != nil:
				m.ThumbnailURL = sn.Thumbnails.Default.Url
			}
		}
		return m, nil
	}
	return c.oembedMetadata(ctx, videoID)
}

// oembedMetadata resolves title and thumbnail without an API key.
func (c *Client) oembedMetadata(ctx context.Context, videoID string) (*Metadata, error) {
	u := "https://www.youtube.com/oembed?format=json&url=" +
		url.QueryEscape("https://www.youtube.com/watch?v="+videoID)
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("transcript: oembed: %w", err)
	}
	var payload struct {
		Title      string `json:"title"`
		AuthorName string `json:"author_name"`
		Thumbnail  string `json:"thumbnail_url"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("transcript: decode oembed: %w", err)
	}
	return &Metadata{
		VideoID:      videoID,
		Title:        payload.Title,
		ChannelTitle: payload.AuthorName,
		ThumbnailURL: payload.Thumbnail,
	}, nil
}

type timedTextTrack struct {
	LangCode string `xml:"lang_code,attr"`
	Name     string `xml:"name,attr"`
}

type timedTextList struct {
	Tracks []timedTextTrack `xml:"track"`
}

type timedTextBody struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

// Fetch returns the full transcript text for a video, preferring the given
// language, then English, then the first available caption track. It returns
// apperr.ErrNoTranscript when the video has no caption tracks.
func (c *Client) Fetch(ctx context.Context, videoID, lang string) (string, error) {
	tracks, err := c.listTracks(ctx, videoID)
	if err != nil {
		return "", err
	}
	if len(tracks) == 0 {
		return "", fmt.Errorf("transcript: video %s: %w", videoID, apperr.ErrNoTranscript)
	}

	track := pickTrack(tracks, lang)
	body, err := c.get(ctx, fmt.Sprintf(
		"https://www.youtube.com/api/timedtext?v=%s&lang=%s&name=%s",
		url.QueryEscape(videoID), url.QueryEscape(track.LangCode), url.QueryEscape(track.Name)))
	if err != nil {
		return "", fmt.Errorf("transcript: fetch captions: %w", err)
	}
	if len(body) == 0 {
		return "", fmt.Errorf("transcript: video %s: %w", videoID, apperr.ErrNoTranscript)
	}

	var tt timedTextBody
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("transcript: parse captions: %w", err)
	}

	parts := make([]string, 0, len(tt.Texts))
	for _, t := range tt.Texts {
		s := strings.TrimSpace(html.UnescapeString(t.Value))
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("transcript: video %s: %w", videoID, apperr.ErrNoTranscript)
	}
	return strings.Join(parts, " "), nil
}

func (c *Client) listTracks(ctx context.Context, videoID string) ([]timedTextTrack, error) {
	body, err := c.get(ctx, "https://www.youtube.com/api/timedtext?type=list&v="+url.QueryEscape(videoID))
	if err != nil {
		return nil, fmt.Errorf("transcript: list caption tracks: %w", err)
	}
	if len(body) == 0 {
		return nil, nil
	}
	var list timedTextList
	if err := xml.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("transcript: parse track list: %w", err)
	}
	return list.Tracks, nil
}

// pickTrack prefers an exact language match, then a prefix match (en vs
// en-US), then English, then the first track.
func pickTrack(tracks []timedTextTrack, lang string) timedTextTrack {
	if lang == "" {
		lang = "en"
	}
	prefix := lang
	if i := strings.Index(prefix, "-"); i > 0 {
		prefix = prefix[:i]
	}
	for _, t := range tracks {
		if t.LangCode == lang {
			return t
		}
	}
	for _, t := range tracks {
		if strings.HasPrefix(t.LangCode, prefix) {
			return t
		}
	}
	for _, t := range tracks {
		if strings.HasPrefix(t.LangCode, "en") {
			return t
		}
	}
	return tracks[0]
}

// DownloadThumbnail fetches the video thumbnail, trying the maxres variant
// first and falling back to the standard high-quality one.
func (c *Client) DownloadThumbnail(ctx context.Context, videoID string) ([]byte, error) {
	for _, name := range []string{"maxresdefault", "hqdefault"} {
		u := fmt.Sprintf("https://img.youtube.com/vi/%s/%s.jpg", videoID, name)
		data, err := c.get(ctx, u)
		if err == nil && len(data) > 0 {
			return data, nil
		}
	}
	return nil, fmt.Errorf("transcript: thumbnail for %s: %w", videoID, apperr.ErrNotFound)
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", u, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// DetectLanguage classifies transcript text into a coarse language code
// by dominant script: "zh", "ja", "ko", "ru", or "en" for Latin/unknown.
// This only decides which prompt language the generator uses, so a rough
// heuristic is enough.
func DetectLanguage(text string) string {
	var han, kana, hangul, cyrillic, latin int
	for _, r := range text {
		switch {
		case unicode.In(r, unicode.Hiragana, unicode.Katakana):
			kana++
		case unicode.Is(unicode.Han, r):
			han++
		case unicode.Is(unicode.Hangul, r):
			hangul++
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		case unicode.Is(unicode.Latin, r):
			latin++
		}
	}

	total := han + kana + hangul + cyrillic + latin
	if total == 0 {
		return "en"
	}
	switch {
	case kana*5 > total:
		return "ja"
	case hangul*5 > total:
		return "ko"
	case han*5 > total:
		return "zh"
	case cyrillic*2 > total:
		return "ru"
	default:
		return "en"
	}
}
