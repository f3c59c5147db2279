// Package parser extracts front matter and post metadata from markdown content.
package parser

import (
	"bytes"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
)

// Result holds the output of parsing a markdown post.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Title       string
	Slug        string
	VideoID     string
	Tags        []string
	Date        time.Time
}

// Parse extracts front matter and metadata from raw markdown bytes.
// Files without front matter, or with YAML the decoder rejects, fall back
// to treating the whole input as body.
func Parse(data []byte) (*Result, error) {
	var fm map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm)
	if err != nil {
		fm = nil
		body = data
	}
	if len(fm) == 0 {
		fm = nil
	}

	return &Result{
		Frontmatter: fm,
		Body:        string(body),
		Title:       deriveTitle(fm, string(body)),
		Slug:        stringField(fm, "slug"),
		VideoID:     stringField(fm, "youtube_id"),
		Tags:        extractTags(fm),
		Date:        parseDate(stringField(fm, "date")),
	}, nil
}

func stringField(fm map[string]any, key string) string {
	if fm == nil {
		return ""
	}
	if v, ok := fm[key]; ok {
		switch s := v.(type) {
		case string:
			return strings.TrimSpace(s)
		case time.Time:
			return s.Format(time.RFC3339)
		}
	}
	return ""
}

// extractTags reads the front-matter "tags" field. Pelican posts carry tags
// either as a comma-joined string or as a YAML list; both are accepted.
func extractTags(fm map[string]any) []string {
	if fm == nil {
		return nil
	}
	raw, ok := fm["tags"]
	if !ok {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	switch v := raw.(type) {
	case string:
		for _, part := range strings.Split(v, ",") {
			add(part)
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}
	return out
}

// deriveTitle returns the front-matter "title" if present, otherwise the
// first H1 heading, otherwise empty string.
func deriveTitle(fm map[string]any, body string) string {
	if fm != nil {
		if t, ok := fm["title"]; ok {
			if s, ok := t.(string); ok && s != "" {
				return s
			}
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// parseDate accepts the date formats seen in generated and hand-written posts.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
