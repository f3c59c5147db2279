package parser

import (
	"testing"
	"time"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Container Internals\ndate: 2026-03-14T10:30:00\nauthor: SparkPelican\ntags: docker, containers\nslug: container-internals\nyoutube_id: dQw4w9WgXcQ\n---\n\n# Container Internals\nBody text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Container Internals" {
		t.Errorf("title = %q", r.Title)
	}
	if r.Slug != "container-internals" {
		t.Errorf("slug = %q", r.Slug)
	}
	if r.VideoID != "dQw4w9WgXcQ" {
		t.Errorf("videoID = %q", r.VideoID)
	}
	if len(r.Tags) != 2 || r.Tags[0] != "docker" || r.Tags[1] != "containers" {
		t.Errorf("tags = %v, want [docker containers]", r.Tags)
	}
	want := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	if !r.Date.Equal(want) {
		t.Errorf("date = %v, want %v", r.Date, want)
	}
}

func TestParse_TagsAsList(t *testing.T) {
	input := []byte("---\ntitle: Hello\ntags:\n  - go\n  - pelican\n  - go\n---\nBody.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Duplicates are dropped.
	if len(r.Tags) != 2 || r.Tags[0] != "go" || r.Tags[1] != "pelican" {
		t.Errorf("tags = %v, want [go pelican]", r.Tags)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Invalid YAML falls back to treating everything as body.
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
}

func TestDeriveTitle_FrontmatterOverH1(t *testing.T) {
	input := []byte("---\ntitle: From Front Matter\n---\n# From Heading\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "From Front Matter" {
		t.Errorf("title = %q", r.Title)
	}
}

func TestParseDate_Layouts(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2026-03-14T10:30:00", time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)},
		{"2026-03-14 10:30:00", time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)},
		{"2026-03-14 10:30", time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)},
		{"2026-03-14", time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)},
		{"not a date", time.Time{}},
		{"", time.Time{}},
	}
	for _, tc := range cases {
		got := parseDate(tc.in)
		if !got.Equal(tc.want) {
			t.Errorf("parseDate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
