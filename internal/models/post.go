// Package models defines the domain types for SparkPelican.
package models

import "time"

// Post represents a parsed markdown blog post in the content directory.
type Post struct {
	Path        string         `json:"path"`
	Title       string         `json:"title,omitempty"`
	Slug        string         `json:"slug,omitempty"`
	VideoID     string         `json:"youtube_id,omitempty"`
	Body        string         `json:"body"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Checksum    string         `json:"checksum"`
	Date        time.Time      `json:"date,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// PostMetadata is a lightweight representation returned by list operations.
type PostMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
