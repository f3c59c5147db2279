package api

import (
	"github.com/yoloinfinity55/sparkpelican/internal/postservice"
)

// GenerateRequest is the request body for generating a post from a video.
type GenerateRequest struct {
	URL      string   `json:"url"`
	Title    string   `json:"title,omitempty"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Language string   `json:"language,omitempty"`
	Force    bool     `json:"force,omitempty"`
}

// GenerateAccepted is returned when a generation run has been started.
type GenerateAccepted struct {
	VideoID string `json:"video_id"`
	Status  string `json:"status"`
}

// ValidateRequest is the request body for validating a markdown document.
type ValidateRequest struct {
	Content string `json:"content"`
}

// PostDetail is the full post response type (aliased from the domain layer).
type PostDetail = postservice.PostDetail

// PostListItem is a lightweight item in a list response (aliased from the domain layer).
type PostListItem = postservice.PostListItem

// PostListResponse wraps paginated post listings.
type PostListResponse struct {
	Posts []PostListItem `json:"posts"`
	Total int            `json:"total"`
}

// TitleIssue is one quoted-title or front-matter problem in the content tree.
type TitleIssue struct {
	Path        string `json:"path"`
	Line        int    `json:"line"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

// TitleIssuesResponse wraps the quoted-title report.
type TitleIssuesResponse struct {
	Issues []TitleIssue `json:"issues"`
	Clean  bool         `json:"clean"`
}

// TitleFixResponse reports the outcome of a fix run.
type TitleFixResponse struct {
	Fixed  []FixedTitle `json:"fixed"`
	Errors []TitleIssue `json:"errors"`
}

// FixedTitle is one rewritten title line.
type FixedTitle struct {
	Path   string `json:"path"`
	Line   int    `json:"line"`
	Before string `json:"before"`
	After  string `json:"after"`
}
