// Package postservice coordinates storage and index operations for posts.
package postservice

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/yoloinfinity55/sparkpelican/internal/apperr"
	"github.com/yoloinfinity55/sparkpelican/internal/checksum"
	"github.com/yoloinfinity55/sparkpelican/internal/index"
	"github.com/yoloinfinity55/sparkpelican/internal/parser"
	"github.com/yoloinfinity55/sparkpelican/internal/storage"
)

// PostDetail is the full representation of a post.
type PostDetail struct {
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	VideoID     string         `json:"video_id,omitempty"`
	Content     string         `json:"content"`
	Checksum    string         `json:"checksum"`
	Tags        []string       `json:"tags"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	PublishedAt time.Time      `json:"published_at,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// PostListItem is a lightweight item in a list response.
type PostListItem struct {
	Path        string    `json:"path"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	VideoID     string    `json:"video_id,omitempty"`
	Checksum    string    `json:"checksum"`
	Tags        []string  `json:"tags"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Service coordinates storage and index operations.
type Service struct {
	store storage.Provider
	db    *index.DB
}

// NewService creates a new post service.
func NewService(store storage.Provider, db *index.DB) *Service {
	return &Service{store: store, db: db}
}

// GetPost reads a post from storage and parses it.
func (s *Service) GetPost(_ context.Context, path string) (*PostDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildPostDetail(path, data)
}

// DeletePost removes a post from storage and index.
func (s *Service) DeletePost(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	return s.db.DeletePost(path)
}

// ListPosts returns paginated posts with optional tag filter.
func (s *Service) ListPosts(_ context.Context, limit, offset int, tag, sort string) ([]PostListItem, int, error) {
	rows, total, err := s.db.ListPosts(limit, offset, tag, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]PostListItem, len(rows))
	for i, r := range rows {
		items[i] = PostListItem{
			Path:        r.Path,
			Title:       r.Title,
			Slug:        r.Slug,
			VideoID:     r.VideoID,
			Checksum:    r.Checksum,
			Tags:        nonNilSlice(r.Tags),
			PublishedAt: r.PublishedAt,
			UpdatedAt:   r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// IndexFile parses data and upserts it into the index.
// Exported so that sync and watcher can reuse it.
func (s *Service) IndexFile(path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	return s.db.UpsertPost(index.PostRow{
		Path:        path,
		Title:       res.Title,
		Slug:        res.Slug,
		VideoID:     res.VideoID,
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		PublishedAt: res.Date,
		UpdatedAt:   time.Now(),
	}, res.Body)
}

// buildPostDetail constructs a PostDetail from raw data without re-reading the file.
func (s *Service) buildPostDetail(path string, data []byte) (*PostDetail, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	return &PostDetail{
		Path:        path,
		Title:       res.Title,
		Slug:        res.Slug,
		VideoID:     res.VideoID,
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		Frontmatter: res.Frontmatter,
		PublishedAt: res.Date,
		UpdatedAt:   time.Now(),
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
