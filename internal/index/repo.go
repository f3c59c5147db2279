package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PostRow represents a row in the posts table.
type PostRow struct {
	Path        string
	Title       string
	Slug        string
	VideoID     string
	Checksum    string
	Tags        []string
	PublishedAt time.Time
	UpdatedAt   time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// UpsertPost inserts or replaces a post and its FTS entry within a transaction.
func (db *DB) UpsertPost(p PostRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tagsJSON, _ := json.Marshal(p.Tags)

	_, err = tx.Exec(`
		INSERT INTO posts (path, title, slug, video_id, checksum, tags, body, published_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title        = excluded.title,
			slug         = excluded.slug,
			video_id     = excluded.video_id,
			checksum     = excluded.checksum,
			tags         = excluded.tags,
			body         = excluded.body,
			published_at = excluded.published_at,
			updated_at   = excluded.updated_at
	`, p.Path, p.Title, p.Slug, p.VideoID, p.Checksum, string(tagsJSON), body, nullableTime(p.PublishedAt), p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert post: %w", err)
	}

	// FTS upsert (no-op when the FTS5 tag is absent).
	if err := ftsUpsert(tx, p.Path, p.Title, body, p.Tags); err != nil {
		return err
	}

	return tx.Commit()
}

// DeletePost removes a post and its FTS entry.
func (db *DB) DeletePost(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM posts WHERE path = ?`, path)

	return tx.Commit()
}

// GetPost returns the indexed row for a post path.
func (db *DB) GetPost(path string) (*PostRow, error) {
	row := db.conn.QueryRow(`
		SELECT path, title, slug, video_id, checksum, tags, published_at, updated_at
		FROM posts WHERE path = ?
	`, path)
	p, err := scanPostRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("index: get post: %w", err)
	}
	return p, nil
}

// GetChecksum returns the stored checksum for a post, or empty string if not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM posts WHERE path = ?`, path).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// SlugExists reports whether any indexed post already uses the slug.
func (db *DB) SlugExists(slug string) (bool, error) {
	if slug == "" {
		return false, nil
	}
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM posts WHERE slug = ?`, slug).Scan(&n); err != nil {
		return false, fmt.Errorf("index: slug exists: %w", err)
	}
	return n > 0, nil
}

// PathForVideo returns the indexed path of the post generated from a video,
// or empty string when the video has not been processed yet.
func (db *DB) PathForVideo(videoID string) (string, error) {
	var p string
	err := db.conn.QueryRow(`SELECT path FROM posts WHERE video_id = ? LIMIT 1`, videoID).Scan(&p)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("index: path for video: %w", err)
	}
	return p, nil
}

// ListPosts returns paginated posts with an optional tag filter.
// sort is one of "updated_at" (default, newest first), "title", "path".
func (db *DB) ListPosts(limit, offset int, tag, sort string) ([]PostRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	where := ""
	args := []any{}
	if tag != "" {
		// Tags are stored as a JSON array of strings.
		where = `WHERE tags LIKE ?`
		args = append(args, `%"`+tag+`"%`)
	}

	order := `ORDER BY updated_at DESC`
	switch sort {
	case "title":
		order = `ORDER BY title COLLATE NOCASE ASC`
	case "path":
		order = `ORDER BY path ASC`
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM posts `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count posts: %w", err)
	}

	query := `
		SELECT path, title, slug, video_id, checksum, tags, published_at, updated_at
		FROM posts ` + where + ` ` + order + ` LIMIT ? OFFSET ?`
	rows, err := db.conn.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list posts: %w", err)
	}
	defer rows.Close()

	var out []PostRow
	for rows.Next() {
		p, err := scanPostRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

// AllPaths returns every indexed post path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns path → checksum for every indexed post.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostRow(r rowScanner) (*PostRow, error) {
	var p PostRow
	var tagsJSON string
	var published sql.NullTime
	if err := r.Scan(&p.Path, &p.Title, &p.Slug, &p.VideoID, &p.Checksum, &tagsJSON, &published, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if published.Valid {
		p.PublishedAt = published.Time
	}
	_ = json.Unmarshal([]byte(tagsJSON), &p.Tags)
	return &p, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
