package index

import (
	"log/slog"
	"time"

	"github.com/yoloinfinity55/sparkpelican/internal/checksum"
	"github.com/yoloinfinity55/sparkpelican/internal/parser"
	"github.com/yoloinfinity55/sparkpelican/internal/storage"
)

// Sync walks the content directory and brings the index up to date:
//   - new/changed posts are parsed and upserted
//   - posts removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexPost(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeletePost(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexPost parses data and upserts it into the DB.
func indexPost(db *DB, path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}

	row := PostRow{
		Path:        path,
		Title:       res.Title,
		Slug:        res.Slug,
		VideoID:     res.VideoID,
		Checksum:    checksum.Sum(data),
		Tags:        res.Tags,
		PublishedAt: res.Date,
		UpdatedAt:   time.Now(),
	}
	return db.UpsertPost(row, res.Body)
}
