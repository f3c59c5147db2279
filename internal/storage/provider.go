// Package storage defines the content-directory file-system abstraction.
package storage

import "github.com/yoloinfinity55/sparkpelican/internal/models"

// Provider is the interface for content file operations.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to the
	// content root), in lexical path order.
	List(dir string) ([]models.PostMetadata, error)
	// Read returns the raw bytes of the file at path (relative to the content root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the content root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to the content root).
	Delete(path string) error
	// Exists reports whether a file is present at path.
	Exists(path string) bool
	// Root returns the absolute content root directory.
	Root() string
}
