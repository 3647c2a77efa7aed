// Package storage defines the output site file-system abstraction.
package storage

import "github.com/starford/inkwell/internal/models"

// Provider is the interface for output file operations. Paths are relative
// to the provider root.
type Provider interface {
	// List returns metadata for every file under dir whose extension is in exts
	// (all files when exts is empty).
	List(dir string, exts ...string) ([]models.PageMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Root returns the absolute directory the provider is rooted at.
	Root() string
}
