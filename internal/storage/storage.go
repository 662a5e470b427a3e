// Package storage defines the Storage interface for the blob backends that can
// hold custom icons (local filesystem, S3, GCS, Azure Blob Storage).
//
// Backends register with the factory from an init() function in their own package:
//
//	func init() {
//	    storage.Register("mybackend", func(cfg *config.Config) (storage.Storage, error) {
//	        return NewMyBackend(cfg)
//	    })
//	}
//
// The main package imports each backend with a blank import to trigger init().
package storage

import (
	"context"
	"errors"
)

// ErrExists is returned by PutIfAbsent when an object already exists at the path.
var ErrExists = errors.New("object already exists")

// ErrNotFound is returned by Get when no object exists at the path.
var ErrNotFound = errors.New("object not found")

// Storage is a flat object store addressed by slash-separated paths.
type Storage interface {
	// PutIfAbsent writes data at path only if nothing is stored there yet. The
	// check and the write are a single atomic operation on the backend; a lost
	// race returns ErrExists.
	PutIfAbsent(ctx context.Context, path string, data []byte, contentType string) error

	// Get returns the object at path, or ErrNotFound.
	Get(ctx context.Context, path string) ([]byte, error)

	// List returns the paths of every object whose path starts with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks if an object exists at path
	Exists(ctx context.Context, path string) (bool, error)
}
