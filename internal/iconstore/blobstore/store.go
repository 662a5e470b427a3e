// Package blobstore keeps custom icons in any storage.Storage backend, one JSON
// object per slug under icons/. Uniqueness rides on the backend's PutIfAbsent.
package blobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"github.com/custom-icon-badges/custom-icon-badges/internal/db/models"
	"github.com/custom-icon-badges/custom-icon-badges/internal/iconstore"
	"github.com/custom-icon-badges/custom-icon-badges/internal/storage"
)

const (
	iconPrefix  = "icons/"
	contentType = "application/json"
)

// Store adapts a blob backend to iconstore.Store.
type Store struct {
	blobs storage.Storage
}

// New creates a store over blobs.
func New(blobs storage.Storage) *Store {
	return &Store{blobs: blobs}
}

func objectPath(slug string) string {
	return iconPrefix + url.PathEscape(slug) + ".json"
}

// Get returns the icon for slug, or nil when absent.
func (s *Store) Get(ctx context.Context, slug string) (*models.Icon, error) {
	data, err := s.blobs.Get(ctx, objectPath(slug))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read icon %q: %w", slug, err)
	}
	var icon models.Icon
	if err := json.Unmarshal(data, &icon); err != nil {
		return nil, fmt.Errorf("failed to decode icon %q: %w", slug, err)
	}
	return &icon, nil
}

// List returns every stored icon ordered by slug.
func (s *Store) List(ctx context.Context) ([]models.Icon, error) {
	paths, err := s.blobs.List(ctx, iconPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list icons: %w", err)
	}

	icons := make([]models.Icon, 0, len(paths))
	for _, p := range paths {
		data, err := s.blobs.Get(ctx, p)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		var icon models.Icon
		if err := json.Unmarshal(data, &icon); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", p, err)
		}
		icons = append(icons, icon)
	}
	sort.Slice(icons, func(i, j int) bool { return icons[i].Slug < icons[j].Slug })
	return icons, nil
}

// Insert writes icon, returning iconstore.ErrSlugTaken if the object exists.
func (s *Store) Insert(ctx context.Context, icon models.Icon) error {
	data, err := json.Marshal(icon)
	if err != nil {
		return fmt.Errorf("failed to encode icon: %w", err)
	}
	if err := s.blobs.PutIfAbsent(ctx, objectPath(icon.Slug), data, contentType); err != nil {
		if errors.Is(err, storage.ErrExists) {
			return iconstore.ErrSlugTaken
		}
		return fmt.Errorf("failed to write icon: %w", err)
	}
	return nil
}

// Ping issues a cheap existence check against the backend.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.blobs.Exists(ctx, iconPrefix+".ping"); err != nil {
		return fmt.Errorf("storage unreachable: %w", err)
	}
	return nil
}

var _ iconstore.Store = (*Store)(nil)
