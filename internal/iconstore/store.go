// Package iconstore defines the Store interface implemented by every custom icon
// backend (memory, postgres, sqlite, redis, blob) and the in-memory implementation.
//
// Every backend enforces slug uniqueness at write time: Insert must fail with
// ErrSlugTaken when a record with the same slug already exists, regardless of any
// check the caller performed beforehand. That write-time guard is what keeps two
// concurrent submissions for one slug from both succeeding.
package iconstore

import (
	"context"
	"errors"
	"sync"

	"github.com/custom-icon-badges/custom-icon-badges/internal/db/models"
)

// ErrSlugTaken is returned by Insert when the slug already exists in the store.
var ErrSlugTaken = errors.New("icon slug already exists")

// Store is a key-value collection of custom icons keyed by slug.
type Store interface {
	// Get returns the icon for slug, or nil with a nil error when it does not exist.
	Get(ctx context.Context, slug string) (*models.Icon, error)

	// List returns every stored icon.
	List(ctx context.Context) ([]models.Icon, error)

	// Insert stores a new icon. It returns ErrSlugTaken if the slug is in use.
	Insert(ctx context.Context, icon models.Icon) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

// MemoryStore is a thread-safe in-memory Store. Icons are listed in insertion order.
type MemoryStore struct {
	mu    sync.RWMutex
	icons map[string]models.Icon
	order []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{icons: make(map[string]models.Icon)}
}

// Get returns the icon for slug or nil.
func (s *MemoryStore) Get(_ context.Context, slug string) (*models.Icon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	icon, ok := s.icons[slug]
	if !ok {
		return nil, nil
	}
	return &icon, nil
}

// List returns all icons in insertion order.
func (s *MemoryStore) List(_ context.Context) ([]models.Icon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Icon, 0, len(s.order))
	for _, slug := range s.order {
		out = append(out, s.icons[slug])
	}
	return out, nil
}

// Insert adds icon unless its slug is already present.
func (s *MemoryStore) Insert(_ context.Context, icon models.Icon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.icons[icon.Slug]; exists {
		return ErrSlugTaken
	}
	s.icons[icon.Slug] = icon
	s.order = append(s.order, icon.Slug)
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(_ context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
