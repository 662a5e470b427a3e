// factory.go maps backend type strings (local, s3, azure, gcs) to constructor
// functions and dispatches NewStorage calls.
package storage

import (
	"fmt"
	"sync"

	"github.com/custom-icon-badges/custom-icon-badges/internal/config"
)

// FactoryFunc builds a backend from the application configuration
type FactoryFunc func(*config.Config) (Storage, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]FactoryFunc)
)

// Register registers a storage backend factory
func Register(name string, factory FactoryFunc) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = factory
}

// NewStorage creates a new storage backend based on configuration
func NewStorage(cfg *config.Config) (Storage, error) {
	factoriesMu.RLock()
	factory, ok := factories[cfg.Storage.DefaultBackend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage backend: %s (must be 'local', 'azure', 's3', or 'gcs')", cfg.Storage.DefaultBackend)
	}

	return factory(cfg)
}
