// Package redisstore provides a Redis-backed icon store. Each icon is a JSON
// value under <prefix>icon:<slug>, written with SETNX so the first writer wins,
// and its slug is added to the <prefix>icons set for listing.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custom-icon-badges/custom-icon-badges/internal/config"
	"github.com/custom-icon-badges/custom-icon-badges/internal/db/models"
	"github.com/custom-icon-badges/custom-icon-badges/internal/iconstore"
)

// Client is the subset of redis.Cmdable the store uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// Store persists custom icons in Redis.
type Store struct {
	client Client
	prefix string
}

// New wraps an existing client.
func New(client Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Dial connects to the server described by cfg and verifies it with PING.
func Dial(ctx context.Context, cfg *config.RedisConfig) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return New(client, cfg.KeyPrefix), nil
}

// Close closes the underlying client when it owns a connection pool.
func (s *Store) Close() error {
	if c, ok := s.client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Store) iconKey(slug string) string { return s.prefix + "icon:" + slug }

func (s *Store) indexKey() string { return s.prefix + "icons" }

// Get returns the icon for slug, or nil when absent.
func (s *Store) Get(ctx context.Context, slug string) (*models.Icon, error) {
	raw, err := s.client.Get(ctx, s.iconKey(slug)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get icon: %w", err)
	}
	var icon models.Icon
	if err := json.Unmarshal(raw, &icon); err != nil {
		return nil, fmt.Errorf("failed to decode icon %q: %w", slug, err)
	}
	return &icon, nil
}

// List returns all indexed icons ordered by slug.
func (s *Store) List(ctx context.Context) ([]models.Icon, error) {
	slugs, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list icon slugs: %w", err)
	}
	icons := []models.Icon{}
	if len(slugs) == 0 {
		return icons, nil
	}
	sort.Strings(slugs)

	keys := make([]string, len(slugs))
	for i, slug := range slugs {
		keys[i] = s.iconKey(slug)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load icons: %w", err)
	}

	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// indexed but value missing
			continue
		}
		var icon models.Icon
		if err := json.Unmarshal([]byte(str), &icon); err != nil {
			return nil, fmt.Errorf("failed to decode icon %q: %w", slugs[i], err)
		}
		icons = append(icons, icon)
	}
	return icons, nil
}

// Insert writes icon with SETNX and indexes its slug.
func (s *Store) Insert(ctx context.Context, icon models.Icon) error {
	raw, err := json.Marshal(icon)
	if err != nil {
		return fmt.Errorf("failed to encode icon: %w", err)
	}
	created, err := s.client.SetNX(ctx, s.iconKey(icon.Slug), raw, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to insert icon: %w", err)
	}
	if !created {
		return iconstore.ErrSlugTaken
	}
	if err := s.client.SAdd(ctx, s.indexKey(), icon.Slug).Err(); err != nil {
		return fmt.Errorf("failed to index icon: %w", err)
	}
	return nil
}

// Ping sends PING to the server.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var _ iconstore.Store = (*Store)(nil)
