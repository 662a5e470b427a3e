// Package sqlite provides a SQLite-backed icon store for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/custom-icon-badges/custom-icon-badges/internal/db/models"
	"github.com/custom-icon-badges/custom-icon-badges/internal/iconstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS icons (
    id   INTEGER PRIMARY KEY AUTOINCREMENT,
    slug TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL,
    data TEXT NOT NULL
)`

// Store persists custom icons in SQLite.
type Store struct {
	db *sqlx.DB
}

// Open opens the database at path and creates the icons table if needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create icons table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the icon for slug, or nil when absent.
func (s *Store) Get(ctx context.Context, slug string) (*models.Icon, error) {
	icon := &models.Icon{}
	err := s.db.GetContext(ctx, icon, `SELECT slug, type, data FROM icons WHERE slug = ?`, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get icon: %w", err)
	}
	return icon, nil
}

// List returns all icons in insertion order.
func (s *Store) List(ctx context.Context) ([]models.Icon, error) {
	icons := []models.Icon{}
	if err := s.db.SelectContext(ctx, &icons, `SELECT slug, type, data FROM icons ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list icons: %w", err)
	}
	return icons, nil
}

// Insert stores icon, returning iconstore.ErrSlugTaken on a duplicate slug.
func (s *Store) Insert(ctx context.Context, icon models.Icon) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO icons (slug, type, data) VALUES (?, ?, ?)`,
		icon.Slug, icon.Type, icon.Data,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return iconstore.ErrSlugTaken
		}
		return fmt.Errorf("insert icon: %w", err)
	}
	return nil
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ iconstore.Store = (*Store)(nil)
