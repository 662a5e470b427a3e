// icon_repository.go implements IconRepository, the PostgreSQL icon store.
// Slug uniqueness is enforced by the icons_slug_key constraint.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/custom-icon-badges/custom-icon-badges/internal/db/models"
	"github.com/custom-icon-badges/custom-icon-badges/internal/iconstore"
)

// pqUniqueViolation is the SQLSTATE for unique_violation
const pqUniqueViolation = "23505"

// IconRepository handles database operations for custom icons
type IconRepository struct {
	db *sqlx.DB
}

// NewIconRepository creates a new icon repository
func NewIconRepository(db *sqlx.DB) *IconRepository {
	return &IconRepository{db: db}
}

// Get retrieves an icon by slug. Returns nil, nil when the slug is not stored.
func (r *IconRepository) Get(ctx context.Context, slug string) (*models.Icon, error) {
	query := `SELECT slug, type, data FROM icons WHERE slug = $1`

	icon := &models.Icon{}
	err := r.db.GetContext(ctx, icon, query, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get icon: %w", err)
	}
	return icon, nil
}

// List returns all icons in insertion order
func (r *IconRepository) List(ctx context.Context) ([]models.Icon, error) {
	query := `SELECT slug, type, data FROM icons ORDER BY id`

	icons := []models.Icon{}
	if err := r.db.SelectContext(ctx, &icons, query); err != nil {
		return nil, fmt.Errorf("failed to list icons: %w", err)
	}
	return icons, nil
}

// Insert stores a new icon, returning iconstore.ErrSlugTaken on a duplicate slug
func (r *IconRepository) Insert(ctx context.Context, icon models.Icon) error {
	query := `INSERT INTO icons (slug, type, data) VALUES ($1, $2, $3)`

	if _, err := r.db.ExecContext(ctx, query, icon.Slug, icon.Type, icon.Data); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return iconstore.ErrSlugTaken
		}
		return fmt.Errorf("failed to insert icon: %w", err)
	}
	return nil
}

// Ping checks the database connection
func (r *IconRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

var _ iconstore.Store = (*IconRepository)(nil)
