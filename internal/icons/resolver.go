package icons

import (
	"context"
	"fmt"

	"github.com/custom-icon-badges/custom-icon-badges/internal/db/models"
	"github.com/custom-icon-badges/custom-icon-badges/internal/iconstore"
	"github.com/custom-icon-badges/custom-icon-badges/internal/telemetry"
)

// Lookup sources, also used as metric label values.
const (
	SourceCurated = "curated"
	SourceCustom  = "custom"
	SourceNone    = "none"
)

// Resolver looks a slug up in the curated table first and the custom store second.
type Resolver struct {
	curated *Curated
	store   iconstore.Store
}

// NewResolver creates a resolver. A nil curated table means no curated icons.
func NewResolver(curated *Curated, store iconstore.Store) *Resolver {
	return &Resolver{curated: curated, store: store}
}

// Resolve returns the icon for slug, or nil when neither source knows it.
// An empty slug never reaches the store. Store failures are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, slug string) (*models.Icon, error) {
	icon, _, err := r.ResolveSource(ctx, slug)
	return icon, err
}

// ResolveSource is Resolve plus the name of the source that answered.
func (r *Resolver) ResolveSource(ctx context.Context, slug string) (*models.Icon, string, error) {
	if slug == "" {
		return nil, SourceNone, nil
	}

	if icon, ok := r.curated.Get(slug); ok {
		telemetry.IconLookupsTotal.WithLabelValues(SourceCurated).Inc()
		return icon, SourceCurated, nil
	}

	icon, err := r.store.Get(ctx, slug)
	if err != nil {
		return nil, SourceNone, fmt.Errorf("failed to look up icon %q: %w", slug, err)
	}
	if icon == nil {
		telemetry.IconLookupsTotal.WithLabelValues(SourceNone).Inc()
		return nil, SourceNone, nil
	}

	telemetry.IconLookupsTotal.WithLabelValues(SourceCustom).Inc()
	return icon, SourceCustom, nil
}
