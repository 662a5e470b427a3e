// Package services coordinates icon lookup, badge translation and the upstream
// renderer. Handlers call into it and map its typed errors onto HTTP responses.
package services

import (
	"context"

	"github.com/custom-icon-badges/custom-icon-badges/internal/badge"
	"github.com/custom-icon-badges/custom-icon-badges/internal/db/models"
	"github.com/custom-icon-badges/custom-icon-badges/internal/upstream"
)

// IconResolver finds an icon by slug, returning nil when none matches.
type IconResolver interface {
	Resolve(ctx context.Context, slug string) (*models.Icon, error)
}

// Fetcher performs a GET against the upstream renderer.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*upstream.Response, error)
}

// BadgeRenderer serves badge requests by resolving the logo slug and relaying
// the upstream rendering.
type BadgeRenderer struct {
	resolver IconResolver
	fetcher  Fetcher
	baseURL  string
}

// NewBadgeRenderer creates a renderer that builds URLs against baseURL.
func NewBadgeRenderer(resolver IconResolver, fetcher Fetcher, baseURL string) *BadgeRenderer {
	return &BadgeRenderer{resolver: resolver, fetcher: fetcher, baseURL: baseURL}
}

// Render resolves the logo query value and fetches the translated badge.
// A logo given more than once is treated as absent. Store and transport
// failures come back as *TransportError; upstream statuses never do.
func (r *BadgeRenderer) Render(ctx context.Context, segments []string, q badge.Query) (*upstream.Response, error) {
	slug, _ := q.Single(badge.KeyLogo)

	icon, err := r.resolver.Resolve(ctx, slug)
	if err != nil {
		return nil, &TransportError{Op: OpIconLookup, Err: err}
	}

	resp, err := r.fetcher.Fetch(ctx, badge.BuildUpstreamURL(r.baseURL, segments, q, icon))
	if err != nil {
		return nil, &TransportError{Op: OpBadgeFetch, Err: err}
	}
	return resp, nil
}
