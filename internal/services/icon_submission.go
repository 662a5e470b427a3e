package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/custom-icon-badges/custom-icon-badges/internal/badge"
	"github.com/custom-icon-badges/custom-icon-badges/internal/db/models"
	"github.com/custom-icon-badges/custom-icon-badges/internal/iconstore"
	"github.com/custom-icon-badges/custom-icon-badges/internal/telemetry"
	"github.com/custom-icon-badges/custom-icon-badges/internal/upstream"
)

// Conflict sources.
const (
	SourceRegistered = "registered"
	SourceBuiltin    = "builtin"
	SourceStore      = "store"
)

// testBadgePath is rendered with the submitted icon to confirm the renderer accepts it.
var testBadgePath = []string{"badge", "-test-blue"}

// IconSubmissionService validates and stores new custom icons.
type IconSubmissionService struct {
	resolver IconResolver
	store    iconstore.Store
	fetcher  Fetcher
	checker  upstream.BuiltinIconChecker
	baseURL  string
	logger   *slog.Logger
}

// NewIconSubmissionService wires the submission workflow. A nil logger discards output.
func NewIconSubmissionService(
	resolver IconResolver,
	store iconstore.Store,
	fetcher Fetcher,
	checker upstream.BuiltinIconChecker,
	baseURL string,
	logger *slog.Logger,
) *IconSubmissionService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &IconSubmissionService{
		resolver: resolver,
		store:    store,
		fetcher:  fetcher,
		checker:  checker,
		baseURL:  baseURL,
		logger:   logger,
	}
}

// Submit runs the submission workflow for icon:
//
//  1. every field must be non-empty
//  2. a test badge rendered with the icon must come back below 400
//  3. the slug must not resolve to a curated or custom icon, nor to a renderer built-in
//  4. the store insert must succeed; a duplicate there is also a conflict
//
// q carries the inbound query string, forwarded with the test render.
func (s *IconSubmissionService) Submit(ctx context.Context, icon models.Icon, q badge.Query) (*models.Icon, error) {
	outcome := "error"
	defer func() { telemetry.IconSubmissionsTotal.WithLabelValues(outcome).Inc() }()

	if missing := icon.MissingFields(); len(missing) > 0 {
		outcome = "invalid"
		return nil, &ValidationError{Fields: missing}
	}

	log := s.logger.With("slug", icon.Slug, "type", icon.Type)
	log.InfoContext(ctx, "received icon", "size", humanize.Bytes(uint64(len(icon.Data))))

	resp, err := s.fetcher.Fetch(ctx, badge.BuildUpstreamURL(s.baseURL, testBadgePath, q, &icon))
	if err != nil {
		return nil, &TransportError{Op: OpTestRender, Err: err}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		upErr := &UpstreamError{StatusCode: resp.StatusCode, StatusText: resp.StatusText}
		outcome = "rejected"
		if upErr.TooLarge() {
			outcome = "too_large"
		}
		log.InfoContext(ctx, "renderer rejected icon", "status", resp.StatusCode)
		return nil, upErr
	}

	source, err := s.collision(ctx, icon.Slug)
	if err != nil {
		return nil, err
	}
	if source != "" {
		outcome = "conflict"
		log.InfoContext(ctx, "slug already in use", "source", source)
		return nil, &ConflictError{Slug: icon.Slug, Source: source}
	}

	log.InfoContext(ctx, "creating icon")
	if err := s.store.Insert(ctx, icon); err != nil {
		if errors.Is(err, iconstore.ErrSlugTaken) {
			outcome = "conflict"
			log.InfoContext(ctx, "slug taken at write time")
			return nil, &ConflictError{Slug: icon.Slug, Source: SourceStore}
		}
		return nil, &TransportError{Op: OpIconInsert, Err: err}
	}

	outcome = "created"
	return &icon, nil
}

// collision runs the registered lookup and the builtin probe concurrently and
// returns the source holding slug, or "" when it is free.
func (s *IconSubmissionService) collision(ctx context.Context, slug string) (string, error) {
	var registered, builtin bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		existing, err := s.resolver.Resolve(gctx, slug)
		if err != nil {
			return &TransportError{Op: OpIconLookup, Err: err}
		}
		registered = existing != nil
		return nil
	})
	g.Go(func() error {
		ok, err := s.checker.IsBuiltinIcon(gctx, slug)
		if err != nil {
			return &TransportError{Op: OpBuiltinProbe, Err: err}
		}
		builtin = ok
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	switch {
	case registered:
		return SourceRegistered, nil
	case builtin:
		return SourceBuiltin, nil
	default:
		return "", nil
	}
}
