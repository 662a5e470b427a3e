// Package api wires together the HTTP routes of the badge relay.
//
// Badge routes carry the badge security-header profile so the images can be
// embedded from other origins. The JSON routes (/icons, probes) carry the
// stricter API profile. Every GET that matches no route is treated as a badge
// request, since the renderer serves many endpoint families beyond /badge.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custom-icon-badges/custom-icon-badges/internal/api/badges"
	iconsapi "github.com/custom-icon-badges/custom-icon-badges/internal/api/icons"
	"github.com/custom-icon-badges/custom-icon-badges/internal/config"
	"github.com/custom-icon-badges/custom-icon-badges/internal/iconstore"
	"github.com/custom-icon-badges/custom-icon-badges/internal/icons"
	"github.com/custom-icon-badges/custom-icon-badges/internal/middleware"
	"github.com/custom-icon-badges/custom-icon-badges/internal/services"
	"github.com/custom-icon-badges/custom-icon-badges/internal/upstream"
)

// Options holds what NewRouter needs beyond configuration.
type Options struct {
	Store   iconstore.Store
	Logger  *slog.Logger
	Version string
	Commit  string
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, opts Options) (*gin.Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("icon store is required")
	}

	curated, err := icons.LoadCurated()
	if err != nil {
		return nil, fmt.Errorf("failed to load curated icons: %w", err)
	}
	logger.Info("loaded curated icons", "count", len(curated.Slugs()))

	resolver := icons.NewResolver(curated, opts.Store)
	client := upstream.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, cfg.Upstream.UserAgent)

	renderer := services.NewBadgeRenderer(resolver, client, cfg.Upstream.BaseURL)
	submissions := services.NewIconSubmissionService(
		resolver,
		opts.Store,
		client,
		upstream.NewMarkupProbe(client),
		cfg.Upstream.BaseURL,
		logger.With("component", "icon_submission"),
	)

	badgeHandler := badges.NewHandler(renderer)
	iconHandlers := iconsapi.NewHandlers(opts.Store, submissions, cfg.Server.MaxBodyBytes)

	apiHeaders := middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig())
	badgeHeaders := middleware.SecurityHeadersMiddleware(middleware.BadgeSecurityHeadersConfig())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORS))

	router.GET("/health", apiHeaders, healthCheckHandler())
	router.GET("/ready", apiHeaders, readinessHandler(opts.Store))
	router.GET("/version", apiHeaders, versionHandler(opts.Version, opts.Commit))

	router.GET("/icons", apiHeaders, iconHandlers.ListIcons)
	router.POST("/icons", apiHeaders, iconHandlers.SubmitIcon)

	router.GET("/badge/*path", badgeHeaders, badgeHandler.Serve)

	router.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || len(badges.PathSegments(c.Request.URL.EscapedPath())) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"type": "error", "message": "Not found."})
			return
		}
		badgeHeaders(c)
		badgeHandler.Serve(c)
	})

	return router, nil
}

// @Summary      Health check
// @Description  Liveness probe. Does not touch the icon store.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy, time: RFC3339 timestamp"
// @Router       /health [get]
// healthCheckHandler returns the health status of the service
func healthCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      Readiness check
// @Description  Returns whether the service can serve traffic. Pings the icon store.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "ready: true, checks, time"
// @Failure      503  {object}  map[string]interface{}  "ready: false, error: icon store not ready"
// @Router       /ready [get]
// readinessHandler returns the readiness status of the service
func readinessHandler(store iconstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		if err := store.Ping(c.Request.Context()); err != nil {
			_ = c.Error(err)
			checks["icon_store"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "icon store not ready",
			})
			return
		}
		checks["icon_store"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      API version
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "version, commit"
// @Router       /version [get]
// versionHandler returns the build version
func versionHandler(version, commit string) gin.HandlerFunc {
	if version == "" {
		version = "dev"
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version": version,
			"commit":  commit,
		})
	}
}
