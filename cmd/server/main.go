// @title           Custom Icon Badges API
// @version         1.0.0
// @description     Badge relay in front of shields.io that resolves custom and curated logos into data URLs.
// @license.name    MIT
// @basePath        /
// @schemes         http https
//
// @tag.name         Badges
// @tag.description  Badge rendering. Any GET path not listed here is relayed to the renderer as well.
// @tag.name         Icons
// @tag.description  Custom icon listing and submission.
// @tag.name         System
// @tag.description  Health, readiness and version endpoints.

// Package main is the entry point for the badge relay binary. It dispatches
// three subcommands (serve, migrate and version) from os.Args.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108 -- served only on the dedicated profiling port, never on the Gin router
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custom-icon-badges/custom-icon-badges/internal/api"
	"github.com/custom-icon-badges/custom-icon-badges/internal/config"
	"github.com/custom-icon-badges/custom-icon-badges/internal/db"
	"github.com/custom-icon-badges/custom-icon-badges/internal/safego"
	"github.com/custom-icon-badges/custom-icon-badges/internal/telemetry"
)

// Set at build time with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = ""
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	command := "serve"
	if len(args) > 0 {
		command = args[0]
	}

	if command == "version" {
		fmt.Printf("custom-icon-badges %s %s\n", version, commit)
		return nil
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	switch command {
	case "serve":
		return serve(cfg)
	case "migrate":
		if len(args) < 2 {
			return fmt.Errorf("usage: %s migrate <up|down>", os.Args[0])
		}
		return runMigrations(cfg, args[1])
	default:
		return fmt.Errorf("unknown command: %s\nAvailable commands: serve, migrate, version", command)
	}
}

func serve(cfg *config.Config) error {
	logger := telemetry.SetupLogger(cfg.Logging.Format, cfg.Logging.Level)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TracingConfig{
		Enabled:     cfg.Telemetry.Tracing.Enabled,
		Endpoint:    cfg.Telemetry.Tracing.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	store, closeStore, err := openIconStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close icon store", "error", err)
		}
	}()

	if cfg.Telemetry.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		startSideServer(logger, "metrics", fmt.Sprintf(":%d", cfg.Telemetry.Metrics.PrometheusPort), mux, 10*time.Second)
	}
	if cfg.Telemetry.Profiling.Enabled {
		// net/http/pprof registers on http.DefaultServeMux at init time.
		startSideServer(logger, "pprof", fmt.Sprintf(":%d", cfg.Telemetry.Profiling.Port), http.DefaultServeMux, 30*time.Second) // #nosec G108
	}

	router, err := api.NewRouter(cfg, api.Options{
		Store:   store,
		Logger:  logger,
		Version: version,
		Commit:  commit,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Server.GetAddress(),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"addr", cfg.Server.GetAddress(),
			"upstream", cfg.Upstream.BaseURL,
			"icon_store", cfg.IconStore.Backend,
			"tls", cfg.Security.TLS.Enabled,
		)
		var err error
		if cfg.Security.TLS.Enabled {
			err = server.ListenAndServeTLS(cfg.Security.TLS.CertFile, cfg.Security.TLS.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}

// startSideServer runs handler on its own listener, off the public router.
func startSideServer(logger *slog.Logger, name, addr string, handler http.Handler, timeout time.Duration) {
	safego.Go(logger, name+" server", func() {
		logger.Info("starting "+name+" server", "addr", addr)
		srv := &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(name+" server error", "error", err)
		}
	})
}

func runMigrations(cfg *config.Config, direction string) error {
	logger := telemetry.SetupLogger(cfg.Logging.Format, cfg.Logging.Level)

	if cfg.IconStore.Backend != config.IconStorePostgres {
		return fmt.Errorf("migrations apply to the postgres icon store only (icon_store.backend is %q)", cfg.IconStore.Backend)
	}

	database, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	logger.Info("running migrations", "direction", direction)
	if err := db.RunMigrations(database, direction); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := db.GetMigrationVersion(database)
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	logger.Info("migration completed", "version", version, "dirty", dirty)
	return nil
}
