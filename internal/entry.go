package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/marcus-grant/depo/internal/api"
	"github.com/marcus-grant/depo/internal/ingest"
	"github.com/marcus-grant/depo/internal/mcpserver"
	"github.com/marcus-grant/depo/internal/repo"
	"github.com/marcus-grant/depo/internal/selector"
	"github.com/marcus-grant/depo/internal/storage"
)

// buildPipeline wires the persistence backends and the ingest/read
// services from config. The caller closes the returned DB.
func buildPipeline(cfg *Config, logger *slog.Logger) (*repo.DB, *storage.FS, *ingest.Orchestrator, *selector.Selector, error) {
	store, err := storage.NewFS(cfg.Storage.Path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init storage: %w", err)
	}
	db, err := repo.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init repo: %w", err)
	}

	svc := ingest.NewService(ingest.Config{
		MinCodeLength: cfg.Ingest.MinCodeLength,
		MaxSizeBytes:  cfg.Ingest.MaxSizeBytes,
		MaxURLLength:  cfg.Ingest.MaxURLLength,
	})
	orch := ingest.NewOrchestrator(svc, db, store, logger)
	sel := selector.New(db, store)
	return db, store, orch, sel, nil
}

func newLogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// Run starts the HTTP server with the given options and blocks until
// shutdown.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config
	logger := newLogger(cfg)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, store, orch, sel, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	// Flag metadata/payload divergence left by a crash before serving.
	if n, err := storage.Reconcile(ctx, db, store, logger); err != nil {
		logger.Warn("initial reconcile failed", slog.String("error", err.Error()))
	} else if n > 0 {
		logger.Warn("initial reconcile found divergence", slog.Int("findings", n))
	}

	apiRouter := api.NewRouter(orch, sel, api.RouterConfig{
		AuthEnabled:  cfg.Auth.AuthEnabled(),
		Token:        cfg.Auth.Token,
		MaxBodyBytes: cfg.Ingest.MaxSizeBytes,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the payload directory for out-of-band removals.
	g.Go(func() error {
		if err := storage.Watch(gCtx, db, store.Root(), logger, nil); err != nil {
			logger.Warn("watcher exited", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the stdio MCP server instead of the HTTP server. It
// shares the full pipeline, so tools go through the same orchestration
// and rollback logic as web uploads.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config
	// MCP talks JSON-RPC on stdout; logs must go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	db, _, orch, sel, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return mcpserver.New(orch, sel).ServeStdio()
}
