// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/starford/roadmap/internal/api"
	"github.com/starford/roadmap/internal/baseline"
	"github.com/starford/roadmap/internal/mcpserver"
	"github.com/starford/roadmap/internal/metrics"
	"github.com/starford/roadmap/internal/models"
	"github.com/starford/roadmap/internal/persist"
	"github.com/starford/roadmap/internal/roadmap"
	"github.com/starford/roadmap/internal/sse"
	"github.com/starford/roadmap/internal/storage"
	"github.com/starford/roadmap/internal/tui"
)

// statsThrottle bounds how often stats.updated is pushed to SSE clients.
const statsThrottle = 2 * time.Second

// newLogger builds the JSON logger. When a log file is configured logs go
// there through a rotating writer, otherwise to fallback.
func newLogger(cfg *Config, fallback io.Writer) (*slog.Logger, io.Closer) {
	var (
		w      = fallback
		closer io.Closer
	)
	if cfg.App.LogFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.App.LogFile,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		w, closer = rotating, rotating
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	return logger, closer
}

// openProvider opens the storage backend named in the state config. The
// returned cleanup func is never nil.
func openProvider(cfg StateConfig) (storage.Provider, func(), error) {
	switch cfg.Backend {
	case BackendMemory:
		return storage.NewMemory(), func() {}, nil
	case BackendSQLite:
		db, err := storage.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite state: %w", err)
		}
		return db, func() { db.Close() }, nil
	default:
		fs, err := storage.NewFS(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open state dir: %w", err)
		}
		return fs, func() {}, nil
	}
}

// openStore loads the baseline, opens the configured backend and hydrates
// a store from it.
func openStore(cfg *Config, logger *slog.Logger) (*roadmap.Store, func(), error) {
	nodes, err := baseline.LoadNodes(cfg.Baseline.Path, uuid.NewString)
	if err != nil {
		return nil, nil, fmt.Errorf("load baseline: %w", err)
	}
	provider, cleanup, err := openProvider(cfg.State)
	if err != nil {
		return nil, nil, err
	}

	store := roadmap.New(nodes,
		roadmap.WithPersister(persist.NewSlot(provider, cfg.State.Key)),
		roadmap.WithLogger(logger),
		roadmap.WithStatsLocation(cfg.Stats.Location()),
	)
	return store, cleanup, nil
}

// watchBaseline keeps the store's reset dataset in sync with the baseline
// file until ctx is done. It is a no-op unless watching is enabled for a
// file on disk.
func watchBaseline(ctx context.Context, cfg *Config, store *roadmap.Store, logger *slog.Logger) error {
	if !cfg.Baseline.Watch || cfg.Baseline.Path == "" {
		return nil
	}
	return baseline.Watch(ctx, cfg.Baseline.Path, uuid.NewString, logger, func(nodes []models.Node) {
		store.SetBaseline(nodes)
		logger.Info("baseline reloaded", slog.Int("nodes", len(nodes)))
	})
}

func (a *application) validate() error {
	if a.config == nil {
		return fmt.Errorf("config is required")
	}
	return nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if err := app.validate(); err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger, closer := newLogger(cfg, os.Stdout)
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("state_backend", cfg.State.Backend),
		slog.String("state_path", cfg.State.Path),
		slog.String("baseline_path", cfg.Baseline.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, cleanup, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	// SSE broker fed by store changes.
	broker := sse.NewBroker(statsThrottle, func() any { return store.Stats() })
	defer broker.Close()
	metrics.SetSSEClientSource(broker.ClientCount)
	defer metrics.SetSSEClientSource(nil)
	unsubscribe := store.Subscribe(func(c roadmap.Change) {
		broker.PublishChange(string(c.Kind), c.NodeID, c.AffectsStats())
	})
	defer unsubscribe()

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
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
	r.Handle("/metrics", promhttp.Handler())

	// Mount API routes, including the SSE stream at /api/events.
	r.Mount("/api", api.NewRouter(store, broker))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reload the baseline when its file changes.
	g.Go(func() error {
		if err := watchBaseline(gCtx, cfg, store, logger); err != nil {
			logger.Warn("baseline watcher disabled", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Streams end when the broker closes, so close it before waiting on them.
		broker.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the errgroup context so the watcher stops together
// with the HTTP server.
var errShutdown = errors.New("shutdown")

// RunTUI opens the interactive terminal view. Logs go to the configured
// file only, since the terminal belongs to the UI.
func RunTUI(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if err := app.validate(); err != nil {
		return err
	}
	cfg := app.config

	logger, closer := newLogger(cfg, io.Discard)
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(logger)

	store, cleanup, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := watchBaseline(ctx, cfg, store, logger); err != nil {
			logger.Warn("baseline watcher disabled", slog.String("error", err.Error()))
		}
	}()

	return tui.Run(ctx, store)
}

// RunMCP serves the MCP tools over stdio. Stdout carries the protocol, so
// logs go to stderr or the configured file.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	if err := app.validate(); err != nil {
		return err
	}
	cfg := app.config

	logger, closer := newLogger(cfg, os.Stderr)
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(logger)

	store, cleanup, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("MCP server starting", slog.String("state_backend", cfg.State.Backend))
	return mcpserver.New(store, app.version).ServeStdio()
}
