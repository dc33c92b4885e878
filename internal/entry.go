// Package internal provides the main application initialization and runtime logic.
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

	"github.com/starford/mindra/internal/api"
	"github.com/starford/mindra/internal/noteservice"
	"github.com/starford/mindra/internal/session"
	"github.com/starford/mindra/internal/sse"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := app.logger
	if logger == nil {
		// Initialize structured JSON logger.
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.Bool("vault_watch", cfg.Vault.Watch),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	sessOpts, err := cfg.SessionOptions()
	if err != nil {
		return fmt.Errorf("theme: %w", err)
	}

	backend, err := OpenBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()
	svc := backend.Notes

	// Run initial sync.
	if backend.Importer != nil {
		res, err := backend.Importer.Sync(ctx)
		if err != nil {
			logger.Warn("initial vault sync failed", slog.String("error", err.Error()))
		} else {
			logger.Info("Vault synced",
				slog.Int("created", res.Created),
				slog.Int("updated", res.Updated),
				slog.Int("deleted", res.Deleted),
				slog.Int("failed", res.Failed))
		}
	}

	// SSE broker.
	broker := sse.NewBroker(cfg.Graph.GraphThrottle, cfg.Graph.RedrawThrottle)
	defer broker.Close()

	sessions := session.NewManager(svc, broker, sessOpts, logger)

	// Note changes fan out to SSE clients immediately; session reloads are
	// coalesced so a vault sync burst costs one reload.
	refresh := make(chan struct{}, 1)
	svc.OnChange(func(kind noteservice.ChangeKind, id int64) {
		broker.PublishNoteEvent(string(kind), id)
		select {
		case refresh <- struct{}{}:
		default:
		}
	})

	// Build chi router.
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
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := backend.DB.Ping(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", api.NewRouter(svc, sessions, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start vault watcher; it reports through the note service listeners.
	if backend.Importer != nil && cfg.Vault.Watch {
		g.Go(func() error {
			if err := backend.Importer.Watch(gCtx); err != nil {
				logger.Error("vault watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Expire idle sessions.
	g.Go(func() error {
		return sessions.Run(gCtx)
	})

	// Reload session snapshots after note changes.
	g.Go(func() error {
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-refresh:
				if err := sessions.RefreshAll(gCtx); err != nil && gCtx.Err() == nil {
					logger.Warn("session refresh failed", slog.String("error", err.Error()))
				}
			}
		}
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

		// Close SSE streams first so Shutdown does not wait on them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
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

// errShutdown cancels the group once the server has been shut down, so the
// background loops stop with it.
var errShutdown = errors.New("shutdown")
