// Package server wires the chi router and runs the quiz API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/geoquiz/hintkit/internal/core/config"
	"github.com/geoquiz/hintkit/internal/core/health"
	middleware "github.com/geoquiz/hintkit/internal/core/middleware"
	"github.com/geoquiz/hintkit/internal/core/router"
)

// NewRouter builds the HTTP handler tree.
func NewRouter(logger *slog.Logger, h *router.Handlers) http.Handler {
	r := chi.NewRouter()
	use(r, logger)

	r.Get("/healthz", health.Liveness())
	h.Mount(r)
	return r
}

// request ids are attached before recovery so panic lines carry them
func use(r chi.Router, logger *slog.Logger) {
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Metrics())
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, handler http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
