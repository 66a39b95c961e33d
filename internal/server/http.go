package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviex/internal/shared"
)

const shutdownTimeout = 5 * time.Second

// MetricsProvider exposes a scrape handler and records served requests.
type MetricsProvider interface {
	HTTPObserver
	Handler() http.Handler
}

// NewHandler assembles the router: recovery and logging wrap every route, metrics wrap all but /metrics.
// A nil metrics provider leaves /metrics unregistered.
func NewHandler(api *API, metrics MetricsProvider, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	router := NewBasicRouter()
	router.Use(RecoveryMiddleware(logger), LoggingMiddleware(logger))

	if metrics != nil {
		router.Handle(http.MethodGet, "/metrics", metrics.Handler())
		router.Use(MetricsMiddleware(metrics))
	}

	router.Handler(healthHandler{started: time.Now()})
	api.Register(router)
	return router
}

// Serve runs handler on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("shutting down api")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
