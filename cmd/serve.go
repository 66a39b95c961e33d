package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/moviex/internal/catalog"
	"github.com/desertthunder/moviex/internal/metrics"
	"github.com/desertthunder/moviex/internal/server"
	"github.com/desertthunder/moviex/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the JSON API until the process is interrupted.
//
// When the TMDB client was built from config it is rebuilt here so provider latency and cache hits are
// recorded on the server's metrics registry.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireMovies(); err != nil {
		return err
	}
	store, err := r.store()
	if err != nil {
		return err
	}

	m := metrics.New()
	logger := shared.WithLogger(r.logger, "component", "server")

	movies := r.movies
	cat := r.catalog
	if r.ownsMovies {
		movies = r.newTMDBService(m.InstrumentCache(r.responseCache(ctx)), m.ObserveProvider)
		cat = catalog.New(movies, shared.WithLogger(r.logger, "component", "catalog"))
	}

	api := server.NewAPI(server.APIOpts{
		Movies:    movies,
		Catalog:   cat,
		Bookmarks: store,
		Policy:    r.policy(),
		Recorder:  m,
		Logger:    logger,
	})

	addr := r.listenAddr(cmd)
	r.writePlain("Serving on http://%s (metrics at /metrics)\n", addr)
	if err := server.Serve(ctx, addr, server.NewHandler(api, m, logger), logger); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	return nil
}

func (r *Runner) listenAddr(cmd *cli.Command) string {
	var cfg shared.ServerConfig
	if r.config != nil {
		cfg = r.config.Server
	}
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}
	return cfg.Addr()
}
