package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviex/internal/catalog"
	"github.com/desertthunder/moviex/internal/repositories"
	"github.com/desertthunder/moviex/internal/search"
	"github.com/desertthunder/moviex/internal/services"
	"github.com/desertthunder/moviex/internal/shared"
	"github.com/urfave/cli/v3"
)

const cacheDialTimeout = 2 * time.Second

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	movies     services.MovieService
	ownsMovies bool
	api        *services.APIService
	catalog    *catalog.Cache
	bookmarks  *repositories.BookmarkRepository
	db         *sql.DB
	cache      *services.RedisCache
	httpClient *http.Client
	openURL    func(url string) error
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Dependencies left nil are built from the loaded config in [Runner.Before].
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Movies     services.MovieService
	API        *services.APIService
	Bookmarks  *repositories.BookmarkRepository
	HTTPClient *http.Client
	OpenURL    func(url string) error
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		movies:     opts.Movies,
		api:        opts.API,
		bookmarks:  opts.Bookmarks,
		httpClient: opts.HTTPClient,
		openURL:    opts.OpenURL,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	if r.movies != nil {
		r.catalog = catalog.New(r.movies, shared.WithLogger(r.logger, "component", "catalog"))
	}
	return r
}

// SetLogger replaces the runner's logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "moviex",
		Usage:   "Search, browse and save movies from TMDB",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before:   r.Before,
		After:    r.After,
		Writer:   r.output,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		searchCommand, discoverCommand, exploreCommand, movieCommand, personCommand, homeCommand,
		savedCommand, setupCommand, apiCommand, cacheCommand, tuiCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads configuration and builds any dependency not injected through [RunnerOpts].
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.config == nil {
		r.configPath = cmd.String("config")
		config, err := loadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	if r.movies == nil {
		r.movies = r.newTMDBService(r.responseCache(ctx), nil)
		r.ownsMovies = true
		r.catalog = catalog.New(r.movies, shared.WithLogger(r.logger, "component", "catalog"))
	}
	if r.api == nil {
		r.api = services.NewAPIService(r.config.Credentials.TMDB, r.httpClient)
	}
	return ctx, nil
}

// After releases the database and cache connections opened during the run.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	var errs []error
	if r.db != nil {
		errs = append(errs, r.db.Close())
		r.db = nil
		r.bookmarks = nil
	}
	if r.cache != nil {
		errs = append(errs, r.cache.Close())
		r.cache = nil
	}
	return errors.Join(errs...)
}

// loadConfig reads path when it exists and falls back to the embedded defaults otherwise.
func loadConfig(path string) (*shared.Config, error) {
	if _, err := os.Stat(path); err != nil {
		config := shared.DefaultConfig()
		config.ApplyEnv()
		return config, nil
	}
	return shared.LoadConfig(path)
}

func (r *Runner) newTMDBService(cache services.ResponseCache, observer services.RequestObserver) *services.TMDBService {
	return services.NewTMDBService(services.TMDBOptions{
		Config:   r.config.Credentials.TMDB,
		Cache:    cache,
		CacheTTL: r.config.Cache.TTL(),
		Observer: observer,
		Logger:   shared.WithLogger(r.logger, "component", "tmdb"),
	})
}

// responseCache dials the configured Redis cache once. A cache that cannot be reached is skipped.
func (r *Runner) responseCache(ctx context.Context) services.ResponseCache {
	if r.cache != nil {
		return r.cache
	}
	if r.config == nil || r.config.Cache.RedisURL == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, cacheDialTimeout)
	defer cancel()

	cache, err := services.DialRedisCache(ctx, r.config.Cache.RedisURL)
	if err != nil {
		r.logger.Warn("response cache disabled", "error", err)
		return nil
	}
	r.cache = cache
	return cache
}

// store opens the bookmark database on first use.
func (r *Runner) store() (*repositories.BookmarkRepository, error) {
	if r.bookmarks != nil {
		return r.bookmarks, nil
	}
	if r.config == nil {
		return nil, fmt.Errorf("%w: config not loaded", shared.ErrMissingConfig)
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	r.db = db
	r.bookmarks = repositories.NewBookmarkRepository(db)
	return r.bookmarks, nil
}

func (r *Runner) policy() search.Policy {
	if r.config == nil {
		return search.DefaultPolicy()
	}
	return search.PolicyFromConfig(r.config.Search)
}

func (r *Runner) requireMovies() error {
	if r.movies == nil {
		return fmt.Errorf("%w: movie service not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
