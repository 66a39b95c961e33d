package tasks

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/repositories"
	"github.com/desertthunder/moviex/internal/shared"
)

const (
	defaultWorkers   = 4
	maxWorkers       = 10
	defaultRateLimit = 5.0
)

// MovieFetcher loads full movie details by TMDB id.
type MovieFetcher interface {
	Movie(ctx context.Context, id int) (*models.MovieDetails, error)
}

// BookmarkStore is the subset of [repositories.BookmarkRepository] the engine needs.
type BookmarkStore interface {
	List(criteria repositories.ListCriteria) ([]*models.Bookmark, error)
	Update(b *models.Bookmark) error
}

// EngineOpts configures a [SavedEngine].
type EngineOpts struct {
	NumWorkers int     // Concurrent fetchers (default: 4, max: 10)
	RateLimit  float64 // Requests per second shared by all workers (default: 5)
	Logger     *log.Logger
}

// SavedEngine runs refresh and export operations over saved movies.
type SavedEngine struct {
	movies  MovieFetcher
	store   BookmarkStore
	workers int
	rate    float64
	logger  *log.Logger
}

// NewSavedEngine creates a new SavedEngine, filling unset options with defaults.
func NewSavedEngine(movies MovieFetcher, store BookmarkStore, opts EngineOpts) *SavedEngine {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	return &SavedEngine{
		movies:  movies,
		store:   store,
		workers: opts.NumWorkers,
		rate:    opts.RateLimit,
		logger:  opts.Logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *SavedEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
