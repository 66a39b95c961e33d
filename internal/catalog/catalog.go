// Package catalog caches the curated home feed: nine movie lists fetched once and reused until invalidated.
//
// The [Cache] is an explicit object owned by the caller. Concurrent [Cache.Initialize] calls share a
// single fetch; a category that fails is recorded with its error and never fails the whole load.
package catalog

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/shared"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const fetchConcurrency = 4

// Source is the subset of the movie service the catalog reads from.
type Source interface {
	List(ctx context.Context, list models.ListKind, page int) (*models.MoviePage, error)
	Discover(ctx context.Context, filters models.DiscoverFilters) (*models.MoviePage, error)
}

// Category is one home feed row. Exactly one of List or Filters is set.
type Category struct {
	Key     string                  `json:"key"`
	Title   string                  `json:"title"`
	List    models.ListKind         `json:"list,omitempty"`
	Filters *models.DiscoverFilters `json:"filters,omitempty"`
}

func (c Category) fetch(ctx context.Context, src Source) (*models.MoviePage, error) {
	if c.Filters != nil {
		return src.Discover(ctx, *c.Filters)
	}
	return src.List(ctx, c.List, 1)
}

// Categories returns the home feed rows in display order.
func Categories() []Category {
	return []Category{
		{Key: "now_playing", Title: "Now Playing", List: models.ListNowPlaying},
		{Key: "trending", Title: "Trending This Week", List: models.ListTrending},
		{Key: "upcoming", Title: "Upcoming", List: models.ListUpcoming},
		{Key: "top_rated", Title: "Top Rated", List: models.ListTopRated},
		{Key: "sci_fi", Title: "Sci-Fi", Filters: &models.DiscoverFilters{Genres: []int{878}, SortBy: "revenue.desc"}},
		{Key: "action", Title: "Action", Filters: &models.DiscoverFilters{Genres: []int{28}, SortBy: "popularity.desc"}},
		{Key: "comedy", Title: "Comedy", Filters: &models.DiscoverFilters{Genres: []int{35}, SortBy: "popularity.desc"}},
		{Key: "hindi", Title: "Hindi", Filters: &models.DiscoverFilters{Language: "hi", SortBy: "popularity.desc"}},
		{Key: "telugu", Title: "Telugu", Filters: &models.DiscoverFilters{Language: "te", SortBy: "revenue.desc"}},
	}
}

// Section is a category with its loaded movies, for rendering.
type Section struct {
	Category
	Movies []models.MovieSummary `json:"movies"`
	Error  string                `json:"error,omitempty"`
}

// Cache holds the loaded categories.
type Cache struct {
	src    Source
	logger *log.Logger
	group  singleflight.Group

	mu         sync.RWMutex
	ready      bool
	generation uint64
	movies     map[string][]models.MovieSummary
	errs       map[string]error
}

// New creates an empty cache reading from src.
func New(src Source, logger *log.Logger) *Cache {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Cache{src: src, logger: logger}
}

// Initialize loads every category once. It is a no-op when the cache is ready.
//
// The only error returned is the context's; per-category failures are available from [Cache.Errors].
func (c *Cache) Initialize(ctx context.Context) error {
	c.mu.RLock()
	ready, gen := c.ready, c.generation
	c.mu.RUnlock()
	if ready {
		return nil
	}

	_, err, _ := c.group.Do(fmt.Sprintf("catalog:%d", gen), func() (any, error) {
		if c.IsReady() {
			return nil, nil
		}

		movies, errs := c.fetchAll(ctx)
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.generation != gen {
			return nil, nil
		}
		c.movies, c.errs, c.ready = movies, errs, true
		c.logger.Info("catalog loaded", "categories", len(movies), "failed", len(errs))
		return nil, nil
	})
	return err
}

func (c *Cache) fetchAll(ctx context.Context) (map[string][]models.MovieSummary, map[string]error) {
	var mu sync.Mutex
	movies := make(map[string][]models.MovieSummary)
	errs := make(map[string]error)

	var g errgroup.Group
	g.SetLimit(fetchConcurrency)

	for _, cat := range Categories() {
		g.Go(func() error {
			page, err := cat.fetch(ctx, c.src)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.logger.Warn("catalog category failed", "category", cat.Key, "error", err)
				errs[cat.Key] = err
				movies[cat.Key] = []models.MovieSummary{}
				return nil
			}
			movies[cat.Key] = page.Results
			return nil
		})
	}
	_ = g.Wait()

	return movies, errs
}

// IsReady reports whether a load has completed since the last invalidation.
func (c *Cache) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Category returns the movies of one category.
func (c *Cache) Category(key string) ([]models.MovieSummary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	movies, ok := c.movies[key]
	return movies, ok
}

// Errors returns the per-category failures of the last load.
func (c *Cache) Errors() map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]error, len(c.errs))
	for k, v := range c.errs {
		out[k] = v
	}
	return out
}

// Sections returns every category in display order with its loaded movies.
func (c *Cache) Sections() []Section {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cats := Categories()
	sections := make([]Section, 0, len(cats))
	for _, cat := range cats {
		s := Section{Category: cat, Movies: c.movies[cat.Key]}
		if err := c.errs[cat.Key]; err != nil {
			s.Error = err.Error()
		}
		sections = append(sections, s)
	}
	return sections
}

// Invalidate drops loaded data; the next Initialize refetches. A load in progress is discarded.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.ready = false
	c.movies = nil
	c.errs = nil
}

// Refresh invalidates and reloads.
func (c *Cache) Refresh(ctx context.Context) error {
	c.Invalidate()
	return c.Initialize(ctx)
}
