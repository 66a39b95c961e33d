package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/moviex/internal/models"
	tu "github.com/desertthunder/moviex/internal/testing"
)

// gatedSource blocks every call until release is closed and counts calls.
type gatedSource struct {
	calls   atomic.Int32
	release chan struct{}
}

func (g *gatedSource) List(ctx context.Context, list models.ListKind, page int) (*models.MoviePage, error) {
	g.calls.Add(1)
	<-g.release
	return &models.MoviePage{Results: []models.MovieSummary{{ID: 1, Title: string(list)}}}, nil
}

func (g *gatedSource) Discover(ctx context.Context, filters models.DiscoverFilters) (*models.MoviePage, error) {
	g.calls.Add(1)
	<-g.release
	return &models.MoviePage{Results: []models.MovieSummary{{ID: 2, Title: "discover"}}}, nil
}

func TestCategories(t *testing.T) {
	cats := Categories()
	if len(cats) != 9 {
		t.Fatalf("expected 9 categories, got %d", len(cats))
	}

	seen := map[string]bool{}
	for _, c := range cats {
		if seen[c.Key] {
			t.Errorf("duplicate key %s", c.Key)
		}
		seen[c.Key] = true

		if (c.List == "") == (c.Filters == nil) {
			t.Errorf("%s must set exactly one of List or Filters", c.Key)
		}
		if c.Filters != nil {
			if err := c.Filters.Validate(); err != nil {
				t.Errorf("%s has invalid filters: %v", c.Key, err)
			}
		}
	}

	for _, key := range []string{"now_playing", "trending", "upcoming", "top_rated", "sci_fi", "action", "comedy", "hindi", "telugu"} {
		if !seen[key] {
			t.Errorf("missing category %s", key)
		}
	}
}

func TestCache(t *testing.T) {
	ctx := context.Background()

	newFake := func() *tu.FakeMovieService {
		fake := tu.NewFakeMovieService()
		fake.AddMovie(models.MovieSummary{ID: 603, Title: "The Matrix", PosterPath: "/m.jpg"})
		for _, kind := range models.ListKinds() {
			fake.Lists[kind] = []models.MovieSummary{{ID: 1, Title: string(kind)}}
		}
		return fake
	}

	t.Run("Initialize", func(t *testing.T) {
		fake := newFake()
		c := New(fake, nil)

		if c.IsReady() {
			t.Fatal("new cache should not be ready")
		}
		if err := c.Initialize(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !c.IsReady() {
			t.Fatal("cache should be ready after Initialize")
		}

		movies, ok := c.Category("top_rated")
		if !ok || len(movies) != 1 || movies[0].Title != "top_rated" {
			t.Errorf("unexpected top_rated %v", movies)
		}
		movies, ok = c.Category("telugu")
		if !ok || len(movies) != 1 || movies[0].ID != 603 {
			t.Errorf("unexpected telugu %v", movies)
		}

		if got := fake.Calls("List") + fake.Calls("Discover"); got != 9 {
			t.Errorf("expected 9 fetches, got %d", got)
		}

		if err := c.Initialize(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := fake.Calls("List") + fake.Calls("Discover"); got != 9 {
			t.Errorf("ready cache should not refetch, got %d fetches", got)
		}
	})

	t.Run("Partial Failure", func(t *testing.T) {
		fake := newFake()
		fake.ListErrs[string(models.ListUpcoming)] = errors.New("boom")
		c := New(fake, nil)

		if err := c.Initialize(ctx); err != nil {
			t.Fatalf("a failing category should not fail the load: %v", err)
		}
		if !c.IsReady() {
			t.Error("cache should be ready despite a failed category")
		}

		errs := c.Errors()
		if len(errs) != 1 || errs["upcoming"] == nil {
			t.Errorf("expected upcoming error, got %v", errs)
		}
		movies, ok := c.Category("upcoming")
		if !ok || len(movies) != 0 {
			t.Errorf("failed category should be empty, got %v", movies)
		}
		if movies, _ := c.Category("trending"); len(movies) != 1 {
			t.Error("other categories should load")
		}

		var found bool
		for _, s := range c.Sections() {
			if s.Key == "upcoming" {
				found = true
				if s.Error != "boom" {
					t.Errorf("expected section error boom, got %q", s.Error)
				}
			}
		}
		if !found {
			t.Error("upcoming section missing")
		}
	})

	t.Run("Concurrent Initialize Shares One Fetch", func(t *testing.T) {
		src := &gatedSource{release: make(chan struct{})}
		c := New(src, nil)

		var wg sync.WaitGroup
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := c.Initialize(ctx); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}

		close(src.release)
		wg.Wait()

		if got := src.calls.Load(); got != 9 {
			t.Errorf("expected 9 fetches for concurrent callers, got %d", got)
		}
		if !c.IsReady() {
			t.Error("expected ready")
		}
	})

	t.Run("Invalidate", func(t *testing.T) {
		fake := newFake()
		c := New(fake, nil)

		if err := c.Initialize(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		c.Invalidate()

		if c.IsReady() {
			t.Error("cache should not be ready after Invalidate")
		}
		if _, ok := c.Category("trending"); ok {
			t.Error("data should be dropped after Invalidate")
		}

		if err := c.Initialize(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := fake.Calls("List") + fake.Calls("Discover"); got != 18 {
			t.Errorf("expected refetch after invalidate, got %d fetches", got)
		}
	})

	t.Run("Refresh", func(t *testing.T) {
		fake := newFake()
		c := New(fake, nil)

		if err := c.Initialize(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		fake.Lists[models.ListTrending] = []models.MovieSummary{{ID: 7, Title: "New"}, {ID: 8, Title: "Newer"}}

		if err := c.Refresh(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if movies, _ := c.Category("trending"); len(movies) != 2 {
			t.Errorf("expected refreshed trending, got %v", movies)
		}
	})

	t.Run("Canceled Context", func(t *testing.T) {
		c := New(newFake(), nil)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if err := c.Initialize(cctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if c.IsReady() {
			t.Error("cancelled load should not mark the cache ready")
		}
	})
}
