package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/shared"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	err     error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	body, ok := m.entries[key]
	return body, ok, nil
}

func (m *memoryCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries[key] = body
	return nil
}

// newTestService starts a TMDB stand-in that replies with body and status for every path.
func newTestService(t *testing.T, status int, body string, opts TMDBOptions) (*TMDBService, *atomic.Int32, *http.Request) {
	t.Helper()

	var hits atomic.Int32
	last := &http.Request{}
	var mu sync.Mutex

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		mu.Lock()
		*last = *r.Clone(context.Background())
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	opts.Config.BaseURL = server.URL
	if !opts.Config.HasCredentials() {
		opts.Config.APIKey = "test-key"
	}
	return NewTMDBService(opts), &hits, last
}

const searchBody = `{"page":1,"total_pages":1,"total_results":2,"results":[
	{"id":1,"title":"Inception","popularity":90,"poster_path":"/x.jpg"},
	{"id":2,"title":"No Poster","popularity":99,"poster_path":null}
]}`

func TestTMDBService(t *testing.T) {
	ctx := context.Background()

	t.Run("Missing Credentials", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}))
		defer server.Close()

		srv := NewTMDBService(TMDBOptions{Config: shared.TMDBConfig{BaseURL: server.URL}})
		if srv.Authenticated() {
			t.Error("expected service to be unauthenticated")
		}

		_, err := srv.SearchMovies(ctx, "inception")
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
		if hits.Load() != 0 {
			t.Error("no request should be issued without credentials")
		}
	})

	t.Run("SearchMovies", func(t *testing.T) {
		srv, hits, last := newTestService(t, http.StatusOK, searchBody, TMDBOptions{})

		movies, err := srv.SearchMovies(ctx, "Inception")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(movies) != 2 {
			t.Fatalf("expected raw results to be returned unfiltered, got %d", len(movies))
		}
		if movies[1].HasPoster() {
			t.Error("null poster_path should decode as empty")
		}
		if hits.Load() != 1 {
			t.Errorf("expected 1 request, got %d", hits.Load())
		}

		q := last.URL.Query()
		expected := map[string]string{
			"query":         "Inception",
			"page":          "1",
			"include_adult": "false",
			"language":      "en-US",
			"api_key":       "test-key",
		}
		if last.URL.Path != "/search/movie" {
			t.Errorf("expected /search/movie, got %s", last.URL.Path)
		}
		for key, want := range expected {
			if got := q.Get(key); got != want {
				t.Errorf("%s = %q, want %q", key, got, want)
			}
		}
	})

	t.Run("Bearer Token", func(t *testing.T) {
		srv, _, last := newTestService(t, http.StatusOK, searchBody, TMDBOptions{
			Config: shared.TMDBConfig{AccessToken: "v4-token"},
		})

		if _, err := srv.SearchMovies(ctx, "dune"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := last.Header.Get("Authorization"); got != "Bearer v4-token" {
			t.Errorf("expected bearer header, got %q", got)
		}
		if last.URL.Query().Has("api_key") {
			t.Error("api_key should be omitted with a bearer token")
		}
	})

	t.Run("Non-2xx Status", func(t *testing.T) {
		srv, _, _ := newTestService(t, http.StatusServiceUnavailable, `<html>down</html>`, TMDBOptions{})

		_, err := srv.SearchMovies(ctx, "dune")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}

		var se *StatusError
		if !errors.As(err, &se) || se.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("expected StatusError with 503, got %v", err)
		}
	})

	t.Run("Malformed Response", func(t *testing.T) {
		srv, _, _ := newTestService(t, http.StatusOK, `{"results": "nope"`, TMDBOptions{})

		_, err := srv.SearchMovies(ctx, "dune")
		if !errors.Is(err, shared.ErrMalformedResponse) {
			t.Errorf("expected ErrMalformedResponse, got %v", err)
		}
	})

	t.Run("Missing Results", func(t *testing.T) {
		tests := map[string]string{
			"no results key": `{"status_message":"weird"}`,
			"null results":   `{"page":1,"results":null}`,
		}
		for name, body := range tests {
			t.Run(name, func(t *testing.T) {
				srv, _, _ := newTestService(t, http.StatusOK, body, TMDBOptions{})

				movies, err := srv.SearchMovies(ctx, "inception")
				if !errors.Is(err, shared.ErrMalformedResponse) {
					t.Errorf("expected ErrMalformedResponse, got movies=%v err=%v", movies, err)
				}
			})
		}
	})

	t.Run("Empty Results", func(t *testing.T) {
		srv, _, _ := newTestService(t, http.StatusOK, `{"page":1,"results":[]}`, TMDBOptions{})

		movies, err := srv.SearchMovies(ctx, "zzzz")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(movies) != 0 {
			t.Errorf("expected no movies, got %d", len(movies))
		}
	})

	t.Run("Canceled Context", func(t *testing.T) {
		srv, _, _ := newTestService(t, http.StatusOK, searchBody, TMDBOptions{})

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := srv.SearchMovies(cctx, "dune")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("Movie", func(t *testing.T) {
		body := `{"id":27205,"title":"Inception","runtime":148,"credits":{"cast":[{"id":6193,"name":"Leonardo DiCaprio"}]}}`
		srv, _, last := newTestService(t, http.StatusOK, body, TMDBOptions{})

		movie, err := srv.Movie(ctx, 27205)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if movie.Runtime != 148 || len(movie.Credits.Cast) != 1 {
			t.Errorf("unexpected movie %+v", movie)
		}
		if last.URL.Path != "/movie/27205" {
			t.Errorf("unexpected path %s", last.URL.Path)
		}
		if got := last.URL.Query().Get("append_to_response"); got != detailAppends {
			t.Errorf("unexpected append_to_response %q", got)
		}

		if _, err := srv.Movie(ctx, 0); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for id 0, got %v", err)
		}
	})

	t.Run("Movie Not Found", func(t *testing.T) {
		srv, _, _ := newTestService(t, http.StatusNotFound, `{"status_code":34}`, TMDBOptions{})

		_, err := srv.Movie(ctx, 1)
		if !errors.Is(err, shared.ErrMovieNotFound) {
			t.Errorf("expected ErrMovieNotFound, got %v", err)
		}
	})

	t.Run("Person", func(t *testing.T) {
		body := `{"id":525,"name":"Christopher Nolan","movie_credits":{"crew":[{"id":27205,"title":"Inception","job":"Director"}]}}`
		srv, _, last := newTestService(t, http.StatusOK, body, TMDBOptions{})

		person, err := srv.Person(ctx, 525)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(person.MovieCredits.Crew) != 1 || person.MovieCredits.Crew[0].Job != "Director" {
			t.Errorf("unexpected credits %+v", person.MovieCredits)
		}
		if last.URL.Query().Get("append_to_response") != "movie_credits" {
			t.Errorf("expected movie_credits append, got %q", last.URL.RawQuery)
		}
	})

	t.Run("Person Not Found", func(t *testing.T) {
		srv, _, _ := newTestService(t, http.StatusNotFound, `{}`, TMDBOptions{})

		if _, err := srv.Person(ctx, 9); !errors.Is(err, shared.ErrPersonNotFound) {
			t.Errorf("expected ErrPersonNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		tests := []struct {
			list       models.ListKind
			path       string
			wantRegion bool
		}{
			{models.ListTrending, "/trending/movie/week", true},
			{models.ListNowPlaying, "/movie/now_playing", true},
			{models.ListUpcoming, "/movie/upcoming", true},
			{models.ListTopRated, "/movie/top_rated", false},
			{models.ListPopular, "/movie/popular", false},
		}

		for _, tt := range tests {
			t.Run(string(tt.list), func(t *testing.T) {
				srv, _, last := newTestService(t, http.StatusOK, `{"page":2,"total_pages":9999,"results":[]}`, TMDBOptions{
					Config: shared.TMDBConfig{Region: "in"},
				})

				page, err := srv.List(ctx, tt.list, 2)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if last.URL.Path != tt.path {
					t.Errorf("expected path %s, got %s", tt.path, last.URL.Path)
				}
				if got := last.URL.Query().Get("region") == "IN"; got != tt.wantRegion {
					t.Errorf("region present = %v, want %v", got, tt.wantRegion)
				}
				if page.TotalPages != models.MaxPage {
					t.Errorf("expected total pages clamped to %d, got %d", models.MaxPage, page.TotalPages)
				}
			})
		}

		t.Run("Invalid", func(t *testing.T) {
			srv, hits, _ := newTestService(t, http.StatusOK, `{}`, TMDBOptions{})

			if _, err := srv.List(ctx, "latest", 1); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
			if _, err := srv.List(ctx, models.ListPopular, 501); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument for page 501, got %v", err)
			}
			if hits.Load() != 0 {
				t.Error("invalid lists should not hit the network")
			}
		})
	})

	t.Run("Discover", func(t *testing.T) {
		srv, hits, last := newTestService(t, http.StatusOK, searchBody, TMDBOptions{})

		page, err := srv.Discover(ctx, models.DiscoverFilters{Genres: []int{878}, SortBy: "revenue.desc", Page: 2})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(page.Results) != 2 {
			t.Errorf("expected 2 results, got %d", len(page.Results))
		}
		q := last.URL.Query()
		if q.Get("with_genres") != "878" || q.Get("sort_by") != "revenue.desc" || q.Get("page") != "2" {
			t.Errorf("unexpected discover query %s", last.URL.RawQuery)
		}

		_, err = srv.Discover(ctx, models.DiscoverFilters{SortBy: "budget.desc"})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if hits.Load() != 1 {
			t.Errorf("invalid filters should not hit the network, got %d requests", hits.Load())
		}
	})

	t.Run("Genres", func(t *testing.T) {
		srv, _, _ := newTestService(t, http.StatusOK, `{"genres":[{"id":28,"name":"Action"}]}`, TMDBOptions{})

		genres, err := srv.Genres(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(genres) != 1 || genres[0].Name != "Action" {
			t.Errorf("unexpected genres %v", genres)
		}
	})

	t.Run("Response Cache", func(t *testing.T) {
		cache := newMemoryCache()
		srv, hits, _ := newTestService(t, http.StatusOK, searchBody, TMDBOptions{Cache: cache, CacheTTL: time.Minute})

		for range 3 {
			if _, err := srv.SearchMovies(ctx, "inception"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}
		if hits.Load() != 1 {
			t.Errorf("expected cached responses after first call, got %d requests", hits.Load())
		}
		for key := range cache.entries {
			if strings.Contains(key, "api_key") {
				t.Errorf("cache key should not contain credentials: %s", key)
			}
		}
	})

	t.Run("Cache Failure Falls Back", func(t *testing.T) {
		cache := newMemoryCache()
		cache.err = errors.New("connection refused")
		srv, hits, _ := newTestService(t, http.StatusOK, searchBody, TMDBOptions{Cache: cache, CacheTTL: time.Minute})

		if _, err := srv.SearchMovies(ctx, "inception"); err != nil {
			t.Fatalf("cache errors should not fail requests: %v", err)
		}
		if hits.Load() != 1 {
			t.Errorf("expected network request, got %d", hits.Load())
		}
	})

	t.Run("Observer", func(t *testing.T) {
		var endpoint string
		var status int
		srv, _, _ := newTestService(t, http.StatusOK, `{"id":1,"title":"x"}`, TMDBOptions{
			Observer: func(e string, s int, d time.Duration) { endpoint, status = e, s },
		})

		if _, err := srv.Movie(ctx, 42); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if endpoint != "/movie/{id}" || status != http.StatusOK {
			t.Errorf("unexpected observation %s %d", endpoint, status)
		}
	})

	t.Run("ImageURL", func(t *testing.T) {
		srv := NewTMDBService(TMDBOptions{})

		tests := []struct {
			path, size, want string
		}{
			{"/x.jpg", "w342", "https://image.tmdb.org/t/p/w342/x.jpg"},
			{"x.jpg", "w500", "https://image.tmdb.org/t/p/w500/x.jpg"},
			{"/x.jpg", "", "https://image.tmdb.org/t/p/original/x.jpg"},
			{"", "w342", ""},
		}
		for _, tt := range tests {
			if got := srv.ImageURL(tt.path, tt.size); got != tt.want {
				t.Errorf("ImageURL(%q, %q) = %q, want %q", tt.path, tt.size, got, tt.want)
			}
		}
	})
}

func TestRedisCache(t *testing.T) {
	t.Run("Invalid URL", func(t *testing.T) {
		if _, err := DialRedisCache(context.Background(), "not-a-url"); err == nil {
			t.Error("expected error for invalid url")
		}
	})

	t.Run("Unreachable Server", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if _, err := DialRedisCache(ctx, "redis://127.0.0.1:1/0"); err == nil {
			t.Error("expected error for unreachable server")
		}
	})
}
