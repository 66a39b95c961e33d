// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/moviex/internal/models"
)

// FakeMovieService is an in-memory movie service for tests.
//
// Movies are served from the Movies map; Err, when set, is returned from every call.
type FakeMovieService struct {
	mu       sync.Mutex
	Movies   map[int]models.MovieDetails
	People   map[int]models.Person
	Lists    map[models.ListKind][]models.MovieSummary
	Err      error
	ListErrs map[string]error
	calls    map[string]int
}

func NewFakeMovieService() *FakeMovieService {
	return &FakeMovieService{
		Movies:   map[int]models.MovieDetails{},
		People:   map[int]models.Person{},
		Lists:    map[models.ListKind][]models.MovieSummary{},
		ListErrs: map[string]error{},
		calls:    map[string]int{},
	}
}

// AddMovie registers a movie for Movie, SearchMovies and Discover.
func (f *FakeMovieService) AddMovie(m models.MovieSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Movies[m.ID] = models.MovieDetails{MovieSummary: m, Runtime: 120}
}

// Calls returns how many times the named method was invoked.
func (f *FakeMovieService) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *FakeMovieService) record(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	return f.Err
}

func (f *FakeMovieService) summaries() []models.MovieSummary {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.MovieSummary, 0, len(f.Movies))
	for _, m := range f.Movies {
		out = append(out, m.MovieSummary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *FakeMovieService) SearchMovies(ctx context.Context, query string) ([]models.MovieSummary, error) {
	if err := f.record("SearchMovies"); err != nil {
		return nil, err
	}
	return f.summaries(), nil
}

func (f *FakeMovieService) List(ctx context.Context, list models.ListKind, page int) (*models.MoviePage, error) {
	if err := f.record("List"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	err, results := f.ListErrs[string(list)], f.Lists[list]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &models.MoviePage{Page: page, Results: results, TotalPages: 1, TotalResults: len(results)}, nil
}

func (f *FakeMovieService) Discover(ctx context.Context, filters models.DiscoverFilters) (*models.MoviePage, error) {
	if err := f.record("Discover"); err != nil {
		return nil, err
	}
	key := filters.Values().Encode()
	f.mu.Lock()
	err := f.ListErrs[key]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	results := f.summaries()
	return &models.MoviePage{Page: 1, Results: results, TotalPages: 1, TotalResults: len(results)}, nil
}

func (f *FakeMovieService) Movie(ctx context.Context, id int) (*models.MovieDetails, error) {
	if err := f.record("Movie"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.Movies[id]
	if !ok {
		return nil, fmt.Errorf("movie %d not found", id)
	}
	return &m, nil
}

func (f *FakeMovieService) Collection(ctx context.Context, id int) (*models.Collection, error) {
	if err := f.record("Collection"); err != nil {
		return nil, err
	}
	return &models.Collection{ID: id, Parts: f.summaries()}, nil
}

func (f *FakeMovieService) Person(ctx context.Context, id int) (*models.Person, error) {
	if err := f.record("Person"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.People[id]
	if !ok {
		return nil, fmt.Errorf("person %d not found", id)
	}
	return &p, nil
}

func (f *FakeMovieService) Genres(ctx context.Context) ([]models.Genre, error) {
	if err := f.record("Genres"); err != nil {
		return nil, err
	}
	return []models.Genre{{ID: 28, Name: "Action"}, {ID: 878, Name: "Science Fiction"}}, nil
}

func (f *FakeMovieService) ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return "https://image.test/" + size + path
}

func (f *FakeMovieService) Name() string { return "fake" }

// PendingSearch is one search call held open by [BlockingSearcher].
type PendingSearch struct {
	Query  string
	Ctx    context.Context
	result chan searchResult
}

type searchResult struct {
	movies []models.MovieSummary
	err    error
}

// Resolve completes the call with movies and err.
func (p *PendingSearch) Resolve(movies []models.MovieSummary, err error) {
	p.result <- searchResult{movies: movies, err: err}
}

// BlockingSearcher records every search and blocks each until the test resolves it,
// so responses can be delivered in any order.
type BlockingSearcher struct {
	mu      sync.Mutex
	pending []*PendingSearch
	issued  chan *PendingSearch
}

func NewBlockingSearcher() *BlockingSearcher {
	return &BlockingSearcher{issued: make(chan *PendingSearch, 64)}
}

func (b *BlockingSearcher) SearchMovies(ctx context.Context, query string) ([]models.MovieSummary, error) {
	p := &PendingSearch{Query: query, Ctx: ctx, result: make(chan searchResult, 1)}
	b.mu.Lock()
	b.pending = append(b.pending, p)
	b.mu.Unlock()
	b.issued <- p

	r := <-p.result
	return r.movies, r.err
}

// Next waits for the next issued search.
func (b *BlockingSearcher) Next(t *testing.T) *PendingSearch {
	t.Helper()
	select {
	case p := <-b.issued:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for search request")
		return nil
	}
}

// Count returns the number of searches issued so far.
func (b *BlockingSearcher) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// ManualClock is a clock whose timers only fire when the test advances it.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func NewManualClock() *ManualClock {
	return &ManualClock{now: time.Unix(0, 0)}
}

// AfterFunc schedules fn after d and returns a stop function.
func (c *ManualClock) AfterFunc(d time.Duration, fn func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{at: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if t.stopped || t.fired {
			return false
		}
		t.stopped = true
		return true
	}
}

// Advance moves time forward and runs due timers synchronously, in deadline order.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.fn()
	}
}

// Active returns the number of timers that are neither stopped nor fired.
func (c *ManualClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
