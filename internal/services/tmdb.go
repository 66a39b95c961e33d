// TMDB v3 implementation of [MovieService]
//
// Response shapes follow https://developer.themoviedb.org/reference
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	defaultLanguage  = "en-US"
	defaultRateLimit = 20
	maxBodyBytes     = 8 << 20

	// PosterSize is the poster width used by list and detail views.
	PosterSize = "w342"
)

const detailAppends = "credits,videos,images,recommendations,watch/providers"

// RequestObserver is notified after every upstream request with the endpoint template,
// HTTP status (0 on transport failure) and elapsed time.
type RequestObserver func(endpoint string, status int, elapsed time.Duration)

// StatusError reports a non-2xx response. It unwraps to [shared.ErrAPIRequest].
type StatusError struct {
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %s returned status %d", shared.ErrAPIRequest, e.Path, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return shared.ErrAPIRequest }

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// TMDBOptions configures [NewTMDBService]. Zero values fall back to defaults.
type TMDBOptions struct {
	Config     shared.TMDBConfig
	HTTPClient *http.Client
	Cache      ResponseCache
	CacheTTL   time.Duration
	Limiter    *rate.Limiter
	Observer   RequestObserver
	Logger     *log.Logger
}

// TMDBService talks to the TMDB REST API.
type TMDBService struct {
	baseURL      string
	imageBaseURL string
	apiKey       string
	bearer       bool
	region       string
	language     string
	httpClient   *http.Client
	limiter      *rate.Limiter
	cache        ResponseCache
	cacheTTL     time.Duration
	observer     RequestObserver
	logger       *log.Logger
}

// NewTMDBService creates a TMDB client. Missing credentials are not an error here;
// they surface as [shared.ErrMissingCredentials] on the first call.
func NewTMDBService(opts TMDBOptions) *TMDBService {
	cfg := opts.Config

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = tmdbBaseURL
	}
	imageBaseURL := strings.TrimRight(strings.TrimSpace(cfg.ImageBaseURL), "/")
	if imageBaseURL == "" {
		imageBaseURL = tmdbImageBaseURL
	}
	language := cfg.Language
	if language == "" {
		language = defaultLanguage
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	token := strings.TrimSpace(cfg.AccessToken)
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
		authed := oauth2.NewClient(ctx, src)
		authed.Timeout = httpClient.Timeout
		httpClient = authed
	}

	limiter := opts.Limiter
	if limiter == nil {
		perSecond := cfg.RateLimit
		if perSecond <= 0 {
			perSecond = defaultRateLimit
		}
		limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	return &TMDBService{
		baseURL:      baseURL,
		imageBaseURL: imageBaseURL,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		bearer:       token != "",
		region:       strings.ToUpper(cfg.Region),
		language:     language,
		httpClient:   httpClient,
		limiter:      limiter,
		cache:        opts.Cache,
		cacheTTL:     opts.CacheTTL,
		observer:     opts.Observer,
		logger:       logger,
	}
}

// Name returns the name of the service
func (s *TMDBService) Name() string {
	return "TMDB"
}

// Authenticated reports whether a credential is configured.
func (s *TMDBService) Authenticated() bool {
	return s.apiKey != "" || s.bearer
}

// ImageURL builds https://image.tmdb.org/t/p/{size}{path}. An empty path yields "".
func (s *TMDBService) ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	if size == "" {
		size = "original"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return s.imageBaseURL + "/" + size + path
}

// SearchMovies queries /search/movie for the first page of results.
func (s *TMDBService) SearchMovies(ctx context.Context, query string) ([]models.MovieSummary, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", "1")
	params.Set("include_adult", "false")

	var page searchPage
	if err := s.doRequest(ctx, "/search/movie", "/search/movie", params, &page); err != nil {
		return nil, err
	}
	if page.Results == nil {
		return nil, fmt.Errorf("%w: /search/movie: missing results", shared.ErrMalformedResponse)
	}
	return *page.Results, nil
}

// searchPage tells a missing or null results array apart from an empty one.
type searchPage struct {
	Results *[]models.MovieSummary `json:"results"`
}

// List fetches a page of a curated list.
func (s *TMDBService) List(ctx context.Context, list models.ListKind, page int) (*models.MoviePage, error) {
	if _, err := models.ParseListKind(string(list)); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	if page < 1 || page > models.MaxPage {
		return nil, fmt.Errorf("%w: page must be between 1 and %d", shared.ErrInvalidArgument, models.MaxPage)
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	if list.Regional() && s.region != "" {
		params.Set("region", s.region)
	}

	var result models.MoviePage
	if err := s.doRequest(ctx, list.Path(), list.Path(), params, &result); err != nil {
		return nil, err
	}
	result.TotalPages = models.ClampTotalPages(result.TotalPages)
	return &result, nil
}

// Discover queries /discover/movie with validated filters.
func (s *TMDBService) Discover(ctx context.Context, filters models.DiscoverFilters) (*models.MoviePage, error) {
	if err := filters.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	var result models.MoviePage
	if err := s.doRequest(ctx, "/discover/movie", "/discover/movie", filters.Values(), &result); err != nil {
		return nil, err
	}
	result.TotalPages = models.ClampTotalPages(result.TotalPages)
	return &result, nil
}

// Movie fetches /movie/{id} with credits, videos, images, recommendations and watch providers appended.
func (s *TMDBService) Movie(ctx context.Context, id int) (*models.MovieDetails, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: movie id must be positive", shared.ErrInvalidArgument)
	}

	params := url.Values{}
	params.Set("append_to_response", detailAppends)

	var details models.MovieDetails
	if err := s.doRequest(ctx, "/movie/{id}", fmt.Sprintf("/movie/%d", id), params, &details); err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: %d", shared.ErrMovieNotFound, id)
		}
		return nil, err
	}
	return &details, nil
}

// Collection fetches /collection/{id}.
func (s *TMDBService) Collection(ctx context.Context, id int) (*models.Collection, error) {
	var collection models.Collection
	if err := s.doRequest(ctx, "/collection/{id}", fmt.Sprintf("/collection/%d", id), nil, &collection); err != nil {
		return nil, err
	}
	return &collection, nil
}

// Person fetches /person/{id} with movie_credits appended.
func (s *TMDBService) Person(ctx context.Context, id int) (*models.Person, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: person id must be positive", shared.ErrInvalidArgument)
	}

	params := url.Values{}
	params.Set("append_to_response", "movie_credits")

	var person models.Person
	if err := s.doRequest(ctx, "/person/{id}", fmt.Sprintf("/person/%d", id), params, &person); err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: %d", shared.ErrPersonNotFound, id)
		}
		return nil, err
	}
	return &person, nil
}

// Genres fetches /genre/movie/list.
func (s *TMDBService) Genres(ctx context.Context) ([]models.Genre, error) {
	var list models.GenreList
	if err := s.doRequest(ctx, "/genre/movie/list", "/genre/movie/list", nil, &list); err != nil {
		return nil, err
	}
	return list.Genres, nil
}

// doRequest performs an authenticated GET against path and decodes the JSON body into result.
//
// endpoint is the low-cardinality template reported to the observer.
func (s *TMDBService) doRequest(ctx context.Context, endpoint, path string, params url.Values, result any) error {
	if !s.Authenticated() {
		return shared.ErrMissingCredentials
	}

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	if !query.Has("language") {
		query.Set("language", s.language)
	}

	cacheKey := path + "?" + query.Encode()
	if body, ok := s.cacheGet(ctx, cacheKey); ok {
		if err := json.Unmarshal(body, result); err == nil {
			return nil
		}
	}

	if s.apiKey != "" && !s.bearer {
		query.Set("api_key", s.apiKey)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.observe(endpoint, 0, started)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	s.observe(endpoint, resp.StatusCode, started)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Debug("tmdb request failed", "endpoint", endpoint, "status", resp.StatusCode)
		return &StatusError{Path: path, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrMalformedResponse, path, err)
	}

	s.cacheSet(ctx, cacheKey, body)
	return nil
}

func (s *TMDBService) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	body, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache read failed", "key", key, "error", err)
		return nil, false
	}
	return body, ok
}

func (s *TMDBService) cacheSet(ctx context.Context, key string, body []byte) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, body, s.cacheTTL); err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

func (s *TMDBService) observe(endpoint string, status int, started time.Time) {
	if s.observer != nil {
		s.observer(endpoint, status, time.Since(started))
	}
}
