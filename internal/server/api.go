package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviex/internal/catalog"
	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/repositories"
	"github.com/desertthunder/moviex/internal/search"
	"github.com/desertthunder/moviex/internal/services"
	"github.com/desertthunder/moviex/internal/shared"
)

const maxBodyBytes = 1 << 16

// BookmarkStore is the subset of [repositories.BookmarkRepository] served under /api/saved.
type BookmarkStore interface {
	List(criteria repositories.ListCriteria) ([]*models.Bookmark, error)
	Add(movie models.MovieSummary) (*models.Bookmark, bool, error)
	Exists(tmdbID int) (bool, error)
	Remove(tmdbID int) error
	Clear() (int, error)
}

// APIOpts configures an [API].
type APIOpts struct {
	Movies    services.MovieService
	Catalog   *catalog.Cache
	Bookmarks BookmarkStore
	Policy    search.Policy
	Recorder  search.Recorder // Counts searches issued and failed
	Logger    *log.Logger
}

// API serves the JSON endpoints under /api.
type API struct {
	movies    services.MovieService
	catalog   *catalog.Cache
	bookmarks BookmarkStore
	policy    search.Policy
	recorder  search.Recorder
	logger    *log.Logger
}

// NewAPI creates an API. A zero Policy is replaced by [search.DefaultPolicy].
func NewAPI(opts APIOpts) *API {
	if opts.Policy == (search.Policy{}) {
		opts.Policy = search.DefaultPolicy()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.Catalog == nil && opts.Movies != nil {
		opts.Catalog = catalog.New(opts.Movies, opts.Logger)
	}
	return &API{
		movies:    opts.Movies,
		catalog:   opts.Catalog,
		bookmarks: opts.Bookmarks,
		policy:    opts.Policy,
		recorder:  opts.Recorder,
		logger:    opts.Logger,
	}
}

// Register adds every /api route to router.
func (a *API) Register(router Router) {
	router.Handle(http.MethodGet, "/api/search", http.HandlerFunc(a.handleSearch))
	router.Handle(http.MethodGet, "/api/movies/{id}", http.HandlerFunc(a.handleMovie))
	router.Handle(http.MethodGet, "/api/catalog", http.HandlerFunc(a.handleCatalog))
	router.Handle(http.MethodGet, "/api/saved", http.HandlerFunc(a.handleListSaved))
	router.Handle(http.MethodPost, "/api/saved", http.HandlerFunc(a.handleAddSaved))
	router.Handle(http.MethodDelete, "/api/saved", http.HandlerFunc(a.handleClearSaved))
	router.Handle(http.MethodDelete, "/api/saved/{id}", http.HandlerFunc(a.handleRemoveSaved))
}

type searchResponse struct {
	Query   string                `json:"query"`
	Results []models.MovieSummary `json:"results"`
}

// handleSearch answers one settled query. Queries below the minimum length return no results
// without calling TMDB, matching the interactive search box.
func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !a.ready(w) {
		return
	}

	query := r.URL.Query().Get("q")
	resp := searchResponse{Query: strings.TrimSpace(query), Results: []models.MovieSummary{}}
	if !a.policy.Searchable(query) {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	ctx := r.Context()
	if a.policy.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.policy.RequestTimeout)
		defer cancel()
	}

	if a.recorder != nil {
		a.recorder.RequestIssued()
	}
	movies, err := a.movies.SearchMovies(ctx, resp.Query)
	if err != nil {
		if a.recorder != nil {
			a.recorder.RequestFailed()
		}
		a.fail(w, err, "search failed")
		return
	}
	if filtered := a.policy.Apply(movies); len(filtered) > 0 {
		resp.Results = filtered
	}
	writeJSON(w, http.StatusOK, resp)
}

type movieResponse struct {
	Movie     *models.MovieDetails `json:"movie"`
	PosterURL string               `json:"poster_url,omitempty"`
	Saved     bool                 `json:"saved"`
}

func (a *API) handleMovie(w http.ResponseWriter, r *http.Request) {
	if !a.ready(w) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	movie, err := a.movies.Movie(r.Context(), id)
	if err != nil {
		a.fail(w, err, "movie lookup failed")
		return
	}

	resp := movieResponse{Movie: movie, PosterURL: a.movies.ImageURL(movie.PosterPath, services.PosterSize)}
	if a.bookmarks != nil {
		if saved, err := a.bookmarks.Exists(id); err == nil {
			resp.Saved = saved
		} else {
			a.logger.Warn("bookmark lookup failed", "tmdb_id", id, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type catalogResponse struct {
	Sections []catalog.Section `json:"sections"`
}

// handleCatalog returns the home feed, loading it on first use. ?refresh=1 reloads it.
func (a *API) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if a.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "catalog is not configured")
		return
	}

	var err error
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		err = a.catalog.Refresh(r.Context())
	} else {
		err = a.catalog.Initialize(r.Context())
	}
	if err != nil {
		a.fail(w, err, "catalog load failed")
		return
	}

	writeJSON(w, http.StatusOK, catalogResponse{Sections: a.catalog.Sections()})
}

type savedResponse struct {
	Count  int                `json:"count"`
	Movies []*models.Bookmark `json:"movies"`
}

func (a *API) handleListSaved(w http.ResponseWriter, r *http.Request) {
	if !a.storeReady(w) {
		return
	}

	sort, err := repositories.ParseSortField(r.URL.Query().Get("sort"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_argument", err.Error())
		return
	}

	bookmarks, err := a.bookmarks.List(repositories.ListCriteria{Query: r.URL.Query().Get("query"), Sort: sort})
	if err != nil {
		a.fail(w, err, "failed to list saved movies")
		return
	}
	if bookmarks == nil {
		bookmarks = []*models.Bookmark{}
	}
	writeJSON(w, http.StatusOK, savedResponse{Count: len(bookmarks), Movies: bookmarks})
}

type addSavedRequest struct {
	ID int `json:"id"`
}

// handleAddSaved saves a movie by TMDB id. The summary is fetched from TMDB so the stored
// row always carries upstream metadata. 201 when newly saved, 200 when it already was.
func (a *API) handleAddSaved(w http.ResponseWriter, r *http.Request) {
	if !a.ready(w) || !a.storeReady(w) {
		return
	}

	var req addSavedRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "body must be JSON like {\"id\": 27205}")
		return
	}
	if req.ID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_argument", "id must be a positive TMDB movie id")
		return
	}

	movie, err := a.movies.Movie(r.Context(), req.ID)
	if err != nil {
		a.fail(w, err, "movie lookup failed")
		return
	}

	bookmark, added, err := a.bookmarks.Add(movie.MovieSummary)
	if err != nil {
		a.fail(w, err, "failed to save movie")
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, bookmark)
}

func (a *API) handleRemoveSaved(w http.ResponseWriter, r *http.Request) {
	if !a.storeReady(w) {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := a.bookmarks.Remove(id); err != nil {
		a.fail(w, err, "failed to remove saved movie")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleClearSaved(w http.ResponseWriter, r *http.Request) {
	if !a.storeReady(w) {
		return
	}

	removed, err := a.bookmarks.Clear()
	if err != nil {
		a.fail(w, err, "failed to clear saved movies")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (a *API) ready(w http.ResponseWriter) bool {
	if a.movies == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "movie service is not configured")
		return false
	}
	return true
}

func (a *API) storeReady(w http.ResponseWriter) bool {
	if a.bookmarks == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "bookmark store is not configured")
		return false
	}
	return true
}

// fail maps err to a status code. Upstream failures are logged and answered with message only.
func (a *API) fail(w http.ResponseWriter, err error, message string) {
	status, code := statusFor(err)
	switch code {
	case "upstream_error":
		a.logger.Error(message, "error", err)
	case "timeout":
		message = "request timed out"
	default:
		message = err.Error()
	}
	writeError(w, status, code, message)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, shared.ErrMovieNotFound),
		errors.Is(err, shared.ErrPersonNotFound),
		errors.Is(err, shared.ErrBookmarkNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, shared.ErrMissingCredentials):
		return http.StatusServiceUnavailable, "missing_credentials"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusBadGateway, "upstream_error"
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_argument", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

type healthHandler struct {
	started time.Time
}

func (h healthHandler) Routes() []string { return []string{"GET /healthz"} }

func (h healthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"timestamp": time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
