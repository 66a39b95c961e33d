package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/repositories"
	"github.com/desertthunder/moviex/internal/shared"
	"golang.org/x/time/rate"
)

// MovieRefreshResult is the outcome of refreshing one saved movie.
type MovieRefreshResult struct {
	TMDBID int
	Title  string
	Error  error
}

// RefreshResult summarises a [SavedEngine.RefreshSaved] run.
type RefreshResult struct {
	Total     int
	Refreshed int
	Failed    int
	Results   []MovieRefreshResult
}

// Failures returns the per-movie results that carry an error.
func (r *RefreshResult) Failures() []MovieRefreshResult {
	var failed []MovieRefreshResult
	for _, res := range r.Results {
		if res.Error != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

type refreshJob struct {
	bookmark *models.Bookmark
}

type fetchedMovie struct {
	bookmark *models.Bookmark
	details  *models.MovieDetails
	err      error
}

// RefreshSaved re-fetches the details of every saved movie and stores the fresh metadata.
//
// Fetches run on a worker pool sharing one rate limiter; store writes happen on the calling goroutine.
// A failing movie keeps its old metadata and is reported in the result.
// The returned error is non-nil only when the list cannot be loaded or ctx ends the run early.
func (e *SavedEngine) RefreshSaved(ctx context.Context, progress chan<- ProgressUpdate) (*RefreshResult, error) {
	if e.movies == nil || e.store == nil {
		return nil, fmt.Errorf("%w: refresh requires a movie service and a bookmark store", shared.ErrServiceUnavailable)
	}

	bookmarks, err := e.store.List(repositories.ListCriteria{})
	if err != nil {
		return nil, fmt.Errorf("failed to load saved movies: %w", err)
	}
	e.sendProgress(progress, loadSavedUpdate(len(bookmarks)))

	result := &RefreshResult{
		Total:   len(bookmarks),
		Results: make([]MovieRefreshResult, 0, len(bookmarks)),
	}
	if len(bookmarks) == 0 {
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Limit(e.rate), 1)
	jobs := make(chan refreshJob, len(bookmarks))
	fetched := make(chan fetchedMovie, len(bookmarks))

	var wg sync.WaitGroup
	for i := 0; i < min(e.workers, len(bookmarks)); i++ {
		wg.Add(1)
		go e.refreshWorker(ctx, &wg, limiter, jobs, fetched)
	}

	for _, b := range bookmarks {
		jobs <- refreshJob{bookmark: b}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(fetched)
	}()

	e.sendProgress(progress, refreshStartUpdate(len(bookmarks)))

	for f := range fetched {
		res := e.applyRefresh(f)
		result.Results = append(result.Results, res)
		if res.Error != nil {
			result.Failed++
			e.logger.Warn("refresh failed", "tmdb_id", res.TMDBID, "error", res.Error)
		} else {
			result.Refreshed++
		}
		e.sendProgress(progress, refreshedUpdate(len(result.Results), result.Total, res))
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// refreshWorker fetches details for bookmarks from the jobs channel.
func (e *SavedEngine) refreshWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan refreshJob,
	fetched chan<- fetchedMovie,
) {
	defer wg.Done()

	for job := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			fetched <- fetchedMovie{bookmark: job.bookmark, err: err}
			continue
		}
		details, err := e.movies.Movie(ctx, job.bookmark.TMDBID())
		fetched <- fetchedMovie{bookmark: job.bookmark, details: details, err: err}
	}
}

func (e *SavedEngine) applyRefresh(f fetchedMovie) MovieRefreshResult {
	res := MovieRefreshResult{TMDBID: f.bookmark.TMDBID(), Title: f.bookmark.Title()}
	if f.err != nil {
		res.Error = f.err
		return res
	}
	if f.details == nil || !f.details.HasTitle() {
		res.Error = fmt.Errorf("%w: movie %d has no title", shared.ErrMalformedResponse, res.TMDBID)
		return res
	}

	f.bookmark.SetMovie(f.details.MovieSummary)
	if err := e.store.Update(f.bookmark); err != nil {
		res.Error = err
		return res
	}
	res.Title = f.bookmark.Title()
	return res
}
