package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/moviex/internal/formatter"
	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/repositories"
	"github.com/desertthunder/moviex/internal/services"
	"github.com/desertthunder/moviex/internal/tasks"
	"github.com/urfave/cli/v3"
)

type savedOutput struct {
	Count  int                `json:"count"`
	Movies []*models.Bookmark `json:"movies"`
}

// SavedList prints the saved movies, optionally filtered and sorted.
func (r *Runner) SavedList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.store()
	if err != nil {
		return err
	}
	criteria, err := listCriteria(cmd)
	if err != nil {
		return err
	}

	bookmarks, err := store.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list saved movies: %w", err)
	}

	if cmd.Bool("json") {
		if bookmarks == nil {
			bookmarks = []*models.Bookmark{}
		}
		return r.writeJSON(savedOutput{Count: len(bookmarks), Movies: bookmarks}, cmd.Bool("pretty"))
	}

	if len(bookmarks) == 0 {
		if criteria.Query != "" {
			return r.writePlain("No saved movies match %q\n", criteria.Query)
		}
		return r.writePlain("No saved movies yet. Try 'moviex saved add <id>'.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Saved Movies (%d)", len(bookmarks)))
	for i, b := range bookmarks {
		m := b.Movie()
		r.writePlain("%2d. %s (%s)  ★ %s  [id %d]  saved %s\n",
			i+1, m.Title, formatter.Year(m.ReleaseDate), formatter.FormatRating(m.VoteAverage), m.ID,
			b.CreatedAt().Local().Format("2006-01-02"))
	}
	return nil
}

func listCriteria(cmd *cli.Command) (repositories.ListCriteria, error) {
	sort, err := repositories.ParseSortField(cmd.String("sort"))
	if err != nil {
		return repositories.ListCriteria{}, err
	}
	return repositories.ListCriteria{Query: cmd.String("query"), Sort: sort}, nil
}

// SavedAdd fetches a movie from TMDB and saves it.
func (r *Runner) SavedAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireMovies(); err != nil {
		return err
	}
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	store, err := r.store()
	if err != nil {
		return err
	}

	movie, err := r.movies.Movie(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch movie %d: %w", id, err)
	}

	bookmark, added, err := store.Add(movie.MovieSummary)
	if err != nil {
		return fmt.Errorf("failed to save movie: %w", err)
	}

	r.logger.Info("saved movie", "tmdb_id", id, "added", added)
	if !added {
		return r.writePlain("%s is already saved\n", bookmark.Title())
	}
	return r.writePlain("✓ Saved %s (%s)\n", bookmark.Title(), formatter.Year(movie.ReleaseDate))
}

// SavedRemove removes a saved movie.
func (r *Runner) SavedRemove(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	store, err := r.store()
	if err != nil {
		return err
	}

	if err := store.Remove(id); err != nil {
		return fmt.Errorf("failed to remove movie %d: %w", id, err)
	}
	return r.writePlain("✓ Removed %d\n", id)
}

// SavedClear removes every saved movie.
func (r *Runner) SavedClear(ctx context.Context, cmd *cli.Command) error {
	store, err := r.store()
	if err != nil {
		return err
	}

	removed, err := store.Clear()
	if err != nil {
		return fmt.Errorf("failed to clear saved movies: %w", err)
	}
	return r.writePlain("✓ Removed %d saved movies\n", removed)
}

// SavedRefresh re-fetches TMDB metadata for every saved movie.
func (r *Runner) SavedRefresh(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireMovies(); err != nil {
		return err
	}
	store, err := r.store()
	if err != nil {
		return err
	}

	engine := tasks.NewSavedEngine(r.movies, store, tasks.EngineOpts{
		NumWorkers: cmd.Int("workers"),
		Logger:     r.logger,
	})

	progressCh, wait := r.printProgress()
	result, err := engine.RefreshSaved(ctx, progressCh)
	close(progressCh)
	wait()

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Refresh Complete!")
	r.writePlain("Refreshed: %d/%d\n", result.Refreshed, result.Total)

	if failures := result.Failures(); len(failures) > 0 {
		r.writePlain("\nFailed to refresh %d movies:\n", len(failures))
		for _, f := range failures {
			r.writePlain("  - %s [id %d]: %v\n", f.Title, f.TMDBID, f.Error)
		}
	}
	return nil
}

// SavedExport writes the saved movies to a file in the requested format.
func (r *Runner) SavedExport(ctx context.Context, cmd *cli.Command) error {
	store, err := r.store()
	if err != nil {
		return err
	}
	criteria, err := listCriteria(cmd)
	if err != nil {
		return err
	}

	engine := tasks.NewSavedEngine(r.movies, store, tasks.EngineOpts{Logger: r.logger})

	opts := tasks.ExportOpts{
		Format:    cmd.String("format"),
		OutputDir: cmd.String("output"),
		Name:      cmd.String("name"),
		Criteria:  criteria,
	}
	if r.movies != nil {
		opts.PosterURL = func(path string) string { return r.movies.ImageURL(path, services.PosterSize) }
	}

	progressCh, wait := r.printProgress()
	result, err := engine.ExportSaved(ctx, progressCh, opts)
	close(progressCh)
	wait()

	if err != nil {
		return err
	}

	r.writePlain("\n✓ Exported %d movies as %s to %s\n", result.Count, result.Format, result.Path)
	return nil
}

// printProgress prints engine updates until the returned channel is closed; wait blocks until the last one is written.
func (r *Runner) printProgress() (chan tasks.ProgressUpdate, func()) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progressCh {
			switch update.Phase {
			case tasks.LoadSaved:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.RefreshMovies:
				if update.Step == 0 {
					r.writePlain("\n🔄 %s\n", update.Message)
				} else {
					r.writePlain("   %s\n", update.Message)
				}
			case tasks.ExportMovies:
				r.writePlain("📝 %s\n", update.Message)
			}
		}
	}()
	return progressCh, wg.Wait
}
