package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/moviex/internal/formatter"
	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/repositories"
	"github.com/desertthunder/moviex/internal/shared"
)

// ExportOpts contains configuration for exporting saved movies.
type ExportOpts struct {
	Format    string                    // Export format: json, csv, markdown, txt
	OutputDir string                    // Output directory (default: moviex_export_{epoch})
	Name      string                    // Base filename without extension (default: saved_movies)
	Title     string                    // Heading written into markdown/text/json (default: Saved Movies)
	Criteria  repositories.ListCriteria // Filter and sort applied to the saved list
	PosterURL func(path string) string  // Resolves poster paths for csv/markdown
}

// ExportResult describes a finished export.
type ExportResult struct {
	Path   string
	Format formatter.Format
	Count  int
}

// ExportSaved writes the saved movies matching opts.Criteria to a single file.
func (e *SavedEngine) ExportSaved(ctx context.Context, progress chan<- ProgressUpdate, opts ExportOpts) (*ExportResult, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: bookmark store not initialized", shared.ErrServiceUnavailable)
	}

	format, err := formatter.ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("moviex_export_%d", time.Now().Unix())
	}
	if opts.Name == "" {
		opts.Name = "saved_movies"
	}
	if opts.Title == "" {
		opts.Title = "Saved Movies"
	}

	bookmarks, err := e.store.List(opts.Criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to load saved movies: %w", err)
	}
	e.sendProgress(progress, loadSavedUpdate(len(bookmarks)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	movies := make([]models.MovieSummary, len(bookmarks))
	for i, b := range bookmarks {
		movies[i] = b.Movie()
	}

	e.sendProgress(progress, exportingUpdate(len(movies), string(format)))

	export := &formatter.MovieExport{
		Title:      opts.Title,
		Movies:     movies,
		ExportedAt: time.Now().UTC(),
		PosterURL:  opts.PosterURL,
	}
	path, err := formatter.WriteExport(export, format, opts.OutputDir, opts.Name)
	if err != nil {
		return nil, fmt.Errorf("export failed: %w", err)
	}

	e.logger.Info("exported saved movies", "path", path, "count", len(movies))
	e.sendProgress(progress, exportedUpdate(path))

	return &ExportResult{Path: path, Format: format, Count: len(movies)}, nil
}
