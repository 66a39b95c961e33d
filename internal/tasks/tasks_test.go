package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/repositories"
	"github.com/desertthunder/moviex/internal/shared"
	tu "github.com/desertthunder/moviex/internal/testing"
)

func setupRepo(t *testing.T, movies ...models.MovieSummary) *repositories.BookmarkRepository {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := repositories.NewBookmarkRepository(db)
	for _, m := range movies {
		if _, _, err := repo.Add(m); err != nil {
			t.Fatalf("failed to seed %q: %v", m.Title, err)
		}
	}
	return repo
}

func drain(ch chan ProgressUpdate) []ProgressUpdate {
	var updates []ProgressUpdate
	for {
		select {
		case u := <-ch:
			updates = append(updates, u)
		default:
			return updates
		}
	}
}

var (
	inception = models.MovieSummary{ID: 27205, Title: "Inception", PosterPath: "/old.jpg", VoteAverage: 8.1, ReleaseDate: "2010-07-15", Popularity: 50}
	arrival   = models.MovieSummary{ID: 329865, Title: "Arrival", PosterPath: "/a.jpg", VoteAverage: 7.6, ReleaseDate: "2016-11-10", Popularity: 40}
	missing   = models.MovieSummary{ID: 4040, Title: "Gone Missing", ReleaseDate: "1999-01-01"}
)

type failingStore struct {
	bookmarks []*models.Bookmark
	listErr   error
	updateErr error
}

func (s *failingStore) List(repositories.ListCriteria) ([]*models.Bookmark, error) {
	return s.bookmarks, s.listErr
}

func (s *failingStore) Update(*models.Bookmark) error { return s.updateErr }

func TestNewSavedEngine(t *testing.T) {
	tests := []struct {
		name        string
		opts        EngineOpts
		wantWorkers int
		wantRate    float64
	}{
		{"defaults", EngineOpts{}, defaultWorkers, defaultRateLimit},
		{"custom", EngineOpts{NumWorkers: 2, RateLimit: 1}, 2, 1},
		{"clamped workers", EngineOpts{NumWorkers: 50}, maxWorkers, defaultRateLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewSavedEngine(nil, nil, tt.opts)
			if e.workers != tt.wantWorkers {
				t.Errorf("workers = %d, want %d", e.workers, tt.wantWorkers)
			}
			if e.rate != tt.wantRate {
				t.Errorf("rate = %v, want %v", e.rate, tt.wantRate)
			}
			if e.logger == nil {
				t.Error("expected a default logger")
			}
		})
	}
}

func TestRefreshSaved(t *testing.T) {
	t.Run("updates stored metadata", func(t *testing.T) {
		repo := setupRepo(t, inception, arrival)
		svc := tu.NewFakeMovieService()

		fresh := inception
		fresh.PosterPath = "/new.jpg"
		fresh.VoteAverage = 8.4
		fresh.Popularity = 95
		svc.AddMovie(fresh)
		svc.AddMovie(arrival)

		engine := NewSavedEngine(svc, repo, EngineOpts{NumWorkers: 2, RateLimit: 100})
		progress := make(chan ProgressUpdate, 32)

		result, err := engine.RefreshSaved(context.Background(), progress)
		if err != nil {
			t.Fatalf("RefreshSaved failed: %v", err)
		}

		if result.Total != 2 || result.Refreshed != 2 || result.Failed != 0 {
			t.Errorf("got total=%d refreshed=%d failed=%d, want 2/2/0", result.Total, result.Refreshed, result.Failed)
		}
		if svc.Calls("Movie") != 2 {
			t.Errorf("expected 2 Movie calls, got %d", svc.Calls("Movie"))
		}

		stored, err := repo.Get(inception.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if stored.Movie().PosterPath != "/new.jpg" || stored.Movie().VoteAverage != 8.4 {
			t.Errorf("stored metadata not refreshed: %+v", stored.Movie())
		}

		updates := drain(progress)
		if len(updates) == 0 || updates[0].Phase != LoadSaved {
			t.Fatalf("expected a load_saved update first, got %+v", updates)
		}
		last := updates[len(updates)-1]
		if last.Phase != RefreshMovies || last.Step != 2 || last.Total != 2 {
			t.Errorf("last update = %+v, want refresh step 2/2", last)
		}
	})

	t.Run("reports per-movie failures", func(t *testing.T) {
		repo := setupRepo(t, inception, missing)
		svc := tu.NewFakeMovieService()
		svc.AddMovie(inception)

		engine := NewSavedEngine(svc, repo, EngineOpts{NumWorkers: 3, RateLimit: 100})
		result, err := engine.RefreshSaved(context.Background(), nil)
		if err != nil {
			t.Fatalf("RefreshSaved failed: %v", err)
		}

		if result.Refreshed != 1 || result.Failed != 1 {
			t.Errorf("refreshed=%d failed=%d, want 1/1", result.Refreshed, result.Failed)
		}

		failures := result.Failures()
		if len(failures) != 1 || failures[0].TMDBID != missing.ID {
			t.Fatalf("expected failure for %d, got %+v", missing.ID, failures)
		}
		if failures[0].Title != "Gone Missing" {
			t.Errorf("failure should keep the stored title, got %q", failures[0].Title)
		}

		stored, err := repo.Get(missing.ID)
		if err != nil {
			t.Fatalf("failed movie should stay saved: %v", err)
		}
		if stored.Title() != "Gone Missing" {
			t.Errorf("failed movie metadata changed: %q", stored.Title())
		}
	})

	t.Run("rejects untitled details", func(t *testing.T) {
		repo := setupRepo(t, arrival)
		svc := tu.NewFakeMovieService()
		svc.AddMovie(models.MovieSummary{ID: arrival.ID, Title: "  "})

		engine := NewSavedEngine(svc, repo, EngineOpts{RateLimit: 100})
		result, err := engine.RefreshSaved(context.Background(), nil)
		if err != nil {
			t.Fatalf("RefreshSaved failed: %v", err)
		}
		if result.Failed != 1 || !errors.Is(result.Results[0].Error, shared.ErrMalformedResponse) {
			t.Errorf("expected ErrMalformedResponse, got %+v", result.Results)
		}

		stored, _ := repo.Get(arrival.ID)
		if stored.Title() != "Arrival" {
			t.Errorf("title overwritten with %q", stored.Title())
		}
	})

	t.Run("empty list", func(t *testing.T) {
		repo := setupRepo(t)
		svc := tu.NewFakeMovieService()

		result, err := NewSavedEngine(svc, repo, EngineOpts{}).RefreshSaved(context.Background(), nil)
		if err != nil {
			t.Fatalf("RefreshSaved failed: %v", err)
		}
		if result.Total != 0 || svc.Calls("Movie") != 0 {
			t.Errorf("expected no work, got total=%d calls=%d", result.Total, svc.Calls("Movie"))
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		repo := setupRepo(t, inception, arrival)
		svc := tu.NewFakeMovieService()
		svc.AddMovie(inception)
		svc.AddMovie(arrival)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := NewSavedEngine(svc, repo, EngineOpts{RateLimit: 100}).RefreshSaved(ctx, nil)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if result == nil || result.Failed != 2 {
			t.Errorf("expected both movies reported as failed, got %+v", result)
		}
	})

	t.Run("store errors", func(t *testing.T) {
		svc := tu.NewFakeMovieService()
		svc.AddMovie(inception)

		listFail := &failingStore{listErr: errors.New("disk gone")}
		if _, err := NewSavedEngine(svc, listFail, EngineOpts{}).RefreshSaved(context.Background(), nil); err == nil {
			t.Error("expected list error")
		}

		b := models.NewBookmark(1, inception)
		b.SetID("b1")
		updateFail := &failingStore{bookmarks: []*models.Bookmark{b}, updateErr: shared.ErrBookmarkNotFound}
		result, err := NewSavedEngine(svc, updateFail, EngineOpts{RateLimit: 100}).RefreshSaved(context.Background(), nil)
		if err != nil {
			t.Fatalf("update failures should not fail the run: %v", err)
		}
		if result.Failed != 1 || !errors.Is(result.Results[0].Error, shared.ErrBookmarkNotFound) {
			t.Errorf("expected ErrBookmarkNotFound, got %+v", result.Results)
		}
	})

	t.Run("missing dependencies", func(t *testing.T) {
		_, err := NewSavedEngine(nil, nil, EngineOpts{}).RefreshSaved(context.Background(), nil)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestExportSaved(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		want    string
	}{
		{"json", ".json", `"title": "Inception"`},
		{"csv", ".csv", "id,title,year,rating,popularity,release_date,poster_url"},
		{"md", ".md", "# Saved Movies"},
		{"txt", ".txt", "List: Saved Movies"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			repo := setupRepo(t, inception, arrival)
			dir := t.TempDir()
			progress := make(chan ProgressUpdate, 8)

			result, err := NewSavedEngine(nil, repo, EngineOpts{}).ExportSaved(context.Background(), progress, ExportOpts{
				Format:    tt.format,
				OutputDir: dir,
				PosterURL: func(path string) string { return "https://image.test/w342" + path },
			})
			if err != nil {
				t.Fatalf("ExportSaved failed: %v", err)
			}

			if result.Count != 2 {
				t.Errorf("count = %d, want 2", result.Count)
			}
			if filepath.Ext(result.Path) != tt.wantExt {
				t.Errorf("path %q should end in %s", result.Path, tt.wantExt)
			}
			if filepath.Dir(result.Path) != dir {
				t.Errorf("export written outside %s: %s", dir, result.Path)
			}

			tu.AssertFileExists(t, result.Path)
			content := tu.MustReadFile(t, result.Path)
			if !strings.Contains(content, tt.want) {
				t.Errorf("export missing %q:\n%s", tt.want, content)
			}

			updates := drain(progress)
			if len(updates) != 3 || updates[2].Data != result.Path {
				t.Errorf("unexpected progress updates: %+v", updates)
			}
		})
	}

	t.Run("applies filter and custom name", func(t *testing.T) {
		repo := setupRepo(t, inception, arrival)
		dir := t.TempDir()

		result, err := NewSavedEngine(nil, repo, EngineOpts{}).ExportSaved(context.Background(), nil, ExportOpts{
			Format:    "txt",
			OutputDir: dir,
			Name:      "dreams",
			Title:     "Dream Movies",
			Criteria:  repositories.ListCriteria{Query: "incep"},
		})
		if err != nil {
			t.Fatalf("ExportSaved failed: %v", err)
		}
		if result.Count != 1 || filepath.Base(result.Path) != "dreams.txt" {
			t.Errorf("unexpected result %+v", result)
		}

		content := tu.MustReadFile(t, result.Path)
		if !strings.Contains(content, "List: Dream Movies") || strings.Contains(content, "Arrival") {
			t.Errorf("filtered export wrong:\n%s", content)
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		repo := setupRepo(t, inception)
		_, err := NewSavedEngine(nil, repo, EngineOpts{}).ExportSaved(context.Background(), nil, ExportOpts{Format: "pdf", OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("missing store", func(t *testing.T) {
		_, err := NewSavedEngine(nil, nil, EngineOpts{}).ExportSaved(context.Background(), nil, ExportOpts{Format: "json"})
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestPhaseString(t *testing.T) {
	for phase, want := range map[Phase]string{
		LoadSaved:     "load_saved",
		RefreshMovies: "refresh_movies",
		ExportMovies:  "export_movies",
		Phase(99):     "",
	} {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", phase, got, want)
		}
	}
}
