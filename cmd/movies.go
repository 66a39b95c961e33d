package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/desertthunder/moviex/internal/catalog"
	"github.com/desertthunder/moviex/internal/formatter"
	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/palette"
	"github.com/desertthunder/moviex/internal/services"
	"github.com/desertthunder/moviex/internal/shared"
	"github.com/urfave/cli/v3"
)

const themePosterSize = "w92"

type searchOutput struct {
	Query   string                `json:"query"`
	Results []models.MovieSummary `json:"results"`
}

// Search runs one settled query through the same policy as the interactive search box.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireMovies(); err != nil {
		return err
	}

	query := strings.TrimSpace(cmd.StringArg("query"))
	policy := r.policy()
	if limit := cmd.Int("limit"); limit > 0 {
		policy.MaxResults = limit
	}
	if !policy.Searchable(query) {
		return fmt.Errorf("%w: query must be at least %d characters", shared.ErrInvalidArgument, policy.MinQueryLength)
	}

	r.logger.Debug("searching", "query", query)

	ctx, cancel := context.WithTimeout(ctx, policy.RequestTimeout)
	defer cancel()

	movies, err := r.movies.SearchMovies(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	results := policy.Apply(movies)

	if cmd.Bool("json") {
		if results == nil {
			results = []models.MovieSummary{}
		}
		return r.writeJSON(searchOutput{Query: query, Results: results}, cmd.Bool("pretty"))
	}

	if len(results) == 0 {
		return r.writePlain("No movies found for %q\n", query)
	}
	r.writePlain("%d results for %q\n\n", len(results), query)
	r.printMovies(results)
	return nil
}

// Discover lists movies matching the filter flags.
func (r *Runner) Discover(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireMovies(); err != nil {
		return err
	}

	if cmd.Bool("list-genres") {
		genres, err := r.movies.Genres(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch genres: %w", err)
		}
		if cmd.Bool("json") {
			return r.writeJSON(genres, cmd.Bool("pretty"))
		}
		for _, g := range genres {
			r.writePlain("%6d  %s\n", g.ID, g.Name)
		}
		return nil
	}

	filters, err := discoverFilters(cmd)
	if err != nil {
		return err
	}

	r.logger.Debug("discovering", "params", filters.Values().Encode())

	page, err := r.movies.Discover(ctx, filters)
	if err != nil {
		return fmt.Errorf("discover failed: %w", err)
	}
	return r.writePage(cmd, "Discover", page)
}

func discoverFilters(cmd *cli.Command) (models.DiscoverFilters, error) {
	genres, err := models.ParseIDList(cmd.String("genre"))
	if err != nil {
		return models.DiscoverFilters{}, fmt.Errorf("%w: --genre: %v", shared.ErrInvalidFlag, err)
	}
	keywords, err := models.ParseIDList(cmd.String("keywords"))
	if err != nil {
		return models.DiscoverFilters{}, fmt.Errorf("%w: --keywords: %v", shared.ErrInvalidFlag, err)
	}

	filters := models.DiscoverFilters{
		Genres:    genres,
		Language:  cmd.String("language"),
		Year:      cmd.Int("year"),
		MinRating: cmd.Float("rating"),
		SortBy:    cmd.String("sort"),
		Keywords:  keywords,
		Page:      cmd.Int("page"),
	}
	if err := filters.Validate(); err != nil {
		return models.DiscoverFilters{}, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	return filters, nil
}

// Explore shows one page of a curated list.
func (r *Runner) Explore(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireMovies(); err != nil {
		return err
	}

	name := cmd.StringArg("list")
	if name == "" {
		name = string(models.ListTrending)
	}
	kind, err := models.ParseListKind(name)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	page := cmd.Int("page")
	if page < 1 || page > models.MaxPage {
		return fmt.Errorf("%w: page must be between 1 and %d", shared.ErrInvalidFlag, models.MaxPage)
	}

	result, err := r.movies.List(ctx, kind, page)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", kind, err)
	}
	return r.writePage(cmd, titleCase(string(kind)), result)
}

func (r *Runner) writePage(cmd *cli.Command, title string, page *models.MoviePage) error {
	if cmd.Bool("json") {
		return r.writeJSON(page, cmd.Bool("pretty"))
	}

	r.writePlainHeader(title)
	if len(page.Results) == 0 {
		return r.writePlain("No movies found\n")
	}
	r.printMovies(page.Results)
	return r.writePlain("\nPage %d of %d (%d movies)\n", page.Page, models.ClampTotalPages(page.TotalPages), page.TotalResults)
}

type movieOutput struct {
	*models.MovieDetails
	PosterURL string       `json:"poster_url,omitempty"`
	Theme     *themeOutput `json:"theme,omitempty"`
}

type themeOutput struct {
	Background string `json:"background"`
	Lighter    string `json:"lighter"`
	Darker     string `json:"darker"`
	Text       string `json:"text"`
}

// Movie prints full details for one movie.
func (r *Runner) Movie(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireMovies(); err != nil {
		return err
	}
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	movie, err := r.movies.Movie(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch movie %d: %w", id, err)
	}

	out := movieOutput{MovieDetails: movie, PosterURL: r.movies.ImageURL(movie.PosterPath, services.PosterSize)}
	if cmd.Bool("theme") {
		out.Theme = r.posterTheme(ctx, movie.MovieSummary)
	}

	if cmd.Bool("open") {
		url := shared.MoviePageURL(id)
		if err := r.openURL(url); err != nil {
			r.logger.Warn("failed to open browser", "url", url, "error", err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(out, cmd.Bool("pretty"))
	}
	r.printMovie(out)
	return nil
}

// posterTheme samples the poster's dominant colour; without a poster the fallback theme is used.
func (r *Runner) posterTheme(ctx context.Context, movie models.MovieSummary) *themeOutput {
	base := palette.Fallback
	if movie.HasPoster() {
		c, err := palette.Extract(ctx, r.httpClient, r.movies.ImageURL(movie.PosterPath, themePosterSize))
		if err != nil {
			r.logger.Debug("poster theme fallback", "tmdb_id", movie.ID, "error", err)
		}
		base = c
	}

	theme := palette.NewTheme(base)
	return &themeOutput{
		Background: theme.Background.Hex(),
		Lighter:    theme.Lighter.Hex(),
		Darker:     theme.Darker.Hex(),
		Text:       theme.Text.Hex(),
	}
}

func (r *Runner) printMovie(out movieOutput) {
	m := out.MovieDetails

	r.writePlainHeader(fmt.Sprintf("%s (%s)", m.Title, formatter.Year(m.ReleaseDate)))
	if m.Tagline != "" {
		r.writePlain("%s\n\n", m.Tagline)
	}
	r.writePlain("Rating:     ★ %s (%d votes)\n", formatter.FormatRating(m.VoteAverage), m.VoteCount)
	r.writePlain("Runtime:    %s\n", formatter.FormatRuntime(m.Runtime))
	r.writePlain("Released:   %s\n", valueOr(m.ReleaseDate, "N/A"))
	if genres := m.GenreNames(); len(genres) > 0 {
		r.writePlain("Genres:     %s\n", strings.Join(genres, ", "))
	}
	if directors := m.Credits.Directors(); len(directors) > 0 {
		r.writePlain("Director:   %s\n", strings.Join(directors, ", "))
	}
	if cast := m.Credits.TopCast(5); len(cast) > 0 {
		names := make([]string, len(cast))
		for i, c := range cast {
			names[i] = c.Name
		}
		r.writePlain("Cast:       %s\n", strings.Join(names, ", "))
	}
	if m.Collection != nil {
		r.writePlain("Collection: %s\n", m.Collection.Name)
	}
	if video, ok := m.Videos.Trailer(); ok {
		r.writePlain("Trailer:    %s\n", video.URL())
	}
	if out.PosterURL != "" {
		r.writePlain("Poster:     %s\n", out.PosterURL)
	}
	if out.Theme != nil {
		r.writePlain("Theme:      %s (text %s)\n", out.Theme.Background, out.Theme.Text)
	}
	if m.Overview != "" {
		r.writePlainln("%s", m.Overview)
	}
	if recs := m.Recommendations.Results; len(recs) > 0 {
		r.writePlain("\nRecommended:\n")
		r.printMovies(recs[:min(len(recs), 5)])
	}
}

// Person prints a person with their best known movies.
func (r *Runner) Person(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireMovies(); err != nil {
		return err
	}
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	person, err := r.movies.Person(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch person %d: %w", id, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(person, cmd.Bool("pretty"))
	}

	r.writePlainHeader(person.Name)
	r.writePlain("Known for:  %s\n", valueOr(person.KnownForDepartment, "N/A"))
	r.writePlain("Born:       %s\n", valueOr(person.Birthday, "N/A"))
	if person.PlaceOfBirth != "" {
		r.writePlain("Birthplace: %s\n", person.PlaceOfBirth)
	}
	if person.Deathday != "" {
		r.writePlain("Died:       %s\n", person.Deathday)
	}
	if person.Biography != "" {
		r.writePlainln("%s", person.Biography)
	}

	credits := knownFor(person.MovieCredits, cmd.Int("limit"))
	if len(credits) > 0 {
		r.writePlain("\nMovies:\n")
		for i, c := range credits {
			role := c.Character
			if role == "" {
				role = c.Job
			}
			r.writePlain("%2d. %s (%s)", i+1, c.Title, formatter.Year(c.ReleaseDate))
			if role != "" {
				r.writePlain(" as %s", role)
			}
			r.writePlain("  [id %d]\n", c.ID)
		}
	}
	return nil
}

// knownFor merges cast and crew credits, one per movie, ordered by popularity.
func knownFor(credits models.PersonCredits, limit int) []models.PersonCredit {
	seen := make(map[int]bool)
	var merged []models.PersonCredit
	for _, c := range append(append([]models.PersonCredit{}, credits.Cast...), credits.Crew...) {
		if seen[c.ID] || !c.HasTitle() {
			continue
		}
		seen[c.ID] = true
		merged = append(merged, c)
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Popularity > merged[j].Popularity })
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

type homeOutput struct {
	Sections []catalog.Section `json:"sections"`
}

// Home loads every home feed category and prints the first few movies of each.
func (r *Runner) Home(ctx context.Context, cmd *cli.Command) error {
	if r.catalog == nil {
		return fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	if err := r.catalog.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to load home feed: %w", err)
	}
	sections := r.catalog.Sections()

	if cmd.Bool("json") {
		return r.writeJSON(homeOutput{Sections: sections}, cmd.Bool("pretty"))
	}

	limit := cmd.Int("limit")
	for i, s := range sections {
		if i > 0 {
			r.writePlain("\n")
		}
		r.writePlainHeader(s.Title)
		if s.Error != "" {
			r.writePlain("⚠ %s\n", s.Error)
			continue
		}
		movies := s.Movies
		if limit > 0 && len(movies) > limit {
			movies = movies[:limit]
		}
		if len(movies) == 0 {
			r.writePlain("Nothing here right now\n")
			continue
		}
		r.printMovies(movies)
	}
	return nil
}

func (r *Runner) printMovies(movies []models.MovieSummary) {
	for i, m := range movies {
		r.writePlain("%2d. %s (%s)  ★ %s  [id %d]\n", i+1, m.Title, formatter.Year(m.ReleaseDate), formatter.FormatRating(m.VoteAverage), m.ID)
	}
}

func parseID(raw string) (int, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id must be a positive integer, got %q", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func titleCase(s string) string {
	words := strings.Split(strings.ReplaceAll(s, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
