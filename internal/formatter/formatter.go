// package formatter renders movie lists to export formats (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/shared"
)

// MaxPopularity is the TMDB popularity treated as 100%.
const MaxPopularity = 300.0

// Format is an export file format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// Formats lists the supported export formats.
var Formats = []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// FormatNames returns the supported formats as a comma separated list.
func FormatNames() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// ParseFormat resolves a format name, accepting "md" and "text" as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: unknown format %q (want json, csv, markdown or txt)", shared.ErrInvalidArgument, s)
}

// Extension returns the file extension used for the format.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	default:
		return string(f)
	}
}

// MovieExport is a titled list of movies to render.
type MovieExport struct {
	Title      string
	Movies     []models.MovieSummary
	ExportedAt time.Time
	// PosterURL maps a poster path to an absolute URL. Nil leaves poster_url empty.
	PosterURL func(path string) string
}

func (e *MovieExport) posterURL(m models.MovieSummary) string {
	if e.PosterURL == nil || !m.HasPoster() {
		return ""
	}
	return e.PosterURL(m.PosterPath)
}

// Render dispatches to the renderer for format.
func Render(export *MovieExport, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return ExportToJSON(export)
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export)
	case FormatText:
		return ExportToText(export)
	}
	return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
}

type jsonExport struct {
	Title      string                `json:"title"`
	ExportedAt time.Time             `json:"exported_at"`
	Count      int                   `json:"count"`
	Movies     []models.MovieSummary `json:"movies"`
}

// ExportToJSON renders the export as indented JSON.
func ExportToJSON(export *MovieExport) ([]byte, error) {
	movies := export.Movies
	if movies == nil {
		movies = []models.MovieSummary{}
	}
	return shared.MarshalJSON(jsonExport{
		Title:      export.Title,
		ExportedAt: export.ExportedAt,
		Count:      len(movies),
		Movies:     movies,
	}, true)
}

// ExportToCSV renders one row per movie with columns: id, title, year, rating, popularity, release_date, poster_url
func ExportToCSV(export *MovieExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"id", "title", "year", "rating", "popularity", "release_date", "poster_url"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, movie := range export.Movies {
		record := []string{
			strconv.Itoa(movie.ID),
			movie.Title,
			movie.Year(),
			strconv.FormatFloat(movie.VoteAverage, 'f', 1, 64),
			strconv.FormatFloat(movie.Popularity, 'f', 2, 64),
			movie.ReleaseDate,
			export.posterURL(movie),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a heading, a count and a numbered list with posters linked when known.
func ExportToMarkdown(export *MovieExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.Title)
	fmt.Fprintf(&buf, "**Movies**: %d\n", len(export.Movies))
	if !export.ExportedAt.IsZero() {
		fmt.Fprintf(&buf, "**Exported**: %s\n", export.ExportedAt.Format(time.DateOnly))
	}
	buf.WriteString("\n## Movies\n\n")

	for i, movie := range export.Movies {
		fmt.Fprintf(&buf, "%d. **%s**%s ★ %s\n", i+1, movie.Title, yearSuffix(movie), FormatRating(movie.VoteAverage))
		if poster := export.posterURL(movie); poster != "" {
			fmt.Fprintf(&buf, "   ![%s](%s)\n", movie.Title, poster)
		}
		if overview := strings.TrimSpace(movie.Overview); overview != "" {
			fmt.Fprintf(&buf, "   %s\n", overview)
		}
	}

	return buf.Bytes(), nil
}

// ExportToText renders a plain numbered list.
func ExportToText(export *MovieExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "List: %s\n", export.Title)
	fmt.Fprintf(&buf, "Movies: %d\n\n", len(export.Movies))

	for i, movie := range export.Movies {
		fmt.Fprintf(&buf, "%d. %s%s - %s\n", i+1, movie.Title, yearSuffix(movie), FormatRating(movie.VoteAverage))
	}

	return buf.Bytes(), nil
}

// WriteExport renders export and writes it to {dir}/{name}.{ext}, creating dir when needed.
//
// An empty dir writes to the working directory; an empty name defaults to "movies".
func WriteExport(export *MovieExport, format Format, dir, name string) (string, error) {
	data, err := Render(export, format)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", format, err)
	}

	if name == "" {
		name = "movies"
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	path := filepath.Join(dir, name+"."+format.Extension())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return path, nil
}

// FormatRuntime renders minutes as "2h 28m", "45m" or "2h". Non-positive values are "N/A".
func FormatRuntime(minutes int) string {
	if minutes <= 0 {
		return "N/A"
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

// FormatPopularity maps a TMDB popularity score onto 0..100.
func FormatPopularity(popularity float64) int {
	pct := math.Round(popularity / MaxPopularity * 100)
	return int(math.Max(0, math.Min(100, pct)))
}

// FormatRating renders a vote average with one decimal, or "N/A" when unrated.
func FormatRating(rating float64) string {
	if rating <= 0 {
		return "N/A"
	}
	return strconv.FormatFloat(rating, 'f', 1, 64)
}

// Year returns the release year of a YYYY-MM-DD date or "N/A".
func Year(date string) string {
	if y := models.ReleaseYear(date); y != "" {
		return y
	}
	return "N/A"
}

func yearSuffix(m models.MovieSummary) string {
	if y := m.Year(); y != "" {
		return " (" + y + ")"
	}
	return ""
}
