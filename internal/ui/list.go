package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/moviex/internal/formatter"
	"github.com/desertthunder/moviex/internal/models"
)

var (
	_ list.Item = movieItem{}
	_ list.Item = bookmarkItem{}
)

// movieItem wraps [models.MovieSummary] to implement [list.Item].
type movieItem struct {
	movie models.MovieSummary
}

func (i movieItem) FilterValue() string { return i.movie.Title }
func (i movieItem) Title() string       { return titleWithYear(i.movie) }
func (i movieItem) Description() string { return describe(i.movie) }

// bookmarkItem wraps [models.Bookmark] to implement [list.Item].
type bookmarkItem struct {
	bookmark *models.Bookmark
}

func (i bookmarkItem) FilterValue() string { return i.bookmark.Title() }
func (i bookmarkItem) Title() string       { return titleWithYear(i.bookmark.Movie()) }
func (i bookmarkItem) Description() string {
	return fmt.Sprintf("%s • saved %s", describe(i.bookmark.Movie()), i.bookmark.CreatedAt().Local().Format("Jan 2"))
}

func titleWithYear(m models.MovieSummary) string {
	if y := m.Year(); y != "" {
		return fmt.Sprintf("%s (%s)", m.Title, y)
	}
	return m.Title
}

func describe(m models.MovieSummary) string {
	parts := []string{"★ " + formatter.FormatRating(m.VoteAverage)}
	parts = append(parts, fmt.Sprintf("popularity %d%%", formatter.FormatPopularity(m.Popularity)))
	if lang := strings.ToUpper(m.OriginalLanguage); lang != "" {
		parts = append(parts, lang)
	}
	return strings.Join(parts, " • ")
}

func movieItems(movies []models.MovieSummary) []list.Item {
	items := make([]list.Item, len(movies))
	for i, m := range movies {
		items[i] = movieItem{movie: m}
	}
	return items
}

func bookmarkItems(bookmarks []*models.Bookmark) []list.Item {
	items := make([]list.Item, len(bookmarks))
	for i, b := range bookmarks {
		items[i] = bookmarkItem{bookmark: b}
	}
	return items
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)
	l.DisableQuitKeybindings()
	return l
}
