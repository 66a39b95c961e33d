package ui

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviex/internal/formatter"
	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/palette"
	"github.com/desertthunder/moviex/internal/repositories"
	"github.com/desertthunder/moviex/internal/search"
	"github.com/desertthunder/moviex/internal/services"
	"github.com/desertthunder/moviex/internal/shared"
)

// themePosterSize is the poster width sampled for the detail theme.
const themePosterSize = "w92"

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SearchView ViewState = iota
	DetailView
	SavedView
)

// BookmarkStore is the subset of [repositories.BookmarkRepository] the TUI uses.
type BookmarkStore interface {
	Add(movie models.MovieSummary) (*models.Bookmark, bool, error)
	Remove(tmdbID int) error
	Exists(tmdbID int) (bool, error)
	List(criteria repositories.ListCriteria) ([]*models.Bookmark, error)
}

// ModelOpts configures [NewModel].
type ModelOpts struct {
	Movies     services.MovieService
	Bookmarks  BookmarkStore
	Policy     search.Policy
	Clock      search.Clock    // Debounce clock; the system clock when nil
	Recorder   search.Recorder // Optional search metrics
	HTTPClient *http.Client    // Used to fetch posters for theming
	OpenURL    func(url string) error
	Logger     *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	returnTo   ViewState
	movies     services.MovieService
	bookmarks  BookmarkStore
	session    *search.Session
	snapshots  <-chan search.Snapshot
	snapshot   search.Snapshot
	input      textinput.Model
	results    list.Model
	saved      list.Model
	spinner    spinner.Model
	detail     *models.MovieDetails
	detailErr  error
	isSaved    bool
	theme      palette.Theme
	status     string
	width      int
	height     int
	help       help.Model
	keys       keyMap
	httpClient *http.Client
	openURL    func(string) error
	logger     *log.Logger
}

// NewModel creates a new TUI model and its search session.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	session := search.NewSession(search.Options{
		Provider: opts.Movies,
		Clock:    opts.Clock,
		Policy:   opts.Policy,
		Recorder: opts.Recorder,
		Logger:   shared.WithLogger(opts.Logger, "component", "search"),
		Context:  ctx,
	})

	input := textinput.New()
	input.Placeholder = "Search movies..."
	input.Prompt = "🔎 "
	input.CharLimit = 120
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		ctx:        ctx,
		view:       SearchView,
		movies:     opts.Movies,
		bookmarks:  opts.Bookmarks,
		session:    session,
		snapshots:  session.Subscribe(),
		input:      input,
		results:    newList("Results"),
		saved:      newList("Saved Movies"),
		spinner:    sp,
		theme:      palette.NewTheme(palette.Fallback),
		help:       help.New(),
		keys:       newKeyMap(),
		httpClient: opts.HTTPClient,
		openURL:    opts.OpenURL,
		logger:     opts.Logger,
	}
}

// Session exposes the search session driving the search view.
func (m *Model) Session() *search.Session { return m.session }

// Init starts the cursor blink, the spinner and the snapshot subscription.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForSnapshot())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.results.SetSize(msg.Width-4, max(msg.Height-10, 5))
		m.saved.SetSize(msg.Width-4, max(msg.Height-6, 5))
		m.input.Width = max(msg.Width-8, 10)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, m.quit()
		}
		switch m.view {
		case SearchView:
			return m.handleSearchKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case SavedView:
			return m.handleSavedKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSnapshot:
		data := msg.data.(snapshotData)
		if !data.ok {
			return m, nil
		}
		m.snapshot = data.snapshot
		cmd := m.results.SetItems(movieItems(data.snapshot.Results.Movies))
		return m, tea.Batch(cmd, m.waitForSnapshot())

	case MsgDetailFetched:
		data := msg.data.(detailData)
		m.status = ""
		if data.err != nil {
			m.detailErr = data.err
			return m, nil
		}
		m.detail = data.movie
		m.isSaved = data.saved
		return m, m.extractTheme(data.movie)

	case MsgThemeExtracted:
		data := msg.data.(themeData)
		if m.detail != nil && m.detail.ID == data.id {
			m.theme = data.theme
		}
		return m, nil

	case MsgBookmarkToggled:
		data := msg.data.(toggleData)
		if data.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Bookmark failed: %v", data.err))
			return m, nil
		}
		if m.detail != nil && m.detail.ID == data.id {
			m.isSaved = data.saved
		}
		if data.saved {
			m.status = styles.ok.Render("★ Saved")
		} else {
			m.status = styles.warn.Render("Removed from saved")
		}
		if m.view == SavedView {
			return m, m.fetchSaved()
		}
		return m, nil

	case MsgSavedFetched:
		data := msg.data.(savedData)
		if data.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Could not load saved movies: %v", data.err))
			return m, nil
		}
		return m, m.saved.SetItems(bookmarkItems(data.bookmarks))

	case MsgStatus:
		m.status = msg.data.(string)
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case SearchView:
		return m.renderSearch()
	case DetailView:
		return m.renderDetail()
	case SavedView:
		return m.renderSaved()
	default:
		return ""
	}
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.clear):
		if m.input.Value() != "" {
			m.input.Reset()
			m.session.Reset()
		}
		return m, nil
	case key.Matches(msg, m.keys.saved):
		return m, m.showSaved()
	case key.Matches(msg, m.keys.up), key.Matches(msg, m.keys.down):
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.results.SelectedItem().(movieItem); ok {
			return m, m.openDetail(item.movie.ID)
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != before {
		m.session.OnInputChanged(value)
	}
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = m.returnTo
		m.status = ""
		if m.view == SavedView {
			return m, m.fetchSaved()
		}
		return m, nil
	case key.Matches(msg, m.keys.save):
		return m, m.toggleBookmark()
	case key.Matches(msg, m.keys.trailer):
		return m, m.openTrailer()
	}
	return m, nil
}

func (m *Model) handleSavedKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.saved):
		m.view = SearchView
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.saved.SelectedItem().(bookmarkItem); ok {
			return m, m.openDetail(item.bookmark.TMDBID())
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if item, ok := m.saved.SelectedItem().(bookmarkItem); ok {
			return m, m.removeBookmark(item.bookmark.TMDBID())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.saved, cmd = m.saved.Update(msg)
	return m, cmd
}

// quit disposes the search session before exiting so no timer or request outlives the program.
func (m *Model) quit() tea.Cmd {
	m.session.Dispose()
	return tea.Quit
}

func (m *Model) waitForSnapshot() tea.Cmd {
	ch := m.snapshots
	return func() tea.Msg {
		snap, ok := <-ch
		return snapshotMsg(snap, ok)
	}
}

func (m *Model) openDetail(id int) tea.Cmd {
	m.returnTo = m.view
	m.view = DetailView
	m.detail = nil
	m.detailErr = nil
	m.isSaved = false
	m.theme = palette.NewTheme(palette.Fallback)
	m.status = "Loading..."
	return m.fetchDetail(id)
}

func (m *Model) fetchDetail(id int) tea.Cmd {
	movies, bookmarks, ctx := m.movies, m.bookmarks, m.ctx
	return func() tea.Msg {
		if movies == nil {
			return detailFetchedMsg(nil, false, shared.ErrServiceUnavailable)
		}
		movie, err := movies.Movie(ctx, id)
		if err != nil {
			return detailFetchedMsg(nil, false, err)
		}
		saved := false
		if bookmarks != nil {
			saved, _ = bookmarks.Exists(id)
		}
		return detailFetchedMsg(movie, saved, nil)
	}
}

// extractTheme samples the poster off the update loop; failures fall back to the default theme.
func (m *Model) extractTheme(movie *models.MovieDetails) tea.Cmd {
	if movie == nil || !movie.HasPoster() {
		return nil
	}
	url := m.movies.ImageURL(movie.PosterPath, themePosterSize)
	client, ctx, logger, id := m.httpClient, m.ctx, m.logger, movie.ID
	return func() tea.Msg {
		base, err := palette.Extract(ctx, client, url)
		if err != nil {
			logger.Debug("poster theme fallback", "tmdb_id", id, "error", err)
		}
		return themeExtractedMsg(id, palette.NewTheme(base))
	}
}

func (m *Model) toggleBookmark() tea.Cmd {
	if m.detail == nil || m.bookmarks == nil {
		return nil
	}
	movie, saved, bookmarks := m.detail.MovieSummary, m.isSaved, m.bookmarks
	return func() tea.Msg {
		if saved {
			return bookmarkToggledMsg(movie.ID, false, bookmarks.Remove(movie.ID))
		}
		_, _, err := bookmarks.Add(movie)
		return bookmarkToggledMsg(movie.ID, err == nil, err)
	}
}

func (m *Model) removeBookmark(id int) tea.Cmd {
	bookmarks := m.bookmarks
	return func() tea.Msg {
		return bookmarkToggledMsg(id, false, bookmarks.Remove(id))
	}
}

func (m *Model) openTrailer() tea.Cmd {
	if m.detail == nil {
		return nil
	}
	video, ok := m.detail.Videos.Trailer()
	if !ok {
		return func() tea.Msg { return statusMsg(styles.warn.Render("No trailer available")) }
	}
	open, url := m.openURL, video.URL()
	return func() tea.Msg {
		if err := open(url); err != nil {
			return statusMsg(styles.err.Render(err.Error()))
		}
		return statusMsg("Opened " + url)
	}
}

func (m *Model) showSaved() tea.Cmd {
	m.view = SavedView
	m.status = ""
	return m.fetchSaved()
}

func (m *Model) fetchSaved() tea.Cmd {
	bookmarks := m.bookmarks
	return func() tea.Msg {
		if bookmarks == nil {
			return savedFetchedMsg(nil, shared.ErrServiceUnavailable)
		}
		list, err := bookmarks.List(repositories.ListCriteria{})
		return savedFetchedMsg(list, err)
	}
}

func (m *Model) renderSearch() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("moviex"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.searchStatus())
	b.WriteString("\n\n")
	if len(m.snapshot.Results.Movies) > 0 {
		b.WriteString(m.results.View())
		b.WriteString("\n")
	}
	b.WriteString(m.help.ShortHelpView(m.keys.searchHelp()))
	return b.String()
}

func (m *Model) searchStatus() string {
	snap := m.snapshot
	switch snap.State {
	case search.Debouncing:
		return styles.help.Render("…")
	case search.Loading:
		return fmt.Sprintf("%s Searching for %q", m.spinner.View(), snap.Query)
	case search.Resolved:
		if n := len(snap.Results.Movies); n > 0 {
			return styles.ok.Render(fmt.Sprintf("%d results for %q", n, snap.Results.Query))
		}
		return styles.warn.Render(fmt.Sprintf("No movies found for %q", snap.Results.Query))
	case search.Errored:
		return styles.err.Render(snap.Error)
	default:
		return styles.help.Render(fmt.Sprintf("Type at least %d characters to search", m.session.Policy().MinQueryLength))
	}
}

func (m *Model) renderDetail() string {
	helpView := m.help.ShortHelpView(m.keys.detailHelp())

	if m.detailErr != nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Error: %v", m.detailErr)), helpView)
	}
	if m.detail == nil {
		return fmt.Sprintf("%s Loading...\n\n%s", m.spinner.View(), helpView)
	}

	d := m.detail
	header := titleWithYear(d.MovieSummary)
	if d.Tagline != "" {
		header += "\n" + d.Tagline
	}

	var b strings.Builder
	b.WriteString(headerStyle(m.theme, m.width).Render(header))
	b.WriteString("\n\n")

	facts := []string{
		formatter.Year(d.ReleaseDate),
		formatter.FormatRuntime(d.Runtime),
		styles.rating.Render("★ " + formatter.FormatRating(d.VoteAverage)),
	}
	if genres := d.GenreNames(); len(genres) > 0 {
		facts = append(facts, strings.Join(genres, ", "))
	}
	b.WriteString(strings.Join(facts, " • "))
	b.WriteString("\n")

	if directors := d.Credits.Directors(); len(directors) > 0 {
		fmt.Fprintf(&b, "Directed by %s\n", strings.Join(directors, ", "))
	}
	if cast := d.Credits.TopCast(5); len(cast) > 0 {
		names := make([]string, len(cast))
		for i, c := range cast {
			names[i] = c.Name
		}
		fmt.Fprintf(&b, "Starring %s\n", strings.Join(names, ", "))
	}
	if d.Overview != "" {
		b.WriteString("\n" + d.Overview + "\n")
	}

	b.WriteString("\n")
	if m.isSaved {
		b.WriteString(styles.ok.Render("★ In your saved list"))
	} else {
		b.WriteString(styles.help.Render("Not saved"))
	}
	if m.status != "" {
		b.WriteString("  " + m.status)
	}
	b.WriteString("\n\n" + helpView)
	return b.String()
}

func (m *Model) renderSaved() string {
	var b strings.Builder
	if len(m.saved.Items()) == 0 {
		b.WriteString(styles.title.Render("Saved Movies"))
		b.WriteString("\n")
		b.WriteString(styles.help.Render("Nothing saved yet. Press s on a movie to save it."))
	} else {
		b.WriteString(m.saved.View())
	}
	if m.status != "" {
		b.WriteString("\n" + m.status)
	}
	b.WriteString("\n\n" + m.help.ShortHelpView(m.keys.savedHelp()))
	return b.String()
}
