package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/palette"
	"github.com/desertthunder/moviex/internal/search"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSnapshot MsgKind = iota
	MsgDetailFetched
	MsgThemeExtracted
	MsgBookmarkToggled
	MsgSavedFetched
	MsgStatus
)

type snapshotData struct {
	snapshot search.Snapshot
	ok       bool
}

type detailData struct {
	movie *models.MovieDetails
	saved bool
	err   error
}

type themeData struct {
	id    int
	theme palette.Theme
}

type toggleData struct {
	id    int
	saved bool
	err   error
}

type savedData struct {
	bookmarks []*models.Bookmark
	err       error
}

// snapshotMsg is the constructor for [MsgSnapshot]. ok is false once the session is disposed.
func snapshotMsg(s search.Snapshot, ok bool) Msg {
	return Msg{kind: MsgSnapshot, data: snapshotData{snapshot: s, ok: ok}}
}

// detailFetchedMsg is the constructor for [MsgDetailFetched]
func detailFetchedMsg(movie *models.MovieDetails, saved bool, err error) Msg {
	return Msg{kind: MsgDetailFetched, data: detailData{movie: movie, saved: saved, err: err}}
}

// themeExtractedMsg is the constructor for [MsgThemeExtracted]
func themeExtractedMsg(id int, theme palette.Theme) Msg {
	return Msg{kind: MsgThemeExtracted, data: themeData{id: id, theme: theme}}
}

// bookmarkToggledMsg is the constructor for [MsgBookmarkToggled]
func bookmarkToggledMsg(id int, saved bool, err error) Msg {
	return Msg{kind: MsgBookmarkToggled, data: toggleData{id: id, saved: saved, err: err}}
}

// savedFetchedMsg is the constructor for [MsgSavedFetched]
func savedFetchedMsg(bookmarks []*models.Bookmark, err error) Msg {
	return Msg{kind: MsgSavedFetched, data: savedData{bookmarks: bookmarks, err: err}}
}

// statusMsg is the constructor for [MsgStatus]
func statusMsg(text string) Msg {
	return Msg{kind: MsgStatus, data: text}
}
