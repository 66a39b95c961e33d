package models

import (
	"encoding/json"
	"errors"
	"time"
)

// Bookmark is a saved movie persisted in the local database.
type Bookmark struct {
	id        string
	sequence  int
	movie     MovieSummary
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewBookmark creates a bookmark for movie with the current time as creation time.
func NewBookmark(sequence int, movie MovieSummary) *Bookmark {
	now := time.Now().UTC()
	return &Bookmark{
		sequence:  sequence,
		movie:     movie,
		createdAt: now,
		updatedAt: now,
	}
}

func (b *Bookmark) ID() string { return b.id }
func (b *Bookmark) Sequence() int { return b.sequence }
func (b *Bookmark) TMDBID() int { return b.movie.ID }
func (b *Bookmark) Title() string { return b.movie.Title }
func (b *Bookmark) Movie() MovieSummary { return b.movie }
func (b *Bookmark) CreatedAt() time.Time { return b.createdAt }
func (b *Bookmark) UpdatedAt() time.Time { return b.updatedAt }
func (b *Bookmark) DeletedAt() *time.Time { return b.deletedAt }
func (b *Bookmark) IsDeleted() bool { return b.deletedAt != nil }

func (b *Bookmark) SetID(id string) { b.id = id }
func (b *Bookmark) SetSequence(sequence int) { b.sequence = sequence }
func (b *Bookmark) SetCreatedAt(t time.Time) { b.createdAt = t }
func (b *Bookmark) SetUpdatedAt(t time.Time) { b.updatedAt = t }
func (b *Bookmark) SetDeletedAt(t *time.Time) { b.deletedAt = t }

// SetMovie replaces the stored metadata. The TMDB id is kept.
func (b *Bookmark) SetMovie(movie MovieSummary) {
	movie.ID = b.movie.ID
	b.movie = movie
	b.updatedAt = time.Now().UTC()
}

// Validate checks that the bookmark refers to a titled TMDB movie.
func (b *Bookmark) Validate() error {
	if b.id == "" {
		return errors.New("bookmark id is required")
	}
	if b.movie.ID <= 0 {
		return errors.New("tmdb id must be positive")
	}
	if !b.movie.HasTitle() {
		return errors.New("title is required")
	}
	return nil
}

type bookmarkJSON struct {
	MovieSummary
	SavedAt time.Time `json:"saved_at"`
}

// MarshalJSON renders the saved movie fields plus the time it was saved.
func (b *Bookmark) MarshalJSON() ([]byte, error) {
	return json.Marshal(bookmarkJSON{MovieSummary: b.movie, SavedAt: b.createdAt})
}
