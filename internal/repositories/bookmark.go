package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/shared"
)

// SortField orders a bookmark listing.
type SortField string

const (
	SortAdded   SortField = "added"
	SortTitle   SortField = "title"
	SortRating  SortField = "rating"
	SortRelease SortField = "release"
)

var sortClauses = map[SortField]string{
	SortAdded:   "created_at DESC, sequence DESC",
	SortTitle:   "title COLLATE NOCASE ASC, sequence DESC",
	SortRating:  "vote_average DESC, sequence DESC",
	SortRelease: "release_date DESC, sequence DESC",
}

// ParseSortField validates a sort name. An empty name selects [SortAdded].
func ParseSortField(s string) (SortField, error) {
	if s == "" {
		return SortAdded, nil
	}
	field := SortField(strings.ToLower(s))
	if _, ok := sortClauses[field]; !ok {
		return "", fmt.Errorf("%w: unknown sort %q (want added, title, rating or release)", shared.ErrInvalidArgument, s)
	}
	return field, nil
}

// ListCriteria filters and orders [BookmarkRepository.List].
type ListCriteria struct {
	// Query matches title or overview, case-insensitively.
	Query string
	Sort  SortField
}

// ChangeKind names a bookmark mutation.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeRemoved ChangeKind = "removed"
	ChangeUpdated ChangeKind = "updated"
	ChangeCleared ChangeKind = "cleared"
)

// ChangeEvent is sent to subscribers after a successful mutation.
type ChangeEvent struct {
	Kind   ChangeKind `json:"kind"`
	TMDBID int        `json:"tmdb_id,omitempty"`
	Count  int        `json:"count"`
}

const bookmarkColumns = `id, sequence, tmdb_id, title, poster_path, release_date, vote_average,
	popularity, overview, original_language, created_at, updated_at, deleted_at`

// BookmarkRepository persists saved movies, de-duplicated by TMDB id.
type BookmarkRepository struct {
	db *sql.DB

	mu   sync.Mutex
	subs []chan ChangeEvent
}

// NewBookmarkRepository creates a new [BookmarkRepository] with the given database connection
func NewBookmarkRepository(db *sql.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

// Add saves movie. An already saved movie is returned unchanged with added=false;
// a previously removed movie is restored with fresh metadata.
func (r *BookmarkRepository) Add(movie models.MovieSummary) (bookmark *models.Bookmark, added bool, err error) {
	existing, err := r.find(movie.ID, true)
	if err != nil && !errors.Is(err, shared.ErrBookmarkNotFound) {
		return nil, false, err
	}
	if existing != nil && !existing.IsDeleted() {
		return existing, false, nil
	}

	sequence, err := NextSequence(r.db, "bookmarks")
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate sequence: %w", err)
	}

	bookmark = models.NewBookmark(sequence, movie)
	if existing != nil {
		bookmark.SetID(existing.ID())
	} else {
		bookmark.SetID(shared.GenerateID())
	}

	if err := bookmark.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	if existing != nil {
		err = r.restore(bookmark)
	} else {
		err = r.insert(bookmark)
	}
	if err != nil {
		return nil, false, err
	}

	r.notify(ChangeAdded, movie.ID)
	return bookmark, true, nil
}

func (r *BookmarkRepository) insert(b *models.Bookmark) error {
	m := b.Movie()
	query := `
		INSERT INTO bookmarks (` + bookmarkColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`

	_, err := r.db.Exec(query,
		b.ID(), b.Sequence(), m.ID, m.Title, m.PosterPath, m.ReleaseDate, m.VoteAverage,
		m.Popularity, m.Overview, m.OriginalLanguage, b.CreatedAt(), b.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert bookmark: %w", err)
	}
	return nil
}

func (r *BookmarkRepository) restore(b *models.Bookmark) error {
	m := b.Movie()
	query := `
		UPDATE bookmarks
		SET sequence = ?, title = ?, poster_path = ?, release_date = ?, vote_average = ?,
			popularity = ?, overview = ?, original_language = ?, created_at = ?, updated_at = ?,
			deleted_at = NULL
		WHERE id = ?
	`

	_, err := r.db.Exec(query,
		b.Sequence(), m.Title, m.PosterPath, m.ReleaseDate, m.VoteAverage,
		m.Popularity, m.Overview, m.OriginalLanguage, b.CreatedAt(), b.UpdatedAt(), b.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to restore bookmark: %w", err)
	}
	return nil
}

// Get retrieves a saved movie by TMDB id, excluding removed ones
func (r *BookmarkRepository) Get(tmdbID int) (*models.Bookmark, error) {
	return r.find(tmdbID, false)
}

func (r *BookmarkRepository) find(tmdbID int, includeDeleted bool) (*models.Bookmark, error) {
	query := `SELECT ` + bookmarkColumns + ` FROM bookmarks WHERE tmdb_id = ?`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}

	b, err := scanBookmark(r.db.QueryRow(query, tmdbID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", shared.ErrBookmarkNotFound, tmdbID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query bookmark: %w", err)
	}
	return b, nil
}

// Exists reports whether a movie is saved.
func (r *BookmarkRepository) Exists(tmdbID int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM bookmarks WHERE tmdb_id = ? AND deleted_at IS NULL)", tmdbID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check bookmark: %w", err)
	}
	return exists, nil
}

// Count returns the number of saved movies.
func (r *BookmarkRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM bookmarks WHERE deleted_at IS NULL").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bookmarks: %w", err)
	}
	return count, nil
}

// Update replaces the stored metadata of a saved movie.
func (r *BookmarkRepository) Update(b *models.Bookmark) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	b.SetUpdatedAt(now)
	m := b.Movie()

	query := `
		UPDATE bookmarks
		SET title = ?, poster_path = ?, release_date = ?, vote_average = ?, popularity = ?,
			overview = ?, original_language = ?, updated_at = ?
		WHERE tmdb_id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		m.Title, m.PosterPath, m.ReleaseDate, m.VoteAverage, m.Popularity,
		m.Overview, m.OriginalLanguage, now, m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bookmark: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", shared.ErrBookmarkNotFound, m.ID)
	}

	r.notify(ChangeUpdated, m.ID)
	return nil
}

// Remove soft-deletes a saved movie by TMDB id
func (r *BookmarkRepository) Remove(tmdbID int) error {
	result, err := r.db.Exec(
		"UPDATE bookmarks SET deleted_at = ? WHERE tmdb_id = ? AND deleted_at IS NULL",
		time.Now().UTC(), tmdbID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove bookmark: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", shared.ErrBookmarkNotFound, tmdbID)
	}

	r.notify(ChangeRemoved, tmdbID)
	return nil
}

// Clear soft-deletes every saved movie and returns how many were removed.
func (r *BookmarkRepository) Clear() (int, error) {
	result, err := r.db.Exec("UPDATE bookmarks SET deleted_at = ? WHERE deleted_at IS NULL", time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to clear bookmarks: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	r.notify(ChangeCleared, 0)
	return int(rows), nil
}

// List retrieves saved movies matching criteria, excluding removed ones
func (r *BookmarkRepository) List(criteria ListCriteria) ([]*models.Bookmark, error) {
	sortField, err := ParseSortField(string(criteria.Sort))
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + bookmarkColumns + ` FROM bookmarks WHERE deleted_at IS NULL`
	args := []any{}

	if q := strings.TrimSpace(criteria.Query); q != "" {
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		query += ` AND (LOWER(title) LIKE ? ESCAPE '\' OR LOWER(overview) LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern)
	}

	query += " ORDER BY " + sortClauses[sortField]

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookmarks: %w", err)
	}
	defer rows.Close()

	var bookmarks []*models.Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return bookmarks, nil
}

// Subscribe returns a channel receiving a [ChangeEvent] after each mutation.
//
// Delivery is non-blocking: events are dropped for a subscriber whose buffer is full.
func (r *BookmarkRepository) Subscribe() <-chan ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan ChangeEvent, 16)
	r.subs = append(r.subs, ch)
	return ch
}

// Unsubscribe stops delivery to ch and closes it.
func (r *BookmarkRepository) Unsubscribe(ch <-chan ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, sub := range r.subs {
		if sub == ch {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			close(sub)
			return
		}
	}
}

func (r *BookmarkRepository) notify(kind ChangeKind, tmdbID int) {
	count, err := r.Count()
	if err != nil {
		count = -1
	}
	event := ChangeEvent{Kind: kind, TMDBID: tmdbID, Count: count}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBookmark(row rowScanner) (*models.Bookmark, error) {
	var (
		id        string
		sequence  int
		movie     models.MovieSummary
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &movie.ID, &movie.Title, &movie.PosterPath, &movie.ReleaseDate, &movie.VoteAverage,
		&movie.Popularity, &movie.Overview, &movie.OriginalLanguage, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	b := models.NewBookmark(sequence, movie)
	b.SetID(id)
	b.SetCreatedAt(createdAt)
	b.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		b.SetDeletedAt(&deletedAt.Time)
	}
	return b, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
