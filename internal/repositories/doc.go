// Package repositories provides the SQLite persistence layer.
//
// [BookmarkRepository] stores saved movies keyed by TMDB id with soft deletes: removing a movie sets
// deleted_at and saving it again restores the row. Every successful mutation is broadcast as a
// [ChangeEvent] so other views can refresh.
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
