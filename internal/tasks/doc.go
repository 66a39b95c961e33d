// Package tasks runs long operations over the saved movie list with real-time progress reporting.
//
// # Core Operations
//
// [SavedEngine] implements two operations:
//
//  1. [SavedEngine.RefreshSaved] : Re-fetch metadata for every saved movie
//     - Fans bookmarks out to a worker pool behind a shared rate limiter
//     - Writes fresh title, poster, rating and popularity back to the store
//     - Failures are reported per movie and never abort the run
//
//  2. [SavedEngine.ExportSaved] : Write the saved list to disk
//     - Formats: json, csv, markdown, txt (see package formatter)
//     - Honours the same text filter and sort order as the saved list view
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate] values.
// Updates use select with default, so a slow or absent reader never blocks the engine.
package tasks
