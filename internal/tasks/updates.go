package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LoadSaved Phase = iota
	RefreshMovies
	ExportMovies
)

func (p Phase) String() string {
	switch p {
	case LoadSaved:
		return "load_saved"
	case RefreshMovies:
		return "refresh_movies"
	case ExportMovies:
		return "export_movies"
	default:
		return ""
	}
}

func loadSavedUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadSaved,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded %d saved movies", count),
	}
}

func refreshStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RefreshMovies,
		Step:    0,
		Total:   total,
		Message: "Refreshing saved movies from TMDB...",
	}
}

func refreshedUpdate(step, total int, res MovieRefreshResult) ProgressUpdate {
	if res.Error != nil {
		return ProgressUpdate{
			Phase:   RefreshMovies,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Title, res.Error),
			Data:    res,
		}
	}
	return ProgressUpdate{
		Phase:   RefreshMovies,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.Title),
		Data:    res,
	}
}

func exportingUpdate(count int, format string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportMovies,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Exporting %d movies as %s...", count, format),
	}
}

func exportedUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportMovies,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Wrote %s", path),
		Data:    path,
	}
}
