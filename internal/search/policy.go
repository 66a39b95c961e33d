package search

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/shared"
)

const (
	DefaultMinQueryLength = 2
	DefaultDebounce       = 350 * time.Millisecond
	DefaultMaxResults     = 20
	DefaultRequestTimeout = 10 * time.Second
)

// Policy holds the tunable constants of a [Session].
type Policy struct {
	MinQueryLength     int
	Debounce           time.Duration
	MaxResults         int
	RequestTimeout     time.Duration
	DropMissingPosters bool
}

// DefaultPolicy returns the documented defaults.
func DefaultPolicy() Policy {
	return Policy{
		MinQueryLength:     DefaultMinQueryLength,
		Debounce:           DefaultDebounce,
		MaxResults:         DefaultMaxResults,
		RequestTimeout:     DefaultRequestTimeout,
		DropMissingPosters: true,
	}
}

// PolicyFromConfig builds a policy from the [search] config section. Non-positive values keep the default.
func PolicyFromConfig(cfg shared.SearchConfig) Policy {
	p := DefaultPolicy()
	if cfg.MinQueryLength > 0 {
		p.MinQueryLength = cfg.MinQueryLength
	}
	if cfg.DebounceMS > 0 {
		p.Debounce = cfg.Debounce()
	}
	if cfg.MaxResults > 0 {
		p.MaxResults = cfg.MaxResults
	}
	if cfg.RequestTimeoutMS > 0 {
		p.RequestTimeout = cfg.RequestTimeout()
	}
	p.DropMissingPosters = cfg.DropMissingPosters
	return p
}

// Searchable reports whether a trimmed query is long enough to be sent.
func (p Policy) Searchable(query string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(query)) >= p.MinQueryLength
}

// Apply filters, sorts and truncates raw provider results.
//
// Entries without a title are always dropped; entries without a poster are dropped when
// DropMissingPosters is set. The sort is stable so equal popularity keeps provider order.
func (p Policy) Apply(movies []models.MovieSummary) []models.MovieSummary {
	out := make([]models.MovieSummary, 0, len(movies))
	for _, m := range movies {
		if !m.HasTitle() {
			continue
		}
		if p.DropMissingPosters && !m.HasPoster() {
			continue
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Popularity > out[j].Popularity
	})

	if p.MaxResults > 0 && len(out) > p.MaxResults {
		out = out[:p.MaxResults]
	}
	return out
}
