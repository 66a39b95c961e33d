package models

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// MaxPage is the highest page TMDB serves for list and discover endpoints.
const MaxPage = 500

// SortOptions is the safelist of sort_by values accepted by [DiscoverFilters].
var SortOptions = []string{
	"popularity.desc",
	"popularity.asc",
	"vote_average.desc",
	"vote_average.asc",
	"vote_count.desc",
	"primary_release_date.desc",
	"primary_release_date.asc",
	"revenue.desc",
	"revenue.asc",
	"original_title.asc",
	"original_title.desc",
}

// DiscoverFilters composes the query parameters of /discover/movie.
//
// Zero values mean "no filter". Page 0 is treated as page 1.
type DiscoverFilters struct {
	Genres    []int   `json:"genres,omitempty"`
	Language  string  `json:"language,omitempty"`
	Year      int     `json:"year,omitempty"`
	MinRating float64 `json:"min_rating,omitempty"`
	SortBy    string  `json:"sort_by,omitempty"`
	Keywords  []int   `json:"keywords,omitempty"`
	Page      int     `json:"page,omitempty"`
}

// Validate checks page bounds, rating range, sort field and language code.
func (f DiscoverFilters) Validate() error {
	var errs []error

	if f.Page < 0 || f.Page > MaxPage {
		errs = append(errs, fmt.Errorf("page must be between 1 and %d, got %d", MaxPage, f.Page))
	}
	if f.MinRating < 0 || f.MinRating > 10 {
		errs = append(errs, fmt.Errorf("rating must be between 0 and 10, got %v", f.MinRating))
	}
	if f.SortBy != "" && !slices.Contains(SortOptions, f.SortBy) {
		errs = append(errs, fmt.Errorf("unsupported sort %q", f.SortBy))
	}
	if f.Language != "" && len(f.Language) != 2 {
		errs = append(errs, fmt.Errorf("language must be an ISO 639-1 code, got %q", f.Language))
	}
	if f.Year != 0 && (f.Year < 1874 || f.Year > 2100) {
		errs = append(errs, fmt.Errorf("year out of range: %d", f.Year))
	}

	return errors.Join(errs...)
}

// Values renders the filters as discover query parameters.
func (f DiscoverFilters) Values() url.Values {
	v := url.Values{}

	sortBy := f.SortBy
	if sortBy == "" {
		sortBy = "popularity.desc"
	}
	v.Set("sort_by", sortBy)

	page := f.Page
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))

	if len(f.Genres) > 0 {
		v.Set("with_genres", joinInts(f.Genres))
	}
	if f.Language != "" {
		v.Set("with_original_language", strings.ToLower(f.Language))
	}
	if f.Year != 0 {
		v.Set("year", strconv.Itoa(f.Year))
	}
	if f.MinRating > 0 {
		v.Set("vote_average.gte", strconv.FormatFloat(f.MinRating, 'f', -1, 64))
	}
	if len(f.Keywords) > 0 {
		v.Set("with_keywords", joinInts(f.Keywords))
	}

	return v
}

// ClampTotalPages caps an upstream total_pages value to [MaxPage].
func ClampTotalPages(total int) int {
	return min(total, MaxPage)
}

// ParseIDList parses a comma separated list of integer IDs.
func ParseIDList(s string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
