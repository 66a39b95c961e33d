package models

import (
	"fmt"
	"slices"
)

// ListKind names a curated TMDB movie list.
type ListKind string

const (
	ListTrending   ListKind = "trending"
	ListNowPlaying ListKind = "now_playing"
	ListUpcoming   ListKind = "upcoming"
	ListTopRated   ListKind = "top_rated"
	ListPopular    ListKind = "popular"
)

// ListKinds returns every supported list in display order.
func ListKinds() []ListKind {
	return []ListKind{ListTrending, ListNowPlaying, ListUpcoming, ListTopRated, ListPopular}
}

// ParseListKind validates a list name.
func ParseListKind(s string) (ListKind, error) {
	kind := ListKind(s)
	if !slices.Contains(ListKinds(), kind) {
		return "", fmt.Errorf("unknown list %q", s)
	}
	return kind, nil
}

// Path returns the API path for the list.
func (k ListKind) Path() string {
	if k == ListTrending {
		return "/trending/movie/week"
	}
	return "/movie/" + string(k)
}

// Regional reports whether the list honours the region parameter.
func (k ListKind) Regional() bool {
	switch k {
	case ListNowPlaying, ListUpcoming, ListTrending:
		return true
	default:
		return false
	}
}
