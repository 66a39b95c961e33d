package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMovieSummary(t *testing.T) {
	t.Run("Decode Tolerates Nulls", func(t *testing.T) {
		var m MovieSummary
		data := `{"id":2,"title":"No Poster","popularity":99,"poster_path":null,"release_date":null}`
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.HasPoster() {
			t.Error("null poster_path should not count as a poster")
		}
		if m.Year() != "" {
			t.Errorf("expected empty year, got %q", m.Year())
		}
	})

	t.Run("HasTitle", func(t *testing.T) {
		tests := []struct {
			title string
			want  bool
		}{
			{"Inception", true},
			{"", false},
			{"   ", false},
		}
		for _, tt := range tests {
			if got := (MovieSummary{Title: tt.title}).HasTitle(); got != tt.want {
				t.Errorf("HasTitle(%q) = %v, want %v", tt.title, got, tt.want)
			}
		}
	})

	t.Run("ReleaseYear", func(t *testing.T) {
		if got := ReleaseYear("2010-07-16"); got != "2010" {
			t.Errorf("expected 2010, got %s", got)
		}
		if got := ReleaseYear("20"); got != "" {
			t.Errorf("expected empty, got %s", got)
		}
	})
}

func TestMovieDetails(t *testing.T) {
	data := `{
		"id": 27205,
		"title": "Inception",
		"runtime": 148,
		"genres": [{"id": 28, "name": "Action"}, {"id": 878, "name": "Science Fiction"}],
		"credits": {"crew": [{"id": 525, "name": "Christopher Nolan", "job": "Director"}, {"id": 1, "name": "Someone", "job": "Writer"}]},
		"videos": {"results": [
			{"key": "teaser", "site": "YouTube", "type": "Teaser", "official": true},
			{"key": "fan", "site": "YouTube", "type": "Trailer", "official": false},
			{"key": "YoHD9XEInc0", "site": "YouTube", "type": "Trailer", "official": true}
		]},
		"watch/providers": {"results": {"IN": {"link": "https://example.test", "flatrate": [{"provider_id": 8, "provider_name": "Netflix"}]}}},
		"belongs_to_collection": null
	}`

	var d MovieDetails
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("Embedded Summary", func(t *testing.T) {
		if d.ID != 27205 || d.Title != "Inception" {
			t.Errorf("unexpected summary %+v", d.MovieSummary)
		}
		if d.Collection != nil {
			t.Error("expected nil collection")
		}
	})

	t.Run("GenreNames", func(t *testing.T) {
		if got := strings.Join(d.GenreNames(), ","); got != "Action,Science Fiction" {
			t.Errorf("unexpected genres %s", got)
		}
	})

	t.Run("Directors", func(t *testing.T) {
		directors := d.Credits.Directors()
		if len(directors) != 1 || directors[0] != "Christopher Nolan" {
			t.Errorf("unexpected directors %v", directors)
		}
	})

	t.Run("Trailer Prefers Official", func(t *testing.T) {
		trailer, ok := d.Videos.Trailer()
		if !ok {
			t.Fatal("expected a trailer")
		}
		if trailer.Key != "YoHD9XEInc0" {
			t.Errorf("expected official trailer, got %s", trailer.Key)
		}
		if trailer.URL() != "https://www.youtube.com/watch?v=YoHD9XEInc0" {
			t.Errorf("unexpected url %s", trailer.URL())
		}
	})

	t.Run("Watch Providers", func(t *testing.T) {
		region, ok := d.WatchProviders.Region("in")
		if !ok {
			t.Fatal("expected IN providers")
		}
		if len(region.Flatrate) != 1 || region.Flatrate[0].Name != "Netflix" {
			t.Errorf("unexpected providers %+v", region.Flatrate)
		}
	})
}

func TestDiscoverFilters(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		tests := []struct {
			name    string
			filters DiscoverFilters
			wantErr bool
		}{
			{"zero value", DiscoverFilters{}, false},
			{"full", DiscoverFilters{Genres: []int{878}, Language: "te", Year: 2022, MinRating: 7.5, SortBy: "revenue.desc", Page: 3}, false},
			{"page too high", DiscoverFilters{Page: 501}, true},
			{"negative page", DiscoverFilters{Page: -1}, true},
			{"rating too high", DiscoverFilters{MinRating: 11}, true},
			{"unknown sort", DiscoverFilters{SortBy: "budget.desc"}, true},
			{"bad language", DiscoverFilters{Language: "hindi"}, true},
			{"bad year", DiscoverFilters{Year: 12}, true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.filters.Validate()
				if (err != nil) != tt.wantErr {
					t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				}
			})
		}
	})

	t.Run("Values", func(t *testing.T) {
		v := DiscoverFilters{Genres: []int{28, 12}, Language: "HI", MinRating: 6.5, Keywords: []int{9715}}.Values()

		expected := map[string]string{
			"sort_by":                "popularity.desc",
			"page":                   "1",
			"with_genres":            "28,12",
			"with_original_language": "hi",
			"vote_average.gte":       "6.5",
			"with_keywords":          "9715",
		}
		for key, want := range expected {
			if got := v.Get(key); got != want {
				t.Errorf("%s = %q, want %q", key, got, want)
			}
		}
		if v.Has("year") {
			t.Error("year should be omitted when zero")
		}
	})

	t.Run("ClampTotalPages", func(t *testing.T) {
		if got := ClampTotalPages(38000); got != MaxPage {
			t.Errorf("expected %d, got %d", MaxPage, got)
		}
		if got := ClampTotalPages(12); got != 12 {
			t.Errorf("expected 12, got %d", got)
		}
	})

	t.Run("ParseIDList", func(t *testing.T) {
		ids, err := ParseIDList("28, 878,,35")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(ids) != 3 || ids[1] != 878 {
			t.Errorf("unexpected ids %v", ids)
		}
		if _, err := ParseIDList("28,action"); err == nil {
			t.Error("expected error for non-numeric id")
		}
	})
}

func TestBookmark(t *testing.T) {
	movie := MovieSummary{ID: 27205, Title: "Inception", PosterPath: "/x.jpg", VoteAverage: 8.4}

	t.Run("Validate", func(t *testing.T) {
		b := NewBookmark(1, movie)
		if err := b.Validate(); err == nil {
			t.Error("expected error without id")
		}
		b.SetID("abc")
		if err := b.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}

		untitled := NewBookmark(2, MovieSummary{ID: 5})
		untitled.SetID("def")
		if err := untitled.Validate(); err == nil {
			t.Error("expected error without title")
		}
	})

	t.Run("SetMovie Keeps TMDB ID", func(t *testing.T) {
		b := NewBookmark(1, movie)
		b.SetMovie(MovieSummary{ID: 999, Title: "Inception (2010)"})
		if b.TMDBID() != 27205 {
			t.Errorf("expected tmdb id to be kept, got %d", b.TMDBID())
		}
		if b.Title() != "Inception (2010)" {
			t.Errorf("expected updated title, got %s", b.Title())
		}
	})

	t.Run("MarshalJSON", func(t *testing.T) {
		data, err := json.Marshal(NewBookmark(1, movie))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		s := string(data)
		for _, want := range []string{`"id":27205`, `"title":"Inception"`, `"saved_at"`} {
			if !strings.Contains(s, want) {
				t.Errorf("expected %s in %s", want, s)
			}
		}
	})
}
