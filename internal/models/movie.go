package models

import (
	"strings"
)

// MovieSummary is the record returned by TMDB search, list and discover endpoints.
//
// Every field except ID may be absent upstream; absent strings decode as "".
type MovieSummary struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title,omitempty"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path,omitempty"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count,omitempty"`
	ReleaseDate      string  `json:"release_date"`
	Overview         string  `json:"overview"`
	Popularity       float64 `json:"popularity"`
	OriginalLanguage string  `json:"original_language,omitempty"`
	GenreIDs         []int   `json:"genre_ids,omitempty"`
	Adult            bool    `json:"adult,omitempty"`
}

// HasTitle reports whether the movie has a displayable title.
func (m MovieSummary) HasTitle() bool {
	return strings.TrimSpace(m.Title) != ""
}

// HasPoster reports whether the movie has a poster image path.
func (m MovieSummary) HasPoster() bool {
	return strings.TrimSpace(m.PosterPath) != ""
}

// Year returns the four digit release year or "" when unknown.
func (m MovieSummary) Year() string {
	return ReleaseYear(m.ReleaseDate)
}

// ReleaseYear extracts the year from a YYYY-MM-DD date.
func ReleaseYear(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

// Genre is a TMDB movie genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenreList is the /genre/movie/list payload.
type GenreList struct {
	Genres []Genre `json:"genres"`
}

// CollectionRef is the short collection reference embedded in movie details.
type CollectionRef struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
}

// Collection is a franchise grouping with its member movies.
type Collection struct {
	ID         int            `json:"id"`
	Name       string         `json:"name"`
	Overview   string         `json:"overview"`
	PosterPath string         `json:"poster_path"`
	Parts      []MovieSummary `json:"parts"`
}

// CastMember is a credited actor.
type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
	Order       int    `json:"order"`
}

// CrewMember is a credited crew member.
type CrewMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Job         string `json:"job"`
	Department  string `json:"department"`
	ProfilePath string `json:"profile_path"`
}

// Credits groups cast and crew for a movie.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// Directors returns the names of all crew members credited as Director.
func (c Credits) Directors() []string {
	var names []string
	for _, member := range c.Crew {
		if member.Job == "Director" {
			names = append(names, member.Name)
		}
	}
	return names
}

// TopCast returns at most n cast members in billing order.
func (c Credits) TopCast(n int) []CastMember {
	if n < 0 || n >= len(c.Cast) {
		return c.Cast
	}
	return c.Cast[:n]
}

// Video is a trailer, teaser or clip hosted on an external site.
type Video struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

// URL returns a watch link for YouTube and Vimeo hosted videos.
func (v Video) URL() string {
	switch v.Site {
	case "YouTube":
		return "https://www.youtube.com/watch?v=" + v.Key
	case "Vimeo":
		return "https://vimeo.com/" + v.Key
	default:
		return ""
	}
}

// VideoList is the appended videos payload.
type VideoList struct {
	Results []Video `json:"results"`
}

// Trailer returns the first official trailer, falling back to any trailer.
func (v VideoList) Trailer() (Video, bool) {
	var fallback *Video
	for i, video := range v.Results {
		if video.Type != "Trailer" || video.URL() == "" {
			continue
		}
		if video.Official {
			return video, true
		}
		if fallback == nil {
			fallback = &v.Results[i]
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Video{}, false
}

// Image is a single poster, backdrop or logo file.
type Image struct {
	FilePath    string  `json:"file_path"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspect_ratio"`
	ISO6391     string  `json:"iso_639_1"`
}

// ImageSet is the appended images payload.
type ImageSet struct {
	Backdrops []Image `json:"backdrops"`
	Posters   []Image `json:"posters"`
	Logos     []Image `json:"logos"`
}

// Provider is a streaming, rental or purchase platform.
type Provider struct {
	ID       int    `json:"provider_id"`
	Name     string `json:"provider_name"`
	LogoPath string `json:"logo_path"`
}

// RegionProviders lists where a movie is available in one region.
type RegionProviders struct {
	Link     string     `json:"link"`
	Flatrate []Provider `json:"flatrate,omitempty"`
	Rent     []Provider `json:"rent,omitempty"`
	Buy      []Provider `json:"buy,omitempty"`
}

// WatchProviders is keyed by ISO 3166-1 region code.
type WatchProviders struct {
	Results map[string]RegionProviders `json:"results"`
}

// Region returns the providers for a region.
func (w WatchProviders) Region(code string) (RegionProviders, bool) {
	r, ok := w.Results[strings.ToUpper(code)]
	return r, ok
}

// MovieDetails is the /movie/{id} payload with appended sub-resources.
type MovieDetails struct {
	MovieSummary
	Tagline         string         `json:"tagline"`
	Runtime         int            `json:"runtime"`
	Status          string         `json:"status"`
	Budget          int64          `json:"budget"`
	Revenue         int64          `json:"revenue"`
	Homepage        string         `json:"homepage"`
	IMDbID          string         `json:"imdb_id"`
	Genres          []Genre        `json:"genres"`
	Collection      *CollectionRef `json:"belongs_to_collection"`
	Credits         Credits        `json:"credits"`
	Videos          VideoList      `json:"videos"`
	Images          ImageSet       `json:"images"`
	Recommendations MoviePage      `json:"recommendations"`
	WatchProviders  WatchProviders `json:"watch/providers"`
}

// GenreNames returns the genre names in order.
func (d MovieDetails) GenreNames() []string {
	names := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		names = append(names, g.Name)
	}
	return names
}

// PersonCredit is one movie a person appeared in or worked on.
type PersonCredit struct {
	MovieSummary
	Character string `json:"character,omitempty"`
	Job       string `json:"job,omitempty"`
}

// PersonCredits is the appended movie_credits payload.
type PersonCredits struct {
	Cast []PersonCredit `json:"cast"`
	Crew []PersonCredit `json:"crew"`
}

// Person is the /person/{id} payload with appended movie credits.
type Person struct {
	ID                 int           `json:"id"`
	Name               string        `json:"name"`
	Biography          string        `json:"biography"`
	Birthday           string        `json:"birthday"`
	Deathday           string        `json:"deathday"`
	PlaceOfBirth       string        `json:"place_of_birth"`
	ProfilePath        string        `json:"profile_path"`
	KnownForDepartment string        `json:"known_for_department"`
	Popularity         float64       `json:"popularity"`
	MovieCredits       PersonCredits `json:"movie_credits"`
}
