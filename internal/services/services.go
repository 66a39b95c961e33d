package services

import (
	"context"

	"github.com/desertthunder/moviex/internal/models"
)

// MovieService defines the read operations of a movie metadata provider.
type MovieService interface {
	// SearchMovies returns the first page of title matches for query, unfiltered and in provider order.
	SearchMovies(ctx context.Context, query string) ([]models.MovieSummary, error)

	// List returns a page of a curated list such as trending or top rated.
	List(ctx context.Context, list models.ListKind, page int) (*models.MoviePage, error)

	// Discover returns a page of movies matching filters.
	Discover(ctx context.Context, filters models.DiscoverFilters) (*models.MoviePage, error)

	// Movie returns full details for a movie, including credits, videos, images,
	// recommendations and watch providers.
	Movie(ctx context.Context, id int) (*models.MovieDetails, error)

	// Collection returns a collection with its parts.
	Collection(ctx context.Context, id int) (*models.Collection, error)

	// Person returns a person with their movie credits.
	Person(ctx context.Context, id int) (*models.Person, error)

	// Genres returns the movie genre list.
	Genres(ctx context.Context) ([]models.Genre, error)

	// ImageURL builds an absolute image URL for a TMDB file path.
	ImageURL(path, size string) string

	// Name returns the name of the service
	Name() string
}
