// Package models defines domain entities for the moviex discovery tool.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): plain structs decoded from TMDB responses
//   - [MovieSummary] : list/search entry with poster, rating and popularity
//   - [MovieDetails] : full movie record with appended credits, videos, images and providers
//   - [Person] : cast/crew profile with movie credits
//   - [Collection], [Genre], [Page] : supporting records
//   - [DiscoverFilters] : validated query parameters for the discover endpoint
//
// 2. Persistent Entities: database-backed models with full lifecycle management
//   - [Bookmark] : a saved movie with sequence, timestamps and soft delete
//
// All persistent entities implement the [Model] interface providing ID generation, timestamps and validation.
package models
