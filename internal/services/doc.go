// Package services implements the TMDB movie metadata provider.
//
// # Movie Service
//
// [MovieService] is the read-only contract the rest of moviex consumes: search, curated lists,
// discovery, movie and person details, collections and genres. [TMDBService] implements it over
// the TMDB v3 REST API.
//
// # Authentication
//
// A v3 API key is sent as the api_key query parameter. A v4 read access token is sent as a bearer
// token through an [oauth2.StaticTokenSource]. When neither is configured every call fails with
// [shared.ErrMissingCredentials] before any network I/O.
//
// # Caching and Rate Limiting
//
// All calls share one [rate.Limiter]. Successful bodies may be stored in a [ResponseCache];
// [RedisCache] is the production implementation. Cache failures degrade to a network call.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrMissingCredentials] : no api key or access token configured
//   - [shared.ErrAPIRequest] : non-2xx HTTP status (see [StatusError])
//   - [shared.ErrMalformedResponse] : body is not the expected JSON
//   - [shared.ErrMovieNotFound], [shared.ErrPersonNotFound] : 404 on detail endpoints
//
// Context cancellation is returned unwrapped enough for errors.Is(err, context.Canceled).
package services
