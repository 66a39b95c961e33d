// Package server provides HTTP routing, middleware, and the JSON handlers behind `moviex serve`.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// Middleware is applied when a route is registered, so routes added before a [BasicRouter.Use] call skip it.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /api/movies/{id}").
//
// # Middleware
//
//   - [RecoveryMiddleware] converts panics into 500 JSON errors
//   - [LoggingMiddleware] writes one structured log line per request
//   - [MetricsMiddleware] reports counts and latencies labelled by route pattern
//
// # Endpoints
//
//	GET    /healthz          → liveness
//	GET    /metrics          → Prometheus exposition
//	GET    /api/search?q=    → one settled search, filtered by the search policy
//	GET    /api/movies/{id}  → movie details plus saved flag
//	GET    /api/catalog      → home feed sections (?refresh=1 reloads)
//	GET    /api/saved        → saved movies (?query=, ?sort=added|title|rating|release)
//	POST   /api/saved        → save {"id": n}
//	DELETE /api/saved/{id}   → remove one
//	DELETE /api/saved        → remove all
//
// Errors are returned as {"error": {"code": ..., "message": ...}}.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
