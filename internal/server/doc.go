// Package server provides HTTP routing and middleware for the web front-end.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /thread/{id}"), so GET and POST
// variants of a page can be registered separately and unsupported methods are answered with 405.
//
// # Middleware
//
// [Standard] assembles the stack used by cmd serve:
//   - request ids and client addresses from go-chi's middleware package
//   - [Logging], one charmbracelet/log line per request
//   - panic recovery
package server
