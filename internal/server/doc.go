// Package server provides HTTP routing, middleware, the JSON API and OAuth callback handling.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [BasicRouter] implements it on top of gorilla/mux. Each route registered with
// [BasicRouter.Handle] also answers OPTIONS so CORS preflight requests reach the middleware.
//
// [Middleware] wraps handlers in reverse order (last added executes first). The standard stack
// built by [NewHandler] is [Recover], [Logging], [Metrics] and [CORS].
//
// # JSON API
//
// [API] exposes link extraction, ID parsing, Apple Music page reading, conversion and playlist
// creation. Every error body is {"error": "...", "success": false}. Sentinel errors from the
// shared package are mapped to status codes in one place.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the authorization code callback for `songlinks spotify auth`.
// A temporary server on the redirect URI's host handles exactly one callback, validates the
// state parameter, exchanges the code and sends the token through a channel.
package server
