// Package services defines the [Service] interface for the Spotify catalog operations songlinks needs and implements it over the Spotify Web API.
//
// # Service Interface
//
// Consumers (the matcher, the playlist builder, the HTTP API) depend on [Service] rather than on the
// concrete client so they can be exercised against fakes.
//
// # Spotify Implementation
//
// [SpotifyService] is an explicitly constructed, scoped client handle. It owns the OAuth2 config,
// the current token and the authorized [http.Client]; nothing is stored in package state.
//
// Tokens are wrapped in a refreshing token source. When the [oauth2] transport refreshes an expired
// access token the callback registered with [SpotifyService.SetTokenRefreshCallback] receives the new
// token so the CLI can persist it.
//
// Every request waits on a [rate.Limiter] before it is sent. Requests are attempted once; retries are
// left to callers.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : no token set, or the API answered 401
//   - [shared.ErrRateLimited] : the API answered 429
//   - [shared.ErrAPIRequest] : any other non-2xx response or transport failure
//   - [shared.ErrSearch] : wraps any of the above for search calls
//   - [shared.ErrPlaylistOperation] : wraps failures of playlist mutations
package services
