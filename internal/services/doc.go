// Package services defines the [Mastodon] and [Provider] interfaces the web front-end talks to, and implements them
// over the Mastodon REST API.
//
// # Provider
//
// [MastodonProvider] covers the unauthenticated half of the API:
//   - app registration (POST /api/v1/apps) yielding a client id and secret
//   - the OAuth password grant (POST /oauth/token) via [golang.org/x/oauth2]
//
// and builds authenticated handles with [MastodonProvider.Client].
//
// # Pacing
//
// Each handle waits on a [Pacer] before every request. The pacer reads X-RateLimit-Remaining and
// X-RateLimit-Reset from responses and slows down so that the remaining allowance lasts until the window
// resets, instead of failing fast with 429s. Pacers are shared across handles for the same access token.
//
// # Error Handling
//
// Non-2xx responses become [APIError], which matches:
//   - [shared.ErrAPIRequest] : every API failure
//   - [shared.ErrNotAuthenticated] : 401, the stored token was revoked
//   - [shared.ErrStatusNotFound] : 404
//
// Password grant rejections are reported as [shared.ErrAuthFailed]; registration failures as [shared.ErrAppRegistration].
package services
