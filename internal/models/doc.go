// Package models defines the entities persisted by the web front-end and the session state it carries between requests.
//
// Persistent entities:
//   - [Client] : OAuth app registration, one per Mastodon instance
//   - [Account] : access token for one user of one [Client]
//
// Both implement [Model]; [Repository] is the CRUD surface the repositories package implements.
//
// Lookups by natural key return a [Lookup], which keeps "not found" and "more than one" apart so that callers decide
// how ambiguity is handled instead of treating it as absence.
//
// [SessionState] is the typed view of a browser session. It is passed explicitly through the request pipeline.
package models
