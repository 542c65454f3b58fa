// Package repositories implements SQLite persistence for the credential store.
//
// Key Implementations:
//   - [ClientRepository] : per-instance OAuth app registrations, looked up by instance URL
//   - [AccountRepository] : per-user access tokens, looked up by (username, client)
//
// Natural-key lookups ([ClientRepository.FindByInstance], [AccountRepository.FindByUsername]) return a
// [models.Lookup] so callers can tell "missing" from "more than one".
//
// Sequence numbers provide stable, human-readable ordering (e.g., client #3) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
