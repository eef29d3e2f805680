// Package repositories implements SQLite persistence for conversion history.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// Rows are soft deleted via deleted_at timestamps and deleted rows are excluded from queries by default.
//
// Key Implementations:
//   - [RunRepository] : one row per recorded CLI invocation with summary counts
//   - [LinkRepository] : links extracted during a run, with the chat date they were shared on
//   - [OutcomeRepository] : per-link conversion results
//   - [History] : records a whole run (links, outcomes, playlist) in one call
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
