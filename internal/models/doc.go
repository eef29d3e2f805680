// Package models defines domain entities and persistence interfaces for songlinks.
//
// The package contains two categories of types:
//
// 1. Value types passed between the extractor, parser, page reader, matcher and playlist builder
//   - [MusicLink] : A link found in text, tagged with its platform and optional chat date
//   - [ParsedID] : The (platform, entity type, id) triple decomposed from a link
//   - [TrackMetadata] : Title/artist/album scraped from an Apple Music page
//   - [Candidate] : A Spotify search result
//   - [MatchResult] : The selector's verdict for one link
//   - [Outcome] : A per-link batch result (matched, unmatched or error)
//   - [PlaylistOutcome] : The summary of a playlist build with per-item errors
//
// 2. Persistent Entities: Database-backed history of CLI runs
//   - [Run] : One recorded extract/convert/playlist invocation
//   - [StoredLink] : A link recorded under a run
//   - [StoredOutcome] : A conversion outcome recorded under a run
//
// [Run] implements the Model interface, and the Repository[T] interface defines standard CRUD operations for database access.
package models
