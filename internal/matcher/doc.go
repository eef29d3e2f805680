// Package matcher resolves Apple Music metadata to Spotify catalog entries.
//
// A [Selector] scores search candidates against source metadata with a weighted
// Jaro-Winkler similarity over normalized title and artist strings. The best
// candidate is a match when its score exceeds the configured threshold; ties go
// to the earliest candidate, so selection is deterministic for a given input.
//
// A [Matcher] builds the search query from the metadata, runs it through a
// [Searcher] (track or album search by metadata kind) and hands the candidates to
// the selector. "No match" is a normal [models.MatchResult] with IsMatch false.
package matcher
