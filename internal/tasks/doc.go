// Package tasks orchestrates link conversion and playlist creation with real-time progress reporting.
//
// # Core Operations
//
//  1. [ConversionEngine.Convert] : Apple Music → Spotify matching for a batch of links
//     - Parses each link and skips what cannot be matched (playlists, other hosts)
//     - Reads the Apple Music page for title/artist/album
//     - Searches Spotify and selects the best candidate
//     - Returns one [models.Outcome] per link: matched, unmatched or error
//
//  2. [PlaylistBuilder.Build] : Creates a Spotify playlist from track and album ids
//     - create → expand albums → add tracks → summarize
//     - Per-item failures are collected, never fatal
//
//  3. [PlaylistBuilder.FromLinks] : Mixed Spotify/Apple Music links to a playlist, with stats
//
//  4. [Export] : Writes outcomes in several formats with a manifest
//
// # Progress Reporting
//
// All operations accept an optional channel for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Concurrency
//
// Conversion is sequential: one link runs to completion before the next starts, and page reads are
// paced by a rate limiter. Only [Export] fans out, over local file writes.
package tasks
