// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through a conversion:
//  1. [LinkListView] : Browse the links extracted from a chat export
//  2. [ConvertView] : Monitor real-time progress while links are matched
//  3. [ResultView] : Browse per-link outcomes with a match summary
//  4. [ConfirmView] : Confirm creating a playlist from the matched tracks
//  5. [BuildView] : Monitor playlist creation
//  6. [PlaylistView] : Display the playlist URL and failed items
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the tasks package, providing non-blocking status reporting.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, p, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
