package tasks

import (
	"fmt"

	"github.com/desertthunder/songlinks/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ConvertLinks Phase = iota
	LinkDone
	FetchUser
	CreatePlaylist
	ExpandAlbums
	AddTracks
	Summarize
	ExportResults
)

func (p Phase) String() string {
	switch p {
	case ConvertLinks:
		return "convert_links"
	case LinkDone:
		return "link_done"
	case FetchUser:
		return "fetch_user"
	case CreatePlaylist:
		return "create_playlist"
	case ExpandAlbums:
		return "expand_albums"
	case AddTracks:
		return "add_tracks"
	case Summarize:
		return "summarize"
	case ExportResults:
		return "export_results"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}

func convertingUpdate(step, total int, link string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ConvertLinks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Converting %s...", step, total, link),
	}
}

func linkDoneUpdate(step, total int, o models.Outcome) ProgressUpdate {
	var msg string
	switch o.Status {
	case models.StatusMatched:
		msg = fmt.Sprintf("[%d/%d] ✓ %s", step, total, o.SpotifyID())
	case models.StatusUnmatched:
		msg = fmt.Sprintf("[%d/%d] ✗ no match", step, total)
	default:
		msg = fmt.Sprintf("[%d/%d] ! %s", step, total, o.Err)
	}
	return ProgressUpdate{Phase: LinkDone, Step: step, Total: total, Message: msg, Data: o}
}

func fetchUserUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: FetchUser, Step: 1, Total: 1, Message: "Fetching Spotify profile..."}
}

func createPlaylistUpdate(pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func expandAlbumUpdate(step, total int, albumID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExpandAlbums,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Expanding album %s...", step, total, albumID),
	}
}

func addTrackUpdate(step, total int, trackID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Adding %s...", step, total, trackID),
	}
}

func summarizeUpdate(outcome *models.PlaylistOutcome) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Summarize,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Added %d tracks (%d errors)", outcome.TracksAdded, len(outcome.Errors)),
		Data:    outcome,
	}
}

func exportCompletedUpdate(step, total int, format string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportResults,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, format, filesCount),
	}
}

func exportFailedUpdate(step, total int, format string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportResults,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, format, err),
	}
}
