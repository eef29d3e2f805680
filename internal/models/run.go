package models

import (
	"fmt"
	"time"
)

// RunKind is the CLI operation a [Run] recorded.
type RunKind string

const (
	RunExtract  RunKind = "extract"
	RunConvert  RunKind = "convert"
	RunPlaylist RunKind = "playlist"
)

// Run is a recorded CLI invocation with its summary counts.
type Run struct {
	id         string
	sequence   int
	kind       RunKind
	source     string
	total      int
	matched    int
	unmatched  int
	failed     int
	playlistID string
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewRun creates a run of the given kind reading from source (a file path or "-").
func NewRun(kind RunKind, source string) *Run {
	now := time.Now()
	return &Run{kind: kind, source: source, createdAt: now, updatedAt: now}
}

// RestoreRun rebuilds a run from stored columns.
func RestoreRun(id string, sequence int, kind RunKind, source string, total, matched, unmatched, failed int, playlistID string, createdAt, updatedAt time.Time, deletedAt *time.Time) *Run {
	return &Run{
		id: id, sequence: sequence, kind: kind, source: source,
		total: total, matched: matched, unmatched: unmatched, failed: failed,
		playlistID: playlistID, createdAt: createdAt, updatedAt: updatedAt, deletedAt: deletedAt,
	}
}

func (r *Run) ID() string { return r.id }
func (r *Run) Sequence() int { return r.sequence }
func (r *Run) Kind() RunKind { return r.kind }
func (r *Run) Source() string { return r.source }
func (r *Run) Total() int { return r.total }
func (r *Run) Matched() int { return r.matched }
func (r *Run) Unmatched() int { return r.unmatched }
func (r *Run) Failed() int { return r.failed }
func (r *Run) PlaylistID() string { return r.playlistID }
func (r *Run) CreatedAt() time.Time { return r.createdAt }
func (r *Run) UpdatedAt() time.Time { return r.updatedAt }
func (r *Run) DeletedAt() *time.Time { return r.deletedAt }

func (r *Run) SetID(id string) { r.id = id }
func (r *Run) SetSequence(seq int) { r.sequence = seq }
func (r *Run) SetUpdatedAt(t time.Time) { r.updatedAt = t }
func (r *Run) SetPlaylistID(id string) { r.playlistID = id }
func (r *Run) SetTotal(total int) { r.total = total }

// RunRecord is the JSON view of a [Run].
type RunRecord struct {
	ID         string    `json:"id"`
	Sequence   int       `json:"sequence"`
	Kind       RunKind   `json:"kind"`
	Source     string    `json:"source"`
	Total      int       `json:"total"`
	Matched    int       `json:"matched"`
	Unmatched  int       `json:"unmatched"`
	Failed     int       `json:"failed"`
	PlaylistID string    `json:"playlist_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Record returns the exported view of r.
func (r *Run) Record() RunRecord {
	return RunRecord{
		ID: r.id, Sequence: r.sequence, Kind: r.kind, Source: r.source,
		Total: r.total, Matched: r.matched, Unmatched: r.unmatched, Failed: r.failed,
		PlaylistID: r.playlistID, CreatedAt: r.createdAt.UTC(),
	}
}

// Tally sets the summary counts from a batch of outcomes.
func (r *Run) Tally(outcomes []Outcome) {
	s := Summarize(outcomes)
	r.total, r.matched, r.unmatched, r.failed = s.Total, s.Matched, s.Unmatched, s.Errors
}

// Validate checks the run has a known kind and consistent counts.
func (r *Run) Validate() error {
	switch r.kind {
	case RunExtract, RunConvert, RunPlaylist:
	default:
		return fmt.Errorf("invalid run kind %q", r.kind)
	}
	if r.total < 0 || r.matched+r.unmatched+r.failed > r.total {
		return fmt.Errorf("run counts exceed total %d", r.total)
	}
	return nil
}

// StoredLink is a [MusicLink] recorded under a run.
type StoredLink struct {
	ID        string
	Sequence  int
	RunID     string
	Link      MusicLink
	CreatedAt time.Time
}

// StoredOutcome is an [Outcome] recorded under a run.
type StoredOutcome struct {
	ID        string
	Sequence  int
	RunID     string
	Link      string
	Status    OutcomeStatus
	SpotifyID string
	Title     string
	Artist    string
	Album     string
	Score     float64
	Error     string
	CreatedAt time.Time
}

// NewStoredOutcome flattens an outcome for persistence.
func NewStoredOutcome(runID string, o Outcome) *StoredOutcome {
	s := &StoredOutcome{
		RunID:  runID,
		Link:   o.Link,
		Status: o.Status,
		Error:  o.Err,
	}
	if o.Metadata != nil {
		s.Title, s.Artist, s.Album = o.Metadata.Title, o.Metadata.Artist, o.Metadata.Album
	}
	if o.Result != nil {
		s.Score = o.Result.Score
		s.SpotifyID = o.Result.SpotifyID
	}
	return s
}
