package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/songlinks/internal/models"
)

// History records whole runs across the run, link and outcome tables.
type History struct {
	Runs     *RunRepository
	Links    *LinkRepository
	Outcomes *OutcomeRepository
}

// NewHistory creates a History over db. Migrations must already be applied.
func NewHistory(db *sql.DB) *History {
	return &History{
		Runs:     NewRunRepository(db),
		Links:    NewLinkRepository(db),
		Outcomes: NewOutcomeRepository(db),
	}
}

// RecordExtraction stores the links extracted from source as an extract run.
func (h *History) RecordExtraction(source string, links []models.MusicLink) (*models.Run, error) {
	run := models.NewRun(models.RunExtract, source)
	run.SetTotal(len(links))
	if err := h.Runs.Create(run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	if _, err := h.Links.CreateBatch(run.ID(), links); err != nil {
		return run, err
	}
	return run, nil
}

// RecordConversion stores outcomes as a convert run with summary counts.
func (h *History) RecordConversion(source string, outcomes []models.Outcome) (*models.Run, error) {
	return h.record(models.RunConvert, source, outcomes, "")
}

// RecordPlaylist stores the outcomes that fed a playlist build along with the playlist id.
func (h *History) RecordPlaylist(source string, outcomes []models.Outcome, playlistID string) (*models.Run, error) {
	return h.record(models.RunPlaylist, source, outcomes, playlistID)
}

func (h *History) record(kind models.RunKind, source string, outcomes []models.Outcome, playlistID string) (*models.Run, error) {
	run := models.NewRun(kind, source)
	run.Tally(outcomes)
	run.SetPlaylistID(playlistID)
	if err := h.Runs.Create(run); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	if _, err := h.Outcomes.CreateBatch(run.ID(), outcomes); err != nil {
		return run, err
	}
	return run, nil
}

// Recent lists the newest runs.
func (h *History) Recent(limit int) ([]*models.Run, error) {
	return h.Runs.List(map[string]any{"limit": limit})
}
