package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/songlinks/internal/models"
	"github.com/desertthunder/songlinks/internal/shared"
)

// OutcomeRepository stores per-link conversion results.
type OutcomeRepository struct {
	db *sql.DB
}

// NewOutcomeRepository creates a new OutcomeRepository with the given database connection
func NewOutcomeRepository(db *sql.DB) *OutcomeRepository {
	return &OutcomeRepository{db: db}
}

// CreateBatch inserts outcomes under runID in one transaction, keeping their order.
func (r *OutcomeRepository) CreateBatch(runID string, outcomes []models.Outcome) ([]*models.StoredOutcome, error) {
	if runID == "" {
		return nil, fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO outcomes (id, sequence, run_id, link, status, spotify_id, title, artist, album, score, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	stored := make([]*models.StoredOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		sequence, err := nextSequenceTx(tx, "outcomes")
		if err != nil {
			return nil, fmt.Errorf("failed to generate sequence: %w", err)
		}

		s := models.NewStoredOutcome(runID, o)
		s.ID, s.Sequence, s.CreatedAt = shared.GenerateID(), sequence, now

		_, err = tx.Exec(query,
			s.ID,
			s.Sequence,
			runID,
			s.Link,
			s.Status,
			nullString(s.SpotifyID),
			s.Title,
			s.Artist,
			s.Album,
			s.Score,
			nullString(s.Error),
			now,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert outcome for %s: %w", s.Link, err)
		}
		stored = append(stored, s)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit outcomes: %w", err)
	}
	return stored, nil
}

// ListByRun returns a run's outcomes in insertion order. An empty status lists all of them.
func (r *OutcomeRepository) ListByRun(runID string, status models.OutcomeStatus) ([]*models.StoredOutcome, error) {
	query := `
		SELECT id, sequence, run_id, link, status, spotify_id, title, artist, album, score, error_message, created_at
		FROM outcomes
		WHERE run_id = ? AND deleted_at IS NULL
	`
	args := []any{runID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []*models.StoredOutcome
	for rows.Next() {
		var (
			s         models.StoredOutcome
			st        string
			spotifyID sql.NullString
			errMsg    sql.NullString
		)
		err := rows.Scan(&s.ID, &s.Sequence, &s.RunID, &s.Link, &st, &spotifyID, &s.Title, &s.Artist, &s.Album, &s.Score, &errMsg, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		s.Status = models.OutcomeStatus(st)
		s.SpotifyID, s.Error = spotifyID.String, errMsg.String
		outcomes = append(outcomes, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return outcomes, nil
}

// LastMatch returns the most recent matched Spotify id recorded for link, or "" when the link
// was never matched.
func (r *OutcomeRepository) LastMatch(link string) (string, error) {
	var id sql.NullString
	err := r.db.QueryRow(`
		SELECT spotify_id FROM outcomes
		WHERE link = ? AND status = 'matched' AND deleted_at IS NULL
		ORDER BY sequence DESC
		LIMIT 1
	`, link).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query last match: %w", err)
	}
	return id.String, nil
}
