package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/songlinks/internal/models"
	"github.com/desertthunder/songlinks/internal/shared"
)

// LinkRepository stores the links extracted during a run.
type LinkRepository struct {
	db *sql.DB
}

// NewLinkRepository creates a new LinkRepository with the given database connection
func NewLinkRepository(db *sql.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// CreateBatch inserts links under runID in one transaction, keeping their order.
func (r *LinkRepository) CreateBatch(runID string, links []models.MusicLink) ([]*models.StoredLink, error) {
	if runID == "" {
		return nil, fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO links (id, sequence, run_id, platform, url, shared_on, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	stored := make([]*models.StoredLink, 0, len(links))
	for _, link := range links {
		sequence, err := nextSequenceTx(tx, "links")
		if err != nil {
			return nil, fmt.Errorf("failed to generate sequence: %w", err)
		}

		var sharedOn any
		if !link.Date.IsZero() {
			sharedOn = link.Date
		}

		s := &models.StoredLink{ID: shared.GenerateID(), Sequence: sequence, RunID: runID, Link: link, CreatedAt: now}
		if _, err := tx.Exec(query, s.ID, s.Sequence, runID, link.Platform, link.URL, sharedOn, now); err != nil {
			return nil, fmt.Errorf("failed to insert link %s: %w", link.URL, err)
		}
		stored = append(stored, s)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit links: %w", err)
	}
	return stored, nil
}

// ListByRun returns a run's links in insertion order.
func (r *LinkRepository) ListByRun(runID string) ([]*models.StoredLink, error) {
	return r.query(`
		SELECT id, sequence, run_id, platform, url, shared_on, created_at
		FROM links
		WHERE run_id = ? AND deleted_at IS NULL
		ORDER BY sequence ASC
	`, runID)
}

// FindByURL returns every stored occurrence of url across runs, oldest first.
func (r *LinkRepository) FindByURL(url string) ([]*models.StoredLink, error) {
	return r.query(`
		SELECT id, sequence, run_id, platform, url, shared_on, created_at
		FROM links
		WHERE url = ? AND deleted_at IS NULL
		ORDER BY sequence ASC
	`, url)
}

func (r *LinkRepository) query(query string, args ...any) ([]*models.StoredLink, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	var links []*models.StoredLink
	for rows.Next() {
		var (
			s        models.StoredLink
			platform string
			sharedOn sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.Sequence, &s.RunID, &platform, &s.Link.URL, &sharedOn, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		s.Link.Platform = models.Platform(platform)
		if sharedOn.Valid {
			s.Link.Date = sharedOn.Time
		}
		links = append(links, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return links, nil
}
