package matcher

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/songlinks/internal/metrics"
	"github.com/desertthunder/songlinks/internal/models"
	"github.com/desertthunder/songlinks/internal/shared"
)

// Searcher is the catalog search the matcher depends on.
// services.SpotifyService satisfies it.
type Searcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Candidate, error)
	SearchAlbums(ctx context.Context, query string, limit int) ([]models.Candidate, error)
}

// Matcher composes a [Searcher] with a [Selector].
type Matcher struct {
	searcher Searcher
	selector *Selector
	limit    int
	logger   *log.Logger
}

// New creates a Matcher from the [matcher] config section.
func New(searcher Searcher, cfg shared.MatcherConfig, logger *log.Logger) (*Matcher, error) {
	selector, err := NewSelector(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	limit := cfg.SearchLimit
	if limit <= 0 {
		limit = shared.DefaultSearchLimit
	}
	return &Matcher{searcher: searcher, selector: selector, limit: limit, logger: logger}, nil
}

// Selector returns the selector used to score candidates.
func (m *Matcher) Selector() *Selector { return m.selector }

// Match searches for meta and selects the best candidate.
//
// The free-text query runs first. When it yields no match, a field-restricted query
// (track: or album: with artist:) is tried and the better of the two results is kept.
// Search failures are returned wrapped in [shared.ErrSearch]; an unmatched result is not an error.
func (m *Matcher) Match(ctx context.Context, link string, meta models.TrackMetadata) (models.MatchResult, error) {
	queries := []string{BuildQuery(meta)}
	if q := FieldQuery(meta); q != "" {
		queries = append(queries, q)
	}
	if queries[0] == "" {
		return models.MatchResult{SourceLink: link}, fmt.Errorf("%w: %w: metadata has no title or artist", shared.ErrSearch, shared.ErrInvalidInput)
	}

	best := models.MatchResult{SourceLink: link}
	for i, query := range queries {
		candidates, err := m.search(ctx, meta.Kind, query)
		if err != nil {
			return models.MatchResult{SourceLink: link}, err
		}

		result := m.selector.Select(meta, candidates)
		result.SourceLink = link
		m.logger.Debug("selected candidate", "link", link, "query", query, "candidates", len(candidates), "score", result.Score, "matched", result.IsMatch)

		if i == 0 || result.Score > best.Score {
			best = result
		}
		if best.IsMatch {
			break
		}
	}
	return best, nil
}

func (m *Matcher) search(ctx context.Context, kind models.EntityType, query string) ([]models.Candidate, error) {
	var (
		candidates []models.Candidate
		err        error
	)

	label := string(models.EntityTrack)
	if kind == models.EntityAlbum {
		label = string(models.EntityAlbum)
		candidates, err = m.searcher.SearchAlbums(ctx, query, m.limit)
	} else {
		candidates, err = m.searcher.SearchTracks(ctx, query, m.limit)
	}
	metrics.SearchesTotal.WithLabelValues(label, metrics.Result(err)).Inc()

	if err != nil {
		if errors.Is(err, shared.ErrSearch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrSearch, err)
	}
	return candidates, nil
}
