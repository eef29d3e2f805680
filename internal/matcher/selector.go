package matcher

import (
	"fmt"
	"slices"

	"github.com/hbollon/go-edlib"

	"github.com/desertthunder/songlinks/internal/metrics"
	"github.com/desertthunder/songlinks/internal/models"
	"github.com/desertthunder/songlinks/internal/shared"
)

// Selector scores candidates and picks the best one scoring above a threshold.
type Selector struct {
	threshold    float64
	titleWeight  float64
	artistWeight float64
}

// NewSelector validates cfg and normalizes the weights so they sum to 1.
//
// The title weight must be at least the artist weight.
func NewSelector(cfg shared.MatcherConfig) (*Selector, error) {
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("%w: matcher threshold %v must be within [0, 1]", shared.ErrInvalidConfig, cfg.Threshold)
	}
	if cfg.TitleWeight < 0 || cfg.ArtistWeight < 0 {
		return nil, fmt.Errorf("%w: matcher weights must not be negative", shared.ErrInvalidConfig)
	}
	if cfg.TitleWeight < cfg.ArtistWeight {
		return nil, fmt.Errorf("%w: title_weight (%v) must be >= artist_weight (%v)", shared.ErrInvalidConfig, cfg.TitleWeight, cfg.ArtistWeight)
	}

	sum := cfg.TitleWeight + cfg.ArtistWeight
	if sum == 0 {
		return nil, fmt.Errorf("%w: matcher weights must not both be zero", shared.ErrInvalidConfig)
	}

	return &Selector{
		threshold:    cfg.Threshold,
		titleWeight:  cfg.TitleWeight / sum,
		artistWeight: cfg.ArtistWeight / sum,
	}, nil
}

// Threshold returns the score a match must exceed.
func (s *Selector) Threshold() float64 { return s.threshold }

// Score returns the weighted similarity of c to meta in [0, 1].
func (s *Selector) Score(meta models.TrackMetadata, c models.Candidate) float64 {
	title := similarity(Normalize(meta.Title), Normalize(c.Title))
	artist := artistSimilarity(meta.Artist, c)
	return s.titleWeight*title + s.artistWeight*artist
}

// Select picks the highest-scoring candidate. Candidates without an id are skipped.
func (s *Selector) Select(meta models.TrackMetadata, candidates []models.Candidate) models.MatchResult {
	result := models.MatchResult{SourceLink: meta.URL}

	best := -1
	for i, c := range candidates {
		if c.ID == "" {
			continue
		}
		// Strict comparison keeps the earliest candidate on ties.
		if score := s.Score(meta, c); best < 0 || score > result.Score {
			best, result.Score = i, score
		}
	}

	if best < 0 {
		return result
	}
	metrics.MatchScore.Observe(result.Score)

	if result.Score > s.threshold {
		matched := candidates[best]
		result.Matched = &matched
		result.SpotifyID = matched.ID
		result.IsMatch = true
	}
	return result
}

// similarity compares a source string a with a candidate string b. An empty source earns nothing.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	sim, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return 0
	}
	return float64(sim)
}

// artistSimilarity compares the source credit with the candidate's full credit and each
// credited artist, keeping the best pairing.
func artistSimilarity(source string, c models.Candidate) float64 {
	sources := append([]string{Normalize(source)}, SplitArtists(source)...)

	targets := []string{Normalize(c.Artist)}
	for _, a := range c.Artists {
		targets = append(targets, Normalize(a))
	}
	targets = append(targets, SplitArtists(c.Artist)...)

	best := 0.0
	for _, src := range slices.Compact(sources) {
		for _, dst := range targets {
			best = max(best, similarity(src, dst))
		}
	}
	return best
}
