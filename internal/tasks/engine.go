package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/songlinks/internal/links"
	"github.com/desertthunder/songlinks/internal/metrics"
	"github.com/desertthunder/songlinks/internal/models"
	"github.com/desertthunder/songlinks/internal/services"
	"github.com/desertthunder/songlinks/internal/shared"
)

// MetadataReader reads title, artist and album from an Apple Music page.
// applemusic.Reader satisfies it.
type MetadataReader interface {
	Read(ctx context.Context, url string) (*models.TrackMetadata, error)
}

// LinkMatcher resolves metadata to a catalog entry. matcher.Matcher satisfies it.
type LinkMatcher interface {
	Match(ctx context.Context, link string, meta models.TrackMetadata) (models.MatchResult, error)
}

// ConversionEngine converts Apple Music links to Spotify matches, one link at a time.
type ConversionEngine struct {
	reader  MetadataReader
	matcher LinkMatcher
	lookup  services.Lookup
	limiter *rate.Limiter
	logger  *log.Logger
}

// EngineOption configures a [ConversionEngine].
type EngineOption func(*ConversionEngine)

// WithRateLimit paces page reads to rps. A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) EngineOption {
	return func(e *ConversionEngine) {
		if rps <= 0 {
			e.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		e.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithLogger sets the engine's logger.
func WithLogger(l *log.Logger) EngineOption {
	return func(e *ConversionEngine) { e.logger = l }
}

// WithLookup checks Spotify links against the catalog before they are used.
func WithLookup(l services.Lookup) EngineOption {
	return func(e *ConversionEngine) { e.lookup = l }
}

// NewConversionEngine creates an engine. Page reads default to 5 per second.
func NewConversionEngine(reader MetadataReader, matcher LinkMatcher, opts ...EngineOption) *ConversionEngine {
	e := &ConversionEngine{
		reader:  reader,
		matcher: matcher,
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ConvertOne runs a single link through parse → read → match.
//
// Every failure is reported in the returned outcome; "no match" is [models.StatusUnmatched].
func (e *ConversionEngine) ConvertOne(ctx context.Context, link string) models.Outcome {
	o := models.Outcome{Link: link}

	parsed, err := links.ParseURL(link)
	if err != nil {
		return e.failed(o, err)
	}
	o.Parsed = &parsed

	switch {
	case parsed.Platform != models.PlatformAppleMusic:
		return e.failed(o, fmt.Errorf("%w: not an Apple Music link", shared.ErrUnrecognizedLinkFormat))
	case parsed.EntityType == models.EntityPlaylist:
		return e.failed(o, fmt.Errorf("%w: playlists cannot be matched", shared.ErrInvalidInput))
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return e.failed(o, err)
	}

	meta, err := e.reader.Read(ctx, link)
	if err != nil {
		return e.failed(o, err)
	}
	// The link decides what is searched for; a song link can serve its album's page.
	meta.Kind = parsed.EntityType
	o.Metadata = meta

	result, err := e.matcher.Match(ctx, link, *meta)
	if err != nil {
		return e.failed(o, err)
	}
	o.Result = &result

	o.Status = models.StatusUnmatched
	if result.IsMatch {
		o.Status = models.StatusMatched
	}
	metrics.MatchOutcomesTotal.WithLabelValues(string(o.Status)).Inc()
	e.logger.Debug("converted link", "link", link, "status", o.Status, "spotify_id", result.SpotifyID, "score", result.Score)
	return o
}

func (e *ConversionEngine) failed(o models.Outcome, err error) models.Outcome {
	o.Status = models.StatusError
	o.Err = err.Error()
	metrics.MatchOutcomesTotal.WithLabelValues(string(o.Status)).Inc()
	e.logger.Warn("link failed", "link", o.Link, "error", err)
	return o
}

// Convert processes urls in order and returns one outcome per link.
//
// A bad link never aborts the batch. When ctx is cancelled, the remaining links are reported as errors.
func (e *ConversionEngine) Convert(ctx context.Context, urls []string, progress chan<- ProgressUpdate) []models.Outcome {
	total := len(urls)
	outcomes := make([]models.Outcome, 0, total)

	for i, link := range urls {
		sendProgress(progress, convertingUpdate(i+1, total, link))

		var o models.Outcome
		if err := ctx.Err(); err != nil {
			o = e.failed(models.Outcome{Link: link}, err)
		} else {
			o = e.ConvertOne(ctx, link)
		}
		outcomes = append(outcomes, o)

		sendProgress(progress, linkDoneUpdate(i+1, total, o))
	}
	return outcomes
}
