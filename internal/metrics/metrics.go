package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songlinks_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "songlinks_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "songlinks_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Matching metrics
var (
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songlinks_searches_total",
			Help: "Total number of catalog searches",
		},
		[]string{"kind", "status"}, // kind: track, album
	)

	MatchOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songlinks_match_outcomes_total",
			Help: "Total number of per-link conversion outcomes",
		},
		[]string{"status"},
	)

	MatchScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "songlinks_match_score",
			Help:    "Best candidate score per selection",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 1},
		},
	)

	PageFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songlinks_page_fetches_total",
			Help: "Total number of Apple Music page reads",
		},
		[]string{"status"},
	)
)

// Playlist metrics
var (
	PlaylistsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "songlinks_playlists_created_total",
			Help: "Total number of playlists created",
		},
	)

	PlaylistItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "songlinks_playlist_items_total",
			Help: "Total number of playlist items attempted",
		},
		[]string{"status"}, // added, failed
	)
)

// Status label values shared by the counters above.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Result returns [StatusOK] for a nil error and [StatusError] otherwise.
func Result(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
