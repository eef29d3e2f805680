// Package metrics provides Prometheus instrumentation for songlinks.
//
// All metrics are prefixed with "songlinks_" and registered with the default
// registry through promauto. The server mounts promhttp.Handler() on /metrics.
//
// # Metric Categories
//
// HTTP:
//   - HTTPRequestsTotal: Counter of requests by method, route, and status
//   - HTTPRequestDuration: Histogram of request duration by method and route
//   - HTTPRequestsInFlight: Gauge of requests currently being served
//
// Matching:
//   - SearchesTotal: Counter of catalog searches by kind and status
//   - MatchOutcomesTotal: Counter of per-link outcomes (matched, unmatched, error)
//   - MatchScore: Histogram of the best candidate score per matched link
//   - PageFetchesTotal: Counter of Apple Music page reads by status
//
// Playlists:
//   - PlaylistsCreatedTotal: Counter of created playlists
//   - PlaylistItemsTotal: Counter of playlist items by status (added, failed)
//
// Example PromQL for the match rate:
//
//	sum(rate(songlinks_match_outcomes_total{status="matched"}[1h])) /
//	sum(rate(songlinks_match_outcomes_total[1h]))
package metrics
