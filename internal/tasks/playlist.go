package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/songlinks/internal/links"
	"github.com/desertthunder/songlinks/internal/metrics"
	"github.com/desertthunder/songlinks/internal/models"
	"github.com/desertthunder/songlinks/internal/services"
	"github.com/desertthunder/songlinks/internal/shared"
)

// songsPerAlbum is the size assumed for an album when a request is split.
const songsPerAlbum = 10

// BuildRequest lists what goes into a new playlist.
type BuildRequest struct {
	TrackIDs    []string
	AlbumIDs    []string
	Name        string
	Description string
	Private     bool
}

// PlaylistBuilder creates playlists and fills them, collecting per-item errors.
type PlaylistBuilder struct {
	service services.Service
	logger  *log.Logger
}

// NewPlaylistBuilder creates a builder backed by svc.
func NewPlaylistBuilder(svc services.Service, logger *log.Logger) *PlaylistBuilder {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &PlaylistBuilder{service: svc, logger: logger}
}

// Build runs create → expand albums → add tracks → summarize.
//
// Every call creates a new playlist. Repeated ids, including album tracks already listed, are added once. Only a failure to look up the user or create the playlist
// is returned as an error; failed album expansions and track adds are recorded in
// [models.PlaylistOutcome.Errors] and TracksAdded counts successful adds only.
func (b *PlaylistBuilder) Build(ctx context.Context, req BuildRequest, progress chan<- ProgressUpdate) (*models.PlaylistOutcome, error) {
	if b.service == nil {
		return nil, fmt.Errorf("%w: playlist service not initialized", shared.ErrServiceUnavailable)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	sendProgress(progress, fetchUserUpdate())
	user, err := b.service.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: get current user: %w", shared.ErrPlaylistOperation, err)
	}

	playlist, err := b.service.CreatePlaylist(ctx, user.ID, req.Name, req.Description, !req.Private)
	if err != nil {
		return nil, fmt.Errorf("%w: create playlist: %w", shared.ErrPlaylistOperation, err)
	}
	metrics.PlaylistsCreatedTotal.Inc()
	sendProgress(progress, createPlaylistUpdate(playlist))
	b.logger.Info("created playlist", "id", playlist.ID, "name", playlist.Name)

	outcome := &models.PlaylistOutcome{
		PlaylistID:  playlist.ID,
		PlaylistURL: playlist.URL,
		Errors:      []models.ItemError{},
	}
	if outcome.PlaylistURL == "" {
		outcome.PlaylistURL = services.PlaylistURL(playlist.ID)
	}

	trackIDs := append([]string{}, req.TrackIDs...)
	albumIDs := uniqueIDs(req.AlbumIDs)
	for i, albumID := range albumIDs {
		sendProgress(progress, expandAlbumUpdate(i+1, len(albumIDs), albumID))

		ids, err := b.service.AlbumTrackIDs(ctx, albumID)
		if err != nil {
			b.logger.Warn("album expansion failed", "album", albumID, "error", err)
			outcome.Errors = append(outcome.Errors, models.ItemError{ItemID: albumID, Reason: err.Error()})
			continue
		}
		trackIDs = append(trackIDs, ids...)
	}
	trackIDs = uniqueIDs(trackIDs)

	for i, trackID := range trackIDs {
		sendProgress(progress, addTrackUpdate(i+1, len(trackIDs), trackID))

		if err := b.addTrack(ctx, playlist.ID, trackID); err != nil {
			b.logger.Warn("add track failed", "track", trackID, "error", err)
			metrics.PlaylistItemsTotal.WithLabelValues("failed").Inc()
			outcome.Errors = append(outcome.Errors, models.ItemError{ItemID: trackID, Reason: err.Error()})
			continue
		}
		metrics.PlaylistItemsTotal.WithLabelValues("added").Inc()
		outcome.TracksAdded++
	}

	sendProgress(progress, summarizeUpdate(outcome))
	return outcome, nil
}

func (b *PlaylistBuilder) addTrack(ctx context.Context, playlistID, trackID string) error {
	if trackID == "" {
		return fmt.Errorf("%w: empty track id", shared.ErrInvalidInput)
	}
	return b.service.AddTracks(ctx, playlistID, []string{links.SpotifyURI(models.EntityTrack, trackID)})
}

// MatchedRequest collects the distinct Spotify ids of matched outcomes into a [BuildRequest].
func MatchedRequest(outcomes []models.Outcome, name, description string) BuildRequest {
	req := BuildRequest{Name: name, Description: description}
	for _, o := range outcomes {
		id := o.SpotifyID()
		if id == "" {
			continue
		}
		if o.Parsed != nil && o.Parsed.EntityType == models.EntityAlbum {
			req.AlbumIDs = append(req.AlbumIDs, id)
		} else {
			req.TrackIDs = append(req.TrackIDs, id)
		}
	}
	req.TrackIDs, req.AlbumIDs = uniqueIDs(req.TrackIDs), uniqueIDs(req.AlbumIDs)
	return req
}

// Split divides req into parts of at most maxSongs songs, counting an album as ten songs.
// Tracks fill the parts before albums. With more than one part each is named "<name> (Part i/n)".
//
// A non-positive maxSongs returns req whole.
func (req BuildRequest) Split(maxSongs int) []BuildRequest {
	if maxSongs <= 0 {
		return []BuildRequest{req}
	}

	var parts []BuildRequest
	var cur BuildRequest
	size := 0
	flush := func() {
		parts = append(parts, cur)
		cur, size = BuildRequest{}, 0
	}

	for _, id := range req.TrackIDs {
		if size >= maxSongs {
			flush()
		}
		cur.TrackIDs = append(cur.TrackIDs, id)
		size++
	}
	for _, id := range req.AlbumIDs {
		if size > 0 && size+songsPerAlbum > maxSongs {
			flush()
		}
		cur.AlbumIDs = append(cur.AlbumIDs, id)
		size += songsPerAlbum
	}
	if size > 0 || len(parts) == 0 {
		flush()
	}

	for i := range parts {
		parts[i].Name = req.Name
		parts[i].Description = req.Description
		parts[i].Private = req.Private
		if len(parts) > 1 && req.Name != "" {
			parts[i].Name = fmt.Sprintf("%s (Part %d/%d)", req.Name, i+1, len(parts))
		}
	}
	return parts
}

// uniqueIDs drops repeated ids, keeping the first of each in order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// LinksRequest describes a playlist built from a mixed list of links.
//
// A positive MaxPerPlaylist splits the result into several playlists, see [BuildRequest.Split].
type LinksRequest struct {
	Links          []string
	Name           string
	Description    string
	Private        bool
	MaxPerPlaylist int
}

// LinksResult is the outcome of [PlaylistBuilder.FromLinks]. Playlist is the first of Playlists.
type LinksResult struct {
	Playlist  *models.PlaylistOutcome   `json:"playlist"`
	Playlists []*models.PlaylistOutcome `json:"playlists"`
	Stats     models.PlaylistStats      `json:"stats"`
	Results   []models.ProcessedLink    `json:"results"`
}

// FromLinks processes links with engine, then builds playlists from the distinct Spotify links
// and matched Apple Music links.
//
// Fails with [shared.ErrInvalidInput] when nothing resolves to a Spotify track or album. When a
// part fails to build, the parts already created are returned with the error.
func (b *PlaylistBuilder) FromLinks(ctx context.Context, engine *ConversionEngine, req LinksRequest, progress chan<- ProgressUpdate) (*LinksResult, error) {
	result := &LinksResult{Results: engine.ProcessLinks(ctx, req.Links, progress)}
	result.Stats = linkStats(req.Links, result.Results)

	var build BuildRequest
	for _, p := range result.Results {
		if p.SpotifyID == "" {
			continue
		}
		switch p.EntityType {
		case models.EntityTrack:
			build.TrackIDs = append(build.TrackIDs, p.SpotifyID)
		case models.EntityAlbum:
			build.AlbumIDs = append(build.AlbumIDs, p.SpotifyID)
		}
	}
	build.TrackIDs, build.AlbumIDs = uniqueIDs(build.TrackIDs), uniqueIDs(build.AlbumIDs)
	result.Stats.TotalTracks = len(build.TrackIDs)
	result.Stats.TotalAlbums = len(build.AlbumIDs)

	if len(build.TrackIDs) == 0 && len(build.AlbumIDs) == 0 {
		return result, fmt.Errorf("%w: no Spotify tracks or albums found in %d links", shared.ErrInvalidInput, len(req.Links))
	}

	build.Name, build.Description, build.Private = req.Name, req.Description, req.Private
	for _, part := range build.Split(req.MaxPerPlaylist) {
		outcome, err := b.Build(ctx, part, progress)
		if err != nil {
			return result, err
		}
		if result.Playlist == nil {
			result.Playlist = outcome
		}
		result.Playlists = append(result.Playlists, outcome)
	}
	return result, nil
}

func linkStats(raw []string, processed []models.ProcessedLink) models.PlaylistStats {
	stats := models.PlaylistStats{TotalLinks: len(raw)}
	for _, l := range raw {
		switch links.DetectPlatform(l) {
		case models.PlatformSpotify:
			stats.SpotifyLinks++
		case models.PlatformAppleMusic:
			stats.AppleMusicLinks++
		default:
			stats.OtherLinks++
		}
	}
	for _, p := range processed {
		if p.AppleMusicLink != "" && p.SpotifyID != "" {
			stats.MatchedAppleMusic++
		}
	}
	return stats
}
