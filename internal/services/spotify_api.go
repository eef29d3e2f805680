package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/songlinks/internal/models"
	"github.com/desertthunder/songlinks/internal/shared"
)

const (
	maxSearchLimit  = 50
	maxTracksPerAdd = 100
	albumPageSize   = 50
)

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUser returns the authorized user as a [models.User].
func (s *SpotifyService) CurrentUser(ctx context.Context) (*models.User, error) {
	user, err := s.UserProfile(ctx)
	if err != nil {
		return nil, err
	}
	return &models.User{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Country:     user.Country,
		Product:     user.Product,
	}, nil
}

// Track looks up a single track by id.
func (s *SpotifyService) Track(ctx context.Context, trackID string) (*models.Candidate, error) {
	var track SpotifyTrack
	if err := s.doRequest(ctx, http.MethodGet, "/tracks/"+url.PathEscape(trackID), nil, &track); err != nil {
		return nil, fmt.Errorf("track %s: %w", trackID, err)
	}
	c := TrackCandidate(track)
	return &c, nil
}

// Album looks up a single album by id.
func (s *SpotifyService) Album(ctx context.Context, albumID string) (*models.Candidate, error) {
	var album SpotifyAlbum
	if err := s.doRequest(ctx, http.MethodGet, "/albums/"+url.PathEscape(albumID), nil, &album); err != nil {
		return nil, fmt.Errorf("album %s: %w", albumID, err)
	}
	c := AlbumCandidate(album)
	return &c, nil
}

// SearchTracks queries the search endpoint restricted to tracks.
//
// Failures are wrapped in [shared.ErrSearch] and are not retried.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	var resp searchResponse
	if err := s.search(ctx, query, "track", limit, &resp); err != nil {
		return nil, err
	}
	if resp.Tracks == nil {
		return nil, nil
	}

	candidates := make([]models.Candidate, 0, len(resp.Tracks.Items))
	for _, t := range resp.Tracks.Items {
		candidates = append(candidates, TrackCandidate(t))
	}
	return candidates, nil
}

// SearchAlbums queries the search endpoint restricted to albums.
func (s *SpotifyService) SearchAlbums(ctx context.Context, query string, limit int) ([]models.Candidate, error) {
	var resp searchResponse
	if err := s.search(ctx, query, "album", limit, &resp); err != nil {
		return nil, err
	}
	if resp.Albums == nil {
		return nil, nil
	}

	candidates := make([]models.Candidate, 0, len(resp.Albums.Items))
	for _, a := range resp.Albums.Items {
		candidates = append(candidates, AlbumCandidate(a))
	}
	return candidates, nil
}

func (s *SpotifyService) search(ctx context.Context, query, kind string, limit int, resp *searchResponse) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return fmt.Errorf("%w: %w: empty query", shared.ErrSearch, shared.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = shared.DefaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("type", kind)
	params.Set("limit", fmt.Sprint(limit))

	if err := s.doRequest(ctx, http.MethodGet, "/search?"+params.Encode(), nil, resp); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrSearch, err)
	}
	return nil
}

// CreatePlaylist creates a playlist for userID. Each call creates a new playlist.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	}

	var playlist SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := s.doRequest(ctx, http.MethodPost, endpoint, body, &playlist); err != nil {
		return nil, fmt.Errorf("%w: create playlist: %w", shared.ErrPlaylistOperation, err)
	}

	playlistURL := playlist.ExternalURLs.Spotify
	if playlistURL == "" {
		playlistURL = PlaylistURL(playlist.ID)
	}
	return &models.Playlist{
		ID:          playlist.ID,
		Name:        playlist.Name,
		Description: playlist.Description,
		Public:      playlist.Public,
		URL:         playlistURL,
	}, nil
}

// AddTracks appends URIs to a playlist in batches of at most 100.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))

	for start := 0; start < len(uris); start += maxTracksPerAdd {
		end := min(start+maxTracksPerAdd, len(uris))
		body := map[string]any{"uris": uris[start:end]}
		if err := s.doRequest(ctx, http.MethodPost, endpoint, body, nil); err != nil {
			return fmt.Errorf("%w: add tracks: %w", shared.ErrPlaylistOperation, err)
		}
	}
	return nil
}

// AlbumTrackIDs pages through an album's tracks.
func (s *SpotifyService) AlbumTrackIDs(ctx context.Context, albumID string) ([]string, error) {
	var ids []string
	offset := 0

	for {
		var page paging[SpotifyTrack]
		endpoint := fmt.Sprintf("/albums/%s/tracks?limit=%d&offset=%d", url.PathEscape(albumID), albumPageSize, offset)
		if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, fmt.Errorf("%w: album %s tracks: %w", shared.ErrPlaylistOperation, albumID, err)
		}

		for _, t := range page.Items {
			if t.ID != "" {
				ids = append(ids, t.ID)
			}
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += len(page.Items)
	}

	return ids, nil
}

// PlaylistURL returns the open.spotify.com URL of a playlist.
func PlaylistURL(id string) string {
	return "https://open.spotify.com/playlist/" + id
}

// TrackCandidate maps a track object to a [models.Candidate].
func TrackCandidate(t SpotifyTrack) models.Candidate {
	c := models.Candidate{
		ID:    t.ID,
		Title: t.Name,
		Album: t.Album.Name,
		URI:   t.URI,
		URL:   t.ExternalURLs.Spotify,
	}
	c.Artists = artistNames(t.Artists)
	c.Artist = strings.Join(c.Artists, ", ")
	if c.URL == "" && t.ID != "" {
		c.URL = "https://open.spotify.com/track/" + t.ID
	}
	return c
}

// AlbumCandidate maps an album object to a [models.Candidate].
func AlbumCandidate(a SpotifyAlbum) models.Candidate {
	c := models.Candidate{
		ID:    a.ID,
		Title: a.Name,
		Album: a.Name,
		URI:   a.URI,
		URL:   a.ExternalURLs.Spotify,
	}
	c.Artists = artistNames(a.Artists)
	c.Artist = strings.Join(c.Artists, ", ")
	if c.URL == "" && a.ID != "" {
		c.URL = "https://open.spotify.com/album/" + a.ID
	}
	return c
}

func artistNames(artists []SpotifyArtist) []string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return names
}
