package services

import (
	"context"

	"github.com/desertthunder/songlinks/internal/models"
)

// Service defines the catalog and playlist operations used to resolve links and build playlists.
type Service interface {
	// SearchTracks runs a track-only search and returns candidates in the API's order.
	SearchTracks(ctx context.Context, query string, limit int) ([]models.Candidate, error)

	// SearchAlbums runs an album-only search and returns candidates in the API's order.
	SearchAlbums(ctx context.Context, query string, limit int) ([]models.Candidate, error)

	// CurrentUser returns the profile of the authorized user.
	CurrentUser(ctx context.Context) (*models.User, error)

	// CreatePlaylist creates a new playlist owned by userID.
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error)

	// AddTracks appends track URIs to a playlist.
	AddTracks(ctx context.Context, playlistID string, uris []string) error

	// AlbumTrackIDs returns the ids of every track on an album, in album order.
	AlbumTrackIDs(ctx context.Context, albumID string) ([]string, error)

	// Name returns the name of the service
	Name() string
}

// Lookup fetches single catalog entries by id. [SpotifyService] satisfies it.
type Lookup interface {
	Track(ctx context.Context, id string) (*models.Candidate, error)
	Album(ctx context.Context, id string) (*models.Candidate, error)
}

var (
	_ Service = (*SpotifyService)(nil)
	_ Lookup  = (*SpotifyService)(nil)
)
