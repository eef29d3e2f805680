package models

import (
	"time"
)

// Platform identifies the streaming service a link belongs to.
type Platform string

const (
	PlatformAppleMusic Platform = "apple_music"
	PlatformSpotify    Platform = "spotify"
	PlatformOther      Platform = "other"
)

// Label returns the display name used in exports and API responses.
func (p Platform) Label() string {
	switch p {
	case PlatformAppleMusic:
		return "Apple Music"
	case PlatformSpotify:
		return "Spotify"
	default:
		return "Other"
	}
}

// EntityType is the kind of catalog object a link points at.
type EntityType string

const (
	EntityTrack    EntityType = "track"
	EntityAlbum    EntityType = "album"
	EntityPlaylist EntityType = "playlist"
)

// MusicLink is a cleaned URL found in text.
//
// Date is zero unless the link came from a dated chat export line.
type MusicLink struct {
	Platform Platform  `json:"platform"`
	URL      string    `json:"url"`
	Date     time.Time `json:"date,omitzero"`
}

// ParsedID is the platform-specific identifier decomposed from a [MusicLink].
type ParsedID struct {
	Platform   Platform   `json:"platform"`
	EntityType EntityType `json:"entity_type"`
	ID         string     `json:"id"`
	// Region is the Apple Music storefront; empty for Spotify. Parsed Apple Music ids always carry one.
	Region string `json:"region,omitempty"`
	// ParentID is the album id of an Apple Music track link.
	ParentID string `json:"parent_id,omitempty"`
}

// TrackMetadata is scraped page metadata for an Apple Music song or album.
type TrackMetadata struct {
	Title  string     `json:"title"`
	Artist string     `json:"artist"`
	Album  string     `json:"album,omitempty"`
	Kind   EntityType `json:"kind"`
	URL    string     `json:"url"`
}

// Candidate is one search result from the Spotify catalog.
type Candidate struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Artist  string   `json:"artist"`
	Artists []string `json:"artists,omitempty"`
	Album   string   `json:"album,omitempty"`
	URI     string   `json:"uri"`
	URL     string   `json:"url"`
}

// MatchResult is the verdict of the match selector for one source link.
//
// IsMatch is true iff Matched is set and SpotifyID is non-empty.
type MatchResult struct {
	SourceLink string     `json:"source_link"`
	SpotifyID  string     `json:"spotify_id,omitempty"`
	Matched    *Candidate `json:"matched_metadata,omitempty"`
	IsMatch    bool       `json:"matched"`
	Score      float64    `json:"score"`
}

// OutcomeStatus is the per-link result variant of a batch conversion.
type OutcomeStatus string

const (
	StatusMatched   OutcomeStatus = "matched"
	StatusUnmatched OutcomeStatus = "unmatched"
	StatusError     OutcomeStatus = "error"
)

// Outcome reports what happened to one link in a batch.
type Outcome struct {
	Link     string         `json:"link"`
	Status   OutcomeStatus  `json:"status"`
	Parsed   *ParsedID      `json:"parsed,omitempty"`
	Metadata *TrackMetadata `json:"metadata,omitempty"`
	Result   *MatchResult   `json:"result,omitempty"`
	Err      string         `json:"error,omitempty"`
}

// SpotifyID returns the matched Spotify id, or "" unless Status is matched.
func (o Outcome) SpotifyID() string {
	if o.Status != StatusMatched || o.Result == nil {
		return ""
	}
	return o.Result.SpotifyID
}

// Summary counts outcomes by status.
type Summary struct {
	Total     int `json:"total"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
	Errors    int `json:"errors"`
}

// Summarize counts outcomes by status.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Status {
		case StatusMatched:
			s.Matched++
		case StatusUnmatched:
			s.Unmatched++
		default:
			s.Errors++
		}
	}
	return s
}

// MatchRate returns the matched share of the total as a percentage.
func (s Summary) MatchRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Matched) / float64(s.Total) * 100
}

// ItemError records a single failed playlist item.
type ItemError struct {
	ItemID string `json:"item_id"`
	Reason string `json:"reason"`
}

// PlaylistOutcome summarizes a playlist build.
type PlaylistOutcome struct {
	PlaylistID  string      `json:"playlist_id"`
	PlaylistURL string      `json:"playlist_url"`
	TracksAdded int         `json:"tracks_added"`
	Errors      []ItemError `json:"errors"`
}

// ProcessedLink describes a link after cross-platform resolution.
type ProcessedLink struct {
	OriginalLink   string     `json:"original_link"`
	Platform       string     `json:"platform"`
	Type           string     `json:"type"`
	Title          string     `json:"title,omitempty"`
	Artist         string     `json:"artist,omitempty"`
	Album          string     `json:"album,omitempty"`
	AppleMusicLink string     `json:"apple_music_link,omitempty"`
	SpotifyLink    string     `json:"spotify_link,omitempty"`
	Error          string     `json:"error,omitempty"`
	SpotifyID      string     `json:"-"`
	EntityType     EntityType `json:"-"`
}

// PlaylistStats counts what went into a playlist built from links.
type PlaylistStats struct {
	TotalLinks        int `json:"total_links"`
	SpotifyLinks      int `json:"spotify_links"`
	AppleMusicLinks   int `json:"apple_music_links"`
	OtherLinks        int `json:"other_links"`
	MatchedAppleMusic int `json:"matched_apple_music"`
	TotalTracks       int `json:"total_tracks"`
	TotalAlbums       int `json:"total_albums"`
}

// User is the authorized account on the target platform.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Country     string `json:"country,omitempty"`
	Product     string `json:"product,omitempty"`
}

// Playlist is a playlist created on the target platform.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
	URL         string `json:"url"`
}
