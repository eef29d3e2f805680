package links

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/desertthunder/songlinks/internal/models"
	"github.com/desertthunder/songlinks/internal/shared"
)

const (
	appleMusicHost = "music.apple.com"
	spotifyHost    = "open.spotify.com"
	defaultRegion  = "us"
)

var (
	regionPattern       = regexp.MustCompile(`^[a-z]{2}$`)
	appleNumericID      = regexp.MustCompile(`^\d+$`)
	applePlaylistID     = regexp.MustCompile(`^pl\.[A-Za-z0-9._-]+$`)
	spotifyIDPattern    = regexp.MustCompile(`^[A-Za-z0-9]{22}$`)
	spotifyLocalePrefix = regexp.MustCompile(`^intl-[a-z]{2}(-[a-z]{2})?$`)
)

// Parse decomposes link into a [models.ParsedID].
//
// Fails with [shared.ErrUnrecognizedLinkFormat] when the URL does not match a known shape for
// its platform.
func Parse(link models.MusicLink) (models.ParsedID, error) {
	id, err := ParseURL(link.URL)
	if err != nil {
		return models.ParsedID{}, err
	}
	if link.Platform != "" && link.Platform != id.Platform {
		return models.ParsedID{}, fmt.Errorf("%w: %s link has %s host", shared.ErrUnrecognizedLinkFormat, link.Platform.Label(), id.Platform.Label())
	}
	return id, nil
}

// ParseURL detects the platform from the host and parses raw.
func ParseURL(raw string) (models.ParsedID, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return models.ParsedID{}, fmt.Errorf("%w: %v", shared.ErrUnrecognizedLinkFormat, err)
	}

	segments := pathSegments(u.Path)
	switch strings.ToLower(u.Hostname()) {
	case appleMusicHost:
		return parseAppleMusic(u, segments)
	case spotifyHost:
		return parseSpotify(segments)
	default:
		return models.ParsedID{}, fmt.Errorf("%w: unsupported host %q", shared.ErrUnrecognizedLinkFormat, u.Host)
	}
}

// parseAppleMusic handles /{region}/{album|song|playlist}[/{slug}]/{id}[?i={track}].
func parseAppleMusic(u *url.URL, segments []string) (models.ParsedID, error) {
	if len(segments) < 3 || !regionPattern.MatchString(segments[0]) {
		return models.ParsedID{}, fmt.Errorf("%w: apple music path %q", shared.ErrUnrecognizedLinkFormat, u.Path)
	}

	region, kind, last := segments[0], segments[1], segments[len(segments)-1]
	if len(segments) > 4 {
		return models.ParsedID{}, fmt.Errorf("%w: apple music path %q", shared.ErrUnrecognizedLinkFormat, u.Path)
	}

	id := models.ParsedID{Platform: models.PlatformAppleMusic, Region: region}
	switch kind {
	case "album":
		if !appleNumericID.MatchString(last) {
			return models.ParsedID{}, fmt.Errorf("%w: apple music album id %q", shared.ErrUnrecognizedLinkFormat, last)
		}
		track := u.Query().Get("i")
		if track == "" {
			id.EntityType, id.ID = models.EntityAlbum, last
			return id, nil
		}
		if !appleNumericID.MatchString(track) {
			return models.ParsedID{}, fmt.Errorf("%w: apple music track id %q", shared.ErrUnrecognizedLinkFormat, track)
		}
		id.EntityType, id.ID, id.ParentID = models.EntityTrack, track, last
	case "song":
		if !appleNumericID.MatchString(last) {
			return models.ParsedID{}, fmt.Errorf("%w: apple music song id %q", shared.ErrUnrecognizedLinkFormat, last)
		}
		id.EntityType, id.ID = models.EntityTrack, last
	case "playlist":
		if !applePlaylistID.MatchString(last) {
			return models.ParsedID{}, fmt.Errorf("%w: apple music playlist id %q", shared.ErrUnrecognizedLinkFormat, last)
		}
		id.EntityType, id.ID = models.EntityPlaylist, last
	default:
		return models.ParsedID{}, fmt.Errorf("%w: apple music %s links are not supported", shared.ErrUnrecognizedLinkFormat, kind)
	}
	return id, nil
}

// parseSpotify handles /[intl-xx/]{track|album|playlist}/{id}.
func parseSpotify(segments []string) (models.ParsedID, error) {
	if len(segments) > 0 && spotifyLocalePrefix.MatchString(segments[0]) {
		segments = segments[1:]
	}
	if len(segments) != 2 {
		return models.ParsedID{}, fmt.Errorf("%w: spotify path /%s", shared.ErrUnrecognizedLinkFormat, strings.Join(segments, "/"))
	}

	var kind models.EntityType
	switch segments[0] {
	case "track":
		kind = models.EntityTrack
	case "album":
		kind = models.EntityAlbum
	case "playlist":
		kind = models.EntityPlaylist
	default:
		return models.ParsedID{}, fmt.Errorf("%w: spotify %s links are not supported", shared.ErrUnrecognizedLinkFormat, segments[0])
	}

	if !spotifyIDPattern.MatchString(segments[1]) {
		return models.ParsedID{}, fmt.Errorf("%w: spotify id %q", shared.ErrUnrecognizedLinkFormat, segments[1])
	}
	return models.ParsedID{Platform: models.PlatformSpotify, EntityType: kind, ID: segments[1]}, nil
}

// BuildURL returns the canonical URL for id. Parsing the result yields id again.
//
// An Apple Music id without a Region is built for the "us" storefront, so it parses back with
// Region "us".
func BuildURL(id models.ParsedID) string {
	switch id.Platform {
	case models.PlatformSpotify:
		return fmt.Sprintf("https://%s/%s/%s", spotifyHost, id.EntityType, id.ID)
	case models.PlatformAppleMusic:
		region := id.Region
		if region == "" {
			region = defaultRegion
		}
		switch {
		case id.EntityType == models.EntityTrack && id.ParentID != "":
			return fmt.Sprintf("https://%s/%s/album/%s?i=%s", appleMusicHost, region, id.ParentID, id.ID)
		case id.EntityType == models.EntityTrack:
			return fmt.Sprintf("https://%s/%s/song/%s", appleMusicHost, region, id.ID)
		default:
			return fmt.Sprintf("https://%s/%s/%s/%s", appleMusicHost, region, id.EntityType, id.ID)
		}
	}
	return ""
}

// SpotifyURI returns the spotify:{type}:{id} URI for a Spotify id.
func SpotifyURI(kind models.EntityType, id string) string {
	return fmt.Sprintf("spotify:%s:%s", kind, id)
}

func pathSegments(p string) []string {
	var segments []string
	for s := range strings.SplitSeq(p, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
