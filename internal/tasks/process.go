package tasks

import (
	"context"
	"strings"

	"github.com/desertthunder/songlinks/internal/links"
	"github.com/desertthunder/songlinks/internal/models"
)

// linkType returns the label used for an entity in processed link results.
func linkType(kind models.EntityType) string {
	if kind == models.EntityTrack {
		return "song"
	}
	return string(kind)
}

// ProcessLinks resolves a mixed list of links in order.
//
// Spotify links pass through with their type. Apple Music links are read and matched, and
// carry the matched Spotify URL when one is found. Links on other hosts are skipped.
func (e *ConversionEngine) ProcessLinks(ctx context.Context, urls []string, progress chan<- ProgressUpdate) []models.ProcessedLink {
	results := make([]models.ProcessedLink, 0, len(urls))

	for i, raw := range urls {
		raw = strings.TrimSpace(raw)
		switch links.DetectPlatform(raw) {
		case models.PlatformSpotify:
			results = append(results, e.spotifyResult(ctx, raw))

		case models.PlatformAppleMusic:
			sendProgress(progress, convertingUpdate(i+1, len(urls), raw))
			o := e.ConvertOne(ctx, raw)
			sendProgress(progress, linkDoneUpdate(i+1, len(urls), o))
			results = append(results, appleResult(o))
		}
	}
	return results
}

// spotifyResult passes a Spotify link through. With a lookup configured, ids the catalog does
// not know are reported as errors and dropped.
func (e *ConversionEngine) spotifyResult(ctx context.Context, raw string) models.ProcessedLink {
	p := models.ProcessedLink{
		OriginalLink: raw,
		Platform:     models.PlatformSpotify.Label(),
		SpotifyLink:  raw,
	}

	parsed, err := links.ParseURL(raw)
	if err != nil {
		p.Error = err.Error()
		return p
	}
	p.Type = linkType(parsed.EntityType)
	p.EntityType = parsed.EntityType
	if e.lookup == nil {
		p.SpotifyID = parsed.ID
		return p
	}

	var found *models.Candidate
	switch parsed.EntityType {
	case models.EntityTrack:
		found, err = e.lookup.Track(ctx, parsed.ID)
	case models.EntityAlbum:
		found, err = e.lookup.Album(ctx, parsed.ID)
	default:
		p.SpotifyID = parsed.ID
		return p
	}
	if err != nil {
		e.logger.Warn("spotify link not found", "link", raw, "error", err)
		p.Error = err.Error()
		return p
	}

	p.SpotifyID = parsed.ID
	p.Title, p.Artist, p.Album = found.Title, found.Artist, found.Album
	return p
}

func appleResult(o models.Outcome) models.ProcessedLink {
	p := models.ProcessedLink{
		OriginalLink:   o.Link,
		Platform:       models.PlatformAppleMusic.Label(),
		AppleMusicLink: o.Link,
		Error:          o.Err,
	}
	if o.Parsed != nil {
		p.Type = linkType(o.Parsed.EntityType)
		p.EntityType = o.Parsed.EntityType
	}
	if o.Metadata != nil {
		p.Title, p.Artist, p.Album = o.Metadata.Title, o.Metadata.Artist, o.Metadata.Album
	}
	if o.Status == models.StatusMatched {
		p.SpotifyID = o.SpotifyID()
		if o.Result.Matched != nil {
			p.SpotifyLink = o.Result.Matched.URL
		}
		if p.SpotifyLink == "" {
			p.SpotifyLink = links.BuildURL(models.ParsedID{Platform: models.PlatformSpotify, EntityType: p.EntityType, ID: p.SpotifyID})
		}
	}
	return p
}
