package applemusic

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/desertthunder/songlinks/internal/models"
)

// linkedData is the subset of schema.org MusicRecording / MusicAlbum that Apple embeds.
//
// byArtist appears either as one object or as a list, and on song pages the artist and album
// may be nested under audio.
type linkedData struct {
	Type     string          `json:"@type"`
	Name     string          `json:"name"`
	ByArtist json.RawMessage `json:"byArtist"`
	InAlbum  json.RawMessage `json:"inAlbum"`
	Audio    *struct {
		ByArtist json.RawMessage `json:"byArtist"`
		InAlbum  json.RawMessage `json:"inAlbum"`
	} `json:"audio"`
}

type named struct {
	Name string `json:"name"`
}

func decodeLD(raw string) (*linkedData, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}

	var ld linkedData
	if err := json.Unmarshal([]byte(raw), &ld); err != nil {
		return nil, false
	}
	if ld.Name == "" && ld.Type == "" {
		return nil, false
	}
	return &ld, true
}

func (ld *linkedData) apply(meta *models.TrackMetadata) {
	switch ld.Type {
	case "MusicRecording":
		meta.Kind = models.EntityTrack
	case "MusicAlbum":
		meta.Kind = models.EntityAlbum
	}

	if ld.Name != "" {
		meta.Title = strings.TrimSpace(ld.Name)
	}

	artists, album := ld.ByArtist, ld.InAlbum
	if ld.Audio != nil {
		if len(ld.Audio.ByArtist) > 0 {
			artists = ld.Audio.ByArtist
		}
		if len(ld.Audio.InAlbum) > 0 {
			album = ld.Audio.InAlbum
		}
	}

	if name := firstName(artists); name != "" {
		meta.Artist = name
	}
	if name := firstName(album); name != "" {
		meta.Album = name
	}
}

// firstName reads the name of a schema.org object, the first element of a list of objects, or
// a bare string.
func firstName(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	switch raw[0] {
	case '[':
		var list []named
		if err := json.Unmarshal(raw, &list); err == nil {
			for _, n := range list {
				if n.Name != "" {
					return strings.TrimSpace(n.Name)
				}
			}
		}
	case '{':
		var n named
		if err := json.Unmarshal(raw, &n); err == nil {
			return strings.TrimSpace(n.Name)
		}
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
