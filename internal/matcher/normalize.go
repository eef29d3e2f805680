package matcher

import (
	"regexp"
	"strings"

	"github.com/desertthunder/songlinks/internal/models"
)

var (
	bracketed     = regexp.MustCompile(`\s*[\(\[][^\)\]]*[\)\]]`)
	dashSuffix    = regexp.MustCompile(`(?i)\s+-\s+.*\b(remaster(ed)?|remix|version|edit|live|mono|stereo|mix|demo|acoustic)\b.*$`)
	featuring     = regexp.MustCompile(`(?i)\s+(feat\.?|ft\.?|featuring)\s+.*$`)
	apostrophes   = strings.NewReplacer("'", "", "’", "", "`", "")
	nonWordChars  = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	artistJoiners = regexp.MustCompile(`(?i)\s*(,|&|\band\b|\bwith\b|\bfeaturing\b|\bfeat\b\.?|\bft\b\.?)\s*`)
)

// Normalize lowercases s and strips parenthetical annotations, "feat." credits,
// trailing " - Remastered" style suffixes and punctuation.
//
// When stripping would leave nothing, only punctuation is removed.
func Normalize(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))

	stripped := bracketed.ReplaceAllString(lower, "")
	stripped = dashSuffix.ReplaceAllString(stripped, "")
	stripped = featuring.ReplaceAllString(stripped, "")
	if out := clean(stripped); out != "" {
		return out
	}
	return clean(lower)
}

func clean(s string) string {
	s = apostrophes.Replace(s)
	s = nonWordChars.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// SplitArtists breaks a credit string like "A & B feat. C" into normalized names.
func SplitArtists(credit string) []string {
	var names []string
	for part := range strings.SplitSeq(artistJoiners.ReplaceAllString(credit, "\x00"), "\x00") {
		if name := clean(strings.ToLower(part)); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// BuildQuery returns the free-text track query "{title} {artist}".
func BuildQuery(meta models.TrackMetadata) string {
	return strings.TrimSpace(Normalize(meta.Title) + " " + Normalize(meta.Artist))
}

// FieldQuery returns a field-restricted query, "track:{title} artist:{artist}" for songs
// and "album:{title} artist:{artist}" for albums.
func FieldQuery(meta models.TrackMetadata) string {
	field := "track"
	if meta.Kind == models.EntityAlbum {
		field = "album"
	}

	title := Normalize(meta.Title)
	if title == "" {
		return ""
	}
	q := field + ":" + title
	if artist := Normalize(meta.Artist); artist != "" {
		q += " artist:" + artist
	}
	return q
}
