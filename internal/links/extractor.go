// Package links finds music links in free-form text and decomposes them into platform identifiers.
//
// [Extract] scans arbitrary text (chat exports, notes, pasted messages) for Apple Music and
// Spotify URLs. Results are deduplicated by cleaned URL and keep first-seen order.
//
// [ExtractDated] reads chat exports whose lines start with a "[DD/MM/YYYY, ...]" prefix and
// attaches the date of the first line each link appeared on.
//
// [Parse] and [ParseURL] turn a link into a [models.ParsedID]. [BuildURL] is the inverse.
package links

import (
	"regexp"
	"strings"
	"time"

	"github.com/desertthunder/songlinks/internal/models"
)

var (
	linkPattern = regexp.MustCompile(`https://(?:music\.apple\.com|open\.spotify\.com)/\S+`)
	datePattern = regexp.MustCompile(`\[(\d{2}/\d{2}/\d{4})[^\]]*\]`)
)

const chatDateLayout = "02/01/2006"

// Extraction holds the links found in a piece of text, split by platform.
type Extraction struct {
	Apple   []models.MusicLink `json:"apple_music"`
	Spotify []models.MusicLink `json:"spotify"`
	order   []models.MusicLink
}

// All returns every extracted link in first-seen order across both platforms.
func (e Extraction) All() []models.MusicLink {
	return e.order
}

// Total returns the number of unique links.
func (e Extraction) Total() int {
	return len(e.Apple) + len(e.Spotify)
}

// URLs returns the raw URLs of links.
func URLs(links []models.MusicLink) []string {
	urls := make([]string, 0, len(links))
	for _, l := range links {
		urls = append(urls, l.URL)
	}
	return urls
}

// Extract returns the unique Apple Music and Spotify links in text.
func Extract(text string) Extraction {
	var e Extraction
	seen := make(map[string]struct{})

	for _, raw := range linkPattern.FindAllString(text, -1) {
		link, ok := newLink(raw)
		if !ok {
			continue
		}
		if _, dup := seen[link.URL]; dup {
			continue
		}
		seen[link.URL] = struct{}{}
		e.add(link)
	}
	return e
}

// ExtractDated scans a chat export line by line.
//
// Links on lines before the first dated line are skipped. A link repeated on later lines keeps
// the earliest date it was shared on and its first-seen position.
func ExtractDated(text string) Extraction {
	var (
		e       Extraction
		current time.Time
		index   = make(map[string]int)
	)

	for line := range strings.SplitSeq(text, "\n") {
		if m := datePattern.FindStringSubmatch(line); m != nil {
			if d, err := time.Parse(chatDateLayout, m[1]); err == nil {
				current = d
			}
		}
		if current.IsZero() {
			continue
		}

		for _, raw := range linkPattern.FindAllString(line, -1) {
			link, ok := newLink(raw)
			if !ok {
				continue
			}
			link.Date = current

			if i, dup := index[link.URL]; dup {
				if current.Before(e.order[i].Date) {
					e.order[i].Date = current
				}
				continue
			}
			index[link.URL] = len(e.order)
			e.order = append(e.order, link)
		}
	}

	order := e.order
	e = Extraction{}
	for _, l := range order {
		e.add(l)
	}
	return e
}

func (e *Extraction) add(link models.MusicLink) {
	e.order = append(e.order, link)
	switch link.Platform {
	case models.PlatformAppleMusic:
		e.Apple = append(e.Apple, link)
	case models.PlatformSpotify:
		e.Spotify = append(e.Spotify, link)
	}
}

func newLink(raw string) (models.MusicLink, bool) {
	cleaned := CleanLink(raw)
	platform := DetectPlatform(cleaned)
	if platform == models.PlatformOther {
		return models.MusicLink{}, false
	}
	return models.MusicLink{Platform: platform, URL: cleaned}, true
}

// CleanLink truncates a raw regex match at the first quote, closing bracket or comma and trims
// trailing sentence punctuation.
func CleanLink(raw string) string {
	if i := strings.IndexAny(raw, "\"')]>,"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimRight(raw, ".!?;:")
}

// DetectPlatform classifies a URL by host.
func DetectPlatform(raw string) models.Platform {
	switch {
	case strings.HasPrefix(raw, "https://music.apple.com/"), strings.HasPrefix(raw, "http://music.apple.com/"):
		return models.PlatformAppleMusic
	case strings.HasPrefix(raw, "https://open.spotify.com/"), strings.HasPrefix(raw, "http://open.spotify.com/"):
		return models.PlatformSpotify
	default:
		return models.PlatformOther
	}
}
