// Package applemusic reads song and album metadata from Apple Music web pages.
//
// A [Reader] fetches the page once per call and extracts title, artist and album from the
// JSON-LD block Apple embeds for search engines. When that block is missing or incomplete the
// Open Graph meta tags and finally the document title are used instead.
//
// There is no cache: reading the same link twice fetches it twice.
package applemusic

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/net/html"

	"github.com/desertthunder/songlinks/internal/metrics"
	"github.com/desertthunder/songlinks/internal/models"
	"github.com/desertthunder/songlinks/internal/shared"
)

const (
	// Apple serves a reduced page without JSON-LD to unknown agents.
	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	maxPageBytes     = 5 << 20
)

// Options configures a [Reader].
type Options struct {
	Client    *http.Client
	UserAgent string
	Logger    *log.Logger
}

// Reader fetches Apple Music pages and scrapes their metadata.
type Reader struct {
	client    *http.Client
	userAgent string
	logger    *log.Logger
}

// NewReader creates a Reader. A nil client defaults to [http.DefaultClient].
func NewReader(opts Options) *Reader {
	r := &Reader{client: opts.Client, userAgent: opts.UserAgent, logger: opts.Logger}
	if r.client == nil {
		r.client = http.DefaultClient
	}
	if r.userAgent == "" {
		r.userAgent = defaultUserAgent
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	return r
}

// Read fetches rawURL and returns the song or album metadata on the page.
//
// Fails with [shared.ErrPageFetch] on network errors and non-2xx responses and with
// [shared.ErrMetadataNotFound] when the page carries no usable title.
func (r *Reader) Read(ctx context.Context, rawURL string) (*models.TrackMetadata, error) {
	meta, err := r.read(ctx, rawURL)
	metrics.PageFetchesTotal.WithLabelValues(metrics.Result(err)).Inc()
	return meta, err
}

func (r *Reader) read(ctx context.Context, rawURL string) (*models.TrackMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPageFetch, err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPageFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned status %d", shared.ErrPageFetch, rawURL, resp.StatusCode)
	}

	meta, err := ParsePage(rawURL, io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		r.logger.Debug("no metadata on page", "url", rawURL, "error", err)
		return nil, err
	}

	r.logger.Debug("read apple music page", "url", rawURL, "title", meta.Title, "artist", meta.Artist, "kind", meta.Kind)
	return meta, nil
}

// ParsePage extracts metadata from an already fetched page body.
func ParsePage(rawURL string, body io.Reader) (*models.TrackMetadata, error) {
	doc, err := html.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", shared.ErrMetadataNotFound, err)
	}

	p := scan(doc)
	meta := &models.TrackMetadata{URL: rawURL, Kind: kindFromURL(rawURL)}

	switch {
	case strings.Contains(p.ogType, "music.song"):
		meta.Kind = models.EntityTrack
	case strings.Contains(p.ogType, "music.album"):
		meta.Kind = models.EntityAlbum
	}

	for _, raw := range p.jsonLD {
		if ld, ok := decodeLD(raw); ok {
			ld.apply(meta)
			break
		}
	}

	if meta.Title == "" || meta.Artist == "" {
		title, artist := splitCredit(p.ogTitle)
		if title == "" {
			title, artist = splitCredit(p.title)
		}
		if meta.Title == "" {
			meta.Title = title
		}
		if meta.Artist == "" {
			meta.Artist = artist
		}
	}

	if meta.Artist == "" && p.ogDesc != "" {
		_, meta.Artist = splitCredit(strings.TrimPrefix(p.ogDesc, "Listen to "))
	}

	if meta.Kind == models.EntityAlbum && meta.Album == "" {
		meta.Album = meta.Title
	}

	if meta.Title == "" {
		return nil, fmt.Errorf("%w: %s", shared.ErrMetadataNotFound, rawURL)
	}
	return meta, nil
}

func kindFromURL(rawURL string) models.EntityType {
	u, err := url.Parse(rawURL)
	if err == nil && u.Query().Get("i") != "" {
		return models.EntityTrack
	}
	if err == nil && strings.Contains(u.Path, "/song/") {
		return models.EntityTrack
	}
	return models.EntityAlbum
}

type page struct {
	jsonLD  []string
	ogTitle string
	ogDesc  string
	ogType  string
	title   string
}

func scan(doc *html.Node) page {
	var p page

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script":
				if strings.EqualFold(attr(n, "type"), "application/ld+json") && n.FirstChild != nil {
					p.jsonLD = append(p.jsonLD, n.FirstChild.Data)
				}
			case "meta":
				content := strings.TrimSpace(attr(n, "content"))
				switch attr(n, "property") {
				case "og:title":
					p.ogTitle = content
				case "og:description":
					p.ogDesc = content
				case "og:type":
					p.ogType = content
				}
			case "title":
				if n.FirstChild != nil && p.title == "" {
					p.title = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return p
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// creditSeparators split "{title}{sep}{artist}" page titles. The Hebrew form is what Apple
// serves to il storefront links.
var creditSeparators = []string{" - Song by ", " - Album by ", " - Single by ", " - EP by ", " by ", " מאת "}

var creditSuffixes = []string{" - Apple Music", " on Apple Music", " ב‑Apple Music", " ב‑"}

// splitCredit parses og:title or <title> text such as "Centerfold - Song by The J. Geils Band - Apple Music".
func splitCredit(s string) (title, artist string) {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\u200e"))
	if s == "" {
		return "", ""
	}
	for _, suffix := range creditSuffixes {
		if i := strings.Index(s, suffix); i > 0 {
			s = s[:i]
			break
		}
	}
	for _, sep := range creditSeparators {
		if i := strings.LastIndex(s, sep); i > 0 {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(sep):])
		}
	}
	return s, ""
}
