package matcher

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/desertthunder/songlinks/internal/models"
	"github.com/desertthunder/songlinks/internal/shared"
	tu "github.com/desertthunder/songlinks/internal/testing"
)

func defaultMatcherConfig() shared.MatcherConfig {
	return shared.MatcherConfig{Threshold: 0.8, TitleWeight: 0.6, ArtistWeight: 0.4, SearchLimit: 5}
}

func centerfold() models.TrackMetadata {
	return models.TrackMetadata{
		Title:  "Centerfold (Remastered)",
		Artist: "The J. Geils Band",
		Kind:   models.EntityTrack,
		URL:    "https://music.apple.com/us/album/freeze-frame/1?i=2",
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Centerfold", "centerfold"},
		{"parenthetical remaster", "Centerfold (Remastered 2009)", "centerfold"},
		{"bracketed feat", "Song Name [feat. Someone]", "song name"},
		{"parenthetical feat", "Song Name (feat. Someone)", "song name"},
		{"dash remaster", "Don't Stop Me Now - Remastered 2011", "dont stop me now"},
		{"trailing ft", "Blinding Lights ft. Someone", "blinding lights"},
		{"punctuation", "Hello, World!", "hello world"},
		{"whitespace", "  Café   Del   Mar ", "café del mar"},
		{"only parenthetical", "(What's the Story)", "whats the story"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitArtists(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Queen & David Bowie", []string{"queen", "david bowie"}},
		{"Simon and Garfunkel", []string{"simon", "garfunkel"}},
		{"The J. Geils Band", []string{"the j geils band"}},
		{"A, B feat. C", []string{"a", "b", "c"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SplitArtists(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitArtists(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestQueries(t *testing.T) {
	meta := centerfold()
	if got := BuildQuery(meta); got != "centerfold the j geils band" {
		t.Errorf("unexpected query %q", got)
	}
	if got := FieldQuery(meta); got != "track:centerfold artist:the j geils band" {
		t.Errorf("unexpected field query %q", got)
	}

	album := models.TrackMetadata{Title: "Freeze-Frame", Artist: "The J. Geils Band", Kind: models.EntityAlbum}
	if got := FieldQuery(album); got != "album:freeze frame artist:the j geils band" {
		t.Errorf("unexpected album query %q", got)
	}

	if got := FieldQuery(models.TrackMetadata{Artist: "Someone"}); got != "" {
		t.Errorf("expected no field query without a title, got %q", got)
	}
}

func TestNewSelector(t *testing.T) {
	tests := []struct {
		name string
		cfg  shared.MatcherConfig
	}{
		{"threshold above one", shared.MatcherConfig{Threshold: 1.5, TitleWeight: 0.6, ArtistWeight: 0.4}},
		{"negative threshold", shared.MatcherConfig{Threshold: -0.1, TitleWeight: 0.6, ArtistWeight: 0.4}},
		{"negative weight", shared.MatcherConfig{Threshold: 0.8, TitleWeight: 0.6, ArtistWeight: -0.4}},
		{"artist outweighs title", shared.MatcherConfig{Threshold: 0.8, TitleWeight: 0.3, ArtistWeight: 0.7}},
		{"zero weights", shared.MatcherConfig{Threshold: 0.8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSelector(tt.cfg); !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	t.Run("equal weights allowed", func(t *testing.T) {
		sel, err := NewSelector(shared.MatcherConfig{Threshold: 0.8, TitleWeight: 1, ArtistWeight: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sel.titleWeight != 0.5 || sel.artistWeight != 0.5 {
			t.Errorf("expected normalized weights, got %v/%v", sel.titleWeight, sel.artistWeight)
		}
	})
}

func TestSelect(t *testing.T) {
	sel, err := NewSelector(defaultMatcherConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	meta := centerfold()

	exact := models.Candidate{ID: "exact", Title: "Centerfold", Artist: "The J. Geils Band", Artists: []string{"The J. Geils Band"}}
	unrelated := models.Candidate{ID: "other", Title: "Bohemian Rhapsody", Artist: "Queen", Artists: []string{"Queen"}}

	t.Run("picks the best candidate", func(t *testing.T) {
		result := sel.Select(meta, []models.Candidate{unrelated, exact})
		if !result.IsMatch || result.SpotifyID != "exact" {
			t.Fatalf("expected exact match, got %+v", result)
		}
		if result.Matched == nil || result.Matched.Title != "Centerfold" {
			t.Errorf("expected matched metadata, got %+v", result.Matched)
		}
		if result.Score < 0.99 {
			t.Errorf("expected near-perfect score, got %v", result.Score)
		}
		if result.SourceLink != meta.URL {
			t.Errorf("expected source link %s, got %s", meta.URL, result.SourceLink)
		}
	})

	t.Run("ties go to the earliest candidate", func(t *testing.T) {
		first, second := exact, exact
		first.ID, second.ID = "first", "second"

		result := sel.Select(meta, []models.Candidate{first, second})
		if result.SpotifyID != "first" {
			t.Errorf("expected first candidate, got %s", result.SpotifyID)
		}
	})

	t.Run("featured artist credit", func(t *testing.T) {
		song := models.TrackMetadata{Title: "Under Pressure", Artist: "Queen & David Bowie"}
		candidate := models.Candidate{ID: "up", Title: "Under Pressure - Remastered 2011", Artist: "Queen, David Bowie", Artists: []string{"Queen", "David Bowie"}}

		if result := sel.Select(song, []models.Candidate{candidate}); !result.IsMatch {
			t.Errorf("expected match, got %+v", result)
		}
	})

	t.Run("no candidates", func(t *testing.T) {
		result := sel.Select(meta, nil)
		if result.IsMatch || result.SpotifyID != "" || result.Matched != nil {
			t.Errorf("expected no match, got %+v", result)
		}
	})

	t.Run("candidates without ids are skipped", func(t *testing.T) {
		noID := exact
		noID.ID = ""

		if result := sel.Select(meta, []models.Candidate{noID}); result.IsMatch {
			t.Errorf("expected no match, got %+v", result)
		}
	})

	t.Run("below threshold", func(t *testing.T) {
		result := sel.Select(meta, []models.Candidate{unrelated})
		if result.IsMatch || result.SpotifyID != "" || result.Matched != nil {
			t.Errorf("expected no match, got %+v", result)
		}
		if result.Score >= sel.Threshold() {
			t.Errorf("expected score below threshold, got %v", result.Score)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		candidates := []models.Candidate{unrelated, exact}
		a := sel.Select(meta, candidates)
		b := sel.Select(meta, candidates)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("expected identical results, got %+v and %+v", a, b)
		}
	})
}

func TestSelectThresholdBoundary(t *testing.T) {
	cfg := defaultMatcherConfig()
	sel, err := NewSelector(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	meta := centerfold()
	near := models.Candidate{ID: "near", Title: "Centrefold", Artist: "The J. Geils Band"}
	score := sel.Score(meta, near)
	if score <= 0 || score >= 1 {
		t.Fatalf("expected a partial score, got %v", score)
	}

	tc := []struct {
		name      string
		threshold float64
		want      bool
	}{
		{"score equal to threshold does not match", score, false},
		{"threshold just above score does not match", math.Nextafter(score, 1), false},
		{"threshold just below score matches", math.Nextafter(score, 0), true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			cfg.Threshold = tt.threshold
			s, err := NewSelector(cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			result := s.Select(meta, []models.Candidate{near})
			if result.IsMatch != tt.want {
				t.Errorf("threshold %v: expected match=%v, got %+v", tt.threshold, tt.want, result)
			}
			if !tt.want && result.SpotifyID != "" {
				t.Errorf("expected no Spotify id without a match, got %q", result.SpotifyID)
			}
		})
	}
}

func TestScoreEmptyArtist(t *testing.T) {
	sel, err := NewSelector(defaultMatcherConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	meta := models.TrackMetadata{Title: "Centerfold", URL: "https://music.apple.com/us/song/centerfold/1"}
	c := models.Candidate{ID: "x", Title: "Centerfold"}

	score := sel.Score(meta, c)
	if math.Abs(score-0.6) > 1e-9 {
		t.Errorf("expected title credit only (0.6), got %v", score)
	}
	if result := sel.Select(meta, []models.Candidate{c}); result.IsMatch {
		t.Errorf("expected no match without an artist, got %+v", result)
	}
}

func TestMatcher(t *testing.T) {
	ctx := context.Background()
	link := "https://music.apple.com/us/album/freeze-frame/1?i=2"
	hit := models.Candidate{ID: "4bRhOGpoG2VXqJMVCG2B7G", Title: "Centerfold", Artist: "The J. Geils Band", Artists: []string{"The J. Geils Band"}}

	newMatcher := func(t *testing.T, svc *tu.MockService) *Matcher {
		t.Helper()
		m, err := New(svc, defaultMatcherConfig(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return m
	}

	t.Run("track search", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.TrackResults["centerfold the j geils band"] = []models.Candidate{hit}

		result, err := newMatcher(t, svc).Match(ctx, link, centerfold())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsMatch || result.SpotifyID != hit.ID || result.SourceLink != link {
			t.Errorf("unexpected result %+v", result)
		}
		if len(svc.Queries) != 1 {
			t.Errorf("expected a single search, got %v", svc.Queries)
		}
	})

	t.Run("falls back to field query", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.TrackResults["track:centerfold artist:the j geils band"] = []models.Candidate{hit}

		result, err := newMatcher(t, svc).Match(ctx, link, centerfold())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsMatch {
			t.Errorf("expected match from fallback, got %+v", result)
		}
		if len(svc.Queries) != 2 {
			t.Errorf("expected two searches, got %v", svc.Queries)
		}
	})

	t.Run("album search", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.AlbumResults["freeze frame the j geils band"] = []models.Candidate{
			{ID: "album1", Title: "Freeze-Frame", Artist: "The J. Geils Band"},
		}
		meta := models.TrackMetadata{Title: "Freeze-Frame", Artist: "The J. Geils Band", Album: "Freeze-Frame", Kind: models.EntityAlbum}

		result, err := newMatcher(t, svc).Match(ctx, "https://music.apple.com/us/album/freeze-frame/1", meta)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.SpotifyID != "album1" {
			t.Errorf("expected album match, got %+v", result)
		}
	})

	t.Run("unmatched is not an error", func(t *testing.T) {
		svc := tu.NewMockService()

		result, err := newMatcher(t, svc).Match(ctx, link, centerfold())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsMatch || result.SourceLink != link {
			t.Errorf("expected unmatched result, got %+v", result)
		}
	})

	t.Run("search failure", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.SearchErr = errors.New("boom")

		_, err := newMatcher(t, svc).Match(ctx, link, centerfold())
		if !errors.Is(err, shared.ErrSearch) {
			t.Errorf("expected ErrSearch, got %v", err)
		}
	})

	t.Run("empty metadata", func(t *testing.T) {
		_, err := newMatcher(t, tu.NewMockService()).Match(ctx, link, models.TrackMetadata{})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("limit is passed through", func(t *testing.T) {
		svc := tu.NewMockService()
		svc.TrackResults["centerfold the j geils band"] = []models.Candidate{
			{ID: "a", Title: "x", Artist: "y"}, {ID: "b", Title: "x", Artist: "y"}, hit,
		}

		cfg := defaultMatcherConfig()
		cfg.SearchLimit = 2
		m, err := New(svc, cfg, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		result, err := m.Match(ctx, link, centerfold())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.SpotifyID == hit.ID {
			t.Errorf("expected the third candidate to be cut by the limit")
		}
	})
}
