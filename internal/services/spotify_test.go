package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/songlinks/internal/shared"
	tu "github.com/desertthunder/songlinks/internal/testing"
)

func testCredentials() map[string]string {
	return map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	}
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			credentials := testCredentials()
			credentials["redirect_uri"] = "http://127.0.0.1:9000/callback"

			srv, err := NewSpotifyService(credentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
			if srv.config.RedirectURL != "http://127.0.0.1:9000/callback" {
				t.Errorf("expected configured redirect URI, got %s", srv.config.RedirectURL)
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_secret": "test_client_secret"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_id": "test_client_id"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			srv, err := NewSpotifyService(testCredentials())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.config.RedirectURL != defaultRedirectURI {
				t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		authURL := srv.GetAuthURL("test_state")
		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Error("auth URL should contain Spotify domain")
		}
		if !strings.Contains(authURL, "test_client_id") {
			t.Error("auth URL should contain client_id")
		}
		if !strings.Contains(authURL, "test_state") {
			t.Error("auth URL should contain state")
		}
		if !strings.Contains(authURL, "playlist-modify-public") {
			t.Error("auth URL should request playlist write scope")
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		t.Run("Unauthenticated Requests Fail", func(t *testing.T) {
			_, err := srv.CurrentUser(context.Background())
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("WithAccessToken", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{"access_token": "test_access_token"})
			if err != nil {
				t.Errorf("expected no error with access token, got %v", err)
			}

			if !srv.Authenticated() {
				t.Fatal("expected token to be set")
			}
			if srv.Token().AccessToken != "test_access_token" {
				t.Errorf("expected access token to be 'test_access_token', got %s", srv.Token().AccessToken)
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			err := srv.Authenticate(context.Background(), map[string]string{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("Service Interface", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		var _ Service = srv
		var _ Service = tu.NewMockService()
		var _ Lookup = srv
		var _ Lookup = tu.NewMockService()
	})

	t.Run("SetTokenRefreshCallback", func(t *testing.T) {
		srv, err := NewSpotifyService(testCredentials())
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		t.Run("sets callback successfully", func(t *testing.T) {
			srv.SetTokenRefreshCallback(func(token *oauth2.Token) {})

			if srv.onTokenRefresh == nil {
				t.Error("expected callback to be set")
			}
		})

		t.Run("can set nil callback", func(t *testing.T) {
			srv.SetTokenRefreshCallback(nil)
			if srv.onTokenRefresh != nil {
				t.Error("expected callback to be nil")
			}
		})
	})

	t.Run("refreshableTokenSource", func(t *testing.T) {
		t.Run("calls callback on first token fetch", func(t *testing.T) {
			callbackCalled := false
			var capturedToken *oauth2.Token

			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "test_token"},
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					callbackCalled = true
					capturedToken = token
				},
			}

			token, err := source.Token()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if !callbackCalled {
				t.Error("expected callback to be called on first fetch")
			}
			if capturedToken == nil {
				t.Error("expected token to be captured")
			}
			if capturedToken.AccessToken != "test_token" {
				t.Errorf("expected captured token to be 'test_token', got %s", capturedToken.AccessToken)
			}
			if token.AccessToken != "test_token" {
				t.Errorf("expected returned token to be 'test_token', got %s", token.AccessToken)
			}
		})

		t.Run("calls callback when token changes", func(t *testing.T) {
			callCount := 0
			var capturedTokens []*oauth2.Token

			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "token1"},
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					callCount++
					capturedTokens = append(capturedTokens, token)
				},
			}

			_, _ = source.Token()
			if callCount != 1 {
				t.Errorf("expected callback called once, got %d", callCount)
			}

			mockSource.token = &oauth2.Token{AccessToken: "token2"}
			token2, _ := source.Token()

			if callCount != 2 {
				t.Errorf("expected callback called twice, got %d", callCount)
			}
			if len(capturedTokens) != 2 {
				t.Errorf("expected 2 captured tokens, got %d", len(capturedTokens))
			}
			if token2.AccessToken != "token2" {
				t.Errorf("expected new token, got %s", token2.AccessToken)
			}
		})

		t.Run("doesn't call callback when token unchanged", func(t *testing.T) {
			callCount := 0

			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "same_token"},
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					callCount++
				},
			}

			source.Token()
			source.Token()
			source.Token()

			if callCount != 1 {
				t.Errorf("expected callback called once, got %d", callCount)
			}
		})

		t.Run("handles nil callback gracefully", func(t *testing.T) {
			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "test_token"},
			}

			source := &refreshableTokenSource{
				source:   mockSource,
				callback: nil,
			}

			token, err := source.Token()
			if err != nil {
				t.Fatalf("expected no error with nil callback, got %v", err)
			}
			if token.AccessToken != "test_token" {
				t.Error("expected token to be returned despite nil callback")
			}
		})

		t.Run("propagates source errors", func(t *testing.T) {
			mockSource := &mockTokenSource{
				err: errors.New("token source error"),
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					t.Error("callback should not be called on error")
				},
			}

			token, err := source.Token()
			if err == nil {
				t.Fatal("expected error from source")
			}
			if !strings.Contains(err.Error(), "token source error") {
				t.Errorf("expected source error, got %v", err)
			}
			if token != nil {
				t.Error("expected nil token on error")
			}
		})

		t.Run("handles callback panic gracefully", func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Error("expected panic to be contained within callback")
				}
			}()

			mockSource := &mockTokenSource{
				token: &oauth2.Token{AccessToken: "test_token"},
			}

			source := &refreshableTokenSource{
				source: mockSource,
				callback: func(token *oauth2.Token) {
					panic("callback panic")
				},
			}

			func() {
				defer func() {
					_ = recover()
				}()
				source.Token()
			}()
		})
	})
}

// mockTokenSource implements [oauth2.TokenSource] for testing
type mockTokenSource struct {
	token *oauth2.Token
	err   error
}

func (m *mockTokenSource) Token() (*oauth2.Token, error) {
	return m.token, m.err
}

// fakeSpotifyAPI records requests and serves canned Web API responses.
type fakeSpotifyAPI struct {
	mu       sync.Mutex
	requests []string
	added    [][]string
	bodies   []map[string]any
}

func (f *fakeSpotifyAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test_access_token" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"status":401,"message":"Invalid access token"}}`))
			return
		}
		json.NewEncoder(w).Encode(SpotifyUser{ID: "user1", DisplayName: "Test User"})
	})

	mux.HandleFunc("GET /search", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		q := r.URL.Query()
		switch q.Get("type") {
		case "track":
			json.NewEncoder(w).Encode(map[string]any{
				"tracks": map[string]any{"items": []SpotifyTrack{
					{ID: "t1", Name: "Centerfold", URI: "spotify:track:t1", Artists: []SpotifyArtist{{Name: "The J. Geils Band"}}, Album: SpotifyAlbum{Name: "Freeze-Frame"}},
					{ID: "t2", Name: "Centerfold - Live", URI: "spotify:track:t2", Artists: []SpotifyArtist{{Name: "The J. Geils Band"}, {Name: "Guest"}}},
				}},
			})
		case "album":
			json.NewEncoder(w).Encode(map[string]any{
				"albums": map[string]any{"items": []SpotifyAlbum{{ID: "a1", Name: "Freeze-Frame", Artists: []SpotifyArtist{{Name: "The J. Geils Band"}}}}},
			})
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	mux.HandleFunc("POST /users/{user}/playlists", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode playlist body: %v", err)
		}
		f.mu.Lock()
		f.bodies = append(f.bodies, body)
		f.mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(SpotifyPlaylist{ID: "p1", Name: body["name"].(string), Public: true})
	})

	mux.HandleFunc("POST /playlists/{id}/tracks", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			URIs []string `json:"uris"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		for _, uri := range body.URIs {
			if strings.HasSuffix(uri, ":bad") {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":{"status":400,"message":"Invalid base62 id"}}`))
				return
			}
		}
		f.mu.Lock()
		f.added = append(f.added, body.URIs)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"snapshot_id":"s"}`))
	})

	mux.HandleFunc("GET /albums/{id}/tracks", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		if r.PathValue("id") == "missing" {
			http.NotFound(w, r)
			return
		}
		next := "next"
		if r.URL.Query().Get("offset") == "0" {
			json.NewEncoder(w).Encode(map[string]any{"items": []SpotifyTrack{{ID: "x1"}, {ID: "x2"}}, "next": &next})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"items": []SpotifyTrack{{ID: "x3"}}, "next": nil})
	})

	mux.HandleFunc("GET /tracks/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		if r.PathValue("id") != "t1" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"status":400,"message":"invalid id"}}`))
			return
		}
		json.NewEncoder(w).Encode(SpotifyTrack{ID: "t1", Name: "Centerfold", Artists: []SpotifyArtist{{Name: "The J. Geils Band"}}, Album: SpotifyAlbum{Name: "Freeze-Frame"}})
	})

	mux.HandleFunc("GET /albums/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		if r.PathValue("id") != "a1" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(SpotifyAlbum{ID: "a1", Name: "Freeze-Frame", Artists: []SpotifyArtist{{Name: "The J. Geils Band"}}})
	})

	mux.HandleFunc("GET /rate-limited", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	return mux
}

func (f *fakeSpotifyAPI) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.URL.RequestURI())
}

func newTestService(t *testing.T, fake *fakeSpotifyAPI) *SpotifyService {
	t.Helper()
	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	srv, err := NewSpotifyService(testCredentials(), WithBaseURL(server.URL), WithHTTPClient(server.Client()), WithRateLimit(0, 0))
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	if err := srv.Authenticate(context.Background(), map[string]string{"access_token": "test_access_token"}); err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}
	return srv
}

func TestSpotifyAPI(t *testing.T) {
	ctx := context.Background()

	t.Run("CurrentUser", func(t *testing.T) {
		srv := newTestService(t, &fakeSpotifyAPI{})

		user, err := srv.CurrentUser(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.ID != "user1" || user.DisplayName != "Test User" {
			t.Errorf("unexpected user %+v", user)
		}
	})

	t.Run("Unauthorized Maps To ErrNotAuthenticated", func(t *testing.T) {
		srv := newTestService(t, &fakeSpotifyAPI{})
		srv.SetToken(ctx, &oauth2.Token{AccessToken: "wrong"})

		_, err := srv.CurrentUser(ctx)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if !strings.Contains(err.Error(), "Invalid access token") {
			t.Errorf("expected API message in error, got %v", err)
		}
	})

	t.Run("Rate Limited", func(t *testing.T) {
		srv := newTestService(t, &fakeSpotifyAPI{})

		err := srv.doRequest(ctx, http.MethodGet, "/rate-limited", nil, nil)
		if !errors.Is(err, shared.ErrRateLimited) {
			t.Errorf("expected ErrRateLimited, got %v", err)
		}
	})

	t.Run("SearchTracks", func(t *testing.T) {
		fake := &fakeSpotifyAPI{}
		srv := newTestService(t, fake)

		candidates, err := srv.SearchTracks(ctx, "centerfold j geils band", 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(candidates) != 2 {
			t.Fatalf("expected 2 candidates, got %d", len(candidates))
		}
		if candidates[0].ID != "t1" || candidates[0].Artist != "The J. Geils Band" || candidates[0].Album != "Freeze-Frame" {
			t.Errorf("unexpected first candidate %+v", candidates[0])
		}
		if candidates[0].URL != "https://open.spotify.com/track/t1" {
			t.Errorf("expected derived URL, got %s", candidates[0].URL)
		}
		if candidates[1].Artist != "The J. Geils Band, Guest" || len(candidates[1].Artists) != 2 {
			t.Errorf("expected joined artists, got %+v", candidates[1])
		}

		if len(fake.requests) != 1 || !strings.Contains(fake.requests[0], "type=track") || !strings.Contains(fake.requests[0], "limit=5") {
			t.Errorf("unexpected search request %v", fake.requests)
		}
	})

	t.Run("Track And Album Lookup", func(t *testing.T) {
		srv := newTestService(t, &fakeSpotifyAPI{})

		track, err := srv.Track(ctx, "t1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if track.Title != "Centerfold" || track.Artist != "The J. Geils Band" || track.Album != "Freeze-Frame" {
			t.Errorf("unexpected track %+v", track)
		}

		album, err := srv.Album(ctx, "a1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if album.Title != "Freeze-Frame" || album.URL != "https://open.spotify.com/album/a1" {
			t.Errorf("unexpected album %+v", album)
		}

		if _, err := srv.Track(ctx, "nope"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest for an unknown track, got %v", err)
		}
		if _, err := srv.Album(ctx, "nope"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest for an unknown album, got %v", err)
		}
	})

	t.Run("SearchAlbums", func(t *testing.T) {
		srv := newTestService(t, &fakeSpotifyAPI{})

		candidates, err := srv.SearchAlbums(ctx, "album:Freeze-Frame", 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(candidates) != 1 || candidates[0].ID != "a1" || candidates[0].URL != "https://open.spotify.com/album/a1" {
			t.Errorf("unexpected candidates %+v", candidates)
		}
	})

	t.Run("Search Errors Wrap ErrSearch", func(t *testing.T) {
		srv := newTestService(t, &fakeSpotifyAPI{})

		if _, err := srv.SearchTracks(ctx, "   ", 5); !errors.Is(err, shared.ErrSearch) {
			t.Errorf("expected ErrSearch for empty query, got %v", err)
		}

		srv.SetToken(ctx, &oauth2.Token{AccessToken: "x"})
		srv.httpClient = &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		_, err := srv.SearchTracks(ctx, "song", 5)
		if !errors.Is(err, shared.ErrSearch) || !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrSearch wrapping ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Undecodable Response", func(t *testing.T) {
		srv := newTestService(t, &fakeSpotifyAPI{})
		srv.httpClient = &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK,
			Body:       &tu.FCloser{},
			Header:     http.Header{},
		}, nil)}

		if _, err := srv.CurrentUser(ctx); err == nil || !strings.Contains(err.Error(), "decode") {
			t.Errorf("expected decode error, got %v", err)
		}
	})

	t.Run("CreatePlaylist", func(t *testing.T) {
		fake := &fakeSpotifyAPI{}
		srv := newTestService(t, fake)

		playlist, err := srv.CreatePlaylist(ctx, "user1", "Chat Songs", "from the group chat", true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if playlist.ID != "p1" || playlist.URL != "https://open.spotify.com/playlist/p1" {
			t.Errorf("unexpected playlist %+v", playlist)
		}
		if fake.bodies[0]["description"] != "from the group chat" || fake.bodies[0]["public"] != true {
			t.Errorf("unexpected request body %v", fake.bodies[0])
		}
	})

	t.Run("AddTracks Batches By 100", func(t *testing.T) {
		fake := &fakeSpotifyAPI{}
		srv := newTestService(t, fake)

		uris := make([]string, 250)
		for i := range uris {
			uris[i] = "spotify:track:ok"
		}
		if err := srv.AddTracks(ctx, "p1", uris); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(fake.added) != 3 || len(fake.added[0]) != 100 || len(fake.added[2]) != 50 {
			t.Errorf("unexpected batches %d", len(fake.added))
		}
	})

	t.Run("AddTracks Invalid Id", func(t *testing.T) {
		srv := newTestService(t, &fakeSpotifyAPI{})

		err := srv.AddTracks(ctx, "p1", []string{"spotify:track:bad"})
		if !errors.Is(err, shared.ErrPlaylistOperation) {
			t.Errorf("expected ErrPlaylistOperation, got %v", err)
		}
	})

	t.Run("AlbumTrackIDs Pages", func(t *testing.T) {
		srv := newTestService(t, &fakeSpotifyAPI{})

		ids, err := srv.AlbumTrackIDs(ctx, "a1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Join(ids, ",") != "x1,x2,x3" {
			t.Errorf("unexpected ids %v", ids)
		}

		if _, err := srv.AlbumTrackIDs(ctx, "missing"); !errors.Is(err, shared.ErrPlaylistOperation) {
			t.Errorf("expected ErrPlaylistOperation, got %v", err)
		}
	})

	t.Run("Refreshed Token Reaches Callback", func(t *testing.T) {
		tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.Copy(io.Discard, r.Body)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"test_access_token","token_type":"Bearer","expires_in":3600}`))
		}))
		defer tokenServer.Close()

		fake := &fakeSpotifyAPI{}
		srv := newTestService(t, fake)
		srv.config.Endpoint.TokenURL = tokenServer.URL

		var got *oauth2.Token
		srv.SetTokenRefreshCallback(func(tok *oauth2.Token) { got = tok })
		srv.SetToken(ctx, &oauth2.Token{AccessToken: "expired", RefreshToken: "r", Expiry: time1970()})

		if _, err := srv.CurrentUser(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil || got.AccessToken != "test_access_token" {
			t.Errorf("expected refreshed token in callback, got %+v", got)
		}
	})
}

func time1970() time.Time {
	return time.Unix(1, 0)
}
