package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./songlinks.db" {
			t.Errorf("expected database path ./songlinks.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Matcher.Threshold != 0.8 {
			t.Errorf("expected matcher threshold 0.8, got %v", config.Matcher.Threshold)
		}

		if config.Matcher.TitleWeight < config.Matcher.ArtistWeight {
			t.Errorf("title weight %v should not be below artist weight %v", config.Matcher.TitleWeight, config.Matcher.ArtistWeight)
		}

		if config.Matcher.SearchLimit != 5 {
			t.Errorf("expected search limit 5, got %d", config.Matcher.SearchLimit)
		}

		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.Credentials.Spotify.HasCredentials() {
			t.Error("placeholder credentials should not count as configured")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[matcher]
threshold = 0.9

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:3000/callback"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}

		if config.Matcher.Threshold != 0.9 {
			t.Errorf("expected threshold 0.9, got %v", config.Matcher.Threshold)
		}

		if config.Matcher.SearchLimit != 5 {
			t.Errorf("expected omitted search limit to keep default 5, got %d", config.Matcher.SearchLimit)
		}

		if !config.Credentials.Spotify.HasCredentials() {
			t.Error("expected credentials to be configured")
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("LoadConfig Invalid TOML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		if err := os.WriteFile(path, []byte("[server\nport = "), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		_, err := LoadConfig(path)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("SaveConfig Round Trip With Token", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		expiry := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		config.Credentials.Spotify.Update(&oauth2.Token{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			Expiry:       expiry,
		})

		if err := SaveConfig(path, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}

		token := loaded.Credentials.Spotify.Token()
		if token == nil {
			t.Fatal("expected token to be persisted")
		}
		if token.AccessToken != "access" || token.RefreshToken != "refresh" {
			t.Errorf("unexpected token %+v", token)
		}
		if !token.Expiry.Equal(expiry) {
			t.Errorf("expected expiry %v, got %v", expiry, token.Expiry)
		}
	})
}

func TestSpotifyConfig(t *testing.T) {
	t.Run("Token Is Nil Without Stored Values", func(t *testing.T) {
		if (SpotifyConfig{}).Token() != nil {
			t.Error("expected nil token")
		}
	})

	t.Run("Update Keeps Refresh Token", func(t *testing.T) {
		c := SpotifyConfig{RefreshToken: "keep"}
		c.Update(&oauth2.Token{AccessToken: "new"})

		if c.AccessToken != "new" {
			t.Errorf("expected access token new, got %s", c.AccessToken)
		}
		if c.RefreshToken != "keep" {
			t.Errorf("expected refresh token to be kept, got %s", c.RefreshToken)
		}
	})

	t.Run("Map", func(t *testing.T) {
		m := SpotifyConfig{ClientID: "id", ClientSecret: "secret", RedirectURI: "uri"}.Map()
		if m["client_id"] != "id" || m["client_secret"] != "secret" || m["redirect_uri"] != "uri" {
			t.Errorf("unexpected map %v", m)
		}
	})
}

func TestApplyEnv(t *testing.T) {
	t.Run("SPOTIPY Names", func(t *testing.T) {
		t.Setenv("SPOTIPY_CLIENT_ID", "env_id")
		t.Setenv("SPOTIPY_CLIENT_SECRET", "env_secret")
		t.Setenv("SONGLINKS_PORT", "4000")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.Credentials.Spotify.ClientID != "env_id" {
			t.Errorf("expected env_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.ClientSecret != "env_secret" {
			t.Errorf("expected env_secret, got %s", config.Credentials.Spotify.ClientSecret)
		}
		if config.Server.Port != 4000 {
			t.Errorf("expected port 4000, got %d", config.Server.Port)
		}
	})

	t.Run("SPOTIFY Names Take Precedence", func(t *testing.T) {
		t.Setenv("SPOTIPY_CLIENT_ID", "old")
		t.Setenv("SPOTIFY_CLIENT_ID", "new")

		config := DefaultConfig()
		config.ApplyEnv()

		if config.Credentials.Spotify.ClientID != "new" {
			t.Errorf("expected new, got %s", config.Credentials.Spotify.ClientID)
		}
	})

	t.Run("LoadEnv", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte("SONGLINKS_DB_PATH=/tmp/from-env.db\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv("SONGLINKS_DB_PATH", "")
		os.Unsetenv("SONGLINKS_DB_PATH")

		if err := LoadEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		config := DefaultConfig()
		config.ApplyEnv()
		if config.Database.Path != "/tmp/from-env.db" {
			t.Errorf("expected db path from .env, got %s", config.Database.Path)
		}
	})
}
