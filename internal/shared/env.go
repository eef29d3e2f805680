package shared

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from the given .env files into the process environment.
// Existing variables are not overwritten. Missing files are skipped.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// ApplyEnv overrides config values with environment variables.
//
// The SPOTIPY_* names are accepted alongside SPOTIFY_* for existing .env files.
func (c *Config) ApplyEnv() {
	if v := firstEnv("SPOTIFY_CLIENT_ID", "SPOTIPY_CLIENT_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := firstEnv("SPOTIFY_CLIENT_SECRET", "SPOTIPY_CLIENT_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := firstEnv("SPOTIFY_REDIRECT_URI", "SPOTIPY_REDIRECT_URI"); v != "" {
		c.Credentials.Spotify.RedirectURI = v
	}
	if v := os.Getenv("SONGLINKS_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("SONGLINKS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
