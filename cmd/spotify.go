package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/songlinks/internal/server"
	"github.com/desertthunder/songlinks/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// SpotifyAuth performs OAuth2 authentication flow for Spotify.
//
// Starts a local HTTP server, opens browser for user authorization, and exchanges auth code for tokens.
func (r *Runner) SpotifyAuth(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Spotify
	if !creds.HasCredentials() {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s or .env", shared.ErrMissingCredentials, r.configPath)
	}

	svc, err := r.newSpotifyService()
	if err != nil {
		return err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return fmt.Errorf("failed to generate state token: %w", err)
	}

	token, err := r.doOAuth(ctx, svc.OAuthConfig(), svc.GetAuthURL(state), state)
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", r.configPath)
	r.writePlain("You can now use: songlinks convert <file>\n")
	return nil
}

// doOAuth serves the callback on the redirect URL's host, opens authURL and waits for one result.
func (r *Runner) doOAuth(ctx context.Context, config *oauth2.Config, authURL, state string) (*oauth2.Token, error) {
	addr := r.config.Server.Addr()
	if u, err := url.Parse(config.RedirectURL); err == nil && u.Host != "" {
		addr = u.Host
	}

	handler := server.NewOAuthHandler(config, state)
	router := server.NewBasicRouter()
	router.Handler(handler)

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Serve(serveCtx, addr, router, r.logger)
	}()

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%v timeout)...\n", r.authTimeout)

	timeout := time.NewTimer(r.authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after %v", shared.ErrTimeout, r.authTimeout)
	}

	cancel()
	if err := <-serverErrors; err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Err != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Err)
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}

// SpotifyWhoami prints the authorized Spotify user.
func (r *Runner) SpotifyWhoami(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	user, err := r.spotify.CurrentUser(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}

	r.writePlain("%s (%s)\n", user.DisplayName, user.ID)
	if user.Email != "" {
		r.writePlain("Email:   %s\n", user.Email)
	}
	if user.Country != "" {
		r.writePlain("Country: %s\n", user.Country)
	}
	if user.Product != "" {
		r.writePlain("Plan:    %s\n", user.Product)
	}
	return nil
}

// SpotifySearch runs a track or album search and prints the candidates in API order.
func (r *Runner) SpotifySearch(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	search := r.spotify.SearchTracks
	if cmd.Bool("albums") {
		search = r.spotify.SearchAlbums
	}

	candidates, err := search(ctx, query, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(candidates, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d results for %q:\n\n", len(candidates), query)
	for i, c := range candidates {
		r.writePlain("%d. %s - %s\n", i+1, c.Artist, c.Title)
		if c.Album != "" && c.Album != c.Title {
			r.writePlain("   Album: %s\n", c.Album)
		}
		r.writePlain("   %s\n", c.URL)
	}
	return nil
}
