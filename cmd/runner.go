package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songlinks/internal/applemusic"
	"github.com/desertthunder/songlinks/internal/matcher"
	"github.com/desertthunder/songlinks/internal/repositories"
	"github.com/desertthunder/songlinks/internal/services"
	"github.com/desertthunder/songlinks/internal/shared"
	"github.com/desertthunder/songlinks/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    services.Service
	reader     tasks.MetadataReader
	engine     *tasks.ConversionEngine
	builder    *tasks.PlaylistBuilder
	httpClient *http.Client
	ownClient  bool
	ownReader  bool
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	db         *sql.DB
	history    *repositories.History

	openBrowser func(string) error
	authTimeout time.Duration
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    services.Service
	Reader     tasks.MetadataReader
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		reader:     opts.Reader,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		ownClient:  opts.HTTPClient == nil,
		ownReader:  opts.Reader == nil,

		openBrowser: shared.OpenBrowser,
		authTimeout: authTimeout,
	}
	if r.ownClient {
		r.httpClient = &http.Client{Timeout: r.config.HTTP.Timeout()}
	}
	if err := r.wire(); err != nil {
		r.logger.Warn("conversion disabled", "error", err)
	}
	return r
}

// Before loads the config and .env overrides, then connects to Spotify when credentials are present.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	r.configPath = cmd.String("config")
	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	if err := shared.LoadEnv(cmd.StringSlice("env")...); err != nil {
		return ctx, fmt.Errorf("%w: failed to load env: %w", shared.ErrInvalidConfig, err)
	}
	r.config.ApplyEnv()

	// The loaded [http] section replaces the defaults the runner was built with.
	if r.ownClient {
		r.httpClient = &http.Client{Timeout: r.config.HTTP.Timeout()}
	}
	if r.ownReader {
		r.reader = nil
	}

	if r.spotify == nil && r.config.Credentials.Spotify.HasCredentials() {
		svc, err := r.newSpotifyService()
		if err != nil {
			return ctx, err
		}
		if token := r.config.Credentials.Spotify.Token(); token != nil {
			svc.SetTokenRefreshCallback(func(t *oauth2.Token) {
				if err := r.saveTokens(t); err != nil {
					r.logger.Warn("failed to persist refreshed token", "error", err)
				}
			})
			svc.SetToken(ctx, token)
		}
		r.spotify = svc
	}

	return ctx, r.wire()
}

// After closes the history database if a command opened it.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db, r.history = nil, nil
	return err
}

func (r *Runner) newSpotifyService() (*services.SpotifyService, error) {
	svc, err := services.NewSpotifyService(
		r.config.Credentials.Spotify.Map(),
		services.WithHTTPClient(r.httpClient),
		services.WithRateLimit(r.config.HTTP.RequestsPerSecond, r.config.HTTP.Burst),
		services.WithLogger(shared.WithLogger(r.logger, "service", "spotify")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}
	return svc, nil
}

// wire builds the reader, and when a Spotify service is available, the engine and builder.
func (r *Runner) wire() error {
	if r.reader == nil {
		r.reader = applemusic.NewReader(applemusic.Options{
			Client:    r.httpClient,
			UserAgent: r.config.HTTP.UserAgent,
			Logger:    shared.WithLogger(r.logger, "component", "applemusic"),
		})
	}
	if r.spotify == nil {
		return nil
	}

	engine, err := r.newEngine(r.config.Matcher)
	if err != nil {
		return err
	}
	r.engine = engine
	r.builder = tasks.NewPlaylistBuilder(r.spotify, r.logger)
	return nil
}

func (r *Runner) newEngine(cfg shared.MatcherConfig) (*tasks.ConversionEngine, error) {
	m, err := matcher.New(r.spotify, cfg, r.logger)
	if err != nil {
		return nil, err
	}
	opts := []tasks.EngineOption{
		tasks.WithRateLimit(r.config.HTTP.RequestsPerSecond, r.config.HTTP.Burst),
		tasks.WithLogger(r.logger),
	}
	if lookup, ok := r.spotify.(services.Lookup); ok {
		opts = append(opts, tasks.WithLookup(lookup))
	}
	return tasks.NewConversionEngine(r.reader, m, opts...), nil
}

func (r *Runner) requireEngine() error {
	if r.engine == nil || r.builder == nil {
		return fmt.Errorf("%w: Spotify credentials not configured; run 'songlinks setup config' and 'songlinks spotify auth'", shared.ErrServiceUnavailable)
	}
	return nil
}

// openHistory opens the configured database, applying migrations, on first use.
func (r *Runner) openHistory() (*repositories.History, error) {
	if r.history != nil {
		return r.history, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	r.history = repositories.NewHistory(db)
	return r.history, nil
}

// saveTokens stores token in the config and writes it to the config path when one is set.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrMissingConfig)
	}
	if token == nil {
		return fmt.Errorf("failed to update spotify configuration: %w: token cannot be nil", shared.ErrInvalidInput)
	}

	r.config.Credentials.Spotify.Update(token)
	if r.configPath == "" {
		return nil
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// readInput reads path, or the runner's input when path is empty or "-".
func (r *Runner) readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(r.input)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read %s: %w", shared.ErrInvalidArgument, path, err)
	}
	return string(data), nil
}

// progressLogger logs updates from a progress channel until it is closed.
func (r *Runner) progressLogger(progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	for update := range progress {
		switch update.Phase {
		case tasks.ConvertLinks, tasks.ExpandAlbums, tasks.AddTracks:
			r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		default:
			r.logger.Info(update.Message, "phase", update.Phase)
		}
	}
	close(done)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	rule := strings.Repeat("═", 39)
	r.writePlain("%s\n%v\n%s\n", rule, title, rule)
}
