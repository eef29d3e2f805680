package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/songlinks/internal/server"
	"github.com/desertthunder/songlinks/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the JSON API until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := r.serverConfig(cmd).Addr()

	cfg := server.APIConfig{
		Reader: r.reader,
		Logger: shared.WithLogger(r.logger, "component", "api"),
	}
	if r.engine != nil {
		cfg.Engine, cfg.Builder = r.engine, r.builder
	} else {
		r.logger.Warn("Spotify is not configured; conversion and playlist endpoints will answer 503")
	}
	if cmd.Bool("save") {
		history, err := r.openHistory()
		if err != nil {
			return err
		}
		cfg.History = history
	}

	handler := server.NewHandler(cfg, cmd.String("cors-origin"))
	if err := server.Serve(ctx, addr, handler, r.logger); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}
	return nil
}

func (r *Runner) serverConfig(cmd *cli.Command) shared.ServerConfig {
	sc := r.config.Server
	if cmd.IsSet("host") {
		sc.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		sc.Port = int(cmd.Int("port"))
	}
	return sc
}
