package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/songlinks/internal/formatter"
	"github.com/desertthunder/songlinks/internal/links"
	"github.com/desertthunder/songlinks/internal/models"
	"github.com/desertthunder/songlinks/internal/shared"
	"github.com/desertthunder/songlinks/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Convert matches the Apple Music links in a file on Spotify and prints one outcome per link.
func (r *Runner) Convert(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireEngine(); err != nil {
		return err
	}

	format := formatter.FormatText
	if cmd.Bool("json") {
		format = formatter.FormatJSON
	} else if cmd.IsSet("format") {
		f, err := formatter.ParseFormat(cmd.String("format"))
		if err != nil {
			return err
		}
		format = f
	}

	engine := r.engine
	if cmd.IsSet("threshold") || cmd.IsSet("limit") {
		cfg := r.config.Matcher
		if cmd.IsSet("threshold") {
			cfg.Threshold = cmd.Float("threshold")
		}
		if cmd.IsSet("limit") {
			cfg.SearchLimit = int(cmd.Int("limit"))
		}
		e, err := r.newEngine(cfg)
		if err != nil {
			return fmt.Errorf("%w: %w", shared.ErrInvalidFlag, err)
		}
		engine = e
	}

	source := cmd.StringArg("file")
	text, err := r.readInput(source)
	if err != nil {
		return err
	}

	apple := links.Extract(text).Apple
	if len(apple) == 0 {
		return fmt.Errorf("%w: no Apple Music links found", shared.ErrInvalidInput)
	}
	r.logger.Info("converting links", "count", len(apple))

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.progressLogger(progress, done)
	outcomes := engine.Convert(ctx, links.URLs(apple), progress)
	close(progress)
	<-done

	summary := models.Summarize(outcomes)
	r.logger.Info("conversion complete", "matched", summary.Matched, "unmatched", summary.Unmatched, "errors", summary.Errors)

	var playlist *models.PlaylistOutcome
	if name := cmd.String("playlist"); name != "" {
		if playlist, err = r.buildFromOutcomes(ctx, outcomes, name); err != nil {
			return err
		}
	}

	if cmd.Bool("save") {
		if err := r.recordConversion(sourceName(source), outcomes, playlist); err != nil {
			return err
		}
	}

	if dir := cmd.String("export-dir"); dir != "" {
		result, err := tasks.Export(ctx, outcomes, tasks.ExportOpts{OutputDir: dir, Title: "songlinks: " + sourceName(source)}, nil)
		if err != nil {
			return err
		}
		r.logger.Info("export complete", "dir", result.OutputDirectory, "successful", result.Successful, "failed", result.Failed)
	}

	if path := cmd.String("output"); path != "" {
		if _, err := formatter.WriteFile(outcomes, format, path); err != nil {
			return err
		}
		r.logger.Info("results written", "file", path)
	} else if format == formatter.FormatJSON {
		if err := r.writeJSON(outcomes, cmd.Bool("pretty")); err != nil {
			return err
		}
	} else if err := formatter.WriteTo(r.output, format, outcomes); err != nil {
		return err
	}

	if playlist != nil && format == formatter.FormatText {
		r.writePlainln("%s", formatter.PlaylistToText(playlist))
	}
	return nil
}

func (r *Runner) buildFromOutcomes(ctx context.Context, outcomes []models.Outcome, name string) (*models.PlaylistOutcome, error) {
	req := tasks.MatchedRequest(outcomes, name, "Created by songlinks")
	if len(req.TrackIDs) == 0 && len(req.AlbumIDs) == 0 {
		return nil, fmt.Errorf("%w: no matched links to add to a playlist", shared.ErrInvalidInput)
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.progressLogger(progress, done)
	playlist, err := r.builder.Build(ctx, req, progress)
	close(progress)
	<-done
	return playlist, err
}

func (r *Runner) recordConversion(source string, outcomes []models.Outcome, playlist *models.PlaylistOutcome) error {
	history, err := r.openHistory()
	if err != nil {
		return err
	}

	var run *models.Run
	if playlist != nil {
		run, err = history.RecordPlaylist(source, outcomes, playlist.PlaylistID)
	} else {
		run, err = history.RecordConversion(source, outcomes)
	}
	if err != nil {
		return fmt.Errorf("failed to record conversion: %w", err)
	}
	r.logger.Info("conversion recorded", "run", run.Sequence())
	return nil
}

// PlaylistCreate builds a Spotify playlist from the Spotify links and matched Apple Music links in a file.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireEngine(); err != nil {
		return err
	}

	maxSongs := int(cmd.Int("max-per-playlist"))
	if maxSongs < 0 {
		return fmt.Errorf("%w: --max-per-playlist must not be negative", shared.ErrInvalidFlag)
	}

	text, err := r.readInput(cmd.StringArg("file"))
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.progressLogger(progress, done)
	res, err := r.builder.FromLinks(ctx, r.engine, tasks.LinksRequest{
		Links:          links.URLs(links.Extract(text).All()),
		Name:           cmd.String("name"),
		Description:    cmd.String("description"),
		Private:        cmd.Bool("private"),
		MaxPerPlaylist: maxSongs,
	}, progress)
	close(progress)
	<-done
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(res, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Playlist Created")
	for _, pl := range res.Playlists {
		r.writePlain("%s", formatter.PlaylistToText(pl))
	}
	s := res.Stats
	r.writePlainln("Links: %d (Spotify %d, Apple Music %d, other %d)", s.TotalLinks, s.SpotifyLinks, s.AppleMusicLinks, s.OtherLinks)
	r.writePlain("Matched Apple Music: %d\nTracks: %d  Albums: %d\n", s.MatchedAppleMusic, s.TotalTracks, s.TotalAlbums)
	return nil
}
