package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/songlinks/internal/formatter"
	"github.com/desertthunder/songlinks/internal/links"
	"github.com/desertthunder/songlinks/internal/models"
	"github.com/desertthunder/songlinks/internal/shared"
	"github.com/urfave/cli/v3"
)

type extractOutput struct {
	links.Extraction
	Total int `json:"total"`
}

// LinksExtract lists the Apple Music and Spotify links found in a file.
func (r *Runner) LinksExtract(ctx context.Context, cmd *cli.Command) error {
	source := cmd.StringArg("file")
	text, err := r.readInput(source)
	if err != nil {
		return err
	}

	var extraction links.Extraction
	if cmd.Bool("dated") {
		extraction = links.ExtractDated(text)
	} else {
		extraction = links.Extract(text)
	}
	r.logger.Info("extracted links", "apple_music", len(extraction.Apple), "spotify", len(extraction.Spotify))

	if path := cmd.String("csv"); path != "" {
		if err := formatter.WriteLinksCSV(extraction.All(), path); err != nil {
			return err
		}
		r.logger.Info("links written", "file", path)
	}

	if cmd.Bool("save") {
		history, err := r.openHistory()
		if err != nil {
			return err
		}
		run, err := history.RecordExtraction(sourceName(source), extraction.All())
		if err != nil {
			return fmt.Errorf("failed to record extraction: %w", err)
		}
		r.logger.Info("extraction recorded", "run", run.Sequence())
	}

	if cmd.Bool("json") {
		return r.writeJSON(extractOutput{Extraction: extraction, Total: extraction.Total()}, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d links\n", extraction.Total())
	r.writeLinkGroup(models.PlatformAppleMusic, extraction.Apple)
	r.writeLinkGroup(models.PlatformSpotify, extraction.Spotify)
	return nil
}

func (r *Runner) writeLinkGroup(p models.Platform, group []models.MusicLink) {
	if len(group) == 0 {
		return
	}
	r.writePlainln("%s (%d):", p.Label(), len(group))
	for _, l := range group {
		if l.Date.IsZero() {
			r.writePlain("  %s\n", l.URL)
		} else {
			r.writePlain("  %s  %s\n", l.Date.Format(formatter.ChatDateLayout), l.URL)
		}
	}
}

type idsOutput struct {
	IDs    []models.ParsedID  `json:"ids"`
	Errors []models.ItemError `json:"errors"`
}

// LinksIDs parses the platform identifier of every link in a file.
func (r *Runner) LinksIDs(ctx context.Context, cmd *cli.Command) error {
	text, err := r.readInput(cmd.StringArg("file"))
	if err != nil {
		return err
	}

	out := idsOutput{IDs: []models.ParsedID{}, Errors: []models.ItemError{}}
	for _, l := range links.Extract(text).All() {
		id, err := links.Parse(l)
		if err != nil {
			out.Errors = append(out.Errors, models.ItemError{ItemID: l.URL, Reason: err.Error()})
			continue
		}
		out.IDs = append(out.IDs, id)
	}

	if cmd.Bool("json") {
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	for _, id := range out.IDs {
		line := fmt.Sprintf("%-11s %-8s %s", id.Platform.Label(), id.EntityType, id.ID)
		if id.Region != "" {
			line += " (" + id.Region + ")"
		}
		r.writePlain("%s\n", line)
	}
	for _, e := range out.Errors {
		r.writePlain("error: %s: %s\n", e.ItemID, e.Reason)
	}
	return nil
}

// AppleParse reads title and artist from one Apple Music page.
func (r *Runner) AppleParse(ctx context.Context, cmd *cli.Command) error {
	url := cmd.StringArg("url")
	if url == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}
	if links.DetectPlatform(url) != models.PlatformAppleMusic {
		return fmt.Errorf("%w: not an Apple Music link: %s", shared.ErrInvalidArgument, url)
	}

	meta, err := r.reader.Read(ctx, url)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(meta, cmd.Bool("pretty"))
	}

	r.writePlain("Title:  %s\n", meta.Title)
	r.writePlain("Artist: %s\n", meta.Artist)
	if meta.Album != "" {
		r.writePlain("Album:  %s\n", meta.Album)
	}
	r.writePlain("Kind:   %s\n", meta.Kind)
	return nil
}

func sourceName(path string) string {
	if path == "" {
		return "-"
	}
	return path
}
