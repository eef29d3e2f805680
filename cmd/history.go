package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/songlinks/internal/models"
	"github.com/urfave/cli/v3"
)

// History lists recorded runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	history, err := r.openHistory()
	if err != nil {
		return err
	}

	runs, err := history.Recent(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	records := make([]models.RunRecord, 0, len(runs))
	for _, run := range runs {
		records = append(records, run.Record())
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, cmd.Bool("pretty"))
	}

	if len(records) == 0 {
		return r.writePlain("No runs recorded. Use --save with links extract or convert.\n")
	}

	r.writePlain("%-4s %-9s %-17s %6s %8s %10s %7s  %s\n", "#", "KIND", "CREATED", "TOTAL", "MATCHED", "UNMATCHED", "FAILED", "SOURCE")
	for _, rec := range records {
		source := rec.Source
		if rec.PlaylistID != "" {
			source = fmt.Sprintf("%s → %s", source, rec.PlaylistID)
		}
		r.writePlain("%-4d %-9s %-17s %6d %8d %10d %7d  %s\n",
			rec.Sequence, rec.Kind, rec.CreatedAt.Local().Format("2006-01-02 15:04"),
			rec.Total, rec.Matched, rec.Unmatched, rec.Failed, source)
	}
	return nil
}
