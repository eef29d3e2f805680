package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/songlinks/internal/formatter"
	"github.com/desertthunder/songlinks/internal/models"
	"github.com/desertthunder/songlinks/internal/shared"
)

// ExportOpts contains configuration for writing outcomes in several formats.
type ExportOpts struct {
	Formats    []formatter.Format // Formats to write (default: all four)
	OutputDir  string             // Output directory (default: songlinks_export_{epoch})
	Title      string             // Markdown report title
	NumWorkers int                // Concurrent writers (default: 2)
}

// FormatExportResult reports the files written for one format.
type FormatExportResult struct {
	Format  formatter.Format
	Files   []string
	Success bool
	Error   error
}

// ExportResult summarizes an [Export].
type ExportResult struct {
	OutputDirectory string
	Results         []FormatExportResult
	Successful      int
	Failed          int
	ManifestPath    string
}

type exportManifest struct {
	CreatedAt time.Time                     `json:"created_at"`
	Summary   models.Summary                `json:"summary"`
	Files     map[formatter.Format][]string `json:"files"`
	Errors    map[formatter.Format]string   `json:"errors,omitempty"`
}

var allFormats = []formatter.Format{formatter.FormatJSON, formatter.FormatCSV, formatter.FormatMarkdown, formatter.FormatText}

// Export writes outcomes to opts.OutputDir in each requested format and finishes with manifest.json.
//
// A failed format does not stop the others.
func Export(ctx context.Context, outcomes []models.Outcome, opts ExportOpts, prog chan<- ProgressUpdate) (*ExportResult, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("songlinks_export_%d", time.Now().Unix())
	}
	if len(opts.Formats) == 0 {
		opts.Formats = allFormats
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 2
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{OutputDirectory: opts.OutputDir}

	jobs := make(chan formatter.Format, len(opts.Formats))
	results := make(chan FormatExportResult, len(opts.Formats))

	var wg sync.WaitGroup
	for range min(opts.NumWorkers, len(opts.Formats)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for format := range jobs {
				if err := ctx.Err(); err != nil {
					results <- FormatExportResult{Format: format, Error: err}
					continue
				}
				results <- exportFormat(outcomes, format, opts)
			}
		}()
	}

	for _, format := range opts.Formats {
		jobs <- format
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)
		if res.Success {
			result.Successful++
			sendProgress(prog, exportCompletedUpdate(completed, len(opts.Formats), string(res.Format), len(res.Files)))
		} else {
			result.Failed++
			sendProgress(prog, exportFailedUpdate(completed, len(opts.Formats), string(res.Format), res.Error))
		}
	}

	slices.SortFunc(result.Results, func(a, b FormatExportResult) int {
		return slices.Index(opts.Formats, a.Format) - slices.Index(opts.Formats, b.Format)
	})

	manifestPath := filepath.Join(opts.OutputDir, "manifest.json")
	if err := writeManifest(manifestPath, outcomes, result); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

func exportFormat(outcomes []models.Outcome, format formatter.Format, opts ExportOpts) FormatExportResult {
	result := FormatExportResult{Format: format}

	switch format {
	case formatter.FormatCSV:
		csvRes, err := formatter.WriteCSVExport(outcomes, filepath.Join(opts.OutputDir, "songlinks"))
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{csvRes.OutcomesFile, csvRes.SummaryFile}
	case formatter.FormatMarkdown:
		path, err := formatter.WriteMarkdownExport(outcomes, opts.OutputDir, opts.Title)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = []string{path}
	default:
		path, err := formatter.WriteFile(outcomes, format, filepath.Join(opts.OutputDir, "songlinks"+format.Extension()))
		if err != nil {
			result.Error = fmt.Errorf("%s export failed: %w", format, err)
			return result
		}
		result.Files = []string{path}
	}

	result.Success = true
	return result
}

func writeManifest(path string, outcomes []models.Outcome, result *ExportResult) error {
	m := exportManifest{
		CreatedAt: time.Now().UTC(),
		Summary:   models.Summarize(outcomes),
		Files:     map[formatter.Format][]string{},
	}
	for _, r := range result.Results {
		if r.Success {
			m.Files[r.Format] = r.Files
			continue
		}
		if m.Errors == nil {
			m.Errors = map[formatter.Format]string{}
		}
		m.Errors[r.Format] = r.Error.Error()
	}

	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
