// package formatter renders extracted links and conversion outcomes to CSV, Markdown, plain text and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/songlinks/internal/models"
	"github.com/desertthunder/songlinks/internal/shared"
)

// ChatDateLayout is the DD/MM/YYYY layout used by chat exports.
const ChatDateLayout = "02/01/2006"

// Format is an export format name.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
)

// ParseFormat accepts a format name or a common alias ("txt", "md").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, json, markdown or csv)", shared.ErrInvalidFlag, s)
	}
}

// Extension returns the file extension for the format, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatMarkdown:
		return ".md"
	case FormatCSV:
		return ".csv"
	default:
		return ".txt"
	}
}

// LinksToCSV converts links to CSV with columns: Date, Link, Platform.
//
// Dates use the chat export layout and are blank for undated links.
func LinksToCSV(links []models.MusicLink) ([]byte, error) {
	records := make([][]string, 0, len(links))
	for _, l := range links {
		date := ""
		if !l.Date.IsZero() {
			date = l.Date.Format(ChatDateLayout)
		}
		records = append(records, []string{date, l.URL, l.Platform.Label()})
	}
	return writeCSV([]string{"Date", "Link", "Platform"}, records)
}

// OutcomesToCSV converts outcomes to CSV with columns:
// Link, Status, Title, Artist, Album, Spotify ID, Spotify URL, Score, Error
func OutcomesToCSV(outcomes []models.Outcome) ([]byte, error) {
	headers := []string{"Link", "Status", "Title", "Artist", "Album", "Spotify ID", "Spotify URL", "Score", "Error"}

	records := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		var title, artist, album, spotifyURL, score string
		if o.Metadata != nil {
			title, artist, album = o.Metadata.Title, o.Metadata.Artist, o.Metadata.Album
		}
		if o.Result != nil {
			score = strconv.FormatFloat(o.Result.Score, 'f', 3, 64)
			if o.Result.Matched != nil {
				spotifyURL = o.Result.Matched.URL
			}
		}
		records = append(records, []string{o.Link, string(o.Status), title, artist, album, o.SpotifyID(), spotifyURL, score, o.Err})
	}
	return writeCSV(headers, records)
}

func writeCSV(headers []string, records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// OutcomesToMarkdown converts outcomes to a Markdown report with a summary and a results table.
func OutcomesToMarkdown(title string, outcomes []models.Outcome) ([]byte, error) {
	var buf bytes.Buffer
	summary := models.Summarize(outcomes)

	if title == "" {
		title = "Conversion Results"
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Links**: %d\n", summary.Total)
	fmt.Fprintf(&buf, "**Matched**: %d (%.1f%%)\n", summary.Matched, summary.MatchRate())
	fmt.Fprintf(&buf, "**Unmatched**: %d\n", summary.Unmatched)
	fmt.Fprintf(&buf, "**Errors**: %d\n\n", summary.Errors)

	buf.WriteString("## Results\n\n")
	buf.WriteString("| # | Track | Status | Spotify |\n")
	buf.WriteString("|---|-------|--------|---------|\n")
	for i, o := range outcomes {
		spotify := "-"
		if o.Result != nil && o.Result.Matched != nil {
			spotify = fmt.Sprintf("[%s](%s)", escapeCell(o.Result.Matched.Title), o.Result.Matched.URL)
		} else if o.Err != "" {
			spotify = escapeCell(o.Err)
		}
		fmt.Fprintf(&buf, "| %d | %s | %s | %s |\n", i+1, escapeCell(describe(o)), o.Status, spotify)
	}

	return buf.Bytes(), nil
}

// OutcomesToText converts outcomes to plain text, one line per link.
func OutcomesToText(outcomes []models.Outcome) ([]byte, error) {
	var buf bytes.Buffer
	summary := models.Summarize(outcomes)

	fmt.Fprintf(&buf, "Links: %d  Matched: %d  Unmatched: %d  Errors: %d\n\n", summary.Total, summary.Matched, summary.Unmatched, summary.Errors)

	for i, o := range outcomes {
		switch o.Status {
		case models.StatusMatched:
			target := o.SpotifyID()
			if o.Result.Matched != nil && o.Result.Matched.URL != "" {
				target = o.Result.Matched.URL
			}
			fmt.Fprintf(&buf, "%d. ✓ %s -> %s (%.2f)\n", i+1, describe(o), target, o.Result.Score)
		case models.StatusUnmatched:
			fmt.Fprintf(&buf, "%d. ✗ %s (no match)\n", i+1, describe(o))
		default:
			fmt.Fprintf(&buf, "%d. ! %s: %s\n", i+1, o.Link, o.Err)
		}
	}

	return buf.Bytes(), nil
}

// OutcomesToJSON renders outcomes with their summary.
func OutcomesToJSON(outcomes []models.Outcome, pretty bool) ([]byte, error) {
	if outcomes == nil {
		outcomes = []models.Outcome{}
	}
	return shared.MarshalJSON(struct {
		models.Summary
		Results []models.Outcome `json:"results"`
	}{models.Summarize(outcomes), outcomes}, pretty)
}

// Render converts outcomes to the given format.
func Render(format Format, outcomes []models.Outcome) ([]byte, error) {
	switch format {
	case FormatJSON:
		return OutcomesToJSON(outcomes, true)
	case FormatMarkdown:
		return OutcomesToMarkdown("", outcomes)
	case FormatCSV:
		return OutcomesToCSV(outcomes)
	default:
		return OutcomesToText(outcomes)
	}
}

// WriteTo renders outcomes in format and writes them to w.
func WriteTo(w io.Writer, format Format, outcomes []models.Outcome) error {
	data, err := Render(format, outcomes)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s output: %w", format, err)
	}
	return nil
}

// PlaylistToText summarizes a playlist build.
func PlaylistToText(outcome *models.PlaylistOutcome) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Playlist: %s\n", outcome.PlaylistURL)
	fmt.Fprintf(&buf, "Tracks added: %d\n", outcome.TracksAdded)
	if len(outcome.Errors) > 0 {
		fmt.Fprintf(&buf, "Errors: %d\n", len(outcome.Errors))
		for _, e := range outcome.Errors {
			fmt.Fprintf(&buf, "  - %s: %s\n", e.ItemID, e.Reason)
		}
	}
	return buf.Bytes()
}

func describe(o models.Outcome) string {
	if o.Metadata == nil || o.Metadata.Title == "" {
		return o.Link
	}
	if o.Metadata.Artist == "" {
		return o.Metadata.Title
	}
	return o.Metadata.Artist + " - " + o.Metadata.Title
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	OutcomesFile string
	SummaryFile  string
}

// WriteCSVExport writes outcomes to {base}_outcomes.csv with an accompanying {base}_summary.json.
//
// base defaults to "songlinks".
func WriteCSVExport(outcomes []models.Outcome, base string) (*CSVExportResult, error) {
	if base == "" {
		base = "songlinks"
	}

	csvData, err := OutcomesToCSV(outcomes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	outcomesFile := base + "_outcomes.csv"
	if err := os.WriteFile(outcomesFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	summaryJSON, err := shared.MarshalJSON(models.Summarize(outcomes), true)
	if err != nil {
		return nil, fmt.Errorf("failed to generate summary JSON: %w", err)
	}

	summaryFile := base + "_summary.json"
	if err := os.WriteFile(summaryFile, summaryJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write summary file: %w", err)
	}

	return &CSVExportResult{OutcomesFile: outcomesFile, SummaryFile: summaryFile}, nil
}

// WriteMarkdownExport writes a Markdown report to {dir}/README.md, creating dir as needed.
func WriteMarkdownExport(outcomes []models.Outcome, dir, title string) (string, error) {
	if dir == "" {
		dir = "songlinks"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := OutcomesToMarkdown(title, outcomes)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	path := filepath.Join(dir, "README.md")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}
	return path, nil
}

// WriteFile renders outcomes in format and writes them to path.
//
// When path is empty, it defaults to "songlinks" plus the format's extension.
func WriteFile(outcomes []models.Outcome, format Format, path string) (string, error) {
	if path == "" {
		path = "songlinks" + format.Extension()
	}

	data, err := Render(format, outcomes)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return path, nil
}

// WriteLinksCSV writes links to path as CSV.
func WriteLinksCSV(links []models.MusicLink, path string) error {
	data, err := LinksToCSV(links)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write CSV file: %w", err)
	}
	return nil
}
