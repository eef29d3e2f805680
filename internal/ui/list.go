package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/songlinks/internal/formatter"
	"github.com/desertthunder/songlinks/internal/models"
)

var (
	_ list.Item = linkItem{}
	_ list.Item = outcomeItem{}
)

// linkItem wraps [models.MusicLink] to implement [list.Item].
type linkItem struct {
	link models.MusicLink
}

func (i linkItem) FilterValue() string { return i.link.URL }
func (i linkItem) Title() string       { return i.link.URL }
func (i linkItem) Description() string {
	desc := i.link.Platform.Label()
	if !i.link.Date.IsZero() {
		desc = fmt.Sprintf("%s • shared %s", desc, i.link.Date.Format(formatter.ChatDateLayout))
	}
	return desc
}

// outcomeItem wraps [models.Outcome] to implement [list.Item].
type outcomeItem struct {
	outcome models.Outcome
}

func (i outcomeItem) FilterValue() string { return i.outcome.Link }

func (i outcomeItem) Title() string {
	if m := i.outcome.Metadata; m != nil && m.Title != "" {
		return fmt.Sprintf("%s %s - %s", statusMark(i.outcome.Status), m.Artist, m.Title)
	}
	return fmt.Sprintf("%s %s", statusMark(i.outcome.Status), i.outcome.Link)
}

func (i outcomeItem) Description() string {
	switch i.outcome.Status {
	case models.StatusMatched:
		return fmt.Sprintf("spotify:%s • score %.2f", i.outcome.SpotifyID(), i.outcome.Result.Score)
	case models.StatusUnmatched:
		if i.outcome.Result != nil {
			return fmt.Sprintf("no match • best score %.2f", i.outcome.Result.Score)
		}
		return "no match"
	default:
		return i.outcome.Err
	}
}

func statusMark(s models.OutcomeStatus) string {
	switch s {
	case models.StatusMatched:
		return styles.ok.Render("✓")
	case models.StatusUnmatched:
		return styles.warn.Render("✗")
	default:
		return styles.err.Render("!")
	}
}
