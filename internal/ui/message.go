package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/songlinks/internal/models"
	"github.com/desertthunder/songlinks/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgProgressUpdate MsgKind = iota
	MsgConvertComplete
	MsgBuildComplete
)

type buildResult struct {
	outcome *models.PlaylistOutcome
	err     error
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// convertCompleteMsg is the constructor for [MsgConvertComplete]
func convertCompleteMsg(outcomes []models.Outcome) Msg {
	return Msg{kind: MsgConvertComplete, data: outcomes}
}

// buildCompleteMsg is the constructor for [MsgBuildComplete]
func buildCompleteMsg(outcome *models.PlaylistOutcome, err error) Msg {
	return Msg{kind: MsgBuildComplete, data: buildResult{outcome: outcome, err: err}}
}
