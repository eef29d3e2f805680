package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Status colors, as light/dark terminal pairs.
var (
	spotifyGreen = lipgloss.AdaptiveColor{Light: "#1AA34A", Dark: "#1DB954"}
	matchGreen   = lipgloss.AdaptiveColor{Light: "#02864F", Dark: "#04B575"}
	errorRed     = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F5F"}
	unmatchedAmb = lipgloss.AdaptiveColor{Light: "#C77700", Dark: "#FFA500"}
	dimGray      = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#626262"}
)

var styles = palette{
	title: lipgloss.NewStyle().Foreground(spotifyGreen).Bold(true).MarginBottom(1),
	ok:    lipgloss.NewStyle().Foreground(matchGreen).Bold(true),
	err:   lipgloss.NewStyle().Foreground(errorRed).Bold(true),
	warn:  lipgloss.NewStyle().Foreground(unmatchedAmb),
	help:  lipgloss.NewStyle().Foreground(dimGray).Italic(true),
}

// palette holds the styles for the outcome statuses: ok is matched, warn is unmatched and err is a failed link.
type palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}
