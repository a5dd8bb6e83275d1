// Package color provides the ANSI palette and the semantic colors for playback states.
package color

import "github.com/charmbracelet/lipgloss"

// New initializes a lipgloss.Color from a string value.
func New(value string) lipgloss.Color {
	return lipgloss.Color(value)
}

// Standard ANSI 8-color palette.
var (
	Red    = New("1")
	Green  = New("2")
	Yellow = New("3")
	Blue   = New("4")
	Purple = New("5")
	Cyan   = New("6")
)

// High-intensity ANSI palette extension.
var (
	HiBlue = New("12")
)

// Playback state colors.
var (
	Playing   = New("#a6e3a1")
	Paused    = New("#f9e2af")
	Attaching = New("#89dceb")
	Failed    = New("#f38ba8")
)
