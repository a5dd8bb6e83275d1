// Package tui provides the terminal player view.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/mo"
	"github.com/streamctl/streamctl/player"
)

// Controller is the part of the playback controller the view drives.
type Controller interface {
	Snapshot() player.Snapshot
	Updates() <-chan player.Snapshot
	Errors() <-chan player.PlaybackError
	Status() player.Status
	Load(ref string) error

	TogglePlay() player.CommandResult
	ToggleMute() player.CommandResult
	ToggleFullscreen() player.CommandResult
	Seek(target float64) player.CommandResult
	SeekBy(delta float64) player.CommandResult
	SetVolume(v float64) player.CommandResult
	SetPlaybackRate(rate float64) player.CommandResult
	BeginScrub()
	EndScrub(target float64) player.CommandResult
}

// Options encapsulates the runtime configuration for the terminal user interface.
type Options struct {
	Ref string

	// Resume is the position to seek to once the stream's duration is known.
	Resume mo.Option[float64]

	// SeekStep is the arrow-key seek distance in seconds.
	SeekStep float64

	// Gone, when closed, ends the program. It reports the surface going away.
	Gone <-chan struct{}
}

// Run loads opts.Ref into controller and runs the Bubble Tea program until the user quits.
func Run(controller Controller, opts Options) error {
	bubble := newBubble(controller, opts)
	_, err := tea.NewProgram(bubble, tea.WithAltScreen()).Run()
	return err
}
