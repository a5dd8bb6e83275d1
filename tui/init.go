package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Init starts loading the stream and subscribes to the controller's streams.
func (b *statefulBubble) Init() tea.Cmd {
	return tea.Batch(
		b.spinnerC.Tick,
		b.load(),
		b.waitForSnapshot(),
		b.waitForError(),
		b.waitForSurfaceGone(),
		b.tick(),
		b.scheduleSave(),
	)
}
