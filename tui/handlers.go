package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/mo"
	"github.com/spf13/viper"
	"github.com/streamctl/streamctl/history"
	"github.com/streamctl/streamctl/icon"
	"github.com/streamctl/streamctl/key"
	"github.com/streamctl/streamctl/log"
	"github.com/streamctl/streamctl/player"
)

const (
	statusInterval = 500 * time.Millisecond
	saveInterval   = 5 * time.Second
)

type (
	loadedMsg struct {
		err error
	}
	snapshotMsg      player.Snapshot
	playbackErrorMsg player.PlaybackError
	streamsClosedMsg struct{}
	surfaceGoneMsg   struct{}
	statusMsg        player.Status
	saveMsg          struct{}
	commandMsg       struct {
		what   string
		result player.CommandResult
	}
)

func (b *statefulBubble) load() tea.Cmd {
	ref := b.ref
	return func() tea.Msg {
		log.Info("loading " + ref)
		return loadedMsg{err: b.controller.Load(ref)}
	}
}

// waitForSnapshot must be re-armed after every snapshotMsg.
func (b *statefulBubble) waitForSnapshot() tea.Cmd {
	updates := b.controller.Updates()
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return streamsClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

// waitForError must be re-armed after every playbackErrorMsg.
func (b *statefulBubble) waitForError() tea.Cmd {
	errs := b.controller.Errors()
	return func() tea.Msg {
		perr, ok := <-errs
		if !ok {
			return streamsClosedMsg{}
		}
		return playbackErrorMsg(perr)
	}
}

func (b *statefulBubble) waitForSurfaceGone() tea.Cmd {
	if b.gone == nil {
		return nil
	}
	gone := b.gone
	return func() tea.Msg {
		<-gone
		return surfaceGoneMsg{}
	}
}

func (b *statefulBubble) tick() tea.Cmd {
	return tea.Tick(statusInterval, func(time.Time) tea.Msg {
		return statusMsg(b.controller.Status())
	})
}

func (b *statefulBubble) scheduleSave() tea.Cmd {
	return tea.Tick(saveInterval, func(time.Time) tea.Msg {
		return saveMsg{}
	})
}

// command runs fn off the update loop; transport commands wait for the device.
func (b *statefulBubble) command(what string, fn func() player.CommandResult) tea.Cmd {
	return func() tea.Msg {
		return commandMsg{what: what, result: fn()}
	}
}

// saveProgress records the resume point of the current stream.
func (b *statefulBubble) saveProgress() {
	if !viper.GetBool(key.PlayerResume) || b.ref == "" {
		return
	}

	duration, ok := b.snapshot.Duration.Get()
	if !ok || b.snapshot.CurrentTime <= 0 {
		return
	}

	if err := history.Save(b.ref, b.snapshot.CurrentTime, duration); err != nil {
		log.Warnf("save resume point: %v", err)
	}
}

// applyResume seeks to the pending resume point once the duration is known.
func (b *statefulBubble) applyResume() tea.Cmd {
	position, ok := b.resume.Get()
	if !ok || b.status.State != player.StateActive {
		return nil
	}
	duration, ok := b.snapshot.Duration.Get()
	if !ok {
		return nil
	}

	b.resume = mo.None[float64]()
	if position <= 0 || position >= duration {
		return nil
	}
	return b.command(fmt.Sprintf("%s resumed", icon.Get(icon.Scrub)), func() player.CommandResult {
		return b.controller.Seek(position)
	})
}
