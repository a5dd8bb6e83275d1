package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/streamctl/streamctl/icon"
	"github.com/streamctl/streamctl/internal/ui"
	"github.com/streamctl/streamctl/player"
	"github.com/streamctl/streamctl/util"
)

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if uiCmd := b.notifier.Update(msg); uiCmd != nil {
		cmds = append(cmds, uiCmd)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)

	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spinnerC, cmd = b.spinnerC.Update(msg)
		cmds = append(cmds, cmd)

	case loadedMsg:
		// failures also arrive on the error stream, which decides the view
		if msg.err == nil && b.state == loadingState {
			b.setState(playerState)
		}
		b.status = b.controller.Status()

	case snapshotMsg:
		b.snapshot = player.Snapshot(msg)
		cmds = append(cmds, b.waitForSnapshot(), b.applyResume())

	case statusMsg:
		b.status = player.Status(msg)
		cmds = append(cmds, b.tick(), b.applyResume())

	case playbackErrorMsg:
		perr := player.PlaybackError(msg)
		if perr.Fatal {
			b.raiseError(perr)
		} else {
			cmds = append(cmds, ui.Notify(icon.Get(icon.Warn)+" "+perr.Error()))
		}
		cmds = append(cmds, b.waitForError())

	case saveMsg:
		b.saveProgress()
		cmds = append(cmds, b.scheduleSave())

	case commandMsg:
		if notice := describe(msg.what, msg.result); notice != "" {
			cmds = append(cmds, ui.Notify(notice))
		}

	case surfaceGoneMsg:
		b.saveProgress()
		return b, tea.Quit

	case streamsClosedMsg:
		return b, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, b.keymap.forceQuit) {
			b.saveProgress()
			return b, tea.Quit
		}

		switch b.state {
		case playerState:
			cmds = append(cmds, b.updatePlayer(msg))
		case scrubState:
			cmds = append(cmds, b.updateScrub(msg))
		case errorState:
			cmds = append(cmds, b.updateError(msg))
		}
	}

	return b, tea.Batch(cmds...)
}

func (b *statefulBubble) updatePlayer(msg tea.KeyMsg) tea.Cmd {
	c := b.controller
	snap := b.snapshot

	switch {
	case key.Matches(msg, b.keymap.quit):
		b.saveProgress()
		return tea.Quit

	case key.Matches(msg, b.keymap.playPause):
		return b.command("", c.TogglePlay)

	case key.Matches(msg, b.keymap.seekBack):
		return b.command("", func() player.CommandResult { return c.SeekBy(-b.seekStep) })

	case key.Matches(msg, b.keymap.seekForward):
		return b.command("", func() player.CommandResult { return c.SeekBy(b.seekStep) })

	case key.Matches(msg, b.keymap.volumeUp), key.Matches(msg, b.keymap.volumeDown):
		delta := volumeStep
		if key.Matches(msg, b.keymap.volumeDown) {
			delta = -volumeStep
		}
		target := util.Clamp(snap.Volume+delta, 0, 1)
		return b.command(fmt.Sprintf("%s %d%%", icon.Get(icon.Volume), int(target*100+0.5)), func() player.CommandResult {
			return c.SetVolume(target)
		})

	case key.Matches(msg, b.keymap.mute):
		return b.command("", c.ToggleMute)

	case key.Matches(msg, b.keymap.slower), key.Matches(msg, b.keymap.faster):
		delta := rateStep
		if key.Matches(msg, b.keymap.slower) {
			delta = -rateStep
		}
		target := util.Clamp(snap.PlaybackRate+delta, minRate, maxRate)
		return b.command(rateLabel(target), func() player.CommandResult {
			return c.SetPlaybackRate(target)
		})

	case key.Matches(msg, b.keymap.fullscreen):
		return b.command("", c.ToggleFullscreen)

	case key.Matches(msg, b.keymap.scrub):
		if snap.Duration.IsAbsent() {
			return ui.Notify(icon.Get(icon.Warn) + " duration unknown, cannot scrub")
		}
		c.BeginScrub()
		b.scrubTarget = snap.CurrentTime
		b.setState(scrubState)

	case key.Matches(msg, b.keymap.reload):
		return b.load()

	case key.Matches(msg, b.keymap.showHelp):
		b.helpC.ShowAll = !b.helpC.ShowAll
	}

	return nil
}

func (b *statefulBubble) updateScrub(msg tea.KeyMsg) tea.Cmd {
	duration := b.snapshot.Duration.OrElse(0)

	switch {
	case key.Matches(msg, b.keymap.seekBack):
		b.scrubTarget = util.Clamp(b.scrubTarget-b.seekStep, 0, duration)

	case key.Matches(msg, b.keymap.seekForward):
		b.scrubTarget = util.Clamp(b.scrubTarget+b.seekStep, 0, duration)

	case key.Matches(msg, b.keymap.confirm):
		target := b.scrubTarget
		b.setState(playerState)
		return b.command("", func() player.CommandResult { return b.controller.EndScrub(target) })

	case key.Matches(msg, b.keymap.back), key.Matches(msg, b.keymap.quit):
		current := b.snapshot.CurrentTime
		b.setState(playerState)
		return b.command("", func() player.CommandResult { return b.controller.EndScrub(current) })
	}

	return nil
}

func (b *statefulBubble) updateError(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, b.keymap.quit):
		return tea.Quit

	case key.Matches(msg, b.keymap.reload):
		b.lastError = nil
		b.setState(loadingState)
		return b.load()
	}

	return nil
}

// describe turns a command outcome into a notice. Applied commands without a label stay silent.
func describe(what string, result player.CommandResult) string {
	switch result.Status {
	case player.StatusSuccess:
		return what
	case player.StatusIgnoredNoSession:
		return icon.Get(icon.Warn) + " nothing is playing yet"
	default:
		return fmt.Sprintf("%s %v", icon.Get(icon.Fail), result.Err)
	}
}
