package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wrap"
	"github.com/streamctl/streamctl/color"
	"github.com/streamctl/streamctl/icon"
	"github.com/streamctl/streamctl/player"
	"github.com/streamctl/streamctl/style"
	"github.com/streamctl/streamctl/util"
)

var paddingStyle = lipgloss.NewStyle().Padding(1, 2)

func (b *statefulBubble) View() string {
	var output string

	switch b.state {
	case loadingState:
		output = b.viewLoading()
	case playerState:
		output = b.viewPlayer()
	case scrubState:
		output = b.viewScrub()
	case errorState:
		output = b.viewError()
	default:
		output = "Unknown state"
	}

	return b.notifier.View(output)
}

func (b *statefulBubble) viewLoading() string {
	return b.renderLines(
		true,
		[]string{
			style.Title("Loading"),
			"",
			style.Truncate(b.width)(b.spinnerC.View() + " " + b.ref),
		},
	)
}

func (b *statefulBubble) viewPlayer() string {
	snap := b.snapshot

	return b.renderLines(
		true,
		[]string{
			style.Title("Now Playing"),
			"",
			style.Truncate(b.width)(icon.Get(icon.Stream) + " " + style.Fg(color.Purple)(b.ref)),
			"",
			b.viewTransport(),
			"",
			b.progressC.ViewAs(util.Clamp(snap.Progress(), 0, 1)) + " " + clock(snap),
			"",
			style.Faint(b.viewDetails()),
		},
	)
}

func (b *statefulBubble) viewScrub() string {
	snap := b.snapshot
	duration := snap.Duration.OrElse(0)

	var fraction float64
	if duration > 0 {
		fraction = b.scrubTarget / duration
	}

	return b.renderLines(
		true,
		[]string{
			style.Title("Scrub"),
			"",
			style.Truncate(b.width)(icon.Get(icon.Stream) + " " + style.Fg(color.Purple)(b.ref)),
			"",
			icon.Get(icon.Scrub) + " " + style.Bold(util.FormatClock(b.scrubTarget)) + style.Faint(" from "+util.FormatClock(snap.CurrentTime)),
			"",
			b.progressC.ViewAs(fraction) + " " + util.FormatClock(duration),
		},
	)
}

func (b *statefulBubble) viewTransport() string {
	snap := b.snapshot

	var state string
	switch b.status.State {
	case player.StateAttaching:
		state = style.Fg(color.Attaching)(b.spinnerC.View() + " attaching")
	case player.StateErroring:
		state = style.Fg(color.Failed)(b.spinnerC.View() + " recovering")
	default:
		if snap.Playing {
			state = style.Fg(color.Playing)(icon.Get(icon.Play) + " playing")
		} else {
			state = style.Fg(color.Paused)(icon.Get(icon.Pause) + " paused")
		}
	}

	volume := fmt.Sprintf("%s %d%%", icon.Get(icon.Volume), int(snap.Volume*100+0.5))
	if snap.Muted {
		volume = icon.Get(icon.Muted) + " muted"
	}

	parts := []string{state, volume, rateLabel(snap.PlaybackRate)}
	if snap.Fullscreen {
		parts = append(parts, icon.Get(icon.Fullscreen))
	}

	return strings.Join(parts, style.Faint("  ·  "))
}

func (b *statefulBubble) viewDetails() string {
	details := b.status.Strategy.String()
	if b.status.Generation > 0 {
		details += fmt.Sprintf(" · session %d", b.status.Generation)
	}
	return details
}

func (b *statefulBubble) viewError() string {
	errorStyle := lipgloss.NewStyle().Foreground(color.Failed).Bold(true)
	errorMsg := wrap.String(errorStyle.Render(b.lastError.Error()), b.width)

	return b.renderLines(
		true,
		[]string{
			style.ErrorTitle("Error"),
			"",
			icon.Get(icon.Fail) + " Playback stopped:",
			"",
			errorMsg,
		},
	)
}

func (b *statefulBubble) renderLines(addHelp bool, lines []string) string {
	h := len(lines)
	l := strings.Join(lines, "\n")
	if addHelp {
		if b.height > h {
			l += strings.Repeat("\n", b.height-h)
		}
		l += b.helpC.View(b.keymap)
	}

	return paddingStyle.Render(l)
}

func rateLabel(rate float64) string {
	return "×" + strconv.FormatFloat(rate, 'f', -1, 64)
}

// clock renders "elapsed / total", or only the elapsed time for live streams.
func clock(snap player.Snapshot) string {
	elapsed := util.FormatClock(snap.CurrentTime)
	if d, ok := snap.Duration.Get(); ok {
		return elapsed + " / " + util.FormatClock(d)
	}
	return elapsed + " / live"
}
