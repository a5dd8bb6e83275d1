// Package ui provides the transient notice line shown under the player view.
package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/streamctl/streamctl/style"
)

// NoticeLifetime is how long a notice stays on screen.
const NoticeLifetime = 3 * time.Second

// Model holds the current notice, if any.
type Model struct {
	notice string
	seq    int
}

// NoticeMsg puts Text on screen.
type NoticeMsg struct {
	Text string
}

// ClearNoticeMsg removes the notice it was scheduled for, unless a newer one replaced it.
type ClearNoticeMsg struct {
	seq int
}

// Notify returns a tea.Cmd that shows text.
func Notify(text string) tea.Cmd {
	return func() tea.Msg {
		return NoticeMsg{Text: text}
	}
}

// Notice returns the text currently on screen.
func (m *Model) Notice() string {
	return m.notice
}

// Update processes notice messages and ignores everything else.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case NoticeMsg:
		m.notice = msg.Text
		m.seq++
		seq := m.seq
		return tea.Tick(NoticeLifetime, func(time.Time) tea.Msg {
			return ClearNoticeMsg{seq: seq}
		})
	case ClearNoticeMsg:
		if msg.seq == m.seq {
			m.notice = ""
		}
	}
	return nil
}

// View appends the notice to the last line of content.
func (m *Model) View(content string) string {
	if m.notice == "" {
		return content
	}

	lines := strings.Split(content, "\n")
	lines[len(lines)-1] += "  " + style.Faint(m.notice)
	return strings.Join(lines, "\n")
}
