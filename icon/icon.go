// Package icon renders the playback glyphs shown by the TUI and CLI feedback messages.
//
// Icons can be displayed as emoji, nerd-font glyphs or plain ASCII depending on user preference.
package icon

import (
	"github.com/spf13/viper"
	"github.com/streamctl/streamctl/key"
)

const (
	emoji = "emoji"
	nerd  = "nerd"
	plain = "plain"
)

// AvailableVariants returns a slice of all registered icon style identifiers.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain}
}

// Icon identifies a registered symbol.
type Icon int

const (
	Success Icon = iota
	Fail
	Warn
	Play
	Pause
	Volume
	Muted
	Fullscreen
	Stream
	Scrub
)

type iconDef struct {
	emoji string
	nerd  string
	plain string
}

func (d iconDef) get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	default:
		return ""
	}
}

var icons = map[Icon]iconDef{
	Success:    {emoji: "✅", nerd: "", plain: "+"},
	Fail:       {emoji: "❌", nerd: "", plain: "x"},
	Warn:       {emoji: "⚠️", nerd: "", plain: "!"},
	Play:       {emoji: "▶️", nerd: "", plain: ">"},
	Pause:      {emoji: "⏸️", nerd: "", plain: "||"},
	Volume:     {emoji: "🔊", nerd: "", plain: "vol"},
	Muted:      {emoji: "🔇", nerd: "", plain: "mute"},
	Fullscreen: {emoji: "⛶", nerd: "", plain: "[ ]"},
	Stream:     {emoji: "📡", nerd: "", plain: "~"},
	Scrub:      {emoji: "⏩", nerd: "", plain: ">>"},
}

// Get returns the rendered string for a specified Icon under the configured variant.
func Get(i Icon) string {
	return icons[i].get()
}
