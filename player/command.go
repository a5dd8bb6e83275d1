package player

import (
	"errors"
	"fmt"
	"math"

	"github.com/streamctl/streamctl/util"
)

// CommandStatus is the outcome class of a transport command.
type CommandStatus int

const (
	StatusSuccess CommandStatus = iota
	StatusIgnoredNoSession
	StatusDeviceRejected
)

func (s CommandStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusIgnoredNoSession:
		return "ignored-no-session"
	case StatusDeviceRejected:
		return "device-rejected"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// CommandResult is what every transport command resolves to. Commands never panic or
// return bare errors; a rejection carries its cause in Err.
// Success means the request reached the device, its effect shows up in a later snapshot.
type CommandResult struct {
	Status CommandStatus
	Err    error
}

// OK reports whether the command was applied.
func (r CommandResult) OK() bool {
	return r.Status == StatusSuccess
}

func succeeded() CommandResult {
	return CommandResult{Status: StatusSuccess}
}

func ignored() CommandResult {
	return CommandResult{Status: StatusIgnoredNoSession}
}

func rejected(err error) CommandResult {
	if !errors.Is(err, ErrCommandRejected) {
		err = fmt.Errorf("%w: %w", ErrCommandRejected, err)
	}
	return CommandResult{Status: StatusDeviceRejected, Err: err}
}

// gate is the view of the session manager the command handler needs.
type gate interface {
	Bound() bool
	Active() bool
}

// Commands validates transport requests and applies them to the surface.
// It is not safe for concurrent use.
type Commands struct {
	surface  Surface
	host     FullscreenHost
	session  gate
	snapshot func() Snapshot
	onSeek   func(float64)

	// lastVolume is the last non-zero volume requested or observed.
	lastVolume float64
}

// NewCommands wires a handler to the surface, the optional fullscreen host, the session gate
// and the current snapshot.
func NewCommands(surface Surface, host FullscreenHost, session gate, snapshot func() Snapshot) *Commands {
	c := &Commands{
		surface:  surface,
		host:     host,
		session:  session,
		snapshot: snapshot,
	}
	c.lastVolume = snapshot().LastVolume
	return c
}

// OnSeek registers fn to receive every clamped seek target the surface accepted.
func (c *Commands) OnSeek(fn func(target float64)) {
	c.onSeek = fn
}

// Observe records the snapshot's last audible volume so that unmuting restores device-side changes too.
func (c *Commands) Observe(s Snapshot) {
	if s.LastVolume > 0 {
		c.lastVolume = s.LastVolume
	}
}

func (c *Commands) Play() CommandResult {
	if !c.session.Active() {
		return ignored()
	}
	if err := c.surface.Play(); err != nil {
		return rejected(err)
	}
	return succeeded()
}

// Pause is idempotent: pausing a paused session succeeds without changing anything.
func (c *Commands) Pause() CommandResult {
	if !c.session.Active() {
		return ignored()
	}
	if err := c.surface.Pause(); err != nil {
		return rejected(err)
	}
	return succeeded()
}

// TogglePlay plays when the snapshot is paused and pauses otherwise.
func (c *Commands) TogglePlay() CommandResult {
	if c.snapshot().Playing {
		return c.Pause()
	}
	return c.Play()
}

// Seek clamps target to [0, duration] before applying it.
func (c *Commands) Seek(target float64) CommandResult {
	if !c.session.Active() {
		return ignored()
	}
	if math.IsNaN(target) {
		return rejected(ErrInvalidSeek)
	}

	duration, ok := c.snapshot().Duration.Get()
	if !ok {
		return rejected(ErrDurationUnknown)
	}

	target = util.Clamp(target, 0, duration)
	if err := c.surface.SetCurrentTime(target); err != nil {
		return rejected(err)
	}
	if c.onSeek != nil {
		c.onSeek(target)
	}
	return succeeded()
}

// SeekBy moves relative to the snapshot's current time.
func (c *Commands) SeekBy(delta float64) CommandResult {
	return c.Seek(c.snapshot().CurrentTime + delta)
}

// SetVolume clamps v to [0, 1]. Zero also mutes, anything above zero unmutes.
func (c *Commands) SetVolume(v float64) CommandResult {
	if !c.session.Bound() {
		return ignored()
	}
	if math.IsNaN(v) {
		return rejected(ErrInvalidVolume)
	}

	v = util.Clamp(v, 0, 1)
	if err := c.surface.SetVolume(v); err != nil {
		return rejected(err)
	}
	if err := c.surface.SetMuted(v == 0); err != nil {
		return rejected(err)
	}
	if v > 0 {
		c.lastVolume = v
	}
	return succeeded()
}

// ToggleMute mutes, or unmutes and restores the last non-zero volume.
func (c *Commands) ToggleMute() CommandResult {
	if !c.session.Bound() {
		return ignored()
	}

	snap := c.snapshot()
	if !snap.Muted {
		if snap.Volume > 0 {
			c.lastVolume = snap.Volume
		}
		if err := c.surface.SetMuted(true); err != nil {
			return rejected(err)
		}
		return succeeded()
	}

	restore := c.lastVolume
	if restore <= 0 {
		restore = 1
	}
	if err := c.surface.SetVolume(restore); err != nil {
		return rejected(err)
	}
	if err := c.surface.SetMuted(false); err != nil {
		return rejected(err)
	}
	return succeeded()
}

// SetPlaybackRate rejects non-positive and non-finite rates.
func (c *Commands) SetPlaybackRate(rate float64) CommandResult {
	if !c.session.Bound() {
		return ignored()
	}
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return rejected(ErrInvalidRate)
	}
	if err := c.surface.SetPlaybackRate(rate); err != nil {
		return rejected(err)
	}
	return succeeded()
}

// ToggleFullscreen asks the host to enter or leave fullscreen on the surface's container.
// The decision uses the host's authoritative target, never the snapshot's.
func (c *Commands) ToggleFullscreen() CommandResult {
	if !c.session.Bound() {
		return ignored()
	}
	if c.host == nil {
		return rejected(ErrNoFullscreen)
	}

	container := c.surface.Container()
	var err error
	if c.host.CurrentTarget() == container {
		err = c.host.ExitFullscreen()
	} else {
		err = c.host.RequestFullscreen(container)
	}
	if err != nil {
		return rejected(fmt.Errorf("%w: %w", ErrHostRestriction, err))
	}
	return succeeded()
}
