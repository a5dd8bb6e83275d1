package player

import (
	"sync"
	"sync/atomic"

	"github.com/streamctl/streamctl/log"
)

// Options configures a Controller.
type Options struct {
	// Decoders enables the ManagedAdaptive strategy. Nil leaves only native playback.
	Decoders DecoderFactory

	// Fullscreen is the host facility. Nil makes ToggleFullscreen a rejected command.
	Fullscreen FullscreenHost

	Autoplay       bool
	NetworkRetries int
	Preference     Preference

	// Volume is the surface's volume at construction time, in [0, 1].
	Volume float64

	// ProgressEpsilon debounces progress events. Zero uses DefaultProgressEpsilon.
	ProgressEpsilon float64
}

// DefaultOptions autoplays, retries one network failure and starts at full volume.
func DefaultOptions() Options {
	return Options{
		Autoplay:       true,
		NetworkRetries: 1,
		Volume:         1,
	}
}

// Controller is the playback session controller for one surface.
//
// Load, the transport commands and Close are serialized on an internal event loop
// together with every collaborator event, so they can be called from any goroutine.
// They must not be called from inside a collaborator callback.
type Controller struct {
	loop     *loop
	host     FullscreenHost
	manager  *Manager
	sync     *Synchronizer
	commands *Commands

	current atomic.Pointer[Snapshot]
	updates chan Snapshot
	errors  chan PlaybackError

	// overdue holds fatal errors that found the error stream full of other fatal errors.
	// Only the loop goroutine touches it.
	overdue []PlaybackError

	unsubscribeHost func()
	closeOnce       sync.Once
}

// New creates a controller for surface. No session exists until Load is called.
func New(surface Surface, opts Options) *Controller {
	epsilon := opts.ProgressEpsilon
	if epsilon == 0 {
		epsilon = DefaultProgressEpsilon
	}

	c := &Controller{
		host:    opts.Fullscreen,
		updates: make(chan Snapshot, 1),
		errors:  make(chan PlaybackError, errorBacklog),
	}
	c.loop = newLoop(c.flushOverdue)

	initial := InitialSnapshot(opts.Volume)
	if c.host != nil {
		initial.Fullscreen = c.host.CurrentTarget() == surface.Container()
	}
	c.sync = NewSynchronizer(initial, surface.Container(), epsilon)
	c.current.Store(&initial)

	c.manager = NewManager(surface, opts.Decoders, ManagerConfig{
		Autoplay:       opts.Autoplay,
		NetworkRetries: opts.NetworkRetries,
		Preference:     opts.Preference,
	}, c.deliver, c.report)
	c.commands = NewCommands(surface, c.host, c.manager, c.sync.Snapshot)
	c.commands.OnSeek(c.sync.Seeked)

	if c.host != nil {
		c.unsubscribeHost = c.host.Subscribe(func(ev Event) {
			c.loop.post(func() { c.fold(ev) })
		})
	}

	return c
}

// deliver is the sink for session listeners. It runs on collaborator goroutines.
func (c *Controller) deliver(gen uint64, ev Event) {
	c.loop.post(func() {
		if c.manager.Handle(gen, ev) {
			c.fold(ev)
		}
	})
}

func (c *Controller) fold(ev Event) {
	snap, changed := c.sync.Apply(ev)
	if !changed {
		return
	}
	c.commands.Observe(snap)
	c.publish(snap)
}

// publish stores snap and replaces any undelivered update with it.
func (c *Controller) publish(snap Snapshot) {
	c.current.Store(&snap)
	for {
		select {
		case c.updates <- snap:
			return
		default:
		}
		select {
		case <-c.updates:
		default:
		}
	}
}

// errorBacklog is how many unread PlaybackErrors the stream buffers.
const errorBacklog = 16

// report queues perr on the error stream. When the stream is full a non-fatal error is
// dropped, while a fatal one evicts the oldest non-fatal entry or waits in overdue.
func (c *Controller) report(perr PlaybackError) {
	c.flushOverdue()
	if len(c.overdue) == 0 {
		select {
		case c.errors <- perr:
			return
		default:
		}
	}

	if !perr.Fatal {
		log.Warnf("error stream full, dropping: %v", perr)
		return
	}
	if len(c.overdue) == 0 && c.evictNonFatal() {
		c.errors <- perr
		return
	}
	log.Warnf("error stream full, holding fatal error: %v", perr)
	c.overdue = append(c.overdue, perr)
}

// evictNonFatal removes the oldest buffered non-fatal error, keeping the order of the rest.
// The loop goroutine is the only sender, so the re-queued entries always fit.
func (c *Controller) evictNonFatal() bool {
	buffered := make([]PlaybackError, 0, errorBacklog)
	for len(buffered) < errorBacklog {
		select {
		case perr := <-c.errors:
			buffered = append(buffered, perr)
			continue
		default:
		}
		break
	}

	evicted := false
	for _, perr := range buffered {
		if !evicted && !perr.Fatal {
			log.Warnf("error stream full, dropping: %v", perr)
			evicted = true
			continue
		}
		c.errors <- perr
	}
	return evicted || len(buffered) < errorBacklog
}

// flushOverdue moves held fatal errors onto the stream as room appears.
func (c *Controller) flushOverdue() {
	for len(c.overdue) > 0 {
		select {
		case c.errors <- c.overdue[0]:
			c.overdue = c.overdue[1:]
		default:
			return
		}
	}
}

// Snapshot returns the latest published snapshot. Safe from any goroutine.
func (c *Controller) Snapshot() Snapshot {
	return *c.current.Load()
}

// Updates delivers snapshots as they change. Only the newest undelivered snapshot is kept.
// The channel is closed by Close.
func (c *Controller) Updates() <-chan Snapshot {
	return c.updates
}

// Errors delivers PlaybackErrors. Fatal ones end their session. The channel is closed by Close.
func (c *Controller) Errors() <-chan PlaybackError {
	return c.errors
}

// Load assigns a new stream reference. The previous session is torn down before the new one
// is attached; an empty ref only tears down. The returned error, if any, is also sent on Errors.
func (c *Controller) Load(ref string) error {
	var err error
	if !c.loop.call(func() {
		c.publish(c.sync.Rewind())
		err = c.manager.Assign(ref)
	}) {
		return ErrClosed
	}
	return err
}

// Status describes the session from the presentation layer's point of view.
type Status struct {
	State      State
	Strategy   Strategy
	Ref        string
	Generation uint64
	Scrubbing  bool
}

// Status reports the lifecycle state of the current session.
func (c *Controller) Status() Status {
	st := Status{State: StateTornDown}
	c.loop.call(func() {
		st = Status{
			State:      c.manager.State(),
			Strategy:   c.manager.Strategy(),
			Ref:        c.manager.Ref(),
			Generation: c.manager.Generation(),
			Scrubbing:  c.sync.Scrubbing(),
		}
	})
	return st
}

func (c *Controller) command(fn func() CommandResult) CommandResult {
	res := CommandResult{Status: StatusIgnoredNoSession, Err: ErrClosed}
	c.loop.call(func() { res = fn() })
	return res
}

func (c *Controller) Play() CommandResult       { return c.command(c.commands.Play) }
func (c *Controller) Pause() CommandResult      { return c.command(c.commands.Pause) }
func (c *Controller) TogglePlay() CommandResult { return c.command(c.commands.TogglePlay) }
func (c *Controller) ToggleMute() CommandResult { return c.command(c.commands.ToggleMute) }

func (c *Controller) ToggleFullscreen() CommandResult {
	return c.command(c.commands.ToggleFullscreen)
}

func (c *Controller) Seek(target float64) CommandResult {
	return c.command(func() CommandResult { return c.commands.Seek(target) })
}

func (c *Controller) SeekBy(delta float64) CommandResult {
	return c.command(func() CommandResult { return c.commands.SeekBy(delta) })
}

func (c *Controller) SetVolume(v float64) CommandResult {
	return c.command(func() CommandResult { return c.commands.SetVolume(v) })
}

func (c *Controller) SetPlaybackRate(rate float64) CommandResult {
	return c.command(func() CommandResult { return c.commands.SetPlaybackRate(rate) })
}

// BeginScrub marks the start of a seek-control drag. Progress events stop moving currentTime until EndScrub.
func (c *Controller) BeginScrub() {
	c.loop.call(c.sync.BeginScrub)
}

// EndScrub releases the drag and seeks to target.
func (c *Controller) EndScrub(target float64) CommandResult {
	return c.command(func() CommandResult {
		c.sync.EndScrub()
		return c.commands.Seek(target)
	})
}

// Close tears down the session, unsubscribes from the host and stops the event loop.
// The Updates and Errors channels are closed afterwards.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		c.loop.call(func() {
			c.manager.Close()
			if c.unsubscribeHost != nil {
				c.unsubscribeHost()
			}
		})
		c.loop.stop()
		close(c.updates)
		close(c.errors)
	})
	return nil
}
