package player

import (
	"errors"
	"fmt"

	"github.com/streamctl/streamctl/log"
)

// State is the session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateAttaching
	StateActive
	StateErroring
	StateTornDown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAttaching:
		return "attaching"
	case StateActive:
		return "active"
	case StateErroring:
		return "erroring"
	case StateTornDown:
		return "torn down"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ManagerConfig tunes the session lifecycle.
type ManagerConfig struct {
	Autoplay       bool
	NetworkRetries int
	Preference     Preference
}

// Manager owns the single decoding session bound to a surface.
//
// It is not safe for concurrent use. Listeners registered for a session hand their
// events to sink tagged with the session generation; the owner must feed them back
// through Handle from the same goroutine that calls Assign.
type Manager struct {
	surface  Surface
	decoders DecoderFactory
	cfg      ManagerConfig

	sink   func(gen uint64, ev Event)
	report func(PlaybackError)

	generation uint64
	current    *session
	state      State
}

// NewManager creates a manager in the idle state.
func NewManager(surface Surface, decoders DecoderFactory, cfg ManagerConfig, sink func(uint64, Event), report func(PlaybackError)) *Manager {
	if report == nil {
		report = func(PlaybackError) {}
	}
	return &Manager{
		surface:  surface,
		decoders: decoders,
		cfg:      cfg,
		sink:     sink,
		report:   report,
		state:    StateIdle,
	}
}

// State returns the lifecycle state of the current (or last) session.
func (m *Manager) State() State {
	return m.state
}

// Generation returns the generation of the most recent Assign.
func (m *Manager) Generation() uint64 {
	return m.generation
}

// Strategy returns the strategy of the live session, or Unsupported when none is bound.
func (m *Manager) Strategy() Strategy {
	if m.current == nil {
		return Unsupported
	}
	return m.current.strategy
}

// Ref returns the stream reference of the live session.
func (m *Manager) Ref() string {
	if m.current == nil {
		return ""
	}
	return m.current.ref
}

// Bound reports whether a session currently holds the surface.
func (m *Manager) Bound() bool {
	return m.current != nil
}

// Active reports whether the bound session is ready for transport commands.
func (m *Manager) Active() bool {
	return m.current != nil && m.state == StateActive
}

// Assign tears down the current session and attaches a new one for ref.
// An empty ref only tears down. A returned error has already been reported.
func (m *Manager) Assign(ref string) error {
	m.teardown()
	m.generation++
	gen := m.generation

	if ref == "" {
		m.state = StateIdle
		return nil
	}

	strategy := Resolve(Probe(m.surface, m.decoders), m.cfg.Preference)
	if strategy == Unsupported {
		perr := PlaybackError{
			Kind:       KindUnsupportedMedia,
			Fatal:      true,
			Generation: gen,
			Ref:        ref,
			Err:        errors.New("neither native nor managed adaptive playback is available"),
		}
		m.state = StateTornDown
		log.Errorf("session %d: %v", gen, perr)
		m.report(perr)
		return perr
	}

	s := &session{gen: gen, ref: ref, strategy: strategy}
	m.current = s
	m.transition(s, StateAttaching)

	listener := func(ev Event) {
		if m.sink != nil {
			m.sink(gen, ev)
		}
	}
	s.track(m.surface.Subscribe(listener))

	switch strategy {
	case NativeDirect:
		s.attach = nativeAttacher{surface: m.surface}
	case ManagedAdaptive:
		decoder := m.decoders.NewDecoder()
		s.attach = managedAttacher{surface: m.surface, decoder: decoder}
		s.track(decoder.Subscribe(listener))
	}

	if err := s.attach.start(ref); err != nil {
		return m.startFailed(s, fmt.Errorf("start %s session: %w", strategy, err))
	}
	return nil
}

// startFailed ends the session when the surface or decoder refused the media itself.
// Any other failure is taken as a transport problem and goes through the network retry.
func (m *Manager) startFailed(s *session, err error) error {
	switch {
	case errors.Is(err, ErrUnsupportedMedia):
		return m.fail(s, KindUnsupportedMedia, err)
	case errors.Is(err, ErrDecode):
		return m.fail(s, KindDecode, err)
	}
	return m.handleError(s, Failure(ErrorNetwork, false, err))
}

// Handle applies a lifecycle event tagged with gen. It reports whether the event
// belongs to the live session; stale events are dropped and must not reach the snapshot.
func (m *Manager) Handle(gen uint64, ev Event) bool {
	s := m.current
	if s == nil || s.gen != gen || s.released {
		log.Debugf("session %d: dropping stale %s (current generation %d)", gen, ev.Kind, m.generation)
		return false
	}

	switch ev.Kind {
	case EventReady:
		if s.strategy == NativeDirect {
			m.activate(s)
		}
	case EventManifestParsed:
		if s.strategy == ManagedAdaptive {
			log.Infof("session %d: manifest parsed, %d renditions", s.gen, ev.Levels)
			m.activate(s)
		}
	case EventError:
		_ = m.handleError(s, ev)
	}

	return m.current == s
}

// Close tears down the live session for good.
func (m *Manager) Close() {
	m.teardown()
	m.state = StateTornDown
}

func (m *Manager) activate(s *session) {
	if m.state == StateActive {
		return
	}
	m.transition(s, StateActive)

	if !m.cfg.Autoplay {
		return
	}
	if err := m.surface.Play(); err != nil {
		log.Warnf("session %d: autoplay refused: %v", s.gen, err)
		m.report(PlaybackError{
			Kind:       KindHostRestriction,
			Fatal:      false,
			Generation: s.gen,
			Ref:        s.ref,
			Err:        err,
		})
	}
}

// handleError returns the fatal error it reported, if any.
func (m *Manager) handleError(s *session, ev Event) error {
	cause := ev.Err
	if cause == nil {
		cause = fmt.Errorf("%s error", ev.ErrType)
	}

	switch ev.ErrType {
	case ErrorNetwork:
		if s.retries >= m.cfg.NetworkRetries {
			return m.fail(s, KindNetwork, cause)
		}
		s.retries++
		m.transition(s, StateErroring)
		log.Warnf("session %d: %v, reloading source (retry %d/%d)", s.gen, cause, s.retries, m.cfg.NetworkRetries)
		if err := s.attach.reload(s.ref); err != nil {
			return m.fail(s, KindNetwork, fmt.Errorf("reload: %w", err))
		}
		m.transition(s, StateAttaching)

	case ErrorMedia:
		return m.fail(s, KindDecode, cause)

	default:
		if ev.Fatal {
			return m.fail(s, KindDecode, cause)
		}
		log.Warnf("session %d: ignoring non-fatal %s error: %v", s.gen, ev.ErrType, cause)
	}
	return nil
}

// fail tears the session down and only then reports the fatal error.
func (m *Manager) fail(s *session, kind ErrorKind, cause error) error {
	m.transition(s, StateErroring)
	m.teardown()

	perr := PlaybackError{Kind: kind, Fatal: true, Generation: s.gen, Ref: s.ref, Err: cause}
	log.Errorf("session %d: %v", s.gen, perr)
	m.report(perr)
	return perr
}

func (m *Manager) teardown() {
	s := m.current
	if s == nil {
		return
	}
	m.current = nil

	if err := s.release(); err != nil {
		log.Warnf("session %d: %v", s.gen, err)
	}
	m.transition(s, StateTornDown)
}

func (m *Manager) transition(s *session, to State) {
	if m.state == to {
		return
	}
	log.Debugf("session %d: %s -> %s", s.gen, m.state, to)
	m.state = to
}
