package player

import "fmt"

// attacher is the strategy-specific half of a session: how a reference reaches the surface.
type attacher interface {
	start(ref string) error
	reload(ref string) error
	detach() error
}

type nativeAttacher struct {
	surface Surface
}

func (a nativeAttacher) start(ref string) error {
	return a.surface.SetSource(ref)
}

func (a nativeAttacher) reload(ref string) error {
	return a.surface.SetSource(ref)
}

func (a nativeAttacher) detach() error {
	return a.surface.SetSource("")
}

type managedAttacher struct {
	surface Surface
	decoder Decoder
}

func (a managedAttacher) start(ref string) error {
	if err := a.decoder.AttachMedia(a.surface); err != nil {
		return fmt.Errorf("attach media: %w", err)
	}
	return a.decoder.LoadSource(ref)
}

func (a managedAttacher) reload(ref string) error {
	return a.decoder.LoadSource(ref)
}

func (a managedAttacher) detach() error {
	return a.decoder.Destroy()
}

// session is one decoding session bound to the surface. Everything it acquires
// is recorded so that release can undo it on every exit path.
type session struct {
	gen      uint64
	ref      string
	strategy Strategy
	attach   attacher
	retries  int

	unsubscribe []func()
	released    bool
}

// track records a listener registration for release.
func (s *session) track(unsubscribe func()) {
	if unsubscribe != nil {
		s.unsubscribe = append(s.unsubscribe, unsubscribe)
	}
}

// release unsubscribes every listener and detaches from the surface. It is idempotent.
func (s *session) release() error {
	if s.released {
		return nil
	}
	s.released = true

	for i := len(s.unsubscribe) - 1; i >= 0; i-- {
		s.unsubscribe[i]()
	}
	s.unsubscribe = nil

	if s.attach == nil {
		return nil
	}
	if err := s.attach.detach(); err != nil {
		return fmt.Errorf("detach %s session %d: %w", s.strategy, s.gen, err)
	}
	return nil
}
