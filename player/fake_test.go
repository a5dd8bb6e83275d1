package player

import (
	"errors"
	"sync"

	"github.com/samber/mo"
)

// bindings counts decoding sessions holding the surface and remembers the peak.
type bindings struct {
	mu      sync.Mutex
	live    int
	peak    int
	history []string
}

func (b *bindings) bind(what string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.live++
	if b.live > b.peak {
		b.peak = b.live
	}
	b.history = append(b.history, "bind "+what)
}

func (b *bindings) unbind(what string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.live--
	b.history = append(b.history, "unbind "+what)
}

func (b *bindings) counts() (live, peak int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live, b.peak
}

// emitter is a listener registry that also keeps every listener ever registered,
// so tests can replay an event that was already in flight when the listener was removed.
type emitter struct {
	mu        sync.Mutex
	next      int
	listeners map[int]func(Event)
	ever      []func(Event)
}

func (e *emitter) Subscribe(fn func(Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[int]func(Event))
	}
	id := e.next
	e.next++
	e.listeners[id] = fn
	e.ever = append(e.ever, fn)
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.listeners, id)
	}
}

func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	fns := make([]func(Event), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// replayStale delivers ev to every listener ever registered, removed or not.
func (e *emitter) replayStale(ev Event) {
	e.mu.Lock()
	fns := append([]func(Event){}, e.ever...)
	e.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (e *emitter) subscribers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners)
}

// fakeSurface behaves like a media element: property writes are echoed as events.
type fakeSurface struct {
	emitter
	binds *bindings

	mu        sync.Mutex
	native    bool
	source    string
	paused    bool
	time      float64
	duration  mo.Option[float64]
	volume    float64
	muted     bool
	rate      float64
	sources   []string
	playErr   error
	sourceErr error

	// sourceDrops fails that many non-empty SetSource calls with errTransport
	sourceDrops int
}

func newFakeSurface(native bool) *fakeSurface {
	return &fakeSurface{
		binds:    &bindings{},
		native:   native,
		paused:   true,
		duration: mo.None[float64](),
		volume:   1,
		rate:     1,
	}
}

func (s *fakeSurface) Play() error {
	s.mu.Lock()
	if s.playErr != nil {
		s.mu.Unlock()
		return s.playErr
	}
	s.paused = false
	s.mu.Unlock()
	s.emit(PlaybackState(false, false))
	return nil
}

func (s *fakeSurface) Pause() error {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
	s.emit(PlaybackState(true, false))
	return nil
}

func (s *fakeSurface) SetCurrentTime(t float64) error {
	s.mu.Lock()
	s.time = t
	s.mu.Unlock()
	return nil
}

func (s *fakeSurface) SetVolume(v float64) error {
	s.mu.Lock()
	s.volume = v
	muted := s.muted
	s.mu.Unlock()
	s.emit(VolumeChange(v, muted))
	return nil
}

func (s *fakeSurface) SetMuted(m bool) error {
	s.mu.Lock()
	s.muted = m
	v := s.volume
	s.mu.Unlock()
	s.emit(VolumeChange(v, m))
	return nil
}

func (s *fakeSurface) SetPlaybackRate(r float64) error {
	s.mu.Lock()
	s.rate = r
	s.mu.Unlock()
	s.emit(Event{Kind: EventRateChange, Rate: r})
	return nil
}

func (s *fakeSurface) SetSource(ref string) error {
	s.mu.Lock()
	if s.sourceErr != nil {
		s.mu.Unlock()
		return s.sourceErr
	}
	if ref != "" && s.sourceDrops > 0 {
		s.sourceDrops--
		s.mu.Unlock()
		return errTransport
	}
	prev := s.source
	s.source = ref
	s.sources = append(s.sources, ref)
	s.mu.Unlock()

	if prev != "" {
		s.binds.unbind("src " + prev)
	}
	if ref != "" {
		s.binds.bind("src " + ref)
	}
	return nil
}

func (s *fakeSurface) CanPlayType(mime string) bool {
	return s.native && mime != ""
}

func (s *fakeSurface) Container() string {
	return "container-1"
}

// progress emits a timeupdate from the surface's current state.
func (s *fakeSurface) progress() {
	s.mu.Lock()
	ev := TimeUpdate(s.time, s.duration, s.paused, false)
	s.mu.Unlock()
	s.emit(ev)
}

func (s *fakeSurface) setDuration(d float64) {
	s.mu.Lock()
	s.duration = mo.Some(d)
	s.mu.Unlock()
	s.emit(Event{Kind: EventLoadedMetadata, Duration: mo.Some(d)})
}

func (s *fakeSurface) currentSource() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

func (s *fakeSurface) state() (volume float64, muted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume, s.muted
}

// fakeDecoder records calls and binds the surface while attached.
type fakeDecoder struct {
	emitter
	binds *bindings

	mu        sync.Mutex
	loads     []string
	attached  bool
	destroyed bool
}

func (d *fakeDecoder) LoadSource(ref string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loads = append(d.loads, ref)
	return nil
}

func (d *fakeDecoder) AttachMedia(Surface) error {
	d.mu.Lock()
	d.attached = true
	d.mu.Unlock()
	d.binds.bind("decoder")
	return nil
}

func (d *fakeDecoder) Destroy() error {
	d.mu.Lock()
	wasAttached := d.attached && !d.destroyed
	d.destroyed = true
	d.mu.Unlock()
	if wasAttached {
		d.binds.unbind("decoder")
	}
	return nil
}

func (d *fakeDecoder) loadCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.loads)
}

func (d *fakeDecoder) isDestroyed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed
}

type fakeDecoders struct {
	binds     *bindings
	supported bool

	mu      sync.Mutex
	created []*fakeDecoder
}

func (f *fakeDecoders) Supported() bool {
	return f.supported
}

func (f *fakeDecoders) NewDecoder() Decoder {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := &fakeDecoder{binds: f.binds}
	f.created = append(f.created, d)
	return d
}

func (f *fakeDecoders) last() *fakeDecoder {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.created) == 0 {
		return nil
	}
	return f.created[len(f.created)-1]
}

func (f *fakeDecoders) nth(i int) *fakeDecoder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created[i]
}

var (
	errDenied    = errors.New("denied by host")
	errTransport = errors.New("ipc: connection reset")
)

type fakeHost struct {
	emitter

	mu     sync.Mutex
	target string
	deny   bool
}

func (h *fakeHost) RequestFullscreen(target string) error {
	h.mu.Lock()
	if h.deny {
		h.mu.Unlock()
		return errDenied
	}
	h.target = target
	h.mu.Unlock()
	h.emit(FullscreenChange(target))
	return nil
}

func (h *fakeHost) ExitFullscreen() error {
	h.mu.Lock()
	h.target = ""
	h.mu.Unlock()
	h.emit(FullscreenChange(""))
	return nil
}

func (h *fakeHost) CurrentTarget() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.target
}

// flush waits until every event posted so far has been handled.
func flush(c *Controller) {
	c.loop.call(func() {})
}

// managedRig builds a controller whose surface has no native support, forcing managed decoding.
func managedRig(opts Options) (*Controller, *fakeSurface, *fakeDecoders, *fakeHost) {
	surface := newFakeSurface(false)
	decoders := &fakeDecoders{binds: surface.binds, supported: true}
	host := &fakeHost{}
	opts.Decoders = decoders
	opts.Fullscreen = host
	return New(surface, opts), surface, decoders, host
}
