package mpv

import (
	"errors"
	"fmt"
	"sync"

	"github.com/samber/mo"
	"github.com/streamctl/streamctl/constant"
	"github.com/streamctl/streamctl/log"
	"github.com/streamctl/streamctl/player"
	"github.com/streamctl/streamctl/util"
)

// observed is the set of properties the surface mirrors into player events.
var observed = []string{
	"time-pos",
	"duration",
	"pause",
	"eof-reached",
	"volume",
	"mute",
	"speed",
	"fullscreen",
}

// mpv reports end-file errors with these file_error strings
const loadingFailed = "loading failed"

var _ player.Surface = (*Surface)(nil)
var _ player.FullscreenHost = (*Host)(nil)

// Surface adapts an mpv instance to player.Surface.
type Surface struct {
	client   *Client
	listener *EventListener

	events     player.Listeners
	fullscreen player.Listeners

	mu     sync.Mutex
	source string

	// entry is the playlist entry of the current source, zero until mpv names it.
	// Entries below floor belong to replaced sources. newest is the highest entry seen.
	entry  int64
	floor  int64
	newest int64

	timePos      float64
	duration     mo.Option[float64]
	paused       bool
	eof          bool
	volume       float64
	muted        bool
	fullscreenOn bool
}

// NewSurface wraps the instance behind client. Call Start before binding sessions to it.
func NewSurface(client *Client) *Surface {
	s := &Surface{
		client:   client,
		duration: mo.None[float64](),
		paused:   true,
		volume:   1,
	}
	s.listener = NewEventListener(client.Socket(), observed, s.handle)
	return s
}

// Start begins mirroring mpv's state.
func (s *Surface) Start() error {
	return s.listener.Start()
}

// Close stops mirroring. The mpv process itself is owned by whoever launched it.
func (s *Surface) Close() error {
	s.listener.Stop()
	return nil
}

// Gone is closed when the event connection to mpv is lost.
func (s *Surface) Gone() <-chan struct{} {
	return s.listener.Done()
}

// Host returns the fullscreen facility of the mpv window.
func (s *Surface) Host() *Host {
	return &Host{surface: s}
}

func (s *Surface) Play() error {
	return s.client.Set("pause", false)
}

func (s *Surface) Pause() error {
	return s.client.Set("pause", true)
}

func (s *Surface) SetCurrentTime(seconds float64) error {
	_, err := s.client.Command("seek", seconds, "absolute")
	return err
}

// SetVolume maps [0, 1] onto mpv's 0..100 scale.
func (s *Surface) SetVolume(volume float64) error {
	return s.client.Set("volume", util.Clamp(volume, 0, 1)*100)
}

func (s *Surface) SetMuted(muted bool) error {
	return s.client.Set("mute", muted)
}

func (s *Surface) SetPlaybackRate(rate float64) error {
	return s.client.Set("speed", rate)
}

// SetSource replaces the current file, or stops playback when ref is empty.
func (s *Surface) SetSource(ref string) error {
	if ref == "" {
		s.resetSource("")
		_, err := s.client.Command("stop")
		return err
	}

	target, err := sanitizeMediaTarget(ref)
	if err != nil {
		return fmt.Errorf("%w: invalid media target: %w", player.ErrUnsupportedMedia, err)
	}

	s.resetSource(target)
	data, err := s.client.Command("loadfile", target, "replace")
	if err != nil {
		return fmt.Errorf("loadfile: %w", err)
	}
	if id, ok := entryID(data); ok {
		s.claim(id)
	}
	return nil
}

func (s *Surface) resetSource(ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = ref
	s.timePos = 0
	s.duration = mo.None[float64]()
	s.eof = false
	s.entry = 0
	s.floor = s.newest + 1
}

// entryID reads the playlist entry id from a loadfile reply. Older mpv releases reply without one.
func entryID(data interface{}) (int64, bool) {
	reply, ok := data.(map[string]interface{})
	if !ok {
		return 0, false
	}
	id, ok := reply["playlist_entry_id"].(float64)
	if !ok || id <= 0 {
		return 0, false
	}
	return int64(id), true
}

// claim makes id the current source's playlist entry unless it belongs to a replaced one.
func (s *Surface) claim(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id > s.newest {
		s.newest = id
	}
	if s.entry == 0 && id >= s.floor {
		s.entry = id
	}
}

// current reports whether an event tagged with playlist entry id belongs to the current source.
// Events without an id cannot be told apart and are kept.
func (s *Surface) current(id int64) bool {
	if id == 0 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry != 0 {
		return id == s.entry
	}
	return id >= s.floor
}

// Source returns the reference last handed to loadfile.
func (s *Surface) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// CanPlayType reports the adaptive manifest types mpv demuxes through its own HLS support.
func (s *Surface) CanPlayType(mime string) bool {
	return mime == constant.MimeHLS || mime == constant.MimeHLSLegacy
}

// Container identifies the mpv window.
func (s *Surface) Container() string {
	return "mpv:" + s.client.Socket()
}

func (s *Surface) Subscribe(fn func(player.Event)) func() {
	return s.events.Subscribe(fn)
}

// handle runs on the listener goroutine.
func (s *Surface) handle(msg Message) {
	switch msg.Event {
	case "property-change":
		s.property(msg.Name, msg.Data)

	case "start-file":
		if msg.PlaylistEntryID > 0 {
			s.claim(msg.PlaylistEntryID)
		}

	case "file-loaded":
		if !s.current(msg.PlaylistEntryID) {
			log.Debugf("mpv: dropping file-loaded for replaced entry %d", msg.PlaylistEntryID)
			return
		}
		s.events.Emit(player.Event{Kind: player.EventReady})

	case "end-file":
		if msg.Reason != "error" {
			return
		}
		if !s.current(msg.PlaylistEntryID) {
			log.Debugf("mpv: dropping end-file for replaced entry %d: %s", msg.PlaylistEntryID, msg.FileError)
			return
		}
		cause := errors.New(msg.FileError)
		if msg.FileError == loadingFailed {
			s.events.Emit(player.Failure(player.ErrorNetwork, false, cause))
			return
		}
		s.events.Emit(player.Failure(player.ErrorMedia, true, cause))

	case "shutdown":
		log.Warn("mpv is shutting down")
		s.events.Emit(player.Failure(player.ErrorOther, true, errors.New("mpv exited")))
	}
}

func (s *Surface) property(name string, data interface{}) {
	s.mu.Lock()

	var (
		ev        player.Event
		emit      bool
		hostEvent bool
	)

	switch name {
	case "time-pos":
		if v, ok := data.(float64); ok {
			s.timePos = v
			ev, emit = player.TimeUpdate(v, s.duration, s.paused, s.eof), true
		}

	case "duration":
		if v, ok := data.(float64); ok {
			s.duration = mo.Some(v)
			ev, emit = player.Event{Kind: player.EventLoadedMetadata, Duration: s.duration}, true
		} else {
			s.duration = mo.None[float64]()
		}

	case "pause":
		if v, ok := data.(bool); ok {
			s.paused = v
			ev, emit = player.PlaybackState(v, s.eof), true
		}

	case "eof-reached":
		v, _ := data.(bool)
		s.eof = v
		if v {
			ev, emit = player.Event{Kind: player.EventEnded}, true
		}

	case "volume":
		if v, ok := data.(float64); ok {
			s.volume = util.Clamp(v/100, 0, 1)
			ev, emit = player.VolumeChange(s.volume, s.muted), true
		}

	case "mute":
		if v, ok := data.(bool); ok {
			s.muted = v
			ev, emit = player.VolumeChange(s.volume, v), true
		}

	case "speed":
		if v, ok := data.(float64); ok {
			ev, emit = player.Event{Kind: player.EventRateChange, Rate: v}, true
		}

	case "fullscreen":
		if v, ok := data.(bool); ok {
			s.fullscreenOn = v
			ev, emit, hostEvent = player.FullscreenChange(s.fullscreenTarget()), true, true
		}
	}

	s.mu.Unlock()

	if !emit {
		return
	}
	if hostEvent {
		s.fullscreen.Emit(ev)
		return
	}
	s.events.Emit(ev)
}

// fullscreenTarget must be called with mu held.
func (s *Surface) fullscreenTarget() string {
	if !s.fullscreenOn {
		return ""
	}
	return s.Container()
}

// Host is the fullscreen facility of an mpv window. Its only possible target is the window itself.
type Host struct {
	surface *Surface
}

func (h *Host) RequestFullscreen(target string) error {
	if target != h.surface.Container() {
		return fmt.Errorf("mpv can only make its own window fullscreen, not %q", target)
	}
	return h.surface.client.Set("fullscreen", true)
}

func (h *Host) ExitFullscreen() error {
	return h.surface.client.Set("fullscreen", false)
}

func (h *Host) CurrentTarget() string {
	h.surface.mu.Lock()
	defer h.surface.mu.Unlock()
	return h.surface.fullscreenTarget()
}

func (h *Host) Subscribe(fn func(player.Event)) func() {
	return h.surface.fullscreen.Subscribe(fn)
}
