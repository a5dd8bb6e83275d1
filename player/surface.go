// Package player implements the playback session controller.
//
// A Controller binds at most one decoding session to a playback surface, folds
// the asynchronous events of the surface, the decoder and the host fullscreen
// facility into one immutable Snapshot, and applies transport commands against
// the surface. The surface, decoder and host are external collaborators described
// by the interfaces in this file.
package player

// Surface is the rendering sink a session is bound to.
// The controller never creates or destroys a surface, it only binds sessions to it.
type Surface interface {
	// Play resumes playback.
	Play() error

	// Pause suspends playback. Pausing an already paused surface is a no-op.
	Pause() error

	// SetCurrentTime moves the playhead to an absolute position in seconds.
	SetCurrentTime(seconds float64) error

	// SetVolume sets the output volume in [0, 1].
	SetVolume(volume float64) error

	// SetMuted toggles the mute flag without touching the volume.
	SetMuted(muted bool) error

	// SetPlaybackRate sets the playback speed multiplier.
	SetPlaybackRate(rate float64) error

	// SetSource assigns the surface's direct source. An empty reference detaches the current source.
	SetSource(ref string) error

	// CanPlayType reports whether the surface can demux the given MIME type itself.
	CanPlayType(mime string) bool

	// Container identifies the element the host fullscreen facility targets for this surface.
	Container() string

	// Subscribe registers fn for every event the surface emits and returns a function that removes it.
	Subscribe(fn func(Event)) (unsubscribe func())
}

// FullscreenHost is the host environment's fullscreen facility.
type FullscreenHost interface {
	RequestFullscreen(target string) error
	ExitFullscreen() error

	// CurrentTarget is the authoritative fullscreen element, empty when nothing is fullscreen.
	CurrentTarget() string

	Subscribe(fn func(Event)) (unsubscribe func())
}

// Decoder is a software streaming decoder that loads an adaptive manifest and feeds a surface.
// It reports EventManifestParsed once playable and EventError on failures.
type Decoder interface {
	LoadSource(ref string) error
	AttachMedia(surface Surface) error
	Subscribe(fn func(Event)) (unsubscribe func())

	// Destroy releases every resource held by the decoder and detaches it from its surface.
	Destroy() error
}

// DecoderFactory creates decoders for the ManagedAdaptive strategy.
type DecoderFactory interface {
	// Supported reports whether managed decoding can run in this runtime.
	Supported() bool
	NewDecoder() Decoder
}
