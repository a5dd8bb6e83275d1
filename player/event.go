package player

import (
	"fmt"

	"github.com/samber/mo"
)

// EventKind enumerates the device, decoder and host events the controller understands.
type EventKind int

const (
	// EventTimeUpdate is periodic progress, carrying the device's authoritative paused and ended flags.
	EventTimeUpdate EventKind = iota + 1
	EventLoadedMetadata
	// EventReady means a directly assigned source can start playing.
	EventReady
	// EventPlaybackState is emitted when the device starts or stops playing.
	EventPlaybackState
	EventVolumeChange
	EventRateChange
	EventEnded
	EventError
	EventFullscreenChange
	// EventManifestParsed means a managed decoder has a playable rendition.
	EventManifestParsed
)

func (k EventKind) String() string {
	switch k {
	case EventTimeUpdate:
		return "timeupdate"
	case EventLoadedMetadata:
		return "loadedmetadata"
	case EventReady:
		return "ready"
	case EventPlaybackState:
		return "playbackstate"
	case EventVolumeChange:
		return "volumechange"
	case EventRateChange:
		return "ratechange"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	case EventFullscreenChange:
		return "fullscreenchange"
	case EventManifestParsed:
		return "manifestparsed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// ErrorType classifies decoder and surface failures.
type ErrorType int

const (
	ErrorOther ErrorType = iota
	ErrorNetwork
	ErrorMedia
)

func (t ErrorType) String() string {
	switch t {
	case ErrorNetwork:
		return "network"
	case ErrorMedia:
		return "media"
	default:
		return "other"
	}
}

// Event is a single notification from a collaborator. Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind

	CurrentTime float64
	Duration    mo.Option[float64]
	Paused      bool
	Ended       bool

	Volume float64
	Muted  bool
	Rate   float64

	// Target is the new fullscreen element for EventFullscreenChange.
	Target string

	// Levels is the number of renditions found for EventManifestParsed.
	Levels int

	ErrType ErrorType
	Fatal   bool
	Err     error
}

// TimeUpdate builds a progress event.
func TimeUpdate(current float64, duration mo.Option[float64], paused, ended bool) Event {
	return Event{Kind: EventTimeUpdate, CurrentTime: current, Duration: duration, Paused: paused, Ended: ended}
}

// PlaybackState builds a play/pause transition event.
func PlaybackState(paused, ended bool) Event {
	return Event{Kind: EventPlaybackState, Paused: paused, Ended: ended}
}

// VolumeChange builds a volume/mute change event.
func VolumeChange(volume float64, muted bool) Event {
	return Event{Kind: EventVolumeChange, Volume: volume, Muted: muted}
}

// FullscreenChange builds a host fullscreen transition event.
func FullscreenChange(target string) Event {
	return Event{Kind: EventFullscreenChange, Target: target}
}

// Failure builds an error event.
func Failure(t ErrorType, fatal bool, err error) Event {
	return Event{Kind: EventError, ErrType: t, Fatal: fatal, Err: err}
}
