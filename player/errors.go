package player

import (
	"errors"
	"fmt"
)

// Error taxonomy. Fatal kinds terminate the session, the rest come back inline.
var (
	ErrUnsupportedMedia = errors.New("unsupported media")
	ErrNetwork          = errors.New("network error")
	ErrDecode           = errors.New("decode error")
	ErrCommandRejected  = errors.New("command rejected")
	ErrHostRestriction  = errors.New("host restriction")
)

// Specific command rejections.
var (
	ErrDurationUnknown = fmt.Errorf("%w: duration unknown", ErrCommandRejected)
	ErrInvalidSeek     = fmt.Errorf("%w: seek target is not a number", ErrCommandRejected)
	ErrInvalidVolume   = fmt.Errorf("%w: volume is not a number", ErrCommandRejected)
	ErrInvalidRate     = fmt.Errorf("%w: playback rate must be positive", ErrCommandRejected)
	ErrNoFullscreen    = fmt.Errorf("%w: no fullscreen facility", ErrCommandRejected)
)

// ErrClosed is returned once the controller has been closed.
var ErrClosed = errors.New("controller closed")

// ErrorKind identifies a PlaybackError's class.
type ErrorKind int

const (
	KindUnsupportedMedia ErrorKind = iota + 1
	KindNetwork
	KindDecode
	KindHostRestriction
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnsupportedMedia:
		return "unsupported media"
	case KindNetwork:
		return "network"
	case KindDecode:
		return "decode"
	case KindHostRestriction:
		return "host restriction"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindUnsupportedMedia:
		return ErrUnsupportedMedia
	case KindNetwork:
		return ErrNetwork
	case KindDecode:
		return ErrDecode
	case KindHostRestriction:
		return ErrHostRestriction
	default:
		return nil
	}
}

// PlaybackError is reported to the presentation layer through Controller.Errors.
// A fatal error is only reported after its session has been torn down.
type PlaybackError struct {
	Kind       ErrorKind
	Fatal      bool
	Generation uint64
	Ref        string
	Err        error
}

func (e PlaybackError) Error() string {
	msg := fmt.Sprintf("%s error on %s", e.Kind, e.Ref)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is and errors.As.
func (e PlaybackError) Unwrap() []error {
	var errs []error
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
