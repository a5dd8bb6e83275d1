package player

import (
	"fmt"
	"strings"

	"github.com/streamctl/streamctl/constant"
)

// Strategy is the decoding path chosen for one session.
type Strategy int

const (
	Unsupported Strategy = iota
	// NativeDirect assigns the reference as the surface's source and waits for EventReady.
	NativeDirect
	// ManagedAdaptive bridges a software Decoder to the surface and waits for EventManifestParsed.
	ManagedAdaptive
)

func (s Strategy) String() string {
	switch s {
	case NativeDirect:
		return "native"
	case ManagedAdaptive:
		return "managed"
	default:
		return "unsupported"
	}
}

// Preference narrows which strategies Resolve may pick.
type Preference int

const (
	PreferAuto Preference = iota
	PreferNative
	PreferManaged
)

// ParsePreference maps a configuration value (auto, native, managed) to a Preference.
func ParsePreference(s string) (Preference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return PreferAuto, nil
	case "native":
		return PreferNative, nil
	case "managed":
		return PreferManaged, nil
	default:
		return PreferAuto, fmt.Errorf("unknown decoding strategy %q", s)
	}
}

// Capabilities describes what a runtime can do with an adaptive manifest.
type Capabilities struct {
	// NativeManifest is set when the surface parses the manifest format itself.
	NativeManifest bool
	// ManagedDecoding is set when a software decoder can be bridged to the surface.
	ManagedDecoding bool
}

// Probe queries the surface and the decoder factory. It is re-run for every session
// because capabilities differ between surfaces and runtimes.
func Probe(surface Surface, decoders DecoderFactory) Capabilities {
	var caps Capabilities
	if surface != nil {
		caps.NativeManifest = surface.CanPlayType(constant.MimeHLS) || surface.CanPlayType(constant.MimeHLSLegacy)
	}
	if decoders != nil {
		caps.ManagedDecoding = decoders.Supported()
	}
	return caps
}

// Resolve picks the decoding strategy. It is pure.
// With PreferAuto native playback wins when available; a forced preference the
// runtime cannot serve resolves to Unsupported.
func Resolve(caps Capabilities, pref Preference) Strategy {
	switch pref {
	case PreferNative:
		if caps.NativeManifest {
			return NativeDirect
		}
		return Unsupported
	case PreferManaged:
		if caps.ManagedDecoding {
			return ManagedAdaptive
		}
		return Unsupported
	}

	switch {
	case caps.NativeManifest:
		return NativeDirect
	case caps.ManagedDecoding:
		return ManagedAdaptive
	default:
		return Unsupported
	}
}
