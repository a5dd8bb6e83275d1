// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Playback Session - these keys govern how the controller attaches and drives a stream.
const (
	PlayerAutoplay       = "player.autoplay"
	PlayerStrategy       = "player.strategy"
	PlayerVolume         = "player.volume"
	PlayerNetworkRetries = "player.network_retries"
	PlayerSeekStep       = "player.seek_step"
	PlayerResume         = "player.resume"
)

// Managed Adaptive Loader - these keys configure the Go-side manifest loader.
const (
	HLSMaxBandwidth   = "hls.max_bandwidth"
	HLSTLSFingerprint = "hls.tls_fingerprint"
)

// Playback Surface - these keys configure the external mpv process.
const (
	MPVBinary    = "mpv.binary"
	MPVExtraArgs = "mpv.extra_args"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these settings govern the non-TUI application behavior.
const (
	CliColored = "cli.colored"
)
