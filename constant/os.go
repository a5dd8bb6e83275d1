package constant

// runtime.GOOS values that need platform-specific install hints.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)
