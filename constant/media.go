package constant

// MIME types advertised by playback surfaces for adaptive manifests.
const (
	MimeHLS       = "application/vnd.apple.mpegurl"
	MimeHLSLegacy = "application/x-mpegURL"
)

// ManifestExt is the file extension expected on adaptive stream references.
const ManifestExt = ".m3u8"
