package formats

import "strings"

// Allow-list of what the reader is willing to play. Anything the engine
// could decode but which is not listed here is reported as unsupported.
var (
	containerCaps = MustParseCaps(
		"video/quicktime; " +
			"audio/x-m4a; " +
			"audio/mpeg, mpegversion=(int)1; " +
			"application/x-id3")

	codecCaps = MustParseCaps(
		"video/x-h264; " +
			"video/3gpp; " +
			"audio/mpeg, mpegversion=(int)4; " +
			"audio/mpeg, mpegversion=(int)1")

	// Plugin factories known to misbehave inside playbin.
	blacklistedFactories = []string{
		"flump3dec",
		"h264parse",
	}

	// Host content types and the source caps announced for them, so that
	// typefinding does not have to probe every format.
	contentTypeCaps = map[string]string{
		"video/mp4":       "video/quicktime",
		"video/x-m4v":     "video/quicktime",
		"video/quicktime": "video/quicktime",
		"audio/mp4":       "audio/x-m4a",
		"audio/x-m4a":     "audio/x-m4a",
		"audio/mpeg":      "audio/mpeg, mpegversion=(int)1",
		"audio/mp3":       "audio/mpeg, mpegversion=(int)1",
	}
)

// CanHandleContainerCaps reports whether a demuxer input described by caps is
// in the container allow-list.
func CanHandleContainerCaps(caps string) bool {
	return canHandle(caps, containerCaps)
}

// CanHandleCodecCaps reports whether a decoder input described by caps is in
// the codec allow-list.
func CanHandleCodecCaps(caps string) bool {
	return canHandle(caps, codecCaps)
}

func canHandle(caps string, allowed Caps) bool {
	parsed, err := ParseCaps(caps)
	if err != nil || len(parsed) == 0 {
		return false
	}
	return parsed.CanIntersect(allowed)
}

// IsBlacklisted reports whether a plugin factory must never be autoplugged.
func IsBlacklisted(factory string) bool {
	for _, name := range blacklistedFactories {
		if factory == name {
			return true
		}
	}
	return false
}

// ShouldAutoplug decides whether the engine may plug a factory of the given
// klass for a stream with the given caps. Only demuxers and decoders are
// filtered; metadata demuxers (id3demux) and generic decoders pass.
func ShouldAutoplug(factory, klass, caps string) bool {
	if IsBlacklisted(factory) {
		return false
	}
	switch {
	case IsContainerKlass(klass):
		return CanHandleContainerCaps(caps)
	case IsCodecKlass(klass):
		return CanHandleCodecCaps(caps)
	default:
		return true
	}
}

// IsContainerKlass reports a demuxer klass that is not a metadata demuxer.
func IsContainerKlass(klass string) bool {
	return strings.Contains(klass, "Demuxer") && !strings.Contains(klass, "Metadata")
}

// IsCodecKlass reports a decoder klass that is not a generic decoder bin.
func IsCodecKlass(klass string) bool {
	return strings.Contains(klass, "Decoder") && !strings.Contains(klass, "Generic")
}

// CapsForContentType maps a host content type (parameters ignored) to the
// caps announced on the input source. Unknown types return "" and leave
// typefinding to the engine.
func CapsForContentType(contentType string) string {
	mime, _, _ := strings.Cut(contentType, ";")
	return contentTypeCaps[strings.ToLower(strings.TrimSpace(mime))]
}

// IsMP3 reports whether the content type names an MP3 elementary stream.
func IsMP3(contentType string) bool {
	mime, _, _ := strings.Cut(contentType, ";")
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "audio/mpeg", "audio/mp3":
		return true
	}
	return false
}

// Allowlist exposes the allow-list queries as a value, so callers can take
// the checks as a collaborator and tests can substitute their own.
type Allowlist struct{}

// CanHandleContainerCaps implements the container query.
func (Allowlist) CanHandleContainerCaps(caps string) bool {
	return CanHandleContainerCaps(caps)
}

// CanHandleCodecCaps implements the codec query.
func (Allowlist) CanHandleCodecCaps(caps string) bool {
	return CanHandleCodecCaps(caps)
}

// ShouldAutoplug implements the autoplug veto.
func (Allowlist) ShouldAutoplug(factory, klass, caps string) bool {
	return ShouldAutoplug(factory, klass, caps)
}
