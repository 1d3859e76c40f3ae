package engine

import (
	"errors"
	"strings"
)

var (
	// ErrClosed is returned by blocking calls once the engine is closed.
	ErrClosed = errors.New("engine: closed")
	// ErrBuild is returned when the pipeline objects cannot be created.
	ErrBuild = errors.New("engine: pipeline build failed")
)

// ErrorCategory represents the classification of engine errors for telemetry
type ErrorCategory int

const (
	// ErrCategoryResource indicates input failures (read, seek, short data)
	ErrCategoryResource ErrorCategory = iota
	// ErrCategoryCodec indicates decoder failures
	ErrCategoryCodec
	// ErrCategoryFormat indicates the container could not be identified or demuxed
	ErrCategoryFormat
	// ErrCategoryUnknown indicates unclassified errors
	ErrCategoryUnknown
)

// String returns a human-readable string representation of the error category
func (e ErrorCategory) String() string {
	switch e {
	case ErrCategoryResource:
		return "resource"
	case ErrCategoryCodec:
		return "codec"
	case ErrCategoryFormat:
		return "format"
	default:
		return "unknown"
	}
}

// ClassifyError categorizes an engine error from its message and debug text.
//
// GStreamer error domains are not exposed through the bindings, so the
// classification relies on keyword heuristics, most specific first.
func ClassifyError(message, debug string) ErrorCategory {
	combined := strings.ToLower(message + " " + debug)

	switch {
	case containsAny(combined, formatKeywords):
		return ErrCategoryFormat
	case containsAny(combined, codecKeywords):
		return ErrCategoryCodec
	case containsAny(combined, resourceKeywords):
		return ErrCategoryResource
	default:
		return ErrCategoryUnknown
	}
}

var (
	formatKeywords = []string{
		"could not determine type",
		"typefind",
		"demux",
		"no suitable plugin",
		"missing plugin",
		"not a valid",
		"unsupported",
	}

	codecKeywords = []string{
		"codec",
		"decode",
		"decoding",
		"not negotiated",
		"not-negotiated",
		"negotiation",
		"caps",
		"no decoder",
		"h264",
		"aac",
		"mpeg",
	}

	resourceKeywords = []string{
		"resource",
		"read",
		"seek",
		"appsrc",
		"end of stream",
		"internal data stream error",
		"not found",
		"i/o",
	}
)

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
