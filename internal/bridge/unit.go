package bridge

import (
	"image"
	"time"
)

// AudioUnit is a decoded block of interleaved signed 16-bit PCM (internal
// type, avoids import cycle; the public type lives in the parent package).
type AudioUnit struct {
	Offset   int64
	Time     time.Duration
	Duration time.Duration
	Frames   int
	Channels int
	Rate     int
	Samples  []int16
}

// VideoUnit is a decoded I420 frame.
type VideoUnit struct {
	Offset   int64
	Time     time.Duration
	Duration time.Duration
	Keyframe bool
	Display  image.Point
	Image    *image.YCbCr
}

// Sink receives the units the bridge delivers, in order per stream.
type Sink interface {
	PushAudio(u AudioUnit)
	PushVideo(u VideoUnit)
}

// AudioInfo are the static audio properties known after preroll.
type AudioInfo struct {
	Rate     int
	Channels int
}

// VideoInfo are the static video properties known after preroll.
type VideoInfo struct {
	Width   int
	Height  int
	Display image.Point
	FPSNum  int
	FPSDen  int
}

// FrameDuration is one frame period, zero when the framerate is unknown.
func (v VideoInfo) FrameDuration() time.Duration {
	if v.FPSNum <= 0 || v.FPSDen <= 0 {
		return 0
	}
	return time.Duration(int64(time.Second) * int64(v.FPSDen) / int64(v.FPSNum))
}

// Result is the outcome of one decode pull.
type Result int

const (
	// ResultDecoded means a unit was delivered to the sink.
	ResultDecoded Result = iota
	// ResultSkipped means a unit was consumed but dropped.
	ResultSkipped
	// ResultYield means nothing was consumed; call again later.
	ResultYield
	// ResultEOS means the stream has ended. Terminal.
	ResultEOS
)

// HasMore reports whether further pulls may produce units.
func (r Result) HasMore() bool {
	return r != ResultEOS
}

// String returns a human-readable name for the result
func (r Result) String() string {
	switch r {
	case ResultDecoded:
		return "decoded"
	case ResultSkipped:
		return "skipped"
	case ResultYield:
		return "yield"
	case ResultEOS:
		return "eos"
	default:
		return "unknown"
	}
}
