package mediareader

import (
	"fmt"
	"time"

	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/bridge"
	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/buffered"
	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/feeder"
	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/stats"
)

// Result is the outcome of one decode pull.
type Result = bridge.Result

const (
	// ResultDecoded means a unit was appended to the output queue.
	ResultDecoded = bridge.ResultDecoded
	// ResultSkipped means a unit was consumed but dropped (threshold or
	// keyframe skip).
	ResultSkipped = bridge.ResultSkipped
	// ResultYield means nothing was available; call again later.
	ResultYield = bridge.ResultYield
	// ResultEOS means the stream has ended. Every later pull returns it too.
	ResultEOS = bridge.ResultEOS
)

// AudioData is one block of interleaved signed 16-bit PCM.
type AudioData = bridge.AudioUnit

// VideoData is one decoded I420 frame.
type VideoData = bridge.VideoUnit

// AudioInfo describes the audio stream.
type AudioInfo = bridge.AudioInfo

// VideoInfo describes the video stream.
type VideoInfo = bridge.VideoInfo

// ByteRange is a half-open range of cached bytes [Start, End).
type ByteRange = buffered.ByteRange

// TimeRange is a range of playback time.
type TimeRange = buffered.TimeRange

// MediaInfo is the stream description produced by ReadMetadata
type MediaInfo struct {
	// HasAudio is true when an audio stream prerolled
	HasAudio bool
	// HasVideo is true when a video stream prerolled
	HasVideo bool
	// Audio is valid when HasAudio is set
	Audio AudioInfo
	// Video is valid when HasVideo is set
	Video VideoInfo
	// Duration is the media duration, negative when unknown
	Duration time.Duration
}

// String returns a compact description for logs
func (m MediaInfo) String() string {
	s := fmt.Sprintf("duration=%v", m.Duration)
	if m.HasAudio {
		s += fmt.Sprintf(" audio=%dHz/%dch", m.Audio.Rate, m.Audio.Channels)
	}
	if m.HasVideo {
		s += fmt.Sprintf(" video=%dx%d display=%dx%d", m.Video.Width, m.Video.Height, m.Video.Display.X, m.Video.Display.Y)
	}
	return s
}

// Config contains configuration for a Reader
type Config struct {
	// SourceReadSize replaces the engine's "any length" input requests.
	// Zero selects 50 KiB.
	SourceReadSize int
	// MaxChannels is the highest audio channel count accepted (1-8)
	MaxChannels int
	// MaxVideoDimension bounds frame and display width/height
	MaxVideoDimension int
	// MaxVideoArea bounds width*height
	MaxVideoArea int64
	// ShortFileSize switches resources shorter than this to random access.
	// Zero disables the check.
	ShortFileSize int64
	// PaceWindow is how many delivery times are kept per stream for Stats
	PaceWindow int
	// Host receives duration refinements. Optional.
	Host Host
}

// DefaultConfig returns the configuration used by the test tool
func DefaultConfig() Config {
	limits := bridge.DefaultLimits()
	return Config{
		SourceReadSize:    feeder.DefaultReadSize,
		MaxChannels:       limits.MaxChannels,
		MaxVideoDimension: limits.MaxVideoDimension,
		MaxVideoArea:      limits.MaxVideoArea,
		PaceWindow:        64,
	}
}

func (c Config) limits() bridge.Limits {
	return bridge.Limits{
		MaxChannels:       c.MaxChannels,
		MaxVideoDimension: c.MaxVideoDimension,
		MaxVideoArea:      c.MaxVideoArea,
	}
}

// ReaderStats contains current reader statistics
type ReaderStats struct {
	// Session is the reader's log correlation id
	Session string
	// Uptime is the time since Init
	Uptime time.Duration
	// Duration is the current media duration, negative when unknown
	Duration time.Duration
	// Counters are the decode, input and error counters
	Counters stats.Snapshot
	// AudioPace measures the recent audio delivery rate
	AudioPace stats.Pace
	// VideoPace measures the recent video delivery rate
	VideoPace stats.Pace
	// AudioQueued is the number of audio units not yet taken by the host
	AudioQueued int
	// VideoQueued is the number of video frames not yet taken by the host
	VideoQueued int
	// InputErr is the read error that ended the input, if any
	InputErr error
	// Fatal is the condition that forced end of stream, if any
	Fatal error
}
