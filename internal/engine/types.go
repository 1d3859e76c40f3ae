package engine

import (
	"context"
	"time"
)

// StreamKind identifies one of the two output branches. Values are bit flags
// so that StreamAny can address both.
type StreamKind int

const (
	StreamAudio StreamKind = 1 << iota
	StreamVideo

	StreamAny = StreamAudio | StreamVideo
)

// Other returns the sibling stream of a single stream kind.
func (k StreamKind) Other() StreamKind {
	switch k {
	case StreamAudio:
		return StreamVideo
	case StreamVideo:
		return StreamAudio
	default:
		return StreamAny
	}
}

// String returns a human-readable name for the stream kind
func (k StreamKind) String() string {
	switch k {
	case StreamAudio:
		return "audio"
	case StreamVideo:
		return "video"
	case StreamAny:
		return "any"
	default:
		return "unknown"
	}
}

// Play flags of the engine's playbin (GstPlayFlags). Only the stream
// selection bits are interpreted here; the others are carried through.
const (
	PlayFlagVideo uint = 1 << 0
	PlayFlagAudio uint = 1 << 1
	PlayFlagText  uint = 1 << 2
)

// FilterAny lets every caps through a sink branch filter; FilterSkip matches
// nothing, so the engine fails to find a decoder for that branch.
const (
	FilterAny  = "ANY"
	FilterSkip = "skip"
)

// State is a pipeline state.
type State int

const (
	StateNull State = iota
	StatePaused
	StatePlaying
)

// String returns a human-readable name for the state
func (s State) String() string {
	switch s {
	case StateNull:
		return "null"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// MessageType enumerates the bus messages the reader waits on.
type MessageType int

const (
	MessageAsyncDone MessageType = iota
	MessageError
	MessageEOS
)

// String returns a human-readable name for the message type
func (t MessageType) String() string {
	switch t {
	case MessageAsyncDone:
		return "async-done"
	case MessageError:
		return "error"
	case MessageEOS:
		return "eos"
	default:
		return "unknown"
	}
}

// Message is a bus message relevant to probing, seeking and error watching.
type Message struct {
	Type     MessageType
	Err      error         // set for MessageError
	Category ErrorCategory // set for MessageError
	Source   string
}

// InputStreamType selects how the demuxer pulls from the input source.
type InputStreamType int

const (
	// InputSeekable runs the demuxer in push mode, seeking only on demand.
	InputSeekable InputStreamType = iota
	// InputRandomAccess lets the demuxer pull any range (local or short files).
	InputRandomAccess
)

// Sample is one decoded unit pulled from an output branch. Data is owned by
// the receiver.
type Sample struct {
	PTS      time.Duration // engine-local running time, negative if unknown
	Duration time.Duration // negative if unknown
	Offset   int64         // byte offset reported by the engine, -1 if unknown
	Keyframe bool
	Data     []byte
	// Segment is the segment the unit was queued under, nil if the engine
	// does not attach one.
	Segment *Segment
}

// Element describes one element of the built pipeline for format checks.
type Element struct {
	Name     string
	Factory  string
	Klass    string
	SinkCaps string // current caps on the "sink" pad, empty if unnegotiated
}

// Callbacks are invoked from engine threads. Any of them may be nil.
type Callbacks struct {
	// SourceSetup fires once the input source exists and can be configured.
	SourceSetup func()
	// NeedData asks for length bytes at the current input position.
	NeedData func(length uint)
	// EnoughData signals the input queue is full.
	EnoughData func()
	// SeekData asks the input to move to offset. It reports success.
	SeekData func(offset uint64) bool

	// Preroll delivers the caps of the first unit of a branch.
	Preroll func(kind StreamKind, caps string)
	// NewSample signals one more unit queued on a branch.
	NewSample func(kind StreamKind)
	// EOS signals the end of a branch; StreamAny means both.
	EOS func(kind StreamKind)
	// Segment delivers a new segment observed on a branch sink pad.
	Segment func(kind StreamKind, seg Segment)
	// FlushStop signals the end of a flush on a branch sink pad.
	FlushStop func(kind StreamKind)

	// Error is called for error messages once error watching is enabled.
	Error func(msg Message)
	// Autoplug vetoes demuxer/decoder factories during pipeline build.
	Autoplug func(factory, klass, caps string) bool
}

// Engine is the capability surface the reader needs from a decoding engine.
// The GStreamer implementation is GStreamer; tests provide fakes.
type Engine interface {
	// SetCallbacks installs the callbacks. Must be called before any state change.
	SetCallbacks(cb Callbacks)

	// PlayFlags returns the engine's current stream selection flags.
	PlayFlags() uint
	// SetPlayFlags replaces the stream selection flags.
	SetPlayFlags(flags uint) error
	// SetFilterCaps sets the caps filter in front of a branch sink.
	SetFilterCaps(kind StreamKind, caps string) error

	// SetState requests a state change. An error means the change failed
	// synchronously.
	SetState(state State) error
	// PopMessage blocks for the next async-done, error or EOS message.
	PopMessage(ctx context.Context) (Message, error)
	// FlushMessages drops queued messages.
	FlushMessages()
	// WatchErrors also hands later error messages to Callbacks.Error. They
	// stay visible to PopMessage.
	WatchErrors(enabled bool)

	// Elements lists every element of the built pipeline, recursively.
	Elements() []Element
	// StreamCount returns how many streams of a kind the engine selected.
	StreamCount(kind StreamKind) int
	// QueryDuration returns the stream duration if known.
	QueryDuration() (time.Duration, bool)
	// ConvertBytesToTime converts an input byte offset to stream time.
	ConvertBytesToTime(bytes int64) (time.Duration, bool)
	// Seek issues a flushing key-unit seek. It reports whether the engine
	// accepted the request.
	Seek(target time.Duration) bool

	// PullSample takes one queued unit from a branch.
	PullSample(kind StreamKind) (*Sample, bool)

	// PushInput hands bytes to the input source.
	PushInput(data []byte) error
	// EndInput signals end of input.
	EndInput()
	// InputSize returns the size announced on the input, -1 if unknown.
	InputSize() int64
	// SetInputSize announces the input size (-1 for unknown).
	SetInputSize(size int64)
	// SetInputStreamType selects push or random-access mode.
	SetInputStreamType(t InputStreamType)
	// SetInputCaps announces the input caps to skip typefinding.
	SetInputCaps(caps string)

	// Close releases the pipeline. Safe to call more than once.
	Close() error
}
