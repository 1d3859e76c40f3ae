// Package stats holds the reader's telemetry: lock-free counters updated
// from engine threads and the consumer, and pace statistics over unit
// delivery times.
package stats

import (
	"sync/atomic"

	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/engine"
)

// Counters are updated atomically from any goroutine.
type Counters struct {
	// Decode bridge
	AudioDecoded atomic.Uint64
	AudioDropped atomic.Uint64
	VideoParsed  atomic.Uint64 // units announced by the engine
	VideoDecoded atomic.Uint64
	VideoDropped atomic.Uint64 // below threshold or not a keyframe
	Waits        atomic.Uint64
	Yields       atomic.Uint64

	// Source feeder
	BytesRead         atomic.Uint64
	ReadErrors        atomic.Uint64
	ShortReads        atomic.Uint64
	OffsetMismatches  atomic.Uint64
	InputSeeks        atomic.Uint64
	InputSeekFailures atomic.Uint64

	// Controller
	ProbeAttempts atomic.Uint64
	Seeks         atomic.Uint64
	SeekFailures  atomic.Uint64

	// Error telemetry
	ErrorsResource atomic.Uint64
	ErrorsCodec    atomic.Uint64
	ErrorsFormat   atomic.Uint64
	ErrorsUnknown  atomic.Uint64
}

// CountError records one engine error of the given category.
func (c *Counters) CountError(category engine.ErrorCategory) {
	switch category {
	case engine.ErrCategoryResource:
		c.ErrorsResource.Add(1)
	case engine.ErrCategoryCodec:
		c.ErrorsCodec.Add(1)
	case engine.ErrCategoryFormat:
		c.ErrorsFormat.Add(1)
	default:
		c.ErrorsUnknown.Add(1)
	}
}

// Snapshot is a point-in-time copy of Counters.
type Snapshot struct {
	AudioDecoded uint64 `msgpack:"audio_decoded" json:"audio_decoded"`
	AudioDropped uint64 `msgpack:"audio_dropped" json:"audio_dropped"`
	VideoParsed  uint64 `msgpack:"video_parsed" json:"video_parsed"`
	VideoDecoded uint64 `msgpack:"video_decoded" json:"video_decoded"`
	VideoDropped uint64 `msgpack:"video_dropped" json:"video_dropped"`
	Waits        uint64 `msgpack:"waits" json:"waits"`
	Yields       uint64 `msgpack:"yields" json:"yields"`

	BytesRead         uint64 `msgpack:"bytes_read" json:"bytes_read"`
	ReadErrors        uint64 `msgpack:"read_errors" json:"read_errors"`
	ShortReads        uint64 `msgpack:"short_reads" json:"short_reads"`
	OffsetMismatches  uint64 `msgpack:"offset_mismatches" json:"offset_mismatches"`
	InputSeeks        uint64 `msgpack:"input_seeks" json:"input_seeks"`
	InputSeekFailures uint64 `msgpack:"input_seek_failures" json:"input_seek_failures"`

	ProbeAttempts uint64 `msgpack:"probe_attempts" json:"probe_attempts"`
	Seeks         uint64 `msgpack:"seeks" json:"seeks"`
	SeekFailures  uint64 `msgpack:"seek_failures" json:"seek_failures"`

	ErrorsResource uint64 `msgpack:"errors_resource" json:"errors_resource"`
	ErrorsCodec    uint64 `msgpack:"errors_codec" json:"errors_codec"`
	ErrorsFormat   uint64 `msgpack:"errors_format" json:"errors_format"`
	ErrorsUnknown  uint64 `msgpack:"errors_unknown" json:"errors_unknown"`
}

// Snapshot copies the current values.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		AudioDecoded: c.AudioDecoded.Load(),
		AudioDropped: c.AudioDropped.Load(),
		VideoParsed:  c.VideoParsed.Load(),
		VideoDecoded: c.VideoDecoded.Load(),
		VideoDropped: c.VideoDropped.Load(),
		Waits:        c.Waits.Load(),
		Yields:       c.Yields.Load(),

		BytesRead:         c.BytesRead.Load(),
		ReadErrors:        c.ReadErrors.Load(),
		ShortReads:        c.ShortReads.Load(),
		OffsetMismatches:  c.OffsetMismatches.Load(),
		InputSeeks:        c.InputSeeks.Load(),
		InputSeekFailures: c.InputSeekFailures.Load(),

		ProbeAttempts: c.ProbeAttempts.Load(),
		Seeks:         c.Seeks.Load(),
		SeekFailures:  c.SeekFailures.Load(),

		ErrorsResource: c.ErrorsResource.Load(),
		ErrorsCodec:    c.ErrorsCodec.Load(),
		ErrorsFormat:   c.ErrorsFormat.Load(),
		ErrorsUnknown:  c.ErrorsUnknown.Load(),
	}
}

// TotalErrors sums the error categories.
func (s Snapshot) TotalErrors() uint64 {
	return s.ErrorsResource + s.ErrorsCodec + s.ErrorsFormat + s.ErrorsUnknown
}
