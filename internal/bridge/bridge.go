// Package bridge turns the engine's callback-driven delivery into synchronous
// per-stream pulls.
//
// Both streams share one monitor: a pull on one stream must observe whether
// its sibling has units so it can return instead of blocking.
package bridge

import (
	"log/slog"
	"sync"
	"time"

	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/engine"
	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/stats"
)

// Puller takes one queued unit from an output branch.
type Puller interface {
	PullSample(kind engine.StreamKind) (*engine.Sample, bool)
}

// streamState is guarded by Bridge.mu.
type streamState struct {
	pending int
	eos     bool
	segment engine.Segment
	// next is the time assigned to a unit whose timestamp cannot be mapped
	next time.Duration
	// floor drops units below it until one at or above it is delivered
	floor    time.Duration
	hasFloor bool
}

// reset keeps the segment; the engine sends a new one after a flush.
func (s *streamState) reset() {
	s.pending = 0
	s.eos = false
	s.next = 0
}

// Config holds the bridge collaborators.
type Config struct {
	Engine Puller
	Sink   Sink
	// Position estimates the current input position for video units.
	Position func() int64
	Counters *stats.Counters
	Limits   Limits
	Logger   *slog.Logger
}

// Bridge is the Sink Collector and Decode Bridge pair.
type Bridge struct {
	mu      sync.Mutex
	cond    *sync.Cond
	audio   streamState
	video   streamState
	audioOK AudioInfo
	videoOK VideoInfo
	fatal   error

	engine   Puller
	sink     Sink
	position func() int64
	counters *stats.Counters
	limits   Limits
	log      *slog.Logger
}

// New creates a bridge with empty stream states.
func New(cfg Config) *Bridge {
	b := &Bridge{
		engine:   cfg.Engine,
		sink:     cfg.Sink,
		position: cfg.Position,
		counters: cfg.Counters,
		limits:   cfg.Limits,
		log:      cfg.Logger,
	}
	if b.counters == nil {
		b.counters = &stats.Counters{}
	}
	if b.log == nil {
		b.log = slog.Default()
	}
	if b.position == nil {
		b.position = func() int64 { return -1 }
	}
	b.cond = sync.NewCond(&b.mu)
	b.audio.segment = engine.DefaultSegment()
	b.video.segment = engine.DefaultSegment()
	return b
}

func (b *Bridge) state(kind engine.StreamKind) *streamState {
	if kind == engine.StreamVideo {
		return &b.video
	}
	return &b.audio
}

// DecodeAudio pulls at most one audio unit.
func (b *Bridge) DecodeAudio() Result {
	sample, seg, res := b.take(engine.StreamAudio)
	if sample == nil {
		return res
	}
	return b.deliverAudio(sample, seg)
}

// DecodeVideo pulls at most one video unit. Units mapped below threshold are
// dropped, as are delta units when keyframeSkip is set.
func (b *Bridge) DecodeVideo(keyframeSkip bool, threshold time.Duration) Result {
	sample, seg, res := b.take(engine.StreamVideo)
	if sample == nil {
		return res
	}
	return b.deliverVideo(sample, seg, keyframeSkip, threshold)
}

// take runs the per-stream state machine under the monitor. It returns a
// sample to process, or nil and the result to report.
func (b *Bridge) take(kind engine.StreamKind) (*engine.Sample, engine.Segment, Result) {
	b.mu.Lock()
	defer b.mu.Unlock()

	own, other := b.state(kind), b.state(kind.Other())

	if own.eos && own.pending == 0 {
		return nil, engine.Segment{}, ResultEOS
	}

	if own.pending == 0 {
		if other.pending != 0 {
			b.counters.Yields.Add(1)
			return nil, engine.Segment{}, ResultYield
		}
		// Nothing decoded on either stream: wait once, never loop.
		b.counters.Waits.Add(1)
		b.cond.Wait()
		if own.pending == 0 {
			b.counters.Yields.Add(1)
			return nil, engine.Segment{}, ResultYield
		}
	}

	if kind == engine.StreamVideo {
		b.counters.VideoParsed.Add(1)
	}
	sample, ok := b.engine.PullSample(kind)
	own.pending--
	if !ok || sample == nil {
		b.log.Warn("bridge: announced unit missing from branch", "stream", kind)
		b.countDropped(kind)
		return nil, engine.Segment{}, ResultSkipped
	}
	// The stream's latest segment may already belong to units queued after
	// this one.
	if sample.Segment != nil {
		return sample, *sample.Segment, ResultDecoded
	}
	return sample, own.segment, ResultDecoded
}

func (b *Bridge) countDropped(kind engine.StreamKind) {
	if kind == engine.StreamVideo {
		b.counters.VideoDropped.Add(1)
	} else {
		b.counters.AudioDropped.Add(1)
	}
}

// streamTime maps the sample timestamp through the segment it was queued
// under. Unmappable timestamps continue from the previous unit.
func (b *Bridge) streamTime(kind engine.StreamKind, seg engine.Segment, pts time.Duration) time.Duration {
	if t, ok := seg.ToStreamTime(pts); ok {
		return t
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state(kind).next
}

// admit applies the post-seek floor and the caller threshold, and advances
// the stream's running time for delivered units.
func (b *Bridge) admit(kind engine.StreamKind, t, duration, threshold time.Duration, useFloor bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.state(kind)
	if useFloor && s.hasFloor && t < s.floor {
		return false
	}
	if t < threshold {
		return false
	}
	s.hasFloor = false
	if duration > 0 {
		s.next = t + duration
	} else {
		s.next = t
	}
	return true
}

func (b *Bridge) deliverAudio(sample *engine.Sample, seg engine.Segment) Result {
	b.mu.Lock()
	info := b.audioOK
	b.mu.Unlock()

	samples, frames := ConvertS16LE(sample.Data, info.Channels)

	duration := sample.Duration
	if duration < 0 && info.Rate > 0 {
		duration = time.Duration(int64(frames) * int64(time.Second) / int64(info.Rate))
	}

	t := b.streamTime(engine.StreamAudio, seg, sample.PTS)
	if !b.admit(engine.StreamAudio, t, duration, -1, true) {
		b.counters.AudioDropped.Add(1)
		return ResultSkipped
	}

	b.sink.PushAudio(AudioUnit{
		Offset:   sample.Offset,
		Time:     t,
		Duration: duration,
		Frames:   frames,
		Channels: info.Channels,
		Rate:     info.Rate,
		Samples:  samples,
	})
	b.counters.AudioDecoded.Add(1)
	return ResultDecoded
}

func (b *Bridge) deliverVideo(sample *engine.Sample, seg engine.Segment, keyframeSkip bool, threshold time.Duration) Result {
	if keyframeSkip && !sample.Keyframe {
		b.counters.VideoDropped.Add(1)
		return ResultSkipped
	}

	b.mu.Lock()
	info := b.videoOK
	b.mu.Unlock()

	duration := sample.Duration
	if duration < 0 {
		duration = info.FrameDuration()
	}

	t := b.streamTime(engine.StreamVideo, seg, sample.PTS)
	if !b.admit(engine.StreamVideo, t, duration, threshold, !keyframeSkip) {
		b.log.Debug("bridge: skipping frame", "time", t, "threshold", threshold)
		b.counters.VideoDropped.Add(1)
		return ResultSkipped
	}

	img, err := ConvertI420(sample.Data, info.Width, info.Height)
	if err != nil {
		b.log.Warn("bridge: dropping malformed frame", "error", err)
		b.counters.VideoDropped.Add(1)
		return ResultSkipped
	}

	b.sink.PushVideo(VideoUnit{
		Offset:   b.position(),
		Time:     t,
		Duration: duration,
		Keyframe: sample.Keyframe,
		Display:  info.Display,
		Image:    img,
	})
	b.counters.VideoDecoded.Add(1)
	return ResultDecoded
}

// Reset clears pending counts and EOS flags of both streams and wakes any
// waiter.
func (b *Bridge) Reset() {
	b.mu.Lock()
	b.audio.reset()
	b.video.reset()
	b.mu.Unlock()
	b.cond.Broadcast()
}

// SetSeekFloor makes both streams drop units mapped below target until one
// at or above it is delivered.
func (b *Bridge) SetSeekFloor(target time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range []*streamState{&b.audio, &b.video} {
		s.floor = target
		s.hasFloor = true
	}
}

// ClearSeekFloor lifts the floor of both streams.
func (b *Bridge) ClearSeekFloor() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.audio.hasFloor = false
	b.video.hasFloor = false
}

// Pending returns the pending unit count of a stream.
func (b *Bridge) Pending(kind engine.StreamKind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state(kind).pending
}

// Ended reports whether a stream has reached EOS with nothing pending.
func (b *Bridge) Ended(kind engine.StreamKind) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.state(kind)
	return s.eos && s.pending == 0
}

// Err returns the fatal condition that forced EOS, if any.
func (b *Bridge) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fatal
}
