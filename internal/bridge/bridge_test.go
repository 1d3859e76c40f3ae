package bridge

import (
	"context"
	"encoding/binary"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/engine"
	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// fakeBranches queues samples per stream and records every pull.
type fakeBranches struct {
	mu     sync.Mutex
	queues map[engine.StreamKind][]*engine.Sample
	pulls  int
}

func newFakeBranches() *fakeBranches {
	return &fakeBranches{queues: make(map[engine.StreamKind][]*engine.Sample)}
}

func (f *fakeBranches) push(kind engine.StreamKind, s *engine.Sample) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queues[kind] = append(f.queues[kind], s)
}

func (f *fakeBranches) PullSample(kind engine.StreamKind) (*engine.Sample, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pulls++
	q := f.queues[kind]
	if len(q) == 0 {
		return nil, false
	}
	f.queues[kind] = q[1:]
	return q[0], true
}

type fakeSink struct {
	mu    sync.Mutex
	audio []AudioUnit
	video []VideoUnit
}

func (s *fakeSink) PushAudio(u AudioUnit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio = append(s.audio, u)
}

func (s *fakeSink) PushVideo(u VideoUnit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.video = append(s.video, u)
}

type harness struct {
	b        *Bridge
	branches *fakeBranches
	sink     *fakeSink
	counters *stats.Counters
}

func newHarness() *harness {
	h := &harness{
		branches: newFakeBranches(),
		sink:     &fakeSink{},
		counters: &stats.Counters{},
	}
	h.b = New(Config{
		Engine:   h.branches,
		Sink:     h.sink,
		Position: func() int64 { return 1234 },
		Counters: h.counters,
		Limits:   DefaultLimits(),
	})
	h.b.AudioPreroll("audio/x-raw, format=(string)S16LE, rate=(int)44100, channels=(int)2")
	h.b.VideoPreroll("video/x-raw, format=(string)I420, width=(int)4, height=(int)2, pixel-aspect-ratio=(fraction)1/1, framerate=(fraction)25/1")
	return h
}

func pcm(frames, channels int) []byte {
	data := make([]byte, frames*channels*2)
	for i := 0; i < frames*channels; i++ {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(i))
	}
	return data
}

func frame() []byte {
	_, _, ySize, cSize := i420Layout(4, 2)
	return make([]byte, ySize+2*cSize)
}

func (h *harness) queueAudio(pts time.Duration) {
	h.branches.push(engine.StreamAudio, &engine.Sample{PTS: pts, Duration: -1, Offset: 100, Data: pcm(441, 2)})
	h.b.NewSample(engine.StreamAudio)
}

func (h *harness) queueVideo(pts time.Duration, keyframe bool) {
	h.branches.push(engine.StreamVideo, &engine.Sample{PTS: pts, Duration: -1, Keyframe: keyframe, Data: frame()})
	h.b.NewSample(engine.StreamVideo)
}

func TestDecodeAudio_Delivers(t *testing.T) {
	h := newHarness()
	h.queueAudio(2 * time.Second)

	assert.Equal(t, ResultDecoded, h.b.DecodeAudio())

	require.Len(t, h.sink.audio, 1)
	u := h.sink.audio[0]
	assert.Equal(t, int64(100), u.Offset)
	assert.Equal(t, 2*time.Second, u.Time)
	assert.Equal(t, 10*time.Millisecond, u.Duration) // 441 frames at 44.1kHz
	assert.Equal(t, 441, u.Frames)
	assert.Equal(t, 2, u.Channels)
	assert.Len(t, u.Samples, 882)
	assert.Equal(t, int16(1), u.Samples[1])
	assert.Equal(t, 0, h.b.Pending(engine.StreamAudio))
}

func TestDecode_EOSIsTerminal(t *testing.T) {
	h := newHarness()
	h.queueAudio(0)
	h.b.EOS(engine.StreamAudio)

	// Pending units drain before EOS is reported.
	assert.Equal(t, ResultDecoded, h.b.DecodeAudio())
	for i := 0; i < 3; i++ {
		assert.Equal(t, ResultEOS, h.b.DecodeAudio())
	}
	assert.False(t, ResultEOS.HasMore())
	assert.True(t, h.b.Ended(engine.StreamAudio))
	assert.False(t, h.b.Ended(engine.StreamVideo))
}

func TestDecode_UnqualifiedEOSEndsBoth(t *testing.T) {
	h := newHarness()
	h.b.EOS(engine.StreamAny)

	assert.Equal(t, ResultEOS, h.b.DecodeAudio())
	assert.Equal(t, ResultEOS, h.b.DecodeVideo(false, 0))
}

func TestDecode_YieldsWithoutWaitWhenSiblingHasUnits(t *testing.T) {
	h := newHarness()
	h.queueVideo(0, true)

	assert.Equal(t, ResultYield, h.b.DecodeAudio())
	assert.True(t, ResultYield.HasMore())
	assert.Equal(t, uint64(0), h.counters.Waits.Load())
	assert.Equal(t, 1, h.b.Pending(engine.StreamVideo))
	assert.Equal(t, 0, h.branches.pulls)
}

func TestDecode_WaitsOnceThenYields(t *testing.T) {
	h := newHarness()

	done := make(chan Result, 1)
	go func() { done <- h.b.DecodeAudio() }()

	require.Eventually(t, func() bool { return h.counters.Waits.Load() == 1 },
		time.Second, time.Millisecond)

	// Wake with data only on the sibling: the pull must not wait again.
	h.queueVideo(0, true)

	select {
	case res := <-done:
		assert.Equal(t, ResultYield, res)
	case <-time.After(time.Second):
		t.Fatal("pull blocked after wake-up")
	}
	assert.Equal(t, uint64(1), h.counters.Waits.Load())
	assert.Equal(t, 1, h.b.Pending(engine.StreamVideo))
}

func TestDecode_WaitWokenByOwnUnit(t *testing.T) {
	h := newHarness()

	done := make(chan Result, 1)
	go func() { done <- h.b.DecodeAudio() }()

	require.Eventually(t, func() bool { return h.counters.Waits.Load() == 1 },
		time.Second, time.Millisecond)
	h.queueAudio(0)

	select {
	case res := <-done:
		assert.Equal(t, ResultDecoded, res)
	case <-time.After(time.Second):
		t.Fatal("pull not woken")
	}
}

func TestDecode_ResetUnblocksWaiter(t *testing.T) {
	h := newHarness()

	done := make(chan Result, 1)
	go func() { done <- h.b.DecodeVideo(false, 0) }()

	require.Eventually(t, func() bool { return h.counters.Waits.Load() == 1 },
		time.Second, time.Millisecond)
	h.b.Reset()

	select {
	case res := <-done:
		assert.Equal(t, ResultYield, res)
	case <-time.After(time.Second):
		t.Fatal("reset did not wake the waiter")
	}
}

func TestDecodeVideo_ThresholdAndKeyframeSkip(t *testing.T) {
	h := newHarness()

	h.queueVideo(1*time.Second, true)
	h.queueVideo(2*time.Second, false)
	h.queueVideo(3*time.Second, true)
	h.queueVideo(4*time.Second, false)

	assert.Equal(t, ResultSkipped, h.b.DecodeVideo(false, 1500*time.Millisecond))
	assert.Equal(t, ResultSkipped, h.b.DecodeVideo(true, 0))
	assert.Equal(t, ResultDecoded, h.b.DecodeVideo(true, 0))
	assert.Equal(t, ResultDecoded, h.b.DecodeVideo(false, 0))

	require.Len(t, h.sink.video, 2)
	v := h.sink.video[0]
	assert.Equal(t, 3*time.Second, v.Time)
	assert.True(t, v.Keyframe)
	assert.Equal(t, 40*time.Millisecond, v.Duration) // one frame at 25fps
	assert.Equal(t, int64(1234), v.Offset)
	assert.Equal(t, image.Pt(4, 2), v.Display)
	assert.Equal(t, image.Rect(0, 0, 4, 2), v.Image.Rect)
	assert.False(t, h.sink.video[1].Keyframe)

	assert.Equal(t, uint64(4), h.counters.VideoParsed.Load())
	assert.Equal(t, uint64(2), h.counters.VideoDecoded.Load())
	assert.Equal(t, uint64(2), h.counters.VideoDropped.Load())
}

func TestDecode_SegmentMapping(t *testing.T) {
	h := newHarness()
	h.b.Segment(engine.StreamAudio, engine.Segment{
		Rate: 1, AppliedRate: 1, Start: 10 * time.Second, Stop: -1, Time: 30 * time.Second,
	})
	h.queueAudio(11 * time.Second)

	assert.Equal(t, ResultDecoded, h.b.DecodeAudio())
	require.Len(t, h.sink.audio, 1)
	assert.Equal(t, 31*time.Second, h.sink.audio[0].Time)
}

func TestDecode_SampleSegmentWinsOverLatest(t *testing.T) {
	h := newHarness()
	queuedUnder := engine.Segment{Rate: 1, AppliedRate: 1, Start: 10 * time.Second, Stop: -1, Time: 30 * time.Second}
	h.b.Segment(engine.StreamAudio, queuedUnder)
	h.branches.push(engine.StreamAudio, &engine.Sample{PTS: 11 * time.Second, Duration: -1, Data: pcm(441, 2), Segment: &queuedUnder})
	h.b.NewSample(engine.StreamAudio)

	// A new segment arrives before the unit is pulled.
	h.b.Segment(engine.StreamAudio, engine.Segment{Rate: 1, AppliedRate: 1, Start: 0, Stop: -1, Time: 0})

	assert.Equal(t, ResultDecoded, h.b.DecodeAudio())
	require.Len(t, h.sink.audio, 1)
	assert.Equal(t, 31*time.Second, h.sink.audio[0].Time)
}

func TestDecode_UnmappedTimestampContinues(t *testing.T) {
	h := newHarness()
	h.queueAudio(time.Second)
	h.queueAudio(-1)

	h.b.DecodeAudio()
	h.b.DecodeAudio()

	require.Len(t, h.sink.audio, 2)
	assert.Equal(t, time.Second+10*time.Millisecond, h.sink.audio[1].Time)
}

func TestDecode_SeekFloor(t *testing.T) {
	h := newHarness()
	h.b.Reset()
	h.b.SetSeekFloor(5 * time.Second)

	// Key-unit seeks land on the keyframe before the target.
	h.queueVideo(4*time.Second, true)
	h.queueVideo(5*time.Second, false)
	h.queueAudio(4900 * time.Millisecond)
	h.queueAudio(5 * time.Second)

	assert.Equal(t, ResultSkipped, h.b.DecodeVideo(false, 0))
	assert.Equal(t, ResultDecoded, h.b.DecodeVideo(false, 0))
	assert.Equal(t, ResultSkipped, h.b.DecodeAudio())
	assert.Equal(t, ResultDecoded, h.b.DecodeAudio())

	for _, v := range h.sink.video {
		assert.GreaterOrEqual(t, v.Time, 5*time.Second)
	}
	for _, a := range h.sink.audio {
		assert.GreaterOrEqual(t, a.Time, 5*time.Second)
	}

	// The floor lifts once a unit at or above it is delivered.
	h.queueVideo(4*time.Second, true)
	assert.Equal(t, ResultDecoded, h.b.DecodeVideo(false, 0))
}

func TestDecode_KeyframeSkipBypassesSeekFloor(t *testing.T) {
	h := newHarness()
	h.b.SetSeekFloor(5 * time.Second)
	h.queueVideo(4*time.Second, true)

	assert.Equal(t, ResultDecoded, h.b.DecodeVideo(true, 0))
}

func TestDecode_MissingSampleDoesNotUnderflow(t *testing.T) {
	h := newHarness()
	h.b.NewSample(engine.StreamAudio) // announced, never queued

	assert.Equal(t, ResultSkipped, h.b.DecodeAudio())
	assert.Equal(t, 0, h.b.Pending(engine.StreamAudio))
}

func TestFlushStop_ResetsOnlyFlushedStream(t *testing.T) {
	h := newHarness()
	h.queueAudio(0)
	h.queueVideo(0, true)
	h.b.EOS(engine.StreamAudio)

	h.b.FlushStop(engine.StreamAudio)

	assert.Equal(t, 0, h.b.Pending(engine.StreamAudio))
	assert.False(t, h.b.Ended(engine.StreamAudio))
	assert.Equal(t, 1, h.b.Pending(engine.StreamVideo))
}

func TestVideoPreroll_InvalidRegionForcesEOS(t *testing.T) {
	tests := []struct {
		name string
		caps string
	}{
		{"too wide", "video/x-raw, width=(int)4001, height=(int)100"},
		{"zero height", "video/x-raw, width=(int)640, height=(int)0"},
		{"aspect overflow", "video/x-raw, width=(int)3000, height=(int)100, pixel-aspect-ratio=(fraction)2/1"},
		{"unparseable", "video/x-raw, width=(int)640, height"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(Config{Engine: newFakeBranches(), Sink: &fakeSink{}, Limits: DefaultLimits()})
			b.VideoPreroll(tt.caps)

			assert.True(t, errors.Is(b.Err(), ErrInvalidVideoRegion))
			assert.Equal(t, ResultEOS, b.DecodeVideo(false, 0))
			assert.Equal(t, ResultEOS, b.DecodeAudio())
		})
	}
}

func TestAudioPreroll_TooManyChannels(t *testing.T) {
	b := New(Config{Engine: newFakeBranches(), Sink: &fakeSink{}, Limits: DefaultLimits()})
	b.AudioPreroll("audio/x-raw, rate=(int)48000, channels=(int)6")

	assert.ErrorIs(t, b.Err(), ErrUnplayableAudio)
	assert.Equal(t, ResultEOS, b.DecodeAudio())
}

func TestVideoPreroll_AspectRatio(t *testing.T) {
	b := New(Config{Engine: newFakeBranches(), Sink: &fakeSink{}, Limits: DefaultLimits()})
	b.VideoPreroll("video/x-raw, width=(int)720, height=(int)576, pixel-aspect-ratio=(fraction)16/15, framerate=(fraction)30000/1001")

	info := b.VideoInfo()
	require.NoError(t, b.Err())
	assert.Equal(t, image.Pt(768, 576), info.Display)
	assert.Equal(t, 30000, info.FPSNum)
	assert.Equal(t, 1001, info.FPSDen)
}

// Producer threads deliver units while the single consumer pulls; every unit
// is delivered once, in order, and the consumer terminates on EOS.
func TestDecode_ProducerConsumer(t *testing.T) {
	const units = 200
	h := newHarness()

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		for i := 0; i < units; i++ {
			h.queueAudio(time.Duration(i) * 10 * time.Millisecond)
			if i%3 == 0 {
				h.queueVideo(time.Duration(i)*10*time.Millisecond, true)
			}
		}
		h.b.EOS(engine.StreamAny)
		return nil
	})
	g.Go(func() error {
		audioDone, videoDone := false, false
		for !audioDone || !videoDone {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !audioDone {
				audioDone = h.b.DecodeAudio() == ResultEOS
			}
			if !videoDone {
				videoDone = h.b.DecodeVideo(false, 0) == ResultEOS
			}
		}
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not reach end of stream")
	}

	require.Len(t, h.sink.audio, units)
	for i := 1; i < len(h.sink.audio); i++ {
		assert.GreaterOrEqual(t, h.sink.audio[i].Time, h.sink.audio[i-1].Time)
	}
	assert.Len(t, h.sink.video, (units+2)/3)
	assert.Equal(t, 0, h.b.Pending(engine.StreamAudio))
	assert.Equal(t, 0, h.b.Pending(engine.StreamVideo))
}

func TestConvertI420_Layout(t *testing.T) {
	// Odd width exercises the chroma stride rounding.
	yStride, cStride, ySize, cSize := i420Layout(5, 3)
	assert.Equal(t, 8, yStride)
	assert.Equal(t, 4, cStride)
	assert.Equal(t, 32, ySize)
	assert.Equal(t, 8, cSize)

	img, err := ConvertI420(make([]byte, 48), 5, 3)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 5, 3), img.Bounds())

	_, err = ConvertI420(make([]byte, 47), 5, 3)
	assert.Error(t, err)
	_, err = ConvertI420(nil, 0, 3)
	assert.Error(t, err)
}

func TestConvertS16LE(t *testing.T) {
	samples, frames := ConvertS16LE([]byte{0x01, 0x00, 0xff, 0xff, 0x00, 0x80, 0x07}, 1)
	assert.Equal(t, 3, frames)
	assert.Equal(t, []int16{1, -1, -32768}, samples)

	samples, frames = ConvertS16LE([]byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00}, 2)
	assert.Equal(t, 1, frames)
	assert.Equal(t, []int16{1, 2}, samples)

	samples, frames = ConvertS16LE([]byte{0x01, 0x00}, 0)
	assert.Nil(t, samples)
	assert.Equal(t, 0, frames)
}

func TestScaleDisplayByAspectRatio(t *testing.T) {
	tests := []struct {
		par  float64
		want image.Point
	}{
		{1, image.Pt(640, 480)},
		{4.0 / 3.0, image.Pt(853, 480)},
		{0.5, image.Pt(640, 960)},
		{0, image.Pt(640, 480)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ScaleDisplayByAspectRatio(image.Pt(640, 480), tt.par))
	}
}

func TestIsValidVideoRegion(t *testing.T) {
	l := DefaultLimits()
	full := func(w, h int) (image.Point, image.Rectangle, image.Point) {
		return image.Pt(w, h), image.Rect(0, 0, w, h), image.Pt(w, h)
	}

	assert.True(t, l.IsValidVideoRegion(full(1920, 1080)))
	assert.True(t, l.IsValidVideoRegion(full(4000, 4000)))
	assert.False(t, l.IsValidVideoRegion(full(4001, 10)))
	assert.False(t, l.IsValidVideoRegion(full(0, 10)))
	assert.False(t, l.IsValidVideoRegion(image.Pt(100, 100), image.Rect(50, 50, 150, 150), image.Pt(100, 100)))

	small := Limits{MaxChannels: 2, MaxVideoDimension: 4000, MaxVideoArea: 1000}
	assert.False(t, small.IsValidVideoRegion(full(100, 100)))
}
