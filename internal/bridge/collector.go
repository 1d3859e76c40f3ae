package bridge

import (
	"errors"
	"fmt"
	"image"

	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/engine"
	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/formats"
)

var (
	// ErrInvalidVideoRegion is recorded when prerolled video dimensions are
	// empty or exceed the limits.
	ErrInvalidVideoRegion = errors.New("bridge: invalid video region")
	// ErrUnplayableAudio is recorded when prerolled audio has no usable
	// rate or channel layout.
	ErrUnplayableAudio = errors.New("bridge: unplayable audio")
)

// The collector callbacks run on engine streaming threads.

// AudioPreroll records rate and channels from the first audio unit's caps.
func (b *Bridge) AudioPreroll(caps string) {
	s, err := firstStructure(caps)
	if err != nil {
		b.Fail(fmt.Errorf("%w: %v", ErrUnplayableAudio, err))
		return
	}
	rate, _ := s.Int("rate")
	channels, _ := s.Int("channels")
	if rate <= 0 || channels < 1 || channels > b.limits.MaxChannels {
		b.Fail(fmt.Errorf("%w: rate=%d channels=%d", ErrUnplayableAudio, rate, channels))
		return
	}

	b.mu.Lock()
	b.audioOK = AudioInfo{Rate: rate, Channels: channels}
	b.mu.Unlock()

	b.log.Debug("bridge: audio prerolled", "rate", rate, "channels", channels)
}

// VideoPreroll records dimensions, display size and framerate from the first
// video unit's caps. An invalid region forces EOS on both streams.
func (b *Bridge) VideoPreroll(caps string) {
	s, err := firstStructure(caps)
	if err != nil {
		b.Fail(fmt.Errorf("%w: %v", ErrInvalidVideoRegion, err))
		return
	}
	width, _ := s.Int("width")
	height, _ := s.Int("height")
	parN, parD, ok := s.Fraction("pixel-aspect-ratio")
	if !ok || parN <= 0 || parD <= 0 {
		parN, parD = 1, 1
	}
	fpsN, fpsD, _ := s.Fraction("framerate")

	frame := image.Pt(width, height)
	picture := image.Rect(0, 0, width, height)
	display := ScaleDisplayByAspectRatio(frame, float64(parN)/float64(parD))

	if !b.limits.IsValidVideoRegion(frame, picture, display) {
		b.Fail(fmt.Errorf("%w: frame=%dx%d display=%dx%d",
			ErrInvalidVideoRegion, width, height, display.X, display.Y))
		return
	}

	b.mu.Lock()
	b.videoOK = VideoInfo{
		Width:   width,
		Height:  height,
		Display: display,
		FPSNum:  fpsN,
		FPSDen:  fpsD,
	}
	b.mu.Unlock()

	b.log.Debug("bridge: video prerolled",
		"width", width,
		"height", height,
		"display", fmt.Sprintf("%dx%d", display.X, display.Y),
		"framerate", fmt.Sprintf("%d/%d", fpsN, fpsD),
	)
}

func firstStructure(caps string) (formats.Structure, error) {
	parsed, err := formats.ParseCaps(caps)
	if err != nil {
		return formats.Structure{}, err
	}
	if len(parsed) == 0 {
		return formats.Structure{}, fmt.Errorf("no caps structure in %q", caps)
	}
	return parsed[0], nil
}

// NewSample announces one more queued unit.
func (b *Bridge) NewSample(kind engine.StreamKind) {
	b.mu.Lock()
	b.state(kind).pending++
	b.mu.Unlock()
	b.cond.Broadcast()
}

// EOS marks a stream ended; StreamAny ends both.
func (b *Bridge) EOS(kind engine.StreamKind) {
	b.mu.Lock()
	if kind&engine.StreamAudio != 0 {
		b.audio.eos = true
	}
	if kind&engine.StreamVideo != 0 {
		b.video.eos = true
	}
	b.mu.Unlock()
	b.cond.Broadcast()
}

// Fail records a fatal condition and ends both streams. The first error wins.
func (b *Bridge) Fail(err error) {
	b.mu.Lock()
	if b.fatal == nil {
		b.fatal = err
	}
	b.mu.Unlock()

	b.log.Error("bridge: forcing end of stream", "error", err)
	b.EOS(engine.StreamAny)
}

// Segment stores the segment that maps the following units of a stream.
func (b *Bridge) Segment(kind engine.StreamKind, seg engine.Segment) {
	b.mu.Lock()
	b.state(kind).segment = seg
	b.mu.Unlock()
}

// FlushStop resets the flushed stream. Units queued before the flush are gone.
func (b *Bridge) FlushStop(kind engine.StreamKind) {
	b.mu.Lock()
	b.state(kind).reset()
	b.mu.Unlock()
	b.cond.Broadcast()

	b.log.Debug("bridge: flush stop", "stream", kind)
}

// AudioInfo returns the prerolled audio properties.
func (b *Bridge) AudioInfo() AudioInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.audioOK
}

// VideoInfo returns the prerolled video properties.
func (b *Bridge) VideoInfo() VideoInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.videoOK
}
