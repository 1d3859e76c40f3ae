// Package probe prerolls the pipeline under progressively reduced stream
// sets and reads the stream description once one succeeds.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/engine"
	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/formats"
	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/stats"
)

var (
	// ErrPreroll is one failed attempt. It is retried, never returned alone.
	ErrPreroll = errors.New("probe: preroll failed")
	// ErrMetadata means every attempt failed.
	ErrMetadata = errors.New("probe: no stream configuration prerolled")
	// ErrUnsupportedFormat means a demuxer or decoder outside the
	// allow-list was plugged.
	ErrUnsupportedFormat = errors.New("probe: unsupported format")
)

// Engine is the part of the engine the prober drives.
type Engine interface {
	PlayFlags() uint
	SetPlayFlags(flags uint) error
	SetFilterCaps(kind engine.StreamKind, caps string) error
	SetState(state engine.State) error
	PopMessage(ctx context.Context) (engine.Message, error)
	FlushMessages()
	WatchErrors(enabled bool)
	Elements() []engine.Element
	StreamCount(kind engine.StreamKind) int
	QueryDuration() (time.Duration, bool)
}

// Allowlist answers the post-preroll format checks.
type Allowlist interface {
	CanHandleContainerCaps(caps string) bool
	CanHandleCodecCaps(caps string) bool
}

// Attempts returns the stream-set configurations to try, in order: both
// streams, then without audio, then without video.
func Attempts(defaultFlags uint) []uint {
	return []uint{
		defaultFlags & (engine.PlayFlagAudio | engine.PlayFlagVideo),
		defaultFlags &^ engine.PlayFlagAudio,
		defaultFlags &^ engine.PlayFlagVideo,
	}
}

// Result is the stream description read after a successful preroll.
type Result struct {
	Flags    uint
	Attempt  int
	HasAudio bool
	HasVideo bool
	// Duration is negative when unknown.
	Duration time.Duration
}

// Config holds the prober collaborators.
type Config struct {
	Engine    Engine
	Allowlist Allowlist
	// ParserDuration returns an authoritative duration when the content was
	// confirmed by a format parser.
	ParserDuration func() (time.Duration, bool)
	Counters       *stats.Counters
	Logger         *slog.Logger
}

// Prober runs the metadata read.
type Prober struct {
	engine         Engine
	allow          Allowlist
	parserDuration func() (time.Duration, bool)
	counters       *stats.Counters
	log            *slog.Logger
}

// New creates a prober.
func New(cfg Config) *Prober {
	p := &Prober{
		engine:         cfg.Engine,
		allow:          cfg.Allowlist,
		parserDuration: cfg.ParserDuration,
		counters:       cfg.Counters,
		log:            cfg.Logger,
	}
	if p.counters == nil {
		p.counters = &stats.Counters{}
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	return p
}

// Probe prerolls, checks formats, reads stream counts and duration, enables
// the fatal error watch and starts playback.
func (p *Prober) Probe(ctx context.Context) (Result, error) {
	flags, attempt, err := p.Preroll(ctx)
	if err != nil {
		return Result{}, err
	}

	if err := p.CheckSupportedFormats(); err != nil {
		return Result{}, err
	}

	res := Result{
		Flags:    flags,
		Attempt:  attempt,
		HasAudio: p.engine.StreamCount(engine.StreamAudio) > 0,
		HasVideo: p.engine.StreamCount(engine.StreamVideo) > 0,
		Duration: -1,
	}

	if d, ok := p.duration(); ok {
		res.Duration = d
	}

	p.engine.WatchErrors(true)
	if err := p.engine.SetState(engine.StatePlaying); err != nil {
		return Result{}, fmt.Errorf("probe: start playback: %w", err)
	}

	p.log.Info("probe: metadata read",
		"attempt", attempt+1,
		"flags", fmt.Sprintf("%#x", flags),
		"has_audio", res.HasAudio,
		"has_video", res.HasVideo,
		"duration", res.Duration,
	)
	return res, nil
}

func (p *Prober) duration() (time.Duration, bool) {
	if p.parserDuration != nil {
		if d, ok := p.parserDuration(); ok {
			p.log.Debug("probe: using parser duration", "duration", d)
			return d, true
		}
	}
	return p.engine.QueryDuration()
}

// Preroll tries each stream-set configuration until one prerolls. It returns
// the flags used and the attempt index.
func (p *Prober) Preroll(ctx context.Context) (uint, int, error) {
	attempts := Attempts(p.engine.PlayFlags())

	var lastErr error
	for i, flags := range attempts {
		p.counters.ProbeAttempts.Add(1)

		err := p.try(ctx, flags)
		if err == nil {
			return flags, i, nil
		}
		if ctx.Err() != nil || errors.Is(err, engine.ErrClosed) {
			return 0, i, fmt.Errorf("%w: %v", ErrMetadata, err)
		}

		lastErr = err
		p.log.Debug("probe: attempt failed",
			"attempt", i+1,
			"flags", fmt.Sprintf("%#x", flags),
			"error", err,
		)
	}

	return 0, len(attempts), fmt.Errorf("%w after %d attempts: %v", ErrMetadata, len(attempts), lastErr)
}

// try runs one preroll attempt and leaves the pipeline in NULL on failure.
func (p *Prober) try(ctx context.Context, flags uint) error {
	if err := p.engine.SetPlayFlags(flags); err != nil {
		return fmt.Errorf("%w: set flags: %v", ErrPreroll, err)
	}

	// A skipped stream is rejected outright so the engine cannot find a
	// decoder for it.
	p.engine.SetFilterCaps(engine.StreamAudio, engine.FilterAny)
	p.engine.SetFilterCaps(engine.StreamVideo, engine.FilterAny)
	if flags&engine.PlayFlagAudio == 0 {
		p.engine.SetFilterCaps(engine.StreamAudio, engine.FilterSkip)
	} else if flags&engine.PlayFlagVideo == 0 {
		p.engine.SetFilterCaps(engine.StreamVideo, engine.FilterSkip)
	}

	p.engine.FlushMessages()
	if err := p.engine.SetState(engine.StatePaused); err != nil {
		p.engine.SetState(engine.StateNull)
		return fmt.Errorf("%w: %v", ErrPreroll, err)
	}

	msg, err := p.engine.PopMessage(ctx)
	if err != nil {
		return err
	}
	if msg.Type == engine.MessageAsyncDone {
		return nil
	}

	p.engine.SetState(engine.StateNull)
	if msg.Err != nil {
		return fmt.Errorf("%w: %v", ErrPreroll, msg.Err)
	}
	return fmt.Errorf("%w: unexpected %s", ErrPreroll, msg.Type)
}

// CheckSupportedFormats walks the built pipeline and rejects demuxers and
// decoders whose input is outside the allow-list.
func (p *Prober) CheckSupportedFormats() error {
	for _, el := range p.engine.Elements() {
		var ok bool
		switch {
		case formats.IsContainerKlass(el.Klass):
			ok = p.allow.CanHandleContainerCaps(el.SinkCaps)
		case formats.IsCodecKlass(el.Klass):
			ok = p.allow.CanHandleCodecCaps(el.SinkCaps)
		default:
			continue
		}
		if !ok {
			p.log.Warn("probe: unsupported element",
				"element", el.Name,
				"factory", el.Factory,
				"klass", el.Klass,
				"caps", el.SinkCaps,
			)
			return fmt.Errorf("%w: %s (%s) with caps %q", ErrUnsupportedFormat, el.Name, el.Factory, el.SinkCaps)
		}
	}
	return nil
}
