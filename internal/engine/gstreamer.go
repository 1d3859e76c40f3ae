package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tinyzimmer/go-glib/glib"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

const (
	// AudioSinkCaps is what the audio branch converts to.
	AudioSinkCaps = "audio/x-raw, channels={1,2}, format=S16LE"
	// VideoSinkCaps is what the video branch converts to.
	VideoSinkCaps = "video/x-raw, format=I420"

	busPollInterval = 50 * time.Millisecond
	messageBacklog  = 16

	// autoplug-select results (GstAutoplugSelectResult)
	autoplugTry  = 0
	autoplugSkip = 2
)

// branch is one output sink bin: capsfilter "filter" ! appsink.
type branch struct {
	kind   StreamKind
	bin    *gst.Bin
	filter *gst.Element
	sink   *app.Sink
}

// GStreamer is the Engine backed by a playbin reading from appsrc://.
type GStreamer struct {
	playbin *gst.Element
	audio   *branch
	video   *branch

	mu  sync.Mutex
	cb  Callbacks
	src *app.Source
	// playbin signal handlers, disconnected on Close
	handlers []glib.SignalHandle

	watchErrors atomic.Bool
	closed      atomic.Bool

	messages chan Message
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewGStreamer builds the playbin and both sink branches. The pipeline stays
// in the NULL state until SetState is called.
func NewGStreamer() (*GStreamer, error) {
	// Initialize GStreamer (safe to call multiple times)
	gst.Init(nil)

	playbin, err := gst.NewElement("playbin")
	if err != nil {
		return nil, fmt.Errorf("%w: playbin: %v", ErrBuild, err)
	}
	playbin.SetProperty("uri", "appsrc://")
	playbin.SetProperty("buffer-size", 0)

	audio, err := newBranch(StreamAudio, "audiosink", AudioSinkCaps)
	if err != nil {
		return nil, err
	}
	video, err := newBranch(StreamVideo, "videosink", VideoSinkCaps)
	if err != nil {
		return nil, err
	}

	if err := setElementProperty(playbin, "audio-sink", audio.bin.Element); err != nil {
		return nil, fmt.Errorf("%w: audio-sink: %v", ErrBuild, err)
	}
	if err := setElementProperty(playbin, "video-sink", video.bin.Element); err != nil {
		return nil, fmt.Errorf("%w: video-sink: %v", ErrBuild, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	g := &GStreamer{
		playbin:  playbin,
		audio:    audio,
		video:    video,
		messages: make(chan Message, messageBacklog),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	if err := g.connectSignals(); err != nil {
		cancel()
		return nil, err
	}
	g.installBranchCallbacks(audio)
	g.installBranchCallbacks(video)

	go g.pumpBus(ctx)

	slog.Debug("engine: playbin created",
		"audio_caps", AudioSinkCaps,
		"video_caps", VideoSinkCaps,
	)
	return g, nil
}

// newBranch creates a bin with a ghost "sink" pad:
//
//	capsfilter name=filter ! appsink caps=<sinkCaps> sync=false max-buffers=1
func newBranch(kind StreamKind, name, sinkCaps string) (*branch, error) {
	bin := gst.NewBin(name)

	filter, err := gst.NewElementWithName("capsfilter", "filter")
	if err != nil {
		return nil, fmt.Errorf("%w: %s capsfilter: %v", ErrBuild, kind, err)
	}
	filter.SetProperty("caps", gst.NewAnyCaps())

	sink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("%w: %s appsink: %v", ErrBuild, kind, err)
	}
	sink.SetCaps(gst.NewCapsFromString(sinkCaps))
	sink.SetProperty("sync", false)
	sink.SetMaxBuffers(1)

	if err := bin.AddMany(filter, sink.Element); err != nil {
		return nil, fmt.Errorf("%w: %s bin: %v", ErrBuild, kind, err)
	}
	if err := filter.Link(sink.Element); err != nil {
		return nil, fmt.Errorf("%w: %s link: %v", ErrBuild, kind, err)
	}

	target := filter.GetStaticPad("sink")
	if target == nil {
		return nil, fmt.Errorf("%w: %s filter has no sink pad", ErrBuild, kind)
	}
	ghost := gst.NewGhostPad("sink", target)
	if ghost == nil || !bin.AddPad(ghost.Pad) {
		return nil, fmt.Errorf("%w: %s ghost pad", ErrBuild, kind)
	}

	return &branch{kind: kind, bin: bin, filter: filter, sink: sink}, nil
}

// setElementProperty sets an element-typed property. SetProperty only
// converts plain GObject values, which the property type check rejects.
func setElementProperty(owner *gst.Element, name string, value *gst.Element) error {
	t, err := owner.GetPropertyType(name)
	if err != nil {
		return err
	}
	v, err := glib.ValueInit(t)
	if err != nil {
		return err
	}
	v.SetInstance(uintptr(value.Unsafe()))
	return owner.SetPropertyValue(name, v)
}

func (g *GStreamer) callbacks() Callbacks {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cb
}

func (g *GStreamer) branch(kind StreamKind) *branch {
	if kind == StreamVideo {
		return g.video
	}
	return g.audio
}

// connectSignals hooks the playbin signals the reader depends on.
func (g *GStreamer) connectSignals() error {
	h, err := g.playbin.Connect("source-setup", func(_ *gst.Element, source *gst.Element) {
		g.onSourceSetup(source)
	})
	if err != nil {
		return fmt.Errorf("%w: source-setup: %v", ErrBuild, err)
	}
	g.handlers = append(g.handlers, h)

	// uridecodebin is created lazily; hook autoplug-select when it appears.
	h, err = g.playbin.Connect("element-added", func(_ *gst.Element, elem *gst.Element) {
		factory := elem.GetFactory()
		if factory == nil || factory.GetName() != "uridecodebin" {
			return
		}
		elem.Connect("autoplug-select", func(_ *gst.Element, _ *gst.Pad, caps *gst.Caps, f *gst.ElementFactory) int {
			return g.onAutoplugSelect(caps, f)
		})
	})
	if err != nil {
		return fmt.Errorf("%w: element-added: %v", ErrBuild, err)
	}
	g.handlers = append(g.handlers, h)
	return nil
}

func (g *GStreamer) disconnectSignals() {
	g.mu.Lock()
	handlers := g.handlers
	g.handlers = nil
	g.mu.Unlock()

	for _, h := range handlers {
		g.playbin.HandlerDisconnect(h)
	}
}

func (g *GStreamer) onSourceSetup(source *gst.Element) {
	src := app.SrcFromElement(source)

	g.mu.Lock()
	g.src = src
	g.mu.Unlock()

	src.SetCallbacks(&app.SourceCallbacks{
		NeedDataFunc: func(_ *app.Source, length uint) {
			if cb := g.callbacks(); cb.NeedData != nil {
				cb.NeedData(length)
			}
		},
		EnoughDataFunc: func(_ *app.Source) {
			if cb := g.callbacks(); cb.EnoughData != nil {
				cb.EnoughData()
			}
		},
		SeekDataFunc: func(_ *app.Source, offset uint64) bool {
			if cb := g.callbacks(); cb.SeekData != nil {
				return cb.SeekData(offset)
			}
			return false
		},
	})

	slog.Debug("engine: input source ready", "element", source.GetName())

	if cb := g.callbacks(); cb.SourceSetup != nil {
		cb.SourceSetup()
	}
}

func (g *GStreamer) onAutoplugSelect(caps *gst.Caps, factory *gst.ElementFactory) int {
	cb := g.callbacks()
	if cb.Autoplug == nil || factory == nil {
		return autoplugTry
	}

	capsStr := ""
	if caps != nil {
		capsStr = caps.String()
	}
	klass := factory.GetMetadata("klass")

	if !cb.Autoplug(factory.GetName(), klass, capsStr) {
		slog.Debug("engine: autoplug skipped factory",
			"factory", factory.GetName(),
			"klass", klass,
		)
		return autoplugSkip
	}
	return autoplugTry
}

// installBranchCallbacks wires appsink and sink pad events of one branch.
func (g *GStreamer) installBranchCallbacks(b *branch) {
	kind := b.kind

	b.sink.SetCallbacks(&app.SinkCallbacks{
		EOSFunc: func(_ *app.Sink) {
			if cb := g.callbacks(); cb.EOS != nil {
				cb.EOS(kind)
			}
		},
		NewPrerollFunc: func(sink *app.Sink) gst.FlowReturn {
			sample := sink.PullPreroll()
			if sample == nil {
				return gst.FlowOK
			}
			caps := ""
			if c := sample.GetCaps(); c != nil {
				caps = c.String()
			}
			if cb := g.callbacks(); cb.Preroll != nil {
				cb.Preroll(kind, caps)
			}
			return gst.FlowOK
		},
		NewSampleFunc: func(_ *app.Sink) gst.FlowReturn {
			if cb := g.callbacks(); cb.NewSample != nil {
				cb.NewSample(kind)
			}
			return gst.FlowOK
		},
	})

	pad := b.sink.GetStaticPad("sink")
	if pad == nil {
		slog.Warn("engine: appsink has no sink pad, segment tracking disabled", "stream", kind)
		return
	}
	pad.AddProbe(gst.PadProbeTypeEventDownstream|gst.PadProbeTypeEventFlush,
		func(_ *gst.Pad, info *gst.PadProbeInfo) gst.PadProbeReturn {
			event := info.GetEvent()
			if event == nil {
				return gst.PadProbeOK
			}
			switch event.Type() {
			case gst.EventTypeSegment:
				seg := event.ParseSegment()
				if seg == nil {
					break
				}
				if cb := g.callbacks(); cb.Segment != nil {
					cb.Segment(kind, toSegment(seg))
				}
			case gst.EventTypeFlushStop:
				if cb := g.callbacks(); cb.FlushStop != nil {
					cb.FlushStop(kind)
				}
			}
			return gst.PadProbeOK
		})
}

func toSegment(seg *gst.Segment) Segment {
	return Segment{
		Rate:        seg.GetRate(),
		AppliedRate: seg.GetAppliedRate(),
		Start:       clockTime(seg.GetStart()),
		Stop:        clockTime(seg.GetStop()),
		Time:        clockTime(seg.GetTime()),
		Base:        clockTime(seg.GetBase()),
	}
}

// clockTime converts a GstClockTime, mapping GST_CLOCK_TIME_NONE to -1.
func clockTime(v uint64) time.Duration {
	if v == uint64(gst.ClockTimeNone) {
		return -1
	}
	return time.Duration(v)
}

// pumpBus forwards async-done, error and EOS messages until closed. Watched
// errors go to the Error callback and are queued as well, so a Seek waiting
// on the bus sees them.
func (g *GStreamer) pumpBus(ctx context.Context) {
	defer close(g.done)

	bus := g.playbin.GetBus()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Poll with a short timeout for responsive shutdown
		msg := bus.TimedPop(busPollInterval)
		if msg == nil {
			continue
		}

		var m Message
		switch msg.Type() {
		case gst.MessageAsyncDone:
			m = Message{Type: MessageAsyncDone, Source: msg.Source()}
		case gst.MessageEOS:
			m = Message{Type: MessageEOS, Source: msg.Source()}
		case gst.MessageError:
			gerr := msg.ParseError()
			category := ClassifyError(gerr.Error(), gerr.DebugString())
			m = Message{
				Type:     MessageError,
				Err:      fmt.Errorf("%s: %s", msg.Source(), gerr.Error()),
				Category: category,
				Source:   msg.Source(),
			}
			slog.Debug("engine: error message",
				"source", msg.Source(),
				"error", gerr.Error(),
				"debug", gerr.DebugString(),
				"category", category.String(),
			)
			if g.watchErrors.Load() {
				if cb := g.callbacks(); cb.Error != nil {
					cb.Error(m)
				}
			}
		default:
			continue
		}

		select {
		case g.messages <- m:
		default:
			slog.Debug("engine: message backlog full, dropping", "type", m.Type.String())
		}
	}
}

// SetCallbacks implements Engine.
func (g *GStreamer) SetCallbacks(cb Callbacks) {
	g.mu.Lock()
	g.cb = cb
	g.mu.Unlock()
}

// PlayFlags implements Engine.
func (g *GStreamer) PlayFlags() uint {
	v, err := g.playbin.GetProperty("flags")
	if err != nil {
		slog.Warn("engine: failed to read play flags", "error", err)
		return 0
	}
	switch f := v.(type) {
	case uint:
		return f
	case uint32:
		return uint(f)
	case uint64:
		return uint(f)
	case int:
		return uint(f)
	case int64:
		return uint(f)
	default:
		slog.Warn("engine: unexpected play flags type", "type", fmt.Sprintf("%T", v))
		return 0
	}
}

// SetPlayFlags implements Engine.
func (g *GStreamer) SetPlayFlags(flags uint) error {
	// GstPlayFlags is a flags type; the numeric form deserializes directly.
	g.playbin.SetArg("flags", strconv.FormatUint(uint64(flags), 10))
	return nil
}

// SetFilterCaps implements Engine.
func (g *GStreamer) SetFilterCaps(kind StreamKind, caps string) error {
	b := g.branch(kind)
	var c *gst.Caps
	if caps == FilterAny || caps == "" {
		c = gst.NewAnyCaps()
	} else {
		c = gst.NewCapsFromString(caps)
	}
	if c == nil {
		return fmt.Errorf("engine: invalid caps for %s filter: %q", kind, caps)
	}
	return b.filter.SetProperty("caps", c)
}

// SetState implements Engine.
func (g *GStreamer) SetState(state State) error {
	if g.closed.Load() {
		return ErrClosed
	}
	var s gst.State
	switch state {
	case StateNull:
		s = gst.StateNull
	case StatePaused:
		s = gst.StatePaused
	case StatePlaying:
		s = gst.StatePlaying
	default:
		return fmt.Errorf("engine: invalid state %d", state)
	}
	if err := g.playbin.SetState(s); err != nil {
		return fmt.Errorf("engine: set state %s: %w", state, err)
	}
	return nil
}

// PopMessage implements Engine.
func (g *GStreamer) PopMessage(ctx context.Context) (Message, error) {
	select {
	case m := <-g.messages:
		return m, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	case <-g.done:
		return Message{}, ErrClosed
	}
}

// FlushMessages implements Engine.
func (g *GStreamer) FlushMessages() {
	for {
		select {
		case <-g.messages:
		default:
			return
		}
	}
}

// WatchErrors implements Engine.
func (g *GStreamer) WatchErrors(enabled bool) {
	g.watchErrors.Store(enabled)
}

// Elements implements Engine.
func (g *GStreamer) Elements() []Element {
	bin := &gst.Bin{Element: g.playbin}
	elems, err := bin.GetElementsRecursive()
	if err != nil {
		slog.Warn("engine: failed to list elements", "error", err)
		return nil
	}

	out := make([]Element, 0, len(elems))
	for _, e := range elems {
		el := Element{Name: e.GetName()}
		if f := e.GetFactory(); f != nil {
			el.Factory = f.GetName()
			el.Klass = f.GetMetadata("klass")
		}
		if pad := e.GetStaticPad("sink"); pad != nil {
			if caps := pad.GetCurrentCaps(); caps != nil {
				el.SinkCaps = caps.String()
			}
		}
		out = append(out, el)
	}
	return out
}

// StreamCount implements Engine.
func (g *GStreamer) StreamCount(kind StreamKind) int {
	prop := "n-audio"
	if kind == StreamVideo {
		prop = "n-video"
	}
	v, err := g.playbin.GetProperty(prop)
	if err != nil {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case uint:
		return int(n)
	default:
		return 0
	}
}

// QueryDuration implements Engine.
func (g *GStreamer) QueryDuration() (time.Duration, bool) {
	ok, d := g.playbin.QueryDuration(gst.FormatTime)
	if !ok || d < 0 {
		return 0, false
	}
	return time.Duration(d), true
}

// ConvertBytesToTime implements Engine.
func (g *GStreamer) ConvertBytesToTime(bytes int64) (time.Duration, bool) {
	ok, t := g.playbin.QueryConvert(gst.FormatBytes, bytes, gst.FormatTime)
	if !ok || t < 0 {
		return 0, false
	}
	return time.Duration(t), true
}

// Seek implements Engine.
func (g *GStreamer) Seek(target time.Duration) bool {
	return g.playbin.SendEvent(gst.NewSeekEvent(1.0, gst.FormatTime,
		gst.SeekFlagFlush|gst.SeekFlagKeyUnit,
		gst.SeekTypeSet, int64(target),
		gst.SeekTypeNone, -1,
	))
}

// PullSample implements Engine.
func (g *GStreamer) PullSample(kind StreamKind) (*Sample, bool) {
	sample := g.branch(kind).sink.TryPullSample(0)
	if sample == nil {
		return nil, false
	}
	buffer := sample.GetBuffer()
	if buffer == nil {
		return nil, false
	}

	// Copy data (GStreamer will reuse the buffer)
	mapInfo := buffer.Map(gst.MapRead)
	data := make([]byte, mapInfo.Size())
	copy(data, mapInfo.Bytes())
	buffer.Unmap()

	out := &Sample{
		PTS:      buffer.PresentationTimestamp(),
		Duration: buffer.Duration(),
		Offset:   buffer.Offset(),
		Keyframe: !buffer.HasFlags(gst.BufferFlagDeltaUnit),
		Data:     data,
	}
	if seg := sample.GetSegment(); seg != nil {
		s := toSegment(seg)
		out.Segment = &s
	}
	return out, true
}

func (g *GStreamer) source() *app.Source {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.src
}

// PushInput implements Engine.
func (g *GStreamer) PushInput(data []byte) error {
	src := g.source()
	if src == nil {
		return fmt.Errorf("engine: input source not set up")
	}
	if ret := src.PushBuffer(gst.NewBufferFromBytes(data)); ret != gst.FlowOK {
		return fmt.Errorf("engine: push input: %s", ret)
	}
	return nil
}

// EndInput implements Engine.
func (g *GStreamer) EndInput() {
	if src := g.source(); src != nil {
		src.EndStream()
	}
}

// InputSize implements Engine.
func (g *GStreamer) InputSize() int64 {
	if src := g.source(); src != nil {
		return src.GetSize()
	}
	return -1
}

// SetInputSize implements Engine.
func (g *GStreamer) SetInputSize(size int64) {
	if src := g.source(); src != nil {
		src.SetSize(size)
	}
}

// SetInputStreamType implements Engine.
func (g *GStreamer) SetInputStreamType(t InputStreamType) {
	src := g.source()
	if src == nil {
		return
	}
	if t == InputRandomAccess {
		src.SetStreamType(app.AppStreamTypeRandomAccess)
	} else {
		src.SetStreamType(app.AppStreamTypeSeekable)
	}
}

// SetInputCaps implements Engine.
func (g *GStreamer) SetInputCaps(caps string) {
	src := g.source()
	if src == nil || caps == "" {
		return
	}
	src.SetCaps(gst.NewCapsFromString(caps))
}

// Close implements Engine.
func (g *GStreamer) Close() error {
	if !g.closed.CompareAndSwap(false, true) {
		return nil
	}

	g.WatchErrors(false)
	err := g.playbin.SetState(gst.StateNull)

	g.cancel()
	<-g.done
	g.disconnectSignals()

	slog.Debug("engine: playbin released")
	if err != nil {
		return fmt.Errorf("engine: failed to set pipeline to NULL: %w", err)
	}
	return nil
}
