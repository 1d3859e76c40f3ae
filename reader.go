package mediareader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/bridge"
	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/buffered"
	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/engine"
	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/feeder"
	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/formats"
	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/mp3"
	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/probe"
	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/stats"
	"github.com/google/uuid"
)

const (
	// sourceProbeSize is read when the input is set up so the provider
	// learns the resource length.
	sourceProbeSize = 512
	// mp3ChunkSize is the ReadAt size used for the up-front MP3 parse.
	mp3ChunkSize = 4 * 1024
	// maxChannelsLimit bounds Config.MaxChannels.
	maxChannelsLimit = 8
)

// allowlist is what the reader asks before and after a pipeline is built.
type allowlist interface {
	probe.Allowlist
	ShouldAutoplug(factory, klass, caps string) bool
}

// Reader implements MediaReader on top of a GStreamer playbin
type Reader struct {
	// Configuration
	res     Resource
	cfg     Config
	host    Host
	session string
	log     *slog.Logger

	// Collaborators (replaceable in tests)
	newEngine func() (engine.Engine, error)
	allow     allowlist
	now       func() time.Time

	// Pipeline, set once by Init
	mu      sync.Mutex
	engine  engine.Engine
	bridge  *bridge.Bridge
	feeder  *feeder.Feeder
	started time.Time

	// Duration estimator (MP3 only)
	mp3Mu             sync.Mutex
	mp3               *mp3.Parser
	useParserDuration bool
	lastParserDur     time.Duration

	// Stream description, set by ReadMetadata
	infoMu   sync.RWMutex
	info     MediaInfo
	hasInfo  bool
	duration atomic.Int64

	// Output
	audio *Queue[AudioData]
	video *Queue[VideoData]

	counters *stats.Counters

	// Lifecycle flags
	ready  atomic.Bool
	closed atomic.Bool
}

var _ MediaReader = (*Reader)(nil)

// NewReader creates a reader over res with fail-fast validation
//
// Validates configuration at construction time:
//   - Resource must not be nil
//   - MaxChannels must be between 1 and 8
//   - MaxVideoDimension and MaxVideoArea must be positive
//   - SourceReadSize and ShortFileSize must not be negative
//
// The engine is not created until Init.
func NewReader(res Resource, cfg Config) (*Reader, error) {
	if res == nil {
		return nil, fmt.Errorf("media-reader: resource is required")
	}
	if cfg.MaxChannels < 1 || cfg.MaxChannels > maxChannelsLimit {
		return nil, fmt.Errorf(
			"media-reader: invalid max channels %d (must be 1-%d)",
			cfg.MaxChannels, maxChannelsLimit,
		)
	}
	if cfg.MaxVideoDimension <= 0 || cfg.MaxVideoArea <= 0 {
		return nil, fmt.Errorf(
			"media-reader: invalid video limits %d/%d (must be positive)",
			cfg.MaxVideoDimension, cfg.MaxVideoArea,
		)
	}
	if cfg.SourceReadSize < 0 {
		return nil, fmt.Errorf("media-reader: invalid source read size %d", cfg.SourceReadSize)
	}
	if cfg.ShortFileSize < 0 {
		return nil, fmt.Errorf("media-reader: invalid short file size %d", cfg.ShortFileSize)
	}
	if cfg.PaceWindow < 2 {
		cfg.PaceWindow = DefaultConfig().PaceWindow
	}

	session := uuid.New().String()
	r := &Reader{
		res:     res,
		cfg:     cfg,
		host:    cfg.Host,
		session: session,
		log:     slog.With("session", session),
		newEngine: func() (engine.Engine, error) {
			return engine.NewGStreamer()
		},
		allow:    formats.Allowlist{},
		now:      time.Now,
		audio:    newQueue[AudioData](cfg.PaceWindow),
		video:    newQueue[VideoData](cfg.PaceWindow),
		counters: &stats.Counters{},
	}
	r.duration.Store(-1)

	r.log.Info("media-reader: reader created",
		"content_type", res.ContentType(),
		"length", res.Length(),
		"max_channels", cfg.MaxChannels,
		"max_video_dimension", cfg.MaxVideoDimension,
	)
	return r, nil
}

// Session returns the id attached to every log line of this reader.
func (r *Reader) Session() string {
	return r.session
}

// AudioQueue returns the decoded audio units in delivery order.
func (r *Reader) AudioQueue() *Queue[AudioData] {
	return r.audio
}

// VideoQueue returns the decoded video frames in delivery order.
func (r *Reader) VideoQueue() *Queue[VideoData] {
	return r.video
}

// Init builds the engine and wires the feeder and the bridge to it
//
// This method:
//  1. Pre-parses MP3 content to find its duration and data offset
//  2. Creates the engine pipeline (playbin reading from appsrc://)
//  3. Installs input, output, error and autoplug callbacks
//
// The pipeline stays in the NULL state until ReadMetadata.
func (r *Reader) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed.Load() {
		return ErrShutdown
	}
	if r.ready.Load() {
		return fmt.Errorf("media-reader: already initialized")
	}

	dataOffset := r.parseMP3Headers()

	eng, err := r.newEngine()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPipelineBuild, err)
	}

	logger := r.log
	r.engine = eng
	r.feeder = feeder.New(r.res, eng, r.cfg.SourceReadSize, r.counters, logger)
	r.feeder.SetDataOffset(dataOffset)
	r.bridge = bridge.New(bridge.Config{
		Engine:   eng,
		Sink:     outputSink{audio: r.audio, video: r.video, now: r.now},
		Position: r.res.Tell,
		Counters: r.counters,
		Limits:   r.cfg.limits(),
		Logger:   logger,
	})

	eng.SetCallbacks(engine.Callbacks{
		SourceSetup: r.onSourceSetup,
		NeedData:    r.feeder.NeedData,
		EnoughData:  r.feeder.EnoughData,
		SeekData:    r.feeder.SeekData,
		Preroll:     r.onPreroll,
		NewSample:   r.bridge.NewSample,
		EOS:         r.bridge.EOS,
		Segment:     r.bridge.Segment,
		FlushStop:   r.bridge.FlushStop,
		Error:       r.onError,
		Autoplug:    r.allow.ShouldAutoplug,
	})

	r.started = r.now()
	r.ready.Store(true)

	r.log.Info("media-reader: pipeline initialized",
		"data_offset", dataOffset,
		"parser_duration", r.useParserDuration,
	)
	return nil
}

// parseMP3Headers reads MP3 content up front until the parser has decided.
// It returns the offset of the first frame, or 0.
func (r *Reader) parseMP3Headers() int64 {
	if !formats.IsMP3(r.res.ContentType()) {
		return 0
	}

	r.mp3Mu.Lock()
	defer r.mp3Mu.Unlock()

	p := mp3.NewParser(r.res.Length())
	buf := make([]byte, mp3ChunkSize)
	var offset int64
	for !p.ParsedHeaders() {
		n, err := r.res.ReadAt(buf, offset)
		if n > 0 {
			p.Parse(buf[:n], offset)
			offset += int64(n)
		}
		if err != nil || n == 0 {
			break
		}
	}
	r.mp3 = p

	if !p.IsMP3() {
		r.log.Debug("media-reader: content is not MP3", "bytes_parsed", offset)
		return 0
	}

	r.useParserDuration = true
	r.lastParserDur = p.Duration()
	dataOffset := p.MP3Offset()
	if dataOffset < 0 {
		dataOffset = 0
	}
	r.log.Info("media-reader: MP3 headers parsed",
		"duration", r.lastParserDur,
		"data_offset", dataOffset,
	)
	return dataOffset
}

func (r *Reader) parserDuration() (time.Duration, bool) {
	r.mp3Mu.Lock()
	defer r.mp3Mu.Unlock()
	if !r.useParserDuration || r.mp3 == nil {
		return 0, false
	}
	d := r.mp3.Duration()
	return d, d >= 0
}

// onSourceSetup configures the engine's input once it exists.
func (r *Reader) onSourceSetup() {
	// A short read makes a network provider learn the length.
	buf := make([]byte, sourceProbeSize)
	if _, err := r.res.Read(buf); err != nil && !errors.Is(err, io.EOF) {
		r.log.Warn("media-reader: initial read failed", "error", err)
	}

	start := r.feeder.DataOffset()
	if err := r.res.Seek(start); err != nil {
		r.log.Warn("media-reader: failed to rewind input", "offset", start, "error", err)
	}

	length := r.res.Length()
	r.engine.SetInputSize(r.feeder.DataLength())

	streamType := engine.InputSeekable
	if r.res.IsDataCachedToEnd(0) ||
		(r.cfg.ShortFileSize > 0 && length >= 0 && length < r.cfg.ShortFileSize) {
		streamType = engine.InputRandomAccess
	}
	r.engine.SetInputStreamType(streamType)

	caps := formats.CapsForContentType(r.res.ContentType())
	r.engine.SetInputCaps(caps)

	r.log.Debug("media-reader: input configured",
		"length", length,
		"data_offset", start,
		"random_access", streamType == engine.InputRandomAccess,
		"caps", caps,
	)
}

func (r *Reader) onPreroll(kind engine.StreamKind, caps string) {
	switch kind {
	case engine.StreamAudio:
		r.bridge.AudioPreroll(caps)
	case engine.StreamVideo:
		r.bridge.VideoPreroll(caps)
	}
}

// onError handles engine errors once playback started.
func (r *Reader) onError(msg engine.Message) {
	r.counters.CountError(msg.Category)
	r.log.Error("media-reader: pipeline error",
		"error", msg.Err,
		"category", msg.Category.String(),
		"source", msg.Source,
		"uptime", r.now().Sub(r.started),
	)
	r.bridge.Fail(fmt.Errorf("%w: [%s] %v", ErrFatalPipeline, msg.Category, msg.Err))
}

// check returns the lifecycle error for operations that need a pipeline.
func (r *Reader) check() error {
	if r.closed.Load() {
		return ErrShutdown
	}
	if !r.ready.Load() {
		return ErrNotInitialized
	}
	return nil
}

// Shutdown ends both streams and releases the pipeline
//
// This method:
//  1. Resets decode state and forces EOS on both streams (wakes waiters)
//  2. Ends the input
//  3. Stops the pipeline and its bus pump, unblocking Seek and ReadMetadata
//
// Idempotent - safe to call multiple times.
func (r *Reader) Shutdown() error {
	if !r.closed.CompareAndSwap(false, true) {
		r.log.Debug("media-reader: already shut down")
		return nil
	}
	// Init holds mu while building; after this it either finished or sees closed.
	r.mu.Lock()
	initialized := r.ready.Load()
	r.mu.Unlock()
	if !initialized {
		r.log.Debug("media-reader: not initialized, nothing to release")
		return nil
	}

	r.log.Info("media-reader: shutting down")

	r.bridge.Reset()
	r.bridge.EOS(engine.StreamAny)
	r.audio.Clear()
	r.video.Clear()
	r.engine.EndInput()

	err := r.engine.Close()

	snap := r.counters.Snapshot()
	r.log.Info("media-reader: reader stopped",
		"audio_decoded", snap.AudioDecoded,
		"video_decoded", snap.VideoDecoded,
		"video_dropped", snap.VideoDropped,
		"bytes_read", snap.BytesRead,
		"errors", snap.TotalErrors(),
		"uptime", r.now().Sub(r.started),
	)

	if err != nil {
		return fmt.Errorf("media-reader: release pipeline: %w", err)
	}
	return nil
}

// ReadMetadata prerolls the pipeline and starts playback
//
// The stream description is stored for the session; later duration
// refinements come from NotifyDataArrived.
func (r *Reader) ReadMetadata(ctx context.Context) (MediaInfo, error) {
	if err := r.check(); err != nil {
		return MediaInfo{}, err
	}

	p := probe.New(probe.Config{
		Engine:         r.engine,
		Allowlist:      r.allow,
		ParserDuration: r.parserDuration,
		Counters:       r.counters,
		Logger:         r.log,
	})

	res, err := p.Probe(ctx)
	if err != nil {
		if r.closed.Load() {
			return MediaInfo{}, ErrShutdown
		}
		return MediaInfo{}, fmt.Errorf("media-reader: read metadata: %w", err)
	}

	// Preroll validation failures are recorded by the bridge.
	if err := r.bridge.Err(); err != nil {
		return MediaInfo{}, fmt.Errorf("media-reader: read metadata: %w", err)
	}

	info := MediaInfo{
		HasAudio: res.HasAudio,
		HasVideo: res.HasVideo,
		Duration: res.Duration,
	}
	if info.HasAudio {
		info.Audio = r.bridge.AudioInfo()
	}
	if info.HasVideo {
		info.Video = r.bridge.VideoInfo()
	}

	r.infoMu.Lock()
	r.info = info
	r.hasInfo = true
	r.infoMu.Unlock()
	r.duration.Store(int64(info.Duration))

	r.log.Info("media-reader: metadata ready",
		"has_audio", info.HasAudio,
		"has_video", info.HasVideo,
		"duration", info.Duration,
		"attempt", res.Attempt+1,
	)
	return info, nil
}

// Info returns the stream description read by ReadMetadata.
func (r *Reader) Info() (MediaInfo, bool) {
	r.infoMu.RLock()
	defer r.infoMu.RUnlock()
	return r.info, r.hasInfo
}

// Duration returns the current media duration, negative when unknown.
func (r *Reader) Duration() time.Duration {
	return time.Duration(r.duration.Load())
}

// DecodeAudioData pulls one audio unit into AudioQueue.
func (r *Reader) DecodeAudioData() Result {
	if r.check() != nil {
		return ResultEOS
	}
	return r.bridge.DecodeAudio()
}

// DecodeVideoFrame pulls one video frame into VideoQueue.
func (r *Reader) DecodeVideoFrame(keyframeSkip bool, threshold time.Duration) Result {
	if r.check() != nil {
		return ResultEOS
	}
	return r.bridge.DecodeVideo(keyframeSkip, threshold)
}

// Seek flushes the pipeline and moves playback to target
//
// Units mapped below target are discarded on both streams until one at or
// above it is delivered. Blocks until the engine completes or fails the
// seek, the context is cancelled or the reader shuts down. A failed seek
// leaves playback where it was.
func (r *Reader) Seek(ctx context.Context, target time.Duration) (time.Duration, error) {
	if err := r.check(); err != nil {
		return 0, err
	}
	if target < 0 {
		return 0, fmt.Errorf("%w: negative target %v", ErrSeek, target)
	}

	r.counters.Seeks.Add(1)
	r.log.Debug("media-reader: seeking", "target", target)

	r.resetDecode()
	// Units of the new position can arrive before the seek completes.
	r.bridge.SetSeekFloor(target)
	r.engine.FlushMessages()

	if !r.engine.Seek(target) {
		r.seekFailed()
		r.log.Warn("media-reader: seek rejected", "target", target)
		return 0, fmt.Errorf("%w: engine rejected seek to %v", ErrSeek, target)
	}

	msg, err := r.engine.PopMessage(ctx)
	if err != nil {
		r.seekFailed()
		if r.closed.Load() {
			return 0, ErrShutdown
		}
		return 0, fmt.Errorf("%w: waiting for completion: %v", ErrSeek, err)
	}
	if msg.Type == engine.MessageError {
		r.seekFailed()
		// Once playing, onError has counted it.
		if _, playing := r.Info(); !playing {
			r.counters.CountError(msg.Category)
		}
		r.log.Warn("media-reader: seek failed", "target", target, "error", msg.Err)
		return 0, fmt.Errorf("%w: %v", ErrSeek, msg.Err)
	}

	// EOS is a completed seek past the last unit; the sinks report it.
	r.log.Debug("media-reader: seek completed", "target", target, "message", msg.Type.String())
	return target, nil
}

// seekFailed lifts the seek floor so playback keeps the units of the
// position it stayed at.
func (r *Reader) seekFailed() {
	r.counters.SeekFailures.Add(1)
	r.bridge.ClearSeekFloor()
}

// ResetDecode discards pending units and clears the output queues.
func (r *Reader) ResetDecode() error {
	if err := r.check(); err != nil {
		return err
	}
	r.resetDecode()
	return nil
}

func (r *Reader) resetDecode() {
	r.bridge.Reset()
	audio := r.audio.Clear()
	video := r.video.Clear()
	if audio > 0 || video > 0 {
		r.log.Debug("media-reader: output queues cleared", "audio", audio, "video", video)
	}
}

// GetBuffered returns the playback time ranges available locally.
func (r *Reader) GetBuffered() ([]TimeRange, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	info, ok := r.Info()
	if !ok || (!info.HasAudio && !info.HasVideo) {
		return nil, nil
	}
	return buffered.Ranges(r.res, r.engine, r.feeder.DataOffset(), r.Duration()), nil
}

// NotifyDataArrived feeds newly received bytes to the MP3 estimator and
// forwards duration changes to the host.
func (r *Reader) NotifyDataArrived(data []byte, offset int64) {
	if r.check() != nil {
		return
	}
	if info, ok := r.Info(); ok && info.HasVideo {
		return
	}

	r.mp3Mu.Lock()
	if r.mp3 == nil || !r.mp3.NeedsData() {
		r.mp3Mu.Unlock()
		return
	}
	r.mp3.Parse(data, offset)
	d := r.mp3.Duration()
	changed := r.useParserDuration && d >= 0 && d != r.lastParserDur
	if changed {
		r.lastParserDur = d
	}
	r.mp3Mu.Unlock()

	if !changed {
		return
	}
	r.duration.Store(int64(d))
	r.log.Debug("media-reader: duration refined", "duration", d, "offset", offset)
	if r.host != nil {
		r.host.UpdateEstimatedDuration(d)
	}
}

// IsMediaSeekable reports whether the duration is known, either from the
// MP3 estimator or from the engine.
func (r *Reader) IsMediaSeekable() bool {
	if r.check() != nil {
		return false
	}
	if _, ok := r.parserDuration(); ok {
		return true
	}
	_, ok := r.engine.QueryDuration()
	return ok
}

// Stats returns current reader statistics
//
// Thread-safe - counters are atomic and the queues lock internally.
func (r *Reader) Stats() ReaderStats {
	audioQueued, audioPace := r.audio.stats()
	videoQueued, videoPace := r.video.stats()

	s := ReaderStats{
		Session:     r.session,
		Duration:    r.Duration(),
		Counters:    r.counters.Snapshot(),
		AudioPace:   audioPace,
		VideoPace:   videoPace,
		AudioQueued: audioQueued,
		VideoQueued: videoQueued,
	}
	if r.ready.Load() {
		s.Uptime = r.now().Sub(r.started)
		s.InputErr = r.feeder.Err()
		s.Fatal = r.bridge.Err()
	}
	return s
}
