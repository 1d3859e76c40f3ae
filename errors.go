package mediareader

import (
	"errors"

	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/bridge"
	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/feeder"
	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/probe"
)

var (
	// ErrPipelineBuild means the engine pipeline could not be created
	ErrPipelineBuild = errors.New("media-reader: pipeline build failed")
	// ErrPreroll is a single failed preroll attempt; the prober retries it
	ErrPreroll = probe.ErrPreroll
	// ErrMetadata means no stream configuration prerolled
	ErrMetadata = probe.ErrMetadata
	// ErrUnsupportedFormat means the pipeline selected a demuxer or decoder
	// outside the allow-list
	ErrUnsupportedFormat = probe.ErrUnsupportedFormat
	// ErrFatalPipeline is an asynchronous engine error during playback
	ErrFatalPipeline = errors.New("media-reader: fatal pipeline error")
	// ErrIORead is a byte-range read failure that ended the input
	ErrIORead = feeder.ErrRead
	// ErrSeek means the engine rejected or failed a seek
	ErrSeek = errors.New("media-reader: seek failed")
	// ErrInvalidVideoRegion means the prerolled frame or display size is
	// unusable
	ErrInvalidVideoRegion = bridge.ErrInvalidVideoRegion
	// ErrUnplayableAudio means the prerolled audio format is unusable
	ErrUnplayableAudio = bridge.ErrUnplayableAudio
	// ErrNotInitialized is returned before Init succeeded
	ErrNotInitialized = errors.New("media-reader: not initialized")
	// ErrShutdown is returned after Shutdown
	ErrShutdown = errors.New("media-reader: reader shut down")
)
