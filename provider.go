package mediareader

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mock_provider_test.go -package=mediareader . Resource,Host

// Resource is the byte-range provider the reader pulls media bytes from.
//
// Implementations must guarantee:
//   - Read/Seek/Tell share one cursor and are safe to call from engine threads
//   - ReadAt does not move the cursor
//   - Length returns -1 until the total size is known
//   - CachedRanges returns ranges ordered by Start, non-overlapping
type Resource interface {
	// Read reads at the cursor and advances it. It returns io.EOF at the end.
	Read(p []byte) (int, error)
	// ReadAt reads at an absolute offset without moving the cursor.
	ReadAt(p []byte, offset int64) (int, error)
	// Seek moves the cursor to an absolute offset.
	Seek(offset int64) error
	// Tell returns the cursor position.
	Tell() int64
	// Length returns the total size in bytes, or -1 if unknown.
	Length() int64
	// IsDataCachedToEnd reports whether every byte from offset to the end is
	// held locally.
	IsDataCachedToEnd(offset int64) bool
	// CachedRanges returns the byte ranges held locally.
	CachedRanges() []ByteRange
	// ContentType returns the MIME type of the resource, possibly empty.
	ContentType() string
}

// Host receives notifications the reader produces outside a pull.
type Host interface {
	// UpdateEstimatedDuration is called when the MP3 estimator refines the
	// duration from newly arrived data.
	UpdateEstimatedDuration(d time.Duration)
}

// MediaReader defines the contract between the host decode pipeline and a
// media decoding engine.
//
// The host drives it from two contexts:
//   - a single consumer goroutine calls DecodeAudioData, DecodeVideoFrame,
//     Seek and ResetDecode
//   - a control goroutine calls Init, ReadMetadata, GetBuffered,
//     NotifyDataArrived, Stats and Shutdown
//
// Implementations must guarantee:
//   - Decode pulls block at most once and never deadlock when only the other
//     stream has data
//   - Shutdown is idempotent and unblocks any pending pull, seek or probe
//   - Stats() is thread-safe
type MediaReader interface {
	// Init builds the engine pipeline and wires the input and output
	// adapters. The pipeline stays stopped until ReadMetadata.
	//
	// Returns ErrPipelineBuild if the engine cannot be created.
	Init() error

	// Shutdown ends both streams, stops the pipeline and releases it.
	//
	// Safe to call multiple times. Other operations return ErrShutdown
	// afterwards; pulls return ResultEOS.
	Shutdown() error

	// ReadMetadata prerolls the pipeline, trying audio+video, then video
	// only, then audio only, and starts playback on the first that works.
	//
	// Returns ErrMetadata when no configuration prerolls,
	// ErrUnsupportedFormat when a demuxer or decoder outside the allow-list
	// was selected, and ErrInvalidVideoRegion for unusable frame sizes.
	//
	// Example:
	//   info, err := reader.ReadMetadata(ctx)
	//   if err != nil {
	//       return err
	//   }
	//   log.Printf("duration %v, video %v", info.Duration, info.HasVideo)
	ReadMetadata(ctx context.Context) (MediaInfo, error)

	// DecodeAudioData pulls one audio unit into AudioQueue.
	//
	// Returns ResultEOS once the audio stream ended; every later call returns
	// it again. ResultYield means nothing was available after one wait.
	DecodeAudioData() Result

	// DecodeVideoFrame pulls one video frame into VideoQueue. Frames mapped
	// below threshold are dropped, and so are non-keyframes when
	// keyframeSkip is set.
	DecodeVideoFrame(keyframeSkip bool, threshold time.Duration) Result

	// Seek flushes the pipeline and moves playback to target. No unit below
	// target is delivered afterwards unless keyframeSkip lowers the
	// threshold.
	//
	// Returns the resolved target, or an error wrapping ErrSeek.
	Seek(ctx context.Context, target time.Duration) (time.Duration, error)

	// ResetDecode discards pending units on both streams and clears the
	// output queues.
	ResetDecode() error

	// GetBuffered returns the playback time ranges available locally.
	GetBuffered() ([]TimeRange, error)

	// NotifyDataArrived lets the MP3 estimator refine the duration from
	// bytes the host just received at offset.
	NotifyDataArrived(data []byte, offset int64)

	// IsMediaSeekable reports whether Seek can be expected to work.
	IsMediaSeekable() bool

	// Stats returns current reader statistics.
	Stats() ReaderStats
}
