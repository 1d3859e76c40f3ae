// Package mediareader decodes media from a byte-range provider using GStreamer
// and exposes it as synchronous, pull-based audio and video decoding.
//
// GStreamer delivers decoded units on its own streaming threads and asks for
// input bytes through callbacks. The host pipeline instead runs one consumer
// goroutine that asks for "the next audio unit" or "the next video frame".
// This module bridges the two: engine callbacks count announced units per
// stream, and pulls take one unit each, waiting at most once when neither
// stream has anything ready.
//
// # Quick Start
//
//	res, err := resource.OpenFile(afero.NewOsFs(), "movie.mp4", "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer res.Close()
//
//	reader, err := mediareader.NewReader(res, mediareader.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer reader.Shutdown()
//
//	if err := reader.Init(); err != nil {
//	    log.Fatal(err)
//	}
//	info, err := reader.ReadMetadata(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for reader.DecodeVideoFrame(false, 0).HasMore() {
//	    for frame, ok := reader.VideoQueue().Pop(); ok; frame, ok = reader.VideoQueue().Pop() {
//	        render(frame.Image, frame.Time)
//	    }
//	}
//
// # Pull Results
//
// Every pull returns a Result:
//
//   - ResultDecoded: one unit was appended to the output queue
//   - ResultSkipped: one unit was consumed and dropped (threshold, keyframe
//     skip, or below a pending seek target)
//   - ResultYield: nothing was available; the other stream may have units
//   - ResultEOS: the stream ended; every later pull returns it too
//
// A pull that finds its own stream empty while the other stream has units
// returns ResultYield immediately, so a host alternating audio and video
// pulls never starves one stream on the other.
//
// # Metadata
//
// ReadMetadata prerolls the pipeline with both streams, then video only, then
// audio only, and keeps the first configuration that prerolls. Files with a
// broken audio track still play their video. After preroll every demuxer and
// decoder the engine selected is checked against an allow-list (MP4/M4A/MP3
// containers, H.264/AAC/MP3 codecs).
//
// For MP3 content the duration comes from a frame header parser run before
// the pipeline is built, and NotifyDataArrived refines it as the host
// downloads more bytes.
//
// # Output Format
//
//   - Audio: interleaved signed 16-bit PCM, 1 or 2 channels
//   - Video: *image.YCbCr (4:2:0), display size corrected for the pixel
//     aspect ratio
//
// # Seeking
//
// Seek issues a flushing key-unit seek and blocks until the engine finishes.
// Units mapped below the target are then discarded on both streams until one
// at or above it is delivered.
//
// # Error Handling
//
// Engine errors during playback are classified (resource, codec, format),
// counted, and force end of stream on both streams; ReaderStats.Fatal holds
// the cause. Read failures on the provider end the input and surface as
// ReaderStats.InputErr. Errors wrap the exported sentinels and are matched
// with errors.Is.
//
// # Thread Safety
//
//   - DecodeAudioData, DecodeVideoFrame, Seek and ResetDecode belong to one
//     consumer goroutine
//   - Shutdown is idempotent and unblocks a pending pull, seek or probe
//   - Stats(), GetBuffered() and the output queues are safe from any goroutine
//
// # Dependencies
//
// GStreamer 1.x with the base, good and libav plugin sets:
//
//	# Ubuntu/Debian
//	sudo apt-get install \
//	    gstreamer1.0-plugins-base \
//	    gstreamer1.0-plugins-good \
//	    gstreamer1.0-libav
//
// # Testing
//
// A command-line tool drives a full decode of a local file:
//
//	./bin/test-reader --file sample.mp4 --seek 30s --stats-interval 2s
//
// See cmd/test-reader for flags and the optional YAML configuration.
package mediareader
