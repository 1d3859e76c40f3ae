package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/jpeg"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	mediareader "github.com/e7canasta/orion-care-sensor/modules/media-reader"
	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/cliconfig"
	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/emitter"
	"github.com/e7canasta/orion-care-sensor/modules/media-reader/resource"
)

// Version information
const version = "v0.1.0"

func main() {
	// Parse command-line flags
	file := flag.String("file", "", "Media file to decode (required)")
	configPath := flag.String("config", "", "YAML configuration file (optional)")
	contentType := flag.String("content-type", "", "Content type (default: detected from the file)")
	seekTo := flag.Duration("seek", 0, "Seek to this position before decoding (e.g. 30s)")
	maxFrames := flag.Int("max-frames", 0, "Maximum video frames to decode (0 = unlimited)")
	statsInterval := flag.Duration("stats-interval", 0, "Time between stats reports (default: from config, 10s)")
	outputDir := flag.String("output", "", "Directory to save decoded frames as JPEG (optional)")
	jpegQuality := flag.Int("jpeg-quality", 90, "JPEG quality (1-100)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	logFile := flag.String("log-file", "", "Also write logs to this rotating file")
	mqttBroker := flag.String("mqtt-broker", "", "Publish stats to this MQTT broker (host:port)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	// Show version
	if *showVersion {
		fmt.Printf("test-reader %s\n", version)
		os.Exit(0)
	}

	// Validate required flags
	if *file == "" {
		fmt.Fprintf(os.Stderr, "Error: --file flag is required\n\n")
		fmt.Fprintf(os.Stderr, "Usage example:\n")
		fmt.Fprintf(os.Stderr, "  test-reader --file sample.mp4\n")
		fmt.Fprintf(os.Stderr, "  test-reader --file sample.mp4 --seek 30s --max-frames 100 --output ./frames\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load configuration, flags override file values
	cfg := cliconfig.Default()
	if *configPath != "" {
		loaded, err := cliconfig.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	if *debug {
		cfg.Log.Level = "debug"
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}
	if *mqttBroker != "" {
		cfg.MQTT.Broker = *mqttBroker
	}
	if err := cliconfig.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	interval := cfg.StatsInterval()
	if *statsInterval > 0 {
		interval = *statsInterval
	}
	if *jpegQuality < 1 || *jpegQuality > 100 {
		log.Fatalf("Invalid JPEG quality: %d (must be 1-100)", *jpegQuality)
	}

	closeLog := setupLogging(cfg.Log)
	defer closeLog()

	// Create output directory if specified
	if *outputDir != "" {
		if err := os.MkdirAll(*outputDir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
		slog.Info("Frame saving enabled", "directory", *outputDir, "jpeg_quality", *jpegQuality)
	}

	// Print banner
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║          Media Reader Test - Orion 2.0 Module             ║\n")
	fmt.Printf("║                      Version %s                        ║\n", version)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  File:          %s\n", *file)
	fmt.Printf("  Instance:      %s\n", cfg.InstanceID)
	if *seekTo > 0 {
		fmt.Printf("  Seek To:       %s\n", *seekTo)
	}
	if *maxFrames > 0 {
		fmt.Printf("  Max Frames:    %d\n", *maxFrames)
	} else {
		fmt.Printf("  Max Frames:    unlimited\n")
	}
	if cfg.MQTT.Broker != "" {
		fmt.Printf("  MQTT Broker:   %s\n", cfg.MQTT.Broker)
	}
	fmt.Printf("\n")

	res, err := resource.OpenFile(afero.NewOsFs(), *file, *contentType)
	if err != nil {
		log.Fatalf("Failed to open file: %v", err)
	}
	defer res.Close()
	slog.Info("File opened", "size", res.Length(), "content_type", res.ContentType())

	reader, err := mediareader.NewReader(res, cfg.ReaderConfig())
	if err != nil {
		log.Fatalf("Failed to create reader: %v", err)
	}
	defer reader.Shutdown()

	// Set up context with cancellation on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var pub *emitter.MQTTEmitter
	if cfg.MQTT.Broker != "" {
		pub = emitter.NewMQTTEmitter(cfg.InstanceID, cfg.MQTT)
		if err := pub.Connect(ctx); err != nil {
			slog.Warn("MQTT unavailable, stats will not be published", "error", err)
			pub = nil
		} else {
			defer pub.Disconnect()
		}
	}

	if err := reader.Init(); err != nil {
		log.Fatalf("Failed to initialize reader: %v", err)
	}

	info, err := reader.ReadMetadata(ctx)
	if err != nil {
		log.Fatalf("Failed to read metadata: %v", err)
	}

	fmt.Printf("╭─────────────────────────────────────────────────────────╮\n")
	fmt.Printf("│ Media Information\n")
	fmt.Printf("├─────────────────────────────────────────────────────────┤\n")
	fmt.Printf("│ Duration:           %s\n", formatDuration(info.Duration))
	if info.HasAudio {
		fmt.Printf("│ Audio:              %d Hz, %d ch\n", info.Audio.Rate, info.Audio.Channels)
	}
	if info.HasVideo {
		fmt.Printf("│ Video:              %dx%d (display %dx%d)\n",
			info.Video.Width, info.Video.Height, info.Video.Display.X, info.Video.Display.Y)
	}
	fmt.Printf("│ Seekable:           %v\n", reader.IsMediaSeekable())
	if ranges, err := reader.GetBuffered(); err == nil {
		for _, r := range ranges {
			fmt.Printf("│ Buffered:           %s - %s\n", r.Start, r.End)
		}
	}
	fmt.Printf("╰─────────────────────────────────────────────────────────╯\n")

	if pub != nil {
		if err := pub.PublishMetadata(reader.Session(), info); err != nil {
			slog.Warn("Failed to publish metadata", "error", err)
		}
	}

	if *seekTo > 0 {
		slog.Info("Seeking", "target", *seekTo)
		if _, err := reader.Seek(ctx, *seekTo); err != nil {
			log.Fatalf("Seek failed: %v", err)
		}
	}

	fmt.Printf("\nStarting decode...\n")
	fmt.Printf("Press Ctrl+C to stop gracefully\n")
	fmt.Printf("═══════════════════════════════════════════════════════════\n\n")

	startTime := time.Now()
	counts := &tally{}

	g, gctx := errgroup.WithContext(ctx)

	// Single consumer: the reader's pulls are not safe from several goroutines.
	g.Go(func() error {
		defer cancel()
		return consume(gctx, reader, info, counts, *maxFrames, *outputDir, *jpegQuality)
	})

	// Shutdown unblocks a pull waiting on the engine.
	g.Go(func() error {
		<-gctx.Done()
		return reader.Shutdown()
	})

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				s := reader.Stats()
				printStats(s, time.Since(startTime))
				if pub != nil {
					if err := pub.PublishStats(s); err != nil {
						slog.Debug("Failed to publish stats", "error", err)
					}
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		slog.Error("Decode stopped with error", "error", err)
	}

	finalStats := reader.Stats()
	if pub != nil {
		if err := pub.PublishStats(finalStats); err != nil {
			slog.Debug("Failed to publish final stats", "error", err)
		}
	}
	printSummary(finalStats, counts, time.Since(startTime), *outputDir != "")

	slog.Info("Test reader completed")
}

// tally counts what the consumer took from the output queues.
type tally struct {
	audioUnits   int
	audioFrames  int
	videoFrames  int
	framesSaved  int
	saveFailures int
	lastAudio    time.Duration
	lastVideo    time.Duration
}

func consume(ctx context.Context, reader *mediareader.Reader, info mediareader.MediaInfo, t *tally, maxFrames int, outputDir string, quality int) error {
	audioDone := !info.HasAudio
	videoDone := !info.HasVideo

	for !audioDone || !videoDone {
		if ctx.Err() != nil {
			return nil
		}

		if !audioDone && reader.DecodeAudioData() == mediareader.ResultEOS {
			audioDone = true
			slog.Info("Audio stream ended", "units", t.audioUnits)
		}
		for unit, ok := reader.AudioQueue().Pop(); ok; unit, ok = reader.AudioQueue().Pop() {
			t.audioUnits++
			t.audioFrames += unit.Frames
			t.lastAudio = unit.Time
		}

		if !videoDone && reader.DecodeVideoFrame(false, 0) == mediareader.ResultEOS {
			videoDone = true
			slog.Info("Video stream ended", "frames", t.videoFrames)
		}
		for frame, ok := reader.VideoQueue().Pop(); ok; frame, ok = reader.VideoQueue().Pop() {
			t.videoFrames++
			t.lastVideo = frame.Time

			fmt.Printf("[%s] Frame #%-6d | Time: %-12s | Offset: %-10d | Key: %-5v | %dx%d\n",
				time.Now().Format("15:04:05"),
				t.videoFrames,
				frame.Time,
				frame.Offset,
				frame.Keyframe,
				frame.Display.X, frame.Display.Y,
			)

			if outputDir != "" {
				if err := saveFrame(outputDir, t.videoFrames, frame, quality); err != nil {
					slog.Error("Failed to save frame", "error", err, "frame", t.videoFrames)
					t.saveFailures++
				} else {
					t.framesSaved++
				}
			}

			if maxFrames > 0 && t.videoFrames >= maxFrames {
				fmt.Printf("\nReached maximum frames (%d), stopping...\n", maxFrames)
				return nil
			}
		}
	}
	return nil
}

// saveFrame writes a decoded frame as JPEG
func saveFrame(outputDir string, n int, frame mediareader.VideoData, quality int) error {
	filename := fmt.Sprintf("frame_%06d_%08dms.jpg", n, frame.Time.Milliseconds())
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := jpeg.Encode(file, frame.Image, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return nil
}

// setupLogging installs the default slog logger. With a log file configured,
// output goes to stdout and a rotating file.
func setupLogging(cfg cliconfig.LogConfig) func() {
	level, err := cliconfig.ParseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}

	var out io.Writer = os.Stdout
	closer := func() {}
	if cfg.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		out = io.MultiWriter(os.Stdout, rotating)
		closer = func() { _ = rotating.Close() }
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	})))
	return closer
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		return "unknown"
	}
	return d.Round(time.Millisecond).String()
}

func printStats(s mediareader.ReaderStats, uptime time.Duration) {
	c := s.Counters

	fmt.Printf("\n")
	fmt.Printf("╭─────────────────────────────────────────────────────────╮\n")
	fmt.Printf("│ Reader Statistics (Uptime: %s)\n", uptime.Round(time.Second))
	fmt.Printf("├─────────────────────────────────────────────────────────┤\n")
	fmt.Printf("│ Audio Decoded:      %6d units (%d dropped)\n", c.AudioDecoded, c.AudioDropped)
	fmt.Printf("│ Video Decoded:      %6d frames (%d dropped)\n", c.VideoDecoded, c.VideoDropped)
	fmt.Printf("│ Audio Rate:         %6.2f units/s (steady: %v)\n", s.AudioPace.RateMean, s.AudioPace.IsSteady)
	fmt.Printf("│ Video Rate:         %6.2f fps (steady: %v)\n", s.VideoPace.RateMean, s.VideoPace.IsSteady)
	fmt.Printf("│ Queued:             %6d audio / %d video\n", s.AudioQueued, s.VideoQueued)
	fmt.Printf("│ Waits / Yields:     %6d / %d\n", c.Waits, c.Yields)
	fmt.Printf("│ Bytes Read:         %6.2f MB\n", float64(c.BytesRead)/1024/1024)
	fmt.Printf("│ Seeks:              %6d (%d failed)\n", c.Seeks, c.SeekFailures)
	if total := c.TotalErrors(); total > 0 {
		fmt.Printf("├─────────────────────────────────────────────────────────┤\n")
		fmt.Printf("│ Error Telemetry\n")
		fmt.Printf("├─────────────────────────────────────────────────────────┤\n")
		fmt.Printf("│ Resource Errors:    %6d\n", c.ErrorsResource)
		fmt.Printf("│ Codec Errors:       %6d\n", c.ErrorsCodec)
		fmt.Printf("│ Format Errors:      %6d\n", c.ErrorsFormat)
		fmt.Printf("│ Unknown Errors:     %6d\n", c.ErrorsUnknown)
	}
	fmt.Printf("╰─────────────────────────────────────────────────────────╯\n")
	fmt.Printf("\n")
}

func printSummary(s mediareader.ReaderStats, t *tally, uptime time.Duration, saving bool) {
	fmt.Printf("\n")
	fmt.Printf("═══════════════════════════════════════════════════════════\n")
	fmt.Printf("                     Final Statistics                      \n")
	fmt.Printf("═══════════════════════════════════════════════════════════\n")
	fmt.Printf("  Total Uptime:       %s\n", uptime.Round(time.Second))
	fmt.Printf("  Audio Units:        %d (%d frames, last at %s)\n", t.audioUnits, t.audioFrames, t.lastAudio)
	fmt.Printf("  Video Frames:       %d (last at %s)\n", t.videoFrames, t.lastVideo)
	if saving {
		fmt.Printf("  Frames Saved:       %d frames\n", t.framesSaved)
		fmt.Printf("  Save Failures:      %d frames\n", t.saveFailures)
	}
	fmt.Printf("  Bytes Read:         %.2f MB\n", float64(s.Counters.BytesRead)/1024/1024)
	fmt.Printf("  Probe Attempts:     %d\n", s.Counters.ProbeAttempts)
	if s.InputErr != nil {
		fmt.Printf("  Input Error:        %v\n", s.InputErr)
	}
	if s.Fatal != nil {
		fmt.Printf("  Fatal:              %v\n", s.Fatal)
		if errors.Is(s.Fatal, mediareader.ErrFatalPipeline) {
			fmt.Printf("\n⚠️  WARNING: playback ended on an engine error\n")
		}
	}
	fmt.Printf("═══════════════════════════════════════════════════════════\n")
	fmt.Printf("\n")
}
