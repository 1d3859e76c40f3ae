package emitter

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	mediareader "github.com/e7canasta/orion-care-sensor/modules/media-reader"
	"github.com/e7canasta/orion-care-sensor/modules/media-reader/internal/stats"
)

// StatsMessage is the msgpack payload published on the stats topic
type StatsMessage struct {
	Instance    string         `msgpack:"instance"`
	Session     string         `msgpack:"session"`
	TimestampMS int64          `msgpack:"ts_ms"`
	UptimeMS    int64          `msgpack:"uptime_ms"`
	DurationMS  int64          `msgpack:"duration_ms"` // -1 when unknown
	Counters    stats.Snapshot `msgpack:"counters"`
	AudioRate   float64        `msgpack:"audio_rate"`
	VideoRate   float64        `msgpack:"video_rate"`
	AudioSteady bool           `msgpack:"audio_steady"`
	VideoSteady bool           `msgpack:"video_steady"`
	AudioQueued int            `msgpack:"audio_queued"`
	VideoQueued int            `msgpack:"video_queued"`
	InputError  string         `msgpack:"input_error,omitempty"`
	Fatal       string         `msgpack:"fatal,omitempty"`
}

// MetadataMessage is the msgpack payload published once after ReadMetadata
type MetadataMessage struct {
	Instance      string `msgpack:"instance"`
	Session       string `msgpack:"session"`
	DurationMS    int64  `msgpack:"duration_ms"`
	HasAudio      bool   `msgpack:"has_audio"`
	HasVideo      bool   `msgpack:"has_video"`
	AudioRate     int    `msgpack:"audio_rate,omitempty"`
	AudioChannels int    `msgpack:"audio_channels,omitempty"`
	Width         int    `msgpack:"width,omitempty"`
	Height        int    `msgpack:"height,omitempty"`
	DisplayWidth  int    `msgpack:"display_width,omitempty"`
	DisplayHeight int    `msgpack:"display_height,omitempty"`
}

func durationMS(d time.Duration) int64 {
	if d < 0 {
		return -1
	}
	return d.Milliseconds()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// NewStatsMessage flattens reader statistics
func NewStatsMessage(instance string, s mediareader.ReaderStats, at time.Time) StatsMessage {
	return StatsMessage{
		Instance:    instance,
		Session:     s.Session,
		TimestampMS: at.UnixMilli(),
		UptimeMS:    s.Uptime.Milliseconds(),
		DurationMS:  durationMS(s.Duration),
		Counters:    s.Counters,
		AudioRate:   s.AudioPace.RateMean,
		VideoRate:   s.VideoPace.RateMean,
		AudioSteady: s.AudioPace.IsSteady,
		VideoSteady: s.VideoPace.IsSteady,
		AudioQueued: s.AudioQueued,
		VideoQueued: s.VideoQueued,
		InputError:  errString(s.InputErr),
		Fatal:       errString(s.Fatal),
	}
}

// NewMetadataMessage flattens the stream description
func NewMetadataMessage(instance, session string, info mediareader.MediaInfo) MetadataMessage {
	m := MetadataMessage{
		Instance:   instance,
		Session:    session,
		DurationMS: durationMS(info.Duration),
		HasAudio:   info.HasAudio,
		HasVideo:   info.HasVideo,
	}
	if info.HasAudio {
		m.AudioRate = info.Audio.Rate
		m.AudioChannels = info.Audio.Channels
	}
	if info.HasVideo {
		m.Width = info.Video.Width
		m.Height = info.Video.Height
		m.DisplayWidth = info.Video.Display.X
		m.DisplayHeight = info.Video.Display.Y
	}
	return m
}

func encode(v any) ([]byte, error) {
	payload, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return payload, nil
}
