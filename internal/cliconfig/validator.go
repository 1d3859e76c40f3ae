package cliconfig

import (
	"fmt"
	"log/slog"
	"regexp"
)

var instanceIDPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

// Validate checks the configuration and fills defaults
func Validate(cfg *Config) error {
	if cfg.InstanceID == "" {
		return fmt.Errorf("instance_id is required")
	}
	if !instanceIDPattern.MatchString(cfg.InstanceID) {
		return fmt.Errorf("instance_id must match pattern [a-z0-9-]+")
	}

	if err := validateReader(&cfg.Reader); err != nil {
		return fmt.Errorf("reader: %w", err)
	}
	if err := validateLog(&cfg.Log); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	if cfg.MQTT.Topics.Stats == "" {
		cfg.MQTT.Topics.Stats = fmt.Sprintf("care/media-reader/%s/stats", cfg.InstanceID)
	}
	if cfg.MQTT.Topics.Metadata == "" {
		cfg.MQTT.Topics.Metadata = fmt.Sprintf("care/media-reader/%s/metadata", cfg.InstanceID)
	}
	if cfg.MQTT.QoS == nil {
		cfg.MQTT.QoS = map[string]byte{
			"stats":    0,
			"metadata": 1,
		}
	}
	for name, qos := range cfg.MQTT.QoS {
		if qos > 2 {
			return fmt.Errorf("mqtt.qos.%s must be 0, 1 or 2, got %d", name, qos)
		}
	}

	return nil
}

func validateReader(r *ReaderConfig) error {
	if r.MaxChannels < 0 || r.MaxChannels > 8 {
		return fmt.Errorf("max_channels must be in [0, 8], got %d", r.MaxChannels)
	}
	if r.SourceReadSizeKB < 0 {
		return fmt.Errorf("source_read_size_kb must be >= 0")
	}
	if r.MaxVideoDimension < 0 || r.MaxVideoArea < 0 {
		return fmt.Errorf("video limits must be >= 0")
	}
	if r.ShortFileSizeKB < 0 {
		return fmt.Errorf("short_file_size_kb must be >= 0")
	}
	if r.PaceWindow == 1 || r.PaceWindow < 0 {
		return fmt.Errorf("pace_window must be 0 or >= 2, got %d", r.PaceWindow)
	}
	if r.StatsIntervalS < 0 {
		return fmt.Errorf("stats_interval_s must be >= 0")
	}
	if r.StatsIntervalS == 0 {
		r.StatsIntervalS = 10
	}
	return nil
}

func validateLog(l *LogConfig) error {
	if l.Level == "" {
		l.Level = "info"
	}
	if _, err := ParseLevel(l.Level); err != nil {
		return err
	}
	if l.File != "" {
		if l.MaxSizeMB <= 0 {
			l.MaxSizeMB = 50
		}
		if l.MaxBackups <= 0 {
			l.MaxBackups = 3
		}
		if l.MaxAgeDays <= 0 {
			l.MaxAgeDays = 14
		}
	}
	return nil
}

// ParseLevel maps a level name to a slog level
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("unknown level %q (must be debug, info, warn or error)", name)
	}
	return level, nil
}
