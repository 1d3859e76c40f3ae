// Package cliconfig loads the YAML configuration of the test-reader tool.
package cliconfig

import (
	"fmt"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	mediareader "github.com/e7canasta/orion-care-sensor/modules/media-reader"
)

// Config represents the complete test-reader configuration
type Config struct {
	InstanceID string       `yaml:"instance_id"`
	Reader     ReaderConfig `yaml:"reader"`
	Log        LogConfig    `yaml:"log"`
	MQTT       MQTTConfig   `yaml:"mqtt"`
}

// ReaderConfig overrides mediareader.DefaultConfig. Zero values keep the default.
type ReaderConfig struct {
	SourceReadSizeKB  int `yaml:"source_read_size_kb"`
	MaxChannels       int `yaml:"max_channels"`
	MaxVideoDimension int `yaml:"max_video_dimension"`
	MaxVideoArea      int `yaml:"max_video_area"`
	ShortFileSizeKB   int `yaml:"short_file_size_kb"`
	PaceWindow        int `yaml:"pace_window"`
	StatsIntervalS    int `yaml:"stats_interval_s"` // stats report period (default: 10)
}

// LogConfig contains logging settings
type LogConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error
	File       string `yaml:"file"`  // optional rotating log file
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// MQTTConfig contains MQTT broker settings. An empty broker disables publishing.
type MQTTConfig struct {
	Broker string          `yaml:"broker"`
	Topics MQTTTopics      `yaml:"topics"`
	QoS    map[string]byte `yaml:"qos"`
}

// MQTTTopics contains topic names
type MQTTTopics struct {
	Stats    string `yaml:"stats"`
	Metadata string `yaml:"metadata"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{InstanceID: "media-reader"}
	// Validate only fills defaults on an otherwise empty config.
	_ = Validate(cfg)
	return cfg
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs reads and parses a YAML configuration file from fsys
func LoadFs(fsys afero.Fs, path string) (*Config, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// ReaderConfig builds the mediareader configuration
func (c *Config) ReaderConfig() mediareader.Config {
	rc := mediareader.DefaultConfig()
	r := c.Reader

	if r.SourceReadSizeKB > 0 {
		rc.SourceReadSize = r.SourceReadSizeKB * 1024
	}
	if r.MaxChannels > 0 {
		rc.MaxChannels = r.MaxChannels
	}
	if r.MaxVideoDimension > 0 {
		rc.MaxVideoDimension = r.MaxVideoDimension
	}
	if r.MaxVideoArea > 0 {
		rc.MaxVideoArea = int64(r.MaxVideoArea)
	}
	if r.ShortFileSizeKB > 0 {
		rc.ShortFileSize = int64(r.ShortFileSizeKB) * 1024
	}
	if r.PaceWindow > 0 {
		rc.PaceWindow = r.PaceWindow
	}
	return rc
}

// StatsInterval returns the stats report period
func (c *Config) StatsInterval() time.Duration {
	return time.Duration(c.Reader.StatsIntervalS) * time.Second
}
