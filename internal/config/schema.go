package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Playback PlaybackConfig `toml:"playback"`
	Seek     SeekConfig     `toml:"seek"`
	TUI      TUIConfig      `toml:"tui"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

// ServerConfig holds Plex proxy connection settings.
type ServerConfig struct {
	BaseURL  string `toml:"base_url"`
	Playlist string `toml:"playlist"`
	Timeout  int    `toml:"timeout"`
}

// TimeoutDuration returns the HTTP timeout.
func (c ServerConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// PlaybackConfig holds retry and prewarm settings.
type PlaybackConfig struct {
	MaxAttempts            int  `toml:"max_attempts"`
	MaxConsecutiveFailures int  `toml:"max_consecutive_failures"`
	BackoffBaseMs          int  `toml:"backoff_base_ms"`
	BackoffMaxMs           int  `toml:"backoff_max_ms"`
	PrewarmThresholdMs     int  `toml:"prewarm_threshold_ms"`
	Shuffle                bool `toml:"shuffle"`
	Autostart              bool `toml:"autostart"`
}

// BackoffBase returns the per-attempt backoff step.
func (c PlaybackConfig) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseMs) * time.Millisecond
}

// BackoffMax returns the backoff cap.
func (c PlaybackConfig) BackoffMax() time.Duration {
	return time.Duration(c.BackoffMaxMs) * time.Millisecond
}

// PrewarmThreshold returns how close to the end of a track the next one is prewarmed.
func (c PlaybackConfig) PrewarmThreshold() time.Duration {
	return time.Duration(c.PrewarmThresholdMs) * time.Millisecond
}

// SeekConfig holds keyboard seek step settings.
type SeekConfig struct {
	StepMs       int     `toml:"step_ms"`
	PageFraction float64 `toml:"page_fraction"`
}

// Step returns the arrow-key seek step.
func (c SeekConfig) Step() time.Duration {
	return time.Duration(c.StepMs) * time.Millisecond
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme           string `toml:"theme"`
	RefreshInterval int    `toml:"refresh_interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Addr string `toml:"addr"`
}
