package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	if err := c.Playback.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("playback: %w", err))
	}
	if err := c.Seek.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("seek: %w", err))
	}
	if err := c.TUI.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tui: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	if err := c.Metrics.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("metrics: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks ServerConfig for errors.
func (c *ServerConfig) Validate() error {
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid base_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid base_url: scheme must be http or https, got %q", u.Scheme)
		}
	}
	if c.Timeout < 0 {
		return errors.New("timeout must be non-negative")
	}
	return nil
}

// Validate checks PlaybackConfig for errors.
func (c *PlaybackConfig) Validate() error {
	if c.MaxAttempts < 0 {
		return errors.New("max_attempts must be non-negative")
	}
	if c.MaxConsecutiveFailures < 0 {
		return errors.New("max_consecutive_failures must be non-negative")
	}
	if c.BackoffBaseMs < 0 || c.BackoffMaxMs < 0 {
		return errors.New("backoff must be non-negative")
	}
	if c.BackoffMaxMs > 0 && c.BackoffBaseMs > c.BackoffMaxMs {
		return errors.New("backoff_base_ms must not exceed backoff_max_ms")
	}
	if c.PrewarmThresholdMs < 0 {
		return errors.New("prewarm_threshold_ms must be non-negative")
	}
	return nil
}

// Validate checks SeekConfig for errors.
func (c *SeekConfig) Validate() error {
	if c.StepMs < 0 {
		return errors.New("step_ms must be non-negative")
	}
	if c.PageFraction < 0 || c.PageFraction > 1 {
		return errors.New("page_fraction must be between 0 and 1")
	}
	return nil
}

// Validate checks TUIConfig for errors.
func (c *TUIConfig) Validate() error {
	switch c.Theme {
	case "", "auto", "dark", "light":
		// valid
	default:
		return fmt.Errorf("invalid theme: %s (must be auto, dark, or light)", c.Theme)
	}
	if c.RefreshInterval < 0 {
		return errors.New("refresh_interval must be non-negative")
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	return nil
}

// Validate checks MetricsConfig for errors.
func (c *MetricsConfig) Validate() error {
	if c.Addr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("invalid addr: %w", err)
	}
	return nil
}
