package config

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost/plexproxy/api",
			Timeout: 30,
		},
		Playback: PlaybackConfig{
			MaxAttempts:            2,
			MaxConsecutiveFailures: 4,
			BackoffBaseMs:          1500,
			BackoffMaxMs:           3000,
			PrewarmThresholdMs:     7000,
			Shuffle:                false,
			Autostart:              true,
		},
		Seek: SeekConfig{
			StepMs:       5000,
			PageFraction: 0.10,
		},
		TUI: TUIConfig{
			Theme:           "auto",
			RefreshInterval: 250,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
// Boolean settings are left as decoded.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Server
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = d.Server.BaseURL
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = d.Server.Timeout
	}

	// Playback
	if c.Playback.MaxAttempts == 0 {
		c.Playback.MaxAttempts = d.Playback.MaxAttempts
	}
	if c.Playback.MaxConsecutiveFailures == 0 {
		c.Playback.MaxConsecutiveFailures = d.Playback.MaxConsecutiveFailures
	}
	if c.Playback.BackoffBaseMs == 0 {
		c.Playback.BackoffBaseMs = d.Playback.BackoffBaseMs
	}
	if c.Playback.BackoffMaxMs == 0 {
		c.Playback.BackoffMaxMs = d.Playback.BackoffMaxMs
	}
	if c.Playback.PrewarmThresholdMs == 0 {
		c.Playback.PrewarmThresholdMs = d.Playback.PrewarmThresholdMs
	}

	// Seek
	if c.Seek.StepMs == 0 {
		c.Seek.StepMs = d.Seek.StepMs
	}
	if c.Seek.PageFraction == 0 {
		c.Seek.PageFraction = d.Seek.PageFraction
	}

	// TUI
	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}
	if c.TUI.RefreshInterval == 0 {
		c.TUI.RefreshInterval = d.TUI.RefreshInterval
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}
