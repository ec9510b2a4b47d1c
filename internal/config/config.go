package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.plexplayrc, $XDG_CONFIG_HOME/plexplay/config.toml, ~/.config/plexplay/config.toml
func Load() (*Config, error) {
	cfg := newDecodeTarget()

	path := findConfigFile()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := newDecodeTarget()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// newDecodeTarget pre-sets booleans whose default is true, since a decoded
// false cannot be told apart from an absent key afterwards.
func newDecodeTarget() *Config {
	return &Config{Playback: PlaybackConfig{Autostart: true}}
}

// DefaultPath returns the path new configuration files are written to.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfig, "plexplay", "config.toml"), nil
}

// Path returns the config file in use, or the default path when none exists.
func Path() (string, error) {
	if p := findConfigFile(); p != "" {
		return p, nil
	}
	return DefaultPath()
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	paths := []string{
		filepath.Join(home, ".plexplayrc"),
	}
	if p, err := DefaultPath(); err == nil {
		paths = append(paths, p)
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("PLEXPLAY_SERVER_BASE_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("PLEXPLAY_SERVER_PLAYLIST"); v != "" {
		cfg.Server.Playlist = v
	}
	if v := os.Getenv("PLEXPLAY_SERVER_TIMEOUT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Server.Timeout = i
		}
	}

	// Playback
	if v := os.Getenv("PLEXPLAY_PLAYBACK_MAX_ATTEMPTS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Playback.MaxAttempts = i
		}
	}
	if v := os.Getenv("PLEXPLAY_PLAYBACK_SHUFFLE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Playback.Shuffle = b
		}
	}

	// TUI
	if v := os.Getenv("PLEXPLAY_TUI_THEME"); v != "" {
		cfg.TUI.Theme = v
	}

	// Log
	if v := os.Getenv("PLEXPLAY_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PLEXPLAY_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}

	// Metrics
	if v := os.Getenv("PLEXPLAY_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}
