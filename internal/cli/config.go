package cli

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/tessro/plexplay/internal/config"
	"github.com/tessro/plexplay/internal/wizard"
)

var configInitDefaults bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and editing plexplay configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration values, including defaults and environment overrides.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long:  `Open the configuration file in your default editor.`,
	RunE:  runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long:  `Create a new configuration file. Prompts for the proxy address unless --defaults is given.`,
	RunE:  runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Supported keys:
  server.base_url                    Plex proxy API base URL
  server.playlist                    Default playlist id
  server.timeout                     Request timeout in seconds
  playback.max_attempts              Start attempts per track
  playback.max_consecutive_failures  Failed tracks before stopping
  playback.backoff_base_ms           Backoff step between attempts
  playback.backoff_max_ms            Backoff cap
  playback.prewarm_threshold_ms      Time left when the next track is warmed
  playback.shuffle                   Start in shuffle mode (true/false)
  playback.autostart                 Start playing on launch (true/false)
  seek.step_ms                       Arrow key seek step
  seek.page_fraction                 Page key seek as a share of the track
  tui.theme                          Dashboard theme
  tui.refresh_interval               Dashboard refresh in milliseconds
  log.level                          debug, info, warn or error
  log.file                           Log file path
  metrics.addr                       Prometheus listen address

Examples:
  plexplay config set server.base_url https://media.example.com/plexproxy/api
  plexplay config set playback.shuffle true`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configSetPlaylistCmd = &cobra.Command{
	Use:   "set-playlist",
	Short: "Interactively select the default playlist",
	Long:  `Shows a picker to select the playlist played when none is given.`,
	RunE:  runConfigSetPlaylist,
}

func init() {
	configInitCmd.Flags().BoolVarP(&configInitDefaults, "defaults", "y", false, "write defaults without prompting")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetPlaylistCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if JSONOutput() {
		return printJSON(cfg)
	}

	encoder := toml.NewEncoder(os.Stdout)
	encoder.Indent = "  "
	return encoder.Encode(cfg)
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configPath, err := getConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found at %s. Run 'plexplay config init' first", configPath)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"nano", "vim", "vi", "notepad"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Set EDITOR environment variable")
	}

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	return editorCmd.Run()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath, err := getConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists at %s", configPath)
	}

	newCfg := config.Default()
	if !configInitDefaults && !JSONOutput() && wizard.IsTerminal() {
		if err := promptInitialConfig(newCfg); err != nil {
			return fmt.Errorf("setup cancelled: %w", err)
		}
	}
	if err := newCfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := writeConfigFile(configPath, newCfg); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]string{
			"status": "created",
			"path":   configPath,
		})
	}

	fmt.Printf("Created config file: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run 'plexplay playlists' to check the proxy connection")
	fmt.Println("  2. Run 'plexplay config set-playlist' to pick a default playlist")
	fmt.Println("  3. Run 'plexplay play'")
	return nil
}

func promptInitialConfig(c *config.Config) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Plex proxy API URL").
				Description("Base URL of the proxy's /api endpoint").
				Value(&c.Server.BaseURL).
				Validate(validateBaseURL),
			huh.NewInput().
				Title("Default playlist id").
				Description("Optional. You can pick one later with 'plexplay config set-playlist'").
				Value(&c.Server.Playlist),
			huh.NewConfirm().
				Title("Start in shuffle mode?").
				Value(&c.Playback.Shuffle),
		),
	)
	return form.Run()
}

func validateBaseURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("enter an http(s) URL")
	}
	return nil
}

func getConfigPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.Path()
}

func writeConfigFile(path string, v any) error {
	var buf bytes.Buffer
	buf.WriteString("# plexplay configuration\n\n")

	encoder := toml.NewEncoder(&buf)
	encoder.Indent = "  "
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

var (
	intKeys = map[string]bool{
		"server.timeout":                    true,
		"playback.max_attempts":             true,
		"playback.max_consecutive_failures": true,
		"playback.backoff_base_ms":          true,
		"playback.backoff_max_ms":           true,
		"playback.prewarm_threshold_ms":     true,
		"seek.step_ms":                      true,
		"tui.refresh_interval":              true,
	}
	boolKeys = map[string]bool{
		"playback.shuffle":   true,
		"playback.autostart": true,
	}
	floatKeys = map[string]bool{
		"seek.page_fraction": true,
	}
	stringKeys = map[string]bool{
		"server.base_url": true,
		"server.playlist": true,
		"tui.theme":       true,
		"log.level":       true,
		"log.file":        true,
		"metrics.addr":    true,
	}
)

// parseConfigValue converts value to the type stored under key.
func parseConfigValue(key, value string) (any, error) {
	switch {
	case intKeys[key]:
		i, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("value must be an integer for %s", key)
		}
		return i, nil
	case boolKeys[key]:
		b, err := strconv.ParseBool(value)
		if err != nil {
			switch strings.ToLower(value) {
			case "yes", "on":
				return true, nil
			case "no", "off":
				return false, nil
			}
			return nil, fmt.Errorf("value must be true or false for %s", key)
		}
		return b, nil
	case floatKeys[key]:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("value must be a number for %s", key)
		}
		return f, nil
	case stringKeys[key]:
		return value, nil
	default:
		return nil, fmt.Errorf("unknown config key %q", key)
	}
}

// setConfigValue updates one key in the file at path. The file is left
// untouched if the result does not validate.
func setConfigValue(path, key, value string) error {
	typed, err := parseConfigValue(key, value)
	if err != nil {
		return err
	}

	original, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("config file not found at %s. Run 'plexplay config init' first", path)
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if _, err := toml.Decode(string(original), &raw); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	section, field, _ := strings.Cut(key, ".")
	sectionMap, ok := raw[section].(map[string]any)
	if !ok {
		sectionMap = map[string]any{}
		raw[section] = sectionMap
	}
	sectionMap[field] = typed

	if err := writeConfigFile(path, raw); err != nil {
		return err
	}

	updated, err := config.LoadFrom(path)
	if err == nil {
		err = updated.Validate()
	}
	if err != nil {
		_ = os.WriteFile(path, original, 0o644)
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	configPath, err := getConfigPath()
	if err != nil {
		return err
	}
	if err := setConfigValue(configPath, key, value); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]string{
			"status": "updated",
			"key":    key,
			"value":  value,
		})
	}
	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}

func runConfigSetPlaylist(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := newLogger(Verbose())
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	playlists, err := newPlexClient(logger).GetPlaylists(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}
	if len(playlists) == 0 {
		return fmt.Errorf("no playlists found. Check server.base_url")
	}

	options := make([]huh.Option[string], 0, len(playlists))
	for _, p := range playlists {
		label := p.Title
		if p.ID == cfg.Server.Playlist {
			label += " [current]"
		}
		options = append(options, huh.NewOption(label, p.ID))
	}

	selectedID := cfg.Server.Playlist
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select default playlist").
				Description("Played when 'plexplay play' is run without a playlist").
				Options(options...).
				Value(&selectedID),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("selection cancelled: %w", err)
	}

	return runConfigSet(cmd, []string{"server.playlist", selectedID})
}
