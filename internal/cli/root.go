package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tessro/plexplay/internal/config"
	perrors "github.com/tessro/plexplay/internal/errors"
	"github.com/tessro/plexplay/internal/logging"
	"github.com/tessro/plexplay/internal/plex"
)

var (
	cfgFile string
	jsonOut bool
	verbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "plexplay",
	Short: "Play Plex playlists from the terminal",
	Long: `plexplay streams Plex playlists through a Plex proxy and plays them locally,
with shuffle, seeking and automatic recovery from stream failures.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.plexplayrc or $XDG_CONFIG_HOME/plexplay/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initConfig() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", perrors.ErrInvalidConfig, err)
	}

	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, perrors.Format(err))
		os.Exit(1)
	}
}

// Config returns the loaded configuration.
func Config() *config.Config {
	return cfg
}

// JSONOutput returns true if JSON output is requested.
func JSONOutput() bool {
	return jsonOut
}

// Verbose returns true if verbose output is requested.
func Verbose() bool {
	return verbose
}

// newLogger builds the process logger. Console output is only wanted when
// the terminal is not owned by the dashboard.
func newLogger(console bool) (zerolog.Logger, func() error, error) {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logging.Setup(logging.Options{
		Level:   level,
		File:    cfg.Log.File,
		Console: console,
	})
}

func newPlexClient(logger zerolog.Logger) *plex.Client {
	return plex.New(cfg.Server.BaseURL,
		plex.WithTimeout(cfg.Server.TimeoutDuration()),
		plex.WithLogger(logger),
	)
}
