package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tessro/plexplay/internal/core"
	perrors "github.com/tessro/plexplay/internal/errors"
	"github.com/tessro/plexplay/internal/playback"
	"github.com/tessro/plexplay/internal/plex"
	"github.com/tessro/plexplay/internal/sink"
	"github.com/tessro/plexplay/internal/telemetry"
	"github.com/tessro/plexplay/internal/tui"
	"github.com/tessro/plexplay/internal/wizard"
)

var (
	playHeadless    bool
	playShuffle     bool
	playNoAutostart bool
	playMetricsAddr string
)

var playCmd = &cobra.Command{
	Use:   "play [playlist]",
	Short: "Play a playlist",
	Long: `Load a playlist and play it with the interactive dashboard.

The playlist may be given by id or exact title. Without an argument the
configured server.playlist is used, or a picker is shown.

Examples:
  plexplay play                  # Play the configured playlist
  plexplay play 12345            # Play playlist 12345
  plexplay play "Morning Jazz"   # Play by title
  plexplay play --shuffle        # Start in shuffle mode
  plexplay play --headless       # Print events instead of the dashboard`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&playHeadless, "headless", false, "print playback events instead of the dashboard")
	playCmd.Flags().BoolVar(&playShuffle, "shuffle", false, "start in shuffle mode")
	playCmd.Flags().BoolVar(&playNoAutostart, "no-autostart", false, "wait for a key press before playing")
	playCmd.Flags().StringVar(&playMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	addTailFlags(playCmd)
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	if !sink.AudioAvailable {
		return perrors.ErrAudioUnavailable
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, closeLog, err := newLogger(playHeadless)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	client := newPlexClient(logger)
	playlist, err := loadPlaylist(ctx, client, args, logger)
	if err != nil {
		return err
	}

	metrics := telemetry.NewMetrics()
	out := sink.New(sink.WithLogger(logger))
	defer func() { _ = out.Close() }()

	orch := playback.New(out, client, playbackConfig(),
		playback.WithLogger(logger),
		playback.WithMetrics(metrics),
	)
	orch.Load(playlist.Tracks)

	logger.Info().
		Str("playlist", playlist.Title).
		Int("tracks", playlist.Len()).
		Str("session_id", orch.SessionID()).
		Msg("session started")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ignoreCanceled(orch.Run(gctx))
	})

	if addr := firstNonEmpty(playMetricsAddr, cfg.Metrics.Addr); addr != "" {
		g.Go(func() error {
			status := func() any { return orch.Snapshot() }
			return metrics.Serve(gctx, addr, status, logger)
		})
	}

	if cfg.Playback.Autostart && !playNoAutostart {
		g.Go(func() error {
			if err := orch.PlayAtPosition(gctx, 0); err != nil {
				logger.Warn().Err(err).Msg("autostart failed")
			}
			return nil
		})
	}

	g.Go(func() error {
		defer cancel()
		if playHeadless {
			return ignoreCanceled(followEvents(gctx, orch))
		}
		return tui.Run(gctx, orch, tui.Options{
			RefreshRate:   time.Duration(cfg.TUI.RefreshInterval) * time.Millisecond,
			PlaylistTitle: playlist.Title,
		})
	})

	return g.Wait()
}

// loadPlaylist resolves the playlist to play and fetches its tracks.
func loadPlaylist(ctx context.Context, client *plex.Client, args []string, logger zerolog.Logger) (*core.Playlist, error) {
	ref := wizard.ResolvePlaylist(args, cfg.Server.Playlist)

	playlists, listErr := client.GetPlaylists(ctx)
	if listErr != nil {
		logger.Debug().Err(listErr).Msg("list playlists")
	}

	var title string
	switch {
	case ref != "":
		if p := wizard.FindPlaylist(playlists, ref); p != nil {
			ref, title = p.ID, p.Title
		}
	case listErr != nil:
		return nil, listErr
	default:
		interactive := wizard.NewInteractive()
		interactive.SetEnabled(!playHeadless)
		p, err := interactive.PromptPlaylist(playlists)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, perrors.ErrNoPlaylist
		}
		ref, title = p.ID, p.Title
	}

	result, err := client.GetPlaylist(ctx, ref)
	if err != nil {
		return nil, err
	}
	if result.HasErrors() {
		logger.Warn().Int("skipped", len(result.Errors)).Msg(result.ErrorSummary())
	}

	playlist := result.Data
	if playlist.Title == "" {
		playlist.Title = title
	}
	if playlist.Len() == 0 {
		return nil, fmt.Errorf("playlist %q has no playable tracks", ref)
	}
	return playlist, nil
}

func playbackConfig() playback.Config {
	pc := cfg.Playback
	return playback.Config{
		MaxAttempts:            pc.MaxAttempts,
		MaxConsecutiveFailures: pc.MaxConsecutiveFailures,
		BackoffBase:            pc.BackoffBase(),
		BackoffMax:             pc.BackoffMax(),
		PrewarmThreshold:       pc.PrewarmThreshold(),
		Shuffle:                pc.Shuffle || playShuffle,
		SeekStep:               cfg.Seek.Step(),
		PageFraction:           cfg.Seek.PageFraction,
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
