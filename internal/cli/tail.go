package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/plexplay/internal/tail"
)

var (
	tailNoEmoji   bool
	tailTimestamp bool
	tailFormat    string
	tailInterval  time.Duration
)

var tailCmd = &cobra.Command{
	Use:   "tail [playlist]",
	Short: "Play a playlist without the dashboard and print events",
	Long: `Play a playlist headless and print playback changes as they happen.

Events tracked:
  - Track changes (new song started)
  - Track completions (song finished)
  - Track skips (song left before it finished)
  - Pause/Resume
  - Shuffle changes
  - Failures and halts

Template fields: .Type .Emoji .Time .Title .Artist .Album .Position
.Shuffle .Status .Downloaded`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		playHeadless = true
		return runPlay(cmd, args)
	},
}

func init() {
	tailCmd.Flags().BoolVar(&playShuffle, "shuffle", false, "start in shuffle mode")
	tailCmd.Flags().StringVar(&playMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	addTailFlags(tailCmd)
	rootCmd.AddCommand(tailCmd)
}

func addTailFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&tailNoEmoji, "no-emoji", false, "disable emoji output")
	cmd.Flags().BoolVarP(&tailTimestamp, "timestamp", "t", false, "show timestamps")
	cmd.Flags().StringVarP(&tailFormat, "format", "f", "", "custom format template")
	cmd.Flags().DurationVarP(&tailInterval, "interval", "i", 250*time.Millisecond, "poll interval")
}

// followEvents prints session changes until ctx is done.
func followEvents(ctx context.Context, src tail.Source) error {
	if _, err := tail.ParseTemplate(tailFormat); err != nil {
		return fmt.Errorf("invalid format template: %w", err)
	}

	formatter := tail.NewFormatter(
		tail.WithEmoji(!tailNoEmoji),
		tail.WithTimestamp(tailTimestamp),
		tail.WithTemplate(tailFormat),
	)

	watcher := tail.NewWatcher(src, tailInterval)
	errCh := make(chan error, 1)
	go func() {
		errCh <- watcher.Start(ctx)
	}()

	for {
		select {
		case event, ok := <-watcher.Events():
			if !ok {
				return <-errCh
			}
			fmt.Println(formatter.Format(event))

		case err := <-errCh:
			return err
		}
	}
}
