package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	perrors "github.com/tessro/plexplay/internal/errors"
	"github.com/tessro/plexplay/internal/wizard"
)

var playlistsCmd = &cobra.Command{
	Use:     "playlists",
	Aliases: []string{"ls"},
	Short:   "List playlists available through the proxy",
	RunE:    runPlaylists,
}

var tracksCmd = &cobra.Command{
	Use:   "tracks [playlist]",
	Short: "List the tracks of a playlist",
	Long: `List the tracks of a playlist by id or exact title. Without an argument the
configured server.playlist is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTracks,
}

func init() {
	rootCmd.AddCommand(playlistsCmd)
	rootCmd.AddCommand(tracksCmd)
}

func runPlaylists(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := newLogger(Verbose())
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	playlists, err := newPlexClient(logger).GetPlaylists(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}

	if JSONOutput() {
		return printJSON(playlists)
	}
	if len(playlists) == 0 {
		fmt.Println("No playlists found")
		return nil
	}

	table := NewTable("ID", "TITLE", "")
	for _, p := range playlists {
		marker := ""
		if p.ID == cfg.Server.Playlist {
			marker = "(default)"
		}
		table.Row(p.ID, TruncateString(p.Title, 60), marker)
	}
	table.Flush()
	return nil
}

func runTracks(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger, closeLog, err := newLogger(Verbose())
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	client := newPlexClient(logger)
	ref := wizard.ResolvePlaylist(args, cfg.Server.Playlist)
	if ref == "" {
		return perrors.ErrNoPlaylist
	}
	if playlists, err := client.GetPlaylists(ctx); err == nil {
		if p := wizard.FindPlaylist(playlists, ref); p != nil {
			ref = p.ID
		}
	}

	result, err := client.GetPlaylist(ctx, ref)
	if err != nil {
		return err
	}
	playlist := result.Data

	if JSONOutput() {
		return printJSON(map[string]any{
			"playlist": playlist,
			"skipped":  len(result.Errors),
		})
	}

	if playlist.Title != "" {
		fmt.Printf("%s (%d tracks)\n\n", playlist.Title, playlist.Len())
	}
	table := NewTable("#", "TITLE", "ARTIST", "ALBUM")
	for i, t := range playlist.Tracks {
		table.Row(strconv.Itoa(i+1),
			TruncateString(t.Title, 40),
			TruncateString(t.Artist, 30),
			TruncateString(t.Album, 30))
	}
	table.Flush()

	if result.HasErrors() {
		fmt.Printf("\n%d entries skipped:\n%s\n", len(result.Errors), result.ErrorSummary())
	}
	return nil
}
