package wizard

import (
	"os"

	"github.com/samber/lo"
	"golang.org/x/term"

	"github.com/tessro/plexplay/internal/core"
)

// Interactive provides interactive fallback functionality.
type Interactive struct {
	enabled bool
}

// NewInteractive creates a new interactive handler.
func NewInteractive() *Interactive {
	return &Interactive{enabled: true}
}

// SetEnabled enables or disables interactive mode.
func (i *Interactive) SetEnabled(enabled bool) {
	i.enabled = enabled
}

// IsTerminal returns true if stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// CanInteract returns true if interactive mode is available.
func (i *Interactive) CanInteract() bool {
	return i.enabled && IsTerminal()
}

// PromptPlaylist launches the playlist picker if interactive mode is
// available. Returns nil if cancelled or not interactive.
func (i *Interactive) PromptPlaylist(playlists []core.PlaylistSummary) (*core.PlaylistSummary, error) {
	if !i.CanInteract() || len(playlists) == 0 {
		return nil, nil
	}
	return RunPlaylistPicker(playlists)
}

// ResolvePlaylist picks the playlist id to play: the argument, then the
// configured default.
func ResolvePlaylist(args []string, configured string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return configured
}

// FindPlaylist returns the playlist whose id or title matches ref exactly.
func FindPlaylist(playlists []core.PlaylistSummary, ref string) *core.PlaylistSummary {
	if p, ok := lo.Find(playlists, func(p core.PlaylistSummary) bool { return p.ID == ref }); ok {
		return &p
	}
	if p, ok := lo.Find(playlists, func(p core.PlaylistSummary) bool { return p.Title == ref }); ok {
		return &p
	}
	return nil
}
