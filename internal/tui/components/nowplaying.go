package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/plexplay/internal/core"
	"github.com/tessro/plexplay/internal/tui/styles"
)

const (
	// frame is the border plus horizontal padding on each side.
	frame     = 2
	clockCols = 5
	// progressRow is the line of the progress bar inside the panel content.
	progressRow = 6
)

// NowPlaying displays the current track and the scrub bar.
type NowPlaying struct{}

// NewNowPlaying creates a new NowPlaying component
func NewNowPlaying() *NowPlaying {
	return &NowPlaying{}
}

// BarGeometry returns where the progress bar lands on screen for a panel of
// the given width drawn at the top-left corner: the row, the first column
// and the number of cells.
func (n *NowPlaying) BarGeometry(width int) (row, left, cells int) {
	return 1 + progressRow, frame + clockCols + 1, barWidth(width - 4)
}

func barWidth(content int) int {
	w := content - 2*clockCols - 2
	if w < 10 {
		w = 10
	}
	return w
}

// Render renders the now playing panel
func (n *NowPlaying) Render(snap *core.Snapshot, width, height int, focused bool) string {
	title := styles.PanelTitle("Now Playing", focused)

	var content string
	if !snap.HasTrack() {
		content = styles.Muted.Render("Nothing selected. Press space to start.")
	} else {
		content = n.renderTrack(snap, width-4)
	}

	return styles.Panel(focused).
		Width(width).
		Height(height).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			content,
		))
}

func (n *NowPlaying) renderTrack(snap *core.Snapshot, width int) string {
	track := snap.Track

	icon := styles.StateIcon(snap.State, snap.Playing)
	// Lines are truncated so the progress bar stays on a fixed row
	title := styles.Title.Render(truncate(track.Title, width-4))
	artist := styles.Subtitle.Render(truncate(track.Artist, width-2))
	album := styles.Dim.Render(truncate(track.Album, width-2))

	bar := styles.ProgressBar(snap.Elapsed(), snap.BufferedFraction(), barWidth(width))
	progress := fmt.Sprintf("%s %s %s", Clock(snap.Position), bar, Clock(snap.Duration))

	return lipgloss.JoinVertical(lipgloss.Left,
		icon+" "+title,
		"  "+artist,
		"  "+album,
		"",
		progress,
		"",
		n.renderStatus(snap),
	)
}

func (n *NowPlaying) renderStatus(snap *core.Snapshot) string {
	switch {
	case snap.Status.IsError():
		return styles.ErrorText.Render(snap.Status.Message)
	case snap.Busy != "":
		return styles.Paused.Render(snap.Busy)
	case snap.Status.Message != "":
		return styles.Muted.Render(snap.Status.Message)
	}

	shuffle := styles.Dim.Render("shuffle off")
	if snap.Shuffle {
		shuffle = styles.Highlight.Render("shuffle on")
	}
	pos := styles.Dim.Render(fmt.Sprintf("%d/%d", snap.Cursor+1, len(snap.Order)))
	return pos + "  " + shuffle
}

// Clock formats d as m:ss, right-aligned to a fixed width.
func Clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%*s", clockCols, fmt.Sprintf("%d:%02d", m, s))
}
