package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tessro/plexplay/internal/core"
	"github.com/tessro/plexplay/internal/tui/styles"
)

const maxHistory = 50

// HistoryEntry represents a track started during this session.
type HistoryEntry struct {
	Track    *core.Track
	PlayedAt time.Time
	Skipped  bool
}

// History lists tracks played in this session, newest first.
type History struct {
	entries []HistoryEntry
}

// NewHistory creates a new History component
func NewHistory() *History {
	return &History{}
}

// Push records a newly started track. The previous entry is marked skipped
// unless it played to completion.
func (h *History) Push(t *core.Track, prevCompleted bool, at time.Time) {
	if t == nil {
		return
	}
	if len(h.entries) > 0 && !prevCompleted {
		h.entries[0].Skipped = true
	}
	h.entries = append([]HistoryEntry{{Track: t, PlayedAt: at}}, h.entries...)
	if len(h.entries) > maxHistory {
		h.entries = h.entries[:maxHistory]
	}
}

// Entries returns the recorded history, newest first.
func (h *History) Entries() []HistoryEntry {
	return h.entries
}

// Render renders the history panel
func (h *History) Render(width, height int, focused bool) string {
	title := styles.PanelTitle("History", focused)

	var content string
	if len(h.entries) == 0 {
		content = styles.Muted.Render("No history yet")
	} else {
		content = h.renderHistory(width-4, height-4)
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

func (h *History) renderHistory(width, maxLines int) string {
	lines := make([]string, 0, maxLines)

	for i, entry := range h.entries {
		if i >= maxLines {
			break
		}

		ago := humanize.Time(entry.PlayedAt)
		icon := "✓"
		switch {
		case i == 0:
			icon = "♪"
		case entry.Skipped:
			icon = "⏭"
		}

		// icon, spaces and separator
		available := width - len(ago) - 6
		title, artist := fitPair(entry.Track.Title, entry.Track.Artist, available)
		info := title
		if artist != "" {
			info = fmt.Sprintf("%s — %s", title, artist)
		}

		padding := width - 2 - lipgloss.Width(info) - len(ago)
		if padding < 1 {
			padding = 1
		}

		lines = append(lines, fmt.Sprintf("%s %s%*s%s",
			styles.Dim.Render(icon),
			info,
			padding, "",
			styles.Dim.Render(ago)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
