package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/plexplay/internal/core"
	"github.com/tessro/plexplay/internal/tui/styles"
)

// Queue displays the play order with the cursor and a selection row.
type Queue struct {
	offset   int
	selected int
	length   int
}

// NewQueue creates a new Queue component
func NewQueue() *Queue {
	return &Queue{}
}

// SetLength updates the number of positions and keeps the selection valid.
func (q *Queue) SetLength(n int) {
	q.length = n
	if q.selected >= n {
		q.selected = n - 1
	}
	if q.selected < 0 {
		q.selected = 0
	}
}

// SelectNext moves the selection down.
func (q *Queue) SelectNext() {
	if q.selected < q.length-1 {
		q.selected++
	}
}

// SelectPrev moves the selection up.
func (q *Queue) SelectPrev() {
	if q.selected > 0 {
		q.selected--
	}
}

// Follow moves the selection to the given order position.
func (q *Queue) Follow(pos int) {
	if pos >= 0 && pos < q.length {
		q.selected = pos
	}
}

// Selected returns the selected order position.
func (q *Queue) Selected() int {
	return q.selected
}

// Render renders the queue panel
func (q *Queue) Render(snap *core.Snapshot, tracks []*core.Track, width, height int, focused bool) string {
	title := "Queue"
	if snap != nil && snap.Shuffle {
		title = "Queue (shuffled)"
	}

	var content string
	if snap == nil || len(snap.Order) == 0 {
		content = styles.Muted.Render("Playlist is empty")
	} else {
		content = q.renderOrder(snap, tracks, width-4, height-4, focused)
	}

	return styles.Panel(focused).
		Width(width).
		Height(height).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			styles.PanelTitle(title, focused),
			"",
			content,
		))
}

func (q *Queue) renderOrder(snap *core.Snapshot, tracks []*core.Track, width, maxLines int, focused bool) string {
	order := snap.Order

	visible := maxLines - 1 // room for the "more" line
	if visible < 1 {
		visible = 1
	}
	if q.selected < q.offset {
		q.offset = q.selected
	}
	if q.selected >= q.offset+visible {
		q.offset = q.selected - visible + 1
	}
	if q.offset >= len(order) {
		q.offset = 0
	}

	start := q.offset
	end := start + visible
	if end > len(order) {
		end = len(order)
	}

	lines := make([]string, 0, end-start+1)

	// number, marker and separator
	const overhead = 10

	for pos := start; pos < end; pos++ {
		idx := order[pos]
		if idx < 0 || idx >= len(tracks) {
			continue
		}
		track := tracks[idx]
		num := fmt.Sprintf("%3d.", pos+1)
		title, artist := fitPair(track.Title, track.Artist, width-overhead)

		var line string
		if pos == snap.Cursor {
			line = styles.Playing.Render(fmt.Sprintf("%s ▶ %s — %s", num, title, artist))
		} else {
			line = fmt.Sprintf("%s   %s — %s",
				styles.Dim.Render(num),
				title,
				styles.Muted.Render(artist))
		}
		if focused && pos == q.selected {
			line = styles.Selected.Render(line)
		}
		lines = append(lines, line)
	}

	if end < len(order) {
		lines = append(lines, styles.Dim.Render(fmt.Sprintf("     ... and %d more", len(order)-end)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// fitPair truncates title and artist to share available columns, giving the
// artist at least a third.
func fitPair(title, artist string, available int) (string, string) {
	if len(title)+len(artist) <= available {
		return title, artist
	}

	minArtist := available / 3
	if minArtist < 8 {
		minArtist = 8
	}
	if minArtist > available-8 {
		minArtist = available - 8
	}

	artistSpace := minArtist
	if len(artist) < artistSpace {
		artistSpace = len(artist)
	}
	return truncate(title, available-artistSpace), truncate(artist, artistSpace)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
