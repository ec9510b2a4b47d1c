package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tessro/plexplay/internal/core"
	"github.com/tessro/plexplay/internal/tui/styles"
)

// Session shows stream and failure counters for the running session.
type Session struct {
	id string
}

// NewSession creates a session panel for the given session id.
func NewSession(id string) *Session {
	return &Session{id: id}
}

// Render renders the session panel
func (s *Session) Render(snap *core.Snapshot, width, height int, focused bool) string {
	title := styles.PanelTitle("Session", focused)

	var content string
	if snap == nil {
		content = styles.Muted.Render("Waiting for player")
	} else {
		content = s.renderFields(snap)
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

func (s *Session) renderFields(snap *core.Snapshot) string {
	failures := styles.Muted.Render("0")
	if snap.Failures > 0 {
		failures = styles.ErrorText.Render(fmt.Sprintf("%d", snap.Failures))
	}

	shuffle := "off"
	if snap.Shuffle {
		shuffle = "on"
	}

	rows := [][2]string{
		{"state", string(snap.State)},
		{"shuffle", shuffle},
		{"downloaded", humanize.Bytes(snap.Downloaded)},
		{"buffered", fmt.Sprintf("%.0f%%", snap.BufferedFraction()*100)},
		{"failures", failures},
	}
	if snap.Status.Message != "" && !snap.Status.At.IsZero() {
		rows = append(rows, [2]string{"last status", humanize.Time(snap.Status.At)})
	}
	if len(s.id) >= 8 {
		rows = append(rows, [2]string{"session", s.id[:8]})
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%s %s", styles.Label.Width(12).Render(r[0]), r[1]))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
