package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/plexplay/internal/core"
)

// Colors
var (
	Primary   = lipgloss.Color("#E5A00D") // Plex amber
	Secondary = lipgloss.Color("#10B981") // Green

	Success = lipgloss.Color("#10B981")
	Warning = lipgloss.Color("#F59E0B")
	Error   = lipgloss.Color("#EF4444")
	Info    = lipgloss.Color("#3B82F6")

	Border    = lipgloss.Color("#4B5563")
	Text      = lipgloss.Color("#F9FAFB")
	TextMuted = lipgloss.Color("#9CA3AF")
	TextDim   = lipgloss.Color("#6B7280")
	Buffer    = lipgloss.Color("#374151")
)

// Text styles
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Text)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextMuted)

	Label = lipgloss.NewStyle().
		Foreground(TextDim)

	Highlight = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	Muted = lipgloss.NewStyle().
		Foreground(TextMuted)

	Dim = lipgloss.NewStyle().
		Foreground(TextDim)

	Playing = lipgloss.NewStyle().
		Foreground(Secondary)

	Paused = lipgloss.NewStyle().
		Foreground(Warning)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error)

	Selected = lipgloss.NewStyle().
			Background(lipgloss.Color("237"))
)

// Border styles
var (
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border)

	FocusedBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary)
)

// Panel returns the frame style for a panel.
func Panel(focused bool) lipgloss.Style {
	if focused {
		return FocusedBorder.Padding(0, 1)
	}
	return BorderStyle.Padding(0, 1)
}

// PanelTitle creates a styled panel title
func PanelTitle(title string, focused bool) string {
	style := Label
	if focused {
		style = Highlight
	}
	return style.Render(" " + title + " ")
}

// ProgressBar draws a played/buffered/remaining bar. Fractions are in [0,1].
func ProgressBar(played, buffered float64, width int) string {
	filled := cells(played, width)
	ahead := cells(buffered, width) - filled
	if ahead < 0 {
		ahead = 0
	}
	rest := width - filled - ahead

	return lipgloss.NewStyle().Foreground(Primary).Render(strings.Repeat("━", filled)) +
		lipgloss.NewStyle().Foreground(Buffer).Render(strings.Repeat("━", ahead)) +
		lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", rest))
}

func cells(f float64, width int) int {
	n := int(f * float64(width))
	switch {
	case n < 0:
		return 0
	case n > width:
		return width
	default:
		return n
	}
}

// StateIcon returns an icon for the playback state.
func StateIcon(s core.State, playing bool) string {
	switch {
	case s == core.StateStopped:
		return ErrorText.Render("■")
	case s == core.StateResolving || s == core.StateRetrying:
		return Paused.Render("…")
	case playing:
		return Playing.Render("▶")
	default:
		return Paused.Render("⏸")
	}
}
