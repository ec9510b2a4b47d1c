package wizard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/plexplay/internal/core"
)

// PlaylistModel is the bubbletea model for the playlist picker.
type PlaylistModel struct {
	playlists []core.PlaylistSummary
	input     textinput.Model
	visible   []int
	cursor    int
	selected  *core.PlaylistSummary
	width     int
	height    int
}

// Styles for the playlist picker
var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("214"))

	pickerItemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	pickerSelectedStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Background(lipgloss.Color("237"))

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// NewPlaylistModel creates a new playlist picker model.
func NewPlaylistModel(playlists []core.PlaylistSummary) PlaylistModel {
	ti := textinput.New()
	ti.Placeholder = "Filter playlists..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 50

	m := PlaylistModel{
		playlists: playlists,
		input:     ti,
		width:     80,
		height:    20,
	}
	m.visible = m.filter("")
	return m
}

// Init initializes the model.
func (m PlaylistModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m PlaylistModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			if m.cursor < len(m.visible) {
				p := m.playlists[m.visible[m.cursor]]
				m.selected = &p
				return m, tea.Quit
			}
			return m, nil

		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case "down", "ctrl+n":
			if m.cursor < len(m.visible)-1 {
				m.cursor++
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.visible = m.filter(m.input.Value())
	if m.cursor >= len(m.visible) {
		m.cursor = 0
	}
	return m, cmd
}

func (m PlaylistModel) filter(query string) []int {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]int, 0, len(m.playlists))
	for i, p := range m.playlists {
		if query == "" || strings.Contains(strings.ToLower(p.Title), query) {
			out = append(out, i)
		}
	}
	return out
}

// View renders the model.
func (m PlaylistModel) View() string {
	var b strings.Builder

	b.WriteString(pickerTitleStyle.Render("🎶 Select Playlist"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case len(m.playlists) == 0:
		b.WriteString(pickerHintStyle.Render("No playlists found"))
		b.WriteString("\n\n")
		b.WriteString(pickerHintStyle.Render("Check server.base_url and that the proxy can reach Plex."))
	case len(m.visible) == 0:
		b.WriteString(pickerHintStyle.Render("No matching playlists"))
	default:
		maxRows := m.height - 8
		if maxRows < 5 {
			maxRows = 5
		}
		start := 0
		if m.cursor >= maxRows {
			start = m.cursor - maxRows + 1
		}
		for i := start; i < len(m.visible) && i < start+maxRows; i++ {
			p := m.playlists[m.visible[i]]
			line := p.Title + " " + pickerHintStyle.Render(fmt.Sprintf("(%s)", p.ID))
			if i == m.cursor {
				b.WriteString(pickerSelectedStyle.Render("▸ " + line))
			} else {
				b.WriteString(pickerItemStyle.Render("  " + line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(pickerHintStyle.Render("type to filter • ↑/↓ navigate • enter select • esc quit"))

	return b.String()
}

// Selected returns the selected playlist, or nil if none.
func (m PlaylistModel) Selected() *core.PlaylistSummary {
	return m.selected
}

// RunPlaylistPicker runs the picker and returns the chosen playlist.
func RunPlaylistPicker(playlists []core.PlaylistSummary) (*core.PlaylistSummary, error) {
	p := tea.NewProgram(NewPlaylistModel(playlists), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	return finalModel.(PlaylistModel).Selected(), nil
}
