package wizard

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tessro/plexplay/internal/core"
)

var samplePlaylists = []core.PlaylistSummary{
	{ID: "11", Title: "Morning Jazz"},
	{ID: "12", Title: "Workout"},
	{ID: "13", Title: "Late Night Jazz"},
}

func update(m PlaylistModel, msg tea.Msg) PlaylistModel {
	next, _ := m.Update(msg)
	return next.(PlaylistModel)
}

func TestPlaylistPickerFilterAndSelect(t *testing.T) {
	m := NewPlaylistModel(samplePlaylists)
	if len(m.visible) != 3 {
		t.Fatalf("visible = %v, want all", m.visible)
	}

	for _, r := range "jazz" {
		m = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	if len(m.visible) != 2 {
		t.Fatalf("visible = %v, want 2 jazz playlists", m.visible)
	}

	m = update(m, tea.KeyMsg{Type: tea.KeyDown})
	m = update(m, tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1 (clamped)", m.cursor)
	}

	m = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.Selected(); got == nil || got.ID != "13" {
		t.Errorf("Selected() = %+v, want playlist 13", got)
	}
}

func TestPlaylistPickerCancel(t *testing.T) {
	m := NewPlaylistModel(samplePlaylists)
	m = update(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.Selected() != nil {
		t.Error("Selected() after esc should be nil")
	}
	if m.View() == "" {
		t.Error("View() is empty")
	}
}

func TestResolvePlaylist(t *testing.T) {
	tests := []struct {
		args       []string
		configured string
		want       string
	}{
		{[]string{"42"}, "7", "42"},
		{nil, "7", "7"},
		{[]string{""}, "7", "7"},
		{nil, "", ""},
	}
	for _, tt := range tests {
		if got := ResolvePlaylist(tt.args, tt.configured); got != tt.want {
			t.Errorf("ResolvePlaylist(%v, %q) = %q, want %q", tt.args, tt.configured, got, tt.want)
		}
	}
}

func TestFindPlaylist(t *testing.T) {
	if p := FindPlaylist(samplePlaylists, "12"); p == nil || p.Title != "Workout" {
		t.Errorf("by id = %+v", p)
	}
	if p := FindPlaylist(samplePlaylists, "Late Night Jazz"); p == nil || p.ID != "13" {
		t.Errorf("by title = %+v", p)
	}
	if p := FindPlaylist(samplePlaylists, "missing"); p != nil {
		t.Errorf("missing = %+v", p)
	}
}
