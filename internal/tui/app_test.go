package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tessro/plexplay/internal/core"
	perrors "github.com/tessro/plexplay/internal/errors"
	"github.com/tessro/plexplay/internal/seek"
)

type pointerCall struct {
	x     float64
	phase core.SeekPhase
}

type fakePlayer struct {
	mu       sync.Mutex
	calls    []string
	pointer  []pointerCall
	keys     []string
	surface  seek.Surface
	snap     core.Snapshot
	tracks   []*core.Track
	played   []int
	advanced []int
	err      error
}

func (p *fakePlayer) record(name string) {
	p.mu.Lock()
	p.calls = append(p.calls, name)
	p.mu.Unlock()
}

func (p *fakePlayer) PlayAtPosition(_ context.Context, pos int) error {
	p.record("play-at")
	p.mu.Lock()
	p.played = append(p.played, pos)
	p.mu.Unlock()
	return p.err
}

func (p *fakePlayer) PlayTrack(_ context.Context, idx int) error {
	p.record("play-track")
	p.mu.Lock()
	p.played = append(p.played, idx)
	p.mu.Unlock()
	return p.err
}

func (p *fakePlayer) Advance(_ context.Context, delta int) error {
	p.record("advance")
	p.mu.Lock()
	p.advanced = append(p.advanced, delta)
	p.mu.Unlock()
	return p.err
}

func (p *fakePlayer) TogglePlayPause(context.Context) error {
	p.record("toggle")
	return p.err
}

func (p *fakePlayer) ToggleShuffle(context.Context) error {
	p.record("shuffle")
	return p.err
}

func (p *fakePlayer) Retry(context.Context) error {
	p.record("retry")
	return p.err
}

func (p *fakePlayer) SeekTo(context.Context, time.Duration) error {
	p.record("seek")
	return p.err
}

func (p *fakePlayer) SeekByPointer(_ context.Context, x float64, phase core.SeekPhase) error {
	p.mu.Lock()
	p.pointer = append(p.pointer, pointerCall{x, phase})
	p.mu.Unlock()
	return nil
}

func (p *fakePlayer) SeekKey(_ context.Context, key string) (bool, error) {
	p.mu.Lock()
	p.keys = append(p.keys, key)
	p.mu.Unlock()
	return true, p.err
}

func (p *fakePlayer) SetScrubSurface(s seek.Surface) {
	p.mu.Lock()
	p.surface = s
	p.mu.Unlock()
}

func (p *fakePlayer) SessionID() string { return "0123456789abcdef" }

func (p *fakePlayer) Snapshot() core.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

func (p *fakePlayer) Tracks() []*core.Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracks
}

func (p *fakePlayer) callNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func newTestModel(p *fakePlayer) Model {
	m := NewModel(context.Background(), p, Options{})
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func samplePlayer() *fakePlayer {
	tracks := []*core.Track{
		{ID: "1", Title: "Blue in Green", Artist: "Miles Davis", Album: "Kind of Blue"},
		{ID: "2", Title: "Naima", Artist: "John Coltrane", Album: "Giant Steps"},
		{ID: "3", Title: "So What", Artist: "Miles Davis", Album: "Kind of Blue"},
	}
	return &fakePlayer{
		tracks: tracks,
		snap: core.Snapshot{
			State:    core.StatePlaying,
			Track:    tracks[0],
			Cursor:   0,
			Order:    []int{0, 1, 2},
			Playing:  true,
			Duration: 3 * time.Minute,
		},
	}
}

func press(t *testing.T, m Model, key tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func exec(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestTransportKeys(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want string
	}{
		{runes("n"), "advance"},
		{runes("p"), "advance"},
		{runes("s"), "shuffle"},
		{runes("r"), "retry"},
		{tea.KeyMsg{Type: tea.KeySpace}, "toggle"},
		{runes("k"), "toggle"},
	}

	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			p := samplePlayer()
			m := newTestModel(p)
			_, cmd := press(t, m, tt.key)
			exec(cmd)
			calls := p.callNames()
			if len(calls) != 1 || calls[0] != tt.want {
				t.Errorf("calls = %v, want [%s]", calls, tt.want)
			}
		})
	}
}

func TestAdvanceDirection(t *testing.T) {
	p := samplePlayer()
	m := newTestModel(p)

	_, cmd := press(t, m, runes("n"))
	exec(cmd)
	_, cmd = press(t, m, runes("p"))
	exec(cmd)

	if len(p.advanced) != 2 || p.advanced[0] != 1 || p.advanced[1] != -1 {
		t.Errorf("advanced = %v, want [1 -1]", p.advanced)
	}
}

func TestToggleRepeatSuppressed(t *testing.T) {
	p := samplePlayer()
	m := newTestModel(p)
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	exec(cmd)

	clock = clock.Add(100 * time.Millisecond)
	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if cmd != nil {
		t.Error("repeat within 150ms produced a command")
	}

	clock = clock.Add(400 * time.Millisecond)
	_, cmd = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	exec(cmd)

	if got := len(p.callNames()); got != 2 {
		t.Errorf("toggle calls = %d, want 2", got)
	}
}

func TestSeekKeys(t *testing.T) {
	p := samplePlayer()
	m := newTestModel(p)

	for _, k := range []tea.KeyMsg{
		{Type: tea.KeyLeft},
		{Type: tea.KeyRight},
		{Type: tea.KeyPgUp},
		{Type: tea.KeyPgDown},
		{Type: tea.KeyHome},
		{Type: tea.KeyEnd},
	} {
		_, cmd := press(t, m, k)
		exec(cmd)
	}

	want := []string{"left", "right", "pgup", "pgdown", "home", "end"}
	if len(p.keys) != len(want) {
		t.Fatalf("keys = %v, want %v", p.keys, want)
	}
	for i := range want {
		if p.keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, p.keys[i], want[i])
		}
	}
}

func TestPlayerErrorsStayInStatus(t *testing.T) {
	p := samplePlayer()
	p.err = perrors.NewPlayerError(perrors.KindHalted, "1", nil)
	m := newTestModel(p)

	_, cmd := press(t, m, runes("n"))
	if _, ok := exec(cmd).(snapshotMsg); !ok {
		t.Error("player error should refresh the snapshot, not raise an error")
	}

	p.err = errors.New("boom")
	_, cmd = press(t, m, runes("n"))
	if _, ok := exec(cmd).(errMsg); !ok {
		t.Error("unexpected error should be reported")
	}
}

func TestQueueEnterPlaysSelection(t *testing.T) {
	p := samplePlayer()
	m := newTestModel(p)
	next, _ := m.Update(snapshotMsg(p.Snapshot()))
	m = next.(Model)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focusedPanel != PanelQueue {
		t.Fatalf("focused = %v, want queue", m.focusedPanel)
	}
	m, _ = press(t, m, runes("j"))
	m, _ = press(t, m, runes("j"))
	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	exec(cmd)

	if len(p.played) != 1 || p.played[0] != 2 {
		t.Errorf("played = %v, want [2]", p.played)
	}
}

func TestFilterJump(t *testing.T) {
	p := samplePlayer()
	m := newTestModel(p)
	next, _ := m.Update(snapshotMsg(p.Snapshot()))
	m = next.(Model)

	m, _ = press(t, m, runes("/"))
	if !m.showFilter {
		t.Fatal("filter not open")
	}
	for _, r := range "miles what" {
		m, _ = press(t, m, runes(string(r)))
	}
	if len(m.matches) != 1 || m.matches[0] != 2 {
		t.Fatalf("matches = %v, want [2]", m.matches)
	}

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	exec(cmd)
	if m.showFilter {
		t.Error("filter still open after enter")
	}
	if names := p.callNames(); len(names) != 1 || names[0] != "play-track" || p.played[0] != 2 {
		t.Errorf("calls = %v, played = %v", names, p.played)
	}
}

func TestMatchTracks(t *testing.T) {
	tracks := samplePlayer().tracks

	tests := []struct {
		query string
		want  []int
	}{
		{"", nil},
		{"miles", []int{0, 2}},
		{"KIND blue", []int{0, 2}},
		{"coltrane", []int{1}},
		{"nothing", nil},
	}
	for _, tt := range tests {
		got := matchTracks(tracks, tt.query)
		if len(got) != len(tt.want) {
			t.Errorf("matchTracks(%q) = %v, want %v", tt.query, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("matchTracks(%q) = %v, want %v", tt.query, got, tt.want)
			}
		}
	}
}

func TestMouseScrub(t *testing.T) {
	p := samplePlayer()
	m := newTestModel(p)
	next, _ := m.Update(snapshotMsg(p.Snapshot()))
	m = next.(Model)

	if p.surface.Left != float64(m.bar.left) || p.surface.Width != float64(m.bar.cells-1) {
		t.Fatalf("surface = %+v, bar = %+v", p.surface, m.bar)
	}

	// A press off the bar is ignored.
	next, _ = m.Update(tea.MouseMsg{X: m.bar.left, Y: m.bar.row + 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m = next.(Model)
	if m.scrubbing || len(p.pointer) != 0 {
		t.Fatal("press outside the bar started a scrub")
	}

	mid := m.bar.left + m.bar.cells/2
	next, _ = m.Update(tea.MouseMsg{X: m.bar.left, Y: m.bar.row, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m = next.(Model)
	next, _ = m.Update(tea.MouseMsg{X: mid, Y: m.bar.row + 3, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	m = next.(Model)
	next, cmd := m.Update(tea.MouseMsg{X: mid, Y: m.bar.row, Action: tea.MouseActionRelease})
	m = next.(Model)
	exec(cmd)

	want := []core.SeekPhase{core.PointerDown, core.PointerMove, core.PointerUp}
	if len(p.pointer) != len(want) {
		t.Fatalf("pointer calls = %v", p.pointer)
	}
	for i, ph := range want {
		if p.pointer[i].phase != ph {
			t.Errorf("pointer[%d].phase = %v, want %v", i, p.pointer[i].phase, ph)
		}
	}
	if p.pointer[2].x != float64(mid) {
		t.Errorf("release x = %v, want %d", p.pointer[2].x, mid)
	}
	if m.scrubbing {
		t.Error("still scrubbing after release")
	}
}

func TestCopyNowPlaying(t *testing.T) {
	p := samplePlayer()
	m := newTestModel(p)
	next, _ := m.Update(snapshotMsg(p.Snapshot()))
	m = next.(Model)

	var copied string
	m.copyText = func(s string) error {
		copied = s
		return nil
	}

	_, cmd := press(t, m, runes("y"))
	msg := exec(cmd)
	if copied != "Blue in Green - Miles Davis" {
		t.Errorf("copied = %q", copied)
	}
	if _, ok := msg.(noticeMsg); !ok {
		t.Errorf("msg = %T, want noticeMsg", msg)
	}
}

func TestHistoryTracksChanges(t *testing.T) {
	p := samplePlayer()
	m := newTestModel(p)

	next, _ := m.Update(snapshotMsg(p.Snapshot()))
	m = next.(Model)

	snap := p.Snapshot()
	snap.Track = p.tracks[1]
	snap.Cursor = 1
	next, _ = m.Update(snapshotMsg(snap))
	m = next.(Model)

	entries := m.historyView.Entries()
	if len(entries) != 2 {
		t.Fatalf("history = %d entries, want 2", len(entries))
	}
	if entries[0].Track.ID != "2" || !entries[1].Skipped {
		t.Errorf("entries = %+v", entries)
	}
}

func TestViewRenders(t *testing.T) {
	p := samplePlayer()
	m := newTestModel(p)
	next, _ := m.Update(snapshotMsg(p.Snapshot()))
	m = next.(Model)

	if m.View() == "" {
		t.Error("View() is empty")
	}
	m, _ = press(t, m, runes("?"))
	if !m.showHelp || m.View() == "" {
		t.Error("help did not render")
	}
}
