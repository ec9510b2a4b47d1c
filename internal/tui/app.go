package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/plexplay/internal/core"
	perrors "github.com/tessro/plexplay/internal/errors"
	"github.com/tessro/plexplay/internal/seek"
	"github.com/tessro/plexplay/internal/tui/components"
	"github.com/tessro/plexplay/internal/tui/styles"
)

// Panel represents which panel is focused
type Panel int

const (
	PanelNowPlaying Panel = iota
	PanelQueue
	PanelSession
	PanelHistory
	panelCount
)

const (
	// toggleRepeat swallows auto-repeated play/pause presses.
	toggleRepeat = 150 * time.Millisecond
	noticeFor    = 3 * time.Second
	errorFor     = 5 * time.Second
	maxMatches   = 10
)

// Player is the playback surface the dashboard drives.
type Player interface {
	core.Player
	Retry(ctx context.Context) error
	SetScrubSurface(s seek.Surface)
	SessionID() string
}

// Options configures the dashboard.
type Options struct {
	RefreshRate   time.Duration
	PlaylistTitle string
}

type barGeometry struct {
	row, left, cells int
}

// Model is the main TUI model
type Model struct {
	ctx          context.Context
	player       Player
	opts         Options
	width        int
	height       int
	focusedPanel Panel

	snap   *core.Snapshot
	tracks []*core.Track

	nowPlaying  *components.NowPlaying
	queueView   *components.Queue
	sessionView *components.Session
	historyView *components.History

	showHelp bool

	showFilter   bool
	filterInput  textinput.Model
	matches      []int
	filterCursor int

	bar        barGeometry
	scrubbing  bool
	lastToggle time.Time

	lastError    error
	errorExpiry  time.Time
	notice       string
	noticeExpiry time.Time

	quitting bool

	copyText func(string) error
	now      func() time.Time
}

// NewModel creates a dashboard for player. Actions run under ctx.
func NewModel(ctx context.Context, player Player, opts Options) Model {
	if opts.RefreshRate <= 0 {
		opts.RefreshRate = 250 * time.Millisecond
	}

	ti := textinput.New()
	ti.Placeholder = "Jump to track..."
	ti.CharLimit = 100
	ti.Width = 50

	return Model{
		ctx:          ctx,
		player:       player,
		opts:         opts,
		focusedPanel: PanelNowPlaying,
		nowPlaying:   components.NewNowPlaying(),
		queueView:    components.NewQueue(),
		sessionView:  components.NewSession(player.SessionID()),
		historyView:  components.NewHistory(),
		filterInput:  ti,
		copyText:     clipboard.WriteAll,
		now:          time.Now,
	}
}

// Messages
type tickMsg time.Time
type snapshotMsg core.Snapshot
type errMsg error
type noticeMsg string

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.RefreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchSnapshot() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(m.player.Snapshot())
	}
}

// run performs a player action off the UI loop. Player failures already
// surface through the snapshot status, so only other errors are reported.
func (m Model) run(action func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		err := action(ctx)
		var perr *perrors.PlayerError
		if err != nil && !errors.As(err, &perr) && !errors.Is(err, context.Canceled) {
			return errMsg(err)
		}
		return snapshotMsg(m.player.Snapshot())
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.fetchSnapshot())
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layoutScrubBar()
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.tick(), m.fetchSnapshot())

	case snapshotMsg:
		m.applySnapshot(core.Snapshot(msg))
		return m, nil

	case errMsg:
		m.lastError = msg
		m.errorExpiry = m.now().Add(errorFor)
		return m, nil

	case noticeMsg:
		m.notice = string(msg)
		m.noticeExpiry = m.now().Add(noticeFor)
		return m, nil
	}

	if m.showFilter {
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) applySnapshot(snap core.Snapshot) {
	now := m.now()
	if now.After(m.errorExpiry) {
		m.lastError = nil
	}
	if now.After(m.noticeExpiry) {
		m.notice = ""
	}

	prev := m.snap
	m.snap = &snap
	m.tracks = m.player.Tracks()
	m.queueView.SetLength(len(snap.Order))

	if snap.HasTrack() && trackChanged(prev, &snap) {
		m.historyView.Push(snap.Track, completed(prev), now)
	}
	if m.focusedPanel != PanelQueue || prev == nil || prev.Cursor != snap.Cursor {
		m.queueView.Follow(snap.Cursor)
	}
}

func trackChanged(prev, curr *core.Snapshot) bool {
	if !prev.HasTrack() {
		return true
	}
	return prev.Track.ID != curr.Track.ID || prev.Cursor != curr.Cursor
}

func completed(s *core.Snapshot) bool {
	if !s.HasTrack() || s.Duration <= 0 {
		return false
	}
	return s.Remaining() <= 2*time.Second || s.Elapsed() >= 0.95
}

// layoutScrubBar tells the player where the progress bar is drawn so pointer
// coordinates map onto track positions.
func (m *Model) layoutScrubBar() {
	row, left, cells := m.nowPlaying.BarGeometry(m.leftWidth() - 2)
	m.bar = barGeometry{row: row, left: left, cells: cells}
	m.player.SetScrubSurface(seek.Surface{Left: float64(left), Width: float64(cells - 1)})
}

func (m Model) leftWidth() int {
	return m.width * 60 / 100
}

func (m Model) onBar(x, y int) bool {
	return y == m.bar.row && x >= m.bar.left && x < m.bar.left+m.bar.cells
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.showHelp || m.showFilter {
		return m, nil
	}
	x := float64(msg.X)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !m.onBar(msg.X, msg.Y) || !m.snap.HasTrack() {
			return m, nil
		}
		m.scrubbing = true
		_ = m.player.SeekByPointer(m.ctx, x, core.PointerDown)
		return m, m.fetchSnapshot()

	case tea.MouseActionMotion:
		if !m.scrubbing {
			return m, nil
		}
		_ = m.player.SeekByPointer(m.ctx, x, core.PointerMove)
		return m, m.fetchSnapshot()

	case tea.MouseActionRelease:
		if !m.scrubbing {
			return m, nil
		}
		m.scrubbing = false
		return m, m.run(func(ctx context.Context) error {
			return m.player.SeekByPointer(ctx, x, core.PointerUp)
		})
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.showHelp {
		switch key {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	if m.showFilter {
		return m.handleFilterKeyPress(msg)
	}

	switch key {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "?":
		m.showHelp = true
		return m, nil
	case "/":
		m.openFilter()
		return m, textinput.Blink
	case "tab":
		m.focusedPanel = (m.focusedPanel + 1) % panelCount
		return m, nil
	case "shift+tab":
		m.focusedPanel = (m.focusedPanel + panelCount - 1) % panelCount
		return m, nil
	case "y":
		return m, m.copyNowPlaying()
	}

	switch key {
	case " ", "k":
		now := m.now()
		if now.Sub(m.lastToggle) < toggleRepeat {
			m.lastToggle = now
			return m, nil
		}
		m.lastToggle = now
		return m, m.run(m.player.TogglePlayPause)
	case "n":
		return m, m.run(func(ctx context.Context) error { return m.player.Advance(ctx, 1) })
	case "p":
		return m, m.run(func(ctx context.Context) error { return m.player.Advance(ctx, -1) })
	case "s":
		return m, m.run(m.player.ToggleShuffle)
	case "r":
		return m, m.run(m.player.Retry)
	case "left", "right", "pgup", "pgdown", "home", "end":
		return m, m.run(func(ctx context.Context) error {
			_, err := m.player.SeekKey(ctx, key)
			return err
		})
	}

	if m.focusedPanel == PanelQueue {
		switch key {
		case "j", "down":
			m.queueView.SelectNext()
		case "up":
			m.queueView.SelectPrev()
		case "enter":
			pos := m.queueView.Selected()
			return m, m.run(func(ctx context.Context) error { return m.player.PlayAtPosition(ctx, pos) })
		}
	}

	return m, nil
}

func (m *Model) openFilter() {
	m.showFilter = true
	m.filterInput.SetValue("")
	m.filterInput.Focus()
	m.matches = nil
	m.filterCursor = 0
}

func (m Model) handleFilterKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.showFilter = false
		m.filterInput.Blur()
		return m, nil

	case "enter":
		if m.filterCursor < len(m.matches) {
			idx := m.matches[m.filterCursor]
			m.showFilter = false
			m.filterInput.Blur()
			return m, m.run(func(ctx context.Context) error { return m.player.PlayTrack(ctx, idx) })
		}
		return m, nil

	case "up", "ctrl+p":
		if m.filterCursor > 0 {
			m.filterCursor--
		}
		return m, nil

	case "down", "ctrl+n":
		if m.filterCursor < len(m.matches)-1 {
			m.filterCursor++
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.matches = matchTracks(m.tracks, m.filterInput.Value())
	if m.filterCursor >= len(m.matches) {
		m.filterCursor = 0
	}
	return m, cmd
}

// matchTracks returns the indices of tracks whose title, artist or album
// contains every word of query.
func matchTracks(tracks []*core.Track, query string) []int {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return nil
	}

	var out []int
	for i, t := range tracks {
		hay := strings.ToLower(t.Title + " " + t.Artist + " " + t.Album)
		ok := true
		for _, w := range words {
			if !strings.Contains(hay, w) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, i)
		}
	}
	return out
}

func (m Model) copyNowPlaying() tea.Cmd {
	if !m.snap.HasTrack() {
		return nil
	}
	label := m.snap.Track.Label()
	write := m.copyText
	return func() tea.Msg {
		if err := write(label); err != nil {
			return errMsg(fmt.Errorf("copy to clipboard: %w", err))
		}
		return noticeMsg("Copied: " + label)
	}
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.showFilter {
		return m.renderFilter()
	}

	leftWidth := m.leftWidth()
	rightWidth := m.width - leftWidth - 2
	topHeight := m.height * 40 / 100
	bottomHeight := m.height - topHeight - 2

	nowPlaying := m.nowPlaying.Render(m.snap, leftWidth-2, topHeight-2, m.focusedPanel == PanelNowPlaying)
	queueView := m.queueView.Render(m.snap, m.tracks, leftWidth-2, bottomHeight-2, m.focusedPanel == PanelQueue)
	sessionView := m.sessionView.Render(m.snap, rightWidth-2, topHeight-2, m.focusedPanel == PanelSession)
	historyView := m.historyView.Render(rightWidth-2, bottomHeight-2, m.focusedPanel == PanelHistory)

	leftCol := lipgloss.JoinVertical(lipgloss.Left, nowPlaying, queueView)
	rightCol := lipgloss.JoinVertical(lipgloss.Left, sessionView, historyView)
	main := lipgloss.JoinHorizontal(lipgloss.Top, leftCol, rightCol)

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) renderStatusBar() string {
	status := styles.Dim.Render("q:quit  ?:help  /:jump  space:play/pause  n/p:next/prev  s:shuffle  ←/→:seek  tab:panel")
	if m.opts.PlaylistTitle != "" {
		status = styles.Highlight.Render(m.opts.PlaylistTitle) + "  " + status
	}

	switch {
	case m.lastError != nil:
		status = styles.ErrorText.Render("Error: " + m.lastError.Error())
	case m.notice != "":
		status = styles.Playing.Render(m.notice)
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status)
}

func (m Model) renderHelp() string {
	title := "plexplay - Keyboard Shortcuts"
	divider := strings.Repeat("═", len(title))

	help := `
  ` + title + `
  ` + divider + `

  Global
  ──────
  q, Ctrl+C    Quit
  ?            Toggle help
  /            Jump to track
  Tab          Next panel
  Shift+Tab    Previous panel
  y            Copy now playing

  Playback
  ────────
  Space, k     Play/Pause
  n            Next track
  p            Previous track
  s            Toggle shuffle
  r            Retry current track

  Seeking
  ───────
  ←/→          Back/forward 5s
  PgUp/PgDn    Forward/back 10%
  Home/End     Start/end of track
  Mouse        Drag the progress bar

  Queue Panel
  ───────────
  j/↓          Select next
  ↑            Select previous
  Enter        Play selected

  Press ? or Esc to close
`

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Render(help))
}

func (m Model) renderFilter() string {
	var b strings.Builder

	b.WriteString(styles.Highlight.Render("Jump to track"))
	b.WriteString("\n\n")
	b.WriteString(m.filterInput.View())
	b.WriteString("\n\n")

	switch {
	case len(m.matches) == 0 && m.filterInput.Value() != "":
		b.WriteString(styles.Muted.Render("No matching tracks"))
	default:
		for i, idx := range m.matches {
			if i >= maxMatches {
				b.WriteString(styles.Muted.Render(fmt.Sprintf("  ...and %d more", len(m.matches)-maxMatches)))
				break
			}
			t := m.tracks[idx]
			line := t.Title
			if t.Artist != "" {
				line += " " + styles.Muted.Render(t.Artist)
			}
			if i == m.filterCursor {
				b.WriteString(styles.Selected.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styles.Muted.Render("↑/↓:nav  Enter:play  Esc:close"))

	content := lipgloss.NewStyle().
		Width(60).
		Padding(1, 2).
		Render(b.String())

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.FocusedBorder.Render(content))
}

// Run starts the dashboard and blocks until the user quits or ctx ends.
func Run(ctx context.Context, player Player, opts Options) error {
	model := NewModel(ctx, player, opts)
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
