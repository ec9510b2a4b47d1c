package playback

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/tessro/plexplay/internal/core"
	"github.com/tessro/plexplay/internal/stream"
)

type fakeSink struct {
	mu        sync.Mutex
	gen       uint64
	current   *core.Reference
	attached  []core.Reference
	playing   bool
	pos       time.Duration
	dur       time.Duration
	seeks     []time.Duration
	failTrack map[string]bool
	events    chan core.SinkEvent
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		dur:       3 * time.Minute,
		failTrack: map[string]bool{},
		events:    make(chan core.SinkEvent, 16),
	}
}

func (s *fakeSink) Attach(_ context.Context, ref core.Reference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.current = nil
	s.playing = false
	s.pos = 0
	if s.failTrack[ref.TrackID] {
		return fmt.Errorf("stream request failed: 410 Gone")
	}
	r := ref
	s.current = &r
	s.attached = append(s.attached, ref)
	return nil
}

func (s *fakeSink) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.current = nil
	s.playing = false
}

func (s *fakeSink) Play(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return errors.New("no source attached")
	}
	s.playing = true
	return nil
}

func (s *fakeSink) Pause() {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
}

func (s *fakeSink) Seek(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return errors.New("no source attached")
	}
	s.pos = pos
	s.seeks = append(s.seeks, pos)
	return nil
}

func (s *fakeSink) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

func (s *fakeSink) Duration() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return 0, false
	}
	return s.dur, true
}

func (s *fakeSink) Buffered() time.Duration {
	d, _ := s.Duration()
	return d
}

func (s *fakeSink) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.playing
}

func (s *fakeSink) HasSource() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

func (s *fakeSink) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *fakeSink) Events() <-chan core.SinkEvent {
	return s.events
}

func (s *fakeSink) setPosition(pos time.Duration) {
	s.mu.Lock()
	s.pos = pos
	s.mu.Unlock()
}

func (s *fakeSink) currentTrack() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.TrackID
}

func (s *fakeSink) attachCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attached)
}

func (s *fakeSink) emit(kind core.SinkEventKind, ev core.SinkEvent) {
	ev.Kind = kind
	ev.Generation = s.Generation()
	s.events <- ev
}

type fakeMinter struct {
	mu      sync.Mutex
	calls   []string
	failing map[string]bool
	flaky   map[string]int
	gate    chan struct{}
	gateFor string
	entered chan string
	issued  int
}

func newFakeMinter() *fakeMinter {
	return &fakeMinter{failing: map[string]bool{}, flaky: map[string]int{}}
}

func (m *fakeMinter) MintTicket(ctx context.Context, trackID string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, trackID)
	gate, entered := m.gate, m.entered
	if m.gateFor != "" && m.gateFor != trackID {
		gate, entered = nil, nil
	}
	fail := m.failing[trackID]
	if m.flaky[trackID] > 0 {
		m.flaky[trackID]--
		fail = true
	}
	m.mu.Unlock()

	if entered != nil {
		entered <- trackID
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if fail {
		return "", errors.New("stream ticket: plex API error 503: Service Unavailable")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.issued++
	return fmt.Sprintf("tkt-%d", m.issued), nil
}

func (m *fakeMinter) StreamURL(ticket, trackID string) string {
	return "http://proxy/plexproxy/api/stream/" + ticket + "?rk=" + trackID
}

func (m *fakeMinter) fail(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		m.failing[id] = true
	}
}

func (m *fakeMinter) restore(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.failing, id)
	}
}

func (m *fakeMinter) callsFor(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == id {
			n++
		}
	}
	return n
}

func (m *fakeMinter) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func makeTracks(n int) []*core.Track {
	tracks := make([]*core.Track, n)
	for i := range tracks {
		tracks[i] = &core.Track{ID: fmt.Sprintf("t%d", i), Title: fmt.Sprintf("Track %d", i)}
	}
	return tracks
}

type harness struct {
	o      *Orchestrator
	sink   *fakeSink
	minter *fakeMinter
	cancel context.CancelFunc
}

func newHarness(t *testing.T, n int, cfg Config) *harness {
	t.Helper()
	sink := newFakeSink()
	minter := newFakeMinter()
	o := New(sink, minter, cfg,
		WithRand(rand.New(rand.NewPCG(1, 1))),
		WithResolverOptions(stream.WithSleep(noSleep)),
	)
	o.Load(makeTracks(n))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = o.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return &harness{o: o, sink: sink, minter: minter, cancel: cancel}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
