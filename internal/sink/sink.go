package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/tessro/plexplay/internal/core"
)

const (
	eventBuffer      = 64
	progressStep     = 256 << 10
	defaultTick      = 250 * time.Millisecond
	criticalSendWait = 2 * time.Second
)

var (
	errNoSource = errors.New("no source attached")
	errDetached = errors.New("source detached while loading")
)

// output decodes audio and plays it on a device.
type output interface {
	load(data []byte, onEnd func()) (track, error)
}

// track is one decoded source on an output. Methods must be safe for
// concurrent use.
type track interface {
	play()
	pause()
	paused() bool
	position() time.Duration
	duration() time.Duration
	seek(pos time.Duration) error
	err() error
	close()
}

// Sink plays one stream reference at a time and reports lifecycle events on
// a single channel. Every event carries the generation of the source that
// produced it.
type Sink struct {
	client *http.Client
	logger zerolog.Logger
	tick   time.Duration
	out    output
	outErr error

	events chan core.SinkEvent
	closed chan struct{}
	once   sync.Once

	mu  sync.Mutex
	gen uint64
	src *source
}

type source struct {
	gen        uint64
	ref        core.Reference
	tr         track
	downloaded uint64
	stop       context.CancelFunc
}

// Option configures a Sink.
type Option func(*Sink)

// WithHTTPClient sets the client used to download streams.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Sink) {
		if hc != nil {
			s.client = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Sink) {
		s.logger = logger
	}
}

// WithTickInterval sets how often position events are emitted while playing.
func WithTickInterval(d time.Duration) Option {
	return func(s *Sink) {
		if d > 0 {
			s.tick = d
		}
	}
}

func withOutput(out output) Option {
	return func(s *Sink) {
		s.out = out
		s.outErr = nil
	}
}

// New creates a sink on the default audio device.
func New(opts ...Option) *Sink {
	s := &Sink{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: 15 * time.Second,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		logger: zerolog.Nop(),
		tick:   defaultTick,
		events: make(chan core.SinkEvent, eventBuffer),
		closed: make(chan struct{}),
	}
	s.out, s.outErr = newOutput()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events returns the lifecycle event channel.
func (s *Sink) Events() <-chan core.SinkEvent {
	return s.events
}

// Generation returns the number of the current source. It changes on every
// Attach and Detach.
func (s *Sink) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Attach detaches the current source, downloads ref and decodes it. The new
// source starts paused.
func (s *Sink) Attach(ctx context.Context, ref core.Reference) error {
	if s.outErr != nil {
		return s.outErr
	}

	s.mu.Lock()
	s.detachLocked()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.emit(core.SinkEvent{Kind: core.SinkBufferingStart, Generation: gen}, false)

	data, err := s.fetch(ctx, ref.URL, gen)
	if err != nil {
		s.emit(core.SinkEvent{Kind: core.SinkBufferingEnd, Generation: gen}, false)
		return err
	}

	tr, err := s.out.load(data, func() {
		s.emit(core.SinkEvent{Kind: core.SinkEnded, Generation: gen}, true)
	})
	if err != nil {
		s.emit(core.SinkEvent{Kind: core.SinkBufferingEnd, Generation: gen}, false)
		return fmt.Errorf("decode stream: %w", err)
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		tr.close()
		return errDetached
	}
	tickCtx, stop := context.WithCancel(context.Background())
	s.src = &source{
		gen:        gen,
		ref:        ref,
		tr:         tr,
		downloaded: uint64(len(data)),
		stop:       stop,
	}
	s.mu.Unlock()

	s.logger.Debug().
		Str("track_id", ref.TrackID).
		Uint64("generation", gen).
		Str("size", humanize.Bytes(uint64(len(data)))).
		Dur("duration", tr.duration()).
		Msg("source attached")

	s.emit(core.SinkEvent{Kind: core.SinkBufferingEnd, Generation: gen, Downloaded: uint64(len(data))}, false)
	s.emit(core.SinkEvent{Kind: core.SinkDurationKnown, Generation: gen, Duration: tr.duration()}, false)

	go s.watch(tickCtx, gen, tr)
	return nil
}

// fetch downloads the stream into memory, reporting progress.
func (s *Sink) fetch(ctx context.Context, url string, gen uint64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create stream request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("stream request failed: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var buf bytes.Buffer
	if resp.ContentLength > 0 {
		buf.Grow(int(resp.ContentLength))
	}
	pw := &progressWriter{sink: s, gen: gen}
	if _, err := io.Copy(io.MultiWriter(&buf, pw), resp.Body); err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}
	return buf.Bytes(), nil
}

type progressWriter struct {
	sink     *Sink
	gen      uint64
	total    uint64
	reported uint64
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.total += uint64(len(b))
	if p.total-p.reported >= progressStep {
		p.reported = p.total
		p.sink.emit(core.SinkEvent{Kind: core.SinkDownloadProgress, Generation: p.gen, Downloaded: p.total}, false)
	}
	return len(b), nil
}

// watch emits position ticks and decoder errors for one source.
func (s *Sink) watch(ctx context.Context, gen uint64, tr track) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closed:
			return
		case <-ticker.C:
			if err := tr.err(); err != nil {
				tr.pause()
				s.emit(core.SinkEvent{Kind: core.SinkError, Generation: gen, Position: tr.position(), Err: err}, true)
				return
			}
			if !tr.paused() {
				s.emit(core.SinkEvent{
					Kind:       core.SinkPositionAdvanced,
					Generation: gen,
					Position:   tr.position(),
					Duration:   tr.duration(),
				}, false)
			}
		}
	}
}

// Detach stops playback and discards the current source.
func (s *Sink) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detachLocked()
	s.gen++
}

func (s *Sink) detachLocked() {
	if s.src == nil {
		return
	}
	s.src.stop()
	s.src.tr.close()
	s.src = nil
}

func (s *Sink) current() (*source, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src, s.gen
}

// Play starts or resumes the current source.
func (s *Sink) Play(ctx context.Context) error {
	src, _ := s.current()
	if src == nil {
		return errNoSource
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	src.tr.play()
	s.emit(core.SinkEvent{Kind: core.SinkStarted, Generation: src.gen, Position: src.tr.position()}, false)
	return nil
}

// Pause pauses the current source.
func (s *Sink) Pause() {
	src, _ := s.current()
	if src == nil || src.tr.paused() {
		return
	}
	src.tr.pause()
	s.emit(core.SinkEvent{Kind: core.SinkPaused, Generation: src.gen, Position: src.tr.position()}, false)
}

// Seek moves the current source to pos.
func (s *Sink) Seek(pos time.Duration) error {
	src, _ := s.current()
	if src == nil {
		return errNoSource
	}
	return src.tr.seek(pos)
}

// Position returns the playback position of the current source.
func (s *Sink) Position() time.Duration {
	src, _ := s.current()
	if src == nil {
		return 0
	}
	return src.tr.position()
}

// Duration returns the length of the current source.
func (s *Sink) Duration() (time.Duration, bool) {
	src, _ := s.current()
	if src == nil {
		return 0, false
	}
	d := src.tr.duration()
	return d, d > 0
}

// Buffered returns how much of the source is available locally. Sources are
// fully downloaded before they play.
func (s *Sink) Buffered() time.Duration {
	d, _ := s.Duration()
	return d
}

// Downloaded returns the byte size of the current source.
func (s *Sink) Downloaded() uint64 {
	src, _ := s.current()
	if src == nil {
		return 0
	}
	return src.downloaded
}

// Paused reports whether the sink is not producing audio.
func (s *Sink) Paused() bool {
	src, _ := s.current()
	return src == nil || src.tr.paused()
}

// HasSource reports whether a source is attached.
func (s *Sink) HasSource() bool {
	src, _ := s.current()
	return src != nil
}

// Close detaches the source and stops emitting events.
func (s *Sink) Close() error {
	s.Detach()
	s.once.Do(func() { close(s.closed) })
	return nil
}

// emit sends an event. Routine events are dropped when the consumer lags;
// critical ones wait briefly.
func (s *Sink) emit(ev core.SinkEvent, critical bool) {
	if !critical {
		select {
		case s.events <- ev:
		default:
			s.logger.Debug().Stringer("event", ev.Kind).Msg("sink event dropped")
		}
		return
	}

	timer := time.NewTimer(criticalSendWait)
	defer timer.Stop()
	select {
	case s.events <- ev:
	case <-s.closed:
	case <-timer.C:
		s.logger.Warn().Stringer("event", ev.Kind).Msg("sink event dropped")
	}
}

var _ core.Sink = (*Sink)(nil)
