package playback

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/rs/zerolog"

	"github.com/tessro/plexplay/internal/core"
	"github.com/tessro/plexplay/internal/seek"
	"github.com/tessro/plexplay/internal/stream"
	"github.com/tessro/plexplay/internal/telemetry"
)

const (
	busyLoading    = "Loading track…"
	busyRecovering = "Recovering stream…"
	busyBuffering  = "Buffering…"
)

// Config holds the playback policy.
type Config struct {
	MaxAttempts            int
	MaxConsecutiveFailures int
	BackoffBase            time.Duration
	BackoffMax             time.Duration
	PrewarmThreshold       time.Duration
	Shuffle                bool
	SeekStep               time.Duration
	PageFraction           float64
}

// DefaultConfig returns the standard playback policy.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:            stream.DefaultAttempts,
		MaxConsecutiveFailures: 4,
		BackoffBase:            stream.DefaultBackoffBase,
		BackoffMax:             stream.DefaultBackoffMax,
		PrewarmThreshold:       7 * time.Second,
		SeekStep:               seek.DefaultStep,
		PageFraction:           seek.DefaultPageFraction,
	}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithMetrics records playback counters.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithRand sets the shuffle source.
func WithRand(rng *rand.Rand) Option {
	return func(o *Orchestrator) {
		o.rng = rng
	}
}

// WithResolverOptions passes extra options to the stream resolver.
func WithResolverOptions(opts ...stream.Option) Option {
	return func(o *Orchestrator) {
		o.resolverOpts = append(o.resolverOpts, opts...)
	}
}

// Orchestrator owns the play order and drives the sink. All track switches
// share one single-flight guard; requests made while a switch is in flight
// are dropped.
type Orchestrator struct {
	sink     core.Sink
	resolver *stream.Resolver
	seeker   *seek.Controller
	cfg      Config
	logger   zerolog.Logger
	metrics  *telemetry.Metrics
	rng      *rand.Rand

	resolverOpts []stream.Option

	switchGuard *Guard
	healGuard   *Guard
	// attachMu serializes source replacement between switches and heals.
	attachMu sync.Mutex

	mu           sync.Mutex
	tracks       []*core.Track
	tracksHash   uint64
	order        *core.Order
	session      *Session
	state        core.State
	status       core.Status
	busy         string
	downloaded   uint64
	cancelSwitch context.CancelFunc
}

// New creates an orchestrator that resolves streams through minter and plays
// them on sink.
func New(sink core.Sink, minter stream.TicketMinter, cfg Config, opts ...Option) *Orchestrator {
	d := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = d.MaxAttempts
	}
	if cfg.MaxConsecutiveFailures <= 0 {
		cfg.MaxConsecutiveFailures = d.MaxConsecutiveFailures
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = d.BackoffBase
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = d.BackoffMax
	}
	if cfg.PrewarmThreshold <= 0 {
		cfg.PrewarmThreshold = d.PrewarmThreshold
	}

	o := &Orchestrator{
		sink:        sink,
		cfg:         cfg,
		logger:      zerolog.Nop(),
		metrics:     telemetry.NewMetrics(),
		switchGuard: NewGuard(),
		healGuard:   NewGuard(),
		order:       core.BuildSequential(0),
		state:       core.StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}

	o.session = newSession(cfg.Shuffle)
	o.logger = o.logger.With().Str("session_id", o.session.ID).Logger()

	ropts := []stream.Option{
		stream.WithAttempts(cfg.MaxAttempts),
		stream.WithBackoff(cfg.BackoffBase, cfg.BackoffMax),
		stream.WithLogger(o.logger),
		stream.WithMetrics(o.metrics),
		stream.WithRetryHook(o.onRetry),
	}
	o.resolver = stream.NewResolver(minter, append(ropts, o.resolverOpts...)...)
	o.seeker = seek.NewController(sink, seek.WithStep(cfg.SeekStep), seek.WithPageFraction(cfg.PageFraction))
	return o
}

// SessionID returns the identifier used in logs for this session.
func (o *Orchestrator) SessionID() string {
	return o.session.ID
}

// Metrics returns the counters this orchestrator records.
func (o *Orchestrator) Metrics() *telemetry.Metrics {
	return o.metrics
}

type trackSet struct {
	IDs []string
}

// Load replaces the track list. When the set of track ids is unchanged the
// current order and playback are kept and Load returns false. Otherwise
// playback stops, the order is rebuilt and the cursor cleared.
func (o *Orchestrator) Load(tracks []*core.Track) bool {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	hash, err := hashstructure.Hash(trackSet{IDs: ids}, hashstructure.FormatV2, nil)
	if err != nil {
		o.logger.Warn().Err(err).Msg("hash track set")
	}

	o.mu.Lock()
	if err == nil && o.tracks != nil && hash == o.tracksHash {
		o.mu.Unlock()
		return false
	}
	if o.cancelSwitch != nil {
		o.cancelSwitch()
		o.cancelSwitch = nil
	}
	o.tracks = tracks
	o.tracksHash = hash
	if o.session.ShuffleOn {
		o.order = core.BuildShuffled(len(tracks), -1, o.rng)
	} else {
		o.order = core.BuildSequential(len(tracks))
	}
	o.state = core.StateIdle
	o.session.ConsecutiveFailures = 0
	o.session.switchGen++
	o.status = core.Status{}
	o.busy = ""
	o.downloaded = 0
	o.mu.Unlock()

	o.sink.Detach()
	o.metrics.ConsecutiveFailures.Set(0)
	o.logger.Info().Int("tracks", len(tracks)).Msg("playlist loaded")
	return true
}

// Tracks returns the loaded track list.
func (o *Orchestrator) Tracks() []*core.Track {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.tracks
}

// Snapshot returns the current session view.
func (o *Orchestrator) Snapshot() core.Snapshot {
	o.mu.Lock()
	snap := core.Snapshot{
		State:      o.state,
		TrackIndex: o.order.Current(),
		Cursor:     o.order.Cursor(),
		Order:      o.order.Indices(),
		Shuffle:    o.session.ShuffleOn,
		Downloaded: o.downloaded,
		Failures:   o.session.ConsecutiveFailures,
		Status:     o.status,
		Busy:       o.busy,
	}
	if idx := snap.TrackIndex; idx >= 0 && idx < len(o.tracks) {
		snap.Track = o.tracks[idx]
	}
	o.mu.Unlock()

	snap.Playing = !o.sink.Paused()
	snap.Position = o.seeker.Position()
	snap.Duration, _ = o.sink.Duration()
	snap.Buffered = o.sink.Buffered()
	return snap
}

// Run consumes sink events until ctx is done. Advances and recoveries
// triggered by sink events run under ctx.
func (o *Orchestrator) Run(ctx context.Context) error {
	events := o.sink.Events()
	for {
		select {
		case <-ctx.Done():
			o.mu.Lock()
			if o.cancelSwitch != nil {
				o.cancelSwitch()
			}
			o.mu.Unlock()
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			o.handleEvent(ctx, ev)
		}
	}
}

func (o *Orchestrator) handleEvent(ctx context.Context, ev core.SinkEvent) {
	if ev.Generation != o.sink.Generation() {
		o.logger.Debug().
			Stringer("event", ev.Kind).
			Uint64("generation", ev.Generation).
			Msg("stale sink event dropped")
		return
	}

	switch ev.Kind {
	case core.SinkStarted:
		o.setStateUnlessBusy(core.StatePlaying)
	case core.SinkPaused:
		o.setStateUnlessBusy(core.StatePaused)
	case core.SinkEnded:
		if o.switchGuard.Busy() {
			return
		}
		go func() {
			if err := o.advance(ctx, 1, false); err != nil {
				o.logger.Debug().Err(err).Msg("advance after end")
			}
		}()
	case core.SinkError:
		go o.heal(ctx, ev)
	case core.SinkBufferingStart:
		o.setBusyIfIdle(busyBuffering)
	case core.SinkBufferingEnd:
		o.clearBusy(busyBuffering)
	case core.SinkDownloadProgress:
		o.mu.Lock()
		o.downloaded = ev.Downloaded
		o.mu.Unlock()
	case core.SinkPositionAdvanced:
		o.maybePrewarm(ctx, ev)
	}
}

// maybePrewarm warms the next track once the current one is nearly done.
func (o *Orchestrator) maybePrewarm(ctx context.Context, ev core.SinkEvent) {
	if ev.Duration <= 0 || ev.Position <= 0 {
		return
	}
	if ev.Duration-ev.Position >= o.cfg.PrewarmThreshold {
		return
	}

	o.mu.Lock()
	if o.state == core.StateStopped || o.order.IsEmpty() {
		o.mu.Unlock()
		return
	}
	idx := o.order.At(o.order.Step(1))
	var next *core.Track
	if idx >= 0 && idx < len(o.tracks) {
		next = o.tracks[idx]
	}
	o.mu.Unlock()

	if _, ok := o.resolver.Prewarm(ctx, next); ok {
		o.logger.Debug().Str("track_id", next.ID).Msg("prewarm issued")
	}
}

func (o *Orchestrator) onRetry(trackID string, attempt int, wait time.Duration, err error) {
	o.mu.Lock()
	if o.state != core.StateStopped {
		o.state = core.StateRetrying
	}
	o.mu.Unlock()
	o.logger.Info().
		Str("track_id", trackID).
		Int("attempt", attempt).
		Dur("wait", wait).
		Err(err).
		Msg("retrying track start")
}

func (o *Orchestrator) setState(s core.State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// setStateUnlessBusy applies sink-driven transitions that must not override
// a switch in progress or a halted session.
func (o *Orchestrator) setStateUnlessBusy(s core.State) {
	if o.switchGuard.Busy() {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == core.StateStopped {
		return
	}
	o.state = s
}

func (o *Orchestrator) setStatus(level core.StatusLevel, msg string) {
	o.mu.Lock()
	o.status = core.Status{Message: msg, Level: level, At: time.Now()}
	o.mu.Unlock()
}

func (o *Orchestrator) setBusyIfIdle(label string) {
	o.mu.Lock()
	if o.busy == "" {
		o.busy = label
	}
	o.mu.Unlock()
}

func (o *Orchestrator) clearBusy(label string) {
	o.mu.Lock()
	if o.busy == label {
		o.busy = ""
	}
	o.mu.Unlock()
}

var _ core.Player = (*Orchestrator)(nil)
