package stream

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tessro/plexplay/internal/core"
	perrors "github.com/tessro/plexplay/internal/errors"
	"github.com/tessro/plexplay/internal/telemetry"
)

const (
	// DefaultAttempts is the number of mint-and-start attempts per track.
	DefaultAttempts = 2
	// DefaultBackoffBase is multiplied by the attempt number between attempts.
	DefaultBackoffBase = 1500 * time.Millisecond
	// DefaultBackoffMax caps the wait between attempts.
	DefaultBackoffMax = 3000 * time.Millisecond

	prewarmTimeout = 10 * time.Second
)

// TicketMinter issues single-use stream tickets.
type TicketMinter interface {
	MintTicket(ctx context.Context, trackID string) (string, error)
	StreamURL(ticket, trackID string) string
}

// RetryHook is called before the resolver waits for another attempt.
type RetryHook func(trackID string, attempt int, wait time.Duration, err error)

// Resolver turns track ids into playable stream references. Every attempt
// mints a fresh ticket; tickets are never reused.
type Resolver struct {
	minter   TicketMinter
	attempts int
	base     time.Duration
	max      time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	onRetry  RetryHook
	logger   zerolog.Logger
	metrics  *telemetry.Metrics
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithAttempts sets how many attempts Resolve and Start make.
func WithAttempts(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.attempts = n
		}
	}
}

// WithBackoff sets the linear backoff step and its cap.
func WithBackoff(base, max time.Duration) Option {
	return func(r *Resolver) {
		r.base = base
		r.max = max
	}
}

// WithSleep replaces the wait between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Resolver) {
		r.sleep = sleep
	}
}

// WithRetryHook registers a callback invoked before each backoff wait.
func WithRetryHook(hook RetryHook) Option {
	return func(r *Resolver) {
		r.onRetry = hook
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithMetrics records ticket outcomes.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// NewResolver creates a resolver backed by minter.
func NewResolver(minter TicketMinter, opts ...Option) *Resolver {
	r := &Resolver{
		minter:   minter,
		attempts: DefaultAttempts,
		base:     DefaultBackoffBase,
		max:      DefaultBackoffMax,
		sleep:    sleepContext,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Attempts returns the configured attempt count.
func (r *Resolver) Attempts() int {
	return r.attempts
}

// Backoff returns the wait after the given failed attempt (1-based).
func (r *Resolver) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := r.base * time.Duration(attempt)
	if r.max > 0 && d > r.max {
		d = r.max
	}
	return d
}

// Mint makes a single ticket request for trackID.
func (r *Resolver) Mint(ctx context.Context, trackID string) (core.Reference, error) {
	if trackID == "" {
		return core.Reference{}, perrors.ErrInvalidSelection
	}
	ticket, err := r.minter.MintTicket(ctx, trackID)
	if err != nil {
		r.countMint("error")
		return core.Reference{}, err
	}
	r.countMint("ok")
	return core.Reference{
		TrackID: trackID,
		Ticket:  ticket,
		URL:     r.minter.StreamURL(ticket, trackID),
	}, nil
}

// Resolve mints a reference for trackID, retrying with backoff.
func (r *Resolver) Resolve(ctx context.Context, trackID string) (core.Reference, error) {
	return r.Start(ctx, trackID, nil)
}

// Start mints a reference and hands it to use, retrying both steps together.
// A failing use counts as a failed attempt and the next attempt mints a new
// ticket. After the last attempt the error wraps ErrStreamUnavailable and the
// last cause.
func (r *Resolver) Start(ctx context.Context, trackID string, use func(context.Context, core.Reference) error) (core.Reference, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		ref, err := r.Mint(ctx, trackID)
		if err == nil && use != nil {
			err = use(ctx, ref)
		}
		if err == nil {
			return ref, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return core.Reference{}, ctx.Err()
		}

		r.logger.Debug().
			Str("track_id", trackID).
			Int("attempt", attempt).
			Int("max", r.attempts).
			Err(err).
			Msg("stream attempt failed")

		if attempt == r.attempts {
			break
		}
		wait := r.Backoff(attempt)
		if r.onRetry != nil {
			r.onRetry(trackID, attempt, wait, err)
		}
		if err := r.sleep(ctx, wait); err != nil {
			return core.Reference{}, err
		}
	}

	return core.Reference{}, &perrors.StreamUnavailableError{
		TrackID:  trackID,
		Attempts: r.attempts,
		Cause:    lastErr,
	}
}

// Prewarm asks the proxy to mint a ticket for t in the background so the
// upcoming start is fast. It runs at most once per track and reports whether
// a request was issued. The returned channel closes when the request ends.
func (r *Resolver) Prewarm(ctx context.Context, t *core.Track) (<-chan struct{}, bool) {
	if !t.Playable() || !t.MarkPrewarmed() {
		return nil, false
	}
	if r.metrics != nil {
		r.metrics.Prewarms.Inc()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), prewarmTimeout)
		defer cancel()
		if _, err := r.Mint(ctx, t.ID); err != nil {
			r.logger.Debug().Str("track_id", t.ID).Err(err).Msg("prewarm failed")
			return
		}
		r.logger.Debug().Str("track_id", t.ID).Msg("prewarmed")
	}()
	return done, true
}

func (r *Resolver) countMint(outcome string) {
	if r.metrics != nil {
		r.metrics.TicketMints.WithLabelValues(outcome).Inc()
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
