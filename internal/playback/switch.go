package playback

import (
	"context"
	"fmt"

	"github.com/tessro/plexplay/internal/core"
	perrors "github.com/tessro/plexplay/internal/errors"
)

// PlayAtPosition starts the track at order position pos. Positions outside
// the order are ignored. The call is dropped if another switch is in flight.
// ctx bounds the whole switch, including retries and skips.
func (o *Orchestrator) PlayAtPosition(ctx context.Context, pos int) error {
	o.mu.Lock()
	inRange := pos >= 0 && pos < o.order.Len()
	o.mu.Unlock()
	if !inRange {
		return nil
	}

	release, ok := o.acquireSwitch("select")
	if !ok {
		return nil
	}
	defer release()

	o.resumeIfStopped()
	return o.switchTo(ctx, pos)
}

// PlayTrack starts the track with the given playlist index.
func (o *Orchestrator) PlayTrack(ctx context.Context, trackIndex int) error {
	o.mu.Lock()
	pos := o.order.PositionOf(trackIndex)
	o.mu.Unlock()
	if pos < 0 {
		return nil
	}
	return o.PlayAtPosition(ctx, pos)
}

// Advance moves delta positions through the order, wrapping at both ends.
// Calls made while a switch is in flight are dropped.
func (o *Orchestrator) Advance(ctx context.Context, delta int) error {
	return o.advance(ctx, delta, true)
}

// Retry restarts the current track when playback is not running, for use
// after connectivity returns.
func (o *Orchestrator) Retry(ctx context.Context) error {
	o.mu.Lock()
	cursor := o.order.Cursor()
	o.mu.Unlock()
	if cursor < 0 || !o.sink.Paused() {
		return nil
	}
	return o.PlayAtPosition(ctx, cursor)
}

func (o *Orchestrator) advance(ctx context.Context, delta int, user bool) error {
	release, ok := o.acquireSwitch("advance")
	if !ok {
		return nil
	}
	defer release()

	o.mu.Lock()
	stopped := o.state == core.StateStopped
	pos := o.order.Step(delta)
	o.mu.Unlock()

	if pos < 0 {
		return nil
	}
	if stopped {
		if !user {
			return nil
		}
		o.resumeIfStopped()
	}
	return o.switchTo(ctx, pos)
}

func (o *Orchestrator) acquireSwitch(reason string) (func(), bool) {
	release, ok := o.switchGuard.TryAcquire()
	if !ok {
		o.metrics.DroppedSwitches.Inc()
		o.logger.Debug().Str("reason", reason).Msg("switch in flight, request dropped")
		return nil, false
	}
	return release, true
}

// resumeIfStopped clears a halted session so a user action can start again.
func (o *Orchestrator) resumeIfStopped() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != core.StateStopped {
		return
	}
	o.state = core.StateIdle
	o.session.ConsecutiveFailures = 0
	o.status = core.Status{}
	o.metrics.ConsecutiveFailures.Set(0)
}

// Reset cancels any in-flight switch and clears a halted session.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	if o.cancelSwitch != nil {
		o.cancelSwitch()
		o.cancelSwitch = nil
	}
	o.mu.Unlock()
	o.resumeIfStopped()
}

// switchTo plays the track at pos. On failure it skips forward through the
// order until a track starts or the failure limit is reached. The caller
// holds the switch guard.
func (o *Orchestrator) switchTo(ctx context.Context, pos int) error {
	ctx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancelSwitch = cancel
	o.mu.Unlock()
	defer func() {
		cancel()
		o.mu.Lock()
		o.busy = ""
		o.mu.Unlock()
	}()

	for {
		track, ok := o.selectPosition(pos)
		if !ok {
			return nil
		}
		log := o.logger.With().Int("position", pos).Str("track_id", track.ID).Logger()

		if !track.Playable() {
			o.setState(core.StateIdle)
			o.setStatus(core.StatusError, "Selected track missing a valid stream reference.")
			log.Warn().Msg("selected track has no id")
			return perrors.NewPlayerError(perrors.KindSelection, "", nil)
		}

		o.sink.Detach()
		_, err := o.resolver.Start(ctx, track.ID, func(ctx context.Context, ref core.Reference) error {
			o.setState(core.StateResolving)
			o.attachMu.Lock()
			defer o.attachMu.Unlock()
			if err := o.sink.Attach(ctx, ref); err != nil {
				return err
			}
			return o.sink.Play(ctx)
		})
		if err == nil {
			o.mu.Lock()
			o.session.ConsecutiveFailures = 0
			o.state = core.StatePlaying
			o.mu.Unlock()
			o.metrics.TrackStarts.Inc()
			o.metrics.ConsecutiveFailures.Set(0)
			log.Info().Str("title", track.Title).Msg("track started")
			return nil
		}
		if ctx.Err() != nil {
			log.Debug().Err(err).Msg("switch cancelled")
			return ctx.Err()
		}

		o.metrics.ResolutionFailures.Inc()
		failure := perrors.NewPlayerError(perrors.KindResolution, track.ID, err)

		o.mu.Lock()
		o.session.ConsecutiveFailures++
		n := o.session.ConsecutiveFailures
		o.status = core.Status{Message: fmt.Sprintf("Track failed: %v", err), Level: core.StatusError}
		halted := n >= o.cfg.MaxConsecutiveFailures
		if halted {
			o.state = core.StateStopped
			o.status = core.Status{Message: fmt.Sprintf("Stopped after %d consecutive errors.", n), Level: core.StatusError}
		}
		next := o.order.Step(1)
		o.mu.Unlock()

		o.metrics.ConsecutiveFailures.Set(float64(n))
		log.Warn().Err(failure).Int("consecutive_failures", n).Msg("track failed")

		if halted {
			o.sink.Pause()
			o.metrics.SessionHalts.Inc()
			log.Error().Int("consecutive_failures", n).Msg("session halted")
			return perrors.NewPlayerError(perrors.KindHalted, track.ID, failure)
		}
		pos = next
	}
}

// selectPosition moves the cursor to pos and marks a switch as started. Any
// scrub in progress belonged to the previous source and is dropped.
func (o *Orchestrator) selectPosition(pos int) (*core.Track, bool) {
	o.seeker.Abort()

	o.mu.Lock()
	defer o.mu.Unlock()

	idx := o.order.At(pos)
	if idx < 0 || idx >= len(o.tracks) {
		return nil, false
	}
	o.order = o.order.WithCursor(pos)
	o.session.switchGen++
	o.state = core.StateResolving
	o.status = core.Status{}
	o.busy = busyLoading
	o.downloaded = 0
	return o.tracks[idx], true
}

// TogglePlayPause pauses or resumes playback. With nothing attached it
// starts the track under the cursor, or the first position. It does nothing
// while a switch or recovery is in flight.
func (o *Orchestrator) TogglePlayPause(ctx context.Context) error {
	if o.switchGuard.Busy() || o.healGuard.Busy() {
		return nil
	}

	o.mu.Lock()
	stopped := o.state == core.StateStopped
	start := o.order.Cursor()
	o.mu.Unlock()
	if start < 0 {
		start = 0
	}

	if stopped || !o.sink.HasSource() {
		o.resumeIfStopped()
		return o.PlayAtPosition(ctx, start)
	}

	if !o.sink.Paused() {
		o.sink.Pause()
		o.setState(core.StatePaused)
		return nil
	}
	if err := o.sink.Play(ctx); err != nil {
		o.setStatus(core.StatusError, fmt.Sprintf("Play/pause failed: %v", err))
		return err
	}
	o.setState(core.StatePlaying)
	return nil
}

// ToggleShuffle flips shuffle mode and rebuilds the order around the current
// track. Turning shuffle on moves playback to the next position of the new
// order; turning it off keeps the current track playing.
func (o *Orchestrator) ToggleShuffle(ctx context.Context) error {
	o.mu.Lock()
	current := o.order.Current()
	turningOn := !o.session.ShuffleOn
	o.session.ShuffleOn = turningOn
	n := len(o.tracks)
	if turningOn {
		o.order = core.BuildShuffled(n, current, o.rng)
	} else {
		seq := core.BuildSequential(n)
		o.order = seq.WithCursor(seq.PositionOf(current))
	}
	length := o.order.Len()
	o.mu.Unlock()

	o.logger.Info().Bool("shuffle", turningOn).Msg("shuffle toggled")

	if !turningOn || current < 0 {
		return nil
	}
	next := 0
	if length > 1 {
		next = 1
	}
	return o.PlayAtPosition(ctx, next)
}
