package playback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tessro/plexplay/internal/core"
	perrors "github.com/tessro/plexplay/internal/errors"
)

var errSuperseded = errors.New("recovery superseded by track switch")

// heal recovers from a mid-stream sink fault by minting a new reference for
// the same track and resuming where playback stopped. It never advances to
// another track; on failure it reports the error and leaves playback paused.
func (o *Orchestrator) heal(ctx context.Context, ev core.SinkEvent) {
	if o.switchGuard.Busy() {
		return
	}
	release, ok := o.healGuard.TryAcquire()
	if !ok {
		o.logger.Debug().Msg("recovery already in progress, fault dropped")
		return
	}
	defer release()

	o.mu.Lock()
	idx := o.order.Current()
	if o.state == core.StateStopped || idx < 0 || idx >= len(o.tracks) {
		o.mu.Unlock()
		return
	}
	track := o.tracks[idx]
	gen := o.session.switchGen
	o.busy = busyRecovering
	o.mu.Unlock()

	resumeAt := ev.Position
	if resumeAt <= 0 {
		resumeAt = o.sink.Position()
	}

	log := o.logger.With().Str("track_id", track.ID).Dur("resume_at", resumeAt).Logger()
	log.Warn().AnErr("cause", ev.Err).Msg("stream fault, recovering")

	err := o.reattach(ctx, track, gen, resumeAt)
	if err != nil && o.superseded(gen) {
		// The track under the cursor is no longer the one that faulted.
		err = errSuperseded
	}

	o.mu.Lock()
	if o.busy == busyRecovering {
		o.busy = ""
	}
	o.mu.Unlock()

	switch {
	case err == nil:
		o.setStateUnlessBusy(core.StatePlaying)
		o.metrics.Heals.WithLabelValues("ok").Inc()
		log.Info().Msg("stream recovered")
	case errors.Is(err, errSuperseded):
		o.metrics.Heals.WithLabelValues("superseded").Inc()
		log.Debug().Msg("recovery discarded")
	default:
		fault := perrors.NewPlayerError(perrors.KindMidStream, track.ID, err)
		o.sink.Pause()
		o.setStatus(core.StatusError, fmt.Sprintf("Stream error: %v", err))
		o.setStateUnlessBusy(core.StatePaused)
		o.metrics.Heals.WithLabelValues("failed").Inc()
		log.Error().Err(fault).Msg("recovery failed")
	}
}

func (o *Orchestrator) reattach(ctx context.Context, track *core.Track, gen uint64, resumeAt time.Duration) error {
	if !track.Playable() {
		return perrors.ErrInvalidSelection
	}
	ref, err := o.resolver.Mint(ctx, track.ID)
	if err != nil {
		return err
	}

	o.attachMu.Lock()
	defer o.attachMu.Unlock()

	if o.superseded(gen) {
		return errSuperseded
	}
	if err := o.sink.Attach(ctx, ref); err != nil {
		return err
	}
	if resumeAt > 0 {
		if err := o.seeker.SeekTo(resumeAt); err != nil {
			o.logger.Debug().Err(err).Msg("resume seek failed")
		}
	}
	if o.superseded(gen) {
		return errSuperseded
	}
	return o.sink.Play(ctx)
}

func (o *Orchestrator) superseded(gen uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session.switchGen != gen
}
