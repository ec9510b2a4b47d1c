package playback

import (
	"context"
	"fmt"
	"time"

	"github.com/tessro/plexplay/internal/core"
	"github.com/tessro/plexplay/internal/seek"
)

// SetScrubSurface tells the seek controller where the scrub bar is drawn.
func (o *Orchestrator) SetScrubSurface(s seek.Surface) {
	o.seeker.SetSurface(s)
}

// ScrubSurface returns the scrub bar geometry.
func (o *Orchestrator) ScrubSurface() seek.Surface {
	return o.seeker.Surface()
}

// Scrubbing reports whether a pointer drag is in progress.
func (o *Orchestrator) Scrubbing() bool {
	return o.seeker.Dragging()
}

// SeekTo jumps to pos in the current track.
func (o *Orchestrator) SeekTo(_ context.Context, pos time.Duration) error {
	if !o.sink.HasSource() {
		return nil
	}
	return o.reportSeek(o.seeker.SeekTo(pos))
}

// SeekByPointer feeds one phase of a scrub gesture at surface coordinate x.
func (o *Orchestrator) SeekByPointer(ctx context.Context, x float64, phase core.SeekPhase) error {
	if !o.sink.HasSource() {
		if phase == core.PointerUp {
			o.seeker.Abort()
		}
		return nil
	}
	switch phase {
	case core.PointerDown:
		o.seeker.PointerDown(x)
	case core.PointerMove:
		o.seeker.PointerMove(x)
	case core.PointerUp:
		return o.reportSeek(o.seeker.PointerUp(ctx, x))
	}
	return nil
}

// SeekKey applies a keyboard seek. It reports whether the key was a seek key.
func (o *Orchestrator) SeekKey(_ context.Context, key string) (bool, error) {
	if !o.sink.HasSource() {
		return false, nil
	}
	handled, err := o.seeker.Key(key)
	return handled, o.reportSeek(err)
}

func (o *Orchestrator) reportSeek(err error) error {
	if err != nil {
		o.setStatus(core.StatusError, fmt.Sprintf("Seek failed: %v", err))
		o.logger.Debug().Err(err).Msg("seek failed")
	}
	return err
}
