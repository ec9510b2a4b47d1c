package core

import (
	"context"
	"time"
)

// Reference is a playable stream location minted for one track.
type Reference struct {
	TrackID string `json:"track_id"`
	Ticket  string `json:"ticket"`
	URL     string `json:"url"`
}

// SinkEventKind identifies a sink lifecycle signal.
type SinkEventKind int

const (
	SinkStarted SinkEventKind = iota
	SinkPaused
	SinkEnded
	SinkBufferingStart
	SinkBufferingEnd
	SinkError
	SinkDurationKnown
	SinkPositionAdvanced
	SinkDownloadProgress
)

func (k SinkEventKind) String() string {
	switch k {
	case SinkStarted:
		return "started"
	case SinkPaused:
		return "paused"
	case SinkEnded:
		return "ended"
	case SinkBufferingStart:
		return "buffering-start"
	case SinkBufferingEnd:
		return "buffering-end"
	case SinkError:
		return "error"
	case SinkDurationKnown:
		return "duration-known"
	case SinkPositionAdvanced:
		return "position-advanced"
	case SinkDownloadProgress:
		return "download-progress"
	default:
		return "unknown"
	}
}

// SinkEvent is a signal emitted by a Sink. Generation identifies the attached
// source that produced it.
type SinkEvent struct {
	Kind       SinkEventKind
	Generation uint64
	Position   time.Duration
	Duration   time.Duration
	Downloaded uint64
	Err        error
}

// Sink is the audio output that plays one stream reference at a time.
type Sink interface {
	// Attach detaches any current source and loads ref. It does not start playback.
	Attach(ctx context.Context, ref Reference) error
	// Detach stops playback and discards the current source and its buffers.
	Detach()
	Play(ctx context.Context) error
	Pause()
	Seek(pos time.Duration) error

	Position() time.Duration
	// Duration returns the source duration and whether it is known.
	Duration() (time.Duration, bool)
	Buffered() time.Duration
	Paused() bool
	HasSource() bool
	// Generation returns the number of the currently attached source.
	Generation() uint64

	Events() <-chan SinkEvent
}
