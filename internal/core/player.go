package core

import (
	"context"
	"time"
)

// SeekPhase is the stage of a pointer scrub gesture.
type SeekPhase int

const (
	PointerDown SeekPhase = iota
	PointerMove
	PointerUp
)

// Player defines the operations exposed to user interfaces.
type Player interface {
	// Selection and transport
	PlayAtPosition(ctx context.Context, pos int) error
	PlayTrack(ctx context.Context, trackIndex int) error
	Advance(ctx context.Context, delta int) error
	TogglePlayPause(ctx context.Context) error
	ToggleShuffle(ctx context.Context) error

	// Seeking
	SeekTo(ctx context.Context, pos time.Duration) error
	SeekByPointer(ctx context.Context, x float64, phase SeekPhase) error
	SeekKey(ctx context.Context, key string) (bool, error)

	// State queries
	Snapshot() Snapshot
	Tracks() []*Track
}
