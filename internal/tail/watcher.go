package tail

import (
	"context"
	"time"

	"github.com/tessro/plexplay/internal/core"
)

// EventType represents the type of playback event.
type EventType int

const (
	EventTrackChange EventType = iota
	EventTrackComplete
	EventTrackSkip
	EventPause
	EventResume
	EventShuffleChange
	EventFailure
	EventHalted
)

// Event represents a playback state change.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Previous  *core.Snapshot
	Current   *core.Snapshot
}

// Source is anything that can report the current session view.
type Source interface {
	Snapshot() core.Snapshot
}

// Watcher polls a session for state changes and emits events.
type Watcher struct {
	source   Source
	interval time.Duration
	events   chan Event
	done     chan struct{}
}

// NewWatcher creates a new state watcher.
func NewWatcher(source Source, interval time.Duration) *Watcher {
	if interval == 0 {
		interval = 250 * time.Millisecond
	}
	return &Watcher{
		source:   source,
		interval: interval,
		events:   make(chan Event, 32),
		done:     make(chan struct{}),
	}
}

// Events returns the channel of playback events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start polls until ctx is done or Stop is called. The events channel is
// closed on return.
func (w *Watcher) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.events)

	var prev *core.Snapshot

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case <-ticker.C:
			curr := w.source.Snapshot()
			for _, e := range diffSnapshots(prev, &curr) {
				select {
				case w.events <- e:
				default:
					// Drop event if channel is full
				}
			}
			prev = &curr
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
}

func diffSnapshots(prev, curr *core.Snapshot) []Event {
	if curr == nil {
		return nil
	}

	now := time.Now()
	var events []Event
	add := func(t EventType) {
		events = append(events, Event{Type: t, Timestamp: now, Previous: prev, Current: curr})
	}

	if prev == nil {
		if curr.HasTrack() && curr.Playing {
			add(EventTrackChange)
		}
		return events
	}

	if trackChanged(prev, curr) && curr.HasTrack() {
		switch {
		case prev.HasTrack() && wasCompleted(prev):
			add(EventTrackComplete)
		case prev.HasTrack():
			add(EventTrackSkip)
		}
		add(EventTrackChange)
	} else if !trackChanged(prev, curr) && curr.HasTrack() {
		switch {
		case prev.Playing && !curr.Playing && curr.State == core.StatePaused:
			add(EventPause)
		case !prev.Playing && curr.Playing && prev.State == core.StatePaused:
			add(EventResume)
		}
	}

	if prev.Shuffle != curr.Shuffle {
		add(EventShuffleChange)
	}

	switch {
	case curr.State == core.StateStopped && prev.State != core.StateStopped:
		add(EventHalted)
	case curr.Status.IsError() && statusChanged(prev.Status, curr.Status):
		add(EventFailure)
	}

	return events
}

func trackChanged(prev, curr *core.Snapshot) bool {
	if prev.Track == nil && curr.Track == nil {
		return false
	}
	if prev.Track == nil || curr.Track == nil {
		return true
	}
	return prev.Track.ID != curr.Track.ID || prev.Cursor != curr.Cursor
}

// wasCompleted returns true if the track likely played to its end.
func wasCompleted(s *core.Snapshot) bool {
	if s.Duration <= 0 {
		return false
	}
	// Polling misses the last moments of a track
	return s.Remaining() <= 2*time.Second || s.Elapsed() >= 0.95
}

func statusChanged(prev, curr core.Status) bool {
	return prev.Message != curr.Message || !prev.At.Equal(curr.At)
}
