package core

import "time"

// State is the playback state of a session.
type State string

const (
	StateIdle      State = "idle"
	StateResolving State = "resolving"
	StateRetrying  State = "retrying"
	StatePlaying   State = "playing"
	StatePaused    State = "paused"
	StateStopped   State = "stopped"
)

// StatusLevel classifies a status message.
type StatusLevel string

const (
	StatusInfo  StatusLevel = "info"
	StatusError StatusLevel = "error"
)

// Status is a user-visible message about the session.
type Status struct {
	Message string      `json:"message"`
	Level   StatusLevel `json:"level"`
	At      time.Time   `json:"at"`
}

// IsError returns true for error-level messages.
func (s Status) IsError() bool {
	return s.Level == StatusError && s.Message != ""
}

// Snapshot is a point-in-time view of a playback session.
type Snapshot struct {
	State      State         `json:"state"`
	Track      *Track        `json:"track"`
	TrackIndex int           `json:"track_index"`
	Cursor     int           `json:"cursor"`
	Order      []int         `json:"order"`
	Shuffle    bool          `json:"shuffle"`
	Playing    bool          `json:"playing"`
	Position   time.Duration `json:"position"`
	Duration   time.Duration `json:"duration"`
	Buffered   time.Duration `json:"buffered"`
	Downloaded uint64        `json:"downloaded"`
	Failures   int           `json:"consecutive_failures"`
	Status     Status        `json:"status"`
	// Busy is the label shown while a switch or recovery is in flight.
	Busy string `json:"busy,omitempty"`
}

// HasTrack returns true if there is an active track.
func (s *Snapshot) HasTrack() bool {
	return s != nil && s.Track != nil
}

// Elapsed returns played fraction of the track in [0,1].
func (s *Snapshot) Elapsed() float64 {
	if s == nil || s.Duration <= 0 {
		return 0
	}
	return clamp01(float64(s.Position) / float64(s.Duration))
}

// Remaining returns the time left on the current track.
func (s *Snapshot) Remaining() time.Duration {
	if s == nil || s.Duration <= 0 || s.Position >= s.Duration {
		return 0
	}
	return s.Duration - s.Position
}

// BufferedFraction returns the buffered share of the track in [0,1].
func (s *Snapshot) BufferedFraction() float64 {
	if s == nil || s.Duration <= 0 {
		return 0
	}
	return clamp01(float64(s.Buffered) / float64(s.Duration))
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
