package playback

import (
	"time"

	"github.com/google/uuid"
)

// Session is the mutable playback bookkeeping owned by an Orchestrator.
type Session struct {
	ID                  string
	StartedAt           time.Time
	ShuffleOn           bool
	ConsecutiveFailures int

	// switchGen increments whenever a track switch begins. Work started
	// under an older value is stale.
	switchGen uint64
}

func newSession(shuffle bool) *Session {
	return &Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		ShuffleOn: shuffle,
	}
}
