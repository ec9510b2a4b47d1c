package playback

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

// Guard admits one holder at a time. Callers that cannot acquire it are
// turned away rather than queued.
type Guard struct {
	sem *semaphore.Weighted
}

// NewGuard creates an unheld guard.
func NewGuard() *Guard {
	return &Guard{sem: semaphore.NewWeighted(1)}
}

// TryAcquire takes the guard if it is free. The release function is safe to
// call more than once.
func (g *Guard) TryAcquire() (release func(), ok bool) {
	if !g.sem.TryAcquire(1) {
		return nil, false
	}
	var once sync.Once
	return func() { once.Do(func() { g.sem.Release(1) }) }, true
}

// Busy reports whether the guard is currently held.
func (g *Guard) Busy() bool {
	if g.sem.TryAcquire(1) {
		g.sem.Release(1)
		return false
	}
	return true
}
