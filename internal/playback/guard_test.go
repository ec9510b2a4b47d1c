package playback

import (
	"testing"

	"github.com/tessro/plexplay/internal/seek"
)

func TestGuard(t *testing.T) {
	g := NewGuard()
	if g.Busy() {
		t.Fatal("new guard is busy")
	}

	release, ok := g.TryAcquire()
	if !ok {
		t.Fatal("TryAcquire() on free guard failed")
	}
	if !g.Busy() {
		t.Error("Busy() = false while held")
	}
	if _, ok := g.TryAcquire(); ok {
		t.Error("second TryAcquire() succeeded")
	}

	release()
	release()
	if g.Busy() {
		t.Error("Busy() = true after release")
	}
	if _, ok := g.TryAcquire(); !ok {
		t.Error("TryAcquire() after release failed")
	}
}

func seekSurface(width float64) seek.Surface {
	return seek.Surface{Width: width}
}
