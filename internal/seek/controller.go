package seek

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	perrors "github.com/tessro/plexplay/internal/errors"
)

const (
	// DefaultStep is the arrow-key jump.
	DefaultStep = 5 * time.Second
	// DefaultPageFraction is the page-key jump as a share of the duration.
	DefaultPageFraction = 0.10

	minPageStep = time.Second
	endOffset   = 10 * time.Millisecond
)

var errDurationUnknown = errors.New("duration unknown")

// Target is the sink surface the controller drives.
type Target interface {
	Position() time.Duration
	Duration() (time.Duration, bool)
	Paused() bool
	Play(ctx context.Context) error
	Pause()
	Seek(pos time.Duration) error
}

// Surface is the horizontal extent of the scrub control.
type Surface struct {
	Left  float64
	Width float64
}

// Fraction maps x onto [0,1] across the surface.
func (s Surface) Fraction(x float64) float64 {
	if s.Width <= 0 {
		return 0
	}
	f := (x - s.Left) / s.Width
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

// PositionAt returns the track position under x for a track of length d.
func (s Surface) PositionAt(x float64, d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(math.Round(s.Fraction(x) * float64(d)))
}

// XAt returns the surface coordinate of pos for a track of length d. It is
// the inverse of PositionAt.
func (s Surface) XAt(pos, d time.Duration) float64 {
	if d <= 0 {
		return s.Left
	}
	return s.Left + float64(clamp(pos, d))/float64(d)*s.Width
}

// Controller turns pointer and keyboard gestures into sink seeks. A drag
// updates only the displayed position; the seek is committed once on release.
type Controller struct {
	target       Target
	step         time.Duration
	pageFraction float64

	mu         sync.Mutex
	surface    Surface
	dragging   bool
	wasPlaying bool
	display    time.Duration
}

// Option configures a Controller.
type Option func(*Controller)

// WithStep sets the arrow-key jump.
func WithStep(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.step = d
		}
	}
}

// WithPageFraction sets the page-key jump as a share of the duration.
func WithPageFraction(f float64) Option {
	return func(c *Controller) {
		if f > 0 {
			c.pageFraction = f
		}
	}
}

// NewController creates a controller for target.
func NewController(target Target, opts ...Option) *Controller {
	c := &Controller{
		target:       target,
		step:         DefaultStep,
		pageFraction: DefaultPageFraction,
		surface:      Surface{Width: 1},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetSurface updates the scrub control geometry.
func (c *Controller) SetSurface(s Surface) {
	c.mu.Lock()
	c.surface = s
	c.mu.Unlock()
}

// Surface returns the scrub control geometry.
func (c *Controller) Surface() Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface
}

// Dragging reports whether a scrub gesture is in progress.
func (c *Controller) Dragging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragging
}

// Position returns the position to display: the live scrub position while
// dragging, otherwise the sink position.
func (c *Controller) Position() time.Duration {
	c.mu.Lock()
	if c.dragging {
		defer c.mu.Unlock()
		return c.display
	}
	c.mu.Unlock()
	return c.target.Position()
}

// PointerDown starts a drag at x. It is ignored while the duration is
// unknown. The sink is paused and no seek is issued.
func (c *Controller) PointerDown(x float64) bool {
	d, ok := c.target.Duration()
	if !ok || d <= 0 {
		return false
	}
	wasPlaying := !c.target.Paused()

	c.mu.Lock()
	c.dragging = true
	c.wasPlaying = wasPlaying
	c.display = c.surface.PositionAt(x, d)
	c.mu.Unlock()

	c.target.Pause()
	return true
}

// PointerMove updates the displayed position during a drag.
func (c *Controller) PointerMove(x float64) {
	d, ok := c.target.Duration()
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dragging {
		return
	}
	c.display = c.surface.PositionAt(x, d)
}

// PointerUp ends a drag at x, commits exactly one seek and resumes playback
// if it was playing when the drag began.
func (c *Controller) PointerUp(ctx context.Context, x float64) error {
	d, _ := c.target.Duration()

	c.mu.Lock()
	if !c.dragging {
		c.mu.Unlock()
		return nil
	}
	c.dragging = false
	target := c.surface.PositionAt(x, d)
	c.display = target
	resume := c.wasPlaying
	c.wasPlaying = false
	c.mu.Unlock()

	if err := c.target.Seek(target); err != nil {
		return perrors.NewPlayerError(perrors.KindSeek, "", err)
	}
	if resume {
		if err := c.target.Play(ctx); err != nil {
			return perrors.NewPlayerError(perrors.KindSeek, "", err)
		}
	}
	return nil
}

// Abort ends a drag without seeking or resuming. Used when the source the
// drag started on has gone away.
func (c *Controller) Abort() {
	c.mu.Lock()
	c.dragging = false
	c.wasPlaying = false
	c.mu.Unlock()
}

// Cancel abandons a drag without seeking, resuming if needed.
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.Lock()
	if !c.dragging {
		c.mu.Unlock()
		return nil
	}
	c.dragging = false
	resume := c.wasPlaying
	c.wasPlaying = false
	c.mu.Unlock()

	if resume {
		return c.target.Play(ctx)
	}
	return nil
}

// Key applies a keyboard jump. Keys are right, left, pgup, pgdown, home and
// end. It reports whether the key was handled; nothing is handled while the
// duration is unknown.
func (c *Controller) Key(key string) (bool, error) {
	d, ok := c.target.Duration()
	if !ok || d <= 0 {
		return false, nil
	}

	page := time.Duration(math.Round(float64(d) * c.pageFraction))
	if page < minPageStep {
		page = minPageStep
	}

	cur := c.target.Position()
	var target time.Duration
	switch key {
	case "right":
		target = cur + c.step
	case "left":
		target = cur - c.step
	case "pgup":
		target = cur + page
	case "pgdown":
		target = cur - page
	case "home":
		target = 0
	case "end":
		target = d - endOffset
	default:
		return false, nil
	}

	return true, c.seek(clamp(target, d))
}

// SeekTo commits a seek to pos, clamped to the track.
func (c *Controller) SeekTo(pos time.Duration) error {
	d, ok := c.target.Duration()
	if !ok || d <= 0 {
		return perrors.NewPlayerError(perrors.KindSeek, "", errDurationUnknown)
	}
	return c.seek(clamp(pos, d))
}

func (c *Controller) seek(pos time.Duration) error {
	if err := c.target.Seek(pos); err != nil {
		return perrors.NewPlayerError(perrors.KindSeek, "", err)
	}
	c.mu.Lock()
	c.display = pos
	c.mu.Unlock()
	return nil
}

func clamp(pos, d time.Duration) time.Duration {
	switch {
	case pos < 0:
		return 0
	case pos > d:
		return d
	default:
		return pos
	}
}
