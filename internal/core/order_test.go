package core

import (
	"math/rand/v2"
	"slices"
	"testing"
)

func isPermutation(indices []int, n int) bool {
	if len(indices) != n {
		return false
	}
	seen := make([]bool, n)
	for _, idx := range indices {
		if idx < 0 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

func TestBuildSequential(t *testing.T) {
	o := BuildSequential(4)
	if got := o.Indices(); !slices.Equal(got, []int{0, 1, 2, 3}) {
		t.Errorf("Indices() = %v, want [0 1 2 3]", got)
	}
	if o.Cursor() != -1 {
		t.Errorf("Cursor() = %d, want -1", o.Cursor())
	}
	if !BuildSequential(0).IsEmpty() {
		t.Error("BuildSequential(0) should be empty")
	}
}

func TestBuildShuffled(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for n := 0; n <= 12; n++ {
		for keep := -1; keep < n; keep++ {
			o := BuildShuffled(n, keep, rng)
			if !isPermutation(o.Indices(), n) {
				t.Fatalf("BuildShuffled(%d, %d) = %v, not a permutation", n, keep, o.Indices())
			}
			if keep >= 0 {
				if o.At(0) != keep {
					t.Errorf("BuildShuffled(%d, %d) first = %d, want %d", n, keep, o.At(0), keep)
				}
				if o.Cursor() != 0 {
					t.Errorf("BuildShuffled(%d, %d) cursor = %d, want 0", n, keep, o.Cursor())
				}
			} else if o.Cursor() != -1 {
				t.Errorf("BuildShuffled(%d, -1) cursor = %d, want -1", n, o.Cursor())
			}
		}
	}
}

func TestBuildShuffledKeepOutOfRange(t *testing.T) {
	o := BuildShuffled(3, 7, nil)
	if !isPermutation(o.Indices(), 3) {
		t.Errorf("Indices() = %v, want permutation of 3", o.Indices())
	}
	if o.Cursor() != -1 {
		t.Errorf("Cursor() = %d, want -1", o.Cursor())
	}
}

func TestOrderStep(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		cursor int
		delta  int
		want   int
	}{
		{"next", 5, 2, 1, 3},
		{"prev", 5, 2, -1, 1},
		{"wrap forward", 5, 4, 1, 0},
		{"wrap backward", 5, 0, -1, 4},
		{"large positive", 5, 1, 12, 3},
		{"large negative", 5, 1, -12, 4},
		{"unset next", 5, -1, 1, 0},
		{"single track", 1, 0, 1, 0},
		{"empty", 0, -1, 1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := BuildSequential(tt.n).WithCursor(tt.cursor)
			got := o.Step(tt.delta)
			if got != tt.want {
				t.Errorf("Step(%d) = %d, want %d", tt.delta, got, tt.want)
			}
			if tt.n > 0 && (got < 0 || got >= tt.n) {
				t.Errorf("Step(%d) = %d, out of range", tt.delta, got)
			}
			if o.Cursor() != tt.cursor && tt.cursor < tt.n {
				t.Errorf("Step mutated cursor to %d", o.Cursor())
			}
		})
	}
}

func TestOrderPositionOf(t *testing.T) {
	o := BuildShuffled(6, 3, rand.New(rand.NewPCG(7, 7)))
	for pos, idx := range o.Indices() {
		if got := o.PositionOf(idx); got != pos {
			t.Errorf("PositionOf(%d) = %d, want %d", idx, got, pos)
		}
	}
	if got := o.PositionOf(42); got != -1 {
		t.Errorf("PositionOf(42) = %d, want -1", got)
	}
}

func TestOrderWithCursorDoesNotMutate(t *testing.T) {
	o := BuildSequential(3)
	moved := o.WithCursor(2)
	if o.Cursor() != -1 {
		t.Errorf("original cursor = %d, want -1", o.Cursor())
	}
	if moved.Cursor() != 2 || moved.Current() != 2 {
		t.Errorf("moved cursor = %d current = %d, want 2", moved.Cursor(), moved.Current())
	}
	if cleared := o.WithCursor(9); cleared.Cursor() != -1 {
		t.Errorf("WithCursor(9) cursor = %d, want -1", cleared.Cursor())
	}
}

func TestOrderUpcoming(t *testing.T) {
	o := BuildSequential(4).WithCursor(2)
	if got := o.Upcoming(10); !slices.Equal(got, []int{3, 0, 1}) {
		t.Errorf("Upcoming(10) = %v, want [3 0 1]", got)
	}
	if got := o.Upcoming(1); !slices.Equal(got, []int{3}) {
		t.Errorf("Upcoming(1) = %v, want [3]", got)
	}
	if got := BuildSequential(1).WithCursor(0).Upcoming(5); got != nil {
		t.Errorf("single track Upcoming = %v, want nil", got)
	}
}

func TestNilOrder(t *testing.T) {
	var o *Order
	if o.Len() != 0 || o.Cursor() != -1 || o.Current() != -1 || o.Step(1) != -1 {
		t.Error("nil order should behave as empty")
	}
}

func TestTrackMarkPrewarmed(t *testing.T) {
	tr := &Track{ID: "1"}
	if !tr.MarkPrewarmed() {
		t.Error("first MarkPrewarmed() = false, want true")
	}
	if tr.MarkPrewarmed() {
		t.Error("second MarkPrewarmed() = true, want false")
	}
	if !tr.Prewarmed() {
		t.Error("Prewarmed() = false, want true")
	}
}

func TestSnapshotFractions(t *testing.T) {
	s := &Snapshot{Position: 30e9, Duration: 120e9, Buffered: 60e9}
	if got := s.Elapsed(); got != 0.25 {
		t.Errorf("Elapsed() = %v, want 0.25", got)
	}
	if got := s.BufferedFraction(); got != 0.5 {
		t.Errorf("BufferedFraction() = %v, want 0.5", got)
	}
	if got := s.Remaining(); got != 90e9 {
		t.Errorf("Remaining() = %v, want 90s", got)
	}
	empty := &Snapshot{}
	if empty.Elapsed() != 0 || empty.Remaining() != 0 {
		t.Error("unknown duration should report zero progress")
	}
}
