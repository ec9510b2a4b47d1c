package core

import "math/rand/v2"

// Order is a permutation of track indices with a cursor into it.
// An Order is never mutated after construction; rebuild and swap instead.
type Order struct {
	indices []int
	cursor  int
}

// BuildSequential returns the identity order over n tracks with no selection.
func BuildSequential(n int) *Order {
	if n < 0 {
		n = 0
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return &Order{indices: idx, cursor: -1}
}

// BuildShuffled returns a random permutation of n tracks. When keep is a
// valid track index it is placed first and the cursor points at it;
// otherwise no track is selected.
func BuildShuffled(n, keep int, rng *rand.Rand) *Order {
	if n < 0 {
		n = 0
	}
	keeping := keep >= 0 && keep < n

	base := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if keeping && i == keep {
			continue
		}
		base = append(base, i)
	}

	for i := len(base) - 1; i > 0; i-- {
		var j int
		if rng != nil {
			j = rng.IntN(i + 1)
		} else {
			j = rand.IntN(i + 1)
		}
		base[i], base[j] = base[j], base[i]
	}

	if !keeping {
		return &Order{indices: base, cursor: -1}
	}
	return &Order{indices: append([]int{keep}, base...), cursor: 0}
}

// Len returns the number of positions.
func (o *Order) Len() int {
	if o == nil {
		return 0
	}
	return len(o.indices)
}

// IsEmpty returns true if the order has no positions.
func (o *Order) IsEmpty() bool {
	return o.Len() == 0
}

// Cursor returns the current position, or -1 when nothing is selected.
func (o *Order) Cursor() int {
	if o == nil {
		return -1
	}
	return o.cursor
}

// At returns the track index at position pos, or -1 if pos is out of range.
func (o *Order) At(pos int) int {
	if o == nil || pos < 0 || pos >= len(o.indices) {
		return -1
	}
	return o.indices[pos]
}

// Current returns the track index under the cursor, or -1.
func (o *Order) Current() int {
	return o.At(o.Cursor())
}

// PositionOf returns the first position holding trackIndex, or -1.
func (o *Order) PositionOf(trackIndex int) int {
	if o == nil {
		return -1
	}
	for pos, idx := range o.indices {
		if idx == trackIndex {
			return pos
		}
	}
	return -1
}

// Step returns the position delta steps away from the cursor, wrapping in
// both directions. An unset cursor counts as position -1, so Step(1) from no
// selection is position 0. Returns -1 for an empty order.
func (o *Order) Step(delta int) int {
	n := o.Len()
	if n == 0 {
		return -1
	}
	return ((o.cursor+delta)%n + n) % n
}

// WithCursor returns a copy of the order with the cursor at pos. Positions
// outside the order clear the selection.
func (o *Order) WithCursor(pos int) *Order {
	if o == nil {
		return nil
	}
	if pos < 0 || pos >= len(o.indices) {
		pos = -1
	}
	return &Order{indices: o.indices, cursor: pos}
}

// Indices returns a copy of the permutation.
func (o *Order) Indices() []int {
	if o == nil {
		return nil
	}
	out := make([]int, len(o.indices))
	copy(out, o.indices)
	return out
}

// Upcoming returns up to limit track indices following the cursor, wrapping
// around the end of the order. The current track is never included.
func (o *Order) Upcoming(limit int) []int {
	n := o.Len()
	if n <= 1 || limit <= 0 {
		return nil
	}
	if limit > n-1 {
		limit = n - 1
	}
	out := make([]int, 0, limit)
	for i := 1; i <= limit; i++ {
		out = append(out, o.indices[((o.cursor+i)%n+n)%n])
	}
	return out
}
