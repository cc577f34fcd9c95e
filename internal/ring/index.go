// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package ring provides the circular slot index of the temporal buffer.
package ring

import "fmt"

// Index is a bounded circular counter over [0, n).
// It selects the history slot the next incoming frame overwrites.
type Index struct {
	current int
	n       int
}

// New returns an index over [0, n) positioned at slot 0.
// It panics if n is not positive.
func New(n int) *Index {
	if n <= 0 {
		panic(fmt.Sprintf("ring: invalid length %d", n))
	}
	return &Index{n: n}
}

// Advance moves the index by delta slots. Negative deltas wrap forward,
// so Advance(-1) from slot 0 lands on slot n-1.
func (r *Index) Advance(delta int) {
	c := (r.current + delta%r.n) % r.n
	if c < 0 {
		c += r.n
	}
	r.current = c
}

// Current returns the slot to write next.
func (r *Index) Current() int { return r.current }

// Previous returns the slot written last.
func (r *Index) Previous() int {
	if r.current == 0 {
		return r.n - 1
	}
	return r.current - 1
}

// Len returns n.
func (r *Index) Len() int { return r.n }

// Reset moves the index back to slot 0.
func (r *Index) Reset() { r.current = 0 }
