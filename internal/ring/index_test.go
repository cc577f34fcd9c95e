// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ring

import "testing"

func TestAdvance(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		start int
		delta int
		want  int
	}{
		{"forward one", 3, 0, 1, 1},
		{"forward wrap", 3, 2, 1, 0},
		{"backward from zero", 3, 0, -1, 2},
		{"backward one", 5, 3, -1, 2},
		{"large forward", 4, 1, 9, 2},
		{"large backward", 4, 1, -9, 0},
		{"zero", 7, 4, 0, 4},
		{"single slot", 1, 0, -3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.n)
			r.Advance(tt.start)
			r.Advance(tt.delta)
			if got := r.Current(); got != tt.want {
				t.Errorf("Current() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBounds(t *testing.T) {
	for n := 1; n <= 12; n++ {
		r := New(n)
		for step := -3 * n; step <= 3*n; step++ {
			r.Advance(step)
			if c := r.Current(); c < 0 || c >= n {
				t.Fatalf("n=%d step=%d: Current() = %d, out of [0,%d)", n, step, c, n)
			}
		}
	}
}

func TestPeriodicity(t *testing.T) {
	for n := 1; n <= 12; n++ {
		for start := 0; start < n; start++ {
			r := New(n)
			r.Advance(start)
			for i := 0; i < n; i++ {
				r.Advance(1)
			}
			if got := r.Current(); got != start {
				t.Errorf("n=%d: after %d advances Current() = %d, want %d", n, n, got, start)
			}
		}
	}
}

func TestPrevious(t *testing.T) {
	r := New(3)
	if got := r.Previous(); got != 2 {
		t.Errorf("Previous() at 0 = %d, want 2", got)
	}
	r.Advance(1)
	if got := r.Previous(); got != 0 {
		t.Errorf("Previous() at 1 = %d, want 0", got)
	}
}

func TestReset(t *testing.T) {
	r := New(4)
	r.Advance(3)
	r.Reset()
	if got := r.Current(); got != 0 {
		t.Errorf("Current() after Reset = %d, want 0", got)
	}
	if got := r.Len(); got != 4 {
		t.Errorf("Len() = %d, want 4", got)
	}
}

func TestNewPanicsOnZero(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New(0) did not panic")
		}
	}()
	New(0)
}
