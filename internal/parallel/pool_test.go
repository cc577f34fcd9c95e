// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("pool should be running after creation")
	}
}

func TestWorkerPool_DefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -5} {
		pool := NewWorkerPool(n)
		if pool.Workers() != runtime.GOMAXPROCS(0) {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want GOMAXPROCS", n, pool.Workers())
		}
		pool.Close()
	}
}

func TestWorkerPool_ExecuteAll(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var counter atomic.Int64
	work := make([]func(), 100)
	for i := range work {
		work[i] = func() { counter.Add(1) }
	}
	pool.ExecuteAll(work)

	if counter.Load() != 100 {
		t.Errorf("counter = %d, want 100", counter.Load())
	}
	pool.ExecuteAll(nil)
}

func TestWorkerPool_ExecuteAllAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close()

	if pool.IsRunning() {
		t.Error("pool running after Close")
	}
	ran := 0
	pool.ExecuteAll([]func(){func() { ran++ }, func() { ran++ }})
	if ran != 2 {
		t.Errorf("ran = %d after Close, want 2 on the caller", ran)
	}
}

func TestWorkerPool_WorkStealing(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	// The slow items are all dealt to worker 0; the rest get stolen.
	var counter atomic.Int64
	work := make([]func(), 8)
	for i := range work {
		if i%4 == 0 {
			work[i] = func() {
				time.Sleep(10 * time.Millisecond)
				counter.Add(1)
			}
		} else {
			work[i] = func() { counter.Add(1) }
		}
	}
	pool.ExecuteAll(work)
	if counter.Load() != 8 {
		t.Errorf("counter = %d, want 8", counter.Load())
	}
}

func TestWorkerPool_Bands(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	tests := []struct {
		name string
		rows int
	}{
		{"empty", 0},
		{"one row", 1},
		{"below min band", minBandRows - 1},
		{"uneven", 37},
		{"tall", 1080},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			seen := make([]int, tt.rows)
			pool.Bands(tt.rows, func(y0, y1 int) {
				if y0 >= y1 {
					t.Errorf("empty band [%d, %d)", y0, y1)
				}
				mu.Lock()
				defer mu.Unlock()
				for y := y0; y < y1; y++ {
					seen[y]++
				}
			})
			for y, n := range seen {
				if n != 1 {
					t.Fatalf("row %d visited %d times", y, n)
				}
			}
		})
	}
}

func TestWorkerPool_Concurrent(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	var total atomic.Int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Bands(64, func(y0, y1 int) { total.Add(int64(y1 - y0)) })
		}()
	}
	wg.Wait()
	if total.Load() != 8*64 {
		t.Errorf("total rows = %d, want %d", total.Load(), 8*64)
	}
}

func TestWorkerPool_NoGoroutineLeak(t *testing.T) {
	before := runtime.NumGoroutine()
	for range 10 {
		pool := NewWorkerPool(4)
		pool.Bands(100, func(int, int) {})
		pool.Close()
	}
	time.Sleep(10 * time.Millisecond)
	if after := runtime.NumGoroutine(); after > before+2 {
		t.Errorf("goroutines: before=%d after=%d", before, after)
	}
}

func BenchmarkWorkerPool_Bands(b *testing.B) {
	pool := NewWorkerPool(0)
	defer pool.Close()

	row := make([]float32, 1920)
	b.ResetTimer()
	for range b.N {
		pool.Bands(1080, func(y0, y1 int) {
			var acc float32
			for y := y0; y < y1; y++ {
				for x := range row {
					acc += float32(x * y)
				}
			}
			_ = acc
		})
	}
}
