// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dips

import (
	"context"
	"sync"
	"sync/atomic"
)

// Result is the outcome of one frame processed by an Actor.
type Result struct {
	// Output holds the filtered frame. It is nil while warming up.
	Output []byte

	// OK reports whether Output is valid.
	OK bool

	Err error
}

type request struct {
	pixels   []byte
	snapshot bool
	reply    chan Result
}

// Actor owns an Engine on a dedicated goroutine and serves frames sent
// from any goroutine in arrival order.
//
// A GPU device is often bound to the thread that created its objects.
// Routing every call through one goroutine keeps the engine there without
// callers coordinating.
type Actor struct {
	eng   *Engine
	inbox chan request

	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
	once    sync.Once
}

// NewActor starts the goroutine serving eng. The actor takes ownership of
// the engine and closes it in Close.
func NewActor(eng *Engine) *Actor {
	a := &Actor{
		eng:   eng,
		inbox: make(chan request),
		done:  make(chan struct{}),
	}
	a.running.Store(true)
	a.wg.Add(1)
	go a.loop()
	return a
}

func (a *Actor) loop() {
	defer a.wg.Done()
	for {
		select {
		case <-a.done:
			return
		case req := <-a.inbox:
			out, ok, err := a.eng.SendFrame(req.pixels, req.snapshot)
			req.reply <- Result{Output: out, OK: ok, Err: err}
		}
	}
}

// Send queues a frame and waits for its result. Waiting stops when ctx is
// done; a frame already accepted still runs to completion on the actor.
func (a *Actor) Send(ctx context.Context, pixels []byte, snapshot bool) ([]byte, bool, error) {
	if !a.running.Load() {
		return nil, false, ErrClosed
	}
	req := request{pixels: pixels, snapshot: snapshot, reply: make(chan Result, 1)}

	select {
	case a.inbox <- req:
	case <-a.done:
		return nil, false, ErrClosed
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}

	select {
	case r := <-req.reply:
		return r.Output, r.OK, r.Err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// Snapshot asks for a baseline rebuild at the next frame.
func (a *Actor) Snapshot() {
	a.eng.Snapshot()
}

// Engine returns the engine served by the actor.
func (a *Actor) Engine() *Engine {
	return a.eng
}

// Close stops the goroutine after the frame in flight, if any, and closes
// the engine. It is safe to call more than once.
func (a *Actor) Close() error {
	var err error
	a.once.Do(func() {
		a.running.Store(false)
		close(a.done)
		a.wg.Wait()
		err = a.eng.Close()
	})
	return err
}
