// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dips

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/dips/gpucore"
	"github.com/gogpu/dips/internal/readback"
	"github.com/gogpu/dips/internal/ring"
	"github.com/gogpu/dips/internal/stage"
)

// MaxWindow is the largest supported history window.
const MaxWindow = stage.MaxWindow

// Engine runs the differential imaging pipeline for one video stream of a
// fixed size.
//
// The engine owns N history textures on the device. Frames are written
// into them round-robin. Once N frames have arrived the baseline is
// computed from the window and every frame from then on produces one
// output image.
//
// Engine is safe for concurrent use; calls are serialized and each
// SendFrame blocks until its output has been read back.
type Engine struct {
	mu sync.Mutex

	adapter gpucore.GPUAdapter
	cfg     FilterConfig
	opts    options
	log     *slog.Logger

	window int
	width  int
	height int

	history []gpucore.TextureID
	index   *ring.Index
	pushes  int
	frames  uint64

	baseline *stage.Baseline
	diff     *stage.Differential
	reader   *readback.Reader

	snapshotPending bool
	closed          bool
}

// New creates an engine for width×height RGBA8 frames with a history
// window of the given size. cfg is normalized, then validated.
//
// New allocates every device resource up front. On failure nothing it
// created is left on the adapter. The caller keeps ownership of the
// adapter and must release it after Close.
func New(adapter gpucore.GPUAdapter, window, width, height int, cfg FilterConfig, opts ...Option) (*Engine, error) {
	if adapter == nil {
		return nil, ErrNoAdapter
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if window < 1 || window > MaxWindow {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidWindow, window, MaxWindow)
	}
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		log = Logger()
	}

	e := &Engine{
		adapter: adapter,
		cfg:     cfg,
		opts:    o,
		log:     log.With("engine", o.label),
		window:  window,
		width:   width,
		height:  height,
		index:   ring.New(window),
	}
	if ts, ok := adapter.(gpucore.TimeoutSetter); ok {
		ts.SetDeviceTimeout(o.timeout)
	}
	if err := e.allocate(); err != nil {
		e.release()
		return nil, err
	}

	e.log.Info("dips: engine created",
		"backend", adapter.Name(),
		"width", width,
		"height", height,
		"window", window,
		"filter", cfg.Filter.String(),
		"chroma", cfg.Chroma.String(),
		"sensitivity", cfg.Sensitivity,
		"spatial_window", cfg.SpatialWindowSize,
		"colorize", cfg.Colorize)
	return e, nil
}

// allocate creates the history textures, both stages and the staging
// buffer.
func (e *Engine) allocate() error {
	e.history = make([]gpucore.TextureID, 0, e.window)
	for i := 0; i < e.window; i++ {
		id, err := e.adapter.CreateTexture(&gpucore.TextureDesc{
			Label:  fmt.Sprintf("%s_history_%d", e.opts.label, i),
			Width:  e.width,
			Height: e.height,
			Format: gpucore.TextureFormatRGBA8Unorm,
			Usage:  gpucore.TextureUsageStorageBinding | gpucore.TextureUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create history texture %d: %w", i, err)
		}
		e.history = append(e.history, id)
	}

	cfg := stage.Config{
		Width:     e.width,
		Height:    e.height,
		Window:    e.window,
		Constants: e.cfg.constants(),
	}

	var err error
	cfg.Program = e.opts.shaders.Baseline
	if e.baseline, err = stage.NewBaseline(e.adapter, cfg); err != nil {
		return fmt.Errorf("create baseline stage: %w", err)
	}
	cfg.Program = e.opts.shaders.Differential
	if e.diff, err = stage.NewDifferential(e.adapter, cfg); err != nil {
		return fmt.Errorf("create differential stage: %w", err)
	}
	if e.reader, err = readback.NewReader(e.adapter, e.width, e.height); err != nil {
		return err
	}
	return nil
}

// release destroys everything allocate created, in reverse order.
func (e *Engine) release() {
	if e.reader != nil {
		e.reader.Destroy()
		e.reader = nil
	}
	if e.diff != nil {
		e.diff.Destroy()
		e.diff = nil
	}
	if e.baseline != nil {
		e.baseline.Destroy()
		e.baseline = nil
	}
	for _, id := range e.history {
		e.adapter.DestroyTexture(id)
	}
	e.history = nil
}

// SendFrame pushes one RGBA8 frame of exactly width*height*4 bytes.
//
// While the history window is still filling it returns (nil, false, nil).
// From the N-th frame on it returns the filtered output for this frame.
// When snapshot is true the baseline is rebuilt from the current window
// before the frame is processed.
//
// A length mismatch is rejected with ErrDimensionMismatch before any
// device work.
func (e *Engine) SendFrame(pixels []byte, snapshot bool) ([]byte, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, false, ErrClosed
	}
	if want := e.width * e.height * 4; len(pixels) != want {
		return nil, false, fmt.Errorf("%w: got %d bytes, want %d", ErrDimensionMismatch, len(pixels), want)
	}

	slot := e.index.Current()
	if err := e.adapter.WriteTexture(e.history[slot], pixels); err != nil {
		return nil, false, fmt.Errorf("upload frame to slot %d: %w", slot, err)
	}
	e.index.Advance(1)
	e.frames++
	if e.pushes < e.window {
		e.pushes++
	}

	snapshot = snapshot || e.snapshotPending
	e.snapshotPending = false
	if e.pushes < e.window {
		if snapshot {
			e.log.Warn("dips: snapshot ignored during warm-up", "frame", e.frames)
		}
		e.log.Debug("dips: warming up", "frame", e.frames, "slot", slot, "have", e.pushes, "need", e.window)
		return nil, false, nil
	}

	if err := e.prepare(snapshot); err != nil {
		return nil, false, err
	}
	out, err := e.process(slot)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// prepare makes sure both stages are bound, rebuilding the baseline on a
// snapshot. Baseline and differential passes end up in the same command
// stream as the frame's readback.
func (e *Engine) prepare(snapshot bool) error {
	switch {
	case !stage.IsInitialized(e.baseline.State()):
		e.log.Info("dips: building baseline", "frame", e.frames)
		return e.bindStages()

	case snapshot:
		e.log.Info("dips: refreshing baseline", "frame", e.frames)
		// The differential stage holds the old baseline texture, so it
		// lets go first.
		e.diff.Reset()
		e.baseline.Reset()
		return e.bindStages()

	case !stage.IsInitialized(e.diff.State()):
		return e.bindDifferential()
	}
	return nil
}

func (e *Engine) bindStages() error {
	if err := e.baseline.Initialize(e.history); err != nil {
		return fmt.Errorf("initialize baseline stage: %w", err)
	}
	if err := e.baseline.Run(); err != nil {
		return fmt.Errorf("run baseline stage: %w", err)
	}
	if stage.IsInitialized(e.diff.State()) {
		e.diff.Reset()
	}
	return e.bindDifferential()
}

func (e *Engine) bindDifferential() error {
	if err := e.diff.Initialize(e.baseline.Texture(), e.history); err != nil {
		return fmt.Errorf("initialize differential stage: %w", err)
	}
	return nil
}

// process runs the differential pass for the frame just written to slot
// and reads the output back.
func (e *Engine) process(slot int) ([]byte, error) {
	if err := e.diff.SetCurrent(slot); err != nil {
		return nil, err
	}
	if err := e.diff.Run(); err != nil {
		return nil, fmt.Errorf("run differential stage: %w", err)
	}
	if err := e.reader.Record(e.diff.Output()); err != nil {
		return nil, fmt.Errorf("record readback: %w", err)
	}
	if err := e.adapter.Submit(); err != nil {
		return nil, fmt.Errorf("submit frame %d: %w", e.frames, err)
	}
	out, err := e.reader.Collect()
	if err != nil {
		if errors.Is(err, gpucore.ErrMapFailed) {
			e.log.Warn("dips: frame lost", "frame", e.frames, "err", err)
		}
		return nil, fmt.Errorf("read back frame %d: %w", e.frames, err)
	}
	e.log.Debug("dips: frame processed", "frame", e.frames, "slot", slot)
	return out, nil
}

// Snapshot asks for the baseline to be rebuilt from the window current at
// the next SendFrame. It has no effect while the engine is warming up.
func (e *Engine) Snapshot() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snapshotPending = true
}

// Ready reports whether the baseline exists and frames produce output.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed && stage.IsInitialized(e.baseline.State())
}

// BaselineBuilds returns how many times the baseline has been computed.
func (e *Engine) BaselineBuilds() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.baseline == nil {
		return 0
	}
	return e.baseline.Runs()
}

// Frames returns the number of frames accepted so far.
func (e *Engine) Frames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

// Size returns the frame dimensions.
func (e *Engine) Size() (width, height int) {
	return e.width, e.height
}

// Window returns the history window length.
func (e *Engine) Window() int {
	return e.window
}

// Config returns the normalized filter configuration.
func (e *Engine) Config() FilterConfig {
	return e.cfg
}

// Close destroys every device resource the engine created. The adapter
// itself stays open. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.release()
	e.log.Info("dips: engine closed", "frames", e.frames)
	return nil
}
