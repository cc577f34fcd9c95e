// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dips

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/gogpu/dips/backend/soft"
	"github.com/gogpu/dips/gpucore"
)

const (
	testWidth  = 8
	testHeight = 4
)

func solidFrame(c [4]byte) []byte {
	pix := make([]byte, testWidth*testHeight*4)
	for i := 0; i < len(pix); i += 4 {
		copy(pix[i:], c[:])
	}
	return pix
}

func newTestEngine(t *testing.T, a *soft.Adapter, window int, opts ...Option) *Engine {
	t.Helper()
	eng, err := New(a, window, testWidth, testHeight, DefaultFilterConfig(), opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

// warmUp sends window frames and returns the output of the last one.
func warmUp(t *testing.T, eng *Engine, frame []byte) []byte {
	t.Helper()
	var out []byte
	for i := 1; i <= eng.Window(); i++ {
		o, ok, err := eng.SendFrame(frame, false)
		if err != nil {
			t.Fatalf("SendFrame(%d) error = %v", i, err)
		}
		if want := i == eng.Window(); ok != want {
			t.Fatalf("SendFrame(%d) ok = %v, want %v", i, ok, want)
		}
		out = o
	}
	return out
}

func TestNewValidation(t *testing.T) {
	a := soft.New()
	defer a.Release()

	tests := []struct {
		name   string
		window int
		w, h   int
		cfg    FilterConfig
		want   error
	}{
		{"zero width", 3, 0, 4, DefaultFilterConfig(), ErrInvalidDimensions},
		{"negative height", 3, 4, -2, DefaultFilterConfig(), ErrInvalidDimensions},
		{"zero window", 0, 4, 4, DefaultFilterConfig(), ErrInvalidWindow},
		{"window too large", MaxWindow + 1, 4, 4, DefaultFilterConfig(), ErrInvalidWindow},
		{"bad filter", 3, 4, 4, FilterConfig{Sensitivity: 5, SpatialWindowSize: 1, Filter: 9}, ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(a, tt.window, tt.w, tt.h, tt.cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
	if n := a.LiveResources(); n != 0 {
		t.Errorf("LiveResources() = %d after failed New, want 0", n)
	}
}

func TestNewNilAdapter(t *testing.T) {
	if _, err := New(nil, 3, 4, 4, DefaultFilterConfig()); !errors.Is(err, ErrNoAdapter) {
		t.Errorf("New(nil) error = %v, want ErrNoAdapter", err)
	}
}

func TestNewInsufficientLimits(t *testing.T) {
	a := soft.New(soft.WithLimits(gpucore.Limits{MaxBindGroups: 4, MaxBindingsPerGroup: 4}))
	defer a.Release()

	_, err := New(a, 3, testWidth, testHeight, DefaultFilterConfig())
	if !errors.Is(err, ErrInsufficientLimits) {
		t.Fatalf("New() error = %v, want ErrInsufficientLimits", err)
	}
	if n := a.LiveResources(); n != 0 {
		t.Errorf("LiveResources() = %d after failed New, want 0", n)
	}
}

func TestNewNormalizesConfig(t *testing.T) {
	a := soft.New()
	defer a.Release()

	cfg := DefaultFilterConfig()
	cfg.Sensitivity = 40
	cfg.SpatialWindowSize = 6
	eng, err := New(a, 2, testWidth, testHeight, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer eng.Close()

	got := eng.Config()
	if got.Sensitivity != MaxSensitivity || got.SpatialWindowSize != 5 {
		t.Errorf("Config() = %+v, want sensitivity 10 and window 5", got)
	}
}

func TestWarmUp(t *testing.T) {
	a := soft.New()
	defer a.Release()
	eng := newTestEngine(t, a, 4)

	frame := solidFrame([4]byte{40, 80, 120, 255})
	for i := 1; i < 4; i++ {
		out, ok, err := eng.SendFrame(frame, false)
		if err != nil || ok || out != nil {
			t.Fatalf("frame %d = (%v, %v, %v), want warm-up", i, out != nil, ok, err)
		}
		if eng.Ready() {
			t.Fatalf("Ready() = true after %d frames", i)
		}
	}
	if n := a.Stats().Dispatches["baseline_main"]; n != 0 {
		t.Errorf("baseline dispatched %d times during warm-up", n)
	}

	out, ok, err := eng.SendFrame(frame, false)
	if err != nil || !ok {
		t.Fatalf("frame 4 = (%v, %v), want output", ok, err)
	}
	if len(out) != testWidth*testHeight*4 {
		t.Errorf("len(out) = %d, want %d", len(out), testWidth*testHeight*4)
	}
	if !eng.Ready() {
		t.Error("Ready() = false after window filled")
	}
	if eng.Frames() != 4 {
		t.Errorf("Frames() = %d, want 4", eng.Frames())
	}

	stats := a.Stats()
	if stats.Dispatches["baseline_main"] != 1 || stats.Dispatches["differential_main"] != 1 {
		t.Errorf("dispatches = %v, want one of each", stats.Dispatches)
	}
	if stats.Copies != 1 {
		t.Errorf("Copies = %d, want 1", stats.Copies)
	}
}

func TestStaticSceneIsNeutral(t *testing.T) {
	a := soft.New()
	defer a.Release()
	eng := newTestEngine(t, a, 3)

	out := warmUp(t, eng, solidFrame([4]byte{10, 200, 90, 255}))

	// Sigmoid of zero with colorize: red and blue at half, green full.
	want := [4]byte{128, 255, 128, 255}
	for i := 0; i < len(out); i += 4 {
		if !bytes.Equal(out[i:i+4], want[:]) {
			t.Fatalf("pixel %d = %v, want %v", i/4, out[i:i+4], want)
		}
	}
}

func TestBrighteningShowsRed(t *testing.T) {
	a := soft.New()
	defer a.Release()
	eng := newTestEngine(t, a, 3)

	warmUp(t, eng, solidFrame([4]byte{0, 0, 0, 255}))
	out, ok, err := eng.SendFrame(solidFrame([4]byte{255, 255, 255, 255}), false)
	if err != nil || !ok {
		t.Fatalf("SendFrame() = (%v, %v), want output", ok, err)
	}
	if out[0] < 200 || out[2] > 50 {
		t.Errorf("pixel 0 = %v, want strong red", out[:4])
	}
	if n := a.Stats().Dispatches["baseline_main"]; n != 1 {
		t.Errorf("baseline dispatched %d times, want 1", n)
	}
}

func TestSnapshotRebuildsBaseline(t *testing.T) {
	a := soft.New()
	defer a.Release()
	eng := newTestEngine(t, a, 3)

	black := solidFrame([4]byte{0, 0, 0, 255})
	white := solidFrame([4]byte{255, 255, 255, 255})
	warmUp(t, eng, black)
	for range 3 {
		if _, _, err := eng.SendFrame(white, false); err != nil {
			t.Fatal(err)
		}
	}
	if eng.BaselineBuilds() != 1 {
		t.Fatalf("BaselineBuilds() = %d, want 1", eng.BaselineBuilds())
	}

	out, ok, err := eng.SendFrame(white, true)
	if err != nil || !ok {
		t.Fatalf("SendFrame(snapshot) = (%v, %v)", ok, err)
	}
	if eng.BaselineBuilds() != 2 {
		t.Errorf("BaselineBuilds() = %d, want 2", eng.BaselineBuilds())
	}
	// The window is all white now, so the scene reads as static again.
	if out[0] != 128 || out[1] != 255 {
		t.Errorf("pixel 0 = %v, want neutral after refresh", out[:4])
	}
}

func TestSnapshotMethod(t *testing.T) {
	a := soft.New()
	defer a.Release()
	eng := newTestEngine(t, a, 2)

	frame := solidFrame([4]byte{1, 2, 3, 255})
	warmUp(t, eng, frame)
	eng.Snapshot()
	if _, _, err := eng.SendFrame(frame, false); err != nil {
		t.Fatal(err)
	}
	if eng.BaselineBuilds() != 2 {
		t.Errorf("BaselineBuilds() = %d, want 2", eng.BaselineBuilds())
	}
	// The request is consumed.
	if _, _, err := eng.SendFrame(frame, false); err != nil {
		t.Fatal(err)
	}
	if eng.BaselineBuilds() != 2 {
		t.Errorf("BaselineBuilds() = %d, want 2 after request consumed", eng.BaselineBuilds())
	}
}

func TestSnapshotDuringWarmUpDropped(t *testing.T) {
	a := soft.New()
	defer a.Release()
	eng := newTestEngine(t, a, 3)

	frame := solidFrame([4]byte{9, 9, 9, 255})
	if _, _, err := eng.SendFrame(frame, true); err != nil {
		t.Fatal(err)
	}
	eng.Snapshot()
	for range 2 {
		if _, _, err := eng.SendFrame(frame, false); err != nil {
			t.Fatal(err)
		}
	}
	if eng.BaselineBuilds() != 1 {
		t.Errorf("BaselineBuilds() = %d, want 1", eng.BaselineBuilds())
	}
}

func TestMapFailureLosesFrame(t *testing.T) {
	a := soft.New()
	defer a.Release()
	eng := newTestEngine(t, a, 2)

	frame := solidFrame([4]byte{50, 50, 50, 255})
	warmUp(t, eng, frame)

	a.SetMapFailure(errors.New("device lost"))
	out, ok, err := eng.SendFrame(frame, false)
	if !errors.Is(err, ErrMapFailed) {
		t.Fatalf("SendFrame() error = %v, want ErrMapFailed", err)
	}
	if ok || out != nil {
		t.Error("failed frame returned output")
	}

	a.SetMapFailure(nil)
	if _, ok, err := eng.SendFrame(frame, false); err != nil || !ok {
		t.Errorf("SendFrame() after recovery = (%v, %v), want output", ok, err)
	}
}

func TestDimensionMismatch(t *testing.T) {
	a := soft.New()
	defer a.Release()
	eng := newTestEngine(t, a, 2)

	_, _, err := eng.SendFrame(make([]byte, 10), false)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("SendFrame() error = %v, want ErrDimensionMismatch", err)
	}
	if eng.Frames() != 0 {
		t.Errorf("Frames() = %d, want 0", eng.Frames())
	}
	if a.Stats().Submits != 0 {
		t.Errorf("Submits = %d, want 0", a.Stats().Submits)
	}
}

func TestCloseReleasesEverything(t *testing.T) {
	a := soft.New()
	defer a.Release()

	eng, err := New(a, 5, testWidth, testHeight, DefaultFilterConfig())
	if err != nil {
		t.Fatal(err)
	}
	frame := solidFrame([4]byte{7, 7, 7, 255})
	for range 7 {
		if _, _, err := eng.SendFrame(frame, false); err != nil {
			t.Fatal(err)
		}
	}
	if _, _, err := eng.SendFrame(frame, true); err != nil {
		t.Fatal(err)
	}

	if err := eng.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := eng.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if n := a.LiveResources(); n != 0 {
		t.Errorf("LiveResources() = %d after Close, want 0", n)
	}
	if _, _, err := eng.SendFrame(frame, false); !errors.Is(err, ErrClosed) {
		t.Errorf("SendFrame() after Close error = %v, want ErrClosed", err)
	}
	if eng.Ready() {
		t.Error("Ready() = true after Close")
	}
}

func TestEnginesShareAdapter(t *testing.T) {
	a := soft.New()
	defer a.Release()

	first := newTestEngine(t, a, 2, WithLabel("first"))
	second := newTestEngine(t, a, 3, WithLabel("second"))

	warmUp(t, first, solidFrame([4]byte{0, 0, 0, 255}))
	warmUp(t, second, solidFrame([4]byte{255, 255, 255, 255}))

	if err := first.Close(); err != nil {
		t.Fatal(err)
	}
	out, ok, err := second.SendFrame(solidFrame([4]byte{255, 255, 255, 255}), false)
	if err != nil || !ok {
		t.Fatalf("second engine after first closed = (%v, %v)", ok, err)
	}
	if out[0] != 128 || out[1] != 255 {
		t.Errorf("pixel 0 = %v, want neutral", out[:4])
	}
}

func TestDeviceTimeoutReachesAdapter(t *testing.T) {
	a := soft.New()
	defer a.Release()

	newTestEngine(t, a, 2, WithDeviceTimeout(1500*time.Millisecond))
	if got := a.DeviceTimeout(); got != 1500*time.Millisecond {
		t.Errorf("DeviceTimeout() = %v, want 1.5s", got)
	}
}

const identitySource = `// @constants
// @bindings

@compute @workgroup_size(16, 16)
fn identity_main(@builtin(global_invocation_id) id: vec3<u32>) {
}
`

// identityKernel copies the newest history frame to the output.
func identityKernel(inv *soft.Invocation) error {
	params, err := inv.Buffer(4, 0)
	if err != nil {
		return err
	}
	current := binary.LittleEndian.Uint32(params)
	src, err := inv.Texture(1+current/4, current%4)
	if err != nil {
		return err
	}
	dst, err := inv.Texture(4, 1)
	if err != nil {
		return err
	}
	inv.Each(dst.Width, dst.Height, func(x, y int) {
		dst.Set(x, y, src.At(x, y))
	})
	return nil
}

func TestCustomShaders(t *testing.T) {
	a := soft.New(soft.WithKernel("identity_main", identityKernel))
	defer a.Release()

	shaders := DefaultShaders()
	shaders.Differential = Program{
		Label:      "identity",
		Template:   identitySource,
		EntryPoint: "identity_main",
	}
	eng := newTestEngine(t, a, 6, WithShaders(shaders))

	frame := solidFrame([4]byte{0, 0, 0, 255})
	warmUp(t, eng, frame)

	for i := range 8 {
		frame := solidFrame([4]byte{byte(i * 20), byte(i), 3, 255})
		out, ok, err := eng.SendFrame(frame, false)
		if err != nil || !ok {
			t.Fatalf("frame %d = (%v, %v)", i, ok, err)
		}
		if !bytes.Equal(out, frame) {
			t.Fatalf("frame %d: output %v, want input %v", i, out[:4], frame[:4])
		}
	}
	if n := a.Stats().Dispatches["identity_main"]; n != 9 {
		t.Errorf("identity dispatched %d times, want 9", n)
	}
}

func TestWorkersAgree(t *testing.T) {
	const w, h = 64, 40
	frame := func(shift int) []byte {
		pix := make([]byte, w*h*4)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := (y*w + x) * 4
				pix[i] = byte((x*4 + shift) % 256)
				pix[i+1] = byte(y * 6)
				pix[i+2] = byte((x + y + shift) % 256)
				pix[i+3] = 255
			}
		}
		return pix
	}
	cfg := DefaultFilterConfig()
	cfg.SpatialWindowSize = 3

	render := func(workers int) [][]byte {
		a := soft.New(soft.WithWorkers(workers))
		defer a.Release()
		eng, err := New(a, 3, w, h, cfg)
		if err != nil {
			t.Fatal(err)
		}
		defer eng.Close()

		var outs [][]byte
		for i := range 6 {
			out, ok, err := eng.SendFrame(frame(i*9), i == 4)
			if err != nil {
				t.Fatalf("workers=%d frame %d: %v", workers, i, err)
			}
			if ok {
				outs = append(outs, out)
			}
		}
		return outs
	}

	serial, banded := render(1), render(4)
	if len(serial) != 4 || len(banded) != 4 {
		t.Fatalf("outputs = %d serial, %d banded, want 4", len(serial), len(banded))
	}
	for i := range serial {
		if !bytes.Equal(serial[i], banded[i]) {
			t.Errorf("frame %d differs between 1 and 4 workers", i)
		}
	}
}
