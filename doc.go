// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package dips is a GPU compute engine for temporal differential imaging
// of video streams.
//
// # Overview
//
// Every frame of a stream is compared with a baseline, the per-pixel
// temporal median of a window of N recent frames. The difference, plus a
// smaller term against the window mean, goes through a response curve
// and is written out as an RGBA8 image. Static regions come out neutral
// and moving or changing regions stand out by sign.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/dips"
//	    "github.com/gogpu/dips/backend"
//	    _ "github.com/gogpu/dips/backend/native"
//	)
//
//	adapter, err := backend.Default()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer adapter.Release()
//
//	eng, err := dips.New(adapter, 8, 1280, 720, dips.DefaultFilterConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	for frame := range frames {
//	    out, ok, err := eng.SendFrame(frame, false)
//	    // ok is false for the first N-1 frames.
//	}
//
// # Backends
//
// The engine runs on any gpucore.GPUAdapter. Backends register themselves
// on import:
//   - backend/native: Vulkan through gogpu/wgpu HAL, WGSL compiled by naga
//   - backend/webgpu: wgpu-native through cogentcore/webgpu
//   - backend/soft: CPU reference kernels, always available
//
// # Baseline refresh
//
// SendFrame with snapshot set, or Snapshot, rebuilds the baseline from the
// window current at that frame. Refresh requests made while the window is
// still filling are dropped.
//
// # Concurrency
//
// Engine serializes its methods. Actor runs an engine on one goroutine
// for callers that feed frames from several goroutines.
//
// # Logging
//
// dips is silent by default. SetLogger installs a log/slog logger for the
// package, its stages and all registered backends.
package dips
