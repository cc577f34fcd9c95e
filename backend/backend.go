// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"

	"github.com/gogpu/dips/gpucore"
)

// Backend name constants.
const (
	// Native is the Pure Go backend on gogpu/wgpu HAL.
	Native = "native"
	// WebGPU is the wgpu-native backend through cogentcore/webgpu.
	WebGPU = "webgpu"
	// Rust names the go-webgpu/webgpu probe in backend/rust. It does not
	// register a Factory.
	Rust = "rust"
	// Soft is the CPU backend, always available.
	Soft = "soft"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when no registered backend could
	// open a device.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrUnknownBackend is returned by Open for a name nobody registered.
	ErrUnknownBackend = errors.New("backend: unknown backend")
)

// Factory opens a device and returns an adapter for it. The caller owns
// the adapter and must Release it.
type Factory func() (gpucore.GPUAdapter, error)
