// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dips

import (
	"errors"

	"github.com/gogpu/dips/gpucore"
	"github.com/gogpu/dips/internal/stage"
)

// Setup errors.
var (
	// ErrNoAdapter is returned by New when the adapter is nil.
	ErrNoAdapter = errors.New("dips: no GPU adapter")

	// ErrInvalidConfig is returned for a FilterConfig that fails validation.
	ErrInvalidConfig = errors.New("dips: invalid filter config")

	// ErrInvalidWindow is returned for a history window outside [1, MaxWindow].
	ErrInvalidWindow = errors.New("dips: invalid window size")

	// ErrInvalidDimensions is returned for a non-positive frame size.
	ErrInvalidDimensions = errors.New("dips: invalid frame dimensions")

	// ErrInsufficientLimits is returned when the device offers fewer bind
	// groups, bindings or texture size than the engine needs.
	ErrInsufficientLimits = stage.ErrInsufficientLimits
)

// Runtime errors.
var (
	// ErrDimensionMismatch is returned by SendFrame when the pixel slice
	// does not hold exactly width*height*4 bytes. No GPU work is done.
	ErrDimensionMismatch = errors.New("dips: frame size does not match engine")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("dips: engine closed")

	// ErrAlreadyInitialized is returned when a stage is bound twice.
	// The engine stays usable.
	ErrAlreadyInitialized = stage.ErrAlreadyInitialized

	// ErrMapFailed is returned when the staging buffer cannot be mapped.
	// The frame's output is lost; no stale data is returned.
	ErrMapFailed = gpucore.ErrMapFailed

	// ErrDeviceTimeout is returned when the device does not finish a frame
	// before the watchdog expires.
	ErrDeviceTimeout = gpucore.ErrDeviceTimeout
)
