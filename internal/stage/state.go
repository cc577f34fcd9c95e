// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package stage implements the two compute stages of the engine: the
// one-shot baseline stage and the per-frame differential stage.
//
// Each stage's bindings go through exactly one Uninitialized → Initialized
// transition, modelled by the State sum type. Initializing an Initialized
// stage is an error and leaves the stage unchanged.
package stage

import (
	"errors"

	"github.com/gogpu/dips/gpucore"
)

// Stage errors.
var (
	// ErrAlreadyInitialized is returned when Initialize is called on a stage
	// whose bindings are already in place.
	ErrAlreadyInitialized = errors.New("stage: already initialized")

	// ErrNotInitialized is returned when Run is called before Initialize.
	ErrNotInitialized = errors.New("stage: not initialized")

	// ErrInvalidWindow is returned for a window outside [1, MaxWindow].
	ErrInvalidWindow = errors.New("stage: invalid window size")

	// ErrInvalidDimensions is returned for a non-positive frame size.
	ErrInvalidDimensions = errors.New("stage: invalid dimensions")

	// ErrInsufficientLimits is returned when the device cannot hold the
	// stage's bind groups.
	ErrInsufficientLimits = errors.New("stage: device limits too low")
)

// State is the binding state of a stage. It is either Uninitialized or
// Initialized.
type State interface {
	isState()
}

// Uninitialized holds the layouts a stage will bind against.
type Uninitialized struct {
	Layouts []gpucore.BindGroupLayoutID
}

// Initialized holds the bind groups of a ready stage, in group order.
type Initialized struct {
	Groups []gpucore.BindGroupID
}

func (Uninitialized) isState() {}
func (Initialized) isState()   {}

// IsInitialized reports whether s is Initialized.
func IsInitialized(s State) bool {
	_, ok := s.(Initialized)
	return ok
}
