// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rust

import "errors"

// Package errors for the rust probe.
var (
	// ErrNotBuilt is returned when the package was built without the rust tag.
	ErrNotBuilt = errors.New("rust: built without the rust tag")

	// ErrNoGPU is returned when no GPU adapter is available.
	ErrNoGPU = errors.New("rust: no GPU adapter available")

	// ErrLibraryNotFound is returned when wgpu-native library is not found.
	ErrLibraryNotFound = errors.New("rust: wgpu-native library not found")
)

// GPUInfo contains information about the selected GPU.
type GPUInfo struct {
	Vendor       string
	Architecture string
	Device       string
	Description  string
	BackendType  string
	AdapterType  string
	VendorID     uint32
	DeviceID     uint32
}

// String formats the info on one line.
func (g *GPUInfo) String() string {
	if g == nil {
		return "<none>"
	}
	return g.Device + " (" + g.BackendType + ", " + g.AdapterType + ")"
}
