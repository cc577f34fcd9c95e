// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package rust queries wgpu-native through go-webgpu/webgpu.
//
// Probe opens an instance, requests a high-performance adapter and a
// device, reports what it found and releases everything again. The dips
// CLI uses it to tell whether a hardware device is reachable before
// choosing a backend.
//
// The FFI binding is only compiled with the rust build tag:
//
//	go build -tags rust ./cmd/dips
//
// Without the tag Probe returns ErrNotBuilt.
package rust
