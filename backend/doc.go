// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package backend selects the compute device the engine runs on.
//
// Each backend package registers a Factory from its init function.
// The CPU backend is registered by this package itself; GPU backends are
// enabled by importing them:
//
//	import _ "github.com/gogpu/dips/backend/native" // Pure Go, gogpu/wgpu HAL
//	import _ "github.com/gogpu/dips/backend/webgpu" // wgpu-native via cogentcore/webgpu
//
// backend/rust probes wgpu-native through go-webgpu/webgpu when built
// with the rust tag.
//
// # Backend Selection
//
// Default opens the first backend that yields a device, in the order
// native, webgpu, soft:
//
//	adapter, err := backend.Default()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer adapter.Release()
//
// Open asks for one backend by name:
//
//	adapter, err := backend.Open(backend.Soft)
package backend
