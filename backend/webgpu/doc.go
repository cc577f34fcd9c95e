// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package webgpu provides a GPU compute backend on wgpu-native through
// the cogentcore/webgpu binding.
//
// wgpu-native accepts WGSL directly. Waits poll the device on a helper
// goroutine guarded by a watchdog (see SetDeviceTimeout).
//
// Registration happens on import:
//
//	import _ "github.com/gogpu/dips/backend/webgpu"
//
// Build with the nogpu tag to leave the backend out.
package webgpu
