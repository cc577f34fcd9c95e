// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpucore defines the GPU backend contract used by the dips engine.
//
// The [GPUAdapter] interface abstracts over the compute backends so the same
// two-stage pipeline runs unchanged on each of them:
//   - gogpu/wgpu HAL (package backend/native, Pure Go)
//   - cogentcore/webgpu (package backend/webgpu, wgpu-native)
//   - the CPU reference device (package backend/soft)
//
// # Architecture
//
//	               +-----------------+
//	               |      dips       |
//	               | (Engine, stages)|
//	               +--------+--------+
//	                        |
//	         +--------------+--------------+--------------+
//	         |                             |              |
//	+--------v--------+          +--------v--------+ +---v----+
//	| native adapter  |          | webgpu adapter  | |  soft  |
//	|  (hal.Device)   |          | (wgpu.Device)   | | (CPU)  |
//	+-----------------+          +-----------------+ +--------+
//
// # Resource Management
//
// GPU resources are referenced through opaque IDs ([BufferID], [TextureID],
// etc.). Adapters own the mapping between IDs and backend objects. Every
// Create call has a matching Destroy call; IDs are never reused.
//
// # Command Recording
//
// Adapters keep one implicit command stream. Compute passes and
// texture-to-buffer copies are recorded in order and executed by
// [GPUAdapter.Submit], which blocks until the device signals completion or
// the adapter's watchdog expires with [ErrDeviceTimeout].
package gpucore
