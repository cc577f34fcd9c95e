// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"errors"
	"time"
)

// Errors shared by adapter implementations.
var (
	// ErrNoGPU is returned when no GPU adapter is available.
	ErrNoGPU = errors.New("gpucore: no GPU adapter available")

	// ErrDeviceTimeout is returned when the device does not signal
	// completion of submitted work before the watchdog expires.
	ErrDeviceTimeout = errors.New("gpucore: device wait timed out")

	// ErrMapFailed is returned when a staging buffer cannot be mapped.
	ErrMapFailed = errors.New("gpucore: buffer map failed")

	// ErrUnknownResource is returned when an ID does not name a live resource.
	ErrUnknownResource = errors.New("gpucore: unknown resource")

	// ErrReleased is returned by adapters after Release.
	ErrReleased = errors.New("gpucore: adapter released")
)

// GPUAdapter abstracts over the compute backends.
//
// Implementations must be safe for concurrent use, although the engine
// drives a single adapter from one goroutine at a time.
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - Destroying a resource while in use is undefined behavior
//   - IDs become invalid after destruction and must not be reused
type GPUAdapter interface {
	// Name identifies the backend, e.g. "native", "webgpu", "soft".
	Name() string

	// Limits returns the limits the device was opened with.
	Limits() Limits

	// === Shader Compilation ===

	// CreateShaderModule compiles WGSL source.
	// Compilation errors are reported here, not at pipeline creation.
	CreateShaderModule(wgsl string, label string) (ShaderModuleID, error)

	// DestroyShaderModule releases a shader module.
	DestroyShaderModule(id ShaderModuleID)

	// === Buffer Management ===

	// CreateBuffer creates a GPU buffer of size bytes.
	CreateBuffer(size int, usage BufferUsage) (BufferID, error)

	// DestroyBuffer releases a GPU buffer.
	DestroyBuffer(id BufferID)

	// WriteBuffer writes data to a buffer at offset.
	WriteBuffer(id BufferID, offset uint64, data []byte) error

	// MapRead maps size bytes of a MapRead buffer for reading and blocks
	// until the mapping is available. The returned slice aliases the
	// mapping and is valid until Unmap.
	MapRead(id BufferID, size uint64) ([]byte, error)

	// Unmap releases a mapping obtained from MapRead.
	Unmap(id BufferID)

	// === Texture Management ===

	// CreateTexture creates a 2D texture.
	CreateTexture(desc *TextureDesc) (TextureID, error)

	// DestroyTexture releases a texture.
	DestroyTexture(id TextureID)

	// WriteTexture uploads tightly packed pixel data covering the whole
	// texture.
	WriteTexture(id TextureID, data []byte) error

	// === Pipeline Management ===

	// CreateBindGroupLayout creates a bind group layout.
	CreateBindGroupLayout(desc *BindGroupLayoutDesc) (BindGroupLayoutID, error)

	// DestroyBindGroupLayout releases a bind group layout.
	DestroyBindGroupLayout(id BindGroupLayoutID)

	// CreatePipelineLayout combines bind group layouts in group order.
	CreatePipelineLayout(layouts []BindGroupLayoutID) (PipelineLayoutID, error)

	// DestroyPipelineLayout releases a pipeline layout.
	DestroyPipelineLayout(id PipelineLayoutID)

	// CreateComputePipeline creates a compute pipeline.
	CreateComputePipeline(desc *ComputePipelineDesc) (ComputePipelineID, error)

	// DestroyComputePipeline releases a compute pipeline.
	DestroyComputePipeline(id ComputePipelineID)

	// CreateBindGroup binds resources to a layout.
	CreateBindGroup(desc *BindGroupDesc) (BindGroupID, error)

	// DestroyBindGroup releases a bind group.
	DestroyBindGroup(id BindGroupID)

	// === Command Recording and Execution ===

	// BeginComputePass begins a compute pass in the current command stream.
	// The encoder must be ended with ComputePassEncoder.End().
	BeginComputePass(label string) ComputePassEncoder

	// CopyTextureToBuffer records a copy into the current command stream.
	CopyTextureToBuffer(copy *TextureCopy) error

	// Submit executes the recorded commands and blocks until the device
	// has finished them.
	Submit() error

	// Release destroys the device. Resources still alive are leaked to the
	// backend's own teardown.
	Release()
}

// TimeoutSetter is implemented by adapters whose Submit and MapRead wait
// on a device fence with a watchdog. A zero duration disables the
// watchdog.
type TimeoutSetter interface {
	SetDeviceTimeout(d time.Duration)
}

// ComputePassEncoder records compute commands.
//
// Usage:
//  1. Obtain encoder from GPUAdapter.BeginComputePass()
//  2. Set pipeline and bind groups
//  3. Dispatch compute workgroups
//  4. Call End() to finish recording
//  5. Call GPUAdapter.Submit() to execute
//
// The encoder is single-use and cannot be reused after End().
type ComputePassEncoder interface {
	// SetPipeline sets the active compute pipeline.
	SetPipeline(pipeline ComputePipelineID)

	// SetBindGroup sets a bind group at the specified index.
	// Index must be less than the number of bind group layouts in the pipeline.
	SetBindGroup(index uint32, group BindGroupID)

	// Dispatch dispatches compute workgroups.
	Dispatch(x, y, z uint32)

	// End finishes the compute pass.
	End()
}
