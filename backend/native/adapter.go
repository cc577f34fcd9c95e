// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Package native provides a Pure Go GPU compute backend on gogpu/wgpu HAL.
//
// WGSL is compiled to SPIR-V with naga before it reaches the device.
// Every blocking wait goes through a fence with a watchdog (see
// SetDeviceTimeout), so a lost device surfaces as gpucore.ErrDeviceTimeout
// instead of a hang.
package native

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/dips/gpucore"
	"github.com/gogpu/dips/internal/shader"
)

// defaultFenceTimeout matches the wait used elsewhere in the gogpu HAL code.
const defaultFenceTimeout = 5 * time.Second

// requiredStorageTextures covers a full history window plus the baseline
// and output textures of the differential stage.
const requiredStorageTextures = 16

type texture struct {
	tex    hal.Texture
	view   hal.TextureView
	width  uint32
	height uint32
}

// HALAdapter implements gpucore.GPUAdapter using gogpu/wgpu/hal directly.
//
// Thread Safety: HALAdapter is safe for concurrent use from multiple goroutines.
// All resource operations are protected by a mutex.
type HALAdapter struct {
	mu sync.RWMutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	external bool // device owned by a provider; Release leaves it alone

	name    string
	limits  gpucore.Limits
	timeout atomic.Int64

	// ID generation
	nextID atomic.Uint64

	// Resource tracking maps gpucore IDs to hal resources
	buffers          map[gpucore.BufferID]hal.Buffer
	textures         map[gpucore.TextureID]*texture
	shaderModules    map[gpucore.ShaderModuleID]hal.ShaderModule
	computePipelines map[gpucore.ComputePipelineID]hal.ComputePipeline
	bindGroupLayouts map[gpucore.BindGroupLayoutID]hal.BindGroupLayout
	pipelineLayouts  map[gpucore.PipelineLayoutID]hal.PipelineLayout
	bindGroups       map[gpucore.BindGroupID]hal.BindGroup

	// Command encoder for the current submission
	encoder hal.CommandEncoder

	released bool
}

// newHALAdapter wraps an open device and queue.
func newHALAdapter(device hal.Device, queue hal.Queue, name string, limits gputypes.Limits) *HALAdapter {
	a := &HALAdapter{
		device:           device,
		queue:            queue,
		name:             name,
		limits:           convertLimits(limits),
		buffers:          make(map[gpucore.BufferID]hal.Buffer),
		textures:         make(map[gpucore.TextureID]*texture),
		shaderModules:    make(map[gpucore.ShaderModuleID]hal.ShaderModule),
		computePipelines: make(map[gpucore.ComputePipelineID]hal.ComputePipeline),
		bindGroupLayouts: make(map[gpucore.BindGroupLayoutID]hal.BindGroupLayout),
		pipelineLayouts:  make(map[gpucore.PipelineLayoutID]hal.PipelineLayout),
		bindGroups:       make(map[gpucore.BindGroupID]hal.BindGroup),
	}
	a.timeout.Store(int64(defaultFenceTimeout))
	return a
}

// requestLimits returns the HAL default limits raised to what the
// differential stage binds.
func requestLimits() gputypes.Limits {
	limits := gputypes.DefaultLimits()
	if limits.MaxBindGroups < gpucore.RequiredBindGroups {
		limits.MaxBindGroups = gpucore.RequiredBindGroups
	}
	if limits.MaxStorageTexturesPerShaderStage < requiredStorageTextures {
		limits.MaxStorageTexturesPerShaderStage = requiredStorageTextures
	}
	return limits
}

func convertLimits(l gputypes.Limits) gpucore.Limits {
	perGroup := l.MaxStorageTexturesPerShaderStage
	if perGroup > 4 {
		perGroup = 4
	}
	return gpucore.Limits{
		MaxBindGroups:                    l.MaxBindGroups,
		MaxBindingsPerGroup:              perGroup,
		MaxTextureDimension2D:            l.MaxTextureDimension2D,
		MaxComputeWorkgroupsPerDimension: l.MaxComputeWorkgroupsPerDimension,
	}
}

// newID generates a unique resource ID.
func (a *HALAdapter) newID() uint64 {
	return a.nextID.Add(1)
}

// Name returns "native".
func (a *HALAdapter) Name() string { return "native" }

// DeviceName returns the name of the physical adapter, empty for a
// provider device.
func (a *HALAdapter) DeviceName() string { return a.name }

// Limits returns the limits the device was opened with.
func (a *HALAdapter) Limits() gpucore.Limits { return a.limits }

// SetDeviceTimeout sets the fence watchdog. Zero waits forever.
func (a *HALAdapter) SetDeviceTimeout(d time.Duration) {
	a.timeout.Store(int64(d))
}

func (a *HALAdapter) fenceTimeout() time.Duration {
	d := time.Duration(a.timeout.Load())
	if d <= 0 {
		return time.Duration(math.MaxInt64)
	}
	return d
}

// === Shader Compilation ===

// CreateShaderModule compiles WGSL to SPIR-V with naga and creates a
// shader module from it.
func (a *HALAdapter) CreateShaderModule(wgsl string, label string) (gpucore.ShaderModuleID, error) {
	spirv, err := shader.CompileSPIRV(wgsl)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: %s: %w", label, err)
	}
	if len(spirv) == 0 {
		return gpucore.InvalidID, fmt.Errorf("native: %s: empty SPIR-V bytecode", label)
	}

	module, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create shader module %s: %w", label, err)
	}

	id := gpucore.ShaderModuleID(a.newID())
	a.mu.Lock()
	a.shaderModules[id] = module
	a.mu.Unlock()

	slogger().Debug("native: shader module created", "label", label, "words", len(spirv))
	return id, nil
}

// DestroyShaderModule releases a shader module.
func (a *HALAdapter) DestroyShaderModule(id gpucore.ShaderModuleID) {
	a.mu.Lock()
	module, ok := a.shaderModules[id]
	delete(a.shaderModules, id)
	a.mu.Unlock()

	if ok {
		a.device.DestroyShaderModule(module)
	}
}

// === Buffer Management ===

// CreateBuffer creates a GPU buffer.
func (a *HALAdapter) CreateBuffer(size int, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	if size <= 0 {
		return gpucore.InvalidID, fmt.Errorf("native: buffer size must be positive, got %d", size)
	}

	buffer, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "dips_buffer",
		Size:  uint64(size),
		Usage: convertBufferUsage(usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create buffer: %w", err)
	}

	id := gpucore.BufferID(a.newID())
	a.mu.Lock()
	a.buffers[id] = buffer
	a.mu.Unlock()
	return id, nil
}

// DestroyBuffer releases a GPU buffer.
func (a *HALAdapter) DestroyBuffer(id gpucore.BufferID) {
	a.mu.Lock()
	buffer, ok := a.buffers[id]
	delete(a.buffers, id)
	a.mu.Unlock()

	if ok {
		a.device.DestroyBuffer(buffer)
	}
}

// WriteBuffer writes data to a buffer through the queue.
func (a *HALAdapter) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	a.mu.RLock()
	buffer, ok := a.buffers[id]
	a.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: buffer %d", gpucore.ErrUnknownResource, id)
	}
	if len(data) > 0 {
		a.queue.WriteBuffer(buffer, offset, data)
	}
	return nil
}

// MapRead reads size bytes of a staging buffer back to the host.
// The HAL reads through the queue after the last fence, so the slice is
// an owned copy and Unmap has nothing to release.
func (a *HALAdapter) MapRead(id gpucore.BufferID, size uint64) ([]byte, error) {
	a.mu.RLock()
	buffer, ok := a.buffers[id]
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: buffer %d", gpucore.ErrUnknownResource, id)
	}

	data := make([]byte, size)
	if err := a.queue.ReadBuffer(buffer, 0, data); err != nil {
		return nil, fmt.Errorf("%w: %w", gpucore.ErrMapFailed, err)
	}
	return data, nil
}

// Unmap is a no-op; see MapRead.
func (a *HALAdapter) Unmap(gpucore.BufferID) {}

// === Texture Management ===

// CreateTexture creates a 2D texture and the view used to bind it.
func (a *HALAdapter) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("native: nil texture descriptor")
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return gpucore.InvalidID, fmt.Errorf("native: texture dimensions must be positive, got %dx%d", desc.Width, desc.Height)
	}

	w, h := uint32(desc.Width), uint32(desc.Height) //nolint:gosec // validated positive
	tex, err := a.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        convertTextureFormat(desc.Format),
		Usage:         convertTextureUsage(desc.Usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create texture %s: %w", desc.Label, err)
	}

	view, err := a.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: desc.Label + "_view",
	})
	if err != nil {
		a.device.DestroyTexture(tex)
		return gpucore.InvalidID, fmt.Errorf("native: create texture view %s: %w", desc.Label, err)
	}

	id := gpucore.TextureID(a.newID())
	a.mu.Lock()
	a.textures[id] = &texture{tex: tex, view: view, width: w, height: h}
	a.mu.Unlock()
	return id, nil
}

// DestroyTexture releases a texture and its view.
func (a *HALAdapter) DestroyTexture(id gpucore.TextureID) {
	a.mu.Lock()
	t, ok := a.textures[id]
	delete(a.textures, id)
	a.mu.Unlock()

	if ok {
		a.device.DestroyTextureView(t.view)
		a.device.DestroyTexture(t.tex)
	}
}

// WriteTexture uploads tightly packed RGBA8 pixels covering the texture.
func (a *HALAdapter) WriteTexture(id gpucore.TextureID, data []byte) error {
	a.mu.RLock()
	t, ok := a.textures[id]
	a.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, id)
	}
	if want := int(t.width) * int(t.height) * 4; len(data) != want {
		return fmt.Errorf("native: texture %d expects %d bytes, got %d", id, want, len(data))
	}

	a.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: 0, Y: 0, Z: 0},
			Aspect:   gputypes.TextureAspectAll,
		},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  t.width * 4,
			RowsPerImage: t.height,
		},
		&hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
	)
	return nil
}

// === Pipeline Management ===

// CreateBindGroupLayout creates a bind group layout.
func (a *HALAdapter) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("native: nil bind group layout descriptor")
	}

	entries := make([]gputypes.BindGroupLayoutEntry, len(desc.Entries))
	for i, entry := range desc.Entries {
		entries[i] = convertBindGroupLayoutEntry(entry)
	}

	layout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create bind group layout %s: %w", desc.Label, err)
	}

	id := gpucore.BindGroupLayoutID(a.newID())
	a.mu.Lock()
	a.bindGroupLayouts[id] = layout
	a.mu.Unlock()
	return id, nil
}

// DestroyBindGroupLayout releases a bind group layout.
func (a *HALAdapter) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	a.mu.Lock()
	layout, ok := a.bindGroupLayouts[id]
	delete(a.bindGroupLayouts, id)
	a.mu.Unlock()

	if ok {
		a.device.DestroyBindGroupLayout(layout)
	}
}

// CreatePipelineLayout creates a pipeline layout.
func (a *HALAdapter) CreatePipelineLayout(layouts []gpucore.BindGroupLayoutID) (gpucore.PipelineLayoutID, error) {
	a.mu.RLock()
	halLayouts := make([]hal.BindGroupLayout, len(layouts))
	for i, id := range layouts {
		layout, ok := a.bindGroupLayouts[id]
		if !ok {
			a.mu.RUnlock()
			return gpucore.InvalidID, fmt.Errorf("%w: bind group layout %d", gpucore.ErrUnknownResource, id)
		}
		halLayouts[i] = layout
	}
	a.mu.RUnlock()

	pipelineLayout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "dips_pipeline_layout",
		BindGroupLayouts: halLayouts,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create pipeline layout: %w", err)
	}

	id := gpucore.PipelineLayoutID(a.newID())
	a.mu.Lock()
	a.pipelineLayouts[id] = pipelineLayout
	a.mu.Unlock()
	return id, nil
}

// DestroyPipelineLayout releases a pipeline layout.
func (a *HALAdapter) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	a.mu.Lock()
	layout, ok := a.pipelineLayouts[id]
	delete(a.pipelineLayouts, id)
	a.mu.Unlock()

	if ok {
		a.device.DestroyPipelineLayout(layout)
	}
}

// CreateComputePipeline creates a compute pipeline.
func (a *HALAdapter) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("native: nil compute pipeline descriptor")
	}

	a.mu.RLock()
	pipelineLayout, layoutOK := a.pipelineLayouts[desc.Layout]
	shaderModule, moduleOK := a.shaderModules[desc.ShaderModule]
	a.mu.RUnlock()

	if !layoutOK {
		return gpucore.InvalidID, fmt.Errorf("%w: pipeline layout %d", gpucore.ErrUnknownResource, desc.Layout)
	}
	if !moduleOK {
		return gpucore.InvalidID, fmt.Errorf("%w: shader module %d", gpucore.ErrUnknownResource, desc.ShaderModule)
	}

	pipeline, err := a.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  desc.Label,
		Layout: pipelineLayout,
		Compute: hal.ComputeState{
			Module:     shaderModule,
			EntryPoint: desc.EntryPoint,
		},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create compute pipeline %s: %w", desc.Label, err)
	}

	id := gpucore.ComputePipelineID(a.newID())
	a.mu.Lock()
	a.computePipelines[id] = pipeline
	a.mu.Unlock()
	return id, nil
}

// DestroyComputePipeline releases a compute pipeline.
func (a *HALAdapter) DestroyComputePipeline(id gpucore.ComputePipelineID) {
	a.mu.Lock()
	pipeline, ok := a.computePipelines[id]
	delete(a.computePipelines, id)
	a.mu.Unlock()

	if ok {
		a.device.DestroyComputePipeline(pipeline)
	}
}

// CreateBindGroup creates a bind group.
func (a *HALAdapter) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("native: nil bind group descriptor")
	}

	a.mu.RLock()
	halLayout, ok := a.bindGroupLayouts[desc.Layout]
	if !ok {
		a.mu.RUnlock()
		return gpucore.InvalidID, fmt.Errorf("%w: bind group layout %d", gpucore.ErrUnknownResource, desc.Layout)
	}
	entries := make([]gputypes.BindGroupEntry, len(desc.Entries))
	for i, entry := range desc.Entries {
		e, err := a.convertBindGroupEntry(entry)
		if err != nil {
			a.mu.RUnlock()
			return gpucore.InvalidID, fmt.Errorf("native: bind group %s entry %d: %w", desc.Label, entry.Binding, err)
		}
		entries[i] = e
	}
	a.mu.RUnlock()

	bindGroup, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  halLayout,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create bind group %s: %w", desc.Label, err)
	}

	id := gpucore.BindGroupID(a.newID())
	a.mu.Lock()
	a.bindGroups[id] = bindGroup
	a.mu.Unlock()
	return id, nil
}

// DestroyBindGroup releases a bind group.
func (a *HALAdapter) DestroyBindGroup(id gpucore.BindGroupID) {
	a.mu.Lock()
	group, ok := a.bindGroups[id]
	delete(a.bindGroups, id)
	a.mu.Unlock()

	if ok {
		a.device.DestroyBindGroup(group)
	}
}

// === Command Recording and Execution ===

// encoderLocked returns the encoder of the current submission, creating
// it on first use. Must be called with mu held.
func (a *HALAdapter) encoderLocked() (hal.CommandEncoder, error) {
	if a.encoder != nil {
		return a.encoder, nil
	}
	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "dips_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("native: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("dips_frame"); err != nil {
		return nil, fmt.Errorf("native: begin encoding: %w", err)
	}
	a.encoder = encoder
	return encoder, nil
}

// BeginComputePass begins a compute pass in the current submission.
// If no encoder can be created the returned pass records nothing and the
// error surfaces from Submit.
func (a *HALAdapter) BeginComputePass(label string) gpucore.ComputePassEncoder {
	a.mu.Lock()
	defer a.mu.Unlock()

	encoder, err := a.encoderLocked()
	if err != nil {
		slogger().Error("native: compute pass dropped", "label", label, "err", err)
		return &halComputePassEncoder{adapter: a}
	}
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: label})
	return &halComputePassEncoder{adapter: a, pass: pass}
}

// CopyTextureToBuffer records a copy of the whole texture with the given
// padded row stride.
func (a *HALAdapter) CopyTextureToBuffer(c *gpucore.TextureCopy) error {
	if c.BytesPerRow%gpucore.CopyBytesPerRowAlignment != 0 {
		return fmt.Errorf("native: bytes per row %d not a multiple of %d", c.BytesPerRow, gpucore.CopyBytesPerRowAlignment)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	t, ok := a.textures[c.Texture]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, c.Texture)
	}
	buffer, ok := a.buffers[c.Buffer]
	if !ok {
		return fmt.Errorf("%w: buffer %d", gpucore.ErrUnknownResource, c.Buffer)
	}
	encoder, err := a.encoderLocked()
	if err != nil {
		return err
	}

	encoder.CopyTextureToBuffer(t.tex, buffer, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: c.BytesPerRow, RowsPerImage: c.Height},
		TextureBase:  hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: c.Width, Height: c.Height, DepthOrArrayLayers: 1},
	}})
	return nil
}

// Submit ends the current encoder, submits it and waits on a fence.
func (a *HALAdapter) Submit() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return gpucore.ErrReleased
	}
	if a.encoder == nil {
		return nil
	}
	encoder := a.encoder
	a.encoder = nil

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("native: end encoding: %w", err)
	}
	defer a.device.FreeCommandBuffer(cmdBuf)

	fence, err := a.device.CreateFence()
	if err != nil {
		return fmt.Errorf("native: create fence: %w", err)
	}
	defer a.device.DestroyFence(fence)

	if err := a.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("native: submit: %w", err)
	}

	timeout := a.fenceTimeout()
	ok, err := a.device.Wait(fence, 1, timeout)
	if err != nil {
		return fmt.Errorf("native: wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w after %v", gpucore.ErrDeviceTimeout, timeout)
	}
	return nil
}

// Release destroys every tracked resource and, unless the device came
// from a provider, the device itself.
func (a *HALAdapter) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return
	}
	a.released = true

	if a.encoder != nil {
		a.encoder.DiscardEncoding()
		a.encoder = nil
	}
	for id, g := range a.bindGroups {
		a.device.DestroyBindGroup(g)
		delete(a.bindGroups, id)
	}
	for id, p := range a.computePipelines {
		a.device.DestroyComputePipeline(p)
		delete(a.computePipelines, id)
	}
	for id, l := range a.pipelineLayouts {
		a.device.DestroyPipelineLayout(l)
		delete(a.pipelineLayouts, id)
	}
	for id, l := range a.bindGroupLayouts {
		a.device.DestroyBindGroupLayout(l)
		delete(a.bindGroupLayouts, id)
	}
	for id, m := range a.shaderModules {
		a.device.DestroyShaderModule(m)
		delete(a.shaderModules, id)
	}
	for id, t := range a.textures {
		a.device.DestroyTextureView(t.view)
		a.device.DestroyTexture(t.tex)
		delete(a.textures, id)
	}
	for id, b := range a.buffers {
		a.device.DestroyBuffer(b)
		delete(a.buffers, id)
	}

	if a.external {
		a.device = nil
		a.queue = nil
		return
	}
	a.device.Destroy()
	if a.instance != nil {
		a.instance.Destroy()
	}
	slogger().Debug("native: device released", "device", a.name)
}

// === Type Conversion Helpers ===

func convertBufferUsage(usage gpucore.BufferUsage) gputypes.BufferUsage {
	var result gputypes.BufferUsage
	if usage&gpucore.BufferUsageMapRead != 0 {
		result |= gputypes.BufferUsageMapRead
	}
	if usage&gpucore.BufferUsageCopySrc != 0 {
		result |= gputypes.BufferUsageCopySrc
	}
	if usage&gpucore.BufferUsageCopyDst != 0 {
		result |= gputypes.BufferUsageCopyDst
	}
	if usage&gpucore.BufferUsageUniform != 0 {
		result |= gputypes.BufferUsageUniform
	}
	if usage&gpucore.BufferUsageStorage != 0 {
		result |= gputypes.BufferUsageStorage
	}
	return result
}

func convertTextureUsage(usage gpucore.TextureUsage) gputypes.TextureUsage {
	var result gputypes.TextureUsage
	if usage&gpucore.TextureUsageCopySrc != 0 {
		result |= gputypes.TextureUsageCopySrc
	}
	if usage&gpucore.TextureUsageCopyDst != 0 {
		result |= gputypes.TextureUsageCopyDst
	}
	if usage&gpucore.TextureUsageStorageBinding != 0 {
		result |= gputypes.TextureUsageStorageBinding
	}
	return result
}

func convertTextureFormat(gpucore.TextureFormat) gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

func convertStorageAccess(access gpucore.StorageAccess) gputypes.StorageTextureAccess {
	switch access {
	case gpucore.StorageAccessRead:
		return gputypes.StorageTextureAccessReadOnly
	case gpucore.StorageAccessWrite:
		return gputypes.StorageTextureAccessWriteOnly
	default:
		return gputypes.StorageTextureAccessReadWrite
	}
}

func convertBindGroupLayoutEntry(entry gpucore.BindGroupLayoutEntry) gputypes.BindGroupLayoutEntry {
	result := gputypes.BindGroupLayoutEntry{
		Binding:    entry.Binding,
		Visibility: gputypes.ShaderStageCompute,
	}

	switch entry.Type {
	case gpucore.BindingTypeUniformBuffer:
		result.Buffer = &gputypes.BufferBindingLayout{
			Type:           gputypes.BufferBindingTypeUniform,
			MinBindingSize: entry.MinBindingSize,
		}
	case gpucore.BindingTypeStorageTexture:
		result.StorageTexture = &gputypes.StorageTextureBindingLayout{
			Access:        convertStorageAccess(entry.Access),
			Format:        gputypes.TextureFormatRGBA8Unorm,
			ViewDimension: gputypes.TextureViewDimension2D,
		}
	}
	return result
}

// convertBindGroupEntry must be called with mu held.
func (a *HALAdapter) convertBindGroupEntry(entry gpucore.BindGroupEntry) (gputypes.BindGroupEntry, error) {
	result := gputypes.BindGroupEntry{Binding: entry.Binding}

	switch {
	case entry.Texture != gpucore.InvalidID:
		t, ok := a.textures[entry.Texture]
		if !ok {
			return result, fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, entry.Texture)
		}
		result.Resource = gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()}

	case entry.Buffer != gpucore.InvalidID:
		buffer, ok := a.buffers[entry.Buffer]
		if !ok {
			return result, fmt.Errorf("%w: buffer %d", gpucore.ErrUnknownResource, entry.Buffer)
		}
		result.Resource = gputypes.BufferBinding{
			Buffer: buffer.NativeHandle(),
			Offset: entry.Offset,
			Size:   entry.Size,
		}

	default:
		return result, fmt.Errorf("native: entry binds neither a buffer nor a texture")
	}
	return result, nil
}

// === Compute Pass Encoder ===

// halComputePassEncoder implements gpucore.ComputePassEncoder.
type halComputePassEncoder struct {
	adapter *HALAdapter
	pass    hal.ComputePassEncoder
}

func (e *halComputePassEncoder) SetPipeline(pipeline gpucore.ComputePipelineID) {
	if e.pass == nil {
		return
	}
	e.adapter.mu.RLock()
	p, ok := e.adapter.computePipelines[pipeline]
	e.adapter.mu.RUnlock()
	if ok {
		e.pass.SetPipeline(p)
	}
}

func (e *halComputePassEncoder) SetBindGroup(index uint32, group gpucore.BindGroupID) {
	if e.pass == nil {
		return
	}
	e.adapter.mu.RLock()
	g, ok := e.adapter.bindGroups[group]
	e.adapter.mu.RUnlock()
	if ok {
		e.pass.SetBindGroup(index, g, nil)
	}
}

func (e *halComputePassEncoder) Dispatch(x, y, z uint32) {
	if e.pass == nil {
		return
	}
	e.pass.Dispatch(x, y, z)
}

func (e *halComputePassEncoder) End() {
	if e.pass == nil {
		return
	}
	e.pass.End()
}

var (
	_ gpucore.GPUAdapter    = (*HALAdapter)(nil)
	_ gpucore.TimeoutSetter = (*HALAdapter)(nil)
)
