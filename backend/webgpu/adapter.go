// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package webgpu

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gogpu/dips/gpucore"
)

const defaultPollTimeout = 5 * time.Second

// requiredStorageTextures covers a full history window plus the baseline
// and output textures of the differential stage.
const requiredStorageTextures = 16

type texture struct {
	tex    *wgpu.Texture
	view   *wgpu.TextureView
	width  uint32
	height uint32
}

// Adapter implements gpucore.GPUAdapter on a wgpu-native device.
type Adapter struct {
	mu sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	info    wgpu.AdapterInfo
	limits  gpucore.Limits
	timeout atomic.Int64

	nextID atomic.Uint64

	buffers     map[gpucore.BufferID]*wgpu.Buffer
	textures    map[gpucore.TextureID]*texture
	modules     map[gpucore.ShaderModuleID]*wgpu.ShaderModule
	pipelines   map[gpucore.ComputePipelineID]*wgpu.ComputePipeline
	layouts     map[gpucore.BindGroupLayoutID]*wgpu.BindGroupLayout
	pipeLayouts map[gpucore.PipelineLayoutID]*wgpu.PipelineLayout
	groups      map[gpucore.BindGroupID]*wgpu.BindGroup

	encoder  *wgpu.CommandEncoder
	released bool
}

// Open requests a high-performance adapter and a device whose limits are
// raised to five bind groups.
func Open() (*Adapter, error) {
	instance := wgpu.CreateInstance(nil)

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: %w", ErrNoAdapter, err)
	}

	limits := wgpu.DefaultLimits()
	if limits.MaxBindGroups < gpucore.RequiredBindGroups {
		limits.MaxBindGroups = gpucore.RequiredBindGroups
	}
	if limits.MaxStorageTexturesPerShaderStage < requiredStorageTextures {
		limits.MaxStorageTexturesPerShaderStage = requiredStorageTextures
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "dips",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: request device: %w", err)
	}

	a := &Adapter{
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       device.GetQueue(),
		info:        adapter.GetInfo(),
		limits:      convertLimits(limits),
		buffers:     make(map[gpucore.BufferID]*wgpu.Buffer),
		textures:    make(map[gpucore.TextureID]*texture),
		modules:     make(map[gpucore.ShaderModuleID]*wgpu.ShaderModule),
		pipelines:   make(map[gpucore.ComputePipelineID]*wgpu.ComputePipeline),
		layouts:     make(map[gpucore.BindGroupLayoutID]*wgpu.BindGroupLayout),
		pipeLayouts: make(map[gpucore.PipelineLayoutID]*wgpu.PipelineLayout),
		groups:      make(map[gpucore.BindGroupID]*wgpu.BindGroup),
	}
	a.timeout.Store(int64(defaultPollTimeout))

	slogger().Info("webgpu: device opened",
		"name", a.info.Name,
		"backend", a.info.BackendType.String(),
		"type", a.info.AdapterType.String())
	return a, nil
}

func convertLimits(l wgpu.Limits) gpucore.Limits {
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

func (a *Adapter) newID() uint64 { return a.nextID.Add(1) }

// Name returns "webgpu".
func (a *Adapter) Name() string { return "webgpu" }

// Info returns what wgpu-native reports about the physical adapter.
func (a *Adapter) Info() wgpu.AdapterInfo { return a.info }

// Limits returns the limits the device was opened with.
func (a *Adapter) Limits() gpucore.Limits { return a.limits }

// SetDeviceTimeout sets the poll watchdog. Zero waits forever.
func (a *Adapter) SetDeviceTimeout(d time.Duration) {
	a.timeout.Store(int64(d))
}

// wait blocks until the device has no pending work or the watchdog fires.
// A poll that outlives the watchdog keeps running in the background; the
// device is not usable afterwards.
func (a *Adapter) wait() error {
	d := time.Duration(a.timeout.Load())
	if d <= 0 {
		a.device.Poll(true, nil)
		return nil
	}
	done := make(chan struct{})
	go func() {
		a.device.Poll(true, nil)
		close(done)
	}()
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-timer.C:
		slogger().Error("webgpu: device did not finish", "timeout", d)
		return fmt.Errorf("%w after %v", gpucore.ErrDeviceTimeout, d)
	}
}

// === Shader Compilation ===

// CreateShaderModule hands the WGSL source to wgpu-native.
func (a *Adapter) CreateShaderModule(wgsl string, label string) (gpucore.ShaderModuleID, error) {
	module, err := a.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: wgsl,
		},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("webgpu: create shader module %s: %w", label, err)
	}
	id := gpucore.ShaderModuleID(a.newID())
	a.mu.Lock()
	a.modules[id] = module
	a.mu.Unlock()
	return id, nil
}

// DestroyShaderModule releases a shader module.
func (a *Adapter) DestroyShaderModule(id gpucore.ShaderModuleID) {
	a.mu.Lock()
	m, ok := a.modules[id]
	delete(a.modules, id)
	a.mu.Unlock()
	if ok {
		m.Release()
	}
}

// === Buffer Management ===

// CreateBuffer creates a GPU buffer.
func (a *Adapter) CreateBuffer(size int, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	if size <= 0 {
		return gpucore.InvalidID, fmt.Errorf("webgpu: buffer size must be positive, got %d", size)
	}
	buf, err := a.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "dips_buffer",
		Size:  uint64(size),
		Usage: convertBufferUsage(usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("webgpu: create buffer: %w", err)
	}
	id := gpucore.BufferID(a.newID())
	a.mu.Lock()
	a.buffers[id] = buf
	a.mu.Unlock()
	return id, nil
}

// DestroyBuffer releases a GPU buffer.
func (a *Adapter) DestroyBuffer(id gpucore.BufferID) {
	a.mu.Lock()
	b, ok := a.buffers[id]
	delete(a.buffers, id)
	a.mu.Unlock()
	if ok {
		b.Release()
	}
}

// WriteBuffer writes data to a buffer through the queue.
func (a *Adapter) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	a.mu.Lock()
	b, ok := a.buffers[id]
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: buffer %d", gpucore.ErrUnknownResource, id)
	}
	a.queue.WriteBuffer(b, offset, data)
	return nil
}

// MapRead maps a staging buffer, polling the device until the mapping
// callback fires.
func (a *Adapter) MapRead(id gpucore.BufferID, size uint64) ([]byte, error) {
	a.mu.Lock()
	b, ok := a.buffers[id]
	a.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: buffer %d", gpucore.ErrUnknownResource, id)
	}

	var status wgpu.BufferMapAsyncStatus
	err := b.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gpucore.ErrMapFailed, err)
	}
	if err := a.wait(); err != nil {
		return nil, err
	}
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("%w: status %v", gpucore.ErrMapFailed, status)
	}
	return b.GetMappedRange(0, uint(size)), nil
}

// Unmap releases a mapping obtained from MapRead.
func (a *Adapter) Unmap(id gpucore.BufferID) {
	a.mu.Lock()
	b, ok := a.buffers[id]
	a.mu.Unlock()
	if ok {
		b.Unmap()
	}
}

// === Texture Management ===

// CreateTexture creates a 2D texture and the view used to bind it.
func (a *Adapter) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("webgpu: nil texture descriptor")
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return gpucore.InvalidID, fmt.Errorf("webgpu: texture dimensions must be positive, got %dx%d", desc.Width, desc.Height)
	}
	w, h := uint32(desc.Width), uint32(desc.Height) //nolint:gosec // validated positive

	tex, err := a.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         desc.Label,
		Usage:         convertTextureUsage(desc.Usage),
		Dimension:     wgpu.TextureDimension2D,
		Size:          wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		Format:        wgpu.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("webgpu: create texture %s: %w", desc.Label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return gpucore.InvalidID, fmt.Errorf("webgpu: create texture view %s: %w", desc.Label, err)
	}

	id := gpucore.TextureID(a.newID())
	a.mu.Lock()
	a.textures[id] = &texture{tex: tex, view: view, width: w, height: h}
	a.mu.Unlock()
	return id, nil
}

// DestroyTexture releases a texture and its view.
func (a *Adapter) DestroyTexture(id gpucore.TextureID) {
	a.mu.Lock()
	t, ok := a.textures[id]
	delete(a.textures, id)
	a.mu.Unlock()
	if ok {
		t.view.Release()
		t.tex.Release()
	}
}

// WriteTexture uploads tightly packed RGBA8 pixels covering the texture.
func (a *Adapter) WriteTexture(id gpucore.TextureID, data []byte) error {
	a.mu.Lock()
	t, ok := a.textures[id]
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, id)
	}
	if want := int(t.width) * int(t.height) * 4; len(data) != want {
		return fmt.Errorf("webgpu: texture %d expects %d bytes, got %d", id, want, len(data))
	}

	a.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  t.width * 4,
			RowsPerImage: t.height,
		},
		&wgpu.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1},
	)
	return nil
}

// === Pipeline Management ===

// CreateBindGroupLayout creates a bind group layout.
func (a *Adapter) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("webgpu: nil bind group layout descriptor")
	}
	entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entries[i] = convertLayoutEntry(e)
	}
	layout, err := a.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("webgpu: create bind group layout %s: %w", desc.Label, err)
	}
	id := gpucore.BindGroupLayoutID(a.newID())
	a.mu.Lock()
	a.layouts[id] = layout
	a.mu.Unlock()
	return id, nil
}

// DestroyBindGroupLayout releases a bind group layout.
func (a *Adapter) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	a.mu.Lock()
	l, ok := a.layouts[id]
	delete(a.layouts, id)
	a.mu.Unlock()
	if ok {
		l.Release()
	}
}

// CreatePipelineLayout creates a pipeline layout.
func (a *Adapter) CreatePipelineLayout(layouts []gpucore.BindGroupLayoutID) (gpucore.PipelineLayoutID, error) {
	a.mu.Lock()
	wl := make([]*wgpu.BindGroupLayout, len(layouts))
	for i, id := range layouts {
		l, ok := a.layouts[id]
		if !ok {
			a.mu.Unlock()
			return gpucore.InvalidID, fmt.Errorf("%w: bind group layout %d", gpucore.ErrUnknownResource, id)
		}
		wl[i] = l
	}
	a.mu.Unlock()

	pl, err := a.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "dips_pipeline_layout",
		BindGroupLayouts: wl,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("webgpu: create pipeline layout: %w", err)
	}
	id := gpucore.PipelineLayoutID(a.newID())
	a.mu.Lock()
	a.pipeLayouts[id] = pl
	a.mu.Unlock()
	return id, nil
}

// DestroyPipelineLayout releases a pipeline layout.
func (a *Adapter) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	a.mu.Lock()
	pl, ok := a.pipeLayouts[id]
	delete(a.pipeLayouts, id)
	a.mu.Unlock()
	if ok {
		pl.Release()
	}
}

// CreateComputePipeline creates a compute pipeline.
func (a *Adapter) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("webgpu: nil compute pipeline descriptor")
	}
	a.mu.Lock()
	pl, plOK := a.pipeLayouts[desc.Layout]
	m, mOK := a.modules[desc.ShaderModule]
	a.mu.Unlock()
	if !plOK {
		return gpucore.InvalidID, fmt.Errorf("%w: pipeline layout %d", gpucore.ErrUnknownResource, desc.Layout)
	}
	if !mOK {
		return gpucore.InvalidID, fmt.Errorf("%w: shader module %d", gpucore.ErrUnknownResource, desc.ShaderModule)
	}

	p, err := a.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  desc.Label,
		Layout: pl,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     m,
			EntryPoint: desc.EntryPoint,
		},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("webgpu: create compute pipeline %s: %w", desc.Label, err)
	}
	id := gpucore.ComputePipelineID(a.newID())
	a.mu.Lock()
	a.pipelines[id] = p
	a.mu.Unlock()
	return id, nil
}

// DestroyComputePipeline releases a compute pipeline.
func (a *Adapter) DestroyComputePipeline(id gpucore.ComputePipelineID) {
	a.mu.Lock()
	p, ok := a.pipelines[id]
	delete(a.pipelines, id)
	a.mu.Unlock()
	if ok {
		p.Release()
	}
}

// CreateBindGroup creates a bind group.
func (a *Adapter) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("webgpu: nil bind group descriptor")
	}
	a.mu.Lock()
	layout, ok := a.layouts[desc.Layout]
	if !ok {
		a.mu.Unlock()
		return gpucore.InvalidID, fmt.Errorf("%w: bind group layout %d", gpucore.ErrUnknownResource, desc.Layout)
	}
	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		switch {
		case e.Texture != gpucore.InvalidID:
			t, ok := a.textures[e.Texture]
			if !ok {
				a.mu.Unlock()
				return gpucore.InvalidID, fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, e.Texture)
			}
			entries[i] = wgpu.BindGroupEntry{Binding: e.Binding, TextureView: t.view}
		default:
			b, ok := a.buffers[e.Buffer]
			if !ok {
				a.mu.Unlock()
				return gpucore.InvalidID, fmt.Errorf("%w: buffer %d", gpucore.ErrUnknownResource, e.Buffer)
			}
			size := e.Size
			if size == 0 {
				size = wgpu.WholeSize
			}
			entries[i] = wgpu.BindGroupEntry{Binding: e.Binding, Buffer: b, Offset: e.Offset, Size: size}
		}
	}
	a.mu.Unlock()

	g, err := a.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("webgpu: create bind group %s: %w", desc.Label, err)
	}
	id := gpucore.BindGroupID(a.newID())
	a.mu.Lock()
	a.groups[id] = g
	a.mu.Unlock()
	return id, nil
}

// DestroyBindGroup releases a bind group.
func (a *Adapter) DestroyBindGroup(id gpucore.BindGroupID) {
	a.mu.Lock()
	g, ok := a.groups[id]
	delete(a.groups, id)
	a.mu.Unlock()
	if ok {
		g.Release()
	}
}

// === Command Recording and Execution ===

// encoderLocked must be called with mu held.
func (a *Adapter) encoderLocked() (*wgpu.CommandEncoder, error) {
	if a.encoder != nil {
		return a.encoder, nil
	}
	enc, err := a.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("webgpu: create command encoder: %w", err)
	}
	a.encoder = enc
	return enc, nil
}

// BeginComputePass begins a compute pass in the current submission.
func (a *Adapter) BeginComputePass(label string) gpucore.ComputePassEncoder {
	a.mu.Lock()
	defer a.mu.Unlock()
	enc, err := a.encoderLocked()
	if err != nil {
		slogger().Error("webgpu: compute pass dropped", "label", label, "err", err)
		return &computePass{adapter: a}
	}
	return &computePass{adapter: a, pass: enc.BeginComputePass(nil)}
}

// CopyTextureToBuffer records a copy of the whole texture with the given
// padded row stride.
func (a *Adapter) CopyTextureToBuffer(c *gpucore.TextureCopy) error {
	if c.BytesPerRow%gpucore.CopyBytesPerRowAlignment != 0 {
		return fmt.Errorf("webgpu: bytes per row %d not a multiple of %d", c.BytesPerRow, gpucore.CopyBytesPerRowAlignment)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	t, ok := a.textures[c.Texture]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, c.Texture)
	}
	b, ok := a.buffers[c.Buffer]
	if !ok {
		return fmt.Errorf("%w: buffer %d", gpucore.ErrUnknownResource, c.Buffer)
	}
	enc, err := a.encoderLocked()
	if err != nil {
		return err
	}
	enc.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: b,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  c.BytesPerRow,
				RowsPerImage: c.Height,
			},
		},
		&wgpu.Extent3D{Width: c.Width, Height: c.Height, DepthOrArrayLayers: 1},
	)
	return nil
}

// Submit finishes the current encoder, submits it and waits for the
// device to drain.
func (a *Adapter) Submit() error {
	a.mu.Lock()
	if a.released {
		a.mu.Unlock()
		return gpucore.ErrReleased
	}
	enc := a.encoder
	a.encoder = nil
	a.mu.Unlock()
	if enc == nil {
		return nil
	}
	defer enc.Release()

	cmd, err := enc.Finish(nil)
	if err != nil {
		return fmt.Errorf("webgpu: finish encoder: %w", err)
	}
	a.queue.Submit(cmd)
	cmd.Release()
	return a.wait()
}

// Release drops every tracked resource and the device.
func (a *Adapter) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return
	}
	a.released = true
	if a.encoder != nil {
		a.encoder.Release()
		a.encoder = nil
	}
	for id, g := range a.groups {
		g.Release()
		delete(a.groups, id)
	}
	for id, p := range a.pipelines {
		p.Release()
		delete(a.pipelines, id)
	}
	for id, pl := range a.pipeLayouts {
		pl.Release()
		delete(a.pipeLayouts, id)
	}
	for id, l := range a.layouts {
		l.Release()
		delete(a.layouts, id)
	}
	for id, m := range a.modules {
		m.Release()
		delete(a.modules, id)
	}
	for id, t := range a.textures {
		t.view.Release()
		t.tex.Release()
		delete(a.textures, id)
	}
	for id, b := range a.buffers {
		b.Release()
		delete(a.buffers, id)
	}
	a.queue.Release()
	a.device.Release()
	a.adapter.Release()
	a.instance.Release()
}

// computePass implements gpucore.ComputePassEncoder.
type computePass struct {
	adapter *Adapter
	pass    *wgpu.ComputePassEncoder
}

func (p *computePass) SetPipeline(id gpucore.ComputePipelineID) {
	if p.pass == nil {
		return
	}
	p.adapter.mu.Lock()
	pipe, ok := p.adapter.pipelines[id]
	p.adapter.mu.Unlock()
	if ok {
		p.pass.SetPipeline(pipe)
	}
}

func (p *computePass) SetBindGroup(index uint32, id gpucore.BindGroupID) {
	if p.pass == nil {
		return
	}
	p.adapter.mu.Lock()
	g, ok := p.adapter.groups[id]
	p.adapter.mu.Unlock()
	if ok {
		p.pass.SetBindGroup(index, g, nil)
	}
}

func (p *computePass) Dispatch(x, y, z uint32) {
	if p.pass == nil {
		return
	}
	p.pass.DispatchWorkgroups(x, y, z)
}

func (p *computePass) End() {
	if p.pass == nil {
		return
	}
	p.pass.End()
	p.pass.Release()
	p.pass = nil
}

// === Type Conversion Helpers ===

func convertBufferUsage(usage gpucore.BufferUsage) wgpu.BufferUsage {
	var result wgpu.BufferUsage
	if usage&gpucore.BufferUsageMapRead != 0 {
		result |= wgpu.BufferUsageMapRead
	}
	if usage&gpucore.BufferUsageCopySrc != 0 {
		result |= wgpu.BufferUsageCopySrc
	}
	if usage&gpucore.BufferUsageCopyDst != 0 {
		result |= wgpu.BufferUsageCopyDst
	}
	if usage&gpucore.BufferUsageUniform != 0 {
		result |= wgpu.BufferUsageUniform
	}
	if usage&gpucore.BufferUsageStorage != 0 {
		result |= wgpu.BufferUsageStorage
	}
	return result
}

func convertTextureUsage(usage gpucore.TextureUsage) wgpu.TextureUsage {
	var result wgpu.TextureUsage
	if usage&gpucore.TextureUsageCopySrc != 0 {
		result |= wgpu.TextureUsageCopySrc
	}
	if usage&gpucore.TextureUsageCopyDst != 0 {
		result |= wgpu.TextureUsageCopyDst
	}
	if usage&gpucore.TextureUsageStorageBinding != 0 {
		result |= wgpu.TextureUsageStorageBinding
	}
	return result
}

func convertAccess(access gpucore.StorageAccess) wgpu.StorageTextureAccess {
	switch access {
	case gpucore.StorageAccessRead:
		return wgpu.StorageTextureAccessReadOnly
	case gpucore.StorageAccessWrite:
		return wgpu.StorageTextureAccessWriteOnly
	default:
		return wgpu.StorageTextureAccessReadWrite
	}
}

func convertLayoutEntry(e gpucore.BindGroupLayoutEntry) wgpu.BindGroupLayoutEntry {
	out := wgpu.BindGroupLayoutEntry{
		Binding:    e.Binding,
		Visibility: wgpu.ShaderStageCompute,
	}
	switch e.Type {
	case gpucore.BindingTypeUniformBuffer:
		out.Buffer = wgpu.BufferBindingLayout{
			Type:           wgpu.BufferBindingTypeUniform,
			MinBindingSize: e.MinBindingSize,
		}
	case gpucore.BindingTypeStorageTexture:
		out.StorageTexture = wgpu.StorageTextureBindingLayout{
			Access:        convertAccess(e.Access),
			Format:        wgpu.TextureFormatRGBA8Unorm,
			ViewDimension: wgpu.TextureViewDimension2D,
		}
	}
	return out
}

var (
	_ gpucore.GPUAdapter    = (*Adapter)(nil)
	_ gpucore.TimeoutSetter = (*Adapter)(nil)
)
