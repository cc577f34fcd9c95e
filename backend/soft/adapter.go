// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package soft provides a CPU implementation of gpucore.GPUAdapter.
//
// The adapter keeps every resource in host memory and runs compute
// pipelines by looking up a Go kernel registered for the pipeline's entry
// point. Constants baked into the WGSL source (const NAME: type = value;)
// are parsed at module creation and handed to the kernel, so the same
// generated source drives GPU and CPU execution.
//
// The embedded dips kernels (baseline_main, differential_main) are
// registered by default.
package soft

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/dips/gpucore"
	"github.com/gogpu/dips/internal/parallel"
	"github.com/gogpu/dips/internal/shader"
)

// Adapter is a CPU-backed gpucore.GPUAdapter.
//
// Thread Safety: Adapter is safe for concurrent use. All operations are
// serialized by a mutex.
type Adapter struct {
	mu     sync.Mutex
	nextID atomic.Uint64

	limits   gpucore.Limits
	validate bool
	released bool
	mapErr   error
	timeout  time.Duration

	kernels     map[string]Kernel
	modules     map[gpucore.ShaderModuleID]*module
	buffers     map[gpucore.BufferID]*buffer
	textures    map[gpucore.TextureID]*Image
	layouts     map[gpucore.BindGroupLayoutID]*gpucore.BindGroupLayoutDesc
	pipeLayouts map[gpucore.PipelineLayoutID][]gpucore.BindGroupLayoutID
	pipelines   map[gpucore.ComputePipelineID]*pipeline
	groups      map[gpucore.BindGroupID]*gpucore.BindGroupDesc

	pending []command
	stats   Stats

	workers int
	pool    *parallel.WorkerPool
}

type module struct {
	source    string
	constants Constants
}

type buffer struct {
	data   []byte
	usage  gpucore.BufferUsage
	mapped bool
}

type pipeline struct {
	module *module
	entry  string
	kernel Kernel
	groups int
}

// command is one recorded operation, executed in order by Submit.
type command func() error

// Stats counts executed work.
type Stats struct {
	Submits    int
	Copies     int
	Dispatches map[string]int
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLimits overrides the reported device limits.
func WithLimits(l gpucore.Limits) Option {
	return func(a *Adapter) { a.limits = l }
}

// WithValidation makes CreateShaderModule run the source through naga.
func WithValidation(enabled bool) Option {
	return func(a *Adapter) { a.validate = enabled }
}

// WithWorkers sets how many goroutines run kernel row bands. The default
// is GOMAXPROCS; 1 runs every dispatch on the submitting goroutine.
func WithWorkers(n int) Option {
	return func(a *Adapter) { a.workers = n }
}

// WithKernel registers a kernel for an entry point, replacing any
// existing one.
func WithKernel(entryPoint string, k Kernel) Option {
	return func(a *Adapter) { a.kernels[entryPoint] = k }
}

// New creates a CPU adapter with the dips kernels registered.
func New(opts ...Option) *Adapter {
	a := &Adapter{
		limits:      gpucore.DefaultLimits(),
		kernels:     make(map[string]Kernel),
		modules:     make(map[gpucore.ShaderModuleID]*module),
		buffers:     make(map[gpucore.BufferID]*buffer),
		textures:    make(map[gpucore.TextureID]*Image),
		layouts:     make(map[gpucore.BindGroupLayoutID]*gpucore.BindGroupLayoutDesc),
		pipeLayouts: make(map[gpucore.PipelineLayoutID][]gpucore.BindGroupLayoutID),
		pipelines:   make(map[gpucore.ComputePipelineID]*pipeline),
		groups:      make(map[gpucore.BindGroupID]*gpucore.BindGroupDesc),
		stats:       Stats{Dispatches: make(map[string]int)},
	}
	a.kernels[shader.BaselineEntryPoint] = BaselineKernel
	a.kernels[shader.DifferentialEntryPoint] = DifferentialKernel
	for _, opt := range opts {
		opt(a)
	}
	workers := 1
	if a.workers != 1 {
		a.pool = parallel.NewWorkerPool(a.workers)
		workers = a.pool.Workers()
	}
	slogger().Debug("soft: adapter created", "kernels", len(a.kernels), "workers", workers)
	return a
}

func (a *Adapter) newID() uint64 { return a.nextID.Add(1) }

// Name returns "soft".
func (a *Adapter) Name() string { return "soft" }

// Limits returns the configured limits.
func (a *Adapter) Limits() gpucore.Limits { return a.limits }

// Stats returns a snapshot of the work counters.
func (a *Adapter) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := Stats{Submits: a.stats.Submits, Copies: a.stats.Copies, Dispatches: make(map[string]int, len(a.stats.Dispatches))}
	for k, v := range a.stats.Dispatches {
		s.Dispatches[k] = v
	}
	return s
}

// SetMapFailure makes every following MapRead fail with err.
// Pass nil to clear.
func (a *Adapter) SetMapFailure(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mapErr = err
}

// SetDeviceTimeout records the watchdog duration. Work runs synchronously
// on the calling goroutine, so the value is only reported back.
func (a *Adapter) SetDeviceTimeout(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.timeout = d
}

// DeviceTimeout returns the duration set by SetDeviceTimeout.
func (a *Adapter) DeviceTimeout() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timeout
}

// LiveResources returns the number of resources not yet destroyed.
func (a *Adapter) LiveResources() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.modules) + len(a.buffers) + len(a.textures) + len(a.layouts) +
		len(a.pipeLayouts) + len(a.pipelines) + len(a.groups)
}

// Texture returns a copy of a texture's pixels.
func (a *Adapter) Texture(id gpucore.TextureID) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	img, ok := a.textures[id]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), img.Pix...), true
}

// === Shader Compilation ===

var constRe = regexp.MustCompile(`(?m)^\s*const\s+([A-Za-z_][A-Za-z0-9_]*)\s*:\s*(bool|i32|u32|f32)\s*=\s*([^;]+);`)

// CreateShaderModule parses the baked constants of a WGSL module.
func (a *Adapter) CreateShaderModule(wgsl string, label string) (gpucore.ShaderModuleID, error) {
	if a.validate {
		if err := shader.Validate(wgsl); err != nil {
			return gpucore.InvalidID, fmt.Errorf("soft: compile %s: %w", label, err)
		}
	}
	consts := make(Constants)
	for _, m := range constRe.FindAllStringSubmatch(wgsl, -1) {
		consts[m[1]] = strings.TrimSuffix(strings.TrimSpace(m[3]), "u")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return gpucore.InvalidID, gpucore.ErrReleased
	}
	id := gpucore.ShaderModuleID(a.newID())
	a.modules[id] = &module{source: wgsl, constants: consts}
	return id, nil
}

// DestroyShaderModule releases a shader module.
func (a *Adapter) DestroyShaderModule(id gpucore.ShaderModuleID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.modules, id)
}

// === Buffer Management ===

// CreateBuffer allocates a zeroed host buffer.
func (a *Adapter) CreateBuffer(size int, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	if size <= 0 {
		return gpucore.InvalidID, fmt.Errorf("soft: invalid buffer size %d", size)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return gpucore.InvalidID, gpucore.ErrReleased
	}
	id := gpucore.BufferID(a.newID())
	a.buffers[id] = &buffer{data: make([]byte, size), usage: usage}
	return id, nil
}

// DestroyBuffer releases a buffer.
func (a *Adapter) DestroyBuffer(id gpucore.BufferID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.buffers, id)
}

// WriteBuffer copies data into a buffer.
func (a *Adapter) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", gpucore.ErrUnknownResource, id)
	}
	if offset+uint64(len(data)) > uint64(len(b.data)) {
		return fmt.Errorf("soft: write of %d bytes at %d overflows buffer of %d", len(data), offset, len(b.data))
	}
	copy(b.data[offset:], data)
	return nil
}

// MapRead returns the buffer contents. The slice aliases the buffer.
func (a *Adapter) MapRead(id gpucore.BufferID, size uint64) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mapErr != nil {
		return nil, fmt.Errorf("%w: %w", gpucore.ErrMapFailed, a.mapErr)
	}
	b, ok := a.buffers[id]
	if !ok {
		return nil, fmt.Errorf("%w: buffer %d", gpucore.ErrUnknownResource, id)
	}
	if b.usage&gpucore.BufferUsageMapRead == 0 {
		return nil, fmt.Errorf("%w: buffer %d lacks MapRead usage", gpucore.ErrMapFailed, id)
	}
	if b.mapped {
		return nil, fmt.Errorf("%w: buffer %d already mapped", gpucore.ErrMapFailed, id)
	}
	if size > uint64(len(b.data)) {
		return nil, fmt.Errorf("%w: map of %d bytes exceeds buffer of %d", gpucore.ErrMapFailed, size, len(b.data))
	}
	b.mapped = true
	return b.data[:size], nil
}

// Unmap ends a mapping.
func (a *Adapter) Unmap(id gpucore.BufferID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if b, ok := a.buffers[id]; ok {
		b.mapped = false
	}
}

// === Texture Management ===

// CreateTexture allocates a zeroed RGBA8 image.
func (a *Adapter) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return gpucore.InvalidID, fmt.Errorf("soft: invalid texture size %dx%d", desc.Width, desc.Height)
	}
	if desc.Format != gpucore.TextureFormatRGBA8Unorm {
		return gpucore.InvalidID, fmt.Errorf("soft: unsupported texture format %d", desc.Format)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return gpucore.InvalidID, gpucore.ErrReleased
	}
	id := gpucore.TextureID(a.newID())
	a.textures[id] = NewImage(desc.Width, desc.Height)
	return id, nil
}

// DestroyTexture releases a texture.
func (a *Adapter) DestroyTexture(id gpucore.TextureID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.textures, id)
}

// WriteTexture replaces a texture's pixels.
func (a *Adapter) WriteTexture(id gpucore.TextureID, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	img, ok := a.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, id)
	}
	if len(data) != len(img.Pix) {
		return fmt.Errorf("soft: texture write of %d bytes, want %d", len(data), len(img.Pix))
	}
	copy(img.Pix, data)
	return nil
}

// === Pipeline Management ===

// CreateBindGroupLayout records a layout.
func (a *Adapter) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	if uint32(len(desc.Entries)) > a.limits.MaxBindingsPerGroup {
		return gpucore.InvalidID, fmt.Errorf("soft: layout %q has %d entries, limit %d",
			desc.Label, len(desc.Entries), a.limits.MaxBindingsPerGroup)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	id := gpucore.BindGroupLayoutID(a.newID())
	cp := *desc
	cp.Entries = append([]gpucore.BindGroupLayoutEntry(nil), desc.Entries...)
	a.layouts[id] = &cp
	return id, nil
}

// DestroyBindGroupLayout releases a layout.
func (a *Adapter) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.layouts, id)
}

// CreatePipelineLayout records the group layouts of a pipeline.
func (a *Adapter) CreatePipelineLayout(layouts []gpucore.BindGroupLayoutID) (gpucore.PipelineLayoutID, error) {
	if uint32(len(layouts)) > a.limits.MaxBindGroups {
		return gpucore.InvalidID, fmt.Errorf("soft: pipeline layout uses %d bind groups, limit %d",
			len(layouts), a.limits.MaxBindGroups)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, l := range layouts {
		if _, ok := a.layouts[l]; !ok {
			return gpucore.InvalidID, fmt.Errorf("%w: bind group layout %d", gpucore.ErrUnknownResource, l)
		}
	}
	id := gpucore.PipelineLayoutID(a.newID())
	a.pipeLayouts[id] = append([]gpucore.BindGroupLayoutID(nil), layouts...)
	return id, nil
}

// DestroyPipelineLayout releases a pipeline layout.
func (a *Adapter) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.pipeLayouts, id)
}

// CreateComputePipeline resolves the kernel for the entry point.
func (a *Adapter) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	mod, ok := a.modules[desc.ShaderModule]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: shader module %d", gpucore.ErrUnknownResource, desc.ShaderModule)
	}
	layouts, ok := a.pipeLayouts[desc.Layout]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: pipeline layout %d", gpucore.ErrUnknownResource, desc.Layout)
	}
	if !strings.Contains(mod.source, "fn "+desc.EntryPoint+"(") {
		return gpucore.InvalidID, fmt.Errorf("soft: entry point %q not found in %s", desc.EntryPoint, desc.Label)
	}
	k, ok := a.kernels[desc.EntryPoint]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("soft: no kernel registered for %q", desc.EntryPoint)
	}
	id := gpucore.ComputePipelineID(a.newID())
	a.pipelines[id] = &pipeline{module: mod, entry: desc.EntryPoint, kernel: k, groups: len(layouts)}
	return id, nil
}

// DestroyComputePipeline releases a pipeline.
func (a *Adapter) DestroyComputePipeline(id gpucore.ComputePipelineID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.pipelines, id)
}

// CreateBindGroup checks entries against the layout and records them.
func (a *Adapter) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	layout, ok := a.layouts[desc.Layout]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("%w: bind group layout %d", gpucore.ErrUnknownResource, desc.Layout)
	}
	if len(desc.Entries) != len(layout.Entries) {
		return gpucore.InvalidID, fmt.Errorf("soft: bind group %q has %d entries, layout has %d",
			desc.Label, len(desc.Entries), len(layout.Entries))
	}
	for _, e := range desc.Entries {
		switch {
		case e.Texture != gpucore.InvalidID:
			if _, ok := a.textures[e.Texture]; !ok {
				return gpucore.InvalidID, fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, e.Texture)
			}
		case e.Buffer != gpucore.InvalidID:
			if _, ok := a.buffers[e.Buffer]; !ok {
				return gpucore.InvalidID, fmt.Errorf("%w: buffer %d", gpucore.ErrUnknownResource, e.Buffer)
			}
		default:
			return gpucore.InvalidID, fmt.Errorf("soft: bind group %q entry %d binds nothing", desc.Label, e.Binding)
		}
	}
	id := gpucore.BindGroupID(a.newID())
	cp := *desc
	cp.Entries = append([]gpucore.BindGroupEntry(nil), desc.Entries...)
	a.groups[id] = &cp
	return id, nil
}

// DestroyBindGroup releases a bind group.
func (a *Adapter) DestroyBindGroup(id gpucore.BindGroupID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.groups, id)
}

// === Command Recording and Execution ===

// BeginComputePass starts recording a compute pass.
func (a *Adapter) BeginComputePass(label string) gpucore.ComputePassEncoder {
	return &computePass{adapter: a, label: label, groups: make(map[uint32]gpucore.BindGroupID)}
}

// CopyTextureToBuffer records a padded texture-to-buffer copy.
func (a *Adapter) CopyTextureToBuffer(c *gpucore.TextureCopy) error {
	if c.BytesPerRow%gpucore.CopyBytesPerRowAlignment != 0 {
		return fmt.Errorf("soft: bytes per row %d not aligned to %d", c.BytesPerRow, gpucore.CopyBytesPerRowAlignment)
	}
	if c.BytesPerRow < c.Width*4 {
		return fmt.Errorf("soft: bytes per row %d shorter than row of %d pixels", c.BytesPerRow, c.Width)
	}
	cp := *c
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = append(a.pending, func() error { return a.copyTextureToBuffer(&cp) })
	return nil
}

// copyTextureToBuffer runs with mu held.
func (a *Adapter) copyTextureToBuffer(c *gpucore.TextureCopy) error {
	img, ok := a.textures[c.Texture]
	if !ok {
		return fmt.Errorf("%w: texture %d", gpucore.ErrUnknownResource, c.Texture)
	}
	buf, ok := a.buffers[c.Buffer]
	if !ok {
		return fmt.Errorf("%w: buffer %d", gpucore.ErrUnknownResource, c.Buffer)
	}
	if int(c.Width) != img.Width || int(c.Height) != img.Height {
		return fmt.Errorf("soft: copy extent %dx%d does not match texture %dx%d", c.Width, c.Height, img.Width, img.Height)
	}
	if uint64(c.BytesPerRow)*uint64(c.Height) > uint64(len(buf.data)) {
		return fmt.Errorf("soft: copy of %d rows overflows buffer of %d bytes", c.Height, len(buf.data))
	}
	row := img.Width * 4
	for y := 0; y < img.Height; y++ {
		copy(buf.data[y*int(c.BytesPerRow):], img.Pix[y*row:(y+1)*row])
	}
	a.stats.Copies++
	return nil
}

// Submit executes the recorded commands in order.
func (a *Adapter) Submit() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.released {
		return gpucore.ErrReleased
	}
	cmds := a.pending
	a.pending = nil
	a.stats.Submits++
	for _, cmd := range cmds {
		if err := cmd(); err != nil {
			return err
		}
	}
	return nil
}

// Release drops every resource.
func (a *Adapter) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.released = true
	a.pending = nil
	if a.pool != nil {
		a.pool.Close()
	}
	clear(a.modules)
	clear(a.buffers)
	clear(a.textures)
	clear(a.layouts)
	clear(a.pipeLayouts)
	clear(a.pipelines)
	clear(a.groups)
}

// computePass records a dispatch with the bind groups set at that point.
type computePass struct {
	adapter  *Adapter
	label    string
	pipeline gpucore.ComputePipelineID
	groups   map[uint32]gpucore.BindGroupID
	ended    bool
}

func (p *computePass) SetPipeline(id gpucore.ComputePipelineID) { p.pipeline = id }

func (p *computePass) SetBindGroup(index uint32, group gpucore.BindGroupID) {
	p.groups[index] = group
}

func (p *computePass) Dispatch(x, y, z uint32) {
	pipe := p.pipeline
	groups := make(map[uint32]gpucore.BindGroupID, len(p.groups))
	for k, v := range p.groups {
		groups[k] = v
	}
	a := p.adapter
	label := p.label
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = append(a.pending, func() error { return a.dispatch(label, pipe, groups, x, y, z) })
}

func (p *computePass) End() { p.ended = true }

// dispatch runs with mu held.
func (a *Adapter) dispatch(label string, id gpucore.ComputePipelineID, groups map[uint32]gpucore.BindGroupID, x, y, z uint32) error {
	pipe, ok := a.pipelines[id]
	if !ok {
		return fmt.Errorf("%w: pipeline %d in pass %s", gpucore.ErrUnknownResource, id, label)
	}
	inv := &Invocation{
		Constants: pipe.module.constants,
		Groups:    make([]BoundGroup, pipe.groups),
		X:         x,
		Y:         y,
		Z:         z,
		pool:      a.pool,
	}
	for i := 0; i < pipe.groups; i++ {
		gid, ok := groups[uint32(i)]
		if !ok {
			return fmt.Errorf("soft: pass %s dispatched without bind group %d", label, i)
		}
		desc, ok := a.groups[gid]
		if !ok {
			return fmt.Errorf("%w: bind group %d", gpucore.ErrUnknownResource, gid)
		}
		bound := BoundGroup{
			Textures: make(map[uint32]*Image),
			Buffers:  make(map[uint32][]byte),
		}
		for _, e := range desc.Entries {
			if e.Texture != gpucore.InvalidID {
				bound.Textures[e.Binding] = a.textures[e.Texture]
			} else if b, ok := a.buffers[e.Buffer]; ok {
				end := uint64(len(b.data))
				if e.Size != 0 && e.Offset+e.Size < end {
					end = e.Offset + e.Size
				}
				bound.Buffers[e.Binding] = b.data[e.Offset:end]
			}
		}
		inv.Groups[i] = bound
	}
	if err := pipe.kernel(inv); err != nil {
		return fmt.Errorf("soft: kernel %s: %w", pipe.entry, err)
	}
	a.stats.Dispatches[pipe.entry]++
	return nil
}

var (
	_ gpucore.GPUAdapter    = (*Adapter)(nil)
	_ gpucore.TimeoutSetter = (*Adapter)(nil)
)
