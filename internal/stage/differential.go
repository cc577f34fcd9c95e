// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stage

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/dips/gpucore"
	"github.com/gogpu/dips/internal/binding"
)

// frameParamsSize is the size of the FrameParams uniform.
const frameParamsSize = 16

// Differential is the per-frame stage. Bind group 0 holds the baseline,
// groups 1..3 the history window and group 4 the frame parameters and the
// output texture.
type Differential struct {
	cfg     Config
	adapter gpucore.GPUAdapter
	plan    binding.Layout
	prog    *compiled
	state   State
	params  gpucore.BufferID
	output  gpucore.TextureID
}

// NewDifferential compiles the differential pipeline and allocates the
// output texture and parameter buffer. The stage starts Uninitialized.
func NewDifferential(adapter gpucore.GPUAdapter, cfg Config) (*Differential, error) {
	if err := cfg.validate(adapter); err != nil {
		return nil, err
	}
	plan, err := binding.Plan(cfg.Window, 1, HistoryGroups)
	if err != nil {
		return nil, err
	}
	src, err := cfg.source(plan)
	if err != nil {
		return nil, fmt.Errorf("render differential shader: %w", err)
	}

	var layouts []gpucore.BindGroupLayoutID
	fail := func(err error) (*Differential, error) {
		for _, l := range layouts {
			adapter.DestroyBindGroupLayout(l)
		}
		return nil, err
	}

	base, err := storageLayout(adapter, "differential_baseline_layout", gpucore.StorageAccessRead)
	if err != nil {
		return fail(fmt.Errorf("create baseline layout: %w", err))
	}
	layouts = append(layouts, base)

	history, err := binding.Layouts(adapter, plan, "differential_history")
	if err != nil {
		return fail(err)
	}
	layouts = append(layouts, history...)

	out, err := adapter.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
		Label: "differential_output_layout",
		Entries: []gpucore.BindGroupLayoutEntry{
			{Binding: 0, Type: gpucore.BindingTypeUniformBuffer, MinBindingSize: frameParamsSize},
			{Binding: 1, Type: gpucore.BindingTypeStorageTexture, Access: gpucore.StorageAccessWrite},
		},
	})
	if err != nil {
		return fail(fmt.Errorf("create output layout: %w", err))
	}
	layouts = append(layouts, out)

	prog, err := compile(adapter, cfg.Program, src, layouts)
	if err != nil {
		return nil, err
	}

	d := &Differential{
		cfg:     cfg,
		adapter: adapter,
		plan:    plan,
		prog:    prog,
		state:   Uninitialized{Layouts: layouts},
	}
	d.params, err = adapter.CreateBuffer(frameParamsSize, gpucore.BufferUsageUniform|gpucore.BufferUsageCopyDst)
	if err != nil {
		d.Destroy()
		return nil, fmt.Errorf("create frame params buffer: %w", err)
	}
	d.output, err = adapter.CreateTexture(&gpucore.TextureDesc{
		Label:  "differential_output",
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: gpucore.TextureFormatRGBA8Unorm,
		Usage:  gpucore.TextureUsageStorageBinding | gpucore.TextureUsageCopySrc,
	})
	if err != nil {
		d.Destroy()
		return nil, fmt.Errorf("create output texture: %w", err)
	}
	slogger().Debug("stage: differential compiled", "window", cfg.Window, "groups", len(layouts))
	return d, nil
}

// State returns the current binding state.
func (d *Differential) State() State { return d.state }

// Output returns the texture the stage writes.
func (d *Differential) Output() gpucore.TextureID { return d.output }

// Initialize binds the baseline and the history window. It fails with
// ErrAlreadyInitialized, changing nothing, if the stage is already bound.
func (d *Differential) Initialize(baseline gpucore.TextureID, history []gpucore.TextureID) error {
	un, ok := d.state.(Uninitialized)
	if !ok {
		return ErrAlreadyInitialized
	}
	n := len(un.Layouts)
	baseLayout, historyLayouts, outLayout := un.Layouts[0], un.Layouts[1:n-1], un.Layouts[n-1]

	var groups []gpucore.BindGroupID
	base, err := d.adapter.CreateBindGroup(&gpucore.BindGroupDesc{
		Label:   "differential_baseline",
		Layout:  baseLayout,
		Entries: []gpucore.BindGroupEntry{{Binding: 0, Texture: baseline}},
	})
	if err != nil {
		return fmt.Errorf("create baseline group: %w", err)
	}
	groups = append(groups, base)

	hist, err := binding.Bind(d.adapter, d.plan, historyLayouts, history, "differential_history")
	if err != nil {
		destroyGroups(d.adapter, groups)
		return err
	}
	groups = append(groups, hist...)

	out, err := d.adapter.CreateBindGroup(&gpucore.BindGroupDesc{
		Label:  "differential_output",
		Layout: outLayout,
		Entries: []gpucore.BindGroupEntry{
			{Binding: 0, Buffer: d.params, Size: frameParamsSize},
			{Binding: 1, Texture: d.output},
		},
	})
	if err != nil {
		destroyGroups(d.adapter, groups)
		return fmt.Errorf("create output group: %w", err)
	}
	d.state = Initialized{Groups: append(groups, out)}
	return nil
}

// SetCurrent uploads the slot index of the newest frame.
func (d *Differential) SetCurrent(slot int) error {
	if slot < 0 || slot >= d.cfg.Window {
		return fmt.Errorf("stage: slot %d out of window %d", slot, d.cfg.Window)
	}
	var p [frameParamsSize]byte
	binary.LittleEndian.PutUint32(p[0:], uint32(slot))
	binary.LittleEndian.PutUint32(p[4:], uint32(d.cfg.Width))
	binary.LittleEndian.PutUint32(p[8:], uint32(d.cfg.Height))
	return d.adapter.WriteBuffer(d.params, 0, p[:])
}

// Run records the differential pass into the adapter's command stream.
// Callers must not run an Uninitialized stage.
func (d *Differential) Run() error {
	in, ok := d.state.(Initialized)
	if !ok {
		return ErrNotInitialized
	}
	d.prog.record("differential_pass", in.Groups, d.cfg.Width, d.cfg.Height)
	return nil
}

// Reset drops the bind groups and returns the stage to Uninitialized.
func (d *Differential) Reset() {
	if in, ok := d.state.(Initialized); ok {
		destroyGroups(d.adapter, in.Groups)
	}
	d.state = Uninitialized{Layouts: d.prog.layouts}
}

// Destroy releases every resource of the stage.
func (d *Differential) Destroy() {
	d.Reset()
	if d.output != gpucore.InvalidID {
		d.adapter.DestroyTexture(d.output)
		d.output = gpucore.InvalidID
	}
	if d.params != gpucore.InvalidID {
		d.adapter.DestroyBuffer(d.params)
		d.params = gpucore.InvalidID
	}
	d.prog.destroy()
}
