// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stage

import (
	"fmt"

	"github.com/gogpu/dips/gpucore"
	"github.com/gogpu/dips/internal/binding"
)

// Baseline is the pre-compute stage. Bind groups 0..2 hold the history
// window and group 3 the baseline output texture.
type Baseline struct {
	cfg     Config
	adapter gpucore.GPUAdapter
	plan    binding.Layout
	prog    *compiled
	state   State
	texture gpucore.TextureID
	runs    int
}

// NewBaseline compiles the baseline pipeline. The stage starts
// Uninitialized; no texture exists until Initialize.
func NewBaseline(adapter gpucore.GPUAdapter, cfg Config) (*Baseline, error) {
	if err := cfg.validate(adapter); err != nil {
		return nil, err
	}
	plan, err := binding.Plan(cfg.Window, 0, HistoryGroups)
	if err != nil {
		return nil, err
	}
	src, err := cfg.source(plan)
	if err != nil {
		return nil, fmt.Errorf("render baseline shader: %w", err)
	}

	layouts, err := binding.Layouts(adapter, plan, "baseline_history")
	if err != nil {
		return nil, err
	}
	out, err := storageLayout(adapter, "baseline_output_layout", gpucore.StorageAccessWrite)
	if err != nil {
		for _, l := range layouts {
			adapter.DestroyBindGroupLayout(l)
		}
		return nil, fmt.Errorf("create baseline output layout: %w", err)
	}
	layouts = append(layouts, out)

	prog, err := compile(adapter, cfg.Program, src, layouts)
	if err != nil {
		return nil, err
	}
	slogger().Debug("stage: baseline compiled", "window", cfg.Window, "groups", len(layouts))
	return &Baseline{
		cfg:     cfg,
		adapter: adapter,
		plan:    plan,
		prog:    prog,
		state:   Uninitialized{Layouts: layouts},
	}, nil
}

// State returns the current binding state.
func (b *Baseline) State() State { return b.state }

// Texture returns the baseline image, or InvalidID before Initialize.
func (b *Baseline) Texture() gpucore.TextureID { return b.texture }

// Runs returns how many times the stage has been recorded.
func (b *Baseline) Runs() int { return b.runs }

// Initialize creates the baseline texture and binds the history window to
// it. It fails with ErrAlreadyInitialized, changing nothing, if the stage
// is already bound.
func (b *Baseline) Initialize(history []gpucore.TextureID) error {
	un, ok := b.state.(Uninitialized)
	if !ok {
		return ErrAlreadyInitialized
	}
	historyLayouts := un.Layouts[:len(un.Layouts)-1]
	outLayout := un.Layouts[len(un.Layouts)-1]

	tex, err := b.adapter.CreateTexture(&gpucore.TextureDesc{
		Label:  "baseline",
		Width:  b.cfg.Width,
		Height: b.cfg.Height,
		Format: gpucore.TextureFormatRGBA8Unorm,
		Usage:  gpucore.TextureUsageStorageBinding | gpucore.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create baseline texture: %w", err)
	}

	groups, err := binding.Bind(b.adapter, b.plan, historyLayouts, history, "baseline_history")
	if err != nil {
		b.adapter.DestroyTexture(tex)
		return err
	}
	out, err := b.adapter.CreateBindGroup(&gpucore.BindGroupDesc{
		Label:   "baseline_output",
		Layout:  outLayout,
		Entries: []gpucore.BindGroupEntry{{Binding: 0, Texture: tex}},
	})
	if err != nil {
		destroyGroups(b.adapter, groups)
		b.adapter.DestroyTexture(tex)
		return fmt.Errorf("create baseline output group: %w", err)
	}

	b.texture = tex
	b.state = Initialized{Groups: append(groups, out)}
	return nil
}

// Run records the baseline pass into the adapter's command stream.
func (b *Baseline) Run() error {
	in, ok := b.state.(Initialized)
	if !ok {
		return ErrNotInitialized
	}
	b.prog.record("baseline_pass", in.Groups, b.cfg.Width, b.cfg.Height)
	b.runs++
	return nil
}

// Reset drops the bind groups and the baseline texture and returns the
// stage to Uninitialized. Any stage bound to the old texture must be
// reset first.
func (b *Baseline) Reset() {
	if in, ok := b.state.(Initialized); ok {
		destroyGroups(b.adapter, in.Groups)
	}
	if b.texture != gpucore.InvalidID {
		b.adapter.DestroyTexture(b.texture)
		b.texture = gpucore.InvalidID
	}
	b.state = Uninitialized{Layouts: b.prog.layouts}
}

// Destroy releases every resource of the stage.
func (b *Baseline) Destroy() {
	b.Reset()
	b.prog.destroy()
}
