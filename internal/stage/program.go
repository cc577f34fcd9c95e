// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stage

import (
	"fmt"

	"github.com/gogpu/dips/gpucore"
	"github.com/gogpu/dips/internal/binding"
	"github.com/gogpu/dips/internal/shader"
)

// Config is shared by both stages.
type Config struct {
	Width  int
	Height int

	// Window is the number of history frames.
	Window int

	// Constants are the filter constants baked into the source.
	// NUM_TEXTURES is appended by the stage.
	Constants []shader.Constant

	// Program is the WGSL template and entry point to run.
	Program shader.Program
}

func (c *Config) validate(adapter gpucore.GPUAdapter) error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, c.Width, c.Height)
	}
	if c.Window < 1 || c.Window > MaxWindow {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidWindow, c.Window, MaxWindow)
	}
	limits := adapter.Limits()
	if limits.MaxBindGroups < gpucore.RequiredBindGroups {
		return fmt.Errorf("%w: %d bind groups, need %d", ErrInsufficientLimits,
			limits.MaxBindGroups, gpucore.RequiredBindGroups)
	}
	if limits.MaxBindingsPerGroup < binding.SlotsPerGroup {
		return fmt.Errorf("%w: %d bindings per group, need %d", ErrInsufficientLimits,
			limits.MaxBindingsPerGroup, binding.SlotsPerGroup)
	}
	if limits.MaxTextureDimension2D != 0 &&
		(uint32(c.Width) > limits.MaxTextureDimension2D || uint32(c.Height) > limits.MaxTextureDimension2D) {
		return fmt.Errorf("%w: %dx%d exceeds %d", ErrInsufficientLimits, c.Width, c.Height, limits.MaxTextureDimension2D)
	}
	return nil
}

// source renders the program for a history plan.
func (c *Config) source(plan binding.Layout) (string, error) {
	consts := append(append([]shader.Constant(nil), c.Constants...),
		shader.Constant{Name: "NUM_TEXTURES", Value: uint32(c.Window)})
	baked, err := shader.Bake(consts)
	if err != nil {
		return "", err
	}
	return shader.Render(c.Program.Template, baked, binding.Generate(plan)), nil
}

// compiled holds the pipeline objects of a stage.
type compiled struct {
	adapter    gpucore.GPUAdapter
	module     gpucore.ShaderModuleID
	layouts    []gpucore.BindGroupLayoutID
	pipeLayout gpucore.PipelineLayoutID
	pipeline   gpucore.ComputePipelineID
}

// compile builds the shader module, pipeline layout and pipeline. On
// failure everything created so far, including layouts, is destroyed.
func compile(adapter gpucore.GPUAdapter, prog shader.Program, src string,
	layouts []gpucore.BindGroupLayoutID) (*compiled, error) {
	c := &compiled{adapter: adapter, layouts: layouts}

	module, err := adapter.CreateShaderModule(src, prog.Label)
	if err != nil {
		c.destroy()
		return nil, fmt.Errorf("compile %s shader: %w", prog.Label, err)
	}
	c.module = module

	pipeLayout, err := adapter.CreatePipelineLayout(layouts)
	if err != nil {
		c.destroy()
		return nil, fmt.Errorf("create %s pipeline layout: %w", prog.Label, err)
	}
	c.pipeLayout = pipeLayout

	pipeline, err := adapter.CreateComputePipeline(&gpucore.ComputePipelineDesc{
		Label:        prog.Label + "_pipeline",
		Layout:       pipeLayout,
		ShaderModule: module,
		EntryPoint:   prog.EntryPoint,
	})
	if err != nil {
		c.destroy()
		return nil, fmt.Errorf("create %s pipeline: %w", prog.Label, err)
	}
	c.pipeline = pipeline
	return c, nil
}

// destroy releases pipeline objects in reverse creation order.
func (c *compiled) destroy() {
	if c.pipeline != gpucore.InvalidID {
		c.adapter.DestroyComputePipeline(c.pipeline)
		c.pipeline = gpucore.InvalidID
	}
	if c.pipeLayout != gpucore.InvalidID {
		c.adapter.DestroyPipelineLayout(c.pipeLayout)
		c.pipeLayout = gpucore.InvalidID
	}
	for _, l := range c.layouts {
		c.adapter.DestroyBindGroupLayout(l)
	}
	c.layouts = nil
	if c.module != gpucore.InvalidID {
		c.adapter.DestroyShaderModule(c.module)
		c.module = gpucore.InvalidID
	}
}

// record encodes one compute pass over a width×height frame.
func (c *compiled) record(label string, groups []gpucore.BindGroupID, width, height int) {
	pass := c.adapter.BeginComputePass(label)
	pass.SetPipeline(c.pipeline)
	for i, g := range groups {
		pass.SetBindGroup(uint32(i), g)
	}
	x, y := WorkGroups(width, height)
	pass.Dispatch(x, y, 1)
	pass.End()
}

func destroyGroups(adapter gpucore.GPUAdapter, groups []gpucore.BindGroupID) {
	for _, g := range groups {
		adapter.DestroyBindGroup(g)
	}
}

// storageLayout creates a single-entry storage texture layout.
func storageLayout(adapter gpucore.GPUAdapter, label string, access gpucore.StorageAccess) (gpucore.BindGroupLayoutID, error) {
	return adapter.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
		Label: label,
		Entries: []gpucore.BindGroupLayoutEntry{
			{Binding: 0, Type: gpucore.BindingTypeStorageTexture, Access: access},
		},
	})
}
