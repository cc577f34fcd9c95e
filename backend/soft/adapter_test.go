// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"errors"
	"testing"

	"github.com/gogpu/dips/gpucore"
)

const copySource = `
const GAIN: f32 = 2.5;
const ENABLED: bool = true;
const COUNT: u32 = 7u;
const OFFSET: i32 = -3;

@compute @workgroup_size(16, 16)
fn copy_main(@builtin(global_invocation_id) id: vec3<u32>) {
}
`

// copyKernel writes the texture at (0,0) into (1,0).
func copyKernel(inv *Invocation) error {
	src, err := inv.Texture(0, 0)
	if err != nil {
		return err
	}
	dst, err := inv.Texture(1, 0)
	if err != nil {
		return err
	}
	inv.Each(src.Width, src.Height, func(x, y int) {
		dst.Set(x, y, src.At(x, y))
	})
	return nil
}

func TestCreateShaderModule_ParsesConstants(t *testing.T) {
	var got Constants
	a := New(WithKernel("copy_main", func(inv *Invocation) error {
		got = inv.Constants
		return nil
	}))
	defer a.Release()

	mod, err := a.CreateShaderModule(copySource, "copy")
	if err != nil {
		t.Fatalf("CreateShaderModule: %v", err)
	}
	pl, err := a.CreatePipelineLayout(nil)
	if err != nil {
		t.Fatalf("CreatePipelineLayout: %v", err)
	}
	pipe, err := a.CreateComputePipeline(&gpucore.ComputePipelineDesc{
		Layout: pl, ShaderModule: mod, EntryPoint: "copy_main",
	})
	if err != nil {
		t.Fatalf("CreateComputePipeline: %v", err)
	}
	pass := a.BeginComputePass("constants")
	pass.SetPipeline(pipe)
	pass.Dispatch(1, 1, 1)
	pass.End()
	if err := a.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if v, err := got.Float("GAIN"); err != nil || v != 2.5 {
		t.Errorf("GAIN = %v, %v", v, err)
	}
	if v, err := got.Bool("ENABLED"); err != nil || !v {
		t.Errorf("ENABLED = %v, %v", v, err)
	}
	if v, err := got.Uint("COUNT"); err != nil || v != 7 {
		t.Errorf("COUNT = %v, %v", v, err)
	}
	if v, err := got.Int("OFFSET"); err != nil || v != -3 {
		t.Errorf("OFFSET = %v, %v", v, err)
	}
	if _, err := got.Int("MISSING"); err == nil {
		t.Error("MISSING constant resolved")
	}
}

func TestCreateComputePipeline_Errors(t *testing.T) {
	a := New()
	defer a.Release()

	mod, err := a.CreateShaderModule(copySource, "copy")
	if err != nil {
		t.Fatalf("CreateShaderModule: %v", err)
	}
	pl, err := a.CreatePipelineLayout(nil)
	if err != nil {
		t.Fatalf("CreatePipelineLayout: %v", err)
	}

	tests := []struct {
		name string
		desc gpucore.ComputePipelineDesc
	}{
		{"unknown entry point", gpucore.ComputePipelineDesc{Layout: pl, ShaderModule: mod, EntryPoint: "missing_main"}},
		{"no kernel", gpucore.ComputePipelineDesc{Layout: pl, ShaderModule: mod, EntryPoint: "copy_main"}},
		{"unknown module", gpucore.ComputePipelineDesc{Layout: pl, ShaderModule: 999, EntryPoint: "copy_main"}},
		{"unknown layout", gpucore.ComputePipelineDesc{Layout: 999, ShaderModule: mod, EntryPoint: "copy_main"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.CreateComputePipeline(&tt.desc); err == nil {
				t.Error("CreateComputePipeline succeeded")
			}
		})
	}
}

func TestLimitsEnforced(t *testing.T) {
	a := New(WithLimits(gpucore.Limits{MaxBindGroups: 2, MaxBindingsPerGroup: 1}))
	defer a.Release()

	_, err := a.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
		Entries: []gpucore.BindGroupLayoutEntry{{Binding: 0}, {Binding: 1}},
	})
	if err == nil {
		t.Error("layout with 2 entries accepted under limit 1")
	}

	l, err := a.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{})
	if err != nil {
		t.Fatalf("CreateBindGroupLayout: %v", err)
	}
	if _, err := a.CreatePipelineLayout([]gpucore.BindGroupLayoutID{l, l, l}); err == nil {
		t.Error("pipeline layout with 3 groups accepted under limit 2")
	}
}

func TestDispatchCopiesTexture(t *testing.T) {
	a := New(WithKernel("copy_main", copyKernel))
	defer a.Release()

	newTex := func() gpucore.TextureID {
		id, err := a.CreateTexture(&gpucore.TextureDesc{
			Width: 20, Height: 17, Format: gpucore.TextureFormatRGBA8Unorm,
		})
		if err != nil {
			t.Fatalf("CreateTexture: %v", err)
		}
		return id
	}
	src, dst := newTex(), newTex()
	pix := make([]byte, 20*17*4)
	for i := range pix {
		pix[i] = byte(i)
	}
	if err := a.WriteTexture(src, pix); err != nil {
		t.Fatalf("WriteTexture: %v", err)
	}

	entry := []gpucore.BindGroupLayoutEntry{{Binding: 0, Type: gpucore.BindingTypeStorageTexture}}
	l0, _ := a.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{Entries: entry})
	l1, _ := a.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{Entries: entry})
	g0, err := a.CreateBindGroup(&gpucore.BindGroupDesc{Layout: l0, Entries: []gpucore.BindGroupEntry{{Binding: 0, Texture: src}}})
	if err != nil {
		t.Fatalf("CreateBindGroup: %v", err)
	}
	g1, err := a.CreateBindGroup(&gpucore.BindGroupDesc{Layout: l1, Entries: []gpucore.BindGroupEntry{{Binding: 0, Texture: dst}}})
	if err != nil {
		t.Fatalf("CreateBindGroup: %v", err)
	}
	mod, _ := a.CreateShaderModule(copySource, "copy")
	pl, _ := a.CreatePipelineLayout([]gpucore.BindGroupLayoutID{l0, l1})
	pipe, err := a.CreateComputePipeline(&gpucore.ComputePipelineDesc{Layout: pl, ShaderModule: mod, EntryPoint: "copy_main"})
	if err != nil {
		t.Fatalf("CreateComputePipeline: %v", err)
	}

	pass := a.BeginComputePass("copy")
	pass.SetPipeline(pipe)
	pass.SetBindGroup(0, g0)
	pass.SetBindGroup(1, g1)
	pass.Dispatch(2, 2, 1)
	pass.End()

	// Nothing runs before Submit.
	if got, _ := a.Texture(dst); got[4] != 0 {
		t.Fatal("dispatch executed before Submit")
	}
	if err := a.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	got, ok := a.Texture(dst)
	if !ok {
		t.Fatal("destination texture missing")
	}
	for i := range got {
		if got[i] != pix[i] {
			t.Fatalf("pixel byte %d = %d, want %d", i, got[i], pix[i])
		}
	}
	if s := a.Stats(); s.Submits != 1 || s.Dispatches["copy_main"] != 1 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestDispatchMissingBindGroup(t *testing.T) {
	a := New(WithKernel("copy_main", copyKernel))
	defer a.Release()

	l, _ := a.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{})
	mod, _ := a.CreateShaderModule(copySource, "copy")
	pl, _ := a.CreatePipelineLayout([]gpucore.BindGroupLayoutID{l})
	pipe, err := a.CreateComputePipeline(&gpucore.ComputePipelineDesc{Layout: pl, ShaderModule: mod, EntryPoint: "copy_main"})
	if err != nil {
		t.Fatalf("CreateComputePipeline: %v", err)
	}
	pass := a.BeginComputePass("unbound")
	pass.SetPipeline(pipe)
	pass.Dispatch(1, 1, 1)
	pass.End()
	if err := a.Submit(); err == nil {
		t.Error("Submit with unbound group succeeded")
	}
}

func TestCopyTextureToBuffer_Alignment(t *testing.T) {
	a := New()
	defer a.Release()

	err := a.CopyTextureToBuffer(&gpucore.TextureCopy{BytesPerRow: 100, Width: 4, Height: 1})
	if err == nil {
		t.Error("unaligned copy accepted")
	}
	err = a.CopyTextureToBuffer(&gpucore.TextureCopy{BytesPerRow: 256, Width: 65, Height: 1})
	if err == nil {
		t.Error("copy with row shorter than texture accepted")
	}
}

func TestMapRead(t *testing.T) {
	a := New()
	defer a.Release()

	staging, err := a.CreateBuffer(16, gpucore.BufferUsageMapRead|gpucore.BufferUsageCopyDst)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	plain, err := a.CreateBuffer(16, gpucore.BufferUsageUniform)
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}

	if _, err := a.MapRead(plain, 16); !errors.Is(err, gpucore.ErrMapFailed) {
		t.Errorf("MapRead without MapRead usage = %v, want ErrMapFailed", err)
	}
	if _, err := a.MapRead(staging, 16); err != nil {
		t.Fatalf("MapRead: %v", err)
	}
	if _, err := a.MapRead(staging, 16); !errors.Is(err, gpucore.ErrMapFailed) {
		t.Errorf("double MapRead = %v, want ErrMapFailed", err)
	}
	a.Unmap(staging)
	if _, err := a.MapRead(staging, 32); !errors.Is(err, gpucore.ErrMapFailed) {
		t.Errorf("oversized MapRead = %v, want ErrMapFailed", err)
	}
}

func TestRelease(t *testing.T) {
	a := New()
	if _, err := a.CreateBuffer(4, gpucore.BufferUsageUniform); err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	a.Release()
	if n := a.LiveResources(); n != 0 {
		t.Errorf("LiveResources() = %d after Release", n)
	}
	if _, err := a.CreateBuffer(4, gpucore.BufferUsageUniform); !errors.Is(err, gpucore.ErrReleased) {
		t.Errorf("CreateBuffer after Release = %v, want ErrReleased", err)
	}
	if err := a.Submit(); !errors.Is(err, gpucore.ErrReleased) {
		t.Errorf("Submit after Release = %v, want ErrReleased", err)
	}
}

func TestImageSetRounds(t *testing.T) {
	img := NewImage(1, 1)
	img.Set(0, 0, [4]float32{-0.5, 0.5, 1.5, 1})
	want := []byte{0, 128, 255, 255}
	for i, b := range want {
		if img.Pix[i] != b {
			t.Errorf("Pix[%d] = %d, want %d", i, img.Pix[i], b)
		}
	}
}
