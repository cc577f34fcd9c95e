// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/dips/gpucore"
	"github.com/gogpu/dips/internal/readback"
)

func TestConvertBufferUsage(t *testing.T) {
	tests := []struct {
		name string
		in   gpucore.BufferUsage
		want gputypes.BufferUsage
	}{
		{"staging", gpucore.BufferUsageMapRead | gpucore.BufferUsageCopyDst, gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst},
		{"params", gpucore.BufferUsageUniform | gpucore.BufferUsageCopyDst, gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst},
		{"none", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := convertBufferUsage(tt.in); got != tt.want {
				t.Errorf("convertBufferUsage(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestConvertTextureUsage(t *testing.T) {
	got := convertTextureUsage(gpucore.TextureUsageStorageBinding | gpucore.TextureUsageCopySrc)
	want := gputypes.TextureUsageStorageBinding | gputypes.TextureUsageCopySrc
	if got != want {
		t.Errorf("convertTextureUsage() = %v, want %v", got, want)
	}
}

func TestConvertBindGroupLayoutEntry(t *testing.T) {
	e := convertBindGroupLayoutEntry(gpucore.BindGroupLayoutEntry{
		Binding: 2,
		Type:    gpucore.BindingTypeStorageTexture,
		Access:  gpucore.StorageAccessWrite,
	})
	if e.Binding != 2 {
		t.Errorf("Binding = %d, want 2", e.Binding)
	}
	if e.StorageTexture == nil {
		t.Fatal("StorageTexture layout not set")
	}
	if e.StorageTexture.Access != gputypes.StorageTextureAccessWriteOnly {
		t.Errorf("Access = %v, want write-only", e.StorageTexture.Access)
	}
	if e.Buffer != nil {
		t.Error("Buffer layout set for a texture binding")
	}

	u := convertBindGroupLayoutEntry(gpucore.BindGroupLayoutEntry{
		Type:           gpucore.BindingTypeUniformBuffer,
		MinBindingSize: 16,
	})
	if u.Buffer == nil || u.Buffer.MinBindingSize != 16 {
		t.Errorf("uniform layout = %+v, want MinBindingSize 16", u.Buffer)
	}
}

func TestRequestLimits(t *testing.T) {
	l := requestLimits()
	if l.MaxBindGroups < gpucore.RequiredBindGroups {
		t.Errorf("MaxBindGroups = %d, want >= %d", l.MaxBindGroups, gpucore.RequiredBindGroups)
	}
	if got := convertLimits(l).MaxBindingsPerGroup; got != 4 {
		t.Errorf("MaxBindingsPerGroup = %d, want 4", got)
	}
}

func TestNewFromProviderNil(t *testing.T) {
	if _, err := NewFromProvider(nil); !errors.Is(err, ErrNilProvider) {
		t.Errorf("NewFromProvider(nil) error = %v, want ErrNilProvider", err)
	}
}

// TestReadbackOnDevice copies a texture through a padded staging buffer on
// real hardware. It is skipped when no Vulkan device is present.
func TestReadbackOnDevice(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping GPU test in short mode")
	}
	a, err := Open()
	if err != nil {
		t.Skipf("no GPU: %v", err)
	}
	defer a.Release()

	const w, h = 65, 3
	tex, err := a.CreateTexture(&gpucore.TextureDesc{
		Label: "readback_test", Width: w, Height: h,
		Format: gpucore.TextureFormatRGBA8Unorm,
		Usage:  gpucore.TextureUsageCopySrc | gpucore.TextureUsageCopyDst,
	})
	if err != nil {
		t.Fatalf("CreateTexture() error = %v", err)
	}
	defer a.DestroyTexture(tex)

	pixels := make([]byte, w*h*4)
	for i := range pixels {
		pixels[i] = byte(i)
	}
	if err := a.WriteTexture(tex, pixels); err != nil {
		t.Fatalf("WriteTexture() error = %v", err)
	}

	r, err := readback.NewReader(a, w, h)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer r.Destroy()

	got, err := r.Read(tex)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	for i := range pixels {
		if got[i] != pixels[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], pixels[i])
		}
	}
}
