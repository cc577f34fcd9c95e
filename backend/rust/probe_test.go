// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rust

import (
	"errors"
	"testing"
)

func TestProbe(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping GPU probe in short mode")
	}
	info, err := Probe()
	if errors.Is(err, ErrNotBuilt) || errors.Is(err, ErrLibraryNotFound) || errors.Is(err, ErrNoGPU) {
		t.Skipf("no wgpu-native device: %v", err)
	}
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if info.BackendType == "" {
		t.Error("Probe() returned empty backend type")
	}
}

func TestGPUInfoString(t *testing.T) {
	var nilInfo *GPUInfo
	if got := nilInfo.String(); got != "<none>" {
		t.Errorf("nil String() = %q, want <none>", got)
	}
	g := &GPUInfo{Device: "Test GPU", BackendType: "Vulkan", AdapterType: "DiscreteGPU"}
	if got, want := g.String(), "Test GPU (Vulkan, DiscreteGPU)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
