// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package binding

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/dips/backend/soft"
	"github.com/gogpu/dips/gpucore"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		name       string
		count      int
		first      uint32
		fixed      int
		wantGroups []int // slots per group
	}{
		{"empty", 0, 0, 0, nil},
		{"one", 1, 0, 0, []int{1}},
		{"exact group", 4, 0, 0, []int{4}},
		{"partial tail", 5, 0, 0, []int{4, 1}},
		{"two full", 8, 1, 0, []int{4, 4}},
		{"padded", 3, 0, 3, []int{3, 0, 0}},
		{"padded offset", 6, 1, 3, []int{4, 2, 0}},
		{"max", 12, 0, 3, []int{4, 4, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Plan(tt.count, tt.first, tt.fixed)
			if err != nil {
				t.Fatalf("Plan: %v", err)
			}
			if len(l.Groups) != len(tt.wantGroups) {
				t.Fatalf("len(Groups) = %d, want %d", len(l.Groups), len(tt.wantGroups))
			}
			for i, g := range l.Groups {
				if g.Index != tt.first+uint32(i) {
					t.Errorf("group %d Index = %d, want %d", i, g.Index, tt.first+uint32(i))
				}
				if len(g.Slots) != tt.wantGroups[i] {
					t.Errorf("group %d has %d slots, want %d", i, len(g.Slots), tt.wantGroups[i])
				}
				if g.Dummy() != (tt.wantGroups[i] == 0) {
					t.Errorf("group %d Dummy() = %v", i, g.Dummy())
				}
			}
		})
	}
}

func TestPlan_SlotPositions(t *testing.T) {
	l, err := Plan(11, 1, 3)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	seen := 0
	for _, g := range l.Groups {
		for _, s := range g.Slots {
			if s.Index != seen {
				t.Errorf("slot order: got index %d, want %d", s.Index, seen)
			}
			if s.Group != 1+uint32(s.Index/SlotsPerGroup) || s.Binding != uint32(s.Index%SlotsPerGroup) {
				t.Errorf("texture %d at group %d binding %d", s.Index, s.Group, s.Binding)
			}
			if s.Group != g.Index {
				t.Errorf("texture %d listed under group %d, placed in %d", s.Index, g.Index, s.Group)
			}
			seen++
		}
	}
	if seen != 11 {
		t.Errorf("planned %d textures, want 11", seen)
	}
}

func TestPlan_Errors(t *testing.T) {
	if _, err := Plan(13, 0, 3); !errors.Is(err, ErrTooManyResources) {
		t.Errorf("Plan(13, 0, 3) error = %v, want ErrTooManyResources", err)
	}
	if _, err := Plan(-1, 0, 0); err == nil {
		t.Error("Plan(-1) succeeded")
	}
}

func TestGenerate(t *testing.T) {
	l, err := Plan(5, 1, 3)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	f := Generate(l)

	for _, want := range []string{
		"@group(1) @binding(0)\nvar texture_0: texture_storage_2d<rgba8unorm, read>;",
		"@group(1) @binding(3)\nvar texture_3: texture_storage_2d<rgba8unorm, read>;",
		"@group(2) @binding(0)\nvar texture_4: texture_storage_2d<rgba8unorm, read>;",
	} {
		if !strings.Contains(f.Bindings, want) {
			t.Errorf("Bindings missing %q", want)
		}
	}
	if strings.Contains(f.Bindings, "texture_5") || strings.Contains(f.Bindings, "@group(3)") {
		t.Error("Bindings declares textures for dummy groups")
	}
	if n := strings.Count(f.Dispatch, "case "); n != 5 {
		t.Errorf("Dispatch has %d cases, want 5", n)
	}
	if !strings.Contains(f.Dispatch, "case 4u: {") {
		t.Error("Dispatch missing case 4u")
	}
	if n := strings.Count(f.Aggregate, "spatial_filter("); n != 5 {
		t.Errorf("Aggregate has %d samples, want 5", n)
	}
}

func TestLayoutsAndBind(t *testing.T) {
	a := soft.New()
	defer a.Release()

	l, err := Plan(6, 0, 3)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	layouts, err := Layouts(a, l, "test")
	if err != nil {
		t.Fatalf("Layouts: %v", err)
	}
	if len(layouts) != 3 {
		t.Fatalf("len(layouts) = %d, want 3", len(layouts))
	}

	textures := make([]gpucore.TextureID, 6)
	for i := range textures {
		textures[i], err = a.CreateTexture(&gpucore.TextureDesc{
			Width: 2, Height: 2, Format: gpucore.TextureFormatRGBA8Unorm,
			Usage: gpucore.TextureUsageStorageBinding,
		})
		if err != nil {
			t.Fatalf("CreateTexture: %v", err)
		}
	}

	if _, err := Bind(a, l, layouts, textures[:5], "test"); !errors.Is(err, ErrCountMismatch) {
		t.Errorf("Bind with 5 textures error = %v, want ErrCountMismatch", err)
	}
	if _, err := Bind(a, l, layouts[:2], textures, "test"); !errors.Is(err, ErrCountMismatch) {
		t.Errorf("Bind with 2 layouts error = %v, want ErrCountMismatch", err)
	}

	groups, err := Bind(a, l, layouts, textures, "test")
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if len(groups) != 3 {
		t.Errorf("len(groups) = %d, want 3", len(groups))
	}
}

func TestBind_CleansUpOnFailure(t *testing.T) {
	a := soft.New()
	defer a.Release()

	l, err := Plan(5, 0, 0)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	layouts, err := Layouts(a, l, "test")
	if err != nil {
		t.Fatalf("Layouts: %v", err)
	}
	textures := make([]gpucore.TextureID, 5)
	for i := 0; i < 4; i++ {
		textures[i], err = a.CreateTexture(&gpucore.TextureDesc{
			Width: 1, Height: 1, Format: gpucore.TextureFormatRGBA8Unorm,
		})
		if err != nil {
			t.Fatalf("CreateTexture: %v", err)
		}
	}
	// The fifth texture does not exist, so the second group fails.
	textures[4] = gpucore.TextureID(9999)

	before := a.LiveResources()
	if _, err := Bind(a, l, layouts, textures, "test"); err == nil {
		t.Fatal("Bind with unknown texture succeeded")
	}
	if after := a.LiveResources(); after != before {
		t.Errorf("LiveResources() = %d after failed Bind, want %d", after, before)
	}
}
