// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package binding splits a list of storage textures across bind groups and
// generates the matching WGSL declarations.
//
// A bind group holds at most SlotsPerGroup textures, so a history window of
// N frames is spread over ceil(N/SlotsPerGroup) groups. Texture i always
// lands in group firstGroup+i/SlotsPerGroup at binding i%SlotsPerGroup, on
// both the host side (Build) and the shader side (Generate).
package binding

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/dips/gpucore"
	"github.com/gogpu/dips/internal/shader"
)

// SlotsPerGroup is the number of textures placed in one bind group.
const SlotsPerGroup = 4

// Errors returned by the builder.
var (
	// ErrTooManyResources is returned when the textures do not fit in the
	// fixed number of groups.
	ErrTooManyResources = errors.New("binding: too many resources for group count")

	// ErrCountMismatch is returned when Build gets a different number of
	// textures than the layout was planned for.
	ErrCountMismatch = errors.New("binding: texture count does not match layout")
)

// Slot is the position of one texture.
type Slot struct {
	Index   int
	Group   uint32
	Binding uint32
}

// Group is one planned bind group. A dummy group has no slots.
type Group struct {
	Index uint32
	Slots []Slot
}

// Dummy reports whether the group only pads the layout.
func (g Group) Dummy() bool { return len(g.Slots) == 0 }

// Layout is the plan for count textures.
type Layout struct {
	Count      int
	FirstGroup uint32
	Groups     []Group
}

// Plan partitions count textures into groups starting at firstGroup.
// Each group is closed as soon as it fills and a trailing partial group is
// flushed after the loop. If fixedGroups is positive, empty groups pad the
// plan to exactly fixedGroups groups.
func Plan(count int, firstGroup uint32, fixedGroups int) (Layout, error) {
	if count < 0 {
		return Layout{}, fmt.Errorf("binding: negative count %d", count)
	}
	layout := Layout{Count: count, FirstGroup: firstGroup}

	var pending []Slot
	flush := func() {
		layout.Groups = append(layout.Groups, Group{
			Index: firstGroup + uint32(len(layout.Groups)),
			Slots: pending,
		})
		pending = nil
	}
	for i := 0; i < count; i++ {
		pending = append(pending, Slot{
			Index:   i,
			Group:   firstGroup + uint32(i/SlotsPerGroup),
			Binding: uint32(i % SlotsPerGroup),
		})
		if len(pending) == SlotsPerGroup {
			flush()
		}
	}
	if len(pending) > 0 {
		flush()
	}

	if fixedGroups > 0 {
		if len(layout.Groups) > fixedGroups {
			return Layout{}, fmt.Errorf("%w: %d textures need %d groups, have %d",
				ErrTooManyResources, count, len(layout.Groups), fixedGroups)
		}
		for len(layout.Groups) < fixedGroups {
			flush()
		}
	}
	return layout, nil
}

// Generate emits the WGSL fragments for the layout: one read-only storage
// texture declaration, one load_frame case and one sampling line per
// texture.
func Generate(layout Layout) shader.Fragments {
	var bindings, dispatch, aggregate strings.Builder
	for _, g := range layout.Groups {
		for _, s := range g.Slots {
			fmt.Fprintf(&bindings, "@group(%d) @binding(%d)\nvar texture_%d: texture_storage_2d<rgba8unorm, read>;\n",
				s.Group, s.Binding, s.Index)
			fmt.Fprintf(&dispatch, "        case %du: {\n            return textureLoad(texture_%d, coords);\n        }\n",
				s.Index, s.Index)
			fmt.Fprintf(&aggregate, "    samples[%d] = spatial_filter(coords, dims, %du);\n", s.Index, s.Index)
		}
	}
	return shader.Fragments{
		Bindings:  bindings.String(),
		Dispatch:  dispatch.String(),
		Aggregate: aggregate.String(),
	}
}

// LayoutEntries returns the bind group layout entries for one group.
func LayoutEntries(g Group) []gpucore.BindGroupLayoutEntry {
	entries := make([]gpucore.BindGroupLayoutEntry, 0, len(g.Slots))
	for _, s := range g.Slots {
		entries = append(entries, gpucore.BindGroupLayoutEntry{
			Binding: s.Binding,
			Type:    gpucore.BindingTypeStorageTexture,
			Access:  gpucore.StorageAccessRead,
		})
	}
	return entries
}

// Layouts creates one bind group layout per planned group, in group order.
func Layouts(adapter gpucore.GPUAdapter, layout Layout, label string) ([]gpucore.BindGroupLayoutID, error) {
	ids := make([]gpucore.BindGroupLayoutID, 0, len(layout.Groups))
	for _, g := range layout.Groups {
		id, err := adapter.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
			Label:   fmt.Sprintf("%s_layout_%d", label, g.Index),
			Entries: LayoutEntries(g),
		})
		if err != nil {
			for _, created := range ids {
				adapter.DestroyBindGroupLayout(created)
			}
			return nil, fmt.Errorf("create layout for group %d: %w", g.Index, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Bind creates one bind group per planned group, binding textures in
// order. layouts must come from Layouts for the same plan.
func Bind(adapter gpucore.GPUAdapter, layout Layout, layouts []gpucore.BindGroupLayoutID,
	textures []gpucore.TextureID, label string) ([]gpucore.BindGroupID, error) {
	if len(textures) != layout.Count {
		return nil, fmt.Errorf("%w: got %d, planned %d", ErrCountMismatch, len(textures), layout.Count)
	}
	if len(layouts) != len(layout.Groups) {
		return nil, fmt.Errorf("%w: %d layouts for %d groups", ErrCountMismatch, len(layouts), len(layout.Groups))
	}

	groups := make([]gpucore.BindGroupID, 0, len(layout.Groups))
	for i, g := range layout.Groups {
		entries := make([]gpucore.BindGroupEntry, 0, len(g.Slots))
		for _, s := range g.Slots {
			entries = append(entries, gpucore.BindGroupEntry{
				Binding: s.Binding,
				Texture: textures[s.Index],
			})
		}
		id, err := adapter.CreateBindGroup(&gpucore.BindGroupDesc{
			Label:   fmt.Sprintf("%s_group_%d", label, g.Index),
			Layout:  layouts[i],
			Entries: entries,
		})
		if err != nil {
			for _, created := range groups {
				adapter.DestroyBindGroup(created)
			}
			return nil, fmt.Errorf("create bind group %d: %w", g.Index, err)
		}
		groups = append(groups, id)
	}
	return groups, nil
}
