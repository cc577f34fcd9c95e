// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package stage

import "github.com/gogpu/dips/internal/binding"

// WorkgroupSize is the edge of the 16×16 workgroups both kernels declare.
const WorkgroupSize = 16

// HistoryGroups is the fixed number of bind groups reserved for the
// history window in both pipeline layouts.
const HistoryGroups = 3

// MaxWindow is the largest history window the layouts can hold.
const MaxWindow = HistoryGroups * binding.SlotsPerGroup

// WorkGroups returns the dispatch grid covering a width×height frame.
func WorkGroups(width, height int) (x, y uint32) {
	return ceilDiv(uint32(width), WorkgroupSize), ceilDiv(uint32(height), WorkgroupSize)
}

func ceilDiv(n, d uint32) uint32 {
	return (n + d - 1) / d
}
