// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !rust

package rust

// Probe reports ErrNotBuilt; rebuild with -tags rust to reach wgpu-native.
func Probe() (*GPUInfo, error) {
	return nil, ErrNotBuilt
}
