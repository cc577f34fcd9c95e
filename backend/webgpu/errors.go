// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import (
	"fmt"

	"github.com/gogpu/dips/gpucore"
)

// ErrNoAdapter is returned when wgpu-native offers no adapter.
var ErrNoAdapter = fmt.Errorf("webgpu: %w", gpucore.ErrNoGPU)
