// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"errors"
	"fmt"

	"github.com/gogpu/dips/gpucore"
)

// Package errors for the native backend.
var (
	// ErrNoGPU is returned when Vulkan enumerates no adapter.
	ErrNoGPU = fmt.Errorf("native: %w", gpucore.ErrNoGPU)

	// ErrNoVulkan is returned when the HAL has no Vulkan backend registered.
	ErrNoVulkan = errors.New("native: vulkan backend not available")

	// ErrNilProvider is returned by NewFromProvider for a nil provider.
	ErrNilProvider = errors.New("native: nil device provider")

	// ErrProviderNotHAL is returned when a provider does not expose HAL types.
	ErrProviderNotHAL = errors.New("native: provider does not expose HAL types")
)
