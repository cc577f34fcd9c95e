// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package webgpu

import (
	"github.com/gogpu/dips/backend"
	"github.com/gogpu/dips/gpucore"
)

func init() {
	backend.Register(backend.WebGPU, func() (gpucore.GPUAdapter, error) {
		a, err := Open()
		if err != nil {
			return nil, err
		}
		return a, nil
	})
	backend.RegisterLogger(backend.WebGPU, SetLogger)
}
