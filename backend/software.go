// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"github.com/gogpu/dips/backend/soft"
	"github.com/gogpu/dips/gpucore"
)

// init registers the CPU backend on package import, so Default always
// has a fallback.
func init() {
	Register(Soft, func() (gpucore.GPUAdapter, error) {
		return soft.New(), nil
	})
	RegisterLogger(Soft, soft.SetLogger)
}
