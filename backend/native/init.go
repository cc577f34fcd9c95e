// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"github.com/gogpu/dips/backend"
	"github.com/gogpu/dips/gpucore"
)

// init registers the native backend on package import.
//
//	import _ "github.com/gogpu/dips/backend/native"
func init() {
	backend.Register(backend.Native, func() (gpucore.GPUAdapter, error) {
		a, err := Open()
		if err != nil {
			return nil, err
		}
		return a, nil
	})
	backend.RegisterLogger(backend.Native, SetLogger)
}
