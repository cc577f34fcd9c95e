// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command dips renders the temporal differential of a video or an image
// sequence.
//
// Usage:
//
//	dips -input=in.mp4 -output=out.avi [flags] [refresh frame...]
//
// Each bare frame number rebuilds the baseline once the history window has
// refilled with frames after it. Settings may also come from a YAML
// -profile and from DIPS_* variables in the environment or a .env file.
package main

import (
	"os"

	_ "github.com/gogpu/dips/backend/native"
	_ "github.com/gogpu/dips/backend/webgpu"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
