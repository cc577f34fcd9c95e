// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader holds the WGSL templates of the two compute stages and
// turns them into compilable source.
//
// Templates carry four markers that are replaced in a single pass:
//
//	// @constants   baked pipeline constants
//	// @bindings    generated history texture declarations
//	// @dispatch    generated load_frame switch arms
//	// @aggregate   generated per-frame sampling lines
package shader

import (
	_ "embed"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/naga"
)

//go:embed shaders/baseline.wgsl
var baselineSource string

//go:embed shaders/differential.wgsl
var differentialSource string

// Template markers.
const (
	MarkerConstants = "// @constants"
	MarkerBindings  = "// @bindings"
	MarkerDispatch  = "// @dispatch"
	MarkerAggregate = "// @aggregate"
)

// Entry points of the embedded kernels.
const (
	BaselineEntryPoint     = "baseline_main"
	DifferentialEntryPoint = "differential_main"
)

// Program is a WGSL template plus the entry point to run.
type Program struct {
	Label      string
	Template   string
	EntryPoint string
}

// Set is the pair of programs the engine runs.
type Set struct {
	Baseline     Program
	Differential Program
}

// Default returns the embedded baseline and differential kernels.
func Default() Set {
	return Set{
		Baseline: Program{
			Label:      "dips_baseline",
			Template:   baselineSource,
			EntryPoint: BaselineEntryPoint,
		},
		Differential: Program{
			Label:      "dips_differential",
			Template:   differentialSource,
			EntryPoint: DifferentialEntryPoint,
		},
	}
}

// Constant is a named value baked into the source as a WGSL const.
// Value must be a bool, int32, uint32 or float32.
type Constant struct {
	Name  string
	Value any
}

// Bake renders constants as WGSL const declarations, one per line.
func Bake(constants []Constant) (string, error) {
	var b strings.Builder
	for _, c := range constants {
		typ, lit, err := literal(c.Value)
		if err != nil {
			return "", fmt.Errorf("constant %s: %w", c.Name, err)
		}
		fmt.Fprintf(&b, "const %s: %s = %s;\n", c.Name, typ, lit)
	}
	return b.String(), nil
}

func literal(v any) (typ, lit string, err error) {
	switch x := v.(type) {
	case bool:
		return "bool", strconv.FormatBool(x), nil
	case int32:
		return "i32", strconv.FormatInt(int64(x), 10), nil
	case uint32:
		return "u32", strconv.FormatUint(uint64(x), 10) + "u", nil
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return "", "", fmt.Errorf("non-finite value %v", x)
		}
		s := strconv.FormatFloat(float64(x), 'f', -1, 32)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return "f32", s, nil
	default:
		return "", "", fmt.Errorf("unsupported type %T", v)
	}
}

// Fragments are the generated pieces substituted into a template.
type Fragments struct {
	Bindings  string
	Dispatch  string
	Aggregate string
}

// Render substitutes constants and fragments into template in one pass.
func Render(template, constants string, f Fragments) string {
	r := strings.NewReplacer(
		MarkerConstants, constants,
		MarkerBindings, f.Bindings,
		MarkerDispatch, f.Dispatch,
		MarkerAggregate, f.Aggregate,
	)
	return r.Replace(template)
}

// CompileSPIRV compiles WGSL to SPIR-V words with naga.
func CompileSPIRV(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// Validate reports whether naga accepts the source.
func Validate(wgsl string) error {
	_, err := naga.Compile(wgsl)
	return err
}
