// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"math"
	"strings"
	"testing"
)

func TestBake(t *testing.T) {
	got, err := Bake([]Constant{
		{"COLORIZE", true},
		{"WINDOW_SIZE", int32(3)},
		{"SIGMOID_HORIZONTAL_SCALAR", float32(5)},
		{"SCALE", float32(2.5)},
		{"FILTER_TYPE", uint32(1)},
	})
	if err != nil {
		t.Fatalf("Bake() error = %v", err)
	}
	want := "const COLORIZE: bool = true;\n" +
		"const WINDOW_SIZE: i32 = 3;\n" +
		"const SIGMOID_HORIZONTAL_SCALAR: f32 = 5.0;\n" +
		"const SCALE: f32 = 2.5;\n" +
		"const FILTER_TYPE: u32 = 1u;\n"
	if got != want {
		t.Errorf("Bake() =\n%s\nwant\n%s", got, want)
	}
}

func TestBakeRejects(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"int", 3},
		{"float64", 1.0},
		{"nan", float32(math.NaN())},
		{"inf", float32(math.Inf(1))},
		{"string", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Bake([]Constant{{"X", tt.value}}); err == nil {
				t.Errorf("Bake(%v) error = nil, want error", tt.value)
			}
		})
	}
}

func TestRenderSinglePass(t *testing.T) {
	tmpl := "A\n// @constants\nB\n// @bindings\nC\n// @dispatch\nD\n// @aggregate\n"
	got := Render(tmpl, "const K: u32 = 1u;\n", Fragments{
		// A fragment containing a marker must not be expanded again.
		Bindings:  "bind // @dispatch\n",
		Dispatch:  "case\n",
		Aggregate: "agg\n",
	})
	want := "A\nconst K: u32 = 1u;\n\nB\nbind // @dispatch\n\nC\ncase\n\nD\nagg\n\n"
	if got != want {
		t.Errorf("Render() =\n%q\nwant\n%q", got, want)
	}
}

func TestDefaultTemplatesCarryMarkers(t *testing.T) {
	set := Default()
	for _, p := range []Program{set.Baseline, set.Differential} {
		for _, m := range []string{MarkerConstants, MarkerBindings, MarkerDispatch, MarkerAggregate} {
			if !strings.Contains(p.Template, m) {
				t.Errorf("%s template missing marker %q", p.Label, m)
			}
		}
		if !strings.Contains(p.Template, "fn "+p.EntryPoint+"(") {
			t.Errorf("%s template missing entry point %s", p.Label, p.EntryPoint)
		}
	}
}
