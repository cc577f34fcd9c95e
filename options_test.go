// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dips

import (
	"log/slog"
	"testing"
	"time"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.timeout != DefaultDeviceTimeout {
		t.Errorf("timeout = %v, want %v", o.timeout, DefaultDeviceTimeout)
	}
	if o.label != "dips" {
		t.Errorf("label = %q, want dips", o.label)
	}
	if o.logger != nil {
		t.Error("logger set by default, want package logger fallback")
	}
	if o.shaders.Baseline.EntryPoint == "" || o.shaders.Differential.EntryPoint == "" {
		t.Errorf("default shaders missing entry points: %+v", o.shaders)
	}
}

func TestOptionsApply(t *testing.T) {
	l := slog.Default()
	custom := DefaultShaders()
	custom.Baseline.Label = "custom_baseline"

	o := defaultOptions()
	for _, opt := range []Option{
		WithLogger(l),
		WithDeviceTimeout(250 * time.Millisecond),
		WithLabel("cam-1"),
		WithShaders(custom),
	} {
		opt(&o)
	}

	if o.logger != l {
		t.Error("WithLogger not applied")
	}
	if o.timeout != 250*time.Millisecond {
		t.Errorf("timeout = %v, want 250ms", o.timeout)
	}
	if o.label != "cam-1" {
		t.Errorf("label = %q, want cam-1", o.label)
	}
	if o.shaders.Baseline.Label != "custom_baseline" {
		t.Errorf("shaders.Baseline.Label = %q, want custom_baseline", o.shaders.Baseline.Label)
	}
}
