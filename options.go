// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dips

import (
	"log/slog"
	"time"

	"github.com/gogpu/dips/internal/shader"
)

// DefaultDeviceTimeout bounds how long a frame may wait on the device.
const DefaultDeviceTimeout = 5 * time.Second

// Program is a WGSL kernel template plus its entry point.
type Program = shader.Program

// Shaders is the pair of kernels an engine runs.
type Shaders = shader.Set

// DefaultShaders returns the embedded baseline and differential kernels.
func DefaultShaders() Shaders { return shader.Default() }

// Option configures an Engine during creation.
//
// Example:
//
//	eng, err := dips.New(adapter, 8, 1920, 1080, dips.DefaultFilterConfig(),
//	    dips.WithLabel("camera-0"),
//	    dips.WithLogger(slog.Default()))
type Option func(*options)

// options holds optional configuration for Engine creation.
type options struct {
	logger  *slog.Logger
	timeout time.Duration
	shaders Shaders
	label   string
}

func defaultOptions() options {
	return options{
		timeout: DefaultDeviceTimeout,
		shaders: shader.Default(),
		label:   "dips",
	}
}

// WithLogger sets the logger for this engine only. Without it the engine
// logs through the package logger (see SetLogger).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithDeviceTimeout sets the watchdog for device waits. Adapters that
// implement a watchdog (see TimeoutSetter) honour it; zero disables it.
func WithDeviceTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithShaders replaces the baseline and differential kernels. Each
// program must keep the binding layout and markers of the embedded ones.
func WithShaders(s Shaders) Option {
	return func(o *options) {
		o.shaders = s
	}
}

// WithLabel sets the label prefixed to log records and GPU objects.
func WithLabel(label string) Option {
	return func(o *options) {
		o.label = label
	}
}
