// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/dips/gpucore"
)

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first to open a device wins).
	// Native > WebGPU > Soft.
	backendPriority = []string{Native, WebGPU, Soft}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it is replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend and its logger hook from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	delete(backends, name)
	registryMu.Unlock()

	loggerHooksMu.Lock()
	delete(loggerHooks, name)
	loggerHooksMu.Unlock()
}

// Available returns the registered backend names in selection order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for _, name := range backendPriority {
		if _, ok := backends[name]; ok {
			names = append(names, name)
		}
	}
	var rest []string
	for name := range backends {
		if !slices.Contains(backendPriority, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(names, rest...)
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[name]
	return ok
}

// Open opens a device on the named backend.
func Open(name string) (gpucore.GPUAdapter, error) {
	registryMu.RLock()
	factory, ok := backends[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	a, err := factory()
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", name, err)
	}
	slogger().Info("backend: device opened", "backend", name, "adapter", a.Name())
	return a, nil
}

// Default opens a device on the best available backend.
// Backends are tried in priority order; a backend that fails to open is
// logged and skipped. When every backend fails the returned error wraps
// ErrBackendNotAvailable and each failure.
func Default() (gpucore.GPUAdapter, error) {
	errs := []error{ErrBackendNotAvailable}
	for _, name := range Available() {
		a, err := Open(name)
		if err == nil {
			return a, nil
		}
		slogger().Warn("backend: skipping", "backend", name, "err", err)
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}
