// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

var (
	loggerHooksMu sync.Mutex
	loggerHooks   = make(map[string]func(*slog.Logger))
)

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

func slogger() *slog.Logger { return loggerPtr.Load() }

// SetLogger sets the logger for the registry and every backend that
// registered a logger hook. Pass nil to silence them.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)

	loggerHooksMu.Lock()
	defer loggerHooksMu.Unlock()
	for _, set := range loggerHooks {
		set(l)
	}
}

// RegisterLogger registers the package-level SetLogger of a backend so
// SetLogger reaches it. The current logger is applied immediately.
func RegisterLogger(name string, set func(*slog.Logger)) {
	loggerHooksMu.Lock()
	defer loggerHooksMu.Unlock()
	loggerHooks[name] = set
	set(loggerPtr.Load())
}
