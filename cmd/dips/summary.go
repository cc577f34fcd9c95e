// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/dips"
)

var printer = message.NewPrinter(language.English)

// printSettings writes the start-up summary.
func printSettings(w io.Writer, s settings, cfg dips.FilterConfig, backendName string) {
	header := color.New(color.FgCyan, color.Bold)
	key := color.New(color.FgHiBlack)

	header.Fprintln(w, "Running DiPs with settings:")
	row := func(name string, value any) {
		key.Fprintf(w, "  %-16s", name)
		fmt.Fprintln(w, value)
	}
	row("input", s.Input)
	row("output", s.Output)
	row("encoding", s.Encoding)
	row("backend", backendName)
	row("window", s.Window)
	row("filter", cfg.Filter)
	row("chroma", cfg.Chroma)
	row("sensitivity", cfg.Sensitivity)
	row("spatial window", cfg.SpatialWindowSize)
	row("colorize", cfg.Colorize)
	if len(s.Refresh) > 0 {
		row("refresh markers", s.Refresh)
	}
	fmt.Fprintln(w)
}

// report is the outcome of a run.
type report struct {
	Frames    int
	Written   int
	Refreshes int
	Elapsed   time.Duration
}

func printReport(w io.Writer, r report) {
	ok := color.New(color.FgGreen, color.Bold)
	dim := color.New(color.FgHiBlack)

	ok.Fprint(w, "done ")
	fmt.Fprint(w, printer.Sprintf("%d frames read, %d written", r.Frames, r.Written))
	if r.Refreshes > 0 {
		fmt.Fprint(w, printer.Sprintf(", %d baseline refreshes", r.Refreshes))
	}
	fps := 0.0
	if s := r.Elapsed.Seconds(); s > 0 {
		fps = float64(r.Frames) / s
	}
	dim.Fprintf(w, " (%v, %s fps)\n", r.Elapsed.Round(time.Millisecond), printer.Sprintf("%.1f", fps))
}

func printError(w io.Writer, err error) {
	color.New(color.FgRed, color.Bold).Fprint(w, "error: ")
	fmt.Fprintln(w, err)
}
