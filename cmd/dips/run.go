// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gogpu/dips"
	"github.com/gogpu/dips/backend"
	"github.com/gogpu/dips/backend/rust"
	"github.com/gogpu/dips/gpucore"
	"github.com/gogpu/dips/media"
)

// run is main without the process exit, so tests can drive it.
func run(args []string, stdout, stderr io.Writer) int {
	getenv, err := readEnv(".env")
	if err != nil {
		printError(stderr, err)
		return 1
	}
	s, err := parseArgs(args, getenv, stderr)
	if errors.Is(err, errUsage) {
		return 2
	}
	if err != nil {
		printError(stderr, err)
		return 2
	}

	log, closer := newLogger(stderr, s.LogFile, s.Verbose)
	defer closer.Close()
	dips.SetLogger(log)
	media.SetLogger(log)
	defer dips.SetLogger(nil)
	defer media.SetLogger(nil)

	switch {
	case s.Backends:
		for _, name := range backend.Available() {
			fmt.Fprintln(stdout, name)
		}
		return 0
	case s.Probe:
		info, err := rust.Probe()
		if err != nil {
			printError(stderr, err)
			return 1
		}
		fmt.Fprintln(stdout, info)
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := process(ctx, s, stdout, log); err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}

func openBackend(name string) (gpucore.GPUAdapter, error) {
	if name == "" || name == "auto" {
		return backend.Default()
	}
	return backend.Open(name)
}

func openSource(s settings) (media.Source, float64, error) {
	if strings.ContainsAny(s.Input, "*?[") {
		src, err := media.OpenImages(s.Input)
		return src, media.DefaultFrameRate, err
	}
	var opts []media.VideoOption
	if s.FFmpeg != "" {
		opts = append(opts, media.WithFFmpegPath(s.FFmpeg))
	}
	src, err := media.OpenVideo(s.Input, opts...)
	if err != nil {
		return nil, 0, err
	}
	fps := src.Info().FrameRate
	if fps <= 0 {
		fps = media.DefaultFrameRate
	}
	return src, fps, nil
}

// imageOutput reports whether output names a directory for an image
// sequence rather than a video file.
func imageOutput(output string) bool {
	if strings.HasSuffix(output, "/") || strings.HasSuffix(output, string(filepath.Separator)) {
		return true
	}
	fi, err := os.Stat(output)
	return err == nil && fi.IsDir()
}

func createSink(s settings, width, height int, fps float64) (media.Sink, error) {
	if imageOutput(s.Output) {
		format, err := media.ParseImageFormat(s.ImageFormat)
		if err != nil {
			return nil, err
		}
		return media.CreateImages(s.Output, format, width, height)
	}
	enc, err := media.ParseEncoding(s.Encoding)
	if err != nil {
		return nil, err
	}
	opts := []media.VideoOption{media.WithFrameRate(fps)}
	if s.FFmpeg != "" {
		opts = append(opts, media.WithFFmpegPath(s.FFmpeg))
	}
	return media.CreateVideo(s.Output, width, height, enc, opts...)
}

// refreshSchedule maps a refresh marker to the frame that takes the
// snapshot: the window is allowed to refill with frames after the marker
// first.
func refreshSchedule(markers []int, window int) map[int]bool {
	due := make(map[int]bool, len(markers))
	for _, m := range markers {
		due[m+window] = true
	}
	return due
}

func process(ctx context.Context, s settings, stdout io.Writer, log *slog.Logger) (err error) {
	cfg, err := s.filterConfig()
	if err != nil {
		return err
	}

	adapter, err := openBackend(s.Backend)
	if err != nil {
		return err
	}
	defer adapter.Release()

	src, fps, err := openSource(s)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := src.Close(); err == nil {
			err = cerr
		}
	}()
	width, height := src.Size()

	eng, err := dips.New(adapter, s.Window, width, height, cfg)
	if err != nil {
		return err
	}
	act := dips.NewActor(eng)
	defer act.Close()

	sink, err := createSink(s, width, height, fps)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sink.Close(); err == nil {
			err = cerr
		}
	}()

	printSettings(stdout, s, eng.Config(), s.Backend)

	due := refreshSchedule(s.Refresh, eng.Window())
	var r report
	start := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			log.Warn("dips: interrupted", "frame", r.Frames)
			break
		}
		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("frame %d: %w", r.Frames+1, err)
		}
		r.Frames++

		snapshot := due[r.Frames]
		if snapshot {
			r.Refreshes++
			log.Info("dips: refreshing baseline", "frame", r.Frames)
		}
		out, ok, err := act.Send(ctx, frame, snapshot)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				continue
			}
			return fmt.Errorf("frame %d: %w", r.Frames, err)
		}
		if ok {
			if err := sink.Write(out); err != nil {
				return fmt.Errorf("write frame %d: %w", r.Frames, err)
			}
			r.Written++
		}
		fmt.Fprintf(stdout, "\rFrame: %d", r.Frames)
	}
	fmt.Fprintln(stdout)

	r.Elapsed = time.Since(start)
	printReport(stdout, r)
	return nil
}
