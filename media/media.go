// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package media reads and writes the RGBA8 frame streams the engine
// consumes and produces.
//
// Video goes through an ffmpeg process with rawvideo rgba pipes. Image
// sequences are decoded and encoded in process.
package media

import (
	"errors"
	"fmt"
)

// Source yields tightly packed RGBA8 frames of a fixed size.
type Source interface {
	// Next returns the next frame, or io.EOF after the last one.
	Next() ([]byte, error)

	// Size returns the frame dimensions.
	Size() (width, height int)

	Close() error
}

// Sink consumes RGBA8 frames of a fixed size.
type Sink interface {
	Write(frame []byte) error
	Close() error
}

// Errors returned by sources and sinks.
var (
	// ErrFrameSize is returned by Write for a frame of the wrong length.
	ErrFrameSize = errors.New("media: frame size mismatch")

	// ErrTruncated is returned by Next when the stream ends mid-frame.
	ErrTruncated = errors.New("media: truncated frame")

	// ErrNoFrames is returned when an input holds no frames.
	ErrNoFrames = errors.New("media: no frames")

	// ErrNoVideoStream is returned by Probe for a file without video.
	ErrNoVideoStream = errors.New("media: no video stream")

	// ErrUnsupportedFormat is returned for an unknown encoding or image format.
	ErrUnsupportedFormat = errors.New("media: unsupported format")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("media: closed")
)

func frameBytes(width, height int) int { return width * height * 4 }

func checkFrame(frame []byte, width, height int) error {
	if want := frameBytes(width, height); len(frame) != want {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(frame), want)
	}
	return nil
}
