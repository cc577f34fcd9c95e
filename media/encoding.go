// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package media

import (
	"fmt"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Encoding selects the codec of a video sink.
type Encoding int

// Output encodings.
const (
	// RGBA stores raw rgba frames.
	RGBA Encoding = iota

	// HFYU is lossless HuffYUV.
	HFYU

	// H264 is lossy libx264.
	H264
)

// String returns the command-line spelling.
func (e Encoding) String() string {
	switch e {
	case RGBA:
		return "RGBA"
	case HFYU:
		return "HFYU"
	case H264:
		return "H264"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// ParseEncoding parses "RGBA", "HFYU" or "H264", ignoring case.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RGBA", "":
		return RGBA, nil
	case "HFYU":
		return HFYU, nil
	case "H264":
		return H264, nil
	}
	return RGBA, fmt.Errorf("%w: encoding %q", ErrUnsupportedFormat, s)
}

// outputArgs returns the ffmpeg output options of the encoding.
func (e Encoding) outputArgs() (ffmpeg.KwArgs, error) {
	switch e {
	case RGBA:
		return ffmpeg.KwArgs{"c:v": "rawvideo", "pix_fmt": "rgba"}, nil
	case HFYU:
		return ffmpeg.KwArgs{"c:v": "huffyuv", "pix_fmt": "rgb24"}, nil
	case H264:
		return ffmpeg.KwArgs{"c:v": "libx264", "pix_fmt": "yuv420p", "crf": "18"}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, e)
	}
}
