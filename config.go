// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dips

import (
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/dips/internal/shader"
)

// FilterKind selects the response curve applied to the differential signal.
type FilterKind uint32

// Response curves. The values are the FILTER_TYPE constants of the kernel.
const (
	// Sigmoid maps x to 1/(1+exp(-k·x)).
	Sigmoid FilterKind = iota

	// InverseSigmoid maps x to 1/(1+exp(k·x)).
	InverseSigmoid

	// Unfiltered maps x linearly to 0.5+0.5·x.
	Unfiltered
)

// String returns the command-line spelling of the filter.
func (k FilterKind) String() string {
	switch k {
	case Sigmoid:
		return "sigmoid"
	case InverseSigmoid:
		return "inv_sig"
	case Unfiltered:
		return "none"
	default:
		return fmt.Sprintf("FilterKind(%d)", uint32(k))
	}
}

// ParseFilterKind parses "sigmoid", "inv_sig" or "none".
func ParseFilterKind(s string) (FilterKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sigmoid":
		return Sigmoid, nil
	case "inv_sig", "inverse_sigmoid":
		return InverseSigmoid, nil
	case "none", "unfiltered":
		return Unfiltered, nil
	}
	return 0, fmt.Errorf("%w: unknown filter %q", ErrInvalidConfig, s)
}

// ChromaFilter selects which color channels feed the differential signal.
type ChromaFilter uint32

// Chroma selections. The values are the CHROMA_FILTER constants of the kernel.
const (
	// ChromaAll averages red, green and blue.
	ChromaAll ChromaFilter = iota
	ChromaRed
	ChromaGreen
	ChromaBlue
)

// String returns the command-line spelling of the chroma filter.
func (c ChromaFilter) String() string {
	switch c {
	case ChromaAll:
		return "all"
	case ChromaRed:
		return "r"
	case ChromaGreen:
		return "g"
	case ChromaBlue:
		return "b"
	default:
		return fmt.Sprintf("ChromaFilter(%d)", uint32(c))
	}
}

// ParseChroma parses "r", "g", "b" or "all".
func ParseChroma(s string) (ChromaFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all", "rgb":
		return ChromaAll, nil
	case "r", "red":
		return ChromaRed, nil
	case "g", "green":
		return ChromaGreen, nil
	case "b", "blue":
		return ChromaBlue, nil
	}
	return 0, fmt.Errorf("%w: unknown chroma filter %q", ErrInvalidConfig, s)
}

// Bounds of the tunable filter parameters.
const (
	MinSensitivity = 1
	MaxSensitivity = 10

	MinSpatialWindow = 1
	MaxSpatialWindow = 7
)

// FilterConfig is the set of filter parameters baked into both kernels.
// Changing it requires a new Engine.
type FilterConfig struct {
	// Colorize tints the output red/green/blue by sign instead of grey.
	Colorize bool

	// SpatialWindowSize is the odd edge of the box filter applied to every
	// frame before temporal processing.
	SpatialWindowSize int

	// Sensitivity scales the slope of the sigmoid curves.
	Sensitivity float32

	Filter FilterKind
	Chroma ChromaFilter
}

// DefaultFilterConfig returns the configuration the dips tool starts with.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		Colorize:          true,
		SpatialWindowSize: 1,
		Sensitivity:       5,
		Filter:            Sigmoid,
		Chroma:            ChromaAll,
	}
}

// Normalize clamps the sensitivity to [1, 10] and the spatial window to
// [1, 7], stepping an even window down to the odd size below it.
func (c FilterConfig) Normalize() FilterConfig {
	if !math.IsNaN(float64(c.Sensitivity)) {
		c.Sensitivity = max(MinSensitivity, min(c.Sensitivity, MaxSensitivity))
	}
	c.SpatialWindowSize = max(MinSpatialWindow, min(c.SpatialWindowSize, MaxSpatialWindow))
	if c.SpatialWindowSize%2 == 0 {
		c.SpatialWindowSize--
	}
	return c
}

// Validate reports whether every field is in range.
func (c FilterConfig) Validate() error {
	if c.SpatialWindowSize < MinSpatialWindow || c.SpatialWindowSize > MaxSpatialWindow || c.SpatialWindowSize%2 == 0 {
		return fmt.Errorf("%w: spatial window size %d must be odd in [%d, %d]",
			ErrInvalidConfig, c.SpatialWindowSize, MinSpatialWindow, MaxSpatialWindow)
	}
	if math.IsNaN(float64(c.Sensitivity)) || c.Sensitivity < MinSensitivity || c.Sensitivity > MaxSensitivity {
		return fmt.Errorf("%w: sensitivity %v not in [%d, %d]",
			ErrInvalidConfig, c.Sensitivity, MinSensitivity, MaxSensitivity)
	}
	if c.Filter > Unfiltered {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, c.Filter)
	}
	if c.Chroma > ChromaBlue {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, c.Chroma)
	}
	return nil
}

// constants returns the pipeline constants for both kernels.
func (c FilterConfig) constants() []shader.Constant {
	return []shader.Constant{
		{Name: "COLORIZE", Value: c.Colorize},
		{Name: "WINDOW_SIZE", Value: int32(c.SpatialWindowSize)},
		{Name: "SIGMOID_HORIZONTAL_SCALAR", Value: c.Sensitivity},
		{Name: "FILTER_TYPE", Value: uint32(c.Filter)},
		{Name: "CHROMA_FILTER", Value: uint32(c.Chroma)},
	}
}
