// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/gogpu/dips/internal/parallel"
)

// WorkgroupSize is the edge of the square workgroup every dips kernel uses.
const WorkgroupSize = 16

// Kernel executes one dispatch on the CPU.
type Kernel func(inv *Invocation) error

// Invocation is the state a kernel sees for one dispatch.
type Invocation struct {
	// Constants are the const declarations of the shader module.
	Constants Constants

	// Groups holds the bound resources, indexed by bind group.
	Groups []BoundGroup

	// X, Y, Z are the dispatched workgroup counts.
	X, Y, Z uint32

	pool *parallel.WorkerPool
}

// BoundGroup holds the resources of one bind group by binding index.
type BoundGroup struct {
	Textures map[uint32]*Image
	Buffers  map[uint32][]byte
}

// ErrMissingBinding is returned when a kernel reads an unbound slot.
var ErrMissingBinding = errors.New("soft: missing binding")

// Texture returns the texture bound at group/binding.
func (inv *Invocation) Texture(group, binding uint32) (*Image, error) {
	if int(group) >= len(inv.Groups) {
		return nil, fmt.Errorf("%w: group %d", ErrMissingBinding, group)
	}
	img, ok := inv.Groups[group].Textures[binding]
	if !ok || img == nil {
		return nil, fmt.Errorf("%w: texture @group(%d) @binding(%d)", ErrMissingBinding, group, binding)
	}
	return img, nil
}

// Buffer returns the buffer range bound at group/binding.
func (inv *Invocation) Buffer(group, binding uint32) ([]byte, error) {
	if int(group) >= len(inv.Groups) {
		return nil, fmt.Errorf("%w: group %d", ErrMissingBinding, group)
	}
	b, ok := inv.Groups[group].Buffers[binding]
	if !ok {
		return nil, fmt.Errorf("%w: buffer @group(%d) @binding(%d)", ErrMissingBinding, group, binding)
	}
	return b, nil
}

// Each calls fn for every invocation of the dispatch grid that falls
// inside a width×height image, the way the kernels' bounds check does.
func (inv *Invocation) Each(width, height int, fn func(x, y int)) {
	maxX := min(int(inv.X)*WorkgroupSize, width)
	maxY := min(int(inv.Y)*WorkgroupSize, height)
	for y := 0; y < maxY; y++ {
		for x := 0; x < maxX; x++ {
			fn(x, y)
		}
	}
}

// EachBand is Each spread over the adapter's workers in row bands. band
// is called once per band to build the per-invocation function, so the
// scratch it captures is private to that band. Invocations may only write
// their own texel.
func (inv *Invocation) EachBand(width, height int, band func() func(x, y int)) {
	maxX := min(int(inv.X)*WorkgroupSize, width)
	maxY := min(int(inv.Y)*WorkgroupSize, height)
	rows := func(y0, y1 int) {
		fn := band()
		for y := y0; y < y1; y++ {
			for x := 0; x < maxX; x++ {
				fn(x, y)
			}
		}
	}
	if inv.pool == nil {
		rows(0, max(maxY, 0))
		return
	}
	inv.pool.Bands(maxY, rows)
}

// Constants maps const names to their WGSL literal text.
type Constants map[string]string

// Bool returns a bool constant.
func (c Constants) Bool(name string) (bool, error) {
	s, ok := c[name]
	if !ok {
		return false, fmt.Errorf("soft: constant %s not declared", name)
	}
	return strconv.ParseBool(s)
}

// Int returns an i32 constant.
func (c Constants) Int(name string) (int, error) {
	s, ok := c[name]
	if !ok {
		return 0, fmt.Errorf("soft: constant %s not declared", name)
	}
	v, err := strconv.ParseInt(s, 10, 32)
	return int(v), err
}

// Uint returns a u32 constant.
func (c Constants) Uint(name string) (uint32, error) {
	s, ok := c[name]
	if !ok {
		return 0, fmt.Errorf("soft: constant %s not declared", name)
	}
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err
}

// Float returns an f32 constant.
func (c Constants) Float(name string) (float32, error) {
	s, ok := c[name]
	if !ok {
		return 0, fmt.Errorf("soft: constant %s not declared", name)
	}
	v, err := strconv.ParseFloat(s, 32)
	return float32(v), err
}

// Image is an RGBA8 texture in host memory.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

// NewImage returns a zeroed image.
func NewImage(width, height int) *Image {
	return &Image{Width: width, Height: height, Pix: make([]byte, width*height*4)}
}

// At returns the normalized texel at x, y.
func (m *Image) At(x, y int) [4]float32 {
	i := (y*m.Width + x) * 4
	return [4]float32{
		float32(m.Pix[i]) / 255,
		float32(m.Pix[i+1]) / 255,
		float32(m.Pix[i+2]) / 255,
		float32(m.Pix[i+3]) / 255,
	}
}

// Set stores a normalized texel, clamping and rounding like an rgba8unorm
// storage write.
func (m *Image) Set(x, y int, v [4]float32) {
	i := (y*m.Width + x) * 4
	for c := 0; c < 4; c++ {
		m.Pix[i+c] = unorm8(v[c])
	}
}

func unorm8(v float32) byte {
	if v <= 0 || v != v {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return byte(math.Round(float64(v) * 255))
}

// spatialMean averages img over a (2r+1)² neighborhood, clamping at edges.
func spatialMean(img *Image, x, y, r int) [4]float32 {
	var sum [4]float32
	var count float32
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			px := clamp(x+dx, 0, img.Width-1)
			py := clamp(y+dy, 0, img.Height-1)
			t := img.At(px, py)
			for c := range sum {
				sum[c] += t[c]
			}
			count++
		}
	}
	for c := range sum {
		sum[c] /= count
	}
	return sum
}

func clamp[T int | float32](v, lo, hi T) T {
	return max(lo, min(v, hi))
}

// history returns the n history textures laid out from firstGroup on,
// four per group.
func history(inv *Invocation, firstGroup uint32, n uint32) ([]*Image, error) {
	frames := make([]*Image, n)
	for i := uint32(0); i < n; i++ {
		img, err := inv.Texture(firstGroup+i/4, i%4)
		if err != nil {
			return nil, err
		}
		frames[i] = img
	}
	return frames, nil
}

// BaselineKernel is the CPU form of baseline_main: the per-channel
// temporal median of the spatially smoothed history window.
func BaselineKernel(inv *Invocation) error {
	n, err := inv.Constants.Uint("NUM_TEXTURES")
	if err != nil {
		return err
	}
	win, err := inv.Constants.Int("WINDOW_SIZE")
	if err != nil {
		return err
	}
	out, err := inv.Texture(3, 0)
	if err != nil {
		return err
	}
	frames, err := history(inv, 0, n)
	if err != nil {
		return err
	}

	radius := win / 2
	inv.EachBand(out.Width, out.Height, func() func(x, y int) {
		samples := make([][4]float32, n)
		v := make([]float32, n)
		return func(x, y int) {
			for i, f := range frames {
				samples[i] = spatialMean(f, x, y, radius)
			}
			var median [4]float32
			for c := 0; c < 4; c++ {
				for i := range samples {
					v[i] = samples[i][c]
				}
				insertionSort(v)
				median[c] = v[len(v)/2]
			}
			out.Set(x, y, median)
		}
	})
	return nil
}

func insertionSort(v []float32) {
	for i := 1; i < len(v); i++ {
		key := v[i]
		j := i
		for j > 0 && v[j-1] > key {
			v[j] = v[j-1]
			j--
		}
		v[j] = key
	}
}

// differentialGain matches GAIN in differential.wgsl.
const differentialGain = 10

// DifferentialKernel is the CPU form of differential_main.
func DifferentialKernel(inv *Invocation) error {
	n, err := inv.Constants.Uint("NUM_TEXTURES")
	if err != nil {
		return err
	}
	win, err := inv.Constants.Int("WINDOW_SIZE")
	if err != nil {
		return err
	}
	colorize, err := inv.Constants.Bool("COLORIZE")
	if err != nil {
		return err
	}
	scalar, err := inv.Constants.Float("SIGMOID_HORIZONTAL_SCALAR")
	if err != nil {
		return err
	}
	filterType, err := inv.Constants.Uint("FILTER_TYPE")
	if err != nil {
		return err
	}
	chroma, err := inv.Constants.Uint("CHROMA_FILTER")
	if err != nil {
		return err
	}
	baseline, err := inv.Texture(0, 0)
	if err != nil {
		return err
	}
	frames, err := history(inv, 1, n)
	if err != nil {
		return err
	}
	params, err := inv.Buffer(4, 0)
	if err != nil {
		return err
	}
	if len(params) < 12 {
		return fmt.Errorf("soft: frame params of %d bytes", len(params))
	}
	out, err := inv.Texture(4, 1)
	if err != nil {
		return err
	}
	current := binary.LittleEndian.Uint32(params[0:])
	width := int(binary.LittleEndian.Uint32(params[4:]))
	height := int(binary.LittleEndian.Uint32(params[8:]))
	if current >= n {
		return fmt.Errorf("soft: current slot %d out of %d", current, n)
	}

	selectChroma := func(v [4]float32) float32 {
		switch chroma {
		case 1:
			return v[0]
		case 2:
			return v[1]
		case 3:
			return v[2]
		default:
			return (v[0] + v[1] + v[2]) / 3
		}
	}
	k := float64(scalar) * differentialGain
	response := func(x float32) float32 {
		switch filterType {
		case 0:
			return float32(1 / (1 + math.Exp(-k*float64(x))))
		case 1:
			return float32(1 / (1 + math.Exp(k*float64(x))))
		default:
			return clamp(0.5+0.5*x, 0, 1)
		}
	}

	radius := win / 2
	inv.EachBand(min(width, out.Width), min(height, out.Height), func() func(x, y int) {
		samples := make([][4]float32, n)
		return func(x, y int) {
			var mean [4]float32
			for i, f := range frames {
				samples[i] = spatialMean(f, x, y, radius)
				for c := range mean {
					mean[c] += samples[i][c]
				}
			}
			for c := range mean {
				mean[c] /= float32(n)
			}
			newest := samples[current]
			base := spatialMean(baseline, x, y, radius)
			var d, t [4]float32
			for c := range d {
				d[c] = newest[c] - base[c]
				t[c] = newest[c] - mean[c]
			}
			strength := clamp(selectChroma(d)+0.5*selectChroma(t), -1, 1)
			f := response(strength)
			rgb := [3]float32{f, f, f}
			if colorize {
				rgb = [3]float32{f, 1 - float32(math.Abs(float64(2*f-1))), 1 - f}
			}
			out.Set(x, y, [4]float32{rgb[0], rgb[1], rgb[2], 1})
		}
	})
	return nil
}
