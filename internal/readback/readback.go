// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package readback copies a GPU texture back to tightly packed host memory.
//
// Texture-to-buffer copies need every row stride to be a multiple of
// [gpucore.CopyBytesPerRowAlignment]. The Reader copies into a padded staging
// buffer, blocks on the map and strips the padding row by row.
package readback

import (
	"errors"
	"fmt"

	"github.com/gogpu/dips/gpucore"
)

// bytesPerPixel is the texel size of the RGBA8 frames the engine reads.
const bytesPerPixel = 4

// ErrShortBuffer is returned when a source or destination slice cannot hold
// the image.
var ErrShortBuffer = errors.New("readback: buffer too small")

// UnpaddedRowBytes returns the tightly packed row size for width pixels.
func UnpaddedRowBytes(width int) int { return width * bytesPerPixel }

// PaddedRowBytes returns the row stride of the staging buffer for width
// pixels: the unpadded row rounded up to the copy alignment.
func PaddedRowBytes(width int) int {
	unpadded := UnpaddedRowBytes(width)
	align := gpucore.CopyBytesPerRowAlignment
	return unpadded + (align-unpadded%align)%align
}

// Unpad copies the first UnpaddedRowBytes(width) bytes of every padded row
// in src into dst. dst must hold width*height*4 bytes.
func Unpad(dst, src []byte, width, height int) error {
	unpadded := UnpaddedRowBytes(width)
	padded := PaddedRowBytes(width)
	if len(dst) < unpadded*height {
		return fmt.Errorf("%w: dst %d bytes, want %d", ErrShortBuffer, len(dst), unpadded*height)
	}
	if height > 0 && len(src) < padded*(height-1)+unpadded {
		return fmt.Errorf("%w: src %d bytes, want %d", ErrShortBuffer, len(src), padded*height)
	}
	if padded == unpadded {
		copy(dst, src[:unpadded*height])
		return nil
	}
	for row := 0; row < height; row++ {
		srcOff := row * padded
		dstOff := row * unpadded
		copy(dst[dstOff:dstOff+unpadded], src[srcOff:srcOff+unpadded])
	}
	return nil
}

// Reader reads whole RGBA8 textures of a fixed size.
// A Reader owns one staging buffer and is not safe for concurrent use.
type Reader struct {
	adapter gpucore.GPUAdapter
	width   int
	height  int
	staging gpucore.BufferID
	size    uint64
}

// NewReader creates the staging buffer for width×height frames.
func NewReader(adapter gpucore.GPUAdapter, width, height int) (*Reader, error) {
	size := uint64(PaddedRowBytes(width)) * uint64(height)
	buf, err := adapter.CreateBuffer(int(size), gpucore.BufferUsageMapRead|gpucore.BufferUsageCopyDst)
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	return &Reader{
		adapter: adapter,
		width:   width,
		height:  height,
		staging: buf,
		size:    size,
	}, nil
}

// StagingSize returns the staging buffer size in bytes.
func (r *Reader) StagingSize() uint64 { return r.size }

// Record appends the texture-to-staging copy to the adapter's current
// command stream. The caller submits it, then calls Collect.
func (r *Reader) Record(texture gpucore.TextureID) error {
	return r.adapter.CopyTextureToBuffer(&gpucore.TextureCopy{
		Texture:     texture,
		Buffer:      r.staging,
		BytesPerRow: uint32(PaddedRowBytes(r.width)),
		Width:       uint32(r.width),
		Height:      uint32(r.height),
	})
}

// Collect maps the staging buffer, blocking until the device is done, and
// returns the unpadded pixels. The buffer is unmapped before returning.
func (r *Reader) Collect() ([]byte, error) {
	mapped, err := r.adapter.MapRead(r.staging, r.size)
	if err != nil {
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}
	defer r.adapter.Unmap(r.staging)

	out := make([]byte, UnpaddedRowBytes(r.width)*r.height)
	if err := Unpad(out, mapped, r.width, r.height); err != nil {
		return nil, err
	}
	return out, nil
}

// Read records the copy, submits and collects in one call.
func (r *Reader) Read(texture gpucore.TextureID) ([]byte, error) {
	if err := r.Record(texture); err != nil {
		return nil, fmt.Errorf("record copy: %w", err)
	}
	if err := r.adapter.Submit(); err != nil {
		return nil, fmt.Errorf("submit copy: %w", err)
	}
	return r.Collect()
}

// Destroy releases the staging buffer.
func (r *Reader) Destroy() {
	if r.staging != gpucore.InvalidID {
		r.adapter.DestroyBuffer(r.staging)
		r.staging = gpucore.InvalidID
	}
}
