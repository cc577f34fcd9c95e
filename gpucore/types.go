// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

// Handles name resources owned by an adapter. They are only meaningful to
// the adapter that issued them.
type (
	BufferID          uint64
	TextureID         uint64
	ShaderModuleID    uint64
	ComputePipelineID uint64
	BindGroupLayoutID uint64
	BindGroupID       uint64
	PipelineLayoutID  uint64
)

// InvalidID is never issued by an adapter.
const InvalidID = 0

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags. The bit positions match WebGPU's GPUBufferUsage.
const (
	BufferUsageMapRead BufferUsage = 1 << 0
	BufferUsageCopySrc BufferUsage = 1 << 2
	BufferUsageCopyDst BufferUsage = 1 << 3
	BufferUsageUniform BufferUsage = 1 << 6
	BufferUsageStorage BufferUsage = 1 << 7
)

// TextureFormat specifies the format of texture data.
type TextureFormat uint32

// Texture formats.
const (
	// TextureFormatRGBA8Unorm is 8-bit RGBA, normalized unsigned integer.
	// It is the only format the engine stores frames in.
	TextureFormatRGBA8Unorm TextureFormat = iota + 1
)

// BytesPerPixel returns the texel size of the format in bytes.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case TextureFormatRGBA8Unorm:
		return 4
	default:
		return 0
	}
}

// TextureUsage is a bitmask specifying how a texture will be used.
type TextureUsage uint32

// Texture usage flags, matching GPUTextureUsage.
const (
	TextureUsageCopySrc        TextureUsage = 1 << 0
	TextureUsageCopyDst        TextureUsage = 1 << 1
	TextureUsageStorageBinding TextureUsage = 1 << 3
)

// BindingType specifies the type of a shader binding.
type BindingType uint32

// Binding types used by the engine's stages.
const (
	BindingTypeUniformBuffer BindingType = iota + 1
	BindingTypeStorageTexture
)

// StorageAccess is the shader access mode of a storage texture binding.
type StorageAccess uint32

// Storage texture access modes. The values mirror WGSL's access keywords.
const (
	StorageAccessRead StorageAccess = iota + 1
	StorageAccessWrite
	StorageAccessReadWrite
)

// String returns the WGSL spelling of the access mode.
func (a StorageAccess) String() string {
	switch a {
	case StorageAccessRead:
		return "read"
	case StorageAccessWrite:
		return "write"
	case StorageAccessReadWrite:
		return "read_write"
	default:
		return "unknown"
	}
}

// TextureDesc describes a 2D texture.
type TextureDesc struct {
	Label  string
	Width  int
	Height int
	Format TextureFormat
	Usage  TextureUsage
}

// ComputePipelineDesc describes a compute pipeline.
type ComputePipelineDesc struct {
	Label        string
	Layout       PipelineLayoutID
	ShaderModule ShaderModuleID
	EntryPoint   string
}

// BindGroupLayoutDesc describes a bind group layout. A layout without
// entries is valid.
type BindGroupLayoutDesc struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

// BindGroupLayoutEntry is one compute-visible binding.
type BindGroupLayoutEntry struct {
	Binding uint32
	Type    BindingType

	// Access applies to storage textures only.
	Access StorageAccess

	// MinBindingSize applies to buffers only; 0 skips the check.
	MinBindingSize uint64
}

// BindGroupEntry binds either a texture or a buffer range. Size 0 binds
// the rest of the buffer from Offset.
type BindGroupEntry struct {
	Binding uint32
	Texture TextureID
	Buffer  BufferID
	Offset  uint64
	Size    uint64
}

// BindGroupDesc describes a bind group.
type BindGroupDesc struct {
	Label   string
	Layout  BindGroupLayoutID
	Entries []BindGroupEntry
}

// TextureCopy describes a texture-to-buffer copy of a whole 2D texture.
type TextureCopy struct {
	Texture TextureID
	Buffer  BufferID

	// BytesPerRow is the padded row stride in the destination buffer.
	// Backends require it to be a multiple of CopyBytesPerRowAlignment.
	BytesPerRow uint32

	Width  uint32
	Height uint32
}

// CopyBytesPerRowAlignment is the row stride alignment required by
// texture-to-buffer copies.
const CopyBytesPerRowAlignment = 256

// Limits reports the device limits the engine depends on.
type Limits struct {
	// MaxBindGroups is the number of bind groups a pipeline layout may use.
	MaxBindGroups uint32

	// MaxBindingsPerGroup is the number of storage textures the engine will
	// place in one bind group.
	MaxBindingsPerGroup uint32

	// MaxTextureDimension2D bounds frame width and height.
	MaxTextureDimension2D uint32

	// MaxComputeWorkgroupsPerDimension bounds the dispatch grid.
	MaxComputeWorkgroupsPerDimension uint32
}

// RequiredBindGroups is the number of bind groups the differential stage
// uses: baseline, three history groups and the output group.
const RequiredBindGroups = 5

// DefaultLimits returns the limits every adapter in this module requests.
func DefaultLimits() Limits {
	return Limits{
		MaxBindGroups:                    RequiredBindGroups,
		MaxBindingsPerGroup:              4,
		MaxTextureDimension2D:            8192,
		MaxComputeWorkgroupsPerDimension: 65535,
	}
}
