// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels. This is required to correctly create the GPU texture and interpret the pixel data.
	Width uint32
	// Height is the height of the texture in pixels. This is required to correctly create the GPU texture and interpret the pixel data.
	Height uint32
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// Compare specifies the comparison function for comparison samplers.
	Compare wgpu.CompareFunction
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

// SamplerFilter identifies a texture filtering mode as declared by a model file.
// Mipmapped variants carry both the minification filter and the mipmap level filter.
type SamplerFilter int

const (
	// SamplerFilterUndefined means the model file did not declare a filter.
	SamplerFilterUndefined SamplerFilter = iota
	SamplerFilterNearest
	SamplerFilterLinear
	SamplerFilterNearestMipmapNearest
	SamplerFilterLinearMipmapNearest
	SamplerFilterNearestMipmapLinear
	SamplerFilterLinearMipmapLinear
)

// SamplerWrap identifies a texture coordinate wrapping mode as declared by a model file.
type SamplerWrap int

const (
	// SamplerWrapUndefined means the model file did not declare a wrap mode.
	SamplerWrapUndefined SamplerWrap = iota
	SamplerWrapRepeat
	SamplerWrapClampToEdge
	SamplerWrapMirroredRepeat
)

// ImportedPrimitive represents one drawable sub-mesh extracted from a model file:
// a vertex/index subset plus an optional material reference. Attribute slices are
// parallel (Positions, Normals and UVs all have the same length).
type ImportedPrimitive struct {
	// Positions holds the vertex positions. Required, never empty.
	Positions [][3]float32

	// Normals holds per-vertex normals. Synthesized (+Y) when the file omits them.
	Normals [][3]float32

	// UVs holds per-vertex texture coordinates. Zeroed when the file omits them.
	UVs [][2]float32

	// Indices holds the triangle list indices, widened to 32 bits.
	// Synthesized as 0..n-1 when the file omits them.
	Indices []uint32

	// MaterialKey is the asset key ("path#materialIndex") of the primitive's
	// material, or empty when the primitive has no material reference.
	MaterialKey string
}

// VertexCount returns the number of vertices in the primitive.
//
// Returns:
//   - int: the vertex count
func (p *ImportedPrimitive) VertexCount() int {
	return len(p.Positions)
}

// ImportedMaterial represents material properties from an imported model file.
// Texture references are asset keys ("path#textureIndex") resolved later by the
// asset manager; empty keys mean the material does not use that texture slot.
type ImportedMaterial struct {
	// Name is the material identifier.
	Name string

	// BaseColor is the albedo/diffuse color factor (RGBA).
	BaseColor [4]float32

	// Emissive is the emissive color factor (RGB).
	Emissive [3]float32

	// Metallic factor (0.0 = dielectric, 1.0 = metal).
	Metallic float32

	// Roughness factor (0.0 = smooth, 1.0 = rough).
	Roughness float32

	// AlphaCutoff is the alpha mask threshold (meaningful when AlphaMask is set).
	AlphaCutoff float32

	// AlphaMask reports whether the material uses cutoff alpha testing.
	AlphaMask bool

	// DoubleSided disables backface culling for surfaces using this material.
	DoubleSided bool

	// BaseColorTextureKey references the albedo texture (sRGB).
	BaseColorTextureKey string

	// MetallicRoughnessTextureKey references the metallic-roughness texture (linear).
	MetallicRoughnessTextureKey string

	// NormalTextureKey references the normal map texture (linear).
	NormalTextureKey string

	// EmissiveTextureKey references the emissive texture (sRGB).
	EmissiveTextureKey string
}

// ImportedTexture represents texture data extracted from a model file.
// For embedded textures (buffer views, data URIs), the Data field contains raw
// image bytes. For external textures, the Path field contains the resolved file path.
type ImportedTexture struct {
	// Name is an identifier for this texture.
	Name string

	// Path is the file path for external textures (empty for embedded).
	Path string

	// Data contains raw image bytes for embedded textures (PNG/JPEG).
	Data []byte

	// MimeType indicates the image format (e.g., "image/png", "image/jpeg").
	MimeType string

	// SamplerKey is the asset key ("path#samplerIndex") of the sampler the
	// texture was declared with, or empty when the file declares none.
	SamplerKey string

	// Width is the texture width in pixels (populated after Decode).
	Width int

	// Height is the texture height in pixels (populated after Decode).
	Height int
}

// ImportedSampler carries the wrap/filter configuration a model file declared
// for a sampler, before mapping to native GPU modes.
type ImportedSampler struct {
	// Name is an identifier for this sampler.
	Name string

	// MagFilter is the magnification filter (never a mipmapped variant).
	MagFilter SamplerFilter

	// MinFilter is the minification filter, possibly a mipmapped variant.
	MinFilter SamplerFilter

	// WrapS is the wrapping mode for the U texture coordinate.
	WrapS SamplerWrap

	// WrapT is the wrapping mode for the V texture coordinate.
	WrapT SamplerWrap
}

// Decode decodes the texture to raw RGBA pixel data.
// Uses either embedded Data bytes or loads from Path on disk.
// Supports PNG and JPEG formats.
// Reference: https://pkg.go.dev/image
//
// Returns:
//   - []byte: raw RGBA pixel data (4 bytes per pixel, row-major order)
//   - uint32: texture width in pixels
//   - uint32: texture height in pixels
//   - error: error if decoding fails
func (t *ImportedTexture) Decode() ([]byte, uint32, uint32, error) {
	if t == nil {
		return nil, 0, 0, fmt.Errorf("texture is nil")
	}

	var img image.Image
	var err error

	if len(t.Data) > 0 {
		img, _, err = image.Decode(bytes.NewReader(t.Data))
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to decode embedded image: %w", err)
		}
	} else if t.Path != "" {
		file, fileErr := os.Open(t.Path)
		if fileErr != nil {
			return nil, 0, 0, fmt.Errorf("failed to open texture file %s: %w", t.Path, fileErr)
		}
		defer file.Close()

		img, _, err = image.Decode(file)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to decode texture file %s: %w", t.Path, err)
		}
	} else {
		return nil, 0, 0, fmt.Errorf("texture has neither data nor path")
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	t.Width = width
	t.Height = height

	return rgba.Pix, uint32(width), uint32(height), nil
}
