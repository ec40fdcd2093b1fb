package asset

import (
	"github.com/Carmen-Shannon/vega-go/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// Texture is a GPU-resident texture: the texture object, its view, and the
// sampler it was imported with.
type Texture struct {
	Texture *wgpu.Texture
	View    *wgpu.TextureView
	Sampler SamplerHandle

	Width  uint32
	Height uint32
	Format wgpu.TextureFormat
}

// textureKey is the interning key for textures. Format is part of the key so
// the same source image can be imported once as color data (sRGB) and once
// as linear data without collision.
type textureKey struct {
	key    string
	format wgpu.TextureFormat
}

// samplerStaging maps imported wrap/filter modes to wgpu sampler state.
// Nearest-mipmap variants select nearest for both minification and mipmap
// level; a plain linear/nearest min filter carries no mipmap information and
// pairs with a nearest mipmap filter, since imported textures have one mip
// level anyway.
//
// Parameters:
//   - imported: the imported sampler description.
//
// Returns:
//   - common.SamplerStagingData: the wgpu-native sampler configuration.
func samplerStaging(imported *common.ImportedSampler) common.SamplerStagingData {
	staging := common.SamplerStagingData{
		AddressModeU: samplerAddressMode(imported.WrapS),
		AddressModeV: samplerAddressMode(imported.WrapT),
		AddressModeW: wgpu.AddressModeRepeat,
		MagFilter:    wgpu.FilterModeLinear,
		MinFilter:    wgpu.FilterModeLinear,
		MipmapFilter: wgpu.MipmapFilterModeNearest,
	}

	if imported.MagFilter == common.SamplerFilterNearest {
		staging.MagFilter = wgpu.FilterModeNearest
	}

	switch imported.MinFilter {
	case common.SamplerFilterNearest:
		staging.MinFilter = wgpu.FilterModeNearest
	case common.SamplerFilterNearestMipmapNearest:
		staging.MinFilter = wgpu.FilterModeNearest
		staging.MipmapFilter = wgpu.MipmapFilterModeNearest
	case common.SamplerFilterLinearMipmapNearest:
		staging.MinFilter = wgpu.FilterModeLinear
		staging.MipmapFilter = wgpu.MipmapFilterModeNearest
	case common.SamplerFilterNearestMipmapLinear:
		staging.MinFilter = wgpu.FilterModeNearest
		staging.MipmapFilter = wgpu.MipmapFilterModeLinear
	case common.SamplerFilterLinearMipmapLinear:
		staging.MinFilter = wgpu.FilterModeLinear
		staging.MipmapFilter = wgpu.MipmapFilterModeLinear
	}

	return staging
}

func samplerAddressMode(wrap common.SamplerWrap) wgpu.AddressMode {
	switch wrap {
	case common.SamplerWrapClampToEdge:
		return wgpu.AddressModeClampToEdge
	case common.SamplerWrapMirroredRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeRepeat
	}
}
