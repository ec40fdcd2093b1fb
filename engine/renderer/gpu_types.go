package renderer

import (
	_ "embed"

	"github.com/Carmen-Shannon/vega-go/engine/asset"
	"github.com/Carmen-Shannon/vega-go/engine/camera"
	"github.com/Carmen-Shannon/vega-go/engine/light"
	"github.com/cogentcore/webgpu/wgpu"
)

// Bind group indices for the forward pass. These match the @group attributes
// in ForwardShaderSource and are bound once per frame except the material-index
// group, which is rebound per primitive range with a dynamic offset.
const (
	bindGroupCamera     = 0
	bindGroupLights     = 1
	bindGroupMaterials  = 2
	bindGroupMaterialID = 3
)

// ForwardShaderSource is the WGSL module for the single forward pipeline,
// containing both the vertex and fragment entry points.
//
//go:embed assets/forward.wgsl
var ForwardShaderSource string

// forwardVertexLayout describes the interleaved vertex format produced by the
// asset mesh builder: position, normal, uv at 32 bytes per vertex.
func forwardVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: asset.VertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
		},
	}
}

// cameraBindGroupLayout is the group 0 layout: one uniform buffer holding the
// per-frame camera record.
func cameraBindGroupLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "Camera Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uint64((&camera.GPUCameraUniform{}).Size()),
				},
			},
		},
	}
}

// lightBindGroupLayout is the group 1 layout: the fixed-capacity light array as
// read-only storage plus the per-frame params record carrying the light count.
func lightBindGroupLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "Light Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeReadOnlyStorage,
					MinBindingSize: uint64((&light.GPULight{}).Size()),
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uint64((&light.GPULightParams{}).Size()),
				},
			},
		},
	}
}

// materialBindGroupLayout is the group 2 layout: the shared material record
// table owned by the asset manager, bound as read-only storage.
func materialBindGroupLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "Material Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeReadOnlyStorage,
					MinBindingSize: asset.MaterialUniformStride,
				},
			},
		},
	}
}

// materialIDBindGroupLayout is the group 3 layout: one shared uniform buffer of
// pre-filled material-index records selected per draw via a dynamic offset of
// slot * asset.MaterialIDStride.
func materialIDBindGroupLayout() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "Material ID Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeUniform,
					HasDynamicOffset: true,
					MinBindingSize:   asset.MaterialIDStride,
				},
			},
		},
	}
}
