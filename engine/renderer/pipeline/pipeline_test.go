package pipeline

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("forward")

	assert.Equal(t, "forward", p.PipelineKey())
	assert.Equal(t, "vs_main", p.VertexEntryPoint())
	assert.Equal(t, "fs_main", p.FragmentEntryPoint())
	assert.True(t, p.DepthTestEnabled())
	assert.True(t, p.DepthWriteEnabled())
	assert.False(t, p.BlendEnabled())
	assert.Equal(t, wgpu.CullModeNone, p.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())
	assert.Equal(t, wgpu.FrontFaceCCW, p.FrontFace())
	assert.Equal(t, wgpu.ColorWriteMaskAll, p.WriteMask())
	assert.Nil(t, p.RenderPipeline())
}

func TestNewPipelineOptions(t *testing.T) {
	layout := wgpu.VertexBufferLayout{ArrayStride: 32}
	p := NewPipeline("ui",
		WithSource("@vertex fn vert() {}"),
		WithEntryPoints("vert", "frag"),
		WithVertexLayouts(layout),
		WithDepthTest(false),
		WithDepthWrite(false),
		WithBlend(true),
		WithCullMode(wgpu.CullModeBack),
	)

	assert.Equal(t, "@vertex fn vert() {}", p.Source())
	assert.Equal(t, "vert", p.VertexEntryPoint())
	assert.Equal(t, "frag", p.FragmentEntryPoint())
	assert.Equal(t, []wgpu.VertexBufferLayout{layout}, p.VertexLayouts())
	assert.False(t, p.DepthTestEnabled())
	assert.False(t, p.DepthWriteEnabled())
	assert.True(t, p.BlendEnabled())
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())

	// Default blend state is standard alpha blending.
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, p.BlendState().Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOneMinusSrcAlpha, p.BlendState().Color.DstFactor)
}
