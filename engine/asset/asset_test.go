package asset

import (
	"fmt"
	"image/color"
	"testing"

	"github.com/Carmen-Shannon/vega-go/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestManager wires a manager over a fake backend and fake loader.
func newTestManager(t *testing.T) (*manager, *fakeBackend, *fakeLoader) {
	t.Helper()
	backend := newFakeBackend()
	ldr := newFakeLoader()
	mgr, err := NewManager(backend, WithLoader(ldr), WithPreloadWorkers(2))
	require.NoError(t, err)
	return mgr.(*manager), backend, ldr
}

func TestNewManagerBuiltins(t *testing.T) {
	mgr, backend, _ := newTestManager(t)

	// Default sampler plus the three dummy textures.
	require.Len(t, backend.samplers, 1)
	require.Len(t, backend.textures, 3)
	assert.Equal(t, wgpu.TextureFormatRGBA8UnormSrgb, backend.textures[0].format)
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, backend.textures[1].format)
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, backend.textures[2].format)

	// Slot 0 is pre-populated with the default material record.
	writes := backend.writesTo(mgr.materialBuffer)
	require.Len(t, writes, 1)
	assert.Equal(t, uint64(0), writes[0].offset)
	assert.Len(t, writes[0].data, MaterialUniformStride)

	assert.Equal(t, MaterialHandle{Slot: 0}, mgr.DefaultMaterial())
}

func TestGetOrCreateMeshIdempotent(t *testing.T) {
	mgr, backend, ldr := newTestManager(t)
	ldr.meshes["scene.gltf#0"] = []common.ImportedPrimitive{trianglePrimitive("")}

	h1, err := mgr.GetOrCreateMesh("scene.gltf#0")
	require.NoError(t, err)
	h2, err := mgr.GetOrCreateMesh("scene.gltf#0")
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Equal(t, 1, ldr.meshLoads)
	assert.Len(t, backend.vertexBuffers, 1)
	assert.Len(t, backend.indexBuffers, 1)
}

func TestGetOrCreateMeshTwoPrimitives(t *testing.T) {
	mgr, _, ldr := newTestManager(t)
	ldr.meshes["cube.gltf#Cube"] = []common.ImportedPrimitive{
		{
			Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
			Indices:   []uint32{0, 1, 2, 2, 1, 3},
		},
		{
			Positions: [][3]float32{{0, 0, 1}, {1, 0, 1}, {0, 1, 1}},
			Indices:   []uint32{0, 1, 2},
		},
	}

	handle, err := mgr.GetOrCreateMesh("cube.gltf#Cube")
	require.NoError(t, err)

	mesh, ok := mgr.Mesh(handle)
	require.True(t, ok)
	assert.Equal(t, 7, mesh.VertexCount)
	require.Len(t, mesh.Ranges, 2)
	assert.Equal(t, int32(0), mesh.Ranges[0].BaseVertex)
	assert.Equal(t, int32(4), mesh.Ranges[1].BaseVertex)
	assert.Equal(t, wgpu.IndexFormatUint16, mesh.IndexFormat)

	// No material references resolve to the default slot.
	assert.Equal(t, mgr.DefaultMaterial(), mesh.Ranges[0].Material)
	assert.Equal(t, mgr.DefaultMaterial(), mesh.Ranges[1].Material)
}

func TestGetOrCreateMaterial(t *testing.T) {
	mgr, backend, ldr := newTestManager(t)
	ldr.materials["scene.gltf#0"] = &common.ImportedMaterial{
		Name:        "painted",
		BaseColor:   [4]float32{1, 0, 0, 1},
		Metallic:    0.5,
		Roughness:   0.5,
		AlphaCutoff: 0.5,
	}

	h1, err := mgr.GetOrCreateMaterial("scene.gltf#0")
	require.NoError(t, err)
	h2, err := mgr.GetOrCreateMaterial("scene.gltf#0")
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Equal(t, uint32(1), h1.Slot)
	assert.Equal(t, 1, ldr.materialLoads)

	// One record written at slot * stride, after the slot 0 default.
	writes := backend.writesTo(mgr.materialBuffer)
	require.Len(t, writes, 2)
	assert.Equal(t, uint64(MaterialUniformStride), writes[1].offset)
}

func TestMaterialSlotsNeverReused(t *testing.T) {
	mgr, _, ldr := newTestManager(t)

	seen := make(map[uint32]bool)
	for i := 0; i < 10; i++ {
		key := fmt.Sprintf("scene.gltf#%d", i)
		ldr.materials[key] = &common.ImportedMaterial{BaseColor: [4]float32{1, 1, 1, 1}}
		handle, err := mgr.GetOrCreateMaterial(key)
		require.NoError(t, err)
		assert.False(t, seen[handle.Slot], "slot %d handed out twice", handle.Slot)
		assert.NotZero(t, handle.Slot)
		seen[handle.Slot] = true
	}
}

func TestMaterialSlotExhaustion(t *testing.T) {
	mgr, _, ldr := newTestManager(t)

	for i := 0; i < MaxMaterials-1; i++ {
		key := fmt.Sprintf("scene.gltf#%d", i)
		ldr.materials[key] = &common.ImportedMaterial{}
		_, err := mgr.GetOrCreateMaterial(key)
		require.NoError(t, err)
	}

	ldr.materials["scene.gltf#overflow"] = &common.ImportedMaterial{}
	_, err := mgr.GetOrCreateMaterial("scene.gltf#overflow")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted")
}

func TestMaterialResolvesTextures(t *testing.T) {
	mgr, backend, ldr := newTestManager(t)
	ldr.textures["scene.gltf#0"] = &common.ImportedTexture{
		Data: pngPixel(color.RGBA{R: 255, A: 255}),
	}
	ldr.materials["scene.gltf#0"] = &common.ImportedMaterial{
		BaseColorTextureKey: "scene.gltf#0",
	}

	handle, err := mgr.GetOrCreateMaterial("scene.gltf#0")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), handle.Slot)

	// One more texture beyond the three dummies, imported as sRGB.
	require.Len(t, backend.textures, 4)
	assert.Equal(t, wgpu.TextureFormatRGBA8UnormSrgb, backend.textures[3].format)
}

func TestGetOrCreateTextureFormatKeying(t *testing.T) {
	mgr, backend, ldr := newTestManager(t)
	ldr.textures["scene.gltf#0"] = &common.ImportedTexture{
		Data: pngPixel(color.RGBA{R: 10, G: 20, B: 30, A: 255}),
	}

	srgb, err := mgr.GetOrCreateTexture("scene.gltf#0", wgpu.TextureFormatRGBA8UnormSrgb)
	require.NoError(t, err)
	linear, err := mgr.GetOrCreateTexture("scene.gltf#0", wgpu.TextureFormatRGBA8Unorm)
	require.NoError(t, err)
	srgbAgain, err := mgr.GetOrCreateTexture("scene.gltf#0", wgpu.TextureFormatRGBA8UnormSrgb)
	require.NoError(t, err)

	// Same source under two formats is two textures; repeat lookups hit the cache.
	assert.NotEqual(t, srgb, linear)
	assert.Equal(t, srgb, srgbAgain)
	assert.Len(t, backend.textures, 5)
	assert.Equal(t, 2, ldr.textureLoads)
}

func TestTextureResolvesSampler(t *testing.T) {
	mgr, backend, ldr := newTestManager(t)
	ldr.samplers["scene.gltf#0"] = &common.ImportedSampler{
		MagFilter: common.SamplerFilterNearest,
	}
	ldr.textures["scene.gltf#0"] = &common.ImportedTexture{
		Data:       pngPixel(color.RGBA{A: 255}),
		SamplerKey: "scene.gltf#0",
	}

	handle, err := mgr.GetOrCreateTexture("scene.gltf#0", wgpu.TextureFormatRGBA8UnormSrgb)
	require.NoError(t, err)

	tex, ok := mgr.Texture(handle)
	require.True(t, ok)
	assert.NotEqual(t, mgr.defaultSampler, tex.Sampler)

	// Default + the imported one.
	require.Len(t, backend.samplers, 2)
	assert.Equal(t, wgpu.FilterModeNearest, backend.samplers[1].MagFilter)
}

func TestGetOrCreateSamplerIdempotent(t *testing.T) {
	mgr, backend, ldr := newTestManager(t)
	ldr.samplers["scene.gltf#0"] = &common.ImportedSampler{}

	h1, err := mgr.GetOrCreateSampler("scene.gltf#0")
	require.NoError(t, err)
	h2, err := mgr.GetOrCreateSampler("scene.gltf#0")
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Equal(t, 1, ldr.samplerLoads)
	assert.Len(t, backend.samplers, 2)
}

func TestRewriteMesh(t *testing.T) {
	mgr, backend, ldr := newTestManager(t)
	ldr.meshes["scene.gltf#0"] = []common.ImportedPrimitive{trianglePrimitive("")}

	handle, err := mgr.GetOrCreateMesh("scene.gltf#0")
	require.NoError(t, err)
	mesh, ok := mgr.Mesh(handle)
	require.True(t, ok)

	vertexWrites := len(backend.writesTo(mesh.VertexBuffer))

	// Same counts rewrite in place.
	moved := trianglePrimitive("")
	moved.Positions = [][3]float32{{5, 5, 5}, {6, 5, 5}, {5, 6, 5}}
	require.NoError(t, mgr.RewriteMesh(handle, []common.ImportedPrimitive{moved}))
	assert.Len(t, backend.writesTo(mesh.VertexBuffer), vertexWrites+1)
	assert.Len(t, backend.vertexBuffers, 1, "rewrite must not allocate")

	mesh, ok = mgr.Mesh(handle)
	require.True(t, ok)
	assert.Equal(t, [3]float32{5, 5, 5}, mesh.Bounds.Min)

	// A count mismatch is a hard error.
	bigger := []common.ImportedPrimitive{
		{
			Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
			Indices:   []uint32{0, 1, 2, 2, 1, 3},
		},
	}
	err = mgr.RewriteMesh(handle, bigger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}

func TestRewriteMeshMaterialFailureLeavesMeshIntact(t *testing.T) {
	mgr, backend, ldr := newTestManager(t)
	ldr.meshes["scene.gltf#0"] = []common.ImportedPrimitive{trianglePrimitive("")}

	handle, err := mgr.GetOrCreateMesh("scene.gltf#0")
	require.NoError(t, err)
	mesh, ok := mgr.Mesh(handle)
	require.True(t, ok)

	beforeRanges := append([]PrimitiveRange(nil), mesh.Ranges...)
	beforeBounds := mesh.Bounds
	vertexWrites := len(backend.writesTo(mesh.VertexBuffer))
	indexWrites := len(backend.writesTo(mesh.IndexBuffer))

	// The new primitive references a material the loader cannot serve; the
	// rewrite must fail before any buffer write or range replacement.
	moved := trianglePrimitive("scene.gltf#missing")
	moved.Positions = [][3]float32{{5, 5, 5}, {6, 5, 5}, {5, 6, 5}}
	err = mgr.RewriteMesh(handle, []common.ImportedPrimitive{moved})
	require.Error(t, err)

	assert.Len(t, backend.writesTo(mesh.VertexBuffer), vertexWrites)
	assert.Len(t, backend.writesTo(mesh.IndexBuffer), indexWrites)

	mesh, ok = mgr.Mesh(handle)
	require.True(t, ok)
	assert.Equal(t, beforeRanges, mesh.Ranges)
	assert.Equal(t, beforeBounds, mesh.Bounds)
}

func TestSetMaterial(t *testing.T) {
	mgr, _, ldr := newTestManager(t)
	ldr.meshes["scene.gltf#0"] = []common.ImportedPrimitive{trianglePrimitive("")}
	ldr.materials["scene.gltf#1"] = &common.ImportedMaterial{}

	handle, err := mgr.GetOrCreateMesh("scene.gltf#0")
	require.NoError(t, err)
	material, err := mgr.GetOrCreateMaterial("scene.gltf#1")
	require.NoError(t, err)

	require.NoError(t, mgr.SetMaterial(handle, 0, material))
	mesh, ok := mgr.Mesh(handle)
	require.True(t, ok)
	assert.Equal(t, material, mesh.Ranges[0].Material)

	assert.Error(t, mgr.SetMaterial(handle, 1, material))
	assert.Error(t, mgr.SetMaterial(handle, -1, material))
	assert.Error(t, mgr.SetMaterial(MeshHandle{}, 0, material))
}

func TestReleaseMeshInvalidatesHandle(t *testing.T) {
	mgr, _, ldr := newTestManager(t)
	ldr.meshes["scene.gltf#0"] = []common.ImportedPrimitive{trianglePrimitive("")}

	handle, err := mgr.GetOrCreateMesh("scene.gltf#0")
	require.NoError(t, err)
	require.NoError(t, mgr.ReleaseMesh(handle))

	_, ok := mgr.Mesh(handle)
	assert.False(t, ok)
	assert.Error(t, mgr.ReleaseMesh(handle))

	// The key can be imported again and yields a distinct handle.
	again, err := mgr.GetOrCreateMesh("scene.gltf#0")
	require.NoError(t, err)
	assert.NotEqual(t, handle, again)
	assert.Equal(t, 2, ldr.meshLoads)
}

func TestMeshMaterialChain(t *testing.T) {
	mgr, _, ldr := newTestManager(t)
	ldr.materials["scene.gltf#3"] = &common.ImportedMaterial{Name: "chained"}
	ldr.meshes["scene.gltf#0"] = []common.ImportedPrimitive{trianglePrimitive("scene.gltf#3")}

	handle, err := mgr.GetOrCreateMesh("scene.gltf#0")
	require.NoError(t, err)

	mesh, ok := mgr.Mesh(handle)
	require.True(t, ok)
	assert.Equal(t, uint32(1), mesh.Ranges[0].Material.Slot)

	// The chained material is interned like a direct lookup.
	direct, err := mgr.GetOrCreateMaterial("scene.gltf#3")
	require.NoError(t, err)
	assert.Equal(t, mesh.Ranges[0].Material, direct)
	assert.Equal(t, 1, ldr.materialLoads)
}

func TestPreload(t *testing.T) {
	mgr, backend, ldr := newTestManager(t)
	ldr.meshes["a.gltf#0"] = []common.ImportedPrimitive{trianglePrimitive("")}
	ldr.meshes["b.gltf#0"] = []common.ImportedPrimitive{trianglePrimitive("")}

	require.NoError(t, mgr.Preload("a.gltf#0", "b.gltf#0"))
	assert.Len(t, backend.vertexBuffers, 2)
	assert.Equal(t, 2, ldr.meshLoads)

	// Preloaded keys are warm: lookup hits the cache with no further import.
	_, err := mgr.GetOrCreateMesh("a.gltf#0")
	require.NoError(t, err)
	assert.Equal(t, 2, ldr.meshLoads)

	// A failing key reports but does not block the rest.
	ldr.meshes["c.gltf#0"] = []common.ImportedPrimitive{trianglePrimitive("")}
	err = mgr.Preload("missing.gltf#0", "c.gltf#0")
	require.Error(t, err)
	_, err = mgr.GetOrCreateMesh("c.gltf#0")
	require.NoError(t, err)
	assert.Equal(t, 4, ldr.meshLoads)
}
