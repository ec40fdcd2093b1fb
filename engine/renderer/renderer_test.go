package renderer

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/Carmen-Shannon/vega-go/common"
	"github.com/Carmen-Shannon/vega-go/engine/asset"
	"github.com/Carmen-Shannon/vega-go/engine/camera"
	"github.com/Carmen-Shannon/vega-go/engine/light"
	"github.com/Carmen-Shannon/vega-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/vega-go/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type boundGroup struct {
	index    uint32
	provider bind_group_provider.BindGroupProvider
	offsets  []uint32
}

type drawCall struct {
	indexCount uint32
	firstIndex uint32
	baseVertex int32
}

// fakeRendererBackend records every backend call so frame policy and draw
// ordering can be asserted without a GPU device. BeginFrame pops statuses
// from beginStatuses, defaulting to FrameStatusOK when exhausted.
type fakeRendererBackend struct {
	beginStatuses []FrameStatus

	configureCalls [][2]int
	writes         []bind_group_provider.BufferWrite
	pipelineBinds  []pipeline.Pipeline
	groupBinds     []boundGroup
	meshBinds      int
	draws          []drawCall
	endFrames      int
	presents       int
	released       bool
}

var _ RendererBackend = &fakeRendererBackend{}

func (f *fakeRendererBackend) Device() *wgpu.Device { return nil }

func (f *fakeRendererBackend) Queue() *wgpu.Queue { return nil }

func (f *fakeRendererBackend) ConfigureSurface(width, height int) {
	f.configureCalls = append(f.configureCalls, [2]int{width, height})
}

func (f *fakeRendererBackend) SetPresentMode(mode PresentMode) {}

func (f *fakeRendererBackend) RegisterRenderPipeline(p pipeline.Pipeline, groupLayouts []*wgpu.BindGroupLayout) error {
	return nil
}

func (f *fakeRendererBackend) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	return nil
}

func (f *fakeRendererBackend) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	f.writes = append(f.writes, writes...)
}

func (f *fakeRendererBackend) BeginFrame() FrameStatus {
	if len(f.beginStatuses) == 0 {
		return FrameStatusOK
	}
	status := f.beginStatuses[0]
	f.beginStatuses = f.beginStatuses[1:]
	return status
}

func (f *fakeRendererBackend) BindPipeline(p pipeline.Pipeline) {
	f.pipelineBinds = append(f.pipelineBinds, p)
}

func (f *fakeRendererBackend) BindGroup(index uint32, provider bind_group_provider.BindGroupProvider, dynamicOffsets []uint32) {
	f.groupBinds = append(f.groupBinds, boundGroup{index: index, provider: provider, offsets: dynamicOffsets})
}

func (f *fakeRendererBackend) BindMesh(vertexBuffer, indexBuffer *wgpu.Buffer, format wgpu.IndexFormat) {
	f.meshBinds++
}

func (f *fakeRendererBackend) DrawIndexed(indexCount, firstIndex uint32, baseVertex int32) {
	f.draws = append(f.draws, drawCall{indexCount: indexCount, firstIndex: firstIndex, baseVertex: baseVertex})
}

func (f *fakeRendererBackend) EndFrame() { f.endFrames++ }

func (f *fakeRendererBackend) Present() { f.presents++ }

func (f *fakeRendererBackend) Release() { f.released = true }

// writesTo filters recorded writes down to one provider binding.
func (f *fakeRendererBackend) writesTo(provider bind_group_provider.BindGroupProvider, binding int) []bind_group_provider.BufferWrite {
	var out []bind_group_provider.BufferWrite
	for _, w := range f.writes {
		if w.Provider == provider && w.Binding == binding {
			out = append(out, w)
		}
	}
	return out
}

// fakeAssetManager resolves mesh handles from an in-memory map; everything
// else is inert.
type fakeAssetManager struct {
	meshes map[asset.MeshHandle]*asset.Mesh

	released bool
}

var _ asset.Manager = &fakeAssetManager{}

func (f *fakeAssetManager) GetOrCreateMesh(key string) (asset.MeshHandle, error) {
	return asset.MeshHandle{}, errors.New("not supported")
}

func (f *fakeAssetManager) GetOrCreateMaterial(key string) (asset.MaterialHandle, error) {
	return asset.MaterialHandle{}, errors.New("not supported")
}

func (f *fakeAssetManager) GetOrCreateTexture(key string, format wgpu.TextureFormat) (asset.TextureHandle, error) {
	return asset.TextureHandle{}, errors.New("not supported")
}

func (f *fakeAssetManager) GetOrCreateSampler(key string) (asset.SamplerHandle, error) {
	return asset.SamplerHandle{}, errors.New("not supported")
}

func (f *fakeAssetManager) Mesh(handle asset.MeshHandle) (*asset.Mesh, bool) {
	mesh, ok := f.meshes[handle]
	return mesh, ok
}

func (f *fakeAssetManager) Texture(handle asset.TextureHandle) (*asset.Texture, bool) {
	return nil, false
}

func (f *fakeAssetManager) Sampler(handle asset.SamplerHandle) (*wgpu.Sampler, bool) {
	return nil, false
}

func (f *fakeAssetManager) RewriteMesh(handle asset.MeshHandle, primitives []common.ImportedPrimitive) error {
	return errors.New("not supported")
}

func (f *fakeAssetManager) SetMaterial(handle asset.MeshHandle, primitiveIndex int, material asset.MaterialHandle) error {
	return errors.New("not supported")
}

func (f *fakeAssetManager) ReleaseMesh(handle asset.MeshHandle) error { return nil }

func (f *fakeAssetManager) Preload(keys ...string) error { return nil }

func (f *fakeAssetManager) DefaultMaterial() asset.MaterialHandle { return asset.MaterialHandle{} }

func (f *fakeAssetManager) MaterialBuffer() *wgpu.Buffer { return nil }

func (f *fakeAssetManager) Release() { f.released = true }

// fakeWindow satisfies the window interface with fixed dimensions and no
// platform backing.
type fakeWindow struct {
	width  int
	height int
}

func (f *fakeWindow) SetResizeCallback(callback func(width, height int)) {}

func (f *fakeWindow) SetScrollCallback(callback func(delta float32)) {}

func (f *fakeWindow) SetKeyDownCallback(callback func(keyCode uint32)) {}

func (f *fakeWindow) SetKeyUpCallback(callback func(keyCode uint32)) {}

func (f *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }

func (f *fakeWindow) IsRunning() bool { return true }

func (f *fakeWindow) Close() error { return nil }

func (f *fakeWindow) ProcessMessages() {}

func (f *fakeWindow) Width() int { return f.width }

func (f *fakeWindow) Height() int { return f.height }

func newTestRenderer(t *testing.T) (*renderer, *fakeRendererBackend, *fakeAssetManager) {
	t.Helper()
	backend := &fakeRendererBackend{}
	assets := &fakeAssetManager{meshes: map[asset.MeshHandle]*asset.Mesh{}}
	rend, err := NewRenderer(BackendTypeWGPU, &fakeWindow{width: 800, height: 600},
		WithBackend(backend),
		WithAssetManager(assets),
	)
	require.NoError(t, err)
	return rend.(*renderer), backend, assets
}

func testMesh(ranges ...asset.PrimitiveRange) *asset.Mesh {
	return &asset.Mesh{
		IndexFormat: wgpu.IndexFormatUint16,
		Ranges:      ranges,
	}
}

func TestNewRendererPrefillsMaterialIDTable(t *testing.T) {
	r, backend, _ := newTestRenderer(t)

	require.Equal(t, [][2]int{{800, 600}}, backend.configureCalls)

	writes := backend.writesTo(r.materialIDProvider, 0)
	require.Len(t, writes, 1)
	require.Len(t, writes[0].Data, asset.MaxMaterials*asset.MaterialIDStride)

	// Each slot's record starts with its own index.
	for _, slot := range []uint32{0, 1, 5, asset.MaxMaterials - 1} {
		got := binary.LittleEndian.Uint32(writes[0].Data[slot*asset.MaterialIDStride:])
		assert.Equal(t, slot, got)
	}
}

func TestRenderDrawsPrimitiveRanges(t *testing.T) {
	r, backend, assets := newTestRenderer(t)

	handle := asset.MeshHandle{Handle: asset.Handle{Index: 0, Generation: 1}}
	assets.meshes[handle] = testMesh(
		asset.PrimitiveRange{FirstIndex: 0, IndexCount: 36, BaseVertex: 0, Material: asset.MaterialHandle{Slot: 3}},
		asset.PrimitiveRange{FirstIndex: 36, IndexCount: 12, BaseVertex: 24, Material: asset.MaterialHandle{Slot: 7}},
	)

	cam := camera.NewCamera()
	r.Render([]light.Light{light.NewLight(light.LightTypePoint)}, cam, []DrawCommand{{Mesh: handle}})

	require.Len(t, backend.pipelineBinds, 1)
	assert.Same(t, r.forward, backend.pipelineBinds[0])

	require.Len(t, backend.groupBinds, 5)
	assert.Equal(t, boundGroup{index: 0, provider: r.cameraProvider}, backend.groupBinds[0])
	assert.Equal(t, boundGroup{index: 1, provider: r.lightProvider}, backend.groupBinds[1])
	assert.Equal(t, boundGroup{index: 2, provider: r.materialProvider}, backend.groupBinds[2])
	assert.Equal(t, boundGroup{index: 3, provider: r.materialIDProvider, offsets: []uint32{3 * asset.MaterialIDStride}}, backend.groupBinds[3])
	assert.Equal(t, boundGroup{index: 3, provider: r.materialIDProvider, offsets: []uint32{7 * asset.MaterialIDStride}}, backend.groupBinds[4])

	assert.Equal(t, 1, backend.meshBinds)
	require.Len(t, backend.draws, 2)
	assert.Equal(t, drawCall{indexCount: 36, firstIndex: 0, baseVertex: 0}, backend.draws[0])
	assert.Equal(t, drawCall{indexCount: 12, firstIndex: 36, baseVertex: 24}, backend.draws[1])

	assert.Equal(t, 1, backend.endFrames)
	assert.Equal(t, 1, backend.presents)
}

func TestRenderUploadsCameraAndAspect(t *testing.T) {
	r, backend, _ := newTestRenderer(t)

	cam := camera.NewCamera()
	r.Render(nil, cam, nil)

	assert.InDelta(t, float32(800)/float32(600), cam.Aspect(), 1e-6)

	writes := backend.writesTo(r.cameraProvider, 0)
	require.Len(t, writes, 1)
	assert.Equal(t, cam.Uniform().Marshal(), writes[0].Data)
}

func TestRenderClampsLights(t *testing.T) {
	r, backend, _ := newTestRenderer(t)

	lights := make([]light.Light, light.MaxGPULights+4)
	for i := range lights {
		lights[i] = light.NewLight(light.LightTypePoint)
	}
	r.Render(lights, camera.NewCamera(), nil)

	bufferWrites := backend.writesTo(r.lightProvider, 0)
	require.Len(t, bufferWrites, 1)
	assert.Len(t, bufferWrites[0].Data, light.MaxGPULights*(&light.GPULight{}).Size())

	paramWrites := backend.writesTo(r.lightProvider, 1)
	require.Len(t, paramWrites, 1)
	count := binary.LittleEndian.Uint32(paramWrites[0].Data)
	assert.Equal(t, uint32(light.MaxGPULights), count)
}

func TestRenderSurfaceLostReconfiguresAndDropsFrame(t *testing.T) {
	r, backend, _ := newTestRenderer(t)
	backend.beginStatuses = []FrameStatus{FrameStatusSurfaceLost}

	cam := camera.NewCamera()
	r.Render(nil, cam, nil)

	// One configure from construction plus the recovery reconfigure.
	require.Equal(t, [][2]int{{800, 600}, {800, 600}}, backend.configureCalls)
	assert.Empty(t, backend.draws)
	assert.Zero(t, backend.presents)

	// The camera uniform still went up before acquisition failed.
	assert.Len(t, backend.writesTo(r.cameraProvider, 0), 1)

	// The renderer recovers: the next frame draws normally.
	r.Render(nil, cam, nil)
	assert.Equal(t, 1, backend.presents)
}

func TestRenderSkipDropsFrameQuietly(t *testing.T) {
	r, backend, _ := newTestRenderer(t)
	backend.beginStatuses = []FrameStatus{FrameStatusSkip}

	r.Render(nil, camera.NewCamera(), nil)

	require.Len(t, backend.configureCalls, 1) // construction only
	assert.Empty(t, backend.draws)
	assert.Zero(t, backend.endFrames)
	assert.Zero(t, backend.presents)
	assert.Equal(t, stateReady, r.state)
}

func TestRenderOutOfMemoryTerminates(t *testing.T) {
	r, backend, _ := newTestRenderer(t)
	backend.beginStatuses = []FrameStatus{FrameStatusOutOfMemory}

	exitCode := -1
	r.exit = func(code int) { exitCode = code }

	r.Render(nil, camera.NewCamera(), nil)

	assert.Equal(t, 1, exitCode)
	assert.Zero(t, backend.presents)
}

func TestRenderSkipsUnknownMeshHandle(t *testing.T) {
	r, backend, _ := newTestRenderer(t)

	stale := asset.MeshHandle{Handle: asset.Handle{Index: 9, Generation: 2}}
	r.Render(nil, camera.NewCamera(), []DrawCommand{{Mesh: stale}})

	assert.Zero(t, backend.meshBinds)
	assert.Empty(t, backend.draws)

	// The frame itself still completes.
	assert.Equal(t, 1, backend.endFrames)
	assert.Equal(t, 1, backend.presents)
}

func TestResizeZeroDimensionIgnored(t *testing.T) {
	r, backend, _ := newTestRenderer(t)

	r.Resize(0, 600)
	r.Resize(800, 0)

	require.Len(t, backend.configureCalls, 1) // construction only
	assert.Equal(t, 800, r.width)
	assert.Equal(t, 600, r.height)
}

func TestResizeReconfiguresAndReuploadsCamera(t *testing.T) {
	r, backend, _ := newTestRenderer(t)

	cam := camera.NewCamera()
	r.Render(nil, cam, nil)
	backend.writes = nil

	r.Resize(400, 200)

	assert.Equal(t, [2]int{400, 200}, backend.configureCalls[len(backend.configureCalls)-1])
	assert.InDelta(t, float32(2), cam.Aspect(), 1e-6)

	writes := backend.writesTo(r.cameraProvider, 0)
	require.Len(t, writes, 1)
	assert.Equal(t, cam.Uniform().Marshal(), writes[0].Data)
}

func TestReleaseTearsDownBackendAndAssets(t *testing.T) {
	r, backend, assets := newTestRenderer(t)

	r.Release()

	assert.True(t, backend.released)
	assert.True(t, assets.released)
	assert.Equal(t, stateUninitialized, r.state)

	// Render after release is a no-op.
	r.Render(nil, camera.NewCamera(), nil)
	assert.Zero(t, backend.presents)
}

func TestClassifyAcquireError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FrameStatus
	}{
		{"out of memory", errors.New("Surface error: OutOfMemory"), FrameStatusOutOfMemory},
		{"lost", errors.New("Surface error: Lost"), FrameStatusSurfaceLost},
		{"outdated", errors.New("the surface is outdated"), FrameStatusSurfaceLost},
		{"timeout", errors.New("Surface error: Timeout"), FrameStatusSkip},
		{"unknown", errors.New("something else"), FrameStatusSkip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyAcquireError(tt.err))
		})
	}
}
