package renderer

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/Carmen-Shannon/vega-go/engine/asset"
	"github.com/Carmen-Shannon/vega-go/engine/camera"
	"github.com/Carmen-Shannon/vega-go/engine/light"
	"github.com/Carmen-Shannon/vega-go/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/vega-go/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/vega-go/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// rendererState tracks where the renderer is in its lifecycle. GPU resources
// only exist in stateReady and stateRendering; a renderer that failed to
// initialize never leaves stateUninitialized.
type rendererState int

const (
	stateUninitialized rendererState = iota
	stateReady
	stateRendering
)

// DrawCommand is one draw submission for a frame: a mesh handle resolved
// against the asset manager at draw time. Every primitive range within the
// mesh is drawn with its own material selected through the dynamic-offset
// material-index table.
type DrawCommand struct {
	Mesh asset.MeshHandle
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	assets  asset.Manager
	forward pipeline.Pipeline

	cameraProvider     bind_group_provider.BindGroupProvider
	lightProvider      bind_group_provider.BindGroupProvider
	materialProvider   bind_group_provider.BindGroupProvider
	materialIDProvider bind_group_provider.BindGroupProvider

	state         rendererState
	width, height int

	// lastCamera is the camera from the most recent Render call, re-uploaded
	// on resize with the recomputed aspect ratio.
	lastCamera camera.Camera

	// exit terminates the process on unrecoverable surface errors.
	exit func(code int)

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	assetOptions         []asset.ManagerBuilderOption
}

// Renderer defines the interface for the forward rendering system.
//
// The Renderer owns the frame lifecycle: it uploads camera and light state,
// acquires the swapchain target, binds the global resource tables, issues
// per-primitive draw calls with the correct dynamic material offset, and
// presents. Asset resolution goes through the Manager returned by Assets,
// which shares the backend's device and queue.
type Renderer interface {
	// Assets returns the asset manager owned by this renderer. All mesh,
	// material, texture, and sampler handles passed into Render must come
	// from this manager.
	//
	// Returns:
	//   - asset.Manager: the asset manager
	Assets() asset.Manager

	// Render draws one frame: uploads the camera uniform, clamps and uploads
	// the light list, acquires the swapchain target, then draws every command's
	// primitive ranges with their materials and presents.
	//
	// Frame acquisition failures never surface to the caller: a lost or
	// outdated surface is reconfigured and the frame dropped, out-of-memory
	// terminates the process, and transient failures skip the frame.
	//
	// Parameters:
	//   - lights: the lights for this frame; entries beyond light.MaxGPULights are dropped
	//   - cam: the camera whose view-projection and eye position are uploaded
	//   - commands: the draw submissions for this frame
	Render(lights []light.Light, cam camera.Camera, commands []DrawCommand)

	// Resize configures the underlying backend to handle a new surface size,
	// recreating the depth texture and re-uploading the last camera's uniform
	// with the recomputed aspect ratio. A zero width or height is ignored.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames
	// are delivered to the display. A call to Resize is required after changing
	// this for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// Release frees all GPU resources owned by the renderer, including the
	// asset manager's. The renderer cannot be used afterwards.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new forward Renderer drawing to the given window's surface.
// It bootstraps the GPU device through the selected backend, builds the asset
// manager on the shared device and queue, creates the frame-global bind groups
// (camera, lights, materials, material-index table), and registers the forward
// pipeline. The returned renderer is ready to render.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - win: the window providing the surface descriptor and initial dimensions
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new Renderer instance, nil on error
//   - error: an error if GPU resource creation fails
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		state:       stateUninitialized,
		exit:        os.Exit,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	if r.backend == nil {
		switch backendType {
		case BackendTypeWGPU:
			fallthrough
		default:
			r.backend = newWGPURendererBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter)
		}
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	r.width = win.Width()
	r.height = win.Height()
	r.backend.ConfigureSurface(r.width, r.height)

	if r.assets == nil {
		assets, err := asset.NewManager(asset.NewWGPUBackend(r.backend.Device(), r.backend.Queue()), r.assetOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to create asset manager: %w", err)
		}
		r.assets = assets
	}

	if err := r.initBindGroups(); err != nil {
		return nil, err
	}
	if err := r.initForwardPipeline(); err != nil {
		return nil, err
	}

	r.state = stateReady
	return r, nil
}

// initBindGroups creates the four frame-global bind groups and pre-fills the
// material-index table with one record per slot, uploaded once.
func (r *renderer) initBindGroups() error {
	r.cameraProvider = bind_group_provider.NewBindGroupProvider("Camera")
	if err := r.backend.InitBindGroup(r.cameraProvider, cameraBindGroupLayout(), nil, nil); err != nil {
		return fmt.Errorf("failed to create camera bind group: %w", err)
	}

	r.lightProvider = bind_group_provider.NewBindGroupProvider("Lights")
	lightSizes := map[int]uint64{
		0: uint64(light.MaxGPULights * (&light.GPULight{}).Size()),
	}
	if err := r.backend.InitBindGroup(r.lightProvider, lightBindGroupLayout(), nil, lightSizes); err != nil {
		return fmt.Errorf("failed to create light bind group: %w", err)
	}

	// The material table buffer is owned by the asset manager; bind it as-is.
	r.materialProvider = bind_group_provider.NewBindGroupProvider("Materials")
	r.materialProvider.SetBuffer(0, r.assets.MaterialBuffer())
	if err := r.backend.InitBindGroup(r.materialProvider, materialBindGroupLayout(), nil, nil); err != nil {
		return fmt.Errorf("failed to create material bind group: %w", err)
	}

	r.materialIDProvider = bind_group_provider.NewBindGroupProvider("Material IDs")
	idSizes := map[int]uint64{
		0: uint64(asset.MaxMaterials * asset.MaterialIDStride),
	}
	if err := r.backend.InitBindGroup(r.materialIDProvider, materialIDBindGroupLayout(), nil, idSizes); err != nil {
		return fmt.Errorf("failed to create material id bind group: %w", err)
	}

	table := make([]byte, 0, asset.MaxMaterials*asset.MaterialIDStride)
	for id := uint32(0); id < asset.MaxMaterials; id++ {
		rec := asset.GPUMaterialID{ID: id}
		table = append(table, rec.Marshal()...)
	}
	r.backend.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: r.materialIDProvider, Binding: 0, Offset: 0, Data: table},
	})

	return nil
}

// initForwardPipeline registers the single forward pipeline against the four
// bind group layouts, in group order.
func (r *renderer) initForwardPipeline() error {
	r.forward = pipeline.NewPipeline("forward",
		pipeline.WithSource(ForwardShaderSource),
		pipeline.WithVertexLayouts(forwardVertexLayout()),
		pipeline.WithBlend(true),
	)

	layouts := []*wgpu.BindGroupLayout{
		r.cameraProvider.BindGroupLayout(),
		r.lightProvider.BindGroupLayout(),
		r.materialProvider.BindGroupLayout(),
		r.materialIDProvider.BindGroupLayout(),
	}
	if err := r.backend.RegisterRenderPipeline(r.forward, layouts); err != nil {
		return fmt.Errorf("failed to create forward pipeline: %w", err)
	}
	return nil
}

func (r *renderer) Assets() asset.Manager {
	return r.assets
}

func (r *renderer) Render(lights []light.Light, cam camera.Camera, commands []DrawCommand) {
	r.mu.Lock()
	if r.state != stateReady {
		r.mu.Unlock()
		return
	}
	r.state = stateRendering
	width, height := r.width, r.height
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		if r.state == stateRendering {
			r.state = stateReady
		}
		r.mu.Unlock()
	}()

	// Camera uniform is uploaded unconditionally, before frame acquisition,
	// so a dropped frame still leaves the GPU state current.
	if cam != nil {
		if height > 0 {
			cam.SetAspect(float32(width) / float32(height))
		}
		r.mu.Lock()
		r.lastCamera = cam
		r.mu.Unlock()
		r.backend.WriteBuffers([]bind_group_provider.BufferWrite{
			{Provider: r.cameraProvider, Binding: 0, Offset: 0, Data: cam.Uniform().Marshal()},
		})
	}

	lightData, lightCount := light.MarshalLightBuffer(lights)
	params := light.GPULightParams{LightCount: lightCount}
	writes := make([]bind_group_provider.BufferWrite, 0, 2)
	if len(lightData) > 0 {
		writes = append(writes, bind_group_provider.BufferWrite{Provider: r.lightProvider, Binding: 0, Offset: 0, Data: lightData})
	}
	writes = append(writes, bind_group_provider.BufferWrite{Provider: r.lightProvider, Binding: 1, Offset: 0, Data: params.Marshal()})
	r.backend.WriteBuffers(writes)

	switch r.backend.BeginFrame() {
	case FrameStatusOK:
		// proceed
	case FrameStatusSurfaceLost:
		r.backend.ConfigureSurface(width, height)
		return
	case FrameStatusOutOfMemory:
		log.Printf("renderer: surface out of memory, terminating")
		r.exit(1)
		return
	case FrameStatusSkip:
		return
	}

	r.backend.BindPipeline(r.forward)
	r.backend.BindGroup(bindGroupCamera, r.cameraProvider, nil)
	r.backend.BindGroup(bindGroupLights, r.lightProvider, nil)
	r.backend.BindGroup(bindGroupMaterials, r.materialProvider, nil)

	for _, cmd := range commands {
		mesh, ok := r.assets.Mesh(cmd.Mesh)
		if !ok {
			log.Printf("renderer: skipping draw for unknown mesh handle %d/%d", cmd.Mesh.Index, cmd.Mesh.Generation)
			continue
		}
		r.backend.BindMesh(mesh.VertexBuffer, mesh.IndexBuffer, mesh.IndexFormat)
		for _, rng := range mesh.Ranges {
			r.backend.BindGroup(bindGroupMaterialID, r.materialIDProvider, []uint32{rng.Material.Slot * asset.MaterialIDStride})
			r.backend.DrawIndexed(rng.IndexCount, rng.FirstIndex, rng.BaseVertex)
		}
	}

	r.backend.EndFrame()
	r.backend.Present()
}

func (r *renderer) Resize(width, height int) {
	if width == 0 || height == 0 {
		return
	}

	r.mu.Lock()
	r.width = width
	r.height = height
	if r.state == stateUninitialized {
		r.mu.Unlock()
		return
	}
	cam := r.lastCamera
	r.mu.Unlock()

	r.backend.ConfigureSurface(width, height)

	if cam != nil {
		cam.SetAspect(float32(width) / float32(height))
		r.backend.WriteBuffers([]bind_group_provider.BufferWrite{
			{Provider: r.cameraProvider, Binding: 0, Offset: 0, Data: cam.Uniform().Marshal()},
		})
	}
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == stateUninitialized {
		return
	}
	r.state = stateUninitialized

	for _, provider := range []bind_group_provider.BindGroupProvider{
		r.cameraProvider, r.lightProvider, r.materialIDProvider,
	} {
		if provider != nil {
			provider.Release()
		}
	}
	// The material provider's buffer is owned by the asset manager; release
	// only the bind group objects here.
	if r.materialProvider != nil {
		r.materialProvider.SetBuffer(0, nil)
		r.materialProvider.Release()
	}

	if r.assets != nil {
		r.assets.Release()
	}
	r.backend.Release()
}
