package renderer

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// FrameStatus is the classified outcome of a swapchain frame acquisition.
// The renderer's frame policy is driven entirely by this value: a lost or
// outdated surface is reconfigured and the frame dropped, out-of-memory
// terminates the process, and transient failures skip the frame.
type FrameStatus int

const (
	// FrameStatusOK indicates the swapchain texture was acquired and the render pass is open.
	FrameStatusOK FrameStatus = iota

	// FrameStatusSurfaceLost indicates the surface is lost or outdated and must be
	// reconfigured before the next frame. The current frame is dropped.
	FrameStatusSurfaceLost

	// FrameStatusOutOfMemory indicates the swapchain could not allocate a texture.
	// This is unrecoverable; the process terminates.
	FrameStatusOutOfMemory

	// FrameStatusSkip indicates a transient acquisition failure (timeout or similar).
	// The frame is skipped and rendering continues next frame.
	FrameStatusSkip
)

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	wgpuRendererBackend
}
