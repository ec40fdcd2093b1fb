package renderer

import (
	"github.com/Carmen-Shannon/vega-go/engine/asset"
	"github.com/Carmen-Shannon/vega-go/engine/loader"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe). Useful for benchmarking CPU vs GPU rendering performance.
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithLoader sets the importer used by the renderer's asset manager to read
// source documents. When not specified, the asset manager falls back to its
// default glTF loader.
//
// Parameters:
//   - l: the loader to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the loader option to a renderer
func WithLoader(l loader.Loader) RendererBuilderOption {
	return func(r *renderer) {
		r.assetOptions = append(r.assetOptions, asset.WithLoader(l))
	}
}

// WithPreloadWorkers sets the worker count for the asset manager's concurrent
// preload pool.
//
// Parameters:
//   - workers: the number of preload workers
//
// Returns:
//   - RendererBuilderOption: a function that applies the preload worker option to a renderer
func WithPreloadWorkers(workers int) RendererBuilderOption {
	return func(r *renderer) {
		r.assetOptions = append(r.assetOptions, asset.WithPreloadWorkers(workers))
	}
}

// WithBackend injects a pre-built backend instead of creating the WGPU backend
// from the window surface. Intended for tests that exercise the frame policy
// without a GPU device.
//
// Parameters:
//   - backend: the backend to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the backend option to a renderer
func WithBackend(backend RendererBackend) RendererBuilderOption {
	return func(r *renderer) {
		r.backend = backend
	}
}

// WithAssetManager injects a pre-built asset manager instead of creating one on
// the backend's device and queue. Intended for tests and for sharing a manager
// across renderers.
//
// Parameters:
//   - assets: the asset manager to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the asset manager option to a renderer
func WithAssetManager(assets asset.Manager) RendererBuilderOption {
	return func(r *renderer) {
		r.assets = assets
	}
}
