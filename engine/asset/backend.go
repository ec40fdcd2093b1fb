package asset

import (
	"github.com/Carmen-Shannon/vega-go/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// Backend is the narrow GPU surface the asset manager allocates through.
// The production implementation wraps a wgpu device/queue pair; tests swap
// in a fake so cache and slot behavior is checkable without a GPU.
type Backend interface {
	// CreateVertexBuffer creates a vertex buffer and uploads data into it.
	//
	// Parameters:
	//   - label: debug label for the buffer.
	//   - data: the packed vertex data to upload.
	//
	// Returns:
	//   - *wgpu.Buffer: the created buffer.
	//   - error: if the buffer could not be created.
	CreateVertexBuffer(label string, data []byte) (*wgpu.Buffer, error)

	// CreateIndexBuffer creates an index buffer and uploads data into it.
	//
	// Parameters:
	//   - label: debug label for the buffer.
	//   - data: the packed index data to upload.
	//
	// Returns:
	//   - *wgpu.Buffer: the created buffer.
	//   - error: if the buffer could not be created.
	CreateIndexBuffer(label string, data []byte) (*wgpu.Buffer, error)

	// CreateStorageBuffer creates a zeroed storage buffer of the given size.
	//
	// Parameters:
	//   - label: debug label for the buffer.
	//   - size: buffer size in bytes.
	//
	// Returns:
	//   - *wgpu.Buffer: the created buffer.
	//   - error: if the buffer could not be created.
	CreateStorageBuffer(label string, size uint64) (*wgpu.Buffer, error)

	// WriteBuffer writes data into an existing buffer at a byte offset.
	//
	// Parameters:
	//   - buffer: the target buffer.
	//   - offset: byte offset within the buffer.
	//   - data: the bytes to write.
	WriteBuffer(buffer *wgpu.Buffer, offset uint64, data []byte)

	// CreateTexture creates a single-mip 2D texture, uploads its pixels, and
	// returns the texture with a default view.
	//
	// Parameters:
	//   - label: debug label for the texture.
	//   - width, height: texture dimensions in pixels.
	//   - format: the texture format the pixels are interpreted as.
	//   - pixels: tightly packed RGBA8 pixel rows.
	//
	// Returns:
	//   - *wgpu.Texture: the created texture.
	//   - *wgpu.TextureView: a full view of the texture.
	//   - error: if the texture could not be created.
	CreateTexture(label string, width, height uint32, format wgpu.TextureFormat, pixels []byte) (*wgpu.Texture, *wgpu.TextureView, error)

	// CreateSampler creates a sampler from staging data.
	//
	// Parameters:
	//   - label: debug label for the sampler.
	//   - staging: the address/filter modes to use; zero values fall back to
	//     repeat addressing and linear filtering.
	//
	// Returns:
	//   - *wgpu.Sampler: the created sampler.
	//   - error: if the sampler could not be created.
	CreateSampler(label string, staging common.SamplerStagingData) (*wgpu.Sampler, error)

	// ReleaseBuffer releases a buffer created by this backend.
	ReleaseBuffer(buffer *wgpu.Buffer)

	// ReleaseTexture releases a texture and its view created by this backend.
	ReleaseTexture(texture *wgpu.Texture, view *wgpu.TextureView)

	// ReleaseSampler releases a sampler created by this backend.
	ReleaseSampler(sampler *wgpu.Sampler)
}
