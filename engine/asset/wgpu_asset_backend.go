package asset

import (
	"github.com/Carmen-Shannon/vega-go/common"
	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuBackend struct {
	device *wgpu.Device
	queue  *wgpu.Queue
}

var _ Backend = &wgpuBackend{}

// NewWGPUBackend creates a Backend over a wgpu device/queue pair. The device
// and queue are shared with the renderer and never mutated structurally; the
// backend only issues resource creation and write calls against them.
//
// Parameters:
//   - device: the wgpu device to allocate resources on.
//   - queue: the queue used for buffer and texture uploads.
//
// Returns:
//   - Backend: the wgpu-backed implementation.
func NewWGPUBackend(device *wgpu.Device, queue *wgpu.Queue) Backend {
	return &wgpuBackend{device: device, queue: queue}
}

func (b *wgpuBackend) CreateVertexBuffer(label string, data []byte) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Vertex Buffer",
		Size:  uint64(len(data)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	b.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

func (b *wgpuBackend) CreateIndexBuffer(label string, data []byte) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Index Buffer",
		Size:  uint64(len(data)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	b.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

func (b *wgpuBackend) CreateStorageBuffer(label string, size uint64) (*wgpu.Buffer, error) {
	return b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label + " Buffer",
		Size:  size,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
}

func (b *wgpuBackend) WriteBuffer(buffer *wgpu.Buffer, offset uint64, data []byte) {
	b.queue.WriteBuffer(buffer, offset, data)
}

func (b *wgpuBackend) CreateTexture(label string, width, height uint32, format wgpu.TextureFormat, pixels []byte) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     label + " Texture",
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		Format:        format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, nil, err
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  width * 4,
			RowsPerImage: height,
		},
		&wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, err
	}
	return tex, view, nil
}

func (b *wgpuBackend) CreateSampler(label string, staging common.SamplerStagingData) (*wgpu.Sampler, error) {
	return b.device.CreateSampler(samplerDescriptor(label, staging))
}

// samplerDescriptor builds the device descriptor from staged sampler state.
// Address and filter modes are taken verbatim: samplerStaging fills every one
// deliberately, and nearest filters are the zero values of their wgpu enums,
// so defaulting them would rewrite nearest selections into linear. Only Lod
// range and anisotropy have fallbacks, since their zero values are not usable
// requests.
func samplerDescriptor(label string, staging common.SamplerStagingData) *wgpu.SamplerDescriptor {
	return &wgpu.SamplerDescriptor{
		Label:         label + " Sampler",
		AddressModeU:  staging.AddressModeU,
		AddressModeV:  staging.AddressModeV,
		AddressModeW:  staging.AddressModeW,
		MagFilter:     staging.MagFilter,
		MinFilter:     staging.MinFilter,
		MipmapFilter:  staging.MipmapFilter,
		LodMinClamp:   staging.LodMinClamp,
		LodMaxClamp:   common.Coalesce(staging.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(staging.MaxAnisotropy, 1),
		Compare:       staging.Compare,
	}
}

func (b *wgpuBackend) ReleaseBuffer(buffer *wgpu.Buffer) {
	if buffer != nil {
		buffer.Release()
	}
}

func (b *wgpuBackend) ReleaseTexture(texture *wgpu.Texture, view *wgpu.TextureView) {
	if view != nil {
		view.Release()
	}
	if texture != nil {
		texture.Release()
	}
}

func (b *wgpuBackend) ReleaseSampler(sampler *wgpu.Sampler) {
	if sampler != nil {
		sampler.Release()
	}
}
