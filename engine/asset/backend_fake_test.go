package asset

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/Carmen-Shannon/vega-go/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// bufferWrite records one WriteBuffer call against a fake buffer.
type bufferWrite struct {
	buffer *wgpu.Buffer
	offset uint64
	data   []byte
}

type createdTexture struct {
	label  string
	width  uint32
	height uint32
	format wgpu.TextureFormat
	pixels []byte
}

// fakeBackend satisfies Backend without a GPU. Returned wgpu objects are
// empty shells used only as identities; the fake records every call so tests
// can assert on allocation and upload behavior.
type fakeBackend struct {
	vertexBuffers  []string
	indexBuffers   []string
	storageBuffers map[*wgpu.Buffer]uint64
	writes         []bufferWrite
	textures       []createdTexture
	samplers       []common.SamplerStagingData
	released       int

	failNextBuffer bool
}

var _ Backend = &fakeBackend{}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{storageBuffers: make(map[*wgpu.Buffer]uint64)}
}

func (f *fakeBackend) CreateVertexBuffer(label string, data []byte) (*wgpu.Buffer, error) {
	if f.failNextBuffer {
		f.failNextBuffer = false
		return nil, fmt.Errorf("buffer creation failed")
	}
	f.vertexBuffers = append(f.vertexBuffers, label)
	buf := &wgpu.Buffer{}
	f.writes = append(f.writes, bufferWrite{buffer: buf, offset: 0, data: append([]byte(nil), data...)})
	return buf, nil
}

func (f *fakeBackend) CreateIndexBuffer(label string, data []byte) (*wgpu.Buffer, error) {
	if f.failNextBuffer {
		f.failNextBuffer = false
		return nil, fmt.Errorf("buffer creation failed")
	}
	f.indexBuffers = append(f.indexBuffers, label)
	buf := &wgpu.Buffer{}
	f.writes = append(f.writes, bufferWrite{buffer: buf, offset: 0, data: append([]byte(nil), data...)})
	return buf, nil
}

func (f *fakeBackend) CreateStorageBuffer(label string, size uint64) (*wgpu.Buffer, error) {
	buf := &wgpu.Buffer{}
	f.storageBuffers[buf] = size
	return buf, nil
}

func (f *fakeBackend) WriteBuffer(buffer *wgpu.Buffer, offset uint64, data []byte) {
	f.writes = append(f.writes, bufferWrite{buffer: buffer, offset: offset, data: append([]byte(nil), data...)})
}

func (f *fakeBackend) CreateTexture(label string, width, height uint32, format wgpu.TextureFormat, pixels []byte) (*wgpu.Texture, *wgpu.TextureView, error) {
	f.textures = append(f.textures, createdTexture{
		label:  label,
		width:  width,
		height: height,
		format: format,
		pixels: append([]byte(nil), pixels...),
	})
	return &wgpu.Texture{}, &wgpu.TextureView{}, nil
}

func (f *fakeBackend) CreateSampler(label string, staging common.SamplerStagingData) (*wgpu.Sampler, error) {
	f.samplers = append(f.samplers, staging)
	return &wgpu.Sampler{}, nil
}

func (f *fakeBackend) ReleaseBuffer(buffer *wgpu.Buffer) {
	if buffer != nil {
		f.released++
	}
}

func (f *fakeBackend) ReleaseTexture(texture *wgpu.Texture, view *wgpu.TextureView) {
	if texture != nil {
		f.released++
	}
}

func (f *fakeBackend) ReleaseSampler(sampler *wgpu.Sampler) {
	if sampler != nil {
		f.released++
	}
}

// writesTo returns the writes issued against one buffer, in order.
func (f *fakeBackend) writesTo(buffer *wgpu.Buffer) []bufferWrite {
	var out []bufferWrite
	for _, w := range f.writes {
		if w.buffer == buffer {
			out = append(out, w)
		}
	}
	return out
}

// fakeLoader serves canned import results keyed exactly like the real loader.
// Counters are mutex-guarded since preload calls in from pool workers.
type fakeLoader struct {
	mu        sync.Mutex
	meshes    map[string][]common.ImportedPrimitive
	materials map[string]*common.ImportedMaterial
	textures  map[string]*common.ImportedTexture
	samplers  map[string]*common.ImportedSampler

	meshLoads     int
	materialLoads int
	textureLoads  int
	samplerLoads  int
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		meshes:    make(map[string][]common.ImportedPrimitive),
		materials: make(map[string]*common.ImportedMaterial),
		textures:  make(map[string]*common.ImportedTexture),
		samplers:  make(map[string]*common.ImportedSampler),
	}
}

func (f *fakeLoader) LoadMesh(key string) ([]common.ImportedPrimitive, error) {
	f.mu.Lock()
	f.meshLoads++
	f.mu.Unlock()
	if prims, ok := f.meshes[key]; ok {
		return prims, nil
	}
	return nil, fmt.Errorf("mesh %s not found", key)
}

func (f *fakeLoader) LoadMaterial(key string) (*common.ImportedMaterial, error) {
	f.mu.Lock()
	f.materialLoads++
	f.mu.Unlock()
	if mat, ok := f.materials[key]; ok {
		return mat, nil
	}
	return nil, fmt.Errorf("material %s not found", key)
}

func (f *fakeLoader) LoadTexture(key string) (*common.ImportedTexture, error) {
	f.mu.Lock()
	f.textureLoads++
	f.mu.Unlock()
	if tex, ok := f.textures[key]; ok {
		return tex, nil
	}
	return nil, fmt.Errorf("texture %s not found", key)
}

func (f *fakeLoader) LoadSampler(key string) (*common.ImportedSampler, error) {
	f.mu.Lock()
	f.samplerLoads++
	f.mu.Unlock()
	if smp, ok := f.samplers[key]; ok {
		return smp, nil
	}
	return nil, fmt.Errorf("sampler %s not found", key)
}

// pngPixel returns encoded PNG bytes for a 1x1 image of the given color.
func pngPixel(c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, c)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// trianglePrimitive builds a minimal one-triangle primitive.
func trianglePrimitive(materialKey string) common.ImportedPrimitive {
	return common.ImportedPrimitive{
		Positions:   [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Normals:     [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		UVs:         [][2]float32{{0, 0}, {1, 0}, {0, 1}},
		Indices:     []uint32{0, 1, 2},
		MaterialKey: materialKey,
	}
}
