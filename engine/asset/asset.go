package asset

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/vega-go/common"
	"github.com/Carmen-Shannon/vega-go/engine/loader"
	"github.com/cogentcore/webgpu/wgpu"
)

type manager struct {
	mu sync.Mutex

	backend Backend
	loader  loader.Loader

	meshes   arena[*Mesh]
	textures arena[*Texture]
	samplers arena[*wgpu.Sampler]

	meshCache     map[string]MeshHandle
	materialCache map[string]MaterialHandle
	textureCache  map[textureKey]TextureHandle
	samplerCache  map[string]SamplerHandle

	// materialBuffer holds MaxMaterials fixed-stride records; slot 0 is the
	// default material, written at construction.
	materialBuffer *wgpu.Buffer
	materialFree   []uint32

	defaultSampler SamplerHandle

	// Dummy textures backing unreferenced material texture slots.
	whiteSRGB   TextureHandle
	whiteLinear TextureHandle
	flatNormal  TextureHandle

	preloadWorkers int
	poolOnce       sync.Once
	preloadPool    worker.DynamicWorkerPool
}

// Manager owns every GPU buffer, texture, and sampler created for assets,
// and the interning tables mapping asset keys to handles. A second lookup of
// any key returns the first handle without a new import or GPU allocation.
//
// All operations are safe for concurrent use, though GPU uploads are issued
// serially under the manager's lock.
type Manager interface {
	// GetOrCreateMesh returns the mesh for the given key, importing and
	// uploading it on first use. All primitives of the mesh are flattened
	// into one vertex and one index buffer; each primitive's material
	// reference is resolved through GetOrCreateMaterial, defaulting to the
	// default material slot when the primitive has none.
	//
	// Parameters:
	//   - key: asset key ("path" or "path#selector") addressing the mesh.
	//
	// Returns:
	//   - MeshHandle: handle to the GPU-resident mesh.
	//   - error: if the import or any GPU allocation fails.
	GetOrCreateMesh(key string) (MeshHandle, error)

	// GetOrCreateMaterial returns the material slot for the given key,
	// importing it on first use. On a miss the material's four optional
	// texture references are resolved through the texture cache and one
	// packed record is written at slot * MaterialUniformStride into the
	// shared material buffer.
	//
	// Parameters:
	//   - key: asset key addressing the material.
	//
	// Returns:
	//   - MaterialHandle: the material's slot.
	//   - error: if the import fails or the slot pool is exhausted.
	GetOrCreateMaterial(key string) (MaterialHandle, error)

	// GetOrCreateTexture returns the texture for (key, format), importing
	// and uploading it on first use. Format is part of the cache key so one
	// source image can be imported as both color (sRGB) and linear data.
	// The texture's sampler is resolved through GetOrCreateSampler.
	//
	// Parameters:
	//   - key: asset key ("path#index") addressing the texture.
	//   - format: the GPU format the pixel data is interpreted as.
	//
	// Returns:
	//   - TextureHandle: handle to the GPU-resident texture.
	//   - error: if the import or texture creation fails.
	GetOrCreateTexture(key string, format wgpu.TextureFormat) (TextureHandle, error)

	// GetOrCreateSampler returns the sampler for the given key, creating it
	// on first use from the source file's wrap/filter modes.
	//
	// Parameters:
	//   - key: asset key ("path#index") addressing the sampler.
	//
	// Returns:
	//   - SamplerHandle: handle to the GPU sampler.
	//   - error: if the import or sampler creation fails.
	GetOrCreateSampler(key string) (SamplerHandle, error)

	// Mesh resolves a mesh handle.
	//
	// Parameters:
	//   - handle: the handle to resolve.
	//
	// Returns:
	//   - *Mesh: the mesh, or nil.
	//   - bool: false when the handle is stale or was never valid.
	Mesh(handle MeshHandle) (*Mesh, bool)

	// Texture resolves a texture handle.
	//
	// Parameters:
	//   - handle: the handle to resolve.
	//
	// Returns:
	//   - *Texture: the texture, or nil.
	//   - bool: false when the handle is stale or was never valid.
	Texture(handle TextureHandle) (*Texture, bool)

	// Sampler resolves a sampler handle.
	//
	// Parameters:
	//   - handle: the handle to resolve.
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler, or nil.
	//   - bool: false when the handle is stale or was never valid.
	Sampler(handle SamplerHandle) (*wgpu.Sampler, bool)

	// RewriteMesh re-uploads a mesh's buffer contents in place from new
	// primitive data. The new data must match the existing vertex and index
	// counts exactly; a mismatch is an error and leaves the mesh untouched.
	// Primitive material references are re-resolved.
	//
	// Parameters:
	//   - handle: the mesh to rewrite.
	//   - primitives: replacement primitive data.
	//
	// Returns:
	//   - error: if the handle is stale or the counts differ.
	RewriteMesh(handle MeshHandle, primitives []common.ImportedPrimitive) error

	// SetMaterial points one primitive of a mesh at a different material slot.
	//
	// Parameters:
	//   - handle: the mesh to update.
	//   - primitiveIndex: index of the primitive range within the mesh.
	//   - material: the material slot to draw the primitive with.
	//
	// Returns:
	//   - error: if the handle is stale or the index is out of range.
	SetMaterial(handle MeshHandle, primitiveIndex int, material MaterialHandle) error

	// ReleaseMesh releases a mesh's GPU buffers and frees its arena slot.
	// Later resolutions of the handle fail; the mesh's cache key is removed
	// so the key can be imported again.
	//
	// Parameters:
	//   - handle: the mesh to release.
	//
	// Returns:
	//   - error: if the handle is stale or was never valid.
	ReleaseMesh(handle MeshHandle) error

	// Preload imports and uploads a batch of mesh keys ahead of first use.
	// Import and image decode run concurrently on a worker pool; GPU uploads
	// are serialized. The first error is returned but does not stop the
	// remaining keys.
	//
	// Parameters:
	//   - keys: mesh asset keys to warm.
	//
	// Returns:
	//   - error: the first import failure, if any.
	Preload(keys ...string) error

	// DefaultMaterial returns the reserved slot 0 material.
	//
	// Returns:
	//   - MaterialHandle: the default material slot.
	DefaultMaterial() MaterialHandle

	// MaterialBuffer returns the shared material record buffer for binding.
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer holding MaxMaterials packed records.
	MaterialBuffer() *wgpu.Buffer

	// Release frees every GPU resource the manager owns. The manager is
	// unusable afterwards.
	Release()
}

var _ Manager = &manager{}

// NewManager creates an asset Manager over the given GPU backend, populating
// the default sampler, the dummy textures, and the slot 0 default material.
//
// Parameters:
//   - backend: the GPU resource backend to allocate through.
//   - options: optional ManagerBuilderOptions to configure the manager.
//
// Returns:
//   - Manager: the new Manager instance.
//   - error: if any of the built-in resources cannot be created.
func NewManager(backend Backend, options ...ManagerBuilderOption) (Manager, error) {
	m := &manager{
		backend:        backend,
		loader:         loader.NewLoader(loader.BackendTypeGLTF),
		meshCache:      make(map[string]MeshHandle),
		materialCache:  make(map[string]MaterialHandle),
		textureCache:   make(map[textureKey]TextureHandle),
		samplerCache:   make(map[string]SamplerHandle),
		materialFree:   newMaterialFreeList(),
		preloadWorkers: defaultPreloadWorkers,
	}
	for _, opt := range options {
		opt(m)
	}

	buffer, err := m.backend.CreateStorageBuffer("Material Table", MaxMaterials*MaterialUniformStride)
	if err != nil {
		return nil, fmt.Errorf("creating material buffer: %w", err)
	}
	m.materialBuffer = buffer

	sampler, err := m.backend.CreateSampler("Default", common.SamplerStagingData{})
	if err != nil {
		return nil, fmt.Errorf("creating default sampler: %w", err)
	}
	m.defaultSampler = SamplerHandle{m.samplers.Insert(sampler)}

	white := []byte{255, 255, 255, 255}
	flat := []byte{128, 128, 255, 255}
	if m.whiteSRGB, err = m.createDummyTexture("White sRGB", wgpu.TextureFormatRGBA8UnormSrgb, white); err != nil {
		return nil, err
	}
	if m.whiteLinear, err = m.createDummyTexture("White Linear", wgpu.TextureFormatRGBA8Unorm, white); err != nil {
		return nil, err
	}
	if m.flatNormal, err = m.createDummyTexture("Flat Normal", wgpu.TextureFormatRGBA8Unorm, flat); err != nil {
		return nil, err
	}

	m.backend.WriteBuffer(m.materialBuffer, 0, m.defaultMaterialRecord().Marshal())

	return m, nil
}

func (m *manager) createDummyTexture(label string, format wgpu.TextureFormat, pixel []byte) (TextureHandle, error) {
	tex, view, err := m.backend.CreateTexture(label, 1, 1, format, pixel)
	if err != nil {
		return TextureHandle{}, fmt.Errorf("creating %s texture: %w", label, err)
	}
	handle := TextureHandle{m.textures.Insert(&Texture{
		Texture: tex,
		View:    view,
		Sampler: m.defaultSampler,
		Width:   1,
		Height:  1,
		Format:  format,
	})}
	return handle, nil
}

func (m *manager) GetOrCreateMesh(key string) (MeshHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateMeshLocked(key)
}

func (m *manager) getOrCreateMeshLocked(key string) (MeshHandle, error) {
	if handle, ok := m.meshCache[key]; ok {
		return handle, nil
	}

	primitives, err := m.loader.LoadMesh(key)
	if err != nil {
		return MeshHandle{}, fmt.Errorf("importing mesh %s: %w", key, err)
	}
	mesh, err := m.uploadMesh(key, primitives)
	if err != nil {
		return MeshHandle{}, err
	}

	handle := MeshHandle{m.meshes.Insert(mesh)}
	m.meshCache[key] = handle
	return handle, nil
}

// uploadMesh flattens primitives, creates the GPU buffers, and resolves each
// primitive's material reference.
func (m *manager) uploadMesh(key string, primitives []common.ImportedPrimitive) (*Mesh, error) {
	data, err := buildMeshData(primitives)
	if err != nil {
		return nil, fmt.Errorf("packing mesh %s: %w", key, err)
	}

	vertexBuffer, err := m.backend.CreateVertexBuffer(key, data.vertexBytes)
	if err != nil {
		return nil, fmt.Errorf("creating vertex buffer for %s: %w", key, err)
	}
	indexBuffer, err := m.backend.CreateIndexBuffer(key, data.indexBytes)
	if err != nil {
		return nil, fmt.Errorf("creating index buffer for %s: %w", key, err)
	}

	mesh := &Mesh{
		VertexBuffer: vertexBuffer,
		IndexBuffer:  indexBuffer,
		IndexFormat:  data.indexFormat,
		VertexCount:  data.vertexCount,
		IndexCount:   data.indexCount,
		Ranges:       data.ranges,
		Bounds:       data.bounds,
	}
	if err := m.resolveRangeMaterials(mesh.Ranges, primitives); err != nil {
		return nil, err
	}
	return mesh, nil
}

func (m *manager) resolveRangeMaterials(ranges []PrimitiveRange, primitives []common.ImportedPrimitive) error {
	for i := range primitives {
		material := m.DefaultMaterial()
		if key := primitives[i].MaterialKey; key != "" {
			var err error
			material, err = m.getOrCreateMaterialLocked(key)
			if err != nil {
				return fmt.Errorf("resolving material for primitive %d: %w", i, err)
			}
		}
		ranges[i].Material = material
	}
	return nil
}

func (m *manager) GetOrCreateMaterial(key string) (MaterialHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateMaterialLocked(key)
}

func (m *manager) getOrCreateMaterialLocked(key string) (MaterialHandle, error) {
	if handle, ok := m.materialCache[key]; ok {
		return handle, nil
	}

	imported, err := m.loader.LoadMaterial(key)
	if err != nil {
		return MaterialHandle{}, fmt.Errorf("importing material %s: %w", key, err)
	}
	record, err := m.buildMaterialRecord(imported)
	if err != nil {
		return MaterialHandle{}, fmt.Errorf("building material %s: %w", key, err)
	}

	slot, err := m.allocMaterialSlot()
	if err != nil {
		return MaterialHandle{}, err
	}
	m.backend.WriteBuffer(m.materialBuffer, uint64(slot)*MaterialUniformStride, record.Marshal())

	handle := MaterialHandle{Slot: slot}
	m.materialCache[key] = handle
	return handle, nil
}

func (m *manager) GetOrCreateTexture(key string, format wgpu.TextureFormat) (TextureHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateTextureLocked(key, format)
}

func (m *manager) getOrCreateTextureLocked(key string, format wgpu.TextureFormat) (TextureHandle, error) {
	cacheKey := textureKey{key: key, format: format}
	if handle, ok := m.textureCache[cacheKey]; ok {
		return handle, nil
	}

	imported, err := m.loader.LoadTexture(key)
	if err != nil {
		return TextureHandle{}, fmt.Errorf("importing texture %s: %w", key, err)
	}
	pixels, width, height, err := imported.Decode()
	if err != nil {
		return TextureHandle{}, fmt.Errorf("decoding texture %s: %w", key, err)
	}

	sampler := m.defaultSampler
	if imported.SamplerKey != "" {
		sampler, err = m.getOrCreateSamplerLocked(imported.SamplerKey)
		if err != nil {
			return TextureHandle{}, fmt.Errorf("resolving sampler for texture %s: %w", key, err)
		}
	}

	tex, view, err := m.backend.CreateTexture(key, width, height, format, pixels)
	if err != nil {
		return TextureHandle{}, fmt.Errorf("creating texture %s: %w", key, err)
	}

	handle := TextureHandle{m.textures.Insert(&Texture{
		Texture: tex,
		View:    view,
		Sampler: sampler,
		Width:   width,
		Height:  height,
		Format:  format,
	})}
	m.textureCache[cacheKey] = handle
	return handle, nil
}

func (m *manager) GetOrCreateSampler(key string) (SamplerHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateSamplerLocked(key)
}

func (m *manager) getOrCreateSamplerLocked(key string) (SamplerHandle, error) {
	if handle, ok := m.samplerCache[key]; ok {
		return handle, nil
	}

	imported, err := m.loader.LoadSampler(key)
	if err != nil {
		return SamplerHandle{}, fmt.Errorf("importing sampler %s: %w", key, err)
	}
	sampler, err := m.backend.CreateSampler(key, samplerStaging(imported))
	if err != nil {
		return SamplerHandle{}, fmt.Errorf("creating sampler %s: %w", key, err)
	}

	handle := SamplerHandle{m.samplers.Insert(sampler)}
	m.samplerCache[key] = handle
	return handle, nil
}

func (m *manager) Mesh(handle MeshHandle) (*Mesh, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meshes.Get(handle.Handle)
}

func (m *manager) Texture(handle TextureHandle) (*Texture, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.textures.Get(handle.Handle)
}

func (m *manager) Sampler(handle SamplerHandle) (*wgpu.Sampler, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.samplers.Get(handle.Handle)
}

func (m *manager) RewriteMesh(handle MeshHandle, primitives []common.ImportedPrimitive) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mesh, ok := m.meshes.Get(handle.Handle)
	if !ok {
		return fmt.Errorf("rewrite: stale mesh handle %+v", handle.Handle)
	}

	data, err := buildMeshData(primitives)
	if err != nil {
		return fmt.Errorf("packing rewrite data: %w", err)
	}
	if data.vertexCount != mesh.VertexCount || data.indexCount != mesh.IndexCount {
		return fmt.Errorf("rewrite size mismatch: have %d vertices / %d indices, got %d / %d",
			mesh.VertexCount, mesh.IndexCount, data.vertexCount, data.indexCount)
	}

	// Resolve every range's material before touching the mesh, so a failed
	// resolution leaves the old geometry fully intact.
	if err := m.resolveRangeMaterials(data.ranges, primitives); err != nil {
		return err
	}

	m.backend.WriteBuffer(mesh.VertexBuffer, 0, data.vertexBytes)
	m.backend.WriteBuffer(mesh.IndexBuffer, 0, data.indexBytes)
	mesh.IndexFormat = data.indexFormat
	mesh.Ranges = data.ranges
	mesh.Bounds = data.bounds
	return nil
}

func (m *manager) SetMaterial(handle MeshHandle, primitiveIndex int, material MaterialHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mesh, ok := m.meshes.Get(handle.Handle)
	if !ok {
		return fmt.Errorf("set material: stale mesh handle %+v", handle.Handle)
	}
	if primitiveIndex < 0 || primitiveIndex >= len(mesh.Ranges) {
		return fmt.Errorf("set material: primitive %d out of range (mesh has %d)", primitiveIndex, len(mesh.Ranges))
	}
	mesh.Ranges[primitiveIndex].Material = material
	return nil
}

func (m *manager) ReleaseMesh(handle MeshHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mesh, ok := m.meshes.Remove(handle.Handle)
	if !ok {
		return fmt.Errorf("release: stale mesh handle %+v", handle.Handle)
	}
	m.backend.ReleaseBuffer(mesh.VertexBuffer)
	m.backend.ReleaseBuffer(mesh.IndexBuffer)
	for key, cached := range m.meshCache {
		if cached == handle {
			delete(m.meshCache, key)
		}
	}
	return nil
}

func (m *manager) DefaultMaterial() MaterialHandle {
	return MaterialHandle{Slot: 0}
}

func (m *manager) MaterialBuffer() *wgpu.Buffer {
	return m.materialBuffer
}

func (m *manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, entry := range m.meshes.entries {
		if !entry.live || entry.value == nil {
			continue
		}
		m.backend.ReleaseBuffer(entry.value.VertexBuffer)
		m.backend.ReleaseBuffer(entry.value.IndexBuffer)
	}
	for _, entry := range m.textures.entries {
		if !entry.live || entry.value == nil {
			continue
		}
		m.backend.ReleaseTexture(entry.value.Texture, entry.value.View)
	}
	for _, entry := range m.samplers.entries {
		if entry.live && entry.value != nil {
			m.backend.ReleaseSampler(entry.value)
		}
	}
	if m.materialBuffer != nil {
		m.backend.ReleaseBuffer(m.materialBuffer)
		m.materialBuffer = nil
	}
}
