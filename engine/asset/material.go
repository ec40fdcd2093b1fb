package asset

import (
	"fmt"

	"github.com/Carmen-Shannon/vega-go/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// newMaterialFreeList builds the initial free-slot pool. Slot 0 is reserved
// for the default material, so the pool holds 1..MaxMaterials-1 ordered so
// that slots are handed out in ascending order.
func newMaterialFreeList() []uint32 {
	free := make([]uint32, 0, MaxMaterials-1)
	for slot := MaxMaterials - 1; slot >= 1; slot-- {
		free = append(free, uint32(slot))
	}
	return free
}

// allocMaterialSlot pops the next free material slot. There is no slot
// reclamation; exhausting the pool is fatal to the caller.
func (m *manager) allocMaterialSlot() (uint32, error) {
	n := len(m.materialFree)
	if n == 0 {
		return 0, fmt.Errorf("material slot pool exhausted (%d slots)", MaxMaterials)
	}
	slot := m.materialFree[n-1]
	m.materialFree = m.materialFree[:n-1]
	return slot, nil
}

// buildMaterialRecord resolves an imported material's texture references and
// packs its GPU record. Base color and emissive images are color data (sRGB);
// metallic-roughness and normal images are linear data.
func (m *manager) buildMaterialRecord(imported *common.ImportedMaterial) (*GPUMaterial, error) {
	record := &GPUMaterial{
		BaseColor:   imported.BaseColor,
		Emissive:    imported.Emissive,
		AlphaCutoff: imported.AlphaCutoff,
		Metallic:    imported.Metallic,
		Roughness:   imported.Roughness,
	}
	if imported.AlphaMask {
		record.Flags |= MaterialFlagAlphaMask
	}
	if imported.DoubleSided {
		record.Flags |= MaterialFlagDoubleSided
	}

	baseColor, err := m.resolveTextureIndex(imported.BaseColorTextureKey, wgpu.TextureFormatRGBA8UnormSrgb, m.whiteSRGB)
	if err != nil {
		return nil, fmt.Errorf("resolving base color texture: %w", err)
	}
	record.BaseColorTexture = baseColor

	metallicRoughness, err := m.resolveTextureIndex(imported.MetallicRoughnessTextureKey, wgpu.TextureFormatRGBA8Unorm, m.whiteLinear)
	if err != nil {
		return nil, fmt.Errorf("resolving metallic-roughness texture: %w", err)
	}
	record.MetallicRoughnessTexture = metallicRoughness

	normal, err := m.resolveTextureIndex(imported.NormalTextureKey, wgpu.TextureFormatRGBA8Unorm, m.flatNormal)
	if err != nil {
		return nil, fmt.Errorf("resolving normal texture: %w", err)
	}
	record.NormalTexture = normal

	emissive, err := m.resolveTextureIndex(imported.EmissiveTextureKey, wgpu.TextureFormatRGBA8UnormSrgb, m.whiteSRGB)
	if err != nil {
		return nil, fmt.Errorf("resolving emissive texture: %w", err)
	}
	record.EmissiveTexture = emissive

	return record, nil
}

// resolveTextureIndex interns the texture behind key and returns its table
// index, or the fallback's index when the material has no reference in that
// slot.
func (m *manager) resolveTextureIndex(key string, format wgpu.TextureFormat, fallback TextureHandle) (uint32, error) {
	if key == "" {
		return fallback.Index, nil
	}
	handle, err := m.getOrCreateTextureLocked(key, format)
	if err != nil {
		return 0, err
	}
	return handle.Index, nil
}

// defaultMaterialRecord is the slot 0 fallback: plain white, fully rough,
// dummy textures everywhere.
func (m *manager) defaultMaterialRecord() *GPUMaterial {
	return &GPUMaterial{
		BaseColor:                [4]float32{1, 1, 1, 1},
		AlphaCutoff:              0.5,
		Metallic:                 0,
		Roughness:                1,
		BaseColorTexture:         m.whiteSRGB.Index,
		MetallicRoughnessTexture: m.whiteLinear.Index,
		NormalTexture:            m.flatNormal.Index,
		EmissiveTexture:          m.whiteSRGB.Index,
	}
}
