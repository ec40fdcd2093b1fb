package asset

import (
	_ "embed"
	"encoding/binary"
	"math"
)

// MaxMaterials is the fixed capacity of the shared material buffer. Slots are
// never reclaimed, so this is the per-session material budget.
const MaxMaterials = 1024

// MaterialUniformStride is the byte size of one material record in the
// shared material storage buffer.
const MaterialUniformStride = 64

// MaterialIDStride is the byte size of one material-id record. Records are
// padded to the minimum dynamic uniform offset alignment so any slot can be
// selected with a dynamic offset of slot * MaterialIDStride.
const MaterialIDStride = 256

// Material flag bits packed into GPUMaterial.Flags.
const (
	MaterialFlagAlphaMask   = 1 << 0
	MaterialFlagDoubleSided = 1 << 1
)

// GPUMaterialSource is the canonical WGSL definition of the Material struct.
// Matches GPUMaterial layout exactly (64 bytes, std430 aligned).
//
//go:embed assets/material.wgsl
var GPUMaterialSource string

// GPUMaterialIDSource is the canonical WGSL definition of the MaterialId struct.
// One 256-byte record per material slot (see MaterialIDStride).
//
//go:embed assets/material_id.wgsl
var GPUMaterialIDSource string

// GPUMaterial is the GPU-aligned representation of one material slot.
// Matches the WGSL Material struct layout exactly (see GPUMaterialSource).
// Size: 64 bytes (std430 / WGSL aligned).
type GPUMaterial struct {
	BaseColor   [4]float32 // offset  0: base color factor (RGBA)
	Emissive    [3]float32 // offset 16: emissive color factor (RGB)
	AlphaCutoff float32    // offset 28: alpha-mask cutoff threshold
	Metallic    float32    // offset 32: metallic factor
	Roughness   float32    // offset 36: roughness factor
	Flags       uint32     // offset 40: bit 0 = alpha mask, bit 1 = double sided
	_pad        uint32     // offset 44: padding
	// Texture slot indices into the texture tables, parallel with material slots.
	BaseColorTexture         uint32 // offset 48
	MetallicRoughnessTexture uint32 // offset 52
	NormalTexture            uint32 // offset 56
	EmissiveTexture          uint32 // offset 60
}

// Size returns the size of the GPUMaterial struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPUMaterial) Size() int {
	return MaterialUniformStride
}

// Marshal serializes the GPUMaterial struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (g *GPUMaterial) Marshal() []byte {
	buf := make([]byte, MaterialUniformStride)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.BaseColor[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.BaseColor[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.BaseColor[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.BaseColor[3]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Emissive[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Emissive[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Emissive[2]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.AlphaCutoff))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.Metallic))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(g.Roughness))
	binary.LittleEndian.PutUint32(buf[40:44], g.Flags)
	binary.LittleEndian.PutUint32(buf[44:48], 0) // padding
	binary.LittleEndian.PutUint32(buf[48:52], g.BaseColorTexture)
	binary.LittleEndian.PutUint32(buf[52:56], g.MetallicRoughnessTexture)
	binary.LittleEndian.PutUint32(buf[56:60], g.NormalTexture)
	binary.LittleEndian.PutUint32(buf[60:64], g.EmissiveTexture)
	return buf
}

// GPUMaterialID is the GPU-aligned material selector record.
// Matches the WGSL MaterialId struct layout exactly (see GPUMaterialIDSource).
// Size: 256 bytes (padded to dynamic uniform offset alignment).
type GPUMaterialID struct {
	ID uint32 // offset 0: material slot index; remaining 252 bytes are padding
}

// Size returns the size of the GPUMaterialID record in bytes.
//
// Returns:
//   - int: the record size in bytes (256)
func (g *GPUMaterialID) Size() int {
	return MaterialIDStride
}

// Marshal serializes the GPUMaterialID record into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 256-byte buffer ready for GPU upload
func (g *GPUMaterialID) Marshal() []byte {
	buf := make([]byte, MaterialIDStride)
	binary.LittleEndian.PutUint32(buf[0:4], g.ID)
	return buf
}
