package light

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// MaxGPULights is the fixed capacity of the per-frame GPU light buffer. The
// CPU-side light list is unbounded; this cap controls only how many lights the
// GPU evaluates. When the active light count exceeds this budget, lights beyond
// it are dropped for the frame in submission order.
const MaxGPULights = 16

// GPULightSource is the canonical WGSL definition of the Light struct.
// Matches GPULight layout exactly (64 bytes, std430 aligned).
//
//go:embed assets/light.wgsl
var GPULightSource string

// GPULight is the GPU-aligned representation of a single light source.
// Matches the WGSL Light struct layout exactly (see GPULightSource).
// Size: 64 bytes (std430 / WGSL aligned).
type GPULight struct {
	Position   [3]float32 // offset  0: world-space position (point/spot) or unused (directional)
	LightType  uint32     // offset 12: 0 = directional, 1 = point, 2 = spot
	Color      [3]float32 // offset 16: RGB color
	Intensity  float32    // offset 28: scalar multiplier
	Direction  [3]float32 // offset 32: normalized direction (directional/spot) or unused (point)
	LightRange float32    // offset 44: attenuation cutoff distance
	InnerCone  float32    // offset 48: cos(inner half-angle) for spot
	OuterCone  float32    // offset 52: cos(outer half-angle) for spot
	_pad0      uint32     // offset 56: padding to 64-byte alignment
	_pad1      uint32     // offset 60: padding to 64-byte alignment
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, 64)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], g.LightType)
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Color[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Color[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Color[2]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Intensity))
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.Direction[0]))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(g.Direction[1]))
	binary.LittleEndian.PutUint32(buf[40:44], math.Float32bits(g.Direction[2]))
	binary.LittleEndian.PutUint32(buf[44:48], math.Float32bits(g.LightRange))
	binary.LittleEndian.PutUint32(buf[48:52], math.Float32bits(g.InnerCone))
	binary.LittleEndian.PutUint32(buf[52:56], math.Float32bits(g.OuterCone))
	binary.LittleEndian.PutUint32(buf[56:60], 0) // padding
	binary.LittleEndian.PutUint32(buf[60:64], 0) // padding
	return buf
}

// GPULightParamsSource is the canonical WGSL definition of the LightParams struct.
// Matches GPULightParams layout exactly (16 bytes, uniform aligned).
//
//go:embed assets/light_params.wgsl
var GPULightParamsSource string

// GPULightParams is the per-frame uniform record accompanying the light storage
// buffer. Carries the number of valid lights written this frame; the storage
// buffer itself always has MaxGPULights slots.
// Matches the WGSL LightParams struct layout exactly (see GPULightParamsSource).
// Size: 16 bytes (u32 + 12 bytes padding, uniform aligned).
type GPULightParams struct {
	LightCount uint32 // offset 0: number of valid lights in the storage buffer
	_pad0      uint32 // offset 4
	_pad1      uint32 // offset 8
	_pad2      uint32 // offset 12
}

// Size returns the size of the GPULightParams struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (p *GPULightParams) Size() int {
	return int(unsafe.Sizeof(*p))
}

// Marshal serializes the GPULightParams struct into a byte buffer suitable for
// GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (p *GPULightParams) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], p.LightCount)
	return buf
}

// ToGPULight converts a Light interface value into the GPU-aligned GPULight struct
// suitable for writing into the light storage buffer.
//
// Parameters:
//   - l: the Light to convert
//
// Returns:
//   - GPULight: the GPU-aligned representation
func ToGPULight(l Light) GPULight {
	return GPULight{
		Position:   l.Position(),
		LightType:  uint32(l.Type()),
		Color:      l.Color(),
		Intensity:  l.Intensity(),
		Direction:  l.Direction(),
		LightRange: l.Range(),
		InnerCone:  l.InnerCone(),
		OuterCone:  l.OuterCone(),
	}
}

// MarshalLightBuffer marshals a slice of lights into a byte buffer suitable for
// writing into the light storage buffer. Only enabled lights are included, in
// submission order, up to MaxGPULights; lights beyond the budget are silently
// dropped for the frame.
//
// Parameters:
//   - lights: the full slice of lights to marshal (only enabled lights are included)
//
// Returns:
//   - []byte: the marshaled light records (64 bytes per light)
//   - uint32: the number of lights written
func MarshalLightBuffer(lights []Light) ([]byte, uint32) {
	lightSize := (&GPULight{}).Size()
	buf := make([]byte, 0, MaxGPULights*lightSize)

	written := uint32(0)
	for _, l := range lights {
		if !l.Enabled() {
			continue
		}
		if written >= MaxGPULights {
			break
		}
		gpu := ToGPULight(l)
		buf = append(buf, gpu.Marshal()...)
		written++
	}

	return buf, written
}
