package light

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32At(t *testing.T, buf []byte, offset int) float32 {
	t.Helper()
	require.LessOrEqual(t, offset+4, len(buf))
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset : offset+4]))
}

func u32At(t *testing.T, buf []byte, offset int) uint32 {
	t.Helper()
	require.LessOrEqual(t, offset+4, len(buf))
	return binary.LittleEndian.Uint32(buf[offset : offset+4])
}

func TestNewLightDefaults(t *testing.T) {
	l := NewLight(LightTypePoint)

	assert.Equal(t, LightTypePoint, l.Type())
	assert.Equal(t, [3]float32{0, 0, 0}, l.Position())
	assert.Equal(t, [3]float32{0, -1, 0}, l.Direction())
	assert.Equal(t, [3]float32{1, 1, 1}, l.Color())
	assert.Equal(t, float32(1.0), l.Intensity())
	assert.Equal(t, float32(10.0), l.Range())
	assert.InDelta(t, 0.9063, l.InnerCone(), 1e-4)
	assert.InDelta(t, 0.8192, l.OuterCone(), 1e-4)
	assert.True(t, l.Enabled())
}

func TestNewLightOptions(t *testing.T) {
	l := NewLight(LightTypeSpot,
		WithPosition(1, 2, 3),
		WithDirection(0, 0, -2),
		WithColor(0.5, 0.25, 0.125),
		WithIntensity(4),
		WithRange(25),
		WithSpotCone(30, 45),
		WithEnabled(false),
	)

	assert.Equal(t, [3]float32{1, 2, 3}, l.Position())
	assert.Equal(t, [3]float32{0, 0, -1}, l.Direction(), "direction should be normalized")
	assert.Equal(t, [3]float32{0.5, 0.25, 0.125}, l.Color())
	assert.Equal(t, float32(4), l.Intensity())
	assert.Equal(t, float32(25), l.Range())
	assert.InDelta(t, math.Cos(30*math.Pi/180), float64(l.InnerCone()), 1e-6)
	assert.InDelta(t, math.Cos(45*math.Pi/180), float64(l.OuterCone()), 1e-6)
	assert.False(t, l.Enabled())
}

func TestSetSpotConeStoresCosines(t *testing.T) {
	l := NewLight(LightTypeSpot)
	l.SetSpotCone(0, 90)

	assert.InDelta(t, 1.0, float64(l.InnerCone()), 1e-6)
	assert.InDelta(t, 0.0, float64(l.OuterCone()), 1e-6)
}

func TestSetDirectionNormalizes(t *testing.T) {
	l := NewLight(LightTypeDirectional)
	l.SetDirection(3, 0, 4)

	dir := l.Direction()
	assert.InDelta(t, 0.6, float64(dir[0]), 1e-6)
	assert.InDelta(t, 0.0, float64(dir[1]), 1e-6)
	assert.InDelta(t, 0.8, float64(dir[2]), 1e-6)

	// Zero-length input must not produce NaNs.
	l.SetDirection(0, 0, 0)
	assert.Equal(t, [3]float32{0, 0, 0}, l.Direction())
}

func TestGPULightMarshalLayout(t *testing.T) {
	g := GPULight{
		Position:   [3]float32{1, 2, 3},
		LightType:  uint32(LightTypeSpot),
		Color:      [3]float32{0.1, 0.2, 0.3},
		Intensity:  5,
		Direction:  [3]float32{0, -1, 0},
		LightRange: 12,
		InnerCone:  0.9,
		OuterCone:  0.8,
	}

	require.Equal(t, 64, g.Size())
	buf := g.Marshal()
	require.Len(t, buf, 64)

	assert.Equal(t, float32(1), f32At(t, buf, 0))
	assert.Equal(t, float32(2), f32At(t, buf, 4))
	assert.Equal(t, float32(3), f32At(t, buf, 8))
	assert.Equal(t, uint32(LightTypeSpot), u32At(t, buf, 12))
	assert.Equal(t, float32(0.1), f32At(t, buf, 16))
	assert.Equal(t, float32(5), f32At(t, buf, 28))
	assert.Equal(t, float32(-1), f32At(t, buf, 36))
	assert.Equal(t, float32(12), f32At(t, buf, 44))
	assert.Equal(t, float32(0.9), f32At(t, buf, 48))
	assert.Equal(t, float32(0.8), f32At(t, buf, 52))
	assert.Equal(t, uint32(0), u32At(t, buf, 56))
	assert.Equal(t, uint32(0), u32At(t, buf, 60))
}

func TestGPULightParamsMarshal(t *testing.T) {
	p := GPULightParams{LightCount: 7}

	require.Equal(t, 16, p.Size())
	buf := p.Marshal()
	require.Len(t, buf, 16)

	assert.Equal(t, uint32(7), u32At(t, buf, 0))
	assert.Equal(t, uint32(0), u32At(t, buf, 4))
	assert.Equal(t, uint32(0), u32At(t, buf, 8))
	assert.Equal(t, uint32(0), u32At(t, buf, 12))
}

func TestToGPULight(t *testing.T) {
	l := NewLight(LightTypeDirectional,
		WithDirection(0, -1, 0),
		WithColor(1, 0.9, 0.8),
		WithIntensity(2),
	)

	g := ToGPULight(l)
	assert.Equal(t, uint32(LightTypeDirectional), g.LightType)
	assert.Equal(t, [3]float32{0, -1, 0}, g.Direction)
	assert.Equal(t, [3]float32{1, 0.9, 0.8}, g.Color)
	assert.Equal(t, float32(2), g.Intensity)
}

func TestMarshalLightBufferSkipsDisabled(t *testing.T) {
	lights := []Light{
		NewLight(LightTypePoint, WithIntensity(1)),
		NewLight(LightTypePoint, WithIntensity(2), WithEnabled(false)),
		NewLight(LightTypePoint, WithIntensity(3)),
	}

	buf, count := MarshalLightBuffer(lights)
	require.Equal(t, uint32(2), count)
	require.Len(t, buf, 2*64)

	assert.Equal(t, float32(1), f32At(t, buf, 28))
	assert.Equal(t, float32(3), f32At(t, buf, 64+28))
}

func TestMarshalLightBufferClampsToBudget(t *testing.T) {
	lights := make([]Light, 0, MaxGPULights+5)
	for i := 0; i < MaxGPULights+5; i++ {
		lights = append(lights, NewLight(LightTypePoint, WithIntensity(float32(i))))
	}

	buf, count := MarshalLightBuffer(lights)
	assert.Equal(t, uint32(MaxGPULights), count)
	assert.Len(t, buf, MaxGPULights*64)

	// Lights are taken in submission order; the last written is index MaxGPULights-1.
	last := f32At(t, buf, (MaxGPULights-1)*64+28)
	assert.Equal(t, float32(MaxGPULights-1), last)
}

func TestMarshalLightBufferEmpty(t *testing.T) {
	buf, count := MarshalLightBuffer(nil)
	assert.Equal(t, uint32(0), count)
	assert.Empty(t, buf)
}
