package asset

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/vega-go/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pkg/errors"
)

// VertexStride is the byte size of one interleaved vertex:
// position vec3 + normal vec3 + uv vec2.
const VertexStride = 32

// maxUint16Vertices is the largest vertex count addressable with 16-bit indices.
const maxUint16Vertices = 1 << 16

// PrimitiveRange describes one primitive's span within a mesh's shared
// vertex and index buffers.
type PrimitiveRange struct {
	// FirstIndex is the offset into the mesh index buffer, in indices.
	FirstIndex uint32

	// IndexCount is the number of indices drawn for this primitive.
	IndexCount uint32

	// BaseVertex is added to every index value at draw time; it is the
	// offset of the primitive's first vertex in the shared vertex buffer.
	BaseVertex int32

	// Bounds is the primitive's axis-aligned bounding box.
	Bounds common.AABB

	// Material is the material slot the primitive draws with.
	Material MaterialHandle
}

// Mesh is a GPU-resident mesh: one vertex buffer, one index buffer, and the
// per-primitive ranges into them.
type Mesh struct {
	VertexBuffer *wgpu.Buffer
	IndexBuffer  *wgpu.Buffer

	// IndexFormat records which index width the index buffer was packed with.
	IndexFormat wgpu.IndexFormat

	VertexCount int
	IndexCount  int

	Ranges []PrimitiveRange

	// Bounds is the union of all primitive bounds.
	Bounds common.AABB
}

// meshData is the CPU-side result of flattening imported primitives, ready
// for upload. Ranges carry no material; the manager resolves those.
type meshData struct {
	vertexBytes []byte
	indexBytes  []byte
	indexFormat wgpu.IndexFormat
	vertexCount int
	indexCount  int
	ranges      []PrimitiveRange
	bounds      common.AABB
}

// buildMeshData flattens imported primitives into one interleaved vertex
// buffer and one index buffer. Vertices are packed position/normal/uv at a
// 32-byte stride; missing normals default to +Y and missing UVs to the
// origin. Each primitive keeps its own index values and records the offset
// of its first vertex as BaseVertex. Indices pack as 16-bit when the total
// vertex count fits and no index value exceeds the 16-bit range, otherwise
// as 32-bit.
//
// Parameters:
//   - primitives: the imported primitives to flatten, in draw order.
//
// Returns:
//   - *meshData: the packed buffers and per-primitive ranges.
//   - error: if a primitive has no vertices or an index is out of range.
func buildMeshData(primitives []common.ImportedPrimitive) (*meshData, error) {
	totalVertices := 0
	totalIndices := 0
	use16 := true
	for i := range primitives {
		p := &primitives[i]
		if p.VertexCount() == 0 {
			return nil, errors.Errorf("primitive %d has no vertices", i)
		}
		for _, idx := range p.Indices {
			if int(idx) >= p.VertexCount() {
				return nil, errors.Errorf("primitive %d index %d exceeds vertex count %d", i, idx, p.VertexCount())
			}
			if idx >= maxUint16Vertices {
				use16 = false
			}
		}
		totalVertices += p.VertexCount()
		totalIndices += len(p.Indices)
	}
	if totalVertices > maxUint16Vertices {
		use16 = false
	}

	data := &meshData{
		vertexBytes: make([]byte, 0, totalVertices*VertexStride),
		vertexCount: totalVertices,
		indexCount:  totalIndices,
		ranges:      make([]PrimitiveRange, 0, len(primitives)),
		bounds:      common.EmptyAABB(),
	}
	if use16 {
		data.indexFormat = wgpu.IndexFormatUint16
		data.indexBytes = make([]byte, 0, totalIndices*2+2)
	} else {
		data.indexFormat = wgpu.IndexFormatUint32
		data.indexBytes = make([]byte, 0, totalIndices*4)
	}

	baseVertex := 0
	firstIndex := 0
	for i := range primitives {
		p := &primitives[i]

		for v := 0; v < p.VertexCount(); v++ {
			pos := p.Positions[v]
			normal := [3]float32{0, 1, 0}
			if v < len(p.Normals) {
				normal = p.Normals[v]
			}
			uv := [2]float32{0, 0}
			if v < len(p.UVs) {
				uv = p.UVs[v]
			}
			data.vertexBytes = appendFloat32(data.vertexBytes, pos[0], pos[1], pos[2])
			data.vertexBytes = appendFloat32(data.vertexBytes, normal[0], normal[1], normal[2])
			data.vertexBytes = appendFloat32(data.vertexBytes, uv[0], uv[1])
		}

		for _, idx := range p.Indices {
			if use16 {
				data.indexBytes = binary.LittleEndian.AppendUint16(data.indexBytes, uint16(idx))
			} else {
				data.indexBytes = binary.LittleEndian.AppendUint32(data.indexBytes, idx)
			}
		}

		bounds := common.AABBFromPoints(p.Positions)
		data.bounds.Merge(bounds)
		data.ranges = append(data.ranges, PrimitiveRange{
			FirstIndex: uint32(firstIndex),
			IndexCount: uint32(len(p.Indices)),
			BaseVertex: int32(baseVertex),
			Bounds:     bounds,
		})

		baseVertex += p.VertexCount()
		firstIndex += len(p.Indices)
	}

	// Buffer uploads must be 4-byte aligned; an odd 16-bit index count
	// leaves a 2-byte tail.
	if len(data.indexBytes)%4 != 0 {
		data.indexBytes = append(data.indexBytes, 0, 0)
	}

	return data, nil
}

func appendFloat32(buf []byte, values ...float32) []byte {
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}
