package loader

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/vega-go/common"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

type gltfLoaderBackend struct {
	mu   sync.Mutex
	docs map[string]*gltf.Document
}

var _ loaderBackend = &gltfLoaderBackend{}

func newGLTFLoaderBackend() *gltfLoaderBackend {
	return &gltfLoaderBackend{
		docs: make(map[string]*gltf.Document),
	}
}

// document returns the parsed document for path, opening and caching it on
// first use. Repeated loads against the same path reuse the cached document.
func (g *gltfLoaderBackend) document(path string) (*gltf.Document, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if doc, ok := g.docs[path]; ok {
		return doc, nil
	}

	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening gltf document %s", path)
	}
	g.docs[path] = doc
	return doc, nil
}

func (g *gltfLoaderBackend) loadMesh(path string, sel Selector) ([]common.ImportedPrimitive, error) {
	doc, err := g.document(path)
	if err != nil {
		return nil, err
	}

	idx := -1
	switch sel.Kind {
	case SelectorFirst:
		if len(doc.Meshes) > 0 {
			idx = 0
		}
	case SelectorIndex:
		if sel.Index < len(doc.Meshes) {
			idx = sel.Index
		}
	case SelectorName:
		for i, m := range doc.Meshes {
			if m.Name == sel.Name {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return nil, errors.Errorf("mesh %s not found in %s", sel.String(), path)
	}

	mesh := doc.Meshes[idx]
	primitives := make([]common.ImportedPrimitive, 0, len(mesh.Primitives))
	for pi, prim := range mesh.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			return nil, errors.Errorf("primitive %d of mesh %d in %s has unsupported topology %d, only triangle lists are importable", pi, idx, path, prim.Mode)
		}

		imported, err := g.readPrimitive(doc, path, prim)
		if err != nil {
			return nil, errors.Wrapf(err, "reading primitive %d of mesh %d in %s", pi, idx, path)
		}
		primitives = append(primitives, imported)
	}
	if len(primitives) == 0 {
		return nil, errors.Errorf("mesh %s in %s has no triangle primitives", sel.String(), path)
	}
	return primitives, nil
}

func (g *gltfLoaderBackend) readPrimitive(doc *gltf.Document, path string, prim *gltf.Primitive) (common.ImportedPrimitive, error) {
	var out common.ImportedPrimitive

	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return out, errors.New("primitive has no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return out, errors.Wrap(err, "reading positions")
	}
	out.Positions = positions

	if normIdx, ok := prim.Attributes["NORMAL"]; ok {
		normals, err := modeler.ReadNormal(doc, doc.Accessors[normIdx], nil)
		if err != nil {
			return out, errors.Wrap(err, "reading normals")
		}
		out.Normals = normals
	}

	if uvIdx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[uvIdx], nil)
		if err != nil {
			return out, errors.Wrap(err, "reading texture coordinates")
		}
		out.UVs = uvs
	}

	if prim.Indices != nil {
		indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return out, errors.Wrap(err, "reading indices")
		}
		out.Indices = indices
	} else {
		// Non-indexed geometry gets a trivial index buffer so downstream
		// consumers only deal with indexed draws.
		out.Indices = make([]uint32, len(positions))
		for i := range out.Indices {
			out.Indices[i] = uint32(i)
		}
	}

	if prim.Material != nil {
		out.MaterialKey = ComposeKey(path, int(*prim.Material))
	}
	return out, nil
}

func (g *gltfLoaderBackend) loadMaterial(path string, sel Selector) (*common.ImportedMaterial, error) {
	doc, err := g.document(path)
	if err != nil {
		return nil, err
	}

	idx := -1
	switch sel.Kind {
	case SelectorFirst:
		if len(doc.Materials) > 0 {
			idx = 0
		}
	case SelectorIndex:
		if sel.Index < len(doc.Materials) {
			idx = sel.Index
		}
	case SelectorName:
		for i, m := range doc.Materials {
			if m.Name == sel.Name {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return nil, errors.Errorf("material %s not found in %s", sel.String(), path)
	}

	mat := doc.Materials[idx]
	out := &common.ImportedMaterial{
		Name:        mat.Name,
		BaseColor:   [4]float32{1, 1, 1, 1},
		Metallic:    1,
		Roughness:   1,
		Emissive:    mat.EmissiveFactor,
		AlphaCutoff: 0.5,
		AlphaMask:   mat.AlphaMode == gltf.AlphaMask,
		DoubleSided: mat.DoubleSided,
	}
	if mat.AlphaCutoff != nil {
		out.AlphaCutoff = float32(*mat.AlphaCutoff)
	}

	if pbr := mat.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			out.BaseColor = *pbr.BaseColorFactor
		}
		if pbr.MetallicFactor != nil {
			out.Metallic = float32(*pbr.MetallicFactor)
		}
		if pbr.RoughnessFactor != nil {
			out.Roughness = float32(*pbr.RoughnessFactor)
		}
		if pbr.BaseColorTexture != nil {
			out.BaseColorTextureKey = ComposeKey(path, int(pbr.BaseColorTexture.Index))
		}
		if pbr.MetallicRoughnessTexture != nil {
			out.MetallicRoughnessTextureKey = ComposeKey(path, int(pbr.MetallicRoughnessTexture.Index))
		}
	}
	if mat.NormalTexture != nil && mat.NormalTexture.Index != nil {
		out.NormalTextureKey = ComposeKey(path, int(*mat.NormalTexture.Index))
	}
	if mat.EmissiveTexture != nil {
		out.EmissiveTextureKey = ComposeKey(path, int(mat.EmissiveTexture.Index))
	}
	return out, nil
}

func (g *gltfLoaderBackend) loadTexture(path string, sel Selector) (*common.ImportedTexture, error) {
	doc, err := g.document(path)
	if err != nil {
		return nil, err
	}

	idx := -1
	switch sel.Kind {
	case SelectorFirst:
		if len(doc.Textures) > 0 {
			idx = 0
		}
	case SelectorIndex:
		if sel.Index < len(doc.Textures) {
			idx = sel.Index
		}
	case SelectorName:
		for i, t := range doc.Textures {
			if t.Name == sel.Name {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return nil, errors.Errorf("texture %s not found in %s", sel.String(), path)
	}

	tex := doc.Textures[idx]
	if tex.Source == nil {
		return nil, errors.Errorf("texture %d in %s has no image source", idx, path)
	}
	if int(*tex.Source) >= len(doc.Images) {
		return nil, errors.Errorf("texture %d in %s references image %d out of range", idx, path, *tex.Source)
	}
	img := doc.Images[*tex.Source]

	out := &common.ImportedTexture{
		Name:     tex.Name,
		MimeType: img.MimeType,
	}
	if tex.Sampler != nil {
		out.SamplerKey = ComposeKey(path, int(*tex.Sampler))
	}

	if err := g.resolveImage(doc, path, img, out); err != nil {
		return nil, errors.Wrapf(err, "loading image for texture %d in %s", idx, path)
	}
	return out, nil
}

// resolveImage fills the texture's Data or Path from whichever source the
// document uses: an embedded data URI, a buffer view, or an external file
// resolved relative to the document's directory.
func (g *gltfLoaderBackend) resolveImage(doc *gltf.Document, path string, img *gltf.Image, out *common.ImportedTexture) error {
	switch {
	case strings.HasPrefix(img.URI, "data:"):
		comma := strings.Index(img.URI, ",")
		if comma < 0 {
			return errors.New("malformed data URI")
		}
		data, err := base64.StdEncoding.DecodeString(img.URI[comma+1:])
		if err != nil {
			return errors.Wrap(err, "decoding data URI")
		}
		out.Data = data
	case img.URI != "":
		out.Path = filepath.Join(filepath.Dir(path), img.URI)
		if _, err := os.Stat(out.Path); err != nil {
			return errors.Wrapf(err, "resolving image file %s", img.URI)
		}
	case img.BufferView != nil:
		if int(*img.BufferView) >= len(doc.BufferViews) {
			return errors.Errorf("image buffer view %d out of range", *img.BufferView)
		}
		view := doc.BufferViews[*img.BufferView]
		if int(view.Buffer) >= len(doc.Buffers) {
			return errors.Errorf("buffer view references buffer %d out of range", view.Buffer)
		}
		buf := doc.Buffers[view.Buffer]
		end := view.ByteOffset + view.ByteLength
		if int(end) > len(buf.Data) {
			return errors.New("image buffer view exceeds buffer length")
		}
		out.Data = buf.Data[view.ByteOffset:end]
	default:
		return errors.New("image has no URI and no buffer view")
	}
	return nil
}

func (g *gltfLoaderBackend) loadSampler(path string, sel Selector) (*common.ImportedSampler, error) {
	doc, err := g.document(path)
	if err != nil {
		return nil, err
	}

	idx := -1
	switch sel.Kind {
	case SelectorFirst:
		if len(doc.Samplers) > 0 {
			idx = 0
		}
	case SelectorIndex:
		if sel.Index < len(doc.Samplers) {
			idx = sel.Index
		}
	case SelectorName:
		for i, s := range doc.Samplers {
			if s.Name == sel.Name {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return nil, errors.Errorf("sampler %s not found in %s", sel.String(), path)
	}

	smp := doc.Samplers[idx]
	return &common.ImportedSampler{
		Name:      smp.Name,
		MagFilter: gltfMagFilter(smp.MagFilter),
		MinFilter: gltfMinFilter(smp.MinFilter),
		WrapS:     gltfWrap(smp.WrapS),
		WrapT:     gltfWrap(smp.WrapT),
	}, nil
}

func gltfMagFilter(f gltf.MagFilter) common.SamplerFilter {
	switch f {
	case gltf.MagNearest:
		return common.SamplerFilterNearest
	case gltf.MagLinear:
		return common.SamplerFilterLinear
	default:
		return common.SamplerFilterUndefined
	}
}

func gltfMinFilter(f gltf.MinFilter) common.SamplerFilter {
	switch f {
	case gltf.MinNearest:
		return common.SamplerFilterNearest
	case gltf.MinLinear:
		return common.SamplerFilterLinear
	case gltf.MinNearestMipMapNearest:
		return common.SamplerFilterNearestMipmapNearest
	case gltf.MinLinearMipMapNearest:
		return common.SamplerFilterLinearMipmapNearest
	case gltf.MinNearestMipMapLinear:
		return common.SamplerFilterNearestMipmapLinear
	case gltf.MinLinearMipMapLinear:
		return common.SamplerFilterLinearMipmapLinear
	default:
		return common.SamplerFilterUndefined
	}
}

func gltfWrap(w gltf.WrappingMode) common.SamplerWrap {
	switch w {
	case gltf.WrapClampToEdge:
		return common.SamplerWrapClampToEdge
	case gltf.WrapMirroredRepeat:
		return common.SamplerWrapMirroredRepeat
	case gltf.WrapRepeat:
		return common.SamplerWrapRepeat
	default:
		return common.SamplerWrapUndefined
	}
}
