package loader

import "github.com/Carmen-Shannon/vega-go/common"

// loaderBackend is the internal surface a document-format backend must
// implement. Paths and selectors arrive already split by ParseKey.
type loaderBackend interface {
	loadMesh(path string, sel Selector) ([]common.ImportedPrimitive, error)
	loadMaterial(path string, sel Selector) (*common.ImportedMaterial, error)
	loadTexture(path string, sel Selector) (*common.ImportedTexture, error)
	loadSampler(path string, sel Selector) (*common.ImportedSampler, error)
}
