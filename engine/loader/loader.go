package loader

import (
	"sync"

	"github.com/Carmen-Shannon/vega-go/common"
)

// LoaderBackendType is the type of backend the loader will use to import
// asset data from source files.
type LoaderBackendType int

const (
	// BackendTypeGLTF imports assets from glTF 2.0 documents (.gltf / .glb).
	BackendTypeGLTF LoaderBackendType = iota
)

type loader struct {
	mu sync.Mutex

	backend loaderBackend
}

// Loader is the import surface of the asset pipeline. Every operation takes
// an asset key of the form "path#selector" (see ParseKey) and returns
// CPU-side staging data that the asset manager uploads to the GPU.
//
// All operations are safe for concurrent use.
type Loader interface {
	// LoadMesh imports every primitive of the mesh addressed by the key.
	//
	// Parameters:
	//   - key: asset key addressing a mesh within a source document.
	//
	// Returns:
	//   - []common.ImportedPrimitive: the primitives of the mesh, in document order.
	//   - error: if the document cannot be read or the selector does not resolve.
	LoadMesh(key string) ([]common.ImportedPrimitive, error)

	// LoadMaterial imports the material addressed by the key.
	//
	// Parameters:
	//   - key: asset key addressing a material within a source document.
	//
	// Returns:
	//   - *common.ImportedMaterial: the resolved material factors and texture keys.
	//   - error: if the document cannot be read or the selector does not resolve.
	LoadMaterial(key string) (*common.ImportedMaterial, error)

	// LoadTexture imports the texture addressed by the key, decoding its image
	// payload to raw bytes where the source embeds it.
	//
	// Parameters:
	//   - key: asset key addressing a texture within a source document.
	//
	// Returns:
	//   - *common.ImportedTexture: the texture image data and sampler key.
	//   - error: if the document cannot be read or the selector does not resolve.
	LoadTexture(key string) (*common.ImportedTexture, error)

	// LoadSampler imports the sampler addressed by the key.
	//
	// Parameters:
	//   - key: asset key addressing a sampler within a source document.
	//
	// Returns:
	//   - *common.ImportedSampler: the sampler filter and wrap modes.
	//   - error: if the document cannot be read or the selector does not resolve.
	LoadSampler(key string) (*common.ImportedSampler, error)
}

var _ Loader = &loader{}

// NewLoader creates a new Loader using the given backend type.
//
// Parameters:
//   - backendType: the type of backend to use for importing assets.
//   - options: optional LoaderBuilderOptions to configure the loader.
//
// Returns:
//   - Loader: the new Loader instance.
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend()
	default:
		l.backend = newGLTFLoaderBackend()
	}

	for _, opt := range options {
		opt(l)
	}

	return l
}

func (l *loader) LoadMesh(key string) ([]common.ImportedPrimitive, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	path, sel := ParseKey(key)
	return l.backend.loadMesh(path, sel)
}

func (l *loader) LoadMaterial(key string) (*common.ImportedMaterial, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	path, sel := ParseKey(key)
	return l.backend.loadMaterial(path, sel)
}

func (l *loader) LoadTexture(key string) (*common.ImportedTexture, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	path, sel := ParseKey(key)
	return l.backend.loadTexture(path, sel)
}

func (l *loader) LoadSampler(key string) (*common.ImportedSampler, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	path, sel := ParseKey(key)
	return l.backend.loadSampler(path, sel)
}
