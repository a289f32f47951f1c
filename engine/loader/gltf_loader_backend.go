package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-vanguard/engine/model"
)

// gltfLoaderBackendImpl is the implementation of gltfLoaderBackend.
type gltfLoaderBackendImpl struct {
	importer gltfImporter
}

// gltfLoaderBackend is a loaderBackend implementation for glTF/GLB resources.
// It delegates to the gltfImporter for parsing and extraction.
type gltfLoaderBackend interface {
	loaderBackend
}

var _ gltfLoaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates a new glTF loader backend.
//
// Returns:
//   - gltfLoaderBackend: the loader backend for glTF/GLB resources
func newGLTFLoaderBackend() gltfLoaderBackend {
	return &gltfLoaderBackendImpl{
		importer: newGLTFImporter(),
	}
}

func (b *gltfLoaderBackendImpl) Decode(name string, data []byte, resolve uriResolver) (*model.ImportedModel, error) {
	return b.importer.ImportBytes(name, data, resolve)
}

func (b *gltfLoaderBackendImpl) DecodeReader(name string, r io.Reader, isGLB bool) (*model.ImportedModel, error) {
	return b.importer.ImportReader(name, r, isGLB)
}
