package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-vanguard/engine/model"
)

// loaderBackend defines the generic interface for decoding fetched model resources.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Decode imports a model from the complete bytes of a resource.
	// This extracts the node hierarchy and all animations.
	//
	// Parameters:
	//   - name: the resource name used as a fallback model name
	//   - data: the fetched resource bytes
	//   - resolve: resolver for resources referenced relative to this one (may be nil)
	//
	// Returns:
	//   - *model.ImportedModel: the imported model data
	//   - error: error if decoding fails
	Decode(name string, data []byte, resolve uriResolver) (*model.ImportedModel, error)

	// DecodeReader imports a model from a reader stream.
	//
	// Parameters:
	//   - name: the resource name used as a fallback model name
	//   - r: the reader providing model data
	//   - isGLB: true if the reader provides GLB binary data, false for text-based formats
	//
	// Returns:
	//   - *model.ImportedModel: the imported model data
	//   - error: error if decoding fails
	DecodeReader(name string, r io.Reader, isGLB bool) (*model.ImportedModel, error)
}
