package loader

import (
	"fmt"
	"io"

	"github.com/Carmen-Shannon/oxy-vanguard/engine/model"
)

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct{}

// gltfImporter defines the interface for orchestrating a full glTF/GLB import.
// It combines the parser and the node and animation extractors to produce an ImportedModel.
type gltfImporter interface {
	// ImportBytes parses a complete glTF/GLB document and extracts nodes and animations.
	//
	// Parameters:
	//   - name: the fallback model name (usually the resource locator)
	//   - data: the document bytes
	//   - resolve: resolver for external buffer URIs (may be nil)
	//
	// Returns:
	//   - *model.ImportedModel: the populated imported model
	//   - error: error if import fails
	ImportBytes(name string, data []byte, resolve uriResolver) (*model.ImportedModel, error)

	// ImportReader loads a glTF document from a reader and extracts all data.
	// Only embedded (data URI or GLB) buffers are supported.
	//
	// Parameters:
	//   - name: the fallback model name
	//   - r: the reader providing glTF/GLB data
	//   - isGLB: true if the reader provides GLB binary data, false for glTF JSON
	//
	// Returns:
	//   - *model.ImportedModel: the populated imported model
	//   - error: error if import fails
	ImportReader(name string, r io.Reader, isGLB bool) (*model.ImportedModel, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter creates a new glTF importer.
//
// Returns:
//   - gltfImporter: the importer
func newGLTFImporter() gltfImporter {
	return &gltfImporterImpl{}
}

func (imp *gltfImporterImpl) ImportBytes(name string, data []byte, resolve uriResolver) (*model.ImportedModel, error) {
	parser := newGLTFParser(resolve)
	if err := parser.ParseBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	return imp.importFromParser(parser, name)
}

func (imp *gltfImporterImpl) ImportReader(name string, r io.Reader, isGLB bool) (*model.ImportedModel, error) {
	parser := newGLTFParser(nil)
	if err := parser.ParseReader(r, isGLB); err != nil {
		return nil, fmt.Errorf("failed to parse from reader: %w", err)
	}

	return imp.importFromParser(parser, name)
}

// importFromParser performs a full import from a parser that has already loaded a document.
//
// Parameters:
//   - parser: the glTF parser that has already loaded a document
//   - fallbackName: name used when the document's default scene is unnamed
func (imp *gltfImporterImpl) importFromParser(parser gltfParser, fallbackName string) (*model.ImportedModel, error) {
	doc := parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document after parsing")
	}

	nodeExtractor := newGLTFNodeExtractor(parser)
	animationExtractor := newGLTFAnimationExtractor(parser)

	nodes, roots, nameToIndex, err := nodeExtractor.ExtractNodes()
	if err != nil {
		return nil, fmt.Errorf("node extraction failed: %w", err)
	}

	animations, err := animationExtractor.ExtractAllAnimations()
	if err != nil {
		return nil, fmt.Errorf("animation extraction failed: %w", err)
	}

	return &model.ImportedModel{
		Name:            gltfExtractModelName(doc, fallbackName),
		Nodes:           nodes,
		RootNodeIndices: roots,
		NodeNameToIndex: nameToIndex,
		Animations:      animations,
	}, nil
}

// --- Helper Functions ---

// gltfExtractModelName derives a model name from the default scene or a fallback.
func gltfExtractModelName(doc *gltfDocument, fallbackName string) string {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		if name := doc.Scenes[*doc.Scene].Name; name != "" {
			return name
		}
	}

	if fallbackName != "" {
		return fallbackName
	}

	return "unnamed_model"
}
