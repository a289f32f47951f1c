package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-vanguard/common"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/model"
)

// gltfNodeExtractorImpl is the implementation of the gltfNodeExtractor interface.
type gltfNodeExtractorImpl struct {
	parser gltfParser
}

// gltfNodeExtractor extracts the node hierarchy of a parsed glTF document.
// Animation clips loaded from separate files bind to these nodes by name, so every node gets a
// stable, unique name even when the source leaves it blank.
type gltfNodeExtractor interface {
	// ExtractNodes converts every glTF node into a model.Node with its parent link and rest transform.
	//
	// Returns:
	//   - []model.Node: nodes in document order
	//   - []int32: indices of root nodes
	//   - map[string]int32: node name to index lookup
	//   - error: error if the hierarchy is malformed
	ExtractNodes() ([]model.Node, []int32, map[string]int32, error)
}

var _ gltfNodeExtractor = &gltfNodeExtractorImpl{}

// newGLTFNodeExtractor creates a new node extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfNodeExtractor: the node extractor
func newGLTFNodeExtractor(parser gltfParser) gltfNodeExtractor {
	return &gltfNodeExtractorImpl{parser: parser}
}

func (e *gltfNodeExtractorImpl) ExtractNodes() ([]model.Node, []int32, map[string]int32, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, nil, nil, fmt.Errorf("no document loaded")
	}

	nodes := make([]model.Node, len(doc.Nodes))
	for i := range nodes {
		nodes[i].ParentIndex = -1
	}

	for i := range doc.Nodes {
		src := &doc.Nodes[i]
		nodes[i].Name = gltfNodeName(doc, i)
		nodes[i].Rest = gltfExtractNodeTransform(src)
		if len(src.Weights) > 0 {
			nodes[i].MorphWeights = append([]float32(nil), src.Weights...)
		}

		for _, child := range src.Children {
			if child < 0 || child >= len(nodes) {
				return nil, nil, nil, fmt.Errorf("node %d: child index %d out of range", i, child)
			}
			if nodes[child].ParentIndex >= 0 {
				return nil, nil, nil, fmt.Errorf("node %d has more than one parent", child)
			}
			nodes[child].ParentIndex = int32(i)
		}
	}

	var roots []int32
	nameToIndex := make(map[string]int32, len(nodes))
	for i := range nodes {
		if nodes[i].ParentIndex < 0 {
			roots = append(roots, int32(i))
		}
		if _, taken := nameToIndex[nodes[i].Name]; !taken {
			nameToIndex[nodes[i].Name] = int32(i)
		}
	}

	return nodes, roots, nameToIndex, nil
}

// --- Helper Functions ---

// gltfNodeName returns the node's name, falling back to "node_<index>" for unnamed nodes.
func gltfNodeName(doc *gltfDocument, index int) string {
	if name := doc.Nodes[index].Name; name != "" {
		return name
	}
	return fmt.Sprintf("node_%d", index)
}

// gltfExtractNodeTransform extracts the TRS transform from a glTF node.
func gltfExtractNodeTransform(node *gltfNode) model.Transform {
	if node.Matrix != nil {
		return gltfDecomposeMatrix(*node.Matrix)
	}

	transform := model.IdentityTransform()
	if node.Translation != nil {
		transform.Translation = *node.Translation
	}
	if node.Rotation != nil {
		transform.Rotation = *node.Rotation
	}
	if node.Scale != nil {
		transform.Scale = *node.Scale
	}

	return transform
}

// gltfDecomposeMatrix decomposes a 4x4 column-major matrix into translation, rotation (quaternion), and scale.
// This is an approximation that assumes no shear.
func gltfDecomposeMatrix(m [16]float32) model.Transform {
	var t model.Transform

	t.Translation = [3]float32{m[12], m[13], m[14]}

	sx := common.Vec3Length(m[0], m[1], m[2])
	sy := common.Vec3Length(m[4], m[5], m[6])
	sz := common.Vec3Length(m[8], m[9], m[10])
	t.Scale = [3]float32{sx, sy, sz}

	// Avoid division by zero
	if sx < 0.0001 {
		sx = 1
	}
	if sy < 0.0001 {
		sy = 1
	}
	if sz < 0.0001 {
		sz = 1
	}

	// Column j of the upper 3x3 divided by its scale becomes column j of the row-major rotation.
	r := [9]float32{
		m[0] / sx, m[4] / sy, m[8] / sz,
		m[1] / sx, m[5] / sy, m[9] / sz,
		m[2] / sx, m[6] / sy, m[10] / sz,
	}
	t.Rotation = common.MatrixToQuaternion(r)

	return t
}
