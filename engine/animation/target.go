package animation

import (
	"github.com/Carmen-Shannon/oxy-vanguard/engine/model"
)

// Target is the object a Mixer animates. Tracks bind to target nodes by name when an action is
// created; tracks naming nodes the target cannot resolve are skipped.
type Target interface {
	// ResolveNode maps a track's node name to a node index.
	//
	// Parameters:
	//   - name: the node name
	//
	// Returns:
	//   - int: the node index
	//   - bool: false if the target has no such node
	ResolveNode(name string) (int, bool)

	// RestValue returns the authored value of a node property. Mixers blend toward it when the
	// total weight of the playing actions is below one.
	//
	// Parameters:
	//   - node: the node index
	//   - path: the animated property
	//
	// Returns:
	//   - []float32: the rest value; nil if the node has no such property
	RestValue(node int, path model.TrackPath) []float32

	// SetValue writes a blended property value to the node.
	//
	// Parameters:
	//   - node: the node index
	//   - path: the animated property
	//   - value: the blended value (ValueSize components)
	SetValue(node int, path model.TrackPath, value []float32)
}

// rigTarget is the implementation of the RigTarget interface.
type rigTarget struct {
	nodes       []model.Node
	nameToIndex map[string]int32
	local       []model.Transform
	weights     [][]float32
}

// RigTarget is a Target backed by the node hierarchy of a loaded model. It keeps the current
// local transform of every node.
type RigTarget interface {
	Target

	// LocalTransform returns the current local transform of the named node.
	//
	// Parameters:
	//   - name: the node name
	//
	// Returns:
	//   - model.Transform: the current local transform
	//   - bool: false if the node does not exist
	LocalTransform(name string) (model.Transform, bool)

	// MorphWeights returns the current morph weights of the named node.
	//
	// Parameters:
	//   - name: the node name
	//
	// Returns:
	//   - []float32: the current weights; nil if the node has none
	MorphWeights(name string) []float32

	// NodeCount returns the number of nodes in the rig.
	NodeCount() int

	// ResetPose restores every node to its rest transform.
	ResetPose()
}

var _ RigTarget = &rigTarget{}

// NewRigTarget creates a RigTarget over the nodes of m. The model is not modified.
//
// Parameters:
//   - m: the imported model providing the node hierarchy
//
// Returns:
//   - RigTarget: the rig target in rest pose
func NewRigTarget(m *model.ImportedModel) RigTarget {
	r := &rigTarget{nameToIndex: make(map[string]int32)}
	if m == nil {
		return r
	}

	r.nodes = m.Nodes
	for name, idx := range m.NodeNameToIndex {
		r.nameToIndex[name] = idx
	}
	if len(r.nameToIndex) == 0 {
		for i := range m.Nodes {
			if _, ok := r.nameToIndex[m.Nodes[i].Name]; !ok {
				r.nameToIndex[m.Nodes[i].Name] = int32(i)
			}
		}
	}

	r.local = make([]model.Transform, len(m.Nodes))
	r.weights = make([][]float32, len(m.Nodes))
	r.ResetPose()
	return r
}

func (r *rigTarget) ResolveNode(name string) (int, bool) {
	idx, ok := r.nameToIndex[name]
	if !ok || int(idx) >= len(r.nodes) {
		return 0, false
	}
	return int(idx), true
}

func (r *rigTarget) RestValue(node int, path model.TrackPath) []float32 {
	if node < 0 || node >= len(r.nodes) {
		return nil
	}
	rest := r.nodes[node].Rest
	switch path {
	case model.TrackPathTranslation:
		return []float32{rest.Translation[0], rest.Translation[1], rest.Translation[2]}
	case model.TrackPathRotation:
		return []float32{rest.Rotation[0], rest.Rotation[1], rest.Rotation[2], rest.Rotation[3]}
	case model.TrackPathScale:
		return []float32{rest.Scale[0], rest.Scale[1], rest.Scale[2]}
	case model.TrackPathWeights:
		if len(r.nodes[node].MorphWeights) == 0 {
			return nil
		}
		return append([]float32(nil), r.nodes[node].MorphWeights...)
	default:
		return nil
	}
}

func (r *rigTarget) SetValue(node int, path model.TrackPath, value []float32) {
	if node < 0 || node >= len(r.local) {
		return
	}
	t := &r.local[node]
	switch path {
	case model.TrackPathTranslation:
		copy(t.Translation[:], value)
	case model.TrackPathRotation:
		copy(t.Rotation[:], value)
	case model.TrackPathScale:
		copy(t.Scale[:], value)
	case model.TrackPathWeights:
		copy(r.weights[node], value)
	}
}

func (r *rigTarget) LocalTransform(name string) (model.Transform, bool) {
	idx, ok := r.ResolveNode(name)
	if !ok {
		return model.Transform{}, false
	}
	return r.local[idx], true
}

func (r *rigTarget) MorphWeights(name string) []float32 {
	idx, ok := r.ResolveNode(name)
	if !ok {
		return nil
	}
	return r.weights[idx]
}

func (r *rigTarget) NodeCount() int {
	return len(r.nodes)
}

func (r *rigTarget) ResetPose() {
	for i := range r.nodes {
		r.local[i] = r.nodes[i].Rest
		if w := r.nodes[i].MorphWeights; len(w) > 0 {
			r.weights[i] = append(r.weights[i][:0], w...)
		}
	}
}
