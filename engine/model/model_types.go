package model

import (
	"fmt"
)

// --- Transform & Node Types ---

// Transform represents a decomposed transform for animation interpolation.
type Transform struct {
	// Translation is the position offset.
	Translation [3]float32

	// Rotation is the orientation as a quaternion (x, y, z, w).
	Rotation [4]float32

	// Scale is the scale factor along each axis.
	Scale [3]float32
}

// IdentityTransform returns a transform with no translation, identity rotation and unit scale.
func IdentityTransform() Transform {
	return Transform{
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}
}

// Node is a single entry in a model's transform hierarchy. Animation tracks target nodes by name,
// which lets clips exported in separate files drive the same rig.
type Node struct {
	// Name is the node identifier used for track binding.
	Name string

	// ParentIndex is the index of the parent node (-1 for roots).
	ParentIndex int32

	// Rest is the node's local transform as authored (bind/rest pose).
	Rest Transform

	// MorphWeights are the default morph target weights, if any.
	MorphWeights []float32
}

// --- Animation Types ---

// TrackPath identifies which node property a KeyframeTrack animates.
type TrackPath string

const (
	// TrackPathTranslation animates a node's translation (3 components).
	TrackPathTranslation TrackPath = "translation"
	// TrackPathRotation animates a node's rotation quaternion (4 components).
	TrackPathRotation TrackPath = "rotation"
	// TrackPathScale animates a node's scale (3 components).
	TrackPathScale TrackPath = "scale"
	// TrackPathWeights animates a node's morph target weights (one component per target).
	TrackPathWeights TrackPath = "weights"
)

// Components returns the number of float components per keyframe value for fixed-size paths.
// Weights tracks return 0 since their size depends on the morph target count.
func (p TrackPath) Components() int {
	switch p {
	case TrackPathTranslation, TrackPathScale:
		return 3
	case TrackPathRotation:
		return 4
	default:
		return 0
	}
}

// Interpolation is the keyframe interpolation mode of a track.
type Interpolation string

const (
	// InterpolationLinear blends linearly between keyframes (slerp for rotations).
	InterpolationLinear Interpolation = "LINEAR"
	// InterpolationStep holds each keyframe value until the next keyframe.
	InterpolationStep Interpolation = "STEP"
	// InterpolationCubicSpline uses glTF cubic Hermite splines with in/out tangents.
	InterpolationCubicSpline Interpolation = "CUBICSPLINE"
)

// KeyframeTrack holds the keyframes for one property of one node.
type KeyframeTrack struct {
	// NodeName is the name of the animated node.
	NodeName string

	// Path is the animated property.
	Path TrackPath

	// Interpolation is the keyframe interpolation mode.
	Interpolation Interpolation

	// Times are the keyframe timestamps in seconds, ascending.
	Times []float32

	// Values are the flattened keyframe values. For CUBICSPLINE tracks each keyframe stores
	// in-tangent, value and out-tangent in that order.
	Values []float32
}

// Name returns the binding name of the track in "<node>.<path>" form.
func (t *KeyframeTrack) Name() string {
	return fmt.Sprintf("%s.%s", t.NodeName, t.Path)
}

// ValueSize returns the number of floats making up one sampled value of the track.
func (t *KeyframeTrack) ValueSize() int {
	if len(t.Times) == 0 {
		return 0
	}
	size := len(t.Values) / len(t.Times)
	if t.Interpolation == InterpolationCubicSpline {
		size /= 3
	}
	return size
}

// Validate checks that keyframe times are ascending and the value count matches the time count.
//
// Returns:
//   - error: error describing the first inconsistency found
func (t *KeyframeTrack) Validate() error {
	if len(t.Times) == 0 {
		return fmt.Errorf("track %s: no keyframes", t.Name())
	}
	stride := len(t.Times)
	if t.Interpolation == InterpolationCubicSpline {
		stride *= 3
	}
	if len(t.Values)%stride != 0 || len(t.Values) == 0 {
		return fmt.Errorf("track %s: %d values do not divide into %d keyframes", t.Name(), len(t.Values), len(t.Times))
	}
	for i := 1; i < len(t.Times); i++ {
		if t.Times[i] < t.Times[i-1] {
			return fmt.Errorf("track %s: keyframe times not ascending at %d", t.Name(), i)
		}
	}
	return nil
}

// AnimationClip represents a single named animation (samba, bellydance, etc.).
type AnimationClip struct {
	// Name is the animation identifier.
	Name string

	// Duration is the total length of the animation in seconds.
	Duration float32

	// Tracks are the keyframe tracks in source channel order.
	Tracks []KeyframeTrack
}

// Clone returns a copy of the clip whose track slice can be modified without affecting the original.
// Keyframe data is shared since tracks are never mutated in place.
func (c *AnimationClip) Clone() *AnimationClip {
	tracks := make([]KeyframeTrack, len(c.Tracks))
	copy(tracks, c.Tracks)
	return &AnimationClip{
		Name:     c.Name,
		Duration: c.Duration,
		Tracks:   tracks,
	}
}

// WithoutFirstTrack returns a copy of the clip with track 0 removed. This strips baked root
// motion from clips whose first channel translates the root node.
// The receiver is left untouched; a clip with no tracks is returned as a plain clone.
func (c *AnimationClip) WithoutFirstTrack() *AnimationClip {
	clone := c.Clone()
	if len(clone.Tracks) > 0 {
		clone.Tracks = clone.Tracks[1:]
	}
	return clone
}

// ResetDuration recomputes Duration from the last keyframe of every track.
func (c *AnimationClip) ResetDuration() {
	var maxTime float32
	for i := range c.Tracks {
		times := c.Tracks[i].Times
		if len(times) > 0 && times[len(times)-1] > maxTime {
			maxTime = times[len(times)-1]
		}
	}
	c.Duration = maxTime
}

// --- Import Types ---

// ImportedModel represents a model or clip file loaded from an external format.
type ImportedModel struct {
	// Name is the model identifier.
	Name string

	// Nodes is the full node hierarchy in file order.
	Nodes []Node

	// RootNodeIndices are indices of nodes with no parent.
	RootNodeIndices []int32

	// NodeNameToIndex maps node names to their indices for quick lookup.
	NodeNameToIndex map[string]int32

	// Animations are all animation clips bundled with the file, in file order.
	Animations []*AnimationClip
}

// FirstAnimation returns the first animation clip of the model, or nil when the file has none.
func (m *ImportedModel) FirstAnimation() *AnimationClip {
	if m == nil || len(m.Animations) == 0 {
		return nil
	}
	return m.Animations[0]
}
