package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-vanguard/engine/model"
)

// gltfAnimationExtractorImpl is the implementation of the gltfAnimationExtractor interface.
type gltfAnimationExtractorImpl struct {
	parser gltfParser
}

// gltfAnimationExtractor defines the interface for extracting animation data from a parsed glTF document.
// It converts glTF animation definitions into AnimationClips whose tracks keep the channel order of
// the source file. Track order is significant: callers may strip leading tracks (e.g. baked root motion).
type gltfAnimationExtractor interface {
	// ExtractAnimation extracts a single animation by index.
	//
	// Parameters:
	//   - animIndex: the index of the animation in the document
	//
	// Returns:
	//   - *model.AnimationClip: the extracted animation clip
	//   - error: error if extraction fails
	ExtractAnimation(animIndex int) (*model.AnimationClip, error)

	// ExtractAllAnimations extracts every animation from the document.
	//
	// Returns:
	//   - []*model.AnimationClip: all extracted animation clips in document order
	//   - error: error if extraction fails
	ExtractAllAnimations() ([]*model.AnimationClip, error)
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

// newGLTFAnimationExtractor creates a new animation extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfAnimationExtractor: the animation extractor
func newGLTFAnimationExtractor(parser gltfParser) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{parser: parser}
}

func (e *gltfAnimationExtractorImpl) ExtractAnimation(animIndex int) (*model.AnimationClip, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	if animIndex < 0 || animIndex >= len(doc.Animations) {
		return nil, fmt.Errorf("animation index %d out of range", animIndex)
	}

	anim := &doc.Animations[animIndex]

	name := anim.Name
	if name == "" {
		name = fmt.Sprintf("animation_%d", animIndex)
	}

	clip := &model.AnimationClip{Name: name}

	for i := range anim.Channels {
		ch := &anim.Channels[i]

		// Channels without a target node are allowed by glTF for extensions; nothing to bind.
		if ch.Target.Node == nil {
			continue
		}
		nodeIndex := *ch.Target.Node
		if nodeIndex < 0 || nodeIndex >= len(doc.Nodes) {
			return nil, fmt.Errorf("animation %q channel %d: node %d out of range", name, i, nodeIndex)
		}

		path, ok := gltfTrackPath(ch.Target.Path)
		if !ok {
			continue
		}

		if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			return nil, fmt.Errorf("animation %q channel %d: invalid sampler index %d", name, i, ch.Sampler)
		}
		sampler := &anim.Samplers[ch.Sampler]

		times, err := e.parser.ReadScalarAccessor(sampler.Input)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: failed to read timestamps: %w", name, i, err)
		}

		values, _, err := e.parser.ReadFloatAccessor(sampler.Output)
		if err != nil {
			return nil, fmt.Errorf("animation %q channel %d: failed to read %s values: %w", name, i, path, err)
		}

		track := model.KeyframeTrack{
			NodeName:      gltfNodeName(doc, nodeIndex),
			Path:          path,
			Interpolation: gltfInterpolation(sampler.Interpolation),
			Times:         times,
			Values:        values,
		}
		if err := track.Validate(); err != nil {
			return nil, fmt.Errorf("animation %q channel %d: %w", name, i, err)
		}
		if want := path.Components(); want > 0 && track.ValueSize() != want {
			return nil, fmt.Errorf("animation %q channel %d: %s expects %d components, got %d", name, i, path, want, track.ValueSize())
		}

		clip.Tracks = append(clip.Tracks, track)
	}

	clip.ResetDuration()
	return clip, nil
}

func (e *gltfAnimationExtractorImpl) ExtractAllAnimations() ([]*model.AnimationClip, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	clips := make([]*model.AnimationClip, len(doc.Animations))
	for i := range doc.Animations {
		clip, err := e.ExtractAnimation(i)
		if err != nil {
			return nil, fmt.Errorf("animation %d: %w", i, err)
		}
		clips[i] = clip
	}

	return clips, nil
}

// --- Helper Functions ---

// gltfTrackPath maps a glTF channel path to a model.TrackPath.
func gltfTrackPath(path string) (model.TrackPath, bool) {
	switch path {
	case gltfAnimPathTranslation:
		return model.TrackPathTranslation, true
	case gltfAnimPathRotation:
		return model.TrackPathRotation, true
	case gltfAnimPathScale:
		return model.TrackPathScale, true
	case gltfAnimPathWeights:
		return model.TrackPathWeights, true
	default:
		return "", false
	}
}

// gltfInterpolation maps a glTF sampler interpolation to a model.Interpolation (LINEAR when unset).
func gltfInterpolation(interp string) model.Interpolation {
	switch interp {
	case gltfAnimInterpolationStep:
		return model.InterpolationStep
	case gltfAnimInterpolationCubicSpline:
		return model.InterpolationCubicSpline
	default:
		return model.InterpolationLinear
	}
}
