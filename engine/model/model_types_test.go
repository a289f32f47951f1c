package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runningClip() *AnimationClip {
	return &AnimationClip{
		Name:     "goofyrunning",
		Duration: 1,
		Tracks: []KeyframeTrack{
			{NodeName: "Hips", Path: TrackPathTranslation, Interpolation: InterpolationLinear, Times: []float32{0, 1}, Values: []float32{0, 0, 0, 0, 0, 5}},
			{NodeName: "Hips", Path: TrackPathRotation, Interpolation: InterpolationLinear, Times: []float32{0, 1}, Values: []float32{0, 0, 0, 1, 0, 0, 0, 1}},
			{NodeName: "Spine", Path: TrackPathScale, Interpolation: InterpolationStep, Times: []float32{0}, Values: []float32{1, 1, 1}},
		},
	}
}

func TestWithoutFirstTrackLeavesSourceIntact(t *testing.T) {
	clip := runningClip()

	stripped := clip.WithoutFirstTrack()

	require.Len(t, stripped.Tracks, 2)
	assert.Len(t, clip.Tracks, 3)
	assert.Equal(t, "Hips.rotation", stripped.Tracks[0].Name())
	assert.Equal(t, clip.Name, stripped.Name)
	assert.Equal(t, clip.Duration, stripped.Duration)
}

func TestWithoutFirstTrackOnEmptyClip(t *testing.T) {
	clip := &AnimationClip{Name: "empty"}
	assert.Empty(t, clip.WithoutFirstTrack().Tracks)
}

func TestTrackValueSize(t *testing.T) {
	clip := runningClip()
	assert.Equal(t, 3, clip.Tracks[0].ValueSize())
	assert.Equal(t, 4, clip.Tracks[1].ValueSize())

	cubic := KeyframeTrack{
		NodeName:      "Hips",
		Path:          TrackPathTranslation,
		Interpolation: InterpolationCubicSpline,
		Times:         []float32{0, 1},
		Values:        make([]float32, 2*3*3),
	}
	assert.Equal(t, 3, cubic.ValueSize())
	assert.NoError(t, cubic.Validate())
}

func TestTrackValidate(t *testing.T) {
	bad := KeyframeTrack{NodeName: "Hips", Path: TrackPathScale, Times: []float32{1, 0}, Values: []float32{1, 1, 1, 1, 1, 1}}
	assert.Error(t, bad.Validate())

	mismatch := KeyframeTrack{NodeName: "Hips", Path: TrackPathScale, Times: []float32{0, 1}, Values: []float32{1, 1, 1}}
	assert.Error(t, mismatch.Validate())

	empty := KeyframeTrack{NodeName: "Hips", Path: TrackPathScale}
	assert.Error(t, empty.Validate())
}

func TestResetDuration(t *testing.T) {
	clip := runningClip()
	clip.Duration = 0
	clip.ResetDuration()
	assert.Equal(t, float32(1), clip.Duration)
}

func TestFirstAnimation(t *testing.T) {
	var nilModel *ImportedModel
	assert.Nil(t, nilModel.FirstAnimation())
	assert.Nil(t, (&ImportedModel{}).FirstAnimation())

	clip := runningClip()
	m := &ImportedModel{Animations: []*AnimationClip{clip}}
	assert.Same(t, clip, m.FirstAnimation())
}

func TestTrackPathComponents(t *testing.T) {
	assert.Equal(t, 3, TrackPathTranslation.Components())
	assert.Equal(t, 4, TrackPathRotation.Components())
	assert.Equal(t, 3, TrackPathScale.Components())
	assert.Equal(t, 0, TrackPathWeights.Components())
}
