package animation

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-vanguard/engine/model"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestSampleTrackLinear(t *testing.T) {
	track := &model.KeyframeTrack{
		NodeName: "Hips",
		Path:     model.TrackPathTranslation,
		Times:    []float32{0, 1, 2},
		Values:   []float32{0, 0, 0, 2, 0, 0, 2, 4, 0},
	}

	cases := []struct {
		name string
		t    float32
		want []float32
	}{
		{name: "before first key", t: -1, want: []float32{0, 0, 0}},
		{name: "midpoint", t: 0.5, want: []float32{1, 0, 0}},
		{name: "on key", t: 1, want: []float32{2, 0, 0}},
		{name: "second segment", t: 1.25, want: []float32{2, 1, 0}},
		{name: "after last key", t: 5, want: []float32{2, 4, 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := make([]float32, 3)
			sampleTrack(track, tc.t, out)
			assert.InDeltaSlice(t, tc.want, out, 1e-6)
		})
	}
}

func TestSampleTrackStep(t *testing.T) {
	track := &model.KeyframeTrack{
		Path:          model.TrackPathScale,
		Interpolation: model.InterpolationStep,
		Times:         []float32{0, 1},
		Values:        []float32{1, 1, 1, 3, 3, 3},
	}

	out := make([]float32, 3)
	sampleTrack(track, 0.99, out)
	assert.Equal(t, []float32{1, 1, 1}, out)

	sampleTrack(track, 1, out)
	assert.Equal(t, []float32{3, 3, 3}, out)
}

func TestSampleTrackCubicSpline(t *testing.T) {
	// Per key: in-tangent, value, out-tangent. Zero tangents give a smoothstep.
	track := &model.KeyframeTrack{
		Path:          model.TrackPathWeights,
		Interpolation: model.InterpolationCubicSpline,
		Times:         []float32{0, 1},
		Values:        []float32{0, 0, 0, 0, 1, 0},
	}

	out := make([]float32, 1)
	sampleTrack(track, 0.5, out)
	assert.InDelta(t, 0.5, out[0], 1e-6)

	sampleTrack(track, 0.25, out)
	assert.InDelta(t, 0.15625, out[0], 1e-6)

	sampleTrack(track, 2, out)
	assert.InDelta(t, 1, out[0], 1e-6)
}

func TestSampleTrackRotationSlerp(t *testing.T) {
	s := math32.Sin(math32.Pi / 4)
	c := math32.Cos(math32.Pi / 4)
	track := &model.KeyframeTrack{
		Path:   model.TrackPathRotation,
		Times:  []float32{0, 1},
		Values: []float32{0, 0, 0, 1, 0, 0, s, c}, // identity -> 90 degrees about Z
	}

	out := make([]float32, 4)
	sampleTrack(track, 0.5, out)

	want := []float32{0, 0, math32.Sin(math32.Pi / 8), math32.Cos(math32.Pi / 8)}
	assert.InDeltaSlice(t, want, out, 1e-5)
}

func TestFadeValue(t *testing.T) {
	f := &fade{start: 2, end: 4, from: 1, to: 0}
	assert.Equal(t, float32(1), f.value(1))
	assert.InDelta(t, 0.5, f.value(3), 1e-6)
	assert.Equal(t, float32(0), f.value(4))

	instant := &fade{start: 2, end: 2, from: 0, to: 1}
	assert.Equal(t, float32(1), instant.value(2))
}
