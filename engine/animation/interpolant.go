package animation

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-vanguard/common"
	"github.com/Carmen-Shannon/oxy-vanguard/engine/model"
)

// sampleTrack evaluates a keyframe track at time t and writes ValueSize() components into out.
// Times before the first key clamp to the first value, times after the last key to the last value.
// Rotation tracks are interpolated with slerp (LINEAR) or renormalized after Hermite evaluation
// (CUBICSPLINE).
//
// Parameters:
//   - track: the validated track to sample
//   - t: the clip-local time in seconds
//   - out: destination slice of at least ValueSize() elements
func sampleTrack(track *model.KeyframeTrack, t float32, out []float32) {
	size := track.ValueSize()
	times := track.Times
	n := len(times)
	if n == 0 || size == 0 {
		return
	}

	cubic := track.Interpolation == model.InterpolationCubicSpline

	if n == 1 || t <= times[0] {
		copy(out[:size], keyValue(track.Values, 0, size, cubic))
		return
	}
	if t >= times[n-1] {
		copy(out[:size], keyValue(track.Values, n-1, size, cubic))
		return
	}

	// i is the last key with times[i] <= t.
	i := sort.Search(n, func(k int) bool { return times[k] > t }) - 1
	t0, t1 := times[i], times[i+1]
	dt := t1 - t0
	alpha := float32(0)
	if dt > 0 {
		alpha = (t - t0) / dt
	}

	switch track.Interpolation {
	case model.InterpolationStep:
		copy(out[:size], keyValue(track.Values, i, size, false))
	case model.InterpolationCubicSpline:
		hermite(track.Values, i, size, alpha, dt, out)
		if track.Path == model.TrackPathRotation {
			common.QuatNormalize(out[:size])
		}
	default:
		a := keyValue(track.Values, i, size, false)
		b := keyValue(track.Values, i+1, size, false)
		if track.Path == model.TrackPathRotation {
			common.QuatSlerpInto(out[:size], a, b, alpha)
		} else {
			common.LerpInto(out[:size], a, b, alpha)
		}
	}
}

// keyValue returns the value slice of key i. Cubic spline keys store in-tangent, value and
// out-tangent consecutively; the value is the middle element.
func keyValue(values []float32, i, size int, cubic bool) []float32 {
	if cubic {
		base := i * size * 3
		return values[base+size : base+2*size]
	}
	return values[i*size : (i+1)*size]
}

// hermite evaluates the glTF cubic spline between keys i and i+1.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#appendix-c-interpolation
func hermite(values []float32, i, size int, s, dt float32, out []float32) {
	stride := size * 3
	base0 := i * stride
	base1 := (i + 1) * stride

	s2 := s * s
	s3 := s2 * s
	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2

	for c := 0; c < size; c++ {
		p0 := values[base0+size+c]
		m0 := values[base0+2*size+c] * dt
		p1 := values[base1+size+c]
		m1 := values[base1+c] * dt
		out[c] = h00*p0 + h10*m0 + h01*p1 + h11*m1
	}
}
