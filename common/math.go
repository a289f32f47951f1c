package common

import (
	"github.com/chewxy/math32"
)

// Lerp linearly interpolates between a and b by t.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Clamp restricts v to the closed range [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// LerpInto writes the component-wise interpolation of a and b by t into out.
// All three slices must have the same length.
//
// Parameters:
//   - out: destination slice
//   - a: value at t = 0
//   - b: value at t = 1
//   - t: interpolation factor
func LerpInto(out, a, b []float32, t float32) {
	for i := range out {
		out[i] = a[i] + (b[i]-a[i])*t
	}
}

// QuatNormalize normalizes a quaternion (x, y, z, w) in place.
// A zero-length quaternion is reset to identity.
func QuatNormalize(q []float32) {
	l := math32.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if l < 1e-8 {
		q[0], q[1], q[2], q[3] = 0, 0, 0, 1
		return
	}
	inv := 1 / l
	q[0] *= inv
	q[1] *= inv
	q[2] *= inv
	q[3] *= inv
}

// QuatSlerpInto spherically interpolates between unit quaternions a and b and writes the
// normalized result to out. The shortest arc is always taken.
//
// Parameters:
//   - out: destination quaternion (x, y, z, w); may alias a
//   - a: quaternion at t = 0
//   - b: quaternion at t = 1
//   - t: interpolation factor
func QuatSlerpInto(out, a, b []float32, t float32) {
	ax, ay, az, aw := a[0], a[1], a[2], a[3]
	bx, by, bz, bw := b[0], b[1], b[2], b[3]

	cosHalf := ax*bx + ay*by + az*bz + aw*bw
	if cosHalf < 0 {
		bx, by, bz, bw = -bx, -by, -bz, -bw
		cosHalf = -cosHalf
	}

	var s0, s1 float32
	if cosHalf > 0.9995 {
		// Nearly parallel: fall back to nlerp to avoid dividing by sin(~0).
		s0 = 1 - t
		s1 = t
	} else {
		theta := math32.Acos(cosHalf)
		sinTheta := math32.Sin(theta)
		s0 = math32.Sin((1-t)*theta) / sinTheta
		s1 = math32.Sin(t*theta) / sinTheta
	}

	out[0] = ax*s0 + bx*s1
	out[1] = ay*s0 + by*s1
	out[2] = az*s0 + bz*s1
	out[3] = aw*s0 + bw*s1
	QuatNormalize(out)
}

// MatrixToQuaternion converts a row-major 3x3 rotation matrix into a normalized quaternion (x, y, z, w).
func MatrixToQuaternion(m [9]float32) [4]float32 {
	r00, r01, r02 := m[0], m[1], m[2]
	r10, r11, r12 := m[3], m[4], m[5]
	r20, r21, r22 := m[6], m[7], m[8]

	trace := r00 + r11 + r22

	var q [4]float32
	switch {
	case trace > 0:
		s := math32.Sqrt(trace+1) * 2
		q = [4]float32{(r21 - r12) / s, (r02 - r20) / s, (r10 - r01) / s, 0.25 * s}
	case r00 > r11 && r00 > r22:
		s := math32.Sqrt(1+r00-r11-r22) * 2
		q = [4]float32{0.25 * s, (r01 + r10) / s, (r02 + r20) / s, (r21 - r12) / s}
	case r11 > r22:
		s := math32.Sqrt(1+r11-r00-r22) * 2
		q = [4]float32{(r01 + r10) / s, 0.25 * s, (r12 + r21) / s, (r02 - r20) / s}
	default:
		s := math32.Sqrt(1+r22-r00-r11) * 2
		q = [4]float32{(r02 + r20) / s, (r12 + r21) / s, 0.25 * s, (r10 - r01) / s}
	}

	QuatNormalize(q[:])
	return q
}

// Vec3Length returns the Euclidean length of (x, y, z).
func Vec3Length(x, y, z float32) float32 {
	return math32.Sqrt(x*x + y*y + z*z)
}
