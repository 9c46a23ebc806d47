// Package mathx provides the small amount of vector, quaternion and matrix
// math the input core needs, layered over gonum's spatial and quaternion
// packages. Touch coordinates use r2.Vec, world-space positions and rays use
// r3.Vec, device rotations use quat.Number, and entity world transforms are
// 4x4 mat.Dense matrices in column-major row/col convention.
package mathx

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// QuatIdentity is the identity rotation.
var QuatIdentity = quat.Number{Real: 1}

// Ray is a world-space origin and direction.
type Ray struct {
	Origin    r3.Vec
	Direction r3.Vec
}

// Clamp limits v to the range [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// ClampVec2 limits the components of v to [min, max]. The second return is
// false if any component was outside the range.
func ClampVec2(v r2.Vec, min, max float64) (r2.Vec, bool) {
	if v.X < min || v.X > max || v.Y < min || v.Y > max {
		return r2.Vec{X: Clamp(v.X, min, max), Y: Clamp(v.Y, min, max)}, false
	}
	return v, true
}

// Lerp2 linearly interpolates between a and b by t.
func Lerp2(a, b r2.Vec, t float64) r2.Vec {
	return r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
}

// AngleBetween returns the angle in radians [0, pi] between a and b.
// Returns 0 if either vector has zero length.
func AngleBetween(a, b r3.Vec) float64 {
	if r3.Norm2(a) == 0 || r3.Norm2(b) == 0 {
		return 0
	}
	return math.Acos(Clamp(r3.Cos(a, b), -1, 1))
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// RotateVec rotates v by the unit quaternion q.
func RotateVec(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// AngularDelta returns the rotation that takes prev to curr.
func AngularDelta(prev, curr quat.Number) quat.Number {
	return quat.Mul(quat.Inv(prev), curr)
}

// TransformMatrix composes a 4x4 world matrix from a position and a unit
// rotation quaternion, with unit scale.
func TransformMatrix(pos r3.Vec, rot quat.Number) *mat.Dense {
	w, x, y, z := rot.Real, rot.Imag, rot.Jmag, rot.Kmag
	return mat.NewDense(4, 4, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y), pos.X,
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x), pos.Y,
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y), pos.Z,
		0, 0, 0, 1,
	})
}

// Identity4 returns a 4x4 identity matrix.
func Identity4() *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// TransformPoint applies the affine 4x4 matrix m to the point p.
func TransformPoint(m *mat.Dense, p r3.Vec) r3.Vec {
	var out mat.VecDense
	out.MulVec(m, mat.NewVecDense(4, []float64{p.X, p.Y, p.Z, 1}))
	return r3.Vec{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// InverseTransformPoint applies the inverse of m to p, converting a world
// space point into the matrix's local space. Returns false if m is singular.
func InverseTransformPoint(m *mat.Dense, p r3.Vec) (r3.Vec, bool) {
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil {
		return r3.Vec{}, false
	}
	return TransformPoint(&inv, p), true
}
