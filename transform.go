package trellis

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a position, unit orientation and uniform scale relative to a
// parent (or to the world origin for roots).
type Transform struct {
	Position    mgl32.Vec3
	Orientation mgl32.Quat
	Scale       float32
}

// IdentityTransform returns the transform that leaves points unchanged.
func IdentityTransform() Transform {
	return Transform{Orientation: mgl32.QuatIdent(), Scale: 1}
}

// Concat composes t (the parent) with child. The parent's scale and rotation
// are applied to the child's translation before the parent's translation:
//
//	p' = t.Position + t.Orientation * (t.Scale * (child.Position + ...))
//
// Concat is not commutative.
func (t Transform) Concat(child Transform) Transform {
	return Transform{
		Position:    t.Position.Add(t.Orientation.Rotate(child.Position.Mul(t.Scale))),
		Orientation: t.Orientation.Mul(child.Orientation),
		Scale:       t.Scale * child.Scale,
	}
}

// Inverse returns the transform that undoes t. A zero scale yields the
// identity, since the transform is not invertible.
func (t Transform) Inverse() Transform {
	if t.Scale == 0 {
		return IdentityTransform()
	}
	s := 1 / t.Scale
	rot := t.Orientation.Inverse()
	return Transform{
		Position:    rot.Rotate(t.Position.Mul(-s)),
		Orientation: rot,
		Scale:       s,
	}
}

// TransformPoint maps a point from local space into the space t is relative to.
func (t Transform) TransformPoint(p mgl32.Vec3) mgl32.Vec3 {
	return t.Position.Add(t.Orientation.Rotate(p.Mul(t.Scale)))
}

// Matrix returns the 4x4 affine matrix T * R * S.
func (t Transform) Matrix() mgl32.Mat4 {
	s := t.Scale
	return mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z()).
		Mul4(t.Orientation.Mat4()).
		Mul4(mgl32.Scale3D(s, s, s))
}

// ApproxEqual reports whether two transforms match within a small threshold.
func (t Transform) ApproxEqual(other Transform) bool {
	const eps = 1e-5
	return t.Position.ApproxEqualThreshold(other.Position, eps) &&
		quatSameRotation(t.Orientation, other.Orientation, eps) &&
		math.Abs(float64(t.Scale-other.Scale)) <= eps
}

// quatSameRotation treats q and -q as the same rotation.
func quatSameRotation(a, b mgl32.Quat, eps float32) bool {
	d := a.Dot(b)
	return math.Abs(float64(d)) >= 1-float64(eps)
}

// World up and its substitute when a gaze is nearly parallel to it.
var (
	worldUp    = mgl32.Vec3{0, 1, 0}
	fallbackUp = mgl32.Vec3{0, 0, 1}
)

// lookAtOrientation returns the rotation that points an object's -Z axis from
// eye toward target, with its +Y axis as close to up as possible. With a nil
// up, world up is used unless the gaze is within 0.99 of parallel to it.
func lookAtOrientation(eye, target mgl32.Vec3, up *mgl32.Vec3) mgl32.Quat {
	dir := target.Sub(eye)
	if dir.Len() < 1e-6 {
		return mgl32.QuatIdent()
	}
	dir = dir.Normalize()

	var u mgl32.Vec3
	switch {
	case up != nil && up.Len() > 1e-6:
		u = up.Normalize()
	case math.Abs(float64(dir.Dot(worldUp))) < 0.99:
		u = worldUp
	default:
		u = fallbackUp
	}
	right := dir.Cross(u)
	if right.Len() < 1e-6 {
		// Explicit up parallel to the gaze.
		right = dir.Cross(fallbackUp)
		if right.Len() < 1e-6 {
			right = dir.Cross(worldUp)
		}
	}
	right = right.Normalize()
	trueUp := right.Cross(dir)
	basis := mgl32.Mat3FromCols(right, trueUp, dir.Mul(-1))
	return mgl32.Mat4ToQuat(basis.Mat4()).Normalize()
}
