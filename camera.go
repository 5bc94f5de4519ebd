package trellis

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Projection maps view space to clip space.
type Projection interface {
	// Matrix returns the projection matrix for the given width/height ratio.
	Matrix(aspect float32) mgl32.Mat4
}

// Perspective is a perspective projection. FovY is in degrees. A zero Far
// plane means the frustum is infinite.
type Perspective struct {
	FovY      float32
	Near, Far float32
}

// Matrix implements Projection.
func (p Perspective) Matrix(aspect float32) mgl32.Mat4 {
	fovy := mgl32.DegToRad(p.FovY)
	if p.Far > 0 {
		return mgl32.Perspective(fovy, aspect, p.Near, p.Far)
	}
	f := float32(1 / math.Tan(float64(fovy)/2))
	return mgl32.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, -1, -1,
		0, 0, -2 * p.Near, 0,
	}
}

// Orthographic is an orthographic projection. ExtentY is the half height of
// the view volume; the half width follows from the aspect ratio.
type Orthographic struct {
	Center    mgl32.Vec2
	ExtentY   float32
	Near, Far float32
}

// Matrix implements Projection.
func (o Orthographic) Matrix(aspect float32) mgl32.Mat4 {
	ex := o.ExtentY * aspect
	return mgl32.Ortho(
		o.Center.X()-ex, o.Center.X()+ex,
		o.Center.Y()-o.ExtentY, o.Center.Y()+o.ExtentY,
		o.Near, o.Far,
	)
}

// Camera is an empty node with a projection. It looks down its local -Z axis.
type Camera struct {
	Base
	Projection Projection
}

// viewMatrix returns the world-to-view matrix for a camera whose world
// transform is t.
func viewMatrix(t Transform) mgl32.Mat4 {
	return t.Inverse().Matrix()
}
