package geometry

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Frame is an orthonormal moving frame at a station along a swept path.
// Tangent points along the path; Major and Minor span the cross-section
// plane and carry the in-plane axes of the profile generator.
type Frame struct {
	Origin  r3.Vec
	Tangent r3.Vec
	Major   r3.Vec
	Minor   r3.Vec
}

// NewFrame builds a frame at origin with the given tangent, deriving
// in-plane axes from an arbitrary perpendicular. The tangent need not be
// unit length; the stored axes are normalized.
func NewFrame(origin, tangent r3.Vec) Frame {
	t := tangent
	if r3.Norm(t) < Tol {
		t = r3.Vec{X: 1}
	}
	t = r3.Unit(t)
	major := Perpendicular(t)
	minor := r3.Cross(t, major)
	return Frame{Origin: origin, Tangent: t, Major: major, Minor: minor}
}

// Transport parallel-transports the frame's in-plane axes to a new origin
// and tangent using the minimal rotation between the old and new tangents.
// This is what keeps swept tube cross-sections from accumulating twist.
func (f Frame) Transport(origin, tangent r3.Vec) Frame {
	t := tangent
	if r3.Norm(t) < Tol {
		return Frame{Origin: origin, Tangent: f.Tangent, Major: f.Major, Minor: f.Minor}
	}
	t = r3.Unit(t)
	axis := r3.Cross(f.Tangent, t)
	angle := AngleBetween(f.Tangent, t)
	major, minor := f.Major, f.Minor
	if r3.Norm(axis) >= Tol && angle > 0 {
		major = RotateAbout(major, axis, angle)
		minor = RotateAbout(minor, axis, angle)
	}
	// re-orthogonalize against drift
	major = r3.Unit(Rejection(major, t))
	minor = r3.Unit(r3.Cross(t, major))
	return Frame{Origin: origin, Tangent: t, Major: major, Minor: minor}
}
