// Package geometry provides the small set of 3-D vector and frame helpers
// shared by the profile, tube and junction builders. All vector math is
// built on gonum's spatial/r3 types.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Tol is the magnitude below which a vector is treated as zero.
const Tol = 1e-12

// SetMagnitude returns v scaled to the given magnitude.
// A zero vector is returned unchanged.
func SetMagnitude(v r3.Vec, mag float64) r3.Vec {
	n := r3.Norm(v)
	if n < Tol {
		return v
	}
	return r3.Scale(mag/n, v)
}

// Rejection returns the component of v orthogonal to direction n.
func Rejection(v, n r3.Vec) r3.Vec {
	nn := r3.Dot(n, n)
	if nn < Tol {
		return v
	}
	return r3.Sub(v, r3.Scale(r3.Dot(v, n)/nn, n))
}

// Perpendicular returns an arbitrary unit vector orthogonal to v.
func Perpendicular(v r3.Vec) r3.Vec {
	// pick the axis least aligned with v to avoid degeneracy
	ref := r3.Vec{X: 1}
	if math.Abs(v.X) > math.Abs(v.Y) || math.Abs(v.X) > math.Abs(v.Z) {
		if math.Abs(v.Y) <= math.Abs(v.Z) {
			ref = r3.Vec{Y: 1}
		} else {
			ref = r3.Vec{Z: 1}
		}
	}
	p := r3.Cross(v, ref)
	if r3.Norm(p) < Tol {
		p = r3.Cross(v, r3.Vec{Y: 1})
	}
	return r3.Unit(p)
}

// Mean returns the component-wise mean of the given vectors.
func Mean(vs ...r3.Vec) r3.Vec {
	var sum r3.Vec
	for _, v := range vs {
		sum = r3.Add(sum, v)
	}
	if len(vs) == 0 {
		return sum
	}
	return r3.Scale(1.0/float64(len(vs)), sum)
}

// AngleBetween returns the angle in radians between vectors a and b.
func AngleBetween(a, b r3.Vec) float64 {
	na, nb := r3.Norm(a), r3.Norm(b)
	if na < Tol || nb < Tol {
		return 0
	}
	c := r3.Dot(a, b) / (na * nb)
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c)
}

// RotateAbout rotates v about the unit axis by the given angle (Rodrigues).
func RotateAbout(v, axis r3.Vec, angle float64) r3.Vec {
	if r3.Norm(axis) < Tol {
		return v
	}
	k := r3.Unit(axis)
	c, s := math.Cos(angle), math.Sin(angle)
	term1 := r3.Scale(c, v)
	term2 := r3.Scale(s, r3.Cross(k, v))
	term3 := r3.Scale(r3.Dot(k, v)*(1-c), k)
	return r3.Add(r3.Add(term1, term2), term3)
}
