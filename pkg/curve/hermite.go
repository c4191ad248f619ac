// Package curve supplies the cubic Hermite curve sampling primitives the
// segment builder sweeps along: interpolation, arc length and even
// arc-length resampling with end constraints. The tube and junction
// builders consume it as a black box.
package curve

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// 4-point Gauss-Legendre abscissae/weights on [0,1] for arc length.
var (
	gaussXi = [4]float64{0.0694318442029737, 0.3300094782075719, 0.6699905217924281, 0.9305681557970263}
	gaussWt = [4]float64{0.1739274225687269, 0.3260725774312731, 0.3260725774312731, 0.1739274225687269}
)

// Interpolate evaluates the cubic Hermite curve defined by end values and
// derivatives at local coordinate xi in [0,1].
func Interpolate(v1, d1, v2, d2 r3.Vec, xi float64) r3.Vec {
	xi2 := xi * xi
	xi3 := xi2 * xi
	f1 := 1 - 3*xi2 + 2*xi3
	f2 := xi - 2*xi2 + xi3
	f3 := 3*xi2 - 2*xi3
	f4 := -xi2 + xi3
	return r3.Add(
		r3.Add(r3.Scale(f1, v1), r3.Scale(f2, d1)),
		r3.Add(r3.Scale(f3, v2), r3.Scale(f4, d2)))
}

// Derivative evaluates the curve derivative at xi.
func Derivative(v1, d1, v2, d2 r3.Vec, xi float64) r3.Vec {
	xi2 := xi * xi
	f1 := -6*xi + 6*xi2
	f2 := 1 - 4*xi + 3*xi2
	f3 := 6*xi - 6*xi2
	f4 := -2*xi + 3*xi2
	return r3.Add(
		r3.Add(r3.Scale(f1, v1), r3.Scale(f2, d1)),
		r3.Add(r3.Scale(f3, v2), r3.Scale(f4, d2)))
}

// ArcLength returns the Gauss-quadrature arc length of one Hermite span.
func ArcLength(v1, d1, v2, d2 r3.Vec) float64 {
	length := 0.0
	for i := range gaussXi {
		length += gaussWt[i] * r3.Norm(Derivative(v1, d1, v2, d2, gaussXi[i]))
	}
	return length
}

// StartDerivative returns a derivative for the start of a span which makes
// a cubic Hermite span end with derivative d2 at v2 and have zero second
// derivative at the start (Lagrange-Hermite blend).
func StartDerivative(v1, v2, d2 r3.Vec) r3.Vec {
	// d1 = 1.5*(v2 - v1) - 0.5*d2
	return r3.Sub(r3.Scale(1.5, r3.Sub(v2, v1)), r3.Scale(0.5, d2))
}

// EndDerivative is the mirror of StartDerivative for the end of a span.
func EndDerivative(v1, d1, v2 r3.Vec) r3.Vec {
	return r3.Sub(r3.Scale(1.5, r3.Sub(v2, v1)), r3.Scale(0.5, d1))
}
