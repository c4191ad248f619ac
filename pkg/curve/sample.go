package curve

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrTooFewPoints is returned when a path has fewer than two stations.
var ErrTooFewPoints = errors.New("curve: path needs at least two points")

// Path is a piecewise cubic Hermite curve through ordered points with one
// derivative per point.
type Path struct {
	Points []r3.Vec
	Derivs []r3.Vec
}

// NewPath builds a path; derivatives may be nil, in which case chord
// derivatives are assigned.
func NewPath(points, derivs []r3.Vec) (*Path, error) {
	if len(points) < 2 {
		return nil, ErrTooFewPoints
	}
	if derivs == nil {
		derivs = chordDerivatives(points)
	}
	if len(derivs) != len(points) {
		return nil, errors.New("curve: derivative count must match point count")
	}
	return &Path{Points: points, Derivs: derivs}, nil
}

func chordDerivatives(points []r3.Vec) []r3.Vec {
	n := len(points)
	derivs := make([]r3.Vec, n)
	for i := range points {
		switch {
		case i == 0:
			derivs[i] = r3.Sub(points[1], points[0])
		case i == n-1:
			derivs[i] = r3.Sub(points[n-1], points[n-2])
		default:
			derivs[i] = r3.Scale(0.5, r3.Sub(points[i+1], points[i-1]))
		}
	}
	return derivs
}

// Length returns the total arc length of the path.
func (p *Path) Length() float64 {
	total := 0.0
	for e := 0; e+1 < len(p.Points); e++ {
		total += ArcLength(p.Points[e], p.Derivs[e], p.Points[e+1], p.Derivs[e+1])
	}
	return total
}

// Location addresses a point on the path by span index and local xi.
type Location struct {
	Span int
	Xi   float64
}

// At evaluates position and derivative at a location.
func (p *Path) At(loc Location) (r3.Vec, r3.Vec) {
	e := loc.Span
	if e < 0 {
		e = 0
	}
	if e > len(p.Points)-2 {
		e = len(p.Points) - 2
	}
	x := Interpolate(p.Points[e], p.Derivs[e], p.Points[e+1], p.Derivs[e+1], loc.Xi)
	d := Derivative(p.Points[e], p.Derivs[e], p.Points[e+1], p.Derivs[e+1], loc.Xi)
	return x, d
}

// LocationAtLength finds the location at the given arc length from the
// start, by per-span subdivision. Lengths beyond the end clamp to the end.
func (p *Path) LocationAtLength(target float64) Location {
	if target <= 0 {
		return Location{0, 0}
	}
	remaining := target
	for e := 0; e+1 < len(p.Points); e++ {
		spanLen := ArcLength(p.Points[e], p.Derivs[e], p.Points[e+1], p.Derivs[e+1])
		if remaining <= spanLen || e+2 == len(p.Points) {
			if remaining > spanLen {
				return Location{e, 1}
			}
			return Location{e, xiAtLength(p, e, spanLen, remaining)}
		}
		remaining -= spanLen
	}
	return Location{len(p.Points) - 2, 1}
}

// xiAtLength inverts arc length within one span by fixed subdivision.
func xiAtLength(p *Path, e int, spanLen, target float64) float64 {
	const steps = 32
	if spanLen <= 0 {
		return 0
	}
	accum := 0.0
	prev, _ := p.At(Location{e, 0})
	for i := 1; i <= steps; i++ {
		xi := float64(i) / steps
		pt, _ := p.At(Location{e, xi})
		step := r3.Norm(r3.Sub(pt, prev))
		if accum+step >= target {
			over := target - accum
			frac := 0.0
			if step > 0 {
				frac = over / step
			}
			return (float64(i-1) + frac) / steps
		}
		accum += step
		prev = pt
	}
	return 1
}

// Sample resamples the path into count+1 stations evenly spaced by arc
// length, returning positions and derivatives scaled to the element size
// so consecutive stations join with C1-like continuity.
func (p *Path) Sample(count int) ([]r3.Vec, []r3.Vec, error) {
	if count < 1 {
		return nil, nil, errors.New("curve: sample count must be at least 1")
	}
	total := p.Length()
	elementLength := total / float64(count)
	points := make([]r3.Vec, count+1)
	derivs := make([]r3.Vec, count+1)
	for i := 0; i <= count; i++ {
		loc := p.LocationAtLength(float64(i) * elementLength)
		x, d := p.At(loc)
		points[i] = x
		// scale derivative to one element of arc so magnitudes are even
		n := r3.Norm(d)
		if n > 0 {
			d = r3.Scale(elementLength/n, d)
		}
		derivs[i] = d
	}
	return points, derivs, nil
}

// SmoothLoopDerivatives assigns loop derivatives for a closed ring of
// points: direction from the neighbour chord, magnitude from the mean of
// the adjacent chord lengths. Used to even out around-ring derivatives.
func SmoothLoopDerivatives(points []r3.Vec) []r3.Vec {
	n := len(points)
	derivs := make([]r3.Vec, n)
	for i := range points {
		prev := points[(i+n-1)%n]
		next := points[(i+1)%n]
		dir := r3.Sub(next, prev)
		mag := 0.5 * (r3.Norm(r3.Sub(points[i], prev)) + r3.Norm(r3.Sub(next, points[i])))
		nd := r3.Norm(dir)
		if nd > 0 {
			derivs[i] = r3.Scale(mag/nd, dir)
		}
	}
	return derivs
}
