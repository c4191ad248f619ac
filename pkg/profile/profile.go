// Package profile builds one cross-section of a tube at a station: a
// closed ring of wall points over shell layers and, when a solid core is
// requested, an interior box lattice with transition rings bridging the
// box corners to the round profile.
package profile

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dd0wney/cluso-tubemesh/pkg/geometry"
)

// Point is one profile point with its local derivative triple: D1 around
// the ring, D2 along the tube (filled in by the segment builder once
// station spacing is known) and D3 through the wall.
type Point struct {
	X  r3.Vec
	D1 r3.Vec
	D2 r3.Vec
	D3 r3.Vec
}

// Spec fixes the integer layout of a profile.
type Spec struct {
	Around     int
	Shell      int // element layers through the wall
	Core       bool
	BoxMinor   int // core box elements across the minor axis
	Transition int // element layers between box and wall
}

// BoxMajor derives the core box major count.
func (s Spec) BoxMajor() int { return s.Around/2 - s.BoxMinor }

// Validate rejects infeasible count combinations with a specific error.
func (s Spec) Validate() error {
	fail := func(cause error) error {
		return &InfeasibleError{Around: s.Around, Shell: s.Shell,
			BoxMinor: s.BoxMinor, Transition: s.Transition, Cause: cause}
	}
	if s.Around < 4 {
		return fail(ErrAroundTooSmall)
	}
	if s.Shell < 1 {
		return fail(ErrShellRange)
	}
	if !s.Core {
		return nil
	}
	if s.Around%4 != 0 {
		return fail(ErrAroundNotMultipleOf4)
	}
	if s.BoxMinor%2 != 0 {
		return fail(ErrBoxMinorOdd)
	}
	if s.BoxMinor < 2 || s.BoxMinor > s.Around/2-2 {
		return fail(ErrBoxMinorRange)
	}
	minor, major := s.BoxMinor, s.BoxMajor()
	maxTransition := 1 + min(major, minor)/2
	if s.Transition < 1 || s.Transition > maxTransition {
		return fail(ErrTransitionRange)
	}
	return nil
}

// MinimumAround returns the smallest feasible around count for the
// requested core/transition layout, at least 4.
func (s Spec) MinimumAround() int {
	if !s.Core {
		return 4
	}
	around := 2 * (s.BoxMinor + 2)
	if around%4 != 0 {
		around += 2
	}
	if around < 8 {
		around = 8
	}
	return around
}

// Ring is the generated cross-section: wall layers from inner (0) to
// outer (Shell), and optionally the core box lattice plus interior
// transition rings.
type Ring struct {
	Spec Spec

	// Wall is indexed [layer][around], layer 0 innermost.
	Wall [][]Point

	// Box is indexed [major][minor] over box node rows; nil without core.
	Box [][]Point

	// Transition is indexed [layer-1][around] for transition layers
	// strictly between box boundary and inner wall; nil unless
	// Transition > 1.
	Transition [][]Point
}

// Section carries the in-plane half-widths of the wall.
type Section struct {
	OuterMajor float64
	OuterMinor float64
	InnerMajor float64
	InnerMinor float64
}

// Build generates the profile at the given frame. The ring starts on the
// +major axis and advances towards +minor; around-derivative magnitudes
// are matched to the point spacing for C1-like continuity with neighbour
// rings.
func Build(frame geometry.Frame, section Section, spec Spec) (*Ring, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	ring := &Ring{Spec: spec}
	ring.Wall = make([][]Point, spec.Shell+1)
	for layer := 0; layer <= spec.Shell; layer++ {
		f := float64(layer) / float64(spec.Shell)
		major := section.InnerMajor + f*(section.OuterMajor-section.InnerMajor)
		minor := section.InnerMinor + f*(section.OuterMinor-section.InnerMinor)
		ring.Wall[layer] = EllipseRing(frame, major, minor, spec.Around)
	}
	// through-wall derivative: one shell element of wall depth
	for layer := 0; layer <= spec.Shell; layer++ {
		for q := 0; q < spec.Around; q++ {
			d3 := r3.Scale(1.0/float64(spec.Shell),
				r3.Sub(ring.Wall[spec.Shell][q].X, ring.Wall[0][q].X))
			ring.Wall[layer][q].D3 = d3
		}
	}
	if spec.Core {
		buildCore(ring, frame, section)
	}
	return ring, nil
}

// EllipseRing places around points on the ellipse spanned by the frame's
// in-plane axes with the given half-widths.
func EllipseRing(frame geometry.Frame, halfMajor, halfMinor float64, around int) []Point {
	points := make([]Point, around)
	scale := 2 * math.Pi / float64(around)
	for q := 0; q < around; q++ {
		theta := scale * float64(q)
		c, s := math.Cos(theta), math.Sin(theta)
		offset := r3.Add(
			r3.Scale(c*halfMajor, frame.Major),
			r3.Scale(s*halfMinor, frame.Minor))
		d1 := r3.Scale(scale, r3.Add(
			r3.Scale(-s*halfMajor, frame.Major),
			r3.Scale(c*halfMinor, frame.Minor)))
		points[q] = Point{X: r3.Add(frame.Origin, offset), D1: d1}
	}
	return points
}

// buildCore fills the box lattice and any interior transition rings.
// The box spans the fraction of the inner wall left after reserving
// Transition layers on each side.
func buildCore(ring *Ring, frame geometry.Frame, section Section) {
	spec := ring.Spec
	major, minor := spec.BoxMajor(), spec.BoxMinor
	t := float64(spec.Transition)
	fracMajor := float64(major) / (float64(major) + 2*t)
	fracMinor := float64(minor) / (float64(minor) + 2*t)
	halfMajor := section.InnerMajor * fracMajor
	halfMinor := section.InnerMinor * fracMinor

	ring.Box = make([][]Point, major+1)
	d1 := r3.Scale(2*halfMajor/float64(major), frame.Major)
	d3 := r3.Scale(2*halfMinor/float64(minor), frame.Minor)
	for i := 0; i <= major; i++ {
		ring.Box[i] = make([]Point, minor+1)
		u := 2*float64(i)/float64(major) - 1
		for j := 0; j <= minor; j++ {
			w := 2*float64(j)/float64(minor) - 1
			x := r3.Add(frame.Origin, r3.Add(
				r3.Scale(u*halfMajor, frame.Major),
				r3.Scale(w*halfMinor, frame.Minor)))
			ring.Box[i][j] = Point{X: x, D1: d1, D3: d3}
		}
	}

	if spec.Transition > 1 {
		inner := ring.Wall[0]
		ring.Transition = make([][]Point, spec.Transition-1)
		for layer := 1; layer < spec.Transition; layer++ {
			f := float64(layer) / t
			points := make([]Point, spec.Around)
			for q := 0; q < spec.Around; q++ {
				bi, bj := ring.BoundaryIndex(q)
				boxPt := ring.Box[bi][bj]
				x := r3.Add(r3.Scale(1-f, boxPt.X), r3.Scale(f, inner[q].X))
				d3q := r3.Scale(1/t, r3.Sub(inner[q].X, boxPt.X))
				points[q] = Point{X: x, D3: d3q}
			}
			xs := make([]r3.Vec, spec.Around)
			for q := range points {
				xs[q] = points[q].X
			}
			for q, d := range smoothRingDerivatives(xs) {
				points[q].D1 = d
			}
			ring.Transition[layer-1] = points
		}
	}
}

// BoundaryIndex maps an around index to the core box boundary node it
// welds to. Index 0 sits at the centre of the box's +major face and the
// walk advances in the same rotational sense as the wall ring, so the
// 2*(major+minor) boundary nodes pair one-to-one with the around nodes.
func (r *Ring) BoundaryIndex(q int) (i, j int) {
	major, minor := r.Spec.BoxMajor(), r.Spec.BoxMinor
	around := r.Spec.Around
	q = ((q % around) + around) % around
	half := minor / 2
	switch {
	case q < half: // +major face, ascending minor
		return major, half + q
	case q < half+major: // +minor face, descending major
		return major - (q - half), minor
	case q < half+major+minor: // -major face, descending minor
		return 0, minor - (q - half - major)
	case q < half+2*major+minor: // -minor face, ascending major
		return q - half - major - minor, 0
	default: // +major face up to start
		return major, q - half - 2*major - minor
	}
}

// smoothRingDerivatives assigns loop derivatives sized to neighbour
// spacing for a closed ring of positions.
func smoothRingDerivatives(points []r3.Vec) []r3.Vec {
	n := len(points)
	derivs := make([]r3.Vec, n)
	for i := range points {
		prev := points[(i+n-1)%n]
		next := points[(i+1)%n]
		dir := r3.Sub(next, prev)
		mag := 0.5 * (r3.Norm(r3.Sub(points[i], prev)) + r3.Norm(r3.Sub(next, points[i])))
		derivs[i] = geometry.SetMagnitude(dir, mag)
	}
	return derivs
}
