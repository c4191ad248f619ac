package profile

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dd0wney/cluso-tubemesh/pkg/geometry"
)

func testFrame() geometry.Frame {
	return geometry.NewFrame(r3.Vec{}, r3.Vec{X: 1})
}

func testSection() Section {
	return Section{OuterMajor: 0.1, OuterMinor: 0.1, InnerMajor: 0.08, InnerMinor: 0.08}
}

func TestSpec_Validate(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want error
	}{
		{"hollow minimal", Spec{Around: 4, Shell: 1}, nil},
		{"hollow odd around", Spec{Around: 7, Shell: 2}, nil},
		{"around too small", Spec{Around: 3, Shell: 1}, ErrAroundTooSmall},
		{"shell zero", Spec{Around: 8, Shell: 0}, ErrShellRange},
		{"core minimal", Spec{Around: 8, Shell: 1, Core: true, BoxMinor: 2, Transition: 1}, nil},
		{"core around not multiple of 4", Spec{Around: 6, Shell: 1, Core: true, BoxMinor: 2, Transition: 1}, ErrAroundNotMultipleOf4},
		{"core odd box minor", Spec{Around: 12, Shell: 1, Core: true, BoxMinor: 3, Transition: 1}, ErrBoxMinorOdd},
		{"core box minor too large", Spec{Around: 8, Shell: 1, Core: true, BoxMinor: 4, Transition: 1}, ErrBoxMinorRange},
		{"core transition zero", Spec{Around: 8, Shell: 1, Core: true, BoxMinor: 2, Transition: 0}, ErrTransitionRange},
		{"core transition too deep", Spec{Around: 8, Shell: 1, Core: true, BoxMinor: 2, Transition: 3}, ErrTransitionRange},
		{"core deep transition ok", Spec{Around: 16, Shell: 1, Core: true, BoxMinor: 4, Transition: 3}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
			var infeasible *InfeasibleError
			if !errors.As(err, &infeasible) {
				t.Errorf("Validate() error type = %T, want *InfeasibleError", err)
			}
		})
	}
}

func TestSpec_MinimumAround(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want int
	}{
		{"hollow", Spec{Around: 8, Shell: 1}, 4},
		{"core box minor 2", Spec{Core: true, BoxMinor: 2}, 8},
		{"core box minor 4", Spec{Core: true, BoxMinor: 4}, 12},
		{"core box minor 6", Spec{Core: true, BoxMinor: 6}, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.spec.MinimumAround(); got != tt.want {
				t.Errorf("MinimumAround() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBuild_HollowWall(t *testing.T) {
	spec := Spec{Around: 8, Shell: 2}
	ring, err := Build(testFrame(), testSection(), spec)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(ring.Wall) != 3 {
		t.Fatalf("wall layers = %d, want 3", len(ring.Wall))
	}
	for layer, points := range ring.Wall {
		if len(points) != 8 {
			t.Errorf("layer %d points = %d, want 8", layer, len(points))
		}
	}
	if ring.Box != nil || ring.Transition != nil {
		t.Error("hollow ring should have no core lattice")
	}

	// inner layer on the inner radius, outer on the outer
	innerR := r3.Norm(r3.Sub(ring.Wall[0][0].X, r3.Vec{}))
	outerR := r3.Norm(r3.Sub(ring.Wall[2][0].X, r3.Vec{}))
	if math.Abs(innerR-0.08) > 1e-9 {
		t.Errorf("inner radius = %v, want 0.08", innerR)
	}
	if math.Abs(outerR-0.1) > 1e-9 {
		t.Errorf("outer radius = %v, want 0.1", outerR)
	}

	// D3 spans one shell element of wall depth
	for q := 0; q < 8; q++ {
		want := (0.1 - 0.08) / 2
		if got := r3.Norm(ring.Wall[0][q].D3); math.Abs(got-want) > 1e-9 {
			t.Errorf("point %d |D3| = %v, want %v", q, got, want)
		}
	}
}

func TestBuild_RingStartsOnMajorAxis(t *testing.T) {
	frame := testFrame()
	ring, err := Build(frame, testSection(), Spec{Around: 8, Shell: 1})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	first := ring.Wall[1][0].X
	want := r3.Add(frame.Origin, r3.Scale(0.1, frame.Major))
	if r3.Norm(r3.Sub(first, want)) > 1e-9 {
		t.Errorf("first outer point = %v, want %v on the +major axis", first, want)
	}
	// quarter way around lies on +minor
	quarter := ring.Wall[1][2].X
	wantQ := r3.Add(frame.Origin, r3.Scale(0.1, frame.Minor))
	if r3.Norm(r3.Sub(quarter, wantQ)) > 1e-9 {
		t.Errorf("quarter point = %v, want %v on the +minor axis", quarter, wantQ)
	}
}

func TestEllipseRing_DerivativesTangent(t *testing.T) {
	points := EllipseRing(testFrame(), 0.2, 0.1, 12)
	if len(points) != 12 {
		t.Fatalf("len = %d, want 12", len(points))
	}
	for q, p := range points {
		radial := r3.Sub(p.X, r3.Vec{})
		// ellipse tangent is not orthogonal to the radius in general,
		// but must never be parallel to it
		if r3.Norm(r3.Cross(radial, p.D1)) < 1e-12 {
			t.Errorf("point %d derivative %v parallel to radius %v", q, p.D1, radial)
		}
	}
}

func TestBuild_CoreBoxLattice(t *testing.T) {
	spec := Spec{Around: 8, Shell: 1, Core: true, BoxMinor: 2, Transition: 1}
	ring, err := Build(testFrame(), testSection(), spec)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	major := spec.BoxMajor()
	if major != 2 {
		t.Fatalf("BoxMajor() = %d, want 2", major)
	}
	if len(ring.Box) != major+1 {
		t.Fatalf("box rows = %d, want %d", len(ring.Box), major+1)
	}
	for i, row := range ring.Box {
		if len(row) != spec.BoxMinor+1 {
			t.Errorf("box row %d cols = %d, want %d", i, len(row), spec.BoxMinor+1)
		}
	}
	// with a single transition layer there are no interior rings
	if ring.Transition != nil {
		t.Error("Transition should be nil for Transition == 1")
	}
	// the box centre node sits at the frame origin
	centre := ring.Box[major/2][spec.BoxMinor/2].X
	if r3.Norm(centre) > 1e-9 {
		t.Errorf("box centre = %v, want origin", centre)
	}
	// the box stays strictly inside the inner wall
	for i, row := range ring.Box {
		for j, p := range row {
			if r3.Norm(p.X) > 0.08+1e-9 {
				t.Errorf("box node (%d,%d) = %v outside the inner wall", i, j, p.X)
			}
		}
	}
}

func TestBuild_CoreTransitionRings(t *testing.T) {
	spec := Spec{Around: 16, Shell: 1, Core: true, BoxMinor: 4, Transition: 2}
	ring, err := Build(testFrame(), testSection(), spec)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(ring.Transition) != 1 {
		t.Fatalf("transition rings = %d, want 1", len(ring.Transition))
	}
	if len(ring.Transition[0]) != 16 {
		t.Fatalf("transition ring points = %d, want 16", len(ring.Transition[0]))
	}
	// each transition point lies between its box boundary node and the
	// matching inner wall point
	for q, p := range ring.Transition[0] {
		bi, bj := ring.BoundaryIndex(q)
		boxR := r3.Norm(ring.Box[bi][bj].X)
		wallR := r3.Norm(ring.Wall[0][q].X)
		r := r3.Norm(p.X)
		if r < boxR-1e-9 || r > wallR+1e-9 {
			t.Errorf("transition point %d radius %v outside [%v, %v]", q, r, boxR, wallR)
		}
	}
}

func TestRing_BoundaryIndex_Bijection(t *testing.T) {
	specs := []Spec{
		{Around: 8, Shell: 1, Core: true, BoxMinor: 2, Transition: 1},
		{Around: 12, Shell: 1, Core: true, BoxMinor: 2, Transition: 1},
		{Around: 16, Shell: 1, Core: true, BoxMinor: 4, Transition: 1},
		{Around: 20, Shell: 1, Core: true, BoxMinor: 6, Transition: 1},
	}
	for _, spec := range specs {
		ring := &Ring{Spec: spec}
		seen := make(map[[2]int]bool)
		for q := 0; q < spec.Around; q++ {
			i, j := ring.BoundaryIndex(q)
			major, minor := spec.BoxMajor(), spec.BoxMinor
			if i < 0 || i > major || j < 0 || j > minor {
				t.Fatalf("around %d BoundaryIndex(%d) = (%d,%d) out of box", spec.Around, q, i, j)
			}
			onBoundary := i == 0 || i == major || j == 0 || j == minor
			if !onBoundary {
				t.Fatalf("around %d BoundaryIndex(%d) = (%d,%d) interior", spec.Around, q, i, j)
			}
			key := [2]int{i, j}
			if seen[key] {
				t.Fatalf("around %d BoundaryIndex(%d) = (%d,%d) repeated", spec.Around, q, i, j)
			}
			seen[key] = true
		}
		// all 2*(major+minor) boundary nodes are covered exactly once
		want := 2 * (spec.BoxMajor() + spec.BoxMinor)
		if len(seen) != want {
			t.Errorf("around %d covered %d boundary nodes, want %d", spec.Around, len(seen), want)
		}
	}
}

func TestRing_BoundaryIndex_StartsAtMajorFaceCentre(t *testing.T) {
	ring := &Ring{Spec: Spec{Around: 8, Shell: 1, Core: true, BoxMinor: 2, Transition: 1}}
	i, j := ring.BoundaryIndex(0)
	if i != ring.Spec.BoxMajor() || j != ring.Spec.BoxMinor/2 {
		t.Errorf("BoundaryIndex(0) = (%d,%d), want +major face centre (%d,%d)",
			i, j, ring.Spec.BoxMajor(), ring.Spec.BoxMinor/2)
	}
	// wraps around
	i0, j0 := ring.BoundaryIndex(8)
	if i0 != i || j0 != j {
		t.Errorf("BoundaryIndex(around) = (%d,%d), want (%d,%d)", i0, j0, i, j)
	}
}

func TestBuild_RejectsInfeasibleSpec(t *testing.T) {
	_, err := Build(testFrame(), testSection(), Spec{Around: 3, Shell: 1})
	if !errors.Is(err, ErrAroundTooSmall) {
		t.Errorf("Build() error = %v, want ErrAroundTooSmall", err)
	}
}
