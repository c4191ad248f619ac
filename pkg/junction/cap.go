package junction

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dd0wney/cluso-tubemesh/pkg/annotation"
	"github.com/dd0wney/cluso-tubemesh/pkg/emit"
	"github.com/dd0wney/cluso-tubemesh/pkg/geometry"
	"github.com/dd0wney/cluso-tubemesh/pkg/network"
	"github.com/dd0wney/cluso-tubemesh/pkg/profile"
	"github.com/dd0wney/cluso-tubemesh/pkg/tube"
)

// Cap closes one capped open end with a pole fan: a shrunken dome ring
// with full wall layers, a collapsed single-layer rim ring, and an
// inner/outer apex node pair every rim node maps onto.
type Cap struct {
	Tube    *tube.Tube
	AtStart bool
	Variant Variant
}

// NewCap plans the cap over the given end of an emitted tube.
func NewCap(t *tube.Tube, atStart bool) *Cap {
	return &Cap{Tube: t, AtStart: atStart, Variant: Pole}
}

// Dome and rim latitudes of the cap's quasi-spherical closure.
const (
	domeAngle = math.Pi / 4
	rimAngle  = 0.4 * math.Pi
)

// Emit writes the cap's nodes and element bands beyond the tube's
// terminal station. The tube must have emitted first.
func (c *Cap) Emit(w *emit.Writer, prop *annotation.Propagator) error {
	t := c.Tube
	spec := t.Spec
	around, shell := spec.Around, spec.Shell
	frame := t.TerminalFrame(c.AtStart)
	u := t.OutwardTangent(c.AtStart)
	endT, frac := 1.0, 1.0
	if c.AtStart {
		endT, frac = 0, 0
	}
	cs := t.Segment.SectionAt(endT)
	hMid := 0.25 * (cs.OuterMajor + cs.OuterMinor + cs.InnerMajor + cs.InnerMinor)
	meridian := r3.Scale(hMid*domeAngle, u)

	capFrame := func(angle float64) geometry.Frame {
		return geometry.Frame{
			Origin:  r3.Add(frame.Origin, r3.Scale(math.Sin(angle)*hMid, u)),
			Tangent: u,
			Major:   frame.Major,
			Minor:   r3.Cross(u, frame.Major),
		}
	}

	// dome: a full station of the profile shrunk towards the pole
	domeRing, err := profile.Build(capFrame(domeAngle), scaleSection(cs, math.Cos(domeAngle)), spec)
	if err != nil {
		return err
	}
	setMeridian(domeRing, meridian)
	domeIDs := t.EmitRing(w, domeRing)

	owned := t.LastOwnedIDs(c.AtStart)
	if c.AtStart {
		t.EmitRow(w, prop, domeIDs, owned, frac)
	} else {
		t.EmitRow(w, prop, owned, domeIDs, frac)
	}

	// rim: one mid-wall ring where the shell layers converge
	rimScale := math.Cos(rimAngle)
	rimFrame := capFrame(rimAngle)
	rimPts := profile.EllipseRing(rimFrame,
		0.5*(cs.OuterMajor+cs.InnerMajor)*rimScale,
		0.5*(cs.OuterMinor+cs.InnerMinor)*rimScale, around)
	rimIDs := make([]int, around)
	for q, p := range rimPts {
		rimIDs[q] = w.Node(p.X, p.D1, meridian, r3.Vec{})
	}
	var rimBox [][]int
	if spec.Core {
		rimRing, err := profile.Build(rimFrame, scaleSection(cs, rimScale), spec)
		if err != nil {
			return err
		}
		setMeridian(rimRing, meridian)
		rimBox = make([][]int, len(rimRing.Box))
		for i, row := range rimRing.Box {
			rimBox[i] = make([]int, len(row))
			for l, p := range row {
				rimBox[i][l] = w.Node(p.X, p.D1, p.D2, p.D3)
			}
		}
	}

	// apex pair on the pole axis
	innerH := 0.5 * (cs.InnerMajor + cs.InnerMinor)
	outerH := 0.5 * (cs.OuterMajor + cs.OuterMinor)
	apexD1 := r3.Scale(2*math.Pi*hMid/float64(around), frame.Major)
	apexD2 := r3.Scale(2*math.Pi*hMid/float64(around), r3.Cross(u, frame.Major))
	apexD3 := r3.Scale(outerH-innerH, u)
	apexIn := w.Node(r3.Add(frame.Origin, r3.Scale(innerH, u)), apexD1, apexD2, apexD3)
	apexOut := w.Node(r3.Add(frame.Origin, r3.Scale(outerH, u)), apexD1, apexD2, apexD3)

	// dome to rim: wall layers collapse onto the single rim ring
	for l := 0; l < shell; l++ {
		for q := 0; q < around; q++ {
			q1 := (q + 1) % around
			id := w.Hex([8]int{
				domeIDs.Wall[l][q], domeIDs.Wall[l][q1], rimIDs[q], rimIDs[q1],
				domeIDs.Wall[l+1][q], domeIDs.Wall[l+1][q1], rimIDs[q], rimIDs[q1],
			})
			prop.Tag(id, t.Segment, annotation.RegionShell, frac)
		}
	}
	// rim to apex fan
	for q := 0; q < around; q++ {
		q1 := (q + 1) % around
		id := w.Hex([8]int{
			rimIDs[q], rimIDs[q1], apexIn, apexIn,
			rimIDs[q], rimIDs[q1], apexOut, apexOut,
		})
		prop.Tag(id, t.Segment, annotation.RegionShell, frac)
	}

	if spec.Core {
		c.emitCore(w, prop, domeIDs, rimBox, rimIDs, apexIn, frac)
	}
	return w.Err()
}

// emitCore closes the solid core: a box row dome to rim, the transition
// ring rows between them, and a collapsed ring fan onto the inner apex.
func (c *Cap) emitCore(w *emit.Writer, prop *annotation.Propagator,
	domeIDs tube.StationIDs, rimBox [][]int, rimIDs []int, apexIn int, frac float64) {
	t := c.Tube
	spec := t.Spec
	around := spec.Around
	major, minor := spec.BoxMajor(), spec.BoxMinor

	for i := 0; i < major; i++ {
		for l := 0; l < minor; l++ {
			id := w.Hex([8]int{
				domeIDs.Box[i][l], domeIDs.Box[i+1][l],
				rimBox[i][l], rimBox[i+1][l],
				domeIDs.Box[i][l+1], domeIDs.Box[i+1][l+1],
				rimBox[i][l+1], rimBox[i+1][l+1],
			})
			prop.Tag(id, t.Segment, annotation.RegionCore, frac)
		}
	}

	// concentric core rings at the rim: the box boundary walk, with the
	// mid-wall rim ring outermost; interior transition layers collapse
	// onto the boundary walk
	boundary := &profile.Ring{Spec: spec}
	rimRing := func(layer int) []int {
		if layer == spec.Transition {
			return rimIDs
		}
		ring := make([]int, around)
		for q := 0; q < around; q++ {
			i, l := boundary.BoundaryIndex(q)
			ring[q] = rimBox[i][l]
		}
		return ring
	}
	for layer := 0; layer < spec.Transition; layer++ {
		domeIn := t.CoreRingIDs(domeIDs, layer)
		domeOut := t.CoreRingIDs(domeIDs, layer+1)
		rimIn := rimRing(layer)
		rimOut := rimRing(layer + 1)
		for q := 0; q < around; q++ {
			q1 := (q + 1) % around
			id := w.Hex([8]int{
				domeIn[q], domeIn[q1], rimIn[q], rimIn[q1],
				domeOut[q], domeOut[q1], rimOut[q], rimOut[q1],
			})
			prop.Tag(id, t.Segment, annotation.RegionCore, frac)
		}
	}
	for layer := 0; layer < spec.Transition; layer++ {
		in := rimRing(layer)
		out := rimRing(layer + 1)
		for q := 0; q < around; q++ {
			q1 := (q + 1) % around
			id := w.Hex([8]int{
				in[q], in[q1], apexIn, apexIn,
				out[q], out[q1], apexIn, apexIn,
			})
			prop.Tag(id, t.Segment, annotation.RegionCore, frac)
		}
	}
}

func scaleSection(cs network.CrossSection, f float64) profile.Section {
	return profile.Section{
		OuterMajor: cs.OuterMajor * f,
		OuterMinor: cs.OuterMinor * f,
		InnerMajor: cs.InnerMajor * f,
		InnerMinor: cs.InnerMinor * f,
	}
}

func setMeridian(ring *profile.Ring, d2 r3.Vec) {
	for _, layer := range ring.Wall {
		for q := range layer {
			layer[q].D2 = d2
		}
	}
	for _, row := range ring.Box {
		for l := range row {
			row[l].D2 = d2
		}
	}
	for _, layer := range ring.Transition {
		for q := range layer {
			layer[q].D2 = d2
		}
	}
}
