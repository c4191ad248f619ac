// Package tube sweeps one network segment into hexahedral element rows:
// stations are resampled evenly by arc length, frames are carried along
// the centre line by parallel transport, and a profile ring is built at
// each station. Terminal stations at a junction are handed over to the
// junction builder, which owns their nodes and the connecting row.
package tube

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dd0wney/cluso-tubemesh/pkg/annotation"
	"github.com/dd0wney/cluso-tubemesh/pkg/emit"
	"github.com/dd0wney/cluso-tubemesh/pkg/geometry"
	"github.com/dd0wney/cluso-tubemesh/pkg/network"
	"github.com/dd0wney/cluso-tubemesh/pkg/profile"
)

// ErrUnresolved is returned when a segment reaches the builder without
// resolved element counts.
var ErrUnresolved = errors.New("tube: segment has no resolved counts")

// Config selects which terminal stations the junction builder owns and
// carries the emission options that reach node derivatives.
type Config struct {
	StartJunction      bool
	EndJunction        bool
	LinearThroughShell bool
}

// StationIDs holds the emitted node identifiers of one station's rings.
// Entries are nil for stations owned by a junction.
type StationIDs struct {
	// Wall is indexed [layer][around], layer 0 innermost.
	Wall [][]int
	// Box is indexed [major][minor]; nil without core.
	Box [][]int
	// Trans is indexed [layer-1][around]; nil unless Transition > 1.
	Trans [][]int
}

// Tube is one swept segment: frames, profile rings and along derivatives
// at every station, plus the node identifiers emitted so far.
type Tube struct {
	Segment *network.Segment
	Spec    profile.Spec
	Config  Config

	Frames []geometry.Frame
	Rings  []*profile.Ring
	Derivs []r3.Vec

	Stations []StationIDs
}

// Along returns the number of element rows along the segment.
func (t *Tube) Along() int { return len(t.Frames) - 1 }

// OwnedRange returns the station index range [first, last] whose nodes
// this tube emits. Junction-owned terminals are excluded.
func (t *Tube) OwnedRange() (first, last int) {
	first, last = 0, t.Along()
	if t.Config.StartJunction {
		first = 1
	}
	if t.Config.EndJunction {
		last--
	}
	return first, last
}

// Build sweeps the segment: its path is resampled into Along+1 stations
// evenly spaced by arc length, and a profile ring is generated on the
// transported frame at each.
func Build(seg *network.Segment, cfg Config) (*Tube, error) {
	counts := seg.Counts
	if counts == nil {
		return nil, ErrUnresolved
	}
	spec := profile.Spec{
		Around:     counts.Around,
		Shell:      1,
		Core:       counts.CoreBoxMinor > 0,
		BoxMinor:   counts.CoreBoxMinor,
		Transition: counts.Transition,
	}
	if shell := counts.Shell; shell > 0 {
		spec.Shell = shell
	}
	path, err := seg.Path()
	if err != nil {
		return nil, fmt.Errorf("tube: segment %v: %w", seg.NodeIDs(), err)
	}
	points, derivs, err := path.Sample(counts.Along)
	if err != nil {
		return nil, fmt.Errorf("tube: segment %v: %w", seg.NodeIDs(), err)
	}

	t := &Tube{
		Segment: seg,
		Spec:    spec,
		Config:  cfg,
		Frames:  make([]geometry.Frame, len(points)),
		Rings:   make([]*profile.Ring, len(points)),
		Derivs:  derivs,
	}
	t.Frames[0] = geometry.NewFrame(points[0], derivs[0])
	for i := 1; i < len(points); i++ {
		t.Frames[i] = t.Frames[i-1].Transport(points[i], derivs[i])
	}
	along := counts.Along
	for i := range points {
		section := seg.SectionAt(float64(i) / float64(along))
		ring, err := profile.Build(t.Frames[i], profileSection(section), spec)
		if err != nil {
			return nil, fmt.Errorf("tube: segment %v: %w", seg.NodeIDs(), err)
		}
		setAlongDerivative(ring, derivs[i])
		t.Rings[i] = ring
	}
	t.Stations = make([]StationIDs, len(points))
	return t, nil
}

func profileSection(cs network.CrossSection) profile.Section {
	return profile.Section{
		OuterMajor: cs.OuterMajor,
		OuterMinor: cs.OuterMinor,
		InnerMajor: cs.InnerMajor,
		InnerMinor: cs.InnerMinor,
	}
}

func setAlongDerivative(ring *profile.Ring, d2 r3.Vec) {
	for _, layer := range ring.Wall {
		for q := range layer {
			layer[q].D2 = d2
		}
	}
	for _, row := range ring.Box {
		for j := range row {
			row[j].D2 = d2
		}
	}
	for _, layer := range ring.Transition {
		for q := range layer {
			layer[q].D2 = d2
		}
	}
}

// Emit writes the nodes of every owned station and the element rows
// between consecutive owned stations. Rows adjoining a junction-owned
// terminal are left for the junction builder.
func (t *Tube) Emit(w *emit.Writer, prop *annotation.Propagator) error {
	first, last := t.OwnedRange()
	for station := first; station <= last; station++ {
		t.Stations[station] = t.EmitRing(w, t.Rings[station])
	}
	for row := first; row < last; row++ {
		t.EmitRow(w, prop, t.Stations[row], t.Stations[row+1], rowFraction(row, t.Along()))
	}
	return w.Err()
}

// rowFraction is the along fraction annotation spans are tested against
// for elements of one row.
func rowFraction(row, along int) float64 {
	return (float64(row) + 0.5) / float64(along)
}

// EmitRing writes all nodes of one profile ring and returns their
// identifiers. The cap and junction builders reuse it for stations they
// own.
func (t *Tube) EmitRing(w *emit.Writer, ring *profile.Ring) StationIDs {
	node := func(p profile.Point) int {
		d3 := p.D3
		if t.Config.LinearThroughShell {
			d3 = r3.Vec{}
		}
		return w.Node(p.X, p.D1, p.D2, d3)
	}
	ids := StationIDs{Wall: make([][]int, len(ring.Wall))}
	for layer, points := range ring.Wall {
		ids.Wall[layer] = make([]int, len(points))
		for q, p := range points {
			ids.Wall[layer][q] = node(p)
		}
	}
	if ring.Box != nil {
		ids.Box = make([][]int, len(ring.Box))
		for i, row := range ring.Box {
			ids.Box[i] = make([]int, len(row))
			for j, p := range row {
				ids.Box[i][j] = node(p)
			}
		}
		ids.Trans = make([][]int, len(ring.Transition))
		for layer, points := range ring.Transition {
			ids.Trans[layer] = make([]int, len(points))
			for q, p := range points {
				ids.Trans[layer][q] = node(p)
			}
		}
	}
	return ids
}

// EmitRow writes one full element row between two stations: shell wall
// elements and, with a core, box and transition elements. The junction
// builder reuses it for connecting rows with its own station on one side.
func (t *Tube) EmitRow(w *emit.Writer, prop *annotation.Propagator, a, b StationIDs, alongFrac float64) {
	around := t.Spec.Around
	for layer := 0; layer < t.Spec.Shell; layer++ {
		for q := 0; q < around; q++ {
			q1 := (q + 1) % around
			id := w.Hex([8]int{
				a.Wall[layer][q], a.Wall[layer][q1],
				b.Wall[layer][q], b.Wall[layer][q1],
				a.Wall[layer+1][q], a.Wall[layer+1][q1],
				b.Wall[layer+1][q], b.Wall[layer+1][q1],
			})
			prop.Tag(id, t.Segment, annotation.RegionShell, alongFrac)
		}
	}
	if a.Box == nil {
		return
	}
	major, minor := t.Spec.BoxMajor(), t.Spec.BoxMinor
	for i := 0; i < major; i++ {
		for j := 0; j < minor; j++ {
			id := w.Hex([8]int{
				a.Box[i][j], a.Box[i+1][j],
				b.Box[i][j], b.Box[i+1][j],
				a.Box[i][j+1], a.Box[i+1][j+1],
				b.Box[i][j+1], b.Box[i+1][j+1],
			})
			prop.Tag(id, t.Segment, annotation.RegionCore, alongFrac)
		}
	}
	for layer := 0; layer < t.Spec.Transition; layer++ {
		in := t.CoreRingIDs(a, layer)
		out := t.CoreRingIDs(a, layer+1)
		inB := t.CoreRingIDs(b, layer)
		outB := t.CoreRingIDs(b, layer+1)
		for q := 0; q < around; q++ {
			q1 := (q + 1) % around
			id := w.Hex([8]int{
				in[q], in[q1], inB[q], inB[q1],
				out[q], out[q1], outB[q], outB[q1],
			})
			prop.Tag(id, t.Segment, annotation.RegionCore, alongFrac)
		}
	}
}

// TerminalRing returns the profile ring at the given end's terminal
// station, whether or not the tube owns it.
func (t *Tube) TerminalRing(atStart bool) *profile.Ring {
	if atStart {
		return t.Rings[0]
	}
	return t.Rings[t.Along()]
}

// TerminalFrame returns the frame at the given end's terminal station.
func (t *Tube) TerminalFrame(atStart bool) geometry.Frame {
	if atStart {
		return t.Frames[0]
	}
	return t.Frames[t.Along()]
}

// OutwardTangent returns the unit tangent at the given end pointing out
// of the segment, away from its interior.
func (t *Tube) OutwardTangent(atStart bool) r3.Vec {
	tan := t.TerminalFrame(atStart).Tangent
	if atStart {
		return r3.Scale(-1, tan)
	}
	return tan
}

// LastOwnedIDs returns the node identifiers of the owned station nearest
// the given end. Only valid after Emit.
func (t *Tube) LastOwnedIDs(atStart bool) StationIDs {
	first, last := t.OwnedRange()
	if atStart {
		return t.Stations[first]
	}
	return t.Stations[last]
}

// TerminalFraction returns the along fraction at the centre of the given
// end's terminal element row, for annotation span tests.
func (t *Tube) TerminalFraction(atStart bool) float64 {
	if atStart {
		return rowFraction(0, t.Along())
	}
	return rowFraction(t.Along()-1, t.Along())
}

// CoreRingIDs returns the node identifiers of one concentric core ring:
// layer 0 walks the box boundary, layer Transition is the inner wall, and
// layers between are the interior transition rings.
func (t *Tube) CoreRingIDs(ids StationIDs, layer int) []int {
	around := t.Spec.Around
	switch {
	case layer == 0:
		ring := make([]int, around)
		boundary := &profile.Ring{Spec: t.Spec}
		for q := 0; q < around; q++ {
			i, j := boundary.BoundaryIndex(q)
			ring[q] = ids.Box[i][j]
		}
		return ring
	case layer == t.Spec.Transition:
		return ids.Wall[0]
	default:
		return ids.Trans[layer-1]
	}
}
