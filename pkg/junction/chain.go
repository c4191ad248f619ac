package junction

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dd0wney/cluso-tubemesh/pkg/emit"
	"github.com/dd0wney/cluso-tubemesh/pkg/profile"
)

// chainCoreMap is the correspondence between the two core box lattices
// meeting at a two-segment junction. The raw ring alignment is snapped to
// the nearest symmetry of the box (identity, half-turn, or a reflection
// through the major or minor axis) so lattice nodes weld one-for-one; the
// wall follows the same snapped correspondence to keep the shared station
// consistent with its core.
type chainCoreMap struct {
	around, major, minor int
	sigma                int // +1 keeps the ring winding, -1 reverses it
	delta                int // ring rotation, 0 or around/2
	alignedQ0            int // end 1's reference index under the snapped map
	d2Sign               float64
}

func newChainCoreMap(spec profile.Spec, q00, s0, q01, s1 int, sameEnd bool) *chainCoreMap {
	a := spec.Around
	sigma := -s0 * s1
	raw := (((q01 - sigma*q00) % a) + a) % a
	half := a / 2
	delta := (raw + a/4) / half * half % a
	d2Sign := 1.0
	if sameEnd {
		d2Sign = -1
	}
	return &chainCoreMap{
		around:    a,
		major:     spec.BoxMajor(),
		minor:     spec.BoxMinor,
		sigma:     sigma,
		delta:     delta,
		alignedQ0: ((sigma*q00+delta)%a + a) % a,
		d2Sign:    d2Sign,
	}
}

// mapQ carries an end-0 around index to its end-1 counterpart. The
// snapped map is an involution, so it is its own inverse.
func (m *chainCoreMap) mapQ(q int) int {
	return ((m.sigma*q+m.delta)%m.around + m.around) % m.around
}

// mapIJ carries an end-0 box lattice index to its end-1 counterpart.
func (m *chainCoreMap) mapIJ(i, j int) (int, int) {
	switch {
	case m.sigma == 1 && m.delta == 0:
		return i, j
	case m.sigma == 1:
		return m.major - i, m.minor - j
	case m.delta == 0:
		return i, m.minor - j
	default:
		return m.major - i, j
	}
}

// axisSigns reports how the snapped symmetry carries end 1's major and
// minor axis directions onto end 0's, for derivative averaging.
func (m *chainCoreMap) axisSigns() (majorSign, minorSign float64) {
	majorSign = 1
	if m.delta != 0 {
		majorSign = -1
	}
	return majorSign, float64(m.sigma) * majorSign
}

// view returns the shared core node identifiers in the given end's
// lattice space. End 0 is the reference space.
func (m *chainCoreMap) view(end int, box, trans [][]int) ([][]int, [][]int) {
	if end == 0 {
		return box, trans
	}
	vb := make([][]int, len(box))
	for i := range box {
		vb[i] = make([]int, len(box[i]))
		for j := range box[i] {
			mi, mj := m.mapIJ(i, j)
			vb[i][j] = box[mi][mj]
		}
	}
	vt := make([][]int, len(trans))
	for layer := range trans {
		vt[layer] = make([]int, m.around)
		for q := 0; q < m.around; q++ {
			vt[layer][q] = trans[layer][m.mapQ(q)]
		}
	}
	return vb, vt
}

// emitChainCore writes the shared station's box lattice and interior
// transition rings as the pointwise mean of the two terminal rings,
// indexed in end 0's lattice space.
func (j *Junction) emitChainCore(w *emit.Writer, m *chainCoreMap) (box, trans [][]int) {
	e0, e1 := j.Ends[0], j.Ends[1]
	r0 := e0.Tube.TerminalRing(e0.AtStart)
	r1 := e1.Tube.TerminalRing(e1.AtStart)
	majorSign, minorSign := m.axisSigns()

	mean := func(p0, p1 profile.Point, d1Sign, d3Sign float64) int {
		return w.Node(
			r3.Scale(0.5, r3.Add(p0.X, p1.X)),
			r3.Scale(0.5, r3.Add(p0.D1, r3.Scale(d1Sign, p1.D1))),
			r3.Scale(0.5, r3.Add(p0.D2, r3.Scale(m.d2Sign, p1.D2))),
			r3.Scale(0.5, r3.Add(p0.D3, r3.Scale(d3Sign, p1.D3))))
	}

	box = make([][]int, len(r0.Box))
	for i := range r0.Box {
		box[i] = make([]int, len(r0.Box[i]))
		for l := range r0.Box[i] {
			mi, ml := m.mapIJ(i, l)
			box[i][l] = mean(r0.Box[i][l], r1.Box[mi][ml], majorSign, minorSign)
		}
	}
	trans = make([][]int, len(r0.Transition))
	for layer := range trans {
		trans[layer] = make([]int, m.around)
		for q := 0; q < m.around; q++ {
			trans[layer][q] = mean(r0.Transition[layer][q],
				r1.Transition[layer][m.mapQ(q)], float64(m.sigma), 1)
		}
	}
	return box, trans
}
