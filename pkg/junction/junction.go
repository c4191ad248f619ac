// Package junction reconciles tube ends meeting at a network node. It is
// a small state machine over the incident-segment count k: capped ends
// get an apex cap, two smoothly continuing tubes share a straight ring,
// mismatched or sharply turning pairs get a transition, and three or more
// tubes are closed with a saddle whose columns are divided between ring
// pairs by their connection counts. The builder runs after every incident
// tube has emitted its own stations: it reads finalized end rings and
// emits only the junction-owned nodes and each tube's connecting row.
package junction

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dd0wney/cluso-tubemesh/pkg/annotation"
	"github.com/dd0wney/cluso-tubemesh/pkg/emit"
	"github.com/dd0wney/cluso-tubemesh/pkg/geometry"
	"github.com/dd0wney/cluso-tubemesh/pkg/network"
	"github.com/dd0wney/cluso-tubemesh/pkg/profile"
	"github.com/dd0wney/cluso-tubemesh/pkg/tube"
)

// Variant tags the connector topology used at a junction or end.
type Variant int

const (
	// Pole is the ring-to-apex fan closing a capped open end.
	Pole Variant = iota
	// StraightRing joins two smoothly continuing tubes of equal count.
	StraightRing
	// PairTransition joins two tubes of different count or across a
	// sharp turn through an intermediate resampled ring.
	PairTransition
	// Trifurcation is the k>=3 saddle (any branching degree).
	Trifurcation
	// TrimmedCap is a Trifurcation connecting row whose terminal ring
	// was truncated against a trim surface.
	TrimmedCap
)

func (v Variant) String() string {
	switch v {
	case Pole:
		return "pole"
	case StraightRing:
		return "straight ring"
	case PairTransition:
		return "pair transition"
	case Trifurcation:
		return "trifurcation"
	case TrimmedCap:
		return "trimmed cap"
	}
	return "unknown"
}

// smoothTurnCos bounds the tangent turn considered smooth for two
// continuing tubes: beyond 60 degrees of deviation the pair gets a mitre
// transition instead of chaining directly.
const smoothTurnCos = 0.5

// End is one tube end incident at a junction.
type End struct {
	Tube    *tube.Tube
	AtStart bool
	Trimmed bool
}

func (e End) around() int { return e.Tube.Spec.Around }

// inward is the unit direction from the junction node into the tube.
func (e End) inward() r3.Vec {
	return r3.Scale(-1, e.Tube.OutwardTangent(e.AtStart))
}

// Config carries the junction-relevant generation options.
type Config struct {
	UseOuterTrimSurfaces bool
	ShowTrimSurfaces     bool

	// NextTrimIndex numbers diagnostic trim surface groups across the
	// whole generation; nil disables numbering.
	NextTrimIndex func() int
}

// Junction is the reconciliation plan for one node: incident ends in
// decomposition-plane order, the variant, and for saddles the pairwise
// connection counts between cyclically adjacent rings.
type Junction struct {
	Node    *network.Node
	Ends    []End
	Variant Variant
	Counts  []int
	Trims   []TrimSurface

	cfg Config
	up  r3.Vec
}

// New classifies and validates the junction at a node. Incident around
// counts that admit no positive connection-count decomposition yield an
// IncompatibleError; the resolver pre-avoids this but the builder
// re-validates independently.
func New(node *network.Node, ends []End, cfg Config) (*Junction, error) {
	k := len(ends)
	if k < 2 {
		return nil, &IncompatibleError{NodeID: node.ID, Cause: ErrTooFewRings}
	}
	j := &Junction{Node: node, cfg: cfg}

	if k == 2 {
		j.Ends = ends
		a0, a1 := ends[0].around(), ends[1].around()
		s0, s1 := ends[0].Tube.Spec, ends[1].Tube.Spec
		smooth := r3.Dot(ends[0].inward(), ends[1].inward()) < -smoothTurnCos
		if a0 == a1 {
			if s0.Core && (s0.BoxMinor != s1.BoxMinor || s0.Transition != s1.Transition || !s1.Core) {
				return nil, &IncompatibleError{NodeID: node.ID, Around: []int{a0, a1}, Cause: ErrCoreChainCounts}
			}
			counts, err := ConnectionCounts([]int{a0, a1})
			if err != nil {
				return nil, &IncompatibleError{NodeID: node.ID, Around: []int{a0, a1}, Cause: err}
			}
			j.Counts = counts
			if smooth {
				j.Variant = StraightRing
			} else {
				j.Variant = PairTransition
			}
		} else {
			// the box lattice cannot bridge a count mismatch
			if s0.Core || s1.Core {
				return nil, &IncompatibleError{NodeID: node.ID, Around: []int{a0, a1}, Cause: ErrCoreChainCounts}
			}
			j.Variant = PairTransition
		}
		j.up = geometry.Perpendicular(ends[0].inward())
	} else {
		dirs := make([]r3.Vec, k)
		for i, e := range ends {
			dirs[i] = e.inward()
		}
		normal := decompositionNormal(dirs)
		order := angularOrder(dirs, normal)
		j.Ends = make([]End, k)
		around := make([]int, k)
		for i, idx := range order {
			j.Ends[i] = ends[idx]
			around[i] = ends[idx].around()
		}
		for _, e := range ends {
			if e.Tube.Spec.Core {
				return nil, &IncompatibleError{NodeID: node.ID, Around: around, Cause: ErrCoreSaddle}
			}
		}
		counts, err := ConnectionCounts(around)
		if err != nil {
			return nil, &IncompatibleError{NodeID: node.ID, Around: around, Cause: err}
		}
		j.Counts = counts
		j.Variant = Trifurcation
		j.up = normal
	}

	if cfg.UseOuterTrimSurfaces || cfg.ShowTrimSurfaces {
		j.Trims = trimSurfaces(node, j.Ends)
		if cfg.UseOuterTrimSurfaces && j.Variant == Trifurcation {
			for i := range j.Ends {
				j.Ends[i].Trimmed = true
			}
		}
	}
	return j, nil
}

// PlanVariants returns the per-end connector variant, distinguishing
// trimmed saddle rows from plain ones.
func (j *Junction) PlanVariants() []Variant {
	out := make([]Variant, len(j.Ends))
	for i, e := range j.Ends {
		v := j.Variant
		if v == Trifurcation && e.Trimmed {
			v = TrimmedCap
		}
		out[i] = v
	}
	return out
}

// Emit writes the junction-owned nodes and every incident tube's
// connecting element row. All incident tubes must have emitted first.
func (j *Junction) Emit(w *emit.Writer, prop *annotation.Propagator) error {
	switch j.Variant {
	case StraightRing, Trifurcation:
		j.emitSaddle(w, prop)
	case PairTransition:
		if j.Counts != nil {
			// equal counts across a sharp turn: mitre ring, same saddle
			j.emitSaddle(w, prop)
		} else {
			j.emitTransition(w, prop)
		}
	}
	if j.cfg.ShowTrimSurfaces {
		j.emitTrimSurfaces(w, prop)
	}
	return w.Err()
}

// terminalWall returns the end's terminal wall point grid, truncated
// against its trim surface when trimming is active.
func (j *Junction) terminalWall(i int) [][]profile.Point {
	e := j.Ends[i]
	wall := e.Tube.TerminalRing(e.AtStart).Wall
	if !e.Trimmed || i >= len(j.Trims) {
		return wall
	}
	ts := j.Trims[i]
	out := make([][]profile.Point, len(wall))
	for l, layer := range wall {
		out[l] = make([]profile.Point, len(layer))
		for q, p := range layer {
			p.X = ts.Project(p.X)
			out[l][q] = p
		}
	}
	return out
}

// alignment locates the around index of an end's terminal ring closest
// to the junction's up axis and the ring's winding sign about its own
// inward tangent, so all rings map onto the saddle consistently.
func (j *Junction) alignment(i int) (q0, sign int) {
	e := j.Ends[i]
	wall := j.terminalWall(i)
	outer := wall[len(wall)-1]
	centre := r3.Vec{}
	for _, p := range outer {
		centre = r3.Add(centre, p.X)
	}
	centre = r3.Scale(1/float64(len(outer)), centre)

	best := math.Inf(-1)
	for q, p := range outer {
		d := r3.Dot(r3.Sub(p.X, centre), j.up)
		if d > best {
			best = d
			q0 = q
		}
	}
	a := len(outer)
	side := r3.Cross(e.inward(), j.up)
	step := r3.Sub(outer[(q0+1)%a].X, outer[q0].X)
	sign = 1
	if r3.Dot(side, step) < 0 {
		sign = -1
	}
	return q0, sign
}

// saddleColumn maps a ring's step along its cycle (0 at the up-side crux)
// to a saddle column index: column 0 and 1 are the two crux columns
// shared by every ring; pair p's interior columns follow.
func (j *Junction) saddleColumn(pairBase []int, endIdx, step int) int {
	k := len(j.Ends)
	a := j.Ends[endIdx].around()
	prev := (endIdx - 1 + k) % k
	cPrev := j.Counts[prev]
	switch {
	case step == 0:
		return 0
	case step < cPrev:
		return pairBase[prev] + step - 1
	case step == cPrev:
		return 1
	default:
		return pairBase[endIdx] + (a - 1 - step)
	}
}

// emitSaddle builds the shared saddle node columns by averaging the
// terminal ring points every incident ring contributes to each column,
// emits them, and welds each tube's last owned station to its mapped
// ring of columns.
func (j *Junction) emitSaddle(w *emit.Writer, prop *annotation.Propagator) {
	k := len(j.Ends)
	layers := j.Ends[0].Tube.Spec.Shell + 1

	pairBase := make([]int, k)
	nCols := 2
	for p := 0; p < k; p++ {
		pairBase[p] = nCols
		nCols += j.Counts[p] - 1
	}

	type accum struct {
		x, d1, d2, d3 r3.Vec
		n             int
	}
	cols := make([][]accum, nCols)
	for c := range cols {
		cols[c] = make([]accum, layers)
	}

	type mapping struct {
		q0, sign int
		wall     [][]profile.Point
	}
	maps := make([]mapping, k)
	for i := range j.Ends {
		q0, sign := j.alignment(i)
		maps[i] = mapping{q0: q0, sign: sign, wall: j.terminalWall(i)}
	}

	// a two-tube junction with a solid core snaps the ring correspondence
	// onto a symmetry of the box lattice so wall and core weld coherently
	var core *chainCoreMap
	if k == 2 && j.Ends[0].Tube.Spec.Core {
		core = newChainCoreMap(j.Ends[0].Tube.Spec, maps[0].q0, maps[0].sign,
			maps[1].q0, maps[1].sign, j.Ends[0].AtStart == j.Ends[1].AtStart)
		maps[1].q0 = core.alignedQ0
	}

	ringIndex := func(i, step int) int {
		a := j.Ends[i].around()
		return ((maps[i].q0+maps[i].sign*step)%a + a) % a
	}

	for i, e := range j.Ends {
		a := e.around()
		for step := 0; step < a; step++ {
			col := j.saddleColumn(pairBase, i, step)
			q := ringIndex(i, step)
			for l := 0; l < layers; l++ {
				p := maps[i].wall[l][q]
				acc := &cols[col][l]
				acc.x = r3.Add(acc.x, p.X)
				acc.d1 = r3.Add(acc.d1, r3.Scale(float64(maps[i].sign), p.D1))
				d2 := p.D2
				if core != nil {
					if i == 1 && core.d2Sign < 0 {
						d2 = r3.Scale(-1, d2)
					}
				} else if e.AtStart {
					d2 = r3.Scale(-1, d2)
				}
				acc.d2 = r3.Add(acc.d2, d2)
				acc.d3 = r3.Add(acc.d3, p.D3)
				acc.n++
			}
		}
	}

	colIDs := make([][]int, nCols)
	for c := range cols {
		colIDs[c] = make([]int, layers)
		for l, acc := range cols[c] {
			inv := 1 / float64(acc.n)
			colIDs[c][l] = w.Node(
				r3.Scale(inv, acc.x), r3.Scale(inv, acc.d1),
				r3.Scale(inv, acc.d2), r3.Scale(inv, acc.d3))
		}
	}

	var coreBox, coreTrans [][]int
	if core != nil {
		coreBox, coreTrans = j.emitChainCore(w, core)
	}

	for i, e := range j.Ends {
		a := e.around()
		side := tube.StationIDs{Wall: make([][]int, layers)}
		for l := range side.Wall {
			side.Wall[l] = make([]int, a)
		}
		for step := 0; step < a; step++ {
			col := j.saddleColumn(pairBase, i, step)
			q := ringIndex(i, step)
			for l := 0; l < layers; l++ {
				side.Wall[l][q] = colIDs[col][l]
			}
		}
		if core != nil {
			side.Box, side.Trans = core.view(i, coreBox, coreTrans)
		}
		owned := e.Tube.LastOwnedIDs(e.AtStart)
		frac := e.Tube.TerminalFraction(e.AtStart)
		if e.AtStart {
			e.Tube.EmitRow(w, prop, side, owned, frac)
		} else {
			e.Tube.EmitRow(w, prop, owned, side, frac)
		}
	}
}

// decompositionNormal picks the plane the junction's rings are ordered
// in: among planes spanned by tangent pairs, the one maximising the
// minimum angular separation of all projected tangents.
func decompositionNormal(dirs []r3.Vec) r3.Vec {
	var best r3.Vec
	bestGap := -1.0
	for i := range dirs {
		for l := i + 1; l < len(dirs); l++ {
			n := r3.Cross(dirs[i], dirs[l])
			if r3.Norm(n) < geometry.Tol {
				continue
			}
			n = r3.Unit(n)
			if gap := minAngularGap(dirs, n); gap > bestGap {
				bestGap = gap
				best = n
			}
		}
	}
	if bestGap < 0 {
		// all tangents near-parallel: any perpendicular plane serves
		return geometry.Perpendicular(dirs[0])
	}
	return best
}

func projectedAngles(dirs []r3.Vec, n r3.Vec) []float64 {
	e1 := geometry.Rejection(dirs[0], n)
	if r3.Norm(e1) < geometry.Tol {
		e1 = geometry.Perpendicular(n)
	}
	e1 = r3.Unit(e1)
	e2 := r3.Cross(n, e1)
	angles := make([]float64, len(dirs))
	for i, d := range dirs {
		angles[i] = math.Atan2(r3.Dot(d, e2), r3.Dot(d, e1))
	}
	return angles
}

func minAngularGap(dirs []r3.Vec, n r3.Vec) float64 {
	angles := projectedAngles(dirs, n)
	sort.Float64s(angles)
	gap := 2*math.Pi + angles[0] - angles[len(angles)-1]
	for i := 1; i < len(angles); i++ {
		if d := angles[i] - angles[i-1]; d < gap {
			gap = d
		}
	}
	return gap
}

// angularOrder returns end indices sorted by projected angle in the
// decomposition plane.
func angularOrder(dirs []r3.Vec, n r3.Vec) []int {
	angles := projectedAngles(dirs, n)
	order := make([]int, len(dirs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(x, y int) bool { return angles[order[x]] < angles[order[y]] })
	return order
}
