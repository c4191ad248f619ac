package junction

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dd0wney/cluso-tubemesh/pkg/annotation"
	"github.com/dd0wney/cluso-tubemesh/pkg/emit"
	"github.com/dd0wney/cluso-tubemesh/pkg/geometry"
	"github.com/dd0wney/cluso-tubemesh/pkg/network"
)

// nearParallelSin floors the tangent-separation sine used to place a trim
// surface, so near-parallel branches push the surface out along the tube
// instead of to infinity.
const nearParallelSin = 0.2

// TrimSurface is the planar cutting surface bounding how far one incident
// tube's regular rings extend before the junction fill absorbs them.
type TrimSurface struct {
	Origin r3.Vec
	Normal r3.Vec
	// Axis1 and Axis2 span the diagnostic patch, scaled to its half
	// extents.
	Axis1 r3.Vec
	Axis2 r3.Vec
}

// Project moves a point along the surface normal onto the surface plane.
func (ts TrimSurface) Project(p r3.Vec) r3.Vec {
	return r3.Add(p, r3.Scale(r3.Dot(r3.Sub(ts.Origin, p), ts.Normal), ts.Normal))
}

// trimSurfaces computes one surface per incident end: normal along the
// tube, placed where the widest other branch would first overlap it.
func trimSurfaces(node *network.Node, ends []End) []TrimSurface {
	out := make([]TrimSurface, len(ends))
	for i, e := range ends {
		dir := e.inward()
		dist := 0.0
		for l, other := range ends {
			if l == i {
				continue
			}
			sin := r3.Norm(r3.Cross(dir, other.inward()))
			if sin < nearParallelSin {
				sin = nearParallelSin
			}
			if d := outerRadius(other) / sin; d > dist {
				dist = d
			}
		}
		half := 1.5 * outerRadius(e)
		axis1 := r3.Unit(geometry.Perpendicular(dir))
		axis2 := r3.Cross(dir, axis1)
		out[i] = TrimSurface{
			Origin: r3.Add(node.X, r3.Scale(dist, dir)),
			Normal: dir,
			Axis1:  r3.Scale(half, axis1),
			Axis2:  r3.Scale(half, axis2),
		}
	}
	return out
}

func outerRadius(e End) float64 {
	t := 1.0
	if e.AtStart {
		t = 0
	}
	cs := e.Tube.Segment.SectionAt(t)
	return math.Max(cs.OuterMajor, cs.OuterMinor)
}

// emitTrimSurfaces writes each surface as a 2x2 grid of diagnostic
// surface elements into its own numbered annotation group.
func (j *Junction) emitTrimSurfaces(w *emit.Writer, prop *annotation.Propagator) {
	for _, ts := range j.Trims {
		name := "trim surface"
		if j.cfg.NextTrimIndex != nil {
			name = fmt.Sprintf("trim surface %d", j.cfg.NextTrimIndex())
		}
		grid := [3][3]int{}
		for iu := 0; iu < 3; iu++ {
			u := float64(iu) - 1
			for iv := 0; iv < 3; iv++ {
				v := float64(iv) - 1
				x := r3.Add(ts.Origin, r3.Add(r3.Scale(u, ts.Axis1), r3.Scale(v, ts.Axis2)))
				grid[iu][iv] = w.Node(x, ts.Axis1, ts.Axis2, r3.Vec{})
			}
		}
		for iu := 0; iu < 2; iu++ {
			for iv := 0; iv < 2; iv++ {
				id := w.Quad([4]int{grid[iu][iv], grid[iu+1][iv], grid[iu][iv+1], grid[iu+1][iv+1]})
				prop.Tag(id, nil, annotation.RegionTrim, 0)
				prop.EnsureGroup(name, "").Add(id)
			}
		}
	}
}
