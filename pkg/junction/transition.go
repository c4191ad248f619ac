package junction

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dd0wney/cluso-tubemesh/pkg/annotation"
	"github.com/dd0wney/cluso-tubemesh/pkg/emit"
	"github.com/dd0wney/cluso-tubemesh/pkg/tube"
)

// emitTransition joins two tubes of different around counts: an
// intermediate ring at the finer count is emitted at the node, the finer
// tube welds to it one-to-one, and the coarser tube's row collapses the
// surplus columns onto repeated nodes.
func (j *Junction) emitTransition(w *emit.Writer, prop *annotation.Propagator) {
	fineIdx, coarseIdx := 0, 1
	if j.Ends[1].around() > j.Ends[0].around() {
		fineIdx, coarseIdx = 1, 0
	}
	fine, coarse := j.Ends[fineIdx], j.Ends[coarseIdx]
	aMax, aMin := fine.around(), coarse.around()
	layers := fine.Tube.Spec.Shell + 1

	fineWall := j.terminalWall(fineIdx)
	coarseWall := j.terminalWall(coarseIdx)
	fq0, fs := j.alignment(fineIdx)
	cq0, cs := j.alignment(coarseIdx)
	fineAt := func(step int) int { return ((fq0+fs*step)%aMax + aMax) % aMax }
	coarseAt := func(step int) int {
		step = step * aMin / aMax
		return ((cq0+cs*step)%aMin + aMin) % aMin
	}

	// intermediate ring: mean of the fine point and its mapped coarse
	// point, per layer
	inter := tube.StationIDs{Wall: make([][]int, layers)}
	for l := 0; l < layers; l++ {
		inter.Wall[l] = make([]int, aMax)
	}
	for step := 0; step < aMax; step++ {
		fq := fineAt(step)
		cq := coarseAt(step)
		for l := 0; l < layers; l++ {
			fp := fineWall[l][fq]
			cp := coarseWall[l][cq]
			x := r3.Scale(0.5, r3.Add(fp.X, cp.X))
			d1 := r3.Scale(0.5*float64(fs), r3.Add(fp.D1, cp.D1))
			d2 := fp.D2
			if fine.AtStart {
				d2 = r3.Scale(-1, d2)
			}
			d3 := r3.Scale(0.5, r3.Add(fp.D3, cp.D3))
			inter.Wall[l][fq] = w.Node(x, d1, d2, d3)
		}
	}

	// fine side: plain one-to-one row
	owned := fine.Tube.LastOwnedIDs(fine.AtStart)
	frac := fine.Tube.TerminalFraction(fine.AtStart)
	if fine.AtStart {
		fine.Tube.EmitRow(w, prop, inter, owned, frac)
	} else {
		fine.Tube.EmitRow(w, prop, owned, inter, frac)
	}

	// coarse side: aMax columns, surplus ones collapsed on the coarse
	// ring's repeated nodes
	cOwned := coarse.Tube.LastOwnedIDs(coarse.AtStart)
	cFrac := coarse.Tube.TerminalFraction(coarse.AtStart)
	shell := coarse.Tube.Spec.Shell
	for l := 0; l < shell; l++ {
		for step := 0; step < aMax; step++ {
			step1 := (step + 1) % aMax
			cq, cq1 := coarseAt(step), coarseAt(step+1)
			fq, fq1 := fineAt(step), fineAt(step1)
			a := [4]int{cOwned.Wall[l][cq], cOwned.Wall[l][cq1],
				cOwned.Wall[l+1][cq], cOwned.Wall[l+1][cq1]}
			b := [4]int{inter.Wall[l][fq], inter.Wall[l][fq1],
				inter.Wall[l+1][fq], inter.Wall[l+1][fq1]}
			var id int
			if coarse.AtStart {
				id = w.Hex([8]int{b[0], b[1], a[0], a[1], b[2], b[3], a[2], a[3]})
			} else {
				id = w.Hex([8]int{a[0], a[1], b[0], b[1], a[2], a[3], b[2], b[3]})
			}
			prop.Tag(id, coarse.Tube.Segment, annotation.RegionShell, cFrac)
		}
	}
}
