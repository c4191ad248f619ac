// Package resolve turns global defaults, per-annotation overrides and
// cross-segment continuity constraints into concrete integer element
// counts per segment, before any geometry is built. The only recovered
// failure in the whole pipeline lives here: around counts that would make
// a junction incompatible are nudged and reported as non-fatal notices.
package resolve

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/dd0wney/cluso-tubemesh/pkg/junction"
	"github.com/dd0wney/cluso-tubemesh/pkg/network"
	"github.com/dd0wney/cluso-tubemesh/pkg/profile"
)

// ErrCoreAtJunction rejects layouts the solid core cannot be carried
// through: a core runs along segments, interior nodes, two-segment chain
// junctions and caps, but not across a branching saddle.
var ErrCoreAtJunction = errors.New("resolve: solid core is not supported through a branching junction")

// ErrCoreChainMismatch rejects a two-segment junction whose core counts
// are pinned to different values by overrides: the box lattice can only
// continue node-for-node.
var ErrCoreChainMismatch = errors.New("resolve: core continuation requires equal around counts at a two-segment junction")

// nudgePasses bounds how many rounds of count adjustment are attempted
// before a junction is reported incompatible.
const nudgePasses = 8

// Options are the resolver inputs, already validated by the caller.
type Options struct {
	Around     int
	Shell      int
	Density    float64
	Core       bool
	BoxMinor   int
	Transition int

	// sparse per-annotation overrides, authoritative over defaults and
	// never nudged
	AroundOverrides   map[string]int
	AlongOverrides    map[string]int
	BoxMinorOverrides map[string]int
}

// Notice is one non-fatal "dependent option changed" report: the
// resolver adjusted a count away from what the options asked for.
type Notice struct {
	SegmentIDs []int
	Field      string
	From       int
	To         int
	Reason     string
}

// Resolve fills every segment's Counts in place and returns the notices
// raised while reconciling them.
func Resolve(net *network.Network, opts Options) ([]Notice, error) {
	var notices []Notice
	segs := net.Segments()
	if len(segs) == 0 {
		return nil, errors.New("resolve: network has no segments")
	}
	shell := opts.Shell
	if shell < 1 {
		shell = 1
	}
	overridden := make(map[*network.Segment]bool)
	for _, s := range segs {
		around := opts.Around
		if v, ok := override(s, opts.AroundOverrides); ok {
			around = v
			overridden[s] = true
		}
		s.Counts = &network.Counts{Around: around, Shell: shell}
	}

	if opts.Core {
		resolveCore(segs, opts, overridden, &notices)
	}

	ends := net.SegmentEnds()
	nodes := junctionNodes(ends)
	if opts.Core {
		for _, node := range nodes {
			if len(ends[node]) >= 3 {
				return nil, fmt.Errorf("%w (node %d)", ErrCoreAtJunction, node.ID)
			}
		}
		if err := harmonizeCoreChains(nodes, ends, overridden, &notices); err != nil {
			return nil, err
		}
	}

	for pass := 0; pass < nudgePasses; pass++ {
		changed := false
		for _, node := range nodes {
			es := ends[node]
			if len(es) < 3 {
				// a two-segment count mismatch is legal: the junction
				// builder bridges it with a pair transition
				continue
			}
			if _, err := junction.ConnectionCounts(arounds(es)); err == nil {
				continue
			}
			if nudge(es, overridden, &notices) {
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	for _, node := range nodes {
		es := ends[node]
		if len(es) < 3 {
			continue
		}
		a := arounds(es)
		if _, err := junction.ConnectionCounts(a); err != nil {
			return nil, &junction.IncompatibleError{NodeID: node.ID, Around: a, Cause: err}
		}
	}

	resolveAlong(net, segs, ends, opts, &notices)
	return notices, nil
}

// resolveCore assigns core box and transition counts, raising infeasible
// combinations to the nearest feasible ones with a notice rather than
// failing.
func resolveCore(segs []*network.Segment, opts Options, overridden map[*network.Segment]bool, notices *[]Notice) {
	for _, s := range segs {
		boxMinor := opts.BoxMinor
		if v, ok := override(s, opts.BoxMinorOverrides); ok {
			boxMinor = v
		}
		if boxMinor < 2 {
			boxMinor = 2
		}
		if boxMinor%2 != 0 {
			boxMinor++
		}
		transition := opts.Transition
		if transition < 1 {
			transition = 1
		}

		spec := profile.Spec{Around: s.Counts.Around, Shell: s.Counts.Shell,
			Core: true, BoxMinor: boxMinor, Transition: transition}
		if minAround := spec.MinimumAround(); s.Counts.Around < minAround && !overridden[s] {
			*notices = append(*notices, Notice{SegmentIDs: s.NodeIDs(),
				Field: "elementsCountAround", From: s.Counts.Around, To: minAround,
				Reason: "raised to minimum feasible for core layout"})
			s.Counts.Around = minAround
		}
		if rem := s.Counts.Around % 4; rem != 0 && !overridden[s] {
			to := s.Counts.Around + 4 - rem
			*notices = append(*notices, Notice{SegmentIDs: s.NodeIDs(),
				Field: "elementsCountAround", From: s.Counts.Around, To: to,
				Reason: "raised to a multiple of 4 for core layout"})
			s.Counts.Around = to
		}
		if maxMinor := s.Counts.Around/2 - 2; boxMinor > maxMinor {
			to := maxMinor - maxMinor%2
			*notices = append(*notices, Notice{SegmentIDs: s.NodeIDs(),
				Field: "elementsCountCoreBoxMinor", From: boxMinor, To: to,
				Reason: "clamped to elements around"})
			boxMinor = to
		}
		boxMajor := s.Counts.Around/2 - boxMinor
		if maxTransition := 1 + minInt(boxMajor, boxMinor)/2; transition > maxTransition {
			*notices = append(*notices, Notice{SegmentIDs: s.NodeIDs(),
				Field: "elementsCountTransition", From: transition, To: maxTransition,
				Reason: "clamped to core box"})
			transition = maxTransition
		}
		s.Counts.CoreBoxMinor = boxMinor
		s.Counts.Transition = transition
	}
}

// harmonizeCoreChains equalises core counts across every two-segment
// junction so the box lattice continues node-for-node. Overridden around
// counts propagate along the chain; two overrides pulling one chain to
// different values are a hard error.
func harmonizeCoreChains(nodes []*network.Node, ends map[*network.Node][]*network.Segment,
	overridden map[*network.Segment]bool, notices *[]Notice) error {
	pinned := make(map[*network.Segment]int)
	for s := range overridden {
		pinned[s] = s.Counts.Around
	}

	copyAround := func(src, dst *network.Segment, nodeID int) error {
		want := src.Counts.Around
		if have, ok := pinned[dst]; ok && have != want {
			return fmt.Errorf("%w (node %d: %d vs %d)", ErrCoreChainMismatch, nodeID, have, want)
		}
		*notices = append(*notices, Notice{SegmentIDs: dst.NodeIDs(),
			Field: "elementsCountAround", From: dst.Counts.Around, To: want,
			Reason: "matched to core continuation across a junction"})
		dst.Counts.Around = want
		if _, ok := pinned[src]; ok {
			pinned[dst] = want
		}
		return nil
	}

	// values propagate at most one junction per pass
	for pass := 0; pass < len(nodes)+2; pass++ {
		changed := false
		for _, node := range nodes {
			es := ends[node]
			if len(es) != 2 {
				continue
			}
			a, b := es[0], es[1]
			if a.Counts.Around == b.Counts.Around {
				continue
			}
			_, aPinned := pinned[a]
			_, bPinned := pinned[b]
			src, dst := a, b
			if bPinned && !aPinned || (!aPinned && b.Counts.Around > a.Counts.Around) {
				src, dst = b, a
			}
			if err := copyAround(src, dst, node.ID); err != nil {
				return err
			}
			changed = true
		}
		if !changed {
			break
		}
	}

	for _, node := range nodes {
		es := ends[node]
		if len(es) != 2 {
			continue
		}
		a, b := es[0], es[1]
		if a.Counts.Around != b.Counts.Around {
			return fmt.Errorf("%w (node %d: %d vs %d)", ErrCoreChainMismatch,
				node.ID, a.Counts.Around, b.Counts.Around)
		}
		// an override may have lowered the chain's around below what the
		// per-segment clamps assumed
		for _, s := range es {
			reclampCore(s, notices)
		}
		equalise(a, b, "elementsCountCoreBoxMinor", notices,
			func(c *network.Counts) *int { return &c.CoreBoxMinor })
		equalise(a, b, "elementsCountTransition", notices,
			func(c *network.Counts) *int { return &c.Transition })
	}
	return nil
}

// reclampCore re-applies the around-dependent core clamps to a segment
// whose around count changed after resolveCore ran.
func reclampCore(s *network.Segment, notices *[]Notice) {
	c := s.Counts
	if maxMinor := c.Around/2 - 2; c.CoreBoxMinor > maxMinor {
		to := maxMinor - maxMinor%2
		*notices = append(*notices, Notice{SegmentIDs: s.NodeIDs(),
			Field: "elementsCountCoreBoxMinor", From: c.CoreBoxMinor, To: to,
			Reason: "clamped to elements around"})
		c.CoreBoxMinor = to
	}
	boxMajor := c.Around/2 - c.CoreBoxMinor
	if maxTransition := 1 + minInt(boxMajor, c.CoreBoxMinor)/2; c.Transition > maxTransition {
		*notices = append(*notices, Notice{SegmentIDs: s.NodeIDs(),
			Field: "elementsCountTransition", From: c.Transition, To: maxTransition,
			Reason: "clamped to core box"})
		c.Transition = maxTransition
	}
}

// equalise raises the smaller of a paired core count to the larger with a
// notice. Raising is always feasible here: the pair's around counts are
// already equal and the larger value passed its own clamps.
func equalise(a, b *network.Segment, field string, notices *[]Notice,
	get func(*network.Counts) *int) {
	va, vb := get(a.Counts), get(b.Counts)
	if *va == *vb {
		return
	}
	dst, from, to := b, *vb, *va
	if *va < *vb {
		dst, from, to = a, *va, *vb
	}
	*notices = append(*notices, Notice{SegmentIDs: dst.NodeIDs(),
		Field: field, From: from, To: to,
		Reason: "matched to core continuation across a junction"})
	*get(dst.Counts) = to
}

// resolveAlong spreads the density target over segments proportionally to
// arc length relative to the longest segment.
func resolveAlong(net *network.Network, segs []*network.Segment,
	ends map[*network.Node][]*network.Segment, opts Options, notices *[]Notice) {
	longest := 0.0
	lengths := make([]float64, len(segs))
	for i, s := range segs {
		lengths[i] = s.ArcLength()
		if lengths[i] > longest {
			longest = lengths[i]
		}
	}
	for i, s := range segs {
		along := 1
		if longest > 0 {
			along = int(math.Round(opts.Density * lengths[i] / longest))
		}
		if along < 1 {
			along = 1
		}
		if v, ok := override(s, opts.AlongOverrides); ok && v >= 1 {
			along = v
		}
		// both terminal stations junction-owned: the segment needs an
		// interior station of its own for connecting rows to weld to
		if len(ends[s.StartNode()]) >= 2 && len(ends[s.EndNode()]) >= 2 && along < 2 {
			*notices = append(*notices, Notice{SegmentIDs: s.NodeIDs(),
				Field: "elementsCountAlong", From: along, To: 2,
				Reason: "raised for a segment between two junctions"})
			along = 2
		}
		s.Counts.Along = along
	}
}

// nudge adjusts one non-overridden around count at the junction by the
// smallest workable step. A step that makes the junction compatible wins
// outright; otherwise the largest count is stepped towards the mean so a
// later pass can finish the job.
func nudge(es []*network.Segment, overridden map[*network.Segment]bool, notices *[]Notice) bool {
	try := func(s *network.Segment, delta int, reason string) bool {
		if overridden[s] {
			return false
		}
		from := s.Counts.Around
		to := from + delta
		if to < 4 {
			return false
		}
		s.Counts.Around = to
		if _, err := junction.ConnectionCounts(arounds(es)); err != nil {
			s.Counts.Around = from
			return false
		}
		*notices = append(*notices, Notice{SegmentIDs: s.NodeIDs(),
			Field: "elementsCountAround", From: from, To: to, Reason: reason})
		return true
	}
	for _, delta := range []int{2, -2, 4, -4} {
		for _, s := range es {
			if try(s, delta, "nudged to satisfy junction connection counts") {
				return true
			}
		}
	}

	// no single step suffices: move the extreme count towards the mean
	sum := 0
	for _, s := range es {
		sum += s.Counts.Around
	}
	mean := float64(sum) / float64(len(es))
	var pick *network.Segment
	worst := 0.0
	for _, s := range es {
		if overridden[s] {
			continue
		}
		if d := math.Abs(float64(s.Counts.Around) - mean); d > worst {
			worst = d
			pick = s
		}
	}
	if pick == nil || worst < 1 {
		return false
	}
	delta := 2
	if float64(pick.Counts.Around) > mean {
		delta = -2
	}
	from := pick.Counts.Around
	if from+delta < 4 {
		return false
	}
	pick.Counts.Around = from + delta
	*notices = append(*notices, Notice{SegmentIDs: pick.NodeIDs(),
		Field: "elementsCountAround", From: from, To: from + delta,
		Reason: "nudged towards junction mean"})
	return true
}

func arounds(es []*network.Segment) []int {
	out := make([]int, len(es))
	for i, s := range es {
		out[i] = s.Counts.Around
	}
	return out
}

// override returns the first matching annotation override in annotation
// order on the segment.
func override(s *network.Segment, m map[string]int) (int, bool) {
	for _, a := range s.Annotations {
		if v, ok := m[a.Name]; ok {
			return v, true
		}
	}
	return 0, false
}

// junctionNodes returns the nodes with incident segment ends in
// ascending identifier order, for deterministic resolution.
func junctionNodes(ends map[*network.Node][]*network.Segment) []*network.Node {
	nodes := make([]*network.Node, 0, len(ends))
	for n := range ends {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
