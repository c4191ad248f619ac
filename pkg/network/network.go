// Package network defines the 1-D network layout: nodes with per-version
// tangent directions, directed segments between them, and the structure
// string parser that builds them. The layout is the input every higher
// level of the mesh engine is generated from.
package network

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dd0wney/cluso-tubemesh/pkg/curve"
)

// Node is a single centre-line point in the network. A node shared by
// branches carries one tangent direction per derivative version, stored as
// an explicit (version index -> vector) table.
type Node struct {
	ID     int
	X      r3.Vec
	Capped bool

	// Versions holds one tangent direction per derivative version,
	// indexed by version-1. Filled by AssignDefaultLayout or the caller.
	Versions []r3.Vec

	in       []*Segment
	out      []*Segment
	interior *Segment
	posX     int
}

// VersionsCount returns the number of derivative versions defined at the
// node. Degree-1 and degree-2 nodes have exactly one.
func (n *Node) VersionsCount() int { return len(n.Versions) }

// InSegments returns segments ending at this node.
func (n *Node) InSegments() []*Segment { return n.in }

// OutSegments returns segments starting at this node.
func (n *Node) OutSegments() []*Segment { return n.out }

// Degree returns the number of segment ends incident at this node.
// Interior nodes of a segment have degree 0.
func (n *Node) Degree() int { return len(n.in) + len(n.out) }

// InteriorSegment returns the segment this node is interior to, or nil.
func (n *Node) InteriorSegment() *Segment { return n.interior }

// Direction returns the tangent direction for the given 1-based version.
func (n *Node) Direction(version int) r3.Vec {
	if version < 1 || version > len(n.Versions) {
		return r3.Vec{}
	}
	return n.Versions[version-1]
}

// CrossSection describes the tube cross-section half-widths at one end of
// a segment. Inner values bound the shell wall from inside.
type CrossSection struct {
	OuterMajor float64
	OuterMinor float64
	InnerMajor float64
	InnerMinor float64
}

// DefaultCrossSection matches the default network layout tube: outer
// half-width 0.1 with a 20% wall.
func DefaultCrossSection() CrossSection {
	return CrossSection{OuterMajor: 0.1, OuterMinor: 0.1, InnerMajor: 0.08, InnerMinor: 0.08}
}

// Annotation names a group a segment contributes elements to, over the
// along fraction [From, To] of the segment (0..1 for the whole run).
type Annotation struct {
	Name   string
	TermID string
	From   float64
	To     float64
}

// Covers reports whether the along fraction t lies in the annotated span.
func (a Annotation) Covers(t float64) bool { return t >= a.From-1e-9 && t <= a.To+1e-9 }

// Counts carries the element counts resolved for a segment before any
// geometry is built. Only the resolver mutates a segment after parsing.
type Counts struct {
	Around       int
	Along        int
	Shell        int
	CoreBoxMinor int
	Transition   int
}

// CoreBoxMajor derives the core box major count from around and minor.
func (c Counts) CoreBoxMajor() int { return c.Around/2 - c.CoreBoxMinor }

// Segment is a directed run of the network between two junction (or end)
// nodes, possibly passing through interior nodes.
type Segment struct {
	nodes    []*Node
	versions []int

	// Start and End cross-sections; interpolated along the path for a
	// varying profile.
	Start CrossSection
	End   CrossSection

	// Annotations lists the annotation groups this segment contributes
	// elements to, each over a fraction of the segment's length.
	Annotations []Annotation

	// Counts is assigned by the resolver; nil until resolved.
	Counts *Counts
}

func newSegment(nodes []*Node, versions []int) *Segment {
	s := &Segment{
		nodes:    nodes,
		versions: versions,
		Start:    DefaultCrossSection(),
		End:      DefaultCrossSection(),
	}
	for _, n := range nodes[1 : len(nodes)-1] {
		n.interior = s
	}
	return s
}

// Nodes returns the nodes in order along the segment.
func (s *Segment) Nodes() []*Node { return s.nodes }

// NodeIDs returns the node identifiers in order along the segment.
func (s *Segment) NodeIDs() []int {
	ids := make([]int, len(s.nodes))
	for i, n := range s.nodes {
		ids[i] = n.ID
	}
	return ids
}

// Versions returns the node derivative versions in order along the segment.
func (s *Segment) Versions() []int { return s.versions }

// StartNode returns the first node of the segment.
func (s *Segment) StartNode() *Node { return s.nodes[0] }

// EndNode returns the last node of the segment.
func (s *Segment) EndNode() *Node { return s.nodes[len(s.nodes)-1] }

// StartVersion returns the derivative version used at the start node.
func (s *Segment) StartVersion() int { return s.versions[0] }

// EndVersion returns the derivative version used at the end node.
func (s *Segment) EndVersion() int { return s.versions[len(s.versions)-1] }

// Annotate adds whole-segment membership of the named annotation group.
func (s *Segment) Annotate(name, termID string) {
	s.AnnotateRange(name, termID, 0, 1)
}

// AnnotateRange adds membership of the named annotation group over the
// along fraction [from, to] of the segment.
func (s *Segment) AnnotateRange(name, termID string, from, to float64) {
	s.Annotations = append(s.Annotations, Annotation{Name: name, TermID: termID, From: from, To: to})
}

// HasAnnotation reports membership of the named annotation group over
// any part of the segment.
func (s *Segment) HasAnnotation(name string) bool {
	for _, a := range s.Annotations {
		if a.Name == name {
			return true
		}
	}
	return false
}

// split cuts the segment at an interior node, returning the remainder as a
// new segment. Mirrors how a later chain referencing an interior node
// turns one run into two.
func (s *Segment) split(at *Node) *Segment {
	index := -1
	for i := 1; i < len(s.nodes)-1; i++ {
		if s.nodes[i] == at {
			index = i
			break
		}
	}
	if index < 0 {
		return nil
	}
	at.interior = nil
	next := newSegment(s.nodes[index:], s.versions[index:])
	s.nodes = s.nodes[:index+1]
	s.versions = s.versions[:index+1]
	return next
}

// Path builds the centre-line Hermite path through the segment's nodes,
// with tangents taken from each node's version direction scaled by the
// local chord length.
func (s *Segment) Path() (*curve.Path, error) {
	points := make([]r3.Vec, len(s.nodes))
	derivs := make([]r3.Vec, len(s.nodes))
	for i, n := range s.nodes {
		points[i] = n.X
	}
	for i, n := range s.nodes {
		dir := n.Direction(s.versions[i])
		var chord float64
		switch {
		case i == 0:
			chord = r3.Norm(r3.Sub(points[1], points[0]))
		case i == len(points)-1:
			chord = r3.Norm(r3.Sub(points[i], points[i-1]))
		default:
			chord = 0.5 * r3.Norm(r3.Sub(points[i+1], points[i-1]))
		}
		if r3.Norm(dir) == 0 {
			// fall back to chord direction when no layout was assigned
			if i+1 < len(points) {
				dir = r3.Sub(points[i+1], points[i])
			} else {
				dir = r3.Sub(points[i], points[i-1])
			}
		}
		if r3.Norm(dir) > 0 {
			derivs[i] = r3.Scale(chord/r3.Norm(dir), dir)
		}
	}
	return curve.NewPath(points, derivs)
}

// ArcLength returns the arc length of the segment's centre-line path.
func (s *Segment) ArcLength() float64 {
	path, err := s.Path()
	if err != nil {
		return 0
	}
	return path.Length()
}

// SectionAt returns the cross-section half-widths at fraction t in [0,1]
// along the segment.
func (s *Segment) SectionAt(t float64) CrossSection {
	lerp := func(a, b float64) float64 { return a + t*(b-a) }
	return CrossSection{
		OuterMajor: lerp(s.Start.OuterMajor, s.End.OuterMajor),
		OuterMinor: lerp(s.Start.OuterMinor, s.End.OuterMinor),
		InnerMajor: lerp(s.Start.InnerMajor, s.End.InnerMajor),
		InnerMinor: lerp(s.Start.InnerMinor, s.End.InnerMinor),
	}
}

// Network is the parsed 1-D layout: all nodes by identifier and segments
// in build order.
type Network struct {
	nodes    map[int]*Node
	segments []*Segment
}

// Node returns the node with the given identifier, or nil.
func (n *Network) Node(id int) *Node { return n.nodes[id] }

// Nodes returns the node table keyed by identifier.
func (n *Network) Nodes() map[int]*Node { return n.nodes }

// Segments returns the segments in build order.
func (n *Network) Segments() []*Segment { return n.segments }

// SegmentEnds returns, for every node with incident segment ends, the
// segments touching it. The junction builder derives its states from the
// size of each entry.
func (n *Network) SegmentEnds() map[*Node][]*Segment {
	ends := make(map[*Node][]*Segment)
	for _, s := range n.segments {
		ends[s.StartNode()] = append(ends[s.StartNode()], s)
		if s.EndNode() != s.StartNode() {
			ends[s.EndNode()] = append(ends[s.EndNode()], s)
		}
	}
	return ends
}
