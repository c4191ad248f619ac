package network

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestParse_SingleSegment(t *testing.T) {
	net, err := Parse("1-2")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	segs := net.Segments()
	if len(segs) != 1 {
		t.Fatalf("segments = %d, want 1", len(segs))
	}
	if got := segs[0].NodeIDs(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("NodeIDs() = %v, want [1 2]", got)
	}
	if net.Node(1).Capped || net.Node(2).Capped {
		t.Error("uncapped structure should not mark nodes capped")
	}
}

func TestParse_CapMarks(t *testing.T) {
	net, err := Parse("(1-2)")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !net.Node(1).Capped {
		t.Error("node 1 should be capped")
	}
	if !net.Node(2).Capped {
		t.Error("node 2 should be capped")
	}
}

func TestParse_InteriorNodes(t *testing.T) {
	net, err := Parse("1-2-3-4")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(net.Segments()) != 1 {
		t.Fatalf("segments = %d, want 1", len(net.Segments()))
	}
	if net.Node(2).InteriorSegment() == nil || net.Node(3).InteriorSegment() == nil {
		t.Error("nodes 2 and 3 should be interior to the run")
	}
	if net.Node(2).Degree() != 0 {
		t.Errorf("interior node degree = %d, want 0", net.Node(2).Degree())
	}
}

func TestParse_Bifurcation(t *testing.T) {
	net, err := Parse("(1-2.1,2.2-3),2.3-4)")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	segs := net.Segments()
	if len(segs) != 3 {
		t.Fatalf("segments = %d, want 3", len(segs))
	}
	if got := net.Node(2).VersionsCount(); got != 3 {
		t.Errorf("node 2 versions = %d, want 3", got)
	}
	if got := net.Node(2).Degree(); got != 3 {
		t.Errorf("node 2 degree = %d, want 3", got)
	}
	for _, id := range []int{1, 3, 4} {
		if !net.Node(id).Capped {
			t.Errorf("node %d should be capped", id)
		}
	}
	wantVersions := [][]int{{1, 1}, {2, 1}, {3, 1}}
	for i, s := range segs {
		if got := s.Versions(); !reflect.DeepEqual(got, wantVersions[i]) {
			t.Errorf("segment %d versions = %v, want %v", i, got, wantVersions[i])
		}
	}
}

func TestParse_SplitAtSharedInteriorNode(t *testing.T) {
	// the second chain references node 4, interior to the first run,
	// splitting 1-2-4-5-6 into 1-2-4 and 4-5-6
	net, err := Parse("1-2-4-5-6,3-4.2-7,5-8")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	var got [][]int
	for _, s := range net.Segments() {
		got = append(got, s.NodeIDs())
	}
	want := [][]int{{1, 2, 4}, {4, 5}, {5, 6}, {3, 4}, {4, 7}, {5, 8}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("segment node ids = %v, want %v", got, want)
	}
	if net.Node(4).InteriorSegment() != nil {
		t.Error("node 4 should no longer be interior after the split")
	}
	if got := net.Node(4).Degree(); got != 4 {
		t.Errorf("node 4 degree = %d, want 4", got)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name      string
		structure string
		want      error
	}{
		{"empty", "", ErrEmptyStructure},
		{"whitespace", "   ", ErrEmptyStructure},
		{"single node", "1", ErrSingleNodeChain},
		{"zero node id", "0-1", ErrBadNodeID},
		{"negative node id", "-1-2", ErrBadNodeID},
		{"non-numeric", "a-b", ErrBadNodeID},
		{"zero version", "1.0-2", ErrBadVersion},
		{"version gap", "1-2.3", ErrVersionGap},
		{"self loop", "1-1", ErrSelfLoop},
		{"interior cap mark", "1-(2-3", ErrUnbalancedCapMark},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net, err := Parse(tt.structure)
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse(%q) error = %v, want %v", tt.structure, err, tt.want)
			}
			if net != nil {
				t.Error("failed parse should not return a partial network")
			}
		})
	}
}

func TestParse_RevisitedNodeWithNewVersionIsNotSelfLoop(t *testing.T) {
	// a chain returning to its start node through a second derivative
	// version forms a loop; only consecutive identical node+version
	// tokens are rejected
	if _, err := Parse("1-2-1.2"); err != nil {
		t.Errorf("Parse() error = %v, want nil", err)
	}
}

func TestParse_DefaultLayout(t *testing.T) {
	net, err := Parse("1-2-3")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	for id := 1; id <= 3; id++ {
		if got := net.Node(id).X.X; got != float64(id-1) {
			t.Errorf("node %d x = %v, want %v", id, got, float64(id-1))
		}
	}
	// chain direction is +x everywhere on a straight run
	for id := 1; id <= 3; id++ {
		dir := net.Node(id).Direction(1)
		if dir.X <= 0 {
			t.Errorf("node %d direction = %v, want +x tangent", id, dir)
		}
	}
}

func TestParse_BranchLayoutFansOut(t *testing.T) {
	net, err := Parse("1-2,1-3")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	n2, n3 := net.Node(2), net.Node(3)
	if n2.X.X != n3.X.X {
		t.Errorf("sibling branch nodes share a column: x2 = %v, x3 = %v", n2.X.X, n3.X.X)
	}
	if n2.X.Y == n3.X.Y {
		t.Error("sibling branch nodes should be fanned apart in y")
	}
}

func TestSegment_ArcLength(t *testing.T) {
	net, err := Parse("1-2")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	got := net.Segments()[0].ArcLength()
	if got < 0.99 || got > 1.01 {
		t.Errorf("ArcLength() = %v, want close to 1", got)
	}
}

func TestSegment_Annotations(t *testing.T) {
	net, err := Parse("1-2")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	s := net.Segments()[0]
	s.AnnotateRange("proximal", "TERM:1", 0, 0.5)
	if !s.HasAnnotation("proximal") {
		t.Error("HasAnnotation() = false after AnnotateRange")
	}
	if s.HasAnnotation("distal") {
		t.Error("HasAnnotation() = true for unknown name")
	}
	a := s.Annotations[0]
	if !a.Covers(0.25) {
		t.Error("Covers(0.25) = false, want true")
	}
	if a.Covers(0.75) {
		t.Error("Covers(0.75) = true, want false")
	}
}

func TestSegment_SectionAt(t *testing.T) {
	net, err := Parse("1-2")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	s := net.Segments()[0]
	s.Start = CrossSection{OuterMajor: 0.2, OuterMinor: 0.2, InnerMajor: 0.16, InnerMinor: 0.16}
	s.End = CrossSection{OuterMajor: 0.1, OuterMinor: 0.1, InnerMajor: 0.08, InnerMinor: 0.08}
	mid := s.SectionAt(0.5)
	if math.Abs(mid.OuterMajor-0.15) > 1e-12 {
		t.Errorf("SectionAt(0.5).OuterMajor = %v, want 0.15", mid.OuterMajor)
	}
	if math.Abs(mid.InnerMinor-0.12) > 1e-12 {
		t.Errorf("SectionAt(0.5).InnerMinor = %v, want 0.12", mid.InnerMinor)
	}
}

func TestNetwork_SegmentEnds(t *testing.T) {
	net, err := Parse("(1-2.1,2.2-3),2.3-4)")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ends := net.SegmentEnds()
	if got := len(ends[net.Node(2)]); got != 3 {
		t.Errorf("ends at node 2 = %d, want 3", got)
	}
	for _, id := range []int{1, 3, 4} {
		if got := len(ends[net.Node(id)]); got != 1 {
			t.Errorf("ends at node %d = %d, want 1", id, got)
		}
	}
}

func TestCounts_CoreBoxMajor(t *testing.T) {
	c := Counts{Around: 8, CoreBoxMinor: 2}
	if got := c.CoreBoxMajor(); got != 2 {
		t.Errorf("CoreBoxMajor() = %d, want 2", got)
	}
	c = Counts{Around: 12, CoreBoxMinor: 2}
	if got := c.CoreBoxMajor(); got != 4 {
		t.Errorf("CoreBoxMajor() = %d, want 4", got)
	}
}
