package tube

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dd0wney/cluso-tubemesh/pkg/annotation"
	"github.com/dd0wney/cluso-tubemesh/pkg/emit"
	"github.com/dd0wney/cluso-tubemesh/pkg/network"
)

func buildTube(t *testing.T, structure string, counts network.Counts, cfg Config) *Tube {
	t.Helper()
	net, err := network.Parse(structure)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", structure, err)
	}
	seg := net.Segments()[0]
	seg.Counts = &counts
	tb, err := Build(seg, cfg)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return tb
}

func TestBuild_Unresolved(t *testing.T) {
	net, err := network.Parse("1-2")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := Build(net.Segments()[0], Config{}); !errors.Is(err, ErrUnresolved) {
		t.Errorf("Build() error = %v, want ErrUnresolved", err)
	}
}

func TestBuild_Stations(t *testing.T) {
	tb := buildTube(t, "1-2", network.Counts{Around: 8, Along: 4, Shell: 1}, Config{})
	if tb.Along() != 4 {
		t.Fatalf("Along() = %d, want 4", tb.Along())
	}
	if len(tb.Frames) != 5 || len(tb.Rings) != 5 {
		t.Fatalf("stations = %d frames, %d rings, want 5 each", len(tb.Frames), len(tb.Rings))
	}
	// stations advance monotonically along the straight run
	for i := 1; i < len(tb.Frames); i++ {
		if tb.Frames[i].Origin.X <= tb.Frames[i-1].Origin.X {
			t.Errorf("station %d origin %v not past station %d", i, tb.Frames[i].Origin, i-1)
		}
	}
	// every ring point carries the along derivative
	for i, ring := range tb.Rings {
		for _, p := range ring.Wall[0] {
			if r3.Norm(p.D2) == 0 {
				t.Fatalf("station %d wall point missing D2", i)
			}
		}
	}
}

func TestTube_OwnedRange(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		first, last int
	}{
		{"free ends", Config{}, 0, 4},
		{"start junction", Config{StartJunction: true}, 1, 4},
		{"end junction", Config{EndJunction: true}, 0, 3},
		{"both junctions", Config{StartJunction: true, EndJunction: true}, 1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := buildTube(t, "1-2", network.Counts{Around: 8, Along: 4, Shell: 1}, tt.cfg)
			first, last := tb.OwnedRange()
			if first != tt.first || last != tt.last {
				t.Errorf("OwnedRange() = (%d, %d), want (%d, %d)", first, last, tt.first, tt.last)
			}
		})
	}
}

func TestTube_Emit_WallCounts(t *testing.T) {
	// around 8, shell 1, along 4: 5 stations of 16 nodes, 4 rows of 8
	tb := buildTube(t, "1-2", network.Counts{Around: 8, Along: 4, Shell: 1}, Config{})
	mesh := emit.NewMesh()
	w := emit.NewWriter(mesh, 1, 1)
	prop := annotation.NewPropagator()
	if err := tb.Emit(w, prop); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if got := mesh.NodeCount(); got != 80 {
		t.Errorf("NodeCount() = %d, want 80", got)
	}
	if got := mesh.ElementCount(3); got != 32 {
		t.Errorf("ElementCount(3) = %d, want 32", got)
	}
	if g := prop.Group(annotation.GroupShell); g == nil || g.Size() != 32 {
		t.Error("all wall elements should join the shell group")
	}
}

func TestTube_Emit_JunctionEndSkipsTerminal(t *testing.T) {
	tb := buildTube(t, "1-2", network.Counts{Around: 8, Along: 4, Shell: 1},
		Config{EndJunction: true})
	mesh := emit.NewMesh()
	w := emit.NewWriter(mesh, 1, 1)
	if err := tb.Emit(w, annotation.NewPropagator()); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	// 4 owned stations, 3 rows; the terminal station and its row wait
	// for the junction builder
	if got := mesh.NodeCount(); got != 64 {
		t.Errorf("NodeCount() = %d, want 64", got)
	}
	if got := mesh.ElementCount(3); got != 24 {
		t.Errorf("ElementCount(3) = %d, want 24", got)
	}
	if tb.Stations[4].Wall != nil {
		t.Error("junction-owned terminal station should stay unemitted")
	}
}

func TestTube_Emit_CoreCounts(t *testing.T) {
	// around 8, box minor 2, transition 1: per row 8 wall + (2*2 box +
	// 8 transition) core elements; per station 16 wall + 9 box nodes
	tb := buildTube(t, "1-2",
		network.Counts{Around: 8, Along: 2, Shell: 1, CoreBoxMinor: 2, Transition: 1}, Config{})
	mesh := emit.NewMesh()
	w := emit.NewWriter(mesh, 1, 1)
	prop := annotation.NewPropagator()
	if err := tb.Emit(w, prop); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if got := mesh.NodeCount(); got != 75 {
		t.Errorf("NodeCount() = %d, want 75", got)
	}
	if got := mesh.ElementCount(3); got != 40 {
		t.Errorf("ElementCount(3) = %d, want 40", got)
	}
	if g := prop.Group(annotation.GroupShell); g == nil || g.Size() != 16 {
		t.Errorf("shell group size = %v, want 16", g.Size())
	}
	if g := prop.Group(annotation.GroupCore); g == nil || g.Size() != 24 {
		t.Errorf("core group size = %v, want 24", g.Size())
	}
}

func TestTube_Emit_AnnotationRange(t *testing.T) {
	tb := buildTube(t, "1-2", network.Counts{Around: 8, Along: 4, Shell: 1}, Config{})
	tb.Segment.AnnotateRange("proximal half", "", 0, 0.5)
	mesh := emit.NewMesh()
	w := emit.NewWriter(mesh, 1, 1)
	prop := annotation.NewPropagator()
	if err := tb.Emit(w, prop); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	// rows at fractions 0.125 and 0.375 are covered, 0.625 and 0.875 not
	g := prop.Group("proximal half")
	if g == nil {
		t.Fatal("annotation group missing")
	}
	if g.Size() != 16 {
		t.Errorf("group size = %d, want 16 (two of four rows)", g.Size())
	}
}

func TestTube_LinearThroughShell(t *testing.T) {
	tb := buildTube(t, "1-2", network.Counts{Around: 4, Along: 1, Shell: 1},
		Config{LinearThroughShell: true})
	mesh := emit.NewMesh()
	w := emit.NewWriter(mesh, 1, 1)
	if err := tb.Emit(w, annotation.NewPropagator()); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	for _, n := range mesh.Nodes() {
		if r3.Norm(n.D3) != 0 {
			t.Fatalf("node %d D3 = %v, want zero with linear through-wall", n.ID, n.D3)
		}
	}
}

func TestTube_OutwardTangent(t *testing.T) {
	tb := buildTube(t, "1-2", network.Counts{Around: 8, Along: 2, Shell: 1}, Config{})
	start := tb.OutwardTangent(true)
	end := tb.OutwardTangent(false)
	if start.X >= 0 {
		t.Errorf("start outward tangent = %v, want pointing -x", start)
	}
	if end.X <= 0 {
		t.Errorf("end outward tangent = %v, want pointing +x", end)
	}
	if math.Abs(r3.Norm(start)-1) > 1e-9 || math.Abs(r3.Norm(end)-1) > 1e-9 {
		t.Error("outward tangents should be unit length")
	}
}

func TestTube_TerminalFraction(t *testing.T) {
	tb := buildTube(t, "1-2", network.Counts{Around: 8, Along: 4, Shell: 1}, Config{})
	if got := tb.TerminalFraction(true); math.Abs(got-0.125) > 1e-12 {
		t.Errorf("TerminalFraction(start) = %v, want 0.125", got)
	}
	if got := tb.TerminalFraction(false); math.Abs(got-0.875) > 1e-12 {
		t.Errorf("TerminalFraction(end) = %v, want 0.875", got)
	}
}

func TestTube_CoreRingIDs(t *testing.T) {
	tb := buildTube(t, "1-2",
		network.Counts{Around: 16, Along: 1, Shell: 1, CoreBoxMinor: 4, Transition: 2}, Config{})
	mesh := emit.NewMesh()
	w := emit.NewWriter(mesh, 1, 1)
	if err := tb.Emit(w, annotation.NewPropagator()); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	ids := tb.Stations[0]
	boundary := tb.CoreRingIDs(ids, 0)
	interior := tb.CoreRingIDs(ids, 1)
	innerWall := tb.CoreRingIDs(ids, 2)
	for _, ring := range [][]int{boundary, interior, innerWall} {
		if len(ring) != 16 {
			t.Fatalf("core ring length = %d, want 16", len(ring))
		}
	}
	// layer Transition is exactly the inner wall station ring
	for q := range innerWall {
		if innerWall[q] != ids.Wall[0][q] {
			t.Fatalf("inner core ring diverges from inner wall at %d", q)
		}
	}
	// rings are disjoint node sets
	seen := make(map[int]bool)
	for _, ring := range [][]int{boundary, interior, innerWall} {
		for _, id := range ring {
			if seen[id] {
				t.Fatal("core rings share a node")
			}
			seen[id] = true
		}
	}
}
