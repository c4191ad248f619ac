// Package mesher drives the generation pipeline: parse the structure
// string, resolve element counts, sweep every segment into a tube, then
// close caps and junctions. The pipeline is a pure function of (network,
// options): geometry and junction plans are built and validated in full
// before the first emission call, so a failed generation never produces
// a partial mesh.
package mesher

import (
	"fmt"
	"sort"
	"time"

	"github.com/dd0wney/cluso-tubemesh/pkg/annotation"
	"github.com/dd0wney/cluso-tubemesh/pkg/emit"
	"github.com/dd0wney/cluso-tubemesh/pkg/junction"
	"github.com/dd0wney/cluso-tubemesh/pkg/logging"
	"github.com/dd0wney/cluso-tubemesh/pkg/metrics"
	"github.com/dd0wney/cluso-tubemesh/pkg/network"
	"github.com/dd0wney/cluso-tubemesh/pkg/resolve"
	"github.com/dd0wney/cluso-tubemesh/pkg/tube"
)

// Result reports what a generation emitted.
type Result struct {
	NodeCount           int
	ElementCount        int // 3-D elements
	SurfaceElementCount int // 2-D diagnostic elements

	Groups  []*annotation.Group
	Notices []resolve.Notice

	Network *network.Network
}

// Mesher generates tube network meshes.
type Mesher struct {
	logger  logging.Logger
	metrics *metrics.Registry
}

// New creates a mesher. A nil logger discards output; a nil registry
// uses the package default.
func New(logger logging.Logger, reg *metrics.Registry) *Mesher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}
	return &Mesher{logger: logger.With(logging.Component("mesher")), metrics: reg}
}

// Generate parses the options' structure string and generates its mesh
// into the emitter. Use GenerateNetwork to annotate segments or supply
// custom layout coordinates first.
func (m *Mesher) Generate(opts Options, emitter emit.Emitter) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	net, err := network.Parse(opts.Structure)
	if err != nil {
		m.metrics.RecordGeneration("parse_error", 0)
		return nil, err
	}
	return m.GenerateNetwork(net, opts, emitter)
}

// GenerateNetwork generates the mesh of an already parsed (and possibly
// annotated or re-laid-out) network.
func (m *Mesher) GenerateNetwork(net *network.Network, opts Options, emitter emit.Emitter) (*Result, error) {
	start := time.Now()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	m.metrics.RecordNetwork(len(net.Nodes()), len(net.Segments()))
	log := m.logger.With(logging.Structure(opts.Structure))
	timer := logging.StartTimer(log, "mesh generated")

	notices, err := m.resolveCounts(net, opts)
	if err != nil {
		m.fail(log, "resolve", err)
		return nil, err
	}

	tubes, junctions, caps, err := m.build(net, opts)
	if err != nil {
		m.fail(log, "build", err)
		return nil, err
	}

	prop := annotation.NewPropagator()
	writer := emit.NewWriter(emitter, 1, 1)
	if err := m.emit(writer, prop, tubes, junctions, caps); err != nil {
		m.fail(log, "emit", err)
		return nil, err
	}

	surface := 0
	if g := prop.Group(annotation.GroupTrimSurfaces); g != nil {
		surface = g.Size()
	}
	result := &Result{
		NodeCount:           writer.NodeCount(),
		ElementCount:        writer.ElementCount() - surface,
		SurfaceElementCount: surface,
		Groups:              prop.Groups(),
		Notices:             notices,
		Network:             net,
	}

	m.metrics.RecordGeneration("ok", time.Since(start))
	m.metrics.RecordEmission(result.NodeCount, result.ElementCount, surface)
	m.metrics.AnnotationGroups.Observe(float64(len(result.Groups)))
	timer.End(logging.Nodes(result.NodeCount), logging.Elements(result.ElementCount),
		logging.Groups(len(result.Groups)))
	return result, nil
}

func (m *Mesher) fail(log logging.Logger, stage string, err error) {
	m.metrics.RecordGeneration(stage+"_error", 0)
	log.Error("mesh generation failed", logging.Operation(stage), logging.Error(err))
}

func (m *Mesher) resolveCounts(net *network.Network, opts Options) ([]resolve.Notice, error) {
	stage := time.Now()
	notices, err := resolve.Resolve(net, opts.resolveOptions())
	m.metrics.RecordStage("resolve", time.Since(stage))
	if err != nil {
		return nil, err
	}
	for _, n := range notices {
		m.metrics.RecordNotice(n.Field)
		m.logger.Warn("dependent option changed",
			logging.SegmentIDs(n.SegmentIDs), logging.String("field", n.Field),
			logging.Int("from", n.From), logging.Int("to", n.To),
			logging.String("reason", n.Reason))
	}
	return notices, nil
}

// build sweeps every segment and plans every junction and cap, without
// emitting anything. Validation errors surface here, before the mesh
// exists.
func (m *Mesher) build(net *network.Network, opts Options) ([]*tube.Tube, []*junction.Junction, []*junction.Cap, error) {
	stage := time.Now()
	defer func() { m.metrics.RecordStage("build", time.Since(stage)) }()

	ends := net.SegmentEnds()
	tubes := make(map[*network.Segment]*tube.Tube, len(net.Segments()))
	ordered := make([]*tube.Tube, 0, len(net.Segments()))
	for _, seg := range net.Segments() {
		cfg := tube.Config{
			StartJunction:      len(ends[seg.StartNode()]) >= 2,
			EndJunction:        len(ends[seg.EndNode()]) >= 2,
			LinearThroughShell: opts.UseLinearThroughShell,
		}
		t, err := tube.Build(seg, cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		tubes[seg] = t
		ordered = append(ordered, t)
	}

	trimSeq := 0
	jcfg := junction.Config{
		UseOuterTrimSurfaces: opts.UseOuterTrimSurfaces,
		ShowTrimSurfaces:     opts.IsShowTrimSurfaces,
		NextTrimIndex: func() int {
			trimSeq++
			return trimSeq
		},
	}

	var junctions []*junction.Junction
	var caps []*junction.Cap
	for _, node := range junctionNodeOrder(ends) {
		es := ends[node]
		switch {
		case len(es) >= 2:
			jends := make([]junction.End, len(es))
			for i, seg := range es {
				jends[i] = junction.End{Tube: tubes[seg], AtStart: seg.StartNode() == node}
			}
			j, err := junction.New(node, jends, jcfg)
			if err != nil {
				return nil, nil, nil, err
			}
			junctions = append(junctions, j)
		case node.Capped:
			seg := es[0]
			caps = append(caps, junction.NewCap(tubes[seg], seg.StartNode() == node))
		}
	}
	return ordered, junctions, caps, nil
}

func (m *Mesher) emit(w *emit.Writer, prop *annotation.Propagator,
	tubes []*tube.Tube, junctions []*junction.Junction, caps []*junction.Cap) error {
	stage := time.Now()
	defer func() { m.metrics.RecordStage("emit", time.Since(stage)) }()

	for _, t := range tubes {
		if err := t.Emit(w, prop); err != nil {
			return fmt.Errorf("mesher: segment %v: %w", t.Segment.NodeIDs(), err)
		}
	}
	for _, j := range junctions {
		if err := j.Emit(w, prop); err != nil {
			return fmt.Errorf("mesher: junction at node %d: %w", j.Node.ID, err)
		}
		for _, v := range j.PlanVariants() {
			m.metrics.RecordJunction(v.String())
		}
		if len(j.Trims) > 0 {
			m.metrics.TrimSurfacesTotal.Add(float64(len(j.Trims)))
		}
	}
	for _, c := range caps {
		if err := c.Emit(w, prop); err != nil {
			return fmt.Errorf("mesher: cap: %w", err)
		}
		m.metrics.RecordJunction(c.Variant.String())
	}
	return w.Err()
}

// junctionNodeOrder returns nodes with incident ends sorted by
// identifier so emission is deterministic.
func junctionNodeOrder(ends map[*network.Node][]*network.Segment) []*network.Node {
	nodes := make([]*network.Node, 0, len(ends))
	for n := range ends {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}
