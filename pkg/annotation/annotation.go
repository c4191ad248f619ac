// Package annotation tracks named element groups. Groups are fed during
// emission by the segment and junction builders so membership never
// needs a second pass over the mesh.
package annotation

import (
	"sort"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-tubemesh/pkg/network"
)

// Built-in group names, always defined when the feature that fills them
// is enabled.
const (
	GroupCore         = "core"
	GroupShell        = "shell"
	GroupTrimSurfaces = "trim surfaces"
)

// termNamespace seeds deterministic term identifiers for groups created
// without an explicit ontology term.
var termNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/dd0wney/cluso-tubemesh/terms"))

// TermID returns the deterministic term identifier for an unqualified
// group name. Groups annotated with an explicit term keep theirs.
func TermID(name string) string {
	return "TUBEMESH:" + uuid.NewSHA1(termNamespace, []byte(name)).String()
}

// Group is one annotation group: a named, deduplicated element set.
type Group struct {
	Name   string
	TermID string

	members map[int]bool
}

// Add records element membership. Adding twice is a no-op.
func (g *Group) Add(elementID int) {
	if g.members == nil {
		g.members = make(map[int]bool)
	}
	g.members[elementID] = true
}

// Size returns the number of member elements.
func (g *Group) Size() int { return len(g.members) }

// Has reports element membership.
func (g *Group) Has(elementID int) bool { return g.members[elementID] }

// ElementIDs returns the member element identifiers in ascending order.
func (g *Group) ElementIDs() []int {
	ids := make([]int, 0, len(g.members))
	for id := range g.members {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Region classifies an emitted element for built-in group membership.
type Region int

const (
	RegionShell Region = iota
	RegionCore
	RegionTrim
)

// Propagator collects groups as elements are emitted.
type Propagator struct {
	groups map[string]*Group
	order  []string
}

// NewPropagator returns an empty propagator.
func NewPropagator() *Propagator {
	return &Propagator{groups: make(map[string]*Group)}
}

// EnsureGroup returns the named group, creating it if needed. An empty
// termID derives a deterministic one from the name.
func (p *Propagator) EnsureGroup(name, termID string) *Group {
	if g, ok := p.groups[name]; ok {
		return g
	}
	if termID == "" {
		termID = TermID(name)
	}
	g := &Group{Name: name, TermID: termID}
	p.groups[name] = g
	p.order = append(p.order, name)
	return g
}

// Group returns the named group, or nil.
func (p *Propagator) Group(name string) *Group { return p.groups[name] }

// Groups returns all groups in creation order.
func (p *Propagator) Groups() []*Group {
	out := make([]*Group, len(p.order))
	for i, name := range p.order {
		out[i] = p.groups[name]
	}
	return out
}

// Tag records one emitted element: built-in region groups first, then
// every segment annotation whose along span covers the element. alongFrac
// is the centre fraction of the element's row; junction-owned elements
// pass the terminal fraction of their segment.
func (p *Propagator) Tag(elementID int, seg *network.Segment, region Region, alongFrac float64) {
	switch region {
	case RegionCore:
		p.EnsureGroup(GroupCore, "").Add(elementID)
	case RegionShell:
		p.EnsureGroup(GroupShell, "").Add(elementID)
	case RegionTrim:
		p.EnsureGroup(GroupTrimSurfaces, "").Add(elementID)
		return
	}
	if seg == nil {
		return
	}
	for _, a := range seg.Annotations {
		if a.Covers(alongFrac) {
			p.EnsureGroup(a.Name, a.TermID).Add(elementID)
		}
	}
}
