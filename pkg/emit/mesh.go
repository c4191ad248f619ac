package emit

import (
	"errors"
	"fmt"
)

// Mesh is the in-memory Emitter: it retains every emitted node and
// element, validates connectivity on the way in, and serves lookups for
// callers that post-process the mesh instead of streaming it out.
type Mesh struct {
	nodes    map[int]Node
	elements map[int]Element

	nodeOrder    []int
	elementOrder []int
}

// NewMesh returns an empty in-memory mesh.
func NewMesh() *Mesh {
	return &Mesh{
		nodes:    make(map[int]Node),
		elements: make(map[int]Element),
	}
}

// EmitNode stores a node, rejecting duplicate identifiers.
func (m *Mesh) EmitNode(n Node) error {
	if _, exists := m.nodes[n.ID]; exists {
		return fmt.Errorf("emit: duplicate node id %d", n.ID)
	}
	m.nodes[n.ID] = n
	m.nodeOrder = append(m.nodeOrder, n.ID)
	return nil
}

// EmitElement stores an element, rejecting duplicate identifiers and
// references to nodes that have not been emitted.
func (m *Mesh) EmitElement(e Element) error {
	if _, exists := m.elements[e.ID]; exists {
		return fmt.Errorf("emit: duplicate element id %d", e.ID)
	}
	switch e.Dim {
	case 3:
		if len(e.Nodes) != 8 {
			return fmt.Errorf("emit: element %d: a 3-D element needs 8 local nodes, got %d", e.ID, len(e.Nodes))
		}
	case 2:
		if len(e.Nodes) != 4 {
			return fmt.Errorf("emit: element %d: a 2-D element needs 4 local nodes, got %d", e.ID, len(e.Nodes))
		}
	default:
		return errors.New("emit: element dimension must be 2 or 3")
	}
	for _, id := range e.Nodes {
		if _, ok := m.nodes[id]; !ok {
			return fmt.Errorf("emit: element %d references unknown node %d", e.ID, id)
		}
	}
	stored := Element{ID: e.ID, Dim: e.Dim, Nodes: append([]int(nil), e.Nodes...)}
	m.elements[e.ID] = stored
	m.elementOrder = append(m.elementOrder, e.ID)
	return nil
}

// Node returns the node with the given identifier.
func (m *Mesh) Node(id int) (Node, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

// Element returns the element with the given identifier.
func (m *Mesh) Element(id int) (Element, bool) {
	e, ok := m.elements[id]
	return e, ok
}

// NodeCount returns the number of stored nodes.
func (m *Mesh) NodeCount() int { return len(m.nodes) }

// ElementCount returns the number of stored elements of the given
// dimension.
func (m *Mesh) ElementCount(dim int) int {
	count := 0
	for _, e := range m.elements {
		if e.Dim == dim {
			count++
		}
	}
	return count
}

// Nodes returns all nodes in emission order.
func (m *Mesh) Nodes() []Node {
	out := make([]Node, len(m.nodeOrder))
	for i, id := range m.nodeOrder {
		out[i] = m.nodes[id]
	}
	return out
}

// Elements returns all elements in emission order.
func (m *Mesh) Elements() []Element {
	out := make([]Element, len(m.elementOrder))
	for i, id := range m.elementOrder {
		out[i] = m.elements[id]
	}
	return out
}
