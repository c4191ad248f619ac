// Package emit is the boundary to the mesh-realization API: the engine
// reduces a generation to an ordered sequence of node and element
// emission calls. Callers are expected to treat the sequence as
// transactional for a target document or region.
package emit

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Node is one emitted mesh node: position plus the in-plane derivative
// pair and the through-wall derivative.
type Node struct {
	ID int
	X  r3.Vec
	D1 r3.Vec
	D2 r3.Vec
	D3 r3.Vec
}

// Element is one emitted element: Dim 3 for hexahedra (8 local nodes,
// repeats allowed for collapsed connector elements) or Dim 2 for
// diagnostic surface quads (4 local nodes).
type Element struct {
	ID    int
	Dim   int
	Nodes []int
}

// Emitter receives the ordered emission calls.
type Emitter interface {
	EmitNode(Node) error
	EmitElement(Element) error
}

// Writer wraps an Emitter with the single monotonically increasing
// node/element identifier counter threaded through the pipeline.
type Writer struct {
	emitter       Emitter
	nextNodeID    int
	nextElementID int
	err           error
}

// NewWriter starts identifiers at the given values (normally 1, 1).
func NewWriter(emitter Emitter, startNodeID, startElementID int) *Writer {
	return &Writer{emitter: emitter, nextNodeID: startNodeID, nextElementID: startElementID}
}

// Err returns the first emission error, if any.
func (w *Writer) Err() error { return w.err }

// NodeCount returns the number of nodes emitted so far.
func (w *Writer) NodeCount() int { return w.nextNodeID - 1 }

// ElementCount returns the number of elements emitted so far.
func (w *Writer) ElementCount() int { return w.nextElementID - 1 }

// Node emits a node and returns its identifier.
func (w *Writer) Node(x, d1, d2, d3 r3.Vec) int {
	id := w.nextNodeID
	w.nextNodeID++
	if w.err == nil {
		w.err = w.emitter.EmitNode(Node{ID: id, X: x, D1: d1, D2: d2, D3: d3})
	}
	return id
}

// Hex emits a 3-D element over 8 local node identifiers and returns its
// identifier.
func (w *Writer) Hex(nodes [8]int) int {
	id := w.nextElementID
	w.nextElementID++
	if w.err == nil {
		w.err = w.emitter.EmitElement(Element{ID: id, Dim: 3, Nodes: nodes[:]})
	}
	return id
}

// Quad emits a 2-D diagnostic element over 4 local node identifiers.
func (w *Writer) Quad(nodes [4]int) int {
	id := w.nextElementID
	w.nextElementID++
	if w.err == nil {
		w.err = w.emitter.EmitElement(Element{ID: id, Dim: 2, Nodes: nodes[:]})
	}
	return id
}
