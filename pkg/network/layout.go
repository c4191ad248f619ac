package network

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// AssignDefaultLayout gives every node default coordinates on an integer
// breadth grid (x advancing along chains, branches fanned out in y) and
// fills each node's per-version tangent direction table from its
// neighbours. Parse calls this automatically; callers supplying their own
// coordinates may overwrite node positions and call
// AssignVersionDirections afterwards.
func (n *Network) AssignDefaultLayout() {
	// breadth-order integer x positions, iterated to a fixed point so
	// downstream chains push their nodes right of their sources
	for _, node := range n.nodes {
		node.posX = -1
	}
	for range n.segments {
		changed := 0
		for _, s := range n.segments {
			posX := s.StartNode().posX
			if posX < 0 {
				posX = 0
			}
			for _, node := range s.nodes {
				if node.posX < posX {
					node.posX = posX
					changed++
				}
				posX++
			}
		}
		if changed == 0 {
			break
		}
	}

	maxPosX := 0
	for _, node := range n.nodes {
		if node.posX > maxPosX {
			maxPosX = node.posX
		}
	}
	columns := make([][]*Node, maxPosX+1)
	for _, node := range n.nodes {
		columns[node.posX] = append(columns[node.posX], node)
	}
	for posX, column := range columns {
		// deterministic fan order by identifier
		for i := 1; i < len(column); i++ {
			for j := i; j > 0 && column[j-1].ID > column[j].ID; j-- {
				column[j-1], column[j] = column[j], column[j-1]
			}
		}
		countY := len(column)
		for iy, node := range column {
			y := 0.0
			if countY > 1 {
				y = float64(iy) - 0.5*float64(countY-1)
			}
			node.X = r3.Vec{X: float64(posX), Y: y}
		}
	}

	n.AssignVersionDirections()
}

// AssignVersionDirections fills each node's version direction table from
// the positions of the neighbouring nodes reached through segments using
// that version. Interior nodes take the chord through their chain
// neighbours.
func (n *Network) AssignVersionDirections() {
	for _, node := range n.nodes {
		for v := 1; v <= len(node.Versions); v++ {
			var prev, next *Node
			if interior := node.interior; interior != nil {
				for i, chainNode := range interior.nodes {
					if chainNode == node {
						prev = interior.nodes[i-1]
						next = interior.nodes[i+1]
						break
					}
				}
			} else {
				for _, in := range node.in {
					if in.EndVersion() == v {
						prev = in.nodes[len(in.nodes)-2]
						break
					}
				}
				for _, out := range node.out {
					if out.StartVersion() == v {
						next = out.nodes[1]
						break
					}
				}
			}
			var dir r3.Vec
			switch {
			case prev != nil && next != nil:
				dir = r3.Sub(next.X, prev.X)
			case prev != nil:
				dir = r3.Sub(node.X, prev.X)
			case next != nil:
				dir = r3.Sub(next.X, node.X)
			}
			if r3.Norm(dir) > 0 {
				node.Versions[v-1] = r3.Unit(dir)
			}
		}
	}
}
