package network

import (
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// Parse builds a network from a structure string: comma-separated chains
// of dash-separated node[.version] tokens. A leading "(" caps the chain's
// first node and a trailing ")" caps its last node, marking those tube
// ends to be closed with an apex cap instead of left open.
//
// Example: "1-2-4-5-6,3-4.2-7,5-8" makes
//
//	          7
//	         /
//	    1-2-4-5-6
//	       /   \
//	      3     8
//
// where the chain 3-4.2-7 continues through version 2 of node 4's
// derivatives. A chain referencing an interior node of an earlier chain
// splits that run into two segments at the shared node.
//
// Parsing is atomic: on any structural error no partial network is
// returned.
func Parse(structure string) (*Network, error) {
	if strings.TrimSpace(structure) == "" {
		return nil, parseErr(structure, "", ErrEmptyStructure)
	}
	net := &Network{nodes: make(map[int]*Node)}
	versionsUsed := make(map[int]map[int]bool)

	for _, rawChain := range strings.Split(structure, ",") {
		chain := strings.TrimSpace(rawChain)
		capStart := strings.HasPrefix(chain, "(")
		capEnd := strings.HasSuffix(chain, ")")
		chain = strings.TrimPrefix(chain, "(")
		chain = strings.TrimSuffix(chain, ")")
		if strings.ContainsAny(chain, "()") {
			return nil, parseErr(rawChain, "", ErrUnbalancedCapMark)
		}

		tokens := strings.Split(chain, "-")
		if len(tokens) < 2 {
			return nil, parseErr(rawChain, chain, ErrSingleNodeChain)
		}

		ids := make([]int, len(tokens))
		versions := make([]int, len(tokens))
		for i, token := range tokens {
			id, version, err := parseToken(token)
			if err != nil {
				return nil, parseErr(rawChain, token, err)
			}
			ids[i] = id
			versions[i] = version
			if i > 0 && ids[i-1] == id && versions[i-1] == version {
				return nil, parseErr(rawChain, token, ErrSelfLoop)
			}
		}

		chainNodes := make([]*Node, 0, len(tokens))
		chainVersions := make([]int, 0, len(tokens))
		for i := range ids {
			node, existed := net.nodes[ids[i]], false
			if node != nil {
				existed = true
				if prior := node.interior; prior != nil {
					// a re-referenced interior node splits its run
					next := prior.split(node)
					index := segmentIndex(net.segments, prior) + 1
					net.segments = append(net.segments, nil)
					copy(net.segments[index+1:], net.segments[index:])
					net.segments[index] = next
				}
			} else {
				node = &Node{ID: ids[i]}
				net.nodes[ids[i]] = node
			}
			defineVersion(node, versionsUsed, ids[i], versions[i])
			chainNodes = append(chainNodes, node)
			chainVersions = append(chainVersions, versions[i])

			// close a segment when hitting a pre-existing node or the
			// chain end, then restart from that node
			if len(chainNodes) > 1 && (existed || i == len(ids)-1) {
				net.segments = append(net.segments, newSegment(chainNodes, chainVersions))
				chainNodes = chainNodes[len(chainNodes)-1:]
				chainVersions = chainVersions[len(chainVersions)-1:]
			}
		}

		if capStart {
			net.nodes[ids[0]].Capped = true
		}
		if capEnd {
			net.nodes[ids[len(ids)-1]].Capped = true
		}
	}

	// every version 1..max at a node must have been referenced
	for id, used := range versionsUsed {
		node := net.nodes[id]
		for v := 1; v <= len(node.Versions); v++ {
			if !used[v] {
				return nil, parseErr(structure, strconv.Itoa(id), ErrVersionGap)
			}
		}
	}

	// connect segment ends
	for _, s := range net.segments {
		s.StartNode().out = append(s.StartNode().out, s)
		s.EndNode().in = append(s.EndNode().in, s)
	}

	for _, node := range net.nodes {
		if node.Degree() == 0 && node.interior == nil {
			return nil, parseErr(structure, strconv.Itoa(node.ID), ErrOrphanNode)
		}
	}

	net.AssignDefaultLayout()
	return net, nil
}

// parseToken splits "id" or "id.version" into its integer parts.
func parseToken(token string) (id, version int, err error) {
	version = 1
	idPart, versionPart, hasVersion := strings.Cut(token, ".")
	id, err = strconv.Atoi(strings.TrimSpace(idPart))
	if err != nil || id < 1 {
		return 0, 0, ErrBadNodeID
	}
	if hasVersion {
		version, err = strconv.Atoi(strings.TrimSpace(versionPart))
		if err != nil || version < 1 {
			return 0, 0, ErrBadVersion
		}
	}
	return id, version, nil
}

// defineVersion grows the node's version table to cover the referenced
// version and records its use.
func defineVersion(node *Node, used map[int]map[int]bool, id, version int) {
	for len(node.Versions) < version {
		node.Versions = append(node.Versions, r3.Vec{})
	}
	if used[id] == nil {
		used[id] = make(map[int]bool)
	}
	used[id][version] = true
}

func segmentIndex(segments []*Segment, target *Segment) int {
	for i, s := range segments {
		if s == target {
			return i
		}
	}
	return len(segments) - 1
}
