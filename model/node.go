// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

// Node is a geometric point (§3). Dense local ids are assigned 1..N per
// zone by the NodeTable that owns it; "references" to cells and neighbour
// nodes are themselves dense local ids, not pointers (§9's indirection note).
type Node struct {
	Local    int      // dense 1-based local id within the zone
	Global   GlobalID // (owning-rank, local-id), stable across the wire
	Coords   [3]float64
	Reality  Reality
	Twins    []Twin // rank-connectivity pairs; empty unless this node is on a boundary
	Cells    []int  // local ids of incident cells (back-ref, §4.1)
	Neighs   []int  // local ids of neighbour nodes, sorted & deduped (§4.1)
}

// Twin names one peer copy of a boundary node (§3, §4.2).
type Twin struct {
	PeerRank  int
	PeerLocal int
}

// NodeTable owns the dense node arrays for one zone (§4.1's Topology Store).
type NodeTable struct {
	nodes []*Node
}

// NewNodeTable returns an empty table.
func NewNodeTable() *NodeTable {
	return &NodeTable{}
}

// Insert appends a new real node at (x, y, z) and returns its fresh local id.
func (t *NodeTable) Insert(x, y, z float64) int {
	id := len(t.nodes) + 1
	t.nodes = append(t.nodes, &Node{
		Local:   id,
		Coords:  [3]float64{x, y, z},
		Reality: Real,
	})
	return id
}

// InsertVirtual appends a new virtual (ghost) node naming a peer entity and
// returns its fresh local id, appended after all currently-real nodes per
// the rebuild's virtual-layer rule (§4.3).
func (t *NodeTable) InsertVirtual(global GlobalID, x, y, z float64) int {
	id := len(t.nodes) + 1
	t.nodes = append(t.nodes, &Node{
		Local:   id,
		Global:  global,
		Coords:  [3]float64{x, y, z},
		Reality: Virtual,
	})
	return id
}

// Len returns the total node count (real + virtual).
func (t *NodeTable) Len() int { return len(t.nodes) }

// Get returns the node at local id, or nil if out of range.
func (t *NodeTable) Get(local int) *Node {
	if local < 1 || local > len(t.nodes) {
		return nil
	}
	return t.nodes[local-1]
}

// All returns every node, real and virtual, in local-id order.
func (t *NodeTable) All() []*Node { return t.nodes }

// Real returns every real node, in local-id order.
func (t *NodeTable) Real() []*Node {
	out := make([]*Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		if n.Reality == Real {
			out = append(out, n)
		}
	}
	return out
}

// Virtual returns every virtual (ghost) node, in local-id order.
func (t *NodeTable) Virtual() []*Node {
	out := make([]*Node, 0)
	for _, n := range t.nodes {
		if n.Reality == Virtual {
			out = append(out, n)
		}
	}
	return out
}

// Truncate drops all nodes with local id > lastReal, used by rebuild to
// discard the previous generation's virtual layer before recomputing it.
func (t *NodeTable) Truncate(lastReal int) {
	if lastReal < len(t.nodes) {
		t.nodes = t.nodes[:lastReal]
	}
}

// Reset clears every node (zone/model teardown, §3 Lifecycle).
func (t *NodeTable) Reset() { t.nodes = nil }
