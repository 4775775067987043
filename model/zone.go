// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"fmt"
	"sort"

	"github.com/udmlib-go/udmlib/rankconn"
	"github.com/udmlib-go/udmlib/udmerr"
)

// State is one of the model-level states named in §4.5.
type State int

const (
	Empty State = iota
	Loaded
	Rebuilt
	Partitioned
	Disposed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "Empty"
	case Loaded:
		return "Loaded"
	case Rebuilt:
		return "Rebuilt"
	case Partitioned:
		return "Partitioned"
	case Disposed:
		return "Disposed"
	}
	return "?"
}

// Zone is an independent mesh region: a node table, a section table, a
// field-name registry, and a rank-connectivity index (§3).
type Zone struct {
	Name  string
	Nodes *NodeTable
	Cells *CellTable
	Fields *FieldRegistry
	Conn  *rankconn.Index

	Sections []*Section

	// Generation is bumped by each rebuild/migration (§4.3, GLOSSARY).
	Generation int

	// state machine (§4.5)
	state State
	// Suspect marks the zone as unusable after a fatal error, until
	// re-ingest or disposal (§7).
	suspect bool

	// lastRealNode/lastRealCell record, per generation, the local-id
	// boundary between real and virtual entities; used to truncate the
	// previous virtual layer before recomputing it (§4.3).
	lastRealNode int
	lastRealCell int
}

// NewZone returns an empty zone named per §6's UdmZone#<id> convention.
func NewZone(id int) *Zone {
	return &Zone{
		Name:   fmt.Sprintf("UdmZone#%d", id),
		Nodes:  NewNodeTable(),
		Cells:  NewCellTable(),
		Fields: NewFieldRegistry(),
		Conn:   rankconn.NewIndex(),
		state:  Empty,
	}
}

// State returns the zone's current lifecycle state (§4.5).
func (z *Zone) State() State { return z.state }

// Suspect reports whether a fatal error has marked this zone unusable.
func (z *Zone) Suspect() bool { return z.suspect }

// MarkSuspect marks the zone as suspect; all operations besides re-ingest
// and disposal must refuse to run afterward (§7).
func (z *Zone) MarkSuspect() { z.suspect = true }

// checkUsable returns an error if the zone cannot currently accept the
// requested operation.
func (z *Zone) checkUsable() error {
	if z.state == Disposed {
		return udmerr.New(udmerr.InvalidEntity, "zone %q is disposed", z.Name)
	}
	if z.suspect {
		return udmerr.New(udmerr.TransportFailed, "zone %q is suspect; re-ingest or dispose before further operations", z.Name)
	}
	return nil
}

// InsertNode inserts a real node and invalidates incidence back to Loaded
// (§4.5: "write is permitted in any non-Disposed state but invalidates
// incidence back to the Loaded level").
func (z *Zone) InsertNode(x, y, z_ float64) (int, error) {
	if err := z.checkUsable(); err != nil {
		return 0, err
	}
	id := z.Nodes.Insert(x, y, z_)
	z.demote()
	return id, nil
}

// InsertCell inserts a real cell referencing existing node local ids in
// this zone and invalidates incidence back to Loaded.
func (z *Zone) InsertCell(kind Kind, nodeIDs []int) (int, error) {
	if err := z.checkUsable(); err != nil {
		return 0, err
	}
	for _, n := range nodeIDs {
		if z.Nodes.Get(n) == nil {
			return 0, udmerr.New(udmerr.InvalidEntity, "cell references unknown node local id %d", n)
		}
	}
	id := z.Cells.Insert(kind, nodeIDs)
	z.demote()
	return id, nil
}

// InsertRankConnectivity records that local node id pairs with
// (peerRank, peerLocal). Does not itself change state; Rebuild
// canonicalizes and rebuilds the virtual halo from these pairs (§4.3).
func (z *Zone) InsertRankConnectivity(local, peerRank, peerLocal int) error {
	if err := z.checkUsable(); err != nil {
		return err
	}
	if z.Nodes.Get(local) == nil {
		return udmerr.New(udmerr.InvalidEntity, "rank-connectivity references unknown node local id %d", local)
	}
	z.Conn.Insert(local, peerRank, peerLocal)
	return nil
}

// demote moves the zone back to Loaded after a structural write, per §4.5.
func (z *Zone) demote() {
	if z.state == Rebuilt || z.state == Partitioned {
		z.state = Loaded
	} else if z.state == Empty {
		z.state = Loaded
	}
}

// SetRebuilt is called by the rebuild engine once incidence, rank
// connectivity and the virtual halo are valid (§4.5).
func (z *Zone) SetRebuilt() { z.state = Rebuilt }

// SetPartitioned is called by the rebuild engine's Partition once the
// partitioner returns a non-empty plan, before the migration exchange; the
// internal Rebuild that ends a successful Partition brings the zone back to
// Rebuilt (§4.5). Kept as a distinct transient state for observers/tests.
func (z *Zone) SetPartitioned() { z.state = Partitioned }

// Dispose releases nodes, cells, field arrays and the index together
// (§3 Lifecycle, §5 Resource discipline).
func (z *Zone) Dispose() {
	z.Nodes.Reset()
	z.Cells.Reset()
	z.Fields = NewFieldRegistry()
	z.Conn.Reset()
	z.Sections = nil
	z.state = Disposed
}

// BuildIncidence populates node -> cells and derives node -> neighbour
// nodes (§4.1). Called by the rebuild engine; operates on every cell
// currently in the table (real and virtual).
func (z *Zone) BuildIncidence() {
	for _, n := range z.Nodes.All() {
		n.Cells = nil
		n.Neighs = nil
	}
	for _, c := range z.Cells.All() {
		for _, nid := range c.Nodes {
			n := z.Nodes.Get(nid)
			if n == nil {
				continue
			}
			n.Cells = append(n.Cells, c.Local)
		}
	}
	for _, n := range z.Nodes.All() {
		set := make(map[int]bool)
		for _, cid := range n.Cells {
			c := z.Cells.Get(cid)
			if c == nil {
				continue
			}
			for _, other := range c.Nodes {
				if other != n.Local {
					set[other] = true
				}
			}
		}
		neighs := make([]int, 0, len(set))
		for id := range set {
			neighs = append(neighs, id)
		}
		sort.Ints(neighs)
		n.Neighs = neighs
	}
}

// RecordGenerationBoundary snapshots the current real-entity counts so a
// later rebuild can truncate back to them before recomputing the virtual
// halo (§4.3).
func (z *Zone) RecordGenerationBoundary() {
	z.lastRealNode = len(z.Nodes.Real())
	z.lastRealCell = len(z.Cells.Real())
}

// TruncateVirtualLayer drops every node/cell appended after the last
// recorded real-entity boundary.
func (z *Zone) TruncateVirtualLayer() {
	z.Nodes.Truncate(z.lastRealNode)
	z.Cells.Truncate(z.lastRealCell)
}
