// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rebuild drives the two core protocols over one zone (§4.3): the
// rebuild protocol (incidence, rank connectivity, virtual halo) and the
// graph-based repartitioning/migration protocol layered on top of it.
package rebuild

import (
	"sort"

	"github.com/udmlib-go/udmlib/model"
	"github.com/udmlib-go/udmlib/partition"
	"github.com/udmlib-go/udmlib/udmerr"
	"github.com/udmlib-go/udmlib/wire"
)

// Transport is the pairwise/collective surface Engine depends on (§9): the
// core never imports a concrete MPI binding directly, the same trait
// boundary partition.Partitioner draws around the external partitioner.
// transport.Comm satisfies this.
type Transport interface {
	Rank() int
	Size() int
	Send(data []byte, to int) error
	Recv(from int) ([]byte, error)
	ExchangeSizes(outgoing map[int]int) (map[int]int, error)
	Handshake(failed bool) bool
}

// Engine drives Rebuild and Partition over a single zone.
type Engine struct {
	Transport   Transport
	Partitioner partition.Partitioner
}

// New returns an Engine. t may be nil for a single-rank run with no
// virtual halo to compute (tests, or NumberOfRank==1, §4.5).
func New(t Transport, p partition.Partitioner) *Engine {
	return &Engine{Transport: t, Partitioner: p}
}

func (e *Engine) rank() int {
	if e.Transport == nil {
		return 0
	}
	return e.Transport.Rank()
}

// Rebuild makes zone's incidence, rank connectivity and virtual halo valid
// again (§4.3, §4.5). Idempotent when called twice with no intervening
// structural write.
func (e *Engine) Rebuild(z *model.Zone) error {
	if z.Suspect() {
		return udmerr.New(udmerr.TransportFailed, "zone %q is suspect; re-ingest or dispose first", z.Name)
	}

	// with no virtual layer present every entity is real, so the boundary
	// is the current table length (this covers a zone's first Rebuild)
	if len(z.Nodes.Virtual()) == 0 && len(z.Cells.Virtual()) == 0 {
		z.RecordGenerationBoundary()
	}
	z.TruncateVirtualLayer()
	z.Conn.ClearVirtualBindings()
	e.assignGlobals(z)
	z.BuildIncidence()
	z.RecordGenerationBoundary()
	z.Conn.Canonicalize()

	if e.Transport != nil && z.Conn.Len() > 0 {
		if err := e.buildVirtualHalo(z); err != nil {
			z.MarkSuspect()
			return err
		}
		z.BuildIncidence()
	}
	z.SetRebuilt()
	return nil
}

func (e *Engine) assignGlobals(z *model.Zone) {
	rank := e.rank()
	for _, n := range z.Nodes.Real() {
		n.Global = model.GlobalID{Rank: rank, Local: n.Local}
	}
	for _, c := range z.Cells.Real() {
		c.Global = model.GlobalID{Rank: rank, Local: c.Local}
	}
}

// buildVirtualHalo exchanges, with every peer rank named by zone's
// rank-connectivity index, the real cells incident to the boundary nodes
// shared with that peer, and appends what comes back as the one-layer
// ghost halo (§4.3). Exchange order is lower-rank-sends-first to avoid a
// pairwise deadlock, matching transport.Comm.ExchangeIDPairs.
func (e *Engine) buildVirtualHalo(z *model.Zone) error {
	layout := fieldLayout(z)
	known := make(map[model.GlobalID]bool, z.Cells.Len())
	for _, c := range z.Cells.All() {
		known[c.Global] = true
	}

	for _, peer := range z.Conn.PeerRanks() {
		plan := z.Conn.SendPlan(peer)
		pkt := exportPacket(z, plan.Local)
		data := wire.Pack(pkt)

		var recvData []byte
		var err error
		if e.rank() < peer {
			err = e.Transport.Send(data, peer)
			if err == nil {
				recvData, err = e.Transport.Recv(peer)
			}
		} else {
			recvData, err = e.Transport.Recv(peer)
			if err == nil {
				err = e.Transport.Send(data, peer)
			}
		}
		if err != nil {
			return udmerr.New(udmerr.TransportFailed, "virtual-halo exchange with rank %d: %v", peer, err)
		}

		recv, err := wire.Unpack(recvData, layout)
		if err != nil {
			return udmerr.New(udmerr.TransportFailed, "virtual-halo unpack from rank %d: %v", peer, err)
		}
		mergeVirtual(z, recv, known)
	}
	return nil
}

// exportPacket builds the single-chunk packet of real cells incident to
// any node in locals, plus the distinct nodes those cells reference.
func exportPacket(z *model.Zone, locals []int) wire.Packet {
	seenCell := make(map[int]bool)
	var cells []wire.CellRecord
	nodeSet := make(map[int]bool)
	for _, local := range locals {
		n := z.Nodes.Get(local)
		if n == nil {
			continue
		}
		for _, cid := range n.Cells {
			if seenCell[cid] {
				continue
			}
			seenCell[cid] = true
			c := z.Cells.Get(cid)
			if c == nil || c.Reality != model.Real {
				continue
			}
			nodeIDs := make([]model.GlobalID, len(c.Nodes))
			for i, nid := range c.Nodes {
				if cn := z.Nodes.Get(nid); cn != nil {
					nodeIDs[i] = cn.Global
				}
				nodeSet[nid] = true
			}
			cells = append(cells, wire.CellRecord{
				Kind:    c.Kind,
				Global:  c.Global,
				Weight:  float32(c.Weight),
				NodeIDs: nodeIDs,
				Values:  z.Fields.Values(model.CellCenter, c.Local),
			})
		}
	}

	nodeIDs := make([]int, 0, len(nodeSet))
	for id := range nodeSet {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Ints(nodeIDs)
	nodes := make([]wire.NodeRecord, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		n := z.Nodes.Get(id)
		nodes = append(nodes, wire.NodeRecord{
			Global: n.Global,
			X:      n.Coords[0], Y: n.Coords[1], Z: n.Coords[2],
			Values: z.Fields.Values(model.Vertex, id),
		})
	}

	return wire.Packet{Chunks: []wire.Chunk{{Cells: cells, Nodes: nodes}}}
}

// mergeVirtual appends every cell/node in recv not already present
// (by global id) into zone as virtual entities.
func mergeVirtual(z *model.Zone, recv wire.Packet, known map[model.GlobalID]bool) {
	globalToLocal := make(map[model.GlobalID]int)
	for _, n := range z.Nodes.All() {
		globalToLocal[n.Global] = n.Local
	}

	for _, chunk := range recv.Chunks {
		for _, nr := range chunk.Nodes {
			if _, ok := globalToLocal[nr.Global]; ok {
				continue
			}
			local := z.Nodes.InsertVirtual(nr.Global, nr.X, nr.Y, nr.Z)
			globalToLocal[nr.Global] = local
			z.Conn.BindVirtual(nr.Global.Rank, nr.Global.Local, local)
			_ = z.Fields.SetValues(model.Vertex, local, nr.Values)
		}
		for _, cr := range chunk.Cells {
			if known[cr.Global] {
				continue
			}
			known[cr.Global] = true
			nodeLocals := make([]int, len(cr.NodeIDs))
			for i, gid := range cr.NodeIDs {
				local, ok := globalToLocal[gid]
				if !ok {
					local = z.Nodes.InsertVirtual(gid, 0, 0, 0)
					globalToLocal[gid] = local
					z.Conn.BindVirtual(gid.Rank, gid.Local, local)
				}
				nodeLocals[i] = local
			}
			local := z.Cells.InsertVirtual(cr.Global, cr.Kind, nodeLocals, float64(cr.Weight))
			_ = z.Fields.SetValues(model.CellCenter, local, cr.Values)
		}
	}
}

func fieldLayout(z *model.Zone) wire.Layout {
	return wire.Layout{
		CellValues: z.Fields.TotalArity(model.CellCenter),
		NodeValues: z.Fields.TotalArity(model.Vertex),
	}
}
