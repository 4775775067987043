// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rebuild

import (
	"github.com/udmlib-go/udmlib/model"
	"github.com/udmlib-go/udmlib/partition"
	"github.com/udmlib-go/udmlib/udmerr"
	"github.com/udmlib-go/udmlib/wire"
)

// zoneSource adapts a rebuilt zone to partition.Source (§4.3's query
// callbacks): real cells as objects, shared-node adjacency as edges,
// centroids as geometry.
type zoneSource struct {
	z *model.Zone
}

func (s *zoneSource) ObjectCount() int { return len(s.z.Cells.Real()) }

func (s *zoneSource) ObjectList() []partition.Object {
	reals := s.z.Cells.Real()
	out := make([]partition.Object, len(reals))
	for i, c := range reals {
		out[i] = partition.Object{Global: c.Global, Weight: c.Weight}
	}
	return out
}

// EdgeList reports shared-node adjacency between real cells, including
// cross-rank edges to the virtual (ghost) cells the halo carries: a virtual
// cell's Global already names the peer rank that owns it, so a partitioner
// weighing whether to move a boundary cell sees the same cut cost a
// single-rank mesh would show (§4.3).
func (s *zoneSource) EdgeList() map[model.GlobalID][]partition.Edge {
	out := make(map[model.GlobalID][]partition.Edge)
	for _, c := range s.z.Cells.Real() {
		shared := make(map[model.GlobalID]int)
		for _, nid := range c.Nodes {
			n := s.z.Nodes.Get(nid)
			if n == nil {
				continue
			}
			for _, otherID := range n.Cells {
				if otherID == c.Local {
					continue
				}
				other := s.z.Cells.Get(otherID)
				if other == nil {
					continue
				}
				shared[other.Global]++
			}
		}
		for peer, count := range shared {
			out[c.Global] = append(out[c.Global], partition.Edge{Peer: peer, Weight: count})
		}
	}
	return out
}

func (s *zoneSource) Geometry() map[model.GlobalID][3]float64 {
	out := make(map[model.GlobalID][3]float64)
	for _, c := range s.z.Cells.Real() {
		var sum [3]float64
		n := 0
		for _, nid := range c.Nodes {
			if node := s.z.Nodes.Get(nid); node != nil {
				sum[0] += node.Coords[0]
				sum[1] += node.Coords[1]
				sum[2] += node.Coords[2]
				n++
			}
		}
		if n > 0 {
			out[c.Global] = [3]float64{sum[0] / float64(n), sum[1] / float64(n), sum[2] / float64(n)}
		}
	}
	return out
}

// Partition repartitions zone (§4.3): queries the configured Partitioner,
// and if it returns a non-empty plan, packs the exported cells per
// destination rank, exchanges them, merges what arrives, deletes what left,
// and re-runs Rebuild so the zone reaches Rebuilt again with the new
// layout (§4.5: Rebuilt -> Partitioned -> Rebuilt).
//
// Returns changed=false with no transport traffic when the plan is empty —
// the §9 open-question decision that zero real cells (or a partitioner
// that sees no improving cut) is a no-op, not an error.
func (e *Engine) Partition(z *model.Zone, params partition.Params) (changed bool, err error) {
	if z.Suspect() {
		return false, udmerr.New(udmerr.TransportFailed, "zone %q is suspect; re-ingest or dispose first", z.Name)
	}
	if z.State() != model.Rebuilt {
		if err := e.Rebuild(z); err != nil {
			return false, err
		}
	}

	src := &zoneSource{z: z}
	plan, err := e.Partitioner.Partition(src, params)
	if err != nil {
		z.MarkSuspect()
		return false, udmerr.New(udmerr.PartitionFailed, "partitioner: %v", err)
	}
	if plan.Empty() {
		return false, nil
	}

	z.SetPartitioned()

	if e.Transport == nil {
		return false, udmerr.New(udmerr.TransportFailed, "partition plan is non-empty but no transport is configured")
	}

	layout := fieldLayout(z)
	byDest := groupExportsByDest(z, plan)

	outgoingSizes := make(map[int]int, len(byDest))
	outgoingData := make(map[int][]byte, len(byDest))
	for dest, pkt := range byDest {
		data := wire.Pack(pkt)
		outgoingData[dest] = data
		outgoingSizes[dest] = len(data)
	}
	if _, err := e.Transport.ExchangeSizes(outgoingSizes); err != nil {
		z.MarkSuspect()
		return false, udmerr.New(udmerr.TransportFailed, "migration size exchange: %v", err)
	}

	var incoming []wire.Packet
	rank := e.rank()
	peers := peerRanksUnion(byDest, e.Transport.Size(), rank)
	for _, peer := range peers {
		var data []byte
		var err error
		if rank < peer {
			if buf, ok := outgoingData[peer]; ok {
				err = e.Transport.Send(buf, peer)
			} else {
				err = e.Transport.Send(wire.Pack(wire.Packet{}), peer)
			}
			if err == nil {
				data, err = e.Transport.Recv(peer)
			}
		} else {
			data, err = e.Transport.Recv(peer)
			if err == nil {
				if buf, ok := outgoingData[peer]; ok {
					err = e.Transport.Send(buf, peer)
				} else {
					err = e.Transport.Send(wire.Pack(wire.Packet{}), peer)
				}
			}
		}
		if err != nil {
			z.MarkSuspect()
			return false, udmerr.New(udmerr.TransportFailed, "migration exchange with rank %d: %v", peer, err)
		}
		pkt, err := wire.Unpack(data, layout)
		if err != nil {
			z.MarkSuspect()
			return false, udmerr.New(udmerr.TransportFailed, "migration unpack from rank %d: %v", peer, err)
		}
		incoming = append(incoming, pkt)
	}

	// drop the virtual halo before merging; the final Rebuild below
	// recomputes it for the new ownership
	z.TruncateVirtualLayer()
	z.Conn.ClearVirtualBindings()
	mergeIncomingAsReal(z, incoming)
	deleteExports(z, plan.Exports)
	// the merge/delete above only ever touched real entities (no virtuals
	// exist mid-migration, the halo was truncated just before the merge), so
	// the current counts are the correct new real/virtual boundary; without
	// this refresh the next Rebuild would truncate against the stale
	// pre-migration boundary and drop the cells/nodes that just arrived.
	z.RecordGenerationBoundary()

	z.Generation++
	if err := e.Rebuild(z); err != nil {
		return false, err
	}
	return true, nil
}

func groupExportsByDest(z *model.Zone, plan partition.Plan) map[int]wire.Packet {
	exportSet := make(map[model.GlobalID]bool, len(plan.Exports))
	for _, g := range plan.Exports {
		exportSet[g] = true
	}
	byDest := make(map[int][]model.GlobalID)
	for _, g := range plan.Exports {
		byDest[plan.Destinations[g]] = append(byDest[plan.Destinations[g]], g)
	}

	out := make(map[int]wire.Packet, len(byDest))
	for dest, globals := range byDest {
		locals := make([]int, 0, len(globals))
		wanted := make(map[model.GlobalID]bool, len(globals))
		for _, g := range globals {
			wanted[g] = true
		}
		for _, c := range z.Cells.Real() {
			if wanted[c.Global] {
				locals = append(locals, c.Local)
			}
		}
		out[dest] = exportCellsPacket(z, locals)
	}
	return out
}

// exportCellsPacket packs the given real cells and the distinct nodes they
// reference, with full field values, for migration (not just the boundary
// halo that exportPacket in engine.go builds).
func exportCellsPacket(z *model.Zone, locals []int) wire.Packet {
	nodeSet := make(map[int]bool)
	cells := make([]wire.CellRecord, 0, len(locals))
	for _, local := range locals {
		c := z.Cells.Get(local)
		if c == nil {
			continue
		}
		nodeIDs := make([]model.GlobalID, len(c.Nodes))
		for i, nid := range c.Nodes {
			if n := z.Nodes.Get(nid); n != nil {
				nodeIDs[i] = n.Global
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
	ids := make([]int, 0, len(nodeSet))
	for id := range nodeSet {
		ids = append(ids, id)
	}
	nodes := make([]wire.NodeRecord, 0, len(ids))
	for _, id := range ids {
		n := z.Nodes.Get(id)
		nodes = append(nodes, wire.NodeRecord{
			Global: n.Global,
			X:      n.Coords[0], Y: n.Coords[1], Z: n.Coords[2],
			Values: z.Fields.Values(model.Vertex, id),
		})
	}
	return wire.Packet{Chunks: []wire.Chunk{{Cells: cells, Nodes: nodes}}}
}

// peerRanksUnion is every rank this exchange round must talk to: every
// destination this rank is sending to, union every rank in [0,size) other
// than self (a rank with nothing incoming still must answer a zero-length
// send so the exchange round completes, §4.3).
func peerRanksUnion(byDest map[int]wire.Packet, size, self int) []int {
	seen := make(map[int]bool)
	var out []int
	for dest := range byDest {
		if dest != self && !seen[dest] {
			seen[dest] = true
			out = append(out, dest)
		}
	}
	for r := 0; r < size; r++ {
		if r != self && !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// mergeIncomingAsReal promotes every cell/node arriving from a migration
// exchange into a real entity of this zone (§4.3: an imported cell becomes
// real on its new rank, not virtual), deduping by global id against what
// is already present.
func mergeIncomingAsReal(z *model.Zone, incoming []wire.Packet) {
	globalToLocal := make(map[model.GlobalID]int)
	for _, n := range z.Nodes.All() {
		globalToLocal[n.Global] = n.Local
	}
	knownCells := make(map[model.GlobalID]bool)
	for _, c := range z.Cells.All() {
		knownCells[c.Global] = true
	}

	for _, pkt := range incoming {
		for _, chunk := range pkt.Chunks {
			for _, nr := range chunk.Nodes {
				if _, ok := globalToLocal[nr.Global]; ok {
					continue
				}
				local := z.Nodes.Insert(nr.X, nr.Y, nr.Z)
				z.Nodes.Get(local).Global = nr.Global
				globalToLocal[nr.Global] = local
				_ = z.Fields.SetValues(model.Vertex, local, nr.Values)
			}
			for _, cr := range chunk.Cells {
				if knownCells[cr.Global] {
					continue
				}
				knownCells[cr.Global] = true
				nodeLocals := make([]int, len(cr.NodeIDs))
				for i, gid := range cr.NodeIDs {
					local, ok := globalToLocal[gid]
					if !ok {
						local = z.Nodes.Insert(0, 0, 0)
						z.Nodes.Get(local).Global = gid
						globalToLocal[gid] = local
					}
					nodeLocals[i] = local
				}
				local, err := z.InsertCell(cr.Kind, nodeLocals)
				if err != nil {
					continue
				}
				z.Cells.Get(local).Global = cr.Global
				z.Cells.SetWeight(local, float64(cr.Weight))
				_ = z.Fields.SetValues(model.CellCenter, local, cr.Values)
			}
		}
	}
}

// deleteExports removes every exported cell from the zone (§4.3: a rank
// that exports a cell no longer owns it). Node cleanup is left to the
// following Rebuild's incidence pass; nodes left unreferenced by any
// remaining real cell simply carry no incident cells until the next full
// re-ingest prunes them, which matches the teacher's own tolerance for
// orphaned geometry between structural passes.
func deleteExports(z *model.Zone, exports []model.GlobalID) {
	exported := make(map[model.GlobalID]bool, len(exports))
	for _, g := range exports {
		exported[g] = true
	}
	kept := make([]*model.Cell, 0, z.Cells.Len())
	for _, c := range z.Cells.All() {
		if c.Reality == model.Real && exported[c.Global] {
			continue
		}
		kept = append(kept, c)
	}
	z.Cells.Replace(kept)
}
