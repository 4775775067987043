// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rankconn implements the bidirectional rank-connectivity index
// (§4.2): for every node on an inter-partition boundary, the set of
// (peer-rank, peer-local-id) pairs naming its twins on other ranks.
package rankconn

import "sort"

// Pair names one twin of a boundary node on another rank.
type Pair struct {
	PeerRank  int
	PeerLocal int
}

// Index holds, for each local node id, its ordered set of twin pairs, plus
// the binding from a peer's (rank, local-id) to the virtual node this rank
// created to ghost it (§4.3's halo-merge registers these as it builds the
// virtual layer).
type Index struct {
	pairs map[int][]Pair

	// virtualLocals[peerRank][peerLocal] is the local id of the virtual
	// node this rank holds as the ghost copy of that peer entity. Bound by
	// the rebuild engine's halo merge, cleared every rebuild before the
	// halo is recomputed (§4.3): a send plan names this rank's own real
	// boundary nodes, a recv plan names these ghost slots — two distinct
	// local-id sets, never the same one.
	virtualLocals map[int]map[int]int

	// sendPlans cached by Canonicalize; invalidated by any Insert (§4.2).
	sendPlans map[int]Plan // peer rank -> plan
	dirty     bool
}

// Plan names, for one peer rank, the ordered local ids that participate in
// send/recv with that peer, positionally matched against the peer's own
// plan for the inverse direction (§4.2, §4.4). A send plan lists this
// rank's own real boundary-node local ids, in this rank's ascending local
// id order. A recv plan lists this rank's virtual (ghost) node local ids
// that mirror the peer's boundary reals, ordered by the peer's own local
// id ascending — the same order the peer packs its send plan in — so the
// two line up positionally without either side needing the other's local
// numbering.
type Plan struct {
	PeerRank int
	Local    []int
}

// NewIndex returns an empty rank-connectivity index.
func NewIndex() *Index {
	return &Index{pairs: make(map[int][]Pair)}
}

// Insert records that local node id pairs with (peerRank, peerLocal).
// Duplicate inserts are tolerated; Canonicalize dedupes.
func (x *Index) Insert(local, peerRank, peerLocal int) {
	x.pairs[local] = append(x.pairs[local], Pair{PeerRank: peerRank, PeerLocal: peerLocal})
	x.dirty = true
}

// BindVirtual records that the virtual node at local id virtualLocal is
// this rank's ghost copy of (peerRank, peerLocal) — called by the rebuild
// engine's halo merge as it inserts each virtual node (§4.3). RecvPlan
// reads this binding to resolve a peer's send-plan entries to this rank's
// own ghost slots.
func (x *Index) BindVirtual(peerRank, peerLocal, virtualLocal int) {
	if x.virtualLocals == nil {
		x.virtualLocals = make(map[int]map[int]int)
	}
	m := x.virtualLocals[peerRank]
	if m == nil {
		m = make(map[int]int)
		x.virtualLocals[peerRank] = m
	}
	m[peerLocal] = virtualLocal
}

// ClearVirtualBindings drops every recorded virtual binding, called before
// a rebuild recomputes the virtual halo so stale bindings (naming local ids
// the truncate/rebuild may have reused for something else) never leak into
// a RecvPlan (§4.3).
func (x *Index) ClearVirtualBindings() {
	x.virtualLocals = nil
}

func (x *Index) virtualLocalFor(peerRank, peerLocal int) (int, bool) {
	m := x.virtualLocals[peerRank]
	if m == nil {
		return 0, false
	}
	v, ok := m[peerLocal]
	return v, ok
}

// Pairs returns the twin pairs for local node id, in whatever order they
// were last canonicalized (or insertion order, before the first
// Canonicalize call).
func (x *Index) Pairs(local int) []Pair {
	return x.pairs[local]
}

// BoundaryNodes returns every local node id that has at least one twin
// pair, in ascending order.
func (x *Index) BoundaryNodes() []int {
	out := make([]int, 0, len(x.pairs))
	for local, ps := range x.pairs {
		if len(ps) > 0 {
			out = append(out, local)
		}
	}
	sort.Ints(out)
	return out
}

// Len reports how many local nodes carry at least one twin pair.
func (x *Index) Len() int { return len(x.BoundaryNodes()) }

// Reset clears the index (zone teardown or full re-ingest, §3 Lifecycle).
func (x *Index) Reset() {
	x.pairs = make(map[int][]Pair)
	x.virtualLocals = nil
	x.sendPlans = nil
	x.dirty = false
}

// Canonicalize sorts and dedupes every node's pair set by (rank, local-id)
// and rebuilds the cached per-peer-rank send plans (§4.2). A send plan is
// keyed by peer rank and lists this rank's own real boundary-node local
// ids, in ascending local-id order — the order exportPacket/transfer pack
// values in. Recv plans are *not* cached here: they depend on virtual
// bindings the rebuild engine only establishes after Canonicalize runs, so
// RecvPlan computes them fresh from the current pairs and bindings.
func (x *Index) Canonicalize() {
	for local, ps := range x.pairs {
		sort.Slice(ps, func(i, j int) bool {
			if ps[i].PeerRank != ps[j].PeerRank {
				return ps[i].PeerRank < ps[j].PeerRank
			}
			return ps[i].PeerLocal < ps[j].PeerLocal
		})
		deduped := ps[:0:0]
		for i, p := range ps {
			if i == 0 || p != ps[i-1] {
				deduped = append(deduped, p)
			}
		}
		x.pairs[local] = deduped
	}

	// build per-peer send plans: for each peer rank, the local node ids
	// that name a twin on that peer, in ascending local-id order.
	byPeer := make(map[int][]int)
	locals := make([]int, 0, len(x.pairs))
	for local := range x.pairs {
		locals = append(locals, local)
	}
	sort.Ints(locals)
	for _, local := range locals {
		seen := make(map[int]bool)
		for _, p := range x.pairs[local] {
			if seen[p.PeerRank] {
				continue
			}
			seen[p.PeerRank] = true
			byPeer[p.PeerRank] = append(byPeer[p.PeerRank], local)
		}
	}

	x.sendPlans = make(map[int]Plan, len(byPeer))
	for peer, locs := range byPeer {
		x.sendPlans[peer] = Plan{PeerRank: peer, Local: locs}
	}
	x.dirty = false
}

// SendPlan returns the cached send plan for peerRank, recomputing first if
// the index was mutated since the last Canonicalize.
func (x *Index) SendPlan(peerRank int) Plan {
	if x.dirty || x.sendPlans == nil {
		x.Canonicalize()
	}
	return x.sendPlans[peerRank]
}

// RecvPlan returns the recv plan for peerRank: this rank's ghost-node local
// ids, one per boundary twin with that peer, ordered by the peer's own
// local id ascending (§4.2, §4.4) — matching the order the peer's own
// SendPlan packs values in. A twin with no bound virtual node yet (the
// halo hasn't been rebuilt since this pair was recorded) is omitted, which
// surfaces as a length mismatch transfer.Sync can detect rather than
// silently writing to the wrong slot.
func (x *Index) RecvPlan(peerRank int) Plan {
	if x.dirty || x.sendPlans == nil {
		x.Canonicalize()
	}
	type entry struct{ peerLocal, virtualLocal int }
	var entries []entry
	for _, pairs := range x.pairs {
		for _, p := range pairs {
			if p.PeerRank != peerRank {
				continue
			}
			vLocal, ok := x.virtualLocalFor(peerRank, p.PeerLocal)
			if !ok {
				continue
			}
			entries = append(entries, entry{peerLocal: p.PeerLocal, virtualLocal: vLocal})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].peerLocal < entries[j].peerLocal })
	locs := make([]int, len(entries))
	for i, e := range entries {
		locs[i] = e.virtualLocal
	}
	return Plan{PeerRank: peerRank, Local: locs}
}

// PeerRanks returns every peer rank this index currently has a send plan
// for.
func (x *Index) PeerRanks() []int {
	if x.dirty || x.sendPlans == nil {
		x.Canonicalize()
	}
	ranks := make([]int, 0, len(x.sendPlans))
	for r := range x.sendPlans {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)
	return ranks
}
