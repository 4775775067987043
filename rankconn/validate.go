// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rankconn

import (
	"fmt"

	"github.com/udmlib-go/udmlib/udmerr"
)

// IDPair is one (my-local-id, peer-local-id) entry exchanged during
// validation (§4.2's validator).
type IDPair struct {
	MyLocal   int
	PeerLocal int
}

// Exchanger is the minimal pairwise-exchange contract the validator needs
// from the transport collaborator (§5: "the validator's pairwise exchange"
// is one of the three suspension points). Kept tiny and unexported-free so
// it composes with transport.Comm without an import cycle.
type Exchanger interface {
	MyRank() int
	ExchangeIDPairs(peerRank int, send []IDPair) (recv []IDPair, err error)
}

// pairsFor builds the list this rank sends to peerRank: (my-local-id,
// peer-local-id) for every local node twinned with that peer.
func (x *Index) pairsFor(peerRank int) []IDPair {
	var out []IDPair
	for _, local := range x.BoundaryNodes() {
		for _, p := range x.Pairs(local) {
			if p.PeerRank == peerRank {
				out = append(out, IDPair{MyLocal: local, PeerLocal: p.PeerLocal})
			}
		}
	}
	return out
}

// Validate checks the bidirectional invariant (§3, §4.2, invariant 2 in
// §8): for every peer rank this index names, exchange (my-local-id,
// peer-local-id) pairs and confirm the peer lists the exact inverse.
// Used in tests and --debug paths only, per §4.2.
func (x *Index) Validate(ex Exchanger) error {
	for _, peer := range x.PeerRanks() {
		mine := x.pairsFor(peer)
		theirs, err := ex.ExchangeIDPairs(peer, mine)
		if err != nil {
			return udmerr.New(udmerr.TransportFailed, "rank-connectivity validation exchange with rank %d: %v", peer, err)
		}
		want := make(map[IDPair]bool, len(mine))
		for _, p := range mine {
			want[IDPair{MyLocal: p.PeerLocal, PeerLocal: p.MyLocal}] = true
		}
		for _, p := range theirs {
			if !want[p] {
				return udmerr.New(udmerr.RankConnectivityMismatch,
					"rank %d reports twin (local=%d -> peer-local=%d) with no matching inverse pair on rank %d",
					peer, p.MyLocal, p.PeerLocal, ex.MyRank())
			}
			delete(want, p)
		}
		if len(want) > 0 {
			var missing IDPair
			for p := range want {
				missing = p
				break
			}
			return udmerr.New(udmerr.RankConnectivityMismatch,
				"rank %d did not confirm twin %s", peer, fmt.Sprintf("(local=%d -> peer-local=%d)", missing.MyLocal, missing.PeerLocal))
		}
	}
	return nil
}
