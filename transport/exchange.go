// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transport

import (
	"encoding/binary"

	"github.com/udmlib-go/udmlib/rankconn"
)

// MyRank implements rankconn.Exchanger.
func (c *Comm) MyRank() int { return c.Rank() }

// ExchangeIDPairs implements rankconn.Exchanger: send this rank's
// (my-local, peer-local) pairs to peerRank and return what it sends back.
// The validator only runs under --debug (§4.2), so this uses plain
// blocking calls rather than asynchronous ones, ordered to avoid a
// deadlock: the lower rank sends first and then receives, the higher rank
// receives first and then sends (the order rebuild's exchanges use too).
func (c *Comm) ExchangeIDPairs(peerRank int, send []rankconn.IDPair) ([]rankconn.IDPair, error) {
	buf := encodePairs(send)
	if c.Rank() < peerRank {
		if err := c.Send(buf, peerRank); err != nil {
			return nil, err
		}
		recv, err := c.Recv(peerRank)
		if err != nil {
			return nil, err
		}
		return decodePairs(recv), nil
	}
	recv, err := c.Recv(peerRank)
	if err != nil {
		return nil, err
	}
	if err := c.Send(buf, peerRank); err != nil {
		return nil, err
	}
	return decodePairs(recv), nil
}

func encodePairs(pairs []rankconn.IDPair) []byte {
	out := make([]byte, 4+8*len(pairs))
	binary.LittleEndian.PutUint32(out, uint32(len(pairs)))
	for i, p := range pairs {
		off := 4 + i*8
		binary.LittleEndian.PutUint32(out[off:], uint32(p.MyLocal))
		binary.LittleEndian.PutUint32(out[off+4:], uint32(p.PeerLocal))
	}
	return out
}

func decodePairs(data []byte) []rankconn.IDPair {
	if len(data) < 4 {
		return nil
	}
	n := binary.LittleEndian.Uint32(data)
	out := make([]rankconn.IDPair, 0, n)
	for i := uint32(0); i < n; i++ {
		off := 4 + i*8
		if int(off+8) > len(data) {
			break
		}
		out = append(out, rankconn.IDPair{
			MyLocal:   int(binary.LittleEndian.Uint32(data[off:])),
			PeerLocal: int(binary.LittleEndian.Uint32(data[off+4:])),
		})
	}
	return out
}
