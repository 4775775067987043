// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transfer implements the per-step virtual-cell (ghost layer)
// field-value synchronization (§4.4): gather field values at the boundary
// nodes shared with each peer rank, exchange them positionally using the
// rank-connectivity send/recv plans, and write the results into the local
// virtual slots — never by id, since a peer's local id means nothing here.
package transfer

import (
	"encoding/binary"
	"math"

	"github.com/udmlib-go/udmlib/model"
	"github.com/udmlib-go/udmlib/udmerr"
)

// Transport is the pairwise exchange surface Sync depends on, the same
// trait shape rebuild.Engine uses; transport.Comm satisfies it.
type Transport interface {
	Rank() int
	Send(data []byte, to int) error
	Recv(from int) ([]byte, error)
}

// Sync synchronizes every non-constant registered field at loc across
// zone's virtual halo (§4.4): for each peer rank named by the zone's
// rank-connectivity index, pack this rank's values at its send-plan nodes,
// exchange, and write the peer's values into this rank's matching
// recv-plan local ids, positionally.
func Sync(z *model.Zone, t Transport, loc model.Location) error {
	names := z.Fields.OrderedNames(loc)
	var live []string
	for _, name := range names {
		if def := z.Fields.Def(name); def != nil && !def.Constant {
			live = append(live, name)
		}
	}
	if len(live) == 0 {
		return nil
	}

	peers := z.Conn.PeerRanks()
	if len(peers) == 0 {
		return nil
	}
	rank := t.Rank()
	for _, peer := range peers {
		sendPlan := z.Conn.SendPlan(peer)
		recvPlan := z.Conn.RecvPlan(peer)

		payload := encodeValues(z, live, loc, sendPlan.Local)

		var recvData []byte
		var err error
		if rank < peer {
			err = t.Send(payload, peer)
			if err == nil {
				recvData, err = t.Recv(peer)
			}
		} else {
			recvData, err = t.Recv(peer)
			if err == nil {
				err = t.Send(payload, peer)
			}
		}
		if err != nil {
			return udmerr.New(udmerr.TransportFailed, "field transfer exchange with rank %d: %v", peer, err)
		}

		count, values, err := decodeValues(recvData)
		if err != nil {
			return udmerr.New(udmerr.TransferPlanMismatch, "rank %d sent an unreadable transfer buffer: %v", peer, err)
		}
		if count != len(recvPlan.Local) {
			return udmerr.New(udmerr.TransferPlanMismatch,
				"rank %d sent %d entities, but this rank's recv plan for it names %d", peer, count, len(recvPlan.Local))
		}

		arity := 0
		for _, name := range live {
			if def := z.Fields.Def(name); def != nil {
				arity += def.Arity
			}
		}
		for i, local := range recvPlan.Local {
			off := i * arity
			if off+arity > len(values) {
				return udmerr.New(udmerr.TransferPlanMismatch, "rank %d's transfer buffer is shorter than its own declared count", peer)
			}
			if err := setLiveValues(z, live, loc, local, values[off:off+arity]); err != nil {
				return err
			}
		}
	}
	return nil
}

func encodeValues(z *model.Zone, names []string, loc model.Location, locals []int) []byte {
	arity := 0
	for _, name := range names {
		if def := z.Fields.Def(name); def != nil {
			arity += def.Arity
		}
	}
	flat := make([]float64, 0, len(locals)*arity)
	for _, local := range locals {
		for _, name := range names {
			def := z.Fields.Def(name)
			buf := make([]float64, def.Arity)
			_ = z.Fields.Get(local, name, buf)
			flat = append(flat, buf...)
		}
	}

	out := make([]byte, 4+8*len(flat))
	binary.LittleEndian.PutUint32(out, uint32(len(locals)))
	for i, v := range flat {
		binary.LittleEndian.PutUint64(out[4+i*8:], math.Float64bits(v))
	}
	return out
}

// setLiveValues writes a flattened value vector across exactly the given
// (non-constant) field names, in order — the transfer-side counterpart of
// FieldRegistry.SetValues, which instead writes every registered name at
// loc and would misalign against a buffer that omits constant fields.
func setLiveValues(z *model.Zone, names []string, loc model.Location, local int, flat []float64) error {
	off := 0
	for _, name := range names {
		def := z.Fields.Def(name)
		if off+def.Arity > len(flat) {
			return udmerr.New(udmerr.TransferPlanMismatch, "transfer value vector too short for solution %q", name)
		}
		if err := z.Fields.Set(local, name, flat[off:off+def.Arity]); err != nil {
			return err
		}
		off += def.Arity
	}
	return nil
}

func decodeValues(data []byte) (count int, values []float64, err error) {
	if len(data) < 4 {
		return 0, nil, udmerr.New(udmerr.TransportFailed, "truncated transfer buffer")
	}
	count = int(binary.LittleEndian.Uint32(data))
	rem := data[4:]
	if len(rem)%8 != 0 {
		return 0, nil, udmerr.New(udmerr.TransportFailed, "transfer buffer value section is not a whole number of float64s")
	}
	values = make([]float64, len(rem)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(rem[i*8:]))
	}
	return count, values, nil
}
