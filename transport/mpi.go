// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transport wraps github.com/cpmech/gosl/mpi with the point-to-point
// and collective operations the rebuild/migration/transfer engines need
// (§4, §9): rank/size query, pairwise byte exchange for packed wire
// buffers, and the collective fatal-state handshake.
//
// The handshake is grounded on fem/errorhandler.go's Stop/PanicOrNot: that
// code panics the whole run the moment any rank wants to stop. This
// module's core must instead return an error and mark the zone suspect
// (§7), so Handshake reports the collective verdict to the caller rather
// than panicking.
package transport

import (
	"encoding/binary"

	"github.com/cpmech/gosl/mpi"

	"github.com/udmlib-go/udmlib/udmerr"
)

// Comm is the transport handle a rebuild/migration/transfer engine holds.
// A zero Comm is a valid single-rank (serial) transport.
type Comm struct {
	// WspcStop and WspcInum are the two workspace slices
	// mpi.IntAllReduceMax needs, sized to Size() (mirrors global.WspcStop /
	// global.WspcInum in the teacher).
	WspcStop []int
	WspcInum []int
}

// New builds a Comm sized for the current MPI world (or a degenerate
// single-rank Comm if MPI was never started).
func New() *Comm {
	n := 1
	if mpi.IsOn() {
		n = mpi.Size()
	}
	return &Comm{WspcStop: make([]int, n), WspcInum: make([]int, n)}
}

// Rank returns this process's rank, 0 in a serial run.
func (c *Comm) Rank() int {
	if mpi.IsOn() {
		return mpi.Rank()
	}
	return 0
}

// Size returns the world size, 1 in a serial run.
func (c *Comm) Size() int {
	if mpi.IsOn() {
		return mpi.Size()
	}
	return 1
}

// Send transports a packed wire buffer to rank to. Byte buffers travel as
// int32 words (gosl/mpi's point-to-point surface is integer/float
// oriented), length-prefixed so Recv can size its own buffer.
func (c *Comm) Send(data []byte, to int) error {
	if !mpi.IsOn() {
		return udmerr.New(udmerr.TransportFailed, "Send called on rank %d with no MPI session active", c.Rank())
	}
	words := bytesToWords(data)
	mpi.SendI([]int{len(words)}, to)
	if len(words) > 0 {
		mpi.SendI(words, to)
	}
	return nil
}

// Recv blocks for one buffer sent by Send from rank from.
func (c *Comm) Recv(from int) ([]byte, error) {
	if !mpi.IsOn() {
		return nil, udmerr.New(udmerr.TransportFailed, "Recv called on rank %d with no MPI session active", c.Rank())
	}
	hdr := make([]int, 1)
	mpi.RecvI(hdr, from)
	words := make([]int, hdr[0])
	if hdr[0] > 0 {
		mpi.RecvI(words, from)
	}
	return wordsToBytes(words), nil
}

// ExchangeSizes performs the all-to-all byte-count exchange the migration
// engine needs before a pairwise send/recv round (§4.3): every rank tells
// every other rank how many bytes it is about to send.
func (c *Comm) ExchangeSizes(outgoing map[int]int) (incoming map[int]int, err error) {
	n := c.Size()
	sizes := make([]int, n)
	for peer, sz := range outgoing {
		sizes[peer] = sz
	}
	if !mpi.IsOn() {
		return map[int]int{}, nil
	}
	gathered := make([]int, n*n)
	rank := c.Rank()
	copy(gathered[rank*n:(rank+1)*n], sizes)
	mpi.IntAllReduceMax(gathered, make([]int, n*n))

	incoming = make(map[int]int)
	for peer := 0; peer < n; peer++ {
		if peer == rank {
			continue
		}
		if v := gathered[peer*n+rank]; v > 0 {
			incoming[peer] = v
		}
	}
	return incoming, nil
}

// Handshake runs the collective fatal-state all-reduce (mirrors
// fem/errorhandler.go's Stop, redesigned to report instead of panic).
// failed is this rank's own observation; the return value is true if ANY
// rank in the world reported failed=true.
func (c *Comm) Handshake(failed bool) bool {
	if !mpi.IsOn() {
		return failed
	}
	for i := range c.WspcStop {
		c.WspcStop[i] = 0
	}
	if failed {
		c.WspcStop[c.Rank()] = 1
	}
	mpi.IntAllReduceMax(c.WspcStop, c.WspcInum)
	for _, v := range c.WspcStop {
		if v > 0 {
			return true
		}
	}
	return false
}

func bytesToWords(data []byte) []int {
	padded := data
	if rem := len(data) % 4; rem != 0 {
		padded = append(append([]byte{}, data...), make([]byte, 4-rem)...)
	}
	words := make([]int, len(padded)/4)
	for i := range words {
		words[i] = int(int32(binary.LittleEndian.Uint32(padded[i*4 : i*4+4])))
	}
	return words
}

func wordsToBytes(words []int) []byte {
	out := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], uint32(int32(w)))
	}
	return out
}
