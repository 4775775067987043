// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wire implements the migration wire protocol (§6): a
// length-prefixed little-endian byte stream packing exported cells and the
// distinct nodes they reference, chunked to stay under an implementation
// cap (§4.3). No ecosystem codec in the corpus models this fixed binary
// layout closely enough, so this one ambient concern uses encoding/binary
// directly (see DESIGN.md).
package wire

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/udmlib-go/udmlib/model"
	"github.com/udmlib-go/udmlib/udmerr"
)

var order = binary.LittleEndian

// CellRecord is one packed cell: its identity, weight, the global ids of
// the nodes it references, and its per-solution field values in registry
// order (§6).
type CellRecord struct {
	Kind    model.Kind
	Global  model.GlobalID
	Weight  float32
	NodeIDs []model.GlobalID
	Values  []float64 // flattened, in registry order
}

// NodeRecord is one distinct node referenced by a packet's cells (§6).
type NodeRecord struct {
	Global  model.GlobalID
	X, Y, Z float64
	Values  []float64
}

// Chunk is one wire chunk: a u64 byte_length and u32 cell_count header,
// its cells, then a u32 distinct_node_count and its distinct nodes (§6).
type Chunk struct {
	Cells []CellRecord
	Nodes []NodeRecord
}

// Packet is the full per-peer-pair stream: "u32 chunk_count" then each
// chunk (§6).
type Packet struct {
	Chunks []Chunk
}

// Layout describes how many per-solution float64 values each cell and
// node record carries, in registry order. pack/unpack must agree on this
// out of band (it follows from the shared FlowSolutionList registry, not
// from anything self-describing on the wire — §6 does not prefix value
// counts).
type Layout struct {
	CellValues int
	NodeValues int
}

// Pack serializes a Packet into the §6 binary layout.
func Pack(p Packet) []byte {
	var out bytes.Buffer
	binary.Write(&out, order, uint32(len(p.Chunks)))
	for _, chunk := range p.Chunks {
		var cbuf bytes.Buffer
		binary.Write(&cbuf, order, uint32(len(chunk.Cells)))
		for _, c := range chunk.Cells {
			binary.Write(&cbuf, order, uint8(c.Kind))
			binary.Write(&cbuf, order, uint32(c.Global.Rank))
			binary.Write(&cbuf, order, uint64(c.Global.Local))
			binary.Write(&cbuf, order, c.Weight)
			binary.Write(&cbuf, order, uint32(len(c.NodeIDs)))
			for _, nid := range c.NodeIDs {
				binary.Write(&cbuf, order, encodeGlobal(nid))
			}
			for _, v := range c.Values {
				binary.Write(&cbuf, order, v)
			}
		}
		binary.Write(&cbuf, order, uint32(len(chunk.Nodes)))
		for _, n := range chunk.Nodes {
			binary.Write(&cbuf, order, uint32(n.Global.Rank))
			binary.Write(&cbuf, order, uint64(n.Global.Local))
			binary.Write(&cbuf, order, n.X)
			binary.Write(&cbuf, order, n.Y)
			binary.Write(&cbuf, order, n.Z)
			for _, v := range n.Values {
				binary.Write(&cbuf, order, v)
			}
		}

		binary.Write(&out, order, uint64(cbuf.Len()))
		out.Write(cbuf.Bytes())
	}
	return out.Bytes()
}

// Unpack deserializes Pack's output, given the Layout pack was called
// with (how many field values each cell/node record carries).
func Unpack(data []byte, layout Layout) (Packet, error) {
	r := bytes.NewReader(data)
	var chunkCount uint32
	if err := binary.Read(r, order, &chunkCount); err != nil {
		return Packet{}, errBadRead("chunk_count")
	}
	p := Packet{Chunks: make([]Chunk, 0, chunkCount)}
	for i := uint32(0); i < chunkCount; i++ {
		var byteLen uint64
		if err := binary.Read(r, order, &byteLen); err != nil {
			return Packet{}, errBadRead("chunk byte_length")
		}
		chunkBytes := make([]byte, byteLen)
		if _, err := io.ReadFull(r, chunkBytes); err != nil {
			return Packet{}, errBadRead("chunk body")
		}
		chunk, err := unpackChunk(chunkBytes, layout)
		if err != nil {
			return Packet{}, err
		}
		p.Chunks = append(p.Chunks, chunk)
	}
	return p, nil
}

func unpackChunk(data []byte, layout Layout) (Chunk, error) {
	r := bytes.NewReader(data)
	var cellCount uint32
	if err := binary.Read(r, order, &cellCount); err != nil {
		return Chunk{}, errBadRead("cell_count")
	}
	chunk := Chunk{Cells: make([]CellRecord, 0, cellCount)}
	for i := uint32(0); i < cellCount; i++ {
		var kindTag uint8
		var rank uint32
		var local uint64
		var weight float32
		var nrefs uint32
		if err := binary.Read(r, order, &kindTag); err != nil {
			return Chunk{}, errBadRead("kind_tag")
		}
		if err := binary.Read(r, order, &rank); err != nil {
			return Chunk{}, errBadRead("owning_rank")
		}
		if err := binary.Read(r, order, &local); err != nil {
			return Chunk{}, errBadRead("owning_local_id")
		}
		if err := binary.Read(r, order, &weight); err != nil {
			return Chunk{}, errBadRead("weight")
		}
		if err := binary.Read(r, order, &nrefs); err != nil {
			return Chunk{}, errBadRead("node_ref_count")
		}
		nodeIDs := make([]model.GlobalID, nrefs)
		for j := uint32(0); j < nrefs; j++ {
			var w uint64
			if err := binary.Read(r, order, &w); err != nil {
				return Chunk{}, errBadRead("node_global_id")
			}
			nodeIDs[j] = decodeGlobal(w)
		}
		values := make([]float64, layout.CellValues)
		for j := range values {
			if err := binary.Read(r, order, &values[j]); err != nil {
				return Chunk{}, errBadRead("cell solution value")
			}
		}
		chunk.Cells = append(chunk.Cells, CellRecord{
			Kind:    model.Kind(kindTag),
			Global:  model.GlobalID{Rank: int(rank), Local: int(local)},
			Weight:  weight,
			NodeIDs: nodeIDs,
			Values:  values,
		})
	}

	var nodeCount uint32
	if err := binary.Read(r, order, &nodeCount); err != nil {
		return Chunk{}, errBadRead("distinct_node_count")
	}
	chunk.Nodes = make([]NodeRecord, 0, nodeCount)
	for i := uint32(0); i < nodeCount; i++ {
		var rank uint32
		var local uint64
		var x, y, z float64
		if err := binary.Read(r, order, &rank); err != nil {
			return Chunk{}, errBadRead("node owning_rank")
		}
		if err := binary.Read(r, order, &local); err != nil {
			return Chunk{}, errBadRead("node owning_local_id")
		}
		if err := binary.Read(r, order, &x); err != nil {
			return Chunk{}, errBadRead("node x")
		}
		if err := binary.Read(r, order, &y); err != nil {
			return Chunk{}, errBadRead("node y")
		}
		if err := binary.Read(r, order, &z); err != nil {
			return Chunk{}, errBadRead("node z")
		}
		values := make([]float64, layout.NodeValues)
		for j := range values {
			if err := binary.Read(r, order, &values[j]); err != nil {
				return Chunk{}, errBadRead("node solution value")
			}
		}
		chunk.Nodes = append(chunk.Nodes, NodeRecord{
			Global: model.GlobalID{Rank: int(rank), Local: int(local)},
			X:      x, Y: y, Z: z,
			Values: values,
		})
	}
	return chunk, nil
}

// encodeGlobal packs a node global id into a single u64 wire word: the
// high 32 bits carry the rank, the low 32 bits the local id. This compact
// form is always used for node references within a cell record (§6); the
// configurable 1/2/3-slot packing (EncodeID/DecodeID below) is not applied
// to this inner node-reference list.
func encodeGlobal(g model.GlobalID) uint64 {
	return uint64(uint32(g.Rank))<<32 | uint64(uint32(g.Local))
}

func decodeGlobal(v uint64) model.GlobalID {
	return model.GlobalID{Rank: int(int32(v >> 32)), Local: int(int32(v))}
}

// EncodeID packs a GlobalID using the configured slot width (§6's Global-id
// packing rule).
func EncodeID(g model.GlobalID, slots int) []uint32 {
	switch slots {
	case 1:
		return []uint32{uint32(g.Local)}
	case 2:
		return []uint32{uint32(g.Local), uint32(g.Rank)}
	case 3:
		local := uint64(g.Local)
		return []uint32{uint32(local >> 32), uint32(local), uint32(g.Rank)}
	}
	return nil
}

// DecodeID is the inverse of EncodeID.
func DecodeID(words []uint32, slots int) (model.GlobalID, error) {
	switch slots {
	case 1:
		if len(words) != 1 {
			return model.GlobalID{}, udmerr.New(udmerr.ContainerIO, "1-slot global id needs 1 word, got %d", len(words))
		}
		return model.GlobalID{Local: int(words[0])}, nil
	case 2:
		if len(words) != 2 {
			return model.GlobalID{}, udmerr.New(udmerr.ContainerIO, "2-slot global id needs 2 words, got %d", len(words))
		}
		return model.GlobalID{Local: int(words[0]), Rank: int(words[1])}, nil
	case 3:
		if len(words) != 3 {
			return model.GlobalID{}, udmerr.New(udmerr.ContainerIO, "3-slot global id needs 3 words, got %d", len(words))
		}
		local := uint64(words[0])<<32 | uint64(words[1])
		return model.GlobalID{Local: int(local), Rank: int(words[2])}, nil
	}
	return model.GlobalID{}, udmerr.New(udmerr.ContainerIO, "unsupported global-id slot width %d", slots)
}

func errBadRead(what string) error {
	return udmerr.New(udmerr.ContainerIO, "truncated migration buffer reading %s", what)
}

// Split breaks a packet's chunks into groups whose packed byte size stays
// under capBytes, preserving chunk order (§4.3, §8 scenario S6). A single
// chunk larger than capBytes forms a group of its own; chunks themselves
// are never divided.
func Split(p Packet, capBytes int64) []Packet {
	if capBytes <= 0 {
		return []Packet{p}
	}
	var out []Packet
	var cur Packet
	var curSize int64
	for _, chunk := range p.Chunks {
		size := int64(len(Pack(Packet{Chunks: []Chunk{chunk}})))
		if curSize > 0 && curSize+size > capBytes {
			out = append(out, cur)
			cur = Packet{}
			curSize = 0
		}
		cur.Chunks = append(cur.Chunks, chunk)
		curSize += size
	}
	if len(cur.Chunks) > 0 {
		out = append(out, cur)
	}
	if len(out) == 0 {
		out = append(out, Packet{})
	}
	return out
}
