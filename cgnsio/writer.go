// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cgnsio

import (
	"sort"

	"github.com/udmlib-go/udmlib/model"
	"github.com/udmlib-go/udmlib/udmerr"
)

// Writer is the narrow contract a container back end must satisfy (§6): one
// call per zone per step, writing real-entity geometry and live field
// values under the fixed node names this package defines. The actual
// HDF5/CGNS binding is an external collaborator and out of scope; this
// interface is what the core hands a rebuilt zone to.
type Writer interface {
	WriteInfo(info UdmInfo) error
	WriteZone(z *model.Zone, step int) error
	Close() error
}

// MemoryWriter is an in-memory Writer recording every write call it
// receives, keyed by the node name this package's naming helpers produce.
// Stands in for a real CGNS/HDF5 binding in tests (§9: the container's own
// internals are external).
type MemoryWriter struct {
	Info  UdmInfo
	Zones map[string]ZoneSnapshot
}

// ZoneSnapshot is one zone's written-out state, keyed the way a real
// container would key its FlowSolution_t nodes.
type ZoneSnapshot struct {
	Step       int
	NodeCoords [][3]float64
	NodeValues map[string][]float64 // solution name -> flat values, node order
	CellKinds  []model.Kind
	CellNodes  [][]int
	CellValues map[string][]float64 // solution name -> flat values, cell order
}

// NewMemoryWriter returns an empty MemoryWriter.
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{Zones: make(map[string]ZoneSnapshot)}
}

// WriteInfo records the container-wide UdmInfo block.
func (w *MemoryWriter) WriteInfo(info UdmInfo) error {
	w.Info = info
	return nil
}

// WriteZone snapshots every real node/cell in z and every non-constant
// registered field's current values, under ZoneName(z)'s key (§6: one
// Zone_t node per zone, one FlowSolution_t per step per location).
func (w *MemoryWriter) WriteZone(z *model.Zone, step int) error {
	if z == nil {
		return udmerr.New(udmerr.InvalidEntity, "cannot write a nil zone")
	}
	reals := z.Nodes.Real()
	coords := make([][3]float64, len(reals))
	for i, n := range reals {
		coords[i] = n.Coords
	}

	snap := ZoneSnapshot{
		Step:       step,
		NodeCoords: coords,
		NodeValues: flatten(z, model.Vertex, reals2locals(reals)),
		CellValues: flatten(z, model.CellCenter, cellLocals(z)),
	}
	for _, c := range z.Cells.Real() {
		snap.CellKinds = append(snap.CellKinds, c.Kind)
		snap.CellNodes = append(snap.CellNodes, append([]int(nil), c.Nodes...))
	}

	w.Zones[z.Name] = snap
	return nil
}

// Close is a no-op for MemoryWriter; a real binding would flush and close
// its HDF5 file handle here.
func (w *MemoryWriter) Close() error { return nil }

func reals2locals(reals []*model.Node) []int {
	out := make([]int, len(reals))
	for i, n := range reals {
		out[i] = n.Local
	}
	return out
}

func cellLocals(z *model.Zone) []int {
	reals := z.Cells.Real()
	out := make([]int, len(reals))
	for i, c := range reals {
		out[i] = c.Local
	}
	return out
}

func flatten(z *model.Zone, loc model.Location, locals []int) map[string][]float64 {
	names := z.Fields.OrderedNames(loc)
	sort.Strings(names)
	out := make(map[string][]float64, len(names))
	for _, name := range names {
		def := z.Fields.Def(name)
		if def.Constant {
			continue
		}
		vals := make([]float64, 0, len(locals)*def.Arity)
		for _, local := range locals {
			buf := make([]float64, def.Arity)
			_ = z.Fields.Get(local, name, buf)
			vals = append(vals, buf...)
		}
		out[name] = vals
	}
	return out
}
