// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

// DefaultWeight is the partition weight assigned to a cell unless the
// caller overrides it (§3, invariant 5 in §8).
const DefaultWeight = 1.0

// Cell is a polytope of one element Kind (§3).
type Cell struct {
	Local   int      // dense 1-based local id within the zone
	Global  GlobalID // (owning-rank, local-id)
	Kind    Kind     // element kind; for a MIXED section the kind is carried per-cell here
	Nodes   []int    // ordered local node ids, length == Kind.Nverts() (or per-cell for MIXED)
	Reality Reality
	Weight  float64 // partition weight, default 1.0
}

// CellTable owns the dense cell arrays for one zone.
type CellTable struct {
	cells []*Cell
}

// NewCellTable returns an empty table.
func NewCellTable() *CellTable {
	return &CellTable{}
}

// Insert appends a new real cell of the given kind referencing nodeIDs (in
// the same zone) and returns its fresh local id. The caller is responsible
// for validating nodeIDs against the owning zone's NodeTable (§3 invariant:
// "every cell's node list references existing node local ids").
func (t *CellTable) Insert(kind Kind, nodeIDs []int) int {
	id := len(t.cells) + 1
	t.cells = append(t.cells, &Cell{
		Local:   id,
		Kind:    kind,
		Nodes:   nodeIDs,
		Reality: Real,
		Weight:  DefaultWeight,
	})
	return id
}

// InsertVirtual appends a new virtual cell naming a peer entity.
func (t *CellTable) InsertVirtual(global GlobalID, kind Kind, nodeIDs []int, weight float64) int {
	id := len(t.cells) + 1
	t.cells = append(t.cells, &Cell{
		Local:   id,
		Global:  global,
		Kind:    kind,
		Nodes:   nodeIDs,
		Reality: Virtual,
		Weight:  weight,
	})
	return id
}

// Len returns the total cell count (real + virtual).
func (t *CellTable) Len() int { return len(t.cells) }

// Get returns the cell at local id, or nil if out of range.
func (t *CellTable) Get(local int) *Cell {
	if local < 1 || local > len(t.cells) {
		return nil
	}
	return t.cells[local-1]
}

// All returns every cell, real and virtual, in local-id order.
func (t *CellTable) All() []*Cell { return t.cells }

// Real returns every real cell, in local-id order.
func (t *CellTable) Real() []*Cell {
	out := make([]*Cell, 0, len(t.cells))
	for _, c := range t.cells {
		if c.Reality == Real {
			out = append(out, c)
		}
	}
	return out
}

// Virtual returns every virtual cell, in local-id order.
func (t *CellTable) Virtual() []*Cell {
	out := make([]*Cell, 0)
	for _, c := range t.cells {
		if c.Reality == Virtual {
			out = append(out, c)
		}
	}
	return out
}

// Truncate drops all cells with local id > lastReal.
func (t *CellTable) Truncate(lastReal int) {
	if lastReal < len(t.cells) {
		t.cells = t.cells[:lastReal]
	}
}

// Reset clears every cell.
func (t *CellTable) Reset() { t.cells = nil }

// Replace installs kept as the table's full cell set, renumbering Local
// ids densely from 1 in the given order (used by migration's export
// deletion, §4.3: an exported cell is dropped and the table repacked).
func (t *CellTable) Replace(kept []*Cell) {
	for i, c := range kept {
		c.Local = i + 1
	}
	t.cells = kept
}

// SetWeight overrides the partition weight of a real cell.
func (t *CellTable) SetWeight(local int, w float64) {
	if c := t.Get(local); c != nil {
		c.Weight = w
	}
}
