// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

// Section is a homogeneous run of cells of one element Kind within a zone
// (§3). A MIXED section carries the per-cell kind inline on each Cell
// instead of fixing one kind for the whole run.
type Section struct {
	Name  string // "UdmElements_<kind>" (§6)
	Kind  Kind
	Cells []int // local cell ids belonging to this section, in insertion order
}

// NewSection returns an empty section of the given kind, named per §6's
// UdmElements_<kind> convention.
func NewSection(kind Kind) *Section {
	return &Section{Name: "UdmElements_" + kind.Name(), Kind: kind}
}

// Add appends a cell's local id to the section.
func (s *Section) Add(cellID int) {
	s.Cells = append(s.Cells, cellID)
}
