// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

// Kind is the element kind of a Cell, a tagged sum over the CGNS element
// enumeration named in §6. MIXED sections store the per-cell kind inline
// instead of per-section.
type Kind int

// element kinds, matching the CGNS enumeration ids used on the wire (§6)
const (
	NODE   Kind = 2
	BAR2   Kind = 3
	TRI3   Kind = 5
	QUAD4  Kind = 7
	TETRA4 Kind = 10
	PYRA5  Kind = 12
	PENTA6 Kind = 14
	HEXA8  Kind = 17
	MIXED  Kind = 20
)

// kindInfo is the small per-kind table shp.Shape plays in the teacher: a
// factory of geometric facts about one element kind.
type kindInfo struct {
	name    string
	nverts  int
	nfaces  int
	faceLV  [][]int // face local vertex indices
}

// factory holds the per-kind node counts and face layouts (§9's
// "Polymorphism over element kinds" note).
var factory = map[Kind]kindInfo{
	BAR2:   {"BAR_2", 2, 0, nil},
	TRI3:   {"TRI_3", 3, 3, [][]int{{0, 1}, {1, 2}, {2, 0}}},
	QUAD4:  {"QUAD_4", 4, 4, [][]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}},
	TETRA4: {"TETRA_4", 4, 4, [][]int{{0, 1, 2}, {0, 3, 1}, {1, 3, 2}, {2, 3, 0}}},
	PYRA5:  {"PYRA_5", 5, 5, [][]int{{0, 1, 2, 3}, {0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4}}},
	PENTA6: {"PENTA_6", 6, 5, [][]int{{0, 1, 2}, {3, 4, 5}, {0, 1, 4, 3}, {1, 2, 5, 4}, {2, 0, 3, 5}}},
	HEXA8: {"HEXA_8", 8, 6, [][]int{
		{0, 1, 2, 3}, {4, 5, 6, 7}, {0, 1, 5, 4},
		{1, 2, 6, 5}, {2, 3, 7, 6}, {3, 0, 4, 7},
	}},
}

// Nverts returns the fixed node count for kind k, or (0, false) for MIXED
// (whose per-cell node count is carried on the Cell itself) or an unknown kind.
func (k Kind) Nverts() (int, bool) {
	info, ok := factory[k]
	if !ok {
		return 0, false
	}
	return info.nverts, true
}

// Name returns the CGNS-style name of the kind; used for section naming
// (UdmElements_<kind>, §6).
func (k Kind) Name() string {
	if info, ok := factory[k]; ok {
		return info.name
	}
	if k == MIXED {
		return "MIXED"
	}
	return "UNKNOWN"
}

// Valid reports whether k is a known fixed-arity element kind or MIXED
// (whose arity is per-cell, so Nverts reports false for it).
func (k Kind) Valid() bool {
	_, ok := factory[k]
	return ok || k == MIXED
}

// FaceLocalVerts returns the local-vertex indices making up each face of
// kind k, or nil if k has no faces (e.g. BAR2) or is MIXED/unknown.
func (k Kind) FaceLocalVerts() [][]int {
	if info, ok := factory[k]; ok {
		return info.faceLV
	}
	return nil
}
