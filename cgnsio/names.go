// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cgnsio is the thin boundary between the core and the CGNS/HDF5
// container (§6's container naming convention; the container's own read/
// write internals are an explicit Non-goal and stay an external
// collaborator). It fixes the node-name convention every writer call site
// must agree on, the UdmInfo/rank-info metadata block shape, and a narrow
// Writer contract so the core can hand off a rebuilt zone without importing
// an HDF5 binding itself.
package cgnsio

import "fmt"

// UdmBase is the fixed CGNSBase_t node name every UDM container uses.
const UdmBase = "UdmBase"

// ConstSuffix marks a constant (written-once) FlowSolution node.
const ConstSuffix = "_Const"

// ZoneName returns the Zone_t node name for zone id (§6: "UdmZone#<id>").
func ZoneName(id int) string {
	return fmt.Sprintf("UdmZone#%d", id)
}

// ElementsName returns the Elements_t section name for one element kind
// (§6: "UdmElements_<kind>"), kind named by its CGNS-style label as
// model.Kind.Name returns it (e.g. "HEXA_8", "MIXED").
func ElementsName(kindLabel string) string {
	return "UdmElements_" + kindLabel
}

// GridCoordinatesName returns the GridCoordinates_t node name for a given
// step (§6: "GridCoordinates_%010d"), the moving-mesh coordinate snapshot
// at that step.
func GridCoordinatesName(step int) string {
	return fmt.Sprintf("GridCoordinates_%010d", step)
}

// NodeSolutionName returns the vertex FlowSolution_t node name for step
// (§6: "UdmSol_Node_%010d").
func NodeSolutionName(step int) string {
	return fmt.Sprintf("UdmSol_Node_%010d", step)
}

// CellSolutionName returns the cell-center FlowSolution_t node name for
// step (§6: "UdmSol_Cell_%010d").
func CellSolutionName(step int) string {
	return fmt.Sprintf("UdmSol_Cell_%010d", step)
}

// ConstNodeSolutionName is NodeSolutionName with the constant suffix
// appended, for a field registered Constant=true.
func ConstNodeSolutionName(step int) string {
	return NodeSolutionName(step) + ConstSuffix
}

// ConstCellSolutionName is CellSolutionName with the constant suffix
// appended.
func ConstCellSolutionName(step int) string {
	return CellSolutionName(step) + ConstSuffix
}
