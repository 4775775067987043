// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package partition abstracts the external graph partitioner (Zoltan or
// equivalent) as a trait with query callbacks plus a partition driver
// (§4.3, §9). The core depends only on the Partitioner/Source interfaces
// here, never on a concrete partitioner's types.
package partition

import "github.com/udmlib-go/udmlib/model"

// Method selects the partitioner's algorithm family (§4.3's parameter surface).
type Method int

const (
	Graph Method = iota
	Hypergraph
)

func (m Method) String() string {
	if m == Hypergraph {
		return "Hypergraph"
	}
	return "Graph"
}

// Approach selects whether this call is a first partition or a
// repartition of an existing layout (§4.3).
type Approach int

const (
	PartitionApproach Approach = iota
	Repartition
)

func (a Approach) String() string {
	if a == Repartition {
		return "Repartition"
	}
	return "Partition"
}

// Params is the parameter surface named in §4.3.
type Params struct {
	Method     Method
	Approach   Approach
	DebugLevel int
	NumParts   int               // target part (rank) count
	Overrides  map[string]string // string key/value overrides stored in a parameter table
}

// Object is one queryable real cell: its global id and partition weight
// (§4.3's object-list callback).
type Object struct {
	Global model.GlobalID
	Weight float64
}

// Edge names a shared-node adjacency between two cells, possibly on
// different ranks, with weight equal to the number of shared nodes
// (§4.3's edges callback).
type Edge struct {
	Peer   model.GlobalID
	Weight int
}

// Source is the callback surface the core offers a Partitioner (§4.3,
// §9): object count/list, the adjacency graph (including cross-rank
// adjacency resolved through the rank-connectivity index), and optional
// geometry (cell centroids) for methods that need it.
type Source interface {
	// ObjectCount is the number of real cells on this rank.
	ObjectCount() int
	// ObjectList returns (global-id, weight) for every real cell.
	ObjectList() []Object
	// EdgeList returns, for each real cell's global id, its adjacency edges.
	EdgeList() map[model.GlobalID][]Edge
	// Geometry returns each real cell's centroid, queried only when the
	// selected Method requires it.
	Geometry() map[model.GlobalID][3]float64
}

// Plan is the partitioner's migration plan (§4.3): global ids arriving
// from other ranks, and global ids leaving this rank.
//
// Destinations names, for each entry in Exports, the rank it must be
// packed for (§4.3's pack step builds one buffer per destination). A
// partitioner that computes the whole global assignment (like Zoltan)
// can fill in Imports directly; ones that only see this rank's local
// adjacency (like the default GraphPartitioner below) leave Imports
// empty — the migration engine discovers imports from whatever arrives
// in the pairwise exchange instead of predicting them up front.
type Plan struct {
	Imports      []model.GlobalID
	Exports      []model.GlobalID
	Destinations map[model.GlobalID]int
}

// Empty reports whether this plan moves nothing, the *no-change* case
// (§4.3, §7, §8 law "Migration roundtrip").
func (p Plan) Empty() bool {
	return len(p.Imports) == 0 && len(p.Exports) == 0
}

// Partitioner is the trait the core depends on (§9). A concrete adapter
// wraps Zoltan or any equivalent hypergraph/graph partitioner.
type Partitioner interface {
	Partition(src Source, params Params) (Plan, error)
}
