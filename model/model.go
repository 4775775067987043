// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package model implements the Topology Store (§4.1): the in-memory data
// model of nodes, cells, sections, zones and the rank-local root (Model)
// that owns them (§3).
package model

import "fmt"

// Version is the library version metadata carried by the Model root and
// surfaced through the UdmInfo container block (§6, supplemented from
// original_source/include/udm_version.h).
type Version struct {
	Major, Minor, Patch int
	Build               string
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d (%s)", v.Major, v.Minor, v.Patch, v.Build)
}

// LibraryVersion is this module's own version stamp.
var LibraryVersion = Version{Major: 1, Minor: 0, Patch: 0, Build: "go"}

// Slice is one recorded time-slice entry (supplemented from
// original_source/include/model/UdmIterativeData.h).
type Slice struct {
	Step         int
	Time         float64
	AverageStep  int
	AverageTime  float64
}

// Config carries the subset of DFI-derived settings the core needs at
// runtime (the full parsed document lives in package dfi; Config is the
// small projection the core depends on, keeping dfi itself a leaf/ambient
// concern rather than a core dependency).
type Config struct {
	GlobalIDSlots int // 1, 2 or 3 (§6's packing rule); defaults to 2
	ChunkCapBytes int64 // oversized-migration split threshold (§4.3); ~1 GiB default
}

// DefaultConfig returns the Open-Question default recorded in SPEC_FULL.md:
// 2 global-id slots, ~1 GiB chunk cap.
func DefaultConfig() Config {
	return Config{GlobalIDSlots: 2, ChunkCapBytes: 1 << 30}
}

// Model is a rank's root (§3): one or more zones, MPI rank/world size,
// configuration, and library version metadata. This replaces the
// teacher's package-global `global` singleton (fem/solver.go) with an
// explicit, passed-around context (§9's design note on global state).
type Model struct {
	Zones   []*Zone
	Rank    int
	Nproc   int
	Config  Config
	Version Version

	slices []Slice
}

// NewModel returns an empty Model for the given rank/world size.
func NewModel(rank, nproc int) *Model {
	return &Model{
		Rank:    rank,
		Nproc:   nproc,
		Config:  DefaultConfig(),
		Version: LibraryVersion,
	}
}

// Root reports whether this rank is rank 0.
func (m *Model) Root() bool { return m.Rank == 0 }

// Distributed reports whether this run spans more than one rank.
func (m *Model) Distributed() bool { return m.Nproc > 1 }

// AddZone appends a fresh empty zone and returns it.
func (m *Model) AddZone() *Zone {
	z := NewZone(len(m.Zones))
	m.Zones = append(m.Zones, z)
	return z
}

// Zone returns the zone at index i, or nil if out of range.
func (m *Model) Zone(i int) *Zone {
	if i < 0 || i >= len(m.Zones) {
		return nil
	}
	return m.Zones[i]
}

// RecordSlice appends a time-slice entry (supplemented feature, see
// SPEC_FULL.md §3).
func (m *Model) RecordSlice(step int, time float64) {
	m.slices = append(m.slices, Slice{Step: step, Time: time})
}

// CurrentSlice returns the most recently recorded slice, or the zero
// Slice if none has been recorded.
func (m *Model) CurrentSlice() Slice {
	if len(m.slices) == 0 {
		return Slice{}
	}
	return m.slices[len(m.slices)-1]
}

// SliceCount returns how many slices have been recorded so far.
func (m *Model) SliceCount() int { return len(m.slices) }

// Dispose tears down every zone (§3 Lifecycle).
func (m *Model) Dispose() {
	for _, z := range m.Zones {
		z.Dispose()
	}
}
