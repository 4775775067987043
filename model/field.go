// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"sort"

	"github.com/udmlib-go/udmlib/udmerr"
)

// Location is where a FlowSolution field lives: at vertices or cell centers.
type Location int

const (
	Vertex Location = iota
	CellCenter
)

// DataType is the wire data type of a field (mirrors DFI's FlowSolutionList
// DataType, §6).
type DataType int

const (
	Integer DataType = iota
	LongInteger
	RealSingle
	RealDouble
)

// FieldDef is one FlowSolution registry entry (§3's "field-name registry").
type FieldDef struct {
	Name     string
	Location Location
	Type     DataType
	Arity    int  // 1 (scalar) or 3/9 (vector); §4.1
	Constant bool // written once, never participates in time-slice output
}

// FieldRegistry is a zone's solution-name registry plus the flat per-entity
// value arrays backing it (§4.1's "Field storage").
type FieldRegistry struct {
	defs       map[string]*FieldDef
	vertexVals map[string][]float64 // solution name -> flat [nverts*arity] values
	cellVals   map[string][]float64 // solution name -> flat [ncells*arity] values
	AutoRegister bool                // if true, an unregistered write creates a registry entry (§8 boundary case)
}

// NewFieldRegistry returns an empty registry.
func NewFieldRegistry() *FieldRegistry {
	return &FieldRegistry{
		defs:       make(map[string]*FieldDef),
		vertexVals: make(map[string][]float64),
		cellVals:   make(map[string][]float64),
	}
}

// Register adds a solution definition. Registering an existing name
// replaces its definition and clears its stored values.
func (r *FieldRegistry) Register(def FieldDef) {
	r.defs[def.Name] = &def
	if def.Location == Vertex {
		delete(r.vertexVals, def.Name)
	} else {
		delete(r.cellVals, def.Name)
	}
}

// Def returns the registry entry for name, or nil if unregistered.
func (r *FieldRegistry) Def(name string) *FieldDef {
	return r.defs[name]
}

// ensureCapacity grows the flat value array for name to cover at least n
// entities, zero-filling new slots (the registered default, §4.1).
func (r *FieldRegistry) ensureCapacity(def *FieldDef, n int) []float64 {
	store := r.vertexVals
	if def.Location == CellCenter {
		store = r.cellVals
	}
	need := n * def.Arity
	vals := store[def.Name]
	if len(vals) < need {
		grown := make([]float64, need)
		copy(grown, vals)
		vals = grown
		store[def.Name] = vals
	}
	return vals
}

// Get reads the field value for (entityLocal, name) into out, which must
// have capacity for the registered arity. Missing storage yields zeros,
// the registered default (§4.1, §8 boundary case).
func (r *FieldRegistry) Get(entityLocal int, name string, out []float64) error {
	def, ok := r.defs[name]
	if !ok {
		return udmerr.New(udmerr.UnknownSolution, "solution %q is not registered", name)
	}
	if len(out) != def.Arity {
		return udmerr.New(udmerr.ArityMismatch, "solution %q has arity %d, got buffer of length %d", name, def.Arity, len(out))
	}
	store := r.vertexVals
	if def.Location == CellCenter {
		store = r.cellVals
	}
	vals := store[name]
	base := (entityLocal - 1) * def.Arity
	for i := 0; i < def.Arity; i++ {
		if base+i < len(vals) {
			out[i] = vals[base+i]
		} else {
			out[i] = 0
		}
	}
	return nil
}

// Set writes the field value for (entityLocal, name). If name is
// unregistered and AutoRegister is false, returns unknown-solution (§8
// boundary case); if AutoRegister is true, a scalar RealDouble vertex
// definition is created on the fly. A constant field may only be written
// to an all-zero (never-written) slot; subsequent writes are rejected so
// "a constant field is written once" (§3) holds.
func (r *FieldRegistry) Set(entityLocal int, name string, values []float64) error {
	def, ok := r.defs[name]
	if !ok {
		if !r.AutoRegister {
			return udmerr.New(udmerr.UnknownSolution, "solution %q is not registered", name)
		}
		arity := len(values)
		newDef := FieldDef{Name: name, Location: Vertex, Type: RealDouble, Arity: arity}
		r.Register(newDef)
		def = r.defs[name]
	}
	if len(values) != def.Arity {
		return udmerr.New(udmerr.ArityMismatch, "solution %q has arity %d, got %d values", name, def.Arity, len(values))
	}
	vals := r.ensureCapacity(def, entityLocal)
	base := (entityLocal - 1) * def.Arity
	if def.Constant {
		for i := 0; i < def.Arity; i++ {
			if vals[base+i] != 0 {
				return udmerr.New(udmerr.ConstantFieldRewrite, "constant solution %q at entity %d was already written", name, entityLocal)
			}
		}
	}
	for i, v := range values {
		vals[base+i] = v
	}
	return nil
}

// Names returns every registered solution name.
func (r *FieldRegistry) Names() []string {
	out := make([]string, 0, len(r.defs))
	for name := range r.defs {
		out = append(out, name)
	}
	return out
}

// OrderedNames returns every registered name at the given location,
// sorted, giving packers and transfer a stable field order to agree on
// without carrying it on the wire (§4.4, §6).
func (r *FieldRegistry) OrderedNames(loc Location) []string {
	out := make([]string, 0, len(r.defs))
	for name, def := range r.defs {
		if def.Location == loc {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// TotalArity sums the arity of every registered name at loc, the flat
// value-vector width a wire record for one entity carries (§6).
func (r *FieldRegistry) TotalArity(loc Location) int {
	total := 0
	for _, name := range r.OrderedNames(loc) {
		total += r.defs[name].Arity
	}
	return total
}

// Values reads every registered field at loc for entityLocal, flattened
// in OrderedNames order — the packer's per-record value vector (§6).
func (r *FieldRegistry) Values(loc Location, entityLocal int) []float64 {
	names := r.OrderedNames(loc)
	out := make([]float64, 0, r.TotalArity(loc))
	for _, name := range names {
		def := r.defs[name]
		buf := make([]float64, def.Arity)
		r.Get(entityLocal, name, buf) // defs came from this registry; arity matches by construction
		out = append(out, buf...)
	}
	return out
}

// SetValues writes a flattened value vector back across every registered
// field at loc for entityLocal, in OrderedNames order — the unpacker's
// inverse of Values (§6, §4.4).
func (r *FieldRegistry) SetValues(loc Location, entityLocal int, flat []float64) error {
	names := r.OrderedNames(loc)
	off := 0
	for _, name := range names {
		def := r.defs[name]
		if off+def.Arity > len(flat) {
			return udmerr.New(udmerr.ArityMismatch, "flattened value vector too short for solution %q at offset %d", name, off)
		}
		if err := r.Set(entityLocal, name, flat[off:off+def.Arity]); err != nil {
			return err
		}
		off += def.Arity
	}
	return nil
}
