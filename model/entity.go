// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

// Reality distinguishes an entity owned by this rank from a read-only ghost
// copy of a peer rank's entity (§3).
type Reality int

const (
	// Real entities are owned by the current rank; authoritative for field values.
	Real Reality = iota
	// Virtual entities are ghost copies kept to close the one-layer halo.
	Virtual
)

func (r Reality) String() string {
	if r == Virtual {
		return "virtual"
	}
	return "real"
}

// GlobalID is the (owning-rank, local-id) pair that is the only identifier
// valid across the wire (§3, GLOSSARY).
type GlobalID struct {
	Rank int
	Local int
}
