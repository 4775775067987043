// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cgnsio

import "github.com/udmlib-go/udmlib/model"

// RankInfo is the {process-count, rank-number} pair the container's
// UdmInfo block carries (original_source/UdmInfo.cpp's rankInfo[2],
// modeled as a named struct instead of an anonymous array per SPEC_FULL.md
// §3, so a Writer call site reads process/rank instead of [0]/[1]).
type RankInfo struct {
	ProcessCount int
	RankNumber   int
}

// UdmInfo is the metadata block written once per container (§6's UdmInfo
// node): library version, rank layout, and the most recently recorded
// time-slice.
type UdmInfo struct {
	Version model.Version
	Rank    RankInfo
	Slice   model.Slice
}

// BuildUdmInfo assembles the UdmInfo block for the given rank's model.
func BuildUdmInfo(m *model.Model) UdmInfo {
	return UdmInfo{
		Version: m.Version,
		Rank:    RankInfo{ProcessCount: m.Nproc, RankNumber: m.Rank},
		Slice:   m.CurrentSlice(),
	}
}
