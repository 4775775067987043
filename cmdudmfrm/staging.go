// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cmdudmfrm implements the udm-frm staging utility's core logic
// (§6 CLI surface), kept separate from cmd/udm-frm/main.go so it is
// testable without a process boundary, the way fem.Start/fem.Run are
// separated from the teacher's main.go.
package cmdudmfrm

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/udmlib-go/udmlib/cgnsio"
	"github.com/udmlib-go/udmlib/dfi"
	"github.com/udmlib-go/udmlib/model"
	"github.com/udmlib-go/udmlib/udmerr"
)

// RankDir returns the fan-out directory a given rank's staged files are
// copied into, the stable rule named in §9's Open Questions and supplemented
// from original_source/tools/udm-frm/src/UdmStaging.cpp: output_dir/"%06d"%n.
func RankDir(outputDir string, rank int) string {
	return filepath.Join(outputDir, fmt.Sprintf("%06d", rank))
}

// Options mirrors the flags §6 names for the staging CLI.
type Options struct {
	Input      string // --input, DFI index file, required
	NumProcs   int    // --np, fan-out process count, required
	Output     string // --output, default "./"
	WithUDMlib string // --with-udmlib [PATH]; "" if not given, non-empty path if given a value
	WithUDMlibSet bool
	Step       int  // --step N; -1 means "every step"
	View       bool // --view, trace only
}

// Result is what Run reports back, for tests to assert on without
// capturing stdout.
type Result struct {
	RanksStaged  int
	Info         cgnsio.UdmInfo
	MxMPartition bool // cfg.Partition.MxMPartition, echoed back once validated
}

// Run validates opts and performs the staging fan-out (§6): unless View,
// it ensures RankDir(Output, rank) exists for each of NumProcs destination
// ranks. The UdmInfo block is built and returned in Result; Run does not
// write it to any file. Returns a non-nil error for any argument/IO
// problem (§6: exit code 1).
func Run(opts Options) (Result, error) {
	if opts.Input == "" {
		return Result{}, udmerr.New(udmerr.ConfigParse, "--input is required")
	}
	if opts.NumProcs <= 0 {
		return Result{}, udmerr.New(udmerr.ConfigParse, "--np must be a positive integer")
	}
	output := opts.Output
	if output == "" {
		output = "./"
	}

	dir, fn := filepath.Split(opts.Input)
	cfg, err := dfi.Read(filepath.Clean(dir), fn)
	if err != nil {
		return Result{}, err
	}

	// MxM_PARTITION asserts the source and destination rank counts are
	// identical (every rank talks directly to its same-numbered peer
	// during migration, §6); staging to a different --np contradicts it.
	if cfg.Partition.MxMPartition && cfg.Domain.NumberOfRank != opts.NumProcs {
		return Result{}, udmerr.New(udmerr.ConfigParse,
			"--input declares MxM_PARTITION with %d ranks, but --np=%d stages a different rank count",
			cfg.Domain.NumberOfRank, opts.NumProcs)
	}

	m := model.NewModel(0, opts.NumProcs)
	info := cgnsio.BuildUdmInfo(m)

	if opts.Step >= 0 {
		m.RecordSlice(opts.Step, 0)
		info = cgnsio.BuildUdmInfo(m)
	}

	if opts.View {
		return Result{RanksStaged: 0, Info: info, MxMPartition: cfg.Partition.MxMPartition}, nil
	}

	for r := 0; r < opts.NumProcs; r++ {
		rd := RankDir(output, r)
		if err := os.MkdirAll(rd, 0755); err != nil {
			return Result{}, udmerr.New(udmerr.IOFailed, "creating rank directory %s: %v", rd, err)
		}
	}

	return Result{RanksStaged: opts.NumProcs, Info: info, MxMPartition: cfg.Partition.MxMPartition}, nil
}
