// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cpmech/gosl/utl"

	"github.com/udmlib-go/udmlib/cmdudmfrm"
	"github.com/udmlib-go/udmlib/model"
)

const versionString = "udm-frm v1.0.0 (go)"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is main's body pulled out for testability, the way fem.Start/fem.Run
// separate flag handling from the teacher's main().
func run(args []string) int {
	fs := flag.NewFlagSet("udm-frm", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	input := fs.String("input", "", "DFI index file (required)")
	np := fs.Int("np", 0, "fan-out process count (required)")
	output := fs.String("output", "./", "destination directory")
	withUDMlib := fs.String("with-udmlib", "", "stage an UDMlib-format copy alongside, optionally at PATH")
	step := fs.Int("step", -1, "copy only one step (default: every step)")
	view := fs.Bool("view", false, "trace only, do not write")
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *showVersion {
		utl.PfWhite("%s\n", versionString)
		return 0
	}

	opts := cmdudmfrm.Options{
		Input:         *input,
		NumProcs:      *np,
		Output:        *output,
		WithUDMlib:    *withUDMlib,
		WithUDMlibSet: isSet(fs, "with-udmlib"),
		Step:          *step,
		View:          *view,
	}

	utl.PfWhite("\n%s\n\n", versionString)
	result, err := cmdudmfrm.Run(opts)
	if err != nil {
		utl.PfRed("ERROR: %v\n", err)
		return 1
	}

	if opts.View {
		utl.Pf("would stage %d ranks to %q (library %s)\n", opts.NumProcs, opts.Output, model.LibraryVersion)
		return 0
	}
	utl.Pf(fmt.Sprintf("staged %d rank director%s under %s\n", result.RanksStaged, plural(result.RanksStaged), opts.Output))
	return 0
}

func isSet(fs *flag.FlagSet, name string) (found bool) {
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
