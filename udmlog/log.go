// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package udmlog is the ambient logging layer (§1): one log file per rank,
// the way inp.InitLogFile opens "<dirout>/<key>_p<rank>.log", plus colored
// stderr status lines via gosl/utl's Pf family for the handful of
// top-level messages a CLI run prints regardless of the per-rank file.
package udmlog

import (
	"log"
	"os"

	"github.com/cpmech/gosl/utl"

	"github.com/udmlib-go/udmlib/udmerr"
)

var logFile *os.File

// Init opens the per-rank log file at dirout/<key>_p<rank>.log and wires
// the standard logger to it (§1's "Logging" bullet; inp.InitLogFile's
// shape, generalized from the fixed mpi.Rank() lookup to an explicit rank
// so callers outside an active MPI session can still log per-rank).
func Init(dirout, key string, rank int) error {
	path := utl.Sf("%s/%s_p%d.log", dirout, key, rank)
	f, err := os.Create(path)
	if err != nil {
		return udmerr.New(udmerr.IOFailed, "cannot create log file %s: %v", path, err)
	}
	logFile = f
	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return nil
}

// Flush closes the per-rank log file (inp.FlushLog's shape).
func Flush() {
	if logFile != nil {
		logFile.Close()
	}
}

// Err logs a non-nil error and reports whether it should be treated as
// fatal (inp.LogErr's shape: a caller folds the returned bool into the
// rank's suspect/stop state rather than panicking directly).
func Err(err error, msg string) (fatal bool) {
	if err == nil {
		return false
	}
	log.Printf("ERROR: %s: %v", msg, err)
	return true
}

// ErrCond logs a formatted message when condition holds and reports
// condition back, mirroring inp.LogErrCond.
func ErrCond(condition bool, format string, args ...interface{}) (fatal bool) {
	if condition {
		log.Printf("ERROR: "+format, args...)
	}
	return condition
}

// Banner prints the startup banner a CLI run shows once on rank 0
// (main.go's copyright/version block, generalized past one fixed string).
func Banner(title string) {
	utl.PfWhite("\n%s\n\n", title)
}

// Status prints a plain informational line to stderr.
func Status(format string, args ...interface{}) {
	utl.Pf(format, args...)
}

// Warn prints a magenta warning line to stderr (a non-fatal condition
// worth a rank's operator noticing, e.g. a degraded partition plan).
func Warn(format string, args ...interface{}) {
	utl.PfMag(format, args...)
}

// Fail prints a red error line to stderr, the way main.go's deferred
// recover handler reports a panic before exiting.
func Fail(format string, args ...interface{}) {
	utl.PfRed(format, args...)
}
