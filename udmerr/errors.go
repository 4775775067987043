// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package udmerr unifies the core's failure modes into one result type
// carrying a kind, a message and optional caller context, instead of the
// panic/recover style the FEM solver this library grew out of used.
package udmerr

import (
	"fmt"
	"runtime"
)

// Kind names one of the failure modes a core operation may return (§7).
type Kind int

const (
	// InvalidEntity marks an out-of-range local id.
	InvalidEntity Kind = iota
	// UnknownSolution marks a field-value lookup/write for an unregistered solution name.
	UnknownSolution
	// ArityMismatch marks a field-value write whose vector arity disagrees with the registry.
	ArityMismatch
	// RankConnectivityMismatch marks a validator failure across peer ranks.
	RankConnectivityMismatch
	// PartitionFailed marks a fatal failure returned by the external partitioner.
	PartitionFailed
	// TransportFailed marks a fatal MPI size/exchange failure.
	TransportFailed
	// TransferPlanMismatch marks mismatched send/recv plan sizes between two ranks.
	TransferPlanMismatch
	// ContainerIO marks a failure from the CGNS/HDF5 write-through contract.
	ContainerIO
	// IOFailed marks a general filesystem failure outside the CGNS container
	// contract, e.g. opening a per-rank log file or a DFI config file.
	IOFailed
	// ConfigParse marks a DFI parse failure.
	ConfigParse
	// NoChange is a warning: partition returned identical imports/exports (empty).
	NoChange
	// NotSupportedElementKind is a warning: an element kind outside the CGNS table was requested.
	NotSupportedElementKind
	// EmptyZone is a warning: an operation was attempted on a zone with no entities.
	EmptyZone
	// ConstantFieldRewrite marks a second write to an already-written constant field slot.
	ConstantFieldRewrite
)

// DebugLevel is the global debug-level knob described in §7 (0=silent,
// 1=errors, 2=+warnings, 3=+info, 4=+debug). In this package it governs
// how much context is attached to new errors: New captures caller context
// at level 3 and above.
var DebugLevel = 1

// String names a Kind for log lines and error messages.
func (k Kind) String() string {
	switch k {
	case InvalidEntity:
		return "invalid-entity"
	case UnknownSolution:
		return "unknown-solution"
	case ArityMismatch:
		return "arity-mismatch"
	case RankConnectivityMismatch:
		return "rank-connectivity-mismatch"
	case PartitionFailed:
		return "partition-failed"
	case TransportFailed:
		return "transport-failed"
	case TransferPlanMismatch:
		return "transfer-plan-mismatch"
	case ContainerIO:
		return "container-io"
	case IOFailed:
		return "io-failed"
	case ConfigParse:
		return "config-parse"
	case NoChange:
		return "no-change"
	case NotSupportedElementKind:
		return "not-supported-element-kind"
	case EmptyZone:
		return "empty-zone"
	case ConstantFieldRewrite:
		return "constant-field-rewrite"
	}
	return "unknown-kind"
}

// Warning reports whether this kind is a warning (logged, not fatal) rather
// than an error that suspends the zone.
func (k Kind) Warning() bool {
	switch k {
	case NoChange, NotSupportedElementKind, EmptyZone:
		return true
	}
	return false
}

// Fatal reports whether this kind marks the zone as suspect (§7): subsequent
// operations on it must refuse to run until the caller re-ingests or disposes.
func (k Kind) Fatal() bool {
	switch k {
	case PartitionFailed, TransportFailed, TransferPlanMismatch:
		return true
	}
	return false
}

// Error is the one result type every fallible core operation returns.
type Error struct {
	Kind    Kind
	Message string
	Context string // file:line:function, captured when DebugLevel >= 3
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Context)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds an *Error of the given kind, capturing caller context when the
// debug level asks for it (mirrors UdmErrorHandler's file:line:function
// capture, gated the same way chk.CallerInfo is gated in the teacher).
func New(k Kind, format string, args ...interface{}) *Error {
	e := &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
	if DebugLevel >= 3 {
		e.Context = caller(2)
	}
	return e
}

// caller formats file:line:function for the given stack depth, skipping
// this package's own frames.
func caller(skip int) string {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return ""
	}
	fn := runtime.FuncForPC(pc)
	name := "?"
	if fn != nil {
		name = fn.Name()
	}
	return fmt.Sprintf("%s:%d:%s", file, line, name)
}

// Is reports whether err is an *Error of kind k.
func Is(err error, k Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == k
}

// KindOf extracts the Kind from err, returning ok=false for plain errors.
func KindOf(err error) (k Kind, ok bool) {
	e, isErr := err.(*Error)
	if !isErr {
		return 0, false
	}
	return e.Kind, true
}
