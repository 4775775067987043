// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dfi hand-parses the DFI configuration file (§6): a hierarchical
// key/value text format naming file paths, units, time slices, flow
// solution fields, domain/MPI layout and the UDMlib partition block.
// Structured the way inp/sim.go reads a .sim file: a SetDefault/
// PostProcess pair per section, plain line-oriented parsing with
// github.com/cpmech/gosl/io for file IO and formatted errors.
package dfi

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/cpmech/gosl/io"

	"github.com/udmlib-go/udmlib/model"
	"github.com/udmlib-go/udmlib/udmerr"
)

// FileInfo names the input/output mesh files (§6).
type FileInfo struct {
	FilePath   string
	OutputPath string
}

// Unit names one unit-conversion pair the DFI UnitList section declares
// (§2's domain stack note on fun.Func-style unit conversion; reference
// unit name plus the value one of it converts to in the base unit).
type Unit struct {
	Name  string
	Value float64
}

// Slice mirrors model.Slice's wire shape for the DFI TimeSlice/Slice[] list.
type Slice struct {
	Step int
	Time float64
}

// Solution is one FlowSolutionList entry (§6).
type Solution struct {
	Name     string
	Location model.Location
	Type     model.DataType
	Arity    int
	Constant bool
}

// Process is one DFI Domain/Process entry: this rank's id within the run.
type Process struct {
	ID int
}

// Domain holds the MPI/Process layout block (§6).
type Domain struct {
	NumberOfRank int
	Processes    []Process
}

// Partition holds the UDMlib/partition block (§6).
type Partition struct {
	DebugLevel    int
	MxMPartition  bool // "MxM_PARTITION": source and destination rank counts match; each rank talks directly to its same-numbered peer during migration
}

// SetDefault fills UDMlib/partition defaults (§9's debug-level default).
func (p *Partition) SetDefault() {
	p.DebugLevel = 1
	p.MxMPartition = true
}

// Config is the full parsed DFI document.
type Config struct {
	File      FileInfo
	Units     []Unit
	Slices    []Slice
	Solutions []Solution
	Domain    Domain
	Partition Partition
}

// SetDefault fills every section's defaults before parsing overrides them.
func (c *Config) SetDefault() {
	c.Partition.SetDefault()
	c.Domain.NumberOfRank = 1
}

// PostProcess derives model.Config from the parsed document (§6's
// packing-width Open Question, resolved per SPEC_FULL.md §4): 2 global-id
// slots, or 3 when NumberOfRank exceeds 65536, and a ~1 GiB migration
// chunk cap. Local ids are not inspected here.
func (c *Config) PostProcess() model.Config {
	cfg := model.DefaultConfig()
	if c.Domain.NumberOfRank > (1 << 16) {
		cfg.GlobalIDSlots = 3
	}
	return cfg
}

// Read parses a DFI file at dir/fn (§6). Mirrors inp.ReadSim's shape:
// defaults first, then line-oriented overrides. Read does not call
// PostProcess; callers derive model.Config from the result themselves.
func Read(dir, fn string) (*Config, error) {
	path := dir + "/" + fn
	raw, err := io.ReadFile(path)
	if err != nil {
		return nil, udmerr.New(udmerr.ConfigParse, "cannot read DFI file %s: %v", path, err)
	}

	var c Config
	c.SetDefault()

	section := ""
	scanner := bufio.NewScanner(strings.NewReader(string(raw)))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			continue
		}
		key, val, ok := splitKV(line)
		if !ok {
			return nil, udmerr.New(udmerr.ConfigParse, "%s:%d: expected key=value, got %q", fn, lineNo, line)
		}
		if err := c.apply(section, key, val); err != nil {
			return nil, udmerr.New(udmerr.ConfigParse, "%s:%d: %v", fn, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, udmerr.New(udmerr.ConfigParse, "reading %s: %v", path, err)
	}
	return &c, nil
}

func splitKV(line string) (key, val string, ok bool) {
	i := strings.IndexByte(line, '=')
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
}

func (c *Config) apply(section, key, val string) error {
	switch section {
	case "FileInfo":
		switch key {
		case "FilePath":
			c.File.FilePath = val
		case "OutputPath":
			c.File.OutputPath = val
		}
	case "Domain":
		switch key {
		case "NumberOfRank":
			n, err := strconv.Atoi(val)
			if err != nil {
				return udmerr.New(udmerr.ConfigParse, "NumberOfRank: %v", err)
			}
			c.Domain.NumberOfRank = n
		case "ProcessID":
			n, err := strconv.Atoi(val)
			if err != nil {
				return udmerr.New(udmerr.ConfigParse, "ProcessID: %v", err)
			}
			c.Domain.Processes = append(c.Domain.Processes, Process{ID: n})
		}
	case "UDMlib/partition":
		switch key {
		case "DEBUG_LEVEL":
			n, err := strconv.Atoi(val)
			if err != nil {
				return udmerr.New(udmerr.ConfigParse, "DEBUG_LEVEL: %v", err)
			}
			c.Partition.DebugLevel = n
		case "MxM_PARTITION":
			c.Partition.MxMPartition = val == "true" || val == "1" || val == "on"
		}
	case "UnitList":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return udmerr.New(udmerr.ConfigParse, "UnitList entry %q: %v", key, err)
		}
		c.Units = append(c.Units, Unit{Name: key, Value: f})
	case "FlowSolutionList":
		sol, err := parseSolution(key, val)
		if err != nil {
			return err
		}
		c.Solutions = append(c.Solutions, sol)
	}
	return nil
}

// parseSolution parses one FlowSolutionList line, value format
// "location,type,arity[,const]" e.g. "Vertex,RealDouble,3".
func parseSolution(name, val string) (Solution, error) {
	parts := strings.Split(val, ",")
	if len(parts) < 3 {
		return Solution{}, udmerr.New(udmerr.ConfigParse, "FlowSolutionList %q: expected location,type,arity[,const]", name)
	}
	sol := Solution{Name: name}
	switch strings.TrimSpace(parts[0]) {
	case "Vertex":
		sol.Location = model.Vertex
	case "CellCenter":
		sol.Location = model.CellCenter
	default:
		return Solution{}, udmerr.New(udmerr.ConfigParse, "FlowSolutionList %q: unknown location %q", name, parts[0])
	}
	switch strings.TrimSpace(parts[1]) {
	case "Integer":
		sol.Type = model.Integer
	case "LongInteger":
		sol.Type = model.LongInteger
	case "RealSingle":
		sol.Type = model.RealSingle
	case "RealDouble":
		sol.Type = model.RealDouble
	default:
		return Solution{}, udmerr.New(udmerr.ConfigParse, "FlowSolutionList %q: unknown type %q", name, parts[1])
	}
	arity, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return Solution{}, udmerr.New(udmerr.ConfigParse, "FlowSolutionList %q: arity: %v", name, err)
	}
	sol.Arity = arity
	if len(parts) > 3 && strings.TrimSpace(parts[3]) == "const" {
		sol.Constant = true
	}
	return sol, nil
}

// Registry builds a model.FieldRegistry from the parsed FlowSolutionList.
func (c *Config) Registry() *model.FieldRegistry {
	r := model.NewFieldRegistry()
	for _, s := range c.Solutions {
		r.Register(model.FieldDef{Name: s.Name, Location: s.Location, Type: s.Type, Arity: s.Arity, Constant: s.Constant})
	}
	return r
}
