package io

import (
	"encoding/binary"
	"fmt"
	"strings"

	"gopkg.in/gcfg.v1"
)

const ExampleConvertFile = `[Convert]

#######################
# Required Parameters #
#######################

# The Gadget-1 snapshot to convert. This can be a single file, the first file
# of a multi-file snapshot (e.g. snapshot_010.0), or a directory containing all
# the files of one snapshot. Files ending in .zst are decompressed first.
Input = path/to/snapshot
# Directory which the bigfile catalog will be written to.
Output = path/to/output

# Length unit of the snapshot. Must be one of [ Mpc | Kpc ].
UnitSystem = Mpc

#######################
# Optional Parameters #
#######################

# Scale factor at which the initial conditions were generated. Defaults to the
# Time field of the snapshot header.
# TimeIC = 0.01

# Only write every Subsample-th particle. Default is 1, which keeps every
# particle.
# Subsample = 1

# Byte order of the snapshot files. Must be one of [ little | big ]. By
# default it is detected from the header.
# ByteOrder = little

# Names of the particle dataset and the header block inside the output.
# It's unlikely that you will want to change these.
# Dataset = 1
# HeaderGroup = Header

# Several snapshots can be converted at once with IteratedInput and
# IteratedOutput, which are printf format strings with a single integer verb
# (e.g. snapdir_%03d/snapshot_%03d). IterationStart and IterationEnd give the
# (inclusive) range of the iteration. If IterationEnd isn't set, snapshots
# will be converted until one can't be found.
# IteratedInput = path/to/snapdir_%03d/snapshot_%03d
# IteratedOutput = path/to/fastpm_%03d
# IterationStart = 0
# IterationEnd = 100

# A text file with two columns, an iteration index and the TimeIC of that
# snapshot. Rows override TimeIC for their iteration.
# TimeICTable = time_ic.txt

# Output files which are useful for profiling and debugging. Generally, there
# isn't a reason to use these unless something goes wrong. LogLevel must be
# one of [ fatal | error | warn | info | debug ].
# ProfileFile = prof.out
# LogFile = log.out
# LogLevel = info

# Writes a figure comparing the speed distributions of the input and output
# velocities. Requires python and matplotlib.
# DiagnosticPlot = speeds.png`

// ConvertConfig describes a conversion run.
type ConvertConfig struct {
	// Required
	Input, Output string
	UnitSystem    string

	// Optional
	TimeIC                        float64
	Subsample                     int
	ByteOrder                     string
	Dataset, HeaderGroup          string
	IteratedInput, IteratedOutput string
	IterationStart, IterationEnd  int
	TimeICTable                   string
	LogFile, LogLevel             string
	ProfileFile                   string
	DiagnosticPlot                string
}

type ConvertWrapper struct {
	Convert ConvertConfig
}

func DefaultConvertWrapper() *ConvertWrapper {
	con := ConvertConfig{}
	con.UnitSystem = "Mpc"
	con.TimeIC = -1
	con.Subsample = 1
	con.Dataset = "1"
	con.HeaderGroup = "Header"
	con.IterationStart = 0
	con.IterationEnd = -1
	con.LogLevel = "info"
	return &ConvertWrapper{con}
}

func (con *ConvertConfig) ValidInput() bool {
	return con.Input != ""
}
func (con *ConvertConfig) ValidOutput() bool {
	return con.Output != ""
}
func (con *ConvertConfig) ValidTimeIC() bool {
	return con.TimeIC > 0
}
func (con *ConvertConfig) ValidSubsample() bool {
	return con.Subsample > 0
}
func (con *ConvertConfig) ValidByteOrder() bool {
	bo := strings.ToLower(con.ByteOrder)
	return bo == "" || bo == "little" || bo == "big"
}
func (con *ConvertConfig) ValidDataset() bool {
	return con.Dataset != ""
}
func (con *ConvertConfig) ValidIteratedInput() bool {
	return con.IteratedInput != ""
}
func (con *ConvertConfig) ValidIteratedOutput() bool {
	return con.IteratedOutput != ""
}
func (con *ConvertConfig) ValidIterationStart() bool {
	return con.IterationStart >= 0
}
func (con *ConvertConfig) ValidIterationEnd() bool {
	return con.IterationEnd >= 0
}
func (con *ConvertConfig) ValidTimeICTable() bool {
	return con.TimeICTable != ""
}
func (con *ConvertConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *ConvertConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}
func (con *ConvertConfig) ValidDiagnosticPlot() bool {
	return con.DiagnosticPlot != ""
}

// Order returns the configured byte order. A nil order means that it should
// be detected from the snapshot.
func (con *ConvertConfig) Order() binary.ByteOrder {
	switch strings.ToLower(con.ByteOrder) {
	case "little": return binary.LittleEndian
	case "big": return binary.BigEndian
	}
	return nil
}

// Check returns an error describing the first invalid field in con. Input and
// Output aren't required in iterated runs.
func (con *ConvertConfig) Check() error {
	iterated := con.ValidIteratedInput() || con.ValidIteratedOutput()
	switch {
	case iterated && !(con.ValidIteratedInput() && con.ValidIteratedOutput()):
		return fmt.Errorf("IteratedInput and IteratedOutput must be set " +
			"together.")
	case !iterated && !con.ValidInput():
		return fmt.Errorf("Need to specify an Input snapshot.")
	case !iterated && !con.ValidOutput():
		return fmt.Errorf("Need to specify an Output directory.")
	case !con.ValidSubsample():
		return fmt.Errorf("Subsample must be positive, but is %d.",
			con.Subsample)
	case !con.ValidByteOrder():
		return fmt.Errorf("ByteOrder must be 'little' or 'big', not '%s'.",
			con.ByteOrder)
	case !con.ValidDataset():
		return fmt.Errorf("Dataset cannot be empty.")
	case !con.ValidIterationStart():
		return fmt.Errorf("IterationStart must be non-negative, but is %d.",
			con.IterationStart)
	case con.TimeIC != -1 && !con.ValidTimeIC():
		return fmt.Errorf("TimeIC must be positive, but is %g.", con.TimeIC)
	}
	return nil
}

// ReadConvertFile reads the [Convert] section of a config file on top of the
// defaults without checking it. Callers which fill in more fields
// afterwards, like the command line, should call Check themselves.
func ReadConvertFile(fname string) (*ConvertConfig, error) {
	wrap := DefaultConvertWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	return &wrap.Convert, nil
}

// ReadConvertConfig reads the [Convert] section of a config file on top of
// the defaults and checks that the result describes a complete run.
func ReadConvertConfig(fname string) (*ConvertConfig, error) {
	con, err := ReadConvertFile(fname)
	if err != nil { return nil, err }
	if err = con.Check(); err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	return con, nil
}

// ParseConvertConfig is ReadConvertConfig for config text that's already in
// memory.
func ParseConvertConfig(text string) (*ConvertConfig, error) {
	wrap := DefaultConvertWrapper()
	if err := gcfg.ReadStringInto(wrap, text); err != nil {
		return nil, err
	}
	if err := wrap.Convert.Check(); err != nil { return nil, err }
	return &wrap.Convert, nil
}
