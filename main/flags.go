package main

import (
	"flag"
	"fmt"
	"os"
)

type cmdFlags struct {
	timeIC         float64
	unitSystem     string
	subsample      int
	config         string
	exampleConfig  bool
	printAttrs     string
	logFile        string
	logLevel       string
	profileFile    string
	diagnosticPlot string
}

func newFlagSet() (*flag.FlagSet, *cmdFlags) {
	flags := &cmdFlags{}
	fs := flag.NewFlagSet("gadget2big", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}

	fs.Float64Var(&flags.timeIC, "time-ic", -1,
		"Scale factor of the initial conditions. Default is the snapshot's "+
			"Time.")
	fs.StringVar(&flags.unitSystem, "unit-system", "Mpc",
		"Length unit of the snapshot: Mpc or Kpc.")
	fs.IntVar(&flags.subsample, "subsample", 1,
		"Keep every n-th particle. Default is to keep all of them.")

	fs.StringVar(&flags.config, "Config", "",
		"Configuration file with a [Convert] section. Flags override it.")
	fs.BoolVar(&flags.exampleConfig, "ExampleConfig", false,
		"Prints an example configuration file to stdout.")
	fs.StringVar(&flags.printAttrs, "PrintAttrs", "",
		"Prints the attributes of the given bigfile block and exits.")

	fs.StringVar(&flags.logFile, "LogFile", "",
		"Location to write log statements to. Default is stderr.")
	fs.StringVar(&flags.logLevel, "LogLevel", "info",
		"One of fatal, error, warn, info, or debug.")
	fs.StringVar(&flags.profileFile, "ProfileFile", "",
		"Location to write a CPU profile to. Default is no profiling.")
	fs.StringVar(&flags.diagnosticPlot, "DiagnosticPlot", "",
		"Location to write a figure of the speed distributions to.")

	fs.SetOutput(os.Stderr)
	return fs, flags
}

// parseArgs parses args with fs and returns the positional arguments. Unlike
// fs.Parse, flags may come after positional arguments. Everything after "--"
// is positional.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	positional := []string{}
	for {
		if err := fs.Parse(args); err != nil { return nil, err }
		rest := fs.Args()
		if len(rest) == 0 { return positional, nil }

		// fs.Parse consumes a terminating "--", so check whether it stopped
		// at one.
		if n := len(args) - len(rest); n > 0 && args[n-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}
