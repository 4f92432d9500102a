package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/phil-mansfield/gadget2big/bigfile"
	"github.com/phil-mansfield/gadget2big/convert"
	"github.com/phil-mansfield/gadget2big/diagnostic"
	"github.com/phil-mansfield/gadget2big/internal/logging"
	"github.com/phil-mansfield/gadget2big/io"
)

const usage = `Usage: gadget2big [flags] source dest

Converts the dark matter particles of a Gadget-1 snapshot into a FastPM
bigfile catalog. Flags may be given before or after source and dest.

`

// speedTolerance is the allowed relative error when checking the velocity
// conversion.
const speedTolerance = 1e-3

// FileGroup contains utility files for logging and writing profiles to.
type FileGroup struct {
	log, prof *os.File
}

// Close closes the files inside FileGroup.
func (fg *FileGroup) Close() {
	if fg.log != nil {
		logging.SetOutput(os.Stderr)
		if err := fg.log.Close(); err != nil { logging.Fatalf("%v", err) }
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		if err := fg.prof.Close(); err != nil { logging.Fatalf("%v", err) }
	}
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if err == flag.ErrHelp { os.Exit(2) }
		logging.Fatalf("%v", err)
	}
}

// run executes gadget2big with the given command line arguments.
func run(args []string) error {
	fs, flags := newFlagSet()
	positional, err := parseArgs(fs, args)
	if err != nil { return err }

	switch {
	case flags.exampleConfig:
		fmt.Printf("%s\n", io.ExampleConvertFile)
		return nil
	case flags.printAttrs != "":
		return printAttrs(flags.printAttrs)
	}

	con, err := loadConfig(fs, flags, positional)
	if err != nil { return err }

	// Unit systems are checked before anything touches the disk.
	u, err := convert.ParseUnitSystem(con.UnitSystem)
	if err != nil { return err }

	fg, err := setupIO(con)
	if err != nil { return err }
	defer fg.Close()

	if !con.ValidIteratedInput() {
		_, err = convertSnapshot(con, u, con.Input, con.Output, -1)
		return err
	}
	return iteratedMain(con, u)
}

// loadConfig builds the run's configuration. Explicitly set flags override
// the config file, and positional arguments override Input and Output.
func loadConfig(
	fs *flag.FlagSet, flags *cmdFlags, positional []string,
) (*io.ConvertConfig, error) {
	var con *io.ConvertConfig
	if flags.config != "" {
		var err error
		if con, err = io.ReadConvertFile(flags.config); err != nil {
			return nil, err
		}
	} else {
		con = &io.DefaultConvertWrapper().Convert
	}

	// A given -time-ic must be a real scale factor, unlike the config file's
	// TimeIC, where -1 means unset.
	timeICGiven := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "time-ic":
			con.TimeIC, timeICGiven = flags.timeIC, true
		case "unit-system": con.UnitSystem = flags.unitSystem
		case "subsample": con.Subsample = flags.subsample
		case "LogFile": con.LogFile = flags.logFile
		case "LogLevel": con.LogLevel = flags.logLevel
		case "ProfileFile": con.ProfileFile = flags.profileFile
		case "DiagnosticPlot": con.DiagnosticPlot = flags.diagnosticPlot
		}
	})

	if timeICGiven && !(flags.timeIC > 0 && !math.IsInf(flags.timeIC, 0)) {
		return nil, fmt.Errorf("-time-ic must be a positive scale factor, "+
			"not %g.", flags.timeIC)
	}

	switch len(positional) {
	case 0:
	case 2:
		con.Input, con.Output = positional[0], positional[1]
	default:
		return nil, fmt.Errorf("Expected a source and a destination, but "+
			"got %d arguments: %s. Run with -help for usage.",
			len(positional), strings.Join(positional, " "))
	}

	if con.ValidInput() && con.ValidIteratedInput() {
		return nil, fmt.Errorf("Both a single Input and IteratedInput " +
			"were given.")
	}
	if err := con.Check(); err != nil { return nil, err }
	return con, nil
}

// setupIO redirects logging and starts profiling.
func setupIO(con *io.ConvertConfig) (*FileGroup, error) {
	fg := &FileGroup{}

	level, err := logging.ParseLevel(con.LogLevel)
	if err != nil { return nil, err }
	logging.SetLevel(level)

	if con.ValidLogFile() {
		if fg.log, err = os.Create(con.LogFile); err != nil { return nil, err }
		logging.SetOutput(fg.log)
	}

	if con.ValidProfileFile() {
		if fg.prof, err = os.Create(con.ProfileFile); err != nil {
			fg.Close()
			return nil, err
		}
		if err = pprof.StartCPUProfile(fg.prof); err != nil {
			fg.prof.Close()
			fg.prof = nil
			fg.Close()
			return nil, err
		}
	}

	return fg, nil
}

// iteratedMain converts every snapshot in the configured iteration range.
// Without an IterationEnd, snapshots are converted until one is missing.
func iteratedMain(con *io.ConvertConfig, u convert.UnitSystem) error {
	var tab io.TimeICTable
	if con.ValidTimeICTable() {
		var err error
		if tab, err = io.ReadTimeICTable(con.TimeICTable); err != nil {
			return err
		}
	}

	n := 0
	for i := con.IterationStart; !con.ValidIterationEnd() ||
		i <= con.IterationEnd; i++ {

		input := fmt.Sprintf(con.IteratedInput, i)
		output := fmt.Sprintf(con.IteratedOutput, i)
		if !con.ValidIterationEnd() && !snapshotExists(input) {
			logging.Infof("No snapshot at %s, stopping.", input)
			break
		}

		iterCon := *con
		if a, ok := tab.Lookup(i); ok {
			iterCon.TimeIC = a
		} else if tab != nil {
			logging.Warnf("%s has no row for iteration %d.",
				con.TimeICTable, i)
		}

		if _, err := convertSnapshot(&iterCon, u, input, output, i); err != nil {
			return fmt.Errorf("Iteration %d: %w", i, err)
		}
		n++
	}

	if n == 0 {
		return fmt.Errorf("No snapshots match IteratedInput = %s.",
			con.IteratedInput)
	}
	logging.Infof("Converted %d snapshots.", n)
	return nil
}

func snapshotExists(path string) bool {
	for _, suffix := range []string{"", ".0", ".0.zst"} {
		if _, err := os.Stat(path + suffix); err == nil { return true }
	}
	return false
}

// convertSnapshot converts a single snapshot. iter is the iteration index,
// or -1 outside of iterated runs.
func convertSnapshot(
	con *io.ConvertConfig, u convert.UnitSystem, input, output string, iter int,
) (*convert.Result, error) {
	logging.Infof("Converting %s to %s.", input, output)

	snap, err := io.OpenGadget(input, con.Order())
	if err != nil { return nil, err }
	if snap.Count() == 0 {
		logging.Warnf("%s contains no species-%d particles.",
			input, convert.Species)
	}

	store, err := bigfile.Create(output)
	if err != nil { return nil, err }

	opt := convert.Options{
		UnitSystem:  u,
		Subsample:   con.Subsample,
		Dataset:     con.Dataset,
		HeaderGroup: con.HeaderGroup,
	}
	if con.ValidTimeIC() { opt.TimeIC = con.TimeIC }

	res, err := convert.Run(snap, store, output, opt)
	if err != nil { return nil, err }

	logDiagnostics(con, res, iter)
	return res, nil
}

func logDiagnostics(con *io.ConvertConfig, res *convert.Result, iter int) {
	c := diagnostic.Compare(res.GadgetVelocity, res.Columns.Velocity)
	logging.Infof("Gadget speeds:   %s", c.Gadget)
	logging.Infof("Peculiar speeds: %s", c.Peculiar)

	if con.Subsample == 1 {
		if err := c.Check(res.Header.Time, speedTolerance); err != nil {
			logging.Warnf("%v", err)
		}
	}

	if con.ValidDiagnosticPlot() {
		fname := con.DiagnosticPlot
		if iter >= 0 && strings.Contains(fname, "%") {
			fname = fmt.Sprintf(fname, iter)
		}
		diagnostic.PlotSpeeds(fname, res.GadgetVelocity,
			res.Columns.Velocity, res.Header.Time)
		logging.Infof("Wrote speed distributions to %s.", fname)
	}
}

// printAttrs prints the attributes of a bigfile block.
func printAttrs(dir string) error {
	as, err := bigfile.ReadAttrs(dir)
	if err != nil { return err }
	for _, a := range as {
		fmt.Printf("%-26s %v\n", a.Name, a.Value)
	}
	return nil
}
