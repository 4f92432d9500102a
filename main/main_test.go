package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/gadget2big/bigfile"
	"github.com/phil-mansfield/gadget2big/convert"
	"github.com/phil-mansfield/gadget2big/io"
)

// writeSnapshot writes a Gadget-1 file with 100 species-1 particles, mass
// 1.5, time 0.5 and box size 1000.
func writeSnapshot(t *testing.T, fname string, time float64) {
	n := 100
	hd := &io.GadgetHeader{}
	hd.NPart[1], hd.Nall[1] = uint32(n), uint32(n)
	hd.Massarr[1] = 1.5
	hd.Time, hd.BoxSize, hd.NumFiles = time, 1000, 1

	x, v, id := make([][3]float32, n), make([][3]float32, n), make([]uint32, n)
	for i := range x {
		x[i] = [3]float32{float32(i), 1, 2}
		v[i] = [3]float32{1, 2, float32(i)}
		id[i] = uint32(i)
	}
	require.NoError(t, io.WriteGadget(fname, binary.LittleEndian, hd, x, v, id))
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		args, positional []string
		subsample        int
	}{
		{[]string{"src", "dest"}, []string{"src", "dest"}, 1},
		{[]string{"-subsample", "2", "src", "dest"}, []string{"src", "dest"}, 2},
		{[]string{"src", "--subsample", "3", "dest"}, []string{"src", "dest"}, 3},
		{[]string{"src", "dest", "--subsample=4"}, []string{"src", "dest"}, 4},
		{[]string{"src", "--", "-dest"}, []string{"src", "-dest"}, 1},
	}

	for i, test := range tests {
		fs, flags := newFlagSet()
		positional, err := parseArgs(fs, test.args)
		require.NoError(t, err, "%d)", i)
		assert.Equal(t, test.positional, positional, "%d)", i)
		assert.Equal(t, test.subsample, flags.subsample, "%d)", i)
	}

	fs, _ := newFlagSet()
	fs.SetOutput(&strings.Builder{})
	_, err := parseArgs(fs, []string{"src", "dest", "-colour", "red"})
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	src, dest := filepath.Join(dir, "snapshot_005"), filepath.Join(dir, "out")
	logFile := filepath.Join(dir, "log.out")
	writeSnapshot(t, src, 0.5)

	err := run([]string{
		src, dest, "--subsample", "2", "--time-ic", "0.1",
		"-LogFile", logFile,
	})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dest, "Header", bigfile.AttrFile))
	assert.True(t, os.IsNotExist(err))

	attrs, err := bigfile.ReadAttrs(filepath.Join(dest, "1"))
	require.NoError(t, err)
	timeIC, _ := attrs.Get("TimeIC")
	assert.Equal(t, 0.1, timeIC)
	length, _ := attrs.Get("UnitLength_in_cm")
	assert.Equal(t, 3.085678e24, length)
	m0, _ := attrs.Get("M0")
	assert.Equal(t, 1.5, m0)

	id, err := bigfile.ReadColumn(filepath.Join(dest, "1", "ID"))
	require.NoError(t, err)
	require.Len(t, id, 50)
	assert.Equal(t, uint32(98), id.([]uint32)[49])

	_, err = os.Stat(filepath.Join(dest, "1", "header"))
	assert.NoError(t, err)

	text, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(text), "Peculiar speeds")
}

func TestRunUnsupportedUnitSystem(t *testing.T) {
	dir := t.TempDir()
	src, dest := filepath.Join(dir, "snapshot_005"), filepath.Join(dir, "out")
	writeSnapshot(t, src, 0.5)

	err := run([]string{"--unit-system", "Gpc", src, dest})
	unitErr := &convert.UnsupportedUnitSystemError{}
	assert.True(t, errors.As(err, &unitErr))

	_, err = os.Stat(dest)
	assert.True(t, os.IsNotExist(err), "destination was created")
}

func TestRunBadArguments(t *testing.T) {
	tests := [][]string{
		{},
		{"only_source"},
		{"a", "b", "c"},
		{"src", "dest", "-subsample", "0"},
		{"src", "dest", "-time-ic", "-0.5"},
		{"src", "dest", "-LogLevel", "loud"},
	}

	for i, args := range tests {
		assert.Error(t, run(args), "%d) args %v", i, args)
	}
}

func TestRunConfigWithPositionals(t *testing.T) {
	dir := t.TempDir()
	src, dest := filepath.Join(dir, "snapshot_005"), filepath.Join(dir, "out")
	writeSnapshot(t, src, 0.5)

	config := filepath.Join(dir, "convert.config")
	require.NoError(t, os.WriteFile(config,
		[]byte("[Convert]\nUnitSystem = Kpc\nTimeIC = 0.2\n"), 0666))

	require.NoError(t, run([]string{"-Config", config, src, dest,
		"-LogLevel", "error"}))

	attrs, err := bigfile.ReadAttrs(filepath.Join(dest, "1"))
	require.NoError(t, err)
	length, _ := attrs.Get("UnitLength_in_cm")
	assert.Equal(t, 3.085678e21, length)
	timeIC, _ := attrs.Get("TimeIC")
	assert.Equal(t, 0.2, timeIC)

	// A config file without Input still needs a source and destination.
	assert.Error(t, run([]string{"-Config", config}))
}

func TestLoadConfigTimeIC(t *testing.T) {
	tests := []struct {
		args   []string
		timeIC float64
		valid  bool
	}{
		{[]string{"src", "dest"}, -1, true},
		{[]string{"src", "dest", "-time-ic", "0.1"}, 0.1, true},
		{[]string{"src", "dest", "-time-ic", "-1"}, 0, false},
		{[]string{"src", "dest", "-time-ic", "0"}, 0, false},
		{[]string{"src", "dest", "-time-ic", "+Inf"}, 0, false},
	}

	for i, test := range tests {
		fs, flags := newFlagSet()
		positional, err := parseArgs(fs, test.args)
		require.NoError(t, err, "%d)", i)

		con, err := loadConfig(fs, flags, positional)
		if !test.valid {
			assert.Error(t, err, "%d) args %v", i, test.args)
			continue
		}
		require.NoError(t, err, "%d)", i)
		assert.Equal(t, test.timeIC, con.TimeIC, "%d)", i)
		assert.Equal(t, "src", con.Input, "%d)", i)
	}
}

func TestRunIterated(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 3; i++ {
		writeSnapshot(t, filepath.Join(dir, fmt.Sprintf("snapshot_%03d", i)),
			0.25*float64(i+1))
	}

	table := filepath.Join(dir, "time_ic.txt")
	require.NoError(t, os.WriteFile(table, []byte("1 0.02\n"), 0666))

	config := filepath.Join(dir, "convert.config")
	require.NoError(t, os.WriteFile(config, []byte(fmt.Sprintf(`[Convert]
IteratedInput = %s
IteratedOutput = %s
UnitSystem = Kpc
TimeICTable = %s
LogFile = %s
`, filepath.Join(dir, "snapshot_%03d"), filepath.Join(dir, "out_%03d"),
		table, filepath.Join(dir, "log.out"))), 0666))

	require.NoError(t, run([]string{"-Config", config}))

	expected := []float64{0.25, 0.02, 0.75}
	for i, want := range expected {
		attrs, err := bigfile.ReadAttrs(
			filepath.Join(dir, fmt.Sprintf("out_%03d", i), "1"),
		)
		require.NoError(t, err, "%d)", i)
		timeIC, _ := attrs.Get("TimeIC")
		assert.Equal(t, want, timeIC, "%d)", i)
		length, _ := attrs.Get("UnitLength_in_cm")
		assert.Equal(t, 3.085678e21, length, "%d)", i)
	}

	_, err := os.Stat(filepath.Join(dir, "out_003"))
	assert.True(t, os.IsNotExist(err))
}

func TestPrintAttrs(t *testing.T) {
	dir := t.TempDir()
	src, dest := filepath.Join(dir, "snapshot_005"), filepath.Join(dir, "out")
	writeSnapshot(t, src, 0.5)
	require.NoError(t, run([]string{src, dest, "-LogLevel", "error"}))

	assert.NoError(t, run([]string{"-PrintAttrs", filepath.Join(dest, "1")}))
	assert.Error(t, run([]string{"-PrintAttrs", filepath.Join(dest, "1", "ID",
		"000000")}))
}
