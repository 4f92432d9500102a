package io

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExampleConvertFile(t *testing.T) {
	con, err := ParseConvertConfig(ExampleConvertFile)
	require.NoError(t, err)

	assert.Equal(t, "path/to/snapshot", con.Input)
	assert.Equal(t, "path/to/output", con.Output)
	assert.Equal(t, "Mpc", con.UnitSystem)
	assert.Equal(t, -1.0, con.TimeIC)
	assert.Equal(t, 1, con.Subsample)
	assert.Equal(t, "1", con.Dataset)
	assert.Equal(t, "Header", con.HeaderGroup)
	assert.Equal(t, -1, con.IterationEnd)
	assert.Equal(t, "info", con.LogLevel)
	assert.Nil(t, con.Order())
}

func TestParseConvertConfig(t *testing.T) {
	con, err := ParseConvertConfig(`[Convert]
IteratedInput = snapdir_%03d/snapshot_%03d
IteratedOutput = fastpm_%03d
UnitSystem = Kpc
TimeIC = 0.01
Subsample = 4
ByteOrder = Big
IterationEnd = 3
`)
	require.NoError(t, err)

	assert.Equal(t, "Kpc", con.UnitSystem)
	assert.Equal(t, 0.01, con.TimeIC)
	assert.True(t, con.ValidTimeIC())
	assert.Equal(t, 4, con.Subsample)
	assert.Equal(t, binary.BigEndian, con.Order())
	assert.True(t, con.ValidIterationEnd())
	assert.False(t, con.ValidInput())
}

func TestParseConvertConfigFailure(t *testing.T) {
	tests := []string{
		"[Convert]\nOutput = out\n",
		"[Convert]\nInput = in\n",
		"[Convert]\nInput = in\nOutput = out\nSubsample = 0\n",
		"[Convert]\nInput = in\nOutput = out\nByteOrder = middle\n",
		"[Convert]\nInput = in\nOutput = out\nTimeIC = 0\n",
		"[Convert]\nIteratedInput = in_%d\n",
		"[Convert]\nInput = in\nOutput = out\nColor = red\n",
		"[Render]\nInput = in\nOutput = out\n",
	}

	for i, text := range tests {
		_, err := ParseConvertConfig(text)
		assert.Error(t, err, "%d) config %q", i, text)
	}
}

func TestReadConvertConfig(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "convert.config")
	require.NoError(t, os.WriteFile(fname,
		[]byte("[Convert]\nInput = snap\nOutput = out\n"), 0666))

	con, err := ReadConvertConfig(fname)
	require.NoError(t, err)
	assert.Equal(t, "snap", con.Input)
	assert.Equal(t, "out", con.Output)

	_, err = ReadConvertConfig(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestReadConvertFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "convert.config")
	require.NoError(t, os.WriteFile(fname,
		[]byte("[Convert]\nUnitSystem = Kpc\nSubsample = 2\n"), 0666))

	con, err := ReadConvertFile(fname)
	require.NoError(t, err)
	assert.Equal(t, "Kpc", con.UnitSystem)
	assert.Equal(t, 2, con.Subsample)
	assert.Equal(t, "Header", con.HeaderGroup)
	assert.Error(t, con.Check())

	_, err = ReadConvertConfig(fname)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(fname,
		[]byte("[Convert]\nColor = red\n"), 0666))
	_, err = ReadConvertFile(fname)
	assert.Error(t, err)
}
