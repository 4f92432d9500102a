package logging

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		s     string
		level Level
		valid bool
	}{
		{"info", LevelInfo, true},
		{"WARN", LevelWarn, true},
		{" error ", LevelError, true},
		{"fatal", LevelFatal, true},
		{"Debug", LevelDebug, true},
		{"trace", LevelDefault, false},
		{"", LevelDefault, false},
	}

	for i := range tests {
		level, err := ParseLevel(tests[i].s)
		if tests[i].valid {
			require.NoError(t, err, "level %q", tests[i].s)
			assert.Equal(t, tests[i].level, level)
		} else {
			assert.Error(t, err, "level %q", tests[i].s)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf)
	l.SetLevel(LevelWarn)

	l.Infof("hidden %d", 1)
	l.Warnf("shown %d", 2)
	l.Errorf("shown %d", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN shown 2")
	assert.Contains(t, out, "ERROR shown 3")
}

func TestSetLevelReturnsOld(t *testing.T) {
	l := New(&bytes.Buffer{})
	old := l.SetLevel(LevelError)
	assert.Equal(t, LevelDefault, old)
	assert.Equal(t, LevelError, l.Level())
	assert.Panics(t, func() { l.SetLevel(Level(17)) })
}

func TestFatalfStack(t *testing.T) {
	code := 0
	exit = func(c int) { code = c }
	defer func() { exit = os.Exit }()

	buf := &bytes.Buffer{}
	l := New(buf)
	l.Fatalf("no such file %s", "snap")
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "FATAL no such file snap")
	assert.NotContains(t, buf.String(), "goroutine")

	buf.Reset()
	l.SetLevel(LevelDebug)
	l.Fatalf("no such file %s", "snap")
	assert.Contains(t, buf.String(), "goroutine")
	assert.Contains(t, buf.String(), "FATAL no such file snap")
}
