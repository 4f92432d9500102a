/*package logging is a small leveled wrapper around the standard library's log
package. Everything in gadget2big logs through the package-level Logger so
that the LogFile and LogLevel config variables apply everywhere at once.
*/
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"runtime/debug"
	"strings"
)

type Logger struct {
	level  Level
	logger *log.Logger
}

type Level int

const (
	// Levels that should almost always be printed.
	LevelFatal Level = iota // error that must stop the program
	LevelError              // error that does not need to stop execution

	// Levels that are okay to disable.
	LevelWarn // something may be wrong, but not necessarily an error
	LevelInfo  // nothing wrong, informational only
	LevelDebug // internal details and stack traces

	LevelDefault = LevelInfo

	LevelMin = LevelFatal
	LevelMax = LevelDebug
)

var (
	levelPrefix = []string{
		"FATAL ",
		"ERROR ",
		"WARN ",
		"INFO ",
		"DEBUG ",
	}
	levelNames = []string{"fatal", "error", "warn", "info", "debug"}

	std = New(os.Stderr)

	// exit is replaced in tests.
	exit = os.Exit
)

// New creates a Logger which writes to w at the default level.
func New(w io.Writer) *Logger {
	return &Logger{level: LevelDefault, logger: log.New(w, "", log.LstdFlags)}
}

// ParseLevel converts a level name ("fatal", "error", "warn", "info",
// "debug") into a Level. Matching is case-insensitive.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if s == name { return Level(i), nil }
	}
	return LevelDefault, fmt.Errorf(
		"'%s' is not a recognized log level. Only 'fatal', 'error', " +
			"'warn', 'info', and 'debug' are valid.", s,
	)
}

func (l Level) String() string {
	if l < LevelMin || l > LevelMax { return fmt.Sprintf("Level(%d)", l) }
	return levelNames[l]
}

func (l *Logger) Level() Level { return l.level }

// SetLevel sets the logging level and returns the old one.
func (l *Logger) SetLevel(level Level) Level {
	if level < LevelMin || level > LevelMax {
		panic("trying to set invalid log level")
	}
	old := l.level
	l.level = level
	return old
}

func (l *Logger) SetOutput(w io.Writer) { l.logger.SetOutput(w) }

func (l *Logger) output(level Level, s string) {
	if level > l.level { return }
	l.logger.Output(3, levelPrefix[level]+s)
}

func (l *Logger) Infof(format string, v ...interface{}) {
	l.output(LevelInfo, fmt.Sprintf(format, v...))
}

func (l *Logger) Warnf(format string, v ...interface{}) {
	l.output(LevelWarn, fmt.Sprintf(format, v...))
}

func (l *Logger) Debugf(format string, v ...interface{}) {
	l.output(LevelDebug, fmt.Sprintf(format, v...))
}

func (l *Logger) Errorf(format string, v ...interface{}) {
	l.output(LevelError, fmt.Sprintf(format, v...))
}

// Fatalf logs at the fatal level and exits the program. Stack traces are only
// printed at the debug level.
func (l *Logger) Fatalf(format string, v ...interface{}) {
	if l.level >= LevelDebug {
		l.logger.Print(string(debug.Stack()))
	}
	l.output(LevelFatal, fmt.Sprintf(format, v...))
	exit(1)
}

// Default returns the package-level Logger.
func Default() *Logger { return std }

func SetLevel(level Level) Level { return std.SetLevel(level) }
func SetOutput(w io.Writer)      { std.SetOutput(w) }

func Debugf(format string, v ...interface{}) { std.Debugf(format, v...) }
func Infof(format string, v ...interface{})  { std.Infof(format, v...) }
func Warnf(format string, v ...interface{})  { std.Warnf(format, v...) }
func Errorf(format string, v ...interface{}) { std.Errorf(format, v...) }
func Fatalf(format string, v ...interface{}) { std.Fatalf(format, v...) }
