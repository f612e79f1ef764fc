package util

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// levelStyle is the label and color printed for a message kind
type levelStyle struct {
	label string
	color string
}

var (
	styleDebug   = levelStyle{"[DEBUG]", "\033[90m"}
	styleInfo    = levelStyle{"[INFO] ", "\033[36m"}
	styleWarn    = levelStyle{"[WARN] ", "\033[33m"}
	styleError   = levelStyle{"[ERROR]", "\033[31m"}
	styleSuccess = levelStyle{"[OK]   ", "\033[32m"}
)

var (
	logMu           sync.Mutex
	logOutput       io.Writer = os.Stderr
	currentLogLevel           = LevelInfo
	useColors                 = isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
)

// SetLogLevel sets the minimum log level to display
func SetLogLevel(level LogLevel) {
	logMu.Lock()
	currentLogLevel = level
	logMu.Unlock()
}

// SetVerbose enables verbose (debug) logging
func SetVerbose(verbose bool) {
	if verbose {
		SetLogLevel(LevelDebug)
	}
}

// SetQuiet shows errors only. Rendering also stops prompting in quiet
// mode; see render.Options.
func SetQuiet(quiet bool) {
	if quiet {
		SetLogLevel(LevelError)
	}
}

// IsVerbose reports whether debug output is enabled
func IsVerbose() bool {
	return enabled(LevelDebug)
}

// IsQuiet reports whether only errors are shown
func IsQuiet() bool {
	logMu.Lock()
	defer logMu.Unlock()
	return currentLogLevel >= LevelError
}

// SetLogOutput redirects log lines, and turns colors off for anything
// that is not a terminal. It returns the previous writer.
func SetLogOutput(w io.Writer) io.Writer {
	logMu.Lock()
	defer logMu.Unlock()
	prev := logOutput
	logOutput = w
	if f, ok := w.(*os.File); ok {
		useColors = isatty.IsTerminal(f.Fd())
	} else {
		useColors = false
	}
	return prev
}

func enabled(level LogLevel) bool {
	logMu.Lock()
	defer logMu.Unlock()
	return currentLogLevel <= level
}

func logf(level LogLevel, style levelStyle, format string, args []interface{}) {
	logMu.Lock()
	defer logMu.Unlock()
	if currentLogLevel > level {
		return
	}
	ts := time.Now().Format("15:04:05")
	if useColors {
		ts = style.color + ts + "\033[0m"
	}
	fmt.Fprintf(logOutput, "%s %s %s\n", ts, style.label, fmt.Sprintf(format, args...))
}

// DebugLog logs debug messages
func DebugLog(format string, args ...interface{}) {
	logf(LevelDebug, styleDebug, format, args)
}

// InfoLog logs informational messages
func InfoLog(format string, args ...interface{}) {
	logf(LevelInfo, styleInfo, format, args)
}

// WarnLog logs warning messages
func WarnLog(format string, args ...interface{}) {
	logf(LevelWarn, styleWarn, format, args)
}

// ErrorLog logs error messages
func ErrorLog(format string, args ...interface{}) {
	logf(LevelError, styleError, format, args)
}

// SuccessLog logs success messages at info level
func SuccessLog(format string, args ...interface{}) {
	logf(LevelInfo, styleSuccess, format, args)
}
