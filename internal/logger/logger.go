// Package logger provides leveled logging for the harvester.
// Debug, Info and Warn messages are printed only in verbose mode (--verbose);
// Error messages are always printed. Output goes to stderr so that it never
// mixes with the run summary on stdout.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "[DEBUG] "+format+"\n", args...)
	}
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "[INFO] "+format+"\n", args...)
	}
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "[WARN] "+format+"\n", args...)
	}
}

// Error prints an error message regardless of verbosity.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	fmt.Fprintf(output, "[ERROR] "+format+"\n", args...)
}

// Job returns a logger that prefixes every message with a job name.
func Job(name string) *Scoped {
	return &Scoped{prefix: "[" + name + "] "}
}

// Scoped prefixes messages with a fixed tag.
type Scoped struct {
	prefix string
}

// Debug prints a prefixed debug message.
func (s *Scoped) Debug(format string, args ...any) { Debug(s.prefix+format, args...) }

// Info prints a prefixed informational message.
func (s *Scoped) Info(format string, args ...any) { Info(s.prefix+format, args...) }

// Warn prints a prefixed warning.
func (s *Scoped) Warn(format string, args ...any) { Warn(s.prefix+format, args...) }

// Error prints a prefixed error.
func (s *Scoped) Error(format string, args ...any) { Error(s.prefix+format, args...) }

// Printf adapts the package to libraries that expect a leveled Printf-style
// logger (e.g. badger.Logger). Library messages keep their own newlines.
type Printf struct {
	// Name is prepended to every message.
	Name string
}

func (p Printf) trim(format string) string {
	return p.Name + ": " + strings.TrimRight(format, "\n")
}

// Errorf logs at error level.
func (p Printf) Errorf(format string, args ...any) { Error(p.trim(format), args...) }

// Warningf logs at warn level.
func (p Printf) Warningf(format string, args ...any) { Warn(p.trim(format), args...) }

// Infof logs at debug level; libraries are chatty at info.
func (p Printf) Infof(format string, args ...any) { Debug(p.trim(format), args...) }

// Debugf logs at debug level.
func (p Printf) Debugf(format string, args ...any) { Debug(p.trim(format), args...) }
