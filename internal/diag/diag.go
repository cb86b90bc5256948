package diag

import (
	"fmt"
	"io"
	"sync"
)

// Sink receives human-readable diagnostics from the index and the runner.
// Implementations must treat calls as fire-and-forget: nothing in the
// calling code inspects a result or changes behavior based on the sink.
type Sink interface {
	Info(msg string)
	Warn(msg string, cause error)
}

// Logger is a writer-backed Sink. Info lines are emitted only when
// verbose is set; warnings are always emitted.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

// NewLogger creates a Logger writing to out.
func NewLogger(out io.Writer, verbose bool) *Logger {
	return &Logger{out: out, verbose: verbose}
}

func (l *Logger) Info(msg string) {
	if !l.verbose {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "[INFO] %s\n", msg)
}

func (l *Logger) Warn(msg string, cause error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cause != nil {
		fmt.Fprintf(l.out, "[WARN] %s: %v\n", msg, cause)
	} else {
		fmt.Fprintf(l.out, "[WARN] %s\n", msg)
	}
}

// Infof is a convenience wrapper around Sink.Info.
func Infof(s Sink, format string, args ...any) {
	s.Info(fmt.Sprintf(format, args...))
}

// Warnf is a convenience wrapper around Sink.Warn.
func Warnf(s Sink, cause error, format string, args ...any) {
	s.Warn(fmt.Sprintf(format, args...), cause)
}

// Discard is a Sink that drops everything. Useful in tests and for
// quiet mode.
var Discard Sink = discard{}

type discard struct{}

func (discard) Info(string) {}

func (discard) Warn(string, error) {}
