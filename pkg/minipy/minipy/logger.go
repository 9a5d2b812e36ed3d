package minipy

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sambeau/minipy/pkg/minipy/evaluator"
)

// Logger is an alias for evaluator.Logger for convenience
type Logger = evaluator.Logger

// StdoutLogger returns a logger that writes to stdout (default for CLI/REPL)
func StdoutLogger() Logger {
	return WriterLogger(os.Stdout)
}

// WriterLogger returns a logger that writes program output to w.
// Values are separated by single spaces.
func WriterLogger(w io.Writer) Logger {
	return &writerLogger{w: w}
}

// NullLogger returns a logger that discards all output
func NullLogger() Logger {
	return WriterLogger(io.Discard)
}

type writerLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *writerLogger) Log(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.w, joinValues(values))
}

func (l *writerLogger) LogLine(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.w, joinValues(values)+"\n")
}

// BufferedLogger keeps program output in memory. The observer uses one to
// capture what each line printed.
type BufferedLogger struct {
	mu  sync.Mutex
	buf strings.Builder
}

// NewBufferedLogger creates an empty buffered logger
func NewBufferedLogger() *BufferedLogger {
	return &BufferedLogger{}
}

func (l *BufferedLogger) Log(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.WriteString(joinValues(values))
}

func (l *BufferedLogger) LogLine(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.WriteString(joinValues(values))
	l.buf.WriteByte('\n')
}

// String returns everything written so far
func (l *BufferedLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

// Lines returns the completed lines, without their newlines. Text after
// the last newline is not included.
func (l *BufferedLogger) Lines() []string {
	out := l.String()
	end := strings.LastIndexByte(out, '\n')
	if end < 0 {
		return []string{}
	}
	return strings.Split(out[:end], "\n")
}

// Reset discards the captured output
func (l *BufferedLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.Reset()
}

// TeeLogger returns a logger that writes to every given logger in order
func TeeLogger(loggers ...Logger) Logger {
	return teeLogger(loggers)
}

type teeLogger []Logger

func (t teeLogger) Log(values ...any) {
	for _, l := range t {
		l.Log(values...)
	}
}

func (t teeLogger) LogLine(values ...any) {
	for _, l := range t {
		l.LogLine(values...)
	}
}

func joinValues(values []any) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return fmt.Sprint(values[0])
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}
