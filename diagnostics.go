package params

import (
	"context"
	"log/slog"
	"sync"
)

// Level is the severity of a diagnostic.
type Level int

const (
	// LevelWarn reports an advisory; the invocation continues.
	LevelWarn Level = iota
	// LevelFatal reports a violation that aborts the invocation.
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Constraint kinds recorded on diagnostics.
const (
	KindOnlyOne    = "only_one"
	KindAtLeastOne = "at_least_one"
	KindInSet      = "in_set"
	KindValue      = "value"
	KindExpr       = "expr"
	KindIgnored    = "ignored"
	KindRequired   = "required"
)

// Diagnostic is a single message produced by a constraint check.
type Diagnostic struct {
	Level      Level
	Constraint string
	Params     []string
	Message    string
}

// Fatal reports whether the diagnostic aborts the invocation.
func (d Diagnostic) Fatal() bool {
	return d.Level == LevelFatal
}

// Sink receives diagnostics as they are produced.
type Sink interface {
	Report(Diagnostic)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Diagnostic)

// Report implements Sink.
func (f SinkFunc) Report(d Diagnostic) {
	if f != nil {
		f(d)
	}
}

type noopSink struct{}

func (noopSink) Report(Diagnostic) {}

// NewLogSink writes diagnostics to logger. Warnings log at slog.LevelWarn and
// fatal diagnostics at slog.LevelError.
func NewLogSink(logger *slog.Logger) Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return logSink{logger: logger}
}

type logSink struct {
	logger *slog.Logger
}

func (s logSink) Report(d Diagnostic) {
	level := slog.LevelWarn
	if d.Fatal() {
		level = slog.LevelError
	}
	s.logger.LogAttrs(context.Background(), level, d.Message,
		slog.String("constraint", d.Constraint),
		slog.Any("params", d.Params),
	)
}

// MultiSink fans diagnostics out to every non-nil sink.
func MultiSink(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			out = append(out, sink)
		}
	}
	return out
}

type multiSink []Sink

func (m multiSink) Report(d Diagnostic) {
	for _, sink := range m {
		sink.Report(d)
	}
}

// CaptureSink records diagnostics for later inspection.
type CaptureSink struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
}

// Report implements Sink.
func (c *CaptureSink) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d.Params = append([]string(nil), d.Params...)
	c.diagnostics = append(c.diagnostics, d)
}

// Diagnostics returns a copy of the recorded diagnostics.
func (c *CaptureSink) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Diagnostic(nil), c.diagnostics...)
}

// Count returns how many diagnostics of level were recorded.
func (c *CaptureSink) Count(level Level) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, d := range c.diagnostics {
		if d.Level == level {
			n++
		}
	}
	return n
}

// Reset discards recorded diagnostics.
func (c *CaptureSink) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diagnostics = nil
}
