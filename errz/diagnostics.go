package errz

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
)

// Diagnostic is a non-fatal failure reported while decoding or printing,
// such as a metadata token that could not be resolved. Processing continues
// with a placeholder.
type Diagnostic struct {
	Offset  int    // body offset of the instruction involved, or -1
	Context string // human-readable description of what was being done
	Err     error  // the triggering error
}

func (d Diagnostic) Error() string {
	if d.Offset < 0 {
		return fmt.Sprintf("%s: %v", d.Context, d.Err)
	}
	return fmt.Sprintf("IL_%04X: %s: %v", d.Offset, d.Context, d.Err)
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}

// Sink receives diagnostics.
type Sink interface {
	Report(d Diagnostic)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(d Diagnostic)

// Report calls f(d).
func (f SinkFunc) Report(d Diagnostic) {
	f(d)
}

// Discard is a Sink that drops every diagnostic.
var Discard Sink = SinkFunc(func(Diagnostic) {})

// Collector accumulates diagnostics. It is safe for concurrent use.
type Collector struct {
	mu  sync.Mutex
	err *multierror.Error
	n   int
}

// Report records the diagnostic.
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = multierror.Append(c.err, d)
	c.n++
}

// Len returns the number of diagnostics collected.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Diagnostics returns the collected diagnostics in report order.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		return nil
	}
	out := make([]Diagnostic, 0, len(c.err.Errors))
	for _, err := range c.err.Errors {
		if d, ok := err.(Diagnostic); ok {
			out = append(out, d)
		}
	}
	return out
}

// Err returns the collected diagnostics as a single error, or nil if none
// were reported.
func (c *Collector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err.ErrorOrNil()
}

// LogSink returns a Sink that writes each diagnostic to the logger at warn
// level.
func LogSink(logger zerolog.Logger) Sink {
	return SinkFunc(func(d Diagnostic) {
		ev := logger.Warn().Err(d.Err)
		if d.Offset >= 0 {
			ev = ev.Int("offset", d.Offset)
		}
		ev.Msg(d.Context)
	})
}

// Tee returns a Sink that forwards every diagnostic to each of the sinks.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(d Diagnostic) {
		for _, s := range sinks {
			if s != nil {
				s.Report(d)
			}
		}
	})
}
