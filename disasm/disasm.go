// Package disasm projects a method's instruction graph and region tree
// into a syntax tree and prints it as IL assembly text.
//
// # Key Types
//
//   - Disassembler: holds the formatting options and produces syntax nodes
//   - SourceProvider: supplies source code fragments keyed by body offset
//   - Row: one line of the tabular instruction listing
package disasm

import (
	"io"
	"strings"

	"github.com/ciltools/ciltools/bytecode"
	"github.com/ciltools/ciltools/errz"
	"github.com/ciltools/ciltools/graph"
	"github.com/ciltools/ciltools/metadata"
	"github.com/ciltools/ciltools/region"
	"github.com/ciltools/ciltools/syntax"
)

// SourceProvider supplies the source code fragments of a method in
// ascending offset order.
type SourceProvider interface {
	SourceFragments(m *metadata.Method) ([]bytecode.SourceFragment, error)
}

// SourceProviderFunc adapts a function to the SourceProvider interface.
type SourceProviderFunc func(m *metadata.Method) ([]bytecode.SourceFragment, error)

// SourceFragments calls f(m).
func (f SourceProviderFunc) SourceFragments(m *metadata.Method) ([]bytecode.SourceFragment, error) {
	return f(m)
}

type config struct {
	signature  bool
	defaults   bool
	attributes bool
	header     bool
	qualify    bool
	color      bool
	source     SourceProvider
	sink       errz.Sink
	limit      int
}

// Option configures a Disassembler.
type Option func(*config)

// WithSignature includes the .method signature line and the braces around
// the body.
func WithSignature() Option {
	return func(c *config) { c.signature = true }
}

// WithDefaults includes .param directives for parameters with default
// values.
func WithDefaults() Option {
	return func(c *config) { c.defaults = true }
}

// WithAttributes includes .custom directives.
func WithAttributes() Option {
	return func(c *config) { c.attributes = true }
}

// WithHeader includes the method header: .override, the vtable slot,
// .entrypoint, the code size, .maxstack and .locals.
func WithHeader() Option {
	return func(c *config) { c.header = true }
}

// WithQualifiedTypes writes every type with its assembly scope, including
// types of the method's own assembly.
func WithQualifiedTypes() Option {
	return func(c *config) { c.qualify = true }
}

// WithColor makes Print write terminal colors.
func WithColor(enabled bool) Option {
	return func(c *config) { c.color = enabled }
}

// WithSourceCode interleaves source code comments supplied by p.
func WithSourceCode(p SourceProvider) Option {
	return func(c *config) { c.source = p }
}

// WithDiagnostics sets the sink that receives non-fatal failures.
func WithDiagnostics(sink errz.Sink) Option {
	return func(c *config) { c.sink = sink }
}

// WithIterationLimit bounds the region reconstruction walk.
func WithIterationLimit(n int) Option {
	return func(c *config) { c.limit = n }
}

// All enables the signature, defaults, attributes and header sections.
func All() Option {
	return func(c *config) {
		c.signature = true
		c.defaults = true
		c.attributes = true
		c.header = true
	}
}

// Disassembler renders methods as IL assembly text. It is safe for
// concurrent use once constructed.
type Disassembler struct {
	cfg config
}

// New returns a Disassembler configured with the given options. With no
// options only the body is printed.
func New(opts ...Option) *Disassembler {
	cfg := config{sink: errz.Discard, limit: region.DefaultIterationLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sink == nil {
		cfg.sink = errz.Discard
	}
	return &Disassembler{cfg: cfg}
}

func (d *Disassembler) naming(m *metadata.Method) metadata.Naming {
	if m == nil {
		return metadata.Naming{QualifyAll: d.cfg.qualify}
	}
	return m.Naming(d.cfg.qualify)
}

func (d *Disassembler) report(offset int, context string, err error) {
	d.cfg.sink.Report(errz.Diagnostic{Offset: offset, Context: context, Err: err})
}

// Print writes the text of the method to w.
func (d *Disassembler) Print(w io.Writer, m *metadata.Method, g *graph.Graph) error {
	nodes, err := d.Method(m, g)
	if err != nil {
		return err
	}
	if d.cfg.color {
		return syntax.NewColorizer().Render(w, nodes...)
	}
	return syntax.WriteTo(w, nodes...)
}

// Text returns the text of the method.
func (d *Disassembler) Text(m *metadata.Method, g *graph.Graph) (string, error) {
	nodes, err := d.Method(m, g)
	if err != nil {
		return "", err
	}
	return syntax.Text(nodes...), nil
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
