// Package ciltools decodes, disassembles and re-emits CIL method bodies.
//
// The convenience functions in this package chain the lower level
// packages for the common cases:
//
//   - bytecode decodes a body into instructions
//   - graph links the instructions and resolves branch targets
//   - region rebuilds the nesting of the exception blocks
//   - disasm projects the result into IL assembly text
//   - emit replays a graph into an instruction sink such as emit.Assembler
package ciltools

import (
	"github.com/ciltools/ciltools/bytecode"
	"github.com/ciltools/ciltools/disasm"
	"github.com/ciltools/ciltools/emit"
	"github.com/ciltools/ciltools/errz"
	"github.com/ciltools/ciltools/graph"
	"github.com/ciltools/ciltools/metadata"
	"github.com/ciltools/ciltools/region"
)

// Option configures a decode, disassembly or re-emit.
type Option func(*options)

type options struct {
	resolver metadata.Resolver
	method   *metadata.Method
	sink     errz.Sink
	limit    int
	disasm   []disasm.Option
}

func collectOptions(opts ...Option) *options {
	o := &options{sink: errz.Discard, limit: region.DefaultIterationLimit}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// resolverFor returns the resolver used to decode body. Locals and
// parameters resolve against the body and the configured method.
func (o *options) resolverFor(body *bytecode.Body) metadata.Resolver {
	if o.resolver == nil {
		return nil
	}
	if o.method == nil && body.LocalCount() == 0 {
		return o.resolver
	}
	return metadata.Scope(o.resolver, o.method, body.Locals())
}

func (o *options) disasmOpts() []disasm.Option {
	opts := []disasm.Option{
		disasm.WithDiagnostics(o.sink),
		disasm.WithIterationLimit(o.limit),
	}
	return append(opts, o.disasm...)
}

// WithResolver sets the resolver for the tokens in the body. Without one
// every token operand is left unresolved.
func WithResolver(r metadata.Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithMethod sets the method the body belongs to. It supplies parameter
// names and the signature and header sections of the disassembly.
func WithMethod(m *metadata.Method) Option {
	return func(o *options) {
		o.method = m
	}
}

// WithDiagnostics sets the sink that receives non-fatal failures, such as
// tokens the resolver does not know.
func WithDiagnostics(sink errz.Sink) Option {
	return func(o *options) {
		if sink != nil {
			o.sink = sink
		}
	}
}

// WithIterationLimit bounds the region reconstruction walk.
func WithIterationLimit(n int) Option {
	return func(o *options) {
		o.limit = n
	}
}

// WithDisassemblerOptions passes options through to the disassembler.
// This option is additive.
func WithDisassemblerOptions(opts ...disasm.Option) Option {
	return func(o *options) {
		o.disasm = append(o.disasm, opts...)
	}
}

// Graph decodes body and links its instructions.
func Graph(body *bytecode.Body, opts ...Option) (*graph.Graph, error) {
	o := collectOptions(opts...)
	return graph.Create(body, o.resolverFor(body), bytecode.WithDiagnostics(o.sink))
}

// Disassemble returns the IL assembly text of body. Only the body is
// printed unless disassembler options ask for more.
func Disassemble(body *bytecode.Body, opts ...Option) (string, error) {
	o := collectOptions(opts...)
	g, err := graph.Create(body, o.resolverFor(body), bytecode.WithDiagnostics(o.sink))
	if err != nil {
		return "", err
	}
	return disasm.New(o.disasmOpts()...).Text(o.method, g)
}

// Reemit decodes body and assembles it again. Short branches come back in
// their long form; everything else, the exception regions included, keeps
// its structure.
func Reemit(body *bytecode.Body, opts ...Option) (*bytecode.Body, error) {
	o := collectOptions(opts...)
	g, err := graph.Create(body, o.resolverFor(body), bytecode.WithDiagnostics(o.sink))
	if err != nil {
		return nil, err
	}
	asm := emit.NewAssembler()
	if err := emit.Emit(g, asm); err != nil {
		return nil, err
	}
	return asm.Body(body.MaxStack(), body.InitLocals())
}
