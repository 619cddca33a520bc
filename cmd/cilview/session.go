package main

import (
	"io"

	"github.com/ciltools/ciltools/bytecode"
	"github.com/ciltools/ciltools/disasm"
	"github.com/ciltools/ciltools/errz"
	"github.com/ciltools/ciltools/graph"
	"github.com/ciltools/ciltools/internal/manifest"
	"github.com/ciltools/ciltools/metadata"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// session is the state shared by the commands that work on a manifest.
type session struct {
	v        *viper.Viper
	log      zerolog.Logger
	manifest *manifest.Manifest
	resolver metadata.Resolver
}

func newSession(cmd *cobra.Command, v *viper.Viper, path string) (*session, error) {
	log, err := newLogger(v, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	// The cache is shared by every method decoded in this session,
	// including the concurrent ones of the batch command.
	cached, err := metadata.NewCached(m.Table(), metadata.DefaultCacheSize)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("manifest", path).Int("methods", len(m.Entries())).Msg("manifest loaded")
	return &session{v: v, log: log, manifest: m, resolver: cached}, nil
}

// entries returns the named methods, or every method when names is empty.
func (s *session) entries(names []string) ([]*manifest.Entry, error) {
	if len(names) == 0 {
		return s.manifest.Entries(), nil
	}
	out := make([]*manifest.Entry, 0, len(names))
	for _, name := range names {
		e, err := s.manifest.Lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *session) entry(name string) (*manifest.Entry, error) {
	return s.manifest.Lookup(name)
}

func (s *session) sink() errz.Sink {
	return errz.LogSink(s.log)
}

func (s *session) graph(e *manifest.Entry) (*graph.Graph, error) {
	return graph.Create(e.Body, e.Resolver(s.resolver), bytecode.WithDiagnostics(s.sink()))
}

// disassemblerOptions returns the disassembler options selected by the
// command line and config file.
func (s *session) disassemblerOptions(w io.Writer) []disasm.Option {
	opts := s.layoutOptions(w)
	if !s.v.GetBool("no-source") {
		opts = append(opts, disasm.WithSourceCode(s.manifest))
	}
	return opts
}

// layoutOptions is disassemblerOptions without source comments. Source
// fragments are keyed by the manifest's offsets, which only hold for the
// original body.
func (s *session) layoutOptions(w io.Writer) []disasm.Option {
	opts := []disasm.Option{
		disasm.WithDiagnostics(s.sink()),
		disasm.WithIterationLimit(s.v.GetInt("iteration-limit")),
		disasm.WithColor(useColor(s.v, w)),
	}
	if !s.v.GetBool("body-only") {
		opts = append(opts, disasm.All())
	}
	if s.v.GetBool("qualify") {
		opts = append(opts, disasm.WithQualifiedTypes())
	}
	return opts
}
