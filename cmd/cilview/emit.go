package main

import (
	"fmt"
	"io"

	"github.com/ciltools/ciltools/bytecode"
	"github.com/ciltools/ciltools/disasm"
	"github.com/ciltools/ciltools/emit"
	"github.com/ciltools/ciltools/graph"
	"github.com/ciltools/ciltools/internal/manifest"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newEmitCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emit <manifest> [method...]",
		Short: "Re-emit method bodies and print the resulting IL",
		Long: `Re-emit method bodies through the assembler and print the result.

Short branches are written in their long form, so the re-emitted body may
be larger than the original. With --dis the re-emitted body is decoded
again and printed as IL assembly text, without source comments.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, v, args[0])
			if err != nil {
				return err
			}
			entries, err := s.entries(args[1:])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, e := range entries {
				if i > 0 {
					fmt.Fprintln(out)
				}
				body, err := s.reemit(e)
				if err != nil {
					return fmt.Errorf("method %s: %w", qualifiedName(e.Method), err)
				}
				if v.GetBool("dis") {
					err = s.printBody(out, e, body)
				} else {
					printEmitted(out, e, body)
				}
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("dis", false, "disassemble the re-emitted body")
	_ = v.BindPFlags(cmd.Flags())
	return cmd
}

// reemit replays the method's graph into an assembler and returns the
// assembled body.
func (s *session) reemit(e *manifest.Entry) (*bytecode.Body, error) {
	g, err := s.graph(e)
	if err != nil {
		return nil, err
	}
	asm := emit.NewAssembler()
	if err := emit.Emit(g, asm); err != nil {
		return nil, err
	}
	return asm.Body(e.Body.MaxStack(), e.Body.InitLocals())
}

func (s *session) printBody(w io.Writer, e *manifest.Entry, body *bytecode.Body) error {
	g, err := graph.Create(body, e.Resolver(s.resolver), bytecode.WithDiagnostics(s.sink()))
	if err != nil {
		return err
	}
	return disasm.New(s.layoutOptions(w)...).Print(w, e.Method, g)
}

func printEmitted(w io.Writer, e *manifest.Entry, body *bytecode.Body) {
	fmt.Fprintf(w, "%s: %d -> %d bytes\n", qualifiedName(e.Method), e.Body.CodeSize(), body.CodeSize())
	code := body.Code()
	for start := 0; start < len(code); start += 16 {
		end := min(start+16, len(code))
		fmt.Fprintf(w, "  IL_%04X:", start)
		for _, b := range code[start:end] {
			fmt.Fprintf(w, " %02X", b)
		}
		fmt.Fprintln(w)
	}
	for _, r := range body.Regions() {
		fmt.Fprintf(w, "  %s\n", r)
	}
}
