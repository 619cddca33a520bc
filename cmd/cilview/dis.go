package main

import (
	"fmt"

	"github.com/ciltools/ciltools/disasm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newDisCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dis <manifest> [method...]",
		Short: "Disassemble methods as IL assembly text",
		Long: `Disassemble methods as IL assembly text.

Methods are named either by their simple name or as Type::Name. With no
method names every method of the manifest is printed.`,
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
			d := disasm.New(s.disassemblerOptions(out)...)
			for i, e := range entries {
				if i > 0 {
					fmt.Fprintln(out)
				}
				g, err := s.graph(e)
				if err != nil {
					return fmt.Errorf("method %s: %w", qualifiedName(e.Method), err)
				}
				if err := d.Print(out, e.Method, g); err != nil {
					return err
				}
			}
			return nil
		},
	}
	return cmd
}
