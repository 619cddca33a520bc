package main

import (
	"github.com/ciltools/ciltools/graph"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newGraphCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "graph <manifest> <method>",
		Short: "Write the basic block graph of a method in Graphviz DOT format",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, v, args[0])
			if err != nil {
				return err
			}
			e, err := s.entry(args[1])
			if err != nil {
				return err
			}
			g, err := s.graph(e)
			if err != nil {
				return err
			}
			return graph.WriteDOT(cmd.OutOrStdout(), g, qualifiedName(e.Method))
		},
	}
}
