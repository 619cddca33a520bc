package main

import (
	"fmt"
	"strings"

	"github.com/ciltools/ciltools/disasm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newListCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <manifest> <method>",
		Short: "List the instructions of a method",
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
			rows := disasm.New(disasm.WithDiagnostics(s.sink())).List(e.Method, g)

			out := cmd.OutOrStdout()
			switch format := strings.ToLower(v.GetString("output")); format {
			case "", "text":
				disasm.PrintTable(out, rows)
			case "json":
				data, err := getOutputJSON(v, out, rows)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			default:
				return fmt.Errorf("unknown output format: %s", format)
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "text", "output format: text or json")
	_ = cmd.RegisterFlagCompletionFunc("output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return outputFormatsCompletion, cobra.ShellCompDirectiveNoFileComp
	})
	_ = v.BindPFlags(cmd.Flags())
	return cmd
}
