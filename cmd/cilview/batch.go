package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ciltools/ciltools/batch"
	"github.com/ciltools/ciltools/disasm"
	"github.com/ciltools/ciltools/internal/manifest"
	"github.com/ciltools/ciltools/region"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// summary is what the batch command records for each method.
type summary struct {
	Instructions int
	Blocks       int
	Emitted      int
}

func newBatchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <manifest>",
		Short: "Decode, disassemble and re-emit every method concurrently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, v, args[0])
			if err != nil {
				return err
			}
			entries := s.manifest.Entries()
			jobs := make([]batch.Job[*manifest.Entry], 0, len(entries))
			for _, e := range entries {
				jobs = append(jobs, batch.Job[*manifest.Entry]{Name: qualifiedName(e.Method), Input: e})
			}
			results := batch.Run(cmd.Context(), jobs, s.process,
				batch.WithWorkers(v.GetInt("workers")),
				batch.WithLogger(s.log))

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Method", "Instructions", "Blocks", "Size", "Emitted", "Status"})
			table.SetAutoFormatHeaders(false)
			table.SetAutoWrapText(false)
			for i, r := range results {
				status := "ok"
				if r.Err != nil {
					status = r.Err.Error()
				}
				table.Append([]string{
					r.Name,
					strconv.Itoa(r.Value.Instructions),
					strconv.Itoa(r.Value.Blocks),
					strconv.Itoa(entries[i].Body.CodeSize()),
					strconv.Itoa(r.Value.Emitted),
					status,
				})
			}
			table.Render()

			if failed := batch.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d methods failed", len(failed), len(results))
			}
			return nil
		},
	}
	cmd.Flags().IntP("workers", "w", 0, "number of concurrent workers (default GOMAXPROCS)")
	_ = v.BindPFlags(cmd.Flags())
	return cmd
}

func (s *session) process(ctx context.Context, e *manifest.Entry) (summary, error) {
	var sum summary
	g, err := s.graph(e)
	if err != nil {
		return sum, err
	}
	sum.Instructions = g.Len()
	root, err := region.Build(g, region.WithIterationLimit(s.v.GetInt("iteration-limit")))
	if err != nil {
		return sum, err
	}
	sum.Blocks = root.Opened()
	if _, err := disasm.New(disasm.WithDiagnostics(s.sink())).Text(e.Method, g); err != nil {
		return sum, err
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	body, err := s.reemit(e)
	if err != nil {
		return sum, err
	}
	sum.Emitted = body.CodeSize()
	return sum, nil
}
