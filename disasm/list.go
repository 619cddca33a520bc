package disasm

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ciltools/ciltools/graph"
	"github.com/ciltools/ciltools/metadata"
	"github.com/ciltools/ciltools/syntax"
	"github.com/olekukonko/tablewriter"
)

// Row is one instruction of a tabular listing.
type Row struct {
	Offset  int    `json:"offset"`
	Label   string `json:"label,omitempty"`
	OpCode  string `json:"opcode"`
	Operand string `json:"operand,omitempty"`
	Size    int    `json:"size"`
}

// List returns one Row per instruction of g. m may be nil.
func (d *Disassembler) List(m *metadata.Method, g *graph.Graph) []Row {
	p := &projector{d: d, naming: d.naming(m)}
	rows := make([]Row, 0, g.Len())
	for n := range g.Nodes() {
		ins := n.Instruction()
		rows = append(rows, Row{
			Offset:  ins.Offset(),
			Label:   n.Name(),
			OpCode:  ins.OpCode().String(),
			Operand: strings.TrimPrefix(syntax.Text(p.operand(n)...), " "),
			Size:    ins.Size(),
		})
	}
	return rows
}

// PrintTable writes rows as a text table.
func PrintTable(w io.Writer, rows []Row) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Offset", "Label", "OpCode", "Operand", "Size"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
	})
	for _, r := range rows {
		table.Append([]string{
			fmt.Sprintf("IL_%04X", r.Offset),
			r.Label,
			r.OpCode,
			r.Operand,
			strconv.Itoa(r.Size),
		})
	}
	table.Render()
}
