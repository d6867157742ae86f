// Package trace renders pipeline histories and architectural state as
// tables.
package trace

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/pipesim/emu"
	"github.com/sarchlab/pipesim/insts"
	"github.com/sarchlab/pipesim/timing/pipeline"
)

// Format selects how a table is rendered.
type Format string

// Supported formats.
const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatHTML     Format = "html"
)

// Formats lists all supported formats.
func Formats() []Format {
	return []Format{FormatText, FormatMarkdown, FormatCSV, FormatHTML}
}

// ParseFormat converts a format name. The empty string means FormatText.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatText, nil
	}

	f := Format(strings.ToLower(s))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}

	return "", fmt.Errorf("unknown trace format %q", s)
}

// PipelineHeader is the header row of the pipeline table.
var PipelineHeader = table.Row{"Clock Cycle", "IF", "ID", "EX", "MEM", "WB"}

// PipelineTable builds one row per recorded cycle. Empty slots are blank.
func PipelineTable(history *pipeline.History) table.Writer {
	tw := table.NewWriter()
	tw.AppendHeader(PipelineHeader)

	history.Each(func(record pipeline.CycleRecord) bool {
		row := table.Row{record.Cycle}
		for _, stage := range pipeline.Stages() {
			row = append(row, record.Slot(stage).Text)
		}
		tw.AppendRow(row)
		return true
	})

	return tw
}

// RegisterOption configures RegisterTable.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	all bool
}

// AllRegisters includes registers that hold zero.
func AllRegisters() RegisterOption {
	return func(o *registerOptions) {
		o.all = true
	}
}

// RegisterTable lists register values in index order. By default only
// nonzero registers are shown.
func RegisterTable(regFile *emu.RegFile, opts ...RegisterOption) table.Writer {
	o := registerOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Register", "Value"})

	for i := 0; i < insts.NumRegs; i++ {
		reg := insts.Reg(i)
		v := regFile.ReadReg(reg)
		if v == 0 && !o.all {
			continue
		}
		tw.AppendRow(table.Row{reg.String(), v})
	}

	return tw
}

// MemoryTable lists every written memory word in address order.
func MemoryTable(memory *emu.Memory) table.Writer {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Address", "Value"})

	for _, addr := range memory.Addresses() {
		tw.AppendRow(table.Row{addr, memory.Read(addr)})
	}

	return tw
}

// Render writes tw to w in the given format.
func Render(w io.Writer, tw table.Writer, format Format) error {
	var out string

	switch format {
	case FormatText, "":
		tw.SetStyle(table.StyleLight)
		out = tw.Render()
	case FormatMarkdown:
		out = tw.RenderMarkdown()
	case FormatCSV:
		out = tw.RenderCSV()
	case FormatHTML:
		out = tw.RenderHTML()
	default:
		return fmt.Errorf("unknown trace format %q", format)
	}

	if _, err := fmt.Fprintln(w, out); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}

	return nil
}
