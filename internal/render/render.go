// Package render writes PRINT TABLE and PRINT ITEM results for humans.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

const (
	FormatText   = "text"
	FormatPretty = "pretty"
)

// TableView is a snapshot of a table handed to a Printer.
type TableView struct {
	Name    string
	Columns []string
	Rows    [][]string // values in column order
}

type ItemStatus int

const (
	ItemFound ItemStatus = iota
	ItemColumnMissing
	ItemNoMatch
)

// ItemView is the outcome of a PRINT ITEM lookup.
type ItemView struct {
	Table  string
	Column string
	Value  string
	Status ItemStatus
}

// Printer is the output side of the engine. Implementations must not retain
// the views after returning.
type Printer interface {
	PrintTable(v TableView) error
	PrintItem(v ItemView) error
}

// New returns the printer for format writing to w. An empty format means text.
func New(format string, w io.Writer) (Printer, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return &Text{W: w}, nil
	case FormatPretty:
		return &Pretty{W: w}, nil
	default:
		return nil, fmt.Errorf("render: unknown output format %q", format)
	}
}

// Text prints the classic pipe-delimited layout.
type Text struct {
	W io.Writer
}

func (p *Text) PrintTable(v TableView) error {
	width := 0
	for _, h := range v.Columns {
		width += len(h)
	}
	if n := len(v.Columns); n > 1 {
		width += 3 * (n - 1)
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(strings.Join(v.Columns, " | "))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", width))
	b.WriteString("\n")
	for _, row := range v.Rows {
		b.WriteString(strings.Join(row, " | "))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	_, err := io.WriteString(p.W, b.String())
	return err
}

func (p *Text) PrintItem(v ItemView) error {
	_, err := io.WriteString(p.W, itemMessage(v))
	return err
}

func itemMessage(v ItemView) string {
	switch v.Status {
	case ItemFound:
		return fmt.Sprintf("\n%s: %s\n\n", v.Column, v.Value)
	case ItemColumnMissing:
		return fmt.Sprintf("\nColumn %s not found\n\n", v.Column)
	default:
		return "\nNo items found matching the specified conditions\n\n"
	}
}

// Pretty renders tables with box drawing characters and a row count footer.
type Pretty struct {
	W io.Writer
}

func (p *Pretty) PrintTable(v TableView) error {
	if len(v.Rows) == 0 {
		_, err := fmt.Fprintf(p.W, "%s: (0 rows)\n", v.Name)
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(p.W)
	t.SetStyle(table.StyleLight)
	if v.Name != "" {
		t.SetTitle(v.Name)
	}

	header := make(table.Row, len(v.Columns))
	for i, c := range v.Columns {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, r := range v.Rows {
		row := make(table.Row, len(r))
		for i, val := range r {
			row[i] = val
		}
		t.AppendRow(row)
	}

	t.Render()
	_, err := fmt.Fprintf(p.W, "(%d rows)\n", len(v.Rows))
	return err
}

func (p *Pretty) PrintItem(v ItemView) error {
	_, err := io.WriteString(p.W, strings.TrimPrefix(itemMessage(v), "\n"))
	return err
}

// Discard drops everything.
var Discard Printer = discard{}

type discard struct{}

func (discard) PrintTable(TableView) error { return nil }
func (discard) PrintItem(ItemView) error   { return nil }
