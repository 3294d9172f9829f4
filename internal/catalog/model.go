package catalog

import (
	"github.com/tuannm99/ditabase/internal/record"
)

// Table is a named schema plus its rows in insertion order.
type Table struct {
	Name   string
	Schema record.Schema
	Rows   []record.Row
}

func NewTable(name string, schema record.Schema) *Table {
	return &Table{Name: name, Schema: schema, Rows: []record.Row{}}
}

// Clone returns a deep copy that shares nothing with t.
func (t *Table) Clone() *Table {
	rows := make([]record.Row, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = r.Clone()
	}
	return &Table{Name: t.Name, Schema: t.Schema.Clone(), Rows: rows}
}

// Count returns the number of rows whose column holds exactly v.
func (t *Table) Count(column, v string) int {
	n := 0
	for _, r := range t.Rows {
		if got, ok := r[column]; ok && got == v {
			n++
		}
	}
	return n
}
