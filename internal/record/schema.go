package record

import (
	"fmt"
	"strings"

	"github.com/tuannm99/ditabase/internal/dberr"
)

// ColumnType is the declared type of a column. It is persisted by its text.
type ColumnType string

const (
	ColUUID     ColumnType = "UUID"
	ColStr      ColumnType = "STR"
	ColPassword ColumnType = "PASSWORD"
	ColInt16    ColumnType = "INT16"
	ColInt32    ColumnType = "INT32"
	ColInt64    ColumnType = "INT64"
	ColChar     ColumnType = "CHAR"
	ColBool     ColumnType = "BOOL"
)

var columnTypes = []ColumnType{
	ColUUID, ColStr, ColPassword, ColInt16, ColInt32, ColInt64, ColChar, ColBool,
}

// ParseColumnType maps a type name to its ColumnType. Names are case-sensitive.
func ParseColumnType(s string) (ColumnType, bool) {
	for _, t := range columnTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Constraint is a column annotation. UNIC in the DSL is UNIQUE, MAIN is PRIMARY.
type Constraint string

const (
	Unique  Constraint = "UNIQUE"
	Primary Constraint = "PRIMARY"
)

func ParseConstraint(s string) (Constraint, bool) {
	switch Constraint(s) {
	case Unique, Primary:
		return Constraint(s), true
	}
	return "", false
}

type Column struct {
	Name        string
	Type        ColumnType
	Constraints []Constraint
}

func (c Column) Has(k Constraint) bool {
	for _, x := range c.Constraints {
		if x == k {
			return true
		}
	}
	return false
}

// AutoUUID reports whether inserts generate this column's value.
func (c Column) AutoUUID() bool {
	return strings.Contains(string(c.Type), string(ColUUID)) && c.Has(Primary)
}

// String renders "name (TYPE) [UNIQUE PRIMARY]".
func (c Column) String() string {
	s := fmt.Sprintf("%s (%s)", c.Name, c.Type)
	if len(c.Constraints) == 0 {
		return s
	}
	parts := make([]string, len(c.Constraints))
	for i, k := range c.Constraints {
		parts[i] = string(k)
	}
	return s + " [" + strings.Join(parts, " ") + "]"
}

type Schema struct {
	Cols []Column
}

func (s Schema) NumCols() int { return len(s.Cols) }

func (s Schema) Names() []string {
	out := make([]string, len(s.Cols))
	for i := range s.Cols {
		out[i] = s.Cols[i].Name
	}
	return out
}

// Lookup returns the position of the named column, or -1.
func (s Schema) Lookup(name string) int {
	for i := range s.Cols {
		if s.Cols[i].Name == name {
			return i
		}
	}
	return -1
}

// Validate checks that column names are unique within the schema.
func (s Schema) Validate() error {
	seen := make(map[string]struct{}, len(s.Cols))
	for _, c := range s.Cols {
		if _, dup := seen[c.Name]; dup {
			return dberr.Schema("duplicate column name %s", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

func (s Schema) Clone() Schema {
	cols := make([]Column, len(s.Cols))
	for i, c := range s.Cols {
		c.Constraints = append([]Constraint(nil), c.Constraints...)
		cols[i] = c
	}
	return Schema{Cols: cols}
}
