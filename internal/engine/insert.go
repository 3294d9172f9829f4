package engine

import (
	"github.com/tuannm99/ditabase/internal/catalog"
	"github.com/tuannm99/ditabase/internal/dberr"
	"github.com/tuannm99/ditabase/internal/record"
	"github.com/tuannm99/ditabase/internal/sql/parser"
)

// Row limits per value. These are counts, not set semantics: a UNIC column
// may hold the same value twice.
const (
	maxUniquePrimary = 1
	maxUnique        = 2
	maxPrimary       = 10
)

func (db *Database) insert(s *parser.InsertStmt, res *Result) error {
	t, err := db.table(s.TableName)
	if err != nil {
		return err
	}
	// keys naming undeclared columns are ignored
	values := s.ValueMap()

	for _, col := range t.Schema.Cols {
		if v, ok := values[col.Name]; ok {
			if err := record.ValidateValue(col, v); err != nil {
				return err
			}
		}
	}

	for _, col := range t.Schema.Cols {
		if v, ok := values[col.Name]; ok {
			if err := checkLimits(t, col, v); err != nil {
				return err
			}
		}
	}

	row := make(record.Row, t.Schema.NumCols())
	for _, col := range t.Schema.Cols {
		switch v, ok := values[col.Name]; {
		case col.AutoUUID():
			row[col.Name] = db.newID()
		case ok:
			row[col.Name] = v
		default:
			return dberr.Constraint("value not provided for column %s", col.Name)
		}
	}

	t.Rows = append(t.Rows, row)
	res.Inserted++
	return nil
}

func checkLimits(t *catalog.Table, col record.Column, v string) error {
	unique, primary := col.Has(record.Unique), col.Has(record.Primary)
	n := t.Count(col.Name, v)

	switch {
	case unique && primary && n >= maxUniquePrimary:
		return dberr.Constraint("UNIC MAIN constraint violation: '%s' already exists in column %s", v, col.Name)
	case unique && !primary && n >= maxUnique:
		return dberr.Constraint("UNIC constraint violation: '%s' already exists %d times in column %s", v, maxUnique, col.Name)
	case primary && !unique && n >= maxPrimary:
		return dberr.Constraint("MAIN constraint violation: %d items limit reached for '%s' in column %s", maxPrimary, v, col.Name)
	}
	return nil
}
