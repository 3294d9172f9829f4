package storage

import (
	"errors"
	"math"

	"github.com/tuannm99/ditabase/internal/alias/bx"
	"github.com/tuannm99/ditabase/internal/catalog"
	"github.com/tuannm99/ditabase/internal/dberr"
	"github.com/tuannm99/ditabase/internal/record"
)

// Magic identifies a .dtb file. There is no other version.
const Magic = "DTB1"

// MaxEmptyRows caps the row count of a table without columns. Such rows take
// no bytes, so the stream length cannot bound them.
const MaxEmptyRows = 1 << 20

// ---- Encode(catalog) -> []byte ----
// Format (all integers big-endian, text UTF-8):
//
//	"DTB1" | u32 table_count | table*
//	table:  u16 len + name | u16 column_count | column* | u32 row_count | row*
//	column: u16 len + name | u16 len + type | u16 constraint_count | (u16 len + constraint)*
//	row:    (u32 len + value) per column, in schema order
func Encode(c *catalog.Catalog) ([]byte, error) {
	out := []byte(Magic)

	if uint64(c.Len()) > math.MaxUint32 {
		return nil, dberr.Format("too many tables: %d", c.Len())
	}
	out = bx.AppendU32BE(out, uint32(c.Len()))

	var err error
	for _, t := range c.Tables() {
		if out, err = encodeTable(out, t); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func encodeTable(out []byte, t *catalog.Table) ([]byte, error) {
	var err error
	if out, err = putString16(out, t.Name, "table name"); err != nil {
		return nil, err
	}

	cols := t.Schema.Cols
	if len(cols) > math.MaxUint16 {
		return nil, dberr.Format("table %s: too many columns: %d", t.Name, len(cols))
	}
	out = bx.AppendU16BE(out, uint16(len(cols)))

	for _, col := range cols {
		if out, err = putString16(out, col.Name, "column name"); err != nil {
			return nil, err
		}
		if out, err = putString16(out, string(col.Type), "column type"); err != nil {
			return nil, err
		}
		if len(col.Constraints) > math.MaxUint16 {
			return nil, dberr.Format("column %s: too many constraints", col.Name)
		}
		out = bx.AppendU16BE(out, uint16(len(col.Constraints)))
		for _, k := range col.Constraints {
			if out, err = putString16(out, string(k), "constraint"); err != nil {
				return nil, err
			}
		}
	}

	if uint64(len(t.Rows)) > math.MaxUint32 {
		return nil, dberr.Format("table %s: too many rows: %d", t.Name, len(t.Rows))
	}
	out = bx.AppendU32BE(out, uint32(len(t.Rows)))

	for i, row := range t.Rows {
		for _, col := range cols {
			v, ok := row[col.Name]
			if !ok {
				return nil, dberr.Format("table %s: row %d has no value for column %s", t.Name, i, col.Name)
			}
			if uint64(len(v)) > math.MaxUint32 {
				return nil, dberr.Format("table %s: value too long in column %s", t.Name, col.Name)
			}
			out = bx.AppendU32BE(out, uint32(len(v)))
			out = append(out, v...)
		}
	}
	return out, nil
}

func putString16(out []byte, s, what string) ([]byte, error) {
	if len(s) > math.MaxUint16 {
		return nil, dberr.Format("%s too long: %d bytes", what, len(s))
	}
	out = bx.AppendU16BE(out, uint16(len(s)))
	return append(out, s...), nil
}

// ---- Decode([]byte) -> catalog ----
func Decode(buf []byte) (*catalog.Catalog, error) {
	if len(buf) < len(Magic) || string(buf[:len(Magic)]) != Magic {
		return nil, dberr.Format("invalid .dtb file")
	}
	r := bx.NewReader(buf[len(Magic):])

	n, err := r.U32()
	if err != nil {
		return nil, truncated(err)
	}

	c := catalog.New()
	for i := uint32(0); i < n; i++ {
		t, err := decodeTable(r)
		if err != nil {
			return nil, err
		}
		if c.Has(t.Name) {
			return nil, dberr.Format("duplicate table %s", t.Name)
		}
		c.Put(t)
	}
	// trailing bytes are ignored
	return c, nil
}

func decodeTable(r *bx.Reader) (*catalog.Table, error) {
	name, err := r.String16()
	if err != nil {
		return nil, truncated(err)
	}

	ncols, err := r.U16()
	if err != nil {
		return nil, truncated(err)
	}

	schema := record.Schema{Cols: make([]record.Column, 0, ncols)}
	for i := 0; i < int(ncols); i++ {
		col, err := decodeColumn(r)
		if err != nil {
			return nil, err
		}
		schema.Cols = append(schema.Cols, col)
	}

	nrows, err := r.U32()
	if err != nil {
		return nil, truncated(err)
	}

	// every value carries at least its u32 length
	switch {
	case ncols > 0 && uint64(nrows)*4*uint64(ncols) > uint64(r.Remaining()):
		return nil, dberr.Format("truncated stream")
	case ncols == 0 && nrows > MaxEmptyRows:
		return nil, dberr.Format("table %s: %d rows without columns", name, nrows)
	}

	t := catalog.NewTable(name, schema)
	for i := uint32(0); i < nrows; i++ {
		row := make(record.Row, len(schema.Cols))
		for _, col := range schema.Cols {
			v, err := r.String32()
			if err != nil {
				return nil, truncated(err)
			}
			row[col.Name] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func decodeColumn(r *bx.Reader) (record.Column, error) {
	name, err := r.String16()
	if err != nil {
		return record.Column{}, truncated(err)
	}
	typ, err := r.String16()
	if err != nil {
		return record.Column{}, truncated(err)
	}
	ct, ok := record.ParseColumnType(typ)
	if !ok {
		return record.Column{}, dberr.Format("column %s: unknown type %q", name, typ)
	}

	nk, err := r.U16()
	if err != nil {
		return record.Column{}, truncated(err)
	}
	col := record.Column{Name: name, Type: ct}
	for i := 0; i < int(nk); i++ {
		s, err := r.String16()
		if err != nil {
			return record.Column{}, truncated(err)
		}
		k, ok := record.ParseConstraint(s)
		if !ok {
			return record.Column{}, dberr.Format("column %s: unknown constraint %q", name, s)
		}
		col.Constraints = append(col.Constraints, k)
	}
	return col, nil
}

func truncated(err error) error {
	if errors.Is(err, bx.ErrShortBuffer) {
		return dberr.Format("truncated stream")
	}
	return err
}
