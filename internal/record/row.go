package record

// Row maps column name to its text value. Declared types never change the
// stored representation, so equality is always string equality.
type Row map[string]string

// Cond is a single column = value equality test.
type Cond struct {
	Column string
	Value  string
}

// Matches reports whether every condition holds. A row without the column
// does not match.
func (r Row) Matches(conds []Cond) bool {
	for _, c := range conds {
		v, ok := r[c.Column]
		if !ok || v != c.Value {
			return false
		}
	}
	return true
}

func (r Row) Clone() Row {
	cp := make(Row, len(r))
	for k, v := range r {
		cp[k] = v
	}
	return cp
}

// Values returns the row's values in schema column order.
func (r Row) Values(s Schema) []string {
	out := make([]string, len(s.Cols))
	for i, c := range s.Cols {
		out[i] = r[c.Name]
	}
	return out
}
