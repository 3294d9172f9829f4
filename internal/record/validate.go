package record

import (
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/tuannm99/ditabase/internal/dberr"
)

var intRanges = map[ColumnType][2]int64{
	ColInt16: {math.MinInt16, math.MaxInt16},
	ColInt32: {math.MinInt32, math.MaxInt32},
	ColInt64: {math.MinInt64, math.MaxInt64},
}

// ValidateValue checks a text value against the column's declared type.
// STR, PASSWORD and UUID accept any text. Integers are plain signed decimal:
// surrounding spaces and '_' separators are rejected.
func ValidateValue(col Column, v string) error {
	switch col.Type {
	case ColBool:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || (n != 0 && n != 1) {
			return dberr.Validation("BOOL type only accepts '0' or '1', got '%s'", v)
		}
	case ColChar:
		if utf8.RuneCountInString(v) != 1 {
			return dberr.Validation("CHAR type only accepts single character, got '%s'", v)
		}
	case ColInt16, ColInt32, ColInt64:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return dberr.Validation("invalid %s value: %s", col.Type, v)
		}
		r := intRanges[col.Type]
		if n < r[0] || n > r[1] {
			return dberr.Validation("%s value must be between %d and %d, got %s", col.Type, r[0], r[1], v)
		}
	}
	return nil
}
