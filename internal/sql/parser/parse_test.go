package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/ditabase/internal/dberr"
	"github.com/tuannm99/ditabase/internal/record"
)

func parseOne(t *testing.T, src string) Statement {
	t.Helper()
	stmts, err := ParseSource(src)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	return stmts[0]
}

func TestParse_CreateTable(t *testing.T) {
	stmt := parseOne(t, `NEW TABLE { UNIC MAIN UUID id, MAIN STR name, UNIC INT16 age, BOOL active } users;`)

	s, ok := stmt.(*CreateTableStmt)
	require.True(t, ok, "want *CreateTableStmt, got %T", stmt)
	assert.Equal(t, "users", s.Table.Name)
	assert.False(t, s.IfNotExists)
	require.Len(t, s.Table.Columns, 4)

	assert.Equal(t, record.Column{
		Name: "id", Type: record.ColUUID,
		Constraints: []record.Constraint{record.Unique, record.Primary},
	}, s.Table.Columns[0])
	assert.Equal(t, record.Column{
		Name: "name", Type: record.ColStr, Constraints: []record.Constraint{record.Primary},
	}, s.Table.Columns[1])
	assert.Equal(t, record.Column{
		Name: "age", Type: record.ColInt16, Constraints: []record.Constraint{record.Unique},
	}, s.Table.Columns[2])
	assert.Equal(t, record.Column{Name: "active", Type: record.ColBool}, s.Table.Columns[3])
}

func TestParse_CreateTable_IfExists(t *testing.T) {
	s := parseOne(t, `NEW TABLE IF EXISTS IS FALSE { STR a } t;`).(*CreateTableStmt)
	assert.True(t, s.IfNotExists)

	s = parseOne(t, `NEW TABLE IF EXISTS IS TRUE { STR a } t;`).(*CreateTableStmt)
	assert.False(t, s.IfNotExists)

	_, err := ParseSource(`NEW TABLE IF EXISTS IS MAYBE { STR a } t;`)
	require.ErrorIs(t, err, dberr.ErrSyntax)
	assert.Contains(t, err.Error(), "expected 'TRUE' or 'FALSE' after 'IS'")
}

func TestParse_CreateTable_AllTypes(t *testing.T) {
	s := parseOne(t, `NEW TABLE { UUID a, STR b, PASSWORD c, INT16 d, INT32 e, INT64 f, CHAR g, BOOL h } t;`).(*CreateTableStmt)

	var got []record.ColumnType
	for _, c := range s.Table.Columns {
		got = append(got, c.Type)
	}
	assert.Equal(t, []record.ColumnType{
		record.ColUUID, record.ColStr, record.ColPassword, record.ColInt16,
		record.ColInt32, record.ColInt64, record.ColChar, record.ColBool,
	}, got)
}

func TestParse_CreateTable_Invalid(t *testing.T) {
	cases := map[string]string{
		`NEW { STR a } t;`:                 "expected 'TABLE' after 'NEW'",
		`NEW TABLE STR a } t;`:             "expected '{' after table declaration",
		`NEW TABLE { TEXT a } t;`:          "invalid column type 'TEXT'",
		`NEW TABLE { MAIN UNIC STR a } t;`: "invalid column type 'UNIC'",
		`NEW TABLE { STR } t;`:             "expected column name",
		`NEW TABLE { STR a STR b } t;`:     "expected ',' between columns",
		`NEW TABLE { STR a };`:             "expected table name",
		`NEW TABLE { STR a } t`:            "expected ';' after table name",
		`NEW TABLE { STR a, `:              "expected column type",
	}
	for src, want := range cases {
		_, err := ParseSource(src)
		require.ErrorIs(t, err, dberr.ErrSyntax, src)
		assert.Contains(t, err.Error(), want, src)
	}
}

func TestParse_CreateTable_EmptyColumns(t *testing.T) {
	s := parseOne(t, `NEW TABLE {} t;`).(*CreateTableStmt)
	assert.Empty(t, s.Table.Columns)
}

func TestParse_Insert(t *testing.T) {
	stmt := parseOne(t, `ADD ITEM { name="Ann", age="30" } TO TABLE users;`)

	s, ok := stmt.(*InsertStmt)
	require.True(t, ok, "want *InsertStmt, got %T", stmt)
	assert.Equal(t, "users", s.TableName)
	assert.Equal(t, []Assignment{{Column: "name", Value: "Ann"}, {Column: "age", Value: "30"}}, s.Values)
	assert.Equal(t, map[string]string{"name": "Ann", "age": "30"}, s.ValueMap())
}

func TestParse_Insert_DoesNotValidateValues(t *testing.T) {
	// value checks live in the engine, so any string parses here
	src := `NEW TABLE { BOOL active } t; ADD ITEM { active="2" } TO TABLE t;`
	stmts, err := ParseSource(src)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
}

func TestParse_Insert_Invalid(t *testing.T) {
	cases := map[string]string{
		`ADD { a="1" } TO TABLE t;`:            "expected 'ITEM' after 'ADD'",
		`ADD ITEM { a="1" } TABLE t;`:          "expected 'TO' after values",
		`ADD ITEM { a="1" } TO t;`:             "expected 'TABLE' after 'TO'",
		`ADD ITEM { a=1 } TO TABLE t;`:         "unexpected character '1'",
		`ADD ITEM { a="1" b="2" } TO TABLE t;`: "expected ',' between values",
		`ADD ITEM { a "1" } TO TABLE t;`:       "expected '=' after field name",
		`ADD ITEM { a=b } TO TABLE t;`:         "expected string value",
	}
	for src, want := range cases {
		_, err := ParseSource(src)
		require.Error(t, err, src)
		assert.Contains(t, err.Error(), want, src)
	}
}

func TestParse_DeleteItem(t *testing.T) {
	s := parseOne(t, `DELETE ITEM { name="Ann", age="30" } FROM TABLE users;`).(*DeleteStmt)
	assert.Equal(t, "users", s.TableName)
	assert.Equal(t, []Assignment{{Column: "name", Value: "Ann"}, {Column: "age", Value: "30"}}, s.Conditions)

	_, err := ParseSource(`DELETE { a="1" } FROM TABLE t;`)
	require.ErrorIs(t, err, dberr.ErrSyntax)
	assert.Contains(t, err.Error(), "expected 'ITEM' or 'TABLE' after 'DELETE'")
}

func TestParse_DeleteAndRemoveTable(t *testing.T) {
	stmts, err := ParseSource("DELETE TABLE a;\nREMOVE TABLE b;")
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	d, ok := stmts[0].(*DeleteTableStmt)
	require.True(t, ok, "want *DeleteTableStmt, got %T", stmts[0])
	assert.Equal(t, "a", d.TableName)
	assert.Equal(t, 1, d.Pos())

	r, ok := stmts[1].(*RemoveTableStmt)
	require.True(t, ok, "want *RemoveTableStmt, got %T", stmts[1])
	assert.Equal(t, "b", r.TableName)
	assert.Equal(t, 2, r.Pos())
}

func TestParse_PrintTable(t *testing.T) {
	s := parseOne(t, `PRINT TABLE users;`).(*PrintTableStmt)
	assert.Equal(t, "users", s.TableName)
}

func TestParse_PrintItem(t *testing.T) {
	s := parseOne(t, `PRINT ITEM name WHERE name="Ann" FROM TABLE users;`).(*PrintItemStmt)
	assert.Equal(t, "users", s.TableName)
	assert.Equal(t, "name", s.Column)
	assert.Equal(t, []Assignment{{Column: "name", Value: "Ann"}}, s.Conditions)

	// exactly one condition
	_, err := ParseSource(`PRINT ITEM name WHERE a="1", b="2" FROM TABLE users;`)
	require.ErrorIs(t, err, dberr.ErrSyntax)
	assert.Contains(t, err.Error(), "expected 'FROM' after condition")

	_, err = ParseSource(`PRINT ITEM name FROM TABLE users;`)
	require.ErrorIs(t, err, dberr.ErrSyntax)
	assert.Contains(t, err.Error(), "expected 'WHERE' after column name")
}

func TestParse_ChangeValue(t *testing.T) {
	s := parseOne(t, `CHANGE VALUE OF name="Ann" TO "Bob" FROM TABLE users;`).(*ChangeValueStmt)
	assert.Equal(t, "users", s.TableName)
	assert.Equal(t, "name", s.Column)
	assert.Equal(t, "Ann", s.OldValue)
	assert.Equal(t, "Bob", s.NewValue)
	assert.Nil(t, s.Where)

	s = parseOne(t, `CHANGE VALUE OF name="Ann" TO "Bob" FROM TABLE users WHERE age="30";`).(*ChangeValueStmt)
	require.NotNil(t, s.Where)
	assert.Equal(t, Assignment{Column: "age", Value: "30"}, *s.Where)
}

func TestParse_ChangeValue_Invalid(t *testing.T) {
	cases := map[string]string{
		`CHANGE name="a" TO "b" FROM TABLE t;`:                  "expected 'VALUE' after 'CHANGE'",
		`CHANGE VALUE name="a" TO "b" FROM TABLE t;`:            "expected 'OF' after 'VALUE'",
		`CHANGE VALUE OF name="a" "b" FROM TABLE t;`:            "expected 'TO' after old value",
		`CHANGE VALUE OF name="a" TO b FROM TABLE t;`:           "expected new value",
		`CHANGE VALUE OF name="a" TO "b" TABLE t;`:              "expected 'FROM' after new value",
		`CHANGE VALUE OF name="a" TO "b" FROM TABLE t WHERE x;`: "expected '=' after field name",
		`CHANGE VALUE OF name="a" TO "b" FROM TABLE t`:          "expected ';' after table name",
	}
	for src, want := range cases {
		_, err := ParseSource(src)
		require.ErrorIs(t, err, dberr.ErrSyntax, src)
		assert.Contains(t, err.Error(), want, src)
	}
}

func TestParse_UnexpectedCommand(t *testing.T) {
	_, err := ParseSource("PRINT TABLE t;\nSELECT TABLE t;")
	require.ErrorIs(t, err, dberr.ErrSyntax)
	assert.Equal(t, "unexpected command 'SELECT' at line 2", err.Error())

	var e *dberr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, 2, e.Line)
}

func TestParse_NoPartialResults(t *testing.T) {
	stmts, err := ParseSource(`NEW TABLE { STR a } t; ADD ITEM { a="x" } TO TABLE t; PRINT TABLE`)
	require.Error(t, err)
	assert.Nil(t, stmts)
}

func TestParse_MultipleStatementsKeepOrder(t *testing.T) {
	src := `
NEW TABLE IF EXISTS IS FALSE {
    UNIC MAIN UUID id,
    STR name
} users;
ADD ITEM { name="Ann" } TO TABLE users;
PRINT ITEM name WHERE name="Ann" FROM TABLE users;
`
	stmts, err := ParseSource(src)
	require.NoError(t, err)
	require.Len(t, stmts, 3)

	assert.IsType(t, &CreateTableStmt{}, stmts[0])
	assert.IsType(t, &InsertStmt{}, stmts[1])
	assert.IsType(t, &PrintItemStmt{}, stmts[2])
	assert.Equal(t, 2, stmts[0].Pos())
	assert.Equal(t, 6, stmts[1].Pos())
}

func TestParse_Empty(t *testing.T) {
	stmts, err := ParseSource("   ")
	require.NoError(t, err)
	assert.Empty(t, stmts)

	stmts, err = Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, stmts)
}
