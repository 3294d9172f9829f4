package parser

import "github.com/tuannm99/ditabase/internal/record"

// Statement is the root interface for all DSL statements. The set of
// implementations is closed: only this package can add one.
type Statement interface {
	stmtNode()
	// Pos is the source line the statement starts on.
	Pos() int
}

// Assignment is a "<col>=<string>" pair, used both for inserted values and
// for equality conditions.
type Assignment struct {
	Column string
	Value  string
}

// Conds converts assignments into record conditions.
func Conds(as []Assignment) []record.Cond {
	out := make([]record.Cond, len(as))
	for i, a := range as {
		out[i] = record.Cond{Column: a.Column, Value: a.Value}
	}
	return out
}

// ----- NEW TABLE -----
type TableDef struct {
	Name    string
	Columns []record.Column
}

type CreateTableStmt struct {
	Line        int
	Table       TableDef
	IfNotExists bool // IF EXISTS IS FALSE
}

func (*CreateTableStmt) stmtNode()  {}
func (s *CreateTableStmt) Pos() int { return s.Line }

// ----- ADD ITEM -----
type InsertStmt struct {
	Line      int
	TableName string
	Values    []Assignment // source order; a repeated column keeps the last value
}

func (*InsertStmt) stmtNode()  {}
func (s *InsertStmt) Pos() int { return s.Line }

// ValueMap returns the inserted values keyed by column.
func (s *InsertStmt) ValueMap() map[string]string {
	m := make(map[string]string, len(s.Values))
	for _, a := range s.Values {
		m[a.Column] = a.Value
	}
	return m
}

// ----- DELETE ITEM -----
type DeleteStmt struct {
	Line       int
	TableName  string
	Conditions []Assignment
}

func (*DeleteStmt) stmtNode()  {}
func (s *DeleteStmt) Pos() int { return s.Line }

// ----- DELETE TABLE / REMOVE TABLE -----
type DeleteTableStmt struct {
	Line      int
	TableName string
}

func (*DeleteTableStmt) stmtNode()  {}
func (s *DeleteTableStmt) Pos() int { return s.Line }

type RemoveTableStmt struct {
	Line      int
	TableName string
}

func (*RemoveTableStmt) stmtNode()  {}
func (s *RemoveTableStmt) Pos() int { return s.Line }

// ----- PRINT TABLE / PRINT ITEM -----
type PrintTableStmt struct {
	Line      int
	TableName string
}

func (*PrintTableStmt) stmtNode()  {}
func (s *PrintTableStmt) Pos() int { return s.Line }

type PrintItemStmt struct {
	Line       int
	TableName  string
	Column     string
	Conditions []Assignment
}

func (*PrintItemStmt) stmtNode()  {}
func (s *PrintItemStmt) Pos() int { return s.Line }

// ----- CHANGE VALUE -----
type ChangeValueStmt struct {
	Line      int
	TableName string
	Column    string
	OldValue  string
	NewValue  string
	Where     *Assignment // nil => every row
}

func (*ChangeValueStmt) stmtNode()  {}
func (s *ChangeValueStmt) Pos() int { return s.Line }
