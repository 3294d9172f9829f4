package parser

import (
	"github.com/tuannm99/ditabase/internal/dberr"
	"github.com/tuannm99/ditabase/internal/record"
)

// typeKinds are the keywords allowed as a column type.
var typeKinds = map[TokenKind]record.ColumnType{
	UUID:     record.ColUUID,
	STR:      record.ColStr,
	PASSWORD: record.ColPassword,
	INT16:    record.ColInt16,
	INT32:    record.ColInt32,
	INT64:    record.ColInt64,
	CHAR:     record.ColChar,
	BOOL:     record.ColBool,
}

type parser struct {
	toks []Token
	cur  int
}

// ParseSource tokenizes and parses src.
func ParseSource(src string) ([]Statement, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return Parse(toks)
}

// Parse turns a token stream into statements. Policy: every statement ends
// with ';'. The first syntax error aborts; no partial list is returned.
// Parse does not look at values: type checks belong to the engine.
func Parse(toks []Token) ([]Statement, error) {
	if len(toks) == 0 || toks[len(toks)-1].Kind != EOF {
		toks = append(toks, Token{Kind: EOF})
	}
	p := &parser{toks: toks}

	var out []Statement
	for !p.atEnd() {
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
	return out, nil
}

func (p *parser) statement() (Statement, error) {
	tok := p.peek()
	switch tok.Kind {
	case NEW:
		p.advance()
		return p.createTable(tok.Line)
	case ADD:
		p.advance()
		return p.insert(tok.Line)
	case DELETE:
		p.advance()
		if p.check(TABLE) {
			name, err := p.tableTail("DELETE")
			if err != nil {
				return nil, err
			}
			return &DeleteTableStmt{Line: tok.Line, TableName: name}, nil
		}
		return p.deleteItem(tok.Line)
	case REMOVE:
		p.advance()
		name, err := p.tableTail("REMOVE")
		if err != nil {
			return nil, err
		}
		return &RemoveTableStmt{Line: tok.Line, TableName: name}, nil
	case PRINT:
		p.advance()
		if p.check(ITEM) {
			return p.printItem(tok.Line)
		}
		name, err := p.tableTail("PRINT")
		if err != nil {
			return nil, err
		}
		return &PrintTableStmt{Line: tok.Line, TableName: name}, nil
	case CHANGE:
		p.advance()
		return p.changeValue(tok.Line)
	default:
		return nil, dberr.Syntax(tok.Line, "unexpected command %s at line %d", tok, tok.Line)
	}
}

// NEW TABLE [IF EXISTS IS {TRUE|FALSE}] { [UNIC] [MAIN] <TYPE> <name>, ... } <name> ;
func (p *parser) createTable(line int) (Statement, error) {
	if _, err := p.expect(TABLE, "'TABLE' after 'NEW'"); err != nil {
		return nil, err
	}

	stmt := &CreateTableStmt{Line: line}
	if p.match(IF) {
		if _, err := p.expect(EXISTS, "'EXISTS' after 'IF'"); err != nil {
			return nil, err
		}
		if _, err := p.expect(IS, "'IS' after 'EXISTS'"); err != nil {
			return nil, err
		}
		switch {
		case p.match(FALSE):
			stmt.IfNotExists = true
		case p.match(TRUE):
			stmt.IfNotExists = false
		default:
			return nil, p.errExpected("'TRUE' or 'FALSE' after 'IS'")
		}
	}

	if _, err := p.expect(LBRACE, "'{' after table declaration"); err != nil {
		return nil, err
	}
	for !p.check(RBRACE) {
		col, err := p.columnDecl()
		if err != nil {
			return nil, err
		}
		stmt.Table.Columns = append(stmt.Table.Columns, col)
		if !p.check(RBRACE) {
			if _, err := p.expect(COMMA, "',' between columns"); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(RBRACE, "'}' after column definitions"); err != nil {
		return nil, err
	}

	name, err := p.expect(IDENT, "table name")
	if err != nil {
		return nil, err
	}
	stmt.Table.Name = name.Literal

	if _, err := p.expect(SEMICOLON, "';' after table name"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *parser) columnDecl() (record.Column, error) {
	var col record.Column
	if p.match(UNIC) {
		col.Constraints = append(col.Constraints, record.Unique)
	}
	if p.match(MAIN) {
		col.Constraints = append(col.Constraints, record.Primary)
	}

	tok := p.peek()
	ct, ok := typeKinds[tok.Kind]
	if !ok {
		if tok.Kind == EOF {
			return col, p.errExpected("column type")
		}
		return col, dberr.Syntax(tok.Line, "invalid column type %s at line %d", tok, tok.Line)
	}
	p.advance()
	col.Type = ct

	name, err := p.expect(IDENT, "column name")
	if err != nil {
		return col, err
	}
	col.Name = name.Literal
	return col, nil
}

// ADD ITEM { <col>="v", ... } TO TABLE <name> ;
func (p *parser) insert(line int) (Statement, error) {
	if _, err := p.expect(ITEM, "'ITEM' after 'ADD'"); err != nil {
		return nil, err
	}
	values, err := p.assignmentBlock("values")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TO, "'TO' after values"); err != nil {
		return nil, err
	}
	name, err := p.tableTail("TO")
	if err != nil {
		return nil, err
	}
	return &InsertStmt{Line: line, TableName: name, Values: values}, nil
}

// DELETE ITEM { <col>="v", ... } FROM TABLE <name> ;
func (p *parser) deleteItem(line int) (Statement, error) {
	if _, err := p.expect(ITEM, "'ITEM' or 'TABLE' after 'DELETE'"); err != nil {
		return nil, err
	}
	conds, err := p.assignmentBlock("conditions")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(FROM, "'FROM' after conditions"); err != nil {
		return nil, err
	}
	name, err := p.tableTail("FROM")
	if err != nil {
		return nil, err
	}
	return &DeleteStmt{Line: line, TableName: name, Conditions: conds}, nil
}

// PRINT ITEM <col> WHERE <col>="v" FROM TABLE <name> ;
func (p *parser) printItem(line int) (Statement, error) {
	p.advance() // ITEM

	col, err := p.expect(IDENT, "column name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(WHERE, "'WHERE' after column name"); err != nil {
		return nil, err
	}
	cond, err := p.assignment()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(FROM, "'FROM' after condition"); err != nil {
		return nil, err
	}
	name, err := p.tableTail("FROM")
	if err != nil {
		return nil, err
	}
	return &PrintItemStmt{
		Line:       line,
		TableName:  name,
		Column:     col.Literal,
		Conditions: []Assignment{cond},
	}, nil
}

// CHANGE VALUE OF <col>="old" TO "new" FROM TABLE <name> [WHERE <col>="v"] ;
func (p *parser) changeValue(line int) (Statement, error) {
	if _, err := p.expect(VALUE, "'VALUE' after 'CHANGE'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(OF, "'OF' after 'VALUE'"); err != nil {
		return nil, err
	}
	target, err := p.assignment()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TO, "'TO' after old value"); err != nil {
		return nil, err
	}
	newVal, err := p.expect(STRING, "new value")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(FROM, "'FROM' after new value"); err != nil {
		return nil, err
	}
	if _, err := p.expect(TABLE, "'TABLE' after 'FROM'"); err != nil {
		return nil, err
	}
	name, err := p.expect(IDENT, "table name")
	if err != nil {
		return nil, err
	}

	stmt := &ChangeValueStmt{
		Line:      line,
		TableName: name.Literal,
		Column:    target.Column,
		OldValue:  target.Value,
		NewValue:  newVal.Literal,
	}
	if p.match(WHERE) {
		cond, err := p.assignment()
		if err != nil {
			return nil, err
		}
		stmt.Where = &cond
	}

	if _, err := p.expect(SEMICOLON, "';' after table name"); err != nil {
		return nil, err
	}
	return stmt, nil
}

// tableTail parses "TABLE <name> ;" and returns the name.
func (p *parser) tableTail(after string) (string, error) {
	if _, err := p.expect(TABLE, "'TABLE' after '"+after+"'"); err != nil {
		return "", err
	}
	name, err := p.expect(IDENT, "table name")
	if err != nil {
		return "", err
	}
	if _, err := p.expect(SEMICOLON, "';' after table name"); err != nil {
		return "", err
	}
	return name.Literal, nil
}

// assignmentBlock parses "{ <col>="v" (, <col>="v")* }". An empty block is allowed.
func (p *parser) assignmentBlock(what string) ([]Assignment, error) {
	if _, err := p.expect(LBRACE, "'{' before "+what); err != nil {
		return nil, err
	}
	var out []Assignment
	for !p.check(RBRACE) {
		a, err := p.assignment()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
		if !p.check(RBRACE) {
			if _, err := p.expect(COMMA, "',' between "+what); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(RBRACE, "'}' after "+what); err != nil {
		return nil, err
	}
	return out, nil
}

// assignment parses <col>="v".
func (p *parser) assignment() (Assignment, error) {
	col, err := p.expect(IDENT, "field name")
	if err != nil {
		return Assignment{}, err
	}
	if _, err := p.expect(EQUALS, "'=' after field name"); err != nil {
		return Assignment{}, err
	}
	val, err := p.expect(STRING, "string value")
	if err != nil {
		return Assignment{}, err
	}
	return Assignment{Column: col.Literal, Value: val.Literal}, nil
}

// ---- token helpers ----

func (p *parser) peek() Token { return p.toks[p.cur] }

func (p *parser) atEnd() bool { return p.peek().Kind == EOF }

func (p *parser) advance() Token {
	tok := p.toks[p.cur]
	if !p.atEnd() {
		p.cur++
	}
	return tok
}

func (p *parser) check(k TokenKind) bool {
	return !p.atEnd() && p.peek().Kind == k
}

func (p *parser) match(k TokenKind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(k TokenKind, what string) (Token, error) {
	if p.check(k) {
		return p.advance(), nil
	}
	return Token{}, p.errExpected(what)
}

func (p *parser) errExpected(what string) error {
	tok := p.peek()
	return dberr.Syntax(tok.Line, "expected %s, got %s at line %d", what, tok, tok.Line)
}
