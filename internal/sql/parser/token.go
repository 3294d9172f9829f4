package parser

import "fmt"

// TokenKind is the lexical class of a token.
type TokenKind int

const (
	EOF TokenKind = iota
	IDENT
	STRING

	// symbols
	LBRACE    // {
	RBRACE    // }
	COMMA     // ,
	SEMICOLON // ;
	EQUALS    // =

	keywordBeg
	NEW
	TABLE
	IF
	EXISTS
	IS
	FALSE
	TRUE
	UNIC
	MAIN
	UUID
	STR
	PASSWORD
	ADD
	ITEM
	TO
	PRINT
	DELETE
	FROM
	WHERE
	REMOVE
	CHANGE
	VALUE
	OF
	INT16
	INT32
	INT64
	CHAR
	BOOL
	keywordEnd
)

var kindNames = map[TokenKind]string{
	EOF:       "EOF",
	IDENT:     "IDENTIFIER",
	STRING:    "STRING",
	LBRACE:    "{",
	RBRACE:    "}",
	COMMA:     ",",
	SEMICOLON: ";",
	EQUALS:    "=",
	NEW:       "NEW",
	TABLE:     "TABLE",
	IF:        "IF",
	EXISTS:    "EXISTS",
	IS:        "IS",
	FALSE:     "FALSE",
	TRUE:      "TRUE",
	UNIC:      "UNIC",
	MAIN:      "MAIN",
	UUID:      "UUID",
	STR:       "STR",
	PASSWORD:  "PASSWORD",
	ADD:       "ADD",
	ITEM:      "ITEM",
	TO:        "TO",
	PRINT:     "PRINT",
	DELETE:    "DELETE",
	FROM:      "FROM",
	WHERE:     "WHERE",
	REMOVE:    "REMOVE",
	CHANGE:    "CHANGE",
	VALUE:     "VALUE",
	OF:        "OF",
	INT16:     "INT16",
	INT32:     "INT32",
	INT64:     "INT64",
	CHAR:      "CHAR",
	BOOL:      "BOOL",
}

func (k TokenKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

func (k TokenKind) IsKeyword() bool { return k > keywordBeg && k < keywordEnd }

// keywords is built from kindNames so the two cannot drift apart.
var keywords = func() map[string]TokenKind {
	m := make(map[string]TokenKind, keywordEnd-keywordBeg)
	for k := keywordBeg + 1; k < keywordEnd; k++ {
		m[kindNames[k]] = k
	}
	return m
}()

var symbols = map[rune]TokenKind{
	'{': LBRACE,
	'}': RBRACE,
	',': COMMA,
	';': SEMICOLON,
	'=': EQUALS,
}

// Token is a lexical token. Line and Column are 1-based.
type Token struct {
	Kind    TokenKind
	Literal string
	Line    int
	Column  int
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "end of input"
	case STRING:
		return fmt.Sprintf("%q", t.Literal)
	default:
		return fmt.Sprintf("'%s'", t.Literal)
	}
}
