// Package parser turns DSL source into tokens and tokens into statements.
package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tuannm99/ditabase/internal/dberr"
)

type lexer struct {
	src  string
	pos  int // byte offset of the next rune
	line int
	col  int
}

// Tokenize scans src in a single pass and returns its tokens followed by an
// EOF token. The first lexical error aborts the scan.
func Tokenize(src string) ([]Token, error) {
	l := &lexer{src: src, line: 1, col: 1}
	var out []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.Kind == EOF {
			return out, nil
		}
	}
}

func (l *lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return r
}

func (l *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) atEnd() bool { return l.pos >= len(l.src) }

func (l *lexer) next() (Token, error) {
	for !l.atEnd() && unicode.IsSpace(l.peek()) {
		l.advance()
	}
	if l.atEnd() {
		return Token{Kind: EOF, Line: l.line, Column: l.col}, nil
	}

	line, col := l.line, l.col
	r := l.peek()

	switch {
	case unicode.IsLetter(r):
		return l.scanWord(line, col), nil
	case r == '"':
		return l.scanString(line, col)
	}

	if kind, ok := symbols[r]; ok {
		l.advance()
		return Token{Kind: kind, Literal: string(r), Line: line, Column: col}, nil
	}
	return Token{}, dberr.Lexical(line, col, "unexpected character '%c' at line %d, column %d", r, line, col)
}

func (l *lexer) scanWord(line, col int) Token {
	start := l.pos
	l.advance()
	for r := l.peek(); unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'; r = l.peek() {
		l.advance()
	}
	word := l.src[start:l.pos]

	// Keywords are case-sensitive: "table" or "Table" stay identifiers.
	if kind, ok := keywords[word]; ok && word == strings.ToUpper(word) {
		return Token{Kind: kind, Literal: word, Line: line, Column: col}
	}
	return Token{Kind: IDENT, Literal: word, Line: line, Column: col}
}

// scanString reads a double-quoted literal. \" and \\ are unescaped; any
// other backslash is kept as is. Newlines inside the literal are allowed.
func (l *lexer) scanString(line, col int) (Token, error) {
	l.advance() // opening quote

	var b strings.Builder
	for {
		if l.atEnd() {
			return Token{}, dberr.Lexical(line, col, "unterminated string starting at line %d, column %d", line, col)
		}
		r := l.advance()
		switch r {
		case '"':
			return Token{Kind: STRING, Literal: b.String(), Line: line, Column: col}, nil
		case '\\':
			if n := l.peek(); n == '"' || n == '\\' {
				b.WriteRune(l.advance())
				continue
			}
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
}
