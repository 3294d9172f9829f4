// Package dberr defines the error kinds reported by the ditabase core.
//
// Every failure surfaces as a *Error carrying a Kind and a single descriptive
// message. Callers match kinds with errors.Is against the exported sentinels:
//
//	if errors.Is(err, dberr.ErrConstraint) { ... }
package dberr

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	KindLexical Kind = iota + 1
	KindSyntax
	KindValidation
	KindConstraint
	KindSchema
	KindFormat
)

func (k Kind) String() string {
	switch k {
	case KindLexical:
		return "lexical error"
	case KindSyntax:
		return "syntax error"
	case KindValidation:
		return "validation error"
	case KindConstraint:
		return "constraint violation"
	case KindSchema:
		return "schema error"
	case KindFormat:
		return "format error"
	default:
		return "error"
	}
}

// Error is a kind-tagged error. Line and Column are zero when unknown.
type Error struct {
	Kind   Kind
	Line   int
	Column int
	Msg    string
}

func (e *Error) Error() string {
	return e.Msg
}

// Is reports a match when target is a *Error of the same kind with an empty
// message, which is how the sentinels below are shaped.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Msg == "" && t.Kind == e.Kind
}

var (
	ErrLexical    = &Error{Kind: KindLexical}
	ErrSyntax     = &Error{Kind: KindSyntax}
	ErrValidation = &Error{Kind: KindValidation}
	ErrConstraint = &Error{Kind: KindConstraint}
	ErrSchema     = &Error{Kind: KindSchema}
	ErrFormat     = &Error{Kind: KindFormat}
)

func Lexical(line, col int, format string, args ...any) error {
	return &Error{Kind: KindLexical, Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

func Syntax(line int, format string, args ...any) error {
	return &Error{Kind: KindSyntax, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Constraint(format string, args ...any) error {
	return &Error{Kind: KindConstraint, Msg: fmt.Sprintf(format, args...)}
}

func Schema(format string, args ...any) error {
	return &Error{Kind: KindSchema, Msg: fmt.Sprintf(format, args...)}
}

func Format(format string, args ...any) error {
	return &Error{Kind: KindFormat, Msg: fmt.Sprintf(format, args...)}
}

// AtLine returns err with Line set to line when err is itself a *Error with
// no line yet. The message is unchanged; wrapped errors pass through.
func AtLine(err error, line int) error {
	e, ok := err.(*Error)
	if !ok || e.Line != 0 {
		return err
	}
	c := *e
	c.Line = line
	return &c
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
