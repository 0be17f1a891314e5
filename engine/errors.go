// Package engine holds the four error kinds spec §7 defines, shared by
// every dialect (interp, formula, stdlib) so callers can discriminate them
// with errors.As instead of string-matching messages.
package engine

import (
	"fmt"

	"forwardbackward/token"
)

// ParseError is a lex/parse failure. Evaluation never begins when one is
// produced (spec §7.1).
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// TypedOperationException is a runtime type/value error: bad operand
// types, missing dictionary key, out-of-bounds index, bad builtin
// argument (spec §7.2). It carries the token nearest the failure so the
// debugger and the formula diagnostic slot can report a location.
type TypedOperationException struct {
	Message string
	Tok     *token.Token
}

func (e *TypedOperationException) Error() string { return e.Message }

// NewTypedError builds a TypedOperationException, tolerating a nil token
// (some callers synthesize values with no source position).
func NewTypedError(tok *token.Token, format string, args ...any) *TypedOperationException {
	return &TypedOperationException{Message: fmt.Sprintf(format, args...), Tok: tok}
}

// FatalException is a programmer-level error that should never happen at
// runtime short of a buggy script: arity mismatch, call of a non-function,
// a function body that doesn't return, BREAK/CONTINUE escaping a function
// (spec §7.3). Recovered only at the outermost driver loop.
type FatalException struct {
	Message string
	Tok     *token.Token
}

func (e *FatalException) Error() string { return e.Message }

func NewFatal(tok *token.Token, format string, args ...any) *FatalException {
	return &FatalException{Message: fmt.Sprintf(format, args...), Tok: tok}
}

// ProgrammingException is an invariant violation internal to the engine
// itself (spec §7.4) — e.g. a CellRef holder of the wrong kind. These
// should never surface to a user; Raise panics with one so a careless
// caller cannot silently swallow it the way a returned error can be.
type ProgrammingException struct {
	Message string
}

func (e *ProgrammingException) Error() string { return "programming error: " + e.Message }

// Raise panics with a ProgrammingException. Call sites that hit a
// "this cannot happen" switch default use this instead of a returned
// error, matching the design note in spec §9 ("generate the impossible
// matrix entries as unreachable with a ProgrammingException").
func Raise(format string, args ...any) {
	panic(&ProgrammingException{Message: fmt.Sprintf(format, args...)})
}

// DescribeError renders an error the way the debugger and the top-level
// driver print it: "Error: <message>" plus, when a token is attached,
// "\n\tFrom file <file> on line <L> at <C>" (spec §4.8 / the debugger
// golden transcript this module reuses from the original C++ engine's
// test suite, Backwards/Tests/DebuggerTest.cpp).
func DescribeError(err error, file string) string {
	msg := err.Error()
	var tok *token.Token
	switch e := err.(type) {
	case *TypedOperationException:
		tok = e.Tok
	case *FatalException:
		tok = e.Tok
	}
	if tok == nil {
		return "Error: " + msg
	}
	return fmt.Sprintf("Error: %s\n\tFrom file %s on line %d at %d", msg, file, tok.Line, tok.Column)
}

// AtLocation renders the message with a trailing " at <column>" the way
// the formula dialect's per-cell diagnostic text does ("Error adding
// Float to String at 3" — a formula is a single line, so the character
// position is the useful coordinate).
func AtLocation(err error) string {
	msg := err.Error()
	var tok *token.Token
	switch e := err.(type) {
	case *TypedOperationException:
		tok = e.Tok
	case *FatalException:
		tok = e.Tok
	}
	if tok == nil {
		return msg
	}
	return fmt.Sprintf("%s at %d", msg, tok.Column)
}
