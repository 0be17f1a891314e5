package lexer

import (
	"strings"
	"unicode"

	"forwardbackward/token"
)

// isCellRefStart reports whether the runes at the current position begin
// a cell reference: `[$]?[A-Z]{1,4}[$]?[0-9]+` (spec §6.4). It must look
// ahead past an optional leading '$' and 1-4 uppercase letters to find at
// least one digit, otherwise a bare column-letter identifier like `ABC`
// used as a function name prefix would be misread as a cell reference.
func isCellRefStart(rest []rune) bool {
	i := 0
	if i < len(rest) && rest[i] == '$' {
		i++
	}
	letters := 0
	for i < len(rest) && letters < 4 && rest[i] >= 'A' && rest[i] <= 'Z' {
		i++
		letters++
	}
	if letters == 0 {
		return false
	}
	if i < len(rest) && rest[i] == '$' {
		i++
	}
	return i < len(rest) && unicode.IsDigit(rest[i])
}

// lexCellRef consumes a full `[$]?[A-Z]{1,4}[$]?[0-9]+` reference as one
// CELLREF token; the parser decomposes Text back into its column/row and
// absolute flags.
func (l *Lexer) lexCellRef(line, col int) token.Token {
	var b strings.Builder
	if l.peek() == '$' {
		b.WriteRune(l.advance())
	}
	for l.peek() >= 'A' && l.peek() <= 'Z' {
		b.WriteRune(l.advance())
	}
	if l.peek() == '$' {
		b.WriteRune(l.advance())
	}
	for unicode.IsDigit(l.peek()) {
		b.WriteRune(l.advance())
	}
	return l.tok(token.CELLREF, b.String(), line, col)
}
