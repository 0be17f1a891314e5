// Package value implements the tagged union of runtime values shared by
// both dialects (spec §3): Float, String, Array, Dictionary, Function,
// Nil, CellRef, CellRange. It is grounded on the teacher's Value
// interface — interpreter/value.go's one-struct-per-variant,
// Type()+Inspect() shape — generalized with the arithmetic/ordering/
// hashing contract spec §4.2 adds and the teacher never needed.
package value

import (
	"fmt"
	"sort"
	"strings"

	"forwardbackward/numeric"
)

type Type string

const (
	FloatType      Type = "Float"
	StringType     Type = "String"
	ArrayType      Type = "Array"
	DictionaryType Type = "Dictionary"
	FunctionType   Type = "Function"
	NilType        Type = "Nil"
	CellRefType    Type = "CellRef"
	CellRangeType  Type = "CellRange"
)

// typeRank gives the total order across types spec §3 fixes: Float <
// String < Array < Dictionary < Function < Nil < CellRef < CellRange.
var typeRank = map[Type]int{
	FloatType:      0,
	StringType:     1,
	ArrayType:      2,
	DictionaryType: 3,
	FunctionType:   4,
	NilType:        5,
	CellRefType:    6,
	CellRangeType:  7,
}

// Value is implemented by every runtime value variant.
type Value interface {
	Type() Type
	// Inspect renders the value the way the debugger's "print" and the
	// stdlib's array/dictionary builders do (spec §8 scenario 6's
	// literal `{ "Hello":5; "World":6 }` / `{ "Hello"; "World" }`
	// transcripts).
	Inspect() string
}

type Float struct{ N numeric.Number }

func (f *Float) Type() Type      { return FloatType }
func (f *Float) Inspect() string { return f.N.String() }

type String struct{ S string }

func (s *String) Type() Type      { return StringType }
func (s *String) Inspect() string { return fmt.Sprintf("%q", s.S) }

// Array is an ordered, value-level-immutable sequence (spec §3). Elements
// are never mutated in place; every operation builds a new Array.
type Array struct{ Elements []Value }

func (a *Array) Type() Type { return ArrayType }
func (a *Array) Inspect() string {
	var b strings.Builder
	b.WriteString("{ ")
	for i, e := range a.Elements {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e.Inspect())
	}
	b.WriteString(" }")
	return b.String()
}

// dictEntry is one key/value pair of a Dictionary, kept in an ordered
// slice (sorted by the total order below) rather than a Go map, since
// Value is not a valid Go map key.
type dictEntry struct {
	Key Value
	Val Value
}

// Dictionary is a map from value to value, ordered by the total sort
// (spec §3). Immutable like Array: Insert/Erase return a new Dictionary.
type Dictionary struct{ entries []dictEntry }

func NewDictionary() *Dictionary { return &Dictionary{} }

func (d *Dictionary) Type() Type { return DictionaryType }
func (d *Dictionary) Inspect() string {
	var b strings.Builder
	b.WriteString("{ ")
	for i, e := range d.entries {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e.Key.Inspect())
		b.WriteString(":")
		b.WriteString(e.Val.Inspect())
	}
	b.WriteString(" }")
	return b.String()
}

// Len reports the number of entries.
func (d *Dictionary) Len() int { return len(d.entries) }

// Entries returns the entries in sorted-key order.
func (d *Dictionary) Entries() []struct{ Key, Val Value } {
	out := make([]struct{ Key, Val Value }, len(d.entries))
	for i, e := range d.entries {
		out[i] = struct{ Key, Val Value }{e.Key, e.Val}
	}
	return out
}

// Get looks up a key, returning (value, true) if present.
func (d *Dictionary) Get(key Value) (Value, bool) {
	idx, found := d.search(key)
	if !found {
		return nil, false
	}
	return d.entries[idx].Val, true
}

// Insert returns a copy of d with key bound to val (overwriting any
// existing binding for an equal key).
func (d *Dictionary) Insert(key, val Value) *Dictionary {
	idx, found := d.search(key)
	next := make([]dictEntry, len(d.entries))
	copy(next, d.entries)
	if found {
		next[idx] = dictEntry{key, val}
		return &Dictionary{entries: next}
	}
	next = append(next, dictEntry{})
	copy(next[idx+1:], next[idx:])
	next[idx] = dictEntry{key, val}
	return &Dictionary{entries: next}
}

// Erase returns a copy of d with key removed, if present.
func (d *Dictionary) Erase(key Value) *Dictionary {
	idx, found := d.search(key)
	if !found {
		return d
	}
	next := make([]dictEntry, 0, len(d.entries)-1)
	next = append(next, d.entries[:idx]...)
	next = append(next, d.entries[idx+1:]...)
	return &Dictionary{entries: next}
}

func (d *Dictionary) search(key Value) (int, bool) {
	i := sort.Search(len(d.entries), func(i int) bool {
		return Compare(d.entries[i].Key, key) >= 0
	})
	if i < len(d.entries) && Compare(d.entries[i].Key, key) == 0 {
		return i, true
	}
	return i, false
}

// FunctionCode is the static, reusable half of a Function value — the
// code pointer. interp.FunctionContext (and stdlib's native wrappers)
// implement this; value stays independent of interp to avoid an import
// cycle (spec §3: "Function: function-code handle + capture vector").
type FunctionCode interface {
	FunctionName() string
	Arity() int
}

type Function struct {
	Code     FunctionCode
	Captures []Value
}

func (f *Function) Type() Type { return FunctionType }
func (f *Function) Inspect() string {
	if len(f.Captures) == 0 {
		return "Function : " + f.Code.FunctionName()
	}
	var b strings.Builder
	b.WriteString("Function : ")
	b.WriteString(f.Code.FunctionName())
	b.WriteString(" [ ")
	for i, c := range f.Captures {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(c.Inspect())
	}
	b.WriteString(" ]")
	return b.String()
}

type Nil struct{}

func (n *Nil) Type() Type      { return NilType }
func (n *Nil) Inspect() string { return "Nil" }

// NilValue is the single shared Nil instance; Nil carries no data so one
// instance suffices (mirrors the teacher's NullValue/UnitValue sentinel
// pattern in interpreter/value.go).
var NilValue = &Nil{}

// CellRef is a (column, row) pair, each independently tagged
// absolute/relative, with an optional foreign-sheet tag (spec §3).
type CellRef struct {
	ColAbsolute bool
	Col         int
	RowAbsolute bool
	Row         int
	Sheet       string
}

func (c *CellRef) Type() Type { return CellRefType }

// Inspect renders absolute components as their spreadsheet name and
// relative ones as signed offsets; Render (below) produces the proper
// `A0`-style text once a current cell is known.
func (c *CellRef) Inspect() string {
	var b strings.Builder
	if c.ColAbsolute {
		b.WriteString("$")
		b.WriteString(ColumnName(c.Col))
	} else {
		fmt.Fprintf(&b, "C[%+d]", c.Col)
	}
	if c.RowAbsolute {
		fmt.Fprintf(&b, "$%d", c.Row)
	} else {
		fmt.Fprintf(&b, "R[%+d]", c.Row)
	}
	if c.Sheet != "" {
		b.WriteString("!")
		b.WriteString(c.Sheet)
	}
	return b.String()
}

// Resolve combines the reference with the current cell's coordinates:
// absolute components are used as-is, relative ones are offsets added to
// the current cell (spec §4.10 step 1).
func (c *CellRef) Resolve(curCol, curRow int) (col, row int) {
	col, row = c.Col, c.Row
	if !c.ColAbsolute {
		col += curCol
	}
	if !c.RowAbsolute {
		row += curRow
	}
	return col, row
}

// Render produces the `[$]?A..ZZZZ[$]?row` text of the reference as seen
// from (curCol, curRow), round-tripping through the formula parser.
func (c *CellRef) Render(curCol, curRow int) string {
	col, row := c.Resolve(curCol, curRow)
	return fmt.Sprintf("%s%s%s%d", colDollar(c.ColAbsolute), ColumnName(col), rowDollar(c.RowAbsolute), row)
}

func colDollar(abs bool) string {
	if abs {
		return "$"
	}
	return ""
}
func rowDollar(abs bool) string {
	if abs {
		return "$"
	}
	return ""
}

// CellRange is an ephemeral (col1,row1)-(col2,row2) rectangle, optionally
// on a foreign sheet (spec §3; expansion lives in package formula).
type CellRange struct {
	Col1, Row1, Col2, Row2 int
	Sheet                  string
}

func (r *CellRange) Type() Type { return CellRangeType }
func (r *CellRange) Inspect() string {
	return fmt.Sprintf("%s%d:%s%d", ColumnName(r.Col1), r.Row1, ColumnName(r.Col2), r.Row2)
}

// ColumnName renders a 0-based column index as its A..ZZZZ spreadsheet
// name (spec §6.4: columns 0..475253 span A..ZZZZ).
func ColumnName(col int) string {
	col++
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

// ColumnIndex parses an A..ZZZZ column name back to its 0-based index.
func ColumnIndex(name string) int {
	idx := 0
	for _, c := range name {
		idx = idx*26 + int(c-'A'+1)
	}
	return idx - 1
}
