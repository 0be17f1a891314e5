// Package sheet holds the spreadsheet data contract shared by the
// formula evaluator and the storage backends (spec §3 "Cell", §6.3): the
// cell record itself and the pluggable backend interface a controller
// delegates to. Grounded on original_source/Forwards/Engine/Cell.h and
// SpreadSheet.h, reshaped into a Go interface the way the teacher's
// spreadsheet package separates its Sheet storage from its engine.
package sheet

import (
	"forwardbackward/ast"
	"forwardbackward/value"
)

// CellType discriminates how a cell's raw input is interpreted.
type CellType int

const (
	// Error marks a cell whose input could not be classified; it never
	// evaluates.
	Error CellType = iota
	// Value cells parse their input as a formula.
	Value
	// Label cells treat their input as a string constant.
	Label
)

func (t CellType) String() string {
	switch t {
	case Value:
		return "VALUE"
	case Label:
		return "LABEL"
	default:
		return "ERROR"
	}
}

// Cell is one spreadsheet cell (spec §3). PreviousValue/PreviousGeneration
// memoize the last computed result; InEvaluation and Recursed implement
// the cycle-breaker of spec §4.10; Evergreen marks a cell pinned in the
// backend's cache.
type Cell struct {
	Col  int
	Row  int
	Type CellType

	// CurrentInput is the raw user text; cleared once the parse is
	// committed outside user-input mode (spec §4.11 step 5).
	CurrentInput string

	// Value is the parsed expression, nil until the first successful
	// parse (or synthesis, for labels).
	Value ast.Expr

	PreviousValue      value.Value
	PreviousGeneration int

	InEvaluation bool
	Recursed     bool
	Evergreen    bool
}

// NewCell returns an empty cell at (col, row) in the Error state.
func NewCell(col, row int) *Cell {
	return &Cell{Col: col, Row: row, Type: Error}
}
