package sheet

// Backend is the pluggable storage contract of spec §6.3. The formula
// controller holds the active Backend and accesses cells exclusively
// through it; a backend may fault cells in from persistent storage on
// GetCellAt and evict them again after ReturnCell.
//
// Borrow discipline: every GetCellAt must be paired with a ReturnCell;
// the pointer may be invalidated afterward unless the cell was made
// evergreen. CommitCell and Dispose both un-pin an evergreen cell,
// persisting or discarding its edits respectively.
type Backend interface {
	// MaxColumn is one past the highest populated column.
	MaxColumn() int
	// MaxRow is one past the highest populated row overall.
	MaxRow() int
	// MaxRowForColumn is one past the highest populated row in col.
	MaxRowForColumn(col int) int

	// GetCellAt returns a borrowed cell, or nil if absent. The sheet
	// name selects a foreign sheet; backends that manage a single sheet
	// return nil for any non-empty name.
	GetCellAt(col, row int, sheet string) *Cell
	// InitCellAt idempotently creates an empty cell at (col, row).
	InitCellAt(col, row int)

	ClearCellAt(col, row int)
	ClearColumn(col int)
	ClearRow(row int)

	// ReturnCell releases a borrow taken with GetCellAt.
	ReturnCell(cell *Cell)
	IsCellPresent(col, row int) bool

	// MakeEvergreen pins cell in the backend's cache so it survives
	// ReturnCell (GLOSSARY: "Evergreen").
	MakeEvergreen(cell *Cell)
	// CommitCell persists the cell's edits and un-pins it.
	CommitCell(cell *Cell)
	// Dispose discards the cell's edits and un-pins it.
	Dispose(cell *Cell)

	// StashResult persists the cell's last computed value alongside the
	// generation that produced it (GLOSSARY: "Stash").
	StashResult(cell *Cell, generation int)
}
