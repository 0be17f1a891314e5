// Package postgres is a sheet.Backend persisting cells in a Postgres
// table through database/sql with the pgx stdlib driver. It demonstrates
// the pluggable-backend contract of the engine: cells fault in from the
// table on first access, stay cached while borrowed (and after, until
// disposed), and results are stashed back alongside the generation that
// produced them. Grounded on original_source/OddsAndEnds/DBSpreadSheet.*
// (a SQL-backed SpreadSheetHolder with a cell cache and refcounts) and
// the teacher's own pgx usage in its SQL built-ins.
package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"forwardbackward/sheet"
)

type cellKey struct{ col, row int }

type Backend struct {
	db    *sql.DB
	table string

	cache map[cellKey]*sheet.Cell
	refs  map[*sheet.Cell]int
}

// Open connects with a pgx DSN and ensures the cell table exists.
func Open(dsn, table string) (*Backend, error) {
	if table == "" {
		table = "cells"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres backend: %w", err)
	}
	b := &Backend{db: db, table: table, cache: make(map[cellKey]*sheet.Cell), refs: make(map[*sheet.Cell]int)}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

func (b *Backend) Close() error { return b.db.Close() }

func (b *Backend) migrate() error {
	_, err := b.db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		col BIGINT NOT NULL,
		row BIGINT NOT NULL,
		kind SMALLINT NOT NULL DEFAULT 0,
		input TEXT NOT NULL DEFAULT '',
		result TEXT,
		generation BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (col, row)
	)`, b.table))
	if err != nil {
		return fmt.Errorf("migrate %s: %w", b.table, err)
	}
	return nil
}

func (b *Backend) MaxColumn() int {
	max := b.queryBound(fmt.Sprintf("SELECT COALESCE(MAX(col)+1, 0) FROM %s", b.table))
	for k := range b.cache {
		if k.col+1 > max {
			max = k.col + 1
		}
	}
	return max
}

func (b *Backend) MaxRow() int {
	max := b.queryBound(fmt.Sprintf("SELECT COALESCE(MAX(row)+1, 0) FROM %s", b.table))
	for k := range b.cache {
		if k.row+1 > max {
			max = k.row + 1
		}
	}
	return max
}

func (b *Backend) MaxRowForColumn(col int) int {
	max := b.queryBound(fmt.Sprintf("SELECT COALESCE(MAX(row)+1, 0) FROM %s WHERE col = %d", b.table, col))
	for k := range b.cache {
		if k.col == col && k.row+1 > max {
			max = k.row + 1
		}
	}
	return max
}

func (b *Backend) queryBound(query string) int {
	var n int
	if err := b.db.QueryRow(query).Scan(&n); err != nil {
		return 0
	}
	return n
}

// GetCellAt serves from the cache, faulting the row in from the table on
// a miss. The backend manages a single sheet; foreign names resolve to
// nothing.
func (b *Backend) GetCellAt(col, row int, sheetName string) *sheet.Cell {
	if sheetName != "" || col < 0 || row < 0 {
		return nil
	}
	key := cellKey{col, row}
	if cell, ok := b.cache[key]; ok {
		b.refs[cell]++
		return cell
	}
	var kind int
	var input string
	if err := b.db.QueryRow(
		fmt.Sprintf("SELECT kind, input FROM %s WHERE col = $1 AND row = $2", b.table),
		col, row,
	).Scan(&kind, &input); err != nil {
		return nil
	}
	cell := sheet.NewCell(col, row)
	cell.Type = sheet.CellType(kind)
	cell.CurrentInput = input
	b.cache[key] = cell
	b.refs[cell]++
	return cell
}

func (b *Backend) InitCellAt(col, row int) {
	if col < 0 || row < 0 {
		return
	}
	key := cellKey{col, row}
	if _, ok := b.cache[key]; ok {
		return
	}
	if cell := b.GetCellAt(col, row, ""); cell != nil {
		b.ReturnCell(cell)
		return
	}
	b.cache[key] = sheet.NewCell(col, row)
	b.db.Exec(
		fmt.Sprintf("INSERT INTO %s (col, row) VALUES ($1, $2) ON CONFLICT DO NOTHING", b.table),
		col, row,
	)
}

func (b *Backend) ClearCellAt(col, row int) {
	key := cellKey{col, row}
	if cell, ok := b.cache[key]; ok {
		delete(b.cache, key)
		delete(b.refs, cell)
	}
	b.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE col = $1 AND row = $2", b.table), col, row)
}

func (b *Backend) ClearColumn(col int) {
	for k, cell := range b.cache {
		if k.col == col {
			delete(b.cache, k)
			delete(b.refs, cell)
		}
	}
	b.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE col = $1", b.table), col)
}

func (b *Backend) ClearRow(row int) {
	for k, cell := range b.cache {
		if k.row == row {
			delete(b.cache, k)
			delete(b.refs, cell)
		}
	}
	b.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE row = $1", b.table), row)
}

// ReturnCell releases one borrow. Cells stay cached after release —
// their parsed expression is only held in memory — so this only balances
// the refcount; eviction happens through Dispose.
func (b *Backend) ReturnCell(cell *sheet.Cell) {
	if cell == nil {
		return
	}
	if n, ok := b.refs[cell]; ok && n > 0 {
		b.refs[cell] = n - 1
	}
}

func (b *Backend) IsCellPresent(col, row int) bool {
	if _, ok := b.cache[cellKey{col, row}]; ok {
		return true
	}
	var one int
	err := b.db.QueryRow(
		fmt.Sprintf("SELECT 1 FROM %s WHERE col = $1 AND row = $2", b.table),
		col, row,
	).Scan(&one)
	return err == nil
}

func (b *Backend) MakeEvergreen(cell *sheet.Cell) {
	if cell != nil {
		cell.Evergreen = true
	}
}

// CommitCell persists the cell's edits and un-pins it. A cell whose raw
// input was already consumed by evaluation keeps its stored input — the
// committed parse is not representable in the table, and wiping the text
// would lose the formula.
func (b *Backend) CommitCell(cell *sheet.Cell) {
	if cell == nil {
		return
	}
	cell.Evergreen = false
	if cell.CurrentInput == "" && cell.Value != nil {
		b.db.Exec(
			fmt.Sprintf("UPDATE %s SET kind = $3 WHERE col = $1 AND row = $2", b.table),
			cell.Col, cell.Row, int(cell.Type),
		)
		return
	}
	b.db.Exec(
		fmt.Sprintf(`INSERT INTO %s (col, row, kind, input) VALUES ($1, $2, $3, $4)
			ON CONFLICT (col, row) DO UPDATE SET kind = $3, input = $4`, b.table),
		cell.Col, cell.Row, int(cell.Type), cell.CurrentInput,
	)
}

// Dispose discards the cell's in-memory edits and evicts it; the next
// GetCellAt faults the stored state back in.
func (b *Backend) Dispose(cell *sheet.Cell) {
	if cell == nil {
		return
	}
	cell.Evergreen = false
	delete(b.cache, cellKey{cell.Col, cell.Row})
	delete(b.refs, cell)
}

// StashResult persists the last computed value's text alongside the
// generation that produced it (spec §6.3).
func (b *Backend) StashResult(cell *sheet.Cell, generation int) {
	if cell == nil {
		return
	}
	var result sql.NullString
	if cell.PreviousValue != nil {
		result = sql.NullString{String: cell.PreviousValue.Inspect(), Valid: true}
	}
	b.db.Exec(
		fmt.Sprintf("UPDATE %s SET result = $3, generation = $4 WHERE col = $1 AND row = $2", b.table),
		cell.Col, cell.Row, result, generation,
	)
}
