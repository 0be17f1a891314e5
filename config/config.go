// Package config carries the CLI-facing knobs: numeric mode, the four
// recalculation-order flags, and the storage backend selection.
package config

import "flag"

type Options struct {
	// Rounding is the numeric.RoundingMode as its integer code (0..N).
	Rounding int
	// Precision is the default numeric precision in bits.
	Precision uint

	ColumnMajor bool
	TopDown     bool
	LeftRight   bool

	// DSN selects the Postgres backend when non-empty; the in-memory
	// backend otherwise.
	DSN   string
	Table string
}

func Default() *Options {
	return &Options{
		Precision:   128,
		ColumnMajor: true,
		TopDown:     true,
		LeftRight:   true,
		Table:       "cells",
	}
}

// Register binds the options onto a per-subcommand FlagSet.
func (o *Options) Register(fs *flag.FlagSet) {
	fs.IntVar(&o.Rounding, "rounding", o.Rounding, "rounding mode (0=even 1=away 2=zero 3=+inf 4=-inf 5=away-from-zero)")
	fs.UintVar(&o.Precision, "precision", o.Precision, "default numeric precision in bits")
	fs.BoolVar(&o.ColumnMajor, "column-major", o.ColumnMajor, "recalculate column-major")
	fs.BoolVar(&o.TopDown, "top-down", o.TopDown, "recalculate rows top-down")
	fs.BoolVar(&o.LeftRight, "left-right", o.LeftRight, "recalculate columns left-to-right")
	fs.StringVar(&o.DSN, "dsn", o.DSN, "Postgres DSN for the storage backend (in-memory when empty)")
	fs.StringVar(&o.Table, "table", o.Table, "Postgres table holding the cells")
}
