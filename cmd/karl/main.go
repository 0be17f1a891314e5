// Command karl runs the dual-language engine from the terminal: execute
// a script ("Backward") file, compute or recalculate a spreadsheet of
// formula ("Forward") cells, or start a formula REPL over a sheet.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"forwardbackward/config"
	"forwardbackward/debugger"
	"forwardbackward/engine"
	"forwardbackward/formula"
	"forwardbackward/interp"
	"forwardbackward/logging"
	"forwardbackward/numeric"
	"forwardbackward/parser"
	"forwardbackward/sheet"
	"forwardbackward/stdlib"
	"forwardbackward/storage/memory"
	"forwardbackward/storage/postgres"
	"forwardbackward/symtab"
	"forwardbackward/value"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "-h", "--help", "help":
		usage()
	case "run":
		os.Exit(runCommand(os.Args[2:]))
	case "cell":
		os.Exit(cellCommand(os.Args[2:]))
	case "recalc":
		os.Exit(recalcCommand(os.Args[2:]))
	case "repl":
		os.Exit(replCommand(os.Args[2:]))
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  karl <command> [flags] [arguments]\n")
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  run <file.bk>            run a script file\n")
	fmt.Fprintf(os.Stderr, "  cell <file.fwd> <REF>    compute one cell of a sheet file\n")
	fmt.Fprintf(os.Stderr, "  recalc <file.fwd>        recalculate a sheet file and print it\n")
	fmt.Fprintf(os.Stderr, "  repl [file.fwd]          evaluate formulas interactively\n")
	fmt.Fprintf(os.Stderr, "  help                     show this help message\n")
}

func newScriptContext(sourceName string) (*symtab.Scope, *interp.CallingContext) {
	globals := symtab.NewGlobalScope()
	ctx := interp.NewCallingContext(globals, logging.NewConsole(os.Stdin, os.Stdout))
	ctx.Debugger = debugger.New()
	ctx.SourceName = sourceName
	stdlib.Install(globals, ctx)
	return globals, ctx
}

func applyNumeric(ctx *interp.CallingContext, opts *config.Options) {
	ctx.NumEnv.SetRounding(numeric.RoundingMode(opts.Rounding))
	ctx.NumEnv.SetPrecision(opts.Precision)
}

func runCommand(args []string) int {
	opts := config.Default()
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	opts.Register(fs)
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "run: expected one script file")
		return 2
	}
	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read error: %v\n", err)
		return 1
	}

	globals, ctx := newScriptContext(path)
	applyNumeric(ctx, opts)
	p := parser.NewScriptParserWithGlobals(path, string(data), globals)
	prog, err := p.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	ctx.EnsureGlobals()
	for _, st := range prog.Globals {
		if _, err := interp.Exec(ctx, st); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			return 1
		}
	}
	if def, ok := prog.Functions["main"]; ok && def.ParamArgs == 0 {
		if _, err := interp.CallFunction(ctx, &value.Function{Code: def}, nil, nil); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			return 1
		}
	}
	return 0
}

func openBackend(opts *config.Options) (sheet.Backend, func(), error) {
	if opts.DSN == "" {
		return memory.New(), func() {}, nil
	}
	b, err := postgres.Open(opts.DSN, opts.Table)
	if err != nil {
		return nil, nil, err
	}
	return b, func() { b.Close() }, nil
}

func newSheetContext(opts *config.Options) (*formula.Controller, *interp.CallingContext, func(), error) {
	backend, closeBackend, err := openBackend(opts)
	if err != nil {
		return nil, nil, nil, err
	}
	ctrl := formula.NewController(backend)
	ctrl.ColumnMajor = opts.ColumnMajor
	ctrl.TopDown = opts.TopDown
	ctrl.LeftRight = opts.LeftRight

	globals := symtab.NewGlobalScope()
	ctx := interp.NewCallingContext(globals, logging.NewConsole(os.Stdin, os.Stdout))
	applyNumeric(ctx, opts)
	ctrl.Attach(ctx)
	return ctrl, ctx, closeBackend, nil
}

// loadSheetFile reads a sheet description: one cell per line,
// `REF = formula` for VALUE cells and `REF : text` for LABEL cells.
// Blank lines and lines starting with `#` are skipped.
func loadSheetFile(ctrl *formula.Controller, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var typ sheet.CellType
		var sep int
		if eq := strings.Index(line, "="); eq >= 0 {
			typ, sep = sheet.Value, eq
		}
		if colon := strings.Index(line, ":"); colon >= 0 && (sep == 0 || colon < sep) {
			typ, sep = sheet.Label, colon
		}
		if sep == 0 {
			return fmt.Errorf("%s:%d: expected `REF = formula` or `REF : label`", path, i+1)
		}
		col, row, err := parseRef(strings.TrimSpace(line[:sep]))
		if err != nil {
			return fmt.Errorf("%s:%d: %v", path, i+1, err)
		}
		ctrl.SetCell(col, row, typ, strings.TrimSpace(line[sep+1:]))
	}
	return nil
}

// parseRef reads an absolute `A0`-style reference.
func parseRef(ref string) (col, row int, err error) {
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(ref) {
		return 0, 0, fmt.Errorf("malformed cell reference %q", ref)
	}
	row, err = strconv.Atoi(ref[i:])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed cell reference %q", ref)
	}
	return value.ColumnIndex(ref[:i]), row, nil
}

func cellCommand(args []string) int {
	opts := config.Default()
	fs := flag.NewFlagSet("cell", flag.ExitOnError)
	opts.Register(fs)
	fs.Parse(args)
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "cell: expected a sheet file and a cell reference")
		return 2
	}
	ctrl, ctx, closeBackend, err := newSheetContext(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	defer closeBackend()
	if err := loadSheetFile(ctrl, fs.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	col, row, err := parseRef(fs.Arg(1))
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	ctx.Generation++
	out, diag := ctrl.ComputeCellForUser(ctx, col, row)
	if diag != "" {
		fmt.Fprintln(os.Stderr, diag)
		return 1
	}
	if out == nil {
		fmt.Println("Nil")
		return 0
	}
	fmt.Println(out.Inspect())
	return 0
}

func recalcCommand(args []string) int {
	opts := config.Default()
	fs := flag.NewFlagSet("recalc", flag.ExitOnError)
	opts.Register(fs)
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "recalc: expected one sheet file")
		return 2
	}
	ctrl, ctx, closeBackend, err := newSheetContext(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	defer closeBackend()
	if err := loadSheetFile(ctrl, fs.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	ctrl.Recalc(ctx)
	printSheet(ctrl)
	return 0
}

func printSheet(ctrl *formula.Controller) {
	for col := 0; col < ctrl.Backend.MaxColumn(); col++ {
		for row := 0; row < ctrl.Backend.MaxRowForColumn(col); row++ {
			cell := ctrl.Backend.GetCellAt(col, row, "")
			if cell == nil {
				continue
			}
			text := "Nil"
			if cell.PreviousValue != nil {
				text = cell.PreviousValue.Inspect()
			}
			fmt.Printf("%s%d\t%s\n", value.ColumnName(col), row, text)
			ctrl.Backend.ReturnCell(cell)
		}
	}
}

// replCommand evaluates one formula per input line against the loaded
// sheet (or an empty one), using a scratch cell at the origin.
func replCommand(args []string) int {
	opts := config.Default()
	fs := flag.NewFlagSet("repl", flag.ExitOnError)
	opts.Register(fs)
	fs.Parse(args)
	ctrl, ctx, closeBackend, err := newSheetContext(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	defer closeBackend()
	if fs.NArg() == 1 {
		if err := loadSheetFile(ctrl, fs.Arg(0)); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			return 1
		}
		ctrl.Recalc(ctx)
	}

	console := logging.NewConsole(os.Stdin, os.Stdout)
	for {
		line, ok := console.Get()
		if !ok {
			return 0
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return 0
		}
		p := parser.NewFormulaParser("repl", line, ctrl.Builtins, 0, 0)
		expr, err := p.Parse()
		if err != nil {
			console.Log(err.Error())
			continue
		}
		ctx.Generation++
		out, err := interp.Eval(ctx, expr)
		if err != nil {
			console.Log(engine.AtLocation(err))
			continue
		}
		console.Log(out.Inspect())
	}
}
