package formula_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forwardbackward/formula"
	"forwardbackward/interp"
	"forwardbackward/logging"
	"forwardbackward/sheet"
	"forwardbackward/storage/memory"
	"forwardbackward/symtab"
	"forwardbackward/value"
)

func newEngine() (*formula.Controller, *interp.CallingContext) {
	ctrl := formula.NewController(memory.New())
	ctx := interp.NewCallingContext(symtab.NewGlobalScope(), logging.NewBuffer())
	ctrl.Attach(ctx)
	return ctrl, ctx
}

func floatText(t *testing.T, v value.Value) string {
	t.Helper()
	f, ok := v.(*value.Float)
	require.True(t, ok, "expected Float, got %v", v)
	return f.N.String()
}

func prevValue(t *testing.T, ctrl *formula.Controller, col, row int) value.Value {
	t.Helper()
	cell := ctrl.Backend.GetCellAt(col, row, "")
	require.NotNil(t, cell)
	defer ctrl.Backend.ReturnCell(cell)
	return cell.PreviousValue
}

func TestSimpleArithmeticCell(t *testing.T) {
	ctrl, ctx := newEngine()
	ctrl.SetCell(0, 0, sheet.Value, "12 * 3")
	ctx.Generation++
	out, diag := ctrl.ComputeCellForUser(ctx, 0, 0)
	assert.Empty(t, diag)
	assert.Equal(t, "36", floatText(t, out))
}

func TestLabelAndValueTypeError(t *testing.T) {
	ctrl, ctx := newEngine()
	ctrl.SetCell(0, 0, sheet.Value, "12")
	ctrl.SetCell(1, 0, sheet.Label, "12")
	ctrl.SetCell(1, 1, sheet.Value, "A0+B0")
	ctx.Generation++
	out, diag := ctrl.ComputeCellForUser(ctx, 1, 1)
	assert.Nil(t, out)
	assert.Equal(t, "Error adding Float to String at 3", diag)
	assert.Nil(t, prevValue(t, ctrl, 1, 1))
}

func seedCycle(t *testing.T, ctrl *formula.Controller, ctx *interp.CallingContext) {
	t.Helper()
	ctrl.SetCell(0, 0, sheet.Value, "B1")
	ctrl.SetCell(1, 1, sheet.Value, "A0")
	a0 := ctrl.Backend.GetCellAt(0, 0, "")
	a0.PreviousValue = &value.Float{N: ctx.NumEnv.FromInt64(2)}
	ctrl.Backend.ReturnCell(a0)
	b1 := ctrl.Backend.GetCellAt(1, 1, "")
	b1.PreviousValue = &value.Float{N: ctx.NumEnv.FromInt64(3)}
	ctrl.Backend.ReturnCell(b1)
}

func TestMutualCycleColumnMajorTopDownLeftRight(t *testing.T) {
	ctrl, ctx := newEngine()
	seedCycle(t, ctrl, ctx)
	ctrl.Recalc(ctx)
	// A0 is visited first; its reference computes B1 fresh, B1's
	// reference back to the mid-evaluation A0 serves A0's previous 2, and
	// that result feeds A0.
	assert.Equal(t, "2", floatText(t, prevValue(t, ctrl, 0, 0)))
	assert.Equal(t, "2", floatText(t, prevValue(t, ctrl, 1, 1)))

	a0 := ctrl.Backend.GetCellAt(0, 0, "")
	assert.True(t, a0.Recursed)
	ctrl.Backend.ReturnCell(a0)
}

func TestMutualCycleRowMajorBottomUpRightLeft(t *testing.T) {
	ctrl, ctx := newEngine()
	ctrl.ColumnMajor = false
	ctrl.TopDown = false
	ctrl.LeftRight = false
	seedCycle(t, ctrl, ctx)
	ctrl.Recalc(ctx)
	// B1 is visited first this time, so both settle on B1's previous 3.
	assert.Equal(t, "3", floatText(t, prevValue(t, ctrl, 0, 0)))
	assert.Equal(t, "3", floatText(t, prevValue(t, ctrl, 1, 1)))
}

func TestCycleTerminatesInOnePass(t *testing.T) {
	ctrl, ctx := newEngine()
	seedCycle(t, ctrl, ctx)
	ctrl.Recalc(ctx)
	gen := ctx.Generation
	ctrl.Recalc(ctx)
	assert.Equal(t, gen+2, ctx.Generation)
	assert.Equal(t, "2", floatText(t, prevValue(t, ctrl, 0, 0)))
}

func TestRangeSum(t *testing.T) {
	ctrl, ctx := newEngine()
	n := 1
	for col := 0; col < 3; col++ {
		for row := 0; row < 3; row++ {
			ctrl.SetCell(col, row, sheet.Value, fmt.Sprintf("%d", n))
			n++
		}
	}
	ctrl.SetCell(3, 0, sheet.Value, "@SUM(A0:B1)")
	ctx.Generation++
	out, diag := ctrl.ComputeCellForUser(ctx, 3, 0)
	require.Empty(t, diag)
	assert.Equal(t, "12", floatText(t, out))
}

func TestAcyclicSheetIsOrderIndependent(t *testing.T) {
	build := func(columnMajor, topDown, leftRight bool) map[string]string {
		ctrl, ctx := newEngine()
		ctrl.ColumnMajor = columnMajor
		ctrl.TopDown = topDown
		ctrl.LeftRight = leftRight
		ctrl.SetCell(0, 0, sheet.Value, "5")
		ctrl.SetCell(1, 0, sheet.Value, "A0*2")
		ctrl.SetCell(2, 0, sheet.Value, "B0+A0")
		ctrl.SetCell(0, 1, sheet.Value, "C0-1")
		ctrl.Recalc(ctx)
		out := make(map[string]string)
		for _, at := range [][2]int{{0, 0}, {1, 0}, {2, 0}, {0, 1}} {
			out[fmt.Sprintf("%d,%d", at[0], at[1])] = floatText(t, prevValue(t, ctrl, at[0], at[1]))
		}
		return out
	}
	want := map[string]string{"0,0": "5", "1,0": "10", "2,0": "15", "0,1": "14"}
	assert.Equal(t, want, build(true, true, true))
	assert.Equal(t, want, build(false, false, false))
	assert.Equal(t, want, build(true, false, true))
	assert.Equal(t, want, build(false, true, false))
}

func TestAbsoluteAndRelativeReferences(t *testing.T) {
	ctrl, ctx := newEngine()
	ctrl.SetCell(0, 0, sheet.Value, "7")
	// Both reference A0, one relatively (offset -1,-1 from B1) and one
	// absolutely.
	ctrl.SetCell(1, 1, sheet.Value, "A0")
	ctrl.SetCell(2, 2, sheet.Value, "$A$0")
	ctrl.Recalc(ctx)
	assert.Equal(t, "7", floatText(t, prevValue(t, ctrl, 1, 1)))
	assert.Equal(t, "7", floatText(t, prevValue(t, ctrl, 2, 2)))
}

func TestEmptyReferenceIsNil(t *testing.T) {
	ctrl, ctx := newEngine()
	// Nil + 5 = 5 under the formula dialect's neutral Nil.
	ctrl.SetCell(0, 0, sheet.Value, "Z99+5")
	ctx.Generation++
	out, diag := ctrl.ComputeCellForUser(ctx, 0, 0)
	require.Empty(t, diag)
	assert.Equal(t, "5", floatText(t, out))
}

func TestNameLookup(t *testing.T) {
	ctrl, ctx := newEngine()
	ctrl.SetCell(0, 0, sheet.Value, "_RATE*2")
	ctx.Names["RATE"] = &value.Float{N: ctx.NumEnv.FromInt64(21)}
	ctx.Generation++
	out, diag := ctrl.ComputeCellForUser(ctx, 0, 0)
	require.Empty(t, diag)
	assert.Equal(t, "42", floatText(t, out))

	// An absent name reads as Nil; Nil * 2 = 0.
	ctrl.SetCell(0, 1, sheet.Value, "_MISSING*2")
	ctx.Generation++
	out, diag = ctrl.ComputeCellForUser(ctx, 0, 1)
	require.Empty(t, diag)
	assert.Equal(t, "0", floatText(t, out))
}

func TestParseFailureRecordsDiagnostic(t *testing.T) {
	ctrl, ctx := newEngine()
	ctrl.SetCell(0, 0, sheet.Value, "1 + + ")
	ctx.Generation++
	out, diag := ctrl.ComputeCellForUser(ctx, 0, 0)
	assert.Nil(t, out)
	assert.NotEmpty(t, diag)
}

func TestUserInputModeDoesNotCommit(t *testing.T) {
	ctrl, ctx := newEngine()
	ctrl.SetCell(0, 0, sheet.Value, "1+1")
	ctx.InUserInput = true
	ctx.Generation++
	out, diag := ctrl.ComputeCellForUser(ctx, 0, 0)
	require.Empty(t, diag)
	assert.Equal(t, "2", floatText(t, out))
	cell := ctrl.Backend.GetCellAt(0, 0, "")
	assert.Equal(t, "1+1", cell.CurrentInput)
	assert.Nil(t, cell.Value)
	ctrl.Backend.ReturnCell(cell)

	// A recalculation leaves user-input mode and commits the parse.
	ctrl.Recalc(ctx)
	cell = ctrl.Backend.GetCellAt(0, 0, "")
	assert.Empty(t, cell.CurrentInput)
	assert.NotNil(t, cell.Value)
	ctrl.Backend.ReturnCell(cell)
}

func TestExpandRangePolicy(t *testing.T) {
	ctrl, ctx := newEngine()

	single, err := ctrl.ExpandRange(ctx, &value.CellRange{Col1: 2, Row1: 3, Col2: 2, Row2: 3})
	require.NoError(t, err)
	require.Len(t, single, 1)
	ref := single[0].(*value.CellRef)
	assert.True(t, ref.ColAbsolute)
	assert.Equal(t, 2, ref.Col)
	assert.Equal(t, 3, ref.Row)

	row, err := ctrl.ExpandRange(ctx, &value.CellRange{Col1: 0, Row1: 1, Col2: 3, Row2: 1})
	require.NoError(t, err)
	require.Len(t, row, 4)
	assert.Equal(t, 0, row[0].(*value.CellRef).Col)
	assert.Equal(t, 3, row[3].(*value.CellRef).Col)

	col, err := ctrl.ExpandRange(ctx, &value.CellRange{Col1: 1, Row1: 0, Col2: 1, Row2: 2})
	require.NoError(t, err)
	require.Len(t, col, 3)
	assert.Equal(t, 0, col[0].(*value.CellRef).Row)
	assert.Equal(t, 2, col[2].(*value.CellRef).Row)

	grid, err := ctrl.ExpandRange(ctx, &value.CellRange{Col1: 0, Row1: 0, Col2: 1, Row2: 1})
	require.NoError(t, err)
	require.Len(t, grid, 2)
	sub := grid[0].(*value.CellRange)
	assert.Equal(t, 0, sub.Col1)
	assert.Equal(t, 0, sub.Col2)
	assert.Equal(t, 1, sub.Row2)
}

func TestGenerationMemoization(t *testing.T) {
	ctrl, ctx := newEngine()
	ctrl.SetCell(0, 0, sheet.Value, "1+1")
	ctrl.Recalc(ctx)
	cell := ctrl.Backend.GetCellAt(0, 0, "")
	gen := cell.PreviousGeneration
	ctrl.Backend.ReturnCell(cell)

	ctrl.Recalc(ctx)
	cell = ctrl.Backend.GetCellAt(0, 0, "")
	assert.Equal(t, gen+2, cell.PreviousGeneration)
	ctrl.Backend.ReturnCell(cell)
}

func TestAggregates(t *testing.T) {
	ctrl, ctx := newEngine()
	ctrl.SetCell(0, 0, sheet.Value, "4")
	ctrl.SetCell(0, 1, sheet.Value, "1")
	ctrl.SetCell(0, 2, sheet.Value, "7")
	ctrl.SetCell(1, 0, sheet.Value, "@MIN(A0:A2)")
	ctrl.SetCell(1, 1, sheet.Value, "@MAX(A0:A2)")
	ctrl.SetCell(1, 2, sheet.Value, "@COUNT(A0:A2)")
	ctrl.SetCell(2, 0, sheet.Value, "@AVERAGE(A0:A2)")
	ctrl.SetCell(2, 1, sheet.Value, "@SUM(A0;A2;10)")
	ctrl.Recalc(ctx)
	assert.Equal(t, "1", floatText(t, prevValue(t, ctrl, 1, 0)))
	assert.Equal(t, "7", floatText(t, prevValue(t, ctrl, 1, 1)))
	assert.Equal(t, "3", floatText(t, prevValue(t, ctrl, 1, 2)))
	assert.Equal(t, "4", floatText(t, prevValue(t, ctrl, 2, 0)))
	assert.Equal(t, "21", floatText(t, prevValue(t, ctrl, 2, 1)))
}

func TestLabelsInsideSummedRangeAreSkipped(t *testing.T) {
	ctrl, ctx := newEngine()
	ctrl.SetCell(0, 0, sheet.Value, "1")
	ctrl.SetCell(0, 1, sheet.Label, "subtotal")
	ctrl.SetCell(0, 2, sheet.Value, "2")
	ctrl.SetCell(1, 0, sheet.Value, "@SUM(A0:A2)")
	ctrl.Recalc(ctx)
	assert.Equal(t, "3", floatText(t, prevValue(t, ctrl, 1, 0)))
}
