package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forwardbackward/sheet"
)

func TestInitAndBounds(t *testing.T) {
	b := New()
	assert.Equal(t, 0, b.MaxColumn())
	assert.Equal(t, 0, b.MaxRow())

	b.InitCellAt(2, 4)
	b.InitCellAt(0, 1)
	assert.Equal(t, 3, b.MaxColumn())
	assert.Equal(t, 5, b.MaxRow())
	assert.Equal(t, 5, b.MaxRowForColumn(2))
	assert.Equal(t, 2, b.MaxRowForColumn(0))
	assert.Equal(t, 0, b.MaxRowForColumn(1))
}

func TestInitIsIdempotent(t *testing.T) {
	b := New()
	b.InitCellAt(1, 1)
	cell := b.GetCellAt(1, 1, "")
	require.NotNil(t, cell)
	cell.CurrentInput = "kept"
	b.ReturnCell(cell)

	b.InitCellAt(1, 1)
	cell = b.GetCellAt(1, 1, "")
	require.NotNil(t, cell)
	assert.Equal(t, "kept", cell.CurrentInput)
	b.ReturnCell(cell)
}

func TestForeignSheetResolvesToNothing(t *testing.T) {
	b := New()
	b.InitCellAt(0, 0)
	assert.Nil(t, b.GetCellAt(0, 0, "other"))
}

func TestClearShrinksBounds(t *testing.T) {
	b := New()
	b.InitCellAt(0, 0)
	b.InitCellAt(1, 3)
	require.True(t, b.IsCellPresent(1, 3))

	b.ClearCellAt(1, 3)
	assert.False(t, b.IsCellPresent(1, 3))
	assert.Equal(t, 1, b.MaxColumn())
	assert.Equal(t, 1, b.MaxRow())

	b.ClearColumn(0)
	assert.Equal(t, 0, b.MaxColumn())
}

func TestClearRow(t *testing.T) {
	b := New()
	b.InitCellAt(0, 1)
	b.InitCellAt(1, 1)
	b.InitCellAt(1, 2)
	b.ClearRow(1)
	assert.False(t, b.IsCellPresent(0, 1))
	assert.False(t, b.IsCellPresent(1, 1))
	assert.True(t, b.IsCellPresent(1, 2))
}

func TestEvergreenLifecycle(t *testing.T) {
	b := New()
	b.InitCellAt(0, 0)
	cell := b.GetCellAt(0, 0, "")
	require.NotNil(t, cell)
	b.MakeEvergreen(cell)
	assert.True(t, cell.Evergreen)
	b.CommitCell(cell)
	assert.False(t, cell.Evergreen)
	b.MakeEvergreen(cell)
	b.Dispose(cell)
	assert.False(t, cell.Evergreen)
	b.ReturnCell(cell)
	_ = sheet.Backend(b)
}