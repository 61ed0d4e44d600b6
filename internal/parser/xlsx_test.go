package parser

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ThiagoRGoveia/dock-operations/internal/models"
)

// createTestWorkbook writes rows starting at A1 of sheet and saves the workbook.
func createTestWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		if len(row) > 0 {
			require.NoError(t, f.SetSheetRow(sheet, cell, &row))
		}
	}

	path := filepath.Join(t.TempDir(), "operations.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadWorkbook(t *testing.T) {
	t.Run("Expect: header found below blank leading rows", func(t *testing.T) {
		path := createTestWorkbook(t, "Sheet1", [][]interface{}{
			{},
			{},
			{"Carrier", "Plate", "Dock", "Status", "Destination"},
			{"ACME", "1234ABC", "3", "OK", "Madrid"},
		})

		table, err := ReadWorkbook(path, 15)

		require.NoError(t, err)
		assert.Equal(t, "Sheet1", table.Sheet)
		assert.Equal(t, 2, table.HeaderRow)
		assert.Equal(t, []string{"Carrier", "Plate", "Dock", "Status", "Destination"}, table.Header())
		require.Len(t, table.DataRows(), 1)
		assert.Equal(t, "Madrid", table.DataRows()[0][4].Text)
	})

	t.Run("Expect: title rows are skipped", func(t *testing.T) {
		path := createTestWorkbook(t, "Sheet1", [][]interface{}{
			{"Daily dock plan"},
			{"Warehouse 2", "Monday"},
			{"Carrier", "Plate", "Dock"},
			{"ACME", "1234ABC"},
		})

		table, err := ReadWorkbook(path, 15)

		require.NoError(t, err)
		assert.Equal(t, 2, table.HeaderRow)
	})

	t.Run("Expect: the first sheet with data is used", func(t *testing.T) {
		path := createTestWorkbook(t, "Plan", [][]interface{}{
			{"Carrier", "Plate"},
			{"ACME", "1"},
		})

		table, err := ReadWorkbook(path, 15)

		require.NoError(t, err)
		assert.Equal(t, "Plan", table.Sheet)
		assert.Equal(t, []string{"Carrier", "Plate"}, table.Header())
	})

	t.Run("Expect: day fractions are kept as serials", func(t *testing.T) {
		path := createTestWorkbook(t, "Sheet1", [][]interface{}{
			{"Carrier", "Arrival", "Dock"},
			{"ACME", 0.3125, 7},
		})

		table, err := ReadWorkbook(path, 15)

		require.NoError(t, err)
		row := table.DataRows()[0]
		assert.True(t, row[1].Numeric)
		assert.Equal(t, 0.3125, row[1].Serial)
		assert.False(t, row[2].Numeric)
		assert.Equal(t, "7", row[2].Text)
		assert.False(t, row[0].Numeric)
	})

	t.Run("Expect: time formatted cells are serials", func(t *testing.T) {
		f := excelize.NewFile()
		defer f.Close()
		require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Carrier", "Cutoff"}))
		require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"ACME", 0.75}))
		style, err := f.NewStyle(&excelize.Style{NumFmt: 20})
		require.NoError(t, err)
		require.NoError(t, f.SetCellStyle("Sheet1", "B2", "B2", style))
		path := filepath.Join(t.TempDir(), "styled.xlsx")
		require.NoError(t, f.SaveAs(path))

		table, err := ReadWorkbook(path, 15)

		require.NoError(t, err)
		cell := table.DataRows()[0][1]
		assert.True(t, cell.Numeric)
		assert.Equal(t, 0.75, cell.Serial)
	})

	t.Run("Expect: numeric looking text is not a serial", func(t *testing.T) {
		path := createTestWorkbook(t, "Sheet1", [][]interface{}{
			{"Carrier", "Arrival"},
			{"ACME", "0.3125"},
		})

		table, err := ReadWorkbook(path, 15)

		require.NoError(t, err)
		cell := table.DataRows()[0][1]
		assert.False(t, cell.Numeric)
		assert.Equal(t, "0.3125", cell.Text)
	})

	t.Run("Expect: an empty workbook gives an empty table", func(t *testing.T) {
		path := createTestWorkbook(t, "Sheet1", nil)

		table, err := ReadWorkbook(path, 15)

		require.NoError(t, err)
		assert.Empty(t, table.Rows)
		assert.Nil(t, table.DataRows())
	})

	t.Run("Expect: a corrupt workbook is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.xlsx")
		require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

		_, err := ReadWorkbook(path, 15)

		assert.Error(t, err)
	})

	t.Run("Expect: a missing workbook is reported", func(t *testing.T) {
		_, err := ReadWorkbook(filepath.Join(t.TempDir(), "missing.xlsx"), 15)

		assert.ErrorIs(t, err, fs.ErrNotExist)
	})
}

func TestDetectHeaderRow(t *testing.T) {
	row := func(values ...string) []models.Cell {
		cells := make([]models.Cell, len(values))
		for i, v := range values {
			cells[i] = models.TextCell(v)
		}
		return cells
	}

	t.Run("should pick the fullest row", func(t *testing.T) {
		rows := [][]models.Cell{row("Title"), row("", " ", ""), row("a", "b", "c"), row("1", "2")}
		assert.Equal(t, 2, DetectHeaderRow(rows, 15))
	})

	t.Run("should prefer the earlier row on ties", func(t *testing.T) {
		rows := [][]models.Cell{row("a", "b"), row("1", "2")}
		assert.Equal(t, 0, DetectHeaderRow(rows, 15))
	})

	t.Run("should only scan the first rows", func(t *testing.T) {
		rows := [][]models.Cell{row("a"), row("b"), row("x", "y", "z")}
		assert.Equal(t, 0, DetectHeaderRow(rows, 2))
	})

	t.Run("should count numeric cells", func(t *testing.T) {
		rows := [][]models.Cell{row("a"), {{Numeric: true, Serial: 1}, {Numeric: true}}}
		assert.Equal(t, 1, DetectHeaderRow(rows, 0))
	})

	t.Run("should return zero for no rows", func(t *testing.T) {
		assert.Equal(t, 0, DetectHeaderRow(nil, 15))
	})
}
