package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ThiagoRGoveia/dock-operations/internal/models"
)

const DefaultHeaderScanRows = 15

// ReadWorkbook reads the first worksheet that has data. The header row is the row
// with the most non-blank cells among the first scanRows rows, so title rows and
// blank leading rows are skipped.
func ReadWorkbook(filePath string, scanRows int) (*models.RawTable, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", filePath, err)
	}
	defer f.Close()

	table := &models.RawTable{Source: filePath}
	for _, sheet := range f.GetSheetList() {
		rows, err := readSheet(f, sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheet, filePath, err)
		}
		if countNonBlank(rows) == 0 {
			continue
		}
		table.Sheet = sheet
		table.Rows = rows
		table.HeaderRow = DetectHeaderRow(rows, scanRows)
		break
	}

	return table, nil
}

func readSheet(f *excelize.File, sheet string) ([][]models.Cell, error) {
	formatted, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	rows := make([][]models.Cell, len(formatted))
	for r, values := range formatted {
		cells := make([]models.Cell, len(values))
		for c, text := range values {
			cells[c] = models.TextCell(text)
			if r < len(raw) && c < len(raw[r]) {
				if serial, ok := numericCell(f, sheet, r, c, text, raw[r][c]); ok {
					cells[c].Serial = serial
					cells[c].Numeric = true
				}
			}
		}
		rows[r] = cells
	}
	return rows, nil
}

// numericCell reports whether a cell holds a native number that should be read
// as a day serial: a stored number that is either displayed through a number
// format (dates, times) or has a fractional part. Whole numbers in General format
// ("7" in an arrival column) stay text.
func numericCell(f *excelize.File, sheet string, row, col int, text, raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return 0, false
	}
	typ, err := f.GetCellType(sheet, axis)
	if err != nil {
		return 0, false
	}
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula,
		excelize.CellTypeBool, excelize.CellTypeError:
		return 0, false
	}

	if strings.TrimSpace(text) != raw || v != math.Trunc(v) {
		return v, true
	}
	return 0, false
}

// DetectHeaderRow returns the index of the row with the most non-blank cells among
// the first scanRows rows. Ties go to the earlier row.
func DetectHeaderRow(rows [][]models.Cell, scanRows int) int {
	if scanRows <= 0 {
		scanRows = DefaultHeaderScanRows
	}

	best, bestCount := 0, 0
	for i := 0; i < len(rows) && i < scanRows; i++ {
		count := 0
		for _, c := range rows[i] {
			if !c.IsBlank() {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = i, count
		}
	}
	return best
}

func countNonBlank(rows [][]models.Cell) int {
	n := 0
	for _, row := range rows {
		for _, c := range row {
			if !c.IsBlank() {
				n++
			}
		}
	}
	return n
}
