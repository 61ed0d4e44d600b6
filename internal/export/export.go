// Package export writes operations back out as delimited text or a workbook,
// with headers the importer recognizes, so exported files import unchanged.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/ThiagoRGoveia/dock-operations/internal/models"
)

const (
	SheetName = "Operations"
	utf8BOM   = "\ufeff"
)

var columnTitles = map[models.Field]string{
	models.FieldID:                "Id",
	models.FieldCarrier:           "Carrier",
	models.FieldPlate:             "Plate",
	models.FieldDock:              "Dock",
	models.FieldStatus:            "Status",
	models.FieldDestination:       "Destination",
	models.FieldScheduledArrival:  "Arrival",
	models.FieldActualArrival:     "Actual arrival",
	models.FieldActualDeparture:   "Actual departure",
	models.FieldDepartureDeadline: "Departure deadline",
	models.FieldNotes:             "Notes",
	models.FieldIncidents:         "Incidents",
	models.FieldSealCode:          "Seal",
	models.FieldCustomsFlag:       "Customs",
	models.FieldDate:              "Date",
	models.FieldSideLabel:         "Side",
}

// Header returns the column titles in declared field order.
func Header() []string {
	out := make([]string, len(models.Fields))
	for i, f := range models.Fields {
		out[i] = columnTitles[f]
	}
	return out
}

// WriteCSV writes a UTF-8 (with BOM), ';' separated file. Values holding the
// delimiter, quotes or line breaks are quoted.
func WriteCSV(w io.Writer, ops []models.Operation) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("failed to write byte order mark: %w", err)
	}

	writer := csv.NewWriter(w)
	writer.Comma = ';'

	if err := writer.Write(Header()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range ops {
		if err := writer.Write(ops[i].Values()); err != nil {
			return fmt.Errorf("failed to write operation %d: %w", i+1, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteWorkbook writes a single-sheet workbook with a bold, frozen and filterable
// header row. title goes into the document properties.
func WriteWorkbook(w io.Writer, ops []models.Operation, title string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	header := Header()
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", bold); err != nil {
		return err
	}

	for i := range ops {
		row := rowValues(&ops[i])
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write operation %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", lastCol, 16); err != nil {
		return err
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	if err := f.AutoFilter(SheetName, fmt.Sprintf("A1:%s%d", lastCol, len(ops)+1), nil); err != nil {
		return err
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   title,
		Subject: "Dock operations",
		Creator: "dock-operations",
	}); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

// ids stay numeric in workbooks; everything else is written as text so times
// and dates keep their canonical form.
func rowValues(op *models.Operation) []interface{} {
	values := op.Values()
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if op.ID != 0 {
		row[0] = op.ID
	}
	return row
}
