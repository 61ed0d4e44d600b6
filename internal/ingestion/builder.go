package ingestion

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ThiagoRGoveia/dock-operations/internal/headers"
	"github.com/ThiagoRGoveia/dock-operations/internal/models"
	"github.com/ThiagoRGoveia/dock-operations/internal/normalize"
)

// RowBuilder turns the cells of one data row into an Operation using a resolved
// column mapping. It never fails: missing or unreadable cells become empty values
// or the defaults.
type RowBuilder struct {
	mapping     headers.Mapping
	defaultDate time.Time
	defaultSide string
}

func NewRowBuilder(mapping headers.Mapping, defaultDate time.Time, defaultSide string) *RowBuilder {
	defaultSide = normalize.Display(defaultSide)
	if defaultSide == "" {
		defaultSide = models.DefaultSideLabel
	}
	return &RowBuilder{
		mapping:     mapping,
		defaultDate: normalize.Day(defaultDate),
		defaultSide: defaultSide,
	}
}

// Build returns the operation for row and false when the row is empty
// (no carrier, plate or destination).
func (b *RowBuilder) Build(row []models.Cell) (models.Operation, bool) {
	op := models.Operation{
		ID:                b.id(row),
		Carrier:           b.text(row, models.FieldCarrier),
		Plate:             b.text(row, models.FieldPlate),
		Dock:              b.text(row, models.FieldDock),
		Status:            b.text(row, models.FieldStatus),
		Destination:       b.text(row, models.FieldDestination),
		ScheduledArrival:  b.clock(row, models.FieldScheduledArrival),
		ActualArrival:     b.clock(row, models.FieldActualArrival),
		ActualDeparture:   b.clock(row, models.FieldActualDeparture),
		DepartureDeadline: b.clock(row, models.FieldDepartureDeadline),
		Notes:             b.text(row, models.FieldNotes),
		Incidents:         b.text(row, models.FieldIncidents),
		SealCode:          b.text(row, models.FieldSealCode),
		CustomsFlag:       normalize.Bool(b.cell(row, models.FieldCustomsFlag).Text),
		Date:              b.date(row),
		SideLabel:         b.text(row, models.FieldSideLabel),
	}
	if op.SideLabel == "" {
		op.SideLabel = b.defaultSide
	}

	if op.IsEmpty() {
		return op, false
	}
	return op, true
}

func (b *RowBuilder) cell(row []models.Cell, f models.Field) models.Cell {
	i := b.mapping.Index(f)
	if i < 0 || i >= len(row) {
		return models.Cell{}
	}
	return row[i]
}

func (b *RowBuilder) text(row []models.Cell, f models.Field) string {
	return normalize.Display(b.cell(row, f).Text)
}

func (b *RowBuilder) clock(row []models.Cell, f models.Field) string {
	c := b.cell(row, f)
	if c.Numeric {
		serial := c.Serial
		if serial >= 2 {
			// a full date-time: only the time of day counts
			serial -= math.Floor(serial)
		}
		if v, ok := normalize.TimeFromSerial(serial); ok {
			return v
		}
	}
	return normalize.Time(c.Text)
}

func (b *RowBuilder) date(row []models.Cell) time.Time {
	c := b.cell(row, models.FieldDate)
	if c.Numeric {
		if d, ok := normalize.DateFromSerial(c.Serial); ok {
			return d
		}
	}
	return normalize.Date(c.Text, b.defaultDate)
}

func (b *RowBuilder) id(row []models.Cell) int {
	id, err := strconv.Atoi(strings.TrimSpace(b.cell(row, models.FieldID).Text))
	if err != nil || id < 0 {
		return 0
	}
	return id
}
