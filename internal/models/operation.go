package models

import (
	"strconv"
	"strings"
	"time"
)

// Field names one slot of the closed canonical schema an imported row is normalized into.
type Field string

const (
	FieldID                Field = "id"
	FieldCarrier           Field = "carrier"
	FieldPlate             Field = "plate"
	FieldDock              Field = "dock"
	FieldStatus            Field = "status"
	FieldDestination       Field = "destination"
	FieldScheduledArrival  Field = "scheduled_arrival"
	FieldActualArrival     Field = "actual_arrival"
	FieldActualDeparture   Field = "actual_departure"
	FieldDepartureDeadline Field = "departure_deadline"
	FieldNotes             Field = "notes"
	FieldIncidents         Field = "incidents"
	FieldSealCode          Field = "seal_code"
	FieldCustomsFlag       Field = "customs_flag"
	FieldDate              Field = "date"
	FieldSideLabel         Field = "side_label"
)

// Fields is the declared order of the schema. Exports write columns in this order.
var Fields = []Field{
	FieldID,
	FieldCarrier,
	FieldPlate,
	FieldDock,
	FieldStatus,
	FieldDestination,
	FieldScheduledArrival,
	FieldActualArrival,
	FieldActualDeparture,
	FieldDepartureDeadline,
	FieldNotes,
	FieldIncidents,
	FieldSealCode,
	FieldCustomsFlag,
	FieldDate,
	FieldSideLabel,
}

// AnchorFields must resolve from a header row for the row to be trusted as headers.
var AnchorFields = []Field{FieldCarrier, FieldPlate}

// DateLayout is the canonical text form of Operation.Date.
const DateLayout = "2006-01-02"

// DefaultSideLabel is used when neither the row nor the caller names a side.
const DefaultSideLabel = "SIDE 0"

// PositionalFields is the column order assumed when a file has no usable header row.
// Ids are assigned by the store, so they never come from a position.
func PositionalFields() []Field {
	out := make([]Field, 0, len(Fields)-1)
	for _, f := range Fields {
		if f != FieldID {
			out = append(out, f)
		}
	}
	return out
}

// ParseField returns the Field for a schema name such as "seal_code".
func ParseField(name string) (Field, bool) {
	name = strings.TrimSpace(strings.ToLower(name))
	for _, f := range Fields {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}

func (f Field) IsTime() bool {
	switch f {
	case FieldScheduledArrival, FieldActualArrival, FieldActualDeparture, FieldDepartureDeadline:
		return true
	}
	return false
}

func (f Field) IsDate() bool {
	return f == FieldDate
}

type Operation struct {
	ID                int       `json:"id,omitempty"`
	Carrier           string    `json:"carrier"`
	Plate             string    `json:"plate"`
	Dock              string    `json:"dock"`
	Status            string    `json:"status"`
	Destination       string    `json:"destination"`
	ScheduledArrival  string    `json:"scheduled_arrival"`
	ActualArrival     string    `json:"actual_arrival,omitempty"`
	ActualDeparture   string    `json:"actual_departure,omitempty"`
	DepartureDeadline string    `json:"departure_deadline"`
	Notes             string    `json:"notes"`
	Incidents         string    `json:"incidents"`
	SealCode          string    `json:"seal_code"`
	CustomsFlag       bool      `json:"customs_flag"`
	Date              time.Time `json:"date"`
	SideLabel         string    `json:"side_label"`
}

// IsEmpty reports a spacer or footer row: nothing identifies the truck or where it goes.
func (o *Operation) IsEmpty() bool {
	return strings.TrimSpace(o.Carrier) == "" &&
		strings.TrimSpace(o.Plate) == "" &&
		strings.TrimSpace(o.Destination) == ""
}

// Value renders a field the way it is written to exports.
func (o *Operation) Value(f Field) string {
	switch f {
	case FieldID:
		if o.ID == 0 {
			return ""
		}
		return strconv.Itoa(o.ID)
	case FieldCarrier:
		return o.Carrier
	case FieldPlate:
		return o.Plate
	case FieldDock:
		return o.Dock
	case FieldStatus:
		return o.Status
	case FieldDestination:
		return o.Destination
	case FieldScheduledArrival:
		return o.ScheduledArrival
	case FieldActualArrival:
		return o.ActualArrival
	case FieldActualDeparture:
		return o.ActualDeparture
	case FieldDepartureDeadline:
		return o.DepartureDeadline
	case FieldNotes:
		return o.Notes
	case FieldIncidents:
		return o.Incidents
	case FieldSealCode:
		return o.SealCode
	case FieldCustomsFlag:
		if o.CustomsFlag {
			return "Sí"
		}
		return ""
	case FieldDate:
		if o.Date.IsZero() {
			return ""
		}
		return o.Date.Format(DateLayout)
	case FieldSideLabel:
		return o.SideLabel
	}
	return ""
}

// Values renders every field in declared order.
func (o *Operation) Values() []string {
	out := make([]string, len(Fields))
	for i, f := range Fields {
		out[i] = o.Value(f)
	}
	return out
}
