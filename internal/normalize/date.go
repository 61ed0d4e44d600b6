package normalize

import (
	"math"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var dateLayouts = []string{
	"02-01-2006",
	"02.01.2006",
	"2-1-2006",
	"2.1.2006",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/06",
	"20060102",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, 2 Jan 2006",
}

// Date reads an operational day. It tries yyyy-MM-dd, then dd/MM/yyyy, then a list of
// common layouts, and falls back to the calendar day of fallback.
func Date(raw string, fallback time.Time) time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Day(fallback)
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		return Day(t)
	}
	if t, err := time.Parse("2/1/2006", s); err == nil {
		return Day(t)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t)
		}
	}

	return Day(fallback)
}

// DateFromSerial converts a spreadsheet date serial. Serials below 1 are times, not dates.
func DateFromSerial(v float64) (time.Time, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 1 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(v, false)
	if err != nil {
		return time.Time{}, false
	}
	return Day(t), true
}

// Day drops the clock and zone, keeping the calendar day as midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
