package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

const (
	minutesPerDay = 24 * 60
	// a day serial of 2 or more is a date, not a time of day
	maxDayFraction = 2
	maxClockHours  = 48
)

// H, H:M, H.M, HhM and a trailing "h" ("7h", "7:30 h").
var clockPattern = regexp.MustCompile(`^(\d{1,2})(?:\s*[:.hH]\s*(\d*))?\s*[hH]?$`)

var clockLayouts = []string{
	"15:04:05",
	"15:04:05.000",
	"3:04 PM",
	"3:04PM",
	"3:04:05 PM",
	"3 PM",
	"3PM",
	"1504",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2/1/2006 15:04",
}

// Time normalizes a time-of-day cell to HH:mm. Blank input gives "", and text that
// cannot be read as a time is returned trimmed and otherwise untouched.
func Time(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if m := clockPattern.FindStringSubmatch(s); m != nil {
		return padClock(m[1], m[2])
	}

	upper := strings.ToUpper(s)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return t.Format("15:04")
		}
	}

	return s
}

func padClock(hour, minute string) string {
	if minute == "" {
		minute = "00"
	}
	if len(hour) < 2 {
		hour = "0" + hour
	}
	if len(minute) < 2 {
		minute = "0" + minute
	}
	if len(minute) > 2 {
		minute = minute[:2]
	}
	return hour + ":" + minute
}

// TimeFromSerial converts a spreadsheet day fraction (0.3125 is 07:30).
// ok is false when v is not a day fraction at all; an out-of-range result
// is reported as ok with an empty string.
func TimeFromSerial(v float64) (string, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v >= maxDayFraction {
		return "", false
	}

	minutes := int(math.Round(v * minutesPerDay))
	if minutes < 0 || minutes >= maxClockHours*60 {
		return "", true
	}

	return fmt.Sprintf("%02d:%02d", (minutes/60)%24, minutes%60), true
}
