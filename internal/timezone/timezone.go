package timezone

import (
	"strings"
	"time"
	_ "time/tzdata"
)

const DefaultTimezone = "America/Sao_Paulo"

// DayLayout is the calendar-day key compared by the today rule.
const DayLayout = "2006-01-02"

func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

func Location(tz string) *time.Location {
	if IsValid(tz) {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}

	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Clock returns a wall clock that reads in loc. A nil loc falls back to
// DefaultTimezone.
func Clock(loc *time.Location) func() time.Time {
	if loc == nil {
		loc = Location(DefaultTimezone)
	}
	return func() time.Time { return time.Now().In(loc) }
}

// layouts aceitos pela API (ISO com e sem offset, só data, formato BR)
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	DayLayout,
	"02/01/2006 15:04",
	"02/01/2006",
}

// ParseIn parses an API date. Values without an offset are read as wall
// time in loc.
func ParseIn(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// DayKey formats t as a calendar-day string in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}

// SameDay reports whether the API date s falls on the same local calendar
// day as now. Unparsable dates never match.
func SameDay(s string, now time.Time, loc *time.Location) bool {
	t, ok := ParseIn(s, loc)
	if !ok {
		return false
	}
	return DayKey(t, loc) == DayKey(now, loc)
}
