package core

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// DateLayout is the wire & storage layout of calendar days.
const DateLayout = "2006-01-02"

// DateOf returns the calendar day (midnight) of the instant t as seen in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// CivilDate keeps the year, month & day of t as they are and places them in loc.
// Used for DATE columns, which the driver hands back as UTC midnight.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DateKey formats the calendar day of t. Keys of the same day compare equal whatever the location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, CleanString(s), loc)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parsing date %q", s)
	}
	return t, nil
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return DateKey(a.In(loc)) == DateKey(b.In(loc))
}

// EachDay calls fn for every calendar day in [from, to], in order.
func EachDay(from, to time.Time, fn func(day time.Time)) {
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// DaysInRange counts the calendar days in [from, to]; 0 when to is before from.
func DaysInRange(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	n := 0
	EachDay(from, to, func(time.Time) { n++ })
	return n
}

// MonthDay is a day of the year without the year, eg. the start of the Fall term.
type MonthDay struct {
	Month time.Month
	Day   int
}

func NewMonthDay(month, day int) (MonthDay, error) {
	md := MonthDay{Month: time.Month(month), Day: day}
	if !md.Valid() {
		return MonthDay{}, errors.Errorf("invalid month/day %02d-%02d", month, day)
	}
	return md, nil
}

// ParseMonthDay parses "MM-DD".
func ParseMonthDay(s string) (MonthDay, error) {
	var month, day int
	if _, err := fmt.Sscanf(CleanString(s), "%d-%d", &month, &day); err != nil {
		return MonthDay{}, errors.Wrapf(err, "parsing month/day %q", s)
	}
	return NewMonthDay(month, day)
}

func MonthDayOf(t time.Time) MonthDay {
	return MonthDay{Month: t.Month(), Day: t.Day()}
}

// Valid checks the day exists in a leap year.
func (md MonthDay) Valid() bool {
	if md.Month < time.January || md.Month > time.December || md.Day < 1 {
		return false
	}
	return md.Day <= time.Date(2000, md.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Compare returns -1, 0 or 1 depending on whether md is before, equal to or after other.
func (md MonthDay) Compare(other MonthDay) int {
	switch {
	case md.Month < other.Month:
		return -1
	case md.Month > other.Month:
		return 1
	case md.Day < other.Day:
		return -1
	case md.Day > other.Day:
		return 1
	}
	return 0
}

// In returns the date of md in year. Feb 29 falls back to Feb 28 in common years.
func (md MonthDay) In(year int, loc *time.Location) time.Time {
	day := md.Day
	if last := time.Date(year, md.Month+1, 0, 0, 0, 0, 0, loc).Day(); day > last {
		day = last
	}
	return time.Date(year, md.Month, day, 0, 0, 0, 0, loc)
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(md.Month), md.Day)
}
