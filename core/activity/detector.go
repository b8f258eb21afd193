package activity

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/academic"
	"github.com/trezcool/presence/core/attendance"
)

// Status tells whether a cohort actually had class on a day.
type Status string

const (
	StatusNoClass        Status = "no_class"
	StatusSystemInactive Status = "system_inactive"
	StatusActive         Status = "active"
)

// Detector decides, per cohort and day, whether a class ran and the system was live.
type Detector interface {
	CohortStatus(ctx context.Context, c academic.Cohort, date time.Time) (Status, error)
	// CohortStatuses is keyed by core.DateKey.
	CohortStatuses(ctx context.Context, c academic.Cohort, from, to time.Time) (map[string]Status, error)
}

// Detect applies the detection rules to the calendar and the cohort's ledger entries of date.
// Evidence of a live system is an entry created on the class day itself, or any manually marked entry.
// Entries written by the auto-absent job are never evidence.
func Detect(events academic.Events, entries []attendance.Entry, c academic.Cohort, date time.Time) Status {
	if events.HasScopeFreeClosure(date) {
		return StatusNoClass
	}
	if !events.HasClass(date, c) {
		return StatusNoClass
	}
	for _, e := range entries {
		if e.IsSystem() || !core.SameDay(e.Date, date, date.Location()) {
			continue
		}
		if e.Method == attendance.MethodManual || core.SameDay(e.CreatedAt, date, date.Location()) {
			return StatusActive
		}
	}
	return StatusSystemInactive
}

// LedgerDetector reads the calendar and the ledger.
type LedgerDetector struct {
	calendar academic.Calendar
	ledger   attendance.Ledger
}

var _ Detector = (*LedgerDetector)(nil)

func NewLedgerDetector(calendar academic.Calendar, ledger attendance.Ledger) *LedgerDetector {
	return &LedgerDetector{calendar: calendar, ledger: ledger}
}

func (d *LedgerDetector) CohortStatus(ctx context.Context, c academic.Cohort, date time.Time) (Status, error) {
	statuses, err := d.CohortStatuses(ctx, c, date, date)
	if err != nil {
		return "", err
	}
	return statuses[core.DateKey(date)], nil
}

func (d *LedgerDetector) CohortStatuses(ctx context.Context, c academic.Cohort, from, to time.Time) (map[string]Status, error) {
	events, err := d.calendar.EventsBetween(ctx, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "loading calendar events")
	}
	entries, err := d.ledger.CohortEntries(ctx, c, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "loading cohort entries")
	}
	return DetectRange(events, attendance.ByDate(entries), c, from, to), nil
}

// DetectRange runs Detect over every day of [from, to]; entries are grouped with attendance.ByDate.
func DetectRange(events academic.Events, entries map[string][]attendance.Entry, c academic.Cohort, from, to time.Time) map[string]Status {
	statuses := make(map[string]Status, core.DaysInRange(from, to))
	core.EachDay(from, to, func(day time.Time) {
		key := core.DateKey(day)
		statuses[key] = Detect(events, entries[key], c, day)
	})
	return statuses
}
