package daystatus

import (
	"github.com/trezcool/presence/core/activity"
	"github.com/trezcool/presence/core/attendance"
)

// Status is the canonical outcome of one student's day.
type Status string

const (
	StatusPresent        Status = "present"
	StatusAbsent         Status = "absent"
	StatusLate           Status = "late"
	StatusPartial        Status = "partial"
	StatusHoliday        Status = "holiday"
	StatusCancelled      Status = "cancelled"
	StatusNoData         Status = "no_data"
	StatusSystemInactive Status = "system_inactive"
)

// IsNeutral reports statuses that neither count as a class day nor break a streak.
func (s Status) IsNeutral() bool {
	switch s {
	case StatusHoliday, StatusCancelled, StatusNoData, StatusSystemInactive:
		return true
	}
	return false
}

// Input is everything a day's status depends on.
type Input struct {
	Holiday     bool
	Cancelled   bool
	OutOfPeriod bool
	Future      bool
	Cohort      activity.Status
	Counts      attendance.Counts
	// Expected is the number of subjects scheduled for the cohort that weekday.
	Expected int
}

// Decide classifies a day. The first matching rule wins.
func Decide(in Input) Status {
	switch {
	case in.Holiday:
		return StatusHoliday
	case in.Cancelled:
		return StatusCancelled
	case in.OutOfPeriod:
		return StatusNoData
	case in.Cohort == activity.StatusNoClass:
		return StatusNoData
	case in.Future:
		return StatusNoData
	case in.Cohort == activity.StatusSystemInactive:
		return StatusSystemInactive
	}

	c := in.Counts
	switch {
	case c.Total() == 0, c.Attended() == 0:
		return StatusAbsent
	case c.Absent > 0:
		return StatusPartial
	case c.Total() < in.Expected:
		// missing coverage is incomplete, not present
		return StatusPartial
	case c.Present == 0:
		return StatusLate
	}
	return StatusPresent
}
