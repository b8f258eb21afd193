package report

import (
	"time"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/academic"
	"github.com/trezcool/presence/core/daystatus"
)

// Summary rolls up a timeline of classified days. Every field is always set, zero when there is no data.
type Summary struct {
	From               time.Time `json:"from"`
	To                 time.Time `json:"to"`
	TotalDays          int       `json:"total_days"`
	TotalClassDays     int       `json:"total_class_days"`
	Present            int       `json:"present"`
	Absent             int       `json:"absent"`
	Late               int       `json:"late"`
	Partial            int       `json:"partial"`
	Holiday            int       `json:"holiday"`
	Cancelled          int       `json:"cancelled"`
	NoData             int       `json:"no_data"`
	SystemInactive     int       `json:"system_inactive"`
	DaysAttended       int       `json:"days_attended"`
	PercentagePresent  float64   `json:"percentage_present"`
	PercentageAttended float64   `json:"percentage_attended"`
}

func Summarize(from, to time.Time, days []daystatus.Day) Summary {
	s := Summary{From: from, To: to}
	for _, d := range days {
		s.add(d.Status)
	}
	s.finish()
	return s
}

func (s *Summary) add(status daystatus.Status) {
	s.TotalDays++
	switch status {
	case daystatus.StatusPresent:
		s.Present++
	case daystatus.StatusAbsent:
		s.Absent++
	case daystatus.StatusLate:
		s.Late++
	case daystatus.StatusPartial:
		s.Partial++
	case daystatus.StatusHoliday:
		s.Holiday++
	case daystatus.StatusCancelled:
		s.Cancelled++
	case daystatus.StatusNoData:
		s.NoData++
	case daystatus.StatusSystemInactive:
		s.SystemInactive++
	}
}

func (s *Summary) merge(other Summary) {
	s.TotalDays += other.TotalDays
	s.Present += other.Present
	s.Absent += other.Absent
	s.Late += other.Late
	s.Partial += other.Partial
	s.Holiday += other.Holiday
	s.Cancelled += other.Cancelled
	s.NoData += other.NoData
	s.SystemInactive += other.SystemInactive
}

func (s *Summary) finish() {
	s.TotalClassDays = s.Present + s.Absent + s.Late + s.Partial
	s.DaysAttended = s.Present + s.Late + s.Partial
	s.PercentagePresent = core.Percentage(s.Present, s.TotalClassDays)
	s.PercentageAttended = core.Percentage(s.DaysAttended, s.TotalClassDays)
}

type (
	StudentSummary struct {
		StudentID string          `json:"student_id"`
		Name      string          `json:"name"`
		Cohort    academic.Cohort `json:"cohort"`
		Summary
	}

	CohortSummary struct {
		Cohort   academic.Cohort  `json:"cohort"`
		Students []StudentSummary `json:"students"`
		// Totals adds up the days of every student.
		Totals Summary `json:"totals"`
	}

	SubjectSummary struct {
		SubjectID   string  `json:"subject_id"`
		ClassesHeld int     `json:"classes_held"`
		Present     int     `json:"present"`
		Late        int     `json:"late"`
		Absent      int     `json:"absent"`
		Attended    int     `json:"attended"`
		Percentage  float64 `json:"percentage"`
	}
)
