package academic

import (
	"time"

	"github.com/trezcool/presence/core"
)

type EventType string

const (
	EventClass          EventType = "class"
	EventHoliday        EventType = "holiday"
	EventExam           EventType = "exam"
	EventSpecial        EventType = "special"
	EventCancelledClass EventType = "cancelled_class"
)

// Event is a calendar entry. An empty SubjectID, FacultyID and a zero Semester mean "any".
type Event struct {
	ID                 string    `json:"id"`
	Type               EventType `json:"type"`
	Title              string    `json:"title"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	StartTime          *Clock    `json:"start_time,omitempty"`
	EndTime            *Clock    `json:"end_time,omitempty"`
	SubjectID          string    `json:"subject_id,omitempty"`
	FacultyID          string    `json:"faculty_id,omitempty"`
	Semester           int       `json:"semester,omitempty"`
	AttendanceRequired bool      `json:"attendance_required"`
	IsActive           bool      `json:"is_active"`
}

// Covers reports whether date falls within the event's day range.
func (e Event) Covers(date time.Time) bool {
	key := core.DateKey(date)
	return core.DateKey(e.StartDate) <= key && key <= core.DateKey(e.EndDate)
}

func (e Event) IsScopeFree() bool {
	return e.SubjectID == "" && e.FacultyID == "" && e.Semester == 0
}

func (e Event) AppliesTo(c Cohort) bool {
	return (e.FacultyID == "" || e.FacultyID == c.FacultyID) && (e.Semester == 0 || e.Semester == c.Semester)
}

func (e Event) isClosure() bool {
	return e.Type == EventHoliday || e.Type == EventCancelledClass
}

// Events is a set of calendar events with the lookups the attendance engine needs.
// Inactive events are ignored by every lookup.
type Events []Event

func (events Events) On(date time.Time) Events {
	var filtered Events
	for _, e := range events {
		if e.IsActive && e.Covers(date) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

func (events Events) any(date time.Time, match func(Event) bool) bool {
	for _, e := range events.On(date) {
		if match(e) {
			return true
		}
	}
	return false
}

// HasScopeFreeClosure reports an institution-wide holiday or cancelled day.
func (events Events) HasScopeFreeClosure(date time.Time) bool {
	return events.any(date, func(e Event) bool { return e.isClosure() && e.IsScopeFree() })
}

// HasHoliday reports a holiday on date that is institution-wide or scoped to the cohort.
func (events Events) HasHoliday(date time.Time, c Cohort) bool {
	return events.any(date, func(e Event) bool {
		return e.Type == EventHoliday && e.SubjectID == "" && e.AppliesTo(c)
	})
}

// IsDayCancelled reports a cancelled_class event covering every subject of the cohort.
func (events Events) IsDayCancelled(date time.Time, c Cohort) bool {
	return events.any(date, func(e Event) bool {
		return e.Type == EventCancelledClass && e.SubjectID == "" && e.AppliesTo(c)
	})
}

// IsCohortClosed is HasHoliday or IsDayCancelled.
func (events Events) IsCohortClosed(date time.Time, c Cohort) bool {
	return events.HasHoliday(date, c) || events.IsDayCancelled(date, c)
}

// IsSubjectCancelled reports a cancelled_class event for the given subject only.
func (events Events) IsSubjectCancelled(date time.Time, c Cohort, subjectID string) bool {
	return events.any(date, func(e Event) bool {
		return e.Type == EventCancelledClass && e.SubjectID != "" && e.SubjectID == subjectID && e.AppliesTo(c)
	})
}

func (events Events) HasClass(date time.Time, c Cohort) bool {
	return events.any(date, func(e Event) bool { return e.Type == EventClass && e.AppliesTo(c) })
}

func (events Events) HasAnyClass(date time.Time) bool {
	return events.any(date, func(e Event) bool { return e.Type == EventClass })
}
