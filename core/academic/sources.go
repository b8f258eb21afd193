package academic

import (
	"context"
	"time"
)

type (
	// Calendar is the read side of the calendar, owned by the calendar CRUD.
	Calendar interface {
		// EventsBetween returns the active events overlapping [from, to].
		EventsBetween(ctx context.Context, from, to time.Time) (Events, error)
	}

	// Schedule is the read side of the weekly timetable.
	Schedule interface {
		// CohortSlots returns the active slots of a cohort, every weekday.
		CohortSlots(ctx context.Context, c Cohort) (Slots, error)
		// WeekdaySlots returns the active slots of every cohort on a weekday.
		WeekdaySlots(ctx context.Context, wd time.Weekday) (Slots, error)
	}

	Roster interface {
		// GetStudent returns core.ErrNotFound for unknown students.
		GetStudent(ctx context.Context, id string) (Student, error)
		// CohortStudents returns the active students of a cohort, ordered by ID.
		CohortStudents(ctx context.Context, c Cohort) ([]Student, error)
	}
)
