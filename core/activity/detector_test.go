package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/presence/core/academic"
	"github.com/trezcool/presence/core/attendance"
)

var (
	cohort  = academic.Cohort{FacultyID: "eng", Semester: 2}
	classDy = time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)
)

func classOn(date time.Time, c academic.Cohort) academic.Event {
	return academic.Event{
		Type: academic.EventClass, StartDate: date, EndDate: date,
		FacultyID: c.FacultyID, Semester: c.Semester, IsActive: true,
	}
}

func entry(method attendance.Method, createdAt time.Time, markedBy string) attendance.Entry {
	e := attendance.NewEntry("s1", "math", classDy, attendance.StatusPresent, method, createdAt)
	e.MarkedBy = markedBy
	return e
}

func TestDetect(t *testing.T) {
	class := academic.Events{classOn(classDy, cohort)}
	sameDay := classDy.Add(9 * time.Hour)
	nextDay := classDy.AddDate(0, 0, 1).Add(9 * time.Hour)

	tests := []struct {
		name    string
		events  academic.Events
		entries []attendance.Entry
		want    Status
	}{
		{
			name: "no class event",
			want: StatusNoClass,
		},
		{
			name:   "class of another cohort",
			events: academic.Events{classOn(classDy, academic.Cohort{FacultyID: "law", Semester: 2})},
			want:   StatusNoClass,
		},
		{
			name: "institution-wide holiday wins over the class",
			events: append(academic.Events{{
				Type: academic.EventHoliday, StartDate: classDy, EndDate: classDy, IsActive: true,
			}}, class...),
			entries: []attendance.Entry{entry(attendance.MethodManual, sameDay, "teacher-1")},
			want:    StatusNoClass,
		},
		{
			name:   "class without any entry",
			events: class,
			want:   StatusSystemInactive,
		},
		{
			name:    "auto entry created the same day",
			events:  class,
			entries: []attendance.Entry{entry(attendance.MethodAuto, sameDay, "")},
			want:    StatusActive,
		},
		{
			name:    "manual entry created later",
			events:  class,
			entries: []attendance.Entry{entry(attendance.MethodManual, nextDay, "teacher-1")},
			want:    StatusActive,
		},
		{
			name:    "auto entry backfilled later",
			events:  class,
			entries: []attendance.Entry{entry(attendance.MethodAuto, nextDay, "")},
			want:    StatusSystemInactive,
		},
		{
			name:   "system entries are no evidence",
			events: class,
			entries: []attendance.Entry{
				entry(attendance.MethodOther, sameDay, attendance.SystemMarker),
				entry(attendance.MethodManual, sameDay, attendance.SystemMarker),
			},
			want: StatusSystemInactive,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.events, tt.entries, cohort, classDy))
		})
	}
}

func TestDetectRange(t *testing.T) {
	events := academic.Events{classOn(classDy, cohort)}
	entries := attendance.ByDate([]attendance.Entry{entry(attendance.MethodManual, classDy, "teacher-1")})

	statuses := DetectRange(events, entries, cohort, classDy.AddDate(0, 0, -1), classDy.AddDate(0, 0, 1))
	assert.Equal(t, map[string]Status{
		"2025-08-03": StatusNoClass,
		"2025-08-04": StatusActive,
		"2025-08-05": StatusNoClass,
	}, statuses)
}
