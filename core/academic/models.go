package academic

import (
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/presence/core"
)

// Cohort is the (faculty, semester) pair sharing one calendar and schedule.
type Cohort struct {
	FacultyID string `json:"faculty_id"`
	Semester  int    `json:"semester"`
}

func (c Cohort) IsZero() bool { return c.FacultyID == "" && c.Semester == 0 }

func (c Cohort) String() string {
	return fmt.Sprintf("%s/%d", c.FacultyID, c.Semester)
}

type Student struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Cohort   Cohort `json:"cohort"`
	IsActive bool   `json:"is_active"`
}

// Clock is a time of day, in minutes since midnight.
type Clock int

func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(core.CleanString(s), "%d:%d", &hour, &minute); err != nil {
		return 0, errors.Wrapf(err, "parsing clock %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, errors.Errorf("invalid clock %q", s)
	}
	return NewClock(hour, minute), nil
}

// On returns the instant of c on the calendar day of date.
func (c Clock) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, int(c)/60, int(c)%60, 0, 0, date.Location())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Slot is a weekly timetable entry of a cohort.
type Slot struct {
	ID        string       `json:"id"`
	Cohort    Cohort       `json:"cohort"`
	SubjectID string       `json:"subject_id"`
	Weekday   time.Weekday `json:"weekday"`
	Start     Clock        `json:"start"`
	End       Clock        `json:"end"`
	IsActive  bool         `json:"is_active"`
}

type Slots []Slot

func (slots Slots) ForWeekday(wd time.Weekday) Slots {
	var filtered Slots
	for _, s := range slots {
		if s.Weekday == wd && s.IsActive {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// Subjects returns the distinct subjects, sorted.
func (slots Slots) Subjects() []string {
	seen := make(map[string]bool, len(slots))
	subjects := make([]string, 0, len(slots))
	for _, s := range slots {
		if !seen[s.SubjectID] {
			seen[s.SubjectID] = true
			subjects = append(subjects, s.SubjectID)
		}
	}
	sort.Strings(subjects)
	return subjects
}

// ByCohort groups slots per cohort, cohorts sorted for deterministic processing.
func (slots Slots) ByCohort() ([]Cohort, map[Cohort]Slots) {
	grouped := make(map[Cohort]Slots)
	var cohorts []Cohort
	for _, s := range slots {
		if _, ok := grouped[s.Cohort]; !ok {
			cohorts = append(cohorts, s.Cohort)
		}
		grouped[s.Cohort] = append(grouped[s.Cohort], s)
	}
	sort.Slice(cohorts, func(i, j int) bool {
		if cohorts[i].FacultyID != cohorts[j].FacultyID {
			return cohorts[i].FacultyID < cohorts[j].FacultyID
		}
		return cohorts[i].Semester < cohorts[j].Semester
	})
	return cohorts, grouped
}
