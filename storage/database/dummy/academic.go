package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/academic"
)

type rosterRepository struct {
	db *studentTable
}

var _ academic.Roster = (*rosterRepository)(nil) // interface compliance check

func NewRosterRepository(db *DB) academic.Roster {
	return &rosterRepository{db: db.students}
}

func (repo *rosterRepository) GetStudent(_ context.Context, id string) (academic.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return s, nil
	}
	return academic.Student{}, core.ErrNotFound
}

func (repo *rosterRepository) CohortStudents(_ context.Context, c academic.Cohort) ([]academic.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var students []academic.Student
	for _, s := range repo.db.table {
		if s.IsActive && s.Cohort == c {
			students = append(students, s)
		}
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

type calendarRepository struct {
	db *eventTable
}

var _ academic.Calendar = (*calendarRepository)(nil) // interface compliance check

func NewCalendarRepository(db *DB) academic.Calendar {
	return &calendarRepository{db: db.calendar}
}

func (repo *calendarRepository) EventsBetween(_ context.Context, from, to time.Time) (academic.Events, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if repo.db.err != nil {
		return nil, repo.db.err
	}
	fromKey, toKey := core.DateKey(from), core.DateKey(to)
	var events academic.Events
	for _, e := range repo.db.table {
		if e.IsActive && core.DateKey(e.StartDate) <= toKey && core.DateKey(e.EndDate) >= fromKey {
			events = append(events, e)
		}
	}
	return events, nil
}

type scheduleRepository struct {
	db *slotTable
}

var _ academic.Schedule = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) academic.Schedule {
	return &scheduleRepository{db: db.schedule}
}

func (repo *scheduleRepository) filter(match func(academic.Slot) bool) academic.Slots {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var slots academic.Slots
	for _, s := range repo.db.table {
		if s.IsActive && match(s) {
			slots = append(slots, s)
		}
	}
	return slots
}

func (repo *scheduleRepository) CohortSlots(_ context.Context, c academic.Cohort) (academic.Slots, error) {
	return repo.filter(func(s academic.Slot) bool { return s.Cohort == c }), nil
}

func (repo *scheduleRepository) WeekdaySlots(_ context.Context, wd time.Weekday) (academic.Slots, error) {
	return repo.filter(func(s academic.Slot) bool { return s.Weekday == wd }), nil
}
