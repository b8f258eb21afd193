package dummydb

import (
	"sync"

	"github.com/trezcool/presence/core/academic"
	"github.com/trezcool/presence/core/attendance"
	"github.com/trezcool/presence/core/period"
)

type (
	// DB is an in-memory store implementing every contract of the engine.
	DB struct {
		students  *studentTable
		calendar  *eventTable
		schedule  *slotTable
		ledger    *entryTable
		overrides *overrideTable
	}

	studentTable struct {
		sync.RWMutex
		table map[string]academic.Student
	}

	eventTable struct {
		sync.RWMutex
		table []academic.Event
		err   error
	}

	slotTable struct {
		sync.RWMutex
		table []academic.Slot
	}

	entryTable struct {
		sync.RWMutex
		table map[attendance.Key]attendance.Entry
		// insertHook is called before each write statement; a non-nil error fails it.
		insertHook func(entries []attendance.Entry) error
	}

	overrideTable struct {
		sync.RWMutex
		table map[string]period.Override
		err   error
	}
)

func Open() *DB {
	return &DB{
		students:  &studentTable{table: make(map[string]academic.Student)},
		calendar:  &eventTable{},
		schedule:  &slotTable{},
		ledger:    &entryTable{table: make(map[attendance.Key]attendance.Entry)},
		overrides: &overrideTable{table: make(map[string]period.Override)},
	}
}

func (db *DB) PutStudents(students ...academic.Student) {
	db.students.Lock()
	defer db.students.Unlock()
	for _, s := range students {
		db.students.table[s.ID] = s
	}
}

func (db *DB) PutEvents(events ...academic.Event) {
	db.calendar.Lock()
	defer db.calendar.Unlock()
	db.calendar.table = append(db.calendar.table, events...)
}

func (db *DB) PutSlots(slots ...academic.Slot) {
	db.schedule.Lock()
	defer db.schedule.Unlock()
	db.schedule.table = append(db.schedule.table, slots...)
}

// PutEntries stores entries as is, overwriting any entry with the same key.
func (db *DB) PutEntries(entries ...attendance.Entry) {
	db.ledger.Lock()
	defer db.ledger.Unlock()
	for _, e := range entries {
		db.ledger.table[e.Key()] = e
	}
}

// Entries returns a copy of every ledger entry.
func (db *DB) Entries() []attendance.Entry {
	db.ledger.RLock()
	defer db.ledger.RUnlock()
	entries := make([]attendance.Entry, 0, len(db.ledger.table))
	for _, e := range db.ledger.table {
		entries = append(entries, e)
	}
	return entries
}

// SetInsertHook installs a hook run before every ledger write; nil removes it.
func (db *DB) SetInsertHook(hook func(entries []attendance.Entry) error) {
	db.ledger.Lock()
	defer db.ledger.Unlock()
	db.ledger.insertHook = hook
}

// SetCalendarError makes every calendar read fail with err; nil restores it.
func (db *DB) SetCalendarError(err error) {
	db.calendar.Lock()
	defer db.calendar.Unlock()
	db.calendar.err = err
}

// SetOverrideError makes every override read fail with err; nil restores it.
func (db *DB) SetOverrideError(err error) {
	db.overrides.Lock()
	defer db.overrides.Unlock()
	db.overrides.err = err
}
