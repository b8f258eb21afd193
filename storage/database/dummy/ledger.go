package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/academic"
	"github.com/trezcool/presence/core/attendance"
)

type ledgerRepository struct {
	db       *entryTable
	students *studentTable
}

var _ attendance.Ledger = (*ledgerRepository)(nil) // interface compliance check

func NewLedgerRepository(db *DB) attendance.Ledger {
	return &ledgerRepository{db: db.ledger, students: db.students}
}

// cohortOf returns the students of the cohort, active or not.
func (repo *ledgerRepository) cohortOf(c academic.Cohort) map[string]bool {
	repo.students.RLock()
	defer repo.students.RUnlock()

	ids := make(map[string]bool)
	for _, s := range repo.students.table {
		if s.Cohort == c {
			ids[s.ID] = true
		}
	}
	return ids
}

func (repo *ledgerRepository) query(match func(attendance.Entry) bool) []attendance.Entry {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var entries []attendance.Entry
	for _, e := range repo.db.table {
		if match(e) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		ki, kj := entries[i].Key(), entries[j].Key()
		if ki.Date != kj.Date {
			return ki.Date < kj.Date
		}
		if ki.StudentID != kj.StudentID {
			return ki.StudentID < kj.StudentID
		}
		return ki.SubjectID < kj.SubjectID
	})
	return entries
}

func inRange(e attendance.Entry, fromKey, toKey string) bool {
	key := core.DateKey(e.Date)
	return fromKey <= key && key <= toKey
}

func (repo *ledgerRepository) StudentEntries(_ context.Context, studentID string, from, to time.Time) ([]attendance.Entry, error) {
	fromKey, toKey := core.DateKey(from), core.DateKey(to)
	return repo.query(func(e attendance.Entry) bool {
		return e.StudentID == studentID && inRange(e, fromKey, toKey)
	}), nil
}

func (repo *ledgerRepository) CohortEntries(_ context.Context, c academic.Cohort, from, to time.Time) ([]attendance.Entry, error) {
	ids := repo.cohortOf(c)
	fromKey, toKey := core.DateKey(from), core.DateKey(to)
	return repo.query(func(e attendance.Entry) bool {
		return ids[e.StudentID] && inRange(e, fromKey, toKey)
	}), nil
}

func (repo *ledgerRepository) HasCohortEntries(ctx context.Context, c academic.Cohort, date time.Time) (bool, error) {
	entries, err := repo.CohortEntries(ctx, c, date, date)
	return len(entries) > 0, err
}

func (repo *ledgerRepository) InsertIfAbsent(ctx context.Context, entries []attendance.Entry) (int, error) {
	var n int
	err := repo.WithTx(ctx, func(w attendance.Writer) (err error) {
		n, err = w.InsertIfAbsent(ctx, entries)
		return err
	})
	return n, err
}

func (repo *ledgerRepository) Upsert(ctx context.Context, entries []attendance.Entry) (int, error) {
	var n int
	err := repo.WithTx(ctx, func(w attendance.Writer) (err error) {
		n, err = w.Upsert(ctx, entries)
		return err
	})
	return n, err
}

// WithTx holds the ledger write lock for the whole of fn: writes are staged and
// only applied to the table when fn succeeds.
func (repo *ledgerRepository) WithTx(ctx context.Context, fn func(w attendance.Writer) error) error {
	tx := &ledgerTx{repo: repo, staged: make(map[attendance.Key]attendance.Entry)}

	repo.db.Lock()
	defer repo.db.Unlock()

	if err := fn(tx); err != nil {
		return err
	}
	for k, e := range tx.staged {
		repo.db.table[k] = e
	}
	return nil
}

// ledgerTx is the ledger seen from inside WithTx; the table lock is held by WithTx.
type ledgerTx struct {
	repo   *ledgerRepository
	staged map[attendance.Key]attendance.Entry
}

var _ attendance.Writer = (*ledgerTx)(nil) // interface compliance check

func (tx *ledgerTx) get(k attendance.Key) (attendance.Entry, bool) {
	if e, ok := tx.staged[k]; ok {
		return e, true
	}
	e, ok := tx.repo.db.table[k]
	return e, ok
}

func (tx *ledgerTx) HasCohortEntries(_ context.Context, c academic.Cohort, date time.Time) (bool, error) {
	ids := tx.repo.cohortOf(c)
	key := core.DateKey(date)
	for _, table := range []map[attendance.Key]attendance.Entry{tx.staged, tx.repo.db.table} {
		for k := range table {
			if ids[k.StudentID] && k.Date == key {
				return true, nil
			}
		}
	}
	return false, nil
}

func (tx *ledgerTx) InsertIfAbsent(_ context.Context, entries []attendance.Entry) (int, error) {
	if hook := tx.repo.db.insertHook; hook != nil {
		if err := hook(entries); err != nil {
			return 0, err
		}
	}
	n := 0
	for _, e := range entries {
		if _, ok := tx.get(e.Key()); ok {
			continue
		}
		tx.staged[e.Key()] = e
		n++
	}
	return n, nil
}

func (tx *ledgerTx) Upsert(_ context.Context, entries []attendance.Entry) (int, error) {
	if hook := tx.repo.db.insertHook; hook != nil {
		if err := hook(entries); err != nil {
			return 0, err
		}
	}
	for _, e := range entries {
		if old, ok := tx.get(e.Key()); ok {
			e.ID, e.CreatedAt = old.ID, old.CreatedAt
		}
		tx.staged[e.Key()] = e
	}
	return len(entries), nil
}
