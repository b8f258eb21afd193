package attendance

import (
	"context"
	"time"

	"github.com/trezcool/presence/core/academic"
)

type (
	// Writer is the ledger as seen from inside a transaction.
	Writer interface {
		// HasCohortEntries reports whether any student of the cohort has an entry on date, any subject.
		HasCohortEntries(ctx context.Context, c academic.Cohort, date time.Time) (bool, error)
		// InsertIfAbsent inserts the entries whose (student, subject, date) is free and
		// leaves existing rows untouched. It returns the number of rows inserted.
		InsertIfAbsent(ctx context.Context, entries []Entry) (int, error)
		// Upsert creates the entries or overwrites status, method, times, confidence, marker & notes.
		Upsert(ctx context.Context, entries []Entry) (int, error)
	}

	// Ledger is the attendance-entry store.
	Ledger interface {
		Writer

		// StudentEntries returns the student's entries with from <= date <= to, ordered by date.
		StudentEntries(ctx context.Context, studentID string, from, to time.Time) ([]Entry, error)
		// CohortEntries returns the entries of every student of the cohort with from <= date <= to.
		CohortEntries(ctx context.Context, c academic.Cohort, from, to time.Time) ([]Entry, error)
		// WithTx runs fn in a single transaction: committed when fn returns nil, rolled back otherwise.
		WithTx(ctx context.Context, fn func(w Writer) error) error
	}
)
