package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/academic"
	"github.com/trezcool/presence/core/attendance"
)

const entryColumns = "id, student_id, subject_id, attendance_date, time_in, time_out, status, method, " +
	"confidence, marked_by, notes, created_at, updated_at"

type entryRow struct {
	ID         string      `db:"id"`
	StudentID  string      `db:"student_id"`
	SubjectID  string      `db:"subject_id"`
	Date       time.Time   `db:"attendance_date"`
	TimeIn     null.Time   `db:"time_in"`
	TimeOut    null.Time   `db:"time_out"`
	Status     string      `db:"status"`
	Method     string      `db:"method"`
	Confidence null.Int16  `db:"confidence"`
	MarkedBy   null.String `db:"marked_by"`
	Notes      string      `db:"notes"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

func (row entryRow) entry(loc *time.Location) attendance.Entry {
	e := attendance.Entry{
		ID:        row.ID,
		StudentID: row.StudentID,
		SubjectID: row.SubjectID,
		Date:      core.CivilDate(row.Date, loc),
		TimeIn:    row.TimeIn.Ptr(),
		TimeOut:   row.TimeOut.Ptr(),
		Status:    attendance.Status(row.Status),
		Method:    attendance.Method(row.Method),
		MarkedBy:  row.MarkedBy.String,
		Notes:     row.Notes,
		CreatedAt: row.CreatedAt.In(loc),
		UpdatedAt: row.UpdatedAt.In(loc),
	}
	if row.Confidence.Valid {
		c := int(row.Confidence.Int16)
		e.Confidence = &c
	}
	return e
}

// entryArgs returns the values of e in entryColumns order.
func entryArgs(e attendance.Entry) []interface{} {
	confidence := null.Int16{}
	if e.Confidence != nil {
		confidence = null.Int16From(int16(*e.Confidence))
	}
	return []interface{}{
		e.ID,
		e.StudentID,
		e.SubjectID,
		core.DateKey(e.Date),
		null.TimeFromPtr(e.TimeIn),
		null.TimeFromPtr(e.TimeOut),
		string(e.Status),
		string(e.Method),
		confidence,
		null.NewString(e.MarkedBy, e.MarkedBy != ""),
		e.Notes,
		e.CreatedAt.UTC(),
		e.UpdatedAt.UTC(),
	}
}

// ledgerWriter runs the write statements on a *sqlx.DB or a *sqlx.Tx.
type ledgerWriter struct {
	ext sqlx.ExtContext
	loc *time.Location
}

var _ attendance.Writer = (*ledgerWriter)(nil) // interface compliance check

func (w *ledgerWriter) HasCohortEntries(ctx context.Context, c academic.Cohort, date time.Time) (bool, error) {
	q := w.ext.Rebind(`SELECT EXISTS (
		SELECT 1 FROM attendance_entries e
		JOIN students s ON s.id = e.student_id
		WHERE s.faculty_id = ? AND s.semester = ? AND e.attendance_date = ?
	)`)
	var found bool
	if err := sqlx.GetContext(ctx, w.ext, &found, q, c.FacultyID, c.Semester, core.DateKey(date)); err != nil {
		return false, errors.Wrap(err, "checking cohort entries")
	}
	return found, nil
}

func (w *ledgerWriter) InsertIfAbsent(ctx context.Context, entries []attendance.Entry) (int, error) {
	return w.insert(ctx, entries, "ON CONFLICT (student_id, subject_id, attendance_date) DO NOTHING")
}

func (w *ledgerWriter) Upsert(ctx context.Context, entries []attendance.Entry) (int, error) {
	return w.insert(ctx, entries, `ON CONFLICT (student_id, subject_id, attendance_date) DO UPDATE SET
		time_in = EXCLUDED.time_in,
		time_out = EXCLUDED.time_out,
		status = EXCLUDED.status,
		method = EXCLUDED.method,
		confidence = EXCLUDED.confidence,
		marked_by = EXCLUDED.marked_by,
		notes = EXCLUDED.notes,
		updated_at = EXCLUDED.updated_at`)
}

// insert writes entries in a single multi-row statement and returns the number of affected rows.
func (w *ledgerWriter) insert(ctx context.Context, entries []attendance.Entry, onConflict string) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?, ", 13), ", ") + ")"
	values := make([]string, 0, len(entries))
	args := make([]interface{}, 0, len(entries)*13)
	for _, e := range entries {
		values = append(values, placeholder)
		args = append(args, entryArgs(e)...)
	}
	q := w.ext.Rebind("INSERT INTO attendance_entries (" + entryColumns + ") VALUES " +
		strings.Join(values, ", ") + " " + onConflict)

	res, err := w.ext.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, errors.Wrap(err, "inserting attendance entries")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting inserted entries")
	}
	return int(n), nil
}

type ledgerRepository struct {
	ledgerWriter
	db *sqlx.DB
}

var _ attendance.Ledger = (*ledgerRepository)(nil) // interface compliance check

func NewLedgerRepository(db *sqlx.DB, conf *core.Config) attendance.Ledger {
	return &ledgerRepository{
		ledgerWriter: ledgerWriter{ext: db, loc: conf.Location},
		db:           db,
	}
}

func (repo *ledgerRepository) selectEntries(ctx context.Context, q string, args ...interface{}) ([]attendance.Entry, error) {
	var rows []entryRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	entries := make([]attendance.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.entry(repo.loc))
	}
	return entries, nil
}

func (repo *ledgerRepository) StudentEntries(ctx context.Context, studentID string, from, to time.Time) ([]attendance.Entry, error) {
	entries, err := repo.selectEntries(ctx,
		`SELECT `+entryColumns+` FROM attendance_entries
		WHERE student_id = ? AND attendance_date BETWEEN ? AND ?
		ORDER BY attendance_date, subject_id`,
		studentID, core.DateKey(from), core.DateKey(to))
	return entries, errors.Wrap(err, "selecting student entries")
}

func (repo *ledgerRepository) CohortEntries(ctx context.Context, c academic.Cohort, from, to time.Time) ([]attendance.Entry, error) {
	entries, err := repo.selectEntries(ctx,
		`SELECT e.`+strings.ReplaceAll(entryColumns, ", ", ", e.")+` FROM attendance_entries e
		JOIN students s ON s.id = e.student_id
		WHERE s.faculty_id = ? AND s.semester = ? AND e.attendance_date BETWEEN ? AND ?
		ORDER BY e.attendance_date, e.student_id, e.subject_id`,
		c.FacultyID, c.Semester, core.DateKey(from), core.DateKey(to))
	return entries, errors.Wrap(err, "selecting cohort entries")
}

func (repo *ledgerRepository) WithTx(ctx context.Context, fn func(w attendance.Writer) error) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(&ledgerWriter{ext: tx, loc: repo.loc}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rolling back: %v", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}
