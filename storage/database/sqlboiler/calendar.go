package boiledrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/academic"
)

// trapNoRowsErr maps psql "no rows" err to core.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return core.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func clockPtr(minute null.Int16) *academic.Clock {
	if !minute.Valid {
		return nil
	}
	c := academic.Clock(minute.Int16)
	return &c
}

func nullMinute(c *academic.Clock) null.Int16 {
	if c == nil {
		return null.Int16{}
	}
	return null.Int16From(int16(*c))
}

type eventRow struct {
	ID                 string      `boil:"id"`
	Type               string      `boil:"type"`
	Title              string      `boil:"title"`
	StartDate          time.Time   `boil:"start_date"`
	EndDate            time.Time   `boil:"end_date"`
	StartMinute        null.Int16  `boil:"start_minute"`
	EndMinute          null.Int16  `boil:"end_minute"`
	SubjectID          null.String `boil:"subject_id"`
	FacultyID          null.String `boil:"faculty_id"`
	Semester           null.Int16  `boil:"semester"`
	AttendanceRequired bool        `boil:"attendance_required"`
	IsActive           bool        `boil:"is_active"`
}

func (row eventRow) event(loc *time.Location) academic.Event {
	return academic.Event{
		ID:                 row.ID,
		Type:               academic.EventType(row.Type),
		Title:              row.Title,
		StartDate:          core.CivilDate(row.StartDate, loc),
		EndDate:            core.CivilDate(row.EndDate, loc),
		StartTime:          clockPtr(row.StartMinute),
		EndTime:            clockPtr(row.EndMinute),
		SubjectID:          row.SubjectID.String,
		FacultyID:          row.FacultyID.String,
		Semester:           int(row.Semester.Int16),
		AttendanceRequired: row.AttendanceRequired,
		IsActive:           row.IsActive,
	}
}

type calendarRepository struct {
	exec core.DBExecutor
	loc  *time.Location
}

var _ academic.Calendar = (*calendarRepository)(nil) // interface compliance check

func NewCalendarRepository(exec core.DBExecutor, conf *core.Config) *calendarRepository {
	return &calendarRepository{exec: exec, loc: conf.Location}
}

func (repo *calendarRepository) getExec(exec []core.DBExecutor) core.DBExecutor {
	if len(exec) > 0 {
		return exec[0]
	}
	return repo.exec
}

func (repo *calendarRepository) EventsBetween(ctx context.Context, from, to time.Time) (academic.Events, error) {
	var rows []eventRow
	err := queries.Raw(`
		SELECT id, type, title, start_date, end_date, start_minute, end_minute,
			subject_id, faculty_id, semester, attendance_required, is_active
		FROM calendar_events
		WHERE is_active AND start_date <= $2 AND end_date >= $1
		ORDER BY start_date, id`,
		core.DateKey(from), core.DateKey(to),
	).Bind(ctx, repo.exec, &rows)
	if err != nil {
		return nil, errors.Wrap(err, "selecting calendar events")
	}
	events := make(academic.Events, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.event(repo.loc))
	}
	return events, nil
}

// SaveEvent creates or replaces a calendar event. The calendar is maintained by its own CRUD;
// this only seeds fixtures for the repository tests.
func (repo *calendarRepository) SaveEvent(ctx context.Context, e academic.Event, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO calendar_events (id, type, title, start_date, end_date, start_minute, end_minute,
			subject_id, faculty_id, semester, attendance_required, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type, title = EXCLUDED.title,
			start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date,
			start_minute = EXCLUDED.start_minute, end_minute = EXCLUDED.end_minute,
			subject_id = EXCLUDED.subject_id, faculty_id = EXCLUDED.faculty_id, semester = EXCLUDED.semester,
			attendance_required = EXCLUDED.attendance_required, is_active = EXCLUDED.is_active`,
		e.ID, string(e.Type), e.Title, core.DateKey(e.StartDate), core.DateKey(e.EndDate),
		nullMinute(e.StartTime), nullMinute(e.EndTime),
		null.NewString(e.SubjectID, e.SubjectID != ""),
		null.NewString(e.FacultyID, e.FacultyID != ""),
		null.NewInt16(int16(e.Semester), e.Semester != 0),
		e.AttendanceRequired, e.IsActive,
	)
	return errors.Wrap(err, "saving calendar event")
}
