package boiledrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/queries"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/academic"
)

const slotColumns = "id, faculty_id, semester, subject_id, weekday, start_minute, end_minute, is_active"

type slotRow struct {
	ID          string `boil:"id"`
	FacultyID   string `boil:"faculty_id"`
	Semester    int    `boil:"semester"`
	SubjectID   string `boil:"subject_id"`
	Weekday     int    `boil:"weekday"`
	StartMinute int    `boil:"start_minute"`
	EndMinute   int    `boil:"end_minute"`
	IsActive    bool   `boil:"is_active"`
}

func (row slotRow) slot() academic.Slot {
	return academic.Slot{
		ID:        row.ID,
		Cohort:    academic.Cohort{FacultyID: row.FacultyID, Semester: row.Semester},
		SubjectID: row.SubjectID,
		Weekday:   time.Weekday(row.Weekday),
		Start:     academic.Clock(row.StartMinute),
		End:       academic.Clock(row.EndMinute),
		IsActive:  row.IsActive,
	}
}

type scheduleRepository struct {
	exec core.DBExecutor
}

var _ academic.Schedule = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(exec core.DBExecutor) *scheduleRepository {
	return &scheduleRepository{exec: exec}
}

func (repo *scheduleRepository) getExec(exec []core.DBExecutor) core.DBExecutor {
	if len(exec) > 0 {
		return exec[0]
	}
	return repo.exec
}

func (repo *scheduleRepository) query(ctx context.Context, where string, args ...interface{}) (academic.Slots, error) {
	var rows []slotRow
	q := "SELECT " + slotColumns + " FROM schedule_slots WHERE is_active AND " + where + " ORDER BY weekday, start_minute, id"
	if err := queries.Raw(q, args...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "selecting schedule slots")
	}
	slots := make(academic.Slots, 0, len(rows))
	for _, row := range rows {
		slots = append(slots, row.slot())
	}
	return slots, nil
}

func (repo *scheduleRepository) CohortSlots(ctx context.Context, c academic.Cohort) (academic.Slots, error) {
	return repo.query(ctx, "faculty_id = $1 AND semester = $2", c.FacultyID, c.Semester)
}

func (repo *scheduleRepository) WeekdaySlots(ctx context.Context, wd time.Weekday) (academic.Slots, error) {
	return repo.query(ctx, "weekday = $1", int(wd))
}

// SaveSlot creates or replaces a schedule slot. Fixture seeding for the repository tests.
func (repo *scheduleRepository) SaveSlot(ctx context.Context, s academic.Slot, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx, `
		INSERT INTO schedule_slots (`+slotColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			faculty_id = EXCLUDED.faculty_id, semester = EXCLUDED.semester, subject_id = EXCLUDED.subject_id,
			weekday = EXCLUDED.weekday, start_minute = EXCLUDED.start_minute, end_minute = EXCLUDED.end_minute,
			is_active = EXCLUDED.is_active`,
		s.ID, s.Cohort.FacultyID, s.Cohort.Semester, s.SubjectID, int(s.Weekday), int(s.Start), int(s.End), s.IsActive,
	)
	return errors.Wrap(err, "saving schedule slot")
}
