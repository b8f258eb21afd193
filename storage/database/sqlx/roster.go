package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/academic"
)

type studentRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	FacultyID string    `db:"faculty_id"`
	Semester  int       `db:"semester"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row studentRow) student() academic.Student {
	return academic.Student{
		ID:       row.ID,
		Name:     row.Name,
		Cohort:   academic.Cohort{FacultyID: row.FacultyID, Semester: row.Semester},
		IsActive: row.IsActive,
	}
}

type rosterRepository struct {
	db *sqlx.DB
}

var _ academic.Roster = (*rosterRepository)(nil) // interface compliance check

func NewRosterRepository(db *sqlx.DB) *rosterRepository {
	return &rosterRepository{db: db}
}

func (repo *rosterRepository) GetStudent(ctx context.Context, id string) (academic.Student, error) {
	var row studentRow
	err := sqlx.GetContext(ctx, repo.db, &row, repo.db.Rebind(`SELECT * FROM students WHERE id = ?`), id)
	if err == sql.ErrNoRows {
		return academic.Student{}, core.ErrNotFound
	}
	if err != nil {
		return academic.Student{}, errors.Wrap(err, "selecting student")
	}
	return row.student(), nil
}

func (repo *rosterRepository) CohortStudents(ctx context.Context, c academic.Cohort) ([]academic.Student, error) {
	var rows []studentRow
	q := repo.db.Rebind(`SELECT * FROM students WHERE faculty_id = ? AND semester = ? AND is_active ORDER BY id`)
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q, c.FacultyID, c.Semester); err != nil {
		return nil, errors.Wrap(err, "selecting cohort students")
	}
	students := make([]academic.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.student())
	}
	return students, nil
}

// SaveStudent creates or updates a student. Fixture seeding for the repository tests.
func (repo *rosterRepository) SaveStudent(ctx context.Context, s academic.Student) error {
	now := time.Now().UTC()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO students (id, name, faculty_id, semester, is_active, created_at, updated_at)
		VALUES (:id, :name, :faculty_id, :semester, :is_active, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			faculty_id = EXCLUDED.faculty_id,
			semester = EXCLUDED.semester,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at`,
		studentRow{
			ID:        s.ID,
			Name:      s.Name,
			FacultyID: s.Cohort.FacultyID,
			Semester:  s.Cohort.Semester,
			IsActive:  s.IsActive,
			CreatedAt: now,
			UpdatedAt: now,
		})
	return errors.Wrap(err, "saving student")
}
