package reconcile

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/academic"
	"github.com/trezcool/presence/core/attendance"
)

const cascadeNote = "absent by default: no record when the day was bulk-marked"

type Mode string

const (
	// ModeNormal applies the submitted marks only.
	ModeNormal Mode = "normal"
	// ModeRecovery also backfills the whole cohort, the day having no record at all.
	ModeRecovery Mode = "recovery"
)

type (
	Mark struct {
		StudentID string            `json:"student_id" validate:"required"`
		Status    attendance.Status `json:"status" validate:"required,status"`
		Notes     string            `json:"notes"`
	}

	MarkRequest struct {
		SubjectID string    `json:"subject_id" validate:"required"`
		Date      time.Time `json:"date" validate:"required"`
		Entries   []Mark    `json:"entries" validate:"required,min=1,unique=StudentID,dive"`
		MarkedBy  string    `json:"marked_by" validate:"required"`
	}

	CascadeReport struct {
		Mode   Mode            `json:"mode"`
		Cohort academic.Cohort `json:"cohort"`
		Date   time.Time       `json:"date"`
		// Explicit is the number of submitted marks written.
		Explicit      int `json:"explicit"`
		DefaultAbsent int `json:"default_absent"`
		// AlreadyRecorded counts the backfill pairs that had an entry already.
		AlreadyRecorded int `json:"already_recorded"`
		Total           int `json:"total"`
	}

	// Cascade bulk-marks a subject's attendance, backfilling a cohort's day that has no record at all.
	Cascade struct {
		schedule   academic.Schedule
		roster     academic.Roster
		ledger     attendance.Ledger
		validate   *validator.Validate
		translator ut.Translator
		batchSize  int
		loc        *time.Location
		logger     core.Logger
		recorder   Recorder
	}
)

func NewCascade(
	schedule academic.Schedule,
	roster academic.Roster,
	ledger attendance.Ledger,
	validate *validator.Validate,
	translator ut.Translator,
	conf *core.Config,
	logger core.Logger,
	recorder Recorder,
) (*Cascade, error) {
	err := vala.BeginValidation().Validate(
		vala.IsNotNil(schedule, "schedule"),
		vala.IsNotNil(roster, "roster"),
		vala.IsNotNil(ledger, "ledger"),
		vala.IsNotNil(validate, "validate"),
		vala.GreaterThan(conf.Attendance.BatchSize, 0, "batchSize"),
	).Check()
	if err != nil {
		return nil, err
	}
	if recorder == nil {
		recorder = NopRecorder
	}
	return &Cascade{
		schedule:   schedule,
		roster:     roster,
		ledger:     ledger,
		validate:   validate,
		translator: translator,
		batchSize:  conf.Attendance.BatchSize,
		loc:        conf.Location,
		logger:     logger,
		recorder:   recorder,
	}, nil
}

// Mark writes the submitted marks in a single transaction. Submitted marks always win:
// they overwrite existing entries, while the recovery backfill only fills free pairs.
func (c *Cascade) Mark(ctx context.Context, req MarkRequest) (rep CascadeReport, err error) {
	start := NowFunc()
	defer func() { c.recorder.CascadeDone(rep, time.Since(start), err) }()

	if err := c.validate.Struct(req); err != nil {
		return CascadeReport{}, core.TranslateErrors(err, c.translator)
	}
	date := core.DateOf(req.Date, c.loc)
	now := start.In(c.loc)

	cohort, err := c.resolveCohort(ctx, req.Entries)
	if err != nil {
		return CascadeReport{}, err
	}

	explicit := make([]attendance.Entry, 0, len(req.Entries))
	submitted := make(map[attendance.Key]bool, len(req.Entries))
	for _, m := range req.Entries {
		e := attendance.NewEntry(m.StudentID, req.SubjectID, date, m.Status, attendance.MethodManual, now)
		e.MarkedBy = req.MarkedBy
		e.Notes = core.CleanString(m.Notes)
		explicit = append(explicit, e)
		submitted[e.Key()] = true
	}

	// read outside of the transaction: roster & schedule are not ledger state
	students, err := c.roster.CohortStudents(ctx, cohort)
	if err != nil {
		return CascadeReport{}, errors.Wrapf(err, "listing students of %s", cohort)
	}
	slots, err := c.schedule.CohortSlots(ctx, cohort)
	if err != nil {
		return CascadeReport{}, errors.Wrap(err, "loading schedule")
	}
	subjects := slots.ForWeekday(date.Weekday()).Subjects()
	if !contains(subjects, req.SubjectID) {
		subjects = append(subjects, req.SubjectID)
	}

	res := CascadeReport{Mode: ModeNormal, Cohort: cohort, Date: date}
	err = c.ledger.WithTx(ctx, func(w attendance.Writer) error {
		recorded, err := w.HasCohortEntries(ctx, cohort, date)
		if err != nil {
			return errors.Wrap(err, "checking cohort entries")
		}
		for _, batch := range chunk(explicit, c.batchSize) {
			if _, err := w.Upsert(ctx, batch); err != nil {
				return errors.Wrap(err, "writing submitted marks")
			}
		}
		res.Explicit = len(explicit)
		if recorded {
			return nil
		}

		res.Mode = ModeRecovery
		var defaults []attendance.Entry
		for _, student := range students {
			for _, subjectID := range subjects {
				e := attendance.NewEntry(student.ID, subjectID, date, attendance.StatusAbsent, attendance.MethodManual, now)
				if submitted[e.Key()] {
					continue
				}
				e.MarkedBy = req.MarkedBy
				e.Notes = cascadeNote
				defaults = append(defaults, e)
			}
		}
		for _, batch := range chunk(defaults, c.batchSize) {
			n, err := w.InsertIfAbsent(ctx, batch)
			if err != nil {
				return errors.Wrap(err, "backfilling absences")
			}
			res.DefaultAbsent += n
		}
		res.AlreadyRecorded = len(defaults) - res.DefaultAbsent
		return nil
	})
	if err != nil {
		c.logger.Error("bulk mark rolled back", err, core.Actor{ID: req.MarkedBy})
		return CascadeReport{Mode: res.Mode, Cohort: cohort, Date: date}, err
	}

	res.Total = res.Explicit + res.DefaultAbsent
	c.logger.Info("bulk mark done", map[string]interface{}{
		"mode":    res.Mode,
		"cohort":  cohort.String(),
		"date":    core.DateKey(date),
		"total":   res.Total,
		"subject": req.SubjectID,
	}, core.Actor{ID: req.MarkedBy})
	return res, nil
}

// resolveCohort returns the cohort shared by every submitted student.
func (c *Cascade) resolveCohort(ctx context.Context, marks []Mark) (academic.Cohort, error) {
	var cohort academic.Cohort
	for i, m := range marks {
		student, err := c.roster.GetStudent(ctx, m.StudentID)
		if err != nil {
			return academic.Cohort{}, errors.Wrapf(err, "getting student %s", m.StudentID)
		}
		if i == 0 {
			cohort = student.Cohort
			continue
		}
		if student.Cohort != cohort {
			err := errors.Errorf("student %s is not in cohort %s", m.StudentID, cohort)
			return academic.Cohort{}, core.NewValidationError(err, core.FieldError{Field: "entries", Error: err.Error()})
		}
	}
	return cohort, nil
}

func contains(items []string, item string) bool {
	for _, it := range items {
		if it == item {
			return true
		}
	}
	return false
}
