package reconcile

import (
	"context"
	"sort"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/academic"
	"github.com/trezcool/presence/core/attendance"
)

var NowFunc = time.Now // mockable

const autoAbsentNote = "no record after the scheduled end of class"

// Report is the outcome of one auto-absent run.
type Report struct {
	Date             time.Time `json:"date"`
	Skipped          bool      `json:"skipped"`
	Reason           string    `json:"reason,omitempty"`
	SlotsProcessed   int       `json:"slots_processed"`
	NewlyAbsent      int       `json:"newly_absent"`
	AlreadyCovered   int       `json:"already_covered"`
	SkippedCancelled int       `json:"skipped_cancelled"`
	SkippedPending   int       `json:"skipped_pending"`
	SkippedNoClass   int       `json:"skipped_no_class"`
	FailedEntries    int       `json:"failed_entries"`
}

var systemActor = core.Actor{ID: attendance.SystemMarker, Name: "auto-absent"}

// AutoAbsent fills in absences for the students without any record once a class is over.
type AutoAbsent struct {
	calendar  academic.Calendar
	schedule  academic.Schedule
	roster    academic.Roster
	ledger    attendance.Ledger
	batchSize int
	loc       *time.Location
	logger    core.Logger
	recorder  Recorder
}

func NewAutoAbsent(
	calendar academic.Calendar,
	schedule academic.Schedule,
	roster academic.Roster,
	ledger attendance.Ledger,
	conf *core.Config,
	logger core.Logger,
	recorder Recorder,
) (*AutoAbsent, error) {
	err := vala.BeginValidation().Validate(
		vala.IsNotNil(calendar, "calendar"),
		vala.IsNotNil(schedule, "schedule"),
		vala.IsNotNil(roster, "roster"),
		vala.IsNotNil(ledger, "ledger"),
		vala.GreaterThan(conf.Attendance.BatchSize, 0, "batchSize"),
	).Check()
	if err != nil {
		return nil, err
	}
	if recorder == nil {
		recorder = NopRecorder
	}
	return &AutoAbsent{
		calendar:  calendar,
		schedule:  schedule,
		roster:    roster,
		ledger:    ledger,
		batchSize: conf.Attendance.BatchSize,
		loc:       conf.Location,
		logger:    logger,
		recorder:  recorder,
	}, nil
}

// Run reconciles date. Only slots whose end is already past are handled, so it is safe to run
// repeatedly during the day; existing entries are never touched.
// When some sub-batches fail the report is returned along with a *core.BatchError.
func (aa *AutoAbsent) Run(ctx context.Context, date time.Time) (rep Report, err error) {
	start := NowFunc()
	defer func() { aa.recorder.AutoAbsentDone(rep, time.Since(start), err) }()

	date = core.DateOf(date, aa.loc)
	rep = Report{Date: date}

	events, err := aa.calendar.EventsBetween(ctx, date, date)
	if err != nil {
		return rep, errors.Wrap(err, "loading calendar events")
	}
	switch {
	case events.HasScopeFreeClosure(date):
		rep.Skipped, rep.Reason = true, "holiday or cancelled day"
		return rep, nil
	case !events.HasAnyClass(date):
		rep.Skipped, rep.Reason = true, "no class scheduled"
		return rep, nil
	}

	slots, err := aa.schedule.WeekdaySlots(ctx, date.Weekday())
	if err != nil {
		return rep, errors.Wrap(err, "loading schedule")
	}

	var absents []attendance.Entry
	now := start.In(aa.loc)
	cohorts, byCohort := slots.ByCohort()
	for _, cohort := range cohorts {
		entries, err := aa.cohortAbsents(ctx, &rep, events, cohort, byCohort[cohort], date, now)
		if err != nil {
			return rep, err
		}
		absents = append(absents, entries...)
	}

	bErr := &core.BatchError{}
	for _, batch := range chunk(absents, aa.batchSize) {
		var inserted int
		txErr := aa.ledger.WithTx(ctx, func(w attendance.Writer) error {
			n, err := w.InsertIfAbsent(ctx, batch)
			inserted = n
			return err
		})
		if txErr != nil {
			bErr.Failed += len(batch)
			bErr.Errs = append(bErr.Errs, txErr)
			aa.logger.Error("auto-absent sub-batch rolled back", txErr, systemActor)
			continue
		}
		rep.NewlyAbsent += inserted
		// rows recorded by someone else since the entries were loaded
		rep.AlreadyCovered += len(batch) - inserted
	}
	rep.FailedEntries = bErr.Failed

	if bErr.Failed > 0 {
		bErr.Completed = rep.NewlyAbsent
		return rep, bErr
	}
	aa.logger.Info("auto-absent run done", map[string]interface{}{
		"date":        core.DateKey(date),
		"slots":       rep.SlotsProcessed,
		"newlyAbsent": rep.NewlyAbsent,
	}, systemActor)
	return rep, nil
}

// cohortAbsents lists the absent entries owed by the cohort's finished slots of date.
func (aa *AutoAbsent) cohortAbsents(
	ctx context.Context,
	rep *Report,
	events academic.Events,
	cohort academic.Cohort,
	slots academic.Slots,
	date, now time.Time,
) ([]attendance.Entry, error) {
	slots = slots.ForWeekday(date.Weekday())
	if events.IsCohortClosed(date, cohort) {
		rep.SkippedCancelled += len(slots)
		return nil, nil
	}
	if !events.HasClass(date, cohort) {
		rep.SkippedNoClass += len(slots)
		return nil, nil
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Start < slots[j].Start })

	var (
		students []academic.Student
		covered  map[attendance.Key]bool
		absents  []attendance.Entry
	)
	for _, slot := range slots {
		if now.Before(slot.End.On(date)) {
			rep.SkippedPending++
			continue
		}
		if events.IsSubjectCancelled(date, cohort, slot.SubjectID) {
			rep.SkippedCancelled++
			continue
		}
		rep.SlotsProcessed++

		if covered == nil {
			var err error
			if students, err = aa.roster.CohortStudents(ctx, cohort); err != nil {
				return nil, errors.Wrapf(err, "listing students of %s", cohort)
			}
			existing, err := aa.ledger.CohortEntries(ctx, cohort, date, date)
			if err != nil {
				return nil, errors.Wrapf(err, "loading entries of %s", cohort)
			}
			covered = make(map[attendance.Key]bool, len(existing))
			for _, e := range existing {
				covered[e.Key()] = true
			}
		}

		for _, student := range students {
			e := attendance.NewEntry(student.ID, slot.SubjectID, date, attendance.StatusAbsent, attendance.MethodOther, now)
			if covered[e.Key()] {
				rep.AlreadyCovered++
				continue
			}
			covered[e.Key()] = true
			e.MarkedBy = attendance.SystemMarker
			e.Notes = autoAbsentNote
			absents = append(absents, e)
		}
	}
	return absents, nil
}
