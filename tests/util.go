package testutil

import (
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/academic"
	"github.com/trezcool/presence/core/accounting"
	"github.com/trezcool/presence/core/activity"
	"github.com/trezcool/presence/core/attendance"
	"github.com/trezcool/presence/core/daystatus"
	"github.com/trezcool/presence/core/period"
	"github.com/trezcool/presence/core/reconcile"
	"github.com/trezcool/presence/core/report"
	logsvc "github.com/trezcool/presence/services/logger"
	metricsvc "github.com/trezcool/presence/services/metrics"
	"github.com/trezcool/presence/storage/database/dummy"
)

// Cohort is the cohort most fixtures belong to.
var Cohort = academic.Cohort{FacultyID: "fac-eng", Semester: 2}

// Monday is the first day of the reference school week (Spring 2025, default boundaries).
var Monday = Date("2025-03-03")

// Date parses a YYYY-MM-DD day in UTC, the location of the test config.
func Date(s string) time.Time {
	d, err := time.ParseInLocation(core.DateLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return d
}

// At returns the instant hh:mm on day.
func At(day time.Time, hour, minute int) time.Time {
	return academic.NewClock(hour, minute).On(day)
}

// Clock returns a func usable as a mocked NowFunc, always returning t.
func Clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func NewLogger(conf *core.Config) *logsvc.RollbarLogger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

func NewValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)
	period.InitValidators(validate, translator)
	return validate
}

// Env is the whole engine wired over an in-memory database.
type Env struct {
	DB         *dummydb.DB
	Conf       *core.Config
	Logger     core.Logger
	Registry   *prometheus.Registry
	Roster     academic.Roster
	Calendar   academic.Calendar
	Schedule   academic.Schedule
	Ledger     attendance.Ledger
	Overrides  period.OverrideStore
	Resolver   *period.Resolver
	Periods    *period.Service
	Classifier *daystatus.Classifier
	Aggregator *report.Aggregator
	AutoAbsent *reconcile.AutoAbsent
	Cascade    *reconcile.Cascade
	Service    *accounting.Service
}

// NewEnv builds an Env; confFns may tweak the test config first.
func NewEnv(t *testing.T, confFns ...func(conf *core.Config)) *Env {
	t.Helper()

	conf := core.NewTestConfig()
	for _, fn := range confFns {
		fn(conf)
	}
	db := dummydb.Open()
	env := &Env{
		DB:        db,
		Conf:      conf,
		Logger:    NewLogger(conf),
		Registry:  prometheus.NewRegistry(),
		Roster:    dummydb.NewRosterRepository(db),
		Calendar:  dummydb.NewCalendarRepository(db),
		Schedule:  dummydb.NewScheduleRepository(db),
		Ledger:    dummydb.NewLedgerRepository(db),
		Overrides: dummydb.NewOverrideRepository(db),
	}
	validate := NewValidator()
	translator := core.NewTranslator()
	recorder := metricsvc.NewRecorder(env.Registry)

	env.Resolver = period.NewResolver(env.Overrides, conf, env.Logger)
	env.Periods = period.NewService(env.Overrides, env.Resolver, validate, translator, env.Logger)
	detector := activity.NewLedgerDetector(env.Calendar, env.Ledger)
	env.Classifier = daystatus.NewClassifier(env.Calendar, env.Schedule, env.Roster, env.Ledger, detector, env.Resolver, conf)
	env.Aggregator = report.NewAggregator(env.Classifier, env.Roster, env.Ledger, conf)

	var err error
	if env.AutoAbsent, err = reconcile.NewAutoAbsent(
		env.Calendar, env.Schedule, env.Roster, env.Ledger, conf, env.Logger, recorder,
	); err != nil {
		t.Fatalf("NewAutoAbsent() failed: %v", err)
	}
	if env.Cascade, err = reconcile.NewCascade(
		env.Schedule, env.Roster, env.Ledger, validate, translator, conf, env.Logger, recorder,
	); err != nil {
		t.Fatalf("NewCascade() failed: %v", err)
	}
	env.Service = accounting.NewService(
		env.Roster, env.Resolver, env.Classifier, env.Aggregator, env.AutoAbsent, env.Cascade, conf,
	)
	return env
}

// MockNow sets every engine clock to now until the test ends.
func MockNow(t *testing.T, now time.Time) {
	t.Helper()
	clock := Clock(now)
	period.NowFunc, daystatus.NowFunc, reconcile.NowFunc, accounting.NowFunc = clock, clock, clock, clock
	t.Cleanup(func() {
		period.NowFunc, daystatus.NowFunc, reconcile.NowFunc, accounting.NowFunc = time.Now, time.Now, time.Now, time.Now
	})
}

// CreateStudents stores n active students of c, with IDs prefix-01, prefix-02...
func CreateStudents(db *dummydb.DB, c academic.Cohort, prefix string, n int) []academic.Student {
	students := make([]academic.Student, 0, n)
	for i := 1; i <= n; i++ {
		students = append(students, academic.Student{
			ID:       fmt.Sprintf("%s-%02d", prefix, i),
			Name:     fmt.Sprintf("Student %s %d", prefix, i),
			Cohort:   c,
			IsActive: true,
		})
	}
	db.PutStudents(students...)
	return students
}

// NewSlot returns an active slot of c; start & end are "HH:MM".
func NewSlot(c academic.Cohort, subjectID string, wd time.Weekday, start, end string) academic.Slot {
	s, err := academic.ParseClock(start)
	if err != nil {
		panic(err)
	}
	e, err := academic.ParseClock(end)
	if err != nil {
		panic(err)
	}
	return academic.Slot{
		ID:        fmt.Sprintf("%s-%s-%d-%s", c, subjectID, wd, start),
		Cohort:    c,
		SubjectID: subjectID,
		Weekday:   wd,
		Start:     s,
		End:       e,
		IsActive:  true,
	}
}

// NewEvent returns an active, institution-wide event covering [from, to].
func NewEvent(typ academic.EventType, from, to time.Time) academic.Event {
	return academic.Event{
		ID:                 fmt.Sprintf("%s-%s-%s", typ, core.DateKey(from), core.DateKey(to)),
		Type:               typ,
		Title:              string(typ),
		StartDate:          from,
		EndDate:            to,
		AttendanceRequired: typ == academic.EventClass,
		IsActive:           true,
	}
}

// NewCohortEvent is NewEvent scoped to c.
func NewCohortEvent(typ academic.EventType, c academic.Cohort, from, to time.Time) academic.Event {
	e := NewEvent(typ, from, to)
	e.ID += "-" + c.String()
	e.FacultyID, e.Semester = c.FacultyID, c.Semester
	return e
}

// NewEntry returns a manual entry created at createdAt.
func NewEntry(studentID, subjectID string, date time.Time, status attendance.Status, createdAt time.Time) attendance.Entry {
	return attendance.NewEntry(studentID, subjectID, date, status, attendance.MethodManual, createdAt)
}

// SchoolWeek fills db with a Monday to Friday class week of c starting on monday:
// math & physics every weekday, a class event covering the week.
func SchoolWeek(db *dummydb.DB, c academic.Cohort, monday time.Time) {
	for wd := time.Monday; wd <= time.Friday; wd++ {
		db.PutSlots(
			NewSlot(c, "math", wd, "08:00", "10:00"),
			NewSlot(c, "physics", wd, "10:30", "12:00"),
		)
	}
	db.PutEvents(NewCohortEvent(academic.EventClass, c, monday, monday.AddDate(0, 0, 4)))
}
