package report

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/academic"
	"github.com/trezcool/presence/core/activity"
	"github.com/trezcool/presence/core/attendance"
	"github.com/trezcool/presence/core/daystatus"
)

// Aggregator turns classified days into percentages.
type Aggregator struct {
	classifier   *daystatus.Classifier
	roster       academic.Roster
	ledger       attendance.Ledger
	maxRangeDays int
	workers      int
	loc          *time.Location
}

func NewAggregator(classifier *daystatus.Classifier, roster academic.Roster, ledger attendance.Ledger, conf *core.Config) *Aggregator {
	workers := conf.Attendance.CohortWorkers
	if workers < 1 {
		workers = 1
	}
	return &Aggregator{
		classifier:   classifier,
		roster:       roster,
		ledger:       ledger,
		maxRangeDays: conf.Attendance.MaxRangeDays,
		workers:      workers,
		loc:          conf.Location,
	}
}

// ValidateRange normalizes [from, to] to calendar days and rejects reversed or oversized windows.
func (a *Aggregator) ValidateRange(from, to time.Time) (time.Time, time.Time, error) {
	from, to = core.DateOf(from, a.loc), core.DateOf(to, a.loc)
	if to.Before(from) {
		return from, to, errors.Wrapf(core.ErrInvalidRange, "%s is before %s", core.DateKey(to), core.DateKey(from))
	}
	if a.maxRangeDays > 0 && core.DaysInRange(from, to) > a.maxRangeDays {
		return from, to, errors.Wrapf(core.ErrInvalidRange, "window exceeds %d days", a.maxRangeDays)
	}
	return from, to, nil
}

func (a *Aggregator) Student(ctx context.Context, studentID string, from, to time.Time) (StudentSummary, error) {
	from, to, err := a.ValidateRange(from, to)
	if err != nil {
		return StudentSummary{}, err
	}
	student, err := a.roster.GetStudent(ctx, studentID)
	if err != nil {
		return StudentSummary{}, errors.Wrapf(err, "getting student %s", studentID)
	}
	days, err := a.classifier.ClassifyRange(ctx, student.ID, from, to)
	if err != nil {
		return StudentSummary{}, err
	}
	return StudentSummary{
		StudentID: student.ID,
		Name:      student.Name,
		Cohort:    student.Cohort,
		Summary:   Summarize(from, to, days),
	}, nil
}

// Cohort summarizes every active student of the cohort against one shared snapshot.
func (a *Aggregator) Cohort(ctx context.Context, cohort academic.Cohort, from, to time.Time) (CohortSummary, error) {
	from, to, err := a.ValidateRange(from, to)
	if err != nil {
		return CohortSummary{}, err
	}
	students, err := a.roster.CohortStudents(ctx, cohort)
	if err != nil {
		return CohortSummary{}, errors.Wrapf(err, "listing students of %s", cohort)
	}
	res := CohortSummary{
		Cohort:   cohort,
		Students: make([]StudentSummary, len(students)),
		Totals:   Summary{From: from, To: to},
	}
	if len(students) == 0 {
		return res, nil
	}

	snap, err := a.classifier.Load(ctx, cohort, from, to)
	if err != nil {
		return CohortSummary{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, student := range students {
		i, student := i, student
		g.Go(func() error {
			entries, err := a.ledger.StudentEntries(gctx, student.ID, from, to)
			if err != nil {
				return errors.Wrapf(err, "loading entries of %s", student.ID)
			}
			res.Students[i] = StudentSummary{
				StudentID: student.ID,
				Name:      student.Name,
				Cohort:    student.Cohort,
				Summary:   Summarize(from, to, snap.Days(entries)),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return CohortSummary{}, err
	}

	for _, s := range res.Students {
		res.Totals.merge(s.Summary)
	}
	res.Totals.finish()
	return res, nil
}

// Subjects breaks a student's attendance down per scheduled subject.
// A class counts as held on days the cohort was active and the subject was scheduled and not cancelled,
// whatever the student's own records say.
func (a *Aggregator) Subjects(ctx context.Context, studentID string, from, to time.Time) ([]SubjectSummary, error) {
	from, to, err := a.ValidateRange(from, to)
	if err != nil {
		return nil, err
	}
	student, err := a.roster.GetStudent(ctx, studentID)
	if err != nil {
		return nil, errors.Wrapf(err, "getting student %s", studentID)
	}
	snap, err := a.classifier.Load(ctx, student.Cohort, from, to)
	if err != nil {
		return nil, err
	}
	entries, err := a.ledger.StudentEntries(ctx, student.ID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "loading student entries")
	}
	return BreakDown(snap, entries), nil
}

// BreakDown computes the per-subject summaries of one student's entries, ordered by subject.
func BreakDown(snap *daystatus.Snapshot, entries []attendance.Entry) []SubjectSummary {
	bySubject := make(map[string]*SubjectSummary)
	for _, subjectID := range snap.Slots.Subjects() {
		bySubject[subjectID] = &SubjectSummary{SubjectID: subjectID}
	}

	byDate := attendance.ByDate(entries)
	core.EachDay(snap.From, snap.To, func(day time.Time) {
		if !held(snap, day) {
			return
		}
		heldToday := make(map[string]bool)
		for _, subjectID := range snap.Slots.ForWeekday(day.Weekday()).Subjects() {
			if snap.Events.IsSubjectCancelled(day, snap.Cohort, subjectID) {
				continue
			}
			heldToday[subjectID] = true
			bySubject[subjectID].ClassesHeld++
		}
		for _, e := range byDate[core.DateKey(day)] {
			if !heldToday[e.SubjectID] {
				continue
			}
			sub := bySubject[e.SubjectID]
			switch e.Status {
			case attendance.StatusPresent:
				sub.Present++
			case attendance.StatusLate:
				sub.Late++
			case attendance.StatusAbsent:
				sub.Absent++
			}
		}
	})

	summaries := make([]SubjectSummary, 0, len(bySubject))
	for _, sub := range bySubject {
		sub.Attended = sub.Present + sub.Late
		sub.Percentage = core.Percentage(sub.Attended, sub.ClassesHeld)
		summaries = append(summaries, *sub)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].SubjectID < summaries[j].SubjectID })
	return summaries
}

// held reports a day on which the cohort's classes actually took place.
func held(snap *daystatus.Snapshot, day time.Time) bool {
	in := snap.Input(day, nil)
	return !in.Holiday && !in.Cancelled && !in.OutOfPeriod && !in.Future && in.Cohort == activity.StatusActive
}
