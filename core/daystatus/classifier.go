package daystatus

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/academic"
	"github.com/trezcool/presence/core/activity"
	"github.com/trezcool/presence/core/attendance"
	"github.com/trezcool/presence/core/period"
)

var NowFunc = time.Now // mockable

type (
	PeriodResolver interface {
		Resolve(ctx context.Context, date time.Time) period.Period
	}

	Day struct {
		Date     time.Time         `json:"date"`
		Status   Status            `json:"status"`
		Counts   attendance.Counts `json:"counts"`
		Expected int               `json:"expected"`
	}

	Classifier struct {
		calendar academic.Calendar
		schedule academic.Schedule
		roster   academic.Roster
		ledger   attendance.Ledger
		detector activity.Detector
		periods  PeriodResolver
		loc      *time.Location
	}
)

func NewClassifier(
	calendar academic.Calendar,
	schedule academic.Schedule,
	roster academic.Roster,
	ledger attendance.Ledger,
	detector activity.Detector,
	periods PeriodResolver,
	conf *core.Config,
) *Classifier {
	return &Classifier{
		calendar: calendar,
		schedule: schedule,
		roster:   roster,
		ledger:   ledger,
		detector: detector,
		periods:  periods,
		loc:      conf.Location,
	}
}

func (c *Classifier) Location() *time.Location { return c.loc }

// Classify returns the status of one student's day.
func (c *Classifier) Classify(ctx context.Context, studentID string, date time.Time) (Day, error) {
	days, err := c.ClassifyRange(ctx, studentID, date, date)
	if err != nil {
		return Day{}, err
	}
	return days[0], nil
}

// ClassifyRange classifies every day of [from, to] against a single snapshot.
func (c *Classifier) ClassifyRange(ctx context.Context, studentID string, from, to time.Time) ([]Day, error) {
	from, to = core.DateOf(from, c.loc), core.DateOf(to, c.loc)
	if to.Before(from) {
		return nil, errors.Wrapf(core.ErrInvalidRange, "%s is before %s", core.DateKey(to), core.DateKey(from))
	}

	student, err := c.roster.GetStudent(ctx, studentID)
	if err != nil {
		return nil, errors.Wrapf(err, "getting student %s", studentID)
	}
	snap, err := c.Load(ctx, student.Cohort, from, to)
	if err != nil {
		return nil, err
	}
	entries, err := c.ledger.StudentEntries(ctx, student.ID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "loading student entries")
	}
	return snap.Days(entries), nil
}

// Load reads the calendar, schedule, cohort activity and periods of [from, to] once.
func (c *Classifier) Load(ctx context.Context, cohort academic.Cohort, from, to time.Time) (*Snapshot, error) {
	events, err := c.calendar.EventsBetween(ctx, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "loading calendar events")
	}
	slots, err := c.schedule.CohortSlots(ctx, cohort)
	if err != nil {
		return nil, errors.Wrap(err, "loading schedule")
	}
	statuses, err := c.detector.CohortStatuses(ctx, cohort, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "detecting cohort activity")
	}

	snap := &Snapshot{
		Cohort:   cohort,
		From:     from,
		To:       to,
		Today:    core.DateOf(NowFunc(), c.loc),
		Events:   events,
		Slots:    slots,
		Activity: statuses,
		InPeriod: make(map[string]bool, len(statuses)),
	}
	var p period.Period
	core.EachDay(from, to, func(day time.Time) {
		if !p.Contains(day) {
			p = c.periods.Resolve(ctx, day)
		}
		snap.InPeriod[core.DateKey(day)] = p.Contains(day)
	})
	return snap, nil
}

// Snapshot is the cohort-wide state a range of days is classified against.
type Snapshot struct {
	Cohort   academic.Cohort
	From, To time.Time
	Today    time.Time
	Events   academic.Events
	Slots    academic.Slots
	Activity map[string]activity.Status
	InPeriod map[string]bool
}

// Expected counts the distinct subjects scheduled on the weekday of day, leaving out cancelled ones.
func (s *Snapshot) Expected(day time.Time) int {
	n := 0
	for _, subjectID := range s.Slots.ForWeekday(day.Weekday()).Subjects() {
		if !s.Events.IsSubjectCancelled(day, s.Cohort, subjectID) {
			n++
		}
	}
	return n
}

// Input assembles the classification input of day from the student's entries of that day.
func (s *Snapshot) Input(day time.Time, entries []attendance.Entry) Input {
	key := core.DateKey(day)
	return Input{
		Holiday:     s.Events.HasHoliday(day, s.Cohort),
		Cancelled:   s.Events.IsDayCancelled(day, s.Cohort),
		OutOfPeriod: !s.InPeriod[key],
		Future:      key > core.DateKey(s.Today),
		Cohort:      s.Activity[key],
		Counts:      attendance.CountStatuses(entries),
		Expected:    s.Expected(day),
	}
}

// Days classifies every day of the snapshot for one student, in date order.
func (s *Snapshot) Days(entries []attendance.Entry) []Day {
	byDate := attendance.ByDate(entries)
	days := make([]Day, 0, core.DaysInRange(s.From, s.To))
	core.EachDay(s.From, s.To, func(day time.Time) {
		in := s.Input(day, byDate[core.DateKey(day)])
		days = append(days, Day{Date: day, Status: Decide(in), Counts: in.Counts, Expected: in.Expected})
	})
	return days
}
