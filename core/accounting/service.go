// Package accounting exposes the attendance accounting operations to the outer layers.
package accounting

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/academic"
	"github.com/trezcool/presence/core/achievement"
	"github.com/trezcool/presence/core/daystatus"
	"github.com/trezcool/presence/core/period"
	"github.com/trezcool/presence/core/reconcile"
	"github.com/trezcool/presence/core/report"
)

var NowFunc = time.Now // mockable

type Service struct {
	roster     academic.Roster
	periods    *period.Resolver
	classifier *daystatus.Classifier
	aggregator *report.Aggregator
	autoAbsent *reconcile.AutoAbsent
	cascade    *reconcile.Cascade
	loc        *time.Location
}

func NewService(
	roster academic.Roster,
	periods *period.Resolver,
	classifier *daystatus.Classifier,
	aggregator *report.Aggregator,
	autoAbsent *reconcile.AutoAbsent,
	cascade *reconcile.Cascade,
	conf *core.Config,
) *Service {
	return &Service{
		roster:     roster,
		periods:    periods,
		classifier: classifier,
		aggregator: aggregator,
		autoAbsent: autoAbsent,
		cascade:    cascade,
		loc:        conf.Location,
	}
}

func (svc *Service) today() time.Time {
	return core.DateOf(NowFunc(), svc.loc)
}

func (svc *Service) ResolvePeriod(ctx context.Context, date time.Time) period.Period {
	return svc.periods.Resolve(ctx, core.DateOf(date, svc.loc))
}

func (svc *Service) ClassifyDay(ctx context.Context, studentID string, date time.Time) (daystatus.Day, error) {
	return svc.classifier.Classify(ctx, studentID, date)
}

func (svc *Service) AggregateStudent(ctx context.Context, studentID string, from, to time.Time) (report.StudentSummary, error) {
	return svc.aggregator.Student(ctx, studentID, from, to)
}

func (svc *Service) AggregateCohort(ctx context.Context, cohort academic.Cohort, from, to time.Time) (report.CohortSummary, error) {
	return svc.aggregator.Cohort(ctx, cohort, from, to)
}

// SubjectBreakdown breaks down p, the current period when p is zero.
func (svc *Service) SubjectBreakdown(ctx context.Context, studentID string, p period.Period) ([]report.SubjectSummary, error) {
	if p.Start.IsZero() {
		p = svc.periods.Resolve(ctx, svc.today())
	}
	return svc.aggregator.Subjects(ctx, studentID, p.Start, p.End)
}

// RunAutoAbsent reconciles date, today when date is zero.
func (svc *Service) RunAutoAbsent(ctx context.Context, date time.Time) (reconcile.Report, error) {
	if date.IsZero() {
		date = svc.today()
	}
	return svc.autoAbsent.Run(ctx, date)
}

func (svc *Service) BulkMark(ctx context.Context, req reconcile.MarkRequest) (reconcile.CascadeReport, error) {
	return svc.cascade.Mark(ctx, req)
}

// ComputeStreaks computes the streaks of the current semester, up to today.
func (svc *Service) ComputeStreaks(ctx context.Context, studentID string) (achievement.Streaks, error) {
	days, today, err := svc.semesterDays(ctx, studentID)
	if err != nil {
		return achievement.Streaks{}, err
	}
	return achievement.ComputeStreaks(days, today), nil
}

// ComputeBadges rates the current semester, up to today.
func (svc *Service) ComputeBadges(ctx context.Context, studentID string) (achievement.BadgeSet, error) {
	days, today, err := svc.semesterDays(ctx, studentID)
	if err != nil {
		return achievement.BadgeSet{}, err
	}
	var from, to time.Time
	if len(days) > 0 {
		from, to = days[0].Date, days[len(days)-1].Date
	}
	summary := report.Summarize(from, to, days)
	return achievement.ComputeBadges(summary.PercentagePresent, achievement.ComputeStreaks(days, today)), nil
}

// semesterDays classifies the days of the current semester up to today.
func (svc *Service) semesterDays(ctx context.Context, studentID string) ([]daystatus.Day, time.Time, error) {
	today := svc.today()
	p := svc.periods.Resolve(ctx, today)
	from, to, ok := p.Clamp(p.Start, today)
	if !ok {
		// the term has not started yet
		if _, err := svc.roster.GetStudent(ctx, studentID); err != nil {
			return nil, today, errors.Wrapf(err, "getting student %s", studentID)
		}
		return nil, today, nil
	}
	days, err := svc.classifier.ClassifyRange(ctx, studentID, from, to)
	return days, today, err
}
