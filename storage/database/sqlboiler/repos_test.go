package boiledrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/academic"
	"github.com/trezcool/presence/core/period"
	"github.com/trezcool/presence/storage/database/sqlboiler"
	"github.com/trezcool/presence/tests"
)

func TestCalendarRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	calendar := boiledrepos.NewCalendarRepository(db, core.NewTestConfig())
	monday := testutil.Monday

	class := testutil.NewCohortEvent(academic.EventClass, testutil.Cohort, monday, monday.AddDate(0, 0, 4))
	exam := testutil.NewEvent(academic.EventExam, monday.AddDate(0, 0, 2), monday.AddDate(0, 0, 2))
	start, end := academic.NewClock(8, 0), academic.NewClock(10, 0)
	exam.StartTime, exam.EndTime = &start, &end
	later := testutil.NewEvent(academic.EventHoliday, monday.AddDate(0, 1, 0), monday.AddDate(0, 1, 0))
	for _, e := range []academic.Event{class, exam, later} {
		require.NoError(t, calendar.SaveEvent(ctx, e))
	}

	events, err := calendar.EventsBetween(ctx, monday.AddDate(0, 0, 1), monday.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, events, 2)

	byID := map[string]academic.Event{events[0].ID: events[0], events[1].ID: events[1]}
	got := byID[class.ID]
	assert.Equal(t, core.DateKey(class.StartDate), core.DateKey(got.StartDate))
	assert.Equal(t, core.DateKey(class.EndDate), core.DateKey(got.EndDate))
	assert.Equal(t, testutil.Cohort.FacultyID, got.FacultyID)
	assert.True(t, got.AttendanceRequired)
	assert.Nil(t, got.StartTime)

	got = byID[exam.ID]
	require.NotNil(t, got.StartTime)
	assert.Equal(t, start, *got.StartTime)
	assert.Empty(t, got.FacultyID)
}

func TestScheduleRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	schedule := boiledrepos.NewScheduleRepository(db)

	math := testutil.NewSlot(testutil.Cohort, "math", time.Monday, "08:00", "10:00")
	other := testutil.NewSlot(academic.Cohort{FacultyID: "law", Semester: 1}, "civil", time.Monday, "09:00", "11:00")
	tuesday := testutil.NewSlot(testutil.Cohort, "physics", time.Tuesday, "10:30", "12:00")
	for _, s := range []academic.Slot{math, other, tuesday} {
		require.NoError(t, schedule.SaveSlot(ctx, s))
	}

	slots, err := schedule.WeekdaySlots(ctx, time.Monday)
	require.NoError(t, err)
	assert.Len(t, slots, 2)

	slots, err = schedule.CohortSlots(ctx, testutil.Cohort)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.ElementsMatch(t, []academic.Slot{math, tuesday}, []academic.Slot(slots))
}

func newOverride(id string, active bool, now time.Time) period.Override {
	md := func(month time.Month, day int) core.MonthDay { return core.MonthDay{Month: month, Day: day} }
	return period.Override{
		ID: id,
		Boundaries: period.Boundaries{
			SpringStart: md(time.February, 1),
			SpringEnd:   md(time.June, 15),
			FallStart:   md(time.September, 1),
			FallEnd:     md(time.December, 20),
		},
		IsActive:  active,
		Reason:    "calendar shift",
		CreatedBy: "admin",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOverrideRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)
	conf := core.NewTestConfig()
	store := boiledrepos.NewOverrideRepository(db, conf)
	now := testutil.At(testutil.Monday, 9, 0)

	_, err := store.ActiveOverride(ctx)
	assert.True(t, core.IsNotFound(err))

	first := newOverride("ovr-1", true, now)
	until := testutil.Monday.AddDate(0, 2, 0)
	first.EffectiveUntil = &until
	_, err = store.CreateOverride(ctx, first)
	require.NoError(t, err)
	_, err = store.CreateOverride(ctx, newOverride("ovr-2", false, now))
	require.NoError(t, err)

	active, err := store.ActiveOverride(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ovr-1", active.ID)
	assert.Equal(t, first.Boundaries, active.Boundaries)
	require.NotNil(t, active.EffectiveUntil)
	assert.Equal(t, core.DateKey(until), core.DateKey(*active.EffectiveUntil))
	assert.Nil(t, active.EffectiveFrom)

	require.NoError(t, store.ActivateOverride(ctx, "ovr-2", now.Add(time.Hour)))
	active, err = store.ActiveOverride(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ovr-2", active.ID)

	prev, err := store.GetOverride(ctx, "ovr-1")
	require.NoError(t, err)
	assert.False(t, prev.IsActive)

	assert.True(t, core.IsNotFound(store.ActivateOverride(ctx, "nope", now)))

	require.NoError(t, store.DeactivateOverride(ctx, "ovr-2", now.Add(2*time.Hour)))
	_, err = store.ActiveOverride(ctx)
	assert.True(t, core.IsNotFound(err))

	require.NoError(t, store.DeleteOverride(ctx, "ovr-1"))
	assert.True(t, core.IsNotFound(store.DeleteOverride(ctx, "ovr-1")))

	overrides, err := store.ListOverrides(ctx)
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.Equal(t, "ovr-2", overrides[0].ID)
}
