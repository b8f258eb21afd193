package reconcile_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/academic"
	"github.com/trezcool/presence/core/attendance"
	"github.com/trezcool/presence/core/reconcile"
	"github.com/trezcool/presence/tests"
)

var monday = testutil.Monday

// setupAutoAbsent schedules math 08:00-10:00 on Mondays for a cohort of n students with class on monday.
func setupAutoAbsent(t *testing.T, n int, confFns ...func(conf *core.Config)) (*testutil.Env, []academic.Student) {
	env := testutil.NewEnv(t, confFns...)
	env.DB.PutSlots(testutil.NewSlot(testutil.Cohort, "math", time.Monday, "08:00", "10:00"))
	env.DB.PutEvents(testutil.NewCohortEvent(academic.EventClass, testutil.Cohort, monday, monday))
	return env, testutil.CreateStudents(env.DB, testutil.Cohort, "s", n)
}

func runAt(t *testing.T, env *testutil.Env, hour, minute int) reconcile.Report {
	t.Helper()
	reconcile.NowFunc = testutil.Clock(testutil.At(monday, hour, minute))
	rep, err := env.AutoAbsent.Run(context.Background(), monday)
	require.NoError(t, err)
	return rep
}

func TestAutoAbsent_afterClassEnd(t *testing.T) {
	env, _ := setupAutoAbsent(t, 30)
	testutil.MockNow(t, testutil.At(monday, 9, 0))

	rep := runAt(t, env, 9, 59)
	assert.Equal(t, 0, rep.NewlyAbsent)
	assert.Equal(t, 1, rep.SkippedPending)

	rep = runAt(t, env, 10, 5)
	assert.Equal(t, 30, rep.NewlyAbsent)
	assert.Equal(t, 1, rep.SlotsProcessed)
	assert.Len(t, env.DB.Entries(), 30)
	for _, e := range env.DB.Entries() {
		assert.Equal(t, attendance.StatusAbsent, e.Status)
		assert.Equal(t, attendance.MethodOther, e.Method)
		assert.True(t, e.IsSystem())
		assert.Equal(t, "math", e.SubjectID)
	}

	rep = runAt(t, env, 10, 6)
	assert.Equal(t, 0, rep.NewlyAbsent)
	assert.Equal(t, 30, rep.AlreadyCovered)
	assert.Len(t, env.DB.Entries(), 30)
}

func TestAutoAbsent_keepsExistingEntries(t *testing.T) {
	env, students := setupAutoAbsent(t, 10)
	testutil.MockNow(t, testutil.At(monday, 9, 0))

	for _, s := range students[:4] {
		env.DB.PutEntries(testutil.NewEntry(s.ID, "math", monday, attendance.StatusPresent, testutil.At(monday, 8, 10)))
	}

	rep := runAt(t, env, 11, 0)
	assert.Equal(t, 6, rep.NewlyAbsent)
	assert.Equal(t, 4, rep.AlreadyCovered)

	counts := attendance.CountStatuses(env.DB.Entries())
	assert.Equal(t, attendance.Counts{Present: 4, Absent: 6}, counts)
}

func TestAutoAbsent_concurrentRuns(t *testing.T) {
	env, _ := setupAutoAbsent(t, 30)
	testutil.MockNow(t, testutil.At(monday, 10, 5))

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rep, err := env.AutoAbsent.Run(context.Background(), monday)
			assert.NoError(t, err)
			mu.Lock()
			total += rep.NewlyAbsent
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 30, total)
	assert.Len(t, env.DB.Entries(), 30)
}

func TestAutoAbsent_skips(t *testing.T) {
	ctx := context.Background()

	t.Run("institution-wide holiday", func(t *testing.T) {
		env, _ := setupAutoAbsent(t, 3)
		testutil.MockNow(t, testutil.At(monday, 18, 0))
		env.DB.PutEvents(testutil.NewEvent(academic.EventHoliday, monday, monday))

		rep, err := env.AutoAbsent.Run(ctx, monday)
		require.NoError(t, err)
		assert.True(t, rep.Skipped)
		assert.Equal(t, "holiday or cancelled day", rep.Reason)
		assert.Empty(t, env.DB.Entries())
	})

	t.Run("no class event", func(t *testing.T) {
		env, _ := setupAutoAbsent(t, 3)
		testutil.MockNow(t, testutil.At(monday, 18, 0))

		next := monday.AddDate(0, 0, 7)
		rep, err := env.AutoAbsent.Run(ctx, next)
		require.NoError(t, err)
		assert.True(t, rep.Skipped)
		assert.Equal(t, "no class scheduled", rep.Reason)
	})

	t.Run("closed cohort & cancelled subject", func(t *testing.T) {
		env, _ := setupAutoAbsent(t, 3)
		testutil.MockNow(t, testutil.At(monday, 18, 0))

		law := academic.Cohort{FacultyID: "fac-law", Semester: 2}
		testutil.CreateStudents(env.DB, law, "law", 2)
		env.DB.PutSlots(
			testutil.NewSlot(law, "civil", time.Monday, "08:00", "10:00"),
			testutil.NewSlot(testutil.Cohort, "physics", time.Monday, "10:30", "12:00"),
		)
		env.DB.PutEvents(testutil.NewCohortEvent(academic.EventHoliday, law, monday, monday))
		cancelled := testutil.NewCohortEvent(academic.EventCancelledClass, testutil.Cohort, monday, monday)
		cancelled.SubjectID = "physics"
		env.DB.PutEvents(cancelled)

		rep, err := env.AutoAbsent.Run(ctx, monday)
		require.NoError(t, err)
		assert.False(t, rep.Skipped)
		assert.Equal(t, 2, rep.SkippedCancelled)
		assert.Equal(t, 1, rep.SlotsProcessed)
		assert.Equal(t, 3, rep.NewlyAbsent)
	})

	t.Run("cohort without class", func(t *testing.T) {
		env, _ := setupAutoAbsent(t, 3)
		testutil.MockNow(t, testutil.At(monday, 18, 0))

		idle := academic.Cohort{FacultyID: "fac-law", Semester: 4}
		testutil.CreateStudents(env.DB, idle, "idle", 2)
		env.DB.PutSlots(testutil.NewSlot(idle, "civil", time.Monday, "08:00", "10:00"))

		rep, err := env.AutoAbsent.Run(ctx, monday)
		require.NoError(t, err)
		assert.Equal(t, 1, rep.SkippedNoClass)
		assert.Equal(t, 3, rep.NewlyAbsent)
	})
}

func TestAutoAbsent_partialFailure(t *testing.T) {
	env, _ := setupAutoAbsent(t, 30, func(conf *core.Config) { conf.Attendance.BatchSize = 10 })
	testutil.MockNow(t, testutil.At(monday, 18, 0))

	calls := 0
	env.DB.SetInsertHook(func(entries []attendance.Entry) error {
		calls++
		if calls == 2 {
			return errors.New("deadlock detected")
		}
		return nil
	})

	rep, err := env.AutoAbsent.Run(context.Background(), monday)
	bErr, ok := core.AsBatchError(err)
	require.True(t, ok, "want *core.BatchError, got %v", err)
	assert.Equal(t, 20, bErr.Completed)
	assert.Equal(t, 10, bErr.Failed)
	assert.Equal(t, 20, rep.NewlyAbsent)
	assert.Equal(t, 10, rep.FailedEntries)
	assert.Len(t, env.DB.Entries(), 20)

	// the next run picks up the rolled-back rows
	env.DB.SetInsertHook(nil)
	rep, err = env.AutoAbsent.Run(context.Background(), monday)
	require.NoError(t, err)
	assert.Equal(t, 10, rep.NewlyAbsent)
	assert.Len(t, env.DB.Entries(), 30)
}

func TestAutoAbsent_calendarError(t *testing.T) {
	env, _ := setupAutoAbsent(t, 3)
	testutil.MockNow(t, testutil.At(monday, 18, 0))
	env.DB.SetCalendarError(errors.New("calendar down"))

	_, err := env.AutoAbsent.Run(context.Background(), monday)
	assert.Error(t, err)
	_, ok := core.AsBatchError(err)
	assert.False(t, ok)
}

func TestNewAutoAbsent(t *testing.T) {
	env, _ := setupAutoAbsent(t, 1)
	conf := *env.Conf
	conf.Attendance.BatchSize = 0

	_, err := reconcile.NewAutoAbsent(env.Calendar, env.Schedule, env.Roster, env.Ledger, &conf, env.Logger, nil)
	assert.Error(t, err)
}
