package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/presence/core/daystatus"
)

func days(statuses ...daystatus.Status) []daystatus.Day {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	ds := make([]daystatus.Day, 0, len(statuses))
	for i, s := range statuses {
		ds = append(ds, daystatus.Day{Date: start.AddDate(0, 0, i), Status: s})
	}
	return ds
}

func TestSummarize(t *testing.T) {
	from, to := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	t.Run("no data", func(t *testing.T) {
		s := Summarize(from, to, nil)
		assert.Equal(t, Summary{From: from, To: to}, s)
	})

	t.Run("neutral days only", func(t *testing.T) {
		s := Summarize(from, to, days(daystatus.StatusHoliday, daystatus.StatusSystemInactive, daystatus.StatusNoData))
		assert.Equal(t, 3, s.TotalDays)
		assert.Equal(t, 0, s.TotalClassDays)
		assert.Equal(t, 0.0, s.PercentagePresent)
		assert.Equal(t, 0.0, s.PercentageAttended)
	})

	t.Run("mixed", func(t *testing.T) {
		s := Summarize(from, to, days(
			daystatus.StatusPresent, daystatus.StatusPresent, daystatus.StatusLate,
			daystatus.StatusPartial, daystatus.StatusAbsent, daystatus.StatusAbsent,
			daystatus.StatusHoliday, daystatus.StatusCancelled, daystatus.StatusNoData, daystatus.StatusSystemInactive,
		))
		assert.Equal(t, 10, s.TotalDays)
		assert.Equal(t, 6, s.TotalClassDays)
		assert.Equal(t, s.TotalClassDays, s.Present+s.Absent+s.Partial+s.Late)
		assert.Equal(t, 4, s.DaysAttended)
		assert.Equal(t, 33.33, s.PercentagePresent)
		assert.Equal(t, 66.67, s.PercentageAttended)
		assert.Equal(t, 1, s.Holiday)
		assert.Equal(t, 1, s.Cancelled)
		assert.Equal(t, 1, s.NoData)
		assert.Equal(t, 1, s.SystemInactive)
	})
}

func TestSummary_merge(t *testing.T) {
	a := Summarize(time.Time{}, time.Time{}, days(daystatus.StatusPresent, daystatus.StatusAbsent))
	b := Summarize(time.Time{}, time.Time{}, days(daystatus.StatusPresent, daystatus.StatusPresent, daystatus.StatusHoliday))

	var total Summary
	total.merge(a)
	total.merge(b)
	total.finish()
	assert.Equal(t, 5, total.TotalDays)
	assert.Equal(t, 4, total.TotalClassDays)
	assert.Equal(t, 75.0, total.PercentagePresent)
}
