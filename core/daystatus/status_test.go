package daystatus

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/presence/core/activity"
	"github.com/trezcool/presence/core/attendance"
)

func TestDecide(t *testing.T) {
	active := activity.StatusActive
	tests := []struct {
		name string
		in   Input
		want Status
	}{
		{name: "holiday first", in: Input{Holiday: true, Cancelled: true, Cohort: active, Counts: attendance.Counts{Present: 2}}, want: StatusHoliday},
		{name: "cancelled", in: Input{Cancelled: true, OutOfPeriod: true, Cohort: active}, want: StatusCancelled},
		{name: "out of period", in: Input{OutOfPeriod: true, Cohort: active, Counts: attendance.Counts{Present: 2}}, want: StatusNoData},
		{name: "no class", in: Input{Cohort: activity.StatusNoClass, Counts: attendance.Counts{Present: 1}}, want: StatusNoData},
		{name: "future", in: Input{Future: true, Cohort: active, Counts: attendance.Counts{Present: 2}, Expected: 2}, want: StatusNoData},
		{name: "system inactive", in: Input{Cohort: activity.StatusSystemInactive, Expected: 2}, want: StatusSystemInactive},
		{name: "no entry", in: Input{Cohort: active, Expected: 2}, want: StatusAbsent},
		{name: "absent everywhere", in: Input{Cohort: active, Counts: attendance.Counts{Absent: 2}, Expected: 2}, want: StatusAbsent},
		{name: "some absent", in: Input{Cohort: active, Counts: attendance.Counts{Present: 1, Absent: 1}, Expected: 2}, want: StatusPartial},
		{name: "late and absent", in: Input{Cohort: active, Counts: attendance.Counts{Late: 1, Absent: 1}, Expected: 2}, want: StatusPartial},
		{
			name: "incomplete coverage",
			in:   Input{Cohort: active, Counts: attendance.Counts{Present: 4}, Expected: 5},
			want: StatusPartial,
		},
		{name: "late everywhere", in: Input{Cohort: active, Counts: attendance.Counts{Late: 2}, Expected: 2}, want: StatusLate},
		{name: "present and late", in: Input{Cohort: active, Counts: attendance.Counts{Present: 1, Late: 1}, Expected: 2}, want: StatusPresent},
		{name: "present everywhere", in: Input{Cohort: active, Counts: attendance.Counts{Present: 2}, Expected: 2}, want: StatusPresent},
		{name: "unscheduled day entries", in: Input{Cohort: active, Counts: attendance.Counts{Present: 1}}, want: StatusPresent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.in))
		})
	}
}

func TestStatus_IsNeutral(t *testing.T) {
	for _, s := range []Status{StatusHoliday, StatusCancelled, StatusNoData, StatusSystemInactive} {
		assert.True(t, s.IsNeutral(), s)
	}
	for _, s := range []Status{StatusPresent, StatusAbsent, StatusLate, StatusPartial} {
		assert.False(t, s.IsNeutral(), s)
	}
}
