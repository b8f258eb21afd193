package achievement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func tiers(set BadgeSet, kind Kind) []string {
	var names []string
	for _, b := range set.Earned {
		if b.Kind == kind {
			names = append(names, b.Tier)
		}
	}
	return names
}

func TestComputeBadges(t *testing.T) {
	t.Run("nothing earned", func(t *testing.T) {
		set := ComputeBadges(50, Streaks{Current: 1, Longest: 2})
		assert.Nil(t, set.Rate)
		assert.Nil(t, set.Streak)
		assert.Nil(t, set.Consistency)
		assert.NotNil(t, set.Earned)
		assert.Empty(t, set.Earned)
	})

	t.Run("rate tiers", func(t *testing.T) {
		tests := []struct {
			rate float64
			want string
		}{
			{rate: 100, want: "perfect"},
			{rate: 96.5, want: "excellent"},
			{rate: 90, want: "great"},
			{rate: 89.99, want: "good"},
			{rate: 75, want: "on_track"},
			{rate: 74.99},
		}
		for _, tt := range tests {
			set := ComputeBadges(tt.rate, Streaks{})
			if tt.want == "" {
				assert.Nil(t, set.Rate, tt.rate)
				continue
			}
			if assert.NotNil(t, set.Rate, tt.rate) {
				assert.Equal(t, tt.want, set.Rate.Tier, tt.rate)
			}
		}
	})

	t.Run("every reached tier is earned", func(t *testing.T) {
		set := ComputeBadges(91, Streaks{Current: 8, Longest: 31})
		assert.Equal(t, []string{"great", "good", "on_track"}, tiers(set, KindRate))
		assert.Equal(t, []string{"month", "fortnight", "week"}, tiers(set, KindStreak))
		assert.Equal(t, "month", set.Streak.Tier)
		assert.Equal(t, []string{"silver", "bronze"}, tiers(set, KindConsistency))
	})

	t.Run("consistency needs the current streak", func(t *testing.T) {
		set := ComputeBadges(100, Streaks{Current: 2, Longest: 60})
		assert.Nil(t, set.Consistency)
		assert.Equal(t, "unstoppable", set.Streak.Tier)

		set = ComputeBadges(95, Streaks{Current: 14, Longest: 14})
		assert.Equal(t, "gold", set.Consistency.Tier)
	})
}
