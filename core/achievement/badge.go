package achievement

type Kind string

const (
	KindRate        Kind = "rate"
	KindStreak      Kind = "streak"
	KindConsistency Kind = "consistency"
)

type Badge struct {
	Kind Kind   `json:"kind"`
	Tier string `json:"tier"`
}

// BadgeSet holds the best badge of each kind (nil when none is reached) and every tier reached.
type BadgeSet struct {
	Rate        *Badge  `json:"rate"`
	Streak      *Badge  `json:"streak"`
	Consistency *Badge  `json:"consistency"`
	Earned      []Badge `json:"earned"`
}

type threshold struct {
	tier   string
	rate   float64
	streak int
}

// tables are ordered best tier first
var (
	rateTiers = []threshold{
		{tier: "perfect", rate: 100},
		{tier: "excellent", rate: 95},
		{tier: "great", rate: 90},
		{tier: "good", rate: 80},
		{tier: "on_track", rate: 75},
	}
	streakTiers = []threshold{
		{tier: "unstoppable", streak: 60},
		{tier: "month", streak: 30},
		{tier: "fortnight", streak: 14},
		{tier: "week", streak: 7},
	}
	consistencyTiers = []threshold{
		{tier: "gold", rate: 95, streak: 14},
		{tier: "silver", rate: 90, streak: 7},
		{tier: "bronze", rate: 80, streak: 3},
	}
)

// ComputeBadges maps an attendance rate (percent) and streaks to badges.
// Streak badges use the longest streak; consistency needs both the rate and the current streak.
func ComputeBadges(rate float64, s Streaks) BadgeSet {
	set := BadgeSet{Earned: []Badge{}}
	set.Rate = set.award(KindRate, rateTiers, func(t threshold) bool { return rate >= t.rate })
	set.Streak = set.award(KindStreak, streakTiers, func(t threshold) bool { return s.Longest >= t.streak })
	set.Consistency = set.award(KindConsistency, consistencyTiers, func(t threshold) bool {
		return rate >= t.rate && s.Current >= t.streak
	})
	return set
}

// award appends every reached tier to Earned and returns the best one.
func (set *BadgeSet) award(kind Kind, tiers []threshold, reached func(threshold) bool) *Badge {
	var best *Badge
	for _, t := range tiers {
		if !reached(t) {
			continue
		}
		b := Badge{Kind: kind, Tier: t.tier}
		set.Earned = append(set.Earned, b)
		if best == nil {
			best = &b
		}
	}
	return best
}
