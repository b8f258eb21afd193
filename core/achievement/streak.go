package achievement

import (
	"time"

	"github.com/trezcool/presence/core"
	"github.com/trezcool/presence/core/daystatus"
)

type Streaks struct {
	Current     int `json:"current_streak"`
	Longest     int `json:"longest_streak"`
	CurrentWeek int `json:"current_week_streak"`
}

// ComputeStreaks walks days in date order. Present days extend the streak, neutral days are skipped,
// and any other status (late included) resets it. Days after today are ignored.
func ComputeStreaks(days []daystatus.Day, today time.Time) Streaks {
	var s Streaks
	todayKey := core.DateKey(today)
	monday, sunday := isoWeek(today)

	running := 0
	for _, d := range days {
		key := core.DateKey(d.Date)
		if key > todayKey {
			break
		}
		switch {
		case d.Status == daystatus.StatusPresent:
			running++
			if running > s.Longest {
				s.Longest = running
			}
			if key >= monday && key <= sunday {
				s.CurrentWeek++
			}
		case d.Status.IsNeutral():
		default:
			running = 0
		}
	}
	s.Current = running
	return s
}

// isoWeek returns the keys of the Monday and Sunday of the week of date.
func isoWeek(date time.Time) (string, string) {
	offset := (int(date.Weekday()) + 6) % 7 // days since Monday
	monday := date.AddDate(0, 0, -offset)
	return core.DateKey(monday), core.DateKey(monday.AddDate(0, 0, 6))
}
