package period

import (
	"time"

	"github.com/trezcool/presence/core"
)

type Type string

const (
	TypeSpring Type = "spring"
	TypeFall   Type = "fall"
)

// Source tells whether a period came from the configured defaults or from an admin override.
type Source string

const (
	SourceDefault  Source = "default"
	SourceOverride Source = "override"
)

type Period struct {
	Type      Type      `json:"type"`
	Year      int       `json:"year"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Source    Source    `json:"source"`
	Emergency bool      `json:"emergency,omitempty"`
}

// Contains reports whether date falls within [Start, End].
func (p Period) Contains(date time.Time) bool {
	key := core.DateKey(date)
	return core.DateKey(p.Start) <= key && key <= core.DateKey(p.End)
}

// Clamp restricts [from, to] to the period. ok is false when they do not overlap.
func (p Period) Clamp(from, to time.Time) (time.Time, time.Time, bool) {
	if from.Before(p.Start) {
		from = p.Start
	}
	if to.After(p.End) {
		to = p.End
	}
	return from, to, !to.Before(from)
}

// Boundaries are the month/day limits of both terms.
type Boundaries struct {
	SpringStart core.MonthDay `json:"spring_start"`
	SpringEnd   core.MonthDay `json:"spring_end"`
	FallStart   core.MonthDay `json:"fall_start"`
	FallEnd     core.MonthDay `json:"fall_end"`
}

func DefaultBoundaries(conf core.SemesterConfig) Boundaries {
	return Boundaries{
		SpringStart: conf.SpringStart,
		SpringEnd:   conf.SpringEnd,
		FallStart:   conf.FallStart,
		FallEnd:     conf.FallEnd,
	}
}

// Resolve picks the term of date:
// from the Fall start month onwards it is the Fall of that year, up to the Spring end it is the Spring,
// and the summer gap in between belongs to the Spring that just ended.
func (b Boundaries) Resolve(date time.Time) Period {
	year, loc := date.Year(), date.Location()
	if date.Month() >= b.FallStart.Month {
		return Period{
			Type:   TypeFall,
			Year:   year,
			Start:  b.FallStart.In(year, loc),
			End:    b.FallEnd.In(year, loc),
			Source: SourceDefault,
		}
	}
	// before the Spring end, or in the summer gap
	return Period{
		Type:   TypeSpring,
		Year:   year,
		Start:  b.SpringStart.In(year, loc),
		End:    b.SpringEnd.In(year, loc),
		Source: SourceDefault,
	}
}

func (b Boundaries) valid() bool {
	for _, md := range []core.MonthDay{b.SpringStart, b.SpringEnd, b.FallStart, b.FallEnd} {
		if !md.Valid() {
			return false
		}
	}
	return b.SpringStart.Compare(b.SpringEnd) <= 0 &&
		b.SpringEnd.Compare(b.FallStart) < 0 &&
		b.FallStart.Compare(b.FallEnd) <= 0
}
