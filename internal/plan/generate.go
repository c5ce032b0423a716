package plan

import (
	"fmt"
	"math"
	"strings"
)

// Rounding selects how computed distances are rounded to whole units.
type Rounding int

const (
	// RoundHalfUp rounds halves away from zero (2.5 -> 3).
	RoundHalfUp Rounding = iota
	// RoundHalfEven rounds halves to the nearest even value (2.5 -> 2).
	RoundHalfEven
)

// ParseRounding accepts "half_up" or "half_even". Empty means half_up.
func ParseRounding(s string) (Rounding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "half_up":
		return RoundHalfUp, nil
	case "half_even":
		return RoundHalfEven, nil
	}
	return 0, fmt.Errorf("%w: unknown rounding %q", ErrInvalidParameter, s)
}

func (r Rounding) String() string {
	if r == RoundHalfEven {
		return "half_even"
	}
	return "half_up"
}

func (r Rounding) round(v float64) float64 {
	if r == RoundHalfEven {
		return math.RoundToEven(v)
	}
	return math.Round(v)
}

// Per-type share of the weekly base distance, each capped at the same share
// of the event distance. Long runs cap at the full event distance.
const (
	easyShare      = 0.5
	tempoShare     = 0.7
	intervalsShare = 0.3
	longShare      = 1.5
	hillShare      = 0.4
	hillClimbShare = 0.1
)

const descriptionDateLayout = "Monday, January 02"

// Generator turns Params into a schedule. The zero value rounds half up.
// A Generator holds no mutable state and is safe for concurrent use.
type Generator struct {
	Rounding Rounding
}

// Generate builds a plan with the default Generator.
func Generate(p Params) ([]WorkoutSpec, error) {
	return Generator{}.Generate(p)
}

// Generate returns WeeksUntilEvent*7 workouts, one per day, ordered by week
// then weekday. On error no workouts are returned.
func (g Generator) Generate(p Params) ([]WorkoutSpec, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	tmpl, err := BuildTemplate(p.TrainingDaysPerWeek)
	if err != nil {
		return nil, err
	}

	current := math.Min(p.Skill.BaseDistanceKm(), p.EventDistanceKm)
	growth := p.Skill.GrowthMultiplier()

	out := make([]WorkoutSpec, 0, p.WeeksUntilEvent*7)
	for week := 1; week <= p.WeeksUntilEvent; week++ {
		weekStart := p.StartDate.AddDate(0, 0, 7*(week-1))

		for _, day := range Weekdays {
			typ := tmpl[day]
			date := weekStart.AddDate(0, 0, day.Offset())
			dist, elev := g.load(typ, current, p.EventDistanceKm, p.EventElevationGainM)

			out = append(out, WorkoutSpec{
				WeekNumber:     week,
				Weekday:        day,
				Type:           typ,
				DistanceKm:     dist,
				ElevationGainM: elev,
				Description:    typ.Label() + " on " + date.Format(descriptionDateLayout),
				Date:           date,
			})
		}

		current = math.Min(current*growth, p.EventDistanceKm)
	}
	return out, nil
}

// load computes distance and elevation for one day at the given base.
func (g Generator) load(t WorkoutType, base, eventKm float64, eventElevM int) (float64, int) {
	switch t {
	case EasyRun:
		return g.Rounding.round(math.Min(base*easyShare, eventKm*easyShare)), 0
	case TempoRun:
		return g.Rounding.round(math.Min(base*tempoShare, eventKm*tempoShare)), 0
	case Intervals:
		return g.Rounding.round(math.Min(base*intervalsShare, eventKm*intervalsShare)), 0
	case LongRun:
		return g.Rounding.round(math.Min(base*longShare, eventKm)), 0
	case HillRepeats:
		climb := int(g.Rounding.round(float64(eventElevM) * hillClimbShare))
		return g.Rounding.round(math.Min(base*hillShare, eventKm*hillShare)), climb
	default:
		return 0, 0
	}
}
