package plan

import (
	"fmt"
	"strings"
)

// baseTemplate is the week before any extra rest days are distributed.
var baseTemplate = WeeklyTemplate{
	Monday:    EasyRun,
	Tuesday:   Intervals,
	Wednesday: Rest,
	Thursday:  HillRepeats,
	Friday:    TempoRun,
	Saturday:  LongRun,
	Sunday:    CrossTraining,
}

// restCandidates is the fixed priority in which extra rest days are taken.
// The repair pass also only swaps into days from this list.
var restCandidates = []Weekday{Monday, Tuesday, Thursday, Friday, Sunday}

// pinnedRest is the day that is always rest and never moved.
const pinnedRest = Wednesday

// WeeklyTemplate assigns a workout type to every weekday, indexed by Weekday.
type WeeklyTemplate [7]WorkoutType

// BuildTemplate derives the week shape for the given number of training days.
func BuildTemplate(trainingDaysPerWeek int) (WeeklyTemplate, error) {
	if trainingDaysPerWeek < MinTrainingDays || trainingDaysPerWeek > MaxTrainingDays {
		return WeeklyTemplate{}, fmt.Errorf("%w: training days per week %d outside [%d,%d]",
			ErrInvalidParameter, trainingDaysPerWeek, MinTrainingDays, MaxTrainingDays)
	}

	t := baseTemplate
	restNeeded := 7 - trainingDaysPerWeek

	rest := []Weekday{pinnedRest}
	for _, d := range restCandidates {
		if len(rest) >= restNeeded {
			break
		}
		rest = append(rest, d)
	}
	for _, d := range rest {
		t[d] = Rest
	}

	if err := t.repair(); err != nil {
		return WeeklyTemplate{}, err
	}
	return t, nil
}

// repair breaks up back-to-back rest days Monday through Sunday. For each
// adjacent pair that is all rest, the second day trades places with the next
// non-rest candidate after the pair. Sunday/Monday is not a pair.
func (t *WeeklyTemplate) repair() error {
	for i := Monday; i < Sunday; i++ {
		first, second := i, i+1
		if t[first] != Rest || t[second] != Rest {
			continue
		}
		if second == pinnedRest {
			return fmt.Errorf("%w: %s/%s both rest and %s is pinned", ErrLookupExhausted, first, second, second)
		}
		swap, ok := t.nextNonRestCandidate(second)
		if !ok {
			return fmt.Errorf("%w: no non-rest day after %s/%s", ErrLookupExhausted, first, second)
		}
		t[second], t[swap] = t[swap], t[second]
	}
	return nil
}

func (t *WeeklyTemplate) nextNonRestCandidate(after Weekday) (Weekday, bool) {
	for _, d := range restCandidates {
		if d > after && t[d] != Rest {
			return d, true
		}
	}
	return 0, false
}

// RestDays returns the rest days in calendar order.
func (t WeeklyTemplate) RestDays() []Weekday {
	var out []Weekday
	for _, d := range Weekdays {
		if t[d] == Rest {
			out = append(out, d)
		}
	}
	return out
}

// TrainingDays counts the non-rest days.
func (t WeeklyTemplate) TrainingDays() int {
	return 7 - len(t.RestDays())
}

func (t WeeklyTemplate) String() string {
	parts := make([]string, 0, 7)
	for _, d := range Weekdays {
		parts = append(parts, d.String()[:3]+"="+string(t[d]))
	}
	return strings.Join(parts, " ")
}

// TemplateDay is one weekday of a template, for display and JSON.
type TemplateDay struct {
	Weekday Weekday     `json:"weekday" yaml:"weekday"`
	Type    WorkoutType `json:"workout_type" yaml:"workout_type"`
}

// Days lists the template in calendar order.
func (t WeeklyTemplate) Days() []TemplateDay {
	out := make([]TemplateDay, 0, 7)
	for _, d := range Weekdays {
		out = append(out, TemplateDay{Weekday: d, Type: t[d]})
	}
	return out
}
