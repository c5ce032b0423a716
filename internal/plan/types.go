// Package plan generates week-by-week running schedules from a few coarse
// inputs. Generation is a pure function: no I/O, no shared state.
package plan

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidParameter reports an out-of-contract input.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrLookupExhausted reports that the rest-day repair pass found no
	// forward day to swap with.
	ErrLookupExhausted = errors.New("rest-day repair lookup exhausted")
)

// Training days per week accepted by the generator.
const (
	MinTrainingDays = 3
	MaxTrainingDays = 6
)

// SkillLevel selects the starting base distance and weekly growth.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
)

// SkillLevels lists the accepted levels in ascending order.
var SkillLevels = []SkillLevel{SkillBeginner, SkillIntermediate, SkillAdvanced}

// ParseSkillLevel converts a case-insensitive name into a SkillLevel.
func ParseSkillLevel(s string) (SkillLevel, error) {
	l := SkillLevel(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("%w: unknown skill level %q", ErrInvalidParameter, s)
	}
	return l, nil
}

// Valid reports whether l is one of the known levels.
func (l SkillLevel) Valid() bool {
	switch l {
	case SkillBeginner, SkillIntermediate, SkillAdvanced:
		return true
	}
	return false
}

// BaseDistanceKm is the week-1 base distance for the level.
func (l SkillLevel) BaseDistanceKm() float64 {
	switch l {
	case SkillIntermediate:
		return 8
	case SkillAdvanced:
		return 10
	default:
		return 5
	}
}

// GrowthMultiplier is applied to the base distance after every week.
func (l SkillLevel) GrowthMultiplier() float64 {
	switch l {
	case SkillIntermediate:
		return 1.15
	case SkillAdvanced:
		return 1.2
	default:
		return 1.1
	}
}

// Weekday is a day slot in a Monday-first week. Its value is the day offset
// from Monday.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// Weekdays lists all seven slots in calendar order.
var Weekdays = [7]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// Offset is the number of days from Monday.
func (d Weekday) Offset() int { return int(d) }

// ParseWeekday accepts a full English day name, case-insensitive.
func ParseWeekday(s string) (Weekday, error) {
	for i, name := range weekdayNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidParameter, s)
}

// MarshalText encodes the weekday by name.
func (d Weekday) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a weekday name.
func (d *Weekday) UnmarshalText(b []byte) error {
	v, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// WorkoutType is the kind of session scheduled on a day.
type WorkoutType string

const (
	EasyRun       WorkoutType = "easy_run"
	LongRun       WorkoutType = "long_run"
	TempoRun      WorkoutType = "tempo_run"
	Intervals     WorkoutType = "intervals"
	HillRepeats   WorkoutType = "hill_repeats"
	Rest          WorkoutType = "rest"
	CrossTraining WorkoutType = "cross_training"
)

// Label renders the type for people: underscores become spaces and only the
// first letter is upper case ("Easy run").
func (t WorkoutType) Label() string {
	s := strings.ReplaceAll(strings.ToLower(string(t)), "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// IsRun reports whether the type covers distance on foot.
func (t WorkoutType) IsRun() bool {
	switch t {
	case EasyRun, LongRun, TempoRun, Intervals, HillRepeats:
		return true
	}
	return false
}

// Params are the inputs of one generation run.
type Params struct {
	WeeksUntilEvent     int        `json:"weeks_until_event" yaml:"weeks_until_event"`
	Skill               SkillLevel `json:"skill_level" yaml:"skill_level"`
	EventDistanceKm     float64    `json:"event_distance_km" yaml:"event_distance_km"`
	EventElevationGainM int        `json:"event_elevation_gain_m" yaml:"event_elevation_gain_m"`
	TrainingDaysPerWeek int        `json:"training_days_per_week" yaml:"training_days_per_week"`
	// StartDate is the Monday that begins week 1.
	StartDate time.Time `json:"start_date" yaml:"start_date"`
}

func (p Params) validate() error {
	if p.TrainingDaysPerWeek < MinTrainingDays || p.TrainingDaysPerWeek > MaxTrainingDays {
		return fmt.Errorf("%w: training days per week %d outside [%d,%d]",
			ErrInvalidParameter, p.TrainingDaysPerWeek, MinTrainingDays, MaxTrainingDays)
	}
	if p.WeeksUntilEvent < 1 {
		return fmt.Errorf("%w: weeks until event %d, need at least 1", ErrInvalidParameter, p.WeeksUntilEvent)
	}
	if !p.Skill.Valid() {
		return fmt.Errorf("%w: unknown skill level %q", ErrInvalidParameter, p.Skill)
	}
	if p.EventDistanceKm <= 0 {
		return fmt.Errorf("%w: event distance %.2f km must be positive", ErrInvalidParameter, p.EventDistanceKm)
	}
	if p.EventElevationGainM < 0 {
		return fmt.Errorf("%w: elevation gain %d m must not be negative", ErrInvalidParameter, p.EventElevationGainM)
	}
	return nil
}

// WorkoutSpec is one scheduled day.
type WorkoutSpec struct {
	WeekNumber     int         `json:"week_number" yaml:"week_number"`
	Weekday        Weekday     `json:"weekday" yaml:"weekday"`
	Type           WorkoutType `json:"workout_type" yaml:"workout_type"`
	DistanceKm     float64     `json:"distance_km" yaml:"distance_km"`
	ElevationGainM int         `json:"elevation_gain_m" yaml:"elevation_gain_m"`
	Description    string      `json:"description" yaml:"description"`
	Date           time.Time   `json:"date" yaml:"date"`
}
