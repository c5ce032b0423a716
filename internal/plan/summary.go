package plan

import "time"

// WeekSummary totals one week of a generated plan.
type WeekSummary struct {
	WeekNumber     int       `json:"week_number" yaml:"week_number"`
	StartDate      time.Time `json:"start_date" yaml:"start_date"`
	DistanceKm     float64   `json:"distance_km" yaml:"distance_km"`
	ElevationGainM int       `json:"elevation_gain_m" yaml:"elevation_gain_m"`
	Runs           int       `json:"runs" yaml:"runs"`
	RestDays       int       `json:"rest_days" yaml:"rest_days"`
	LongRunKm      float64   `json:"long_run_km" yaml:"long_run_km"`
}

// Summarize folds workouts into per-week totals. Input must be ordered by
// week, as Generate returns it.
func Summarize(workouts []WorkoutSpec) []WeekSummary {
	var out []WeekSummary
	for _, w := range workouts {
		if len(out) == 0 || out[len(out)-1].WeekNumber != w.WeekNumber {
			out = append(out, WeekSummary{
				WeekNumber: w.WeekNumber,
				StartDate:  w.Date.AddDate(0, 0, -w.Weekday.Offset()),
			})
		}
		s := &out[len(out)-1]
		s.DistanceKm += w.DistanceKm
		s.ElevationGainM += w.ElevationGainM
		switch {
		case w.Type == Rest:
			s.RestDays++
		case w.Type.IsRun():
			s.Runs++
		}
		if w.Type == LongRun && w.DistanceKm > s.LongRunKm {
			s.LongRunKm = w.DistanceKm
		}
	}
	return out
}
