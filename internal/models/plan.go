package models

import (
	"time"

	"github.com/google/uuid"
)

// TrainingPlanRow is a row of the training_plans table.
type TrainingPlanRow struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	DurationWeeks       int       `json:"duration_weeks"`
	SkillLevel          string    `json:"skill_level"`
	DistanceKm          float64   `json:"distance_km"`
	ElevationGainM      int       `json:"elevation_gain_m"`
	TrainingDaysPerWeek int       `json:"training_days_per_week"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// WorkoutRow is a row of the workouts table.
type WorkoutRow struct {
	PlanID          uuid.UUID `json:"plan_id"`
	WeekNumber      int       `json:"week_number"`
	DayOfWeek       string    `json:"day_of_week"`
	DayIndex        int       `json:"day_index"`
	WorkoutType     string    `json:"workout_type"`
	Description     string    `json:"description"`
	DurationMinutes *int      `json:"duration_minutes"`
	DistanceKm      float64   `json:"distance_km"`
	ElevationGainM  int       `json:"elevation_gain_m"`
	Date            time.Time `json:"date"`
}

// UserPlanRow is a row of the user_training_plans table: one user's
// assignment to a plan over a date range.
type UserPlanRow struct {
	ID        uuid.UUID `json:"id"`
	UserID    int       `json:"user_id"`
	PlanID    uuid.UUID `json:"plan_id"`
	PlanName  string    `json:"plan_name,omitempty"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}
