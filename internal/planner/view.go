package planner

import (
	"context"
	"fmt"

	"github.com/claude/runplan/internal/models"
	"github.com/claude/runplan/internal/plan"
	"github.com/google/uuid"
)

// WeekStartLayout formats the first day of each week in a plan view.
const WeekStartLayout = "January 02, 2006"

// WeekView is one week of a stored plan.
type WeekView struct {
	WeekNumber int                 `json:"week_number"`
	StartDate  string              `json:"start_date"`
	Workouts   []models.WorkoutRow `json:"workouts"`
}

// PlanView is a user's plan with its workouts grouped by week.
type PlanView struct {
	UserPlan   models.UserPlanRow     `json:"user_plan"`
	Plan       models.TrainingPlanRow `json:"training_plan"`
	DaysOfWeek []string               `json:"days_of_week"`
	Weeks      []WeekView             `json:"weeks"`
}

// View loads one of the user's plans and groups its workouts by week.
// Weeks without stored workouts still appear, empty.
func (p *Planner) View(ctx context.Context, userID int, userPlanID uuid.UUID) (*PlanView, error) {
	up, err := p.store.GetUserPlan(ctx, userID, userPlanID)
	if err != nil {
		return nil, err
	}
	tp, err := p.store.GetTrainingPlan(ctx, up.PlanID)
	if err != nil {
		return nil, err
	}
	rows, err := p.store.QueryPlanWorkouts(ctx, up.PlanID)
	if err != nil {
		return nil, fmt.Errorf("loading workouts: %w", err)
	}

	return &PlanView{
		UserPlan:   *up,
		Plan:       *tp,
		DaysOfWeek: dayNames(),
		Weeks:      groupByWeek(up, tp.DurationWeeks, rows),
	}, nil
}

func groupByWeek(up *models.UserPlanRow, weeks int, rows []models.WorkoutRow) []WeekView {
	out := make([]WeekView, weeks)
	for i := range out {
		out[i] = WeekView{
			WeekNumber: i + 1,
			StartDate:  up.StartDate.AddDate(0, 0, 7*i).Format(WeekStartLayout),
			Workouts:   []models.WorkoutRow{},
		}
	}
	for _, r := range rows {
		if r.WeekNumber < 1 || r.WeekNumber > weeks {
			continue
		}
		w := &out[r.WeekNumber-1]
		w.Workouts = append(w.Workouts, r)
	}
	return out
}

func dayNames() []string {
	names := make([]string, 0, len(plan.Weekdays))
	for _, d := range plan.Weekdays {
		names = append(names, d.String())
	}
	return names
}
