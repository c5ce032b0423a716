// Package planner turns a runner's event details into a stored training plan.
// It picks the start week, checks the request, runs the generator and hands
// the result to storage with replace-all semantics.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/claude/runplan/internal/models"
	"github.com/claude/runplan/internal/plan"
	"github.com/claude/runplan/internal/storage"
	"github.com/google/uuid"
)

// ErrEventNotInFuture is returned when the event falls on or before the
// Monday the plan would start.
var ErrEventNotInFuture = errors.New("the event date must be in the future")

// DefaultMaxWeeks bounds plan length when no limit is configured.
const DefaultMaxWeeks = 52

// Store is the persistence the planner needs. *storage.DB satisfies it.
type Store interface {
	SavePlan(ctx context.Context, userID int, row models.TrainingPlanRow, workouts []models.WorkoutRow, start, end time.Time) (*storage.SavedPlan, error)
	GetTrainingPlan(ctx context.Context, planID uuid.UUID) (*models.TrainingPlanRow, error)
	QueryPlanWorkouts(ctx context.Context, planID uuid.UUID) ([]models.WorkoutRow, error)
	GetUserPlan(ctx context.Context, userID int, userPlanID uuid.UUID) (*models.UserPlanRow, error)
	ListUserPlans(ctx context.Context, userID int) ([]models.UserPlanRow, error)
	CompleteUserPlan(ctx context.Context, userID int, userPlanID uuid.UUID) error
}

// Compile-time check: *storage.DB satisfies Store.
var _ Store = (*storage.DB)(nil)

// Request is what a runner submits.
type Request struct {
	EventDate           models.Date `json:"event_date"`
	DistanceKm          float64     `json:"distance_km"`
	ElevationGainM      int         `json:"elevation_gain_m"`
	SkillLevel          string      `json:"skill_level"`
	TrainingDaysPerWeek int         `json:"training_days_per_week"`
}

// Result is a generated plan ready to show or store.
type Result struct {
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description" yaml:"description"`
	StartDate   models.Date        `json:"start_date" yaml:"start_date"`
	EndDate     models.Date        `json:"end_date" yaml:"end_date"`
	Weeks       int                `json:"weeks" yaml:"weeks"`
	Params      plan.Params        `json:"params" yaml:"params"`
	Template    []plan.TemplateDay `json:"template" yaml:"template"`
	Workouts    []plan.WorkoutSpec `json:"workouts" yaml:"workouts"`
	Summary     []plan.WeekSummary `json:"summary" yaml:"summary"`
}

// Created is the outcome of Create.
type Created struct {
	UserPlanID uuid.UUID `json:"user_plan_id"`
	PlanID     uuid.UUID `json:"plan_id"`
	Result     *Result   `json:"plan"`
}

// Planner orchestrates generation and storage.
type Planner struct {
	store    Store
	gen      plan.Generator
	maxWeeks int
	log      *slog.Logger
}

// New creates a Planner. maxWeeks <= 0 selects DefaultMaxWeeks.
func New(store Store, gen plan.Generator, maxWeeks int, log *slog.Logger) *Planner {
	if maxWeeks <= 0 {
		maxWeeks = DefaultMaxWeeks
	}
	return &Planner{store: store, gen: gen, maxWeeks: maxWeeks, log: log}
}

// NextMonday returns today when today is a Monday, otherwise the following
// Monday. The clock part is dropped.
func NextMonday(today time.Time) time.Time {
	d := models.Midnight(today)
	offset := (int(time.Monday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset)
}

// Validate checks a request against today's date.
func Validate(req Request, today time.Time) error {
	if req.EventDate.IsZero() {
		return fmt.Errorf("%w: event_date is required", plan.ErrInvalidParameter)
	}
	if req.EventDate.Before(models.Midnight(today)) {
		return fmt.Errorf("%w: the event date cannot be in the past", plan.ErrInvalidParameter)
	}
	if req.DistanceKm <= 0 {
		return fmt.Errorf("%w: distance_km must be positive", plan.ErrInvalidParameter)
	}
	if req.ElevationGainM < 0 {
		return fmt.Errorf("%w: elevation_gain_m must not be negative", plan.ErrInvalidParameter)
	}
	if _, err := plan.ParseSkillLevel(req.SkillLevel); err != nil {
		return err
	}
	if req.TrainingDaysPerWeek < plan.MinTrainingDays || req.TrainingDaysPerWeek > plan.MaxTrainingDays {
		return fmt.Errorf("%w: training_days_per_week must be between %d and %d",
			plan.ErrInvalidParameter, plan.MinTrainingDays, plan.MaxTrainingDays)
	}
	return nil
}

// Preview generates the plan for req without storing it.
func (p *Planner) Preview(req Request, today time.Time) (*Result, error) {
	if err := Validate(req, today); err != nil {
		return nil, err
	}
	skill, _ := plan.ParseSkillLevel(req.SkillLevel)

	start := NextMonday(today)
	event := models.Midnight(req.EventDate.Time)
	days := int(event.Sub(start).Hours() / 24)
	if days <= 0 {
		return nil, ErrEventNotInFuture
	}
	weeks := days / 7
	if weeks < 1 {
		return nil, fmt.Errorf("%w: event on %s is less than a week after the plan start %s",
			plan.ErrInvalidParameter, event.Format(models.DateLayout), start.Format(models.DateLayout))
	}
	if weeks > p.maxWeeks {
		return nil, fmt.Errorf("%w: %d weeks until the event, at most %d supported",
			plan.ErrInvalidParameter, weeks, p.maxWeeks)
	}

	params := plan.Params{
		WeeksUntilEvent:     weeks,
		Skill:               skill,
		EventDistanceKm:     req.DistanceKm,
		EventElevationGainM: req.ElevationGainM,
		TrainingDaysPerWeek: req.TrainingDaysPerWeek,
		StartDate:           start,
	}
	workouts, err := p.gen.Generate(params)
	if err != nil {
		return nil, err
	}
	tmpl, err := plan.BuildTemplate(req.TrainingDaysPerWeek)
	if err != nil {
		return nil, err
	}

	dist := formatKm(req.DistanceKm)
	return &Result{
		Name:        "Custom Plan for " + dist + "km",
		Description: fmt.Sprintf("A training plan generated for a %s runner preparing for a %skm event.", skill, dist),
		StartDate:   models.Date{Time: start},
		EndDate:     models.Date{Time: event},
		Weeks:       weeks,
		Params:      params,
		Template:    tmpl.Days(),
		Workouts:    workouts,
		Summary:     plan.Summarize(workouts),
	}, nil
}

// Create generates the plan and stores it for the user. Any workouts
// previously stored under the same plan name are replaced.
func (p *Planner) Create(ctx context.Context, userID int, req Request, today time.Time) (*Created, error) {
	res, err := p.Preview(req, today)
	if err != nil {
		return nil, err
	}

	row := models.TrainingPlanRow{
		Name:                res.Name,
		Description:         res.Description,
		DurationWeeks:       res.Weeks,
		SkillLevel:          string(res.Params.Skill),
		DistanceKm:          res.Params.EventDistanceKm,
		ElevationGainM:      res.Params.EventElevationGainM,
		TrainingDaysPerWeek: res.Params.TrainingDaysPerWeek,
	}
	saved, err := p.store.SavePlan(ctx, userID, row, workoutRows(res.Workouts), res.StartDate.Time, res.EndDate.Time)
	if err != nil {
		return nil, fmt.Errorf("saving plan: %w", err)
	}

	p.log.Info("training plan created",
		"user_id", userID,
		"plan_id", saved.PlanID,
		"user_plan_id", saved.UserPlanID,
		"weeks", res.Weeks,
		"workouts", saved.Workouts,
	)
	return &Created{UserPlanID: saved.UserPlanID, PlanID: saved.PlanID, Result: res}, nil
}

// List returns the user's plans, newest first.
func (p *Planner) List(ctx context.Context, userID int) ([]models.UserPlanRow, error) {
	return p.store.ListUserPlans(ctx, userID)
}

// Complete marks the user's plan as done.
func (p *Planner) Complete(ctx context.Context, userID int, userPlanID uuid.UUID) error {
	return p.store.CompleteUserPlan(ctx, userID, userPlanID)
}

func workoutRows(specs []plan.WorkoutSpec) []models.WorkoutRow {
	rows := make([]models.WorkoutRow, 0, len(specs))
	for _, s := range specs {
		rows = append(rows, models.WorkoutRow{
			WeekNumber:     s.WeekNumber,
			DayOfWeek:      s.Weekday.String(),
			DayIndex:       s.Weekday.Offset(),
			WorkoutType:    string(s.Type),
			Description:    s.Description,
			DistanceKm:     s.DistanceKm,
			ElevationGainM: s.ElevationGainM,
			Date:           s.Date,
		})
	}
	return rows
}

func formatKm(km float64) string {
	return strconv.FormatFloat(km, 'f', -1, 64)
}
