package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/claude/runplan/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a lookup matches no row for the user.
var ErrNotFound = errors.New("not found")

// dbtx is the query surface shared by the pool and a transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UpsertTrainingPlan creates the plan, or refreshes the parameters of the
// existing plan with the same name. Returns the plan ID.
func (db *DB) UpsertTrainingPlan(ctx context.Context, row models.TrainingPlanRow) (uuid.UUID, error) {
	return upsertTrainingPlan(ctx, db.Pool, row)
}

func upsertTrainingPlan(ctx context.Context, q dbtx, row models.TrainingPlanRow) (uuid.UUID, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	var id uuid.UUID
	err := q.QueryRow(ctx,
		`INSERT INTO training_plans (id, name, description, duration_weeks, skill_level,
		 distance_km, elevation_gain_m, training_days_per_week)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT (name) DO UPDATE SET
			description = EXCLUDED.description,
			duration_weeks = EXCLUDED.duration_weeks,
			skill_level = EXCLUDED.skill_level,
			distance_km = EXCLUDED.distance_km,
			elevation_gain_m = EXCLUDED.elevation_gain_m,
			training_days_per_week = EXCLUDED.training_days_per_week,
			updated_at = NOW()
		 RETURNING id`,
		row.ID, row.Name, row.Description, row.DurationWeeks, row.SkillLevel,
		row.DistanceKm, row.ElevationGainM, row.TrainingDaysPerWeek,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upserting training plan: %w", err)
	}
	return id, nil
}

// GetTrainingPlan retrieves a plan by ID.
func (db *DB) GetTrainingPlan(ctx context.Context, planID uuid.UUID) (*models.TrainingPlanRow, error) {
	var p models.TrainingPlanRow
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name, description, duration_weeks, skill_level, distance_km,
		 elevation_gain_m, training_days_per_week, created_at, updated_at
		 FROM training_plans WHERE id = $1`,
		planID,
	).Scan(&p.ID, &p.Name, &p.Description, &p.DurationWeeks, &p.SkillLevel, &p.DistanceKm,
		&p.ElevationGainM, &p.TrainingDaysPerWeek, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying training plan: %w", err)
	}
	return &p, nil
}

// ReplaceWorkouts deletes every workout of the plan and inserts rows in their
// place, in one transaction. Returns the number inserted.
func (db *DB) ReplaceWorkouts(ctx context.Context, planID uuid.UUID, rows []models.WorkoutRow) (int64, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inserted, err := replaceWorkouts(ctx, tx, planID, rows)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing workouts: %w", err)
	}
	return inserted, nil
}

func replaceWorkouts(ctx context.Context, q dbtx, planID uuid.UUID, rows []models.WorkoutRow) (int64, error) {
	if _, err := q.Exec(ctx, `DELETE FROM workouts WHERE plan_id = $1`, planID); err != nil {
		return 0, fmt.Errorf("deleting workouts: %w", err)
	}

	var inserted int64
	for start := 0; start < len(rows); start += workoutBatchSize {
		end := min(start+workoutBatchSize, len(rows))
		query, args := workoutInsertQuery(planID, rows[start:end])
		tag, err := q.Exec(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("inserting workouts: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

// SavedPlan is the outcome of SavePlan.
type SavedPlan struct {
	PlanID     uuid.UUID
	UserPlanID uuid.UUID
	Workouts   int64
}

// SavePlan upserts the plan, replaces its workouts and assigns it to the user
// for [start, end], all in one transaction.
func (db *DB) SavePlan(ctx context.Context, userID int, plan models.TrainingPlanRow, workouts []models.WorkoutRow, start, end time.Time) (*SavedPlan, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	planID, err := upsertTrainingPlan(ctx, tx, plan)
	if err != nil {
		return nil, err
	}
	n, err := replaceWorkouts(ctx, tx, planID, workouts)
	if err != nil {
		return nil, err
	}
	userPlanID, err := createUserPlan(ctx, tx, userID, planID, start, end)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing plan: %w", err)
	}
	return &SavedPlan{PlanID: planID, UserPlanID: userPlanID, Workouts: n}, nil
}

// workoutBatchSize keeps each INSERT well under the 65535 parameter limit.
const workoutBatchSize = 500

const workoutColumns = 9

// workoutInsertQuery builds a multi-row INSERT for one batch.
func workoutInsertQuery(planID uuid.UUID, rows []models.WorkoutRow) (string, []any) {
	args := make([]any, 0, len(rows)*workoutColumns)
	valueStrings := make([]string, 0, len(rows))

	for i, r := range rows {
		base := i * workoutColumns
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9,
		))
		args = append(args, planID, r.WeekNumber, r.DayOfWeek, r.DayIndex, r.WorkoutType,
			r.Description, r.DistanceKm, r.ElevationGainM, r.Date)
	}

	query := `INSERT INTO workouts (plan_id, week_number, day_of_week, day_index, workout_type,
		 description, distance_km, elevation_gain_m, date) VALUES ` + strings.Join(valueStrings, ",")
	return query, args
}

// QueryPlanWorkouts returns a plan's workouts ordered by week, then weekday.
func (db *DB) QueryPlanWorkouts(ctx context.Context, planID uuid.UUID) ([]models.WorkoutRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT plan_id, week_number, day_of_week, day_index, workout_type, description,
		 duration_minutes, distance_km, elevation_gain_m, date
		 FROM workouts
		 WHERE plan_id = $1
		 ORDER BY week_number, day_index`,
		planID)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutRow
	for rows.Next() {
		var w models.WorkoutRow
		if err := rows.Scan(&w.PlanID, &w.WeekNumber, &w.DayOfWeek, &w.DayIndex, &w.WorkoutType,
			&w.Description, &w.DurationMinutes, &w.DistanceKm, &w.ElevationGainM, &w.Date); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// CreateUserPlan assigns a plan to a user for a date range.
func (db *DB) CreateUserPlan(ctx context.Context, userID int, planID uuid.UUID, start, end time.Time) (uuid.UUID, error) {
	return createUserPlan(ctx, db.Pool, userID, planID, start, end)
}

func createUserPlan(ctx context.Context, q dbtx, userID int, planID uuid.UUID, start, end time.Time) (uuid.UUID, error) {
	id := uuid.New()
	_, err := q.Exec(ctx,
		`INSERT INTO user_training_plans (id, user_id, plan_id, start_date, end_date)
		 VALUES ($1,$2,$3,$4,$5)`,
		id, userID, planID, start, end)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting user plan: %w", err)
	}
	return id, nil
}

const userPlanSelect = `SELECT up.id, up.user_id, up.plan_id, tp.name, up.start_date, up.end_date,
	 up.completed, up.created_at
	 FROM user_training_plans up
	 JOIN training_plans tp ON tp.id = up.plan_id`

// GetUserPlan retrieves one of the user's plan assignments.
func (db *DB) GetUserPlan(ctx context.Context, userID int, userPlanID uuid.UUID) (*models.UserPlanRow, error) {
	var p models.UserPlanRow
	err := db.Pool.QueryRow(ctx, userPlanSelect+` WHERE up.id = $1 AND up.user_id = $2`,
		userPlanID, userID,
	).Scan(&p.ID, &p.UserID, &p.PlanID, &p.PlanName, &p.StartDate, &p.EndDate, &p.Completed, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user plan: %w", err)
	}
	return &p, nil
}

// ListUserPlans returns the user's plan assignments, newest first.
func (db *DB) ListUserPlans(ctx context.Context, userID int) ([]models.UserPlanRow, error) {
	rows, err := db.Pool.Query(ctx, userPlanSelect+` WHERE up.user_id = $1 ORDER BY up.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying user plans: %w", err)
	}
	defer rows.Close()

	var result []models.UserPlanRow
	for rows.Next() {
		var p models.UserPlanRow
		if err := rows.Scan(&p.ID, &p.UserID, &p.PlanID, &p.PlanName, &p.StartDate, &p.EndDate,
			&p.Completed, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user plan: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// CompleteUserPlan marks the user's plan assignment as completed.
func (db *DB) CompleteUserPlan(ctx context.Context, userID int, userPlanID uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE user_training_plans SET completed = TRUE WHERE id = $1 AND user_id = $2`,
		userPlanID, userID)
	if err != nil {
		return fmt.Errorf("completing user plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
