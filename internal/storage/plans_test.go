package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/claude/runplan/internal/models"
	"github.com/google/uuid"
)

// TestWorkoutInsertQuery verifies placeholders are numbered per row and the
// argument list lines up with the column list.
func TestWorkoutInsertQuery(t *testing.T) {
	planID := uuid.New()
	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	rows := []models.WorkoutRow{
		{WeekNumber: 1, DayOfWeek: "Monday", DayIndex: 0, WorkoutType: "rest", Date: day},
		{WeekNumber: 1, DayOfWeek: "Tuesday", DayIndex: 1, WorkoutType: "hill_repeats",
			DistanceKm: 2, ElevationGainM: 20, Date: day.AddDate(0, 0, 1)},
	}

	query, args := workoutInsertQuery(planID, rows)

	if !strings.Contains(query, "($1,$2,$3,$4,$5,$6,$7,$8,$9),($10,$11,$12,$13,$14,$15,$16,$17,$18)") {
		t.Errorf("unexpected placeholders in %q", query)
	}
	if len(args) != 18 {
		t.Fatalf("len(args) = %d, want 18", len(args))
	}
	if args[0] != planID || args[9] != planID {
		t.Errorf("plan ID not first column of each row: %v, %v", args[0], args[9])
	}
	if args[13] != "hill_repeats" {
		t.Errorf("args[13] = %v, want hill_repeats", args[13])
	}
	if args[16] != 20 {
		t.Errorf("args[16] = %v, want 20", args[16])
	}
}

// TestWorkoutInsertQueryBatchLimit guards the parameter ceiling of one batch.
func TestWorkoutInsertQueryBatchLimit(t *testing.T) {
	if workoutBatchSize*workoutColumns > 65535 {
		t.Errorf("batch of %d rows uses %d parameters, over the postgres limit",
			workoutBatchSize, workoutBatchSize*workoutColumns)
	}
}
