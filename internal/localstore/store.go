// Package localstore keeps generated plans in a single SQLite file so the
// CLI can save and reload them without a server.
package localstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/claude/runplan/internal/plan"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no plan has the requested name.
var ErrNotFound = errors.New("plan not found")

const dateLayout = "2006-01-02"

// Store is a SQLite-backed plan file.
type Store struct {
	db *sql.DB
}

// SavedPlan is a stored plan. Workouts is empty in ListPlans results.
type SavedPlan struct {
	ID       int64              `json:"id" yaml:"id"`
	Name     string             `json:"name" yaml:"name"`
	Params   plan.Params        `json:"params" yaml:"params"`
	SavedAt  time.Time          `json:"saved_at" yaml:"saved_at"`
	Workouts []plan.WorkoutSpec `json:"workouts,omitempty" yaml:"workouts,omitempty"`
}

// Open opens (or creates) the SQLite plan file at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating plan dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening plan db: %w", err)
	}
	// One connection keeps the in-memory database (":memory:") shared.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating plan tables: %w", err)
		}
	}

	return &Store{db: db}, nil
}

var schema = []string{
	`PRAGMA foreign_keys = ON`,
	`CREATE TABLE IF NOT EXISTS plans (
		id                     INTEGER PRIMARY KEY AUTOINCREMENT,
		name                   TEXT NOT NULL UNIQUE,
		skill_level            TEXT NOT NULL,
		distance_km            REAL NOT NULL,
		elevation_gain_m       INTEGER NOT NULL,
		training_days_per_week INTEGER NOT NULL,
		weeks                  INTEGER NOT NULL,
		start_date             TEXT NOT NULL,
		saved_at               TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS workouts (
		plan_id          INTEGER NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
		week_number      INTEGER NOT NULL,
		weekday          INTEGER NOT NULL,
		workout_type     TEXT NOT NULL,
		distance_km      REAL NOT NULL,
		elevation_gain_m INTEGER NOT NULL,
		description      TEXT NOT NULL,
		date             TEXT NOT NULL,
		PRIMARY KEY (plan_id, week_number, weekday)
	)`,
}

// SavePlan stores specs under name, replacing every workout previously saved
// under that name. Returns the plan ID, which is stable across saves.
func (s *Store) SavePlan(name string, p plan.Params, specs []plan.WorkoutSpec) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRow(
		`INSERT INTO plans (name, skill_level, distance_km, elevation_gain_m,
			training_days_per_week, weeks, start_date, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET
			skill_level = excluded.skill_level,
			distance_km = excluded.distance_km,
			elevation_gain_m = excluded.elevation_gain_m,
			training_days_per_week = excluded.training_days_per_week,
			weeks = excluded.weeks,
			start_date = excluded.start_date,
			saved_at = excluded.saved_at
		 RETURNING id`,
		name, string(p.Skill), p.EventDistanceKm, p.EventElevationGainM,
		p.TrainingDaysPerWeek, p.WeeksUntilEvent, p.StartDate.Format(dateLayout),
		time.Now().UTC().Format(time.RFC3339),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting plan %q: %w", name, err)
	}

	if _, err := tx.Exec(`DELETE FROM workouts WHERE plan_id = ?`, id); err != nil {
		return 0, fmt.Errorf("deleting workouts: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO workouts (plan_id, week_number, weekday, workout_type,
		distance_km, elevation_gain_m, description, date) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing workout insert: %w", err)
	}
	defer stmt.Close()

	for _, w := range specs {
		if _, err := stmt.Exec(id, w.WeekNumber, w.Weekday.Offset(), string(w.Type),
			w.DistanceKm, w.ElevationGainM, w.Description, w.Date.Format(dateLayout)); err != nil {
			return 0, fmt.Errorf("inserting workout week %d %s: %w", w.WeekNumber, w.Weekday, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing plan: %w", err)
	}
	return id, nil
}

const planSelect = `SELECT id, name, skill_level, distance_km, elevation_gain_m,
	training_days_per_week, weeks, start_date, saved_at FROM plans`

// LoadPlan returns the plan saved under name with its workouts in order.
func (s *Store) LoadPlan(name string) (*SavedPlan, error) {
	sp, err := scanPlan(s.db.QueryRow(planSelect+` WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading plan %q: %w", name, err)
	}

	rows, err := s.db.Query(`SELECT week_number, weekday, workout_type, distance_km,
		elevation_gain_m, description, date
		FROM workouts WHERE plan_id = ? ORDER BY week_number, weekday`, sp.ID)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			w       plan.WorkoutSpec
			day     int
			typ     string
			dateStr string
		)
		if err := rows.Scan(&w.WeekNumber, &day, &typ, &w.DistanceKm, &w.ElevationGainM,
			&w.Description, &dateStr); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		if day < 0 || day >= len(plan.Weekdays) {
			return nil, fmt.Errorf("workout week %d: weekday offset %d out of range", w.WeekNumber, day)
		}
		w.Weekday = plan.Weekdays[day]
		w.Type = plan.WorkoutType(typ)
		if w.Date, err = time.Parse(dateLayout, dateStr); err != nil {
			return nil, fmt.Errorf("workout week %d: %w", w.WeekNumber, err)
		}
		sp.Workouts = append(sp.Workouts, w)
	}
	return sp, rows.Err()
}

// ListPlans returns every saved plan without workouts, ordered by name.
func (s *Store) ListPlans() ([]SavedPlan, error) {
	rows, err := s.db.Query(planSelect + ` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	var result []SavedPlan
	for rows.Next() {
		sp, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		result = append(result, *sp)
	}
	return result, rows.Err()
}

// Close closes the plan database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(row scanner) (*SavedPlan, error) {
	var (
		sp             SavedPlan
		skill          string
		start, savedAt string
	)
	err := row.Scan(&sp.ID, &sp.Name, &skill, &sp.Params.EventDistanceKm, &sp.Params.EventElevationGainM,
		&sp.Params.TrainingDaysPerWeek, &sp.Params.WeeksUntilEvent, &start, &savedAt)
	if err != nil {
		return nil, err
	}
	sp.Params.Skill = plan.SkillLevel(skill)
	if sp.Params.StartDate, err = time.Parse(dateLayout, start); err != nil {
		return nil, fmt.Errorf("plan %q start date: %w", sp.Name, err)
	}
	if sp.SavedAt, err = time.Parse(time.RFC3339, savedAt); err != nil {
		return nil, fmt.Errorf("plan %q saved_at: %w", sp.Name, err)
	}
	return &sp, nil
}
