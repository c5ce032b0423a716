package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/runplan/internal/models"
	"github.com/claude/runplan/internal/plan"
	"github.com/claude/runplan/internal/planner"
	"github.com/claude/runplan/internal/storage"
	"github.com/google/uuid"
)

// TestHandleMeDefault verifies the /api/v1/me endpoint returns the dev user
// identity when no Tailscale middleware is active.
func TestHandleMeDefault(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	ctx := context.WithValue(req.Context(), userInfoKey, UserInfo{Login: "local", DisplayName: "Local Dev User"})
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	s.handleMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "local" {
		t.Errorf("login = %q, want %q", info.Login, "local")
	}
	if info.DisplayName != "Local Dev User" {
		t.Errorf("display_name = %q, want %q", info.DisplayName, "Local Dev User")
	}
}

// TestHandleMeTailscaleUser verifies the /api/v1/me endpoint returns the
// Tailscale user identity when set in context.
func TestHandleMeTailscaleUser(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	ctx := context.WithValue(req.Context(), userInfoKey, UserInfo{Login: "alice@example.com", DisplayName: "Alice"})
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	s.handleMe(rec, req)

	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "alice@example.com" {
		t.Errorf("login = %q, want %q", info.Login, "alice@example.com")
	}
	if info.DisplayName != "Alice" {
		t.Errorf("display_name = %q, want %q", info.DisplayName, "Alice")
	}
}

// memStore is an in-memory planner.Store.
type memStore struct {
	plans     map[uuid.UUID]models.TrainingPlanRow
	workouts  map[uuid.UUID][]models.WorkoutRow
	userPlans []models.UserPlanRow
}

func newMemStore() *memStore {
	return &memStore{
		plans:    make(map[uuid.UUID]models.TrainingPlanRow),
		workouts: make(map[uuid.UUID][]models.WorkoutRow),
	}
}

func (m *memStore) SavePlan(_ context.Context, userID int, row models.TrainingPlanRow, workouts []models.WorkoutRow, start, end time.Time) (*storage.SavedPlan, error) {
	row.ID = uuid.New()
	for id, p := range m.plans {
		if p.Name == row.Name {
			row.ID = id
		}
	}
	m.plans[row.ID] = row
	m.workouts[row.ID] = workouts
	up := models.UserPlanRow{ID: uuid.New(), UserID: userID, PlanID: row.ID, PlanName: row.Name, StartDate: start, EndDate: end}
	m.userPlans = append(m.userPlans, up)
	return &storage.SavedPlan{PlanID: row.ID, UserPlanID: up.ID, Workouts: int64(len(workouts))}, nil
}

func (m *memStore) GetTrainingPlan(_ context.Context, planID uuid.UUID) (*models.TrainingPlanRow, error) {
	p, ok := m.plans[planID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

func (m *memStore) QueryPlanWorkouts(_ context.Context, planID uuid.UUID) ([]models.WorkoutRow, error) {
	return m.workouts[planID], nil
}

func (m *memStore) GetUserPlan(_ context.Context, userID int, id uuid.UUID) (*models.UserPlanRow, error) {
	for _, up := range m.userPlans {
		if up.ID == id && up.UserID == userID {
			return &up, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memStore) ListUserPlans(_ context.Context, userID int) ([]models.UserPlanRow, error) {
	var out []models.UserPlanRow
	for _, up := range m.userPlans {
		if up.UserID == userID {
			out = append(out, up)
		}
	}
	return out, nil
}

func (m *memStore) CompleteUserPlan(_ context.Context, userID int, id uuid.UUID) error {
	for i, up := range m.userPlans {
		if up.ID == id && up.UserID == userID {
			m.userPlans[i].Completed = true
			return nil
		}
	}
	return storage.ErrNotFound
}

const testAPIKey = "test-key"

func newTestServer(store planner.Store) *Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(planner.New(store, plan.Generator{}, 0, log), nil, nil, testAPIKey, log)
	s.now = func() time.Time { return time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC) }
	return s
}

const planBody = `{"event_date":"2025-02-03","distance_km":10,"elevation_gain_m":200,"skill_level":"beginner","training_days_per_week":4}`

func do(t *testing.T, s *Server, method, path, body string, withKey bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if withKey {
		req.Header.Set("X-API-Key", testAPIKey)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

// TestPreviewPlan verifies the preview endpoint returns the generated plan
// without storing anything.
func TestPreviewPlan(t *testing.T) {
	store := newMemStore()
	s := newTestServer(store)

	rec := do(t, s, http.MethodPost, "/api/v1/plans/preview", planBody, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res planner.Result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if res.Weeks != 4 || len(res.Workouts) != 28 {
		t.Errorf("weeks = %d, workouts = %d", res.Weeks, len(res.Workouts))
	}
	if res.StartDate.Format(models.DateLayout) != "2025-01-06" {
		t.Errorf("start = %s", res.StartDate.Format(models.DateLayout))
	}
	if len(store.plans) != 0 {
		t.Errorf("preview stored %d plans", len(store.plans))
	}
}

// TestPreviewPlanErrors verifies domain errors map to HTTP statuses.
func TestPreviewPlanErrors(t *testing.T) {
	s := newTestServer(newMemStore())

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"seven days", `{"event_date":"2025-02-03","distance_km":10,"skill_level":"beginner","training_days_per_week":7}`, http.StatusBadRequest},
		{"unknown skill", `{"event_date":"2025-02-03","distance_km":10,"skill_level":"elite","training_days_per_week":4}`, http.StatusBadRequest},
		{"event on start monday", `{"event_date":"2025-01-06","distance_km":10,"skill_level":"beginner","training_days_per_week":4}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/v1/plans/preview", tt.body, false)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

// TestCreateAndFetchPlan walks create, list, get and complete.
func TestCreateAndFetchPlan(t *testing.T) {
	store := newMemStore()
	s := newTestServer(store)

	if rec := do(t, s, http.MethodPost, "/api/v1/plans", planBody, false); rec.Code != http.StatusUnauthorized {
		t.Fatalf("create without key: status = %d, want 401", rec.Code)
	}

	rec := do(t, s, http.MethodPost, "/api/v1/plans", planBody, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created planner.Created
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(store.workouts[created.PlanID]) != 28 {
		t.Errorf("stored %d workouts, want 28", len(store.workouts[created.PlanID]))
	}

	rec = do(t, s, http.MethodGet, "/api/v1/plans", "", false)
	var list []models.UserPlanRow
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(list) != 1 || list[0].PlanName != "Custom Plan for 10km" {
		t.Errorf("list = %+v", list)
	}

	rec = do(t, s, http.MethodGet, "/api/v1/plans/"+created.UserPlanID.String(), "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status = %d", rec.Code)
	}
	var view planner.PlanView
	if err := json.NewDecoder(rec.Body).Decode(&view); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(view.Weeks) != 4 || view.Weeks[0].StartDate != "January 06, 2025" {
		t.Errorf("view weeks = %d, first = %+v", len(view.Weeks), view.Weeks)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/plans/"+created.UserPlanID.String()+"/complete", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: status = %d", rec.Code)
	}
	if !store.userPlans[0].Completed {
		t.Error("plan not marked completed")
	}
}

func TestGetPlanNotFound(t *testing.T) {
	s := newTestServer(newMemStore())

	if rec := do(t, s, http.MethodGet, "/api/v1/plans/not-a-uuid", "", false); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d, want 400", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/plans/"+uuid.NewString(), "", false); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want 404", rec.Code)
	}
}

// TestTemplates verifies the per-day-count templates keep Wednesday as rest.
func TestTemplates(t *testing.T) {
	s := newTestServer(newMemStore())

	rec := do(t, s, http.MethodGet, "/api/v1/templates", "", false)
	var all map[string][]plan.TemplateDay
	if err := json.NewDecoder(rec.Body).Decode(&all); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("got %d templates, want 4", len(all))
	}
	for days, tmpl := range all {
		if tmpl[plan.Wednesday].Type != plan.Rest {
			t.Errorf("%s days: Wednesday = %s", days, tmpl[plan.Wednesday].Type)
		}
	}

	if rec := do(t, s, http.MethodGet, "/api/v1/templates?days=2", "", false); rec.Code != http.StatusBadRequest {
		t.Errorf("days=2: status = %d, want 400", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(newMemStore())
	rec := do(t, s, http.MethodGet, "/healthz", "", false)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
