package mcp

import (
	"context"
	"time"

	"github.com/claude/runplan/internal/models"
	"github.com/claude/runplan/internal/planner"
	"github.com/google/uuid"
)

// PlanSource abstracts plan generation and lookup for MCP tools. Both
// *planner.Planner (local) and HTTPClient (remote via REST API) satisfy it.
type PlanSource interface {
	Preview(req planner.Request, today time.Time) (*planner.Result, error)
	Create(ctx context.Context, userID int, req planner.Request, today time.Time) (*planner.Created, error)
	List(ctx context.Context, userID int) ([]models.UserPlanRow, error)
	View(ctx context.Context, userID int, userPlanID uuid.UUID) (*planner.PlanView, error)
}

// Compile-time check: *planner.Planner satisfies PlanSource.
var _ PlanSource = (*planner.Planner)(nil)
