package mcp

import (
	"context"
	"errors"

	"github.com/claude/runplan/internal/models"
	"github.com/claude/runplan/internal/plan"
	"github.com/claude/runplan/internal/planner"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolGenerateTrainingPlan = mcp.NewTool("generate_training_plan",
	mcp.WithDescription("Generate a week-by-week running plan that starts on the next Monday and runs up to the event. Each week has one long run on Saturday and rest on Wednesday. Set save=true to store the plan for the user; otherwise it is only previewed."),
	mcp.WithString("event_date", mcp.Required(), mcp.Description("Event date (YYYY-MM-DD)")),
	mcp.WithNumber("distance_km", mcp.Required(), mcp.Description("Event distance in km (e.g. 10, 21.1, 42.2)")),
	mcp.WithNumber("elevation_gain_m", mcp.Description("Total event elevation gain in meters. Defaults to 0.")),
	mcp.WithString("skill_level", mcp.Required(), mcp.Description("Runner skill level"), mcp.Enum("beginner", "intermediate", "advanced")),
	mcp.WithNumber("training_days_per_week", mcp.Required(), mcp.Description("Training days per week, 3 to 6")),
	mcp.WithBoolean("save", mcp.Description("Store the plan for the user. Defaults to false.")),
)

var toolListTrainingPlans = mcp.NewTool("list_training_plans",
	mcp.WithDescription("List the user's saved training plans, newest first, with start/end dates and completion status."),
)

var toolGetTrainingPlan = mcp.NewTool("get_training_plan",
	mcp.WithDescription("Get one saved training plan with its workouts grouped by week."),
	mcp.WithString("id", mcp.Required(), mcp.Description("User plan ID as returned by list_training_plans")),
)

// --- Tool handlers ---

func (h *handlers) generateTrainingPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dateStr, err := req.RequireString("event_date")
	if err != nil {
		return mcp.NewToolResultError("event_date parameter is required"), nil
	}
	eventDate, err := models.ParseDate(dateStr)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	skill, err := req.RequireString("skill_level")
	if err != nil {
		return mcp.NewToolResultError("skill_level parameter is required"), nil
	}

	pr := planner.Request{
		EventDate:           models.Date{Time: eventDate},
		DistanceKm:          req.GetFloat("distance_km", 0),
		ElevationGainM:      req.GetInt("elevation_gain_m", 0),
		SkillLevel:          skill,
		TrainingDaysPerWeek: req.GetInt("training_days_per_week", 0),
	}

	var out any
	if req.GetBool("save", false) {
		out, err = h.ps.Create(ctx, UserIDFromContext(ctx), pr, h.now())
	} else {
		out, err = h.ps.Preview(pr, h.now())
	}
	if err != nil {
		if errors.Is(err, plan.ErrInvalidParameter) || errors.Is(err, planner.ErrEventNotInFuture) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		h.log.Error("mcp generate_training_plan", "error", err)
		return mcp.NewToolResultError("generation failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listTrainingPlans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plans, err := h.ps.List(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp list_training_plans", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if plans == nil {
		plans = []models.UserPlanRow{}
	}

	result, err := mcp.NewToolResultJSON(map[string]any{"plans": plans})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTrainingPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return mcp.NewToolResultError("invalid plan ID: " + err.Error()), nil
	}

	view, err := h.ps.View(ctx, UserIDFromContext(ctx), id)
	if err != nil {
		h.log.Error("mcp get_training_plan", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(view)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
