package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ps PlanSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("RunPlan", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("RunPlan training plan server. Generate week-by-week running plans for an upcoming event, save them, and read back saved plans. Saved plans are scoped to the authenticated user."),
	)

	h := &handlers{ps: ps, log: log, now: time.Now}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGenerateTrainingPlan, Handler: h.generateTrainingPlan},
		server.ServerTool{Tool: toolListTrainingPlans, Handler: h.listTrainingPlans},
		server.ServerTool{Tool: toolGetTrainingPlan, Handler: h.getTrainingPlan},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resWeeklyTemplates, Handler: h.weeklyTemplates},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ps  PlanSource
	log *slog.Logger
	now func() time.Time
}

// --- Resource definitions ---

var resWeeklyTemplates = mcp.NewResource(
	"runplan://weekly_templates",
	"Weekly Templates",
	mcp.WithResourceDescription("The Monday to Sunday workout layout for each supported number of training days (3 to 6)"),
	mcp.WithMIMEType("application/json"),
)
