package mcp

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/claude/runplan/internal/plan"
	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) weeklyTemplates(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	templates := make(map[string][]plan.TemplateDay)
	for days := plan.MinTrainingDays; days <= plan.MaxTrainingDays; days++ {
		tmpl, err := plan.BuildTemplate(days)
		if err != nil {
			return nil, err
		}
		templates[strconv.Itoa(days)] = tmpl.Days()
	}

	data, err := json.Marshal(templates)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
