package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/runplan/internal/models"
	"github.com/claude/runplan/internal/plan"
	"github.com/claude/runplan/internal/planner"
	"github.com/claude/runplan/internal/storage"
	"github.com/google/uuid"
)

// HTTPClient implements PlanSource by calling the RunPlan REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// plans live on the remote server (accessed over Tailscale).
// The server's clock decides the plan start; the today arguments are ignored.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies PlanSource.
var _ PlanSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey
// is sent on mutating requests.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("httpclient: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet && c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(path, resp.StatusCode, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

// statusError maps an API error response back onto the domain errors the
// server derived it from.
func statusError(path string, status int, body []byte) error {
	var msg struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &msg) != nil || msg.Error == "" {
		msg.Error = strings.TrimSpace(string(body))
	}

	switch status {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", plan.ErrInvalidParameter, msg.Error)
	case http.StatusUnprocessableEntity:
		return planner.ErrEventNotInFuture
	case http.StatusNotFound:
		return storage.ErrNotFound
	default:
		return fmt.Errorf("httpclient: %s returned %d: %s", path, status, msg.Error)
	}
}

func (c *HTTPClient) Preview(req planner.Request, _ time.Time) (*planner.Result, error) {
	var res planner.Result
	if err := c.do(context.Background(), http.MethodPost, "/api/v1/plans/preview", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) Create(ctx context.Context, _ int, req planner.Request, _ time.Time) (*planner.Created, error) {
	var created planner.Created
	if err := c.do(ctx, http.MethodPost, "/api/v1/plans", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *HTTPClient) List(ctx context.Context, _ int) ([]models.UserPlanRow, error) {
	var plans []models.UserPlanRow
	if err := c.do(ctx, http.MethodGet, "/api/v1/plans", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (c *HTTPClient) View(ctx context.Context, _ int, userPlanID uuid.UUID) (*planner.PlanView, error) {
	var view planner.PlanView
	if err := c.do(ctx, http.MethodGet, "/api/v1/plans/"+userPlanID.String(), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}
