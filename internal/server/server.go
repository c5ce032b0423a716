package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/runplan/internal/planner"
	"github.com/go-chi/chi/v5"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	planner *planner.Planner
	users   UserResolver
	db      Pinger
	whois   WhoIser
	mcp     http.Handler
	log     *slog.Logger
	apiKey  string
	now     func() time.Time
	router  chi.Router
}

// New creates a new Server with all routes configured. users and db may be
// nil when running without a database (tests, previews only).
func New(p *planner.Planner, users UserResolver, db Pinger, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		planner: p,
		users:   users,
		db:      db,
		log:     log,
		apiKey:  apiKey,
		now:     time.Now,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale switches caller identity from the dev user to the tailnet
// user behind each request.
func (s *Server) SetTailscale(whois WhoIser) {
	s.whois = whois
}

// SetMCP mounts an MCP transport handler at /mcp.
func (s *Server) SetMCP(h http.Handler) {
	s.mcp = h
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Group(func(r chi.Router) {
		r.Use(s.identity)

		r.Get("/api/v1/me", s.handleMe)
		r.Get("/api/v1/templates", s.handleTemplates)
		r.Get("/api/v1/plans", s.handleListPlans)
		r.Get("/api/v1/plans/{id}", s.handleGetPlan)

		r.Post("/api/v1/plans/preview", s.handlePreviewPlan)

		// Mutating endpoints (API key required)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/api/v1/plans", s.handleCreatePlan)
			r.Post("/api/v1/plans/{id}/complete", s.handleCompletePlan)
		})

		r.Handle("/mcp", http.HandlerFunc(s.handleMCP))
	})
}

// identity picks the identity middleware per request so SetTailscale can be
// called after routes are built.
func (s *Server) identity(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.whois == nil || s.users == nil {
			dev.ServeHTTP(w, r)
			return
		}
		TailscaleIdentity(s.whois, s.users, s.log)(next).ServeHTTP(w, r)
	})
}
