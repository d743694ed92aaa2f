// Package server is the HTTP edge: the SSE chat and builder endpoints, the
// admin panel API over the agent registry, the model catalog proxy and the
// liveness probe.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/Nitianimelo/arccoVPS/pkg/agents"
	"github.com/Nitianimelo/arccoVPS/pkg/builder"
	"github.com/Nitianimelo/arccoVPS/pkg/config"
	"github.com/Nitianimelo/arccoVPS/pkg/llm"
	"github.com/Nitianimelo/arccoVPS/pkg/logger"
	"github.com/Nitianimelo/arccoVPS/pkg/orchestrator"
)

// Version is reported by the health endpoint.
const Version = "2.0.0"

// ChatService runs the supervisor loop for one chat request.
type ChatService interface {
	Run(ctx context.Context, em *orchestrator.Emitter, toolRunner orchestrator.ToolRunner, messages []llm.Message, model string) error
}

// BuilderService runs the page-builder loop for one builder request.
type BuilderService interface {
	Run(ctx context.Context, em *orchestrator.Emitter, toolRunner orchestrator.ToolRunner, req builder.Request) error
}

// ModelCatalog lists the provider's models for the admin panel.
type ModelCatalog interface {
	ListModels(ctx context.Context) ([]llm.CatalogModel, error)
}

// PageStore loads stored pages for builder edit-mode requests that reference
// a page by slug instead of carrying the state inline.
type PageStore interface {
	PageBySlug(ctx context.Context, slug string) (map[string]any, error)
}

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Registry *agents.Registry
	Chat     ChatService
	Builder  BuilderService
	Catalog  ModelCatalog
	Pages    PageStore

	// NewSession builds the per-request tool runner. Each request gets its
	// own so tool result caching never crosses request boundaries.
	NewSession func() orchestrator.ToolRunner
}

// Server holds the HTTP handlers and the model catalog cache.
type Server struct {
	cfg     *config.Config
	deps    Deps
	logger  *slog.Logger
	started time.Time

	modelsMu      sync.Mutex
	modelsCache   []modelEntry
	modelsCacheAt time.Time
}

// New builds the server.
func New(cfg *config.Config, deps Deps) *Server {
	return &Server{
		cfg:     cfg,
		deps:    deps,
		logger:  logger.GetLogger(),
		started: time.Now(),
	}
}

// Handler assembles the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/agent/chat", s.handleChat)
		r.Post("/builder/chat", s.handleBuilder)

		r.Route("/admin", func(r chi.Router) {
			r.Get("/agents", s.handleListAgents)
			r.Get("/agents/{id}", s.handleGetAgent)
			r.Put("/agents/{id}", s.handleUpdateAgent)
			r.Post("/agents/reset/{id}", s.handleResetAgent)
			r.Get("/models", s.handleListModels)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        Version,
		"model":          s.cfg.OpenRouterModel,
		"uptime_seconds": int(time.Since(s.started).Seconds()),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
