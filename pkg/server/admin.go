package server

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Nitianimelo/arccoVPS/pkg/agents"
)

// The provider's model listing changes rarely; a 1-hour cache keeps the
// admin panel from hammering the catalog endpoint.
const modelsCacheTTL = time.Hour

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"agents": s.deps.Registry.All()})
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cfg, ok := s.deps.Registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Agente '%s' não encontrado", id))
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleUpdateAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch agents.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "corpo da requisição inválido: "+err.Error())
		return
	}

	if _, ok := s.deps.Registry.Get(id); !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Agente '%s' não encontrado", id))
		return
	}

	cfg, err := s.deps.Registry.Update(id, patch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("agent saved via admin API", "agent", id)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "agent": cfg})
}

func (s *Server) handleResetAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cfg, err := s.deps.Registry.Reset(id)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Agente '%s' não encontrado", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "agent": cfg})
}

type modelEntry struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	ContextLength int          `json:"context_length"`
	Pricing       modelPricing `json:"pricing"`
}

// modelPricing is USD per one million tokens.
type modelPricing struct {
	Prompt1M     float64 `json:"prompt_1m"`
	Completion1M float64 `json:"completion_1m"`
}

func (p modelPricing) free() bool {
	return p.Prompt1M == 0 && p.Completion1M == 0
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	s.modelsMu.Lock()
	if s.modelsCache != nil && time.Since(s.modelsCacheAt) < modelsCacheTTL {
		cached := s.modelsCache
		s.modelsMu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"models": cached, "cached": true})
		return
	}
	s.modelsMu.Unlock()

	catalog, err := s.deps.Catalog.ListModels(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Erro ao buscar modelos do OpenRouter: %v", err))
		return
	}

	models := make([]modelEntry, 0, len(catalog))
	for _, m := range catalog {
		name := m.Name
		if name == "" {
			name = m.ID
		}
		models = append(models, modelEntry{
			ID:            m.ID,
			Name:          name,
			ContextLength: m.ContextLength,
			Pricing: modelPricing{
				Prompt1M:     pricePerMillion(m.Pricing.Prompt),
				Completion1M: pricePerMillion(m.Pricing.Completion),
			},
		})
	}

	// Paid models first, ordered by name; free models at the end.
	sort.Slice(models, func(i, j int) bool {
		if models[i].Pricing.free() != models[j].Pricing.free() {
			return !models[i].Pricing.free()
		}
		return strings.ToLower(models[i].Name) < strings.ToLower(models[j].Name)
	})

	s.modelsMu.Lock()
	s.modelsCache = models
	s.modelsCacheAt = time.Now()
	s.modelsMu.Unlock()

	s.logger.Info("model catalog refreshed", "models", len(models))
	writeJSON(w, http.StatusOK, map[string]any{"models": models, "cached": false})
}

// pricePerMillion scales the provider's per-token price string to USD per 1M
// tokens, rounded to 4 decimal places for display.
func pricePerMillion(perToken string) float64 {
	v, err := strconv.ParseFloat(perToken, 64)
	if err != nil {
		return 0
	}
	return math.Round(v*1_000_000*10_000) / 10_000
}
