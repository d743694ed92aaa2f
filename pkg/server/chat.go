package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Nitianimelo/arccoVPS/pkg/builder"
	"github.com/Nitianimelo/arccoVPS/pkg/llm"
	"github.com/Nitianimelo/arccoVPS/pkg/orchestrator"
)

type chatRequest struct {
	Messages []llm.Message `json:"messages"`
	Model    string        `json:"model"`
}

// handleChat streams the supervisor loop over SSE. The request context is
// tied to the client connection, so a disconnect cancels any in-flight LLM
// call or tool execution.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "corpo da requisição inválido: "+err.Error())
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "nenhuma mensagem fornecida")
		return
	}
	model := req.Model
	if model == "" {
		model = s.cfg.OpenRouterModel
	}

	em, ok := s.startStream(w)
	if !ok {
		return
	}
	defer em.Close()

	if err := s.deps.Chat.Run(r.Context(), em, s.deps.NewSession(), req.Messages, model); err != nil {
		// Sink errors mean the client went away; nothing left to send.
		s.requestLogger(r).Warn("chat stream aborted", "error", err)
		return
	}
	_ = em.Done()
}

// handleBuilder streams the page-builder loop over SSE.
func (s *Server) handleBuilder(w http.ResponseWriter, r *http.Request) {
	var req builder.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "corpo da requisição inválido: "+err.Error())
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "nenhuma mensagem fornecida")
		return
	}
	if req.AgentMode == "" {
		req.AgentMode = "creation"
	}
	if req.RenderMode == "" {
		req.RenderMode = "iframe"
	}
	if req.Model == "" {
		req.Model = s.cfg.OpenRouterModel
	}

	log := s.requestLogger(r)

	// AST edits may reference a stored page by slug instead of shipping the
	// whole state. A lookup failure just means the builder starts fresh.
	if req.RenderMode == "ast" && len(req.PageState) == 0 && req.Slug != "" && s.deps.Pages != nil {
		page, err := s.deps.Pages.PageBySlug(r.Context(), req.Slug)
		if err != nil {
			log.Warn("stored page lookup failed", "slug", req.Slug, "error", err)
		} else {
			req.PageState = page
		}
	}

	em, ok := s.startStream(w)
	if !ok {
		return
	}
	defer em.Close()

	if err := s.deps.Builder.Run(r.Context(), em, s.deps.NewSession(), req); err != nil {
		log.Warn("builder stream aborted", "error", err)
		return
	}
	_ = em.Done()
}

// requestLogger tags log lines with the middleware-assigned request id.
func (s *Server) requestLogger(r *http.Request) *slog.Logger {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return s.logger.With("request_id", id)
	}
	return s.logger
}

// startStream switches the response into SSE mode and returns an emitter
// whose sink writes one frame per event, flushing immediately so proxies
// (X-Accel-Buffering) and the client see events as they happen.
func (s *Server) startStream(w http.ResponseWriter) (*orchestrator.Emitter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming não suportado")
		return nil, false
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	em := orchestrator.NewEmitter(func(e orchestrator.Event) error {
		if _, err := w.Write([]byte(e.SSE())); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	return em, true
}
