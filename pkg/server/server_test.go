package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nitianimelo/arccoVPS/pkg/agents"
	"github.com/Nitianimelo/arccoVPS/pkg/builder"
	"github.com/Nitianimelo/arccoVPS/pkg/config"
	"github.com/Nitianimelo/arccoVPS/pkg/llm"
	"github.com/Nitianimelo/arccoVPS/pkg/orchestrator"
)

type fakeChat struct {
	messages []llm.Message
	model    string
}

func (f *fakeChat) Run(ctx context.Context, em *orchestrator.Emitter, _ orchestrator.ToolRunner, messages []llm.Message, model string) error {
	f.messages = messages
	f.model = model
	if err := em.Step("Analisando pedido e planejando execução..."); err != nil {
		return err
	}
	return em.Chunk("Olá!")
}

type fakeBuilder struct {
	req builder.Request
}

func (f *fakeBuilder) Run(ctx context.Context, em *orchestrator.Emitter, _ orchestrator.ToolRunner, req builder.Request) error {
	f.req = req
	return em.Actions(`{"actions":[]}`)
}

type fakeCatalog struct {
	models []llm.CatalogModel
	err    error
	calls  int
}

func (f *fakeCatalog) ListModels(ctx context.Context) ([]llm.CatalogModel, error) {
	f.calls++
	return f.models, f.err
}

type noopRunner struct{}

func (noopRunner) Execute(ctx context.Context, name string, args map[string]any) string { return "" }

func newTestServer(t *testing.T, deps Deps) *Server {
	t.Helper()
	cfg := &config.Config{
		CORSOrigins:     "*",
		OpenRouterModel: "anthropic/claude-3.5-sonnet",
	}
	if deps.Registry == nil {
		deps.Registry = agents.NewRegistry("anthropic/claude-3.5-sonnet", filepath.Join(t.TempDir(), "agent_overrides.json"))
	}
	if deps.NewSession == nil {
		deps.NewSession = func() orchestrator.ToolRunner { return noopRunner{} }
	}
	return New(cfg, deps)
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestChatStreamsSSE(t *testing.T) {
	chat := &fakeChat{}
	s := newTestServer(t, Deps{Chat: chat})
	h := s.Handler()

	rec := postJSON(t, h, "/api/agent/chat", `{"messages":[{"role":"user","content":"oi"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))

	body := rec.Body.String()
	assert.Contains(t, body, `"type":"steps"`)
	assert.Contains(t, body, `"type":"chunk"`)
	assert.Contains(t, body, `"type":"done"`)
	assert.True(t, strings.HasPrefix(body, "data: "))

	// Model defaults when the client does not pick one.
	assert.Equal(t, "anthropic/claude-3.5-sonnet", chat.model)
	require.Len(t, chat.messages, 1)
	assert.Equal(t, "oi", chat.messages[0].Content)
}

type cappedChat struct{}

func (cappedChat) Run(ctx context.Context, em *orchestrator.Emitter, _ orchestrator.ToolRunner, _ []llm.Message, _ string) error {
	if err := em.Step("Analisando pedido e planejando execução..."); err != nil {
		return err
	}
	return em.Error("Limite máximo de processamento atingido. Por favor, seja mais específico na sua solicitação.")
}

func sseTypes(t *testing.T, body string) []string {
	t.Helper()
	var types []string
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var e orchestrator.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &e))
		types = append(types, e.Type)
	}
	return types
}

func TestChatErrorEndsStream(t *testing.T) {
	s := newTestServer(t, Deps{Chat: cappedChat{}})

	rec := postJSON(t, s.Handler(), "/api/agent/chat", `{"messages":[{"role":"user","content":"navegue"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	types := sseTypes(t, rec.Body.String())
	assert.Equal(t, []string{"steps", "error"}, types)
}

func TestChatRejectsEmptyBody(t *testing.T) {
	s := newTestServer(t, Deps{Chat: &fakeChat{}})
	h := s.Handler()

	rec := postJSON(t, h, "/api/agent/chat", `{"messages":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "nenhuma mensagem fornecida")

	rec = postJSON(t, h, "/api/agent/chat", `{bad json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBuilderAppliesDefaults(t *testing.T) {
	fb := &fakeBuilder{}
	s := newTestServer(t, Deps{Builder: fb})
	h := s.Handler()

	rec := postJSON(t, h, "/api/builder/chat", `{"messages":[{"role":"user","content":"crie uma página"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"actions"`)
	assert.Contains(t, rec.Body.String(), `"type":"done"`)

	assert.Equal(t, "creation", fb.req.AgentMode)
	assert.Equal(t, "iframe", fb.req.RenderMode)
	assert.Equal(t, "anthropic/claude-3.5-sonnet", fb.req.Model)
}

func TestBuilderKeepsExplicitModes(t *testing.T) {
	fb := &fakeBuilder{}
	s := newTestServer(t, Deps{Builder: fb})
	h := s.Handler()

	body := `{"messages":[{"role":"user","content":"x"}],"agentMode":"edition","renderMode":"ast","pageState":{"sections":[]},"model":"openai/gpt-4o"}`
	rec := postJSON(t, h, "/api/builder/chat", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "edition", fb.req.AgentMode)
	assert.Equal(t, "ast", fb.req.RenderMode)
	assert.Equal(t, "openai/gpt-4o", fb.req.Model)
	assert.NotNil(t, fb.req.PageState["sections"])
}

type fakePages struct {
	slug string
	page map[string]any
}

func (f *fakePages) PageBySlug(ctx context.Context, slug string) (map[string]any, error) {
	f.slug = slug
	if f.page == nil {
		return nil, errors.New("página não encontrada")
	}
	return f.page, nil
}

func TestBuilderHydratesPageStateFromSlug(t *testing.T) {
	fb := &fakeBuilder{}
	pages := &fakePages{page: map[string]any{"codepages": map[string]any{"sections": []any{}}}}
	s := newTestServer(t, Deps{Builder: fb, Pages: pages})

	body := `{"messages":[{"role":"user","content":"edite o hero"}],"renderMode":"ast","slug":"minha-landing"}`
	rec := postJSON(t, s.Handler(), "/api/builder/chat", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "minha-landing", pages.slug)
	assert.NotNil(t, fb.req.PageState["codepages"])
}

func TestBuilderSlugLookupFailureStartsFresh(t *testing.T) {
	fb := &fakeBuilder{}
	s := newTestServer(t, Deps{Builder: fb, Pages: &fakePages{}})

	body := `{"messages":[{"role":"user","content":"x"}],"renderMode":"ast","slug":"fantasma"}`
	rec := postJSON(t, s.Handler(), "/api/builder/chat", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, fb.req.PageState)
}

func TestAdminListAgents(t *testing.T) {
	s := newTestServer(t, Deps{})
	rec := get(t, s.Handler(), "/api/admin/agents")

	require.Equal(t, http.StatusOK, rec.Code)
	var parsed struct {
		Agents []agents.Config `json:"agents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	assert.Len(t, parsed.Agents, 10)
}

func TestAdminGetAgent(t *testing.T) {
	s := newTestServer(t, Deps{})
	h := s.Handler()

	rec := get(t, h, "/api/admin/agents/chat")
	require.Equal(t, http.StatusOK, rec.Code)
	var cfg agents.Config
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, "chat", cfg.ID)
	assert.NotEmpty(t, cfg.SystemPrompt)

	rec = get(t, h, "/api/admin/agents/ghost")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Agente 'ghost' não encontrado")
}

func TestAdminUpdateAndResetAgent(t *testing.T) {
	registry := agents.NewRegistry("anthropic/claude-3.5-sonnet", filepath.Join(t.TempDir(), "agent_overrides.json"))
	s := newTestServer(t, Deps{Registry: registry})
	h := s.Handler()

	req := httptest.NewRequest(http.MethodPut, "/api/admin/agents/qa", strings.NewReader(`{"model":"openai/gpt-4o-mini"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Equal(t, "openai/gpt-4o-mini", registry.Model("qa"))

	rec = postJSON(t, h, "/api/admin/agents/reset/qa", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anthropic/claude-3.5-sonnet", registry.Model("qa"))

	req = httptest.NewRequest(http.MethodPut, "/api/admin/agents/ghost", strings.NewReader(`{"model":"x"}`))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminListModels(t *testing.T) {
	catalog := &fakeCatalog{models: []llm.CatalogModel{
		{
			ID: "zeta/free-model", Name: "Zeta: Free", ContextLength: 8192,
			Pricing: llm.CatalogPricing{Prompt: "0", Completion: "0"},
		},
		{
			ID: "openai/gpt-4o", Name: "OpenAI: GPT-4o", ContextLength: 128000,
			Pricing: llm.CatalogPricing{Prompt: "0.0000025", Completion: "0.00001"},
		},
		{
			ID: "anthropic/claude-3.5-sonnet", Name: "Anthropic: Claude 3.5 Sonnet", ContextLength: 200000,
			Pricing: llm.CatalogPricing{Prompt: "0.000003", Completion: "0.000015"},
		},
	}}
	s := newTestServer(t, Deps{Catalog: catalog})
	h := s.Handler()

	rec := get(t, h, "/api/admin/models")
	require.Equal(t, http.StatusOK, rec.Code)

	var parsed struct {
		Models []modelEntry `json:"models"`
		Cached bool         `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	require.Len(t, parsed.Models, 3)
	assert.False(t, parsed.Cached)

	// Paid models by name first, the free model last.
	assert.Equal(t, "anthropic/claude-3.5-sonnet", parsed.Models[0].ID)
	assert.Equal(t, "openai/gpt-4o", parsed.Models[1].ID)
	assert.Equal(t, "zeta/free-model", parsed.Models[2].ID)

	// Per-token prices scaled to per-1M.
	assert.Equal(t, 3.0, parsed.Models[0].Pricing.Prompt1M)
	assert.Equal(t, 15.0, parsed.Models[0].Pricing.Completion1M)
	assert.Equal(t, 2.5, parsed.Models[1].Pricing.Prompt1M)

	// Second request is served from cache.
	rec = get(t, h, "/api/admin/models")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cached":true`)
	assert.Equal(t, 1, catalog.calls)
}

func TestAdminListModelsProviderFailure(t *testing.T) {
	catalog := &fakeCatalog{err: errors.New("HTTP 503")}
	s := newTestServer(t, Deps{Catalog: catalog})

	rec := get(t, s.Handler(), "/api/admin/models")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Erro ao buscar modelos do OpenRouter")
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, Deps{})
	rec := get(t, s.Handler(), "/healthz")

	require.Equal(t, http.StatusOK, rec.Code)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	assert.Equal(t, "ok", parsed["status"])
	assert.Equal(t, Version, parsed["version"])
}
