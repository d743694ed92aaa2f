package builder

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nitianimelo/arccoVPS/pkg/agents"
	"github.com/Nitianimelo/arccoVPS/pkg/llm"
	"github.com/Nitianimelo/arccoVPS/pkg/orchestrator"
)

type scriptedGateway struct {
	t       *testing.T
	replies []*llm.Message
	calls   []llm.Request
}

func (g *scriptedGateway) Call(ctx context.Context, req llm.Request) (*llm.Message, error) {
	g.calls = append(g.calls, req)
	if len(g.replies) == 0 {
		g.t.Fatalf("unexpected gateway call #%d", len(g.calls))
	}
	reply := g.replies[0]
	g.replies = g.replies[1:]
	return reply, nil
}

func (g *scriptedGateway) Stream(ctx context.Context, req llm.Request) (<-chan llm.StreamChunk, error) {
	g.t.Fatal("builder must not stream")
	return nil, nil
}

type stubRunner struct {
	calls []string
}

func (r *stubRunner) Execute(ctx context.Context, name string, args map[string]any) string {
	r.calls = append(r.calls, name)
	return "**Resumo:** referências encontradas"
}

type capture struct {
	events []orchestrator.Event
}

func (c *capture) sink(e orchestrator.Event) error {
	c.events = append(c.events, e)
	return nil
}

func (c *capture) byType(eventType string) []orchestrator.Event {
	var out []orchestrator.Event
	for _, e := range c.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func TestBuilderEmitsActions(t *testing.T) {
	gw := &scriptedGateway{t: t, replies: []*llm.Message{
		{Role: "assistant", Content: `{"actions":[{"type":"create","file_path":"index.html","content":"<html></html>"}],"explanation":"Criei a página."}`},
	}}
	b := New(gw, nil, "anthropic/claude-3.5-sonnet")

	c := &capture{}
	err := b.Run(context.Background(), orchestrator.NewEmitter(c.sink), &stubRunner{}, Request{
		Messages:   []llm.Message{{Role: "user", Content: "crie uma landing page"}},
		AgentMode:  "creation",
		RenderMode: "iframe",
	})
	require.NoError(t, err)

	actions := c.byType("actions")
	require.Len(t, actions, 1)
	assert.Contains(t, actions[0].Content, `"file_path":"index.html"`)

	var sawCount bool
	for _, e := range c.byType("steps") {
		if strings.Contains(e.Content, "1 arquivos gerados") {
			sawCount = true
		}
	}
	assert.True(t, sawCount)

	// Code mode uses the file-editing prompt.
	system := gw.calls[0].Messages[0]
	assert.Equal(t, "system", system.Role)
	assert.Contains(t, system.Content, "engenheiro frontend sênior")
}

func TestBuilderASTModeCarriesPageState(t *testing.T) {
	gw := &scriptedGateway{t: t, replies: []*llm.Message{
		{Role: "assistant", Content: `{"ast_actions":[{"action":"add_section","section_type":"Hero","props":{"title":"Olá"}}],"explanation":"Hero criado."}`},
	}}
	b := New(gw, nil, "m")

	c := &capture{}
	err := b.Run(context.Background(), orchestrator.NewEmitter(c.sink), &stubRunner{}, Request{
		Messages:   []llm.Message{{Role: "user", Content: "adicione um hero"}},
		RenderMode: "ast",
		PageState:  map[string]any{"sections": []any{}},
	})
	require.NoError(t, err)

	system := gw.calls[0].Messages[0].Content
	assert.Contains(t, system, "Arquiteto de UI")
	assert.Contains(t, system, "DESIGN MODE (AST)")
	assert.Contains(t, system, `"sections"`)

	var sawDesignStep bool
	for _, e := range c.byType("steps") {
		if strings.Contains(e.Content, "1 alterações de design aplicadas") {
			sawDesignStep = true
		}
	}
	assert.True(t, sawDesignStep)
	require.Len(t, c.byType("actions"), 1)
}

func TestBuilderResolvesAgentFromRegistry(t *testing.T) {
	registry := agents.NewRegistry("google/gemini-2.5-flash", filepath.Join(t.TempDir(), "overrides.json"))
	_, err := registry.Update("pages_ux", agents.Patch{SystemPrompt: strPtr("Prompt customizado do arquiteto.")})
	require.NoError(t, err)

	gw := &scriptedGateway{t: t, replies: []*llm.Message{
		{Role: "assistant", Content: `{"ast_actions":[],"explanation":"nada a fazer"}`},
	}}
	b := New(gw, registry, "fallback-model")

	c := &capture{}
	require.NoError(t, b.Run(context.Background(), orchestrator.NewEmitter(c.sink), &stubRunner{}, Request{
		Messages:   []llm.Message{{Role: "user", Content: "revise"}},
		RenderMode: "ast",
	}))

	system := gw.calls[0].Messages[0].Content
	assert.Contains(t, system, "Prompt customizado do arquiteto.")
	assert.Equal(t, "google/gemini-2.5-flash", gw.calls[0].Model)
}

func strPtr(s string) *string { return &s }

func TestBuilderToolLoop(t *testing.T) {
	gw := &scriptedGateway{t: t, replies: []*llm.Message{
		{Role: "assistant", ToolCalls: []llm.ToolCall{{
			ID: "call_1", Type: "function",
			Function: llm.FunctionCall{Name: "web_search", Arguments: `{"query":"paletas dark mode"}`},
		}}},
		{Role: "assistant", Content: `{"actions":[{"type":"create","file_path":"index.html","content":"x"}],"explanation":"ok"}`},
	}}
	b := New(gw, nil, "m")

	c := &capture{}
	runner := &stubRunner{}
	err := b.Run(context.Background(), orchestrator.NewEmitter(c.sink), runner, Request{
		Messages: []llm.Message{{Role: "user", Content: "pesquise referências e crie"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"web_search"}, runner.calls)

	var steps []string
	for _, e := range c.byType("steps") {
		steps = append(steps, e.Content)
	}
	assert.Contains(t, steps, "<step>🔧 Usando ferramentas: web_search</step>")
	assert.Contains(t, steps, "<step>⚡ Executando web_search...</step>")
	assert.Contains(t, steps, "<step>✅ web_search concluído.</step>")

	require.Len(t, c.byType("tool_call"), 1)
	require.Len(t, c.byType("tool_result"), 1)
	assert.Contains(t, c.byType("tool_result")[0].Content, `"tool":"web_search"`)

	// The tool observation reached the second model call.
	var sawObservation bool
	for _, m := range gw.calls[1].Messages {
		if m.Role == "tool" && strings.Contains(m.Content, "referências encontradas") {
			sawObservation = true
		}
	}
	assert.True(t, sawObservation)
}

func TestBuilderTextualClarification(t *testing.T) {
	gw := &scriptedGateway{t: t, replies: []*llm.Message{
		{Role: "assistant", Content: "Qual estilo visual você prefere: minimalista ou vibrante?"},
	}}
	b := New(gw, nil, "m")

	c := &capture{}
	require.NoError(t, b.Run(context.Background(), orchestrator.NewEmitter(c.sink), &stubRunner{}, Request{
		Messages: []llm.Message{{Role: "user", Content: "crie algo"}},
	}))

	chunks := c.byType("chunk")
	require.Len(t, chunks, 1)
	assert.Equal(t, "Qual estilo visual você prefere: minimalista ou vibrante?", chunks[0].Content)
	assert.Empty(t, c.byType("actions"))
}

func TestBuilderEmptyReplyIsError(t *testing.T) {
	gw := &scriptedGateway{t: t, replies: []*llm.Message{{Role: "assistant", Content: "   "}}}
	b := New(gw, nil, "m")

	c := &capture{}
	require.NoError(t, b.Run(context.Background(), orchestrator.NewEmitter(c.sink), &stubRunner{}, Request{
		Messages: []llm.Message{{Role: "user", Content: "x"}},
	}))

	errs := c.byType("error")
	require.Len(t, errs, 1)
	assert.Equal(t, "Resposta vazia do agente.", errs[0].Content)
}

func TestBuilderIterationCap(t *testing.T) {
	var replies []*llm.Message
	for i := 0; i < 8; i++ {
		replies = append(replies, &llm.Message{Role: "assistant", ToolCalls: []llm.ToolCall{{
			ID: "call_x", Type: "function",
			Function: llm.FunctionCall{Name: "web_fetch", Arguments: `{"url":"https://example.com"}`},
		}}})
	}
	gw := &scriptedGateway{t: t, replies: replies}
	b := New(gw, nil, "m")

	c := &capture{}
	require.NoError(t, b.Run(context.Background(), orchestrator.NewEmitter(c.sink), &stubRunner{}, Request{
		Messages: []llm.Message{{Role: "user", Content: "x"}},
	}))

	errs := c.byType("error")
	require.Len(t, errs, 1)
	assert.Equal(t, "Limite de iterações atingido.", errs[0].Content)
}
