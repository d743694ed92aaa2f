package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticKeys struct {
	keys []string
	idx  int32
	errs int32
}

func (s *staticKeys) ActiveKey(ctx context.Context, provider string) (string, error) {
	if len(s.keys) == 0 {
		atomic.AddInt32(&s.errs, 1)
		return "", fmt.Errorf("tabela indisponível")
	}
	i := atomic.AddInt32(&s.idx, 1) - 1
	if int(i) >= len(s.keys) {
		i = int32(len(s.keys) - 1)
	}
	return s.keys[i], nil
}

func chatOK(content string) string {
	return fmt.Sprintf(`{"choices":[{"message":{"role":"assistant","content":%q},"finish_reason":"stop"}],"usage":{"total_tokens":10}}`, content)
}

func newGateway(serverURL string, keys KeySource) *Gateway {
	return New(keys, "anthropic/claude-3.5-sonnet", 2048, WithBaseURL(serverURL))
}

func TestCallReturnsAssistantMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "https://arcco.ai", r.Header.Get("HTTP-Referer"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "anthropic/claude-3.5-sonnet", req.Model)
		assert.Equal(t, 2048, req.MaxTokens)
		assert.False(t, req.Stream)

		_, _ = w.Write([]byte(chatOK("Olá!")))
	}))
	defer server.Close()

	g := newGateway(server.URL, &staticKeys{keys: []string{"sk-test"}})
	msg, err := g.Call(context.Background(), Request{Messages: []Message{{Role: "user", Content: "Olá"}}})
	require.NoError(t, err)
	assert.Equal(t, "assistant", msg.Role)
	assert.Equal(t, "Olá!", msg.Content)
}

func TestCallRefreshesKeyOn401(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			assert.Equal(t, "Bearer sk-old", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "Bearer sk-new", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(chatOK("ok")))
	}))
	defer server.Close()

	g := newGateway(server.URL, &staticKeys{keys: []string{"sk-old", "sk-new"}})
	msg, err := g.Call(context.Background(), Request{Messages: []Message{{Role: "user", Content: "x"}}})
	require.NoError(t, err)
	assert.Equal(t, "ok", msg.Content)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCall401WithSameKeyFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	g := newGateway(server.URL, &staticKeys{keys: []string{"sk-same"}})
	_, err := g.Call(context.Background(), Request{Messages: []Message{{Role: "user", Content: "x"}}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCallEmptyChoicesIsProtocolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	g := newGateway(server.URL, &staticKeys{keys: []string{"sk"}})
	_, err := g.Call(context.Background(), Request{Messages: []Message{{Role: "user", Content: "x"}}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestKeyCacheAvoidsRepeatedLookups(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatOK("ok")))
	}))
	defer server.Close()

	keys := &staticKeys{keys: []string{"sk-cached"}}
	g := newGateway(server.URL, keys)

	for i := 0; i < 3; i++ {
		_, err := g.Call(context.Background(), Request{Messages: []Message{{Role: "user", Content: "x"}}})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&keys.idx))
}

func TestKeyFallsBackToEnvWhenTableUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-env", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(chatOK("ok")))
	}))
	defer server.Close()

	g := New(&staticKeys{}, "m", 100, WithBaseURL(server.URL), WithEnvKey("sk-env"))
	_, err := g.Call(context.Background(), Request{Messages: []Message{{Role: "user", Content: "x"}}})
	require.NoError(t, err)
}

func TestStreamReassemblesToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		frames := []string{
			`{"choices":[{"delta":{"content":"pensando"}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"id":"call_1","type":"function","function":{"name":"web_search","arguments":""}}]}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"function":{"arguments":"{\"query\":"}}]}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"function":{"arguments":"\"golang\"}"}}]}}]}`,
			`{"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
		}
		for _, f := range frames {
			fmt.Fprintf(w, "data: %s\n\n", f)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	g := newGateway(server.URL, &staticKeys{keys: []string{"sk"}})
	ch, err := g.Stream(context.Background(), Request{Messages: []Message{{Role: "user", Content: "x"}}})
	require.NoError(t, err)

	var texts []string
	var toolCalls []*ToolCall
	var done bool
	for chunk := range ch {
		switch chunk.Type {
		case "text":
			texts = append(texts, chunk.Text)
		case "tool_call":
			toolCalls = append(toolCalls, chunk.ToolCall)
		case "done":
			done = true
		case "error":
			t.Fatalf("unexpected error chunk: %v", chunk.Err)
		}
	}

	assert.True(t, done)
	assert.Equal(t, []string{"pensando"}, texts)
	require.Len(t, toolCalls, 1)
	assert.Equal(t, "call_1", toolCalls[0].ID)
	assert.Equal(t, "web_search", toolCalls[0].Function.Name)
	assert.JSONEq(t, `{"query":"golang"}`, toolCalls[0].Function.Arguments)
}

func TestStreamReassemblesInterleavedToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		frames := []string{
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_a","type":"function","function":{"name":"web_search","arguments":""}}]}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":1,"id":"call_b","type":"function","function":{"name":"web_fetch","arguments":""}}]}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":1,"function":{"arguments":"{\"url\":\"https://a.test\"}"}}]}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"query\":\"go\"}"}}]}}]}`,
			`{"choices":[{"delta":{},"finish_reason":"tool_calls"}]}`,
		}
		for _, f := range frames {
			fmt.Fprintf(w, "data: %s\n\n", f)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	g := newGateway(server.URL, &staticKeys{keys: []string{"sk"}})
	ch, err := g.Stream(context.Background(), Request{Messages: []Message{{Role: "user", Content: "x"}}})
	require.NoError(t, err)

	var toolCalls []*ToolCall
	for chunk := range ch {
		if chunk.Type == "tool_call" {
			toolCalls = append(toolCalls, chunk.ToolCall)
		}
		if chunk.Type == "error" {
			t.Fatalf("unexpected error chunk: %v", chunk.Err)
		}
	}

	require.Len(t, toolCalls, 2)
	assert.Equal(t, "call_a", toolCalls[0].ID)
	assert.JSONEq(t, `{"query":"go"}`, toolCalls[0].Function.Arguments)
	assert.Equal(t, "call_b", toolCalls[1].ID)
	assert.JSONEq(t, `{"url":"https://a.test"}`, toolCalls[1].Function.Arguments)
}

func TestStreamTextOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, word := range []string{"Olá", ", ", "mundo"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", word)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	g := newGateway(server.URL, &staticKeys{keys: []string{"sk"}})
	ch, err := g.Stream(context.Background(), Request{Messages: []Message{{Role: "user", Content: "oi"}}})
	require.NoError(t, err)

	var out string
	for chunk := range ch {
		if chunk.Type == "text" {
			out += chunk.Text
		}
	}
	assert.Equal(t, "Olá, mundo", out)
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[{"id":"openai/gpt-4o","name":"OpenAI: GPT-4o","context_length":128000,"pricing":{"prompt":"0.0000025","completion":"0.00001"}}]}`))
	}))
	defer server.Close()

	g := newGateway(server.URL, &staticKeys{keys: []string{"sk"}})
	models, err := g.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "openai/gpt-4o", models[0].ID)
	assert.Equal(t, "0.0000025", models[0].Pricing.Prompt)
}
