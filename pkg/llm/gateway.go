// Package llm is the gateway to the OpenRouter chat-completions API. It owns
// provider authentication (key table lookup with a short-lived cache and a
// forced refresh on 401) and exposes one non-streaming and one streaming
// operation. Tool-use loops are the caller's concern; the gateway never
// retries them.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Nitianimelo/arccoVPS/pkg/httpclient"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	keyTTL         = 60 * time.Second
	refererHeader  = "https://arcco.ai"
	titleHeader    = "Arcco.ai Agent"
)

var (
	// ErrUnavailable covers transport failures and non-2xx provider replies.
	ErrUnavailable = errors.New("llm unavailable")
	// ErrProtocol covers well-formed HTTP replies with unusable content.
	ErrProtocol = errors.New("llm protocol error")
)

// KeySource resolves the active provider key. The Supabase ApiKeys table is
// the single source of truth; the environment key is only a bootstrap
// fallback when the table is unreachable.
type KeySource interface {
	ActiveKey(ctx context.Context, provider string) (string, error)
}

type Gateway struct {
	baseURL      string
	defaultModel string
	maxTokens    int
	envKey       string
	keys         KeySource
	httpClient   *httpclient.Client

	mu       sync.Mutex
	cacheKey string
	cacheAt  time.Time
}

type Option func(*Gateway)

func WithBaseURL(u string) Option {
	return func(g *Gateway) {
		g.baseURL = strings.TrimRight(u, "/")
	}
}

func WithHTTPClient(hc *httpclient.Client) Option {
	return func(g *Gateway) {
		g.httpClient = hc
	}
}

// WithEnvKey sets the bootstrap key used when the key table is unreachable
// and no cached key exists.
func WithEnvKey(key string) Option {
	return func(g *Gateway) {
		g.envKey = key
	}
}

func New(keys KeySource, defaultModel string, maxTokens int, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL:      defaultBaseURL,
		defaultModel: defaultModel,
		maxTokens:    maxTokens,
		keys:         keys,
		httpClient: httpclient.New(
			httpclient.WithTimeout(60*time.Second),
			httpclient.WithMaxRetries(2),
		),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) DefaultModel() string { return g.defaultModel }

// apiKey returns the cached provider key, refreshing from the key table when
// the TTL expired or force is set. A stale cached key is better than no key
// when the table is briefly unreachable.
func (g *Gateway) apiKey(ctx context.Context, force bool) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !force && g.cacheKey != "" && time.Since(g.cacheAt) < keyTTL {
		return g.cacheKey, nil
	}

	key, err := g.keys.ActiveKey(ctx, "openrouter")
	if err == nil && key != "" {
		g.cacheKey = key
		g.cacheAt = time.Now()
		return key, nil
	}

	if g.cacheKey != "" {
		slog.Warn("key table unavailable, using stale cached key")
		return g.cacheKey, nil
	}
	if g.envKey != "" {
		return g.envKey, nil
	}
	return "", fmt.Errorf("%w: chave OpenRouter não encontrada: %v", ErrUnavailable, err)
}

func (g *Gateway) buildRequest(req Request, stream bool) chatRequest {
	model := req.Model
	if model == "" {
		model = g.defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = g.maxTokens
	}
	temperature := 0.7
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	return chatRequest{
		Model:       model,
		Messages:    req.Messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Stream:      stream,
		Tools:       req.Tools,
	}
}

func (g *Gateway) doRequest(ctx context.Context, body []byte, apiKey string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("HTTP-Referer", refererHeader)
	req.Header.Set("X-Title", titleHeader)

	return g.httpClient.Do(req)
}

// send performs the HTTP exchange with the 401 key-refresh-and-retry-once
// contract shared by Call and Stream.
func (g *Gateway) send(ctx context.Context, body []byte) (*http.Response, error) {
	apiKey, err := g.apiKey(ctx, false)
	if err != nil {
		return nil, err
	}

	resp, err := g.doRequest(ctx, body, apiKey)
	if resp != nil && resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		slog.Warn("provider returned 401, refreshing key from key table")
		newKey, keyErr := g.apiKey(ctx, true)
		if keyErr == nil && newKey != apiKey {
			resp, err = g.doRequest(ctx, body, newKey)
		}
	}

	if resp == nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		if apiErr := parseErrorBody(raw); apiErr != nil {
			return nil, fmt.Errorf("%w: HTTP %d: %s", ErrUnavailable, resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrUnavailable, resp.StatusCode, string(raw))
	}
	return resp, nil
}

// Call performs a non-streaming completion and returns the full assistant
// turn. Empty choices are a protocol error, not a retryable condition.
func (g *Gateway) Call(ctx context.Context, req Request) (*Message, error) {
	body, err := json.Marshal(g.buildRequest(req, false))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := g.send(ctx, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: no response choices returned", ErrProtocol)
	}

	message := parsed.Choices[0].Message
	return &message, nil
}

// Stream performs a streaming completion. The returned channel delivers text
// fragments as they arrive, reassembled tool calls when the stream finishes,
// then exactly one "done" (or "error") chunk before closing.
func (g *Gateway) Stream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	body, err := json.Marshal(g.buildRequest(req, true))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	outputCh := make(chan StreamChunk, 100)

	go func() {
		defer close(outputCh)
		if err := g.streamInto(ctx, body, outputCh); err != nil {
			outputCh <- StreamChunk{Type: "error", Err: err}
		}
	}()

	return outputCh, nil
}

func (g *Gateway) streamInto(ctx context.Context, body []byte, outputCh chan<- StreamChunk) error {
	resp, err := g.send(ctx, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	toolCallsMap := make(map[int]*ToolCall)
	totalTokens := 0

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: failed to read stream: %v", ErrUnavailable, err)
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 || !bytes.HasPrefix(line, []byte("data: ")) {
			continue
		}
		line = line[6:]

		if bytes.Equal(line, []byte("[DONE]")) {
			break
		}

		var parsed streamResponse
		if err := json.Unmarshal(line, &parsed); err != nil {
			continue
		}
		if parsed.Error != nil {
			return fmt.Errorf("%w: %s", ErrUnavailable, parsed.Error.Message)
		}
		if parsed.Usage != nil {
			totalTokens = parsed.Usage.TotalTokens
		}
		if len(parsed.Choices) == 0 {
			continue
		}

		choice := parsed.Choices[0]

		if choice.Delta.Content != "" {
			select {
			case outputCh <- StreamChunk{Type: "text", Text: choice.Delta.Content}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		for _, deltaCall := range choice.Delta.ToolCalls {
			call, ok := toolCallsMap[deltaCall.Index]
			if !ok {
				toolCallsMap[deltaCall.Index] = &ToolCall{
					ID:       deltaCall.ID,
					Type:     deltaCall.Type,
					Function: deltaCall.Function,
				}
				continue
			}
			if deltaCall.ID != "" {
				call.ID = deltaCall.ID
			}
			if deltaCall.Function.Name != "" {
				call.Function.Name = deltaCall.Function.Name
			}
			call.Function.Arguments += deltaCall.Function.Arguments
		}

		if choice.FinishReason == "stop" || choice.FinishReason == "tool_calls" {
			break
		}
	}

	indexes := make([]int, 0, len(toolCallsMap))
	for i := range toolCallsMap {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	for _, i := range indexes {
		select {
		case outputCh <- StreamChunk{Type: "tool_call", ToolCall: toolCallsMap[i]}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	outputCh <- StreamChunk{Type: "done", Tokens: totalTokens}
	return nil
}

func parseErrorBody(body []byte) *apiError {
	if len(body) == 0 {
		return nil
	}
	var wrapped struct {
		Error apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Error.Message != "" {
		return &wrapped.Error
	}
	return nil
}
