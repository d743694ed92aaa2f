// Package orchestrator runs the supervisor-worker pipeline: a ReAct loop in
// which the supervisor agent converses with the user and delegates work to
// specialist agents, whose results pass through QA review and download-link
// validation before returning to the supervisor.
package orchestrator

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Event is one frame of the client-facing stream.
//
// Types: "steps" (progress markers wrapped in <step> tags), "chunk" (response
// text), "tool_call"/"tool_result"/"tool_error" (tool execution traces,
// content is a JSON document), "browser_action" (browser status card, content
// is a JSON document), "actions" (builder artifact), "error" (fatal, request
// ends) and "done" (sentinel emitted by the edge).
type Event struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// SSE renders the event as a server-sent-events frame.
func (e Event) SSE() string {
	payload, _ := json.Marshal(e)
	return fmt.Sprintf("data: %s\n\n", payload)
}

// Sink receives rendered events. A non-nil error (client gone) stops the
// pipeline.
type Sink func(Event) error

// Emitter serializes event emission for one request. After Close no further
// events go out, which protects the client from trailing frames once a
// terminal specialist has taken over the stream.
type Emitter struct {
	mu     sync.Mutex
	sink   Sink
	closed bool
}

// NewEmitter wraps a sink.
func NewEmitter(sink Sink) *Emitter {
	return &Emitter{sink: sink}
}

func (em *Emitter) emit(eventType, content string) error {
	em.mu.Lock()
	defer em.mu.Unlock()
	if em.closed {
		return nil
	}
	return em.sink(Event{Type: eventType, Content: content})
}

// Step emits a progress marker.
func (em *Emitter) Step(message string) error {
	return em.emit("steps", fmt.Sprintf("<step>%s</step>", message))
}

// Chunk emits a piece of response text.
func (em *Emitter) Chunk(text string) error {
	return em.emit("chunk", text)
}

// Error emits the terminal error event and closes the stream. Exactly one
// terminal event goes out per request, so a later Done is a no-op.
func (em *Emitter) Error(message string) error {
	return em.emitTerminal("error", message)
}

// ToolCall emits a tool invocation trace.
func (em *Emitter) ToolCall(tool, inputPreview string) error {
	return em.emitJSON("tool_call", map[string]any{"tool": tool, "input": inputPreview})
}

// ToolResult emits a successful tool execution trace.
func (em *Emitter) ToolResult(tool string, elapsed time.Duration, preview string) error {
	return em.emitJSON("tool_result", map[string]any{
		"tool":       tool,
		"elapsed_ms": elapsed.Milliseconds(),
		"preview":    preview,
	})
}

// ToolError emits a failed tool execution trace. The failure stays in the
// transcript as an observation; the loop itself continues.
func (em *Emitter) ToolError(tool string, elapsed time.Duration, preview string) error {
	return em.emitJSON("tool_error", map[string]any{
		"tool":       tool,
		"elapsed_ms": elapsed.Milliseconds(),
		"preview":    preview,
	})
}

// BrowserAction emits a browser status card. The payload is serialized JSON
// carried inside the event's content string.
func (em *Emitter) BrowserAction(payload map[string]any) error {
	return em.emitJSON("browser_action", payload)
}

func (em *Emitter) emitJSON(eventType string, payload map[string]any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return em.emit(eventType, string(raw))
}

// Actions emits a builder actions document. The payload is serialized JSON
// carried inside the event's content string.
func (em *Emitter) Actions(payload string) error {
	return em.emit("actions", payload)
}

// Done emits the end-of-stream sentinel and closes the stream.
func (em *Emitter) Done() error {
	return em.emitTerminal("done", "")
}

func (em *Emitter) emitTerminal(eventType, content string) error {
	em.mu.Lock()
	defer em.mu.Unlock()
	if em.closed {
		return nil
	}
	em.closed = true
	return em.sink(Event{Type: eventType, Content: content})
}

// Close drops any future events.
func (em *Emitter) Close() {
	em.mu.Lock()
	defer em.mu.Unlock()
	em.closed = true
}
