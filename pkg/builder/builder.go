// Package builder is the page-builder entry point: the same agent-loop
// skeleton as the chat orchestrator, but with a restricted tool set and a
// response-decoding step that turns the model's final reply into an actions
// document for the editor UI.
package builder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Nitianimelo/arccoVPS/pkg/agents"
	"github.com/Nitianimelo/arccoVPS/pkg/llm"
	"github.com/Nitianimelo/arccoVPS/pkg/logger"
	"github.com/Nitianimelo/arccoVPS/pkg/orchestrator"
)

const (
	maxIterations    = 8
	builderMaxTokens = 16000
)

// File is one project file sent along with an edit request.
type File struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Request is a builder conversation turn. Slug lets AST-mode edits reference
// a stored page instead of shipping the whole state in the body.
type Request struct {
	Messages   []llm.Message  `json:"messages"`
	Files      []File         `json:"files"`
	AgentMode  string         `json:"agentMode"`  // "creation" or "edition"
	RenderMode string         `json:"renderMode"` // "ast" or "iframe"
	PageState  map[string]any `json:"pageState"`
	Slug       string         `json:"slug,omitempty"`
	Model      string         `json:"model"`
}

// AgentSource resolves the admin-editable specialist configuration the
// builder runs with: pages_ux for AST design mode, pages_dev for iframe code
// mode. A nil source means the compiled prompts are used as-is.
type AgentSource interface {
	Prompt(id string) string
	Model(id string) string
}

// Builder runs the page-builder agent loop.
type Builder struct {
	gateway      orchestrator.Gateway
	source       AgentSource
	defaultModel string
	logger       *slog.Logger
}

// New builds a Builder.
func New(gateway orchestrator.Gateway, source AgentSource, defaultModel string) *Builder {
	return &Builder{
		gateway:      gateway,
		source:       source,
		defaultModel: defaultModel,
		logger:       logger.GetLogger(),
	}
}

// contextMessage renders the project state the agent works against.
func contextMessage(req Request) string {
	if req.RenderMode == "ast" {
		state := "Empty Page (New)"
		if len(req.PageState) > 0 {
			if raw, err := json.MarshalIndent(req.PageState, "", "  "); err == nil {
				state = string(raw)
			}
		}
		return fmt.Sprintf(
			"## Modo: DESIGN MODE (AST)\n\n## Estado Atual da Página (AST)\n```json\n%s\n```\n\nInstruções: Analise o AST atual e gere patches para atingir o objetivo do usuário.",
			state,
		)
	}

	if len(req.Files) == 0 {
		return ""
	}
	var tree, contents []string
	for _, f := range req.Files {
		tree = append(tree, "  - "+f.Name)
		contents = append(contents, fmt.Sprintf("===== %s =====\n%s\n===== END =====", f.Name, f.Content))
	}
	modeLabel := "EDIÇÃO (projeto existente)"
	if req.AgentMode == "creation" {
		modeLabel = "CRIAÇÃO (novo projeto)"
	}
	return fmt.Sprintf(
		"## Modo: %s\n\n## Arquivos do Projeto\n%s\n\n## Conteúdo Atual\n%s",
		modeLabel, strings.Join(tree, "\n"), strings.Join(contents, "\n\n"),
	)
}

// Run executes the builder loop for one request, emitting events until the
// agent produces an actions document or a textual clarification.
func (b *Builder) Run(ctx context.Context, em *orchestrator.Emitter, toolRunner orchestrator.ToolRunner, req Request) error {
	agentID := "pages_dev"
	systemPrompt := CodeSystemPrompt
	if req.RenderMode == "ast" {
		agentID = "pages_ux"
		systemPrompt = ASTSystemPrompt
	}
	if b.source != nil {
		if prompt := b.source.Prompt(agentID); prompt != "" {
			systemPrompt = prompt
		}
	}
	if projectContext := contextMessage(req); projectContext != "" {
		systemPrompt += "\n\n---\n" + projectContext
	}

	model := req.Model
	if model == "" && b.source != nil {
		model = b.source.Model(agentID)
	}
	if model == "" {
		model = b.defaultModel
	}

	transcript := append([]llm.Message{{Role: "system", Content: systemPrompt}}, req.Messages...)

	if err := em.Step(fmt.Sprintf("🚀 Agente builder iniciado (%s)...", strings.ToUpper(req.RenderMode))); err != nil {
		return err
	}

	for iteration := 1; iteration <= maxIterations; iteration++ {
		if err := em.Step(fmt.Sprintf("🤔 Pensando (iteração %d)...", iteration)); err != nil {
			return err
		}

		msg, err := b.gateway.Call(ctx, llm.Request{
			Model:     model,
			Messages:  transcript,
			MaxTokens: builderMaxTokens,
			Tools:     agents.BuilderTools,
		})
		if err != nil {
			b.logger.Error("builder LLM call failed", "error", err)
			return em.Error(err.Error())
		}
		transcript = append(transcript, *msg)

		if len(msg.ToolCalls) > 0 {
			names := make([]string, len(msg.ToolCalls))
			for i, call := range msg.ToolCalls {
				names[i] = call.Function.Name
			}
			if err := em.Step("🔧 Usando ferramentas: " + strings.Join(names, ", ")); err != nil {
				return err
			}

			for _, call := range msg.ToolCalls {
				if err := em.Step(fmt.Sprintf("⚡ Executando %s...", call.Function.Name)); err != nil {
					return err
				}
				if err := em.ToolCall(call.Function.Name, truncate(call.Function.Arguments, 200)); err != nil {
					return err
				}

				result := ""
				start := time.Now()
				var args map[string]any
				if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
					result = fmt.Sprintf("Erro: %v", err)
					if stepErr := em.Step(fmt.Sprintf("⚠️ Erro em %s: %v", call.Function.Name, err)); stepErr != nil {
						return stepErr
					}
				} else {
					result = toolRunner.Execute(ctx, call.Function.Name, args)
				}

				if strings.HasPrefix(result, "Erro") || strings.HasPrefix(result, "❌") {
					if err := em.ToolError(call.Function.Name, time.Since(start), truncate(result, 200)); err != nil {
						return err
					}
				} else if err := em.ToolResult(call.Function.Name, time.Since(start), truncate(result, 200)); err != nil {
					return err
				}

				transcript = append(transcript, llm.Message{
					Role:       "tool",
					ToolCallID: call.ID,
					Content:    result,
				})
				if err := em.Step(fmt.Sprintf("✅ %s concluído.", call.Function.Name)); err != nil {
					return err
				}
			}
			continue
		}

		finalContent := strings.TrimSpace(msg.Content)
		if finalContent == "" {
			return em.Error("Resposta vazia do agente.")
		}

		if actions := extractActions(finalContent); actions != nil {
			if fileActions, ok := actions["actions"].([]any); ok {
				if err := em.Step(fmt.Sprintf("✅ %d arquivos gerados.", len(fileActions))); err != nil {
					return err
				}
			} else if astActions, ok := actions["ast_actions"].([]any); ok {
				if err := em.Step(fmt.Sprintf("✨ %d alterações de design aplicadas.", len(astActions))); err != nil {
					return err
				}
			}
			raw, err := json.Marshal(actions)
			if err != nil {
				return em.Error(err.Error())
			}
			return em.Actions(string(raw))
		}

		if err := em.Step("💬 Resposta textual."); err != nil {
			return err
		}
		return em.Chunk(finalContent)
	}

	return em.Error("Limite de iterações atingido.")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
