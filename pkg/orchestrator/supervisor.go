package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Nitianimelo/arccoVPS/pkg/agents"
	"github.com/Nitianimelo/arccoVPS/pkg/llm"
	"github.com/Nitianimelo/arccoVPS/pkg/logger"
)

const (
	supervisorMaxTokens = 4096
	recentContextTurns  = 5
	replyChunkRunes     = 12
	replyChunkDelay     = 15 * time.Millisecond
)

// Gateway is the LLM surface the orchestrator consumes.
type Gateway interface {
	Call(ctx context.Context, req llm.Request) (*llm.Message, error)
	Stream(ctx context.Context, req llm.Request) (<-chan llm.StreamChunk, error)
}

// AgentRegistry resolves per-agent prompts, models and tool schemas.
type AgentRegistry interface {
	Prompt(id string) string
	Model(id string) string
	Tools(id string) []llm.ToolDefinition
}

// ToolRunner executes side-effect tools. One runner per request.
type ToolRunner interface {
	Execute(ctx context.Context, name string, args map[string]any) string
}

// Orchestrator wires the supervisor loop to its collaborators. Safe for
// concurrent use; all per-request state lives on the stack of Run.
type Orchestrator struct {
	gateway             Gateway
	registry            AgentRegistry
	routes              map[string]agents.Route
	routesRequiringLink map[string]bool
	maxIterations       int
	chunkDelay          time.Duration
	logger              *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxIterations overrides the supervisor iteration cap.
func WithMaxIterations(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// WithChunkDelay overrides the pacing between reply chunks.
func WithChunkDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.chunkDelay = d }
}

// New builds an orchestrator over the standard supervisor route table.
func New(gateway Gateway, registry AgentRegistry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gateway:             gateway,
		registry:            registry,
		routes:              agents.SupervisorRoutes,
		routesRequiringLink: agents.RoutesRequiringLink,
		maxIterations:       7,
		chunkDelay:          replyChunkDelay,
		logger:              logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the supervisor ReAct loop for one request, emitting events
// until the supervisor answers, a terminal specialist takes over the stream,
// or the iteration cap trips.
func (o *Orchestrator) Run(ctx context.Context, em *Emitter, toolRunner ToolRunner, messages []llm.Message, model string) error {
	supervisorModel := o.registry.Model("chat")
	if supervisorModel == "" {
		supervisorModel = model
	}

	userIntent := ""
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			userIntent = messages[i].Content
			break
		}
	}

	transcript := append([]llm.Message{{Role: "system", Content: o.registry.Prompt("chat")}}, messages...)

	for iteration := 0; iteration < o.maxIterations; iteration++ {
		if iteration == 0 {
			if err := em.Step("Analisando pedido e planejando execução..."); err != nil {
				return err
			}
		}

		msg, err := o.gateway.Call(ctx, llm.Request{
			Model:     supervisorModel,
			Messages:  transcript,
			MaxTokens: supervisorMaxTokens,
			Tools:     o.registry.Tools("chat"),
		})
		if err != nil {
			o.logger.Error("supervisor LLM call failed", "error", err)
			if errIsProtocol(err) {
				return em.Error("Erro interno ao processar a resposta da IA. Tente novamente.")
			}
			return em.Error(fmt.Sprintf("Erro ao comunicar com a IA: %v", err))
		}
		transcript = append(transcript, *msg)

		if len(msg.ToolCalls) == 0 {
			return o.streamFinalReply(em, msg.Content)
		}

		for _, call := range msg.ToolCalls {
			done, err := o.dispatchToolCall(ctx, em, toolRunner, &transcript, messages, call, userIntent, model)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}

	return em.Error("Limite máximo de processamento atingido. Por favor, seja mais específico na sua solicitação.")
}

// dispatchToolCall handles a single supervisor tool call. It returns
// done=true when a terminal specialist finished the request.
func (o *Orchestrator) dispatchToolCall(
	ctx context.Context,
	em *Emitter,
	toolRunner ToolRunner,
	transcript *[]llm.Message,
	requestMessages []llm.Message,
	call llm.ToolCall,
	userIntent, model string,
) (bool, error) {
	var args map[string]any
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		*transcript = append(*transcript, llm.Message{
			Role:       "tool",
			ToolCallID: call.ID,
			Content:    "Erro sintático no JSON da ferramenta. Corrija a formatação e tente novamente.",
		})
		return false, em.Step("Aguardando sub-agente corrigir os parâmetros da ferramenta...")
	}

	route, ok := o.routes[call.Function.Name]
	if !ok {
		*transcript = append(*transcript, llm.Message{
			Role:       "tool",
			ToolCallID: call.ID,
			Content:    fmt.Sprintf("Erro: ferramenta '%s' não suportada pelo orquestrador.", call.Function.Name),
		})
		return false, nil
	}

	recent := recentContext(requestMessages)
	stepMsg, specialistMsgs := o.buildDelegation(route.Specialist, args, recent, userIntent)

	switch {
	case route.Terminal:
		return true, o.runTerminal(ctx, em, route.Specialist, stepMsg, specialistMsgs, model)
	case route.Browser:
		return false, o.runBrowser(ctx, em, toolRunner, transcript, call, args, stepMsg)
	default:
		job := specialistJob{
			route:      route.Specialist,
			stepMsg:    stepMsg,
			messages:   specialistMsgs,
			userIntent: userIntent,
			model:      model,
		}
		result, err := o.runSpecialistWithQA(ctx, em, toolRunner, job)
		if err != nil {
			return false, err
		}
		result = o.suppressFileContent(result, route.Specialist)
		*transcript = append(*transcript, llm.Message{
			Role:       "tool",
			ToolCallID: call.ID,
			Content:    result,
		})
		return false, em.Step("Integrando resultado do especialista...")
	}
}

// buildDelegation derives the status line and the synthetic transcript the
// specialist receives for one route.
func (o *Orchestrator) buildDelegation(specialist string, args map[string]any, recent []llm.Message, userIntent string) (string, []llm.Message) {
	synthetic := func(content string) []llm.Message {
		return append(append([]llm.Message{}, recent...), llm.Message{Role: "user", Content: content})
	}

	switch specialist {
	case "web_search":
		query, _ := args["query"].(string)
		if query == "" {
			query = userIntent
		}
		step := fmt.Sprintf("Buscando na web: \"%s\"...", truncateRunes(query, 50))
		return step, synthetic(fmt.Sprintf("Realize a pesquisa com a query: %s", query))
	case "file_generator":
		fileType, _ := args["file_type"].(string)
		if fileType == "" {
			fileType = "arquivo"
		}
		step := fmt.Sprintf("Gerando %s → estruturando dados e criando arquivo...", strings.ToUpper(fileType))
		content := fmt.Sprintf("Instruções: %v Dados: %v", args["instructions"], args["data"])
		return step, synthetic(content)
	case "file_modifier":
		content := fmt.Sprintf("Arquivo: %v Instruções: %v", args["file_url"], args["instructions"])
		return "Lendo estrutura do arquivo original e aplicando modificações...", synthetic(content)
	case "design":
		requirements, _ := args["requirements"].(string)
		if requirements == "" {
			requirements = userIntent
		}
		return "Criando design → posicionando elementos e aplicando estilo...", synthetic(requirements)
	case "dev":
		requirements, _ := args["requirements"].(string)
		if requirements == "" {
			requirements = userIntent
		}
		return "Gerando código HTML/CSS → compilando layout da página...", synthetic(requirements)
	case "browser":
		url, _ := args["url"].(string)
		return fmt.Sprintf("Abrindo navegador e extraindo dados de %s...", truncateRunes(url, 40)), nil
	}
	return "Processando...", synthetic(userIntent)
}

// runTerminal streams the specialist's raw output (JSON design, HTML page)
// straight to the client and ends the request.
func (o *Orchestrator) runTerminal(ctx context.Context, em *Emitter, specialist, stepMsg string, specialistMsgs []llm.Message, model string) error {
	if err := em.Step(stepMsg); err != nil {
		return err
	}
	if err := em.Step("Transmitindo resultado em tempo real..."); err != nil {
		return err
	}

	routeModel := o.registry.Model(specialist)
	if routeModel == "" {
		routeModel = model
	}
	return o.streamSpecialist(ctx, specialistMsgs, routeModel, o.registry.Prompt(specialist), terminalMaxTokens, em.Chunk)
}

// runBrowser executes the headless browser tool inline, surrounding it with
// the browser_action status cards the UI renders.
func (o *Orchestrator) runBrowser(
	ctx context.Context,
	em *Emitter,
	toolRunner ToolRunner,
	transcript *[]llm.Message,
	call llm.ToolCall,
	args map[string]any,
	stepMsg string,
) error {
	url, _ := args["url"].(string)
	rawActions, _ := args["actions"].([]any)

	actionTypes := make([]string, 0, len(rawActions))
	for _, a := range rawActions {
		if m, ok := a.(map[string]any); ok {
			if t, ok := m["type"].(string); ok {
				actionTypes = append(actionTypes, t)
			} else {
				actionTypes = append(actionTypes, "?")
			}
		}
	}
	if len(actionTypes) > 0 {
		stepMsg = fmt.Sprintf("Navegando em %s... (ações: %s)", truncateRunes(url, 40), strings.Join(actionTypes, ", "))
	}

	if err := em.Step(stepMsg); err != nil {
		return err
	}
	if err := em.BrowserAction(map[string]any{
		"status":  "navigating",
		"url":     url,
		"title":   fmt.Sprintf("Acessando %s...", truncateRunes(url, 60)),
		"actions": actionTypes,
	}); err != nil {
		return err
	}

	result := toolRunner.Execute(ctx, "ask_browser", args)

	if strings.HasPrefix(result, "Erro") {
		if err := em.BrowserAction(map[string]any{
			"status": "error",
			"url":    url,
			"title":  truncateRunes(result, 100),
		}); err != nil {
			return err
		}
	} else {
		if err := em.BrowserAction(map[string]any{
			"status": "done",
			"url":    url,
			"title":  "Página lida com sucesso",
		}); err != nil {
			return err
		}
	}

	*transcript = append(*transcript, llm.Message{
		Role:       "tool",
		ToolCallID: call.ID,
		Content:    result,
	})
	return em.Step("Conteúdo extraído — analisando dados...")
}

// streamFinalReply paces the supervisor's answer out in small chunks so the
// UI renders it progressively.
func (o *Orchestrator) streamFinalReply(em *Emitter, content string) error {
	if err := em.Step("Preparando resposta final..."); err != nil {
		return err
	}
	if content == "" {
		return em.Chunk("Desculpe, não consegui gerar uma resposta. Tente novamente.")
	}

	runes := []rune(content)
	for i := 0; i < len(runes); i += replyChunkRunes {
		end := i + replyChunkRunes
		if end > len(runes) {
			end = len(runes)
		}
		if err := em.Chunk(string(runes[i:end])); err != nil {
			return err
		}
		if o.chunkDelay > 0 {
			time.Sleep(o.chunkDelay)
		}
	}
	return nil
}

// recentContext slices the last few user/assistant turns of the request
// transcript for specialist hand-off.
func recentContext(messages []llm.Message) []llm.Message {
	var turns []llm.Message
	for _, m := range messages {
		if m.Role == "user" || m.Role == "assistant" {
			turns = append(turns, m)
		}
	}
	if len(turns) > recentContextTurns {
		turns = turns[len(turns)-recentContextTurns:]
	}
	return turns
}

func errIsProtocol(err error) bool {
	return errors.Is(err, llm.ErrProtocol)
}
