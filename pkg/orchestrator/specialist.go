package orchestrator

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Nitianimelo/arccoVPS/pkg/llm"
)

const (
	specialistMaxIterations = 5
	specialistMaxTokens     = 4096
	terminalMaxTokens       = 6000
	maxQARetries            = 2
)

const invalidToolArgs = "Erro: Argumentos da ferramenta com JSON inválido. Corrija a formatação JSON e tente novamente."

// runSpecialistWithTools drives one specialist's own tool loop to completion,
// emitting a tool_call/tool_result trace pair for every execution. It returns
// the final answer plus the full sub-transcript, so the link validator can
// scan the tool observations that produced it.
func (o *Orchestrator) runSpecialistWithTools(
	ctx context.Context,
	em *Emitter,
	toolRunner ToolRunner,
	messages []llm.Message,
	model, systemPrompt string,
	toolDefs []llm.ToolDefinition,
) (string, []llm.Message, error) {
	current := append([]llm.Message{{Role: "system", Content: systemPrompt}}, messages...)

	for i := 0; i < specialistMaxIterations; i++ {
		msg, err := o.gateway.Call(ctx, llm.Request{
			Model:     model,
			Messages:  current,
			MaxTokens: specialistMaxTokens,
			Tools:     toolDefs,
		})
		if err != nil {
			return "", current, err
		}
		current = append(current, *msg)

		if len(msg.ToolCalls) == 0 {
			return msg.Content, current, nil
		}

		for _, call := range msg.ToolCalls {
			if err := em.ToolCall(call.Function.Name, truncateRunes(call.Function.Arguments, 200)); err != nil {
				return "", current, err
			}

			var args map[string]any
			result := ""
			start := time.Now()
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				result = invalidToolArgs
			} else {
				result = toolRunner.Execute(ctx, call.Function.Name, args)
			}

			if err := emitToolOutcome(em, call.Function.Name, time.Since(start), result); err != nil {
				return "", current, err
			}
			current = append(current, llm.Message{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    result,
			})
		}
	}
	return "Limite de iterações atingido no Especialista.", current, nil
}

// emitToolOutcome traces one finished execution. Failed tools stay in the
// transcript as observations for the model; the trace just mirrors that.
func emitToolOutcome(em *Emitter, tool string, elapsed time.Duration, result string) error {
	preview := truncateRunes(result, 200)
	if toolResultIsError(result) {
		return em.ToolError(tool, elapsed, preview)
	}
	return em.ToolResult(tool, elapsed, preview)
}

func toolResultIsError(result string) bool {
	return strings.HasPrefix(result, "Erro") || strings.HasPrefix(result, "❌")
}

// streamSpecialist runs a tool-less specialist (design, dev) and forwards
// its text deltas to onText as they arrive.
func (o *Orchestrator) streamSpecialist(
	ctx context.Context,
	messages []llm.Message,
	model, systemPrompt string,
	maxTokens int,
	onText func(string) error,
) error {
	current := append([]llm.Message{{Role: "system", Content: systemPrompt}}, messages...)

	ch, err := o.gateway.Stream(ctx, llm.Request{
		Model:     model,
		Messages:  current,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return err
	}
	for chunk := range ch {
		switch chunk.Type {
		case "text":
			if chunk.Text != "" {
				if err := onText(chunk.Text); err != nil {
					return err
				}
			}
		case "error":
			return chunk.Err
		}
	}
	return nil
}

// specialistJob carries what one delegation needs: the route, the synthetic
// transcript handed to the specialist, and the first status line to show.
type specialistJob struct {
	route      string
	stepMsg    string
	messages   []llm.Message
	userIntent string
	model      string
}

// runSpecialistWithQA runs the specialist sub-loop, validates download links,
// and loops through QA review with bounded retries. It emits its own step
// events and returns the final (validated) specialist response.
func (o *Orchestrator) runSpecialistWithQA(ctx context.Context, em *Emitter, toolRunner ToolRunner, job specialistJob) (string, error) {
	response := ""
	current := append([]llm.Message{}, job.messages...)

	routeModel := o.registry.Model(job.route)
	if routeModel == "" {
		routeModel = job.model
	}

	for attempt := 0; attempt <= maxQARetries; attempt++ {
		stepMsg := job.stepMsg
		if attempt > 0 {
			stepMsg = "Aperfeiçoando qualidade do resultado..."
		}
		if err := em.Step(stepMsg); err != nil {
			return "", err
		}

		var subTranscript []llm.Message
		var err error
		response, subTranscript, err = o.runSpecialistWithTools(
			ctx, em, toolRunner, current, routeModel,
			o.registry.Prompt(job.route), o.registry.Tools(job.route),
		)
		if err != nil {
			o.logger.Error("specialist execution failed", "route", job.route, "error", err)
			return "Erro ao processar especialista: " + err.Error(), nil
		}

		response = o.ensureDownloadLink(response, job.route, subTranscript)

		if err := em.Step("Validando qualidade do resultado..."); err != nil {
			return "", err
		}
		verdict := o.qaReview(ctx, job.userIntent, response, job.route, job.model)
		if verdict.approved() {
			break
		}

		if attempt < maxQARetries {
			correction := verdict.CorrectionInstruction
			if correction == "" {
				correction = "Corrija a resposta."
			}
			current = append(current,
				llm.Message{Role: "assistant", Content: response},
				llm.Message{Role: "user", Content: "[QA Feedback] " + correction},
			)
		} else {
			if err := em.Step("Preparando melhor resultado disponível..."); err != nil {
				return "", err
			}
		}
	}

	if strings.TrimSpace(response) == "" {
		o.logger.Warn("specialist returned empty response", "route", job.route)
		response = "O especialista não retornou resultado. Tente reformular o pedido."
	}
	return response, nil
}
