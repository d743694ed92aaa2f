package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Nitianimelo/arccoVPS/pkg/llm"
)

const (
	qaMaxTokens   = 300
	qaTemperature = 0.1
	qaInputLimit  = 3000
)

var codeFenceRe = regexp.MustCompile("```(?:json)?\\s*|\\s*```")

// qaVerdict is the QA agent's structured review. Approved is a pointer so an
// omitted key counts as approval, same as any other review failure.
type qaVerdict struct {
	Approved              *bool    `json:"approved"`
	Issues                []string `json:"issues"`
	CorrectionInstruction string   `json:"correction_instruction"`
}

func (v qaVerdict) approved() bool {
	return v.Approved == nil || *v.Approved
}

// qaReview asks the QA agent to judge a specialist response. Any failure
// along the way approves the response: review must never block delivery.
func (o *Orchestrator) qaReview(ctx context.Context, userIntent, specialistResponse, route, fallbackModel string) qaVerdict {
	approved := qaVerdict{}

	reviewPrompt := fmt.Sprintf(
		"Pedido original: %s\nTipo esperado: %s\n\nResposta do especialista:\n%s",
		userIntent, route, truncateStr(specialistResponse, qaInputLimit),
	)

	model := o.registry.Model("qa")
	if model == "" {
		model = fallbackModel
	}
	temp := qaTemperature

	msg, err := o.gateway.Call(ctx, llm.Request{
		Model: model,
		Messages: []llm.Message{
			{Role: "system", Content: o.registry.Prompt("qa")},
			{Role: "user", Content: reviewPrompt},
		},
		MaxTokens:   qaMaxTokens,
		Temperature: &temp,
	})
	if err != nil {
		o.logger.Warn("qa review failed, approving", "error", err)
		return approved
	}

	raw := strings.TrimSpace(codeFenceRe.ReplaceAllString(strings.TrimSpace(msg.Content), ""))
	var verdict qaVerdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		o.logger.Warn("qa verdict unparseable, approving", "error", err)
		return approved
	}
	return verdict
}
