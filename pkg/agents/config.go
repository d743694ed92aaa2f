// Package agents holds the agent configuration registry: compiled defaults
// for every supervisor, specialist and builder agent, an on-disk override
// layer written by the admin panel, and the supervisor route table.
package agents

import (
	"github.com/Nitianimelo/arccoVPS/pkg/llm"
)

// Config is one agent's full configuration. Module groups agents by product
// surface for the admin UI (Arcco Chat, Arcco Builder, Arcco Pages, Sistema).
type Config struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Module       string               `json:"module"`
	Description  string               `json:"description"`
	SystemPrompt string               `json:"system_prompt"`
	Model        string               `json:"model"`
	Tools        []llm.ToolDefinition `json:"tools"`
}

// Patch is a sparse update coming from the admin write path. Nil fields are
// left untouched.
type Patch struct {
	Name         *string               `json:"name,omitempty"`
	Description  *string               `json:"description,omitempty"`
	SystemPrompt *string               `json:"system_prompt,omitempty"`
	Model        *string               `json:"model,omitempty"`
	Tools        *[]llm.ToolDefinition `json:"tools,omitempty"`
}

func (p Patch) apply(cfg *Config) {
	if p.Name != nil {
		cfg.Name = *p.Name
	}
	if p.Description != nil {
		cfg.Description = *p.Description
	}
	if p.SystemPrompt != nil {
		cfg.SystemPrompt = *p.SystemPrompt
	}
	if p.Model != nil {
		cfg.Model = *p.Model
	}
	if p.Tools != nil {
		cfg.Tools = cloneTools(*p.Tools)
	}
}

func cloneTools(tools []llm.ToolDefinition) []llm.ToolDefinition {
	out := make([]llm.ToolDefinition, len(tools))
	copy(out, tools)
	return out
}

func defaultConfigs(defaultModel string) map[string]*Config {
	return map[string]*Config{
		"chat": {
			ID:           "chat",
			Name:         "Arcco Supervisor Especialista",
			Module:       "Arcco Chat",
			Description:  "Agente principal de conversação e orquestração. Analisa a intenção e delega tarefas complexas para ferramentas/agentes.",
			SystemPrompt: ChatSystemPrompt,
			Model:        defaultModel,
			Tools:        SupervisorTools,
		},
		"web_search": {
			ID:           "web_search",
			Name:         "Agente de Busca Web",
			Module:       "Arcco Chat",
			Description:  "Pesquisa informações na internet via Tavily e lê páginas específicas",
			SystemPrompt: WebSearchSystemPrompt,
			Model:        defaultModel,
			Tools:        WebSearchTools,
		},
		"file_generator": {
			ID:           "file_generator",
			Name:         "Gerador de Arquivos",
			Module:       "Arcco Chat",
			Description:  "Cria PDFs, planilhas Excel e apresentações do zero",
			SystemPrompt: FileGeneratorSystemPrompt,
			Model:        defaultModel,
			Tools:        FileGeneratorTools,
		},
		"file_modifier": {
			ID:           "file_modifier",
			Name:         "Modificador de Arquivos",
			Module:       "Arcco Chat",
			Description:  "Edita arquivos existentes (PDF, Excel, PPTX) conforme solicitação",
			SystemPrompt: FileModifierSystemPrompt,
			Model:        defaultModel,
			Tools:        FileModifierTools,
		},
		"design": {
			ID:           "design",
			Name:         "Agente de Design",
			Module:       "Arcco Builder",
			Description:  "Gera posts, banners e artes gráficas como JSON PostAST",
			SystemPrompt: DesignSystemPrompt,
			Model:        defaultModel,
			Tools:        nil,
		},
		"pages_ux": {
			ID:           "pages_ux",
			Name:         "Arcco Pages Arquiteto (UX)",
			Module:       "Arcco Pages",
			Description:  "Monta a estrutura (AST) de landing pages de alta conversão.",
			SystemPrompt: PagesUXSystemPrompt,
			Model:        defaultModel,
			Tools:        nil,
		},
		"pages_dev": {
			ID:           "pages_dev",
			Name:         "Arcco Pages Dev",
			Module:       "Arcco Pages",
			Description:  "Gera arquivos estáticos HTML/CSS/JS (Modo Código/Legacy).",
			SystemPrompt: PagesDevSystemPrompt,
			Model:        defaultModel,
			Tools:        nil,
		},
		"pages_copy": {
			ID:           "pages_copy",
			Name:         "Arcco Pages Copywriter",
			Module:       "Arcco Pages",
			Description:  "Cria textos persuasivos de resposta direta para os blocos da página.",
			SystemPrompt: PagesCopySystemPrompt,
			Model:        defaultModel,
			Tools:        nil,
		},
		"dev": {
			ID:           "dev",
			Name:         "Agente Dev (Geral)",
			Module:       "Sistema",
			Description:  "Gera código HTML/CSS/JS para landing pages e sites genéricos",
			SystemPrompt: DevSystemPrompt,
			Model:        defaultModel,
			Tools:        nil,
		},
		"qa": {
			ID:           "qa",
			Name:         "Agente QA",
			Module:       "Sistema",
			Description:  "Revisa e aprova a qualidade das respostas dos especialistas",
			SystemPrompt: QASystemPrompt,
			Model:        defaultModel,
			Tools:        nil,
		},
	}
}
