package agents

import (
	"github.com/Nitianimelo/arccoVPS/pkg/llm"
)

// Tool schemas per specialist, in the provider's function-calling format.
// Isolation is strict: each specialist only ever sees its own list.

func fn(name, description string, params map[string]any) llm.ToolDefinition {
	return llm.ToolDefinition{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
	}
}

var WebSearchTools = []llm.ToolDefinition{
	fn("web_search", "Pesquisa informações atualizadas na internet", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "Consulta de busca"},
		},
		"required": []string{"query"},
	}),
	fn("web_fetch", "Lê e extrai texto de uma URL específica", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{"type": "string", "description": "URL para acessar"},
		},
		"required": []string{"url"},
	}),
}

var FileGeneratorTools = []llm.ToolDefinition{
	fn("generate_pdf", "Gera um arquivo PDF profissional e retorna o link de download", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":    map[string]any{"type": "string", "description": "Título do documento"},
			"content":  map[string]any{"type": "string", "description": "Conteúdo em texto ou markdown"},
			"filename": map[string]any{"type": "string", "description": "Nome do arquivo (sem extensão)"},
		},
		"required": []string{"title", "content"},
	}),
	fn("generate_excel", "Gera uma planilha Excel (.xlsx) com dados estruturados e retorna o link de download", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{"type": "string", "description": "Nome da aba (máximo 31 caracteres)"},
			"headers": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Cabeçalhos das colunas",
			},
			"rows": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
				"description": "Linhas de dados",
			},
			"filename": map[string]any{"type": "string", "description": "Nome do arquivo (sem extensão)"},
		},
		"required": []string{"title", "headers", "rows"},
	}),
	fn("generate_docx", "Gera um documento Word (.docx) e retorna o link de download", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":    map[string]any{"type": "string", "description": "Título do documento"},
			"content":  map[string]any{"type": "string", "description": "Conteúdo em texto ou markdown"},
			"filename": map[string]any{"type": "string", "description": "Nome do arquivo (sem extensão)"},
		},
		"required": []string{"title", "content"},
	}),
	fn("generate_pptx", "Gera uma apresentação PowerPoint (.pptx) com um slide por seção e retorna o link de download", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{"type": "string", "description": "Título da apresentação"},
			"slides": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title": map[string]any{"type": "string", "description": "Título do slide"},
						"body":  map[string]any{"type": "string", "description": "Texto do slide"},
					},
					"required": []string{"title"},
				},
				"description": "Slides da apresentação",
			},
			"filename": map[string]any{"type": "string", "description": "Nome do arquivo (sem extensão)"},
		},
		"required": []string{"title", "slides"},
	}),
	fn("execute_python", "Executa Python para processar e formatar dados complexos. Use print() para output.", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"code": map[string]any{"type": "string", "description": "Código Python a executar"},
		},
		"required": []string{"code"},
	}),
}

var FileModifierTools = []llm.ToolDefinition{
	fn("fetch_file_content", "Baixa e lê a estrutura de um arquivo (PDF, Excel, PPTX) antes de modificar. Sempre chame isso primeiro.", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{"type": "string", "description": "URL do arquivo a ser lido"},
		},
		"required": []string{"url"},
	}),
	fn("modify_excel", "Modifica uma planilha Excel (.xlsx) e retorna link de download", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{"type": "string", "description": "URL da planilha original"},
			"cell_updates": map[string]any{
				"type":        "array",
				"description": "Células a atualizar",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"sheet": map[string]any{"type": "string", "description": "Nome da aba (opcional, usa a primeira se omitido)"},
						"cell":  map[string]any{"type": "string", "description": "Referência da célula (ex: A1, B3)"},
						"value": map[string]any{"type": "string", "description": "Novo valor"},
					},
					"required": []string{"cell", "value"},
				},
			},
			"append_rows": map[string]any{
				"type":        "array",
				"description": "Linhas a adicionar no final da aba",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"sheet": map[string]any{"type": "string", "description": "Nome da aba (opcional)"},
						"values": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Valores da linha",
						},
					},
					"required": []string{"values"},
				},
			},
			"output_filename": map[string]any{"type": "string", "description": "Nome do arquivo modificado (sem extensão)"},
		},
		"required": []string{"url"},
	}),
	fn("modify_pptx", "Modifica uma apresentação PowerPoint (.pptx) substituindo textos e retorna link de download", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{"type": "string", "description": "URL da apresentação original"},
			"text_replacements": map[string]any{
				"type":        "array",
				"description": "Substituições de texto em todos os slides",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"find":    map[string]any{"type": "string", "description": "Texto a encontrar"},
						"replace": map[string]any{"type": "string", "description": "Texto de substituição"},
					},
					"required": []string{"find", "replace"},
				},
			},
			"output_filename": map[string]any{"type": "string", "description": "Nome do arquivo modificado (sem extensão)"},
		},
		"required": []string{"url", "text_replacements"},
	}),
	fn("modify_pdf", "Modifica um PDF existente (extrai texto, aplica alterações, regera o documento) e retorna link de download", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{"type": "string", "description": "URL do PDF original"},
			"text_replacements": map[string]any{
				"type":        "array",
				"description": "Substituições de texto no documento",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"find":    map[string]any{"type": "string", "description": "Texto a encontrar"},
						"replace": map[string]any{"type": "string", "description": "Texto de substituição"},
					},
					"required": []string{"find", "replace"},
				},
			},
			"append_content":  map[string]any{"type": "string", "description": "Conteúdo adicional a inserir no final do documento"},
			"output_filename": map[string]any{"type": "string", "description": "Nome do arquivo modificado (sem extensão)"},
		},
		"required": []string{"url"},
	}),
}

const askBrowserDescription = "Abre um navegador headless para acessar, interagir e extrair conteúdo de um site. " +
	"Suporta ações como clicar em botões, rolar a página, digitar texto, e executar JavaScript. " +
	"Use quando precisar ler artigos completos, interagir com sites dinâmicos (SPAs), passar por carrosséis, " +
	"aceitar cookies, ou extrair dados de URLs que exigem renderização JavaScript.\n\n" +
	"TIPOS DE ACTIONS SUPORTADAS (no campo 'actions'):\n" +
	"- {\"type\": \"click\", \"selector\": \"CSS_SELECTOR\"} — Clica num elemento\n" +
	"- {\"type\": \"scroll\", \"direction\": \"down\", \"amount\": 500} — Rola a página\n" +
	"- {\"type\": \"wait\", \"milliseconds\": 2000} — Espera X ms\n" +
	"- {\"type\": \"write\", \"text\": \"...\", \"selector\": \"CSS_SELECTOR\"} — Digita texto\n" +
	"- {\"type\": \"press\", \"key\": \"Enter\"} — Pressiona tecla\n" +
	"- {\"type\": \"screenshot\"} — Tira print da página\n" +
	"- {\"type\": \"execute_javascript\", \"script\": \"...\"} — Executa JS customizado\n" +
	"- {\"type\": \"scrape\"} — Extrai o conteúdo após as ações\n\n" +
	"EXEMPLO de carrossel: actions=[{\"type\":\"click\",\"selector\":\".next-slide\"},{\"type\":\"wait\",\"milliseconds\":1000},{\"type\":\"scrape\"}]"

var SupervisorTools = []llm.ToolDefinition{
	fn("ask_web_search", "Delega uma pesquisa na internet para o Especialista de Busca Web. Retorna os dados crus/resumidos encontrados.", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "Consulta detalhada e otimizada para a busca web (ex: adicione o ano, termos específicos)"},
		},
		"required": []string{"query"},
	}),
	fn("ask_file_generator", "Delega a criação de um documento (Excel, PDF, Word ou PowerPoint) novo para o Especialista de Arquivos. Retorna a URL de download.", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_type":    map[string]any{"type": "string", "enum": []string{"excel", "pdf", "docx", "pptx"}, "description": "Tipo de arquivo a gerar"},
			"instructions": map[string]any{"type": "string", "description": "Instruções claras para a geração (título abrangente, estrutura)"},
			"data":         map[string]any{"type": "string", "description": "Os dados estruturados a serem incluídos no arquivo (pode ser CSV ou Markdown longo)"},
		},
		"required": []string{"file_type", "instructions", "data"},
	}),
	fn("ask_file_modifier", "Delega a modificação de um arquivo (PDF, Excel, PPTX) existente na conversa para o Especialista. Retorna URL do novo arquivo.", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_url":     map[string]any{"type": "string", "description": "URL do arquivo original que precisa ser modificado"},
			"instructions": map[string]any{"type": "string", "description": "Instruções de modificação (ex: 'Altere a célula B2 para 100', 'Adicione nova linha no final')"},
		},
		"required": []string{"file_url", "instructions"},
	}),
	fn("ask_browser", askBrowserDescription, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{"type": "string", "description": "URL completa do site a ser acessado (ex: https://example.com/artigo)"},
			"actions": map[string]any{
				"type":        "array",
				"description": "Lista de ações a executar no browser ANTES de extrair o conteúdo. Cada ação é um objeto com 'type' obrigatório. Tipos: click, scroll, wait, write, press, screenshot, execute_javascript, scrape.",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type":         map[string]any{"type": "string", "enum": []string{"click", "scroll", "wait", "write", "press", "screenshot", "execute_javascript", "scrape"}, "description": "Tipo da ação"},
						"selector":     map[string]any{"type": "string", "description": "Seletor CSS do elemento (para click e write)"},
						"text":         map[string]any{"type": "string", "description": "Texto a digitar (para write)"},
						"key":          map[string]any{"type": "string", "description": "Tecla a pressionar (para press): Enter, Tab, Escape, etc."},
						"direction":    map[string]any{"type": "string", "enum": []string{"up", "down"}, "description": "Direção do scroll"},
						"amount":       map[string]any{"type": "integer", "description": "Pixels para scroll"},
						"milliseconds": map[string]any{"type": "integer", "description": "Milissegundos para wait"},
						"script":       map[string]any{"type": "string", "description": "Código JavaScript a executar"},
					},
					"required": []string{"type"},
				},
			},
			"wait_for": map[string]any{"type": "integer", "description": "Milissegundos para esperar antes de extrair conteúdo. Útil para SPAs que carregam via JavaScript. Padrão: sem espera."},
			"mobile":   map[string]any{"type": "boolean", "description": "Se true, acessa o site em modo mobile (viewport de celular). Útil para sites responsivos."},
			"include_tags": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Tags HTML para incluir na extração (ex: ['article', 'main']). Filtra o conteúdo.",
			},
			"exclude_tags": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Tags HTML para excluir da extração (ex: ['nav', 'footer', 'aside']). Remove ruído.",
			},
		},
		"required": []string{"url"},
	}),
	fn("generate_ui_design", "[TERMINAL TOOL] Aciona o Especialista de Design Gráfico (Arcco Builder) para gerar posts/carrosseis JSON.", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"requirements": map[string]any{"type": "string", "description": "Tema, texto e formato (square, portrait, landscape) para o design visual."},
		},
		"required": []string{"requirements"},
	}),
	fn("generate_web_page", "[TERMINAL TOOL] Aciona o Especialista Dev (Arcco Pages) para gerar código HTML/CSS/JS completo de sites.", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"requirements": map[string]any{"type": "string", "description": "Descrição detalhada dos componentes, seções e conteúdo da página."},
		},
		"required": []string{"requirements"},
	}),
}

// BuilderTools is the restricted set available to the pages builder flow.
var BuilderTools = WebSearchTools
