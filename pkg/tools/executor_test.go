package tools

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Nitianimelo/arccoVPS/pkg/config"
)

type fakeUploader struct {
	files   map[string][]byte
	uploads int32
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{files: map[string][]byte{}}
}

func (f *fakeUploader) Upload(ctx context.Context, filename string, content []byte, contentType string) (string, error) {
	atomic.AddInt32(&f.uploads, 1)
	f.files[filename] = content
	return "https://storage.test/chat-uploads/" + filename, nil
}

func testConfig() *config.Config {
	return &config.Config{
		TavilyAPIKey:  "tvly-test",
		BraveAPIKey:   "brave-test",
		WebTimeout:    5 * time.Second,
		WebMaxSize:    2_000_000,
		WebMaxChars:   50_000,
		AllowCodeExec: false,
		CodeTimeout:   10 * time.Second,
		WorkspacePath: "/tmp/agent_workspace_test",
	}
}

func TestTruncateKeepsRuneBoundaries(t *testing.T) {
	s := strings.Repeat("ção", 4)
	got := truncate(s, 4)
	assert.Equal(t, "çãoç", got)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, s, truncate(s, 50))
}

func TestExecuteUnknownTool(t *testing.T) {
	e := New(testConfig(), newFakeUploader())
	result := e.Execute(context.Background(), "fly_to_moon", nil)
	assert.Equal(t, "Ferramenta desconhecida: fly_to_moon", result)
}

func TestSessionCachesIdenticalCalls(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`{"answer":"resposta","results":[]}`))
	}))
	defer server.Close()

	e := New(testConfig(), newFakeUploader(), WithSearchEndpoints(server.URL, server.URL))
	session := e.NewSession()

	args := map[string]any{"query": "preço do dólar"}
	first := session.Execute(context.Background(), "web_search", args)
	second := session.Execute(context.Background(), "web_search", args)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// A different query is a different cache entry.
	session.Execute(context.Background(), "web_search", map[string]any{"query": "outra"})
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestSessionsDoNotShareCache(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`{"answer":"a","results":[]}`))
	}))
	defer server.Close()

	e := New(testConfig(), newFakeUploader(), WithSearchEndpoints(server.URL, server.URL))
	args := map[string]any{"query": "q"}
	e.NewSession().Execute(context.Background(), "web_search", args)
	e.NewSession().Execute(context.Background(), "web_search", args)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestWebSearchFallsBackToBrave(t *testing.T) {
	tavily := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer tavily.Close()

	brave := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "brave-test", r.Header.Get("X-Subscription-Token"))
		_, _ = w.Write([]byte(`{"web":{"results":[{"title":"Go","url":"https://go.dev","description":"A linguagem"}]}}`))
	}))
	defer brave.Close()

	e := New(testConfig(), newFakeUploader(), WithSearchEndpoints(tavily.URL, brave.URL))
	result := e.webSearch(context.Background(), "golang")
	assert.Contains(t, result, "**Resultados para \"golang\":**")
	assert.Contains(t, result, "https://go.dev")
}

func TestWebSearchNoKeysConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.TavilyAPIKey = ""
	cfg.BraveAPIKey = ""
	e := New(cfg, newFakeUploader())
	assert.Equal(t, "ERRO: Chave de API de busca não configurada.", e.webSearch(context.Background(), "x"))
}

func TestWebFetchStripsChrome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ArccoAgent/2.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`<html><head><title>Página</title><script>evil()</script></head>` +
			`<body><nav>menu</nav><p>Texto principal</p><footer>rodapé</footer></body></html>`))
	}))
	defer server.Close()

	e := New(testConfig(), newFakeUploader())
	result := e.webFetch(context.Background(), server.URL)
	assert.Contains(t, result, "**Título:** Página")
	assert.Contains(t, result, "Texto principal")
	assert.NotContains(t, result, "evil()")
	assert.NotContains(t, result, "menu")
	assert.NotContains(t, result, "rodapé")
}

func TestGeneratePDF(t *testing.T) {
	uploader := newFakeUploader()
	e := New(testConfig(), uploader)

	result := e.Execute(context.Background(), "generate_pdf", map[string]any{
		"title":    "Relatório Mensal",
		"content":  "# Resumo\nVendas subiram.\n\n## Detalhes\nLinha comum.",
		"filename": "relatorio",
	})

	assert.Contains(t, result, "PDF gerado com sucesso. URL: https://storage.test/chat-uploads/relatorio.pdf")
	assert.Contains(t, result, "[Baixar PDF](https://storage.test/chat-uploads/relatorio.pdf)")
	require.Contains(t, uploader.files, "relatorio.pdf")
	assert.True(t, bytes.HasPrefix(uploader.files["relatorio.pdf"], []byte("%PDF")))
}

func TestGenerateAndModifyExcelRoundTrip(t *testing.T) {
	uploader := newFakeUploader()
	e := New(testConfig(), uploader)

	result := e.Execute(context.Background(), "generate_excel", map[string]any{
		"title":    "Vendas",
		"headers":  []any{"Produto", "Total"},
		"rows":     []any{[]any{"Camiseta", "100"}, []any{"Caneca", "50"}},
		"filename": "vendas",
	})
	assert.Contains(t, result, "Planilha Excel gerada.")
	require.Contains(t, uploader.files, "vendas.xlsx")

	// Serve the generated bytes back for modification.
	fileServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", mimeXLSX)
		_, _ = w.Write(uploader.files["vendas.xlsx"])
	}))
	defer fileServer.Close()

	structure := e.Execute(context.Background(), "fetch_file_content", map[string]any{"url": fileServer.URL + "/vendas.xlsx"})
	assert.Contains(t, structure, "Aba 'Vendas'")
	assert.Contains(t, structure, "Camiseta")

	modResult := e.Execute(context.Background(), "modify_excel", map[string]any{
		"url":             fileServer.URL + "/vendas.xlsx",
		"cell_updates":    []any{map[string]any{"cell": "B2", "value": "150"}},
		"append_rows":     []any{map[string]any{"values": []any{"Boné", "30"}}},
		"output_filename": "vendas-v2",
	})
	assert.Contains(t, modResult, "Planilha modificada com sucesso.")
	require.Contains(t, uploader.files, "vendas-v2.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(uploader.files["vendas-v2.xlsx"]))
	require.NoError(t, err)
	defer f.Close()
	value, err := f.GetCellValue("Vendas", "B2")
	require.NoError(t, err)
	assert.Equal(t, "150", value)
	rows, err := f.GetRows("Vendas")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Boné", rows[3][0])
}

func TestGenerateAndModifyPptxRoundTrip(t *testing.T) {
	uploader := newFakeUploader()
	e := New(testConfig(), uploader)

	result := e.Execute(context.Background(), "generate_pptx", map[string]any{
		"title": "Pitch",
		"slides": []any{
			map[string]any{"title": "Abertura", "body": "Bem-vindos & obrigado"},
			map[string]any{"title": "Mercado", "body": "Crescimento anual"},
		},
		"filename": "pitch",
	})
	assert.Contains(t, result, "Apresentação gerada com sucesso.")
	require.Contains(t, uploader.files, "pitch.pptx")

	fileServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", mimePPTX)
		_, _ = w.Write(uploader.files["pitch.pptx"])
	}))
	defer fileServer.Close()

	structure := e.Execute(context.Background(), "fetch_file_content", map[string]any{"url": fileServer.URL + "/pitch.pptx"})
	assert.Contains(t, structure, "Apresentação PPTX — 2 slide(s)")
	assert.Contains(t, structure, "Abertura")
	assert.Contains(t, structure, "Bem-vindos & obrigado")

	modResult := e.Execute(context.Background(), "modify_pptx", map[string]any{
		"url": fileServer.URL + "/pitch.pptx",
		"text_replacements": []any{
			map[string]any{"find": "Abertura", "replace": "Introdução"},
		},
		"output_filename": "pitch-v2",
	})
	assert.Contains(t, modResult, "Apresentação modificada com sucesso.")

	slides, err := pptxSlideTexts(uploader.files["pitch-v2.pptx"])
	require.NoError(t, err)
	require.Len(t, slides, 2)
	assert.Contains(t, slides[0], "Introdução")
	assert.NotContains(t, slides[0], "Abertura")
}

func TestGenerateDocx(t *testing.T) {
	uploader := newFakeUploader()
	e := New(testConfig(), uploader)

	result := e.Execute(context.Background(), "generate_docx", map[string]any{
		"title":    "Proposta Comercial",
		"content":  "# Escopo\nDesenvolvimento do site.\n\nPrazo de 30 dias.",
		"filename": "proposta",
	})
	assert.Contains(t, result, "Documento Word gerado com sucesso.")
	require.Contains(t, uploader.files, "proposta.docx")
	// OOXML packages are zip files.
	assert.True(t, bytes.HasPrefix(uploader.files["proposta.docx"], []byte("PK")))

	text := readDocxText(uploader.files["proposta.docx"])
	assert.Contains(t, text, "Proposta Comercial")
	assert.Contains(t, text, "Prazo de 30 dias.")
}

func TestFetchFileContentUnknownType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("binário"))
	}))
	defer server.Close()

	e := New(testConfig(), newFakeUploader())
	result := e.Execute(context.Background(), "fetch_file_content", map[string]any{"url": server.URL + "/misterio.bin"})
	assert.Contains(t, result, "Tipo de arquivo não identificado")
}

func TestExecutePythonDisabled(t *testing.T) {
	e := New(testConfig(), newFakeUploader())
	result := e.Execute(context.Background(), "execute_python", map[string]any{"code": "print(1)"})
	assert.Equal(t, "❌ Execução de código desabilitada neste ambiente.", result)
}

func TestExecutePythonDenylist(t *testing.T) {
	cfg := testConfig()
	cfg.AllowCodeExec = true
	e := New(cfg, newFakeUploader())

	for _, code := range []string{
		"import subprocess\nsubprocess.run(['ls'])",
		"open('/etc/passwd').read()",
		"__import__('os').system('rm -rf /')",
	} {
		result := e.executePython(context.Background(), code)
		assert.True(t, strings.HasPrefix(result, "❌ Operação bloqueada por segurança:"), result)
	}
}

func TestConfinePathRejectsEscape(t *testing.T) {
	e := New(testConfig(), newFakeUploader())

	resolved, err := e.confinePath("script.py")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resolved, "/tmp/agent_workspace_test"))

	// Path traversal collapses back into the workspace instead of escaping.
	resolved, err = e.confinePath("../../etc/passwd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resolved, "/tmp/agent_workspace_test"), resolved)
}

func TestBrowserRequiresKey(t *testing.T) {
	cfg := testConfig()
	cfg.FirecrawlAPIKey = ""
	e := New(cfg, newFakeUploader())
	result := e.Execute(context.Background(), "ask_browser", map[string]any{"url": "https://example.com"})
	assert.Contains(t, result, "FIRECRAWL_API_KEY não configurada")
}

func TestBrowserExtractsMarkdown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer fc-test", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"success":true,"data":{"markdown":"# Artigo\nConteúdo da página"}}`)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.FirecrawlAPIKey = "fc-test"
	e := New(cfg, newFakeUploader(), WithBrowserEndpoint(server.URL))

	result := e.Execute(context.Background(), "ask_browser", map[string]any{
		"url":     "https://example.com/artigo",
		"actions": []any{map[string]any{"type": "scroll"}, map[string]any{"type": "scrape"}},
	})
	assert.Contains(t, result, "Conteúdo extraído de https://example.com/artigo (ações: scroll, scrape):")
	assert.Contains(t, result, "Conteúdo da página")
}

func TestBrowserEmptyMarkdown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"data":{"markdown":""}}`)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.FirecrawlAPIKey = "fc-test"
	e := New(cfg, newFakeUploader(), WithBrowserEndpoint(server.URL))

	result := e.Execute(context.Background(), "ask_browser", map[string]any{"url": "https://example.com"})
	assert.Contains(t, result, "mas não extraiu conteúdo Markdown")
}
