// Package tools executes the side-effect tools available to the specialist
// agents: web search and fetch, headless browsing, document generation and
// modification, and sandboxed code execution. Every tool returns its result
// as a plain string so failures flow back to the model as observations
// instead of aborting the request.
package tools

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/Nitianimelo/arccoVPS/pkg/config"
	"github.com/Nitianimelo/arccoVPS/pkg/logger"
)

// Uploader stores a generated file and returns its public download URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, content []byte, contentType string) (string, error)
}

// Executor holds the process-wide tool dependencies. Per-request state lives
// in Session.
type Executor struct {
	cfg      *config.Config
	uploader Uploader
	http     *http.Client
	logger   *slog.Logger

	// Sandbox concurrency gate: at most maxConcurrentExec interpreter
	// subprocesses at a time across all requests.
	execSem *semaphore.Weighted

	// Provider endpoints, swappable in tests.
	tavilyURL    string
	braveURL     string
	firecrawlURL string
}

const maxConcurrentExec = 4

// Option configures an Executor.
type Option func(*Executor)

// WithHTTPClient overrides the HTTP client used for downloads and provider
// calls.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Executor) { e.http = client }
}

// WithSearchEndpoints overrides the search provider URLs.
func WithSearchEndpoints(tavily, brave string) Option {
	return func(e *Executor) {
		e.tavilyURL = tavily
		e.braveURL = brave
	}
}

// WithBrowserEndpoint overrides the headless browser provider URL.
func WithBrowserEndpoint(url string) Option {
	return func(e *Executor) { e.firecrawlURL = url }
}

// New builds the tool executor.
func New(cfg *config.Config, uploader Uploader, opts ...Option) *Executor {
	e := &Executor{
		cfg:          cfg,
		uploader:     uploader,
		http:         &http.Client{Timeout: 30 * time.Second},
		logger:       logger.GetLogger(),
		execSem:      semaphore.NewWeighted(maxConcurrentExec),
		tavilyURL:    "https://api.tavily.com/search",
		braveURL:     "https://api.search.brave.com/res/v1/web/search",
		firecrawlURL: "https://api.firecrawl.dev/v1/scrape",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute dispatches one tool call and returns the observation string.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]any) string {
	switch name {
	case "web_search":
		return e.webSearch(ctx, argString(args, "query"))
	case "web_fetch":
		return e.webFetch(ctx, argString(args, "url"))
	case "ask_browser":
		return e.askBrowser(ctx, args)
	case "generate_pdf":
		return e.generatePDF(ctx, args)
	case "generate_excel":
		return e.generateExcel(ctx, args)
	case "generate_docx":
		return e.generateDocx(ctx, args)
	case "generate_pptx":
		return e.generatePptx(ctx, args)
	case "execute_python":
		return e.executePython(ctx, argString(args, "code"))
	case "fetch_file_content":
		return e.fetchFileContent(ctx, argString(args, "url"))
	case "modify_excel":
		return e.modifyExcel(ctx, args)
	case "modify_pptx":
		return e.modifyPptx(ctx, args)
	case "modify_pdf":
		return e.modifyPDF(ctx, args)
	}
	return fmt.Sprintf("Ferramenta desconhecida: %s", name)
}

// Session is the request-scoped view of the executor. Identical tool calls
// within one request hit a content-addressed cache instead of re-running the
// side effect. Sessions are never shared across requests.
type Session struct {
	exec  *Executor
	cache map[string]string
}

// NewSession starts a fresh per-request session.
func (e *Executor) NewSession() *Session {
	return &Session{exec: e, cache: make(map[string]string)}
}

// Execute runs a tool through the session cache.
func (s *Session) Execute(ctx context.Context, name string, args map[string]any) string {
	key := cacheKey(name, args)
	if result, ok := s.cache[key]; ok {
		s.exec.logger.Debug("tool result served from request cache", "tool", name)
		return result
	}
	result := s.exec.Execute(ctx, name, args)
	s.cache[key] = result
	return result
}

// cacheKey derives a content address for a tool call. encoding/json sorts
// map keys, so equal argument sets always canonicalize to the same bytes.
func cacheKey(name string, args map[string]any) string {
	raw, err := json.Marshal(args)
	if err != nil {
		raw = []byte(fmt.Sprintf("%v", args))
	}
	sum := sha256.Sum256(append([]byte(name+"\x00"), raw...))
	return hex.EncodeToString(sum[:])
}

// confinePath resolves a relative path against the workspace root and rejects
// anything that escapes it.
func (e *Executor) confinePath(name string) (string, error) {
	root, err := filepath.Abs(e.cfg.WorkspacePath)
	if err != nil {
		return "", err
	}
	resolved := filepath.Join(root, filepath.Clean("/"+name))
	if real, err := filepath.EvalSymlinks(resolved); err == nil {
		resolved = real
	}
	if resolved != root && !strings.HasPrefix(resolved, root+string(filepath.Separator)) {
		return "", fmt.Errorf("acesso negado: caminho fora do workspace")
	}
	return resolved, nil
}

// ── argument helpers ──

func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func argInt(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func argBool(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}

func argList(args map[string]any, key string) []any {
	v, _ := args[key].([]any)
	return v
}

func argStrings(args map[string]any, key string) []string {
	var out []string
	for _, v := range argList(args, key) {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// toStr renders any JSON scalar as the string cell value the spreadsheet and
// document tools expect.
func toStr(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
