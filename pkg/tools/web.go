package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

type searchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type tavilyResponse struct {
	Answer  string         `json:"answer"`
	Results []searchResult `json:"results"`
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// webSearch queries Tavily first and falls back to Brave. The formatted
// markdown is what the specialist sees as its observation.
func (e *Executor) webSearch(ctx context.Context, query string) string {
	if e.cfg.TavilyAPIKey == "" && e.cfg.BraveAPIKey == "" {
		return "ERRO: Chave de API de busca não configurada."
	}

	if e.cfg.TavilyAPIKey != "" {
		result, err := e.searchTavily(ctx, query)
		if err == nil {
			return result
		}
		e.logger.Warn("tavily search failed, trying brave", "error", err)
	}

	if e.cfg.BraveAPIKey != "" {
		result, err := e.searchBrave(ctx, query)
		if err == nil {
			return result
		}
		e.logger.Error("brave search also failed", "error", err)
		return fmt.Sprintf("Erro na busca: %v", err)
	}
	return fmt.Sprintf("Erro na busca: nenhum provedor disponível para %q", query)
}

func (e *Executor) searchTavily(ctx context.Context, query string) (string, error) {
	body, _ := json.Marshal(map[string]any{
		"api_key":        e.cfg.TavilyAPIKey,
		"query":          query,
		"search_depth":   "basic",
		"include_answer": true,
		"max_results":    10,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.tavilyURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tavily: HTTP %d", resp.StatusCode)
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Resumo:** %s\n\n**Fontes:**\n", parsed.Answer)
	for i, r := range parsed.Results {
		content := truncate(r.Content, 300)
		fmt.Fprintf(&b, "[%d] %s (%s)\n%s...\n\n", i+1, r.Title, r.URL, content)
	}
	return b.String(), nil
}

func (e *Executor) searchBrave(ctx context.Context, query string) (string, error) {
	endpoint := fmt.Sprintf("%s?q=%s&count=5", e.braveURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-Subscription-Token", e.cfg.BraveAPIKey)

	resp, err := e.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("brave: HTTP %d", resp.StatusCode)
	}

	var parsed braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}

	var lines []string
	for _, r := range parsed.Web.Results {
		lines = append(lines, fmt.Sprintf("• **%s**\n  %s\n  %s", r.Title, r.URL, r.Description))
	}
	return fmt.Sprintf("**Resultados para %q:**\n\n%s", query, strings.Join(lines, "\n\n")), nil
}

// Tags whose subtrees carry no readable content.
var strippedTags = map[string]bool{
	"script": true, "style": true, "nav": true, "footer": true,
	"header": true, "aside": true, "form": true, "svg": true, "noscript": true,
}

// webFetch downloads a page and reduces it to readable text.
func (e *Executor) webFetch(ctx context.Context, pageURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return fmt.Sprintf("Erro ao ler URL (%s): %v", pageURL, err)
	}
	req.Header.Set("User-Agent", "ArccoAgent/2.0")

	client := &http.Client{Timeout: e.cfg.WebTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Sprintf("Erro ao ler URL (%s): %v", pageURL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, e.cfg.WebMaxSize))
	if err != nil {
		return fmt.Sprintf("Erro ao ler URL (%s): %v", pageURL, err)
	}

	title, text := extractReadableText(raw)
	if title == "" {
		title = pageURL
	}
	if len(text) > e.cfg.WebMaxChars {
		text = truncate(text, e.cfg.WebMaxChars) + "... [Truncado]"
	}
	return fmt.Sprintf("**Conteúdo de %s**\n**Título:** %s\n\n%s", pageURL, title, text)
}

// extractReadableText walks the parsed HTML, skipping chrome and script
// subtrees, and joins the remaining text nodes.
func extractReadableText(raw []byte) (title, text string) {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return "", string(raw)
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if strippedTags[n.Data] {
				return
			}
			if n.Data == "title" && title == "" && n.FirstChild != nil {
				title = strings.TrimSpace(n.FirstChild.Data)
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title, strings.Join(parts, " ")
}
