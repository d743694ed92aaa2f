package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const browserMaxChars = 15000

// askBrowser drives a headless browser through the Firecrawl scrape API:
// navigate, run the requested actions, then extract the page as markdown.
func (e *Executor) askBrowser(ctx context.Context, args map[string]any) string {
	pageURL := argString(args, "url")
	if pageURL == "" {
		return "Erro: URL não fornecida."
	}
	if e.cfg.FirecrawlAPIKey == "" {
		return "Erro: FIRECRAWL_API_KEY não configurada. Adicione a chave na tabela ApiKeys do Supabase com provider='firecrawl'."
	}

	payload := map[string]any{
		"url":             pageURL,
		"formats":         []string{"markdown"},
		"onlyMainContent": true,
	}
	actions := argList(args, "actions")
	if len(actions) > 0 {
		payload["actions"] = actions
	}
	if waitFor := argInt(args, "wait_for"); waitFor > 0 {
		payload["waitFor"] = waitFor
	}
	if timeout := argInt(args, "timeout"); timeout > 0 {
		payload["timeout"] = timeout
	}
	if tags := argStrings(args, "include_tags"); len(tags) > 0 {
		payload["includeTags"] = tags
	}
	if tags := argStrings(args, "exclude_tags"); len(tags) > 0 {
		payload["excludeTags"] = tags
	}
	if argBool(args, "mobile") {
		payload["mobile"] = true
	}

	actionDesc := ""
	if len(actions) > 0 {
		var steps []string
		for _, a := range actions {
			if m, ok := a.(map[string]any); ok {
				steps = append(steps, argString(m, "type"))
			}
		}
		actionDesc = fmt.Sprintf(" (ações: %s)", strings.Join(steps, ", "))
	}
	e.logger.Info("browser navigating", "url", pageURL, "actions", len(actions))

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.firecrawlURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Sprintf("Erro ao acessar o site com o Browser Agent: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.cfg.FirecrawlAPIKey)

	resp, err := e.http.Do(req)
	if err != nil {
		return fmt.Sprintf("Erro ao acessar o site com o Browser Agent: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4_000_000))
	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Erro ao acessar o site com o Browser Agent: HTTP %d: %s", resp.StatusCode, truncate(string(raw), 300))
	}

	var parsed struct {
		Success bool `json:"success"`
		Data    struct {
			Markdown string `json:"markdown"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Sprintf("Erro ao acessar o site com o Browser Agent: %v", err)
	}

	markdown := parsed.Data.Markdown
	if markdown == "" {
		return fmt.Sprintf("O browser acessou %s%s, mas não extraiu conteúdo Markdown.", pageURL, actionDesc)
	}
	if len(markdown) > browserMaxChars {
		markdown = truncate(markdown, browserMaxChars) + "\n\n... [Truncado por limite de tokens]"
	}
	return fmt.Sprintf("Conteúdo extraído de %s%s:\n\n%s", pageURL, actionDesc, markdown)
}

// truncate cuts on a rune boundary so sliced Portuguese text stays valid
// UTF-8.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
