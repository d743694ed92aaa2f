package orchestrator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Nitianimelo/arccoVPS/pkg/llm"
)

var (
	markdownLinkRe = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^)]+)\)`)
	rawURLRe       = regexp.MustCompile(`(?i)https?://[^\s)\]"'>]+`)
)

// extractToolURLs pulls download URLs out of the tool observations in a
// transcript. The executor's upload URLs are deterministic, so this works no
// matter what the model chose to say.
func extractToolURLs(messages []llm.Message) []string {
	var urls []string
	for _, msg := range messages {
		if msg.Role != "tool" {
			continue
		}
		if matches := markdownLinkRe.FindAllStringSubmatch(msg.Content, -1); len(matches) > 0 {
			for _, m := range matches {
				urls = append(urls, m[2])
			}
			continue
		}
		for _, raw := range rawURLRe.FindAllString(msg.Content, -1) {
			if strings.Contains(raw, "supabase") || strings.Contains(raw, "storage") {
				urls = append(urls, raw)
			}
		}
	}
	return urls
}

// linkLabel derives the download button label from the file extension.
func linkLabel(url string) string {
	ext := "Arquivo"
	if i := strings.LastIndex(url, "."); i >= 0 {
		ext = strings.ToUpper(strings.SplitN(url[i+1:], "?", 2)[0])
	}
	switch ext {
	case "PDF", "XLSX", "PPTX", "DOCX":
		return "Baixar " + ext
	}
	return "Baixar Arquivo"
}

// ensureDownloadLink guarantees that responses from file routes carry a real
// download link. When the model left it out, the most recent URL from the
// tool observations is appended.
func (o *Orchestrator) ensureDownloadLink(response, route string, transcript []llm.Message) string {
	if !o.routesRequiringLink[route] {
		return response
	}
	if markdownLinkRe.MatchString(response) {
		return response
	}

	urls := extractToolURLs(transcript)
	if len(urls) == 0 {
		o.logger.Error("no download link found in tool results", "route", route)
		return response
	}

	url := urls[len(urls)-1]
	o.logger.Warn("specialist omitted download link, injecting", "url", truncateStr(url, 60))
	return response + fmt.Sprintf("\n\n[%s](%s)", linkLabel(url), url)
}

// suppressFileContent replaces a file-route response with its links only, so
// the supervisor never sees (or replicates) internal document content.
func (o *Orchestrator) suppressFileContent(response, route string) string {
	if !o.routesRequiringLink[route] {
		return response
	}
	matches := markdownLinkRe.FindAllStringSubmatch(response, -1)
	if len(matches) == 0 {
		return response
	}
	links := make([]string, len(matches))
	for i, m := range matches {
		links[i] = fmt.Sprintf("[%s](%s)", m[1], m[2])
	}
	o.logger.Info("file content suppressed, forwarding links only", "route", route)
	return "Arquivo gerado com sucesso.\n\n" + strings.Join(links, "\n")
}

func truncateStr(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// truncateRunes cuts at a rune boundary, for user-visible prefixes of
// Portuguese text.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
