package builder

import (
	"encoding/json"
	"regexp"
	"strings"
)

var codeBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// extractActions pulls the builder's action document out of a model reply.
// Models rarely return clean JSON even when told to, so three forms are
// accepted in order: the whole reply, a fenced code block, and a balanced
// object found around an "actions"/"ast_actions" key.
func extractActions(text string) map[string]any {
	if parsed := tryParse(text); parsed != nil {
		return parsed
	}

	if m := codeBlockRe.FindStringSubmatch(text); m != nil {
		if parsed := tryParse(strings.TrimSpace(m[1])); parsed != nil {
			return parsed
		}
	}

	for _, key := range []string{`"actions"`, `"ast_actions"`} {
		pos := strings.Index(text, key)
		if pos < 0 {
			continue
		}
		start := strings.LastIndex(text[:pos], "{")
		if start < 0 {
			continue
		}
		if candidate := balancedObject(text[start:]); candidate != "" {
			if parsed := tryParse(candidate); parsed != nil {
				return parsed
			}
		}
	}
	return nil
}

func tryParse(text string) map[string]any {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil
	}
	if isActionResponse(parsed) {
		return parsed
	}
	return nil
}

func isActionResponse(data map[string]any) bool {
	if actions, ok := data["actions"].([]any); ok && actions != nil {
		return true
	}
	if actions, ok := data["ast_actions"].([]any); ok && actions != nil {
		return true
	}
	return false
}

// balancedObject returns the shortest prefix of s that forms a balanced
// brace pair, respecting JSON string literals.
func balancedObject(s string) string {
	depth := 0
	inString := false
	escaped := false
	for i, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}
