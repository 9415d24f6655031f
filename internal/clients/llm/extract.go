package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Different providers put the reply text in different places. Each strategy
// probes one known shape; the first non-empty match wins. Order matters:
// OpenAI-style chat completions first, then the flatter shapes, then
// Gemini-style candidates.
type extractStrategy func(m map[string]any) string

var extractStrategies = []extractStrategy{
	extractChatChoices,
	extractContentField,
	extractTextField,
	extractResultField,
	extractCandidateParts,
}

// ExtractText locates the reply text inside a provider response body.
func ExtractText(raw []byte) (string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", fmt.Errorf("not a JSON object: %w", err)
	}
	for _, strat := range extractStrategies {
		if text := strings.TrimSpace(strat(m)); text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("no reply text found in any known response shape")
}

// choices[0].message.content
func extractChatChoices(m map[string]any) string {
	choices, ok := m["choices"].([]any)
	if !ok || len(choices) == 0 {
		return ""
	}
	first, ok := choices[0].(map[string]any)
	if !ok {
		return ""
	}
	msg, ok := first["message"].(map[string]any)
	if !ok {
		return ""
	}
	text, _ := msg["content"].(string)
	return text
}

func extractContentField(m map[string]any) string {
	text, _ := m["content"].(string)
	return text
}

func extractTextField(m map[string]any) string {
	text, _ := m["text"].(string)
	return text
}

func extractResultField(m map[string]any) string {
	text, _ := m["result"].(string)
	return text
}

// candidates[0].content.parts[].text
func extractCandidateParts(m map[string]any) string {
	candidates, ok := m["candidates"].([]any)
	if !ok || len(candidates) == 0 {
		return ""
	}
	first, ok := candidates[0].(map[string]any)
	if !ok {
		return ""
	}
	content, ok := first["content"].(map[string]any)
	if !ok {
		return ""
	}
	parts, ok := content["parts"].([]any)
	if !ok {
		return ""
	}
	var out strings.Builder
	for _, p := range parts {
		part, ok := p.(map[string]any)
		if !ok {
			continue
		}
		if text, _ := part["text"].(string); text != "" {
			out.WriteString(text)
		}
	}
	return out.String()
}
