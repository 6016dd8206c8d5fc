package oracle

import (
	"encoding/json"
	"log"
	"strings"
)

// stripFences removes a surrounding markdown code fence if present. Oracles
// routinely wrap JSON in ```json blocks despite instructions not to.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	endIdx := len(lines) - 1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			endIdx = i
			break
		}
	}
	return strings.Join(lines[1:endIdx], "\n")
}

// ParseJSONArray parses an oracle response expected to be a JSON array,
// tolerating markdown fences. Returns nil on any parse failure.
func ParseJSONArray(text string) []map[string]any {
	text = stripFences(text)
	if text == "" {
		return nil
	}

	var result []map[string]any
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		log.Printf("Failed to parse oracle response as JSON array: %v", err)
		return nil
	}
	return result
}
