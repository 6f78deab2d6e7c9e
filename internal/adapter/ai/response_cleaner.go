// Package ai provides response cleaning and fallback utilities for the
// recommendation generator.
package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

var trailingComma = regexp.MustCompile(`,(\s*[}\]])`)

// CleanJSONResponse strips markdown code fences and surrounding prose from an
// LLM response and returns the first balanced JSON object. Models routinely
// wrap their output in ```json fences or chat preamble.
func CleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)
	response = extractObject(response)
	if !isValidJSON(response) {
		response = trailingComma.ReplaceAllString(response, "$1")
	}
	return response
}

// extractObject returns the first balanced {...} span, or the input when no
// object is present.
func extractObject(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return s
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return s[start:]
}

func isValidJSON(s string) bool {
	var v any
	return json.Unmarshal([]byte(s), &v) == nil
}

// ParseRecommendation cleans a raw LLM response and decodes it into a
// generic recommendation payload.
func ParseRecommendation(raw string) (map[string]any, error) {
	cleaned := CleanJSONResponse(raw)
	var payload map[string]any
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}
