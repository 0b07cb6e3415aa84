// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/spf13/cast"
)

// CleanJSONBlock removes markdown code block wrappers from JSON responses.
// LLMs often wrap JSON in ```json ... ``` blocks even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip potential language identifier on first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	return text
}

// ExtractJSONObject returns the first brace-delimited block in text, matching
// braces outside string literals. An unterminated block is returned as-is so
// that repair can close it. Returns "" when text has no opening brace.
func ExtractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return text[start:]
}

// ParseResult is the outcome of decoding model output: either a parsed
// object or a failure with a reason. It is never both.
type ParseResult struct {
	Value    map[string]any
	Failed   bool
	Reason   string
	Repaired bool
}

// Parsed wraps a decoded object.
func Parsed(value map[string]any) ParseResult {
	return ParseResult{Value: value}
}

// Failed returns the failure sentinel.
func Failed(reason string) ParseResult {
	return ParseResult{Failed: true, Reason: reason}
}

// ParseJSONObject decodes a JSON object from unreliable model output. It
// strips code fences, tries a direct decode, then the first brace-delimited
// block, then a repaired copy of that block.
func ParseJSONObject(raw string) ParseResult {
	text := CleanJSONBlock(raw)
	if text == "" {
		return Failed("empty response")
	}

	if obj, err := decodeObject(text); err == nil {
		return Parsed(obj)
	}

	block := ExtractJSONObject(text)
	if block == "" {
		return Failed("no JSON object found in response")
	}

	obj, err := decodeObject(block)
	if err == nil {
		return Parsed(obj)
	}
	originalErr := err

	repaired, err := jsonrepair.JSONRepair(block)
	if err != nil {
		return Failed(fmt.Sprintf("invalid JSON: %v", originalErr))
	}
	obj, err = decodeObject(repaired)
	if err != nil {
		return Failed(fmt.Sprintf("invalid JSON: %v", originalErr))
	}
	result := Parsed(obj)
	result.Repaired = true
	return result
}

func decodeObject(text string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("not a JSON object")
	}
	return obj, nil
}

// String reads a field as trimmed text, tolerating numbers and booleans.
func String(obj map[string]any, key string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return ""
	}
	switch v.(type) {
	case map[string]any, []any:
		return ""
	}
	return strings.TrimSpace(cast.ToString(v))
}

// StringSlice reads a list field as trimmed, non-empty strings. A bare
// string is treated as a one-item list.
func StringSlice(obj map[string]any, key string) []string {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil
	}
	var out []string
	switch items := v.(type) {
	case []any:
		for _, item := range items {
			switch item.(type) {
			case map[string]any, []any, nil:
				continue
			}
			if s := strings.TrimSpace(cast.ToString(item)); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if s := strings.TrimSpace(items); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Objects reads a list field as JSON objects, skipping anything else.
func Objects(obj map[string]any, key string) []map[string]any {
	items, ok := obj[key].([]any)
	if !ok {
		return nil
	}
	var out []map[string]any
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
