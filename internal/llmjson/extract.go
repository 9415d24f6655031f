// Package llmjson recovers JSON objects from free-text model replies. Models
// wrap JSON in code fences or surround it with prose; the heuristics here are
// kept out of the job processor so they can evolve on their own.
package llmjson

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractObject returns the first JSON object found in s. A top-level array is
// rejected: the output contract requires an object.
func ExtractObject(s string) (map[string]any, error) {
	v, err := ExtractValue(s)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("extracted JSON is not an object")
	}
	return obj, nil
}

// ExtractValue parses the JSON value embedded in s: strip code fences, try a
// direct parse, then fall back to the substring between the first opening
// brace/bracket and its last matching counterpart.
func ExtractValue(s string) (any, error) {
	s = StripFences(s)
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty response")
	}

	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v, nil
		}
	}

	for _, pair := range [][2]byte{{'{', '}'}, {'[', ']'}} {
		sub, ok := outermost(s, pair[0], pair[1])
		if !ok {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(sub), &v); err == nil {
			return v, nil
		}
	}

	return nil, fmt.Errorf("no parseable JSON value found")
}

// StripFences removes a surrounding markdown code fence, with or without a
// language tag. Inner fences are left alone.
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	rest := trimmed[3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// Drop the fence line itself ("```json", "```", ...).
		rest = rest[nl+1:]
	} else {
		return s
	}
	if idx := strings.LastIndex(rest, "```"); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.TrimSpace(rest)
}

// outermost returns the substring between the first open delimiter and the
// last close delimiter. Cheap by design: balanced matching against strings
// containing braces is the job of json.Unmarshal on the candidate.
func outermost(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(s, close)
	if end <= start {
		return "", false
	}
	return s[start : end+1], true
}
