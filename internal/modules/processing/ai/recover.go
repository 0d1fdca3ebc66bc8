package ai

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrEmptyOutput = errors.New("empty output received")

// ExtractJSON pulls the assignment object out of noisy model output.
//
// Code fences are stripped first (a ```json fence wins over a bare one), then
// the text is scanned for balanced top-level {...} objects. The first one that
// is valid JSON is returned; failing that, the first balanced one; failing
// that, the whole cleaned text.
func ExtractJSON(output string) (string, error) {
	cleaned := strings.TrimSpace(output)
	if cleaned == "" {
		return "", ErrEmptyOutput
	}

	cleaned = stripFence(cleaned)

	candidates := balancedObjects(cleaned)
	for _, c := range candidates {
		if json.Valid([]byte(c)) {
			return c, nil
		}
	}
	if len(candidates) > 0 {
		return candidates[0], nil
	}
	return cleaned, nil
}

func stripFence(s string) string {
	if idx := strings.Index(s, "```json"); idx >= 0 {
		rest := s[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	if idx := strings.Index(s, "```"); idx >= 0 {
		rest := s[idx+3:]
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}
	return s
}

// balancedObjects returns every top-level {...} span in s. String literals are
// only tracked inside an object, so stray quotes in surrounding prose are
// ignored.
func balancedObjects(s string) []string {
	var out []string
	inString, escaped := false, false
	depth, start := 0, -1

	for i := 0; i < len(s); i++ {
		c := s[i]

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
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				out = append(out, s[start:i+1])
				start = -1
			}
		}
	}
	return out
}
