// Package jsonx pulls a JSON object out of free-form model replies.
package jsonx

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoObject is returned when no parseable JSON object can be located.
var ErrNoObject = errors.New("no JSON object found in text")

var (
	jsonFence = regexp.MustCompile("(?s)```json[ \\t]*\\r?\\n?(.*?)```")
	anyFence  = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \\t]*\\r?\\n?(.*?)```")
)

// Extract returns the JSON object found in text. Candidates are tried in order:
// a ```json fenced block, any fenced block, then the raw text. Each candidate is
// used as-is when it is valid JSON, otherwise its first balanced {...} span is used.
func Extract(text string) ([]byte, error) {
	for _, candidate := range candidates(text) {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if strings.HasPrefix(candidate, "{") && json.Valid([]byte(candidate)) {
			return []byte(candidate), nil
		}
		if span, ok := FirstObject(candidate); ok && json.Valid([]byte(span)) {
			return []byte(span), nil
		}
	}
	return nil, ErrNoObject
}

// Decode extracts the object from text and unmarshals it into v.
func Decode(text string, v any) error {
	raw, err := Extract(text)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func candidates(text string) []string {
	var out []string
	if m := jsonFence.FindStringSubmatch(text); m != nil {
		out = append(out, m[1])
	}
	if m := anyFence.FindStringSubmatch(text); m != nil {
		out = append(out, m[1])
	}
	return append(out, text)
}

// FirstObject scans for the first balanced {...} span, skipping braces inside JSON strings.
func FirstObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
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
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
