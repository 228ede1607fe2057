package parser

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject returns the first balanced {...} in text. Braces inside
// JSON strings are ignored. Returns ErrNoJSON when there is none.
func ExtractJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	for start >= 0 {
		if end := matchBrace(text, start); end > 0 {
			return text[start : end+1], nil
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", ErrNoJSON
}

// matchBrace returns the index of the '}' closing the '{' at open, or -1.
func matchBrace(text string, open int) int {
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(text); i++ {
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
				return i
			}
		}
	}
	return -1
}

// DecodeObject locates and decodes the JSON object in a model answer.
func DecodeObject(text string) (map[string]any, string, error) {
	raw, err := ExtractJSONObject(text)
	if err != nil {
		return nil, "", err
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, raw, ErrInvalidJSON
	}
	return obj, raw, nil
}
