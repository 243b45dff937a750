package analyzer

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrNoJSON is returned when the model output holds no parsable JSON object.
var ErrNoJSON = errors.New("no JSON object found in model output")

// ExtractJSON locates the first balanced {...} span in s, skipping braces
// inside JSON strings, and decodes it into a map. Numbers are kept as
// json.Number.
//
// Only the first balanced span is considered. If it does not decode to a
// JSON object, ErrNoJSON is returned.
func ExtractJSON(s string) (map[string]any, error) {
	span, ok := firstObjectSpan(s)
	if !ok {
		return nil, ErrNoJSON
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(span)))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil || out == nil {
		return nil, ErrNoJSON
	}
	return out, nil
}

func firstObjectSpan(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if start < 0 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}
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
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
