package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	reSpaces  = regexp.MustCompile(`\s+`)
	reBraces  = regexp.MustCompile(`\{[\s\S]*\}`)
	reFenced  = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")
	errNoJSON = errors.New("no JSON object found in model output")
)

// ExtractJSON pulls a JSON object out of model output. It tries the whole
// text, then the outermost {...} span, then a fenced ```json block.
func ExtractJSON(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errNoJSON
	}
	if m, ok := decodeObject(text); ok {
		return m, nil
	}
	if span := reBraces.FindString(text); span != "" {
		if m, ok := decodeObject(span); ok {
			return m, nil
		}
	}
	if sub := reFenced.FindStringSubmatch(text); len(sub) == 2 {
		if m, ok := decodeObject(sub[1]); ok {
			return m, nil
		}
	}
	return nil, errNoJSON
}

func decodeObject(s string) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

// CleanRecord normalizes model output before coercion: strings have runs of
// whitespace collapsed and are trimmed, blank strings become nil, and lists
// lose nil and blank entries. The input is not modified.
func CleanRecord(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cleanValue(v)
	}
	return out
}

func cleanValue(v any) any {
	switch t := v.(type) {
	case string:
		return CleanString(t)
	case map[string]any:
		return CleanRecord(t)
	case []any:
		out := make([]any, 0, len(t))
		for _, it := range t {
			c := cleanValue(it)
			if c == nil {
				continue
			}
			out = append(out, c)
		}
		return out
	default:
		return v
	}
}

// CleanString collapses whitespace; it returns nil for blank input so the
// result can be stored directly in a record.
func CleanString(s string) any {
	cleaned := strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
	if cleaned == "" {
		return nil
	}
	return cleaned
}
