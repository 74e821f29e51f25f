package schema

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Reasons attached to FieldError.
const (
	ReasonUnknown  = "unknown_field"
	ReasonType     = "type_mismatch"
	ReasonRequired = "required"
)

// FieldError records one problem found while coercing a record.
type FieldError struct {
	Path    string
	Reason  string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Path, e.Message, e.Reason)
}

// Coerce returns a new record shaped like d: declared fields converted to
// their types, unknown fields removed, missing optional scalars set to nil,
// missing lists set to empty lists and missing objects filled with defaults.
// data is never modified and the result shares no maps or slices with it.
// Every deviation is reported; callers decide which reasons matter.
func Coerce(data map[string]any, d *Descriptor) (map[string]any, []FieldError) {
	c := &coercer{}
	out := c.object(data, d.Fields, "")
	sort.SliceStable(c.errs, func(i, j int) bool { return c.errs[i].Path < c.errs[j].Path })
	return out, c.errs
}

type coercer struct {
	errs []FieldError
}

func (c *coercer) fail(path, reason, format string, args ...any) {
	c.errs = append(c.errs, FieldError{Path: path, Reason: reason, Message: fmt.Sprintf(format, args...)})
}

func join(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func (c *coercer) object(data map[string]any, fields []Field, path string) map[string]any {
	out := make(map[string]any, len(fields))
	declared := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		declared[f.Name] = struct{}{}
		v, ok := data[f.Name]
		p := join(path, f.Name)
		if (!ok || v == nil) && f.Required {
			c.fail(p, ReasonRequired, "missing required field")
		}
		out[f.Name] = c.value(v, f, p)
	}
	for k := range data {
		if _, ok := declared[k]; !ok {
			c.fail(join(path, k), ReasonUnknown, "field not in schema, dropped")
		}
	}
	return out
}

func (c *coercer) value(v any, f Field, path string) any {
	switch f.Kind {
	case KindObject:
		if v == nil {
			return c.object(nil, f.Fields, path)
		}
		m, ok := v.(map[string]any)
		if !ok {
			c.fail(path, ReasonType, "expected object, got %T", v)
			return c.object(nil, f.Fields, path)
		}
		return c.object(m, f.Fields, path)

	case KindList:
		item := itemField(f)
		items, ok := asList(v)
		if !ok {
			c.fail(path, ReasonType, "expected list, got %T", v)
			return []any{}
		}
		out := make([]any, 0, len(items))
		for i, it := range items {
			p := fmt.Sprintf("%s[%d]", path, i)
			if it == nil {
				continue
			}
			if item.Kind == KindObject {
				m, ok := it.(map[string]any)
				if !ok {
					c.fail(p, ReasonType, "expected object, got %T", it)
					continue
				}
				out = append(out, c.object(m, item.Fields, p))
				continue
			}
			if s, ok := c.scalar(it, item.Type, p); ok && s != nil {
				out = append(out, s)
			}
		}
		return out

	default:
		if v == nil {
			return nil
		}
		s, _ := c.scalar(v, f.Type, path)
		return s
	}
}

// asList accepts JSON arrays and the common Go slice shapes; nil is an empty list.
func asList(v any) ([]any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out, true
	default:
		return nil, false
	}
}

func (c *coercer) scalar(v any, t ScalarType, path string) (any, bool) {
	switch t {
	case TypeString:
		switch x := v.(type) {
		case string:
			return x, true
		case bool:
			return strconv.FormatBool(x), true
		default:
			if f, ok := asFloat(v); ok {
				return strconv.FormatFloat(f, 'f', -1, 64), true
			}
		}
	case TypeNumber:
		if f, ok := asFloat(v); ok {
			return f, true
		}
		if s, ok := v.(string); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				return f, true
			}
		}
	case TypeInteger:
		f, ok := asFloat(v)
		if !ok {
			if s, isStr := v.(string); isStr {
				if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
					f, ok = float64(n), true
				}
			}
		}
		if ok && f == math.Trunc(f) {
			return f, true
		}
	case TypeBoolean:
		switch x := v.(type) {
		case bool:
			return x, true
		case string:
			switch strings.ToLower(strings.TrimSpace(x)) {
			case "true", "si", "sí", "yes", "1":
				return true, true
			case "false", "no", "0":
				return false, true
			}
		}
	}
	c.fail(path, ReasonType, "cannot convert %T to %s", v, t)
	return nil, false
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}
