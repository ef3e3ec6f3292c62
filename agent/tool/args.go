package tool

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/driftdesk-agent/agent/contract"
)

// Args holds validated tool arguments. Values are normalized to string,
// int, float64, bool, []string, []any or map[string]any.
type Args map[string]any

func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// OptString returns nil when the argument is absent or blank.
func (a Args) OptString(key string) *string {
	s, ok := a[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func (a Args) Int(key string) int {
	n, _ := a[key].(int)
	return n
}

func (a Args) Strings(key string) []string {
	out, _ := a[key].([]string)
	return out
}

// NormalizeArgs validates raw model arguments against spec: it fills
// defaults, rejects missing required values and coerces scalar types.
// Arguments missing from spec.Params are dropped.
func NormalizeArgs(spec Spec, raw map[string]any) (Args, error) {
	out := make(Args, len(spec.Params))
	for name, param := range spec.Params {
		v, present := raw[name]
		if !present || v == nil {
			if def, ok := spec.Defaults[name]; ok {
				out[name] = def
				continue
			}
			if param.Required {
				return nil, fmt.Errorf("%w: missing required argument %q", contractx.ErrValidation, name)
			}
			continue
		}

		coerced, err := coerce(param, v)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %q %v", contractx.ErrValidation, name, err)
		}
		if s, ok := coerced.(string); ok && param.Required && strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("%w: missing required argument %q", contractx.ErrValidation, name)
		}
		out[name] = coerced
	}
	return out, nil
}

func coerce(param *schema.ParameterInfo, v any) (any, error) {
	switch param.Type {
	case schema.String:
		switch t := v.(type) {
		case string:
			return t, nil
		case json.Number:
			return t.String(), nil
		case float64, int, int64, bool:
			return fmt.Sprint(t), nil
		}
		return nil, fmt.Errorf("must be a string, got %T", v)

	case schema.Integer:
		switch t := v.(type) {
		case int:
			return t, nil
		case int64:
			return int(t), nil
		case float64:
			if t != math.Trunc(t) {
				return nil, fmt.Errorf("must be an integer, got %v", t)
			}
			return int(t), nil
		case json.Number:
			n, err := strconv.Atoi(t.String())
			if err != nil {
				return nil, fmt.Errorf("must be an integer, got %q", t)
			}
			return n, nil
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(t))
			if err != nil {
				return nil, fmt.Errorf("must be an integer, got %q", t)
			}
			return n, nil
		}
		return nil, fmt.Errorf("must be an integer, got %T", v)

	case schema.Number:
		switch t := v.(type) {
		case float64:
			return t, nil
		case int:
			return float64(t), nil
		case int64:
			return float64(t), nil
		case json.Number:
			return t.Float64()
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
			if err != nil {
				return nil, fmt.Errorf("must be a number, got %q", t)
			}
			return f, nil
		}
		return nil, fmt.Errorf("must be a number, got %T", v)

	case schema.Boolean:
		switch t := v.(type) {
		case bool:
			return t, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(t))
			if err != nil {
				return nil, fmt.Errorf("must be a boolean, got %q", t)
			}
			return b, nil
		}
		return nil, fmt.Errorf("must be a boolean, got %T", v)

	case schema.Array:
		items, err := toSlice(v)
		if err != nil {
			return nil, err
		}
		if param.ElemInfo == nil || param.ElemInfo.Type != schema.String {
			return items, nil
		}
		out := make([]string, 0, len(items))
		for i, item := range items {
			s, err := coerce(param.ElemInfo, item)
			if err != nil {
				return nil, fmt.Errorf("item %d %v", i, err)
			}
			out = append(out, s.(string))
		}
		return out, nil

	case schema.Object:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("must be an object, got %T", v)
		}
		return m, nil
	}
	return v, nil
}

func toSlice(v any) ([]any, error) {
	switch t := v.(type) {
	case []any:
		return t, nil
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, nil
	case string:
		// Models occasionally send a single value where a list is expected.
		return []any{t}, nil
	}
	return nil, fmt.Errorf("must be an array, got %T", v)
}
