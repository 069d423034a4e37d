package dsl

import (
	"encoding/json"
	"math"

	"github.com/spf13/cast"
)

// toJSONValue converts typed Go values (structs, typed maps, raw JSON) into
// the generic shape produced by encoding/json so one set of checks covers
// every input.
func toJSONValue(raw any) any {
	switch v := raw.(type) {
	case nil:
		return nil
	case map[string]any, []any, string, bool, float64:
		return v
	case json.RawMessage:
		return decodeJSON(v)
	case []byte:
		return decodeJSON(v)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	return decodeJSON(b)
}

func decodeJSON(b []byte) any {
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}

// asRecord returns v as an object or an empty object.
func asRecord(v any) map[string]any {
	switch m := toJSONValue(v).(type) {
	case map[string]any:
		return m
	}
	return map[string]any{}
}

// asList returns v as an array or nil.
func asList(v any) ([]any, bool) {
	l, ok := toJSONValue(v).([]any)
	return l, ok
}

// stringify coerces a JSON value to text: strings as-is, scalars in their
// literal form, composites as compact JSON and null as the empty string.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		b, _ := json.Marshal(v)
		return string(b)
	}
	return s
}

func stringMap(v any) map[string]string {
	rec := asRecord(v)
	out := make(map[string]string, len(rec))
	for k, val := range rec {
		out[k] = stringify(val)
	}
	return out
}

// asInt accepts any finite JSON number and truncates it.
func asInt(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok {
		switch n := v.(type) {
		case int:
			return n, true
		case int64:
			return int(n), true
		default:
			return 0, false
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}
