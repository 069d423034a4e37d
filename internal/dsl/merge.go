package dsl

// DeepMerge returns base with patch merged in. Keys whose old and new values
// are both objects are merged recursively; anything else, arrays included,
// is replaced by the patch value. Neither argument is modified.
func DeepMerge(base, patch map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		out[k] = cloneValue(v)
	}
	for k, pv := range patch {
		if pm, ok := objectOf(pv); ok {
			if bm, ok := objectOf(out[k]); ok {
				out[k] = DeepMerge(bm, pm)
				continue
			}
		}
		out[k] = cloneValue(pv)
	}
	return out
}

func objectOf(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

// cloneValue deep-copies the mutable JSON containers inside v.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, e := range t {
			out[k] = e
		}
		return out
	}
	return v
}

func cloneRecord(m map[string]any) map[string]any {
	out, _ := cloneValue(m).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	return out
}
