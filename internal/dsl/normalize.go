package dsl

// NormalizeOperations filters an untrusted batch of proposed edits into
// well-typed operations. Entries that are not objects or carry an unknown
// op are dropped; every field is checked on its own and omitted when it has
// the wrong type. It never fails.
func NormalizeOperations(raw any) []Operation {
	list, ok := asList(raw)
	if !ok {
		return []Operation{}
	}
	out := make([]Operation, 0, len(list))
	for _, item := range list {
		rec, ok := item.(map[string]any)
		if !ok {
			continue
		}
		kind, _ := rec["op"].(string)
		op := Operation{Op: OpKind(kind)}
		if !op.Op.Valid() {
			continue
		}
		if s, ok := rec["targetBlockId"].(string); ok {
			op.TargetBlockID = s
		}
		op.ParentBlockID = nullableID(rec["parentBlockId"])
		op.ToParentBlockID = nullableID(rec["toParentBlockId"])
		if n, ok := asInt(rec["index"]); ok {
			op.Index = &n
		}
		if n, ok := asInt(rec["toIndex"]); ok {
			op.ToIndex = &n
		}
		op.Payload = cloneRecord(asRecord(rec["payload"]))
		if b, ok := rec["block"].(map[string]any); ok {
			sb := SanitizeBlock(b)
			op.Block = &sb
		}
		if s, ok := rec["reason"].(string); ok {
			op.Reason = s
		}
		out = append(out, op)
	}
	return out
}

// nullableID keeps string parents; null and every other type mean the root.
func nullableID(v any) *string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}
