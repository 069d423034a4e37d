package dsl

import "fmt"

// Report describes how a batch was applied.
type Report struct {
	Applied int
	Skipped []Skipped
}

// Skipped is an operation that had no effect.
type Skipped struct {
	Index  int    `json:"index"`
	Op     OpKind `json:"op"`
	Target string `json:"targetBlockId,omitempty"`
	Reason string `json:"reason"`
}

// Apply runs ops in order against a copy of doc and returns the sanitized
// result. The input document is never modified and no operation fails:
// missing targets and other bad input turn the operation into a no-op.
func Apply(doc Document, ops []Operation) Document {
	out, _ := ApplyWithReport(doc, ops)
	return out
}

// ApplyWithReport is Apply plus a record of which operations were skipped.
func ApplyWithReport(doc Document, ops []Operation) (Document, Report) {
	base := SanitizeDocument(doc)
	tree := NewTree(base.Blocks)

	var rep Report
	for i, op := range ops {
		if reason := applyOne(tree, op); reason != "" {
			rep.Skipped = append(rep.Skipped, Skipped{Index: i, Op: op.Op, Target: op.TargetBlockID, Reason: reason})
			continue
		}
		rep.Applied++
	}

	base.Blocks = tree.Blocks()
	return SanitizeDocument(base), rep
}

func applyOne(t *Tree, op Operation) string {
	switch op.Op {
	case OpAdd:
		b := defaultSection()
		if op.Block != nil {
			b = SanitizeBlock(*op.Block)
		}
		t.Insert(op.ParentBlockID, op.Index, b)
		return ""

	case OpRemove:
		if op.TargetBlockID == "" {
			return "missing target"
		}
		if !t.Remove(op.TargetBlockID) {
			return "target not found"
		}
		return ""

	case OpUpdateProps, OpUpdateContent:
		if op.TargetBlockID == "" {
			return "missing target"
		}
		ok := t.Update(op.TargetBlockID, func(b *Block) {
			b.Props = DeepMerge(b.Props, op.Payload)
		})
		if !ok {
			return "target not found"
		}
		return ""

	case OpUpdateStyle:
		if op.TargetBlockID == "" {
			return "missing target"
		}
		ok := t.Update(op.TargetBlockID, func(b *Block) {
			current := make(map[string]any, len(b.StyleTokens))
			for k, v := range b.StyleTokens {
				current[k] = v
			}
			merged := DeepMerge(current, op.Payload)
			b.StyleTokens = make(map[string]string, len(merged))
			for k, v := range merged {
				b.StyleTokens[k] = stringify(v)
			}
		})
		if !ok {
			return "target not found"
		}
		return ""

	case OpReplaceBlock:
		if op.TargetBlockID == "" || op.Block == nil {
			return "replaceBlock needs a target and a block"
		}
		if _, ok := t.Replace(op.TargetBlockID, SanitizeBlock(*op.Block)); !ok {
			return "target not found"
		}
		return ""

	case OpMove:
		if op.TargetBlockID == "" {
			return "missing target"
		}
		if !t.Has(op.TargetBlockID) {
			return "target not found"
		}
		if op.ToParentBlockID != nil && t.IsWithin(*op.ToParentBlockID, op.TargetBlockID) {
			return fmt.Sprintf("cannot move %s into its own subtree", op.TargetBlockID)
		}
		t.Move(op.TargetBlockID, op.ToParentBlockID, op.ToIndex)
		return ""
	}
	return "unknown operation"
}

func defaultSection() Block {
	return Block{
		ID:   NewID("section"),
		Type: defaultBlockType,
		Props: map[string]any{
			"heading": "New section",
			"content": "Content follows.",
		},
		StyleTokens:     map[string]string{},
		Children:        []Block{},
		ContentBindings: map[string]string{},
	}
}
