package dsl

import "strings"

var colorTerms = []string{"color", "colour", "farbe"}

// Synthesize builds a minimal edit from the prompt alone, for when no model
// output is usable. It always returns at least one operation and a summary.
func Synthesize(prompt, selectedBlockID string, doc Document) ([]Operation, string) {
	lower := strings.ToLower(prompt)

	if selectedBlockID != "" && containsAny(lower, colorTerms) {
		return []Operation{{
			Op:            OpUpdateStyle,
			TargetBlockID: selectedBlockID,
			Payload:       map[string]any{"background": "gradient-secondary"},
			Reason:        "Fallback: color style update.",
		}}, "Updated the color of the selected block."
	}

	if selectedBlockID != "" {
		return []Operation{{
			Op:            OpUpdateContent,
			TargetBlockID: selectedBlockID,
			Payload:       map[string]any{"content": prompt, "subtitle": prompt},
			Reason:        "Fallback: content update for selected block.",
		}}, "Updated the selected block from the prompt."
	}

	index := len(doc.Blocks)
	return []Operation{{
		Op:     OpAdd,
		Index:  &index,
		Reason: "Fallback: append section.",
		Block: &Block{
			ID:   NewID("section"),
			Type: defaultBlockType,
			Props: map[string]any{
				"heading": "New section",
				"content": prompt,
			},
			StyleTokens:     map[string]string{},
			Children:        []Block{},
			ContentBindings: map[string]string{},
		},
	}}, "Appended a new section at the end of the page."
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
