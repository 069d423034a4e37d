package dsl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleDoc() Document {
	return SanitizeDocument(map[string]any{
		"pageMeta": map[string]any{"title": "Launch", "slug": "launch"},
		"blocks": []any{
			map[string]any{"id": "hero", "type": "Hero", "props": map[string]any{"title": "Hi"}},
			map[string]any{
				"id":   "grid",
				"type": "Grid",
				"children": []any{
					map[string]any{"id": "card-1", "type": "Card"},
					map[string]any{"id": "card-2", "type": "Card", "children": []any{
						map[string]any{"id": "badge", "type": "Badge"},
					}},
				},
			},
			map[string]any{"id": "cta", "type": "CTA", "styleTokens": map[string]any{"tone": "dark"}},
		},
	})
}

func TestApplyRemoveMissingIsNoop(t *testing.T) {
	doc := sampleDoc()
	out, rep := ApplyWithReport(doc, []Operation{{Op: OpRemove, TargetBlockID: "missing"}})

	require.Equal(t, mustJSON(t, doc), mustJSON(t, out))
	require.Equal(t, 0, rep.Applied)
	require.Len(t, rep.Skipped, 1)
}

func TestApplyDoesNotMutateSource(t *testing.T) {
	doc := sampleDoc()
	before := mustJSON(t, doc)

	Apply(doc, []Operation{
		{Op: OpUpdateProps, TargetBlockID: "hero", Payload: map[string]any{"title": "Changed"}},
		{Op: OpRemove, TargetBlockID: "card-1"},
		{Op: OpUpdateStyle, TargetBlockID: "cta", Payload: map[string]any{"tone": "light"}},
	})

	require.Equal(t, before, mustJSON(t, doc))
}

func TestApplyUpdateContentKeepsOtherBlocks(t *testing.T) {
	doc := sampleDoc()
	out := Apply(doc, []Operation{{
		Op:            OpUpdateContent,
		TargetBlockID: "hero",
		Payload:       map[string]any{"content": "Updated text"},
	}})

	hero, ok := out.Find("hero")
	require.True(t, ok)
	require.Equal(t, "Hero", hero.Type)
	require.Equal(t, "Updated text", hero.Props["content"])
	require.Equal(t, "Hi", hero.Props["title"])
	require.Equal(t, mustJSON(t, doc.Blocks[1:]), mustJSON(t, out.Blocks[1:]))
}

func TestApplyUpdateStyleStringifies(t *testing.T) {
	out := Apply(sampleDoc(), []Operation{{
		Op:            OpUpdateStyle,
		TargetBlockID: "cta",
		Payload:       map[string]any{"padding": 3.0, "tone": "light"},
	}})

	cta, _ := out.Find("cta")
	require.Equal(t, map[string]string{"padding": "3", "tone": "light"}, cta.StyleTokens)
}

func TestApplyAddDefaultsAndClamps(t *testing.T) {
	out := Apply(sampleDoc(), []Operation{
		{Op: OpAdd, Index: ptr(-5)},
		{Op: OpAdd, ParentBlockID: ptr("grid"), Index: ptr(99), Block: &Block{ID: "card-3", Type: "Card"}},
		{Op: OpAdd, ParentBlockID: ptr("ghost"), Index: ptr(0), Block: &Block{ID: "orphan", Type: "Text"}},
	})

	require.Equal(t, "Section", out.Blocks[0].Type)
	require.Equal(t, "New section", out.Blocks[0].Props["heading"])
	require.Equal(t, "orphan", out.Blocks[len(out.Blocks)-1].ID)

	grid, _ := out.Find("grid")
	require.Equal(t, "card-3", grid.Children[len(grid.Children)-1].ID)
}

func TestApplyAddRenamesCollidingIDs(t *testing.T) {
	doc := sampleDoc()
	out := Apply(doc, []Operation{{Op: OpAdd, Block: &Block{ID: "hero", Type: "Hero"}}})

	ids := out.IDs()
	require.Equal(t, "hero", ids[0])
	require.Equal(t, "hero-2", out.Blocks[len(out.Blocks)-1].ID)
	assertUnique(t, ids)
}

func TestApplyReplaceBlock(t *testing.T) {
	out := Apply(sampleDoc(), []Operation{
		{Op: OpReplaceBlock, TargetBlockID: "card-2", Block: &Block{ID: "quote", Type: "Quote"}},
		{Op: OpReplaceBlock, TargetBlockID: "cta"},
	})

	grid, _ := out.Find("grid")
	require.Equal(t, []string{"card-1", "quote"}, []string{grid.Children[0].ID, grid.Children[1].ID})
	_, ok := out.Find("badge")
	require.False(t, ok)
	_, ok = out.Find("cta")
	require.True(t, ok)
}

func TestApplyMove(t *testing.T) {
	out := Apply(sampleDoc(), []Operation{
		{Op: OpMove, TargetBlockID: "badge", ToParentBlockID: ptr("grid"), ToIndex: ptr(0)},
		{Op: OpMove, TargetBlockID: "cta", ToIndex: ptr(0)},
	})

	require.Equal(t, "cta", out.Blocks[0].ID)
	grid, _ := out.Find("grid")
	require.Equal(t, "badge", grid.Children[0].ID)
	card2, _ := out.Find("card-2")
	require.Empty(t, card2.Children)
}

func TestApplyRejectsCyclicMove(t *testing.T) {
	doc := sampleDoc()
	out, rep := ApplyWithReport(doc, []Operation{
		{Op: OpMove, TargetBlockID: "grid", ToParentBlockID: ptr("badge")},
		{Op: OpMove, TargetBlockID: "grid", ToParentBlockID: ptr("grid")},
	})

	require.Equal(t, mustJSON(t, doc), mustJSON(t, out))
	require.Len(t, rep.Skipped, 2)
	require.Contains(t, rep.Skipped[0].Reason, "own subtree")
}

func TestApplyPreservesIDs(t *testing.T) {
	doc := sampleDoc()
	before := doc.IDs()
	out := Apply(doc, []Operation{
		{Op: OpMove, TargetBlockID: "card-2", ToIndex: ptr(1)},
		{Op: OpAdd, Block: &Block{ID: "card-1", Children: []Block{{ID: "badge"}}}},
		{Op: OpUpdateProps, TargetBlockID: "nowhere", Payload: map[string]any{"x": 1}},
		{Op: OpRemove, TargetBlockID: "hero"},
	})

	after := out.IDs()
	assertUnique(t, after)
	for _, id := range before {
		if id == "hero" {
			require.NotContains(t, after, id)
			continue
		}
		require.Contains(t, after, id)
	}
}

func assertUnique(t *testing.T, ids []string) {
	t.Helper()
	seen := map[string]bool{}
	for _, id := range ids {
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
