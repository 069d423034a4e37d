package dsl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestSanitizeDocumentDefaults(t *testing.T) {
	doc := SanitizeDocument(nil)

	require.Equal(t, 1, doc.Version)
	require.Equal(t, "Untitled page", doc.PageMeta.Title)
	require.Equal(t, "untitled-page", doc.PageMeta.Slug)
	require.Nil(t, doc.PageMeta.Description)
	require.NotNil(t, doc.Blocks)
	require.Empty(t, doc.Blocks)
	require.NotNil(t, doc.GlobalBindings)
	require.NotNil(t, doc.Assets)
}

func TestSanitizeBlockCoercesShapes(t *testing.T) {
	b := SanitizeBlock(map[string]any{
		"props":           []any{1, 2},
		"styleTokens":     map[string]any{"pad": 4.0, "on": true, "none": nil, "obj": map[string]any{"a": 1.0}},
		"children":        "nope",
		"contentBindings": map[string]any{"title": 12.5},
	})

	require.NotEmpty(t, b.ID)
	require.Equal(t, "Section", b.Type)
	require.Empty(t, b.Props)
	require.Equal(t, map[string]string{"pad": "4", "on": "true", "none": "", "obj": `{"a":1}`}, b.StyleTokens)
	require.Empty(t, b.Children)
	require.Equal(t, "12.5", b.ContentBindings["title"])
}

func TestSanitizeIsIdempotent(t *testing.T) {
	inputs := []any{
		nil,
		"text",
		42.0,
		[]any{1, "x"},
		map[string]any{"version": "3", "blocks": map[string]any{}},
		map[string]any{
			"version":  2.9,
			"pageMeta": map[string]any{"title": 7.0, "description": "d"},
			"blocks": []any{
				map[string]any{"id": "a", "type": "Hero", "children": []any{map[string]any{"id": "a"}, "junk"}},
				map[string]any{"id": "a-2"},
				map[string]any{"type": 3.0, "styleTokens": map[string]any{"x": 1.0}},
			},
			"assets":         []any{"logo.svg", 3.0, nil},
			"globalBindings": map[string]any{"brand": map[string]any{"name": "Acme"}},
		},
		[]byte(`{"blocks":[{"id":"x","props":{"items":[1,2,{"k":"v"}]}}]}`),
	}

	for _, in := range inputs {
		once := SanitizeDocument(in)
		twice := SanitizeDocument(once)
		require.Equal(t, mustJSON(t, once), mustJSON(t, twice))
	}
}

func TestSanitizeRenamesDuplicateIDs(t *testing.T) {
	doc := SanitizeDocument(map[string]any{
		"blocks": []any{
			map[string]any{"id": "a", "children": []any{map[string]any{"id": "a"}}},
			map[string]any{"id": "a"},
			map[string]any{"id": "a-2"},
		},
	})

	require.Equal(t, []string{"a", "a-3", "a-4", "a-2"}, doc.IDs())
}

func TestSanitizeDoesNotAliasInput(t *testing.T) {
	props := map[string]any{"nested": map[string]any{"k": "v"}}
	doc := SanitizeDocument(map[string]any{"blocks": []any{map[string]any{"id": "a", "props": props}}})

	doc.Blocks[0].Props["nested"].(map[string]any)["k"] = "changed"
	require.Equal(t, "v", props["nested"].(map[string]any)["k"])
}

func TestSanitizeDocumentFromTypedValue(t *testing.T) {
	src := StarterDocument("Launch", "launch", "")
	doc := SanitizeDocument(src)

	require.Equal(t, src.IDs(), doc.IDs())
	require.Equal(t, "Launch", doc.PageMeta.Title)
	require.Equal(t, mustJSON(t, src), mustJSON(t, doc))
}

func TestSanitizeKeepsStringZeroID(t *testing.T) {
	canonical := SanitizeDocument(map[string]any{
		"pageMeta": map[string]any{"title": "Home", "slug": "home"},
		"blocks":   []any{map[string]any{"id": "0", "type": "Hero"}},
	})
	require.Equal(t, "0", canonical.Blocks[0].ID)
	require.Equal(t, mustJSON(t, canonical), mustJSON(t, SanitizeDocument(canonical)))
	require.Equal(t, "0", Apply(canonical, nil).Blocks[0].ID)

	for _, missing := range []any{0.0, 0, "", nil} {
		b := SanitizeBlock(map[string]any{"id": missing})
		require.NotEqual(t, "0", b.ID, "%#v", missing)
		require.NotEmpty(t, b.ID)
	}
	require.Equal(t, "7", SanitizeBlock(map[string]any{"id": 7.0}).ID)
}
