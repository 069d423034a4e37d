package dsl

import (
	"fmt"
	"math"

	"github.com/spf13/cast"
)

const (
	defaultBlockType = "Section"
	defaultTitle     = "Untitled page"
	defaultSlug      = "untitled-page"
)

// SanitizeDocument turns any JSON-shaped value into a canonical Document.
// It never fails: unknown shapes degrade to defaults. Blocks without an id
// get a generated one, and ids that repeat are renamed so every id in the
// result is unique. Sanitizing a canonical document returns it unchanged.
func SanitizeDocument(raw any) Document {
	rec := asRecord(raw)

	doc := Document{
		Version:        1,
		PageMeta:       sanitizePageMeta(rec["pageMeta"]),
		GlobalBindings: cloneRecord(asRecord(rec["globalBindings"])),
		Blocks:         []Block{},
		Assets:         []string{},
	}
	if v, ok := asInt(rec["version"]); ok {
		doc.Version = v
	}
	if list, ok := asList(rec["blocks"]); ok {
		doc.Blocks = sanitizeBlocks(list)
	}
	if list, ok := asList(rec["assets"]); ok {
		for _, a := range list {
			doc.Assets = append(doc.Assets, stringify(a))
		}
	}
	dedupeIDs(doc.Blocks)
	return doc
}

// SanitizeBlock turns any JSON-shaped value into a canonical Block. Ids are
// made unique within the block's own subtree.
func SanitizeBlock(raw any) Block {
	b := sanitizeBlock(asRecord(raw))
	list := []Block{b}
	dedupeIDs(list)
	return list[0]
}

func sanitizePageMeta(raw any) PageMeta {
	rec := asRecord(raw)
	meta := PageMeta{Title: defaultTitle, Slug: defaultSlug}
	if v, ok := rec["title"]; ok && v != nil {
		meta.Title = stringify(v)
	}
	if v, ok := rec["slug"]; ok && v != nil {
		meta.Slug = stringify(v)
	}
	if v, ok := rec["description"]; ok && v != nil {
		d := stringify(v)
		meta.Description = &d
	}
	return meta
}

func sanitizeBlocks(list []any) []Block {
	out := make([]Block, 0, len(list))
	for _, item := range list {
		out = append(out, sanitizeBlock(asRecord(item)))
	}
	return out
}

func sanitizeBlock(rec map[string]any) Block {
	b := Block{
		ID:              blockID(rec["id"]),
		Type:            defaultBlockType,
		Props:           cloneRecord(asRecord(rec["props"])),
		StyleTokens:     stringMap(rec["styleTokens"]),
		Children:        []Block{},
		ContentBindings: stringMap(rec["contentBindings"]),
	}
	if t, ok := rec["type"].(string); ok && t != "" {
		b.Type = t
	}
	if list, ok := asList(rec["children"]); ok {
		b.Children = sanitizeBlocks(list)
	}
	return b
}

// blockID keeps any non-empty string, including "0". Null, composites,
// booleans and a numeric zero count as missing.
func blockID(v any) string {
	switch t := v.(type) {
	case nil, map[string]any, []any, bool:
		return NewID("block")
	case string:
		if t != "" {
			return t
		}
		return NewID("block")
	}
	if f, err := cast.ToFloat64E(v); err == nil && (f == 0 || math.IsNaN(f)) {
		return NewID("block")
	}
	if id := stringify(v); id != "" {
		return id
	}
	return NewID("block")
}

// dedupeIDs renames repeated ids in pre-order. The first occurrence keeps
// its id; later ones become "<id>-2", "<id>-3" and so on, skipping any name
// already present in the tree.
func dedupeIDs(blocks []Block) {
	taken := map[string]bool{}
	var collect func(list []Block)
	collect = func(list []Block) {
		for _, b := range list {
			taken[b.ID] = true
			collect(b.Children)
		}
	}
	collect(blocks)

	seen := map[string]bool{}
	var fix func(list []Block)
	fix = func(list []Block) {
		for i := range list {
			id := list[i].ID
			if seen[id] {
				id = freeID(id, func(c string) bool { return taken[c] || seen[c] })
				list[i].ID = id
			}
			seen[id] = true
			fix(list[i].Children)
		}
	}
	fix(blocks)
}

func freeID(base string, used func(string) bool) string {
	for n := 2; ; n++ {
		c := fmt.Sprintf("%s-%d", base, n)
		if !used(c) {
			return c
		}
	}
}
