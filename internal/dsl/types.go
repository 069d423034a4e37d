// Package dsl holds the block-tree page document, the operations that edit
// it and the engine that applies them.
package dsl

// Block is one node of a page's content tree.
type Block struct {
	ID              string            `json:"id"`
	Type            string            `json:"type"`
	Props           map[string]any    `json:"props"`
	StyleTokens     map[string]string `json:"styleTokens"`
	Children        []Block           `json:"children"`
	ContentBindings map[string]string `json:"contentBindings"`
}

// PageMeta is the page-level metadata carried by a document.
type PageMeta struct {
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Description *string `json:"description,omitempty"`
}

// Document is the payload of exactly one revision.
type Document struct {
	Version        int            `json:"version"`
	PageMeta       PageMeta       `json:"pageMeta"`
	Blocks         []Block        `json:"blocks"`
	GlobalBindings map[string]any `json:"globalBindings"`
	Assets         []string       `json:"assets"`
}

// OpKind names an edit operation.
type OpKind string

const (
	OpAdd           OpKind = "add"
	OpRemove        OpKind = "remove"
	OpMove          OpKind = "move"
	OpUpdateProps   OpKind = "updateProps"
	OpUpdateContent OpKind = "updateContent"
	OpUpdateStyle   OpKind = "updateStyle"
	OpReplaceBlock  OpKind = "replaceBlock"
)

// Valid reports whether k is one of the known operation kinds.
func (k OpKind) Valid() bool {
	switch k {
	case OpAdd, OpRemove, OpMove, OpUpdateProps, OpUpdateContent, OpUpdateStyle, OpReplaceBlock:
		return true
	}
	return false
}

// Operation is a single declarative edit. A nil ParentBlockID or
// ToParentBlockID addresses the document root.
type Operation struct {
	Op              OpKind         `json:"op"`
	TargetBlockID   string         `json:"targetBlockId,omitempty"`
	ParentBlockID   *string        `json:"parentBlockId,omitempty"`
	Index           *int           `json:"index,omitempty"`
	ToParentBlockID *string        `json:"toParentBlockId,omitempty"`
	ToIndex         *int           `json:"toIndex,omitempty"`
	Payload         map[string]any `json:"payload,omitempty"`
	Block           *Block         `json:"block,omitempty"`
	Reason          string         `json:"reason,omitempty"`
}

// Walk visits every block in pre-order, roots first.
func (d Document) Walk(fn func(b Block, depth int)) {
	var visit func(list []Block, depth int)
	visit = func(list []Block, depth int) {
		for _, b := range list {
			fn(b, depth)
			visit(b.Children, depth+1)
		}
	}
	visit(d.Blocks, 0)
}

// IDs returns every block id in pre-order.
func (d Document) IDs() []string {
	var ids []string
	d.Walk(func(b Block, _ int) { ids = append(ids, b.ID) })
	return ids
}

// Find returns the block with the given id.
func (d Document) Find(id string) (Block, bool) {
	var (
		out   Block
		found bool
	)
	d.Walk(func(b Block, _ int) {
		if !found && b.ID == id {
			out, found = b, true
		}
	})
	return out, found
}
