package dsl

// Tree is an id-keyed arena view of a block list. Each node records its
// parent and the ordered ids of its children, so lookups and relinking do
// not need to walk the whole document.
type Tree struct {
	nodes map[string]*node
	roots []string
}

type node struct {
	block    Block // Children is always nil; structure lives in children
	parent   string
	children []string
}

// Location is where a block sits: its parent ("" for the document root)
// and its index within that parent's children.
type Location struct {
	ParentID string
	Index    int
}

// NewTree loads blocks into a new arena. Block contents are deep-copied.
// Ids are expected to be unique; a repeated id is renamed on the way in.
func NewTree(blocks []Block) *Tree {
	t := &Tree{nodes: make(map[string]*node)}
	for _, b := range blocks {
		t.roots = append(t.roots, t.attach(b, ""))
	}
	return t
}

// Len returns the number of blocks in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// Has reports whether a block with the given id exists.
func (t *Tree) Has(id string) bool {
	_, ok := t.nodes[id]
	return ok
}

// Locate finds the parent and index of a block.
func (t *Tree) Locate(id string) (Location, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return Location{}, false
	}
	siblings := t.childrenOf(n.parent)
	for i, sid := range *siblings {
		if sid == id {
			return Location{ParentID: n.parent, Index: i}, true
		}
	}
	return Location{}, false
}

// Block returns a copy of the block with its subtree.
func (t *Tree) Block(id string) (Block, bool) {
	if _, ok := t.nodes[id]; !ok {
		return Block{}, false
	}
	return t.build(id), true
}

// Insert places b under parentID at index. A nil or empty parent means the
// document root; an unknown parent appends b to the root. The index is
// clamped into range and a nil index appends. Ids in b that already exist in
// the tree are renamed. It returns the id b was stored under.
func (t *Tree) Insert(parentID *string, index *int, b Block) string {
	parent := ""
	if parentID != nil && *parentID != "" {
		if _, ok := t.nodes[*parentID]; ok {
			parent = *parentID
		} else {
			index = nil
		}
	}
	id := t.attach(b, parent)
	t.link(id, parent, index)
	return id
}

// Remove deletes a block and its subtree. It reports whether the block existed.
func (t *Tree) Remove(id string) bool {
	if !t.detach(id) {
		return false
	}
	t.drop(id)
	return true
}

// Replace swaps the block at id's slot for b, subtree included.
func (t *Tree) Replace(id string, b Block) (string, bool) {
	loc, ok := t.Locate(id)
	if !ok {
		return "", false
	}
	t.detach(id)
	t.drop(id)
	newID := t.attach(b, loc.ParentID)
	idx := loc.Index
	t.link(newID, loc.ParentID, &idx)
	return newID, true
}

// IsWithin reports whether id is ancestor or one of its descendants.
func (t *Tree) IsWithin(id, ancestor string) bool {
	for cur := id; cur != ""; {
		if cur == ancestor {
			return true
		}
		n, ok := t.nodes[cur]
		if !ok {
			return false
		}
		cur = n.parent
	}
	return false
}

// Move relinks a block under toParentID at toIndex with the same parent and
// index rules as Insert. The index refers to the destination list after the
// block has been taken out. It returns false when the block does not exist.
func (t *Tree) Move(id string, toParentID *string, toIndex *int) bool {
	if !t.detach(id) {
		return false
	}
	parent := ""
	if toParentID != nil && *toParentID != "" {
		if _, ok := t.nodes[*toParentID]; ok {
			parent = *toParentID
		} else {
			toIndex = nil
		}
	}
	t.nodes[id].parent = parent
	t.link(id, parent, toIndex)
	return true
}

// Update applies fn to the block's own fields. Changes to Children are ignored.
func (t *Tree) Update(id string, fn func(b *Block)) bool {
	n, ok := t.nodes[id]
	if !ok {
		return false
	}
	fn(&n.block)
	n.block.Children = nil
	return true
}

// Blocks rebuilds the nested block list.
func (t *Tree) Blocks() []Block {
	out := make([]Block, 0, len(t.roots))
	for _, id := range t.roots {
		out = append(out, t.build(id))
	}
	return out
}

func (t *Tree) build(id string) Block {
	n := t.nodes[id]
	b := n.block
	b.Props = cloneRecord(n.block.Props)
	b.StyleTokens = copyStrings(n.block.StyleTokens)
	b.ContentBindings = copyStrings(n.block.ContentBindings)
	b.Children = make([]Block, 0, len(n.children))
	for _, cid := range n.children {
		b.Children = append(b.Children, t.build(cid))
	}
	return b
}

// attach stores b's subtree in the arena without linking b into any list.
func (t *Tree) attach(b Block, parent string) string {
	id := b.ID
	if id == "" {
		id = NewID("block")
	}
	if _, taken := t.nodes[id]; taken {
		id = freeID(id, t.Has)
	}
	n := &node{parent: parent}
	n.block = b
	n.block.ID = id
	n.block.Props = cloneRecord(b.Props)
	n.block.StyleTokens = copyStrings(b.StyleTokens)
	n.block.ContentBindings = copyStrings(b.ContentBindings)
	n.block.Children = nil
	t.nodes[id] = n
	for _, c := range b.Children {
		n.children = append(n.children, t.attach(c, id))
	}
	return id
}

func (t *Tree) link(id, parent string, index *int) {
	list := t.childrenOf(parent)
	at := len(*list)
	if index != nil {
		at = clamp(*index, 0, len(*list))
	}
	*list = append(*list, "")
	copy((*list)[at+1:], (*list)[at:])
	(*list)[at] = id
}

func (t *Tree) detach(id string) bool {
	loc, ok := t.Locate(id)
	if !ok {
		return false
	}
	list := t.childrenOf(loc.ParentID)
	*list = append((*list)[:loc.Index], (*list)[loc.Index+1:]...)
	return true
}

func (t *Tree) drop(id string) {
	n := t.nodes[id]
	for _, cid := range n.children {
		t.drop(cid)
	}
	delete(t.nodes, id)
}

func (t *Tree) childrenOf(parent string) *[]string {
	if parent == "" {
		return &t.roots
	}
	return &t.nodes[parent].children
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func copyStrings(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
