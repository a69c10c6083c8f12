package ast

import (
	"github.com/Ranrar/Marco-sub004/internal/source"
)

// Tree owns the node arena of one parsed document.
type Tree struct {
	nodes *Arena[Node]
	Root  NodeID
}

// NewTree allocates a tree and its document root covering span.
func NewTree(capHint uint, span source.Span) *Tree {
	t := &Tree{nodes: NewArena[Node](capHint)}
	t.Root = NodeID(t.nodes.Allocate(Node{Kind: NodeDocument, Span: span}))
	return t
}

// Alloc stores a new unattached node and returns its id.
func (t *Tree) Alloc(n Node) NodeID {
	return NodeID(t.nodes.Allocate(n))
}

// Get returns the node for id, or nil when id is NoNode or stale.
func (t *Tree) Get(id NodeID) *Node {
	return t.nodes.Get(uint32(id))
}

// Len returns the number of allocated nodes, reachable or not.
func (t *Tree) Len() uint32 {
	return t.nodes.Len()
}

// AppendChild attaches child as the last child of parent.
func (t *Tree) AppendChild(parent, child NodeID) {
	p := t.Get(parent)
	c := t.Get(child)
	if p == nil || c == nil {
		return
	}
	c.Parent = parent
	p.Children = append(p.Children, child)
}

// Walk visits the subtree rooted at id in depth-first pre-order.
// Returning false from visit prunes that node's subtree.
func (t *Tree) Walk(id NodeID, visit func(id NodeID, n *Node) bool) {
	n := t.Get(id)
	if n == nil {
		return
	}
	if !visit(id, n) {
		return
	}
	for _, child := range n.Children {
		t.Walk(child, visit)
	}
}

// InnermostAt returns the deepest node whose span contains the byte offset,
// starting from the root. Falls back to the root itself.
func (t *Tree) InnermostAt(off uint32) NodeID {
	id := t.Root
	for {
		n := t.Get(id)
		if n == nil {
			return NoNode
		}
		next := NoNode
		for _, childID := range n.Children {
			child := t.Get(childID)
			if child != nil && child.Span.Contains(off) {
				next = childID
			}
		}
		if next == NoNode {
			return id
		}
		id = next
	}
}

// BlockAt returns the top-level block (direct child of the document root)
// containing the offset, with its index among the root's children.
// Returns NoNode, -1 when the offset falls between blocks.
func (t *Tree) BlockAt(off uint32) (NodeID, int) {
	root := t.Get(t.Root)
	if root == nil {
		return NoNode, -1
	}
	for i, childID := range root.Children {
		child := t.Get(childID)
		if child != nil && child.Span.Contains(off) {
			return childID, i
		}
	}
	return NoNode, -1
}

// Clone produces a copy-on-write duplicate: node ids remain valid in the
// clone, and modifications to the clone never touch the original. Children
// slices are duplicated so appends stay private to each tree.
func (t *Tree) Clone() *Tree {
	clone := &Tree{nodes: t.nodes.Clone(), Root: t.Root}
	for i := range clone.nodes.data {
		n := &clone.nodes.data[i]
		if len(n.Children) > 0 {
			n.Children = append([]NodeID(nil), n.Children...)
		}
		if len(n.Aligns) > 0 {
			n.Aligns = append([]Alignment(nil), n.Aligns...)
		}
	}
	return clone
}

// ShiftSubtree moves every span in the subtree rooted at id by delta.
func (t *Tree) ShiftSubtree(id NodeID, delta int64) {
	t.Walk(id, func(_ NodeID, n *Node) bool {
		n.Span = n.Span.Shift(delta)
		return true
	})
}
