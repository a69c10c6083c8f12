package ast

import (
	"github.com/Ranrar/Marco-sub004/internal/source"
)

// Node is one tagged AST node. Nodes live in a Tree's arena and reference
// each other by NodeID, never by pointer, so the tree stays a tree: no
// cycles, no shared ownership, O(1) lookup by id.
//
// The attribute fields after Children are a union; which ones are
// meaningful depends on Kind.
type Node struct {
	Kind     NodeKind
	Span     source.Span
	Parent   NodeID
	Children []NodeID

	Depth uint8 // heading: 1..6

	Ordered bool // list
	Tight   bool // list
	Start   int  // ordered list start number

	Marker byte       // list: '-' '*' '+' '.' ')'; code block: fence byte
	Fence  FenceStyle // code block
	Lang   string     // code block info string

	Aligns []Alignment // table, one per column

	Dest  string // link/image destination, autolink target
	Title string // link title
	Alt   string // image alt text

	Autolink AutolinkKind
	Break    BreakKind

	Label string // admonition kind ("note", "warning", ...)

	// Content is the literal text for Text, CodeSpan, CodeBlock and RawHTML
	// nodes, after escape processing. For all other kinds the source slice
	// under Span is authoritative.
	Content string
}
