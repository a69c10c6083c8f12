package ast

// NodeKind tags the variant of a Node.
type NodeKind uint8

const (
	NodeInvalid NodeKind = iota

	// Blocks
	NodeDocument
	NodeHeading
	NodeParagraph
	NodeList
	NodeListItem
	NodeBlockQuote
	NodeCodeBlock
	NodeTable
	NodeTableRow
	NodeTableCell
	NodeThematicBreak
	NodeAdmonition

	// Inlines
	NodeEmphasis
	NodeStrong
	NodeStrikethrough
	NodeCodeSpan
	NodeLink
	NodeImage
	NodeAutolink
	NodeRawHTML
	NodeLineBreak
	NodeText

	nodeKindCount
)

var kindNames = [...]string{
	NodeInvalid:       "invalid",
	NodeDocument:      "document",
	NodeHeading:       "heading",
	NodeParagraph:     "paragraph",
	NodeList:          "list",
	NodeListItem:      "list_item",
	NodeBlockQuote:    "block_quote",
	NodeCodeBlock:     "code_block",
	NodeTable:         "table",
	NodeTableRow:      "table_row",
	NodeTableCell:     "table_cell",
	NodeThematicBreak: "thematic_break",
	NodeAdmonition:    "admonition",
	NodeEmphasis:      "emphasis",
	NodeStrong:        "strong",
	NodeStrikethrough: "strikethrough",
	NodeCodeSpan:      "code_span",
	NodeLink:          "link",
	NodeImage:         "image",
	NodeAutolink:      "autolink",
	NodeRawHTML:       "raw_html",
	NodeLineBreak:     "line_break",
	NodeText:          "text",
}

func (k NodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// KindByName resolves the schema/table identifier back to a kind.
// Returns NodeInvalid when unknown.
func KindByName(name string) NodeKind {
	for k, n := range kindNames {
		if n == name {
			return NodeKind(k)
		}
	}
	return NodeInvalid
}

// IsBlock reports whether the kind is a block-level construct.
func (k NodeKind) IsBlock() bool {
	return k >= NodeDocument && k <= NodeAdmonition
}

// IsInline reports whether the kind is an inline construct.
func (k NodeKind) IsInline() bool {
	return k >= NodeEmphasis && k <= NodeText
}

// IsLeaf reports whether nodes of this kind never carry children.
func (k NodeKind) IsLeaf() bool {
	switch k {
	case NodeThematicBreak, NodeCodeBlock, NodeCodeSpan, NodeAutolink,
		NodeRawHTML, NodeLineBreak, NodeText:
		return true
	default:
		return false
	}
}

// Alignment is a table column alignment.
type Alignment uint8

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "none"
	}
}

// AutolinkKind distinguishes URI and email autolinks.
type AutolinkKind uint8

const (
	AutolinkURI AutolinkKind = iota
	AutolinkEmail
)

func (k AutolinkKind) String() string {
	if k == AutolinkEmail {
		return "email"
	}
	return "uri"
}

// BreakKind distinguishes hard and soft line breaks.
type BreakKind uint8

const (
	BreakSoft BreakKind = iota
	BreakHard
)

func (k BreakKind) String() string {
	if k == BreakHard {
		return "hard"
	}
	return "soft"
}

// FenceStyle records how a code block was introduced.
type FenceStyle uint8

const (
	FenceBacktick FenceStyle = iota
	FenceTilde
	FenceIndent
)

func (s FenceStyle) String() string {
	switch s {
	case FenceTilde:
		return "tilde"
	case FenceIndent:
		return "indent"
	default:
		return "backtick"
	}
}
